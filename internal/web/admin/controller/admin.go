// Package controller serves admin login and guards admin-only routes.
package controller

import (
	"net/http"

	"github.com/Laisky/errors/v2"
	"github.com/gin-gonic/gin"

	"github.com/Laisky/laisky-cms/internal/web/admin/dto"
	"github.com/Laisky/laisky-cms/internal/web/admin/service"
	"github.com/Laisky/laisky-cms/library/auth"
	"github.com/Laisky/laisky-cms/library/httperr"
	"github.com/Laisky/laisky-cms/library/jwt"
)

const claimsCtxKey = "cms_admin_claims"

// Admin admin controller
type Admin struct {
	svc          *service.Admin
	cookieSecure bool
}

// New create admin controller, cookieSecure marks the token cookie Secure
func New(svc *service.Admin, cookieSecure bool) *Admin {
	return &Admin{
		svc:          svc,
		cookieSecure: cookieSecure,
	}
}

// Register mounts login, logout and me
func (c *Admin) Register(r gin.IRouter) {
	r.POST("/login", c.Login)
	r.POST("/logout", c.AdminOnly, c.Logout)
	r.GET("/me", c.AdminOnly, c.Me)
}

// AdminOnly rejects requests without a valid admin token
func (c *Admin) AdminOnly(ctx *gin.Context) {
	claims, err := c.svc.Authenticate(ctx.Request.Context(), auth.TokenFromRequest(ctx))
	if err != nil {
		httperr.Abort(ctx, err)
		return
	}

	ctx.Set(claimsCtxKey, claims)
	ctx.Next()
}

// ClaimsFromContext returns the claims stored by AdminOnly
func ClaimsFromContext(ctx *gin.Context) (*jwt.Claims, bool) {
	v, ok := ctx.Get(claimsCtxKey)
	if !ok {
		return nil, false
	}

	claims, ok := v.(*jwt.Claims)
	return claims, ok
}

func mustClaims(ctx *gin.Context) (*jwt.Claims, error) {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return nil, errors.New("admin claims missing from context")
	}

	return claims, nil
}

// Login issues a token in the body and in an http-only cookie
func (c *Admin) Login(ctx *gin.Context) {
	var req dto.LoginRequest
	if err := ctx.ShouldBind(&req); err != nil {
		httperr.Abort(ctx, httperr.Wrap(httperr.KindValidation, err, "Invalid request body"))
		return
	}

	token, admin, err := c.svc.Login(ctx.Request.Context(), req.Account, req.Password)
	if err != nil {
		httperr.Abort(ctx, err)
		return
	}

	auth.SetTokenCookie(ctx, token, c.svc.TokenTTL(), c.cookieSecure)
	ctx.JSON(http.StatusOK, dto.LoginResponse{
		Success: true,
		Token:   token,
		Admin:   admin,
	})
}

// Logout revokes the current token and clears the cookie
func (c *Admin) Logout(ctx *gin.Context) {
	claims, err := mustClaims(ctx)
	if err != nil {
		httperr.Abort(ctx, err)
		return
	}

	if err = c.svc.Logout(ctx.Request.Context(), claims); err != nil {
		httperr.Abort(ctx, err)
		return
	}

	auth.ClearTokenCookie(ctx, c.cookieSecure)
	ctx.JSON(http.StatusOK, dto.MessageResponse{
		Success: true,
		Message: "Logged out successfully",
	})
}

// Me returns the current admin
func (c *Admin) Me(ctx *gin.Context) {
	claims, err := mustClaims(ctx)
	if err != nil {
		httperr.Abort(ctx, err)
		return
	}

	admin, err := c.svc.Me(ctx.Request.Context(), claims)
	if err != nil {
		httperr.Abort(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.AdminResponse{Success: true, Admin: admin})
}
