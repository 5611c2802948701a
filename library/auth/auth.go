// Package auth carries admin access tokens on HTTP requests.
package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// CookieName holds the access token for browser clients
const CookieName = "accessToken"

// TokenFromRequest returns the bearer token, falling back to the cookie
func TokenFromRequest(ctx *gin.Context) string {
	header := strings.TrimSpace(ctx.GetHeader("Authorization"))
	if len(header) > len("bearer ") && strings.EqualFold(header[:len("bearer ")], "bearer ") {
		return strings.TrimSpace(header[len("bearer "):])
	}

	token, err := ctx.Cookie(CookieName)
	if err != nil {
		return ""
	}

	return strings.TrimSpace(token)
}

func setSameSite(ctx *gin.Context, secure bool) {
	// cross-site admin frontends need SameSite=None, which browsers only accept with Secure
	if secure {
		ctx.SetSameSite(http.SameSiteNoneMode)
	} else {
		ctx.SetSameSite(http.SameSiteLaxMode)
	}
}

// SetTokenCookie sets the http-only access token cookie
func SetTokenCookie(ctx *gin.Context, token string, ttl time.Duration, secure bool) {
	setSameSite(ctx, secure)
	ctx.SetCookie(CookieName, token, int(ttl.Seconds()), "/", "", secure, true)
}

// ClearTokenCookie expires the access token cookie
func ClearTokenCookie(ctx *gin.Context, secure bool) {
	setSameSite(ctx, secure)
	ctx.SetCookie(CookieName, "", -1, "/", "", secure, true)
}
