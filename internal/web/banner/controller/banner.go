// Package controller serves the banner REST endpoints.
package controller

import (
	"net/http"

	"github.com/Laisky/errors/v2"
	"github.com/gin-gonic/gin"

	"github.com/Laisky/laisky-cms/internal/web/banner/dto"
	"github.com/Laisky/laisky-cms/internal/web/banner/service"
	"github.com/Laisky/laisky-cms/library/httperr"
	"github.com/Laisky/laisky-cms/library/media"
)

const imageField = "image"

// Banner banner controller
type Banner struct {
	svc *service.Banner
}

// New create banner controller
func New(svc *service.Banner) *Banner {
	return &Banner{svc: svc}
}

// Register mounts the banner routes, writes go through adminOnly
func (c *Banner) Register(r gin.IRouter, adminOnly gin.HandlerFunc) {
	r.GET("/", c.ListBanners)
	r.GET("/single", c.GetBanner)
	r.POST("/add", adminOnly, c.AddBanner)
	r.PATCH("/edit", adminOnly, c.EditBanner)
	r.DELETE("/delete", adminOnly, c.DeleteBanner)
}

// formImage returns nil when the request carries no image file
func formImage(ctx *gin.Context) (*media.File, error) {
	fh, err := ctx.FormFile(imageField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}

		return nil, httperr.Wrap(httperr.KindValidation, err, "Invalid multipart form")
	}

	file := media.FromMultipart(fh)
	return &file, nil
}

func optionalForm(ctx *gin.Context, key string) *string {
	if v, ok := ctx.GetPostForm(key); ok {
		return &v
	}

	return nil
}

// AddBanner creates a banner from a multipart form with an image file
func (c *Banner) AddBanner(ctx *gin.Context) {
	image, err := formImage(ctx)
	if err != nil {
		httperr.Abort(ctx, err)
		return
	}

	banner, err := c.svc.AddBanner(ctx.Request.Context(), &dto.AddBannerRequest{
		Title: ctx.PostForm("title"),
		Link:  ctx.PostForm("link"),
	}, image)
	if err != nil {
		httperr.Abort(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.BannerResponse{
		Success: true,
		Message: "Banner added successfully",
		Banner:  banner,
	})
}

// ListBanners returns all banners, newest first
func (c *Banner) ListBanners(ctx *gin.Context) {
	banners, err := c.svc.ListBanners(ctx.Request.Context())
	if err != nil {
		httperr.Abort(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.BannersResponse{Success: true, Banners: banners})
}

// GetBanner returns the banner of query id
func (c *Banner) GetBanner(ctx *gin.Context) {
	banner, err := c.svc.GetBanner(ctx.Request.Context(), ctx.Query("id"))
	if err != nil {
		httperr.Abort(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.BannerResponse{Success: true, Banner: banner})
}

// EditBanner patches the banner of query id
func (c *Banner) EditBanner(ctx *gin.Context) {
	image, err := formImage(ctx)
	if err != nil {
		httperr.Abort(ctx, err)
		return
	}

	banner, err := c.svc.EditBanner(ctx.Request.Context(), &dto.EditBannerRequest{
		ID:    ctx.Query("id"),
		Title: optionalForm(ctx, "title"),
		Link:  optionalForm(ctx, "link"),
	}, image)
	if err != nil {
		httperr.Abort(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.BannerResponse{
		Success: true,
		Message: "Banner updated successfully",
		Banner:  banner,
	})
}

// DeleteBanner deletes the banner of query id
func (c *Banner) DeleteBanner(ctx *gin.Context) {
	if err := c.svc.DeleteBanner(ctx.Request.Context(), ctx.Query("id")); err != nil {
		httperr.Abort(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.MessageResponse{
		Success: true,
		Message: "Banner deleted successfully",
	})
}
