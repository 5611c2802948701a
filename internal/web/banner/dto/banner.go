// Package dto holds banner requests and responses.
package dto

import "github.com/Laisky/laisky-cms/internal/web/banner/model"

// AddBannerRequest banner creation input
type AddBannerRequest struct {
	Title string
	Link  string
}

// EditBannerRequest nil fields are left untouched
type EditBannerRequest struct {
	ID    string
	Title *string
	Link  *string
}

// BannerResponse single banner
type BannerResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message,omitempty"`
	Banner  *model.Banner `json:"banner"`
}

// BannersResponse banner list
type BannersResponse struct {
	Success bool            `json:"success"`
	Banners []*model.Banner `json:"banners"`
}

// MessageResponse write without payload
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
