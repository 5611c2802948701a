// Package dto holds admin requests and responses.
package dto

import "github.com/Laisky/laisky-cms/internal/web/admin/model"

// LoginRequest credentials, accepted as JSON or form
type LoginRequest struct {
	Account  string `json:"account" form:"account"`
	Password string `json:"password" form:"password"`
}

// LoginResponse carries the token for non-browser clients
type LoginResponse struct {
	Success bool         `json:"success"`
	Token   string       `json:"token"`
	Admin   *model.Admin `json:"admin"`
}

// AdminResponse current admin
type AdminResponse struct {
	Success bool         `json:"success"`
	Admin   *model.Admin `json:"admin"`
}

// MessageResponse write without payload
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
