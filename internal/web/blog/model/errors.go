package model

import "github.com/Laisky/errors/v2"

var (
	// ErrBlogNotFound no blog matches the id
	ErrBlogNotFound = errors.New("blog not found")
	// ErrInvalidSection section type or content shape is not accepted
	ErrInvalidSection = errors.New("invalid section")
)
