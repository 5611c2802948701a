// Package model contains the blog document and its content sections.
package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Blog is one blog post, stored as a single document
type Blog struct {
	// ID unique identifier for the blog
	ID primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	// MetaTitle SEO title
	MetaTitle string `bson:"metaTitle" json:"metaTitle"`
	// MetaDescription SEO description
	MetaDescription string `bson:"metaDescription" json:"metaDescription"`
	// MetaKeywords SEO keywords
	MetaKeywords []string `bson:"metaKeywords" json:"metaKeywords"`
	// Sections content blocks in rendering order
	Sections []Section `bson:"sections" json:"sections"`
	// Link optional external link
	Link string `bson:"link" json:"link"`
	// CreatedAt set on insert, never changed
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// Meta optional fields patched by a section edit,
// empty strings and nil keywords are left untouched.
type Meta struct {
	MetaTitle       string
	MetaDescription string
	MetaKeywords    []string
}
