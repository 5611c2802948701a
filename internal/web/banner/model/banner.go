// Package model contains the banner document.
package model

import (
	"time"

	"github.com/Laisky/errors/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrBannerNotFound no banner matches the id
var ErrBannerNotFound = errors.New("banner not found")

// Banner is a promotional image shown on the site front page
type Banner struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Title     string             `bson:"title" json:"title"`
	Link      string             `bson:"link" json:"link"`
	Image     string             `bson:"image" json:"image"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
