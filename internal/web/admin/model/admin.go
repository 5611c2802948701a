// Package model contains admin accounts.
package model

import (
	"time"

	"github.com/Laisky/errors/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrAdminNotFound no admin matches the query
	ErrAdminNotFound = errors.New("admin not found")
	// ErrAccountExists account is already taken
	ErrAccountExists = errors.New("account already exists")
)

// Admin is an account allowed to manage blogs and banners
type Admin struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Account string             `bson:"account" json:"account"`
	// Password bcrypt hash
	Password  string    `bson:"password" json:"-"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}
