package mongo

import (
	"github.com/Laisky/errors/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongoLib "go.mongodb.org/mongo-driver/mongo"
)

// NotFound reports whether err means no document matched.
func NotFound(err error) bool {
	return errors.Is(err, mongoLib.ErrNoDocuments)
}

// IsDuplicateKey reports whether err is a unique index violation.
func IsDuplicateKey(err error) bool {
	return mongoLib.IsDuplicateKeyError(err)
}

// ParseID parses a hex object id. ok is false for empty or malformed ids.
func ParseID(hex string) (id primitive.ObjectID, ok bool) {
	if hex == "" {
		return id, false
	}

	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return id, false
	}

	return id, true
}
