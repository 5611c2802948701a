// Package dao contains the admin data access object.
package dao

import (
	"context"

	"github.com/Laisky/errors/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongoLib "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Laisky/laisky-cms/internal/web/admin/model"
	"github.com/Laisky/laisky-cms/library/db/mongo"
)

const colAdmins = "admins"

// Admin dao type
type Admin struct {
	db mongo.DB
}

// New create new dao
func New(db mongo.DB) *Admin {
	return &Admin{db: db}
}

// GetAdminsCol get admins collection
func (d *Admin) GetAdminsCol() *mongoLib.Collection {
	return d.db.GetCol(colAdmins)
}

// EnsureIndexes makes account unique
func (d *Admin) EnsureIndexes(ctx context.Context) error {
	_, err := d.GetAdminsCol().Indexes().CreateOne(ctx, mongoLib.IndexModel{
		Keys:    bson.D{{Key: "account", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return errors.Wrap(err, "create admins index")
}

// Insert returns model.ErrAccountExists when the account is taken
func (d *Admin) Insert(ctx context.Context, admin *model.Admin) error {
	if admin.ID.IsZero() {
		admin.ID = primitive.NewObjectID()
	}

	if _, err := d.GetAdminsCol().InsertOne(ctx, admin); err != nil {
		if mongo.IsDuplicateKey(err) {
			return errors.WithStack(model.ErrAccountExists)
		}

		return errors.Wrap(err, "insert admin")
	}

	return nil
}

func (d *Admin) findOne(ctx context.Context, filter bson.M) (*model.Admin, error) {
	admin := new(model.Admin)
	if err := d.GetAdminsCol().FindOne(ctx, filter).Decode(admin); err != nil {
		if mongo.NotFound(err) {
			return nil, errors.WithStack(model.ErrAdminNotFound)
		}

		return nil, errors.Wrap(err, "find admin")
	}

	return admin, nil
}

// GetByAccount returns model.ErrAdminNotFound on miss
func (d *Admin) GetByAccount(ctx context.Context, account string) (*model.Admin, error) {
	return d.findOne(ctx, bson.M{"account": account})
}

// GetByID returns model.ErrAdminNotFound on miss
func (d *Admin) GetByID(ctx context.Context, id primitive.ObjectID) (*model.Admin, error) {
	return d.findOne(ctx, bson.M{"_id": id})
}
