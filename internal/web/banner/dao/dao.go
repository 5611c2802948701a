// Package dao contains the banner data access object.
package dao

import (
	"context"

	"github.com/Laisky/errors/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongoLib "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Laisky/laisky-cms/internal/web/banner/model"
	"github.com/Laisky/laisky-cms/library/db/mongo"
)

const colBanners = "banners"

// Banner dao type
type Banner struct {
	db mongo.DB
}

// New create new dao
func New(db mongo.DB) *Banner {
	return &Banner{db: db}
}

// GetBannersCol get banners collection
func (d *Banner) GetBannersCol() *mongoLib.Collection {
	return d.db.GetCol(colBanners)
}

// Insert inserts the banner and sets its ID
func (d *Banner) Insert(ctx context.Context, banner *model.Banner) error {
	if banner.ID.IsZero() {
		banner.ID = primitive.NewObjectID()
	}

	_, err := d.GetBannersCol().InsertOne(ctx, banner)
	return errors.Wrap(err, "insert banner")
}

// List returns all banners, newest first
func (d *Banner) List(ctx context.Context) ([]*model.Banner, error) {
	cur, err := d.GetBannersCol().Find(ctx, bson.D{},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, errors.Wrap(err, "find banners")
	}
	defer cur.Close(ctx) //nolint:errcheck

	banners := []*model.Banner{}
	if err = cur.All(ctx, &banners); err != nil {
		return nil, errors.Wrap(err, "decode banners")
	}

	return banners, nil
}

// Get returns model.ErrBannerNotFound on miss
func (d *Banner) Get(ctx context.Context, id primitive.ObjectID) (*model.Banner, error) {
	banner := new(model.Banner)
	if err := d.GetBannersCol().FindOne(ctx, bson.M{"_id": id}).Decode(banner); err != nil {
		if mongo.NotFound(err) {
			return nil, errors.WithStack(model.ErrBannerNotFound)
		}

		return nil, errors.Wrapf(err, "find banner %s", id.Hex())
	}

	return banner, nil
}

// Save replaces the whole document
func (d *Banner) Save(ctx context.Context, banner *model.Banner) error {
	ret, err := d.GetBannersCol().ReplaceOne(ctx, bson.M{"_id": banner.ID}, banner)
	if err != nil {
		return errors.Wrapf(err, "replace banner %s", banner.ID.Hex())
	}
	if ret.MatchedCount == 0 {
		return errors.WithStack(model.ErrBannerNotFound)
	}

	return nil
}

// Delete returns model.ErrBannerNotFound on miss
func (d *Banner) Delete(ctx context.Context, id primitive.ObjectID) error {
	ret, err := d.GetBannersCol().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrapf(err, "delete banner %s", id.Hex())
	}
	if ret.DeletedCount == 0 {
		return errors.WithStack(model.ErrBannerNotFound)
	}

	return nil
}
