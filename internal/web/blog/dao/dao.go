// Package dao contains the blog data access object.
package dao

import (
	"context"

	"github.com/Laisky/errors/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongoLib "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Laisky/laisky-cms/internal/web/blog/model"
	"github.com/Laisky/laisky-cms/library/db/mongo"
)

const colBlogs = "blogs"

// Blog dao type
type Blog struct {
	db mongo.DB
}

// New create new dao
func New(db mongo.DB) *Blog {
	return &Blog{db: db}
}

// GetBlogsCol get blogs collection
func (d *Blog) GetBlogsCol() *mongoLib.Collection {
	return d.db.GetCol(colBlogs)
}

// EnsureIndexes creates the index backing the newest-first listing
func (d *Blog) EnsureIndexes(ctx context.Context) error {
	_, err := d.GetBlogsCol().Indexes().CreateOne(ctx, mongoLib.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: -1}},
	})
	return errors.Wrap(err, "create blogs index")
}

// Insert inserts the blog and sets its ID
func (d *Blog) Insert(ctx context.Context, blog *model.Blog) error {
	if blog.ID.IsZero() {
		blog.ID = primitive.NewObjectID()
	}

	if _, err := d.GetBlogsCol().InsertOne(ctx, blog); err != nil {
		return errors.Wrap(err, "insert blog")
	}

	return nil
}

// List returns all blogs, newest first
func (d *Blog) List(ctx context.Context) (blogs []*model.Blog, err error) {
	cur, err := d.GetBlogsCol().Find(ctx, bson.D{},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, errors.Wrap(err, "find blogs")
	}
	defer cur.Close(ctx) //nolint:errcheck

	blogs = []*model.Blog{}
	if err = cur.All(ctx, &blogs); err != nil {
		return nil, errors.Wrap(err, "decode blogs")
	}

	return blogs, nil
}

// Get returns model.ErrBlogNotFound on miss
func (d *Blog) Get(ctx context.Context, id primitive.ObjectID) (*model.Blog, error) {
	blog := new(model.Blog)
	if err := d.GetBlogsCol().FindOne(ctx, bson.M{"_id": id}).Decode(blog); err != nil {
		if mongo.NotFound(err) {
			return nil, errors.WithStack(model.ErrBlogNotFound)
		}

		return nil, errors.Wrapf(err, "find blog %s", id.Hex())
	}

	return blog, nil
}

// Save replaces the whole document
func (d *Blog) Save(ctx context.Context, blog *model.Blog) error {
	ret, err := d.GetBlogsCol().ReplaceOne(ctx, bson.M{"_id": blog.ID}, blog)
	if err != nil {
		return errors.Wrapf(err, "replace blog %s", blog.ID.Hex())
	}
	if ret.MatchedCount == 0 {
		return errors.WithStack(model.ErrBlogNotFound)
	}

	return nil
}

// Delete returns model.ErrBlogNotFound on miss
func (d *Blog) Delete(ctx context.Context, id primitive.ObjectID) error {
	ret, err := d.GetBlogsCol().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrapf(err, "delete blog %s", id.Hex())
	}
	if ret.DeletedCount == 0 {
		return errors.WithStack(model.ErrBlogNotFound)
	}

	return nil
}
