package dao

import (
	"context"
	"testing"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongoLib "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/Laisky/laisky-cms/internal/web/blog/model"
)

type mockDB struct {
	col *mongoLib.Collection
}

func (d mockDB) Close(context.Context) error        { return nil }
func (d mockDB) GetCol(string) *mongoLib.Collection { return d.col }
func (d mockDB) CurrentDB() *mongoLib.Database      { return d.col.Database() }

func toDoc(t *testing.T, v any) bson.D {
	t.Helper()
	raw, err := bson.Marshal(v)
	require.NoError(t, err)
	var doc bson.D
	require.NoError(t, bson.Unmarshal(raw, &doc))
	return doc
}

func sampleBlog() *model.Blog {
	url := "https://cdn.example.com/a.png"
	return &model.Blog{
		ID:           primitive.NewObjectID(),
		MetaTitle:    "hello",
		MetaKeywords: []string{"go"},
		Sections: []model.Section{
			model.TextSection(model.SectionTitle, "Hi"),
			model.MultiImage(url),
			model.SingleImage(nil),
		},
		CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestBlogDAO(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ns := "cms." + colBlogs

	mt.Run("insert", func(mt *mtest.T) {
		d := New(mockDB{col: mt.Coll})
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		blog := sampleBlog()
		blog.ID = primitive.NilObjectID
		require.NoError(mt, d.Insert(context.Background(), blog))
		require.False(mt, blog.ID.IsZero())
	})

	mt.Run("list", func(mt *mtest.T) {
		d := New(mockDB{col: mt.Coll})
		first, second := sampleBlog(), sampleBlog()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			toDoc(mt.T, first), toDoc(mt.T, second)))

		blogs, err := d.List(context.Background())
		require.NoError(mt, err)
		require.Len(mt, blogs, 2)
		require.Equal(mt, first.ID, blogs[0].ID)
		require.Equal(mt, first.Sections, blogs[0].Sections)
	})

	mt.Run("list empty", func(mt *mtest.T) {
		d := New(mockDB{col: mt.Coll})
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		blogs, err := d.List(context.Background())
		require.NoError(mt, err)
		require.NotNil(mt, blogs)
		require.Empty(mt, blogs)
	})

	mt.Run("get", func(mt *mtest.T) {
		d := New(mockDB{col: mt.Coll})
		blog := sampleBlog()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, toDoc(mt.T, blog)))

		got, err := d.Get(context.Background(), blog.ID)
		require.NoError(mt, err)
		require.Equal(mt, blog.MetaTitle, got.MetaTitle)
		require.Equal(mt, blog.Sections, got.Sections)
	})

	mt.Run("get miss", func(mt *mtest.T) {
		d := New(mockDB{col: mt.Coll})
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := d.Get(context.Background(), primitive.NewObjectID())
		require.True(mt, errors.Is(err, model.ErrBlogNotFound))
	})

	mt.Run("save", func(mt *mtest.T) {
		d := New(mockDB{col: mt.Coll})
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))
		require.NoError(mt, d.Save(context.Background(), sampleBlog()))

		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))
		err := d.Save(context.Background(), sampleBlog())
		require.True(mt, errors.Is(err, model.ErrBlogNotFound))
	})

	mt.Run("delete", func(mt *mtest.T) {
		d := New(mockDB{col: mt.Coll})
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))
		require.NoError(mt, d.Delete(context.Background(), primitive.NewObjectID()))

		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))
		err := d.Delete(context.Background(), primitive.NewObjectID())
		require.True(mt, errors.Is(err, model.ErrBlogNotFound))
	})

	mt.Run("driver error", func(mt *mtest.T) {
		d := New(mockDB{col: mt.Coll})
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    11000,
			Message: "duplicate key",
		}))

		err := d.Insert(context.Background(), sampleBlog())
		require.Error(mt, err)
		require.False(mt, errors.Is(err, model.ErrBlogNotFound))
	})
}
