package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Laisky/laisky-cms/internal/web/blog/dto"
	"github.com/Laisky/laisky-cms/internal/web/blog/model"
	"github.com/Laisky/laisky-cms/library/httperr"
	"github.com/Laisky/laisky-cms/library/log"
	"github.com/Laisky/laisky-cms/library/media"
)

type memStore struct {
	mu      sync.Mutex
	blogs   map[primitive.ObjectID]*model.Blog
	saveErr error
}

func newMemStore() *memStore {
	return &memStore{blogs: map[primitive.ObjectID]*model.Blog{}}
}

func (m *memStore) Insert(_ context.Context, blog *model.Blog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	blog.ID = primitive.NewObjectID()
	cp := *blog
	m.blogs[blog.ID] = &cp
	return nil
}

func (m *memStore) List(context.Context) ([]*model.Blog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Blog, 0, len(m.blogs))
	for _, b := range m.blogs {
		cp := *b
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) Get(_ context.Context, id primitive.ObjectID) (*model.Blog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blogs[id]
	if !ok {
		return nil, model.ErrBlogNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *memStore) Save(_ context.Context, blog *model.Blog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	if _, ok := m.blogs[blog.ID]; !ok {
		return model.ErrBlogNotFound
	}
	cp := *blog
	m.blogs[blog.ID] = &cp
	return nil
}

func (m *memStore) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.blogs[id]; !ok {
		return model.ErrBlogNotFound
	}
	delete(m.blogs, id)
	return nil
}

type fakeUploader struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (u *fakeUploader) Upload(_ context.Context, file media.File) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls++
	if u.err != nil {
		return "", u.err
	}
	return "https://cdn.example.com/" + file.Filename, nil
}

func images(names ...string) []media.File {
	files := make([]media.File, 0, len(names))
	for _, name := range names {
		files = append(files, media.FromBytes(name, "image/png", []byte(name)))
	}
	return files
}

func newTestService(t *testing.T, opts ...Option) (*Blog, *memStore, *fakeUploader) {
	t.Helper()
	store := newMemStore()
	up := &fakeUploader{}
	return New(log.Logger.Named("test"), store, up, opts...), store, up
}

func requireKind(t *testing.T, err error, kind httperr.Kind, msg string) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, httperr.KindOf(err))
	_, got := httperr.Status(err)
	require.Equal(t, msg, got)
}

func TestAddBlog(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	blog, err := svc.AddBlog(ctx, &dto.AddBlogRequest{
		Sections: []model.Section{
			model.TextSection(model.SectionTitle, "Hi"),
			model.MultiImage("a.png", "b.png"),
			model.SingleImage(strPtr("c.png")),
		},
		MetaTitle: "  title ",
		Link:      " https://example.com ",
	}, images("1.png", "2.png", "3.png"))
	require.NoError(t, err)
	require.False(t, blog.ID.IsZero())
	require.Equal(t, "title", blog.MetaTitle)
	require.Equal(t, "https://example.com", blog.Link)
	require.Equal(t, []string{}, blog.MetaKeywords)
	require.Equal(t, []string{
		"https://cdn.example.com/1.png",
		"https://cdn.example.com/2.png",
	}, blog.Sections[1].Items)
	require.Equal(t, "https://cdn.example.com/3.png", *blog.Sections[2].Text)
	require.False(t, blog.CreatedAt.IsZero())

	stored, err := store.Get(ctx, blog.ID)
	require.NoError(t, err)
	require.Equal(t, blog.Sections, stored.Sections)
}

func TestAddBlogUploadFailure(t *testing.T) {
	svc, store, up := newTestService(t)
	up.err = errors.New("media host down")

	_, err := svc.AddBlog(context.Background(), &dto.AddBlogRequest{
		Sections: []model.Section{model.SingleImage(nil)},
	}, images("1.png"))
	require.Error(t, err)
	require.Equal(t, httperr.KindInternal, httperr.KindOf(err))
	require.Empty(t, store.blogs)
}

func TestAddBlogTooManyImages(t *testing.T) {
	svc, store, up := newTestService(t, WithMaxImages(2))

	_, err := svc.AddBlog(context.Background(), &dto.AddBlogRequest{}, images("1", "2", "3"))
	requireKind(t, err, httperr.KindValidation, "Too many images")
	require.Zero(t, up.calls)
	require.Empty(t, store.blogs)
}

func TestListBlogsNewestFirst(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	first, err := svc.AddBlog(ctx, &dto.AddBlogRequest{MetaTitle: "first"}, nil)
	require.NoError(t, err)

	now = now.Add(time.Hour)
	second, err := svc.AddBlog(ctx, &dto.AddBlogRequest{MetaTitle: "second"}, nil)
	require.NoError(t, err)

	blogs, err := svc.ListBlogs(ctx)
	require.NoError(t, err)
	require.Len(t, blogs, 2)
	require.Equal(t, second.ID, blogs[0].ID)
	require.Equal(t, first.ID, blogs[1].ID)
}

func TestGetBlog(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	blog, err := svc.AddBlog(ctx, &dto.AddBlogRequest{MetaTitle: "x"}, nil)
	require.NoError(t, err)

	got, err := svc.GetBlog(ctx, blog.ID.Hex())
	require.NoError(t, err)
	require.Equal(t, "x", got.MetaTitle)

	_, err = svc.GetBlog(ctx, primitive.NewObjectID().Hex())
	requireKind(t, err, httperr.KindNotFound, "Blog not found")

	_, err = svc.GetBlog(ctx, "not-an-id")
	requireKind(t, err, httperr.KindNotFound, "Blog not found")
}

func seedBlog(t *testing.T, svc *Blog) *model.Blog {
	t.Helper()
	blog, err := svc.AddBlog(context.Background(), &dto.AddBlogRequest{
		Sections: []model.Section{
			model.TextSection(model.SectionTitle, "Hi"),
			model.MultiImage("a.png"),
			model.SingleImage(strPtr("b.png")),
		},
		MetaTitle:    "old title",
		MetaKeywords: []string{"old"},
	}, images("a.png", "b.png"))
	require.NoError(t, err)
	return blog
}

func TestEditSectionReplacesText(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	blog := seedBlog(t, svc)

	got, err := svc.EditSection(ctx, &dto.EditSectionRequest{
		ID:           blog.ID.Hex(),
		SectionIndex: 0,
		Section:      model.TextSection(model.SectionParagraph, "new"),
		Meta: model.Meta{
			MetaDescription: " desc ",
			MetaKeywords:    []string{"go"},
		},
	}, nil)
	require.NoError(t, err)
	require.Equal(t, model.SectionParagraph, got.Sections[0].Type)
	require.Equal(t, "new", *got.Sections[0].Text)
	require.Equal(t, "old title", got.MetaTitle)
	require.Equal(t, "desc", got.MetaDescription)
	require.Equal(t, []string{"go"}, got.MetaKeywords)
	require.Equal(t, blog.Sections[1:], got.Sections[1:])

	stored, err := store.Get(ctx, blog.ID)
	require.NoError(t, err)
	require.Equal(t, got.Sections, stored.Sections)
}

func TestEditSectionUploadsImages(t *testing.T) {
	svc, _, up := newTestService(t)
	ctx := context.Background()
	blog := seedBlog(t, svc)
	calls := up.calls

	got, err := svc.EditSection(ctx, &dto.EditSectionRequest{
		ID:           blog.ID.Hex(),
		SectionIndex: 1,
		Section:      model.MultiImage("x.png"),
	}, images("n1.png", "n2.png"))
	require.NoError(t, err)
	require.Equal(t, []string{
		"https://cdn.example.com/n1.png",
		"https://cdn.example.com/n2.png",
	}, got.Sections[1].Items)

	got, err = svc.EditSection(ctx, &dto.EditSectionRequest{
		ID:           blog.ID.Hex(),
		SectionIndex: 2,
		Section:      model.SingleImage(strPtr("y.png")),
	}, images("s1.png", "s2.png"))
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/s1.png", *got.Sections[2].Text)
	require.Equal(t, calls+4, up.calls)

	// without files the submitted content is kept
	got, err = svc.EditSection(ctx, &dto.EditSectionRequest{
		ID:           blog.ID.Hex(),
		SectionIndex: 2,
		Section:      model.SingleImage(strPtr("https://cdn.example.com/kept.png")),
	}, nil)
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/kept.png", *got.Sections[2].Text)
}

func TestEditSectionRejectsBeforeUpload(t *testing.T) {
	svc, _, up := newTestService(t)
	ctx := context.Background()
	blog := seedBlog(t, svc)
	calls := up.calls

	for _, idx := range []int{len(blog.Sections), dto.InvalidSectionIndex, 100} {
		_, err := svc.EditSection(ctx, &dto.EditSectionRequest{
			ID:           blog.ID.Hex(),
			SectionIndex: idx,
			Section:      model.SingleImage(nil),
		}, images("n.png"))
		requireKind(t, err, httperr.KindValidation, "Invalid section index")
	}

	_, err := svc.EditSection(ctx, &dto.EditSectionRequest{
		ID:      primitive.NewObjectID().Hex(),
		Section: model.SingleImage(nil),
	}, images("n.png"))
	requireKind(t, err, httperr.KindNotFound, "Blog not found")

	require.Equal(t, calls, up.calls)
}

func TestEditSectionSaveFailure(t *testing.T) {
	svc, store, _ := newTestService(t)
	blog := seedBlog(t, svc)
	store.saveErr = errors.New("db down")

	_, err := svc.EditSection(context.Background(), &dto.EditSectionRequest{
		ID:      blog.ID.Hex(),
		Section: model.TextSection(model.SectionTitle, "x"),
	}, nil)
	require.Error(t, err)
	require.Equal(t, httperr.KindInternal, httperr.KindOf(err))
}

func TestDeleteBlog(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	blog := seedBlog(t, svc)

	requireKind(t, svc.DeleteBlog(ctx, ""), httperr.KindValidation, "Blog ID is required")
	requireKind(t, svc.DeleteBlog(ctx, primitive.NewObjectID().Hex()), httperr.KindNotFound, "Blog not found")
	requireKind(t, svc.DeleteBlog(ctx, "zzz"), httperr.KindNotFound, "Blog not found")
	require.Len(t, store.blogs, 1)

	require.NoError(t, svc.DeleteBlog(ctx, blog.ID.Hex()))
	require.Empty(t, store.blogs)
}
