package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	gmw "github.com/Laisky/gin-middlewares/v7"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Laisky/laisky-cms/internal/web/blog/dto"
	"github.com/Laisky/laisky-cms/internal/web/blog/model"
	"github.com/Laisky/laisky-cms/internal/web/blog/service"
	"github.com/Laisky/laisky-cms/library/httperr"
	"github.com/Laisky/laisky-cms/library/log"
	"github.com/Laisky/laisky-cms/library/media"
)

type memStore struct {
	mu    sync.Mutex
	blogs map[primitive.ObjectID]*model.Blog
	order []primitive.ObjectID
}

func (m *memStore) Insert(_ context.Context, blog *model.Blog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	blog.ID = primitive.NewObjectID()
	cp := *blog
	m.blogs[blog.ID] = &cp
	m.order = append(m.order, blog.ID)
	return nil
}

func (m *memStore) List(context.Context) ([]*model.Blog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.Blog{}
	for i := len(m.order) - 1; i >= 0; i-- {
		if b, ok := m.blogs[m.order[i]]; ok {
			cp := *b
			out = append(out, &cp)
		}
	}
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

type cdnUploader struct{}

func (cdnUploader) Upload(_ context.Context, file media.File) (string, error) {
	return "https://cdn.example.com/" + file.Filename, nil
}

const adminHeader = "X-Test-Admin"

func setupRouter(t *testing.T) (*gin.Engine, *memStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := &memStore{blogs: map[primitive.ObjectID]*model.Blog{}}
	svc := service.New(log.Logger.Named("test"), store, cdnUploader{}, service.WithMaxImages(3))

	router := gin.New()
	router.Use(gmw.NewLoggerMiddleware(gmw.WithLogger(log.Logger.Named("test"))))
	adminOnly := func(ctx *gin.Context) {
		if ctx.GetHeader(adminHeader) == "" {
			httperr.Abort(ctx, httperr.Unauthorized("Unauthorized"))
		}
	}
	New(svc).Register(router.Group("/api/v1/blog"), adminOnly)

	return router, store
}

type formFile struct {
	name string
	data string
}

func multipartRequest(t *testing.T, method, target string, fields [][2]string, files []formFile) *http.Request {
	t.Helper()
	body := new(bytes.Buffer)
	w := multipart.NewWriter(body)
	for _, f := range fields {
		require.NoError(t, w.WriteField(f[0], f[1]))
	}
	for _, f := range files {
		fw, err := w.CreateFormFile("images", f.name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(f.data))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set(adminHeader, "1")
	return req
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(adminHeader, "1")
	return req
}

func serve(t *testing.T, router http.Handler, req *http.Request) (*httptest.ResponseRecorder, dto.BlogResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp dto.BlogResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return rec, resp
}

const sampleSections = `[{"type":"title","content":"Hi"},{"type":"image","content":["a.png","b.png"]},{"type":"image","content":"c.png"}]`

func addSample(t *testing.T, router http.Handler) *model.Blog {
	t.Helper()
	rec, resp := serve(t, router, multipartRequest(t, http.MethodPost, "/api/v1/blog/add",
		[][2]string{
			{"sections", sampleSections},
			{"metaTitle", " Hello "},
			{"metakeywords", `["go","cms"]`},
		},
		[]formFile{{"1.png", "one"}, {"2.png", "two"}, {"3.png", "three"}},
	))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Equal(t, "Blog added successfully", resp.Message)
	return resp.Blog
}

func TestAddBlogMultipart(t *testing.T) {
	router, store := setupRouter(t)

	blog := addSample(t, router)
	require.False(t, blog.ID.IsZero())
	require.Equal(t, "Hello", blog.MetaTitle)
	require.Equal(t, []string{"go", "cms"}, blog.MetaKeywords)
	require.Equal(t, "Hi", *blog.Sections[0].Text)
	require.Equal(t, []string{
		"https://cdn.example.com/1.png",
		"https://cdn.example.com/2.png",
	}, blog.Sections[1].Items)
	require.Equal(t, "https://cdn.example.com/3.png", *blog.Sections[2].Text)
	require.Len(t, store.blogs, 1)
}

func TestAddBlogJSON(t *testing.T) {
	router, _ := setupRouter(t)

	quoted, err := json.Marshal(`[{"type":"paragraph","content":"text"}]`)
	require.NoError(t, err)
	rec, resp := serve(t, router, jsonRequest(http.MethodPost, "/api/v1/blog/add",
		`{"sections":`+string(quoted)+`,"metaKeywords":"single","link":" https://x.io "}`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Equal(t, []string{"single"}, resp.Blog.MetaKeywords)
	require.Equal(t, "https://x.io", resp.Blog.Link)
	require.Equal(t, "text", *resp.Blog.Sections[0].Text)
}

func TestAddBlogRejects(t *testing.T) {
	router, store := setupRouter(t)

	for _, tc := range []struct {
		sections string
		message  string
	}{
		{`[{"type":`, "Invalid JSON in sections"},
		{`{"type":"title","content":"x"}`, "Sections should be an array"},
		{"", "Sections should be an array"},
	} {
		rec, resp := serve(t, router, multipartRequest(t, http.MethodPost, "/api/v1/blog/add",
			[][2]string{{"sections", tc.sections}}, nil))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, tc.message, resp.Message)
	}

	rec, resp := serve(t, router, multipartRequest(t, http.MethodPost, "/api/v1/blog/add",
		[][2]string{{"sections", `[]`}},
		[]formFile{{"1", "1"}, {"2", "2"}, {"3", "3"}, {"4", "4"}}))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Too many images", resp.Message)

	require.Empty(t, store.blogs)
}

func TestAddBlogRequiresAdmin(t *testing.T) {
	router, store := setupRouter(t)

	req := multipartRequest(t, http.MethodPost, "/api/v1/blog/add", [][2]string{{"sections", `[]`}}, nil)
	req.Header.Del(adminHeader)
	rec, _ := serve(t, router, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Empty(t, store.blogs)
}

func TestListAndGetBlog(t *testing.T) {
	router, _ := setupRouter(t)
	first := addSample(t, router)
	second := addSample(t, router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/blog/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list dto.BlogsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.True(t, list.Success)
	require.Len(t, list.Blogs, 2)
	require.Equal(t, second.ID, list.Blogs[0].ID)
	require.Equal(t, first.ID, list.Blogs[1].ID)

	rec, resp := serve(t, router, httptest.NewRequest(http.MethodGet, "/api/v1/blog/single?id="+first.ID.Hex(), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, resp.Success)
	require.Equal(t, first.ID, resp.Blog.ID)

	for _, id := range []string{primitive.NewObjectID().Hex(), "bad-id", ""} {
		rec, resp = serve(t, router, httptest.NewRequest(http.MethodGet, "/api/v1/blog/single?id="+id, nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.False(t, resp.Success)
		require.Equal(t, "Blog not found", resp.Message)
	}
}

func TestEditSection(t *testing.T) {
	router, store := setupRouter(t)
	blog := addSample(t, router)
	target := "/api/v1/blog/edit?id=" + blog.ID.Hex()

	rec, resp := serve(t, router, jsonRequest(http.MethodPatch, target,
		`{"sectionIndex":0,"sectionData":{"type":"paragraph","content":"new"},"metaTitle":"changed"}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "Blog section updated successfully", resp.Message)
	require.Equal(t, model.SectionParagraph, resp.Blog.Sections[0].Type)
	require.Equal(t, "changed", resp.Blog.MetaTitle)
	require.Equal(t, []string{"go", "cms"}, resp.Blog.MetaKeywords)

	rec, resp = serve(t, router, multipartRequest(t, http.MethodPatch, target,
		[][2]string{
			{"sectionIndex", "1"},
			{"sectionData", `{"type":"image","content":["x"]}`},
			{"metaKeywords", "plain"},
		},
		[]formFile{{"n1.png", "1"}, {"n2.png", "2"}}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, []string{
		"https://cdn.example.com/n1.png",
		"https://cdn.example.com/n2.png",
	}, resp.Blog.Sections[1].Items)
	require.Equal(t, []string{"plain"}, resp.Blog.MetaKeywords)

	stored := store.blogs[blog.ID]
	require.Equal(t, "new", *stored.Sections[0].Text)
	require.Equal(t, resp.Blog.Sections[1].Items, stored.Sections[1].Items)
}

func TestEditSectionRejects(t *testing.T) {
	router, _ := setupRouter(t)
	blog := addSample(t, router)
	target := "/api/v1/blog/edit?id=" + blog.ID.Hex()

	for _, tc := range []struct {
		body    string
		status  int
		message string
	}{
		{`{"sectionData":{"type":"title","content":"x"}}`, http.StatusBadRequest, "sectionIndex and sectionData are required"},
		{`{"sectionIndex":0}`, http.StatusBadRequest, "sectionIndex and sectionData are required"},
		{`{"sectionIndex":0,"sectionData":"{oops"}`, http.StatusBadRequest, "Invalid JSON in sectionData"},
		{`{"sectionIndex":3,"sectionData":{"type":"title","content":"x"}}`, http.StatusBadRequest, "Invalid section index"},
		{`{"sectionIndex":-1,"sectionData":{"type":"title","content":"x"}}`, http.StatusBadRequest, "Invalid section index"},
	} {
		rec, resp := serve(t, router, jsonRequest(http.MethodPatch, target, tc.body))
		require.Equal(t, tc.status, rec.Code, tc.body)
		require.Equal(t, tc.message, resp.Message, tc.body)
	}

	rec, resp := serve(t, router, jsonRequest(http.MethodPatch,
		"/api/v1/blog/edit?id="+primitive.NewObjectID().Hex(),
		`{"sectionIndex":0,"sectionData":{"type":"title","content":"x"}}`))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "Blog not found", resp.Message)
}

func TestDeleteBlog(t *testing.T) {
	router, store := setupRouter(t)
	blog := addSample(t, router)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/blog/delete", nil)
	req.Header.Set(adminHeader, "1")
	rec, resp := serve(t, router, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Blog ID is required", resp.Message)

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/blog/delete?id="+primitive.NewObjectID().Hex(), nil)
	req.Header.Set(adminHeader, "1")
	rec, _ = serve(t, router, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Len(t, store.blogs, 1)

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/blog/delete?id="+blog.ID.Hex(), nil)
	req.Header.Set(adminHeader, "1")
	rec, resp = serve(t, router, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, resp.Success)
	require.Equal(t, "Blog deleted successfully", resp.Message)
	require.Empty(t, store.blogs)
}
