// Package service is the service layer of blog.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"github.com/jinzhu/copier"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Laisky/laisky-cms/internal/web/blog/dto"
	"github.com/Laisky/laisky-cms/internal/web/blog/model"
	"github.com/Laisky/laisky-cms/library/db/mongo"
	"github.com/Laisky/laisky-cms/library/httperr"
	"github.com/Laisky/laisky-cms/library/media"
)

const (
	defaultUploadConcurrency = 4
	defaultMaxImages         = 20
)

// Store is the persistence of blog documents
type Store interface {
	Insert(ctx context.Context, blog *model.Blog) error
	// List returns all blogs, newest first
	List(ctx context.Context) ([]*model.Blog, error)
	// Get returns model.ErrBlogNotFound on miss
	Get(ctx context.Context, id primitive.ObjectID) (*model.Blog, error)
	// Save replaces the whole document
	Save(ctx context.Context, blog *model.Blog) error
	// Delete returns model.ErrBlogNotFound on miss
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// Blog blog service
type Blog struct {
	logger            logSDK.Logger
	store             Store
	uploader          media.Uploader
	uploadConcurrency int
	maxImages         int
	now               func() time.Time
}

// Option configures the blog service
type Option func(*Blog)

// WithUploadConcurrency limits parallel uploads of one request
func WithUploadConcurrency(n int) Option {
	return func(b *Blog) {
		if n > 0 {
			b.uploadConcurrency = n
		}
	}
}

// WithMaxImages limits the number of image files per request
func WithMaxImages(n int) Option {
	return func(b *Blog) {
		if n > 0 {
			b.maxImages = n
		}
	}
}

// New new blog service
func New(logger logSDK.Logger, store Store, uploader media.Uploader, opts ...Option) *Blog {
	b := &Blog{
		logger:            logger,
		store:             store,
		uploader:          uploader,
		uploadConcurrency: defaultUploadConcurrency,
		maxImages:         defaultMaxImages,
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}

	return b
}

// MaxImages max image files accepted by one request
func (s *Blog) MaxImages() int {
	return s.maxImages
}

func (s *Blog) upload(ctx context.Context, images []media.File) ([]string, error) {
	if len(images) > s.maxImages {
		return nil, httperr.Validation("Too many images")
	}

	urls, err := media.UploadAll(ctx, s.uploader, images, s.uploadConcurrency)
	if err != nil {
		return nil, errors.Wrap(err, "upload images")
	}

	return urls, nil
}

// AddBlog uploads images, fills them into the image sections and saves the blog
func (s *Blog) AddBlog(ctx context.Context, req *dto.AddBlogRequest, images []media.File) (*model.Blog, error) {
	urls, err := s.upload(ctx, images)
	if err != nil {
		return nil, err
	}

	keywords := req.MetaKeywords
	if keywords == nil {
		keywords = []string{}
	}

	blog := &model.Blog{
		MetaTitle:       strings.TrimSpace(req.MetaTitle),
		MetaDescription: strings.TrimSpace(req.MetaDescription),
		MetaKeywords:    keywords,
		Sections:        Reconcile(req.Sections, urls),
		Link:            strings.TrimSpace(req.Link),
		// mongo keeps milliseconds
		CreatedAt: s.now().UTC().Truncate(time.Millisecond),
	}
	if err = s.store.Insert(ctx, blog); err != nil {
		return nil, errors.Wrap(err, "insert blog")
	}

	s.logger.Info("blog added",
		zap.String("id", blog.ID.Hex()),
		zap.Int("sections", len(blog.Sections)),
		zap.Int("images", len(urls)))
	return blog, nil
}

// ListBlogs returns all blogs, newest first
func (s *Blog) ListBlogs(ctx context.Context) ([]*model.Blog, error) {
	blogs, err := s.store.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list blogs")
	}

	return blogs, nil
}

func (s *Blog) load(ctx context.Context, id string) (*model.Blog, error) {
	oid, ok := mongo.ParseID(id)
	if !ok {
		return nil, httperr.Wrap(httperr.KindNotFound, model.ErrBlogNotFound, "Blog not found")
	}

	blog, err := s.store.Get(ctx, oid)
	if err != nil {
		if errors.Is(err, model.ErrBlogNotFound) {
			return nil, httperr.Wrap(httperr.KindNotFound, err, "Blog not found")
		}

		return nil, errors.Wrapf(err, "get blog %s", id)
	}

	return blog, nil
}

// GetBlog returns one blog
func (s *Blog) GetBlog(ctx context.Context, id string) (*model.Blog, error) {
	return s.load(ctx, id)
}

// EditSection replaces one section by index and patches the meta fields.
//
// The blog and the index are checked before any image is uploaded.
func (s *Blog) EditSection(ctx context.Context, req *dto.EditSectionRequest, images []media.File) (*model.Blog, error) {
	blog, err := s.load(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if req.SectionIndex < 0 || req.SectionIndex >= len(blog.Sections) {
		return nil, httperr.Validation("Invalid section index")
	}

	section := req.Section
	if section.Type == model.SectionImage && len(images) > 0 {
		urls, err := s.upload(ctx, images)
		if err != nil {
			return nil, err
		}

		if section.IsMultiImage() {
			section = model.MultiImage(urls...)
		} else {
			section = model.SingleImage(&urls[0])
		}
	}

	sections := make([]model.Section, len(blog.Sections))
	copy(sections, blog.Sections)
	sections[req.SectionIndex] = section
	blog.Sections = sections

	meta := req.Meta
	meta.MetaTitle = strings.TrimSpace(meta.MetaTitle)
	meta.MetaDescription = strings.TrimSpace(meta.MetaDescription)
	if err = copier.CopyWithOption(blog, &meta, copier.Option{IgnoreEmpty: true}); err != nil {
		return nil, errors.Wrap(err, "patch meta")
	}

	if err = s.store.Save(ctx, blog); err != nil {
		if errors.Is(err, model.ErrBlogNotFound) {
			return nil, httperr.Wrap(httperr.KindNotFound, err, "Blog not found")
		}

		return nil, errors.Wrap(err, "save blog")
	}

	s.logger.Info("blog section updated",
		zap.String("id", blog.ID.Hex()),
		zap.Int("index", req.SectionIndex),
		zap.Int("images", len(images)))
	return blog, nil
}

// DeleteBlog deletes one blog
func (s *Blog) DeleteBlog(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return httperr.Validation("Blog ID is required")
	}

	oid, ok := mongo.ParseID(id)
	if !ok {
		return httperr.Wrap(httperr.KindNotFound, model.ErrBlogNotFound, "Blog not found")
	}

	if err := s.store.Delete(ctx, oid); err != nil {
		if errors.Is(err, model.ErrBlogNotFound) {
			return httperr.Wrap(httperr.KindNotFound, err, "Blog not found")
		}

		return errors.Wrapf(err, "delete blog %s", id)
	}

	s.logger.Info("blog deleted", zap.String("id", id))
	return nil
}
