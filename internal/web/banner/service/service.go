// Package service is the service layer of banner.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Laisky/laisky-cms/internal/web/banner/dto"
	"github.com/Laisky/laisky-cms/internal/web/banner/model"
	"github.com/Laisky/laisky-cms/library/db/mongo"
	"github.com/Laisky/laisky-cms/library/httperr"
	"github.com/Laisky/laisky-cms/library/media"
)

// Store is the persistence of banners
type Store interface {
	Insert(ctx context.Context, banner *model.Banner) error
	List(ctx context.Context) ([]*model.Banner, error)
	Get(ctx context.Context, id primitive.ObjectID) (*model.Banner, error)
	Save(ctx context.Context, banner *model.Banner) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// Banner banner service
type Banner struct {
	logger   logSDK.Logger
	store    Store
	uploader media.Uploader
	now      func() time.Time
}

// New new banner service
func New(logger logSDK.Logger, store Store, uploader media.Uploader) *Banner {
	return &Banner{
		logger:   logger,
		store:    store,
		uploader: uploader,
		now:      time.Now,
	}
}

func notFound(err error) error {
	return httperr.Wrap(httperr.KindNotFound, err, "Banner not found")
}

func (s *Banner) parseID(id string) (primitive.ObjectID, error) {
	if strings.TrimSpace(id) == "" {
		return primitive.NilObjectID, httperr.Validation("Banner ID is required")
	}

	oid, ok := mongo.ParseID(id)
	if !ok {
		return primitive.NilObjectID, notFound(model.ErrBannerNotFound)
	}

	return oid, nil
}

// AddBanner uploads the image and saves the banner
func (s *Banner) AddBanner(ctx context.Context, req *dto.AddBannerRequest, image *media.File) (*model.Banner, error) {
	if image == nil {
		return nil, httperr.Validation("Banner image is required")
	}

	url, err := s.uploader.Upload(ctx, *image)
	if err != nil {
		return nil, errors.Wrap(err, "upload banner image")
	}

	banner := &model.Banner{
		Title:     strings.TrimSpace(req.Title),
		Link:      strings.TrimSpace(req.Link),
		Image:     url,
		CreatedAt: s.now().UTC().Truncate(time.Millisecond),
	}
	if err = s.store.Insert(ctx, banner); err != nil {
		return nil, errors.Wrap(err, "insert banner")
	}

	s.logger.Info("banner added", zap.String("id", banner.ID.Hex()))
	return banner, nil
}

// ListBanners returns all banners, newest first
func (s *Banner) ListBanners(ctx context.Context) ([]*model.Banner, error) {
	banners, err := s.store.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list banners")
	}

	return banners, nil
}

// GetBanner returns one banner
func (s *Banner) GetBanner(ctx context.Context, id string) (*model.Banner, error) {
	oid, ok := mongo.ParseID(id)
	if !ok {
		return nil, notFound(model.ErrBannerNotFound)
	}

	banner, err := s.store.Get(ctx, oid)
	if err != nil {
		if errors.Is(err, model.ErrBannerNotFound) {
			return nil, notFound(err)
		}

		return nil, errors.Wrapf(err, "get banner %s", id)
	}

	return banner, nil
}

// EditBanner patches title and link, and replaces the image when a new one is given
func (s *Banner) EditBanner(ctx context.Context, req *dto.EditBannerRequest, image *media.File) (*model.Banner, error) {
	oid, err := s.parseID(req.ID)
	if err != nil {
		return nil, err
	}

	banner, err := s.store.Get(ctx, oid)
	if err != nil {
		if errors.Is(err, model.ErrBannerNotFound) {
			return nil, notFound(err)
		}

		return nil, errors.Wrapf(err, "get banner %s", req.ID)
	}

	if req.Title != nil {
		banner.Title = strings.TrimSpace(*req.Title)
	}
	if req.Link != nil {
		banner.Link = strings.TrimSpace(*req.Link)
	}
	if image != nil {
		if banner.Image, err = s.uploader.Upload(ctx, *image); err != nil {
			return nil, errors.Wrap(err, "upload banner image")
		}
	}

	if err = s.store.Save(ctx, banner); err != nil {
		if errors.Is(err, model.ErrBannerNotFound) {
			return nil, notFound(err)
		}

		return nil, errors.Wrap(err, "save banner")
	}

	s.logger.Info("banner updated",
		zap.String("id", req.ID),
		zap.Bool("image", image != nil))
	return banner, nil
}

// DeleteBanner deletes one banner
func (s *Banner) DeleteBanner(ctx context.Context, id string) error {
	oid, err := s.parseID(id)
	if err != nil {
		return err
	}

	if err = s.store.Delete(ctx, oid); err != nil {
		if errors.Is(err, model.ErrBannerNotFound) {
			return notFound(err)
		}

		return errors.Wrapf(err, "delete banner %s", id)
	}

	s.logger.Info("banner deleted", zap.String("id", id))
	return nil
}
