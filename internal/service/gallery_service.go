package service

import (
	"context"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"studioaljo/internal/cache"
	"studioaljo/internal/domain"
	"studioaljo/internal/repository"
)

const (
	DefaultGalleryLimit = 50
	MaxGalleryLimit     = 200
)

// GalleryService coordinates gallery persistence and the listing cache.
type GalleryService interface {
	Save(ctx context.Context, item *domain.GalleryItem) (string, error)
	ListByUser(ctx context.Context, email string, limit int) ([]domain.GalleryItem, error)
	Get(ctx context.Context, id string) (*domain.GalleryItem, error)
	// Delete removes the item. A non-empty owner must match the item's user.
	Delete(ctx context.Context, id, owner string) error
}

type galleryService struct {
	items  repository.GalleryRepository
	cache  cache.GalleryCache
	logger logrus.FieldLogger
}

func NewGalleryService(items repository.GalleryRepository, listCache cache.GalleryCache, logger logrus.FieldLogger) GalleryService {
	if listCache == nil {
		listCache = cache.Noop{}
	}
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &galleryService{
		items:  items,
		cache:  listCache,
		logger: logger,
	}
}

func (s *galleryService) Save(ctx context.Context, item *domain.GalleryItem) (string, error) {
	if item == nil {
		return "", invalidInput("item is required")
	}
	item.UserID = domain.NormalizeEmail(item.UserID)
	if item.UserID == "" {
		return "", invalidInput("user_id is required")
	}
	if !item.Tool.Valid() {
		return "", invalidInput("unsupported tool")
	}
	item.ImageURL = strings.TrimSpace(item.ImageURL)
	if err := validate.Var(item.ImageURL, "required,url"); err != nil {
		return "", invalidInput("image_url must be an absolute url")
	}

	id, err := s.items.Create(ctx, item)
	if err != nil {
		return "", storeError(err, nil)
	}
	s.invalidate(ctx, item.UserID)
	return id, nil
}

func (s *galleryService) ListByUser(ctx context.Context, email string, limit int) ([]domain.GalleryItem, error) {
	email = domain.NormalizeEmail(email)
	limit = clampLimit(limit)

	// Generation is read before the store; a write in between turns the fill into a no-op.
	gen, err := s.cache.Generation(ctx, email)
	cacheable := err == nil
	if err != nil {
		s.logger.WithError(err).WithField("email", email).Warn("gallery cache read failed")
	} else if items, hit, err := s.cache.GetList(ctx, email, limit); err != nil {
		s.logger.WithError(err).WithField("email", email).Warn("gallery cache read failed")
	} else if hit {
		return items, nil
	}

	items, err := s.items.ListByUser(ctx, email, limit)
	if err != nil {
		return nil, storeError(err, nil)
	}
	if !cacheable {
		return items, nil
	}
	if err := s.cache.SetList(ctx, email, limit, gen, items); err != nil {
		s.logger.WithError(err).WithField("email", email).Warn("gallery cache write failed")
	}
	return items, nil
}

func (s *galleryService) Get(ctx context.Context, id string) (*domain.GalleryItem, error) {
	item, err := s.items.Get(ctx, id)
	if err != nil {
		return nil, storeError(err, ErrGalleryItemNotFound)
	}
	return item, nil
}

func (s *galleryService) Delete(ctx context.Context, id, owner string) error {
	if owner = domain.NormalizeEmail(owner); owner != "" {
		item, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		if item.UserID != owner {
			return ErrForbidden
		}
	}

	deleted, err := s.items.Delete(ctx, id)
	if err != nil {
		return storeError(err, ErrGalleryItemNotFound)
	}
	s.invalidate(ctx, deleted.UserID)
	return nil
}

func (s *galleryService) invalidate(ctx context.Context, userID string) {
	if err := s.cache.Invalidate(context.WithoutCancel(ctx), userID); err != nil {
		s.logger.WithError(err).WithField("email", userID).Warn("gallery cache invalidation failed")
	}
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultGalleryLimit
	case limit > MaxGalleryLimit:
		return MaxGalleryLimit
	default:
		return limit
	}
}
