package cache

import (
	"context"

	"studioaljo/internal/domain"
)

// GalleryCache stores recent gallery listings per user.
//
// Writers bump the user's generation through Invalidate. A listing read
// from the store is only cached if the generation observed before that
// read is still current, so a fill can never resurrect a list that a
// concurrent write already invalidated.
type GalleryCache interface {
	Generation(ctx context.Context, userID string) (int64, error)
	GetList(ctx context.Context, userID string, limit int) ([]domain.GalleryItem, bool, error)
	SetList(ctx context.Context, userID string, limit int, gen int64, items []domain.GalleryItem) error
	Invalidate(ctx context.Context, userID string) error
}

// Noop never hits; used when no cache backend is configured.
type Noop struct{}

func (Noop) Generation(context.Context, string) (int64, error) { return 0, nil }

func (Noop) GetList(context.Context, string, int) ([]domain.GalleryItem, bool, error) {
	return nil, false, nil
}

func (Noop) SetList(context.Context, string, int, int64, []domain.GalleryItem) error { return nil }

func (Noop) Invalidate(context.Context, string) error { return nil }

var _ GalleryCache = Noop{}
