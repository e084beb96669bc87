package repository

import (
	"context"

	"studioaljo/internal/domain"
)

// GalleryRepository persists generation results per user.
type GalleryRepository interface {
	Create(ctx context.Context, item *domain.GalleryItem) (string, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.GalleryItem, error)
	Get(ctx context.Context, id string) (*domain.GalleryItem, error)
	Delete(ctx context.Context, id string) (*domain.GalleryItem, error)
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}
