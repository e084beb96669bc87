package sqlite

import (
	"context"
	"fmt"

	"studioaljo/internal/domain"
	"studioaljo/internal/repository"
)

type galleryDocument struct {
	UserID   string      `json:"user_id"`
	Tool     domain.Tool `json:"tool"`
	ImageURL string      `json:"image_url"`
	Meta     domain.Meta `json:"meta"`
}

type GalleryRepository struct {
	store *DocumentStore
}

func NewGalleryRepository(store *DocumentStore) repository.GalleryRepository {
	return &GalleryRepository{store: store}
}

func (r *GalleryRepository) Create(ctx context.Context, item *domain.GalleryItem) (string, error) {
	id, err := r.store.CreateDocument(ctx, collectionGallery, galleryDocument{
		UserID:   item.UserID,
		Tool:     item.Tool,
		ImageURL: item.ImageURL,
		Meta:     item.Meta,
	})
	if err != nil {
		return "", fmt.Errorf("create gallery item: %w", err)
	}
	item.ID = id
	return id, nil
}

func (r *GalleryRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.GalleryItem, error) {
	docs, err := r.store.ListDocuments(ctx, collectionGallery, Filter{"user_id": userID}, limit)
	if err != nil {
		return nil, fmt.Errorf("list gallery items: %w", err)
	}

	items := make([]domain.GalleryItem, 0, len(docs))
	for i := range docs {
		item, err := decodeGalleryItem(&docs[i])
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, nil
}

func (r *GalleryRepository) Get(ctx context.Context, id string) (*domain.GalleryItem, error) {
	doc, err := r.store.FindByID(ctx, collectionGallery, id)
	if err != nil {
		return nil, fmt.Errorf("get gallery item: %w", err)
	}
	return decodeGalleryItem(doc)
}

func (r *GalleryRepository) Delete(ctx context.Context, id string) (*domain.GalleryItem, error) {
	doc, err := r.store.DeleteByID(ctx, collectionGallery, id)
	if err != nil {
		return nil, fmt.Errorf("delete gallery item: %w", err)
	}
	return decodeGalleryItem(doc)
}

func decodeGalleryItem(doc *Document) (*domain.GalleryItem, error) {
	var rec galleryDocument
	if err := doc.Decode(&rec); err != nil {
		return nil, err
	}
	return &domain.GalleryItem{
		ID:        doc.ID,
		UserID:    rec.UserID,
		Tool:      rec.Tool,
		ImageURL:  rec.ImageURL,
		Meta:      rec.Meta,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}, nil
}
