package domain

import "time"

// GalleryItem is a persisted generation result owned by a user.
type GalleryItem struct {
	ID        string
	UserID    string
	Tool      Tool
	ImageURL  string
	Meta      Meta
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GenerationResult is returned by a generation call.
type GenerationResult struct {
	ImageURL string
	Tool     Tool
}
