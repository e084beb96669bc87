package generator

import (
	"context"
	"errors"
	"strings"

	"studioaljo/internal/domain"
)

// Request carries everything a generation backend may need.
type Request struct {
	Tool        domain.Tool
	Email       string
	Options     domain.Meta
	SourceKey   string
	Filename    string
	ContentType string
}

// Result references the produced artifact.
type Result struct {
	ImageURL string
}

// Generator produces an image for a request.
type Generator interface {
	Generate(ctx context.Context, req Request) (Result, error)
}

// Placeholder answers every request with a fixed image URL.
type Placeholder struct {
	URL string
}

func NewPlaceholder(url string) *Placeholder {
	return &Placeholder{URL: strings.TrimSpace(url)}
}

func (p *Placeholder) Generate(ctx context.Context, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if !req.Tool.Valid() {
		return Result{}, errors.New("unsupported tool")
	}
	if p.URL == "" {
		return Result{}, errors.New("placeholder url is not configured")
	}
	return Result{ImageURL: p.URL}, nil
}

var _ Generator = (*Placeholder)(nil)
