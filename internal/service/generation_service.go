package service

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"studioaljo/internal/domain"
	"studioaljo/internal/generator"
	"studioaljo/internal/storage"
)

const generationCost = 1

// GenerateInput is a single generation request.
type GenerateInput struct {
	Tool        domain.Tool
	Email       string
	Options     domain.Meta
	Filename    string
	ContentType string
	File        io.Reader
}

// GenerationService spends credits and runs the configured generator.
type GenerationService interface {
	Generate(ctx context.Context, in GenerateInput) (*domain.GenerationResult, error)
}

type generationService struct {
	quota     QuotaService
	generator generator.Generator
	storage   storage.Service
	keyPrefix string
	logger    logrus.FieldLogger
}

// NewGenerationService wires the generation flow. store may be nil, in which
// case uploaded files are not archived.
func NewGenerationService(quota QuotaService, gen generator.Generator, store storage.Service, keyPrefix string, logger logrus.FieldLogger) GenerationService {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &generationService{
		quota:     quota,
		generator: gen,
		storage:   store,
		keyPrefix: keyPrefix,
		logger:    logger,
	}
}

func (s *generationService) Generate(ctx context.Context, in GenerateInput) (*domain.GenerationResult, error) {
	if !in.Tool.Valid() {
		return nil, invalidInput("unsupported tool")
	}
	email := domain.NormalizeEmail(in.Email)
	if email == "" {
		return nil, invalidInput("email is required")
	}
	log := s.logger.WithFields(logrus.Fields{"email": email, "tool": in.Tool})

	if err := s.quota.TrySpend(ctx, email, generationCost); err != nil {
		return nil, err
	}

	var sourceKey string
	if s.storage != nil && in.File != nil {
		key := storage.ObjectKey(s.keyPrefix, string(in.Tool), in.Filename)
		obj, err := s.storage.Upload(ctx, key, in.File, in.ContentType)
		if err != nil {
			s.refund(ctx, log, email)
			return nil, fmt.Errorf("archive source: %w", err)
		}
		sourceKey = obj.Key
		log = log.WithField("source", obj.Location)
	}

	res, err := s.generator.Generate(ctx, generator.Request{
		Tool:        in.Tool,
		Email:       email,
		Options:     in.Options,
		SourceKey:   sourceKey,
		Filename:    in.Filename,
		ContentType: in.ContentType,
	})
	if err != nil {
		s.refund(ctx, log, email)
		if sourceKey != "" {
			if delErr := s.storage.Delete(context.WithoutCancel(ctx), sourceKey); delErr != nil {
				log.WithError(delErr).Warn("remove archived source")
			}
		}
		return nil, fmt.Errorf("generate: %w", err)
	}

	log.Info("generation completed")
	return &domain.GenerationResult{ImageURL: res.ImageURL, Tool: in.Tool}, nil
}

func (s *generationService) refund(ctx context.Context, log logrus.FieldLogger, email string) {
	if err := s.quota.Refund(context.WithoutCancel(ctx), email, generationCost); err != nil {
		log.WithError(err).Error("refund credit")
	}
}
