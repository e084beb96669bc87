package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studioaljo/internal/domain"
)

const placeholder = "https://img.test/placeholder.jpg"

func TestGenerateSpendsOneCredit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.userSvc.Signup(ctx, "a@x.com", "secret1")
	require.NoError(t, err)

	gen := &fakeGenerator{url: placeholder}
	svc := NewGenerationService(env.quota, gen, nil, "uploads", nil)

	res, err := svc.Generate(ctx, GenerateInput{
		Tool:    domain.ToolMeme,
		Email:   "a@x.com",
		Options: domain.Meta{"caption": domain.StringValue("hi")},
		File:    strings.NewReader("bytes"),
	})
	require.NoError(t, err)
	assert.Equal(t, &domain.GenerationResult{ImageURL: placeholder, Tool: domain.ToolMeme}, res)
	assert.Equal(t, 49, env.credits(t, "a@x.com"))

	require.Len(t, gen.requests, 1)
	assert.Equal(t, domain.Meta{"caption": domain.StringValue("hi")}, gen.requests[0].Options)
	assert.Empty(t, gen.requests[0].SourceKey)
}

func TestGenerateUnknownUser(t *testing.T) {
	env := newTestEnv(t)
	gen := &fakeGenerator{url: placeholder}
	svc := NewGenerationService(env.quota, gen, nil, "uploads", nil)

	_, err := svc.Generate(context.Background(), GenerateInput{Tool: domain.ToolRoom, Email: "nobody@x.com"})
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Empty(t, gen.requests)
}

func TestGenerateOutOfCredits(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "a@x.com", 0)
	gen := &fakeGenerator{url: placeholder}
	svc := NewGenerationService(env.quota, gen, nil, "uploads", nil)

	_, err := svc.Generate(context.Background(), GenerateInput{Tool: domain.ToolRoom, Email: "a@x.com"})
	assert.ErrorIs(t, err, ErrInsufficientCredits)
	assert.Empty(t, gen.requests)
	assert.Equal(t, 0, env.credits(t, "a@x.com"))
}

func TestGenerateRejectsUnknownTool(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "a@x.com", 3)
	svc := NewGenerationService(env.quota, &fakeGenerator{url: placeholder}, nil, "uploads", nil)

	_, err := svc.Generate(context.Background(), GenerateInput{Tool: "upscale", Email: "a@x.com"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, 3, env.credits(t, "a@x.com"))
}

func TestGenerateArchivesSource(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "a@x.com", 2)
	store := newFakeStorage()
	gen := &fakeGenerator{url: placeholder}
	svc := NewGenerationService(env.quota, gen, store, "uploads", nil)

	_, err := svc.Generate(context.Background(), GenerateInput{
		Tool:        domain.ToolAvatar,
		Email:       "a@x.com",
		Filename:    "me.JPG",
		ContentType: "image/jpeg",
		File:        strings.NewReader("jpeg-bytes"),
	})
	require.NoError(t, err)

	require.Len(t, gen.requests, 1)
	key := gen.requests[0].SourceKey
	assert.True(t, strings.HasPrefix(key, "uploads/avatar/"), key)
	assert.True(t, strings.HasSuffix(key, ".jpg"), key)
	assert.Equal(t, []byte("jpeg-bytes"), store.uploaded[key])
	assert.Equal(t, 1, env.credits(t, "a@x.com"))
}

func TestGenerateRefundsWhenGeneratorFails(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "a@x.com", 1)
	store := newFakeStorage()
	gen := &fakeGenerator{err: errBoom}
	svc := NewGenerationService(env.quota, gen, store, "uploads", nil)

	_, err := svc.Generate(context.Background(), GenerateInput{
		Tool:     domain.ToolStyling,
		Email:    "a@x.com",
		Filename: "in.png",
		File:     strings.NewReader("png"),
	})
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 1, env.credits(t, "a@x.com"))
	assert.Len(t, store.deleted, 1)
	assert.Empty(t, store.uploaded)
}

func TestGenerateRefundsWhenUploadFails(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "a@x.com", 1)
	store := newFakeStorage()
	store.uploadErr = errBoom
	gen := &fakeGenerator{url: placeholder}
	svc := NewGenerationService(env.quota, gen, store, "uploads", nil)

	_, err := svc.Generate(context.Background(), GenerateInput{
		Tool:  domain.ToolBgRemove,
		Email: "a@x.com",
		File:  strings.NewReader("png"),
	})
	assert.ErrorIs(t, err, errBoom)
	assert.Empty(t, gen.requests)
	assert.Equal(t, 1, env.credits(t, "a@x.com"))
}
