package sqlite

import (
	"context"
	"errors"
	"fmt"

	"studioaljo/internal/domain"
	"studioaljo/internal/repository"
)

const creditsField = "credits"

type userDocument struct {
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
	Credits      int    `json:"credits"`
}

type UserRepository struct {
	store *DocumentStore
}

func NewUserRepository(store *DocumentStore) repository.UserRepository {
	return &UserRepository{store: store}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (string, error) {
	id, err := r.store.CreateDocument(ctx, collectionUsers, userDocument{
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Credits:      user.Credits,
	})
	if err != nil {
		return "", fmt.Errorf("create user: %w", err)
	}
	user.ID = id
	return id, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	doc, err := r.store.FindOne(ctx, collectionUsers, Filter{"email": email})
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return decodeUser(doc)
}

func (r *UserRepository) DecrementCredits(ctx context.Context, email string, amount int) (bool, error) {
	modified, err := r.store.DecrementFieldIfAtLeast(ctx, collectionUsers, Filter{"email": email}, creditsField, amount)
	if err != nil {
		return false, fmt.Errorf("spend credits: %w", err)
	}
	if modified {
		return true, nil
	}

	// nothing matched: either the user is missing or the balance is short
	if _, err := r.store.FindOne(ctx, collectionUsers, Filter{"email": email}); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, fmt.Errorf("spend credits: %w", repository.ErrNotFound)
		}
		return false, fmt.Errorf("spend credits: %w", err)
	}
	return false, nil
}

func (r *UserRepository) AddCredits(ctx context.Context, email string, amount int) error {
	if err := r.store.IncrementField(ctx, collectionUsers, Filter{"email": email}, creditsField, amount); err != nil {
		return fmt.Errorf("add credits: %w", err)
	}
	return nil
}

func decodeUser(doc *Document) (*domain.User, error) {
	var rec userDocument
	if err := doc.Decode(&rec); err != nil {
		return nil, err
	}
	return &domain.User{
		ID:           doc.ID,
		Email:        rec.Email,
		PasswordHash: rec.PasswordHash,
		Credits:      rec.Credits,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}, nil
}
