package repository

import (
	"context"

	"studioaljo/internal/domain"
)

// UserRepository defines persistence operations for User entities.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (string, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// DecrementCredits subtracts amount only when the balance covers it.
	// It reports false when the user exists but the balance is too low.
	DecrementCredits(ctx context.Context, email string, amount int) (bool, error)
	AddCredits(ctx context.Context, email string, amount int) error
}
