package service

import (
	"context"

	"studioaljo/internal/domain"
	"studioaljo/internal/repository"
)

// QuotaService spends and refunds user credits.
type QuotaService interface {
	TrySpend(ctx context.Context, email string, amount int) error
	Refund(ctx context.Context, email string, amount int) error
}

type quotaService struct {
	users repository.UserRepository
}

func NewQuotaService(users repository.UserRepository) QuotaService {
	return &quotaService{users: users}
}

func (s *quotaService) TrySpend(ctx context.Context, email string, amount int) error {
	if amount <= 0 {
		return invalidInput("amount must be positive")
	}
	ok, err := s.users.DecrementCredits(ctx, domain.NormalizeEmail(email), amount)
	if err != nil {
		return storeError(err, ErrUserNotFound)
	}
	if !ok {
		return ErrInsufficientCredits
	}
	return nil
}

func (s *quotaService) Refund(ctx context.Context, email string, amount int) error {
	if amount <= 0 {
		return invalidInput("amount must be positive")
	}
	if err := s.users.AddCredits(ctx, domain.NormalizeEmail(email), amount); err != nil {
		return storeError(err, ErrUserNotFound)
	}
	return nil
}
