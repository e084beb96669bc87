package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"studioaljo/internal/domain"
	"studioaljo/internal/repository"
)

const minPasswordLength = 6

// validate applies the same tag rules gin uses for request binding.
var validate = validator.New()

// TokenIssuer signs access tokens for an authenticated subject.
type TokenIssuer interface {
	Issue(subject string) (string, error)
}

// UserService describes identity and credential operations.
type UserService interface {
	Signup(ctx context.Context, email, password string) (string, error)
	Login(ctx context.Context, email, password string) (string, error)
	Quota(ctx context.Context, email string) (domain.Quota, error)
}

type userService struct {
	users          repository.UserRepository
	tokens         TokenIssuer
	initialCredits int
	bcryptCost     int
}

func NewUserService(users repository.UserRepository, tokens TokenIssuer, initialCredits, bcryptCost int) UserService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &userService{
		users:          users,
		tokens:         tokens,
		initialCredits: initialCredits,
		bcryptCost:     bcryptCost,
	}
}

func (s *userService) Signup(ctx context.Context, email, password string) (string, error) {
	email = domain.NormalizeEmail(email)
	if err := validate.Var(email, "required,email"); err != nil {
		return "", invalidInput("a valid email is required")
	}
	if len(password) < minPasswordLength {
		return "", invalidInput(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		Credits:      s.initialCredits,
	}
	if _, err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return "", ErrEmailTaken
		}
		return "", storeError(err, nil)
	}

	return s.tokens.Issue(user.Email)
}

func (s *userService) Login(ctx context.Context, email, password string) (string, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return "", ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", storeError(err, ErrInvalidCredentials)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	return s.tokens.Issue(user.Email)
}

func (s *userService) Quota(ctx context.Context, email string) (domain.Quota, error) {
	user, err := s.users.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return domain.Quota{}, storeError(err, ErrUserNotFound)
	}
	return domain.Quota{Credits: user.Credits, Limit: domain.QuotaLimit}, nil
}
