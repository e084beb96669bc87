package service

import (
	"errors"
	"fmt"

	"studioaljo/internal/repository"
)

var (
	// ErrEmailTaken is returned when signing up with an email that is already registered.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	// ErrGalleryItemNotFound is returned when no gallery item has the given id.
	ErrGalleryItemNotFound = errors.New("gallery item not found")
	// ErrInsufficientCredits is returned when a spend would take the balance below zero.
	ErrInsufficientCredits = errors.New("out of credits")
	ErrInvalidInput        = errors.New("invalid input")
	// ErrForbidden is returned when a caller addresses a resource owned by someone else.
	ErrForbidden        = errors.New("forbidden")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// storeError translates repository failures into service errors.
func storeError(err error, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrUnavailable):
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	case notFound != nil && errors.Is(err, repository.ErrNotFound):
		return notFound
	default:
		return err
	}
}

func invalidInput(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}
