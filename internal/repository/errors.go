package repository

import "errors"

var (
	// ErrNotFound is returned when no document matches the lookup.
	ErrNotFound = errors.New("document not found")
	// ErrAlreadyExists is returned when a unique constraint rejects a write.
	ErrAlreadyExists = errors.New("document already exists")
	// ErrUnavailable is returned when the store cannot be reached in time.
	ErrUnavailable = errors.New("store unavailable")
)
