package domain

import (
	"strings"
	"time"
)

const (
	// DefaultCredits is the balance granted on signup.
	DefaultCredits = 50
	// QuotaLimit is the static ceiling reported alongside the balance.
	QuotaLimit = 50
)

// User represents a registered account and its credit balance.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Credits      int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Quota is the externally visible view of a user's credit balance.
type Quota struct {
	Credits int
	Limit   int
}

// NormalizeEmail trims and lower-cases an email address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
