package auth

import (
	"strings"
	"time"
)

type Account struct {
	ID            string
	Email         string
	ExternalID    *string
	PasswordHash  *string
	EmailVerified bool
	Active        bool
	CreatedAt     time.Time
	LastLoginAt   *time.Time
}

// HasPassword reports whether the account can authenticate with a password.
func (a *Account) HasPassword() bool {
	return a.PasswordHash != nil && *a.PasswordHash != ""
}

// NormalizeEmail trims and lowercases an address. Every lookup and every
// write goes through this so two records can never exist for the same
// address with different casing.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
