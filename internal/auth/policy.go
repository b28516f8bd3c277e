package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"unicode"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost resists offline brute force; raise it as hardware
// catches up.
const DefaultBcryptCost = 12

// SecurityPolicy holds the pure credential logic: password hashing and
// strength rules, and secret generation. It performs no I/O.
type SecurityPolicy struct {
	Cost int
}

func NewSecurityPolicy() *SecurityPolicy {
	return &SecurityPolicy{Cost: DefaultBcryptCost}
}

// HashPassword produces a salted bcrypt hash. Two calls with the same input
// yield different strings; compare only through VerifyPassword.
func (p *SecurityPolicy) HashPassword(password string) (string, error) {
	cost := p.Cost
	if cost == 0 {
		cost = DefaultBcryptCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword fails closed: a malformed hash or any internal error is
// reported as a mismatch, never as an error to the caller.
func (p *SecurityPolicy) VerifyPassword(password, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GenerateToken returns a URL-safe secret with 256 bits of entropy from the
// OS random source. Predictable secrets here would mean account takeover.
func (p *SecurityPolicy) GenerateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// ValidatePasswordStrength checks the password rules in a fixed order so
// the first failing reason is stable: length, uppercase, lowercase, digit,
// special character.
func (p *SecurityPolicy) ValidatePasswordStrength(password string) (bool, string) {
	if utf8.RuneCountInString(password) < 8 {
		return false, "Password must be at least 8 characters long"
	}
	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}
	if !hasUpper {
		return false, "Password must contain at least one uppercase letter"
	}
	if !hasLower {
		return false, "Password must contain at least one lowercase letter"
	}
	if !hasDigit {
		return false, "Password must contain at least one digit"
	}
	if !hasSpecial {
		return false, "Password must contain at least one special character"
	}
	return true, ""
}
