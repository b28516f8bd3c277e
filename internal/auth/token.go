package auth

import "time"

// TokenKind selects one of the two single-use token tables.
type TokenKind string

const (
	TokenKindVerification TokenKind = "verification"
	TokenKindReset        TokenKind = "reset"
)

const (
	// VerificationTokenTTL is how long an email verification link stays valid.
	VerificationTokenTTL = 24 * time.Hour
	// ResetTokenTTL is deliberately short: a reset token grants password takeover.
	ResetTokenTTL = 1 * time.Hour
)

// TTL returns the lifetime for tokens of this kind.
func (k TokenKind) TTL() time.Duration {
	if k == TokenKindReset {
		return ResetTokenTTL
	}
	return VerificationTokenTTL
}

// Token is a single-use, time-boxed capability grant. The plaintext secret
// is only ever held in memory on the issuing and presenting paths; the store
// keeps a SHA-256 of it.
type Token struct {
	ID         string
	AccountID  string
	ExpiresAt  time.Time
	ConsumedAt *time.Time
}

// Valid reports whether the token is unconsumed and unexpired at now.
func (t *Token) Valid(now time.Time) bool {
	return t.ConsumedAt == nil && now.Before(t.ExpiresAt)
}
