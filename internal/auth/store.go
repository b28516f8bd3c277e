package auth

import (
	"context"
	"time"
)

// CredentialStore is the durable home of accounts and single-use tokens.
// Implementations must be safe for concurrent callers and must honor the
// atomicity notes on ReplaceToken and ConsumeToken; everything above this
// interface re-reads state on every validity check.
type CredentialStore interface {
	// CreateAccount inserts a new account. The email must already be
	// normalized. Returns ErrDuplicateAccount when the normalized email or
	// the external id is already taken.
	CreateAccount(ctx context.Context, email string, externalID *string, verified bool) (*Account, error)

	// AccountByEmail returns ErrNotFound when no account matches.
	AccountByEmail(ctx context.Context, email string) (*Account, error)
	AccountByID(ctx context.Context, id string) (*Account, error)
	AccountByExternalID(ctx context.Context, externalID string) (*Account, error)

	// The single-field mutations report ErrNotFound when the account does
	// not exist and are otherwise idempotent.
	SetEmailVerified(ctx context.Context, accountID string) error
	SetPassword(ctx context.Context, accountID, passwordHash string) error
	SetExternalID(ctx context.Context, accountID, externalID string) error
	RecordLogin(ctx context.Context, accountID string, at time.Time) error

	// ReplaceToken installs the new token and discards any prior token of
	// the kind for the account, consumed or not, as one atomic write, so
	// concurrent issuance can never leave two active tokens.
	ReplaceToken(ctx context.Context, kind TokenKind, accountID, secretHash string, expiresAt time.Time) (*Token, error)

	// LookupToken returns the token only while it is unconsumed and
	// unexpired; in every other case it reports ErrNotFound.
	LookupToken(ctx context.Context, kind TokenKind, secretHash string) (*Token, error)

	// ConsumeToken conditionally sets consumed_at for a still-valid token
	// and reports whether a row changed. The update must be atomic so two
	// racing consumers cannot both win.
	ConsumeToken(ctx context.Context, kind TokenKind, secretHash string, at time.Time) (bool, error)

	// DeleteExpiredTokens is housekeeping only; validity is always checked
	// at read time.
	DeleteExpiredTokens(ctx context.Context, before time.Time) error
}
