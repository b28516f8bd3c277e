package auth

import (
	"context"
	"time"
)

// TokenService drives the token lifecycle: absent -> active -> consumed,
// with "expired" derived at read time rather than stored. It holds no state
// of its own; every check re-reads the store.
type TokenService struct {
	Store  CredentialStore
	Policy *SecurityPolicy
}

func NewTokenService(store CredentialStore, policy *SecurityPolicy) *TokenService {
	return &TokenService{Store: store, Policy: policy}
}

// Issue mints a fresh secret for the account and supersedes any prior token
// of the kind, consumed or not. The plaintext secret is returned exactly
// once; only its hash is stored.
func (s *TokenService) Issue(ctx context.Context, accountID string, kind TokenKind) (string, error) {
	secret, err := s.Policy.GenerateToken()
	if err != nil {
		return "", err
	}
	expires := time.Now().Add(kind.TTL())
	if _, err := s.Store.ReplaceToken(ctx, kind, accountID, HashSecret(secret), expires); err != nil {
		return "", err
	}
	return secret, nil
}

// Lookup resolves a presented secret to its token. Absent, expired, and
// already-consumed all come back as ErrNotFound so a probing caller learns
// nothing about token state.
func (s *TokenService) Lookup(ctx context.Context, secret string, kind TokenKind) (*Token, error) {
	return s.Store.LookupToken(ctx, kind, HashSecret(secret))
}

// Consume marks the token used. It reports false, without error, when the
// token was already consumed, expired, or never existed; the first
// consumption's effect is never disturbed by retries.
func (s *TokenService) Consume(ctx context.Context, secret string, kind TokenKind) (bool, error) {
	return s.Store.ConsumeToken(ctx, kind, HashSecret(secret), time.Now())
}
