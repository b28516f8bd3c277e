package auth

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// memStore is an in-memory CredentialStore used by the service tests. It
// mirrors the repository's semantics, including the atomic replace and
// conditional consume.
type memStore struct {
	mu       sync.Mutex
	seq      int
	accounts map[string]*Account
	tokens   map[TokenKind]map[string]*Token // keyed by secret hash
}

func newMemStore() *memStore {
	return &memStore{
		accounts: make(map[string]*Account),
		tokens: map[TokenKind]map[string]*Token{
			TokenKindVerification: {},
			TokenKindReset:        {},
		},
	}
}

func (m *memStore) CreateAccount(_ context.Context, email string, externalID *string, verified bool) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.Email == email {
			return nil, ErrDuplicateAccount
		}
		if externalID != nil && a.ExternalID != nil && *a.ExternalID == *externalID {
			return nil, ErrDuplicateAccount
		}
	}
	m.seq++
	account := &Account{
		ID:            fmt.Sprintf("acc-%d", m.seq),
		Email:         email,
		ExternalID:    externalID,
		EmailVerified: verified,
		Active:        true,
		CreatedAt:     time.Now(),
	}
	m.accounts[account.ID] = account
	return copyAccount(account), nil
}

func (m *memStore) AccountByEmail(_ context.Context, email string) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.Email == email {
			return copyAccount(a), nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) AccountByID(_ context.Context, id string) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.accounts[id]; ok {
		return copyAccount(a), nil
	}
	return nil, ErrNotFound
}

func (m *memStore) AccountByExternalID(_ context.Context, externalID string) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.ExternalID != nil && *a.ExternalID == externalID {
			return copyAccount(a), nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) SetEmailVerified(_ context.Context, accountID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[accountID]
	if !ok {
		return ErrNotFound
	}
	a.EmailVerified = true
	return nil
}

func (m *memStore) SetPassword(_ context.Context, accountID, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[accountID]
	if !ok {
		return ErrNotFound
	}
	a.PasswordHash = &passwordHash
	return nil
}

func (m *memStore) SetExternalID(_ context.Context, accountID, externalID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[accountID]
	if !ok {
		return ErrNotFound
	}
	a.ExternalID = &externalID
	return nil
}

func (m *memStore) RecordLogin(_ context.Context, accountID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[accountID]
	if !ok {
		return ErrNotFound
	}
	a.LastLoginAt = &at
	return nil
}

func (m *memStore) ReplaceToken(_ context.Context, kind TokenKind, accountID, secretHash string, expiresAt time.Time) (*Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	table := m.tokens[kind]
	for hash, t := range table {
		if t.AccountID == accountID {
			delete(table, hash)
		}
	}
	m.seq++
	token := &Token{
		ID:        fmt.Sprintf("tok-%d", m.seq),
		AccountID: accountID,
		ExpiresAt: expiresAt,
	}
	table[secretHash] = token
	return copyToken(token), nil
}

func (m *memStore) LookupToken(_ context.Context, kind TokenKind, secretHash string) (*Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[kind][secretHash]
	if !ok || !t.Valid(time.Now()) {
		return nil, ErrNotFound
	}
	return copyToken(t), nil
}

func (m *memStore) ConsumeToken(_ context.Context, kind TokenKind, secretHash string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[kind][secretHash]
	if !ok || !t.Valid(at) {
		return false, nil
	}
	t.ConsumedAt = &at
	return true, nil
}

func (m *memStore) DeleteExpiredTokens(_ context.Context, before time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, table := range m.tokens {
		for hash, t := range table {
			if !t.ExpiresAt.After(before) {
				delete(table, hash)
			}
		}
	}
	return nil
}

// expireToken backdates the stored expiry so tests can exercise the expired
// path without sleeping.
func (m *memStore) expireToken(kind TokenKind, secret string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tokens[kind][HashSecret(secret)]; ok {
		t.ExpiresAt = time.Now().Add(-time.Minute)
	}
}

func (m *memStore) tokenCount(kind TokenKind) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tokens[kind])
}

func copyAccount(a *Account) *Account {
	dup := *a
	return &dup
}

func copyToken(t *Token) *Token {
	dup := *t
	return &dup
}

// recordingNotifier captures outgoing notifications for assertions. Any
// method whose name appears in failOn returns an error instead.
type recordingNotifier struct {
	mu              sync.Mutex
	failOn          map[string]bool
	verifications   []notice
	resets          []notice
	externalNotices []string
	adminNotices    []string
}

type notice struct {
	Email string
	Link  string
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{failOn: make(map[string]bool)}
}

func (n *recordingNotifier) SendVerification(_ context.Context, email, link string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failOn["SendVerification"] {
		return fmt.Errorf("smtp down")
	}
	n.verifications = append(n.verifications, notice{Email: email, Link: link})
	return nil
}

func (n *recordingNotifier) SendReset(_ context.Context, email, link string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failOn["SendReset"] {
		return fmt.Errorf("smtp down")
	}
	n.resets = append(n.resets, notice{Email: email, Link: link})
	return nil
}

func (n *recordingNotifier) SendExternalSignInNotice(_ context.Context, email string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failOn["SendExternalSignInNotice"] {
		return fmt.Errorf("smtp down")
	}
	n.externalNotices = append(n.externalNotices, email)
	return nil
}

func (n *recordingNotifier) SendAdminNotice(_ context.Context, newAccountEmail string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failOn["SendAdminNotice"] {
		return fmt.Errorf("smtp down")
	}
	n.adminNotices = append(n.adminNotices, newAccountEmail)
	return nil
}

func (n *recordingNotifier) lastVerification() (notice, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.verifications) == 0 {
		return notice{}, false
	}
	return n.verifications[len(n.verifications)-1], true
}

func (n *recordingNotifier) lastReset() (notice, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.resets) == 0 {
		return notice{}, false
	}
	return n.resets[len(n.resets)-1], true
}
