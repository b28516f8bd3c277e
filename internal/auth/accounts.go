package auth

import (
	"context"
	"errors"
	"log"
	"net/mail"
	"time"
)

// AccountService orchestrates account state over the credential store. It
// owns no state beyond its collaborators; all identifiers arrive as
// explicit parameters.
type AccountService struct {
	Store    CredentialStore
	Tokens   *TokenService
	Policy   *SecurityPolicy
	Notifier Notifier
	Links    LinkBuilder
}

func NewAccountService(store CredentialStore, tokens *TokenService, policy *SecurityPolicy, notifier Notifier, links LinkBuilder) *AccountService {
	return &AccountService{Store: store, Tokens: tokens, Policy: policy, Notifier: notifier, Links: links}
}

// SignUpOutcome tells the caller where to route the user next.
type SignUpOutcome int

const (
	// SignUpCreated: new account, verification email on its way.
	SignUpCreated SignUpOutcome = iota
	// SignUpAlreadyRegistered: verified account with a password; sign in.
	SignUpAlreadyRegistered
	// SignUpNeedsPassword: verified but password-less; route to password
	// creation for the existing account instead of creating a duplicate.
	SignUpNeedsPassword
	// SignUpVerificationResent: unverified account existed; a fresh
	// verification token superseded the old one.
	SignUpVerificationResent
)

type SignUpResult struct {
	Outcome SignUpOutcome
	Account *Account
}

// Create inserts a fresh, unverified, password-less account.
func (s *AccountService) Create(ctx context.Context, email string) (*Account, error) {
	normalized, err := validEmail(email)
	if err != nil {
		return nil, err
	}
	return s.Store.CreateAccount(ctx, normalized, nil, false)
}

// SignUp applies the registration policy for an email address.
func (s *AccountService) SignUp(ctx context.Context, email string) (*SignUpResult, error) {
	normalized, err := validEmail(email)
	if err != nil {
		return nil, err
	}

	existing, err := s.Store.AccountByEmail(ctx, normalized)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if existing != nil {
		switch {
		case existing.EmailVerified && existing.HasPassword():
			return &SignUpResult{Outcome: SignUpAlreadyRegistered, Account: existing}, nil
		case existing.EmailVerified:
			return &SignUpResult{Outcome: SignUpNeedsPassword, Account: existing}, nil
		default:
			if err := s.issueVerification(ctx, existing); err != nil {
				return nil, err
			}
			return &SignUpResult{Outcome: SignUpVerificationResent, Account: existing}, nil
		}
	}

	account, err := s.Store.CreateAccount(ctx, normalized, nil, false)
	if err != nil {
		return nil, err
	}
	if err := s.issueVerification(ctx, account); err != nil {
		return nil, err
	}
	if err := s.Notifier.SendAdminNotice(ctx, account.Email); err != nil {
		log.Printf("signup: admin notice for %s failed: %v", account.Email, err)
	}
	return &SignUpResult{Outcome: SignUpCreated, Account: account}, nil
}

// ResendVerification re-issues the verification token for an unverified
// account. Verified or unknown accounts are a silent no-op so the endpoint
// reveals nothing.
func (s *AccountService) ResendVerification(ctx context.Context, email string) error {
	normalized, err := validEmail(email)
	if err != nil {
		return err
	}
	account, err := s.Store.AccountByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	if account.EmailVerified {
		return nil
	}
	return s.issueVerification(ctx, account)
}

// VerifyEmail consumes a verification token and flips the account to
// verified. Any invalid presentation is ErrNotFound.
func (s *AccountService) VerifyEmail(ctx context.Context, secret string) (*Account, error) {
	token, err := s.Tokens.Lookup(ctx, secret, TokenKindVerification)
	if err != nil {
		return nil, err
	}
	consumed, err := s.Tokens.Consume(ctx, secret, TokenKindVerification)
	if err != nil {
		return nil, err
	}
	if !consumed {
		// Lost a race with a concurrent presentation of the same secret.
		return nil, ErrNotFound
	}
	if err := s.Store.SetEmailVerified(ctx, token.AccountID); err != nil {
		return nil, err
	}
	return s.Store.AccountByID(ctx, token.AccountID)
}

// RequestPasswordReset reports success to the caller no matter what; a
// token is issued and mailed only when the email matches an account. The
// identical outcome either way is what defeats enumeration.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) error {
	normalized, err := validEmail(email)
	if err != nil {
		return err
	}
	account, err := s.Store.AccountByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}

	if !account.HasPassword() {
		if err := s.Notifier.SendExternalSignInNotice(ctx, account.Email); err != nil {
			log.Printf("reset request: external sign-in notice for %s failed: %v", account.Email, err)
		}
		return nil
	}

	secret, err := s.Tokens.Issue(ctx, account.ID, TokenKindReset)
	if err != nil {
		return err
	}
	if err := s.Notifier.SendReset(ctx, account.Email, s.Links.ResetLink(secret)); err != nil {
		// The token stays valid; the user can request a resend.
		log.Printf("reset request: email to %s failed: %v", account.Email, err)
	}
	return nil
}

// ResetPassword consumes a reset token and installs the new password.
// Strength is checked before the token is burned so a weak choice does not
// cost the user their link.
func (s *AccountService) ResetPassword(ctx context.Context, secret, newPassword string) (*Account, error) {
	token, err := s.Tokens.Lookup(ctx, secret, TokenKindReset)
	if err != nil {
		return nil, err
	}
	if ok, reason := s.Policy.ValidatePasswordStrength(newPassword); !ok {
		return nil, &ValidationError{Field: "password", Reason: reason}
	}
	hash, err := s.Policy.HashPassword(newPassword)
	if err != nil {
		return nil, err
	}
	consumed, err := s.Tokens.Consume(ctx, secret, TokenKindReset)
	if err != nil {
		return nil, err
	}
	if !consumed {
		return nil, ErrNotFound
	}
	if err := s.Store.SetPassword(ctx, token.AccountID, hash); err != nil {
		return nil, err
	}
	return s.Store.AccountByID(ctx, token.AccountID)
}

// CreatePassword sets the first password for a verified account (sign-up
// completion, or a verified OAuth account adding password login).
func (s *AccountService) CreatePassword(ctx context.Context, accountID, password string) error {
	if ok, reason := s.Policy.ValidatePasswordStrength(password); !ok {
		return &ValidationError{Field: "password", Reason: reason}
	}
	account, err := s.Store.AccountByID(ctx, accountID)
	if err != nil {
		return err
	}
	if !account.EmailVerified {
		return ErrEmailNotVerified
	}
	hash, err := s.Policy.HashPassword(password)
	if err != nil {
		return err
	}
	return s.Store.SetPassword(ctx, accountID, hash)
}

// AuthenticatePassword is the password login boundary. It enforces the
// invariant that password authentication requires a verified email.
func (s *AccountService) AuthenticatePassword(ctx context.Context, email, password string) (*Account, error) {
	normalized := NormalizeEmail(email)
	account, err := s.Store.AccountByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if account.PasswordHash == nil || !s.Policy.VerifyPassword(password, *account.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if !account.EmailVerified {
		return nil, ErrEmailNotVerified
	}
	now := time.Now()
	if err := s.Store.RecordLogin(ctx, account.ID, now); err != nil {
		return nil, err
	}
	account.LastLoginAt = &now
	return account, nil
}

// ExternalIdentity is the verified-claims record handed over by the OAuth
// client. It is transient and never persisted as-is.
type ExternalIdentity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
}

// CreateOrMatchExternal resolves verified OAuth claims to an account:
// by provider subject first, then by email (linking the subject), and
// otherwise by creating a fresh account with no password.
func (s *AccountService) CreateOrMatchExternal(ctx context.Context, identity ExternalIdentity) (*Account, error) {
	account, err := s.Store.AccountByExternalID(ctx, identity.Subject)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if account == nil {
		normalized, err := validEmail(identity.Email)
		if err != nil {
			return nil, err
		}
		account, err = s.Store.AccountByEmail(ctx, normalized)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		if account != nil {
			if err := s.Store.SetExternalID(ctx, account.ID, identity.Subject); err != nil {
				return nil, err
			}
			account.ExternalID = &identity.Subject
		} else {
			account, err = s.Store.CreateAccount(ctx, normalized, &identity.Subject, identity.EmailVerified)
			if err != nil {
				return nil, err
			}
			if err := s.Notifier.SendAdminNotice(ctx, account.Email); err != nil {
				log.Printf("oauth signup: admin notice for %s failed: %v", account.Email, err)
			}
		}
	}

	// A trusted provider claim counts as verification.
	if identity.EmailVerified && !account.EmailVerified {
		if err := s.Store.SetEmailVerified(ctx, account.ID); err != nil {
			return nil, err
		}
		account.EmailVerified = true
	}

	now := time.Now()
	if err := s.Store.RecordLogin(ctx, account.ID, now); err != nil {
		return nil, err
	}
	account.LastLoginAt = &now
	return account, nil
}

// RecordLogin stamps last_login_at for the account.
func (s *AccountService) RecordLogin(ctx context.Context, accountID string) error {
	return s.Store.RecordLogin(ctx, accountID, time.Now())
}

func (s *AccountService) issueVerification(ctx context.Context, account *Account) error {
	secret, err := s.Tokens.Issue(ctx, account.ID, TokenKindVerification)
	if err != nil {
		return err
	}
	if err := s.Notifier.SendVerification(ctx, account.Email, s.Links.VerificationLink(secret)); err != nil {
		// The token stays valid; the user can ask for a resend.
		log.Printf("verification email to %s failed: %v", account.Email, err)
	}
	return nil
}

func validEmail(email string) (string, error) {
	normalized := NormalizeEmail(email)
	if normalized == "" {
		return "", &ValidationError{Field: "email", Reason: "Email is required"}
	}
	if _, err := mail.ParseAddress(normalized); err != nil {
		return "", &ValidationError{Field: "email", Reason: "Invalid email format"}
	}
	return normalized, nil
}
