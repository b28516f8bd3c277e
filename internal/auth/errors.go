package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers absent accounts and absent, expired, or consumed
	// tokens alike. Callers must not be able to tell those apart.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateAccount is returned when an account already exists for a
	// normalized email address.
	ErrDuplicateAccount = errors.New("account already exists")

	// ErrAlreadyRegistered is the sign-up outcome for an account that is
	// verified and has a password.
	ErrAlreadyRegistered = errors.New("account already registered")

	// ErrInvalidCredentials deliberately covers unknown email and wrong
	// password with one message.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrEmailNotVerified blocks password login until the address is
	// verified.
	ErrEmailNotVerified = errors.New("email not verified")
)

// ValidationError carries a user-correctable message that is safe to show
// verbatim (malformed email, weak password).
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// StorageError wraps an infrastructure failure from the credential store.
// It is logged and surfaced as a generic failure, never retried silently.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}
