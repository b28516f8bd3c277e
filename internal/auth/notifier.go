package auth

import "context"

// Notifier delivers account emails. Delivery failure never rolls back the
// token that was issued before the send; the user can always request a
// resend.
type Notifier interface {
	SendVerification(ctx context.Context, email, link string) error
	SendReset(ctx context.Context, email, link string) error
	// SendExternalSignInNotice tells a password-less account holder to use
	// their external sign-in instead of a password reset.
	SendExternalSignInNotice(ctx context.Context, email string) error
	SendAdminNotice(ctx context.Context, newAccountEmail string) error
}
