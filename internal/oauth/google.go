// Package oauth implements the Google authorization-code flow with
// identity-token verification. Claims are only ever extracted from a
// payload whose signature, audience, expiry, and issuer have all been
// checked; nothing is trusted before that.
package oauth

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleIssuer = "https://accounts.google.com"

// Google's id_token issuer appears with and without the scheme depending on
// the token path, so the check is an allow-list rather than an equality.
var allowedIssuers = []string{"accounts.google.com", "https://accounts.google.com"}

// IdentityClaims is the verified identity record produced per exchange. It
// is transient; the account layer consumes it immediately.
type IdentityClaims struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
}

// VerificationError marks a rejected identity token: bad signature, wrong
// issuer, wrong audience, or expired. The claims are never surfaced
// alongside one of these.
type VerificationError struct {
	Reason string
	Err    error
}

func (e *VerificationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("identity token rejected: %s: %v", e.Reason, e.Err)
	}
	return "identity token rejected: " + e.Reason
}

func (e *VerificationError) Unwrap() error {
	return e.Err
}

type idTokenVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (*oidc.IDToken, error)
}

type Client struct {
	oauthConfig *oauth2.Config
	verifier    idTokenVerifier
}

// NewGoogleClient builds the client against Google's published discovery
// document; the network call fetches the signing-key endpoint location.
func NewGoogleClient(ctx context.Context, clientID, clientSecret, redirectURL string) (*Client, error) {
	if clientID == "" || clientSecret == "" || redirectURL == "" {
		return nil, errors.New("google oauth: client id, secret, and redirect URL are required")
	}

	provider, err := oidc.NewProvider(ctx, googleIssuer)
	if err != nil {
		return nil, fmt.Errorf("google oauth: init provider: %w", err)
	}

	// Issuer is checked against the allow-list after verification, since
	// Google tokens carry either issuer spelling.
	verifier := provider.Verifier(&oidc.Config{
		ClientID:        clientID,
		SkipIssuerCheck: true,
	})

	cfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     google.Endpoint,
		Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
	}

	return &Client{oauthConfig: cfg, verifier: verifier}, nil
}

// AuthorizationURL builds the provider redirect. The caller persists the
// state value and re-validates it on callback. Offline access and forced
// consent make the provider re-issue a refresh token on every grant.
func (c *Client) AuthorizationURL(state string) string {
	return c.oauthConfig.AuthCodeURL(
		state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
	)
}

// Exchange trades the authorization code for tokens and returns claims only
// after the identity token passes full verification. The ctx deadline is
// the only timeout; nothing is retried.
func (c *Client) Exchange(ctx context.Context, code string) (*IdentityClaims, error) {
	token, err := c.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("google oauth: code exchange: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, &VerificationError{Reason: "provider returned no id_token"}
	}

	return c.VerifyIDToken(ctx, rawIDToken)
}

// VerifyIDToken checks signature, audience, and expiry against the
// provider's keys, then the issuer against the allow-list, and only then
// extracts claims. Usable for tokens obtained outside the code flow.
func (c *Client) VerifyIDToken(ctx context.Context, rawIDToken string) (*IdentityClaims, error) {
	idToken, err := c.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, &VerificationError{Reason: "verification failed", Err: err}
	}

	if !issuerAllowed(idToken.Issuer) {
		return nil, &VerificationError{Reason: fmt.Sprintf("unexpected issuer %q", idToken.Issuer)}
	}

	var claims struct {
		Subject       string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, &VerificationError{Reason: "claims parse failed", Err: err}
	}
	if claims.Subject == "" || claims.Email == "" {
		return nil, &VerificationError{Reason: "missing required claims"}
	}

	return &IdentityClaims{
		Subject:       claims.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		Name:          claims.Name,
	}, nil
}

func issuerAllowed(issuer string) bool {
	for _, allowed := range allowedIssuers {
		if issuer == allowed {
			return true
		}
	}
	return false
}
