package oauth

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"net/url"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const testClientID = "client-id-123"

// testSigner signs identity tokens against a throwaway RSA key and builds a
// Client whose verifier trusts only that key.
type testSigner struct {
	key *rsa.PrivateKey
}

func newTestSigner(t *testing.T) *testSigner {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return &testSigner{key: key}
}

func (s *testSigner) client(t *testing.T) *Client {
	t.Helper()
	verifier := oidc.NewVerifier(
		googleIssuer,
		&oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{s.key.Public()}},
		&oidc.Config{ClientID: testClientID, SkipIssuerCheck: true},
	)
	cfg := &oauth2.Config{
		ClientID:    testClientID,
		RedirectURL: "https://app.example.com/api/oauth/google/callback",
		Endpoint:    oauth2.Endpoint{AuthURL: "https://provider.example.com/auth"},
	}
	return &Client{oauthConfig: cfg, verifier: verifier}
}

func (s *testSigner) sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(s.key)
	require.NoError(t, err)
	return raw
}

func baseClaims() jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"iss":            "accounts.google.com",
		"aud":            testClientID,
		"iat":            now.Unix(),
		"exp":            now.Add(time.Hour).Unix(),
		"sub":            "google-sub-1",
		"email":          "user@example.com",
		"email_verified": true,
		"name":           "A User",
	}
}

func TestVerifyIDToken(t *testing.T) {
	ctx := context.Background()
	signer := newTestSigner(t)
	client := signer.client(t)

	claims, err := client.VerifyIDToken(ctx, signer.sign(t, baseClaims()))
	require.NoError(t, err)
	require.Equal(t, "google-sub-1", claims.Subject)
	require.Equal(t, "user@example.com", claims.Email)
	require.True(t, claims.EmailVerified)
	require.Equal(t, "A User", claims.Name)
}

func TestVerifyIDTokenAcceptsBothIssuerSpellings(t *testing.T) {
	ctx := context.Background()
	signer := newTestSigner(t)
	client := signer.client(t)

	for _, issuer := range []string{"accounts.google.com", "https://accounts.google.com"} {
		c := baseClaims()
		c["iss"] = issuer
		_, err := client.VerifyIDToken(ctx, signer.sign(t, c))
		require.NoError(t, err, "issuer %q", issuer)
	}
}

func TestVerifyIDTokenRejectsUnknownIssuer(t *testing.T) {
	ctx := context.Background()
	signer := newTestSigner(t)
	client := signer.client(t)

	c := baseClaims()
	c["iss"] = "https://evil.example.com"

	_, err := client.VerifyIDToken(ctx, signer.sign(t, c))
	var vErr *VerificationError
	require.ErrorAs(t, err, &vErr)
}

func TestVerifyIDTokenRejectsWrongAudience(t *testing.T) {
	ctx := context.Background()
	signer := newTestSigner(t)
	client := signer.client(t)

	c := baseClaims()
	c["aud"] = "some-other-client"

	_, err := client.VerifyIDToken(ctx, signer.sign(t, c))
	var vErr *VerificationError
	require.ErrorAs(t, err, &vErr)
}

func TestVerifyIDTokenRejectsExpired(t *testing.T) {
	ctx := context.Background()
	signer := newTestSigner(t)
	client := signer.client(t)

	c := baseClaims()
	c["exp"] = time.Now().Add(-time.Hour).Unix()

	_, err := client.VerifyIDToken(ctx, signer.sign(t, c))
	var vErr *VerificationError
	require.ErrorAs(t, err, &vErr)
}

func TestVerifyIDTokenRejectsForeignSignature(t *testing.T) {
	ctx := context.Background()
	client := newTestSigner(t).client(t)
	attacker := newTestSigner(t)

	_, err := client.VerifyIDToken(ctx, attacker.sign(t, baseClaims()))
	var vErr *VerificationError
	require.ErrorAs(t, err, &vErr)
}

func TestVerifyIDTokenRejectsMissingClaims(t *testing.T) {
	ctx := context.Background()
	signer := newTestSigner(t)
	client := signer.client(t)

	for _, missing := range []string{"sub", "email"} {
		c := baseClaims()
		delete(c, missing)
		_, err := client.VerifyIDToken(ctx, signer.sign(t, c))
		var vErr *VerificationError
		require.ErrorAs(t, err, &vErr, "claim %q absent", missing)
	}
}

func TestVerifyIDTokenRejectsGarbage(t *testing.T) {
	ctx := context.Background()
	client := newTestSigner(t).client(t)

	_, err := client.VerifyIDToken(ctx, "not.a.token")
	var vErr *VerificationError
	require.ErrorAs(t, err, &vErr)
}

func TestAuthorizationURL(t *testing.T) {
	client := newTestSigner(t).client(t)

	raw := client.AuthorizationURL("state-xyz")
	u, err := url.Parse(raw)
	require.NoError(t, err)

	q := u.Query()
	require.Equal(t, "state-xyz", q.Get("state"))
	require.Equal(t, testClientID, q.Get("client_id"))
	require.Equal(t, "offline", q.Get("access_type"))
	require.Equal(t, "consent", q.Get("prompt"))
	require.Equal(t, "true", q.Get("include_granted_scopes"))
}

func TestIssuerAllowed(t *testing.T) {
	require.True(t, issuerAllowed("accounts.google.com"))
	require.True(t, issuerAllowed("https://accounts.google.com"))
	require.False(t, issuerAllowed("http://accounts.google.com"))
	require.False(t, issuerAllowed(""))
	require.False(t, issuerAllowed("accounts.google.com.evil.test"))
}
