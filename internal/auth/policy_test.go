package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	// Low cost keeps the test fast; the verify path is identical.
	policy := &SecurityPolicy{Cost: 4}

	hash, err := policy.HashPassword("Correct1Horse!")
	require.NoError(t, err)
	require.NotEqual(t, "Correct1Horse!", hash)

	require.True(t, policy.VerifyPassword("Correct1Horse!", hash))
	require.False(t, policy.VerifyPassword("Wrong1Horse!", hash))
}

func TestHashPasswordIsSalted(t *testing.T) {
	policy := &SecurityPolicy{Cost: 4}

	first, err := policy.HashPassword("Correct1Horse!")
	require.NoError(t, err)
	second, err := policy.HashPassword("Correct1Horse!")
	require.NoError(t, err)

	require.NotEqual(t, first, second)
	require.True(t, policy.VerifyPassword("Correct1Horse!", first))
	require.True(t, policy.VerifyPassword("Correct1Horse!", second))
}

func TestVerifyPasswordFailsClosed(t *testing.T) {
	policy := NewSecurityPolicy()

	require.False(t, policy.VerifyPassword("anything", ""))
	require.False(t, policy.VerifyPassword("anything", "not-a-bcrypt-hash"))
}

func TestGenerateToken(t *testing.T) {
	policy := NewSecurityPolicy()

	seen := make(map[string]bool)
	for i := 0; i < 64; i++ {
		secret, err := policy.GenerateToken()
		require.NoError(t, err)
		// 32 bytes in unpadded base64url.
		require.Len(t, secret, 43)
		require.NotContains(t, secret, "+")
		require.NotContains(t, secret, "/")
		require.NotContains(t, secret, "=")
		require.False(t, seen[secret], "duplicate secret")
		seen[secret] = true
	}
}

func TestValidatePasswordStrength(t *testing.T) {
	policy := NewSecurityPolicy()

	cases := []struct {
		name     string
		password string
		ok       bool
		reason   string
	}{
		{"valid", "Valid1Pass!", true, ""},
		{"too short", "Sh0rt!", false, "Password must be at least 8 characters long"},
		{"no uppercase", "alllowercase1!", false, "Password must contain at least one uppercase letter"},
		{"no lowercase", "ALLUPPERCASE1!", false, "Password must contain at least one lowercase letter"},
		{"no digit", "NoDigitsHere!", false, "Password must contain at least one digit"},
		{"no special", "NoSpecial123", false, "Password must contain at least one special character"},
		{"length reported first", "a", false, "Password must be at least 8 characters long"},
		{"empty", "", false, "Password must be at least 8 characters long"},
		// 9 bytes but only 6 characters: length counts characters.
		{"multibyte below length", "ÄÖÜ1a!", false, "Password must be at least 8 characters long"},
		{"multibyte valid", "Pässw0rd!", true, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, reason := policy.ValidatePasswordStrength(tc.password)
			require.Equal(t, tc.ok, ok)
			require.Equal(t, tc.reason, reason)
		})
	}
}

func TestHashSecretIsDeterministic(t *testing.T) {
	require.Equal(t, HashSecret("abc"), HashSecret("abc"))
	require.NotEqual(t, HashSecret("abc"), HashSecret("abd"))
	// hex SHA-256
	require.Len(t, HashSecret("abc"), 64)
}

func TestLinkBuilder(t *testing.T) {
	links := LinkBuilder{BaseURL: "https://app.example.com"}

	require.Equal(t, "https://app.example.com?verify=s3cret", links.VerificationLink("s3cret"))
	require.Equal(t, "https://app.example.com?reset=s3cret", links.ResetLink("s3cret"))
}

func TestNormalizeEmail(t *testing.T) {
	require.Equal(t, "user@example.com", NormalizeEmail("  User@Example.COM "))
	require.Equal(t, "", NormalizeEmail("   "))
}
