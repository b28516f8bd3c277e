package auth

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashSecret returns the hex SHA-256 digest stored in place of a token
// secret, so a leaked token table exposes nothing replayable.
func HashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
