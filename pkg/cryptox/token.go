package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
)

// Token sizes in bytes before encoding.
const (
	TokenSize128 = 16 // 22 chars base64url
	TokenSize256 = 32 // 43 chars base64url
)

// GenerateToken returns size random bytes as base64url without padding.
// Email confirmation and password reset links carry 256-bit tokens.
func GenerateToken(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("cryptox: token size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("cryptox: generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// FingerprintToken is the SHA-256 of token as base64url (43 chars). Only the
// fingerprint of a bearer secret is stored; lookups hash the presented value.
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// EqualSecrets compares two secrets in constant time with respect to their
// contents.
func EqualSecrets(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
