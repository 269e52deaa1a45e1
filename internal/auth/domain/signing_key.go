package domain

import "time"

// SigningKey is a persisted session-token signing key.
type SigningKey struct {
	Kid              string
	PrivateKeySealed []byte // PKCS8 PEM sealed with the master key
	CreatedAt        time.Time
	RetiredAt        *time.Time // no longer signs, still verifies
	ExpiresAt        *time.Time // no longer verifies
}

// Verifies reports whether tokens signed by the key are still accepted.
func (k *SigningKey) Verifies(now time.Time) bool {
	return k.ExpiresAt == nil || now.Before(*k.ExpiresAt)
}
