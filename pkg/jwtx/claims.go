package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultSessionTTL is the lifetime of a password session.
const DefaultSessionTTL = 24 * time.Hour

// SessionClaims are carried by a session token. The token is a signed
// pointer to a sessions row: revocation is checked against the row, not the
// token.
type SessionClaims struct {
	jwt.RegisteredClaims

	// Session ID, the primary key of the sessions row.
	SID string `json:"sid"`

	Email string `json:"email,omitempty"`

	// Authentication Methods Reference, e.g. ["pwd"] or ["pwd","otp"].
	AMR []string `json:"amr,omitempty"`
}

// NewSessionClaims builds claims valid from now for ttl.
func NewSessionClaims(subject, sid, email string, amr []string, ttl time.Duration, issuer string, now time.Time) SessionClaims {
	return SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		SID:   sid,
		Email: email,
		AMR:   amr,
	}
}

// NewJTI returns a random URL-safe identifier for the "jti" claim.
func NewJTI() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// ValidateIssuer checks iss. An empty expectation enforces nothing.
func (c *SessionClaims) ValidateIssuer(expected string) error {
	if expected != "" && c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateTimes checks exp and nbf against now, allowing leeway for clock
// skew.
func (c *SessionClaims) ValidateTimes(now time.Time, leeway time.Duration) error {
	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Add(-leeway)) {
		return ErrNotYetValid
	}
	return nil
}

// ExpiresAtTime returns exp, or the zero time if unset.
func (c *SessionClaims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}
