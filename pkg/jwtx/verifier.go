package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrUnknownKID  = errors.New("jwtx: unknown kid")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")
	ErrIssuer      = errors.New("jwtx: issuer mismatch")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrNotYetValid = errors.New("jwtx: token not yet valid")
)

// DefaultLeeway tolerates small clock differences between hosts.
const DefaultLeeway = 30 * time.Second

// Verifier checks session tokens against a KeySet.
type Verifier struct {
	Keys   *KeySet
	Issuer string
	Leeway time.Duration

	// Now defaults to time.Now.
	Now func() time.Time
}

// NewVerifier returns a verifier with the default leeway.
func NewVerifier(keys *KeySet, issuer string) *Verifier {
	return &Verifier{Keys: keys, Issuer: issuer, Leeway: DefaultLeeway}
}

// Verify parses token, checks its signature, issuer and validity window, and
// returns its claims.
func (v *Verifier) Verify(token string) (*SessionClaims, error) {
	now := time.Now
	if v.Now != nil {
		now = v.Now
	}

	// Time checks are done below with our own clock.
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	claims := &SessionClaims{}
	_, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, ErrUnknownKID
		}
		pub, err := v.Keys.Get(kid)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownKID, kid)
		}
		return pub, nil
	})
	switch {
	case err == nil:
	case errors.Is(err, ErrUnknownKID):
		return nil, ErrUnknownKID
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return nil, ErrInvalidSig
	default:
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if claims.Subject == "" || claims.SID == "" {
		return nil, ErrMalformed
	}
	if err := claims.ValidateIssuer(v.Issuer); err != nil {
		return nil, err
	}
	if err := claims.ValidateTimes(now(), v.Leeway); err != nil {
		return nil, err
	}
	return claims, nil
}
