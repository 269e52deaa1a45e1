package jwtx

import (
	"crypto/ed25519"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/pocketbook/pkg/cryptox"
	"github.com/golang-jwt/jwt/v5"
)

// Algorithm is the only signing algorithm used for session tokens.
const Algorithm = "EdDSA"

// Signer signs session tokens with one Ed25519 key.
type Signer struct {
	kid    string
	key    ed25519.PrivateKey
	pemKey []byte
}

// NewSigner loads a PKCS8 PEM Ed25519 key.
func NewSigner(kid string, pemKey []byte) (*Signer, error) {
	if kid == "" {
		return nil, errors.New("jwtx: empty kid")
	}
	key, err := cryptox.ParseEd25519Key(pemKey)
	if err != nil {
		return nil, fmt.Errorf("jwtx: %w", err)
	}
	return &Signer{kid: kid, key: key, pemKey: pemKey}, nil
}

// GenerateSigner creates a signer with a fresh key and a random kid.
func GenerateSigner() (*Signer, error) {
	pemKey, err := cryptox.GenerateEd25519Key()
	if err != nil {
		return nil, fmt.Errorf("jwtx: %w", err)
	}
	kid, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		return nil, fmt.Errorf("jwtx: key id: %w", err)
	}
	return NewSigner("pb-"+kid, pemKey)
}

func (s *Signer) KID() string { return s.kid }

// PrivatePEM returns the key for persistence. Callers seal it before storing.
func (s *Signer) PrivatePEM() []byte { return s.pemKey }

// Public returns the verification half of the key.
func (s *Signer) Public() ed25519.PublicKey {
	return s.key.Public().(ed25519.PublicKey)
}

// PublicJWK is the JWKS entry for this key.
func (s *Signer) PublicJWK() JWK {
	return NewEd25519JWK(s.kid, s.Public())
}

// Sign produces a compact JWS with the kid header set.
func (s *Signer) Sign(claims SessionClaims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	t.Header["kid"] = s.kid
	return t.SignedString(s.key)
}
