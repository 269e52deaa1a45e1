package jwtx

import (
	"errors"
	"fmt"
	"sync"
)

// KeyManager owns the active signing key and the set of keys still accepted
// for verification. Rotation installs a new active key and keeps the old one
// verifiable until it is retired, so live sessions survive a rotation.
type KeyManager struct {
	KeySet   *KeySet
	Verifier *Verifier

	mu     sync.RWMutex
	active *Signer
}

// NewKeyManager builds a manager from previously persisted signers. The
// first signer signs; all of them verify.
func NewKeyManager(issuer string, signers ...*Signer) (*KeyManager, error) {
	if issuer == "" {
		return nil, errors.New("jwtx: issuer is required")
	}
	if len(signers) == 0 {
		return nil, errors.New("jwtx: at least one signer is required")
	}

	keys := NewKeySet()
	for _, s := range signers {
		keys.Add(s.KID(), s.Public())
	}
	return &KeyManager{
		KeySet:   keys,
		Verifier: NewVerifier(keys, issuer),
		active:   signers[0],
	}, nil
}

// NewEphemeralKeyManager generates a key that lives only in memory. Every
// session is invalidated when the process restarts.
func NewEphemeralKeyManager(issuer string) (*KeyManager, error) {
	s, err := GenerateSigner()
	if err != nil {
		return nil, err
	}
	return NewKeyManager(issuer, s)
}

// Signer returns the key currently used to sign.
func (km *KeyManager) Signer() *Signer {
	km.mu.RLock()
	defer km.mu.RUnlock()
	return km.active
}

// Sign signs claims with the active key.
func (km *KeyManager) Sign(claims SessionClaims) (string, error) {
	return km.Signer().Sign(claims)
}

// Verify checks token against every known key.
func (km *KeyManager) Verify(token string) (*SessionClaims, error) {
	return km.Verifier.Verify(token)
}

// Rotate makes next the signing key. The previous key keeps verifying.
func (km *KeyManager) Rotate(next *Signer) error {
	if next == nil {
		return errors.New("jwtx: nil signer")
	}
	km.mu.Lock()
	defer km.mu.Unlock()
	km.KeySet.Add(next.KID(), next.Public())
	km.active = next
	return nil
}

// Retire stops accepting tokens signed by kid. The active key cannot be
// retired.
func (km *KeyManager) Retire(kid string) error {
	km.mu.Lock()
	defer km.mu.Unlock()
	if km.active.KID() == kid {
		return fmt.Errorf("jwtx: cannot retire active key %q", kid)
	}
	if _, err := km.KeySet.Get(kid); err != nil {
		return fmt.Errorf("jwtx: retire %q: %w", kid, err)
	}
	km.KeySet.Remove(kid)
	return nil
}

// IsReady reports whether a signing key is loaded.
func (km *KeyManager) IsReady() bool {
	return km.KeySet.IsReady()
}
