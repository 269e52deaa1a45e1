package jwtx

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"sort"
	"sync"
)

var ErrNoKey = errors.New("jwtx: key not found")

// JWK is the public half of a signing key in RFC 8037 OKP form.
type JWK struct {
	Kty string `json:"kty"`
	Use string `json:"use,omitempty"`
	Alg string `json:"alg,omitempty"`
	Kid string `json:"kid"`
	Crv string `json:"crv"`
	X   string `json:"x"`
}

// JWKS is a JSON Web Key Set.
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// NewEd25519JWK builds the JWK for an Ed25519 public key.
func NewEd25519JWK(kid string, pub ed25519.PublicKey) JWK {
	return JWK{
		Kty: "OKP",
		Use: "sig",
		Alg: Algorithm,
		Kid: kid,
		Crv: "Ed25519",
		X:   base64.RawURLEncoding.EncodeToString(pub),
	}
}

// PublicKey decodes the key material of j.
func (j JWK) PublicKey() (ed25519.PublicKey, error) {
	if j.Kty != "OKP" || j.Crv != "Ed25519" {
		return nil, errors.New("jwtx: unsupported key type " + j.Kty + "/" + j.Crv)
	}
	x, err := base64.RawURLEncoding.DecodeString(j.X)
	if err != nil {
		return nil, err
	}
	if len(x) != ed25519.PublicKeySize {
		return nil, errors.New("jwtx: invalid Ed25519 public key size")
	}
	return ed25519.PublicKey(x), nil
}

// KeySet holds verification keys by kid. It is safe for concurrent use.
type KeySet struct {
	mu  sync.RWMutex
	pub map[string]ed25519.PublicKey
}

// NewKeySet returns an empty KeySet.
func NewKeySet() *KeySet {
	return &KeySet{pub: make(map[string]ed25519.PublicKey)}
}

// Add registers pub under kid, replacing any previous key with that kid.
func (k *KeySet) Add(kid string, pub ed25519.PublicKey) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.pub[kid] = pub
}

// AddJWK parses j and adds it.
func (k *KeySet) AddJWK(j JWK) error {
	pub, err := j.PublicKey()
	if err != nil {
		return err
	}
	k.Add(j.Kid, pub)
	return nil
}

// Remove drops kid. Tokens signed by it no longer verify.
func (k *KeySet) Remove(kid string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.pub, kid)
}

// Get returns the key for kid.
func (k *KeySet) Get(kid string) (ed25519.PublicKey, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if pk, ok := k.pub[kid]; ok {
		return pk, nil
	}
	return nil, ErrNoKey
}

// IsReady reports whether at least one key is loaded.
func (k *KeySet) IsReady() bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.pub) > 0
}

// PublicJWKS returns the set sorted by kid.
func (k *KeySet) PublicJWKS() JWKS {
	k.mu.RLock()
	defer k.mu.RUnlock()

	out := JWKS{Keys: make([]JWK, 0, len(k.pub))}
	for kid, pub := range k.pub {
		out.Keys = append(out.Keys, NewEd25519JWK(kid, pub))
	}
	sort.Slice(out.Keys, func(i, j int) bool { return out.Keys[i].Kid < out.Keys[j].Kid })
	return out
}
