package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
)

// MasterKeyEnv names the environment variable consulted by LoadSealer when
// no key file is configured.
const MasterKeyEnv = "AUTH_MASTER_KEY"

var ErrSealed = errors.New("cryptox: sealed value cannot be opened")

// Sealer encrypts small secrets (TOTP seeds, recovery codes, signing keys)
// with AES-256-GCM under a master key.
//
// Output format: [12-byte nonce][ciphertext][16-byte tag]. The associated
// data binds a ciphertext to its owner, so a sealed value copied between
// rows fails to open.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer derives a 32-byte key from keyMaterial with SHA-256.
func NewSealer(keyMaterial []byte) (*Sealer, error) {
	if len(keyMaterial) == 0 {
		return nil, errors.New("cryptox: empty master key")
	}
	key := sha256.Sum256(keyMaterial)

	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("cryptox: create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cryptox: create GCM: %w", err)
	}
	return &Sealer{aead: aead}, nil
}

// LoadSealer builds a Sealer from, in order: the file at path, the
// AUTH_MASTER_KEY environment variable, or freshly generated key material.
// ephemeral reports the last case; values sealed by an ephemeral Sealer do
// not survive a restart.
func LoadSealer(path string) (s *Sealer, ephemeral bool, err error) {
	var material []byte
	switch {
	case path != "":
		material, err = os.ReadFile(path)
		if err != nil {
			return nil, false, fmt.Errorf("cryptox: read master key file: %w", err)
		}
	case os.Getenv(MasterKeyEnv) != "":
		material = []byte(os.Getenv(MasterKeyEnv))
	default:
		material = make([]byte, 32)
		if _, err := rand.Read(material); err != nil {
			return nil, false, fmt.Errorf("cryptox: generate ephemeral master key: %w", err)
		}
		ephemeral = true
	}

	s, err = NewSealer(material)
	return s, ephemeral, err
}

// Seal encrypts plaintext bound to aad.
func (s *Sealer) Seal(plaintext, aad []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("cryptox: generate nonce: %w", err)
	}
	return s.aead.Seal(nonce, nonce, plaintext, aad), nil
}

// Open reverses Seal. A wrong key, wrong aad or tampered input all yield
// ErrSealed.
func (s *Sealer) Open(sealed, aad []byte) ([]byte, error) {
	n := s.aead.NonceSize()
	if len(sealed) < n+s.aead.Overhead() {
		return nil, ErrSealed
	}
	plaintext, err := s.aead.Open(nil, sealed[:n], sealed[n:], aad)
	if err != nil {
		return nil, ErrSealed
	}
	return plaintext, nil
}

// SealString is Seal for text columns; the result is base64url.
func (s *Sealer) SealString(plaintext, aad string) (string, error) {
	b, err := s.Seal([]byte(plaintext), []byte(aad))
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// OpenString reverses SealString.
func (s *Sealer) OpenString(sealed, aad string) (string, error) {
	b, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil {
		return "", ErrSealed
	}
	plaintext, err := s.Open(b, []byte(aad))
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}
