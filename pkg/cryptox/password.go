package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
	"golang.org/x/text/unicode/norm"
)

// Argon2id parameters.
const (
	memory      = 19 * 1024 // KiB
	iterations  = 2
	parallelism = 1
	keyLength   = 32
	saltLength  = 16
)

var (
	ErrPasswordMismatch = errors.New("cryptox: password does not match")
	ErrInvalidHash      = errors.New("cryptox: invalid password hash")
)

// NormalizePassword applies NFKC so that visually identical passwords typed
// on different keyboards hash the same.
func NormalizePassword(password string) string {
	return norm.NFKC.String(password)
}

// HashPassword returns a PHC-format Argon2id hash of the normalised,
// peppered password.
func HashPassword(password string) (string, error) {
	p, err := Pepper()
	if err != nil {
		return "", err
	}

	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	hash := argon2.IDKey([]byte(NormalizePassword(password)+p), salt, iterations, memory, parallelism, keyLength)

	return fmt.Sprintf(
		"$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		memory,
		iterations,
		parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// VerifyPassword compares password against a hash produced by HashPassword.
// It returns ErrPasswordMismatch on a wrong password and ErrInvalidHash when
// the stored hash cannot be parsed.
func VerifyPassword(password, encodedHash string) error {
	// ["", "argon2id", "v=19", "m=X,t=Y,p=Z", "salt", "hash"]
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" || parts[2] != "v=19" {
		return ErrInvalidHash
	}

	var mem, iters uint32
	var par uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &iters, &par); err != nil {
		return fmt.Errorf("%w: parameters: %v", ErrInvalidHash, err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return fmt.Errorf("%w: salt: %v", ErrInvalidHash, err)
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(expected) == 0 {
		return fmt.Errorf("%w: digest", ErrInvalidHash)
	}

	p, err := Pepper()
	if err != nil {
		return err
	}

	computed := argon2.IDKey(
		[]byte(NormalizePassword(password)+p),
		salt,
		iters,
		mem,
		par,
		uint32(len(expected)), // #nosec G115
	)
	if subtle.ConstantTimeCompare(computed, expected) == 1 {
		return nil
	}
	return ErrPasswordMismatch
}

var (
	dummyOnce sync.Once
	dummyHash string
)

// DummyVerify burns the same work as VerifyPassword. Call it when the account
// does not exist so response time does not reveal which emails are registered.
func DummyVerify(password string) {
	dummyOnce.Do(func() {
		dummyHash, _ = HashPassword("dummy-password-for-timing")
	})
	if dummyHash != "" {
		_ = VerifyPassword(password, dummyHash)
	}
}
