package cryptox

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

const (
	// RecoveryCodeCount is the number of codes issued per enrollment.
	RecoveryCodeCount = 10

	// RecoveryCodeLength is the number of symbols in a code, excluding the
	// separator. 8 symbols over a 31 symbol alphabet is ~39.6 bits.
	RecoveryCodeLength = 8
)

// recoveryAlphabet is lowercase letters and digits without the easily confused
// 0, o, 1, l and i.
const recoveryAlphabet = "23456789abcdefghjkmnpqrstuvwxyz"

// ErrInvalidRecoveryCode reports a code that cannot possibly be valid.
var ErrInvalidRecoveryCode = errors.New("cryptox: invalid recovery code")

// GenerateRecoveryCodes returns n distinct recovery codes formatted as
// "xxxx-xxxx".
func GenerateRecoveryCodes(n int) ([]string, error) {
	if n <= 0 {
		n = RecoveryCodeCount
	}

	seen := make(map[string]struct{}, n)
	codes := make([]string, 0, n)
	for len(codes) < n {
		raw, err := randomRecoveryCode(RecoveryCodeLength)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[raw]; dup {
			continue
		}
		seen[raw] = struct{}{}
		codes = append(codes, formatRecoveryCode(raw))
	}
	return codes, nil
}

// NormalizeRecoveryCode strips separators and whitespace and lowercases the
// code. It returns ErrInvalidRecoveryCode if anything outside the recovery
// alphabet remains.
func NormalizeRecoveryCode(code string) (string, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	code = strings.NewReplacer("-", "", " ", "").Replace(code)
	if code == "" {
		return "", ErrInvalidRecoveryCode
	}
	for _, r := range code {
		if !strings.ContainsRune(recoveryAlphabet, r) {
			return "", ErrInvalidRecoveryCode
		}
	}
	return code, nil
}

// FingerprintRecoveryCode is the lookup key for a code. Codes are normalised
// first so "ABCD-EFGH" and "abcdefgh" share a fingerprint.
func FingerprintRecoveryCode(code string) (string, error) {
	norm, err := NormalizeRecoveryCode(code)
	if err != nil {
		return "", err
	}
	return FingerprintToken(norm), nil
}

func randomRecoveryCode(length int) (string, error) {
	max := big.NewInt(int64(len(recoveryAlphabet)))
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate recovery code: %w", err)
		}
		buf[i] = recoveryAlphabet[n.Int64()]
	}
	return string(buf), nil
}

func formatRecoveryCode(code string) string {
	var parts []string
	for i := 0; i < len(code); i += 4 {
		end := min(i+4, len(code))
		parts = append(parts, code[i:end])
	}
	return strings.Join(parts, "-")
}
