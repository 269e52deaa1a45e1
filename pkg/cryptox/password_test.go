package cryptox

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "cryptox-pepper")
	if err != nil {
		panic(err)
	}
	SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

func TestHashPassword(t *testing.T) {
	t.Parallel()

	for _, pw := range []string{"password123", "P@ssw0rd!#$%^&*()", strings.Repeat("a", 100), "", "пароль🔒密码", "   spaces   "} {
		hash, err := HashPassword(pw)
		require.NoError(t, err)

		parts := strings.Split(hash, "$")
		require.Len(t, parts, 6)
		require.Equal(t, "argon2id", parts[1])
		require.Equal(t, "v=19", parts[2])
		require.Equal(t, "m=19456,t=2,p=1", parts[3])

		require.NoError(t, VerifyPassword(pw, hash), pw)
	}
}

func TestHashPasswordUsesFreshSalt(t *testing.T) {
	t.Parallel()

	h1, err := HashPassword("same")
	require.NoError(t, err)
	h2, err := HashPassword("same")
	require.NoError(t, err)
	require.NotEqual(t, h1, h2)
}

func TestVerifyPasswordMismatch(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("correct-password")
	require.NoError(t, err)

	for _, wrong := range []string{"wrong-password", "Correct-Password", "correct-password ", "", strings.Repeat("x", 10000)} {
		require.ErrorIs(t, VerifyPassword(wrong, hash), ErrPasswordMismatch, wrong)
	}
}

func TestVerifyPasswordNormalisesUnicode(t *testing.T) {
	t.Parallel()

	// U+FB01 LATIN SMALL LIGATURE FI folds to "fi" under NFKC.
	hash, err := HashPassword("ﬁsh-and-chips")
	require.NoError(t, err)
	require.NoError(t, VerifyPassword("fish-and-chips", hash))
}

func TestVerifyPasswordInvalidHash(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"empty":          "",
		"bcrypt":         "$bcrypt$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		"missing parts":  "$argon2id$v=19$m=19456",
		"bad parameters": "$argon2id$v=19$invalid$c2FsdA$aGFzaA",
		"bad salt":       "$argon2id$v=19$m=19456,t=2,p=1$!!!$aGFzaA",
		"bad digest":     "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$!!!",
		"wrong version":  "$argon2id$v=18$m=19456,t=2,p=1$c2FsdA$aGFzaA",
	}
	for name, hash := range tests {
		t.Run(name, func(t *testing.T) {
			require.ErrorIs(t, VerifyPassword("pw", hash), ErrInvalidHash)
		})
	}
}

func TestDummyVerifyDoesNotPanic(t *testing.T) {
	t.Parallel()
	DummyVerify("anything")
	DummyVerify("")
}
