package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	pepperMu   sync.Mutex
	pepper     string
	pepperFile string
)

// SetPepperPath configures where the pepper is persisted. An empty path keeps
// a process-local pepper, which is only suitable for tests and throwaway
// databases. Changing the path drops any cached pepper.
func SetPepperPath(file string) {
	pepperMu.Lock()
	defer pepperMu.Unlock()
	pepperFile = file
	pepper = ""
}

// Pepper returns the secret appended to every password before hashing,
// loading or creating it on first use.
func Pepper() (string, error) {
	pepperMu.Lock()
	defer pepperMu.Unlock()

	if pepper != "" {
		return pepper, nil
	}

	p, err := loadOrGeneratePepper(pepperFile)
	if err != nil {
		return "", fmt.Errorf("cryptox: pepper: %w", err)
	}
	pepper = p
	return pepper, nil
}

// ReloadPepper rereads the pepper file, e.g. after a restore.
func ReloadPepper() error {
	pepperMu.Lock()
	defer pepperMu.Unlock()

	p, err := loadOrGeneratePepper(pepperFile)
	if err != nil {
		return fmt.Errorf("cryptox: pepper: %w", err)
	}
	pepper = p
	return nil
}

func loadOrGeneratePepper(file string) (string, error) {
	if file == "" {
		return newPepper()
	}

	file = filepath.Clean(file)
	data, err := os.ReadFile(file)
	if err == nil {
		p := strings.TrimSpace(string(data))
		if p == "" {
			return "", fmt.Errorf("pepper file %s is empty", file)
		}
		return p, nil
	}
	if !os.IsNotExist(err) {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(file), 0o750); err != nil {
		return "", err
	}
	p, err := newPepper()
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(file, []byte(p), 0o600); err != nil {
		return "", err
	}
	return p, nil
}

func newPepper() (string, error) {
	b := make([]byte, keyLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
