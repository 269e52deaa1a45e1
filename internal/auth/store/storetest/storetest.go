// Package storetest provides store fixtures for tests.
package storetest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/pocketbook/internal/auth/domain"
	"github.com/aussiebroadwan/pocketbook/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/pocketbook/pkg/idx"

	"github.com/stretchr/testify/require"
)

// NewSQLite opens a migrated SQLite store in a temporary directory. A file
// is used rather than :memory: so concurrent tests see one database across
// pooled connections.
func NewSQLite(t *testing.T) *sqlite.Store {
	t.Helper()

	s, err := sqlite.NewStore(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

// Now is a millisecond-aligned UTC time, matching what the store round
// trips.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// NewIdentity inserts an identity with a placeholder password hash.
func NewIdentity(t *testing.T, s *sqlite.Store, email string) domain.Identity {
	t.Helper()

	now := Now()
	id := domain.Identity{
		ID:           idx.NewAt(now).String(),
		Email:        email,
		PasswordHash: "$argon2id$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, s.Identities().CreateIdentity(context.Background(), id))
	return id
}
