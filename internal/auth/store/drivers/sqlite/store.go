// Package sqlite is the SQLite driver for store.Store, built on sqlx and the
// pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aussiebroadwan/pocketbook/internal/auth/store"

	"github.com/vinovest/sqlx"
	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Store is a store.Store backed by one SQLite database.
type Store struct {
	db *sqlx.DB
}

var _ store.Store = (*Store)(nil)

// NewStore opens dsn, which is a file path or a "file:" URI. Missing
// connection parameters are filled in so that every connection enforces
// foreign keys, waits on a busy database and takes the write lock up front.
func NewStore(dsn string) (*Store, error) {
	if !isMemory(dsn) {
		if err := os.MkdirAll(filepath.Dir(dbPath(dsn)), 0o750); err != nil {
			return nil, fmt.Errorf("sqlite: create data dir: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", withDefaultParams(dsn))
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}

	if isMemory(dsn) {
		// Each connection to :memory: is its own database.
		db.SetMaxOpenConns(1)
	}

	if err := configure(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func withDefaultParams(dsn string) string {
	params := []string{
		"_txlock=immediate",
		"_pragma=busy_timeout(5000)",
		"_pragma=foreign_keys(1)",
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	for _, p := range params {
		key, _, _ := strings.Cut(p, "(")
		if strings.Contains(dsn, key) {
			continue
		}
		dsn += sep + p
		sep = "&"
	}
	return dsn
}

func dbPath(dsn string) string {
	path, _, _ := strings.Cut(strings.TrimPrefix(dsn, "file:"), "?")
	return path
}

func isMemory(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

func configure(db *sqlx.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("sqlite: %s: %w", p, err)
		}
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Tx starts a read/write transaction and returns a Tx-scoped Store.
func (s *Store) Tx(ctx context.Context) (store.Tx, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &txStore{tx: tx}, nil
}

// WithTx executes fn within a transaction, committing when fn returns nil.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.Tx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback() // no-op after commit
	}()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) Identities() store.Identities       { return &identitiesRepo{q: s.db} }
func (s *Store) Sessions() store.Sessions           { return &sessionsRepo{q: s.db} }
func (s *Store) EmailTokens() store.EmailTokens     { return &emailTokensRepo{q: s.db} }
func (s *Store) Profiles() store.Profiles           { return &profilesRepo{q: s.db} }
func (s *Store) MFARecords() store.MFARecords       { return &mfaRecordsRepo{q: s.db} }
func (s *Store) RecoveryCodes() store.RecoveryCodes { return &recoveryCodesRepo{q: s.db} }
func (s *Store) MFAChallenges() store.MFAChallenges { return &challengesRepo{q: s.db} }
func (s *Store) SigningKeys() store.SigningKeys     { return &signingKeysRepo{q: s.db} }

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

// mapConstraint turns unique and primary key violations into
// store.ErrAlreadyExists, and a missing parent row into store.ErrNotFound.
func mapConstraint(err error) error {
	var se *moderncsqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return store.ErrAlreadyExists
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return store.ErrNotFound
		}
	}
	return err
}

// Times are stored as unix milliseconds.

func millis(t time.Time) int64 { return t.UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

func nullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func fromNullMillis(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := fromMillis(n.Int64)
	return &t
}

func affected(res sql.Result, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
