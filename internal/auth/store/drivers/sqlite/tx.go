package sqlite

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/pocketbook/internal/auth/store"

	"github.com/vinovest/sqlx"
)

type txStore struct {
	tx *sqlx.Tx
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

// Close is a no-op; the caller commits or rolls back and the database stays
// open.
func (t *txStore) Close() error { return nil }

func (t *txStore) Ping(ctx context.Context) error { return nil }

// Nested transactions are not supported.
func (t *txStore) Tx(ctx context.Context) (store.Tx, error) {
	return nil, sql.ErrTxDone
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return sql.ErrTxDone
}

func (t *txStore) ApplyMigrations() error { return nil }

func (t *txStore) Identities() store.Identities       { return &identitiesRepo{q: t.tx} }
func (t *txStore) Sessions() store.Sessions           { return &sessionsRepo{q: t.tx} }
func (t *txStore) EmailTokens() store.EmailTokens     { return &emailTokensRepo{q: t.tx} }
func (t *txStore) Profiles() store.Profiles           { return &profilesRepo{q: t.tx} }
func (t *txStore) MFARecords() store.MFARecords       { return &mfaRecordsRepo{q: t.tx} }
func (t *txStore) RecoveryCodes() store.RecoveryCodes { return &recoveryCodesRepo{q: t.tx} }
func (t *txStore) MFAChallenges() store.MFAChallenges { return &challengesRepo{q: t.tx} }
func (t *txStore) SigningKeys() store.SigningKeys     { return &signingKeysRepo{q: t.tx} }
