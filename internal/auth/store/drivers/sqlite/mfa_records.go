package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/pocketbook/internal/auth/domain"
	"github.com/aussiebroadwan/pocketbook/internal/auth/store"

	"github.com/vinovest/sqlx"
)

type mfaRecordsRepo struct {
	q sqlx.ExtContext
}

type mfaRecordRow struct {
	UserID         string `db:"user_id"`
	SecretSealed   string `db:"secret_sealed"`
	Enabled        bool   `db:"enabled"`
	SetupCompleted bool   `db:"setup_completed"`
	CreatedAt      int64  `db:"created_at"`
	UpdatedAt      int64  `db:"updated_at"`
}

func (r *mfaRecordsRepo) GetMFARecord(ctx context.Context, userID string) (domain.MFARecord, error) {
	var row mfaRecordRow
	err := sqlx.GetContext(ctx, r.q, &row, `
		SELECT user_id, secret_sealed, enabled, setup_completed, created_at, updated_at
		FROM mfa_records WHERE user_id = ?`, userID)
	if err != nil {
		return domain.MFARecord{}, mapNotFound(err)
	}
	return domain.MFARecord{
		UserID:         row.UserID,
		SecretKey:      row.SecretSealed,
		Enabled:        row.Enabled,
		SetupCompleted: row.SetupCompleted,
		CreatedAt:      fromMillis(row.CreatedAt),
		UpdatedAt:      fromMillis(row.UpdatedAt),
	}, nil
}

func (r *mfaRecordsRepo) UpsertMFARecord(ctx context.Context, rec domain.MFARecord) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO mfa_records (user_id, secret_sealed, enabled, setup_completed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			secret_sealed = excluded.secret_sealed,
			enabled = excluded.enabled,
			setup_completed = excluded.setup_completed,
			updated_at = excluded.updated_at`,
		rec.UserID, rec.SecretKey, rec.Enabled, rec.SetupCompleted,
		millis(rec.CreatedAt), millis(rec.UpdatedAt),
	)
	return mapConstraint(err)
}

func (r *mfaRecordsRepo) UpdateMFARecord(ctx context.Context, userID string, patch domain.MFAPatch, at time.Time) error {
	n, err := affected(r.q.ExecContext(ctx, `
		UPDATE mfa_records SET
			enabled = COALESCE(?, enabled),
			setup_completed = COALESCE(?, setup_completed),
			updated_at = ?
		WHERE user_id = ? AND (? = '' OR secret_sealed = ?)`,
		nullBool(patch.Enabled), nullBool(patch.SetupCompleted), millis(at), userID,
		patch.IfSecret, patch.IfSecret,
	))
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}
