package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/pocketbook/internal/auth/domain"
	"github.com/aussiebroadwan/pocketbook/internal/auth/store"

	"github.com/vinovest/sqlx"
)

type signingKeysRepo struct {
	q sqlx.ExtContext
}

type signingKeyRow struct {
	Kid              string        `db:"kid"`
	PrivateKeySealed []byte        `db:"private_key_sealed"`
	CreatedAt        int64         `db:"created_at"`
	RetiredAt        sql.NullInt64 `db:"retired_at"`
	ExpiresAt        sql.NullInt64 `db:"expires_at"`
}

func (r *signingKeysRepo) CreateSigningKey(ctx context.Context, key domain.SigningKey) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO signing_keys (kid, private_key_sealed, created_at, retired_at, expires_at)
		VALUES (?, ?, ?, ?, ?)`,
		key.Kid, key.PrivateKeySealed, millis(key.CreatedAt),
		nullMillis(key.RetiredAt), nullMillis(key.ExpiresAt),
	)
	return mapConstraint(err)
}

func (r *signingKeysRepo) ListSigningKeys(ctx context.Context, now time.Time) ([]domain.SigningKey, error) {
	var rows []signingKeyRow
	err := sqlx.SelectContext(ctx, r.q, &rows, `
		SELECT kid, private_key_sealed, created_at, retired_at, expires_at
		FROM signing_keys
		WHERE expires_at IS NULL OR expires_at > ?
		ORDER BY created_at DESC, kid DESC`, millis(now))
	if err != nil {
		return nil, err
	}

	out := make([]domain.SigningKey, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.SigningKey{
			Kid:              row.Kid,
			PrivateKeySealed: row.PrivateKeySealed,
			CreatedAt:        fromMillis(row.CreatedAt),
			RetiredAt:        fromNullMillis(row.RetiredAt),
			ExpiresAt:        fromNullMillis(row.ExpiresAt),
		})
	}
	return out, nil
}

func (r *signingKeysRepo) RetireSigningKey(ctx context.Context, kid string, at, expiresAt time.Time) error {
	n, err := affected(r.q.ExecContext(ctx, `
		UPDATE signing_keys
		SET retired_at = COALESCE(retired_at, ?), expires_at = ?
		WHERE kid = ?`,
		millis(at), millis(expiresAt), kid,
	))
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *signingKeysRepo) DeleteExpiredSigningKeys(ctx context.Context, now time.Time) (int64, error) {
	return affected(r.q.ExecContext(ctx,
		`DELETE FROM signing_keys WHERE expires_at IS NOT NULL AND expires_at <= ?`, millis(now)))
}
