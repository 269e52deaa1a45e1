package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/pocketbook/internal/auth/domain"

	"github.com/vinovest/sqlx"
)

type emailTokensRepo struct {
	q sqlx.ExtContext
}

type emailTokenRow struct {
	TokenHash string `db:"token_hash"`
	UserID    string `db:"user_id"`
	Purpose   string `db:"purpose"`
	CreatedAt int64  `db:"created_at"`
	ExpiresAt int64  `db:"expires_at"`
}

func (r *emailTokensRepo) CreateEmailToken(ctx context.Context, t domain.EmailToken) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO email_tokens (token_hash, user_id, purpose, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?)`,
		t.TokenHash, t.UserID, string(t.Purpose), millis(t.CreatedAt), millis(t.ExpiresAt),
	)
	return mapConstraint(err)
}

func (r *emailTokensRepo) ConsumeEmailToken(ctx context.Context, hash string, purpose domain.EmailTokenPurpose, now time.Time) (domain.EmailToken, error) {
	var row emailTokenRow
	err := sqlx.GetContext(ctx, r.q, &row, `
		DELETE FROM email_tokens
		WHERE token_hash = ? AND purpose = ? AND expires_at > ?
		RETURNING token_hash, user_id, purpose, created_at, expires_at`,
		hash, string(purpose), millis(now),
	)
	if err != nil {
		return domain.EmailToken{}, mapNotFound(err)
	}
	return domain.EmailToken{
		TokenHash: row.TokenHash,
		UserID:    row.UserID,
		Purpose:   domain.EmailTokenPurpose(row.Purpose),
		CreatedAt: fromMillis(row.CreatedAt),
		ExpiresAt: fromMillis(row.ExpiresAt),
	}, nil
}

func (r *emailTokensRepo) DeleteUserEmailTokens(ctx context.Context, userID string, purpose domain.EmailTokenPurpose) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM email_tokens WHERE user_id = ? AND purpose = ?`,
		userID, string(purpose),
	)
	return err
}

func (r *emailTokensRepo) DeleteExpiredEmailTokens(ctx context.Context, now time.Time) (int64, error) {
	return affected(r.q.ExecContext(ctx, `DELETE FROM email_tokens WHERE expires_at <= ?`, millis(now)))
}
