package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/pocketbook/internal/auth/domain"

	"github.com/vinovest/sqlx"
)

type challengesRepo struct {
	q sqlx.ExtContext
}

type challengeRow struct {
	ID        string `db:"id"`
	UserID    string `db:"user_id"`
	Attempts  int    `db:"attempts"`
	CreatedAt int64  `db:"created_at"`
	ExpiresAt int64  `db:"expires_at"`
}

func (r *challengesRepo) CreateChallenge(ctx context.Context, ch domain.MFAChallenge) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO mfa_challenges (id, user_id, attempts, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?)`,
		ch.ID, ch.UserID, ch.Attempts, millis(ch.CreatedAt), millis(ch.ExpiresAt),
	)
	return mapConstraint(err)
}

func (r *challengesRepo) GetChallenge(ctx context.Context, id string, now time.Time) (domain.MFAChallenge, error) {
	var row challengeRow
	err := sqlx.GetContext(ctx, r.q, &row, `
		SELECT id, user_id, attempts, created_at, expires_at
		FROM mfa_challenges WHERE id = ? AND expires_at > ?`,
		id, millis(now),
	)
	if err != nil {
		return domain.MFAChallenge{}, mapNotFound(err)
	}
	return domain.MFAChallenge{
		ID:        row.ID,
		UserID:    row.UserID,
		Attempts:  row.Attempts,
		CreatedAt: fromMillis(row.CreatedAt),
		ExpiresAt: fromMillis(row.ExpiresAt),
	}, nil
}

func (r *challengesRepo) DeleteChallenge(ctx context.Context, id string) (bool, error) {
	n, err := affected(r.q.ExecContext(ctx, `DELETE FROM mfa_challenges WHERE id = ?`, id))
	return n == 1, err
}

func (r *challengesRepo) IncrementChallengeAttempts(ctx context.Context, id string, now time.Time) (int, error) {
	var attempts int
	err := sqlx.GetContext(ctx, r.q, &attempts, `
		UPDATE mfa_challenges SET attempts = attempts + 1
		WHERE id = ? AND expires_at > ?
		RETURNING attempts`,
		id, millis(now),
	)
	if err != nil {
		return 0, mapNotFound(err)
	}
	return attempts, nil
}

func (r *challengesRepo) DeleteExpiredChallenges(ctx context.Context, now time.Time) (int64, error) {
	return affected(r.q.ExecContext(ctx, `DELETE FROM mfa_challenges WHERE expires_at <= ?`, millis(now)))
}
