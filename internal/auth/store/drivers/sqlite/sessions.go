package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/aussiebroadwan/pocketbook/internal/auth/domain"

	"github.com/vinovest/sqlx"
)

type sessionsRepo struct {
	q sqlx.ExtContext
}

type sessionRow struct {
	ID        string        `db:"id"`
	UserID    string        `db:"user_id"`
	AMR       string        `db:"amr"`
	CreatedAt int64         `db:"created_at"`
	ExpiresAt int64         `db:"expires_at"`
	RevokedAt sql.NullInt64 `db:"revoked_at"`
}

func (r sessionRow) toDomain() domain.Session {
	return domain.Session{
		ID:        r.ID,
		UserID:    r.UserID,
		AMR:       strings.Fields(r.AMR),
		CreatedAt: fromMillis(r.CreatedAt),
		ExpiresAt: fromMillis(r.ExpiresAt),
		RevokedAt: fromNullMillis(r.RevokedAt),
	}
}

func (r *sessionsRepo) CreateSession(ctx context.Context, s domain.Session) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, amr, created_at, expires_at, revoked_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		s.ID, s.UserID, strings.Join(s.AMR, " "),
		millis(s.CreatedAt), millis(s.ExpiresAt), nullMillis(s.RevokedAt),
	)
	return mapConstraint(err)
}

func (r *sessionsRepo) GetSession(ctx context.Context, id string) (domain.Session, error) {
	var row sessionRow
	err := sqlx.GetContext(ctx, r.q, &row, `
		SELECT id, user_id, amr, created_at, expires_at, revoked_at
		FROM sessions WHERE id = ?`, id)
	if err != nil {
		return domain.Session{}, mapNotFound(err)
	}
	return row.toDomain(), nil
}

func (r *sessionsRepo) RevokeSession(ctx context.Context, id string, at time.Time) (bool, error) {
	n, err := affected(r.q.ExecContext(ctx, `
		UPDATE sessions SET revoked_at = ?
		WHERE id = ? AND revoked_at IS NULL AND expires_at > ?`,
		millis(at), id, millis(at),
	))
	return n == 1, err
}

func (r *sessionsRepo) RevokeUserSessions(ctx context.Context, userID string, at time.Time) (int64, error) {
	return affected(r.q.ExecContext(ctx, `
		UPDATE sessions SET revoked_at = ?
		WHERE user_id = ? AND revoked_at IS NULL AND expires_at > ?`,
		millis(at), userID, millis(at),
	))
}

// DeleteExpiredSessions removes expired sessions and those revoked before
// now.
func (r *sessionsRepo) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	return affected(r.q.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at <= ? OR revoked_at <= ?`,
		millis(now), millis(now),
	))
}
