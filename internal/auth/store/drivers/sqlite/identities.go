package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/pocketbook/internal/auth/domain"
	"github.com/aussiebroadwan/pocketbook/internal/auth/store"

	"github.com/vinovest/sqlx"
)

type identitiesRepo struct {
	q sqlx.ExtContext
}

type identityRow struct {
	ID               string        `db:"id"`
	Email            string        `db:"email"`
	PasswordHash     string        `db:"password_hash"`
	EmailConfirmedAt sql.NullInt64 `db:"email_confirmed_at"`
	CreatedAt        int64         `db:"created_at"`
	UpdatedAt        int64         `db:"updated_at"`
}

func (r identityRow) toDomain() domain.Identity {
	return domain.Identity{
		ID:               r.ID,
		Email:            r.Email,
		PasswordHash:     r.PasswordHash,
		EmailConfirmedAt: fromNullMillis(r.EmailConfirmedAt),
		CreatedAt:        fromMillis(r.CreatedAt),
		UpdatedAt:        fromMillis(r.UpdatedAt),
	}
}

const identityColumns = `id, email, password_hash, email_confirmed_at, created_at, updated_at`

func (r *identitiesRepo) CreateIdentity(ctx context.Context, id domain.Identity) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO identities (`+identityColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id.ID, id.Email, id.PasswordHash, nullMillis(id.EmailConfirmedAt),
		millis(id.CreatedAt), millis(id.UpdatedAt),
	)
	return mapConstraint(err)
}

func (r *identitiesRepo) GetIdentityByID(ctx context.Context, id string) (domain.Identity, error) {
	var row identityRow
	err := sqlx.GetContext(ctx, r.q, &row, `SELECT `+identityColumns+` FROM identities WHERE id = ?`, id)
	if err != nil {
		return domain.Identity{}, mapNotFound(err)
	}
	return row.toDomain(), nil
}

func (r *identitiesRepo) GetIdentityByEmail(ctx context.Context, email string) (domain.Identity, error) {
	var row identityRow
	err := sqlx.GetContext(ctx, r.q, &row, `SELECT `+identityColumns+` FROM identities WHERE email = ?`, email)
	if err != nil {
		return domain.Identity{}, mapNotFound(err)
	}
	return row.toDomain(), nil
}

func (r *identitiesRepo) ConfirmEmail(ctx context.Context, id string, at time.Time) error {
	n, err := affected(r.q.ExecContext(ctx, `
		UPDATE identities
		SET email_confirmed_at = COALESCE(email_confirmed_at, ?), updated_at = ?
		WHERE id = ?`,
		millis(at), millis(at), id,
	))
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *identitiesRepo) UpdatePasswordHash(ctx context.Context, id, hash string, at time.Time) error {
	n, err := affected(r.q.ExecContext(ctx,
		`UPDATE identities SET password_hash = ?, updated_at = ? WHERE id = ?`,
		hash, millis(at), id,
	))
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
