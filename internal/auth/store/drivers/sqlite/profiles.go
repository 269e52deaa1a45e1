package sqlite

import (
	"context"

	"github.com/aussiebroadwan/pocketbook/internal/auth/domain"

	"github.com/vinovest/sqlx"
)

type profilesRepo struct {
	q sqlx.ExtContext
}

type profileRow struct {
	ID          string `db:"id"`
	UserID      string `db:"user_id"`
	DisplayName string `db:"display_name"`
	Currency    string `db:"currency"`
	CreatedAt   int64  `db:"created_at"`
	UpdatedAt   int64  `db:"updated_at"`
}

func (r *profilesRepo) CreateProfile(ctx context.Context, p domain.Profile) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO profiles (id, user_id, display_name, currency, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.DisplayName, p.Currency, millis(p.CreatedAt), millis(p.UpdatedAt),
	)
	return mapConstraint(err)
}

func (r *profilesRepo) GetProfileByUserID(ctx context.Context, userID string) (domain.Profile, error) {
	var row profileRow
	err := sqlx.GetContext(ctx, r.q, &row, `
		SELECT id, user_id, display_name, currency, created_at, updated_at
		FROM profiles WHERE user_id = ?`, userID)
	if err != nil {
		return domain.Profile{}, mapNotFound(err)
	}
	return domain.Profile{
		ID:          row.ID,
		UserID:      row.UserID,
		DisplayName: row.DisplayName,
		Currency:    row.Currency,
		CreatedAt:   fromMillis(row.CreatedAt),
		UpdatedAt:   fromMillis(row.UpdatedAt),
	}, nil
}
