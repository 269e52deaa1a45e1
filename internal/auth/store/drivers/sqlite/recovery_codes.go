package sqlite

import (
	"context"

	"github.com/aussiebroadwan/pocketbook/internal/auth/domain"

	"github.com/vinovest/sqlx"
)

type recoveryCodesRepo struct {
	q sqlx.ExtContext
}

type recoveryCodeRow struct {
	UserID    string `db:"user_id"`
	CodeHash  string `db:"code_hash"`
	Sealed    string `db:"sealed"`
	Position  int    `db:"position"`
	CreatedAt int64  `db:"created_at"`
}

// ReplaceRecoveryCodes should run inside a transaction so the set is never
// observed half written.
func (r *recoveryCodesRepo) ReplaceRecoveryCodes(ctx context.Context, userID string, codes []domain.RecoveryCode) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM recovery_codes WHERE user_id = ?`, userID); err != nil {
		return err
	}
	for _, c := range codes {
		_, err := r.q.ExecContext(ctx, `
			INSERT INTO recovery_codes (user_id, code_hash, sealed, position, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			userID, c.CodeHash, c.Sealed, c.Position, millis(c.CreatedAt),
		)
		if err != nil {
			return mapConstraint(err)
		}
	}
	return nil
}

func (r *recoveryCodesRepo) ListRecoveryCodes(ctx context.Context, userID string) ([]domain.RecoveryCode, error) {
	var rows []recoveryCodeRow
	err := sqlx.SelectContext(ctx, r.q, &rows, `
		SELECT user_id, code_hash, sealed, position, created_at
		FROM recovery_codes WHERE user_id = ?
		ORDER BY position`, userID)
	if err != nil {
		return nil, err
	}

	out := make([]domain.RecoveryCode, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.RecoveryCode{
			UserID:    row.UserID,
			CodeHash:  row.CodeHash,
			Sealed:    row.Sealed,
			Position:  row.Position,
			CreatedAt: fromMillis(row.CreatedAt),
		})
	}
	return out, nil
}

// ConsumeRecoveryCode relies on the single-row DELETE: SQLite serialises
// writers, so only one caller can see a row affected.
func (r *recoveryCodesRepo) ConsumeRecoveryCode(ctx context.Context, userID, codeHash string) (bool, error) {
	n, err := affected(r.q.ExecContext(ctx,
		`DELETE FROM recovery_codes WHERE user_id = ? AND code_hash = ?`,
		userID, codeHash,
	))
	return n == 1, err
}
