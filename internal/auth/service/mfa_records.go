package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/pocketbook/internal/auth/domain"
	"github.com/aussiebroadwan/pocketbook/internal/auth/store"
	"github.com/aussiebroadwan/pocketbook/pkg/cryptox"
	"github.com/aussiebroadwan/pocketbook/pkg/slogx"
)

// MFARecordService stores MFA records with the TOTP secret and recovery
// codes sealed under the master key. The user id is the associated data, so
// a sealed value only opens for its owner.
type MFARecordService struct {
	Store  store.Store
	Sealer *cryptox.Sealer

	// Now defaults to time.Now.
	Now func() time.Time
}

func (s *MFARecordService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Get returns the record with its secret and remaining recovery codes in
// plaintext.
func (s *MFARecordService) Get(ctx context.Context, userID string) (domain.MFARecord, error) {
	rec, err := s.Store.MFARecords().GetMFARecord(ctx, userID)
	if err != nil {
		return domain.MFARecord{}, err
	}

	rec.SecretKey, err = s.Sealer.OpenString(rec.SecretKey, userID)
	if err != nil {
		return domain.MFARecord{}, fmt.Errorf("open mfa secret: %w", err)
	}

	codes, err := s.Store.RecoveryCodes().ListRecoveryCodes(ctx, userID)
	if err != nil {
		return domain.MFARecord{}, err
	}
	rec.RecoveryCodes = make([]string, 0, len(codes))
	for _, c := range codes {
		code, err := s.Sealer.OpenString(c.Sealed, userID)
		if err != nil {
			return domain.MFARecord{}, fmt.Errorf("open recovery code: %w", err)
		}
		rec.RecoveryCodes = append(rec.RecoveryCodes, code)
	}
	return rec, nil
}

// Upsert replaces the record and its whole recovery code set atomically.
func (s *MFARecordService) Upsert(ctx context.Context, rec domain.MFARecord) error {
	if rec.UserID == "" || rec.SecretKey == "" {
		return ErrInvalidMFARecord
	}

	now := s.now()
	sealedSecret, err := s.Sealer.SealString(rec.SecretKey, rec.UserID)
	if err != nil {
		return err
	}

	codes := make([]domain.RecoveryCode, 0, len(rec.RecoveryCodes))
	seen := make(map[string]struct{}, len(rec.RecoveryCodes))
	for i, code := range rec.RecoveryCodes {
		hash, err := cryptox.FingerprintRecoveryCode(code)
		if err != nil {
			return fmt.Errorf("%w: recovery code %d", ErrInvalidMFARecord, i)
		}
		if _, dup := seen[hash]; dup {
			return fmt.Errorf("%w: duplicate recovery code", ErrInvalidMFARecord)
		}
		seen[hash] = struct{}{}

		sealed, err := s.Sealer.SealString(code, rec.UserID)
		if err != nil {
			return err
		}
		codes = append(codes, domain.RecoveryCode{
			UserID:    rec.UserID,
			CodeHash:  hash,
			Sealed:    sealed,
			Position:  i,
			CreatedAt: now,
		})
	}

	stored := domain.MFARecord{
		UserID:         rec.UserID,
		SecretKey:      sealedSecret,
		Enabled:        rec.Enabled,
		SetupCompleted: rec.SetupCompleted,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.MFARecords().UpsertMFARecord(ctx, stored); err != nil {
			return err
		}
		return tx.RecoveryCodes().ReplaceRecoveryCodes(ctx, rec.UserID, codes)
	})
	if err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("mfa record stored",
		slog.String("user_id", rec.UserID),
		slog.Bool("enabled", rec.Enabled),
		slog.Int("recovery_codes", len(codes)),
	)
	return nil
}

// Update applies a partial update of the enabled and setup flags. With
// patch.IfSecret set the update only applies while the stored secret still
// matches it, and ErrMFASecretChanged is returned otherwise.
func (s *MFARecordService) Update(ctx context.Context, userID string, patch domain.MFAPatch) error {
	var err error
	if patch.IfSecret == "" {
		err = s.Store.MFARecords().UpdateMFARecord(ctx, userID, patch, s.now())
	} else {
		err = s.updateIfSecret(ctx, userID, patch)
	}
	if err != nil {
		return err
	}
	slogx.FromContext(ctx).Info("mfa record updated",
		slog.String("user_id", userID),
		slog.Any("enabled", patch.Enabled),
		slog.Any("setup_completed", patch.SetupCompleted),
	)
	return nil
}

// updateIfSecret checks the plaintext guard against the stored secret and then
// updates on the sealed value it read, so a concurrent Upsert makes the
// update match no row.
func (s *MFARecordService) updateIfSecret(ctx context.Context, userID string, patch domain.MFAPatch) error {
	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		rec, err := tx.MFARecords().GetMFARecord(ctx, userID)
		if err != nil {
			return err
		}
		secret, err := s.Sealer.OpenString(rec.SecretKey, userID)
		if err != nil {
			return fmt.Errorf("open mfa secret: %w", err)
		}
		if !strings.EqualFold(secret, strings.TrimSpace(patch.IfSecret)) {
			return ErrMFASecretChanged
		}

		patch.IfSecret = rec.SecretKey
		err = tx.MFARecords().UpdateMFARecord(ctx, userID, patch, s.now())
		if errors.Is(err, store.ErrNotFound) {
			return ErrMFASecretChanged
		}
		return err
	})
}

// ConsumeRecoveryCode deletes code from the user's set and reports whether
// this call deleted it. A code that can't exist is simply not consumed.
func (s *MFARecordService) ConsumeRecoveryCode(ctx context.Context, userID, code string) (bool, error) {
	hash, err := cryptox.FingerprintRecoveryCode(code)
	if err != nil {
		if errors.Is(err, cryptox.ErrInvalidRecoveryCode) {
			return false, nil
		}
		return false, err
	}

	ok, err := s.Store.RecoveryCodes().ConsumeRecoveryCode(ctx, userID, hash)
	if err != nil {
		return false, err
	}
	slogx.FromContext(ctx).Info("recovery code attempt", slog.String("user_id", userID), slog.Bool("consumed", ok))
	return ok, nil
}
