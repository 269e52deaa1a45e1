// Package local binds the authflow ports to the in-process auth services so
// an Orchestrator can run directly against the database, without the HTTP
// API in between.
package local

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/pocketbook/internal/auth/domain"
	"github.com/aussiebroadwan/pocketbook/internal/auth/service"
	"github.com/aussiebroadwan/pocketbook/internal/auth/store"
	"github.com/aussiebroadwan/pocketbook/pkg/authflow"
)

// Backend implements every authflow port on top of the services.
type Backend struct {
	Credentials *service.CredentialService
	Profiles    *service.ProfileService
	MFA         *service.MFARecordService
	Challenges  *service.ChallengeService
}

var (
	_ authflow.CredentialStore = (*Backend)(nil)
	_ authflow.ProfileStore    = (*Backend)(nil)
	_ authflow.MFARecordStore  = (*Backend)(nil)
	_ authflow.ChallengeStore  = (*Backend)(nil)
)

// Options returns orchestrator options wired to b. Profiles is left unset
// when b has no profile service.
func (b *Backend) Options() authflow.Options {
	opts := authflow.Options{
		Credentials: b,
		Records:     b,
		Challenges:  b,
	}
	if b.Profiles != nil {
		opts.Profiles = b
	}
	return opts
}

// translate maps service and store errors onto the authflow sentinels,
// keeping the original in the chain.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, service.ErrEmailTaken), errors.Is(err, store.ErrAlreadyExists):
		return fmt.Errorf("%w: %w", authflow.ErrAlreadyExists, err)
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrWeakPassword),
		errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrSessionRevoked):
		return fmt.Errorf("%w: %w", authflow.ErrInvalidCredentials, err)
	case errors.Is(err, service.ErrMFASecretChanged):
		return fmt.Errorf("%w: %w", authflow.ErrSecretChanged, err)
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("%w: %w", authflow.ErrNotFound, err)
	default:
		return err
	}
}

func toIdentity(id domain.Identity) authflow.Identity {
	return authflow.Identity{
		ID:             id.ID,
		Email:          id.Email,
		EmailConfirmed: id.EmailConfirmed(),
	}
}

func (b *Backend) SignInWithPassword(ctx context.Context, email, password string) (authflow.Identity, authflow.Session, error) {
	id, issued, err := b.Credentials.SignInWithPassword(ctx, email, password)
	if err != nil {
		return authflow.Identity{}, authflow.Session{}, translate(err)
	}
	return toIdentity(id), authflow.Session{Token: issued.Token, ExpiresAt: issued.ExpiresAt}, nil
}

func (b *Backend) SignUp(ctx context.Context, email, password string) (authflow.Identity, error) {
	id, err := b.Credentials.SignUp(ctx, email, password)
	if err != nil {
		return authflow.Identity{}, translate(err)
	}
	return toIdentity(id), nil
}

func (b *Backend) SignOut(ctx context.Context, sess authflow.Session) error {
	return translate(b.Credentials.SignOut(ctx, sess.Token))
}

func (b *Backend) GetSession(ctx context.Context, token string) (authflow.Identity, authflow.Session, error) {
	id, sess, err := b.Credentials.GetSession(ctx, token)
	if err != nil {
		return authflow.Identity{}, authflow.Session{}, translate(err)
	}
	return toIdentity(id), authflow.Session{Token: token, ExpiresAt: sess.ExpiresAt}, nil
}

func (b *Backend) Reauthenticate(ctx context.Context, sess authflow.Session, password string) error {
	userID, _, err := b.Credentials.VerifySession(ctx, sess.Token)
	if err != nil {
		return translate(err)
	}
	return translate(b.Credentials.Reauthenticate(ctx, userID, password))
}

func (b *Backend) GetIdentity(ctx context.Context, userID string) (authflow.Identity, error) {
	id, err := b.Credentials.GetIdentity(ctx, userID)
	if err != nil {
		return authflow.Identity{}, translate(err)
	}
	return toIdentity(id), nil
}

func (b *Backend) SendPasswordReset(ctx context.Context, email string) error {
	err := b.Credentials.SendPasswordReset(ctx, email)
	if errors.Is(err, service.ErrInvalidEmail) {
		return fmt.Errorf("%w: %w", authflow.ErrNotFound, err)
	}
	return translate(err)
}

func (b *Backend) CreateProfile(ctx context.Context, userID string, fields authflow.ProfileFields) error {
	_, err := b.Profiles.Create(ctx, userID, service.ProfileFields{
		DisplayName: fields.DisplayName,
		Currency:    fields.Currency,
	})
	return translate(err)
}

func (b *Backend) GetMFARecord(ctx context.Context, userID string) (authflow.MFARecord, error) {
	rec, err := b.MFA.Get(ctx, userID)
	if err != nil {
		return authflow.MFARecord{}, translate(err)
	}
	return authflow.MFARecord{
		UserID:         rec.UserID,
		SecretKey:      rec.SecretKey,
		Enabled:        rec.Enabled,
		SetupCompleted: rec.SetupCompleted,
		RecoveryCodes:  rec.RecoveryCodes,
		CreatedAt:      rec.CreatedAt,
		UpdatedAt:      rec.UpdatedAt,
	}, nil
}

func (b *Backend) UpsertMFARecord(ctx context.Context, rec authflow.MFARecord) error {
	return translate(b.MFA.Upsert(ctx, domain.MFARecord{
		UserID:         rec.UserID,
		SecretKey:      rec.SecretKey,
		Enabled:        rec.Enabled,
		SetupCompleted: rec.SetupCompleted,
		RecoveryCodes:  rec.RecoveryCodes,
		CreatedAt:      rec.CreatedAt,
		UpdatedAt:      rec.UpdatedAt,
	}))
}

func (b *Backend) UpdateMFARecord(ctx context.Context, userID string, patch authflow.MFAPatch) error {
	return translate(b.MFA.Update(ctx, userID, domain.MFAPatch{
		Enabled:        patch.Enabled,
		SetupCompleted: patch.SetupCompleted,
		IfSecret:       patch.IfSecret,
	}))
}

func (b *Backend) ConsumeRecoveryCode(ctx context.Context, userID, code string) (bool, error) {
	ok, err := b.MFA.ConsumeRecoveryCode(ctx, userID, code)
	return ok, translate(err)
}

func (b *Backend) SaveChallenge(ctx context.Context, ch authflow.Challenge, ttl time.Duration) error {
	_, err := b.Challenges.Save(ctx, ch.ID, ch.UserID, ttl)
	return translate(err)
}

func (b *Backend) GetChallenge(ctx context.Context, id string) (authflow.Challenge, error) {
	ch, err := b.Challenges.Get(ctx, id)
	if err != nil {
		return authflow.Challenge{}, translate(err)
	}
	return authflow.Challenge{
		ID:        ch.ID,
		UserID:    ch.UserID,
		Attempts:  ch.Attempts,
		ExpiresAt: ch.ExpiresAt,
	}, nil
}

func (b *Backend) DeleteChallenge(ctx context.Context, id string) (bool, error) {
	ok, err := b.Challenges.Consume(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	return ok, translate(err)
}

func (b *Backend) RecordChallengeFailure(ctx context.Context, id string, maxAttempts int) (bool, error) {
	exceeded, err := b.Challenges.RecordFailure(ctx, id, maxAttempts)
	return exceeded, translate(err)
}
