package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/pocketbook/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Drivers expose sub-repositories
// rather than flat methods so that a Tx-scoped Store can hand out the same
// repositories bound to the transaction, and so a repository can never open
// a transaction of its own.
//
// Secret material (TOTP seeds, recovery codes, signing keys) reaches the
// store already sealed. Times are passed in by the caller.
type Store interface {
	Identities() Identities
	Sessions() Sessions
	EmailTokens() EmailTokens
	Profiles() Profiles
	MFARecords() MFARecords
	RecoveryCodes() RecoveryCodes
	MFAChallenges() MFAChallenges
	SigningKeys() SigningKeys

	ApplyMigrations() error

	// Tx starts a read/write transaction. The caller must Commit or Rollback.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when fn returns nil.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error
	Ping(ctx context.Context) error
}

// Tx is a transactional store.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Identities interface {
	// CreateIdentity fails with ErrAlreadyExists on a duplicate email.
	CreateIdentity(ctx context.Context, id domain.Identity) error

	GetIdentityByID(ctx context.Context, id string) (domain.Identity, error)

	// GetIdentityByEmail expects an already normalised email.
	GetIdentityByEmail(ctx context.Context, email string) (domain.Identity, error)

	// ConfirmEmail sets email_confirmed_at if it is not already set.
	ConfirmEmail(ctx context.Context, id string, at time.Time) error

	UpdatePasswordHash(ctx context.Context, id, hash string, at time.Time) error
}

type Sessions interface {
	CreateSession(ctx context.Context, s domain.Session) error
	GetSession(ctx context.Context, id string) (domain.Session, error)

	// RevokeSession reports whether a live session was revoked.
	RevokeSession(ctx context.Context, id string, at time.Time) (bool, error)

	// RevokeUserSessions revokes every live session of a user.
	RevokeUserSessions(ctx context.Context, userID string, at time.Time) (int64, error)

	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

type EmailTokens interface {
	CreateEmailToken(ctx context.Context, t domain.EmailToken) error

	// ConsumeEmailToken deletes and returns an unexpired token. A missing,
	// expired or wrong-purpose token is ErrNotFound.
	ConsumeEmailToken(ctx context.Context, hash string, purpose domain.EmailTokenPurpose, now time.Time) (domain.EmailToken, error)

	// DeleteUserEmailTokens drops outstanding tokens of one purpose, so only
	// the latest link works.
	DeleteUserEmailTokens(ctx context.Context, userID string, purpose domain.EmailTokenPurpose) error

	DeleteExpiredEmailTokens(ctx context.Context, now time.Time) (int64, error)
}

type Profiles interface {
	// CreateProfile fails with ErrAlreadyExists if the user has one.
	CreateProfile(ctx context.Context, p domain.Profile) error
	GetProfileByUserID(ctx context.Context, userID string) (domain.Profile, error)
}

type MFARecords interface {
	// GetMFARecord returns the record with SecretKey sealed and no codes.
	GetMFARecord(ctx context.Context, userID string) (domain.MFARecord, error)

	// UpsertMFARecord inserts or replaces the record, keeping created_at.
	UpsertMFARecord(ctx context.Context, rec domain.MFARecord) error

	// UpdateMFARecord applies patch and returns ErrNotFound if there is no
	// record.
	UpdateMFARecord(ctx context.Context, userID string, patch domain.MFAPatch, at time.Time) error
}

type RecoveryCodes interface {
	// ReplaceRecoveryCodes swaps the user's whole code set.
	ReplaceRecoveryCodes(ctx context.Context, userID string, codes []domain.RecoveryCode) error

	// ListRecoveryCodes returns the remaining codes in issue order.
	ListRecoveryCodes(ctx context.Context, userID string) ([]domain.RecoveryCode, error)

	// ConsumeRecoveryCode deletes the code with hash and reports whether this
	// call deleted it. Concurrent callers race on the delete; exactly one
	// sees true.
	ConsumeRecoveryCode(ctx context.Context, userID, codeHash string) (bool, error)
}

// MFAChallenges is implemented by the SQLite driver and the Redis driver.
type MFAChallenges interface {
	CreateChallenge(ctx context.Context, ch domain.MFAChallenge) error

	// GetChallenge returns an unexpired challenge.
	GetChallenge(ctx context.Context, id string, now time.Time) (domain.MFAChallenge, error)

	// DeleteChallenge reports whether this call removed the challenge.
	DeleteChallenge(ctx context.Context, id string) (bool, error)

	// IncrementChallengeAttempts adds a failed attempt to an unexpired
	// challenge and returns the new count.
	IncrementChallengeAttempts(ctx context.Context, id string, now time.Time) (int, error)

	DeleteExpiredChallenges(ctx context.Context, now time.Time) (int64, error)
}

type SigningKeys interface {
	CreateSigningKey(ctx context.Context, key domain.SigningKey) error

	// ListSigningKeys returns every key still accepted for verification at
	// now, newest first.
	ListSigningKeys(ctx context.Context, now time.Time) ([]domain.SigningKey, error)

	// RetireSigningKey stops a key signing and schedules its expiry.
	RetireSigningKey(ctx context.Context, kid string, at, expiresAt time.Time) error

	DeleteExpiredSigningKeys(ctx context.Context, now time.Time) (int64, error)
}
