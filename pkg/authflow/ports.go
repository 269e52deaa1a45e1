package authflow

import (
	"context"
	"errors"
	"time"
)

// Errors returned by port implementations. Anything else is treated as the
// backend being unavailable.
var (
	ErrInvalidCredentials = errors.New("authflow: invalid credentials")
	ErrNotFound           = errors.New("authflow: not found")
	ErrAlreadyExists      = errors.New("authflow: already exists")
	ErrSecretChanged      = errors.New("authflow: mfa secret changed")
)

// Identity is a registered user.
type Identity struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	EmailConfirmed bool   `json:"email_confirmed"`
}

// Session is an opaque bearer token issued by the credential store.
type Session struct {
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

// MFARecord is the durable MFA state of one user.
type MFARecord struct {
	UserID         string
	SecretKey      string
	Enabled        bool
	SetupCompleted bool
	RecoveryCodes  []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// MFAPatch is a partial update of an MFARecord. Nil fields are left alone.
type MFAPatch struct {
	Enabled        *bool
	SetupCompleted *bool

	// IfSecret, when set, applies the patch only while the stored secret
	// still equals it. Otherwise the store returns ErrSecretChanged.
	IfSecret string
}

// ProfileFields are the user supplied columns of the profile row created at
// sign-up.
type ProfileFields struct {
	DisplayName string
	Currency    string
}

// Challenge is the server side half of an MFA ticket.
type Challenge struct {
	ID        string
	UserID    string
	Attempts  int
	ExpiresAt time.Time
}

// CredentialStore authenticates passwords and owns sessions.
type CredentialStore interface {
	SignInWithPassword(ctx context.Context, email, password string) (Identity, Session, error)
	SignUp(ctx context.Context, email, password string) (Identity, error)
	SignOut(ctx context.Context, session Session) error
	GetSession(ctx context.Context, token string) (Identity, Session, error)
	// Reauthenticate checks password for the session's user without issuing
	// a new session.
	Reauthenticate(ctx context.Context, session Session, password string) error
	GetIdentity(ctx context.Context, userID string) (Identity, error)
	SendPasswordReset(ctx context.Context, email string) error
}

// ProfileStore creates the profile row that accompanies a new identity.
type ProfileStore interface {
	CreateProfile(ctx context.Context, userID string, fields ProfileFields) error
}

// MFARecordStore persists MFA records keyed by user id.
type MFARecordStore interface {
	GetMFARecord(ctx context.Context, userID string) (MFARecord, error)
	UpsertMFARecord(ctx context.Context, rec MFARecord) error
	UpdateMFARecord(ctx context.Context, userID string, patch MFAPatch) error
	// ConsumeRecoveryCode removes code from the user's set if, and only if,
	// it is still present. It reports whether this call removed it.
	ConsumeRecoveryCode(ctx context.Context, userID, code string) (bool, error)
}

// ChallengeStore tracks outstanding MFA tickets. GetChallenge returns
// ErrNotFound for unknown and expired challenges.
type ChallengeStore interface {
	SaveChallenge(ctx context.Context, ch Challenge, ttl time.Duration) error
	GetChallenge(ctx context.Context, id string) (Challenge, error)
	// DeleteChallenge reports whether the challenge existed.
	DeleteChallenge(ctx context.Context, id string) (bool, error)
	// RecordChallengeFailure bumps the attempt counter and deletes the
	// challenge once maxAttempts is reached, reporting exceeded=true.
	RecordChallengeFailure(ctx context.Context, id string, maxAttempts int) (exceeded bool, err error)
}
