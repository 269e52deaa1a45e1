package domain

import "time"

// MFARecord is a user's TOTP enrollment. SecretKey and RecoveryCodes are
// plaintext here; the store seals them at rest.
type MFARecord struct {
	UserID         string
	SecretKey      string // base32
	Enabled        bool
	SetupCompleted bool
	RecoveryCodes  []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// MFAPatch is a partial update; nil fields are left unchanged.
type MFAPatch struct {
	Enabled        *bool
	SetupCompleted *bool

	// IfSecret guards the update on the current secret. Services pass the
	// plaintext; the store compares it against the sealed column as given.
	IfSecret string
}

// IsEmpty reports whether the patch changes nothing.
func (p MFAPatch) IsEmpty() bool {
	return p.Enabled == nil && p.SetupCompleted == nil
}

// RecoveryCode is one stored code. CodeHash is the lookup key used for the
// consume-once delete; Sealed lets the owner list their remaining codes.
type RecoveryCode struct {
	UserID    string
	CodeHash  string
	Sealed    string
	Position  int
	CreatedAt time.Time
}

// MFAChallenge is an outstanding second-factor challenge.
type MFAChallenge struct {
	ID        string
	UserID    string
	Attempts  int
	CreatedAt time.Time
	ExpiresAt time.Time
}
