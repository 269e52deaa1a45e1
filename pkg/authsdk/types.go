package authsdk

import (
	"time"

	"github.com/aussiebroadwan/pocketbook/pkg/jwtx"
)

// ============================================================================
// Error Types
// ============================================================================

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	// Error is a snake_case code such as "invalid_credentials" or "not_found"
	Error string `json:"error"`

	// ErrorDescription is a human-readable description of the error
	ErrorDescription string `json:"error_description,omitempty"`
}

// ============================================================================
// Credential Types
// ============================================================================

// CredentialsRequest is the body of sign-up and sign-in.
type CredentialsRequest struct {
	Email    string `json:"email" example:"owner@example.com"`
	Password string `json:"password" example:"correct horse battery"`
}

// UserResponse is the public view of an identity.
type UserResponse struct {
	ID             string    `json:"id" example:"01J9Z3Q8K7M2X4V6B8N0P2R4T6"`
	Email          string    `json:"email" example:"owner@example.com"`
	EmailConfirmed bool      `json:"email_confirmed"`
	CreatedAt      time.Time `json:"created_at"`
}

// SessionResponse describes a session. Token is only present when the
// session has just been issued.
type SessionResponse struct {
	ID        string    `json:"id,omitempty"`
	Token     string    `json:"token,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
	AMR       []string  `json:"amr,omitempty"`
}

// SignInResponse is returned by POST /v1/auth/signin.
type SignInResponse struct {
	User    UserResponse    `json:"user"`
	Session SessionResponse `json:"session"`
}

// CurrentSessionResponse is returned by GET /v1/auth/session.
type CurrentSessionResponse struct {
	User    UserResponse    `json:"user"`
	Session SessionResponse `json:"session"`
}

// PasswordRequest carries a password for re-authentication.
type PasswordRequest struct {
	Password string `json:"password"`
}

// PasswordResetRequest asks for a reset link.
type PasswordResetRequest struct {
	Email string `json:"email" example:"owner@example.com"`
}

// PasswordResetConfirmRequest sets a new password with a reset token.
type PasswordResetConfirmRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// VerifyEmailRequest confirms an email address.
type VerifyEmailRequest struct {
	Token string `json:"token"`
}

// ============================================================================
// Profile Types
// ============================================================================

// CreateProfileRequest creates the profile row for a new identity.
type CreateProfileRequest struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name,omitempty"`
	Currency    string `json:"currency,omitempty" example:"AUD"`
}

// ProfileResponse is a stored profile.
type ProfileResponse struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Currency    string    `json:"currency"`
	CreatedAt   time.Time `json:"created_at"`
}

// ============================================================================
// MFA Record Types
// ============================================================================

// MFARecord is the wire form of a user's MFA record. The secret and codes
// are plaintext; the server seals them at rest.
type MFARecord struct {
	UserID         string    `json:"user_id"`
	Secret         string    `json:"secret" example:"JBSWY3DPEHPK3PXP"`
	Enabled        bool      `json:"enabled"`
	SetupCompleted bool      `json:"setup_completed"`
	RecoveryCodes  []string  `json:"recovery_codes"`
	CreatedAt      time.Time `json:"created_at,omitzero"`
	UpdatedAt      time.Time `json:"updated_at,omitzero"`
}

// MFAPatchRequest updates the flags of an MFA record. Omitted fields are
// left unchanged. IfSecret makes the update conditional on the current
// secret.
type MFAPatchRequest struct {
	Enabled        *bool  `json:"enabled,omitempty"`
	SetupCompleted *bool  `json:"setup_completed,omitempty"`
	IfSecret       string `json:"if_secret,omitempty"`
}

// ConsumeRecoveryCodeRequest names the code to consume.
type ConsumeRecoveryCodeRequest struct {
	Code string `json:"code" example:"abcd-efgh"`
}

// ConsumeRecoveryCodeResponse reports whether this request removed the code.
type ConsumeRecoveryCodeResponse struct {
	Consumed bool `json:"consumed"`
}

// ============================================================================
// MFA Challenge Types
// ============================================================================

// SaveChallengeRequest records an outstanding MFA challenge.
type SaveChallengeRequest struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	TTLSeconds int    `json:"ttl_seconds" example:"300"`
}

// ChallengeResponse is a stored challenge.
type ChallengeResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Attempts  int       `json:"attempts"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ChallengeFailureRequest counts one failed attempt.
type ChallengeFailureRequest struct {
	MaxAttempts int `json:"max_attempts" example:"5"`
}

// ChallengeFailureResponse reports whether the challenge is now exhausted.
type ChallengeFailureResponse struct {
	Exceeded bool `json:"exceeded"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse represents the response structure for health check endpoints.
// Used by both /livez and /readyz endpoints (readyz includes additional Checks field).
type HealthResponse struct {
	// Status indicates the overall health status (e.g., "ok")
	Status string `json:"status"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	// Version is the service version string
	Version string `json:"version,omitempty"`

	// Checks contains readiness check results for critical dependencies (only for /readyz)
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks represents the status of critical service dependencies.
type HealthChecks struct {
	Database   string `json:"database"`
	Signer     string `json:"signer"`
	Challenges string `json:"challenges,omitempty"`
}

// ============================================================================
// Key Types
// ============================================================================

// JWKSResponse contains the public keys that verify session tokens.
type JWKSResponse jwtx.JWKS

// SigningKeyInfo describes a session signing key.
type SigningKeyInfo struct {
	Kid       string     `json:"kid"`
	Algorithm string     `json:"algorithm" example:"EdDSA"`
	CreatedAt time.Time  `json:"created_at"`
	RetiredAt *time.Time `json:"retired_at,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// RotateKeyResponse is returned after a rotation.
type RotateKeyResponse struct {
	NewKey     SigningKeyInfo `json:"new_key"`
	ActiveKeys int            `json:"active_keys"`
}
