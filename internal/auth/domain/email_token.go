package domain

import "time"

// EmailTokenPurpose distinguishes the links mailed to a user.
type EmailTokenPurpose string

const (
	EmailTokenConfirm       EmailTokenPurpose = "confirm_email"
	EmailTokenPasswordReset EmailTokenPurpose = "password_reset"
)

// EmailToken is a single-use token sent by email. Only the fingerprint of
// the token is stored.
type EmailToken struct {
	TokenHash string
	UserID    string
	Purpose   EmailTokenPurpose
	CreatedAt time.Time
	ExpiresAt time.Time
}
