package domain

import "time"

// Identity is a registered account.
type Identity struct {
	ID               string
	Email            string // normalised: NFKC, trimmed, lower-case
	PasswordHash     string // argon2id PHC string
	EmailConfirmedAt *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// EmailConfirmed reports whether the email address has been verified.
func (i *Identity) EmailConfirmed() bool {
	return i.EmailConfirmedAt != nil
}
