package domain

import "time"

// Profile is the application-side row created alongside an identity at
// sign-up.
type Profile struct {
	ID          string // UUID
	UserID      string
	DisplayName string
	Currency    string // ISO 4217
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
