package domain

import "time"

// Session is a password session. The bearer token handed to the client is a
// signed JWT whose sid claim is the session ID; this row is what makes the
// token revocable.
type Session struct {
	ID        string // ULID
	UserID    string
	AMR       []string
	CreatedAt time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}

// IsLive reports whether the session may still be used at now.
func (s *Session) IsLive(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}

// IssuedSession is what a successful sign-in returns to the caller.
type IssuedSession struct {
	Token     string
	ExpiresAt time.Time
}
