package service

import "errors"

// Service errors. The text doubles as the error code in HTTP responses.
var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrEmailTaken         = errors.New("email_taken")
	ErrInvalidEmail       = errors.New("invalid_email")
	ErrWeakPassword       = errors.New("weak_password")
	ErrInvalidToken       = errors.New("invalid_token")
	ErrSessionRevoked     = errors.New("session_revoked")
	ErrInvalidProfile     = errors.New("invalid_profile")
	ErrInvalidMFARecord   = errors.New("invalid_mfa_record")
	ErrMFASecretChanged   = errors.New("mfa_secret_changed")
)
