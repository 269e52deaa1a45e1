package authsdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/pocketbook/pkg/authflow"
)

// ============================================================================
// Error Codes
// ============================================================================

// Error codes written by the auth service.
const (
	ErrorCodeInvalidRequest     = "invalid_request"
	ErrorCodeInvalidCredentials = "invalid_credentials"
	ErrorCodeInvalidToken       = "invalid_token"
	ErrorCodeInvalidEmail       = "invalid_email"
	ErrorCodeWeakPassword       = "weak_password"
	ErrorCodeEmailTaken         = "email_taken"
	ErrorCodeAlreadyExists      = "already_exists"
	ErrorCodeNotFound           = "not_found"
	ErrorCodeInvalidClient      = "invalid_client"
	ErrorCodeForbidden          = "forbidden"
	ErrorCodeSecretChanged      = "mfa_secret_changed"
	ErrorCodeRateLimited        = "rate_limit_exceeded"
	ErrorCodeServerError        = "server_error"
)

// ============================================================================
// APIError
// ============================================================================

// APIError is a non-2xx response from the auth service.
type APIError struct {
	// StatusCode is the HTTP status code of the response
	StatusCode int

	// Code is the snake_case error code, e.g. "invalid_credentials"
	Code string

	// Description is the human-readable error_description, if any
	Description string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("authsdk: %d %s", e.StatusCode, e.Code)
	}
	return fmt.Sprintf("authsdk: %d %s: %s", e.StatusCode, e.Code, e.Description)
}

// Unwrap maps the response onto the authflow port errors. Statuses with no
// port meaning unwrap to nil.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		switch e.Code {
		case ErrorCodeInvalidCredentials, ErrorCodeInvalidToken:
			return authflow.ErrInvalidCredentials
		}
	case http.StatusBadRequest:
		switch e.Code {
		case ErrorCodeInvalidEmail, ErrorCodeWeakPassword, ErrorCodeInvalidToken:
			return authflow.ErrInvalidCredentials
		}
	case http.StatusNotFound:
		return authflow.ErrNotFound
	case http.StatusConflict:
		if e.Code == ErrorCodeSecretChanged {
			return authflow.ErrSecretChanged
		}
		return authflow.ErrAlreadyExists
	}
	return nil
}

// parseErrorResponse builds an *APIError from a response body. Bodies that
// are not an ErrorResponse fall back to the status text.
func parseErrorResponse(resp *http.Response, body []byte) error {
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &APIError{
			StatusCode:  resp.StatusCode,
			Code:        errResp.Error,
			Description: errResp.ErrorDescription,
		}
	}

	code := ErrorCodeServerError
	switch resp.StatusCode {
	case http.StatusNotFound:
		code = ErrorCodeNotFound
	case http.StatusUnauthorized:
		code = ErrorCodeInvalidToken
	}
	return &APIError{
		StatusCode:  resp.StatusCode,
		Code:        code,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
