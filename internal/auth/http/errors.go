package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/pocketbook/internal/auth/service"
	"github.com/aussiebroadwan/pocketbook/internal/auth/store"
	"github.com/aussiebroadwan/pocketbook/pkg/httpx"
	"github.com/aussiebroadwan/pocketbook/pkg/slogx"
)

// writeServiceError maps service and store errors to a status and error
// code. Anything unrecognised is logged and reported as server_error.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusUnauthorized, err.Error(), "invalid email or password")
	case errors.Is(err, service.ErrSessionRevoked):
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "session has been revoked")
	case errors.Is(err, service.ErrEmailTaken):
		httpx.WriteError(w, http.StatusConflict, err.Error(), "an account with this email already exists")
	case errors.Is(err, service.ErrInvalidEmail):
		httpx.WriteError(w, http.StatusBadRequest, err.Error(), "email address is not valid")
	case errors.Is(err, service.ErrWeakPassword):
		httpx.WriteError(w, http.StatusBadRequest, err.Error(), "password must be between 8 and 256 characters")
	case errors.Is(err, service.ErrInvalidToken):
		httpx.WriteError(w, http.StatusBadRequest, err.Error(), "token is invalid or expired")
	case errors.Is(err, service.ErrMFASecretChanged):
		httpx.WriteError(w, http.StatusConflict, err.Error(), "the mfa secret has been replaced")
	case errors.Is(err, service.ErrInvalidProfile), errors.Is(err, service.ErrInvalidMFARecord):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, store.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not_found", "resource not found")
	case errors.Is(err, store.ErrAlreadyExists):
		httpx.WriteError(w, http.StatusConflict, "already_exists", "resource already exists")
	default:
		slogx.FromContext(r.Context()).Error("request failed", "path", r.URL.Path, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "internal server error")
	}
}

func writeBadRequest(w http.ResponseWriter, err error) {
	httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
}
