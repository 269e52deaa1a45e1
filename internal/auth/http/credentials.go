package http

import (
	"net/http"

	"github.com/aussiebroadwan/pocketbook/internal/auth/domain"
	"github.com/aussiebroadwan/pocketbook/internal/auth/service"
	"github.com/aussiebroadwan/pocketbook/pkg/authsdk"
	"github.com/aussiebroadwan/pocketbook/pkg/httpx"
)

// CredentialsHandler serves sign-up, sign-in, sessions, email confirmation
// and password reset.
type CredentialsHandler struct {
	Credentials *service.CredentialService
}

func userResponse(id domain.Identity) authsdk.UserResponse {
	return authsdk.UserResponse{
		ID:             id.ID,
		Email:          id.Email,
		EmailConfirmed: id.EmailConfirmed(),
		CreatedAt:      id.CreatedAt,
	}
}

// HandleSignUp handles POST /v1/auth/signup
//
//	@Summary		Sign up
//	@Description	Creates an identity and mails a confirmation link.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.CredentialsRequest	true	"Email and password"
//	@Success		201		{object}	authsdk.UserResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"invalid_email, weak_password or invalid_request"
//	@Failure		409		{object}	authsdk.ErrorResponse	"email_taken"
//	@Failure		429		{object}	authsdk.ErrorResponse	"rate_limit_exceeded"
//	@Router			/v1/auth/signup [post]
func (h *CredentialsHandler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	var req authsdk.CredentialsRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	id, err := h.Credentials.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, userResponse(id))
}

// HandleSignIn handles POST /v1/auth/signin
//
//	@Summary		Sign in with a password
//	@Description	Verifies the password and issues a session token. Sessions are issued to unconfirmed identities too; callers decide whether to keep them.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.CredentialsRequest	true	"Email and password"
//	@Success		200		{object}	authsdk.SignInResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"invalid_request"
//	@Failure		401		{object}	authsdk.ErrorResponse	"invalid_credentials"
//	@Failure		429		{object}	authsdk.ErrorResponse	"rate_limit_exceeded"
//	@Router			/v1/auth/signin [post]
func (h *CredentialsHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	var req authsdk.CredentialsRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	id, sess, err := h.Credentials.SignInWithPassword(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.SignInResponse{
		User:    userResponse(id),
		Session: authsdk.SessionResponse{Token: sess.Token, ExpiresAt: sess.ExpiresAt},
	})
}

// HandleSignOut handles POST /v1/auth/signout
//
//	@Summary		Sign out
//	@Description	Revokes the presented session.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Success		204
//	@Failure		401	{object}	authsdk.ErrorResponse	"invalid_token"
//	@Router			/v1/auth/signout [post]
func (h *CredentialsHandler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	p, _ := httpx.PrincipalFrom(r.Context())
	if err := h.Credentials.SignOut(r.Context(), p.Token); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSession handles GET /v1/auth/session
//
//	@Summary		Current session
//	@Description	Returns the identity and session behind the bearer token.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.CurrentSessionResponse
//	@Failure		401	{object}	authsdk.ErrorResponse	"invalid_token"
//	@Router			/v1/auth/session [get]
func (h *CredentialsHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	p, _ := httpx.PrincipalFrom(r.Context())
	id, sess, err := h.Credentials.GetSession(r.Context(), p.Token)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.CurrentSessionResponse{
		User: userResponse(id),
		Session: authsdk.SessionResponse{
			ID:        sess.ID,
			ExpiresAt: sess.ExpiresAt,
			AMR:       sess.AMR,
		},
	})
}

// HandleReauthenticate handles POST /v1/auth/reauthenticate
//
//	@Summary		Re-verify the password
//	@Description	Checks the password of the session's user without issuing a new session.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Accept			json
//	@Param			request	body	authsdk.PasswordRequest	true	"Current password"
//	@Success		204
//	@Failure		401	{object}	authsdk.ErrorResponse	"invalid_credentials or invalid_token"
//	@Router			/v1/auth/reauthenticate [post]
func (h *CredentialsHandler) HandleReauthenticate(w http.ResponseWriter, r *http.Request) {
	var req authsdk.PasswordRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	if err := h.Credentials.Reauthenticate(r.Context(), httpx.UserIDFrom(r.Context()), req.Password); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandlePasswordReset handles POST /v1/auth/password-reset
//
//	@Summary		Request a password reset
//	@Description	Mails a reset link. Unknown addresses are accepted so the endpoint does not reveal which accounts exist.
//	@Tags			Auth
//	@Accept			json
//	@Param			request	body	authsdk.PasswordResetRequest	true	"Email"
//	@Success		202
//	@Failure		400	{object}	authsdk.ErrorResponse	"invalid_email"
//	@Router			/v1/auth/password-reset [post]
func (h *CredentialsHandler) HandlePasswordReset(w http.ResponseWriter, r *http.Request) {
	var req authsdk.PasswordResetRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	if err := h.Credentials.SendPasswordReset(r.Context(), req.Email); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// HandlePasswordResetConfirm handles POST /v1/auth/password-reset/confirm
//
//	@Summary		Set a new password
//	@Description	Consumes a reset token, sets the password and revokes every session of the user.
//	@Tags			Auth
//	@Accept			json
//	@Param			request	body	authsdk.PasswordResetConfirmRequest	true	"Token and new password"
//	@Success		204
//	@Failure		400	{object}	authsdk.ErrorResponse	"invalid_token or weak_password"
//	@Router			/v1/auth/password-reset/confirm [post]
func (h *CredentialsHandler) HandlePasswordResetConfirm(w http.ResponseWriter, r *http.Request) {
	var req authsdk.PasswordResetConfirmRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	if err := h.Credentials.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleVerifyEmail handles POST /v1/auth/verify-email
//
//	@Summary		Confirm an email address
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.VerifyEmailRequest	true	"Confirmation token"
//	@Success		200		{object}	authsdk.UserResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"invalid_token"
//	@Router			/v1/auth/verify-email [post]
func (h *CredentialsHandler) HandleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req authsdk.VerifyEmailRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	id, err := h.Credentials.ConfirmEmail(r.Context(), req.Token)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, userResponse(id))
}

// HandleGetUser handles GET /v1/users/{id}
//
//	@Summary		Look up an identity
//	@Tags			Users
//	@Security		APIKeyAuth
//	@Produce		json
//	@Param			id	path		string	true	"User ID"
//	@Success		200	{object}	authsdk.UserResponse
//	@Failure		401	{object}	authsdk.ErrorResponse	"invalid_client"
//	@Failure		404	{object}	authsdk.ErrorResponse	"not_found"
//	@Router			/v1/users/{id} [get]
func (h *CredentialsHandler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := h.Credentials.GetIdentity(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, userResponse(id))
}
