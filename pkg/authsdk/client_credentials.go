package authsdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/aussiebroadwan/pocketbook/pkg/authflow"
)

func (u UserResponse) identity() authflow.Identity {
	return authflow.Identity{
		ID:             u.ID,
		Email:          u.Email,
		EmailConfirmed: u.EmailConfirmed,
	}
}

// SignUp registers a new identity. The service mails a confirmation link.
func (c *Client) SignUp(ctx context.Context, email, password string) (authflow.Identity, error) {
	var user UserResponse
	err := c.call(ctx, http.MethodPost, "/v1/auth/signup",
		CredentialsRequest{Email: email, Password: password}, anonymous, http.StatusCreated, &user)
	if err != nil {
		return authflow.Identity{}, err
	}
	return user.identity(), nil
}

// SignInWithPassword exchanges an email and password for a session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (authflow.Identity, authflow.Session, error) {
	var resp SignInResponse
	err := c.call(ctx, http.MethodPost, "/v1/auth/signin",
		CredentialsRequest{Email: email, Password: password}, anonymous, http.StatusOK, &resp)
	if err != nil {
		return authflow.Identity{}, authflow.Session{}, err
	}
	if resp.Session.Token == "" {
		return authflow.Identity{}, authflow.Session{}, errors.New("authsdk: sign-in response has no session token")
	}
	return resp.User.identity(), authflow.Session{Token: resp.Session.Token, ExpiresAt: resp.Session.ExpiresAt}, nil
}

// SignOut revokes the session. Signing out an already revoked session is
// not an error.
func (c *Client) SignOut(ctx context.Context, session authflow.Session) error {
	err := c.call(ctx, http.MethodPost, "/v1/auth/signout", nil, bearer(session.Token), http.StatusNoContent, nil)
	if errors.Is(err, authflow.ErrInvalidCredentials) {
		return nil
	}
	return err
}

// GetSession resolves a session token to its identity.
func (c *Client) GetSession(ctx context.Context, token string) (authflow.Identity, authflow.Session, error) {
	var resp CurrentSessionResponse
	if err := c.call(ctx, http.MethodGet, "/v1/auth/session", nil, bearer(token), http.StatusOK, &resp); err != nil {
		return authflow.Identity{}, authflow.Session{}, err
	}
	return resp.User.identity(), authflow.Session{Token: token, ExpiresAt: resp.Session.ExpiresAt}, nil
}

// Reauthenticate checks password for the session's user.
func (c *Client) Reauthenticate(ctx context.Context, session authflow.Session, password string) error {
	return c.call(ctx, http.MethodPost, "/v1/auth/reauthenticate",
		PasswordRequest{Password: password}, bearer(session.Token), http.StatusNoContent, nil)
}

// GetIdentity looks a user up by id. Requires the service key.
func (c *Client) GetIdentity(ctx context.Context, userID string) (authflow.Identity, error) {
	var user UserResponse
	if err := c.call(ctx, http.MethodGet, "/v1/users/"+url.PathEscape(userID), nil, c.service(), http.StatusOK, &user); err != nil {
		return authflow.Identity{}, err
	}
	return user.identity(), nil
}

// SendPasswordReset asks the service to mail a reset link. The service
// answers 202 whether or not the address is registered; a malformed address
// is reported as authflow.ErrNotFound.
func (c *Client) SendPasswordReset(ctx context.Context, email string) error {
	err := c.call(ctx, http.MethodPost, "/v1/auth/password-reset",
		PasswordResetRequest{Email: email}, anonymous, http.StatusAccepted, nil)
	if errors.Is(err, authflow.ErrInvalidCredentials) {
		return fmt.Errorf("%w: %w", authflow.ErrNotFound, err)
	}
	return err
}

// ResetPassword sets a new password with a token from a reset mail. All of
// the user's sessions are revoked.
func (c *Client) ResetPassword(ctx context.Context, token, password string) error {
	return c.call(ctx, http.MethodPost, "/v1/auth/password-reset/confirm",
		PasswordResetConfirmRequest{Token: token, Password: password}, anonymous, http.StatusNoContent, nil)
}

// ConfirmEmail redeems a confirmation token from a sign-up mail.
func (c *Client) ConfirmEmail(ctx context.Context, token string) (authflow.Identity, error) {
	var user UserResponse
	err := c.call(ctx, http.MethodPost, "/v1/auth/verify-email",
		VerifyEmailRequest{Token: token}, anonymous, http.StatusOK, &user)
	if err != nil {
		return authflow.Identity{}, err
	}
	return user.identity(), nil
}
