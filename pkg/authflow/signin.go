package authflow

import (
	"context"
	"errors"
	"strings"

	"github.com/aussiebroadwan/pocketbook/pkg/slogx"
)

// SignIn authenticates with email and password.
//
// The email confirmation gate is evaluated before the MFA gate, and any
// session issued by the credential store is revoked before a non-Success
// result is returned.
func (o *Orchestrator) SignIn(ctx context.Context, email, password string) SignInResult {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return SignInResult{Result: failed(ReasonMalformedInput)}
	}

	log := slogx.FromContext(ctx)
	o.setState(StateAuthenticating)

	id, sess, err := o.credentials.SignInWithPassword(ctx, email, password)
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		o.setState(StateAnonymous)
		return SignInResult{Result: failed(ReasonInvalidCredentials)}
	case err != nil:
		o.setState(StateAnonymous)
		return SignInResult{Result: upstream(ctx, "sign_in", err)}
	}

	// 1. Unconfirmed identities never keep a session.
	if !id.EmailConfirmed {
		o.revoke(ctx, sess)
		o.reset(StateAwaitingEmailVerification)
		log.Info("sign-in blocked on email verification", "user_id", id.ID)
		return SignInResult{Result: failed(ReasonNeedsVerification), NeedsVerification: true}
	}

	// 2. MFA gate. If we cannot read the record we cannot decide, so the
	// session goes too.
	rec, err := o.readStatus(ctx, id.ID)
	if err != nil {
		o.revoke(ctx, sess)
		o.reset(StateAnonymous)
		return SignInResult{Result: upstream(ctx, "sign_in_mfa_status", err)}
	}

	if rec.Enabled && !o.takeClearance(id.ID) {
		o.revoke(ctx, sess)
		ticket, err := o.issueChallenge(ctx, id.ID)
		if err != nil {
			o.reset(StateAnonymous)
			return SignInResult{Result: upstream(ctx, "issue_challenge", err)}
		}
		o.reset(StateAwaitingMFAChallenge)
		log.Info("sign-in requires mfa", "user_id", id.ID)
		return SignInResult{
			Result:      failed(ReasonRequiresMFA),
			RequiresMFA: true,
			Ticket:      ticket,
		}
	}

	o.authenticate(id, sess, MFAStatus{Enabled: rec.Enabled, SetupCompleted: rec.SetupCompleted})
	log.Info("signed in", "user_id", id.ID)
	return SignInResult{Result: succeeded()}
}

// SignOut revokes the current session and returns to Anonymous. Revocation
// failures are logged and otherwise ignored.
func (o *Orchestrator) SignOut(ctx context.Context) Result {
	o.mu.Lock()
	sess := o.session
	o.mu.Unlock()

	if sess != nil {
		o.revoke(ctx, *sess)
	}
	o.reset(StateAnonymous)
	return succeeded()
}

// SignUp registers a new identity and creates its profile row. A profile
// failure does not fail the sign-up; it is reported in ProfileError.
func (o *Orchestrator) SignUp(ctx context.Context, email, password string, fields ProfileFields) SignUpResult {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return SignUpResult{Result: failed(ReasonMalformedInput)}
	}

	log := slogx.FromContext(ctx)

	id, err := o.credentials.SignUp(ctx, email, password)
	switch {
	case errors.Is(err, ErrAlreadyExists):
		return SignUpResult{Result: failed(ReasonAlreadyRegistered)}
	case errors.Is(err, ErrInvalidCredentials):
		return SignUpResult{Result: failedWith(ReasonMalformedInput, "The email or password does not meet the requirements.")}
	case err != nil:
		return SignUpResult{Result: upstream(ctx, "sign_up", err)}
	}

	res := SignUpResult{
		Result:            succeeded(),
		Identity:          &id,
		NeedsVerification: !id.EmailConfirmed,
	}

	if o.profiles != nil {
		if err := o.profiles.CreateProfile(ctx, id.ID, fields); err != nil {
			log.Error("profile creation failed after sign-up", "user_id", id.ID, "err", err)
			res.ProfileError = newErrorInfo(ReasonUpstreamUnavailable, "Your account was created but your profile could not be saved.")
		}
	}

	log.Info("signed up", "user_id", id.ID, "needs_verification", res.NeedsVerification)
	return res
}

// RestoreSession adopts a previously issued session token, for example one
// persisted by the application between runs.
func (o *Orchestrator) RestoreSession(ctx context.Context, token string) Result {
	if strings.TrimSpace(token) == "" {
		return failed(ReasonMalformedInput)
	}

	id, sess, err := o.credentials.GetSession(ctx, token)
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidCredentials):
		o.reset(StateAnonymous)
		return failed(ReasonNotAuthenticated)
	case err != nil:
		return upstream(ctx, "restore_session", err)
	}

	if !id.EmailConfirmed {
		o.revoke(ctx, sess)
		o.reset(StateAwaitingEmailVerification)
		return failed(ReasonNeedsVerification)
	}

	rec, err := o.readStatus(ctx, id.ID)
	if err != nil {
		return upstream(ctx, "restore_session_mfa_status", err)
	}
	o.authenticate(id, sess, MFAStatus{Enabled: rec.Enabled, SetupCompleted: rec.SetupCompleted})
	return succeeded()
}

// RequestPasswordReset asks the credential store to email a reset link. It
// succeeds whether or not the address is registered.
func (o *Orchestrator) RequestPasswordReset(ctx context.Context, email string) Result {
	email = strings.TrimSpace(email)
	if email == "" {
		return failed(ReasonMalformedInput)
	}
	if err := o.credentials.SendPasswordReset(ctx, email); err != nil && !errors.Is(err, ErrNotFound) {
		return upstream(ctx, "send_password_reset", err)
	}
	return succeeded()
}

func (o *Orchestrator) revoke(ctx context.Context, sess Session) {
	if sess.Token == "" {
		return
	}
	if err := o.credentials.SignOut(ctx, sess); err != nil {
		slogx.FromContext(ctx).Warn("session revocation failed", "err", err)
	}
}
