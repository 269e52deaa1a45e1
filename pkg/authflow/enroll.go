package authflow

import (
	"context"
	"errors"
	"strings"

	"github.com/aussiebroadwan/pocketbook/pkg/cryptox"
	"github.com/aussiebroadwan/pocketbook/pkg/slogx"
)

// SetupMFA starts (or restarts) TOTP enrollment for the signed in identity.
// Any earlier, uncompleted enrollment is overwritten, including its secret and
// recovery codes.
func (o *Orchestrator) SetupMFA(ctx context.Context) SetupResult {
	id, _, ok := o.current()
	if !ok {
		return SetupResult{Result: failed(ReasonNotAuthenticated)}
	}

	key, err := generateKey(o.issuer, id.Email)
	if err != nil {
		slogx.FromContext(ctx).Error("totp key generation failed", "err", err)
		return SetupResult{Result: failedWith(ReasonUpstreamUnavailable, "Could not start two-factor setup.")}
	}
	codes, err := cryptox.GenerateRecoveryCodes(cryptox.RecoveryCodeCount)
	if err != nil {
		slogx.FromContext(ctx).Error("recovery code generation failed", "err", err)
		return SetupResult{Result: failedWith(ReasonUpstreamUnavailable, "Could not start two-factor setup.")}
	}

	rec := MFARecord{
		UserID:         id.ID,
		SecretKey:      key.Secret(),
		Enabled:        false,
		SetupCompleted: false,
		RecoveryCodes:  codes,
	}
	if err := o.records.UpsertMFARecord(ctx, rec); err != nil {
		return SetupResult{Result: upstream(ctx, "setup_mfa", err)}
	}

	o.mu.Lock()
	o.setup = SetupInProgress
	o.status = MFAStatus{}
	o.mu.Unlock()

	slogx.FromContext(ctx).Info("mfa enrollment started", "user_id", id.ID)
	return SetupResult{
		Result:        succeeded(),
		URI:           key.URL(),
		Secret:        key.Secret(),
		RecoveryCodes: codes,
	}
}

// CompleteMFASetup enables MFA once code proves possession of secret. secret
// must be the one issued by the most recent SetupMFA.
func (o *Orchestrator) CompleteMFASetup(ctx context.Context, code, secret string) RecoveryCodesResult {
	id, _, ok := o.current()
	if !ok {
		return RecoveryCodesResult{Result: failed(ReasonNotAuthenticated)}
	}
	secret = strings.TrimSpace(secret)
	if !validCodeShape(code) || secret == "" {
		return RecoveryCodesResult{Result: failed(ReasonMalformedInput)}
	}

	log := slogx.FromContext(ctx).With("user_id", id.ID)

	rec, err := o.records.GetMFARecord(ctx, id.ID)
	switch {
	case errors.Is(err, ErrNotFound):
		return RecoveryCodesResult{Result: failedWith(ReasonInvalidMFACode, "Two-factor setup has not been started.")}
	case err != nil:
		return RecoveryCodesResult{Result: upstream(ctx, "complete_mfa_setup_read", err)}
	}

	// The stored secret is authoritative: a second SetupMFA invalidates codes
	// for the first secret.
	if !strings.EqualFold(rec.SecretKey, secret) || !validateCode(code, secret, o.clock()) {
		log.Info("mfa setup code rejected")
		return RecoveryCodesResult{Result: failed(ReasonInvalidMFACode)}
	}

	// A SetupMFA racing this call replaces the secret; enabling must not
	// apply to a secret the code was never checked against.
	enabled := true
	err = o.records.UpdateMFARecord(ctx, id.ID, MFAPatch{Enabled: &enabled, SetupCompleted: &enabled, IfSecret: rec.SecretKey})
	switch {
	case errors.Is(err, ErrSecretChanged), errors.Is(err, ErrNotFound):
		log.Info("mfa secret replaced during setup")
		return RecoveryCodesResult{Result: failedWith(ReasonInvalidMFACode, "Two-factor setup was restarted. Use the newest setup code.")}
	case err != nil:
		return RecoveryCodesResult{Result: upstream(ctx, "complete_mfa_setup_update", err)}
	}

	rec, err = o.records.GetMFARecord(ctx, id.ID)
	if err != nil {
		return RecoveryCodesResult{Result: upstream(ctx, "complete_mfa_setup_reread", err)}
	}

	o.mu.Lock()
	o.setup = SetupComplete
	o.mu.Unlock()
	o.setStatus(rec)

	log.Info("mfa enabled")
	return RecoveryCodesResult{Result: succeeded(), RecoveryCodes: rec.RecoveryCodes}
}

// DisableMFA turns MFA off after re-verifying the password. The secret and
// recovery codes are kept.
func (o *Orchestrator) DisableMFA(ctx context.Context, password string) Result {
	id, sess, ok := o.current()
	if !ok {
		return failed(ReasonNotAuthenticated)
	}
	if password == "" {
		return failed(ReasonMalformedInput)
	}

	err := o.credentials.Reauthenticate(ctx, sess, password)
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return failed(ReasonInvalidCredentials)
	case err != nil:
		return upstream(ctx, "disable_mfa_reauth", err)
	}

	disabled := false
	if err := o.records.UpdateMFARecord(ctx, id.ID, MFAPatch{Enabled: &disabled}); err != nil {
		if errors.Is(err, ErrNotFound) {
			return succeeded()
		}
		return upstream(ctx, "disable_mfa_update", err)
	}

	if res := o.RefreshMFAStatus(ctx); !res.Success {
		return res
	}
	slogx.FromContext(ctx).Info("mfa disabled", "user_id", id.ID)
	return succeeded()
}
