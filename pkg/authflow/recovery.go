package authflow

import (
	"context"
	"errors"
	"strings"

	"github.com/aussiebroadwan/pocketbook/pkg/cryptox"
	"github.com/aussiebroadwan/pocketbook/pkg/slogx"
)

// GetRecoveryCodes returns the unconsumed recovery codes of the signed in
// identity.
func (o *Orchestrator) GetRecoveryCodes(ctx context.Context) RecoveryCodesResult {
	id, _, ok := o.current()
	if !ok {
		return RecoveryCodesResult{Result: failed(ReasonNotAuthenticated)}
	}

	rec, err := o.records.GetMFARecord(ctx, id.ID)
	switch {
	case errors.Is(err, ErrNotFound):
		return RecoveryCodesResult{Result: succeeded()}
	case err != nil:
		return RecoveryCodesResult{Result: upstream(ctx, "get_recovery_codes", err)}
	}
	return RecoveryCodesResult{Result: succeeded(), RecoveryCodes: rec.RecoveryCodes}
}

// VerifyRecoveryCode consumes a recovery code in place of a TOTP code.
//
// The user is taken from ticket when one is given, otherwise from the signed
// in identity. A code can be consumed at most once, even under concurrent
// submission.
func (o *Orchestrator) VerifyRecoveryCode(ctx context.Context, code, ticket string) Result {
	if _, err := cryptox.NormalizeRecoveryCode(code); err != nil {
		return failed(ReasonMalformedInput)
	}

	var (
		userID    string
		challenge *Challenge
		now       = o.clock()
	)

	if strings.TrimSpace(ticket) != "" {
		t, ok := ParseTicket(ticket)
		if !ok {
			return failed(ReasonMalformedInput)
		}
		ch, res, ok := o.openChallenge(ctx, t, now)
		if !ok {
			return res
		}
		userID, challenge = t.UserID, &ch
	} else {
		id, _, ok := o.current()
		if !ok {
			return failed(ReasonNotAuthenticated)
		}
		userID = id.ID
	}

	log := slogx.FromContext(ctx).With("user_id", userID)

	consumed, err := o.records.ConsumeRecoveryCode(ctx, userID, code)
	switch {
	case errors.Is(err, ErrNotFound):
		consumed = false
	case err != nil:
		return upstream(ctx, "consume_recovery_code", err)
	}

	if !consumed {
		if challenge != nil {
			exceeded, err := o.challenges.RecordChallengeFailure(ctx, challenge.ID, o.maxAttempts)
			switch {
			case errors.Is(err, ErrNotFound):
				return failed(ReasonChallengeExpired)
			case err != nil:
				return upstream(ctx, "record_challenge_failure", err)
			case exceeded:
				log.Warn("mfa challenge attempts exhausted")
				return failedWith(ReasonChallengeExpired, "Too many incorrect codes. Please sign in again.")
			}
		}
		log.Info("recovery code rejected")
		return failed(ReasonInvalidRecoveryCode)
	}

	if challenge != nil {
		if res, ok := o.closeChallenge(ctx, challenge.ID); !ok {
			// The code is spent either way.
			log.Warn("challenge closed concurrently", "reason", res.Error)
		}
		o.grantClearance(userID, now)
	}

	log.Info("recovery code consumed")
	return succeeded()
}
