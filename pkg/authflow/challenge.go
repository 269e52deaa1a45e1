package authflow

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aussiebroadwan/pocketbook/pkg/idx"
	"github.com/aussiebroadwan/pocketbook/pkg/slogx"
)

const ticketPrefix = "mfa"

// Ticket is a parsed MFA challenge ticket.
type Ticket struct {
	UserID   string
	IssuedID string
}

// IssuedAt is the issuance time embedded in the ticket's marker.
func (t Ticket) IssuedAt() time.Time {
	return idx.ID(t.IssuedID).Time()
}

func (t Ticket) String() string {
	return ticketPrefix + "_" + t.UserID + "_" + t.IssuedID
}

// ParseTicket validates the shape of a ticket string. It does not consult any
// store.
func ParseTicket(s string) (Ticket, bool) {
	parts := strings.Split(strings.TrimSpace(s), "_")
	if len(parts) != 3 || parts[0] != ticketPrefix {
		return Ticket{}, false
	}
	user, err := idx.Parse(parts[1])
	if err != nil {
		return Ticket{}, false
	}
	issued, err := idx.Parse(parts[2])
	if err != nil {
		return Ticket{}, false
	}
	return Ticket{UserID: user.String(), IssuedID: issued.String()}, true
}

// issueChallenge mints a ticket for userID and records its challenge.
func (o *Orchestrator) issueChallenge(ctx context.Context, userID string) (string, error) {
	now := o.clock()
	t := Ticket{UserID: userID, IssuedID: idx.NewAt(now).String()}
	ch := Challenge{
		ID:        t.IssuedID,
		UserID:    userID,
		ExpiresAt: now.Add(o.ticketTTL),
	}
	if err := o.challenges.SaveChallenge(ctx, ch, o.ticketTTL); err != nil {
		return "", err
	}
	return t.String(), nil
}

// VerifyMFACode checks a TOTP code against the user named by ticket. Success
// consumes the ticket and clears the next SignIn for that user past the MFA
// gate; it does not create a session.
func (o *Orchestrator) VerifyMFACode(ctx context.Context, code, ticket string) Result {
	t, ok := ParseTicket(ticket)
	if !ok || !validCodeShape(code) {
		return failed(ReasonMalformedInput)
	}

	log := slogx.FromContext(ctx).With("user_id", t.UserID)
	now := o.clock()

	ch, res, ok := o.openChallenge(ctx, t, now)
	if !ok {
		return res
	}

	if _, err := o.credentials.GetIdentity(ctx, t.UserID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return failed(ReasonChallengeExpired)
		}
		return upstream(ctx, "verify_mfa_identity", err)
	}

	rec, err := o.records.GetMFARecord(ctx, t.UserID)
	switch {
	case errors.Is(err, ErrNotFound):
		return failed(ReasonInvalidMFACode)
	case err != nil:
		return upstream(ctx, "verify_mfa_record", err)
	}

	if !rec.Enabled || !validateCode(code, rec.SecretKey, now) {
		exceeded, err := o.challenges.RecordChallengeFailure(ctx, ch.ID, o.maxAttempts)
		switch {
		case errors.Is(err, ErrNotFound):
			return failed(ReasonChallengeExpired)
		case err != nil:
			return upstream(ctx, "record_challenge_failure", err)
		case exceeded:
			log.Warn("mfa challenge attempts exhausted")
			return failedWith(ReasonChallengeExpired, "Too many incorrect codes. Please sign in again.")
		}
		log.Info("mfa code rejected")
		return failed(ReasonInvalidMFACode)
	}

	if res, ok := o.closeChallenge(ctx, ch.ID); !ok {
		return res
	}
	o.grantClearance(t.UserID, now)
	log.Info("mfa code accepted")
	return succeeded()
}

// openChallenge checks the ticket's age locally and then that the challenge
// is still outstanding.
func (o *Orchestrator) openChallenge(ctx context.Context, t Ticket, now time.Time) (Challenge, Result, bool) {
	if now.Sub(t.IssuedAt()) > o.ticketTTL {
		return Challenge{}, failed(ReasonChallengeExpired), false
	}

	ch, err := o.challenges.GetChallenge(ctx, t.IssuedID)
	switch {
	case errors.Is(err, ErrNotFound):
		return Challenge{}, failed(ReasonChallengeExpired), false
	case err != nil:
		return Challenge{}, upstream(ctx, "get_challenge", err), false
	}
	if ch.UserID != t.UserID {
		return Challenge{}, failed(ReasonChallengeExpired), false
	}
	return ch, Result{}, true
}

// closeChallenge consumes a challenge. Only one caller can win.
func (o *Orchestrator) closeChallenge(ctx context.Context, id string) (Result, bool) {
	deleted, err := o.challenges.DeleteChallenge(ctx, id)
	switch {
	case err != nil:
		return upstream(ctx, "consume_challenge", err), false
	case !deleted:
		return failed(ReasonChallengeExpired), false
	}
	return Result{}, true
}

func (o *Orchestrator) grantClearance(userID string, now time.Time) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for id, exp := range o.clearances {
		if now.After(exp) {
			delete(o.clearances, id)
		}
	}
	o.clearances[userID] = now.Add(o.ticketTTL)
	if o.state == StateAwaitingMFAChallenge {
		o.state = StateAnonymous
	}
}

// takeClearance consumes a pending clearance for userID.
func (o *Orchestrator) takeClearance(userID string) bool {
	now := o.clock()
	o.mu.Lock()
	defer o.mu.Unlock()
	exp, ok := o.clearances[userID]
	if !ok {
		return false
	}
	delete(o.clearances, userID)
	return !now.After(exp)
}
