// Package authflow drives password sign-in, MFA enrollment and MFA challenges
// for a single application session. It talks to the backend exclusively
// through the CredentialStore, MFARecordStore, ProfileStore and ChallengeStore
// ports and reports every expected failure as a Result value.
package authflow

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/aussiebroadwan/pocketbook/pkg/slogx"
)

// State is the sign-in state of an Orchestrator.
type State int

const (
	StateAnonymous State = iota
	StateAuthenticating
	StateAwaitingEmailVerification
	StateAwaitingMFAChallenge
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticating:
		return "authenticating"
	case StateAwaitingEmailVerification:
		return "awaiting_email_verification"
	case StateAwaitingMFAChallenge:
		return "awaiting_mfa_challenge"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// SetupState tracks MFA enrollment within this Orchestrator.
type SetupState int

const (
	SetupIdle SetupState = iota
	SetupInProgress
	SetupComplete
)

func (s SetupState) String() string {
	switch s {
	case SetupIdle:
		return "idle"
	case SetupInProgress:
		return "in_progress"
	case SetupComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// MFAStatus is the cached view of the authenticated user's MFA record.
type MFAStatus struct {
	Enabled        bool `json:"enabled"`
	SetupCompleted bool `json:"setup_completed"`
}

const (
	DefaultIssuer      = "Pocketbook"
	DefaultTicketTTL   = 5 * time.Minute
	DefaultMaxAttempts = 5
)

// Options configures an Orchestrator. Credentials and Records are required.
type Options struct {
	Credentials CredentialStore
	Records     MFARecordStore

	// Profiles is optional; without it SignUp skips profile creation.
	Profiles ProfileStore

	// Challenges defaults to an in-process MemoryChallengeStore.
	Challenges ChallengeStore

	// Issuer is shown by authenticator apps next to the account name.
	Issuer      string
	TicketTTL   time.Duration
	MaxAttempts int

	// Now is the clock used for TOTP and ticket expiry.
	Now func() time.Time
}

// Orchestrator owns the session, identity and MFA status of one application
// session. Operations may be invoked concurrently; each one reads and writes
// the state cell under a lock but operations are not serialised against each
// other, so the last write wins.
type Orchestrator struct {
	credentials CredentialStore
	records     MFARecordStore
	profiles    ProfileStore
	challenges  ChallengeStore

	issuer      string
	ticketTTL   time.Duration
	maxAttempts int
	now         func() time.Time

	mu         sync.Mutex
	state      State
	setup      SetupState
	identity   *Identity
	session    *Session
	status     MFAStatus
	clearances map[string]time.Time
}

// New builds an Orchestrator in the Anonymous state.
func New(opts Options) *Orchestrator {
	o := &Orchestrator{
		credentials: opts.Credentials,
		records:     opts.Records,
		profiles:    opts.Profiles,
		challenges:  opts.Challenges,
		issuer:      opts.Issuer,
		ticketTTL:   opts.TicketTTL,
		maxAttempts: opts.MaxAttempts,
		now:         opts.Now,
		clearances:  make(map[string]time.Time),
	}
	if o.challenges == nil {
		o.challenges = NewMemoryChallengeStore(o.clock)
	}
	if o.issuer == "" {
		o.issuer = DefaultIssuer
	}
	if o.ticketTTL <= 0 {
		o.ticketTTL = DefaultTicketTTL
	}
	if o.maxAttempts <= 0 {
		o.maxAttempts = DefaultMaxAttempts
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o
}

// State returns the current sign-in state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// SetupState returns the MFA enrollment state.
func (o *Orchestrator) SetupState() SetupState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.setup
}

// Identity returns the signed in identity, or nil.
func (o *Orchestrator) Identity() *Identity {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.identity == nil {
		return nil
	}
	id := *o.identity
	return &id
}

// Session returns the live session, or nil.
func (o *Orchestrator) Session() *Session {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session == nil {
		return nil
	}
	s := *o.session
	return &s
}

// MFAStatus returns the cached MFA status of the signed in identity.
func (o *Orchestrator) MFAStatus() MFAStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

func (o *Orchestrator) clock() time.Time {
	if o.now == nil {
		return time.Now()
	}
	return o.now()
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

func (o *Orchestrator) authenticate(id Identity, s Session, status MFAStatus) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state = StateAuthenticated
	o.identity = &id
	o.session = &s
	o.status = status
}

func (o *Orchestrator) reset(s State) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state = s
	o.setup = SetupIdle
	o.identity = nil
	o.session = nil
	o.status = MFAStatus{}
}

// current returns copies of the identity and session when authenticated.
func (o *Orchestrator) current() (Identity, Session, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != StateAuthenticated || o.identity == nil || o.session == nil {
		return Identity{}, Session{}, false
	}
	return *o.identity, *o.session, true
}

func (o *Orchestrator) setStatus(rec MFARecord) {
	o.mu.Lock()
	o.status = MFAStatus{Enabled: rec.Enabled, SetupCompleted: rec.SetupCompleted}
	o.mu.Unlock()
}

// upstream logs err and converts it to an UpstreamUnavailable result.
func upstream(ctx context.Context, op string, err error) Result {
	slogx.FromContext(ctx).Error("auth backend call failed", "op", op, "err", err)
	return failed(ReasonUpstreamUnavailable)
}

// readStatus loads the MFA record for userID. A missing record is a disabled
// one.
func (o *Orchestrator) readStatus(ctx context.Context, userID string) (MFARecord, error) {
	rec, err := o.records.GetMFARecord(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return MFARecord{UserID: userID}, nil
	}
	return rec, err
}

// RefreshMFAStatus re-reads the MFA record of the signed in identity.
func (o *Orchestrator) RefreshMFAStatus(ctx context.Context) Result {
	id, _, ok := o.current()
	if !ok {
		return failed(ReasonNotAuthenticated)
	}
	rec, err := o.readStatus(ctx, id.ID)
	if err != nil {
		return upstream(ctx, "refresh_mfa_status", err)
	}
	o.setStatus(rec)
	return succeeded()
}
