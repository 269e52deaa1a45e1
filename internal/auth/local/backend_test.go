package local_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/pocketbook/internal/auth/local"
	"github.com/aussiebroadwan/pocketbook/internal/auth/mail"
	"github.com/aussiebroadwan/pocketbook/internal/auth/service"
	"github.com/aussiebroadwan/pocketbook/internal/auth/store/storetest"
	"github.com/aussiebroadwan/pocketbook/pkg/authflow"
	"github.com/aussiebroadwan/pocketbook/pkg/cryptox"
	"github.com/aussiebroadwan/pocketbook/pkg/jwtx"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type env struct {
	backend *local.Backend
	mailer  *mail.Recorder
	clock   *clock
}

func newEnv(t *testing.T) *env {
	t.Helper()

	st := storetest.NewSQLite(t)
	c := &clock{now: storetest.Now()}
	mailer := &mail.Recorder{}

	sealer, err := cryptox.NewSealer([]byte("local backend key"))
	require.NoError(t, err)
	keys, err := jwtx.NewEphemeralKeyManager("pocketbook-auth-test")
	require.NoError(t, err)
	keys.Verifier.Now = c.Now

	return &env{
		backend: &local.Backend{
			Credentials: &service.CredentialService{
				Store:  st,
				Keys:   keys,
				Mailer: mailer,
				Links:  mail.Links{BaseURL: "https://pocketbook.test"},
				Issuer: "pocketbook-auth-test",
				Now:    c.Now,
			},
			Profiles:   &service.ProfileService{Store: st, Now: c.Now},
			MFA:        &service.MFARecordService{Store: st, Sealer: sealer, Now: c.Now},
			Challenges: &service.ChallengeService{Challenges: st.MFAChallenges(), Now: c.Now},
		},
		mailer: mailer,
		clock:  c,
	}
}

func (e *env) orchestrator() *authflow.Orchestrator {
	opts := e.backend.Options()
	opts.Now = e.clock.Now
	return authflow.New(opts)
}

// confirmed signs up email and follows the confirmation link.
func (e *env) confirmed(t *testing.T, o *authflow.Orchestrator, email, password string) {
	t.Helper()
	ctx := context.Background()

	res := o.SignUp(ctx, email, password, authflow.ProfileFields{DisplayName: "Owner"})
	require.True(t, res.Success, "%+v", res.Error)
	require.Nil(t, res.ProfileError)

	msg, ok := e.mailer.Last()
	require.True(t, ok)
	_, err := e.backend.Credentials.ConfirmEmail(ctx, mail.TokenFrom(msg))
	require.NoError(t, err)
}

func code(t *testing.T, secret string, at time.Time) string {
	t.Helper()
	c, err := totp.GenerateCodeCustom(secret, at, totp.ValidateOpts{
		Period:    30,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	require.NoError(t, err)
	return c
}

func TestLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	e := newEnv(t)
	o := e.orchestrator()

	signUp := o.SignUp(ctx, "Owner@Example.com", "correct horse battery", authflow.ProfileFields{Currency: "nzd"})
	require.True(t, signUp.Success)
	require.True(t, signUp.NeedsVerification)
	require.Equal(t, "owner@example.com", signUp.Identity.Email)

	profile, err := e.backend.Profiles.Get(ctx, signUp.Identity.ID)
	require.NoError(t, err)
	require.Equal(t, "NZD", profile.Currency)

	blocked := o.SignIn(ctx, "owner@example.com", "correct horse battery")
	require.True(t, blocked.Is(authflow.ReasonNeedsVerification))
	require.Equal(t, authflow.StateAwaitingEmailVerification, o.State())

	msg, ok := e.mailer.Last()
	require.True(t, ok)
	_, err = e.backend.Credentials.ConfirmEmail(ctx, mail.TokenFrom(msg))
	require.NoError(t, err)

	require.True(t, o.SignIn(ctx, "owner@example.com", "correct horse battery").Success)
	require.Equal(t, authflow.StateAuthenticated, o.State())

	setup := o.SetupMFA(ctx)
	require.True(t, setup.Success)
	done := o.CompleteMFASetup(ctx, code(t, setup.Secret, e.clock.Now()), setup.Secret)
	require.True(t, done.Success, "%+v", done.Error)
	require.Equal(t, setup.RecoveryCodes, done.RecoveryCodes)

	require.True(t, o.SignOut(ctx).Success)

	signIn := o.SignIn(ctx, "owner@example.com", "correct horse battery")
	require.True(t, signIn.RequiresMFA)

	verified := o.VerifyMFACode(ctx, code(t, setup.Secret, e.clock.Now()), signIn.Ticket)
	require.True(t, verified.Success, "%+v", verified.Error)
	require.True(t, o.VerifyMFACode(ctx, code(t, setup.Secret, e.clock.Now()), signIn.Ticket).Is(authflow.ReasonChallengeExpired))

	require.True(t, o.SignIn(ctx, "owner@example.com", "correct horse battery").Success)
	require.Equal(t, authflow.MFAStatus{Enabled: true, SetupCompleted: true}, o.MFAStatus())

	codes := o.GetRecoveryCodes(ctx)
	require.True(t, codes.Success)
	require.Equal(t, setup.RecoveryCodes, codes.RecoveryCodes)

	require.True(t, o.DisableMFA(ctx, "wrong password").Is(authflow.ReasonInvalidCredentials))
	require.True(t, o.DisableMFA(ctx, "correct horse battery").Success)
	require.False(t, o.MFAStatus().Enabled)
}

func TestSignUpFailures(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	e := newEnv(t)
	o := e.orchestrator()
	e.confirmed(t, o, "a@example.com", "hunter2222")

	require.True(t, o.SignUp(ctx, "A@example.com", "hunter2222", authflow.ProfileFields{}).Is(authflow.ReasonAlreadyRegistered))
	require.True(t, o.SignUp(ctx, "b@example.com", "short", authflow.ProfileFields{}).Is(authflow.ReasonMalformedInput))
	require.True(t, o.SignUp(ctx, "not an email", "hunter2222", authflow.ProfileFields{}).Is(authflow.ReasonMalformedInput))

	res := o.SignUp(ctx, "c@example.com", "hunter2222", authflow.ProfileFields{Currency: "dollars"})
	require.True(t, res.Success)
	require.NotNil(t, res.ProfileError)
}

func TestRestoreSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	e := newEnv(t)
	first := e.orchestrator()
	e.confirmed(t, first, "a@example.com", "hunter2222")
	require.True(t, first.SignIn(ctx, "a@example.com", "hunter2222").Success)
	token := first.Session().Token

	second := e.orchestrator()
	require.True(t, second.RestoreSession(ctx, token).Success)
	require.Equal(t, first.Identity().ID, second.Identity().ID)

	require.True(t, first.SignOut(ctx).Success)
	require.True(t, e.orchestrator().RestoreSession(ctx, token).Is(authflow.ReasonNotAuthenticated))
	require.True(t, e.orchestrator().RestoreSession(ctx, "garbage").Is(authflow.ReasonNotAuthenticated))
}

func TestChallengeLockout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	e := newEnv(t)
	o := e.orchestrator()
	e.confirmed(t, o, "a@example.com", "hunter2222")
	require.True(t, o.SignIn(ctx, "a@example.com", "hunter2222").Success)
	setup := o.SetupMFA(ctx)
	require.True(t, o.CompleteMFASetup(ctx, code(t, setup.Secret, e.clock.Now()), setup.Secret).Success)
	require.True(t, o.SignOut(ctx).Success)

	signIn := o.SignIn(ctx, "a@example.com", "hunter2222")
	require.True(t, signIn.RequiresMFA)

	wrong := code(t, setup.Secret, e.clock.Now().Add(-time.Hour))
	for i := 1; i < authflow.DefaultMaxAttempts; i++ {
		require.True(t, o.VerifyMFACode(ctx, wrong, signIn.Ticket).Is(authflow.ReasonInvalidMFACode), "attempt %d", i)
	}
	require.True(t, o.VerifyMFACode(ctx, wrong, signIn.Ticket).Is(authflow.ReasonChallengeExpired))
	require.True(t, o.VerifyMFACode(ctx, code(t, setup.Secret, e.clock.Now()), signIn.Ticket).Is(authflow.ReasonChallengeExpired))

	// A fresh ticket expires with the clock.
	signIn = o.SignIn(ctx, "a@example.com", "hunter2222")
	e.clock.Advance(authflow.DefaultTicketTTL + time.Second)
	require.True(t, o.VerifyMFACode(ctx, code(t, setup.Secret, e.clock.Now()), signIn.Ticket).Is(authflow.ReasonChallengeExpired))
}

func TestRecoveryCodeConsumedOnce(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	e := newEnv(t)
	o := e.orchestrator()
	e.confirmed(t, o, "a@example.com", "hunter2222")
	require.True(t, o.SignIn(ctx, "a@example.com", "hunter2222").Success)
	setup := o.SetupMFA(ctx)
	require.True(t, setup.Success)
	target := setup.RecoveryCodes[2]

	const workers = 16
	var (
		wg    sync.WaitGroup
		wins  atomic.Int32
		start = make(chan struct{})
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if o.VerifyRecoveryCode(ctx, target, "").Success {
				wins.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	require.Equal(t, int32(1), wins.Load())
	codes := o.GetRecoveryCodes(ctx)
	require.Len(t, codes.RecoveryCodes, 9)
	require.NotContains(t, codes.RecoveryCodes, target)
}

func TestRequestPasswordReset(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	e := newEnv(t)
	o := e.orchestrator()
	e.confirmed(t, o, "a@example.com", "hunter2222")
	sent := len(e.mailer.Sent())

	require.True(t, o.RequestPasswordReset(ctx, "nobody@example.com").Success)
	require.True(t, o.RequestPasswordReset(ctx, "not an email").Success)
	require.Len(t, e.mailer.Sent(), sent)

	require.True(t, o.RequestPasswordReset(ctx, "a@example.com").Success)
	msg, ok := e.mailer.Last()
	require.True(t, ok)
	require.NoError(t, e.backend.Credentials.ResetPassword(ctx, mail.TokenFrom(msg), "a brand new password"))

	require.True(t, o.SignIn(ctx, "a@example.com", "hunter2222").Is(authflow.ReasonInvalidCredentials))
	require.True(t, o.SignIn(ctx, "a@example.com", "a brand new password").Success)
}
