package authflow

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/pocketbook/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestParseTicket(t *testing.T) {
	t.Parallel()

	user := idx.New().String()
	issued := idx.New().String()

	tests := []struct {
		name string
		in   string
		ok   bool
	}{
		{"valid", "mfa_" + user + "_" + issued, true},
		{"wrong prefix", "otp_" + user + "_" + issued, false},
		{"missing marker", "mfa_" + user, false},
		{"extra part", "mfa_" + user + "_" + issued + "_x", false},
		{"bad user id", "mfa_nope_" + issued, false},
		{"bad marker", "mfa_" + user + "_nope", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseTicket(tt.in)
			require.Equal(t, tt.ok, ok)
			if ok {
				require.Equal(t, user, got.UserID)
				require.Equal(t, issued, got.IssuedID)
				require.Equal(t, tt.in, got.String())
			}
		})
	}
}

func TestMalformedCodesNeverReachTheStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	h := newHarness(t)
	h.signedIn(t, "a@example.com", "hunter22")
	setup := h.o.SetupMFA(ctx)
	require.True(t, setup.Success)

	ticket := Ticket{UserID: h.o.Identity().ID, IssuedID: idx.NewAt(h.clock.Now()).String()}.String()
	credCalls, recCalls := h.creds.callCount(), h.records.callCount()

	for _, code := range []string{"12a45", "1234", "1234567", "", "12345 ", "１２３４５６"} {
		res := h.o.VerifyMFACode(ctx, code, ticket)
		require.True(t, res.Is(ReasonMalformedInput), "verify %q", code)

		done := h.o.CompleteMFASetup(ctx, code, setup.Secret)
		require.True(t, done.Is(ReasonMalformedInput), "complete %q", code)
	}

	res := h.o.VerifyMFACode(ctx, "123456", "not-a-ticket")
	require.True(t, res.Is(ReasonMalformedInput))

	require.Equal(t, credCalls, h.creds.callCount())
	require.Equal(t, recCalls, h.records.callCount())
}

func TestVerifyMFACode(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	challenge := func(t *testing.T) (*harness, string, string) {
		h := newHarness(t)
		_, secret, _ := h.enrolled(t, "a@example.com", "hunter22")
		res := h.o.SignIn(ctx, "a@example.com", "hunter22")
		require.True(t, res.RequiresMFA)
		return h, secret, res.Ticket
	}

	t.Run("valid code succeeds without issuing a session", func(t *testing.T) {
		h, secret, ticket := challenge(t)

		res := h.o.VerifyMFACode(ctx, codeAt(t, secret, h.clock.Now()), ticket)
		require.True(t, res.Success)
		require.Nil(t, h.o.Session())
		require.NotEqual(t, StateAuthenticated, h.o.State())
	})

	t.Run("ticket is single use", func(t *testing.T) {
		h, secret, ticket := challenge(t)
		code := codeAt(t, secret, h.clock.Now())

		require.True(t, h.o.VerifyMFACode(ctx, code, ticket).Success)
		res := h.o.VerifyMFACode(ctx, code, ticket)
		require.True(t, res.Is(ReasonChallengeExpired))
	})

	t.Run("ticket expires after its ttl", func(t *testing.T) {
		h, secret, ticket := challenge(t)
		h.clock.Advance(DefaultTicketTTL + time.Second)
		calls := h.records.callCount()

		res := h.o.VerifyMFACode(ctx, codeAt(t, secret, h.clock.Now()), ticket)
		require.True(t, res.Is(ReasonChallengeExpired))
		require.Equal(t, calls, h.records.callCount())
	})

	t.Run("unknown ticket", func(t *testing.T) {
		h, secret, ticket := challenge(t)
		parsed, _ := ParseTicket(ticket)
		forged := Ticket{UserID: parsed.UserID, IssuedID: idx.NewAt(h.clock.Now()).String()}.String()

		res := h.o.VerifyMFACode(ctx, codeAt(t, secret, h.clock.Now()), forged)
		require.True(t, res.Is(ReasonChallengeExpired))
	})

	t.Run("wrong code then lockout", func(t *testing.T) {
		h, secret, ticket := challenge(t)
		wrong := codeAt(t, secret, h.clock.Now().Add(-time.Hour))

		for i := 1; i < DefaultMaxAttempts; i++ {
			res := h.o.VerifyMFACode(ctx, wrong, ticket)
			require.True(t, res.Is(ReasonInvalidMFACode), "attempt %d", i)
		}
		res := h.o.VerifyMFACode(ctx, wrong, ticket)
		require.True(t, res.Is(ReasonChallengeExpired))

		res = h.o.VerifyMFACode(ctx, codeAt(t, secret, h.clock.Now()), ticket)
		require.True(t, res.Is(ReasonChallengeExpired))
	})

	t.Run("sign-in after verification completes", func(t *testing.T) {
		h, secret, ticket := challenge(t)
		require.True(t, h.o.VerifyMFACode(ctx, codeAt(t, secret, h.clock.Now()), ticket).Success)

		res := h.o.SignIn(ctx, "a@example.com", "hunter22")
		require.True(t, res.Success)
		require.Equal(t, StateAuthenticated, h.o.State())
		require.True(t, h.o.MFAStatus().Enabled)

		// Clearance is one-shot.
		require.True(t, h.o.SignOut(ctx).Success)
		res = h.o.SignIn(ctx, "a@example.com", "hunter22")
		require.True(t, res.RequiresMFA)
	})

	t.Run("clearance expires", func(t *testing.T) {
		h, secret, ticket := challenge(t)
		require.True(t, h.o.VerifyMFACode(ctx, codeAt(t, secret, h.clock.Now()), ticket).Success)
		h.clock.Advance(DefaultTicketTTL + time.Second)

		res := h.o.SignIn(ctx, "a@example.com", "hunter22")
		require.True(t, res.RequiresMFA)
	})
}

// The verification window is step aligned with one step of skew: a code
// generated at t is accepted at t±30s and rejected at t±60s.
func TestTOTPWindow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	cases := []struct {
		name   string
		offset time.Duration
		ok     bool
	}{
		{"same instant", 0, true},
		{"30s later", 30 * time.Second, true},
		{"30s earlier", -30 * time.Second, true},
		{"59s later", 59 * time.Second, true},
		{"60s later", 60 * time.Second, false},
		{"60s earlier", -60 * time.Second, false},
		{"31s earlier", -31 * time.Second, false},
	}

	for _, tc := range cases {
		t.Run("verify/"+tc.name, func(t *testing.T) {
			h := newHarness(t)
			_, secret, _ := h.enrolled(t, "a@example.com", "hunter22")
			generatedAt := h.clock.Now()
			code := codeAt(t, secret, generatedAt)

			h.clock.Set(generatedAt.Add(tc.offset))
			res := h.o.SignIn(ctx, "a@example.com", "hunter22")
			require.True(t, res.RequiresMFA)

			got := h.o.VerifyMFACode(ctx, code, res.Ticket)
			require.Equal(t, tc.ok, got.Success, "%+v", got.Error)
			if !tc.ok {
				require.True(t, got.Is(ReasonInvalidMFACode))
			}
		})

		t.Run("complete/"+tc.name, func(t *testing.T) {
			h := newHarness(t)
			h.signedIn(t, "a@example.com", "hunter22")
			setup := h.o.SetupMFA(ctx)
			generatedAt := h.clock.Now()
			code := codeAt(t, setup.Secret, generatedAt)

			h.clock.Set(generatedAt.Add(tc.offset))
			got := h.o.CompleteMFASetup(ctx, code, setup.Secret)
			require.Equal(t, tc.ok, got.Success, "%+v", got.Error)
		})
	}
}
