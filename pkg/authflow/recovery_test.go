package authflow

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVerifyRecoveryCode(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("first use succeeds, later uses fail", func(t *testing.T) {
		h := newHarness(t)
		id, _, codes := h.enrolled(t, "a@example.com", "hunter22")

		signIn := h.o.SignIn(ctx, "a@example.com", "hunter22")
		require.True(t, signIn.RequiresMFA)

		res := h.o.VerifyRecoveryCode(ctx, codes[0], signIn.Ticket)
		require.True(t, res.Success)
		remaining := h.records.snapshot(id.ID).RecoveryCodes
		require.NotContains(t, remaining, codes[0])
		require.Len(t, remaining, 9)

		again := h.o.SignIn(ctx, "a@example.com", "hunter22")
		require.True(t, again.Success, "recovery code grants clearance")

		for range 3 {
			res = h.o.VerifyRecoveryCode(ctx, codes[0], "")
			require.True(t, res.Is(ReasonInvalidRecoveryCode))
		}

		require.True(t, h.o.SignOut(ctx).Success)
		signIn = h.o.SignIn(ctx, "a@example.com", "hunter22")
		require.True(t, signIn.RequiresMFA)
		for range 3 {
			res = h.o.VerifyRecoveryCode(ctx, codes[0], signIn.Ticket)
			require.True(t, res.Is(ReasonInvalidRecoveryCode))
		}
		require.Len(t, h.records.snapshot(id.ID).RecoveryCodes, 9)
	})

	t.Run("accepts codes regardless of case and separator", func(t *testing.T) {
		h := newHarness(t)
		_, _, codes := h.enrolled(t, "a@example.com", "hunter22")
		signIn := h.o.SignIn(ctx, "a@example.com", "hunter22")
		require.True(t, signIn.RequiresMFA)

		typed := strings.ToUpper(strings.ReplaceAll(codes[1], "-", ""))
		res := h.o.VerifyRecoveryCode(ctx, typed, signIn.Ticket)
		require.True(t, res.Success)
	})

	t.Run("requires a ticket or a session", func(t *testing.T) {
		h := newHarness(t)
		res := h.o.VerifyRecoveryCode(ctx, "abcd-efgh", "")
		require.True(t, res.Is(ReasonNotAuthenticated))
	})

	t.Run("malformed code", func(t *testing.T) {
		h := newHarness(t)
		for _, code := range []string{"", "   ", "not/valid", "ab!cd"} {
			res := h.o.VerifyRecoveryCode(ctx, code, "")
			require.True(t, res.Is(ReasonMalformedInput), code)
		}
		require.True(t, h.o.VerifyRecoveryCode(ctx, "abcd-efgh", "bad-ticket").Is(ReasonMalformedInput))
		require.Zero(t, h.records.callCount())
	})

	t.Run("unrecorded failure is reported as upstream", func(t *testing.T) {
		h := newHarness(t)
		_, _, codes := h.enrolled(t, "a@example.com", "hunter22")
		h.o = New(Options{
			Credentials: h.creds,
			Records:     h.records,
			Profiles:    h.profiles,
			Challenges:  &brokenFailures{NewMemoryChallengeStore(h.clock.Now)},
			Issuer:      "Pocketbook",
			Now:         h.clock.Now,
		})

		signIn := h.o.SignIn(ctx, "a@example.com", "hunter22")
		require.True(t, signIn.RequiresMFA)

		res := h.o.VerifyRecoveryCode(ctx, "zzzz-zzzz", signIn.Ticket)
		require.True(t, res.Is(ReasonUpstreamUnavailable))

		res = h.o.VerifyRecoveryCode(ctx, codes[0], signIn.Ticket)
		require.True(t, res.Success, "the ticket is still open")
	})

	t.Run("exactly one concurrent caller wins", func(t *testing.T) {
		h := newHarness(t)
		id := h.signedIn(t, "a@example.com", "hunter22")
		setup := h.o.SetupMFA(ctx)
		require.True(t, setup.Success)
		code := setup.RecoveryCodes[3]

		const workers = 32
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
				res := h.o.VerifyRecoveryCode(ctx, code, "")
				if res.Success {
					wins.Add(1)
					return
				}
				if !res.Is(ReasonInvalidRecoveryCode) {
					t.Errorf("unexpected result %+v", res.Error)
				}
			}()
		}
		close(start)
		wg.Wait()

		require.Equal(t, int32(1), wins.Load())
		require.Len(t, h.records.snapshot(id.ID).RecoveryCodes, 9)
	})
}

func TestGetRecoveryCodes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	h := newHarness(t)
	require.True(t, h.o.GetRecoveryCodes(ctx).Is(ReasonNotAuthenticated))

	h.signedIn(t, "a@example.com", "hunter22")
	res := h.o.GetRecoveryCodes(ctx)
	require.True(t, res.Success)
	require.Empty(t, res.RecoveryCodes)

	setup := h.o.SetupMFA(ctx)
	require.True(t, h.o.VerifyRecoveryCode(ctx, setup.RecoveryCodes[0], "").Success)

	res = h.o.GetRecoveryCodes(ctx)
	require.Equal(t, setup.RecoveryCodes[1:], res.RecoveryCodes)
}

// brokenFailures cannot record failed attempts.
type brokenFailures struct {
	*MemoryChallengeStore
}

func (brokenFailures) RecordChallengeFailure(context.Context, string, int) (bool, error) {
	return false, errBackendDown
}
