package authflow

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSetupMFA(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("requires authentication", func(t *testing.T) {
		h := newHarness(t)
		res := h.o.SetupMFA(ctx)
		require.True(t, res.Is(ReasonNotAuthenticated))
		require.Zero(t, h.records.callCount())
	})

	t.Run("issues secret, uri and ten distinct codes", func(t *testing.T) {
		h := newHarness(t)
		id := h.signedIn(t, "a@example.com", "hunter22")

		res := h.o.SetupMFA(ctx)
		require.True(t, res.Success)
		require.Len(t, res.Secret, 32) // 20 bytes, base32 without padding
		require.Len(t, res.RecoveryCodes, 10)

		seen := map[string]bool{}
		for _, c := range res.RecoveryCodes {
			require.Regexp(t, `^[2-9a-z]{4}-[2-9a-z]{4}$`, c)
			require.False(t, seen[c], "duplicate code %s", c)
			seen[c] = true
		}

		u, err := url.Parse(res.URI)
		require.NoError(t, err)
		require.Equal(t, "otpauth", u.Scheme)
		require.Equal(t, "totp", u.Host)
		require.Contains(t, u.Path, "a@example.com")
		q := u.Query()
		require.Equal(t, res.Secret, q.Get("secret"))
		require.Equal(t, "Pocketbook", q.Get("issuer"))
		require.Equal(t, "6", q.Get("digits"))
		require.Equal(t, "30", q.Get("period"))
		require.True(t, strings.EqualFold("SHA1", q.Get("algorithm")))

		rec := h.records.snapshot(id.ID)
		require.Equal(t, res.Secret, rec.SecretKey)
		require.False(t, rec.Enabled)
		require.False(t, rec.SetupCompleted)
		require.Equal(t, res.RecoveryCodes, rec.RecoveryCodes)
		require.Equal(t, SetupInProgress, h.o.SetupState())
	})

	t.Run("second setup invalidates the first secret", func(t *testing.T) {
		h := newHarness(t)
		id := h.signedIn(t, "a@example.com", "hunter22")

		first := h.o.SetupMFA(ctx)
		second := h.o.SetupMFA(ctx)
		require.NotEqual(t, first.Secret, second.Secret)
		require.NotEqual(t, first.RecoveryCodes, second.RecoveryCodes)

		res := h.o.CompleteMFASetup(ctx, codeAt(t, first.Secret, h.clock.Now()), first.Secret)
		require.True(t, res.Is(ReasonInvalidMFACode))
		require.False(t, h.records.snapshot(id.ID).Enabled)

		res = h.o.CompleteMFASetup(ctx, codeAt(t, second.Secret, h.clock.Now()), second.Secret)
		require.True(t, res.Success)
	})
}

func TestCompleteMFASetup(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("enables mfa and returns stored codes", func(t *testing.T) {
		h := newHarness(t)
		id := h.signedIn(t, "a@example.com", "hunter22")
		setup := h.o.SetupMFA(ctx)

		res := h.o.CompleteMFASetup(ctx, codeAt(t, setup.Secret, h.clock.Now()), setup.Secret)
		require.True(t, res.Success)
		require.Equal(t, setup.RecoveryCodes, res.RecoveryCodes)

		rec := h.records.snapshot(id.ID)
		require.True(t, rec.Enabled)
		require.True(t, rec.SetupCompleted)
		require.Equal(t, SetupComplete, h.o.SetupState())
		require.Equal(t, MFAStatus{Enabled: true, SetupCompleted: true}, h.o.MFAStatus())
	})

	t.Run("wrong code leaves the record unchanged", func(t *testing.T) {
		h := newHarness(t)
		id := h.signedIn(t, "a@example.com", "hunter22")
		setup := h.o.SetupMFA(ctx)
		before := h.records.snapshot(id.ID)

		wrong := codeAt(t, setup.Secret, h.clock.Now().Add(-10*time.Minute))
		res := h.o.CompleteMFASetup(ctx, wrong, setup.Secret)
		require.True(t, res.Is(ReasonInvalidMFACode))
		require.Equal(t, before, h.records.snapshot(id.ID))
		require.Equal(t, SetupInProgress, h.o.SetupState())
	})

	t.Run("setup restarted mid-confirmation is not enabled", func(t *testing.T) {
		h := newHarness(t)
		id := h.signedIn(t, "a@example.com", "hunter22")
		first := h.o.SetupMFA(ctx)

		var second SetupResult
		h.records.beforeUpdate = func() { second = h.o.SetupMFA(ctx) }

		res := h.o.CompleteMFASetup(ctx, codeAt(t, first.Secret, h.clock.Now()), first.Secret)
		require.True(t, res.Is(ReasonInvalidMFACode))
		require.Empty(t, res.RecoveryCodes)

		rec := h.records.snapshot(id.ID)
		require.Equal(t, second.Secret, rec.SecretKey)
		require.False(t, rec.Enabled)
		require.False(t, rec.SetupCompleted)

		res = h.o.CompleteMFASetup(ctx, codeAt(t, second.Secret, h.clock.Now()), second.Secret)
		require.True(t, res.Success)
		require.Equal(t, second.RecoveryCodes, res.RecoveryCodes)
	})

	t.Run("without prior setup", func(t *testing.T) {
		h := newHarness(t)
		h.signedIn(t, "a@example.com", "hunter22")

		res := h.o.CompleteMFASetup(ctx, "123456", "JBSWY3DPEHPK3PXP")
		require.True(t, res.Is(ReasonInvalidMFACode))
	})

	t.Run("requires authentication", func(t *testing.T) {
		h := newHarness(t)
		res := h.o.CompleteMFASetup(ctx, "123456", "JBSWY3DPEHPK3PXP")
		require.True(t, res.Is(ReasonNotAuthenticated))
	})
}

func TestDisableMFA(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("keeps secret and recovery codes", func(t *testing.T) {
		h := newHarness(t)
		id := h.signedIn(t, "a@example.com", "hunter22")
		setup := h.o.SetupMFA(ctx)
		done := h.o.CompleteMFASetup(ctx, codeAt(t, setup.Secret, h.clock.Now()), setup.Secret)
		require.True(t, done.Success)

		res := h.o.DisableMFA(ctx, "hunter22")
		require.True(t, res.Success)

		rec := h.records.snapshot(id.ID)
		require.False(t, rec.Enabled)
		require.True(t, rec.SetupCompleted)
		require.Equal(t, setup.Secret, rec.SecretKey)
		require.False(t, h.o.MFAStatus().Enabled)

		codes := h.o.GetRecoveryCodes(ctx)
		require.True(t, codes.Success)
		require.Equal(t, done.RecoveryCodes, codes.RecoveryCodes)
	})

	t.Run("wrong password leaves record untouched", func(t *testing.T) {
		h := newHarness(t)
		id := h.signedIn(t, "a@example.com", "hunter22")
		setup := h.o.SetupMFA(ctx)
		require.True(t, h.o.CompleteMFASetup(ctx, codeAt(t, setup.Secret, h.clock.Now()), setup.Secret).Success)

		res := h.o.DisableMFA(ctx, "not it")
		require.True(t, res.Is(ReasonInvalidCredentials))
		require.True(t, h.records.snapshot(id.ID).Enabled)
	})

	t.Run("malformed and unauthenticated", func(t *testing.T) {
		h := newHarness(t)
		require.True(t, h.o.DisableMFA(ctx, "pw").Is(ReasonNotAuthenticated))

		h.signedIn(t, "a@example.com", "hunter22")
		require.True(t, h.o.DisableMFA(ctx, "").Is(ReasonMalformedInput))
	})

	t.Run("after disable sign-in no longer asks for mfa", func(t *testing.T) {
		h := newHarness(t)
		h.signedIn(t, "a@example.com", "hunter22")
		setup := h.o.SetupMFA(ctx)
		require.True(t, h.o.CompleteMFASetup(ctx, codeAt(t, setup.Secret, h.clock.Now()), setup.Secret).Success)
		require.True(t, h.o.DisableMFA(ctx, "hunter22").Success)
		require.True(t, h.o.SignOut(ctx).Success)

		res := h.o.SignIn(ctx, "a@example.com", "hunter22")
		require.True(t, res.Success)
	})
}
