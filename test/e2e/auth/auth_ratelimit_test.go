//go:build e2e

package auth_test

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/pocketbook/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// postSignIn sends a raw sign-in so the test can inspect the response.
func postSignIn(t *testing.T, baseURL, email, password string) *http.Response {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
	req, err := http.NewRequestWithContext(t.Context(), http.MethodPost, baseURL+"/v1/auth/signin", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

// TestRateLimitSignInEndpoint verifies that sign-in is strictly limited
// (5 req/min) per address and email.
func TestRateLimitSignInEndpoint(t *testing.T) {
	baseURL, cleanup := setupAuthContainerWithDefaultRateLimits(t)
	defer cleanup()

	client := authsdk.NewClient(baseURL, apiKey)
	ctx := t.Context()

	for i := range 5 {
		_, _, err := client.SignInWithPassword(ctx, "victim@example.com", "wrong password")
		assertStatus(t, err, http.StatusUnauthorized)
		t.Logf("request %d rejected as invalid credentials", i+1)
	}

	_, _, err := client.SignInWithPassword(ctx, "victim@example.com", "wrong password")
	assertStatus(t, err, http.StatusTooManyRequests)

	// The bucket is keyed on the email too, so another account is unaffected.
	_, _, err = client.SignInWithPassword(ctx, "other@example.com", "wrong password")
	assertStatus(t, err, http.StatusUnauthorized)
}

// TestRateLimitSignUpEndpoint verifies that sign-up is strictly limited per
// address.
func TestRateLimitSignUpEndpoint(t *testing.T) {
	baseURL, cleanup := setupAuthContainerWithDefaultRateLimits(t)
	defer cleanup()

	client := authsdk.NewClient(baseURL, apiKey)

	var lastErr error
	for i := range 6 {
		_, lastErr = client.SignUp(t.Context(), fmt.Sprintf("user%d@example.com", i), testPassword)
		if i < 5 {
			require.NoError(t, lastErr, "request %d should not be rate limited", i+1)
		}
	}
	assertStatus(t, lastErr, http.StatusTooManyRequests)
}

// TestRateLimitHeadersAndFormat verifies a limited response carries the
// rate limit headers and a JSON error body.
func TestRateLimitHeadersAndFormat(t *testing.T) {
	baseURL, cleanup := setupAuthContainerWithDefaultRateLimits(t)
	defer cleanup()

	for range 5 {
		resp := postSignIn(t, baseURL, "headers@example.com", "wrong password")
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}

	resp := postSignIn(t, baseURL, "headers@example.com", "wrong password")
	defer resp.Body.Close()

	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get("Retry-After"))
	require.Equal(t, "5", resp.Header.Get("X-RateLimit-Limit"))
	require.NotEmpty(t, resp.Header.Get("X-RateLimit-Window"))
	require.Contains(t, resp.Header.Get("Content-Type"), "application/json")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "rate_limit_exceeded")
}

// TestRateLimitRecoveryCodeEndpoint verifies recovery code guessing is
// limited per user, whatever the caller.
func TestRateLimitRecoveryCodeEndpoint(t *testing.T) {
	baseURL, cleanup := setupAuthContainerWithDefaultRateLimits(t)
	defer cleanup()

	client := authsdk.NewClient(baseURL, apiKey)
	ctx := t.Context()

	user, err := client.SignUp(ctx, "guess@example.com", testPassword)
	require.NoError(t, err)

	var lastErr error
	for i := range 6 {
		_, lastErr = client.ConsumeRecoveryCode(ctx, user.ID, "abcde-fghjk")
		if i < 5 {
			require.False(t, hasStatus(lastErr, http.StatusTooManyRequests), "request %d should not be rate limited", i+1)
		}
	}
	assertStatus(t, lastErr, http.StatusTooManyRequests)
}

// TestRateLimitPublicEndpoints verifies JWKS and health checks tolerate
// frequent polling.
func TestRateLimitPublicEndpoints(t *testing.T) {
	baseURL, cleanup := setupAuthContainerWithDefaultRateLimits(t)
	defer cleanup()

	client := authsdk.NewClient(baseURL, "")

	for i := range 50 {
		_, err := client.GetJWKS(t.Context())
		require.NoError(t, err, "JWKS request %d should not be rate limited", i+1)
	}
	for i := range 30 {
		health, err := client.GetLiveness(t.Context())
		require.NoError(t, err, "liveness request %d should not be rate limited", i+1)
		require.Equal(t, "ok", health.Status)

		_, err = client.GetReadiness(t.Context())
		require.NoError(t, err, "readiness request %d should not be rate limited", i+1)
	}
}

// TestRateLimitConcurrentRequests verifies the limiter under concurrent load.
func TestRateLimitConcurrentRequests(t *testing.T) {
	baseURL, cleanup := setupAuthContainerWithDefaultRateLimits(t)
	defer cleanup()

	httpClient := &http.Client{Timeout: 5 * time.Second}

	const numRequests = 20
	results := make(chan error, numRequests)

	for i := range numRequests {
		go func(reqNum int) {
			resp, err := httpClient.Get(baseURL + "/.well-known/jwks.json")
			if err != nil {
				results <- fmt.Errorf("request %d failed: %w", reqNum, err)
				return
			}
			defer resp.Body.Close()
			_, _ = io.Copy(io.Discard, resp.Body)

			if resp.StatusCode != http.StatusOK {
				results <- fmt.Errorf("request %d got status %d", reqNum, resp.StatusCode)
				return
			}
			results <- nil
		}(i)
	}

	successCount := 0
	for range numRequests {
		if err := <-results; err == nil {
			successCount++
		} else {
			t.Logf("Concurrent request error: %v", err)
		}
	}

	require.Equal(t, numRequests, successCount, "All concurrent JWKS requests should succeed")
}
