//go:build e2e

package auth_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/aussiebroadwan/pocketbook/pkg/authflow"
	"github.com/aussiebroadwan/pocketbook/pkg/authsdk"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
 * Common constants and helper functions for auth service end-to-end tests.
 * This includes container setup, service operations, and assertions.
 */

const (
	testImageName = "pocketbook-auth-test:latest"

	apiKey       = "test-api-key-12345"
	testPassword = "correct horse battery"
)

// TestMain builds the Docker image once before all tests and removes it
// after they complete.
func TestMain(m *testing.M) {
	fmt.Fprintf(os.Stdout, "Building Auth Service Docker image...")

	if err := buildDockerImage(); err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to build Docker image: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done\n")

	exitCode := m.Run()

	fmt.Fprintf(os.Stdout, "Cleaning up Auth Service Docker image...")
	cleanupDockerImage()
	fmt.Fprintf(os.Stdout, " done\n")

	os.Exit(exitCode)
}

func buildDockerImage() error {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "build",
		"-t", testImageName,
		"-f", "../../../cmd/auth/Dockerfile",
		"../../../")
	cmd.Dir = "."
	cmd.Stdout = os.Stdout
	cmd.Stderr = nil

	return cmd.Run()
}

func cleanupDockerImage() {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "rmi", "-f", testImageName)
	_ = cmd.Run() // Ignore errors - image might not exist
}

// baseEnv is the container environment shared by every test.
func baseEnv() map[string]string {
	return map[string]string{
		"AUTH_API_KEY":       apiKey,
		"AUTH_DATABASE_FILE": "/data/auth.db",
		"AUTH_PEPPER_FILE":   "/data/pepper",
		"AUTH_ISSUER":        "pocketbook-auth",
		"AUTH_AUTO_CONFIRM":  "true",
		"AUTH_ENV":           "test",
		"AUTH_LOG_LEVEL":     "info",
		"AUTH_LOG_FORMAT":    "json",
	}
}

// relaxedLimits raises the rate limits so tests making many rapid requests
// do not trip them.
func relaxedLimits(env map[string]string) map[string]string {
	env["RATELIMIT_STRICT_REQUESTS"] = "1000"
	env["RATELIMIT_STRICT_WINDOW_SEC"] = "60"
	env["RATELIMIT_STRICT_BURST"] = "1000"
	env["RATELIMIT_MODERATE_REQUESTS"] = "1000"
	env["RATELIMIT_MODERATE_BURST"] = "1000"
	return env
}

// setupAuthContainer starts the auth service with relaxed rate limits and
// returns the base URL.
func setupAuthContainer(t *testing.T) (string, func()) {
	t.Helper()
	return startContainer(t, relaxedLimits(baseEnv()))
}

// setupAuthContainerWithDefaultRateLimits starts the auth service with the
// production rate limits, for tests that check rate limiting itself.
func setupAuthContainerWithDefaultRateLimits(t *testing.T) (string, func()) {
	t.Helper()
	return startContainer(t, baseEnv())
}

func startContainer(t *testing.T, env map[string]string) (string, func()) {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        testImageName,
		ExposedPorts: []string{"8080/tcp"},
		Env:          env,
		WaitingFor: wait.ForHTTP("/livez").
			WithPort("8080/tcp").
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	mappedPort, err := container.MappedPort(ctx, "8080")
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	baseURL := fmt.Sprintf("http://%s:%s", host, mappedPort.Port())

	cleanup := func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return baseURL, cleanup
}

// newOrchestrator binds a fresh orchestrator to the service at baseURL.
func newOrchestrator(baseURL string) (*authflow.Orchestrator, *authsdk.Client) {
	client := authsdk.NewClient(baseURL, apiKey)
	return authflow.New(client.Options()), client
}

// signedUp registers email and signs it in.
func signedUp(t *testing.T, o *authflow.Orchestrator, email string) {
	t.Helper()
	ctx := t.Context()

	res := o.SignUp(ctx, email, testPassword, authflow.ProfileFields{DisplayName: "E2E", Currency: "AUD"})
	require.True(t, res.Success, "sign-up failed: %+v", res.Error)
	require.Nil(t, res.ProfileError)

	in := o.SignIn(ctx, email, testPassword)
	require.True(t, in.Success, "sign-in failed: %+v", in.Error)
	require.Equal(t, authflow.StateAuthenticated, o.State())
}

// assertHealthy verifies a health check response is OK.
func assertHealthy(t *testing.T, health *authsdk.HealthResponse, err error) {
	t.Helper()
	require.NoError(t, err)
	require.NotNil(t, health)
	require.Equal(t, "ok", health.Status)
}

// assertStatus checks that err is an APIError with the given HTTP status.
func assertStatus(t *testing.T, err error, status int) {
	t.Helper()
	var apiErr *authsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, status, apiErr.StatusCode, "unexpected error: %v", err)
}

func hasStatus(err error, status int) bool {
	var apiErr *authsdk.APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}
