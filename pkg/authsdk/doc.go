/*
Package authsdk is the HTTP client for the Pocketbook authentication service.

# Overview

Client talks to the auth service's JSON API and implements the four
authflow ports (CredentialStore, ProfileStore, MFARecordStore and
ChallengeStore), so an authflow.Orchestrator can run in any process that can
reach the service:

	client := authsdk.NewClient("https://auth.example.com", apiKey)
	orch := authflow.New(client.Options())

	res := orch.SignIn(ctx, email, password)

The request and response types in this package are also the server's wire
types; the HTTP handlers encode exactly these structs.

# Authentication

Endpoints acting on the caller's own session (session lookup, sign-out,
re-authentication) send the session token as a bearer token. Profile, MFA
record and challenge endpoints are called with the service key in the
X-API-Key header, which the server accepts for any user.

# Errors

Every non-2xx response becomes an *APIError carrying the status and the
server's snake_case error code. APIError unwraps to the authflow sentinels,
so callers can test with errors.Is:

	_, err := client.GetMFARecord(ctx, userID)
	if errors.Is(err, authflow.ErrNotFound) {
		// no MFA record yet
	}

	var apiErr *authsdk.APIError
	if errors.As(err, &apiErr) && apiErr.Code == authsdk.ErrorCodeRateLimited {
		// back off
	}

Transport failures are returned as plain wrapped errors, which the
orchestrator reports as upstream_unavailable.
*/
package authsdk
