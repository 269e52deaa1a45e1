package http

import (
	"context"
	"net/http"
	"time"

	"github.com/aussiebroadwan/pocketbook/pkg/authsdk"
	"github.com/aussiebroadwan/pocketbook/pkg/httpx"
	"github.com/aussiebroadwan/pocketbook/pkg/jwtx"
)

// Pinger is anything whose connectivity readyz reports on.
type Pinger interface {
	Ping(ctx context.Context) error
}

// LivezHandler godoc
//
//	@Summary		Health Check Endpoint
//	@Description	Liveness probe endpoint returning basic service health status, uptime, and version information
//	@Description	This endpoint always returns 200 OK if the service is running
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version"
//	@Router			/livez [get]
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, health("ok", startTime, version, nil))
	}
}

// ReadyzHandler godoc
//
//	@Summary		Readiness Check Endpoint
//	@Description	Readiness probe endpoint returning service health status and checks for critical dependencies
//	@Description	Includes uptime, version, and status of the database, the signer and, when configured, the Redis challenge store
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	authsdk.HealthResponse	"status, uptime, version, checks - service not ready"
//	@Router			/readyz [get]
func ReadyzHandler(
	startTime time.Time,
	version string,
	db Pinger,
	challenges Pinger,
	keys *jwtx.KeyManager,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &authsdk.HealthChecks{
			Database: "ok",
			Signer:   "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK

		fail := func(field *string, msg string) {
			*field = "error: " + msg
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		if err := db.Ping(r.Context()); err != nil {
			fail(&checks.Database, err.Error())
		}
		if !keys.IsReady() {
			fail(&checks.Signer, "no keys loaded")
		}
		if challenges != nil {
			checks.Challenges = "ok"
			if err := challenges.Ping(r.Context()); err != nil {
				fail(&checks.Challenges, err.Error())
			}
		}

		httpx.WriteJSON(w, statusCode, health(overallStatus, startTime, version, checks))
	}
}

func health(status string, startTime time.Time, version string, checks *authsdk.HealthChecks) authsdk.HealthResponse {
	return authsdk.HealthResponse{
		Status:  status,
		Uptime:  time.Since(startTime).Round(time.Second).String(),
		Version: version,
		Checks:  checks,
	}
}
