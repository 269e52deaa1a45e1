package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/pocketbook/pkg/cryptox"
	"github.com/aussiebroadwan/pocketbook/pkg/slogx"
)

// APIKeyHeader carries the service key.
const APIKeyHeader = "X-API-Key"

// SessionVerifier resolves a bearer token to a live session.
type SessionVerifier interface {
	VerifySession(ctx context.Context, token string) (userID, sessionID string, err error)
}

// RequireSession admits requests with a valid bearer session.
func RequireSession(v SessionVerifier) Middleware {
	return authenticate(v, "")
}

// RequireAPIKey admits requests carrying the service key.
func RequireAPIKey(key string) Middleware {
	return authenticate(nil, key)
}

// RequireSessionOrAPIKey admits either kind of caller. The API key wins when
// both are presented.
func RequireSessionOrAPIKey(v SessionVerifier, key string) Middleware {
	return authenticate(v, key)
}

func authenticate(v SessionVerifier, apiKey string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if presented := r.Header.Get(APIKeyHeader); presented != "" && apiKey != "" {
				if !cryptox.EqualSecrets(presented, apiKey) {
					slogx.FromContext(ctx).Warn("api key rejected")
					WriteError(w, http.StatusUnauthorized, "invalid_client", "invalid API key")
					return
				}
				next.ServeHTTP(w, r.WithContext(WithPrincipal(ctx, Principal{Service: true})))
				return
			}

			if v == nil {
				WriteError(w, http.StatusUnauthorized, "invalid_client", "API key required")
				return
			}

			token, ok := BearerToken(r)
			if !ok {
				writeBearerError(w, "missing bearer token")
				return
			}
			userID, sessionID, err := v.VerifySession(ctx, token)
			if err != nil {
				slogx.FromContext(ctx).Debug("session rejected", "err", err)
				writeBearerError(w, "session is invalid or expired")
				return
			}

			ctx = WithPrincipal(ctx, Principal{UserID: userID, SessionID: sessionID, Token: token})
			ctx = slogx.With(ctx, "user_id", userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from an Authorization header.
func BearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RFC 6750 error response for bearer auth.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	WriteError(w, http.StatusUnauthorized, "invalid_token", desc)
}
