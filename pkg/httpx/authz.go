package httpx

import "net/http"

// RequireSelf lets service callers through, and session callers only when
// the path parameter param names their own user id.
func RequireSelf(param string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFrom(r.Context())
			switch {
			case !ok:
				writeBearerError(w, "authentication required")
			case p.Service, p.UserID != "" && p.UserID == r.PathValue(param):
				next.ServeHTTP(w, r)
			default:
				WriteError(w, http.StatusForbidden, "forbidden", "not allowed to act for this user")
			}
		})
	}
}

// CanActFor reports whether the request's principal may act for userID.
// Handlers whose target user comes from the body rather than the path use it.
func CanActFor(r *http.Request, userID string) bool {
	p, ok := PrincipalFrom(r.Context())
	return ok && (p.Service || (p.UserID != "" && p.UserID == userID))
}

// RequireService admits only callers authenticated with the service API key.
// Session callers are refused with 403.
func RequireService() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFrom(r.Context())
			switch {
			case !ok:
				writeBearerError(w, "authentication required")
			case p.Service:
				next.ServeHTTP(w, r)
			default:
				WriteError(w, http.StatusForbidden, "forbidden", "service credentials required")
			}
		})
	}
}
