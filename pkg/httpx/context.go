package httpx

import "context"

type ctxKey string

const ctxKeyPrincipal ctxKey = "principal"

// Principal is who a request acts for: either a user session presented as a
// bearer token, or a trusted service holding the API key.
type Principal struct {
	UserID    string
	SessionID string
	Token     string
	Service   bool
}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKeyPrincipal, p)
}

// PrincipalFrom returns the authenticated principal, if any.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKeyPrincipal).(Principal)
	return p, ok
}

// UserIDFrom returns the session user, or "" for service callers and
// anonymous requests.
func UserIDFrom(ctx context.Context) string {
	p, _ := PrincipalFrom(ctx)
	return p.UserID
}
