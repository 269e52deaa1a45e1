package http

//go:generate swag init --generalInfo router.go --dir .,../../../pkg/authsdk,../../../pkg/jwtx --output ../../../api/auth --outputTypes go --packageName auth

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/pocketbook/internal/auth/service"
	"github.com/aussiebroadwan/pocketbook/pkg/httpx"
	"github.com/aussiebroadwan/pocketbook/pkg/jwtx"
	"github.com/aussiebroadwan/pocketbook/pkg/slogx"

	_ "github.com/aussiebroadwan/pocketbook/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeyManager
	apiKey       string
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	db Pinger

	CredentialService *service.CredentialService
	ProfileService    *service.ProfileService
	MFARecordService  *service.MFARecordService
	ChallengeService  *service.ChallengeService
	SigningKeyService *service.SigningKeyService // Optional: only available in persistent mode

	// ChallengePinger is checked by /readyz when challenges live outside
	// the database.
	ChallengePinger Pinger
}

func NewRouter(
	keys *jwtx.KeyManager,
	apiKey, buildVersion string,
	db Pinger,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		apiKey:       apiKey,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		db:           db,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerUsers()
	r.registerProfiles()
	r.registerMFA()
	r.registerChallenges()
	r.registerKeys()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Pocketbook Authentication Service API
//	@version		0.1.0
//	@description	Credentials, sessions, MFA records and MFA challenges for Pocketbook.
//	@description
//	@description				Session tokens are EdDSA-signed JWTs backed by a revocable session row; the public keys are published at /.well-known/jwks.json.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/pocketbook
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Session token. Format: "Bearer {token}".
//
//	@securityDefinitions.apikey	APIKeyAuth
//	@in							header
//	@name						X-API-Key
//	@description				Service key shared with trusted backends.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &CredentialsHandler{Credentials: r.CredentialService}
	session := httpx.RequireSession(r.CredentialService)

	// Password endpoints: strict, and sign-in is bucketed per address too so
	// one IP cannot spray many accounts.
	r.Mux.Handle("POST /v1/auth/signup",
		httpx.ChainFunc(h.HandleSignUp, httpx.RateLimitByIP(httpx.StrictLimit)),
	)
	r.Mux.Handle("POST /v1/auth/signin",
		httpx.ChainFunc(h.HandleSignIn, httpx.RateLimitByIPAndJSONField(httpx.StrictLimit, "email")),
	)
	r.Mux.Handle("POST /v1/auth/reauthenticate",
		httpx.ChainFunc(h.HandleReauthenticate, session, httpx.RateLimitByUser(httpx.StrictLimit)),
	)
	r.Mux.Handle("POST /v1/auth/password-reset",
		httpx.ChainFunc(h.HandlePasswordReset, httpx.RateLimitByIP(httpx.StrictLimit)),
	)
	r.Mux.Handle("POST /v1/auth/password-reset/confirm",
		httpx.ChainFunc(h.HandlePasswordResetConfirm, httpx.RateLimitByIP(httpx.StrictLimit)),
	)

	// Token-bearing links
	r.Mux.Handle("POST /v1/auth/verify-email",
		httpx.ChainFunc(h.HandleVerifyEmail, httpx.RateLimitByIP(httpx.ModerateLimit)),
	)

	// Session reads and sign-out
	r.Mux.Handle("POST /v1/auth/signout",
		httpx.ChainFunc(h.HandleSignOut, session, httpx.RateLimitByUser(httpx.ModerateLimit)),
	)
	r.Mux.Handle("GET /v1/auth/session",
		httpx.ChainFunc(h.HandleSession, session, httpx.RateLimitByUser(httpx.LenientLimit)),
	)
}

func (r *Router) registerUsers() {
	h := &CredentialsHandler{Credentials: r.CredentialService}

	r.Mux.Handle("GET /v1/users/{id}",
		httpx.ChainFunc(h.HandleGetUser,
			httpx.RequireAPIKey(r.apiKey),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerProfiles() {
	h := &ProfilesHandler{Profiles: r.ProfileService}

	// Ownership of the body's user_id is checked in the handler.
	r.Mux.Handle("POST /v1/profiles",
		httpx.ChainFunc(h.HandleCreate,
			httpx.RequireSessionOrAPIKey(r.CredentialService, r.apiKey),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerMFA() {
	h := &MFARecordsHandler{MFA: r.MFARecordService}
	self := func(hf http.HandlerFunc, limit httpx.RateLimitConfig) http.Handler {
		return httpx.ChainFunc(hf,
			httpx.RequireSessionOrAPIKey(r.CredentialService, r.apiKey),
			httpx.RequireSelf("userID"),
			httpx.RateLimitByUser(limit),
		)
	}

	// Writes skip the password and TOTP checks the orchestrator performs, so
	// a session alone may not make them.
	serviceOnly := func(hf http.HandlerFunc) http.Handler {
		return httpx.ChainFunc(hf,
			httpx.RequireSessionOrAPIKey(r.CredentialService, r.apiKey),
			httpx.RequireService(),
			httpx.RateLimitMiddleware(httpx.ModerateLimit, httpx.PathValueKeyExtractor("userID")),
		)
	}

	r.Mux.Handle("GET /v1/mfa/records/{userID}", self(h.HandleGet, httpx.LenientLimit))
	r.Mux.Handle("PUT /v1/mfa/records/{userID}", serviceOnly(h.HandlePut))
	r.Mux.Handle("PATCH /v1/mfa/records/{userID}", serviceOnly(h.HandlePatch))

	// Recovery codes are guessable secrets: strict, keyed on the target user
	// so a service caller cannot be used to sidestep the limit.
	r.Mux.Handle("POST /v1/mfa/records/{userID}/recovery-codes/consume",
		httpx.ChainFunc(h.HandleConsumeRecoveryCode,
			httpx.RequireSessionOrAPIKey(r.CredentialService, r.apiKey),
			httpx.RequireSelf("userID"),
			httpx.RateLimitMiddleware(httpx.StrictLimit, httpx.PathValueKeyExtractor("userID")),
		),
	)
}

func (r *Router) registerChallenges() {
	h := &ChallengesHandler{Challenges: r.ChallengeService}
	serviceOnly := func(hf http.HandlerFunc) http.Handler {
		return httpx.ChainFunc(hf,
			httpx.RequireAPIKey(r.apiKey),
			httpx.RateLimitByIP(httpx.LenientLimit),
		)
	}

	r.Mux.Handle("POST /v1/mfa/challenges", serviceOnly(h.HandleSave))
	r.Mux.Handle("GET /v1/mfa/challenges/{id}", serviceOnly(h.HandleGet))
	r.Mux.Handle("DELETE /v1/mfa/challenges/{id}", serviceOnly(h.HandleDelete))
	r.Mux.Handle("POST /v1/mfa/challenges/{id}/failures", serviceOnly(h.HandleFailure))
}

func (r *Router) registerKeys() {
	r.Mux.Handle("GET /.well-known/jwks.json",
		httpx.Chain(JWKSHandler(r.keys),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	if r.SigningKeyService == nil {
		return
	}
	h := &KeysHandler{SigningKeys: r.SigningKeyService, KeyManager: r.keys}
	r.Mux.Handle("POST /v1/keys/rotate",
		httpx.ChainFunc(h.HandleRotate,
			httpx.RequireAPIKey(r.apiKey),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("GET /v1/keys",
		httpx.ChainFunc(h.HandleList,
			httpx.RequireAPIKey(r.apiKey),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.db, r.ChallengePinger, r.keys),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
