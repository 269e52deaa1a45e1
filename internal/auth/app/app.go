package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/pocketbook/internal/auth/http"
	"github.com/aussiebroadwan/pocketbook/internal/auth/local"
	"github.com/aussiebroadwan/pocketbook/internal/auth/mail"
	"github.com/aussiebroadwan/pocketbook/internal/auth/service"
	"github.com/aussiebroadwan/pocketbook/internal/auth/store"
	redisdrv "github.com/aussiebroadwan/pocketbook/internal/auth/store/drivers/redis"
	"github.com/aussiebroadwan/pocketbook/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/pocketbook/pkg/cryptox"
	"github.com/aussiebroadwan/pocketbook/pkg/httpx"
	"github.com/aussiebroadwan/pocketbook/pkg/jwtx"
	"github.com/aussiebroadwan/pocketbook/pkg/slogx"

	goredis "github.com/redis/go-redis/v9"
)

// BuildVersion is overridden at build time via ldflags.
var BuildVersion = "v0.1.0"

// Application encapsulates the auth service application with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db         *sqlite.Store
	sealer     *cryptox.Sealer
	keyManager *jwtx.KeyManager
	redis      goredis.UniversalClient // nil unless challenges live in Redis
	challenges store.MFAChallenges
	chPinger   httpapi.Pinger // set with Redis challenges, checked by /readyz
	mailer     mail.Mailer

	// Services
	credentialService   *service.CredentialService
	profileService      *service.ProfileService
	mfaRecordService    *service.MFARecordService
	challengeService    *service.ChallengeService
	signingKeyService   *service.SigningKeyService // Optional: only in persistent mode
	housekeepingService *service.HousekeepingService
	housekeepingRunning bool

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	logger := slogx.New(slogx.Config{
		Service: "auth-service",
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
	return NewWithLogger(context.Background(), cfg, logger)
}

// NewWithLogger is New with a caller supplied logger. The server is not
// started; an application used only for Backend is released with Shutdown.
func NewWithLogger(ctx context.Context, cfg Config, logger *slog.Logger) (*Application, error) {
	app := &Application{cfg: cfg, logger: logger}

	cryptox.SetPepperPath(app.cfg.PepperFile)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initSealer(); err != nil {
		_ = app.closeStores()
		return nil, err
	}

	keyManager, keySvc, err := InitAuthKeys(ctx, app.cfg, app.db, app.sealer, app.logger)
	if err != nil {
		_ = app.closeStores()
		return nil, fmt.Errorf("failed to initialize signing keys: %w", err)
	}
	app.keyManager = keyManager
	app.signingKeyService = keySvc

	if err := app.initChallenges(ctx); err != nil {
		_ = app.closeStores()
		return nil, err
	}

	if err := app.initMailer(); err != nil {
		_ = app.closeStores()
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()
	app.housekeepingRunning = true

	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = app.Shutdown()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Handler returns the HTTP handler with every route applied.
func (app *Application) Handler() http.Handler {
	return app.router
}

// Backend returns an in-process authflow backend sharing this
// application's services.
func (app *Application) Backend() *local.Backend {
	return &local.Backend{
		Credentials: app.credentialService,
		Profiles:    app.profileService,
		MFA:         app.mfaRecordService,
		Challenges:  app.challengeService,
	}
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if app.housekeepingRunning {
		app.housekeepingService.Stop()
		app.housekeepingRunning = false
	}

	if err := app.closeStores(); err != nil {
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

func (app *Application) closeStores() error {
	var errs []error
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis client", "error", err)
			errs = append(errs, err)
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database", "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// initDatabase opens the SQLite store and applies migrations
func (app *Application) initDatabase() error {
	db, err := OpenDatabase(app.cfg)
	if err != nil {
		return err
	}
	app.db = db

	app.logger.Info("database migrations applied successfully", "file", app.cfg.DatabaseFile)
	return nil
}

// OpenDatabase opens the configured SQLite database and brings its schema
// up to date.
func OpenDatabase(cfg Config) (*sqlite.Store, error) {
	db, err := sqlite.NewStore(cfg.DatabaseFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply database migrations: %w", err)
	}
	return db, nil
}

func (app *Application) initSealer() error {
	sealer, ephemeral, err := cryptox.LoadSealer(app.cfg.MasterKeyPath)
	if err != nil {
		return fmt.Errorf("failed to load master key: %w", err)
	}
	if ephemeral {
		app.logger.Warn("no master key configured: MFA secrets and signing keys sealed now cannot be opened after a restart",
			"env", cryptox.MasterKeyEnv,
		)
	}
	app.sealer = sealer
	return nil
}

// initChallenges picks the MFA challenge store. Redis lets several auth
// instances share outstanding tickets.
func (app *Application) initChallenges(ctx context.Context) error {
	if app.cfg.ChallengeStore != ChallengesRedis {
		app.challenges = app.db.MFAChallenges()
		return nil
	}

	opts, err := goredis.ParseURL(app.cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("invalid redis url: %w", err)
	}
	rdb := goredis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	rs := redisdrv.NewChallengeStore(rdb, app.cfg.RedisPrefix)
	app.redis = rdb
	app.challenges = rs
	app.chPinger = rs
	app.logger.Info("mfa challenges stored in redis", "addr", opts.Addr, "db", opts.DB)
	return nil
}

func (app *Application) initMailer() error {
	if app.cfg.SMTP.Host == "" {
		app.mailer = mail.LogMailer{}
		app.logger.Warn("no smtp host configured, account emails will be logged")
		return nil
	}

	m, err := mail.NewSMTPMailer(mail.SMTPConfig{
		Host:     app.cfg.SMTP.Host,
		Port:     app.cfg.SMTP.Port,
		Username: app.cfg.SMTP.Username,
		Password: app.cfg.SMTP.Password,
		From:     app.cfg.SMTP.From,
		FromName: app.cfg.SMTP.FromName,
		TLS:      app.cfg.SMTP.TLS,
	})
	if err != nil {
		return fmt.Errorf("failed to configure smtp: %w", err)
	}
	app.mailer = m
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.credentialService = &service.CredentialService{
		Store:       app.db,
		Keys:        app.keyManager,
		Mailer:      app.mailer,
		Links:       mail.Links{BaseURL: app.cfg.BaseURL},
		Issuer:      app.cfg.Issuer,
		SessionTTL:  app.cfg.SessionTTL,
		AutoConfirm: app.cfg.AutoConfirm,
	}
	app.profileService = &service.ProfileService{Store: app.db}
	app.mfaRecordService = &service.MFARecordService{Store: app.db, Sealer: app.sealer}
	app.challengeService = &service.ChallengeService{Challenges: app.challenges}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.challenges,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
	// Reloading keys lets a rotation done by another instance take effect here.
	app.housekeepingService.Keys = app.signingKeyService
	app.housekeepingService.KeyManager = app.keyManager
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	httpx.LoadRateLimitsFromEnv()

	if app.cfg.APIKey == "" {
		app.logger.Warn("no api key configured, service-only endpoints will reject every request")
	}

	router := httpapi.NewRouter(
		app.keyManager,
		app.cfg.APIKey,
		BuildVersion,
		app.db,
		app.logger,
	)

	router.CredentialService = app.credentialService
	router.ProfileService = app.profileService
	router.MFARecordService = app.mfaRecordService
	router.ChallengeService = app.challengeService
	router.SigningKeyService = app.signingKeyService // nil in ephemeral mode
	if app.chPinger != nil {
		router.ChallengePinger = app.chPinger
	}
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
