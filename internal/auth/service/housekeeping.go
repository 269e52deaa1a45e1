package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/pocketbook/internal/auth/store"
	"github.com/aussiebroadwan/pocketbook/pkg/jwtx"
)

// HousekeepingService periodically deletes expired sessions, email tokens,
// MFA challenges and signing keys, and reloads the signing keys so a
// rotation done by another process takes effect.
type HousekeepingService struct {
	Store      store.Store
	Challenges store.MFAChallenges
	Keys       *SigningKeyService // nil with ephemeral keys
	KeyManager *jwtx.KeyManager
	Logger     *slog.Logger
	Interval   time.Duration

	// Now defaults to time.Now.
	Now func() time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a housekeeping service. A non-positive
// interval defaults to one hour.
func NewHousekeepingService(st store.Store, challenges store.MFAChallenges, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = time.Hour
	}
	if challenges == nil {
		challenges = st.MFAChallenges()
	}

	return &HousekeepingService{
		Store:      st,
		Challenges: challenges,
		Logger:     logger,
		Interval:   interval,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

// Start runs the cleanup loop in the background until Stop is called.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until any in-progress cleanup has finished.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.Cleanup(context.Background())

	for {
		select {
		case <-ticker.C:
			s.Cleanup(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// Cleanup runs one pass. Each step is independent; a failure is logged and
// the next step still runs. It returns the number of rows deleted.
func (s *HousekeepingService) Cleanup(ctx context.Context) int64 {
	now := time.Now().UTC()
	if s.Now != nil {
		now = s.Now().UTC()
	}

	steps := []struct {
		name string
		fn   func(context.Context, time.Time) (int64, error)
	}{
		{"sessions", s.Store.Sessions().DeleteExpiredSessions},
		{"email_tokens", s.Store.EmailTokens().DeleteExpiredEmailTokens},
		{"mfa_challenges", s.Challenges.DeleteExpiredChallenges},
		{"signing_keys", s.Store.SigningKeys().DeleteExpiredSigningKeys},
	}

	var total int64
	for _, step := range steps {
		n, err := step.fn(ctx, now)
		if err != nil {
			s.Logger.Error("housekeeping step failed", "step", step.name, "error", err)
			continue
		}
		if n > 0 {
			s.Logger.Debug("deleted expired rows", "step", step.name, "count", n)
		}
		total += n
	}

	if s.Keys != nil && s.KeyManager != nil {
		if err := s.Keys.Sync(ctx, s.KeyManager); err != nil {
			s.Logger.Error("failed to sync signing keys", "error", err)
		}
	}

	s.Logger.Info("housekeeping cleanup completed", "deleted", total)
	return total
}
