package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/pocketbook/internal/auth/domain"
	"github.com/aussiebroadwan/pocketbook/internal/auth/store"
	"github.com/aussiebroadwan/pocketbook/pkg/slogx"
)

const (
	DefaultChallengeTTL      = 5 * time.Minute
	DefaultChallengeAttempts = 5
)

// ChallengeService tracks outstanding MFA challenges on either the SQL
// store or Redis.
type ChallengeService struct {
	Challenges store.MFAChallenges

	// Now defaults to time.Now.
	Now func() time.Time
}

func (s *ChallengeService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Save records a challenge that expires after ttl.
func (s *ChallengeService) Save(ctx context.Context, id, userID string, ttl time.Duration) (domain.MFAChallenge, error) {
	if ttl <= 0 {
		ttl = DefaultChallengeTTL
	}
	now := s.now()
	ch := domain.MFAChallenge{
		ID:        id,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := s.Challenges.CreateChallenge(ctx, ch); err != nil {
		return domain.MFAChallenge{}, err
	}
	return ch, nil
}

// Get returns an unexpired challenge or store.ErrNotFound.
func (s *ChallengeService) Get(ctx context.Context, id string) (domain.MFAChallenge, error) {
	return s.Challenges.GetChallenge(ctx, id, s.now())
}

// Consume deletes the challenge and reports whether this call removed it.
func (s *ChallengeService) Consume(ctx context.Context, id string) (bool, error) {
	return s.Challenges.DeleteChallenge(ctx, id)
}

// RecordFailure counts a failed attempt. Once maxAttempts is reached the
// challenge is deleted and exceeded is true.
func (s *ChallengeService) RecordFailure(ctx context.Context, id string, maxAttempts int) (exceeded bool, err error) {
	if maxAttempts <= 0 {
		maxAttempts = DefaultChallengeAttempts
	}

	attempts, err := s.Challenges.IncrementChallengeAttempts(ctx, id, s.now())
	if err != nil {
		return false, err
	}
	if attempts < maxAttempts {
		return false, nil
	}

	if _, err := s.Challenges.DeleteChallenge(ctx, id); err != nil && !errors.Is(err, store.ErrNotFound) {
		return true, err
	}
	slogx.FromContext(ctx).Warn("mfa challenge exhausted",
		slog.String("challenge_id", id),
		slog.Int("attempts", attempts),
	)
	return true, nil
}
