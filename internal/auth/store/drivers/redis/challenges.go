// Package redis keeps MFA challenges in Redis so several auth instances can
// share them. Everything else stays in the SQL store.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/pocketbook/internal/auth/domain"
	"github.com/aussiebroadwan/pocketbook/internal/auth/store"

	goredis "github.com/redis/go-redis/v9"
)

const (
	DefaultPrefix = "pocketbook:mfa"

	// Optimistic transaction retries before giving up on a contended key.
	maxRetries = 8
)

// ChallengeStore implements store.MFAChallenges.
type ChallengeStore struct {
	rdb    goredis.UniversalClient
	prefix string
}

var _ store.MFAChallenges = (*ChallengeStore)(nil)

func NewChallengeStore(rdb goredis.UniversalClient, prefix string) *ChallengeStore {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &ChallengeStore{rdb: rdb, prefix: prefix}
}

type challengeRecord struct {
	UserID    string `json:"user_id"`
	Attempts  int    `json:"attempts"`
	CreatedAt int64  `json:"created_at"`
	ExpiresAt int64  `json:"expires_at"`
}

// Ping checks the connection.
func (s *ChallengeStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *ChallengeStore) key(id string) string {
	return s.prefix + ":" + id
}

func (s *ChallengeStore) CreateChallenge(ctx context.Context, ch domain.MFAChallenge) error {
	data, err := json.Marshal(challengeRecord{
		UserID:    ch.UserID,
		Attempts:  ch.Attempts,
		CreatedAt: ch.CreatedAt.UnixMilli(),
		ExpiresAt: ch.ExpiresAt.UnixMilli(),
	})
	if err != nil {
		return err
	}

	// Redis expiry only reclaims memory; reads compare expires_at with the
	// caller's clock.
	ttl := max(time.Until(ch.ExpiresAt), time.Second)

	ok, err := s.rdb.SetNX(ctx, s.key(ch.ID), data, ttl).Result()
	if err != nil {
		return fmt.Errorf("redis: create challenge: %w", err)
	}
	if !ok {
		return store.ErrAlreadyExists
	}
	return nil
}

func (s *ChallengeStore) GetChallenge(ctx context.Context, id string, now time.Time) (domain.MFAChallenge, error) {
	data, err := s.rdb.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return domain.MFAChallenge{}, store.ErrNotFound
		}
		return domain.MFAChallenge{}, fmt.Errorf("redis: get challenge: %w", err)
	}

	rec, err := decode(data)
	if err != nil {
		return domain.MFAChallenge{}, err
	}
	if now.UnixMilli() >= rec.ExpiresAt {
		return domain.MFAChallenge{}, store.ErrNotFound
	}
	return rec.toDomain(id), nil
}

func (s *ChallengeStore) DeleteChallenge(ctx context.Context, id string) (bool, error) {
	n, err := s.rdb.Del(ctx, s.key(id)).Result()
	if err != nil {
		return false, fmt.Errorf("redis: delete challenge: %w", err)
	}
	return n > 0, nil
}

// IncrementChallengeAttempts uses WATCH/MULTI so concurrent failures are all
// counted.
func (s *ChallengeStore) IncrementChallengeAttempts(ctx context.Context, id string, now time.Time) (int, error) {
	key := s.key(id)

	for range maxRetries {
		var attempts int
		err := s.rdb.Watch(ctx, func(tx *goredis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				return err
			}
			rec, err := decode(data)
			if err != nil {
				return err
			}
			if now.UnixMilli() >= rec.ExpiresAt {
				return store.ErrNotFound
			}

			rec.Attempts++
			attempts = rec.Attempts
			updated, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
				pipe.SetArgs(ctx, key, updated, goredis.SetArgs{KeepTTL: true})
				return nil
			})
			return err
		}, key)

		switch {
		case errors.Is(err, goredis.TxFailedErr):
			continue
		case errors.Is(err, goredis.Nil), errors.Is(err, store.ErrNotFound):
			return 0, store.ErrNotFound
		case err != nil:
			return 0, fmt.Errorf("redis: increment challenge: %w", err)
		}
		return attempts, nil
	}
	return 0, fmt.Errorf("redis: increment challenge: too much contention on %s", id)
}

// DeleteExpiredChallenges is a no-op; keys carry their own TTL.
func (s *ChallengeStore) DeleteExpiredChallenges(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

func decode(data []byte) (challengeRecord, error) {
	var rec challengeRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return challengeRecord{}, fmt.Errorf("redis: decode challenge: %w", err)
	}
	return rec, nil
}

func (r challengeRecord) toDomain(id string) domain.MFAChallenge {
	return domain.MFAChallenge{
		ID:        id,
		UserID:    r.UserID,
		Attempts:  r.Attempts,
		CreatedAt: time.UnixMilli(r.CreatedAt).UTC(),
		ExpiresAt: time.UnixMilli(r.ExpiresAt).UTC(),
	}
}
