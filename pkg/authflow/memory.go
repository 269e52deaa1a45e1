package authflow

import (
	"context"
	"sync"
	"time"
)

// MemoryChallengeStore is a ChallengeStore local to one process.
type MemoryChallengeStore struct {
	mu    sync.Mutex
	now   func() time.Time
	items map[string]Challenge
}

// NewMemoryChallengeStore returns an empty store. now may be nil.
func NewMemoryChallengeStore(now func() time.Time) *MemoryChallengeStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryChallengeStore{now: now, items: make(map[string]Challenge)}
}

func (s *MemoryChallengeStore) SaveChallenge(_ context.Context, ch Challenge, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	if ch.ExpiresAt.IsZero() {
		ch.ExpiresAt = s.now().Add(ttl)
	}
	s.items[ch.ID] = ch
	return nil
}

func (s *MemoryChallengeStore) GetChallenge(_ context.Context, id string) (Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.live(id)
	if !ok {
		return Challenge{}, ErrNotFound
	}
	return ch, nil
}

func (s *MemoryChallengeStore) DeleteChallenge(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.live(id)
	delete(s.items, id)
	return ok, nil
}

func (s *MemoryChallengeStore) RecordChallengeFailure(_ context.Context, id string, maxAttempts int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.live(id)
	if !ok {
		return false, ErrNotFound
	}
	ch.Attempts++
	if ch.Attempts >= maxAttempts {
		delete(s.items, id)
		return true, nil
	}
	s.items[id] = ch
	return false, nil
}

// live returns the challenge if it exists and has not expired. Callers hold mu.
func (s *MemoryChallengeStore) live(id string) (Challenge, bool) {
	ch, ok := s.items[id]
	if !ok {
		return Challenge{}, false
	}
	if s.now().After(ch.ExpiresAt) {
		delete(s.items, id)
		return Challenge{}, false
	}
	return ch, true
}

func (s *MemoryChallengeStore) sweep() {
	now := s.now()
	for id, ch := range s.items {
		if now.After(ch.ExpiresAt) {
			delete(s.items, id)
		}
	}
}
