package service

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/pocketbook/internal/auth/store"
	"github.com/aussiebroadwan/pocketbook/internal/auth/store/drivers/redis"
	"github.com/aussiebroadwan/pocketbook/internal/auth/store/storetest"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestChallengeService(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	backends := map[string]func(t *testing.T, f *fixture) store.MFAChallenges{
		"sqlite": func(t *testing.T, f *fixture) store.MFAChallenges {
			return f.store.MFAChallenges()
		},
		"redis": func(t *testing.T, f *fixture) store.MFAChallenges {
			mr := miniredis.RunT(t)
			rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
			t.Cleanup(func() { _ = rdb.Close() })
			return redis.NewChallengeStore(rdb, "")
		},
	}

	for name, backend := range backends {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			id := storetest.NewIdentity(t, f.store, "a@example.com")
			svc := &ChallengeService{Challenges: backend(t, f), Now: f.clock.Now}

			ch, err := svc.Save(ctx, "c1", id.ID, 0)
			require.NoError(t, err)
			require.Equal(t, f.clock.Now().Add(DefaultChallengeTTL), ch.ExpiresAt)

			_, err = svc.Save(ctx, "c1", id.ID, time.Minute)
			require.ErrorIs(t, err, store.ErrAlreadyExists)

			got, err := svc.Get(ctx, "c1")
			require.NoError(t, err)
			require.Equal(t, id.ID, got.UserID)

			for i := 1; i < 3; i++ {
				exceeded, err := svc.RecordFailure(ctx, "c1", 3)
				require.NoError(t, err)
				require.False(t, exceeded)
			}
			exceeded, err := svc.RecordFailure(ctx, "c1", 3)
			require.NoError(t, err)
			require.True(t, exceeded)

			_, err = svc.Get(ctx, "c1")
			require.ErrorIs(t, err, store.ErrNotFound, "exhausted challenges are deleted")

			_, err = svc.Save(ctx, "c2", id.ID, time.Minute)
			require.NoError(t, err)
			consumed, err := svc.Consume(ctx, "c2")
			require.NoError(t, err)
			require.True(t, consumed)
			consumed, err = svc.Consume(ctx, "c2")
			require.NoError(t, err)
			require.False(t, consumed)

			_, err = svc.Save(ctx, "c3", id.ID, time.Minute)
			require.NoError(t, err)
			f.clock.Advance(time.Minute)
			_, err = svc.Get(ctx, "c3")
			require.ErrorIs(t, err, store.ErrNotFound)
			_, err = svc.RecordFailure(ctx, "c3", 3)
			require.ErrorIs(t, err, store.ErrNotFound)
		})
	}
}
