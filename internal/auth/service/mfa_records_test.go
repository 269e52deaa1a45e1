package service

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/aussiebroadwan/pocketbook/internal/auth/domain"
	"github.com/aussiebroadwan/pocketbook/internal/auth/store"
	"github.com/aussiebroadwan/pocketbook/internal/auth/store/storetest"
	"github.com/aussiebroadwan/pocketbook/pkg/cryptox"

	"github.com/stretchr/testify/require"
)

func newMFARecords(t *testing.T) (*fixture, *MFARecordService, domain.Identity) {
	t.Helper()
	f := newFixture(t)
	id := storetest.NewIdentity(t, f.store, "a@example.com")
	return f, &MFARecordService{Store: f.store, Sealer: f.sealer, Now: f.clock.Now}, id
}

func TestMFARecordService(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("round trip with sealing at rest", func(t *testing.T) {
		f, svc, id := newMFARecords(t)

		_, err := svc.Get(ctx, id.ID)
		require.ErrorIs(t, err, store.ErrNotFound)

		codes, err := cryptox.GenerateRecoveryCodes(cryptox.RecoveryCodeCount)
		require.NoError(t, err)

		rec := domain.MFARecord{UserID: id.ID, SecretKey: "JBSWY3DPEHPK3PXP", RecoveryCodes: codes}
		require.NoError(t, svc.Upsert(ctx, rec))

		got, err := svc.Get(ctx, id.ID)
		require.NoError(t, err)
		require.Equal(t, rec.SecretKey, got.SecretKey)
		require.Equal(t, codes, got.RecoveryCodes)
		require.False(t, got.Enabled)
		require.Equal(t, f.clock.Now(), got.CreatedAt)

		raw, err := f.store.MFARecords().GetMFARecord(ctx, id.ID)
		require.NoError(t, err)
		require.NotEqual(t, rec.SecretKey, raw.SecretKey)
		rawCodes, err := f.store.RecoveryCodes().ListRecoveryCodes(ctx, id.ID)
		require.NoError(t, err)
		for i, c := range rawCodes {
			require.NotContains(t, c.Sealed, codes[i])
		}
	})

	t.Run("sealed values are bound to their owner key", func(t *testing.T) {
		f, svc, id := newMFARecords(t)
		require.NoError(t, svc.Upsert(ctx, domain.MFARecord{UserID: id.ID, SecretKey: "JBSWY3DPEHPK3PXP"}))

		otherKey, err := cryptox.NewSealer([]byte("a different master key"))
		require.NoError(t, err)
		other := &MFARecordService{Store: f.store, Sealer: otherKey}
		_, err = other.Get(ctx, id.ID)
		require.ErrorIs(t, err, cryptox.ErrSealed)
	})

	t.Run("upsert replaces the code set", func(t *testing.T) {
		_, svc, id := newMFARecords(t)

		first, _ := cryptox.GenerateRecoveryCodes(3)
		second, _ := cryptox.GenerateRecoveryCodes(3)
		require.NoError(t, svc.Upsert(ctx, domain.MFARecord{UserID: id.ID, SecretKey: "AAAA", RecoveryCodes: first}))
		require.NoError(t, svc.Upsert(ctx, domain.MFARecord{UserID: id.ID, SecretKey: "BBBB", RecoveryCodes: second, Enabled: true}))

		got, err := svc.Get(ctx, id.ID)
		require.NoError(t, err)
		require.Equal(t, "BBBB", got.SecretKey)
		require.Equal(t, second, got.RecoveryCodes)
		require.True(t, got.Enabled)

		ok, err := svc.ConsumeRecoveryCode(ctx, id.ID, first[0])
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("invalid records", func(t *testing.T) {
		_, svc, id := newMFARecords(t)

		require.ErrorIs(t, svc.Upsert(ctx, domain.MFARecord{UserID: id.ID}), ErrInvalidMFARecord)
		require.ErrorIs(t, svc.Upsert(ctx, domain.MFARecord{SecretKey: "AAAA"}), ErrInvalidMFARecord)
		require.ErrorIs(t, svc.Upsert(ctx, domain.MFARecord{
			UserID: id.ID, SecretKey: "AAAA", RecoveryCodes: []string{"not/valid"},
		}), ErrInvalidMFARecord)
		require.ErrorIs(t, svc.Upsert(ctx, domain.MFARecord{
			UserID: id.ID, SecretKey: "AAAA", RecoveryCodes: []string{"abcd-efgh", "ABCDEFGH"},
		}), ErrInvalidMFARecord)
		require.ErrorIs(t, svc.Upsert(ctx, domain.MFARecord{UserID: "missing", SecretKey: "AAAA"}), store.ErrNotFound)
	})

	t.Run("partial update", func(t *testing.T) {
		_, svc, id := newMFARecords(t)
		yes, no := true, false

		require.ErrorIs(t, svc.Update(ctx, id.ID, domain.MFAPatch{Enabled: &yes}), store.ErrNotFound)

		require.NoError(t, svc.Upsert(ctx, domain.MFARecord{UserID: id.ID, SecretKey: "AAAA"}))
		require.NoError(t, svc.Update(ctx, id.ID, domain.MFAPatch{Enabled: &yes, SetupCompleted: &yes}))
		require.NoError(t, svc.Update(ctx, id.ID, domain.MFAPatch{Enabled: &no}))

		got, err := svc.Get(ctx, id.ID)
		require.NoError(t, err)
		require.False(t, got.Enabled)
		require.True(t, got.SetupCompleted)
		require.Equal(t, "AAAA", got.SecretKey)
	})

	t.Run("update guarded by the current secret", func(t *testing.T) {
		_, svc, id := newMFARecords(t)
		yes := true

		require.NoError(t, svc.Upsert(ctx, domain.MFARecord{UserID: id.ID, SecretKey: "AAAA"}))
		require.NoError(t, svc.Upsert(ctx, domain.MFARecord{UserID: id.ID, SecretKey: "BBBB"}))

		err := svc.Update(ctx, id.ID, domain.MFAPatch{Enabled: &yes, SetupCompleted: &yes, IfSecret: "AAAA"})
		require.ErrorIs(t, err, ErrMFASecretChanged)
		got, err := svc.Get(ctx, id.ID)
		require.NoError(t, err)
		require.False(t, got.Enabled)

		require.NoError(t, svc.Update(ctx, id.ID, domain.MFAPatch{Enabled: &yes, SetupCompleted: &yes, IfSecret: "bbbb"}))
		got, err = svc.Get(ctx, id.ID)
		require.NoError(t, err)
		require.True(t, got.Enabled)

		require.ErrorIs(t, svc.Update(ctx, "missing", domain.MFAPatch{Enabled: &yes, IfSecret: "AAAA"}), store.ErrNotFound)
	})

	t.Run("consume ignores case and separators", func(t *testing.T) {
		_, svc, id := newMFARecords(t)
		codes, _ := cryptox.GenerateRecoveryCodes(2)
		require.NoError(t, svc.Upsert(ctx, domain.MFARecord{UserID: id.ID, SecretKey: "AAAA", RecoveryCodes: codes}))

		typed := strings.ToUpper(strings.ReplaceAll(codes[1], "-", " "))
		ok, err := svc.ConsumeRecoveryCode(ctx, id.ID, typed)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = svc.ConsumeRecoveryCode(ctx, id.ID, "!!")
		require.NoError(t, err)
		require.False(t, ok)

		got, err := svc.Get(ctx, id.ID)
		require.NoError(t, err)
		require.Equal(t, codes[:1], got.RecoveryCodes)
	})

	t.Run("concurrent consumers", func(t *testing.T) {
		_, svc, id := newMFARecords(t)
		codes, _ := cryptox.GenerateRecoveryCodes(cryptox.RecoveryCodeCount)
		require.NoError(t, svc.Upsert(ctx, domain.MFARecord{UserID: id.ID, SecretKey: "AAAA", RecoveryCodes: codes}))

		const workers = 16
		var (
			wg    sync.WaitGroup
			wins  atomic.Int32
			start = make(chan struct{})
		)
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				ok, err := svc.ConsumeRecoveryCode(ctx, id.ID, codes[4])
				if err != nil {
					t.Errorf("consume: %v", err)
					return
				}
				if ok {
					wins.Add(1)
				}
			}()
		}
		close(start)
		wg.Wait()

		require.Equal(t, int32(1), wins.Load())
		got, err := svc.Get(ctx, id.ID)
		require.NoError(t, err)
		require.Len(t, got.RecoveryCodes, cryptox.RecoveryCodeCount-1)
		require.NotContains(t, got.RecoveryCodes, codes[4])
	})
}
