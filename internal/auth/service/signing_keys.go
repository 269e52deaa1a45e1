package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/pocketbook/internal/auth/domain"
	"github.com/aussiebroadwan/pocketbook/internal/auth/store"
	"github.com/aussiebroadwan/pocketbook/pkg/cryptox"
	"github.com/aussiebroadwan/pocketbook/pkg/jwtx"
	"github.com/aussiebroadwan/pocketbook/pkg/slogx"
)

// DefaultKeyGracePeriod is how long a retired key keeps verifying, long
// enough for every session it signed to expire.
const DefaultKeyGracePeriod = 2 * jwtx.DefaultSessionTTL

// SigningKeyService persists session signing keys, sealed with the master
// key, and keeps a KeyManager in step with the table.
//
// The newest unretired key signs. Retired keys verify until their expiry.
type SigningKeyService struct {
	Store       store.Store
	Sealer      *cryptox.Sealer
	Issuer      string
	GracePeriod time.Duration

	// Now defaults to time.Now.
	Now func() time.Time
}

func (s *SigningKeyService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *SigningKeyService) gracePeriod() time.Duration {
	if s.GracePeriod > 0 {
		return s.GracePeriod
	}
	return DefaultKeyGracePeriod
}

func keyAAD(kid string) []byte { return []byte("signing-key:" + kid) }

// Load builds a KeyManager from the stored keys, generating the first key
// when the table is empty.
func (s *SigningKeyService) Load(ctx context.Context) (*jwtx.KeyManager, error) {
	signers, err := s.signers(ctx)
	if err != nil {
		return nil, err
	}
	if len(signers) == 0 {
		if _, err := s.create(ctx, s.Store); err != nil {
			return nil, err
		}
		if signers, err = s.signers(ctx); err != nil {
			return nil, err
		}
	}
	return jwtx.NewKeyManager(s.Issuer, signers...)
}

// signers opens every key still verifying, signer first.
func (s *SigningKeyService) signers(ctx context.Context) ([]*jwtx.Signer, error) {
	keys, err := s.Store.SigningKeys().ListSigningKeys(ctx, s.now())
	if err != nil {
		return nil, err
	}

	var active *jwtx.Signer
	verifying := make([]*jwtx.Signer, 0, len(keys))
	for _, k := range keys {
		pemKey, err := s.Sealer.Open(k.PrivateKeySealed, keyAAD(k.Kid))
		if err != nil {
			return nil, fmt.Errorf("open signing key %s: %w", k.Kid, err)
		}
		signer, err := jwtx.NewSigner(k.Kid, pemKey)
		if err != nil {
			return nil, fmt.Errorf("parse signing key %s: %w", k.Kid, err)
		}
		if active == nil && k.RetiredAt == nil {
			active = signer
			continue
		}
		verifying = append(verifying, signer)
	}
	if active == nil {
		return verifying[:0], nil
	}
	return append([]*jwtx.Signer{active}, verifying...), nil
}

func (s *SigningKeyService) create(ctx context.Context, st store.Store) (domain.SigningKey, error) {
	signer, err := jwtx.GenerateSigner()
	if err != nil {
		return domain.SigningKey{}, err
	}
	sealed, err := s.Sealer.Seal(signer.PrivatePEM(), keyAAD(signer.KID()))
	if err != nil {
		return domain.SigningKey{}, err
	}
	key := domain.SigningKey{
		Kid:              signer.KID(),
		PrivateKeySealed: sealed,
		CreatedAt:        s.now(),
	}
	if err := st.SigningKeys().CreateSigningKey(ctx, key); err != nil {
		return domain.SigningKey{}, fmt.Errorf("create signing key: %w", err)
	}
	return key, nil
}

// Rotate stores a new signing key and retires the others, which keep
// verifying for the grace period. Running instances pick the key up on
// their next Sync.
func (s *SigningKeyService) Rotate(ctx context.Context) (domain.SigningKey, error) {
	now := s.now()
	expiresAt := now.Add(s.gracePeriod())

	var created domain.SigningKey
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		existing, err := tx.SigningKeys().ListSigningKeys(ctx, now)
		if err != nil {
			return err
		}
		for _, k := range existing {
			if k.RetiredAt != nil {
				continue
			}
			if err := tx.SigningKeys().RetireSigningKey(ctx, k.Kid, now, expiresAt); err != nil {
				return fmt.Errorf("retire signing key %s: %w", k.Kid, err)
			}
		}
		created, err = s.create(ctx, tx)
		return err
	})
	if err != nil {
		return domain.SigningKey{}, err
	}

	slogx.FromContext(ctx).Info("signing key rotated",
		slog.String("kid", created.Kid),
		slog.Time("previous_keys_expire_at", expiresAt),
	)
	return created, nil
}

// List returns the keys that still verify, newest first.
func (s *SigningKeyService) List(ctx context.Context) ([]domain.SigningKey, error) {
	return s.Store.SigningKeys().ListSigningKeys(ctx, s.now())
}

// Sync makes km match the table: the newest unretired key signs, keys still
// in their grace period verify, and everything else is dropped.
func (s *SigningKeyService) Sync(ctx context.Context, km *jwtx.KeyManager) error {
	signers, err := s.signers(ctx)
	if err != nil {
		return err
	}
	if len(signers) == 0 {
		return errors.New("no signing key available")
	}

	listed := make(map[string]struct{}, len(signers))
	for _, signer := range signers[1:] {
		km.KeySet.Add(signer.KID(), signer.Public())
		listed[signer.KID()] = struct{}{}
	}
	active := signers[0]
	listed[active.KID()] = struct{}{}
	if km.Signer().KID() != active.KID() {
		if err := km.Rotate(active); err != nil {
			return err
		}
		slogx.FromContext(ctx).Info("signing key activated", slog.String("kid", active.KID()))
	}

	for _, jwk := range km.KeySet.PublicJWKS().Keys {
		if _, ok := listed[jwk.Kid]; ok {
			continue
		}
		if err := km.Retire(jwk.Kid); err != nil {
			return err
		}
		slogx.FromContext(ctx).Info("signing key dropped", slog.String("kid", jwk.Kid))
	}
	return nil
}
