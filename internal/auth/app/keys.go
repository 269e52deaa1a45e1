package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/pocketbook/internal/auth/service"
	"github.com/aussiebroadwan/pocketbook/internal/auth/store"
	"github.com/aussiebroadwan/pocketbook/pkg/cryptox"
	"github.com/aussiebroadwan/pocketbook/pkg/jwtx"
)

// InitAuthKeys builds the session signing KeyManager.
//
// Storage modes:
//   - "persistent": keys are sealed with the master key and stored in the
//     database. Sessions survive restarts and keys can be rotated at runtime;
//     the returned SigningKeyService drives both.
//   - "ephemeral": one key is generated in memory on startup. Every session
//     is invalidated by a restart and the SigningKeyService is nil.
func InitAuthKeys(
	ctx context.Context,
	cfg Config,
	db store.Store,
	sealer *cryptox.Sealer,
	logger *slog.Logger,
) (*jwtx.KeyManager, *service.SigningKeyService, error) {
	switch cfg.KeyStorageMode {
	case KeysPersistent:
		keySvc := &service.SigningKeyService{
			Store:       db,
			Sealer:      sealer,
			Issuer:      cfg.Issuer,
			GracePeriod: cfg.KeyGracePeriod,
		}
		km, err := keySvc.Load(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load persistent signing keys: %w", err)
		}

		logger.Info("persistent signing keys loaded",
			"algorithm", jwtx.Algorithm,
			"kid", km.Signer().KID(),
			"verifying_keys", len(km.KeySet.PublicJWKS().Keys),
			"grace_period", cfg.KeyGracePeriod,
		)
		return km, keySvc, nil

	default:
		km, err := jwtx.NewEphemeralKeyManager(cfg.Issuer)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize ephemeral key manager: %w", err)
		}

		logger.Info("generated ephemeral signing key",
			"algorithm", jwtx.Algorithm,
			"kid", km.Signer().KID(),
		)
		logger.Warn("ephemeral keys: all sessions are invalidated on restart")
		return km, nil, nil
	}
}
