package http

import (
	"net/http"

	"github.com/aussiebroadwan/pocketbook/internal/auth/domain"
	"github.com/aussiebroadwan/pocketbook/internal/auth/service"
	"github.com/aussiebroadwan/pocketbook/pkg/authsdk"
	"github.com/aussiebroadwan/pocketbook/pkg/httpx"
	"github.com/aussiebroadwan/pocketbook/pkg/jwtx"
)

// KeysHandler rotates and lists persisted signing keys. It is only
// registered when keys are stored in the database.
type KeysHandler struct {
	SigningKeys *service.SigningKeyService
	KeyManager  *jwtx.KeyManager
}

func keyInfo(k domain.SigningKey) authsdk.SigningKeyInfo {
	return authsdk.SigningKeyInfo{
		Kid:       k.Kid,
		Algorithm: jwtx.Algorithm,
		CreatedAt: k.CreatedAt,
		RetiredAt: k.RetiredAt,
		ExpiresAt: k.ExpiresAt,
	}
}

// HandleRotate handles POST /v1/keys/rotate
//
//	@Summary		Rotate the signing key
//	@Description	Generates a new signing key. Previous keys stop signing and keep verifying for the grace period.
//	@Tags			Keys
//	@Security		APIKeyAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.RotateKeyResponse
//	@Failure		401	{object}	authsdk.ErrorResponse	"invalid_client"
//	@Failure		500	{object}	authsdk.ErrorResponse	"server_error"
//	@Router			/v1/keys/rotate [post]
func (h *KeysHandler) HandleRotate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	created, err := h.SigningKeys.Rotate(ctx)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	// Apply locally now rather than waiting for the next housekeeping tick.
	if err := h.SigningKeys.Sync(ctx, h.KeyManager); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.RotateKeyResponse{
		NewKey:     keyInfo(created),
		ActiveKeys: len(h.KeyManager.KeySet.PublicJWKS().Keys),
	})
}

// HandleList handles GET /v1/keys
//
//	@Summary		List signing keys
//	@Description	Lists the keys that still verify, newest first.
//	@Tags			Keys
//	@Security		APIKeyAuth
//	@Produce		json
//	@Success		200	{array}		authsdk.SigningKeyInfo
//	@Failure		401	{object}	authsdk.ErrorResponse	"invalid_client"
//	@Router			/v1/keys [get]
func (h *KeysHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	keys, err := h.SigningKeys.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]authsdk.SigningKeyInfo, 0, len(keys))
	for _, k := range keys {
		out = append(out, keyInfo(k))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}
