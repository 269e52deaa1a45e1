package http

import (
	"net/http"

	"github.com/aussiebroadwan/pocketbook/pkg/authsdk"
	"github.com/aussiebroadwan/pocketbook/pkg/httpx"
	"github.com/aussiebroadwan/pocketbook/pkg/jwtx"
)

// JWKSHandler exposes the public keys that verify session tokens, so other
// services can check a session offline.
//
//	@Summary		Get JWKS
//	@Description	Returns the JSON Web Key Set used to verify session tokens.
//	@Tags			well-known
//	@Produce		json
//	@Success		200	{object}	authsdk.JWKSResponse	"The JSON Web Key Set"
//	@Router			/.well-known/jwks.json [get]
func JWKSHandler(keys *jwtx.KeyManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, authsdk.JWKSResponse(keys.KeySet.PublicJWKS()))
	}
}
