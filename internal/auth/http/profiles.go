package http

import (
	"net/http"

	"github.com/aussiebroadwan/pocketbook/internal/auth/service"
	"github.com/aussiebroadwan/pocketbook/pkg/authsdk"
	"github.com/aussiebroadwan/pocketbook/pkg/httpx"
)

// ProfilesHandler creates the profile row that accompanies a new identity.
type ProfilesHandler struct {
	Profiles *service.ProfileService
}

// HandleCreate handles POST /v1/profiles
//
//	@Summary		Create a profile
//	@Description	Creates the profile for user_id. Session callers may only create their own.
//	@Tags			Profiles
//	@Security		BearerAuth
//	@Security		APIKeyAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.CreateProfileRequest	true	"Profile fields"
//	@Success		201		{object}	authsdk.ProfileResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"invalid_request"
//	@Failure		403		{object}	authsdk.ErrorResponse	"forbidden"
//	@Failure		404		{object}	authsdk.ErrorResponse	"unknown user"
//	@Failure		409		{object}	authsdk.ErrorResponse	"profile already exists"
//	@Router			/v1/profiles [post]
func (h *ProfilesHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req authsdk.CreateProfileRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	if req.UserID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "user_id is required")
		return
	}
	if !httpx.CanActFor(r, req.UserID) {
		httpx.WriteError(w, http.StatusForbidden, "forbidden", "not allowed to act for this user")
		return
	}

	p, err := h.Profiles.Create(r.Context(), req.UserID, service.ProfileFields{
		DisplayName: req.DisplayName,
		Currency:    req.Currency,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, authsdk.ProfileResponse{
		ID:          p.ID,
		UserID:      p.UserID,
		DisplayName: p.DisplayName,
		Currency:    p.Currency,
		CreatedAt:   p.CreatedAt,
	})
}
