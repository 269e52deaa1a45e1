package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/pocketbook/internal/auth/domain"
	"github.com/aussiebroadwan/pocketbook/internal/auth/service"
	"github.com/aussiebroadwan/pocketbook/pkg/authsdk"
	"github.com/aussiebroadwan/pocketbook/pkg/httpx"
)

// ChallengesHandler exposes the MFA challenge store to service callers.
type ChallengesHandler struct {
	Challenges *service.ChallengeService
}

func challengeResponse(ch domain.MFAChallenge) authsdk.ChallengeResponse {
	return authsdk.ChallengeResponse{
		ID:        ch.ID,
		UserID:    ch.UserID,
		Attempts:  ch.Attempts,
		ExpiresAt: ch.ExpiresAt,
	}
}

// HandleSave handles POST /v1/mfa/challenges
//
//	@Summary		Save a challenge
//	@Tags			Challenges
//	@Security		APIKeyAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.SaveChallengeRequest	true	"Challenge"
//	@Success		201		{object}	authsdk.ChallengeResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"invalid_request"
//	@Failure		409		{object}	authsdk.ErrorResponse	"already_exists"
//	@Router			/v1/mfa/challenges [post]
func (h *ChallengesHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	var req authsdk.SaveChallengeRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	if req.ID == "" || req.UserID == "" || req.TTLSeconds < 0 {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "id, user_id and a non-negative ttl_seconds are required")
		return
	}

	ch, err := h.Challenges.Save(r.Context(), req.ID, req.UserID, time.Duration(req.TTLSeconds)*time.Second)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, challengeResponse(ch))
}

// HandleGet handles GET /v1/mfa/challenges/{id}
//
//	@Summary		Get a challenge
//	@Tags			Challenges
//	@Security		APIKeyAuth
//	@Produce		json
//	@Param			id	path		string	true	"Challenge ID"
//	@Success		200	{object}	authsdk.ChallengeResponse
//	@Failure		404	{object}	authsdk.ErrorResponse	"unknown or expired"
//	@Router			/v1/mfa/challenges/{id} [get]
func (h *ChallengesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ch, err := h.Challenges.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, challengeResponse(ch))
}

// HandleDelete handles DELETE /v1/mfa/challenges/{id}
//
//	@Summary		Consume a challenge
//	@Description	Deletes the challenge. 404 means it was already consumed or never existed.
//	@Tags			Challenges
//	@Security		APIKeyAuth
//	@Param			id	path	string	true	"Challenge ID"
//	@Success		204
//	@Failure		404	{object}	authsdk.ErrorResponse	"not_found"
//	@Router			/v1/mfa/challenges/{id} [delete]
func (h *ChallengesHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.Challenges.Consume(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if !deleted {
		httpx.WriteError(w, http.StatusNotFound, "not_found", "challenge not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleFailure handles POST /v1/mfa/challenges/{id}/failures
//
//	@Summary		Record a failed attempt
//	@Description	Counts a failure. When max_attempts is reached the challenge is deleted and exceeded is true.
//	@Tags			Challenges
//	@Security		APIKeyAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string							true	"Challenge ID"
//	@Param			request	body		authsdk.ChallengeFailureRequest	true	"Attempt limit"
//	@Success		200		{object}	authsdk.ChallengeFailureResponse
//	@Failure		404		{object}	authsdk.ErrorResponse	"unknown or expired"
//	@Router			/v1/mfa/challenges/{id}/failures [post]
func (h *ChallengesHandler) HandleFailure(w http.ResponseWriter, r *http.Request) {
	var req authsdk.ChallengeFailureRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	exceeded, err := h.Challenges.RecordFailure(r.Context(), r.PathValue("id"), req.MaxAttempts)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.ChallengeFailureResponse{Exceeded: exceeded})
}
