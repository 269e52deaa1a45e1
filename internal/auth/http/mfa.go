package http

import (
	"net/http"

	"github.com/aussiebroadwan/pocketbook/internal/auth/domain"
	"github.com/aussiebroadwan/pocketbook/internal/auth/service"
	"github.com/aussiebroadwan/pocketbook/pkg/authsdk"
	"github.com/aussiebroadwan/pocketbook/pkg/httpx"
)

// MFARecordsHandler serves a user's MFA record and recovery codes. Routes
// are guarded by httpx.RequireSelf("userID").
type MFARecordsHandler struct {
	MFA *service.MFARecordService
}

// HandleGet handles GET /v1/mfa/records/{userID}
//
//	@Summary		Get an MFA record
//	@Description	Returns the record with its TOTP secret and the recovery codes not yet consumed.
//	@Tags			MFA
//	@Security		BearerAuth
//	@Security		APIKeyAuth
//	@Produce		json
//	@Param			userID	path		string	true	"User ID"
//	@Success		200		{object}	authsdk.MFARecord
//	@Failure		403		{object}	authsdk.ErrorResponse	"forbidden"
//	@Failure		404		{object}	authsdk.ErrorResponse	"no record"
//	@Router			/v1/mfa/records/{userID} [get]
func (h *MFARecordsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := h.MFA.Get(r.Context(), r.PathValue("userID"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	codes := rec.RecoveryCodes
	if codes == nil {
		codes = []string{}
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.MFARecord{
		UserID:         rec.UserID,
		Secret:         rec.SecretKey,
		Enabled:        rec.Enabled,
		SetupCompleted: rec.SetupCompleted,
		RecoveryCodes:  codes,
		CreatedAt:      rec.CreatedAt,
		UpdatedAt:      rec.UpdatedAt,
	})
}

// HandlePut handles PUT /v1/mfa/records/{userID}
//
//	@Summary		Replace an MFA record
//	@Description	Creates or replaces the record and its whole recovery code set atomically.
//	@Tags			MFA
//	@Security		APIKeyAuth
//	@Accept			json
//	@Param			userID	path	string				true	"User ID"
//	@Param			request	body	authsdk.MFARecord	true	"Record"
//	@Success		204
//	@Failure		400	{object}	authsdk.ErrorResponse	"invalid_request"
//	@Failure		403	{object}	authsdk.ErrorResponse	"forbidden"
//	@Failure		404	{object}	authsdk.ErrorResponse	"unknown user"
//	@Router			/v1/mfa/records/{userID} [put]
func (h *MFARecordsHandler) HandlePut(w http.ResponseWriter, r *http.Request) {
	var req authsdk.MFARecord
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	userID := r.PathValue("userID")
	if req.UserID != "" && req.UserID != userID {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "user_id does not match the path")
		return
	}

	err := h.MFA.Upsert(r.Context(), domain.MFARecord{
		UserID:         userID,
		SecretKey:      req.Secret,
		Enabled:        req.Enabled,
		SetupCompleted: req.SetupCompleted,
		RecoveryCodes:  req.RecoveryCodes,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandlePatch handles PATCH /v1/mfa/records/{userID}
//
//	@Summary		Update MFA flags
//	@Tags			MFA
//	@Security		APIKeyAuth
//	@Accept			json
//	@Param			userID	path	string					true	"User ID"
//	@Param			request	body	authsdk.MFAPatchRequest	true	"Fields to change"
//	@Success		204
//	@Failure		403	{object}	authsdk.ErrorResponse	"forbidden"
//	@Failure		404	{object}	authsdk.ErrorResponse	"no record"
//	@Failure		409	{object}	authsdk.ErrorResponse	"mfa_secret_changed"
//	@Router			/v1/mfa/records/{userID} [patch]
func (h *MFARecordsHandler) HandlePatch(w http.ResponseWriter, r *http.Request) {
	var req authsdk.MFAPatchRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	err := h.MFA.Update(r.Context(), r.PathValue("userID"), domain.MFAPatch{
		Enabled:        req.Enabled,
		SetupCompleted: req.SetupCompleted,
		IfSecret:       req.IfSecret,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleConsumeRecoveryCode handles POST /v1/mfa/records/{userID}/recovery-codes/consume
//
//	@Summary		Consume a recovery code
//	@Description	Removes the code if it is still unused. Of concurrent requests for the same code exactly one reports consumed=true.
//	@Tags			MFA
//	@Security		BearerAuth
//	@Security		APIKeyAuth
//	@Accept			json
//	@Produce		json
//	@Param			userID	path		string								true	"User ID"
//	@Param			request	body		authsdk.ConsumeRecoveryCodeRequest	true	"Code"
//	@Success		200		{object}	authsdk.ConsumeRecoveryCodeResponse
//	@Failure		403		{object}	authsdk.ErrorResponse	"forbidden"
//	@Failure		429		{object}	authsdk.ErrorResponse	"rate_limit_exceeded"
//	@Router			/v1/mfa/records/{userID}/recovery-codes/consume [post]
func (h *MFARecordsHandler) HandleConsumeRecoveryCode(w http.ResponseWriter, r *http.Request) {
	var req authsdk.ConsumeRecoveryCodeRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	ok, err := h.MFA.ConsumeRecoveryCode(r.Context(), r.PathValue("userID"), req.Code)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.ConsumeRecoveryCodeResponse{Consumed: ok})
}
