package authsdk

import (
	"context"
	"net/http"
	"net/url"

	"github.com/aussiebroadwan/pocketbook/pkg/authflow"
)

func mfaPath(userID string) string {
	return "/v1/mfa/records/" + url.PathEscape(userID)
}

// CreateProfile creates the profile row for a new identity.
func (c *Client) CreateProfile(ctx context.Context, userID string, fields authflow.ProfileFields) error {
	req := CreateProfileRequest{
		UserID:      userID,
		DisplayName: fields.DisplayName,
		Currency:    fields.Currency,
	}
	var profile ProfileResponse
	return c.call(ctx, http.MethodPost, "/v1/profiles", req, c.service(), http.StatusCreated, &profile)
}

// GetMFARecord returns the user's MFA record, or authflow.ErrNotFound.
func (c *Client) GetMFARecord(ctx context.Context, userID string) (authflow.MFARecord, error) {
	var rec MFARecord
	if err := c.call(ctx, http.MethodGet, mfaPath(userID), nil, c.service(), http.StatusOK, &rec); err != nil {
		return authflow.MFARecord{}, err
	}
	return authflow.MFARecord{
		UserID:         rec.UserID,
		SecretKey:      rec.Secret,
		Enabled:        rec.Enabled,
		SetupCompleted: rec.SetupCompleted,
		RecoveryCodes:  rec.RecoveryCodes,
		CreatedAt:      rec.CreatedAt,
		UpdatedAt:      rec.UpdatedAt,
	}, nil
}

// UpsertMFARecord creates or replaces the record and its recovery codes.
func (c *Client) UpsertMFARecord(ctx context.Context, rec authflow.MFARecord) error {
	codes := rec.RecoveryCodes
	if codes == nil {
		codes = []string{}
	}
	return c.call(ctx, http.MethodPut, mfaPath(rec.UserID), MFARecord{
		UserID:         rec.UserID,
		Secret:         rec.SecretKey,
		Enabled:        rec.Enabled,
		SetupCompleted: rec.SetupCompleted,
		RecoveryCodes:  codes,
	}, c.service(), http.StatusNoContent, nil)
}

// UpdateMFARecord changes the record's flags.
func (c *Client) UpdateMFARecord(ctx context.Context, userID string, patch authflow.MFAPatch) error {
	return c.call(ctx, http.MethodPatch, mfaPath(userID), MFAPatchRequest{
		Enabled:        patch.Enabled,
		SetupCompleted: patch.SetupCompleted,
		IfSecret:       patch.IfSecret,
	}, c.service(), http.StatusNoContent, nil)
}

// ConsumeRecoveryCode removes code from the user's set, reporting whether
// this call removed it.
func (c *Client) ConsumeRecoveryCode(ctx context.Context, userID, code string) (bool, error) {
	var resp ConsumeRecoveryCodeResponse
	err := c.call(ctx, http.MethodPost, mfaPath(userID)+"/recovery-codes/consume",
		ConsumeRecoveryCodeRequest{Code: code}, c.service(), http.StatusOK, &resp)
	if err != nil {
		return false, err
	}
	return resp.Consumed, nil
}
