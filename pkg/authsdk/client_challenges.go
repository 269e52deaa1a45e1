package authsdk

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/aussiebroadwan/pocketbook/pkg/authflow"
)

func challengePath(id string) string {
	return "/v1/mfa/challenges/" + url.PathEscape(id)
}

// SaveChallenge records an outstanding challenge. ttl is rounded up to whole
// seconds.
func (c *Client) SaveChallenge(ctx context.Context, ch authflow.Challenge, ttl time.Duration) error {
	req := SaveChallengeRequest{
		ID:         ch.ID,
		UserID:     ch.UserID,
		TTLSeconds: int(math.Ceil(ttl.Seconds())),
	}
	var resp ChallengeResponse
	return c.call(ctx, http.MethodPost, "/v1/mfa/challenges", req, c.service(), http.StatusCreated, &resp)
}

// GetChallenge returns a live challenge, or authflow.ErrNotFound.
func (c *Client) GetChallenge(ctx context.Context, id string) (authflow.Challenge, error) {
	var resp ChallengeResponse
	if err := c.call(ctx, http.MethodGet, challengePath(id), nil, c.service(), http.StatusOK, &resp); err != nil {
		return authflow.Challenge{}, err
	}
	return authflow.Challenge{
		ID:        resp.ID,
		UserID:    resp.UserID,
		Attempts:  resp.Attempts,
		ExpiresAt: resp.ExpiresAt,
	}, nil
}

// DeleteChallenge consumes the challenge, reporting whether it still existed.
func (c *Client) DeleteChallenge(ctx context.Context, id string) (bool, error) {
	err := c.call(ctx, http.MethodDelete, challengePath(id), nil, c.service(), http.StatusNoContent, nil)
	switch {
	case errors.Is(err, authflow.ErrNotFound):
		return false, nil
	case err != nil:
		return false, err
	}
	return true, nil
}

// RecordChallengeFailure counts a failed attempt. exceeded is true once the
// challenge has been deleted for reaching maxAttempts.
func (c *Client) RecordChallengeFailure(ctx context.Context, id string, maxAttempts int) (bool, error) {
	var resp ChallengeFailureResponse
	err := c.call(ctx, http.MethodPost, challengePath(id)+"/failures",
		ChallengeFailureRequest{MaxAttempts: maxAttempts}, c.service(), http.StatusOK, &resp)
	if err != nil {
		return false, err
	}
	return resp.Exceeded, nil
}
