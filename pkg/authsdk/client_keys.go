package authsdk

import (
	"context"
	"net/http"
)

// RotateKey generates a new session signing key. Requires the service key;
// the endpoint only exists when the service persists its keys.
func (c *Client) RotateKey(ctx context.Context) (*RotateKeyResponse, error) {
	var resp RotateKeyResponse
	if err := c.call(ctx, http.MethodPost, "/v1/keys/rotate", nil, c.service(), http.StatusOK, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListKeys lists the signing keys that still verify, newest first.
func (c *Client) ListKeys(ctx context.Context) ([]SigningKeyInfo, error) {
	var keys []SigningKeyInfo
	if err := c.call(ctx, http.MethodGet, "/v1/keys", nil, c.service(), http.StatusOK, &keys); err != nil {
		return nil, err
	}
	return keys, nil
}
