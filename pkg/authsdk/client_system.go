package authsdk

import (
	"context"
	"net/http"
)

// GetLiveness reports uptime and version. It succeeds whenever the process
// is serving.
func (c *Client) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	var health HealthResponse
	if err := c.call(ctx, http.MethodGet, "/livez", nil, anonymous, http.StatusOK, &health); err != nil {
		return nil, err
	}
	return &health, nil
}

// GetReadiness reports the dependency checks. A degraded service answers
// 503, which surfaces as an *APIError.
func (c *Client) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	var health HealthResponse
	if err := c.call(ctx, http.MethodGet, "/readyz", nil, anonymous, http.StatusOK, &health); err != nil {
		return nil, err
	}
	return &health, nil
}

// Health reports an error unless the service is ready.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.GetReadiness(ctx)
	return err
}

// GetJWKS fetches the public keys that verify session tokens.
func (c *Client) GetJWKS(ctx context.Context) (*JWKSResponse, error) {
	var jwks JWKSResponse
	if err := c.call(ctx, http.MethodGet, "/.well-known/jwks.json", nil, anonymous, http.StatusOK, &jwks); err != nil {
		return nil, err
	}
	return &jwks, nil
}
