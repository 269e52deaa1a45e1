package authsdk

import (
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/pocketbook/pkg/authflow"
)

// Client is an auth service client. It is safe for concurrent use.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

var (
	_ authflow.CredentialStore = (*Client)(nil)
	_ authflow.ProfileStore    = (*Client)(nil)
	_ authflow.MFARecordStore  = (*Client)(nil)
	_ authflow.ChallengeStore  = (*Client)(nil)
)

// NewClient creates a client for the service at baseURL. apiKey is sent on
// service-only endpoints and may be empty when only credential endpoints are
// used.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Options returns orchestrator options with every port bound to c.
func (c *Client) Options() authflow.Options {
	return authflow.Options{
		Credentials: c,
		Profiles:    c,
		Records:     c,
		Challenges:  c,
	}
}
