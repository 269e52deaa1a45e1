package authsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/aussiebroadwan/pocketbook/pkg/httpx"
)

// auth selects the credential attached to a request.
type auth struct {
	bearer string
	apiKey string
}

func bearer(token string) auth { return auth{bearer: token} }

func (c *Client) service() auth { return auth{apiKey: c.APIKey} }

var anonymous = auth{}

// url builds a complete URL by appending the path to the base URL.
func (c *Client) url(path string) string {
	return c.BaseURL + path
}

// doRequest performs an HTTP request. body, when non-nil, is encoded as JSON.
func (c *Client) doRequest(
	ctx context.Context,
	method, path string,
	body any,
	a auth,
) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if a.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+a.bearer)
	}
	if a.apiKey != "" {
		req.Header.Set(httpx.APIKeyHeader, a.apiKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	return resp, nil
}

// call performs a request and decodes a JSON response with expectedStatus
// into target. A nil target expects an empty body.
func (c *Client) call(
	ctx context.Context,
	method, path string,
	body any,
	a auth,
	expectedStatus int,
	target any,
) error {
	resp, err := c.doRequest(ctx, method, path, body, a)
	if err != nil {
		return err
	}
	if target == nil {
		return checkStatus(resp, expectedStatus)
	}
	return decodeJSON(resp, target, expectedStatus)
}

// decodeJSON decodes a JSON response into the target interface.
// Returns an *APIError if the status is not the expected one.
func decodeJSON(resp *http.Response, target any, expectedStatus int) error {
	defer resp.Body.Close()

	// Read body once for both error parsing and success decoding
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != expectedStatus {
		return parseErrorResponse(resp, bodyBytes)
	}

	if err := json.Unmarshal(bodyBytes, target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// checkStatus returns an *APIError if the response status is not expectedStatus.
func checkStatus(resp *http.Response, expectedStatus int) error {
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != expectedStatus {
		return parseErrorResponse(resp, bodyBytes)
	}

	return nil
}
