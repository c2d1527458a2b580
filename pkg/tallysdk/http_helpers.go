package tallysdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

func (c *SDKClient) url(path string) string {
	return c.BaseURL + path
}

// doJSON sends body (if any) as JSON and decodes a 200 response into target.
// bearer is sent as the Authorization header when non-empty.
func (c *SDKClient) doJSON(
	ctx context.Context,
	method, path, bearer string,
	body, target any,
) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	return decodeJSON(resp, target)
}

// decodeJSON reads the body once, returning an *APIError for non-2xx
// responses and decoding into target otherwise.
func decodeJSON(resp *http.Response, target any) error {
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if err := parseErrorResponse(resp, b); err != nil {
		return err
	}
	if target == nil {
		return nil
	}
	if err := json.Unmarshal(b, target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
