// Package bridge provides a client for the token-authenticated HTTP API bridge
// that exposes health and Notion data.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// ErrUnavailable wraps every failure to obtain a usable response. Callers treat it
// as "no data for this source".
var ErrUnavailable = errors.New("api bridge unavailable")

// Client reads JSON documents from the bridge.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a bridge client.
func NewClient(baseURL, token string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: timeout},
		log:     log.With().Str("client", "api-bridge").Logger(),
	}
}

// GetJSON fetches path and decodes the body into out.
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", ErrUnavailable, err)
	}
	req.Header.Set("X-API-Bridge-Token", c.token)

	c.log.Debug().Str("path", path).Msg("Fetching")

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("path", path).Msg("API bridge request failed")
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Warn().Int("status", resp.StatusCode).Str("path", path).Msg("API bridge returned error status")
		return fmt.Errorf("%w: status %d for %s", ErrUnavailable, resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.log.Warn().Err(err).Str("path", path).Msg("Failed to parse API bridge response")
		return fmt.Errorf("%w: failed to parse response: %v", ErrUnavailable, err)
	}
	return nil
}
