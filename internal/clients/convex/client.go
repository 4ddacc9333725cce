// Package convex provides a client for the remote store's HTTP function API.
package convex

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aristath/mcsync/internal/domain"
	"github.com/aristath/mcsync/internal/utils"
	"github.com/rs/zerolog"
)

// ErrMissingKey is returned (inside a Result) when a record without a natural key
// is offered for upsert. Such records are never sent.
var ErrMissingKey = errors.New("record has no natural key")

// StatusError is the status the remote store reports for a rejected call.
const StatusError = "error"

// maxLoggedError bounds how much of a remote error message is logged.
const maxLoggedError = 100

// Result is the outcome of one function call. Err is set for transport failures
// (the call did not complete); Status/ErrorMessage carry the remote verdict.
type Result struct {
	Status       string          `json:"status"`
	Value        json.RawMessage `json:"value,omitempty"`
	ErrorMessage string          `json:"errorMessage,omitempty"`
	Err          error           `json:"-"`
}

// OK reports whether the call completed and was not rejected. Any status other
// than "error" counts as success.
func (r Result) OK() bool {
	return r.Err == nil && r.Status != StatusError
}

// Client calls mutations and queries on the remote store.
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a client for the deployment at baseURL. Every call is bounded by timeout.
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		log:     log.With().Str("client", "convex").Logger(),
	}
}

type functionRequest struct {
	Path   string `json:"path"`
	Args   any    `json:"args"`
	Format string `json:"format"`
}

// Mutation invokes the mutation at path with args. It never panics or returns an
// error directly; failures are reported through the Result and logged.
func (c *Client) Mutation(ctx context.Context, path string, args any) Result {
	return c.call(ctx, "/api/mutation", path, args)
}

// Query invokes the read-only query at path with args.
func (c *Client) Query(ctx context.Context, path string, args any) Result {
	return c.call(ctx, "/api/query", path, args)
}

// Upsert sends rec to the mutation at path after checking it carries its natural key.
func (c *Client) Upsert(ctx context.Context, path string, rec domain.Record) Result {
	if rec.NaturalKey() == "" {
		c.log.Warn().Str("path", path).Msg("Refusing to upsert record without natural key")
		return Result{Err: ErrMissingKey}
	}
	return c.Mutation(ctx, path, rec)
}

func (c *Client) call(ctx context.Context, endpoint, path string, args any) Result {
	body, err := json.Marshal(functionRequest{Path: path, Args: args, Format: "json"})
	if err != nil {
		return c.failed(path, fmt.Errorf("failed to encode arguments: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return c.failed(path, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return c.failed(path, fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.failed(path, fmt.Errorf("failed to read response: %w", err))
	}

	var result Result
	if err := json.Unmarshal(raw, &result); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return c.failed(path, fmt.Errorf("remote returned status %d", resp.StatusCode))
		}
		return c.failed(path, fmt.Errorf("failed to parse response: %w", err))
	}

	if result.Status == StatusError {
		c.log.Warn().
			Str("path", path).
			Str("error", utils.Truncate(result.ErrorMessage, maxLoggedError)).
			Msg("Remote rejected call")
	}
	return result
}

func (c *Client) failed(path string, err error) Result {
	c.log.Warn().Err(err).Str("path", path).Msg("Call failed")
	return Result{Err: err}
}
