// Package llm is the thin collaborator boundary to an HTTP language-model
// endpoint. The response payload is opaque to the rest of the system; it
// is passed through as raw JSON.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

// Client sends a prompt to a language model and returns the raw
// response payload, failing only after exhausting configured retries.
type Client interface {
	Complete(ctx context.Context, prompt string, opts Options) (json.RawMessage, error)
}

// Options configures a single completion request.
type Options struct {
	// Model overrides the client's default model identifier.
	Model string
	// Extra fields are merged into the request payload (temperature,
	// max_tokens, and other passthrough options).
	Extra map[string]any
}

// Config configures an HTTP LLM client.
type Config struct {
	BaseURL    string        `json:"base_url" yaml:"base_url"`
	Model      string        `json:"model" yaml:"model"`
	APIKey     string        `json:"api_key" yaml:"api_key"`
	Endpoint   string        `json:"endpoint" yaml:"endpoint"`       // default "v1/completions"
	MaxRetries int           `json:"max_retries" yaml:"max_retries"` // default 3
	Backoff    time.Duration `json:"backoff" yaml:"backoff"`         // default 500ms, doubled per attempt
	Timeout    time.Duration `json:"timeout" yaml:"timeout"`         // default 30s per request
}

// HTTPClient implements Client against a bearer-authenticated JSON
// endpoint.
type HTTPClient struct {
	cfg    Config
	client *http.Client
}

// NewHTTPClient returns an HTTPClient with defaults applied to
// zero-value config fields.
func NewHTTPClient(cfg Config) *HTTPClient {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "v1/completions"
	}
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 3
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 500 * time.Millisecond
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &HTTPClient{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Complete sends the prompt to the configured endpoint and returns the
// raw JSON response body.
func (c *HTTPClient) Complete(ctx context.Context, prompt string, opts Options) (json.RawMessage, error) {
	payload := map[string]any{"prompt": prompt}
	model := opts.Model
	if model == "" {
		model = c.cfg.Model
	}
	if model != "" {
		payload["model"] = model
	}
	for k, v := range opts.Extra {
		payload[k] = v
	}
	return c.post(ctx, payload)
}

// retryableStatusCode returns true for HTTP status codes that warrant a
// retry.
func retryableStatusCode(code int) bool {
	return code == http.StatusTooManyRequests ||
		code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable ||
		code == http.StatusGatewayTimeout
}

func (c *HTTPClient) post(ctx context.Context, payload map[string]any) (json.RawMessage, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	url := c.cfg.BaseURL
	if url != "" && url[len(url)-1] != '/' {
		url += "/"
	}
	url += c.cfg.Endpoint

	var lastErr error
	var waited bool
	for attempt := 1; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 1 && !waited {
			delay := c.cfg.Backoff * time.Duration(1<<(attempt-2))
			slog.Warn("llm: retrying request",
				"url", url, "attempt", attempt, "delay", delay, "error", lastErr)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		waited = false

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		if c.cfg.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = fmt.Errorf("request to %s failed: %w", url, err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("reading response body: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusOK {
			return json.RawMessage(body), nil
		}

		lastErr = fmt.Errorf("LLM API error %d: %s", resp.StatusCode, string(body))
		if !retryableStatusCode(resp.StatusCode) {
			return nil, lastErr
		}

		// Respect Retry-After on rate limiting; it replaces the backoff
		// for the next attempt, and no attempt left means no wait.
		if resp.StatusCode == http.StatusTooManyRequests && attempt < c.cfg.MaxRetries {
			if ra := resp.Header.Get("Retry-After"); ra != "" {
				if seconds, err := strconv.Atoi(ra); err == nil && seconds > 0 {
					delay := time.Duration(seconds) * time.Second
					slog.Warn("llm: rate limited, waiting before retry",
						"url", url, "attempt", attempt, "delay", delay)
					select {
					case <-time.After(delay):
					case <-ctx.Done():
						return nil, ctx.Err()
					}
					waited = true
				}
			}
		}
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}
