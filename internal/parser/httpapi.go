package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"facturas/internal/config"
)

const (
	defaultProviderTimeout = 120 * time.Second
	maxErrorBody           = 512
	maxResponseBody        = 4 << 20
)

// APIError is a non-200 answer from a model provider.
type APIError struct {
	Provider string
	Status   int
	Body     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.Status, e.Body)
}

// HTTPClient returns the client a provider should use, honouring the
// configured timeout.
func HTTPClient(cfg *config.ParserProviderConfig) *http.Client {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = defaultProviderTimeout
	}
	return &http.Client{Timeout: timeout}
}

// ModelOrDefault picks the configured model, falling back to fallback.
func ModelOrDefault(cfg *config.ParserProviderConfig, fallback string) string {
	if cfg.DefaultModel != "" {
		return cfg.DefaultModel
	}
	return fallback
}

// PostJSON sends payload as JSON and returns the body of a 200 answer.
// A 429 becomes a *RateLimitError wrapping the *APIError; any other status
// is returned as an *APIError.
func PostJSON(ctx context.Context, client *http.Client, provider, url string, header http.Header, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: encoding request: %w", provider, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: building request: %w", provider, err)
	}
	for k, vs := range header {
		req.Header[k] = vs
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: calling API: %w", provider, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("%s: reading response: %w", provider, err)
	}
	if resp.StatusCode == http.StatusOK {
		return raw, nil
	}

	apiErr := &APIError{Provider: provider, Status: resp.StatusCode, Body: truncate(string(raw), maxErrorBody)}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, NewRateLimitError(provider, apiErr, ParseRetryAfterHeader(resp.Header.Get("Retry-After")))
	}
	return nil, apiErr
}
