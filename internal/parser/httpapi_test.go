package parser_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facturas/internal/config"
	"facturas/internal/parser"
)

func TestPostJSON_OK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "secret", r.Header.Get("X-Key"))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	h := http.Header{}
	h.Set("X-Key", "secret")
	raw, err := parser.PostJSON(context.Background(), server.Client(), "test", server.URL, h, map[string]string{"a": "b"})

	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(raw))
}

func TestPostJSON_APIErrorTruncatesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(strings.Repeat("x", 2000)))
	}))
	defer server.Close()

	_, err := parser.PostJSON(context.Background(), server.Client(), "test", server.URL, nil, struct{}{})

	var apiErr *parser.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Less(t, len(apiErr.Body), 600)
	_, limited := parser.AsRateLimit(err)
	assert.False(t, limited)
}

func TestPostJSON_TooManyRequests(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := parser.PostJSON(context.Background(), server.Client(), "test", server.URL, nil, struct{}{})

	rlErr, ok := parser.AsRateLimit(err)
	require.True(t, ok)
	assert.Equal(t, 7*time.Second, rlErr.RetryAfter)
	var apiErr *parser.APIError
	assert.True(t, errors.As(err, &apiErr))
}

func TestHTTPClientAndModelDefaults(t *testing.T) {
	assert.Equal(t, 120*time.Second, parser.HTTPClient(&config.ParserProviderConfig{}).Timeout)
	assert.Equal(t, 5*time.Second, parser.HTTPClient(&config.ParserProviderConfig{TimeoutSecs: 5}).Timeout)
	assert.Equal(t, "m1", parser.ModelOrDefault(&config.ParserProviderConfig{}, "m1"))
	assert.Equal(t, "m2", parser.ModelOrDefault(&config.ParserProviderConfig{DefaultModel: "m2"}, "m1"))
}
