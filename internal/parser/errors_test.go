package parser_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"facturas/internal/domain"
	"facturas/internal/parser"
)

func TestRateLimitError_ErrorString(t *testing.T) {
	rlErr := parser.NewRateLimitError("gemini", fmt.Errorf("rate limited"), 30)

	assert.Contains(t, rlErr.Error(), "gemini")
	assert.Contains(t, rlErr.Error(), "rate limited")
	assert.Contains(t, rlErr.Error(), "30s")
}

func TestRateLimitError_ErrorsAs(t *testing.T) {
	rlErr := parser.NewRateLimitError("claude", fmt.Errorf("rate limited"), 30)
	wrapped := fmt.Errorf("extract failed: %w", rlErr)

	target, ok := parser.AsRateLimit(wrapped)
	assert.True(t, ok)
	assert.Equal(t, "claude", target.Provider)
	assert.Equal(t, 30*time.Second, target.RetryAfter)

	_, ok = parser.AsRateLimit(errors.New("other"))
	assert.False(t, ok)
}

func TestRateLimitError_RetryUntil(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rlErr := parser.NewRateLimitError("openai", errors.New("429"), 45)

	assert.Equal(t, now.Add(45*time.Second), rlErr.RetryUntil(now))
}

func TestNewRateLimitError_DefaultRetryAfter(t *testing.T) {
	rlErr := parser.NewRateLimitError("openai", fmt.Errorf("err"), 0)

	assert.Equal(t, 60*time.Second, rlErr.RetryAfter)
}

func TestParseRetryAfterHeader(t *testing.T) {
	assert.Equal(t, 0, parser.ParseRetryAfterHeader(""))
	assert.Equal(t, 30, parser.ParseRetryAfterHeader("30"))
	assert.Equal(t, 0, parser.ParseRetryAfterHeader("invalid"))

	future := time.Now().Add(2 * time.Minute).UTC().Format(http.TimeFormat)
	secs := parser.ParseRetryAfterHeader(future)
	assert.InDelta(t, 120, secs, 3)
}

func TestFormatErrors_MatchExtractionFormat(t *testing.T) {
	assert.ErrorIs(t, parser.ErrNoJSON, domain.ErrExtractionFormat)
	assert.ErrorIs(t, parser.ErrInvalidJSON, domain.ErrExtractionFormat)
}
