package parser

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"facturas/internal/domain"
)

// Extraction format failures. All of them match domain.ErrExtractionFormat
// with errors.Is.
var (
	ErrNoJSON      = fmt.Errorf("%w: no JSON object in model response", domain.ErrExtractionFormat)
	ErrInvalidJSON = fmt.Errorf("%w: model response is not valid JSON", domain.ErrExtractionFormat)
)

// RateLimitError indicates a provider returned HTTP 429.
type RateLimitError struct {
	Err        error
	RetryAfter time.Duration
	Provider   string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limited (retry after %s): %v", e.Provider, e.RetryAfter, e.Err)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// RetryUntil is the wall-clock time the caller may try again, counted from now.
func (e *RateLimitError) RetryUntil(now time.Time) time.Time {
	return now.Add(e.RetryAfter)
}

// NewRateLimitError creates a RateLimitError. If retryAfterSecs is 0, defaults to 60s.
func NewRateLimitError(provider string, err error, retryAfterSecs int) *RateLimitError {
	if retryAfterSecs <= 0 {
		retryAfterSecs = 60
	}
	return &RateLimitError{
		Err:        err,
		RetryAfter: time.Duration(retryAfterSecs) * time.Second,
		Provider:   provider,
	}
}

// AsRateLimit unwraps err into a *RateLimitError.
func AsRateLimit(err error) (*RateLimitError, bool) {
	var rlErr *RateLimitError
	if errors.As(err, &rlErr) {
		return rlErr, true
	}
	return nil, false
}

// ParseRetryAfterHeader parses a Retry-After header value into seconds.
// Accepts delta-seconds or an HTTP date. Returns 0 when empty or invalid.
func ParseRetryAfterHeader(val string) int {
	if val == "" {
		return 0
	}
	if secs, err := strconv.Atoi(val); err == nil {
		return secs
	}
	if t, err := http.ParseTime(val); err == nil {
		if secs := int(time.Until(t).Seconds()); secs > 0 {
			return secs
		}
	}
	return 0
}
