package blossom

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTranslateStatus_Mapping verifies the HTTP status to error type
// mapping, including suggestions.
func TestTranslateStatus_Mapping(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		wantType   ErrorType
		suggestion string
	}{
		{"unauthorized", http.StatusUnauthorized, ErrorTypeAuthentication, authURL},
		{"rate limited", http.StatusTooManyRequests, ErrorTypeRateLimit, "wait"},
		{"payment required", http.StatusPaymentRequired, ErrorTypeAPI, authURL},
		{"server error", http.StatusBadGateway, ErrorTypeAPI, ""},
		{"teapot", http.StatusTeapot, ErrorTypeAPI, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := translateStatus(tt.status, []byte("boom"), http.Header{}, "req-1")

			assert.Equal(t, tt.wantType, err.Type)
			assert.Equal(t, tt.status, err.StatusCode)
			assert.Equal(t, "req-1", err.RequestID)
			if tt.suggestion != "" {
				assert.Contains(t, err.Suggestion, tt.suggestion)
			}
		})
	}
}

// TestParseRetryAfter verifies Retry-After parsing including the
// fallback for missing or malformed values.
func TestParseRetryAfter(t *testing.T) {
	seconds := http.Header{}
	seconds.Set("Retry-After", "30")
	assert.Equal(t, 30*time.Second, parseRetryAfter(seconds))

	missing := http.Header{}
	assert.Equal(t, fallbackRetryAfter, parseRetryAfter(missing))

	malformed := http.Header{}
	malformed.Set("Retry-After", "soonish")
	assert.Equal(t, fallbackRetryAfter, parseRetryAfter(malformed))

	date := http.Header{}
	date.Set("Retry-After", time.Now().Add(90*time.Second).UTC().Format(http.TimeFormat))
	d := parseRetryAfter(date)
	assert.Greater(t, d, 80*time.Second)
	assert.LessOrEqual(t, d, 90*time.Second)

	past := http.Header{}
	past.Set("Retry-After", time.Now().Add(-time.Minute).UTC().Format(http.TimeFormat))
	assert.Equal(t, time.Duration(0), parseRetryAfter(past))
}

// timeoutErr implements net.Error for transport translation tests.
type timeoutErr struct{ timeout bool }

func (e *timeoutErr) Error() string   { return "dial tcp: i/o timeout" }
func (e *timeoutErr) Timeout() bool   { return e.timeout }
func (e *timeoutErr) Temporary() bool { return false }

var _ net.Error = (*timeoutErr)(nil)

// TestTranslateTransport verifies transport failures map to the right
// error classes.
func TestTranslateTransport(t *testing.T) {
	timeout := translateTransport(&timeoutErr{timeout: true}, "req-2")
	assert.Equal(t, ErrorTypeTimeout, timeout.Type)
	assert.Equal(t, "req-2", timeout.RequestID)

	deadline := translateTransport(context.DeadlineExceeded, "req-3")
	assert.Equal(t, ErrorTypeTimeout, deadline.Type)

	cancelled := translateTransport(context.Canceled, "req-4")
	assert.Equal(t, ErrorTypeNetwork, cancelled.Type)

	refused := translateTransport(errors.New("connection refused"), "req-5")
	assert.Equal(t, ErrorTypeNetwork, refused.Type)
	assert.Equal(t, "connection failed", refused.Message)
}

// TestRetryable verifies the retryable-error classification.
func TestRetryable(t *testing.T) {
	assert.True(t, retryable(&Error{Type: ErrorTypeAPI, StatusCode: http.StatusBadGateway}))
	assert.True(t, retryable(&Error{Type: ErrorTypeAPI, StatusCode: http.StatusServiceUnavailable}))
	assert.True(t, retryable(&Error{Type: ErrorTypeAPI, StatusCode: http.StatusGatewayTimeout}))
	assert.True(t, retryable(&Error{Type: ErrorTypeRateLimit, RetryAfter: time.Second}))
	assert.True(t, retryable(&Error{Type: ErrorTypeTimeout}))
	assert.True(t, retryable(&Error{Type: ErrorTypeNetwork, Cause: &timeoutErr{timeout: true}}))

	assert.False(t, retryable(&Error{Type: ErrorTypeAPI, StatusCode: http.StatusInternalServerError}))
	assert.False(t, retryable(&Error{Type: ErrorTypeAuthentication, StatusCode: http.StatusUnauthorized}))
	assert.False(t, retryable(&Error{Type: ErrorTypeValidation}))
	assert.False(t, retryable(&Error{Type: ErrorTypeStream}))
	assert.False(t, retryable(&Error{Type: ErrorTypeNetwork, Cause: errors.New("refused")}))
	assert.False(t, retryable(errors.New("not a blossom error")))
}

// TestError_Format verifies the rendered error message carries the
// type, status, request ID and suggestion.
func TestError_Format(t *testing.T) {
	cause := errors.New("underlying")
	err := &Error{
		Type:       ErrorTypeRateLimit,
		Message:    "rate limit exceeded",
		Suggestion: "wait 30 seconds before retrying",
		StatusCode: 429,
		RequestID:  "abc-123",
		RetryAfter: 30 * time.Second,
		Cause:      cause,
	}

	msg := err.Error()
	assert.Contains(t, msg, "RATE_LIMIT_ERROR")
	assert.Contains(t, msg, "rate limit exceeded")
	assert.Contains(t, msg, "status=429")
	assert.Contains(t, msg, "request_id=abc-123")
	assert.Contains(t, msg, "wait 30 seconds")
	assert.Contains(t, msg, "underlying")

	assert.Equal(t, cause, errors.Unwrap(err))
}

// TestErrorHelpers verifies the errors.As based predicates, including
// through wrapping.
func TestErrorHelpers(t *testing.T) {
	rateLimit := &Error{Type: ErrorTypeRateLimit}
	wrapped := fmt.Errorf("call failed: %w", rateLimit)

	assert.True(t, IsRateLimit(rateLimit))
	assert.True(t, IsRateLimit(wrapped))
	assert.False(t, IsRateLimit(errors.New("plain")))

	assert.True(t, IsValidation(newValidationError("prompt", "empty")))
	assert.True(t, IsAuthentication(&Error{Type: ErrorTypeAuthentication}))
	assert.True(t, IsStream(newStreamError("timeout", "", "id", nil)))

	got, ok := AsError(wrapped)
	require.True(t, ok)
	assert.Same(t, rateLimit, got)
}
