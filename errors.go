package blossom

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ErrorType classifies a failure surfaced by the SDK.
type ErrorType string

// Failure classes. Every error returned by the SDK carries exactly one.
const (
	ErrorTypeValidation     ErrorType = "INVALID_PARAMETER"
	ErrorTypeNetwork        ErrorType = "NETWORK_ERROR"
	ErrorTypeAPI            ErrorType = "API_ERROR"
	ErrorTypeAuthentication ErrorType = "AUTHENTICATION_ERROR"
	ErrorTypeRateLimit      ErrorType = "RATE_LIMIT_ERROR"
	ErrorTypeStream         ErrorType = "STREAM_ERROR"
	ErrorTypeTimeout        ErrorType = "TIMEOUT_ERROR"
	ErrorTypeUnknown        ErrorType = "UNKNOWN_ERROR"
)

// fallbackRetryAfter is used when a 429 response omits Retry-After or
// carries an unparseable value.
const fallbackRetryAfter = 60 * time.Second

// Error represents a Pollinations API or transport error.
//
// Every error carries the request ID of the logical call that produced
// it, so failures can be correlated with server-side logs. Where the
// failure has a known remediation, Suggestion says what to do.
type Error struct {
	// Type is the failure class.
	Type ErrorType

	// Message is a human-readable description of the failure.
	Message string

	// Suggestion is an actionable hint, empty when none applies.
	Suggestion string

	// StatusCode is the HTTP status, 0 when the request failed before
	// a response was received.
	StatusCode int

	// RequestID identifies the logical call across all its attempts.
	RequestID string

	// RetryAfter is the server-specified delay for rate-limited
	// requests, zero otherwise.
	RetryAfter time.Duration

	// Attempts is how many attempts were made before giving up.
	// Zero when the failure occurred before the first attempt.
	Attempts int

	// Cause is the underlying error, if any.
	Cause error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("blossom: [")
	b.WriteString(string(e.Type))
	b.WriteString("] ")
	b.WriteString(e.Message)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status=%d)", e.StatusCode)
	}
	if e.RequestID != "" {
		b.WriteString(" (request_id=")
		b.WriteString(e.RequestID)
		b.WriteString(")")
	}
	if e.Suggestion != "" {
		b.WriteString(": ")
		b.WriteString(e.Suggestion)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// AsError extracts a *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var be *Error
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}

// IsValidation reports whether err is a pre-network validation failure.
func IsValidation(err error) bool {
	be, ok := AsError(err)
	return ok && be.Type == ErrorTypeValidation
}

// IsAuthentication reports whether err is an authentication failure (HTTP 401).
func IsAuthentication(err error) bool {
	be, ok := AsError(err)
	return ok && be.Type == ErrorTypeAuthentication
}

// IsRateLimit reports whether err is a rate-limit failure (HTTP 429).
// Use [Error.RetryAfter] for the server-specified delay.
func IsRateLimit(err error) bool {
	be, ok := AsError(err)
	return ok && be.Type == ErrorTypeRateLimit
}

// IsStream reports whether err occurred while reading a streaming response,
// including per-chunk inactivity timeouts.
func IsStream(err error) bool {
	be, ok := AsError(err)
	return ok && be.Type == ErrorTypeStream
}

func newValidationError(param, reason string) *Error {
	return &Error{
		Type:       ErrorTypeValidation,
		Message:    fmt.Sprintf("invalid parameter %q: %s", param, reason),
		Suggestion: fmt.Sprintf("check the %q parameter", param),
	}
}

func newStreamError(message, suggestion, requestID string, cause error) *Error {
	return &Error{
		Type:       ErrorTypeStream,
		Message:    message,
		Suggestion: suggestion,
		RequestID:  requestID,
		Cause:      cause,
	}
}

// translateStatus maps a non-2xx HTTP response to a typed error. body is
// a truncated copy of the response body, used for the message only.
func translateStatus(status int, body []byte, hdr http.Header, requestID string) *Error {
	msg := strings.TrimSpace(string(body))
	switch {
	case status == http.StatusUnauthorized:
		return &Error{
			Type:       ErrorTypeAuthentication,
			Message:    "authentication failed",
			Suggestion: "obtain a token at " + authURL,
			StatusCode: status,
			RequestID:  requestID,
		}
	case status == http.StatusTooManyRequests:
		retryAfter := parseRetryAfter(hdr)
		return &Error{
			Type:       ErrorTypeRateLimit,
			Message:    "rate limit exceeded",
			Suggestion: fmt.Sprintf("wait %d seconds before retrying", int(retryAfter.Seconds())),
			StatusCode: status,
			RequestID:  requestID,
			RetryAfter: retryAfter,
		}
	case status == http.StatusPaymentRequired:
		if msg == "" {
			msg = "payment required"
		}
		return &Error{
			Type:       ErrorTypeAPI,
			Message:    msg,
			Suggestion: "visit " + authURL + " to upgrade or check your API token",
			StatusCode: status,
			RequestID:  requestID,
		}
	case status >= 500:
		return &Error{
			Type:       ErrorTypeAPI,
			Message:    fmt.Sprintf("server error %d: %s", status, msg),
			StatusCode: status,
			RequestID:  requestID,
		}
	default:
		return &Error{
			Type:       ErrorTypeAPI,
			Message:    fmt.Sprintf("HTTP %d: %s", status, msg),
			StatusCode: status,
			RequestID:  requestID,
		}
	}
}

// translateTransport maps a transport-layer failure (no HTTP response)
// to a typed error.
func translateTransport(err error, requestID string) *Error {
	if be, ok := AsError(err); ok {
		return be
	}
	var ne net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &ne) && ne.Timeout():
		return &Error{
			Type:       ErrorTypeTimeout,
			Message:    "request timed out",
			Suggestion: "try increasing the timeout or check your connection",
			RequestID:  requestID,
			Cause:      err,
		}
	case errors.Is(err, context.Canceled):
		return &Error{
			Type:      ErrorTypeNetwork,
			Message:   "request cancelled",
			RequestID: requestID,
			Cause:     err,
		}
	default:
		return &Error{
			Type:      ErrorTypeNetwork,
			Message:   "connection failed",
			RequestID: requestID,
			Cause:     err,
		}
	}
}

// retryable reports whether a later attempt could plausibly succeed:
// 502-class server errors, rate limits and transport timeouts. Validation
// and authentication failures are never retried.
func retryable(err error) bool {
	be, ok := AsError(err)
	if !ok {
		return false
	}
	switch be.Type {
	case ErrorTypeRateLimit, ErrorTypeTimeout:
		return true
	case ErrorTypeAPI:
		switch be.StatusCode {
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
	case ErrorTypeNetwork:
		var ne net.Error
		if errors.As(be.Cause, &ne) {
			return ne.Timeout()
		}
	}
	return false
}

// parseRetryAfter reads the Retry-After header, accepting both the
// delta-seconds and HTTP-date forms. A missing or malformed header
// falls back to a conservative 60s.
func parseRetryAfter(hdr http.Header) time.Duration {
	v := strings.TrimSpace(hdr.Get("Retry-After"))
	if v == "" {
		return fallbackRetryAfter
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
		return 0
	}
	return fallbackRetryAfter
}
