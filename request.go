package blossom

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// maxErrorBodySize limits how much of an error response body is read.
// 4KB is enough for any useful error message while bounding memory use
// against misbehaving servers.
const maxErrorBodySize = 4096

// apiRequest describes one logical API call before it is turned into
// HTTP attempts. Immutable once built; the retry loop reuses it for
// every attempt.
type apiRequest struct {
	operation string // for logging and error context
	method    string
	url       string // absolute URL without query string
	query     url.Values
	jsonBody  any  // marshaled once, sent as the request body
	stream    bool // keep the response body open for the caller
}

// newRequestID generates the identifier that ties together all attempts
// and errors of one logical call.
func newRequestID() string {
	return uuid.NewString()
}

// buildHTTPRequest constructs a single attempt. The token travels as a
// query parameter on GET and as a bearer header on POST, matching the
// API's auth rules.
func (c *Client) buildHTTPRequest(ctx context.Context, req *apiRequest, requestID string, body []byte) (*http.Request, error) {
	u, err := url.Parse(req.url)
	if err != nil {
		return nil, newValidationError("url", fmt.Sprintf("invalid request URL: %v", err))
	}

	query := u.Query()
	for k, vs := range req.query {
		for _, v := range vs {
			query.Add(k, v)
		}
	}
	if c.token != "" && req.method == http.MethodGet {
		query.Set("token", c.token)
	}
	u.RawQuery = query.Encode()

	var reader io.Reader = http.NoBody
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, u.String(), reader)
	if err != nil {
		return nil, &Error{
			Type:      ErrorTypeUnknown,
			Message:   "failed to create request",
			RequestID: requestID,
			Cause:     err,
		}
	}

	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("X-Request-ID", requestID)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" && req.method == http.MethodPost {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}
	if req.stream {
		httpReq.Header.Set("Accept", "text/event-stream")
		httpReq.Header.Set("Cache-Control", "no-cache")
	}
	return httpReq, nil
}

// do sends req with bounded retries and returns the response with its
// body open. The caller owns the body. One request ID is generated here
// and threaded through every attempt and any surfaced error.
func (c *Client) do(ctx context.Context, req *apiRequest) (*http.Response, string, error) {
	requestID := newRequestID()

	hc, err := c.sessions.acquire()
	if err != nil {
		return nil, requestID, err
	}

	var body []byte
	if req.jsonBody != nil {
		body, err = json.Marshal(req.jsonBody)
		if err != nil {
			return nil, requestID, &Error{
				Type:      ErrorTypeUnknown,
				Message:   "failed to encode request body",
				RequestID: requestID,
				Cause:     err,
			}
		}
	}

	var lastErr *Error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		resp, err := c.attempt(ctx, req, requestID, body, hc)
		if err == nil {
			return resp, requestID, nil
		}

		lastErr = err
		lastErr.Attempts = attempt
		if !retryable(lastErr) || attempt == c.maxRetries {
			break
		}

		delay := retryDelay(lastErr, attempt, c.backoff)
		c.logger.Debug("retrying request",
			"operation", req.operation,
			"request_id", requestID,
			"attempt", attempt,
			"delay", delay,
			"error", lastErr.Message)
		if serr := sleep(ctx, delay); serr != nil {
			lastErr = translateTransport(serr, requestID)
			lastErr.Attempts = attempt
			break
		}
	}
	return nil, requestID, lastErr
}

// attempt performs exactly one HTTP exchange. Non-streaming attempts
// run under the client timeout; streaming attempts are bounded by the
// per-chunk watchdog instead of an overall deadline.
func (c *Client) attempt(ctx context.Context, req *apiRequest, requestID string, body []byte, hc *http.Client) (*http.Response, *Error) {
	attemptCtx := ctx
	cancel := context.CancelFunc(func() {})
	if !req.stream && c.timeout > 0 {
		attemptCtx, cancel = context.WithTimeout(ctx, c.timeout)
	}

	httpReq, err := c.buildHTTPRequest(attemptCtx, req, requestID, body)
	if err != nil {
		cancel()
		if be, ok := AsError(err); ok {
			return nil, be
		}
		return nil, translateTransport(err, requestID)
	}

	c.logger.Debug("sending request",
		"operation", req.operation,
		"request_id", requestID,
		"method", req.method,
		"url", req.url)

	resp, err := hc.Do(httpReq)
	if err != nil {
		cancel()
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		return nil, translateTransport(err, requestID)
	}

	if resp.StatusCode >= 400 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		_ = resp.Body.Close()
		cancel()
		return nil, translateStatus(resp.StatusCode, errBody, resp.Header, requestID)
	}

	// The attempt timeout (when armed) must outlive the body read, so
	// it is defused by the body's Close instead of here. Streaming
	// attempts never arm it; their cancel is a no-op.
	resp.Body = &cancelOnCloseBody{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

// doBytes sends req and returns the full response body.
func (c *Client) doBytes(ctx context.Context, req *apiRequest) ([]byte, string, error) {
	resp, requestID, err := c.do(ctx, req)
	if err != nil {
		return nil, requestID, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, requestID, translateTransport(err, requestID)
	}
	return data, requestID, nil
}

// doJSON sends req and decodes the JSON response into v.
func (c *Client) doJSON(ctx context.Context, req *apiRequest, v any) (string, error) {
	data, requestID, err := c.doBytes(ctx, req)
	if err != nil {
		return requestID, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return requestID, &Error{
			Type:      ErrorTypeAPI,
			Message:   "failed to decode response",
			RequestID: requestID,
			Cause:     err,
		}
	}
	return requestID, nil
}

// cancelOnCloseBody ties an attempt's timeout context to the response
// body lifetime so the timeout cannot fire while the caller is still
// reading.
type cancelOnCloseBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelOnCloseBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

// encodePromptPath escapes a prompt for use as a URL path segment.
func encodePromptPath(prompt string) string {
	return url.PathEscape(prompt)
}

// joinURL appends a path segment to a base URL.
func joinURL(base, segment string) string {
	return strings.TrimSuffix(base, "/") + "/" + segment
}
