package blossom

import (
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
)

// Option configures a Client.
type Option func(*Client)

// WithToken sets the API token obtained from https://auth.pollinations.ai.
//
// For GET requests the token is sent as a query parameter; for POST
// requests it is sent as a bearer Authorization header. Shareable URLs
// produced by GenerateURL never contain the token.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithTimeout sets the per-request timeout for non-streaming calls.
// Streaming calls are bounded by the per-chunk inactivity timeout
// instead; see [WithChunkTimeout].
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithChunkTimeout sets how long a streaming read may wait for the
// next chunk before the stream fails with a timeout (default 30s).
func WithChunkTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.chunkTimeout = d
	}
}

// WithRetries sets the maximum number of attempts per call, including
// the initial one (default 3). Values below 1 are treated as 1.
func WithRetries(n int) Option {
	return func(c *Client) {
		if n < 1 {
			n = 1
		}
		c.maxRetries = n
	}
}

// WithHTTPClient sets a custom HTTP client, replacing the SDK-managed
// pooled transport.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithDebug enables debug logging of requests, retries and stream
// events to stderr. Equivalent to WithLogger with a debug-level text
// handler.
func WithDebug() Option {
	return func(c *Client) {
		c.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
}

// WithUserAgent overrides the User-Agent header sent with requests.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithImageBaseURL overrides the image API endpoint. Mainly useful for
// testing against a local server.
func WithImageBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.imageBaseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithTextBaseURL overrides the text API endpoint, which also serves
// audio synthesis. Mainly useful for testing against a local server.
func WithTextBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.textBaseURL = strings.TrimSuffix(baseURL, "/")
	}
}
