package blossom

import (
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Client is the Pollinations API client.
//
// The zero value is not usable; construct with [NewClient]. A Client
// owns a pooled HTTP transport created lazily on first use and shared
// by all generation calls. Call [Client.Close] when done to release
// idle connections.
type Client struct {
	imageBaseURL string
	textBaseURL  string
	token        string
	userAgent    string
	timeout      time.Duration
	chunkTimeout time.Duration
	maxRetries   int
	logger       *slog.Logger
	httpClient   *http.Client // optional override from WithHTTPClient
	backoff      backoff

	sessions *sessionManager

	// Image generates images from text prompts.
	Image *ImageService
	// Text generates text completions and chat responses.
	Text *TextService
	// Audio synthesizes speech from text.
	Audio *AudioService
}

// NewClient creates a new Pollinations client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		imageBaseURL: defaultImageBaseURL,
		textBaseURL:  defaultTextBaseURL,
		userAgent:    "blossom-go/" + Version,
		timeout:      defaultTimeout,
		chunkTimeout: defaultChunkTimeout,
		maxRetries:   defaultMaxRetries,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		backoff:      defaultBackoff(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.sessions = &sessionManager{factory: c.newHTTPClient, custom: c.httpClient}
	c.Image = &ImageService{client: c, catalog: newModelCatalog(defaultImageModels)}
	c.Text = &TextService{client: c, catalog: newModelCatalog(defaultTextModels)}
	c.Audio = &AudioService{client: c, catalog: newModelCatalog(defaultVoices)}

	return c
}

func (c *Client) newHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// Close releases the client's pooled connections. It is idempotent and
// safe to call from multiple goroutines; calls made after Close fail
// with a typed error.
func (c *Client) Close() error {
	c.sessions.shutdown()
	return nil
}

// sessionManager owns the pooled HTTP transport. The transport is
// created lazily on first acquire and reused by every call until
// shutdown. Callers never release the *http.Client itself; per-call
// cleanup happens by closing response bodies, which returns the
// connection to the pool.
type sessionManager struct {
	mu      sync.Mutex
	factory func() *http.Client
	custom  *http.Client
	client  *http.Client
	closed  bool
}

// acquire returns the shared HTTP client, creating it on first use.
func (m *sessionManager) acquire() (*http.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, &Error{
			Type:       ErrorTypeValidation,
			Message:    "client is closed",
			Suggestion: "create a new client with blossom.NewClient",
		}
	}
	if m.client == nil {
		if m.custom != nil {
			m.client = m.custom
		} else {
			m.client = m.factory()
		}
	}
	return m.client, nil
}

// shutdown closes idle connections and marks the manager closed.
// Safe to call multiple times.
func (m *sessionManager) shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	if m.client != nil {
		m.client.CloseIdleConnections()
		m.client = nil
	}
}
