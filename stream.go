package blossom

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

// maxEventSize limits the size of a single SSE event to guard against
// servers that never send the empty-line delimiter.
const maxEventSize = 10 * 1024 * 1024 // 10MB

// doneMarker is the payload that terminates an event stream normally.
const doneMarker = "[DONE]"

// Stream is an active streaming response yielding decoded text
// fragments. Each call producing a Stream yields a fresh, finite,
// non-restartable sequence.
//
// Use the pull iterator:
//
//	stream, err := client.Text.GenerateStream(ctx, prompt, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer stream.Close()
//
//	for stream.Next() {
//	    fmt.Print(stream.Text())
//	}
//	if err := stream.Err(); err != nil {
//	    log.Fatal(err)
//	}
//
// or the channel adapter [Stream.TextsWithContext]. Whatever the exit
// path — natural end, error, timeout or abandonment via Close — the
// underlying connection is released exactly once.
type Stream struct {
	resp         *http.Response
	reader       *bufio.Reader
	watchdog     *watchdogReader
	requestID    string
	chunkTimeout time.Duration
	logger       *slog.Logger

	current  string
	err      error
	done     bool
	released atomic.Bool

	// onRelease observes the single release for tests; may be nil.
	onRelease func()
}

func newStream(resp *http.Response, requestID string, chunkTimeout time.Duration, logger *slog.Logger) *Stream {
	s := &Stream{
		resp:         resp,
		requestID:    requestID,
		chunkTimeout: chunkTimeout,
		logger:       logger,
	}
	s.watchdog = &watchdogReader{
		r:       resp.Body,
		timeout: chunkTimeout,
		abort:   s.release,
	}
	s.reader = bufio.NewReader(s.watchdog)
	return s
}

// Next advances to the next text fragment.
//
// Returns true when a fragment is available via [Stream.Text], false
// when the stream ended or failed. Call [Stream.Err] after the loop to
// distinguish the two.
func (s *Stream) Next() bool {
	if s.err != nil || s.done || s.released.Load() {
		return false
	}

	for {
		payload, err := s.readEvent()
		if err != nil {
			s.finish(err)
			return false
		}
		if payload == doneMarker {
			s.done = true
			s.release()
			return false
		}

		fragment, ok := decodeFragment(payload)
		if !ok {
			s.logger.Debug("skipping undecodable stream payload",
				"request_id", s.requestID,
				"payload", truncate(payload, 100))
			continue
		}
		if fragment == "" {
			continue
		}
		s.current = fragment
		return true
	}
}

// Text returns the current fragment. Valid after [Stream.Next] returned true.
func (s *Stream) Text() string {
	return s.current
}

// Err returns the error that terminated the stream, or nil if the
// stream ended normally, was closed by the caller, or is still active.
func (s *Stream) Err() error {
	return s.err
}

// RequestID identifies the call that produced this stream.
func (s *Stream) RequestID() string {
	return s.requestID
}

// Close releases the underlying connection. Always call Close,
// preferably with defer; it is idempotent and safe to call
// concurrently, including while Next is blocked on the network.
func (s *Stream) Close() error {
	s.release()
	return nil
}

// TextsWithContext returns a channel yielding fragments from the
// stream. The channel closes when the stream ends, fails, or ctx is
// cancelled; cancellation releases the connection, so abandoning the
// channel does not leak. Check [Stream.Err] after the channel closes.
func (s *Stream) TextsWithContext(ctx context.Context) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)

		// Unblock a pending read when the context is cancelled.
		done := make(chan struct{})
		go func() {
			select {
			case <-ctx.Done():
				_ = s.Close()
			case <-done:
			}
		}()
		defer close(done)

		for s.Next() {
			select {
			case ch <- s.current:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

// finish records the terminal error, mapping the watchdog and
// caller-close cases, then releases the connection.
func (s *Stream) finish(err error) {
	switch {
	case s.watchdog.timedOut.Load():
		s.err = newStreamError(
			fmt.Sprintf("stream timeout: no data received for %s", s.chunkTimeout),
			"check your connection or increase the chunk timeout",
			s.requestID, nil)
	case s.released.Load():
		// Closed by the caller; not an error.
	case errors.Is(err, io.EOF):
		s.err = newStreamError(
			"connection closed before the end-of-stream marker",
			"retry the request", s.requestID, err)
	default:
		s.err = newStreamError(
			"error reading stream",
			"try non-streaming mode or check your connection",
			s.requestID, err)
	}
	s.release()
}

// release closes the underlying connection exactly once, regardless of
// how many exit paths reach it.
func (s *Stream) release() {
	if s.released.Swap(true) {
		return
	}
	if s.resp != nil && s.resp.Body != nil {
		_ = s.resp.Body.Close()
	}
	if s.onRelease != nil {
		s.onRelease()
	}
}

// readEvent reads one SSE event and returns its data payload, with
// multi-line data joined by newlines. Partial trailing data is returned
// when the stream ends mid-event.
func (s *Stream) readEvent() (string, error) {
	var data []string
	totalSize := 0

	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) && len(data) > 0 {
				return strings.Join(data, "\n"), nil
			}
			return "", err
		}

		totalSize += len(line)
		if totalSize > maxEventSize {
			return "", fmt.Errorf("event exceeds maximum size of %d bytes", maxEventSize)
		}

		line = strings.TrimRight(line, "\r\n")

		// Empty line marks the end of an event.
		if line == "" {
			if len(data) > 0 {
				return strings.Join(data, "\n"), nil
			}
			continue
		}

		if after, ok := strings.CutPrefix(line, "data:"); ok {
			data = append(data, strings.TrimSpace(after))
		}
		// "event:", "id:", "retry:" and comment lines are ignored; the
		// API carries everything in data payloads.
	}
}

// deltaPayload is the OpenAI-style chunk shape used by the streaming
// endpoints.
type deltaPayload struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// decodeFragment extracts the text content from one event payload.
// Returns ok=false when the payload is not valid JSON.
func decodeFragment(payload string) (string, bool) {
	var p deltaPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return "", false
	}
	if len(p.Choices) == 0 {
		return "", true
	}
	return p.Choices[0].Delta.Content, true
}

// watchdogReader enforces a per-chunk inactivity timeout: a timer is
// armed when a read begins waiting for bytes and defused when data
// arrives. On expiry the abort callback closes the connection, which
// unblocks the read with an error.
type watchdogReader struct {
	r        io.Reader
	timeout  time.Duration
	abort    func()
	timedOut atomic.Bool
}

func (w *watchdogReader) Read(p []byte) (int, error) {
	if w.timeout <= 0 {
		return w.r.Read(p)
	}
	t := time.AfterFunc(w.timeout, func() {
		w.timedOut.Store(true)
		w.abort()
	})
	n, err := w.r.Read(p)
	t.Stop()
	return n, err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
