package blossom

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// Static fallback sets, served whenever the remote lookup fails. The
// lookup is best-effort by design: a model list failure never fails a
// generation call.
var (
	defaultImageModels = []string{"flux", "turbo", "gptimage", "seedream", "kontext", "nanobanana"}

	defaultTextModels = []string{
		"openai", "openai-fast", "openai-large", "openai-reasoning",
		"deepseek", "gemini", "gemini-search", "mistral", "claude",
		"qwen-coder", "perplexity-fast", "perplexity-reasoning",
	}

	defaultVoices = []string{"alloy", "echo", "fable", "onyx", "nova", "shimmer"}
)

// modelCatalog caches a remotely fetched name list with a TTL and falls
// back to a static default set.
type modelCatalog struct {
	mu       sync.Mutex
	fallback []string
	values   []string
	fetched  time.Time
	ttl      time.Duration
}

func newModelCatalog(fallback []string) *modelCatalog {
	return &modelCatalog{fallback: fallback, ttl: modelCacheTTL}
}

// list returns the cached values, refreshing via fetch when the cache
// is empty or stale. fetch failures fall back to the static defaults;
// the error is swallowed after logging by the caller of fetch.
func (m *modelCatalog) list(ctx context.Context, fetch func(context.Context) ([]string, error)) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.values != nil && time.Since(m.fetched) < m.ttl {
		return m.values
	}

	fetchCtx, cancel := context.WithTimeout(ctx, modelFetchTimeout)
	defer cancel()

	names, err := fetch(fetchCtx)
	if err != nil || len(names) == 0 {
		if m.values != nil {
			return m.values // stale cache beats static fallback
		}
		return m.fallback
	}

	m.values = names
	m.fetched = time.Now()
	return m.values
}

// fetchNameList retrieves a model or voice list endpoint. The API
// returns either plain strings or objects carrying a name/id/model key.
func (c *Client) fetchNameList(ctx context.Context, endpoint string) ([]string, error) {
	var items []json.RawMessage
	_, err := c.doJSON(ctx, &apiRequest{
		operation: "list_models",
		method:    http.MethodGet,
		url:       endpoint,
	}, &items)
	if err != nil {
		c.logger.Debug("model list fetch failed", "url", endpoint, "error", err)
		return nil, err
	}

	names := make([]string, 0, len(items))
	for _, raw := range items {
		var s string
		if json.Unmarshal(raw, &s) == nil {
			names = append(names, s)
			continue
		}
		var obj struct {
			Name  string `json:"name"`
			ID    string `json:"id"`
			Model string `json:"model"`
		}
		if json.Unmarshal(raw, &obj) == nil {
			switch {
			case obj.Name != "":
				names = append(names, obj.Name)
			case obj.ID != "":
				names = append(names, obj.ID)
			case obj.Model != "":
				names = append(names, obj.Model)
			}
		}
	}
	return names, nil
}
