package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/randalmurphal/tutorgraph/pkg/pipeline/cache"
)

// CachingClient serves repeated prompts from a cache.Store.
// Failed calls are never cached.
type CachingClient struct {
	next   Client
	store  cache.Store
	model  string
	logger *slog.Logger
}

// NewCachingClient wraps next. model is mixed into every key so switching
// models does not serve stale answers.
func NewCachingClient(next Client, store cache.Store, model string, logger *slog.Logger) *CachingClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachingClient{next: next, store: store, model: model, logger: logger}
}

// Complete implements Client.
func (c *CachingClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	key, err := c.key(req)
	if err != nil {
		return nil, err
	}

	data, err := c.store.Get(key)
	switch {
	case err == nil:
		var resp CompletionResponse
		if jsonErr := json.Unmarshal(data, &resp); jsonErr == nil {
			resp.Cached = true
			return &resp, nil
		}
		c.logger.Warn("discarding unreadable cache entry", slog.String("key", key))
	case !errors.Is(err, cache.ErrNotFound):
		c.logger.Warn("cache lookup failed", slog.String("error", err.Error()))
	}

	resp, err := c.next.Complete(ctx, req)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(resp); err == nil {
		if err := c.store.Put(key, encoded); err != nil {
			c.logger.Warn("cache store failed", slog.String("error", err.Error()))
		}
	}
	return resp, nil
}

// key hashes every request field that can change the answer.
// An empty Model resolves to the client's model first.
func (c *CachingClient) key(req CompletionRequest) (string, error) {
	if req.Model == "" {
		req.Model = c.model
	}
	encoded, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encode cache key: %w", err)
	}
	return cache.Key(req.Model, string(encoded)), nil
}
