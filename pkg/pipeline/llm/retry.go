package llm

import (
	"context"
	"log/slog"

	perrors "github.com/randalmurphal/tutorgraph/pkg/pipeline/errors"
)

// RetryingClient retries transient failures of the wrapped client.
// Malformed responses are not retried here; they surface to the stage.
type RetryingClient struct {
	next   Client
	cfg    perrors.RetryConfig
	logger *slog.Logger
}

// NewRetryingClient wraps next with cfg.
// A nil logger uses slog.Default().
func NewRetryingClient(next Client, cfg perrors.RetryConfig, logger *slog.Logger) *RetryingClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &RetryingClient{next: next, cfg: cfg, logger: logger}
}

// Complete implements Client.
func (r *RetryingClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	cfg := r.cfg
	userHook := cfg.OnRetry
	cfg.OnRetry = func(attempt int, err error) {
		r.logger.Warn("model call failed, retrying",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", cfg.MaxAttempts),
			slog.String("error", err.Error()))
		if userHook != nil {
			userHook(attempt, err)
		}
	}

	result := perrors.WithRetryContext(ctx, cfg, func(ctx context.Context) (*CompletionResponse, error) {
		return r.next.Complete(ctx, req)
	})
	if result.Err != nil {
		return nil, result.Err
	}
	return result.Value, nil
}
