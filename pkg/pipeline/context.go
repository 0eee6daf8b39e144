package pipeline

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/randalmurphal/tutorgraph/pkg/pipeline/observability"
)

// Context provides execution context to nodes.
// It extends context.Context with pipeline-specific services and metadata.
//
// Context is immutable after creation. The executor creates derived contexts
// for each node with updated NodeID and an enriched logger.
type Context interface {
	context.Context

	// Logger returns the configured logger, enriched with run and node context.
	// Never returns nil - defaults to slog.Default() if not configured.
	Logger() *slog.Logger

	// RunID returns the unique identifier for this execution run.
	// Auto-generated if not configured.
	RunID() string

	// NodeID returns the current node being executed.
	// Empty string outside node execution.
	NodeID() string
}

// executionContext is the internal implementation of Context.
type executionContext struct {
	context.Context

	logger  *slog.Logger
	runID   string
	nodeID  string
	metrics observability.MetricsRecorder
	report  *itemReport
}

// Logger returns the configured logger.
func (c *executionContext) Logger() *slog.Logger {
	return c.logger
}

// RunID returns the run identifier.
func (c *executionContext) RunID() string {
	return c.runID
}

// NodeID returns the current node identifier.
func (c *executionContext) NodeID() string {
	return c.nodeID
}

// ContextOption configures a Context.
type ContextOption func(*executionContext)

// WithLogger sets the logger for the context.
// The logger will be enriched with run_id and node_id during execution.
func WithLogger(logger *slog.Logger) ContextOption {
	return func(c *executionContext) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithContextRunID sets the run identifier for the context.
// If not set, a UUID will be auto-generated.
func WithContextRunID(id string) ContextOption {
	return func(c *executionContext) {
		c.runID = id
	}
}

// NewContext creates an execution context from a standard context.
//
// Example:
//
//	ctx := pipeline.NewContext(context.Background(),
//	    pipeline.WithLogger(myLogger),
//	    pipeline.WithContextRunID("run-123"))
func NewContext(ctx context.Context, opts ...ContextOption) Context {
	ec := &executionContext{
		Context: ctx,
		logger:  slog.Default(),
		runID:   uuid.New().String(),
		metrics: observability.NoopMetrics{},
	}

	for _, opt := range opts {
		opt(ec)
	}

	return ec
}

// forRun returns a copy of the context bound to one Run invocation.
func forRun(ctx Context, runID string, logger *slog.Logger, metrics observability.MetricsRecorder) *executionContext {
	ec := &executionContext{
		Context: ctx,
		logger:  ctx.Logger(),
		runID:   ctx.RunID(),
		metrics: metrics,
		report:  &itemReport{},
	}
	if base, ok := ctx.(*executionContext); ok {
		ec.Context = base.Context
	}
	if runID != "" {
		ec.runID = runID
	}
	if logger != nil {
		ec.logger = logger
	}
	return ec
}

// withNodeID returns a new context with the given node ID set.
// Used internally by the executor to enrich the context per-node.
func (c *executionContext) withNodeID(nodeID string) *executionContext {
	return &executionContext{
		Context: c.Context,
		logger:  c.logger.With("run_id", c.runID, "node_id", nodeID),
		runID:   c.runID,
		nodeID:  nodeID,
		metrics: c.metrics,
		report:  c.report,
	}
}

// withSpan swaps the embedded context, keeping services and metadata.
func (c *executionContext) withSpan(ctx context.Context) *executionContext {
	cp := *c
	cp.Context = ctx
	return &cp
}

// itemReport collects batch item failures for one run.
type itemReport struct {
	mu     sync.Mutex
	errors []*ItemError
}

func (r *itemReport) add(errs ...*ItemError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, errs...)
}

func (r *itemReport) snapshot() []*ItemError {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*ItemError, len(r.errors))
	copy(out, r.errors)
	return out
}

// recordItemErrors adds batch failures to the run report, if ctx belongs to a run.
func recordItemErrors(ctx Context, errs []*ItemError) {
	if ec, ok := ctx.(*executionContext); ok && ec.report != nil {
		ec.report.add(errs...)
	}
}

// metricsFrom returns the run's metrics recorder, or a no-op recorder.
func metricsFrom(ctx Context) observability.MetricsRecorder {
	if ec, ok := ctx.(*executionContext); ok && ec.metrics != nil {
		return ec.metrics
	}
	return observability.NoopMetrics{}
}
