package pipeline

import (
	"log/slog"
	"runtime/debug"
	"strconv"

	"github.com/randalmurphal/tutorgraph/pkg/pipeline/observability"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// BatchLifecycle is the per-item contract of a batch unit.
//
//   - PrepareBatch reads *S and returns the ordered items to process.
//   - ProcessItem transforms one item. A failing or panicking item does not
//     stop the batch; a panic is reported as a *PanicError for that item.
//   - HandleItemError is called once for every failed item, in item order,
//     after all items have settled.
//   - PostProcessBatch is called exactly once with the results of the items
//     that succeeded, in input order. It is the only phase allowed to write *S.
type BatchLifecycle[S, T, R any] interface {
	PrepareBatch(ctx Context, shared *S) ([]T, error)
	ProcessItem(ctx Context, item T) (R, error)
	PostProcessBatch(ctx Context, shared *S, items []T, results []R) (Action, error)
	HandleItemError(ctx Context, item T, err error)
}

// ItemFailure records one failed batch item.
type ItemFailure[T any] struct {
	Index int
	Item  T
	Err   error
}

// BatchResult is the output of a batch node's Process phase.
// Results holds successful outputs in input order; Failures holds the rest.
type BatchResult[T, R any] struct {
	Results  []R
	Failures []ItemFailure[T]
}

// BatchOption configures a batch node.
type BatchOption func(*batchConfig)

type batchConfig struct {
	concurrency int
}

// WithConcurrency processes up to n items at once.
// Result order still follows input order. Values below 2 mean sequential.
func WithConcurrency(n int) BatchOption {
	return func(c *batchConfig) {
		c.concurrency = n
	}
}

// NewBatchNode wraps a BatchLifecycle into a Node.
//
// The batch is expressed as a plain Lifecycle whose Process phase loops
// over the prepared items, so batch nodes run through the same executor
// path as every other node.
func NewBatchNode[S, T, R any](name string, lc BatchLifecycle[S, T, R], opts ...BatchOption) *Node[S] {
	if lc == nil {
		panic("pipeline: batch lifecycle cannot be nil")
	}
	cfg := batchConfig{concurrency: 1}
	for _, opt := range opts {
		opt(&cfg)
	}
	return NewNode[S, []T, BatchResult[T, R]](name, &batchAdapter[S, T, R]{
		name: name,
		lc:   lc,
		cfg:  cfg,
	})
}

// batchAdapter forwards the generic lifecycle into the per-item loop.
type batchAdapter[S, T, R any] struct {
	name string
	lc   BatchLifecycle[S, T, R]
	cfg  batchConfig
}

func (b *batchAdapter[S, T, R]) Prepare(ctx Context, shared *S) ([]T, error) {
	return b.lc.PrepareBatch(ctx, shared)
}

func (b *batchAdapter[S, T, R]) Process(ctx Context, items []T) (BatchResult[T, R], error) {
	type outcome struct {
		result R
		err    error
	}
	outcomes := make([]outcome, len(items))

	if b.cfg.concurrency > 1 {
		var g errgroup.Group
		g.SetLimit(b.cfg.concurrency)
		for i, item := range items {
			if ctx.Err() != nil {
				break
			}
			g.Go(func() error {
				r, err := b.processOne(ctx, item)
				outcomes[i] = outcome{result: r, err: err}
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, item := range items {
			if ctx.Err() != nil {
				break
			}
			r, err := b.processOne(ctx, item)
			outcomes[i] = outcome{result: r, err: err}
		}
	}

	// Cancellation is a run failure, not an item failure.
	if err := ctx.Err(); err != nil {
		return BatchResult[T, R]{}, err
	}

	res := BatchResult[T, R]{Results: make([]R, 0, len(items))}
	var itemErrs []*ItemError
	for i, o := range outcomes {
		if o.err != nil {
			res.Failures = append(res.Failures, ItemFailure[T]{Index: i, Item: items[i], Err: o.err})
			itemErrs = append(itemErrs, &ItemError{NodeID: b.name, Index: i, Item: items[i], Err: o.err})
			observability.LogItemError(ctx.Logger(), "#"+strconv.Itoa(i), o.err)
			observability.AddSpanEvent(ctx, "batch.item_failed",
				attribute.Int("item.index", i),
				attribute.String("error", o.err.Error()))
			b.lc.HandleItemError(ctx, items[i], o.err)
			continue
		}
		res.Results = append(res.Results, o.result)
	}

	metricsFrom(ctx).RecordBatch(ctx, b.name, len(items), len(res.Failures))
	recordItemErrors(ctx, itemErrs)
	if len(res.Failures) > 0 {
		ctx.Logger().Warn("batch items failed",
			slog.Int("failed", len(res.Failures)),
			slog.Int("total", len(items)))
	}

	return res, nil
}

// processOne runs a single item. A panic becomes that item's failure.
func (b *batchAdapter[S, T, R]) processOne(ctx Context, item T) (result R, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero R
			result = zero
			err = &PanicError{
				NodeID: b.name,
				Value:  r,
				Stack:  string(debug.Stack()),
			}
		}
	}()
	return b.lc.ProcessItem(ctx, item)
}

func (b *batchAdapter[S, T, R]) PostProcess(ctx Context, shared *S, items []T, out BatchResult[T, R]) (Action, error) {
	return b.lc.PostProcessBatch(ctx, shared, items, out.Results)
}

// HandleError forwards to the wrapped lifecycle when it has its own handler.
func (b *batchAdapter[S, T, R]) HandleError(ctx Context, err error) (Action, error) {
	if h, ok := any(b.lc).(ErrorHandler); ok {
		return h.HandleError(ctx, err)
	}
	return defaultHandleError(ctx, err)
}
