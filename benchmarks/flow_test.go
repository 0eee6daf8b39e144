package benchmarks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/randalmurphal/tutorgraph/pkg/pipeline"
)

// State for benchmarks.
type State struct {
	Value   int
	Results []int
}

// noop does minimal work to measure framework overhead.
type noop struct{}

func (noop) Prepare(_ pipeline.Context, s *State) (int, error) {
	return s.Value, nil
}

func (noop) Process(_ pipeline.Context, v int) (int, error) {
	return v + 1, nil
}

func (noop) PostProcess(_ pipeline.Context, s *State, _, out int) (pipeline.Action, error) {
	s.Value = out
	return pipeline.ActionDefault, nil
}

// square is a batch lifecycle that squares every item.
type square struct {
	items []int
}

func (sq square) PrepareBatch(pipeline.Context, *State) ([]int, error) {
	return sq.items, nil
}

func (square) ProcessItem(_ pipeline.Context, v int) (int, error) {
	return v * v, nil
}

func (square) HandleItemError(pipeline.Context, int, error) {}

func (square) PostProcessBatch(_ pipeline.Context, s *State, _, results []int) (pipeline.Action, error) {
	s.Results = results
	return pipeline.ActionDefault, nil
}

func nodeID(n int) string {
	return fmt.Sprintf("n%d", n)
}

func buildChain(n int) *pipeline.Flow[State] {
	start := pipeline.NewNode[State, int, int](nodeID(0), noop{})
	cur := start
	for i := 1; i < n; i++ {
		cur = cur.Connect(pipeline.NewNode[State, int, int](nodeID(i), noop{}))
	}
	return pipeline.NewFlow(start)
}

func benchCtx() pipeline.Context {
	return pipeline.NewContext(context.Background(),
		pipeline.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		pipeline.WithContextRunID("bench"))
}

func benchmarkChain(b *testing.B, n int) {
	flow := buildChain(n)
	ctx := benchCtx()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = flow.Run(ctx, &State{})
	}
}

// BenchmarkRun_Linear_6 runs a chain the length of the tutorial pipeline.
func BenchmarkRun_Linear_6(b *testing.B) {
	benchmarkChain(b, 6)
}

func BenchmarkRun_Linear_50(b *testing.B) {
	benchmarkChain(b, 50)
}

func BenchmarkRun_Linear_100(b *testing.B) {
	benchmarkChain(b, 100)
}

// BenchmarkValidate_100 measures the static chain check.
func BenchmarkValidate_100(b *testing.B) {
	start := buildChain(100).Start()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = pipeline.Validate(start)
	}
}

func benchmarkBatch(b *testing.B, items, concurrency int) {
	in := make([]int, items)
	for i := range in {
		in[i] = i
	}
	node := pipeline.NewBatchNode[State, int, int]("square", square{items: in}, pipeline.WithConcurrency(concurrency))
	flow := pipeline.NewFlow(node)
	ctx := benchCtx()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = flow.Run(ctx, &State{})
	}
}

func BenchmarkBatch_100_Sequential(b *testing.B) {
	benchmarkBatch(b, 100, 1)
}

func BenchmarkBatch_100_Parallel8(b *testing.B) {
	benchmarkBatch(b, 100, 8)
}

// BenchmarkRun_WithObservability measures the overhead of metrics and tracing
// against the global no-op providers.
func BenchmarkRun_WithObservability(b *testing.B) {
	flow := buildChain(6)
	ctx := benchCtx()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = flow.Run(ctx, &State{}, pipeline.WithMetrics(true), pipeline.WithTracing(true))
	}
}
