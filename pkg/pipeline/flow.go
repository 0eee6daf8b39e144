package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"slices"
	"time"

	"github.com/randalmurphal/tutorgraph/pkg/pipeline/observability"
	"go.opentelemetry.io/otel/trace"
)

// Status is the state of a single Run invocation.
type Status int

const (
	// StatusIdle is the state before Run starts.
	StatusIdle Status = iota
	// StatusRunning means a node is executing.
	StatusRunning
	// StatusCompleted means the chain ended without error. Terminal.
	StatusCompleted
	// StatusFailed means a phase failed or a revisit was detected. Terminal.
	StatusFailed
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RunResult describes one Run invocation.
type RunResult struct {
	// RunID identifies the run in logs, metrics, and spans.
	RunID string
	// Status is StatusCompleted or StatusFailed once Run returns.
	Status Status
	// Visited lists the nodes that started executing, in order.
	Visited []string
	// ItemErrors holds every batch item failure recovered during the run.
	ItemErrors []*ItemError
	// Duration is the wall time of the run.
	Duration time.Duration
}

// Flow executes a chain of nodes starting at a fixed node.
//
// Flow holds no per-run state and may be run any number of times.
// Nodes run strictly one after another; no node starts before the
// previous node's PostProcess has returned.
type Flow[S any] struct {
	start *Node[S]
}

// NewFlow creates a Flow that starts at start.
// Panics if start is nil.
func NewFlow[S any](start *Node[S]) *Flow[S] {
	if start == nil {
		panic("pipeline: " + ErrNilStart.Error())
	}
	return &Flow[S]{start: start}
}

// Start returns the first node of the chain.
func (f *Flow[S]) Start() *Node[S] {
	return f.start
}

// Run executes the chain against shared.
//
// Execution flow:
//  1. Start at the start node
//  2. Check for cancellation
//  3. Run Prepare, Process, PostProcess
//  4. On error, give the node's error handler a chance to recover
//  5. Resolve the next node from the returned Action
//  6. Repeat until there is no next node or an error occurs
//
// A node is never executed twice in one run; a revisit fails the run with
// CycleDetectedError. The returned RunResult is never nil.
func (f *Flow[S]) Run(ctx Context, shared *S, opts ...RunOption) (result *RunResult, runErr error) {
	result = &RunResult{Status: StatusIdle}
	if ctx == nil {
		result.Status = StatusFailed
		return result, ErrNilContext
	}
	if shared == nil {
		result.Status = StatusFailed
		return result, ErrNilState
	}

	cfg := defaultRunConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	rc := forRun(ctx, cfg.runID, cfg.logger, cfg.metrics)
	result.RunID = rc.runID
	result.Status = StatusRunning

	startTime := time.Now()
	observability.LogRunStart(rc.logger, rc.runID)

	var runSpan trace.Span
	if cfg.tracingEnabled {
		var spanCtx context.Context
		spanCtx, runSpan = cfg.spans.StartRunSpan(rc, "pipeline", rc.runID)
		rc = rc.withSpan(spanCtx)
		defer func() {
			cfg.spans.EndSpanWithError(runSpan, runErr)
		}()
	}

	lastNode, runErr := f.walk(rc, shared, &cfg, result)

	result.Duration = time.Since(startTime)
	result.ItemErrors = rc.report.snapshot()
	cfg.metrics.RecordFlowRun(rc, runErr == nil, result.Duration)

	durationMs := float64(result.Duration.Milliseconds())
	if runErr != nil {
		result.Status = StatusFailed
		observability.LogRunError(rc.logger, rc.runID, runErr, durationMs, lastNode)
	} else {
		result.Status = StatusCompleted
		observability.LogRunComplete(rc.logger, rc.runID, durationMs, len(result.Visited))
	}

	return result, runErr
}

// walk follows the chain. It returns the name of the last node touched.
func (f *Flow[S]) walk(rc *executionContext, shared *S, cfg *runConfig, result *RunResult) (string, error) {
	visited := make(map[*Node[S]]bool)
	current := f.start

	for current != nil {
		if visited[current] {
			return current.name, &CycleDetectedError{
				NodeID: current.name,
				Path:   append([]string(nil), result.Visited...),
			}
		}

		select {
		case <-rc.Done():
			return current.name, &CancellationError{NodeID: current.name, Cause: rc.Err()}
		default:
		}

		visited[current] = true
		result.Visited = append(result.Visited, current.name)

		nodeCtx := rc.withNodeID(current.name)
		observability.LogNodeStart(rc.logger, current.name)

		var nodeSpan trace.Span
		if cfg.tracingEnabled {
			var spanCtx context.Context
			spanCtx, nodeSpan = cfg.spans.StartNodeSpan(nodeCtx, current.name)
			nodeCtx = nodeCtx.withSpan(spanCtx)
		}

		nodeStart := time.Now()
		action, err := f.executeNode(nodeCtx, current, shared)
		if err != nil {
			action, err = current.onError(nodeCtx, err)
			if err == nil {
				nodeCtx.Logger().Warn("node error recovered by handler",
					"action", string(action))
			}
		}
		nodeDuration := time.Since(nodeStart)

		cfg.metrics.RecordNodeExecution(nodeCtx, current.name, nodeDuration, err)
		if cfg.tracingEnabled {
			cfg.spans.EndSpanWithError(nodeSpan, err)
		}

		if err != nil {
			return current.name, err
		}
		observability.LogNodeComplete(rc.logger, current.name, float64(nodeDuration.Milliseconds()))

		next := current.next(action)
		if next == nil {
			return current.name, nil
		}
		current = next
	}

	return "", nil
}

// executeNode runs a node's phases with panic recovery.
func (f *Flow[S]) executeNode(ctx Context, n *Node[S], shared *S) (action Action, err error) {
	defer func() {
		if r := recover(); r != nil {
			action = ActionStop
			err = &PanicError{
				NodeID: n.name,
				Value:  r,
				Stack:  string(debug.Stack()),
			}
		}
	}()
	return n.exec(ctx, shared)
}

// Validate walks every link reachable from start and reports chain defects
// before anything runs. Multiple defects are joined together.
//
// Checks:
//  1. start is not nil
//  2. no node can reach itself (the chain must be acyclic)
//  3. distinct nodes have distinct names
func Validate[S any](start *Node[S]) error {
	if start == nil {
		return ErrNilStart
	}

	var errs []error
	names := make(map[string]*Node[S])
	done := make(map[*Node[S]]bool)
	onPath := make(map[*Node[S]]bool)
	var path []string

	var visit func(n *Node[S])
	visit = func(n *Node[S]) {
		if onPath[n] {
			errs = append(errs, &CycleDetectedError{NodeID: n.name, Path: append([]string(nil), path...)})
			return
		}
		if done[n] {
			return
		}
		if other, ok := names[n.name]; ok && other != n {
			errs = append(errs, fmt.Errorf("%w: %s", ErrDuplicateNode, n.name))
		}
		names[n.name] = n

		onPath[n] = true
		path = append(path, n.name)
		for _, action := range sortedActions(n.successors) {
			visit(n.successors[action])
		}
		path = path[:len(path)-1]
		onPath[n] = false
		done[n] = true
	}
	visit(start)

	return errors.Join(errs...)
}

// sortedActions returns the node's actions with the default entry first,
// then the labelled entries in lexical order.
func sortedActions[S any](m map[Action]*Node[S]) []Action {
	actions := make([]Action, 0, len(m))
	if _, ok := m[ActionDefault]; ok {
		actions = append(actions, ActionDefault)
	}
	var labelled []Action
	for a := range m {
		if a != ActionDefault {
			labelled = append(labelled, a)
		}
	}
	slices.Sort(labelled)
	return append(actions, labelled...)
}
