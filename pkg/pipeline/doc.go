/*
Package pipeline runs chains of three-phase processing units over a shared
state record.

# Overview

A chain is a sequence of nodes. Every node follows the same lifecycle:

  - Prepare reads what it needs from the shared state
  - Process does the work without touching the shared state
  - PostProcess writes results back and picks the next node

Nodes run strictly one after another. A batch node runs Process once per
item and isolates item failures, so one bad file or chapter does not sink
the whole run.

# Basic Usage

Implement Lifecycle for each unit and connect the nodes:

	type State struct {
	    Input  string
	    Output string
	}

	type upper struct{}

	func (upper) Prepare(ctx pipeline.Context, s *State) (string, error) {
	    if s.Input == "" {
	        return "", pipeline.MissingInput(ctx.NodeID(), "Input")
	    }
	    return s.Input, nil
	}

	func (upper) Process(ctx pipeline.Context, in string) (string, error) {
	    return strings.ToUpper(in), nil
	}

	func (upper) PostProcess(ctx pipeline.Context, s *State, _ string, out string) (pipeline.Action, error) {
	    s.Output = out
	    return pipeline.ActionDefault, nil
	}

	func main() {
	    first := pipeline.NewNode[State, string, string]("upper", upper{})
	    flow := pipeline.NewFlow(first)

	    state := &State{Input: "hello"}
	    ctx := pipeline.NewContext(context.Background())
	    if _, err := flow.Run(ctx, state); err != nil {
	        log.Fatal(err)
	    }
	    fmt.Println(state.Output) // "HELLO"
	}

# Transitions

PostProcess returns an Action. ActionDefault follows the successor set by
Connect. Any other label follows the successor registered with On, falling
back to the default successor when no such entry exists. ActionStop ends
the run.

	fetch.Connect(parse).Connect(render)
	review.On("reject", notify)

A node never runs twice in one Run. A revisit fails the run with
CycleDetectedError. Validate reports cycles and duplicate names before a
run starts.

# Batches

	node := pipeline.NewBatchNode[State, string, Chapter]("write", writer{},
	    pipeline.WithConcurrency(4))

HandleItemError is called for every failed item. PostProcessBatch receives
only the successful results, in input order. Cancelling the context is a
run failure, never an item failure.

# Error Handling

Phase errors are wrapped in NodeError. A lifecycle that implements
ErrorHandler can recover by returning a nil error; otherwise the error is
logged and the run fails.

	var missing *pipeline.MissingInputError
	if errors.As(err, &missing) {
	    log.Printf("node %s needs %v", missing.NodeID, missing.Fields)
	}

Panics in any phase are recovered and converted to PanicError.

# Observability

	result, err := flow.Run(ctx, state,
	    pipeline.WithObservabilityLogger(logger),
	    pipeline.WithMetrics(true),
	    pipeline.WithTracing(true),
	    pipeline.WithRunID("run-123"))

Logs carry run_id and node_id. Spans follow pipeline.run > pipeline.node.{name}.

# Thread Safety

  - Node wiring is NOT safe for concurrent use
  - Flow IS safe for concurrent Run calls on distinct state records
  - Context IS safe for concurrent use

# Subpackages

  - observability: logging, metrics, and tracing helpers
  - errors: error categories and retry
  - llm: model client interface and implementations
  - cache: response cache stores (memory, SQLite)
  - prompt: prompt template expansion
  - config: file and environment configuration
*/
package pipeline
