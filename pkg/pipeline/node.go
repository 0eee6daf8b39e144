package pipeline

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/randalmurphal/tutorgraph/pkg/pipeline/observability"
)

// Action labels the transition a node takes after PostProcess.
type Action string

const (
	// ActionDefault selects the node's statically connected successor.
	ActionDefault Action = "default"

	// ActionStop ends the run after the current node.
	ActionStop Action = ""
)

// Lifecycle is the three-phase contract of a processing unit.
//
// S is the shared state threaded through the run. I and O are the
// unit's own input and output records, so every node declares the exact
// shape passed between its phases.
//
//   - Prepare reads the fields of *S the node needs. It must not write to *S.
//     Absent required fields are reported with MissingInput.
//   - Process is the transformation. It never sees *S.
//   - PostProcess is the only phase allowed to write *S. It returns the
//     Action that selects the next node; ActionStop ends the run.
type Lifecycle[S, I, O any] interface {
	Prepare(ctx Context, shared *S) (I, error)
	Process(ctx Context, input I) (O, error)
	PostProcess(ctx Context, shared *S, input I, output O) (Action, error)
}

// ErrorHandler is implemented by lifecycles that want to react to their own
// failures. The executor calls HandleError with the error from any phase.
// Returning a nil error swallows the failure and continues the run with the
// returned Action; returning an error fails the run with that error.
//
// Lifecycles without a handler get the default: log and fail.
type ErrorHandler interface {
	HandleError(ctx Context, err error) (Action, error)
}

// Node is a processing unit wired into a chain.
// Create one with NewNode or NewBatchNode and link nodes with Connect or On.
//
// The chain owner owns the link graph. A well-formed chain is a simple path;
// the executor refuses to run a node twice in one Run.
type Node[S any] struct {
	name       string
	exec       func(ctx Context, shared *S) (Action, error)
	onError    func(ctx Context, err error) (Action, error)
	successors map[Action]*Node[S]
}

// NewNode wraps a Lifecycle into a Node.
//
// Panics if:
//   - name is empty or contains whitespace
//   - lc is nil
func NewNode[S, I, O any](name string, lc Lifecycle[S, I, O]) *Node[S] {
	validateName(name)
	if lc == nil {
		panic("pipeline: node lifecycle cannot be nil")
	}

	n := &Node[S]{
		name:       name,
		successors: make(map[Action]*Node[S]),
	}

	n.exec = func(ctx Context, shared *S) (Action, error) {
		input, err := lc.Prepare(ctx, shared)
		if err != nil {
			return ActionStop, &NodeError{NodeID: name, Op: "prepare", Err: err}
		}

		output, err := lc.Process(ctx, input)
		if err != nil {
			return ActionStop, &NodeError{NodeID: name, Op: "process", Err: err}
		}

		action, err := lc.PostProcess(ctx, shared, input, output)
		if err != nil {
			return ActionStop, &NodeError{NodeID: name, Op: "post_process", Err: err}
		}
		return action, nil
	}

	if h, ok := any(lc).(ErrorHandler); ok {
		n.onError = h.HandleError
	} else {
		n.onError = defaultHandleError
	}

	return n
}

func validateName(name string) {
	if name == "" {
		panic("pipeline: node name cannot be empty")
	}
	if strings.ContainsAny(name, " \t\n\r") {
		panic("pipeline: node name cannot contain whitespace")
	}
}

// defaultHandleError logs the failure and passes it on unchanged.
func defaultHandleError(ctx Context, err error) (Action, error) {
	observability.LogNodeError(ctx.Logger(), err)
	return ActionStop, err
}

// Name returns the node's name.
func (n *Node[S]) Name() string {
	return n.name
}

// Connect registers next as the default successor and returns next,
// so chains read left to right:
//
//	fetch.Connect(parse).Connect(render)
//
// Connecting twice overwrites the previous default successor.
func (n *Node[S]) Connect(next *Node[S]) *Node[S] {
	return n.On(ActionDefault, next)
}

// On registers next as the successor for action and returns next.
// An empty action is treated as ActionDefault. The last registration
// for a given action wins.
func (n *Node[S]) On(action Action, next *Node[S]) *Node[S] {
	if next == nil {
		panic("pipeline: successor node cannot be nil")
	}
	if action == ActionStop {
		action = ActionDefault
	}
	if prev, exists := n.successors[action]; exists && prev != next {
		slog.Warn("overwriting successor",
			slog.String("node_id", n.name),
			slog.String("action", string(action)),
			slog.String("previous", prev.name),
			slog.String("next", next.name))
	}
	n.successors[action] = next
	return next
}

// Successor returns the node registered for action, or nil.
// It does not fall back to the default entry; see next for that.
func (n *Node[S]) Successor(action Action) *Node[S] {
	return n.successors[action]
}

// next resolves the node to run after this one returned action.
// ActionStop ends the run. A labelled entry wins; any other label falls
// back to the default successor.
func (n *Node[S]) next(action Action) *Node[S] {
	if action == ActionStop {
		return nil
	}
	if target, ok := n.successors[action]; ok {
		return target
	}
	return n.successors[ActionDefault]
}

// String implements fmt.Stringer.
func (n *Node[S]) String() string {
	return fmt.Sprintf("Node(%s)", n.name)
}
