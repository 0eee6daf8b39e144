package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for chain construction and validation.
var (
	// ErrNilStart indicates a Flow was created without a start node.
	ErrNilStart = errors.New("start node cannot be nil")

	// ErrDuplicateNode indicates two distinct nodes in one chain share a name.
	ErrDuplicateNode = errors.New("duplicate node name")

	// ErrCycleDetected indicates a node would be executed twice in one run.
	ErrCycleDetected = errors.New("cycle detected")
)

// Sentinel errors for execution.
var (
	// ErrNilContext indicates Run() was called with a nil context.
	ErrNilContext = errors.New("context cannot be nil")

	// ErrNilState indicates Run() was called with a nil shared state.
	ErrNilState = errors.New("shared state cannot be nil")

	// ErrMissingInput indicates a node's required shared-state field is absent.
	ErrMissingInput = errors.New("missing input")
)

// MissingInputError reports that a node's Prepare phase found a required
// shared-state field absent. It is always fatal to the run.
type MissingInputError struct {
	// NodeID is the node that required the field.
	NodeID string
	// Fields lists the absent fields.
	Fields []string
}

// Error implements the error interface.
func (e *MissingInputError) Error() string {
	return fmt.Sprintf("node %s: missing input: %s", e.NodeID, strings.Join(e.Fields, ", "))
}

// Unwrap returns ErrMissingInput for errors.Is support.
func (e *MissingInputError) Unwrap() error {
	return ErrMissingInput
}

// MissingInput builds a MissingInputError for the given node and fields.
func MissingInput(nodeID string, fields ...string) *MissingInputError {
	return &MissingInputError{NodeID: nodeID, Fields: fields}
}

// CycleDetectedError reports that execution would revisit a node.
type CycleDetectedError struct {
	// NodeID is the node that would have been executed a second time.
	NodeID string
	// Path is the sequence of nodes executed (or walked) before the revisit.
	Path []string
}

// Error implements the error interface.
func (e *CycleDetectedError) Error() string {
	return fmt.Sprintf("cycle detected: node %s revisited after [%s]", e.NodeID, strings.Join(e.Path, " -> "))
}

// Unwrap returns ErrCycleDetected for errors.Is support.
func (e *CycleDetectedError) Unwrap() error {
	return ErrCycleDetected
}

// NodeError wraps an error with node context.
// It provides information about which node failed and in which phase.
type NodeError struct {
	// NodeID is the identifier of the node that failed.
	NodeID string
	// Op is the phase that failed ("prepare", "process", "post_process", "cancel").
	Op string
	// Err is the underlying error from the node.
	Err error
}

// Error implements the error interface.
func (e *NodeError) Error() string {
	return fmt.Sprintf("node %s: %s: %v", e.NodeID, e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *NodeError) Unwrap() error {
	return e.Err
}

// PanicError captures panic information from a node phase.
// It includes the stack trace for debugging.
type PanicError struct {
	// NodeID is the identifier of the node that panicked.
	NodeID string
	// Value is the value passed to panic().
	Value any
	// Stack is the full stack trace at the point of panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("node %s panicked: %v", e.NodeID, e.Value)
}

// ItemError is the failure of a single item inside a batch node.
// It is recovered inside the batch and never fails the run by itself.
type ItemError struct {
	// NodeID is the batch node that processed the item.
	NodeID string
	// Index is the item's position in the prepared batch.
	Index int
	// Item is the item that failed.
	Item any
	// Err is the error returned by ProcessItem.
	Err error
}

// Error implements the error interface.
func (e *ItemError) Error() string {
	return fmt.Sprintf("node %s: item %d: %v", e.NodeID, e.Index, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ItemError) Unwrap() error {
	return e.Err
}

// CancellationError reports that the run's context was cancelled
// before the named node could start.
type CancellationError struct {
	// NodeID is the node that was about to execute.
	NodeID string
	// Cause is context.Canceled or context.DeadlineExceeded.
	Cause error
}

// Error implements the error interface.
func (e *CancellationError) Error() string {
	return fmt.Sprintf("cancelled before node %s: %v", e.NodeID, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *CancellationError) Unwrap() error {
	return e.Cause
}
