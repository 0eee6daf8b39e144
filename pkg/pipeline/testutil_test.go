package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Test state types used across tests

// State is the shared record for most tests.
type State struct {
	Input     string
	Progress  []string
	Output    string
	Collected []string
	Missing   *string
}

// stepFunc builds a lifecycle from plain functions.
type stepFunc struct {
	prepare func(ctx Context, s *State) (string, error)
	process func(ctx Context, in string) (string, error)
	post    func(ctx Context, s *State, in, out string) (Action, error)
}

func (f stepFunc) Prepare(ctx Context, s *State) (string, error) {
	if f.prepare == nil {
		return s.Input, nil
	}
	return f.prepare(ctx, s)
}

func (f stepFunc) Process(ctx Context, in string) (string, error) {
	if f.process == nil {
		return in, nil
	}
	return f.process(ctx, in)
}

func (f stepFunc) PostProcess(ctx Context, s *State, in, out string) (Action, error) {
	if f.post == nil {
		return ActionDefault, nil
	}
	return f.post(ctx, s, in, out)
}

// recovering wraps a stepFunc with an error handler.
type recovering struct {
	stepFunc
	handle func(ctx Context, err error) (Action, error)
}

func (r recovering) HandleError(ctx Context, err error) (Action, error) {
	return r.handle(ctx, err)
}

// makeTrackingNode creates a node that records its name into the state.
func makeTrackingNode(name string) *Node[State] {
	return NewNode[State, string, string](name, stepFunc{
		post: func(_ Context, s *State, _, _ string) (Action, error) {
			s.Progress = append(s.Progress, name)
			return ActionDefault, nil
		},
	})
}

// makeActionNode creates a node that records its name and returns action.
func makeActionNode(name string, action Action) *Node[State] {
	return NewNode[State, string, string](name, stepFunc{
		post: func(_ Context, s *State, _, _ string) (Action, error) {
			s.Progress = append(s.Progress, name)
			return action, nil
		},
	})
}

// makeFailingNode creates a node whose Process returns err.
func makeFailingNode(name string, err error) *Node[State] {
	return NewNode[State, string, string](name, stepFunc{
		process: func(_ Context, _ string) (string, error) {
			return "", err
		},
	})
}

// makePanicNode creates a node whose Process panics with value.
func makePanicNode(name string, value any) *Node[State] {
	return NewNode[State, string, string](name, stepFunc{
		process: func(_ Context, _ string) (string, error) {
			panic(value)
		},
	})
}

// itemBatch is a batch lifecycle over State.Progress items.
type itemBatch struct {
	fail    func(item string) bool
	explode func(item string) bool

	mu      sync.Mutex
	handled []string
	posted  [][]string
}

func (b *itemBatch) PrepareBatch(_ Context, s *State) ([]string, error) {
	if s.Progress == nil {
		return nil, errors.New("no items")
	}
	return s.Progress, nil
}

func (b *itemBatch) ProcessItem(_ Context, item string) (string, error) {
	if b.explode != nil && b.explode(item) {
		panic("item exploded")
	}
	if b.fail != nil && b.fail(item) {
		return "", fmt.Errorf("bad item %s", item)
	}
	return "done:" + item, nil
}

func (b *itemBatch) PostProcessBatch(_ Context, s *State, _ []string, results []string) (Action, error) {
	b.mu.Lock()
	b.posted = append(b.posted, results)
	b.mu.Unlock()
	s.Collected = results
	return ActionDefault, nil
}

func (b *itemBatch) HandleItemError(_ Context, item string, _ error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handled = append(b.handled, item)
}

// testCtx creates a simple test context.
func testCtx() Context {
	return NewContext(context.Background())
}
