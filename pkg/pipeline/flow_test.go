package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRun_LinearChain tests that nodes run once each, in chain order.
func TestRun_LinearChain(t *testing.T) {
	a := makeTrackingNode("a")
	b := makeTrackingNode("b")
	c := makeTrackingNode("c")
	a.Connect(b).Connect(c)

	state := &State{}
	result, err := NewFlow(a).Run(testCtx(), state)

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, state.Progress)
	assert.Equal(t, []string{"a", "b", "c"}, result.Visited)
	assert.Equal(t, StatusCompleted, result.Status)
	assert.NotEmpty(t, result.RunID)
}

// TestRun_SingleNode tests a chain of one node.
func TestRun_SingleNode(t *testing.T) {
	state := &State{}
	result, err := NewFlow(makeTrackingNode("only")).Run(testCtx(), state)

	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, state.Progress)
	assert.Equal(t, StatusCompleted, result.Status)
}

// TestRun_PhaseDataFlow tests that Process sees Prepare's output and
// PostProcess sees both.
func TestRun_PhaseDataFlow(t *testing.T) {
	var gotIn, gotOut string
	n := NewNode[State, string, string]("shout", stepFunc{
		process: func(_ Context, in string) (string, error) {
			return in + "!", nil
		},
		post: func(_ Context, s *State, in, out string) (Action, error) {
			gotIn, gotOut = in, out
			s.Output = out
			return ActionStop, nil
		},
	})

	state := &State{Input: "hi"}
	_, err := NewFlow(n).Run(testCtx(), state)

	require.NoError(t, err)
	assert.Equal(t, "hi", gotIn)
	assert.Equal(t, "hi!", gotOut)
	assert.Equal(t, "hi!", state.Output)
}

// TestRun_Stop tests that ActionStop ends the run even with a successor.
func TestRun_Stop(t *testing.T) {
	a := makeActionNode("a", ActionStop)
	a.Connect(makeTrackingNode("b"))

	state := &State{}
	result, err := NewFlow(a).Run(testCtx(), state)

	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, state.Progress)
	assert.Equal(t, []string{"a"}, result.Visited)
}

// TestRun_LabelledAction tests action-based successor selection.
func TestRun_LabelledAction(t *testing.T) {
	tests := []struct {
		name   string
		action Action
		want   []string
	}{
		{name: "labelled entry wins", action: "reject", want: []string{"review", "notify"}},
		{name: "default", action: ActionDefault, want: []string{"review", "publish"}},
		{name: "unknown label falls back to default", action: "other", want: []string{"review", "publish"}},
		{name: "stop", action: ActionStop, want: []string{"review"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			review := makeActionNode("review", tt.action)
			review.Connect(makeTrackingNode("publish"))
			review.On("reject", makeTrackingNode("notify"))

			state := &State{}
			_, err := NewFlow(review).Run(testCtx(), state)

			require.NoError(t, err)
			assert.Equal(t, tt.want, state.Progress)
		})
	}
}

// TestRun_CycleDetected tests that a revisit fails the run.
func TestRun_CycleDetected(t *testing.T) {
	a := makeTrackingNode("a")
	b := makeTrackingNode("b")
	a.Connect(b)
	b.Connect(a)

	state := &State{}
	result, err := NewFlow(a).Run(testCtx(), state)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCycleDetected)

	var cycleErr *CycleDetectedError
	require.True(t, errors.As(err, &cycleErr))
	assert.Equal(t, "a", cycleErr.NodeID)
	assert.Equal(t, []string{"a", "b"}, cycleErr.Path)

	assert.Equal(t, StatusFailed, result.Status)
	assert.Equal(t, []string{"a", "b"}, state.Progress, "each node ran exactly once")
}

// TestRun_SelfLoop tests a node connected to itself.
func TestRun_SelfLoop(t *testing.T) {
	a := makeTrackingNode("a")
	a.Connect(a)

	state := &State{}
	_, err := NewFlow(a).Run(testCtx(), state)

	assert.ErrorIs(t, err, ErrCycleDetected)
	assert.Equal(t, []string{"a"}, state.Progress)
}

// TestRun_NodeError tests that a phase error fails the run and stops the chain.
func TestRun_NodeError(t *testing.T) {
	boom := errors.New("boom")
	a := makeTrackingNode("a")
	a.Connect(makeFailingNode("b", boom)).Connect(makeTrackingNode("c"))

	state := &State{}
	result, err := NewFlow(a).Run(testCtx(), state)

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var nodeErr *NodeError
	require.True(t, errors.As(err, &nodeErr))
	assert.Equal(t, "b", nodeErr.NodeID)
	assert.Equal(t, "process", nodeErr.Op)

	assert.Equal(t, []string{"a"}, state.Progress)
	assert.Equal(t, []string{"a", "b"}, result.Visited)
	assert.Equal(t, StatusFailed, result.Status)
}

// TestRun_MissingInput tests that a missing required field fails the run
// and leaves the state untouched.
func TestRun_MissingInput(t *testing.T) {
	var processed bool
	n := NewNode[State, string, string]("needs_input", stepFunc{
		prepare: func(ctx Context, s *State) (string, error) {
			if s.Missing == nil {
				return "", MissingInput(ctx.NodeID(), "Missing")
			}
			return *s.Missing, nil
		},
		process: func(_ Context, in string) (string, error) {
			processed = true
			return in, nil
		},
		post: func(_ Context, s *State, _, out string) (Action, error) {
			s.Output = out
			return ActionDefault, nil
		},
	})

	state := &State{Input: "keep"}
	_, err := NewFlow(n).Run(testCtx(), state)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingInput)

	var missing *MissingInputError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "needs_input", missing.NodeID)
	assert.Equal(t, []string{"Missing"}, missing.Fields)

	assert.False(t, processed)
	assert.Equal(t, State{Input: "keep"}, *state)
}

// TestRun_ErrorHandlerRecovers tests that a handler can swallow an error
// and continue with its own action.
func TestRun_ErrorHandlerRecovers(t *testing.T) {
	var handled error
	flaky := NewNode[State, string, string]("flaky", recovering{
		stepFunc: stepFunc{
			process: func(_ Context, _ string) (string, error) {
				return "", errors.New("transient")
			},
		},
		handle: func(_ Context, err error) (Action, error) {
			handled = err
			return "fallback", nil
		},
	})
	flaky.Connect(makeTrackingNode("normal"))
	flaky.On("fallback", makeTrackingNode("fallback"))

	state := &State{}
	result, err := NewFlow(flaky).Run(testCtx(), state)

	require.NoError(t, err)
	require.Error(t, handled)
	assert.Contains(t, handled.Error(), "transient")
	assert.Equal(t, []string{"fallback"}, state.Progress)
	assert.Equal(t, StatusCompleted, result.Status)
}

// TestRun_ErrorHandlerReplaces tests that a handler's error fails the run.
func TestRun_ErrorHandlerReplaces(t *testing.T) {
	replaced := errors.New("replaced")
	n := NewNode[State, string, string]("n", recovering{
		stepFunc: stepFunc{
			process: func(_ Context, _ string) (string, error) {
				return "", errors.New("original")
			},
		},
		handle: func(_ Context, _ error) (Action, error) {
			return ActionStop, replaced
		},
	})

	_, err := NewFlow(n).Run(testCtx(), &State{})

	assert.ErrorIs(t, err, replaced)
}

// TestRun_PanicRecovery tests that panics are converted to PanicError.
func TestRun_PanicRecovery(t *testing.T) {
	a := makeTrackingNode("a")
	a.Connect(makePanicNode("crash", "unexpected nil"))

	state := &State{}
	result, err := NewFlow(a).Run(testCtx(), state)

	require.Error(t, err)
	var panicErr *PanicError
	require.True(t, errors.As(err, &panicErr))
	assert.Equal(t, "crash", panicErr.NodeID)
	assert.Equal(t, "unexpected nil", panicErr.Value)
	assert.NotEmpty(t, panicErr.Stack)
	assert.Equal(t, StatusFailed, result.Status)
}

// TestRun_CancelledContext tests that a cancelled context stops the run
// before the next node starts.
func TestRun_CancelledContext(t *testing.T) {
	base, cancel := context.WithCancel(context.Background())

	a := NewNode[State, string, string]("a", stepFunc{
		post: func(_ Context, s *State, _, _ string) (Action, error) {
			s.Progress = append(s.Progress, "a")
			cancel()
			return ActionDefault, nil
		},
	})
	a.Connect(makeTrackingNode("b"))

	state := &State{}
	_, err := NewFlow(a).Run(NewContext(base), state)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	var cancelErr *CancellationError
	require.True(t, errors.As(err, &cancelErr))
	assert.Equal(t, "b", cancelErr.NodeID)
	assert.Equal(t, []string{"a"}, state.Progress)
}

// TestRun_NilArguments tests argument validation.
func TestRun_NilArguments(t *testing.T) {
	flow := NewFlow(makeTrackingNode("a"))

	result, err := flow.Run(nil, &State{})
	assert.ErrorIs(t, err, ErrNilContext)
	require.NotNil(t, result)
	assert.Equal(t, StatusFailed, result.Status)

	_, err = flow.Run(testCtx(), nil)
	assert.ErrorIs(t, err, ErrNilState)
}

// TestRun_Reusable tests that one Flow can run many times.
func TestRun_Reusable(t *testing.T) {
	a := makeTrackingNode("a")
	a.Connect(makeTrackingNode("b"))
	flow := NewFlow(a)

	for i := 0; i < 3; i++ {
		state := &State{}
		result, err := flow.Run(testCtx(), state)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, state.Progress)
		assert.Equal(t, []string{"a", "b"}, result.Visited)
	}
}

// TestRun_RunID tests run id propagation into node contexts.
func TestRun_RunID(t *testing.T) {
	var seenRun, seenNode string
	n := NewNode[State, string, string]("probe", stepFunc{
		prepare: func(ctx Context, _ *State) (string, error) {
			seenRun, seenNode = ctx.RunID(), ctx.NodeID()
			return "", nil
		},
	})

	result, err := NewFlow(n).Run(testCtx(), &State{}, WithRunID("run-42"))

	require.NoError(t, err)
	assert.Equal(t, "run-42", result.RunID)
	assert.Equal(t, "run-42", seenRun)
	assert.Equal(t, "probe", seenNode)
}

// TestNewFlow_NilStart tests that NewFlow panics on a nil start.
func TestNewFlow_NilStart(t *testing.T) {
	assert.Panics(t, func() {
		NewFlow[State](nil)
	})
}

// TestValidate tests static chain checks.
func TestValidate(t *testing.T) {
	t.Run("valid chain", func(t *testing.T) {
		a := makeTrackingNode("a")
		a.Connect(makeTrackingNode("b")).Connect(makeTrackingNode("c"))
		assert.NoError(t, Validate(a))
	})

	t.Run("nil start", func(t *testing.T) {
		assert.ErrorIs(t, Validate[State](nil), ErrNilStart)
	})

	t.Run("cycle", func(t *testing.T) {
		a := makeTrackingNode("a")
		b := makeTrackingNode("b")
		a.Connect(b)
		b.On("retry", a)

		err := Validate(a)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrCycleDetected)

		var cycleErr *CycleDetectedError
		require.True(t, errors.As(err, &cycleErr))
		assert.Equal(t, []string{"a", "b"}, cycleErr.Path)
	})

	t.Run("duplicate names", func(t *testing.T) {
		a := makeTrackingNode("a")
		a.Connect(makeTrackingNode("same"))
		a.On("alt", makeTrackingNode("same"))

		assert.ErrorIs(t, Validate(a), ErrDuplicateNode)
	})

	t.Run("diamond is not a cycle", func(t *testing.T) {
		a := makeTrackingNode("a")
		end := makeTrackingNode("end")
		a.Connect(makeTrackingNode("b")).Connect(end)
		a.On("alt", makeTrackingNode("c")).Connect(end)

		assert.NoError(t, Validate(a))
	})
}

// TestStatus_String tests status names.
func TestStatus_String(t *testing.T) {
	assert.Equal(t, "idle", StatusIdle.String())
	assert.Equal(t, "running", StatusRunning.String())
	assert.Equal(t, "completed", StatusCompleted.String())
	assert.Equal(t, "failed", StatusFailed.String())
	assert.Equal(t, "unknown", Status(99).String())
}
