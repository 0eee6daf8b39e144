package pipeline

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ctxKey struct{}

// TestNewContext_Defaults tests default services.
func TestNewContext_Defaults(t *testing.T) {
	ctx := NewContext(context.Background())

	assert.NotNil(t, ctx.Logger())
	assert.NotEmpty(t, ctx.RunID())
	assert.Empty(t, ctx.NodeID())
}

// TestNewContext_Options tests context options.
func TestNewContext_Options(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := NewContext(context.Background(),
		WithLogger(logger),
		WithContextRunID("run-7"))

	assert.Same(t, logger, ctx.Logger())
	assert.Equal(t, "run-7", ctx.RunID())
}

// TestNewContext_NilLoggerIgnored tests that a nil logger keeps the default.
func TestNewContext_NilLoggerIgnored(t *testing.T) {
	ctx := NewContext(context.Background(), WithLogger(nil))
	assert.NotNil(t, ctx.Logger())
}

// TestContext_ValuesPropagate tests that values from the base context reach nodes.
func TestContext_ValuesPropagate(t *testing.T) {
	base := context.WithValue(context.Background(), ctxKey{}, "client")

	var seen any
	n := NewNode[State, string, string]("probe", stepFunc{
		prepare: func(ctx Context, _ *State) (string, error) {
			seen = ctx.Value(ctxKey{})
			return "", nil
		},
	})

	_, err := NewFlow(n).Run(NewContext(base), &State{})

	require.NoError(t, err)
	assert.Equal(t, "client", seen)
}
