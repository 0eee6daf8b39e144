package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// setupTracingTest installs a tracer provider with an in-memory exporter.
func setupTracingTest(t *testing.T) (*tracetest.InMemoryExporter, func()) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	originalProvider := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	tracer = otel.Tracer("pipeline")

	cleanup := func() {
		otel.SetTracerProvider(originalProvider)
		tracer = otel.Tracer("pipeline")
		if err := tp.Shutdown(context.Background()); err != nil {
			t.Logf("Error shutting down tracer provider: %v", err)
		}
	}

	return exporter, cleanup
}

func attrString(attrs []attribute.KeyValue, key string) string {
	for _, a := range attrs {
		if string(a.Key) == key {
			return a.Value.AsString()
		}
	}
	return ""
}

func TestStartRunSpan(t *testing.T) {
	exporter, cleanup := setupTracingTest(t)
	defer cleanup()

	_, span := StartRunSpan(context.Background(), "tutorial", "run-123")
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "pipeline.run", spans[0].Name)
	assert.Equal(t, "tutorial", attrString(spans[0].Attributes, "flow.name"))
	assert.Equal(t, "run-123", attrString(spans[0].Attributes, "run.id"))
}

func TestStartNodeSpan_IsChildOfRun(t *testing.T) {
	exporter, cleanup := setupTracingTest(t)
	defer cleanup()

	ctx, runSpan := StartRunSpan(context.Background(), "tutorial", "run-1")
	_, nodeSpan := StartNodeSpan(ctx, "fetch_files")
	nodeSpan.End()
	runSpan.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)

	node := spans[0]
	run := spans[1]
	assert.Equal(t, "pipeline.node.fetch_files", node.Name)
	assert.Equal(t, run.SpanContext.SpanID(), node.Parent.SpanID())
}

func TestEndSpanWithError(t *testing.T) {
	exporter, cleanup := setupTracingTest(t)
	defer cleanup()

	_, okSpan := StartNodeSpan(context.Background(), "ok")
	EndSpanWithError(okSpan, nil)
	_, badSpan := StartNodeSpan(context.Background(), "bad")
	EndSpanWithError(badSpan, errors.New("failed"))

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, codes.Ok, spans[0].Status.Code)
	assert.Equal(t, codes.Error, spans[1].Status.Code)
	assert.Equal(t, "failed", spans[1].Status.Description)
	require.NotEmpty(t, spans[1].Events, "error recorded as span event")
}

func TestEndSpanWithError_NilSpan(t *testing.T) {
	assert.NotPanics(t, func() {
		EndSpanWithError(nil, errors.New("x"))
	})
}

func TestAddSpanEvent(t *testing.T) {
	exporter, cleanup := setupTracingTest(t)
	defer cleanup()

	ctx, span := StartNodeSpan(context.Background(), "write_chapters")
	AddSpanEvent(ctx, "batch.item_failed", attribute.Int("item.index", 2))
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	require.Len(t, spans[0].Events, 1)
	assert.Equal(t, "batch.item_failed", spans[0].Events[0].Name)
}

func TestNoopSpanManager(t *testing.T) {
	var m SpanManager = NoopSpanManager{}
	ctx := context.Background()

	got, span := m.StartRunSpan(ctx, "f", "r")
	assert.Equal(t, ctx, got)
	assert.False(t, span.IsRecording())
	assert.Equal(t, trace.SpanContext{}, span.SpanContext())
	assert.NotPanics(t, func() { m.EndSpanWithError(span, nil) })
}
