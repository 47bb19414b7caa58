package oteladapters_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/AntonStoeckl/docstore-sanitizer/docstore/oteladapters"
)

func newTracingCollectorWithExporter() (*oteladapters.TracingCollector, *tracetest.InMemoryExporter) {
	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	return oteladapters.NewTracingCollector(provider.Tracer("test")), exporter
}

func assertSpanHasAttribute(t *testing.T, span tracetest.SpanStub, key, value string) {
	t.Helper()

	assert.Contains(t, span.Attributes, attribute.String(key, value))
}

func Test_TracingCollector_StartAndFinishSpan(t *testing.T) {
	// setup
	collector, exporter := newTracingCollectorWithExporter()

	// act
	ctx, spanCtx := collector.StartSpan(context.Background(), "docstore.count", map[string]string{
		"operation":  "count",
		"collection": "users",
	})
	spanCtx.AddAttribute("documents", "3")
	collector.FinishSpan(spanCtx, "success", map[string]string{"duration_ms": "1.00"})

	// assert
	assert.NotNil(t, ctx)
	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "docstore.count", spans[0].Name)
	assertSpanHasAttribute(t, spans[0], "operation", "count")
	assertSpanHasAttribute(t, spans[0], "collection", "users")
	assertSpanHasAttribute(t, spans[0], "documents", "3")
	assertSpanHasAttribute(t, spans[0], "duration_ms", "1.00")
	assert.Equal(t, codes.Ok, spans[0].Status.Code)
}

func Test_TracingCollector_FinishSpan_MapsStatus(t *testing.T) {
	testCases := []struct {
		status       string
		expectedCode codes.Code
	}{
		{status: "success", expectedCode: codes.Ok},
		{status: "skipped", expectedCode: codes.Ok},
		{status: "error", expectedCode: codes.Error},
		{status: "partial", expectedCode: codes.Error},
		{status: "canceled", expectedCode: codes.Error},
		{status: "something", expectedCode: codes.Unset},
	}

	for _, tc := range testCases {
		t.Run(tc.status, func(t *testing.T) {
			// setup
			collector, exporter := newTracingCollectorWithExporter()

			// act
			_, spanCtx := collector.StartSpan(context.Background(), "sanitizer.strategy", nil)
			collector.FinishSpan(spanCtx, tc.status, nil)

			// assert
			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			assert.Equal(t, tc.expectedCode, spans[0].Status.Code)
		})
	}
}

func Test_TracingCollector_ChildSpansShareTheTrace(t *testing.T) {
	// setup
	collector, exporter := newTracingCollectorWithExporter()

	// act
	ctx, parent := collector.StartSpan(context.Background(), "sanitizer.run", nil)
	_, child := collector.StartSpan(ctx, "docstore.delete_many", nil)
	collector.FinishSpan(child, "success", nil)
	collector.FinishSpan(parent, "success", nil)

	// assert
	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, spans[1].SpanContext.TraceID(), spans[0].SpanContext.TraceID())
	assert.Equal(t, spans[1].SpanContext.SpanID(), spans[0].Parent.SpanID())
}
