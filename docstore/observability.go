package docstore

import (
	"context"
	"time"
)

// The interfaces below keep engines and the sanitizer free of any concrete observability backend.
// All of them are optional: a nil collaborator means the signal is not emitted.
// See package oteladapters for OpenTelemetry implementations.

// Logger receives statement logs at debug level and operational messages above it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// ContextualLogger is preferred over Logger when the records should carry the active span.
type ContextualLogger interface {
	DebugContext(ctx context.Context, msg string, args ...any)
	InfoContext(ctx context.Context, msg string, args ...any)
	WarnContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
}

// MetricsCollector records operation durations, affected document counts, and error counters.
type MetricsCollector interface {
	RecordDuration(metric string, duration time.Duration, labels map[string]string)
	IncrementCounter(metric string, labels map[string]string)
	RecordValue(metric string, value float64, labels map[string]string)
}

// ContextualMetricsCollector is used instead of the plain methods when a collector implements it,
// so exemplars can link to the current trace.
type ContextualMetricsCollector interface {
	MetricsCollector
	RecordDurationContext(ctx context.Context, metric string, duration time.Duration, labels map[string]string)
	IncrementCounterContext(ctx context.Context, metric string, labels map[string]string)
	RecordValueContext(ctx context.Context, metric string, value float64, labels map[string]string)
}

// TracingCollector opens one span per store operation and per sanitizer sweep.
type TracingCollector interface {
	StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, SpanContext)
	FinishSpan(spanCtx SpanContext, status string, attrs map[string]string)
}

// SpanContext is a started span that attributes can still be added to.
type SpanContext interface {
	SetStatus(status string)
	AddAttribute(key, value string)
}
