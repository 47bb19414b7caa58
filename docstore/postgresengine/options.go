package postgresengine

import (
	"github.com/AntonStoeckl/docstore-sanitizer/docstore"
)

// Option defines a functional option for configuring DocumentStore.
type Option func(*DocumentStore) error

// WithIDScheme sets the scheme used to mint identifiers for inserted documents.
func WithIDScheme(scheme docstore.IDScheme) Option {
	return func(ds *DocumentStore) error {
		if scheme == nil {
			return docstore.ErrUnknownIDScheme
		}

		ds.idScheme = scheme

		return nil
	}
}

// WithLogger sets the logger for the DocumentStore.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: SQL statements with execution timing (development use)
// Info level: Document counts, durations (production-safe)
// Warn level: Non-critical issues like cleanup failures
// Error level: Critical failures that cause operation failures.
func WithLogger(logger docstore.Logger) Option {
	return func(ds *DocumentStore) error {
		ds.logger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the DocumentStore.
// It receives operation durations, document counts, and database errors.
func WithMetrics(collector docstore.MetricsCollector) Option {
	return func(ds *DocumentStore) error {
		ds.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the DocumentStore.
func WithTracing(collector docstore.TracingCollector) Option {
	return func(ds *DocumentStore) error {
		ds.tracingCollector = collector
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the DocumentStore.
// The contextual logger will receive log messages with context information including
// automatic trace/span correlation when tracing is enabled.
func WithContextualLogger(logger docstore.ContextualLogger) Option {
	return func(ds *DocumentStore) error {
		ds.contextualLogger = logger
		return nil
	}
}
