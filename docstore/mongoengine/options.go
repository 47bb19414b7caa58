package mongoengine

import (
	"time"

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

// WithClock sets the clock used to mint identifiers.
func WithClock(now func() time.Time) Option {
	return func(ds *DocumentStore) error {
		ds.now = now
		return nil
	}
}

// WithLogger sets the logger for the DocumentStore.
// Query documents are logged as extended JSON at debug level.
func WithLogger(logger docstore.Logger) Option {
	return func(ds *DocumentStore) error {
		ds.logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the DocumentStore.
func WithContextualLogger(logger docstore.ContextualLogger) Option {
	return func(ds *DocumentStore) error {
		ds.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the DocumentStore.
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
