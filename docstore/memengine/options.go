package memengine

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

// WithClock sets the clock used to mint identifiers for documents inserted without one.
func WithClock(now func() time.Time) Option {
	return func(ds *DocumentStore) error {
		ds.now = now
		return nil
	}
}

// WithFailure makes every operation on the collection fail with err. It lets tests simulate store errors.
func WithFailure(collection string, operation string, err error) Option {
	return func(ds *DocumentStore) error {
		ds.failures[failureKey{collection: collection, operation: operation}] = err
		return nil
	}
}

// WithLogger sets the logger for the DocumentStore.
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
