package sanitizer

import (
	"errors"
	"time"

	"github.com/AntonStoeckl/docstore-sanitizer/docstore"
)

// DefaultSampleSize is the number of sample documents logged per strategy and collection.
const DefaultSampleSize = 3

// ErrInvalidSampleSize is returned for a negative sample size.
var ErrInvalidSampleSize = errors.New("sample size must not be negative")

// Option defines a functional option for configuring the Controller.
type Option func(*Controller) error

// WithRegistry replaces the default collection registry.
func WithRegistry(registry Registry) Option {
	return func(c *Controller) error {
		c.registry = registry
		return nil
	}
}

// WithPatternMatcher replaces the default PatternMatcher.
func WithPatternMatcher(matcher *PatternMatcher) Option {
	return func(c *Controller) error {
		if matcher == nil {
			return errors.Join(ErrInvalidPattern, errors.New("nil pattern matcher"))
		}
		c.patterns = matcher

		return nil
	}
}

// WithRecencyWindow sets the look-back window of the recency strategy.
func WithRecencyWindow(window time.Duration) Option {
	return func(c *Controller) error {
		recency, err := NewRecencyFilter(window)
		if err != nil {
			return err
		}
		c.recency = recency

		return nil
	}
}

// WithClock sets the clock that determines the invocation time.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) error {
		c.clock = now
		return nil
	}
}

// WithSampleSize sets how many sample documents are logged before each delete. Zero disables sampling.
func WithSampleSize(n int) Option {
	return func(c *Controller) error {
		if n < 0 {
			return ErrInvalidSampleSize
		}
		c.samples = n

		return nil
	}
}

// WithLogger sets the logger for run progress, outcomes, and sample documents.
func WithLogger(logger docstore.Logger) Option {
	return func(c *Controller) error {
		c.instruments.logger = logger
		return nil
	}
}

// WithContextualLogger sets the context-aware logger.
func WithContextualLogger(logger docstore.ContextualLogger) Option {
	return func(c *Controller) error {
		c.instruments.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(collector docstore.MetricsCollector) Option {
	return func(c *Controller) error {
		c.instruments.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector.
func WithTracing(collector docstore.TracingCollector) Option {
	return func(c *Controller) error {
		c.instruments.tracingCollector = collector
		return nil
	}
}
