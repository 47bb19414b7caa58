// Package helper provides test doubles for the observability interfaces of the docstore and sanitizer packages.
//
// All spies record calls behind a mutex and expose fluent matchers:
//
//	assert.True(t, metrics.HasDurationRecordForMetric("docstore_operation_duration_seconds").
//		WithOperation("count").
//		WithStatus("success").
//		Assert())
package helper
