// Package oteladapters provides OpenTelemetry implementations of the docstore observability interfaces.
//
// The adapters serve both the store engines and the sanitizer:
//   - MetricsCollector maps durations to histograms, counters to counters, values to gauges
//   - TracingCollector maps spans to OpenTelemetry spans
//   - SlogBridgeLogger logs through the otelslog bridge with automatic trace correlation
//   - OTelLogger emits records through the OpenTelemetry logs API directly
package oteladapters
