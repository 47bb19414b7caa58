package oteladapters_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/AntonStoeckl/docstore-sanitizer/docstore/oteladapters"
)

func newCollectorWithReader() (*oteladapters.MetricsCollector, *sdkmetric.ManualReader) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	return oteladapters.NewMetricsCollector(provider.Meter("test")), reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	return rm
}

func findMetric(t *testing.T, rm metricdata.ResourceMetrics, name string) metricdata.Metrics {
	t.Helper()

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m
			}
		}
	}

	require.Failf(t, "metric not found", "metric %q", name)

	return metricdata.Metrics{}
}

func Test_MetricsCollector_RecordDuration(t *testing.T) {
	// setup
	collector, reader := newCollectorWithReader()

	// act
	collector.RecordDuration("docstore_operation_duration_seconds", 150*time.Millisecond, map[string]string{
		"operation": "count",
		"status":    "success",
	})

	// assert
	m := findMetric(t, collect(t, reader), "docstore_operation_duration_seconds")
	histogram, ok := m.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, histogram.DataPoints, 1)
	assert.Equal(t, uint64(1), histogram.DataPoints[0].Count)
	assert.InDelta(t, 0.15, histogram.DataPoints[0].Sum, 0.001)
	assert.Equal(t, "s", m.Unit)

	expected := attribute.NewSet(attribute.String("operation", "count"), attribute.String("status", "success"))
	assert.True(t, histogram.DataPoints[0].Attributes.Equals(&expected))
}

func Test_MetricsCollector_IncrementCounterContext(t *testing.T) {
	// setup
	collector, reader := newCollectorWithReader()
	labels := map[string]string{"strategy": "orphan"}

	// act
	collector.IncrementCounter("sanitizer_collection_errors_total", labels)
	collector.IncrementCounterContext(context.Background(), "sanitizer_collection_errors_total", labels)

	// assert
	m := findMetric(t, collect(t, reader), "sanitizer_collection_errors_total")
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(2), sum.DataPoints[0].Value)
}

func Test_MetricsCollector_RecordValue_KeepsLastValue(t *testing.T) {
	// setup
	collector, reader := newCollectorWithReader()
	labels := map[string]string{"collection": "users"}

	// act
	collector.RecordValue("docstore_documents_affected", 3, labels)
	collector.RecordValueContext(context.Background(), "docstore_documents_affected", 7, labels)

	// assert
	m := findMetric(t, collect(t, reader), "docstore_documents_affected")
	gauge, ok := m.Data.(metricdata.Gauge[float64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, float64(7), gauge.DataPoints[0].Value)
}

func Test_MetricsCollector_IsSafeForConcurrentUse(t *testing.T) {
	// setup
	collector, reader := newCollectorWithReader()

	// act
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			collector.IncrementCounter("concurrent_total", nil)
		}()
	}
	wg.Wait()

	// assert
	m := findMetric(t, collect(t, reader), "concurrent_total")
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(20), sum.DataPoints[0].Value)
}
