package sanitizer_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/docstore-sanitizer/docstore"
	"github.com/AntonStoeckl/docstore-sanitizer/docstore/memengine"
	"github.com/AntonStoeckl/docstore-sanitizer/sanitizer"
	"github.com/AntonStoeckl/docstore-sanitizer/testutil/fixtures"
)

func Test_ReportAggregator_Record_SumsDeletedCounts(t *testing.T) {
	// arrange
	aggregator := sanitizer.NewReportAggregator(sanitizer.ModeNormal, fixedNow)

	// act
	aggregator.Record(sanitizer.DeletionOutcome{Collection: "users", Strategy: sanitizer.StrategyPattern, Found: 3, Deleted: 3, Status: sanitizer.StatusOK})
	aggregator.Record(sanitizer.DeletionOutcome{Collection: "orders", Strategy: sanitizer.StrategyPattern, Status: sanitizer.StatusSkipped})
	aggregator.Record(sanitizer.DeletionOutcome{Collection: "users", Strategy: sanitizer.StrategyRecency, Found: 2, Deleted: 1, Status: sanitizer.StatusPartial, Err: errors.New("x")})
	report := aggregator.Finish(fixedNow.Add(time.Second))

	// assert
	assert.Equal(t, int64(4), report.TotalDeleted)
	assert.Equal(t, int64(4), report.DeletedIn("users"))
	assert.Equal(t, int64(0), report.DeletedIn("orders"))
	assert.Len(t, report.Outcomes(), 3)
	assert.Equal(t, sanitizer.StrategyRecency, report.Outcomes()[2].Strategy)
	assert.Equal(t, "x", report.Outcomes()[2].ErrorMessage())
	assert.Equal(t, time.Second, report.Duration())
	assert.True(t, report.Failed())
}

func Test_ReportAggregator_Finish_ReturnsIndependentCopy(t *testing.T) {
	// arrange
	aggregator := sanitizer.NewReportAggregator(sanitizer.ModeFullWipe, fixedNow)
	aggregator.Record(sanitizer.DeletionOutcome{Collection: "users", Deleted: 1, Status: sanitizer.StatusOK})
	report := aggregator.Finish(fixedNow)

	// act
	aggregator.Record(sanitizer.DeletionOutcome{Collection: "users", Deleted: 5, Status: sanitizer.StatusOK})

	// assert
	assert.Equal(t, int64(1), report.TotalDeleted)
	assert.Len(t, report.PerCollection["users"], 1)
	assert.Len(t, report.Outcomes(), 1)
}

func Test_ReportAggregator_CaptureCounts(t *testing.T) {
	// setup
	ctx := context.Background()
	store := newStore(t)
	fixtures.GivenDocuments(t, ctx, store, sanitizer.CollectionUsers,
		fixtures.BuildUser("u1", "Rita", "r@mail.com", "customer", fixedNow),
		fixtures.BuildUser("u2", "Max", "m@mail.com", "customer", fixedNow),
	)
	aggregator := sanitizer.NewReportAggregator(sanitizer.ModeNormal, fixedNow)

	// act
	err := aggregator.CapturePreRunCounts(ctx, store, []string{sanitizer.CollectionUsers, sanitizer.CollectionOrders})
	require.NoError(t, err)
	report := aggregator.Finish(fixedNow)

	// assert
	assert.Equal(t, map[string]int64{sanitizer.CollectionUsers: 2, sanitizer.CollectionOrders: 0}, report.PreRunCounts)
	assert.Equal(t, []string{sanitizer.CollectionOrders, sanitizer.CollectionUsers}, report.Collections())
}

func Test_ReportAggregator_CaptureCounts_WhenConnectionFails(t *testing.T) {
	// arrange
	store := newStore(t, memengine.WithFailure(memengine.AnyCollection, memengine.OperationCount, docstore.ErrConnectionFailed))
	aggregator := sanitizer.NewReportAggregator(sanitizer.ModeNormal, fixedNow)

	// act
	err := aggregator.CapturePostRunCounts(context.Background(), store, []string{sanitizer.CollectionUsers})

	// assert
	assert.ErrorIs(t, err, docstore.ErrConnectionFailed)
}
