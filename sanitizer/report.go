package sanitizer

import (
	"context"
	"errors"
	"maps"
	"slices"
	"time"

	"github.com/AntonStoeckl/docstore-sanitizer/docstore"
)

// Strategy names the detection strategy or destructive operation that produced an outcome.
type Strategy string

const (
	StrategyPattern       Strategy = "pattern"
	StrategyRecency       Strategy = "recency"
	StrategyOrphan        Strategy = "orphan"
	StrategyProtectedBulk Strategy = "protectedBulk"
	StrategyFullWipe      Strategy = "fullWipe"
	StrategySchemaReset   Strategy = "schemaReset"
)

// Status is the result of one strategy on one collection.
type Status string

const (
	StatusOK      Status = "ok"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
	StatusPartial Status = "partial"
)

// DeletionOutcome is the result of one strategy on one collection.
type DeletionOutcome struct {
	Collection string
	Strategy   Strategy
	Found      int64
	Deleted    int64
	Status     Status
	Err        error
}

// ErrorMessage returns the error text, or an empty string.
func (o DeletionOutcome) ErrorMessage() string {
	if o.Err == nil {
		return ""
	}

	return o.Err.Error()
}

// RunReport is the reconciliation report of one run.
type RunReport struct {
	Mode          Mode
	StartedAt     time.Time
	FinishedAt    time.Time
	TotalDeleted  int64
	PerCollection map[string][]DeletionOutcome
	PreRunCounts  map[string]int64
	PostRunCounts map[string]int64

	outcomes []DeletionOutcome
}

// Outcomes returns every outcome in the order it was recorded.
func (r RunReport) Outcomes() []DeletionOutcome {
	return slices.Clone(r.outcomes)
}

// Collections returns the collection names with a pre-run count, sorted.
func (r RunReport) Collections() []string {
	return slices.Sorted(maps.Keys(r.PreRunCounts))
}

// DeletedIn returns the number of documents deleted from the collection across all strategies.
func (r RunReport) DeletedIn(collection string) int64 {
	var deleted int64
	for _, o := range r.PerCollection[collection] {
		deleted += o.Deleted
	}

	return deleted
}

// Failed reports whether any outcome failed or only partially completed.
func (r RunReport) Failed() bool {
	return slices.ContainsFunc(r.outcomes, func(o DeletionOutcome) bool {
		return o.Status == StatusFailed || o.Status == StatusPartial
	})
}

// Duration returns the wall time of the run.
func (r RunReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// ReportAggregator accumulates a RunReport. It is the only writer of TotalDeleted.
type ReportAggregator struct {
	report RunReport
}

// NewReportAggregator starts the report of a run.
func NewReportAggregator(mode Mode, startedAt time.Time) *ReportAggregator {
	return &ReportAggregator{
		report: RunReport{
			Mode:          mode,
			StartedAt:     startedAt,
			PerCollection: make(map[string][]DeletionOutcome),
			PreRunCounts:  make(map[string]int64),
			PostRunCounts: make(map[string]int64),
		},
	}
}

// CapturePreRunCounts counts every collection before the mode runs.
func (a *ReportAggregator) CapturePreRunCounts(ctx context.Context, store docstore.Store, collections []string) error {
	return captureCounts(ctx, store, collections, a.report.PreRunCounts)
}

// CapturePostRunCounts counts every collection after the mode ran.
func (a *ReportAggregator) CapturePostRunCounts(ctx context.Context, store docstore.Store, collections []string) error {
	return captureCounts(ctx, store, collections, a.report.PostRunCounts)
}

// Record appends an outcome and adds its deleted count to the total.
func (a *ReportAggregator) Record(outcome DeletionOutcome) {
	a.report.outcomes = append(a.report.outcomes, outcome)
	a.report.PerCollection[outcome.Collection] = append(a.report.PerCollection[outcome.Collection], outcome)
	a.report.TotalDeleted += outcome.Deleted
}

func (a *ReportAggregator) TotalDeleted() int64 {
	return a.report.TotalDeleted
}

// Finish stamps the end time and returns a copy of the report.
func (a *ReportAggregator) Finish(finishedAt time.Time) RunReport {
	a.report.FinishedAt = finishedAt

	report := a.report
	report.outcomes = slices.Clone(a.report.outcomes)
	report.PreRunCounts = maps.Clone(a.report.PreRunCounts)
	report.PostRunCounts = maps.Clone(a.report.PostRunCounts)
	report.PerCollection = make(map[string][]DeletionOutcome, len(a.report.PerCollection))
	for collection, outcomes := range a.report.PerCollection {
		report.PerCollection[collection] = slices.Clone(outcomes)
	}

	return report
}

// captureCounts counts every document per collection. Missing collections count as zero,
// connection failures abort the capture.
func captureCounts(ctx context.Context, store docstore.Store, collections []string, into map[string]int64) error {
	everything := docstore.BuildFilter().MatchingAll()

	for _, collection := range collections {
		count, err := store.Count(ctx, collection, everything)

		switch {
		case err == nil:
			into[collection] = count
		case errors.Is(err, docstore.ErrCollectionNotFound):
			into[collection] = 0
		default:
			return err
		}
	}

	return nil
}
