package sanitizer

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/AntonStoeckl/docstore-sanitizer/docstore"
)

const (
	MetricStrategyDuration = "sanitizer_strategy_duration_seconds"
	MetricDocumentsDeleted = "sanitizer_documents_deleted_total"
	MetricCollectionErrors = "sanitizer_collection_errors_total"
	MetricRunDuration      = "sanitizer_run_duration_seconds"

	SpanNameRun         = "sanitizer.run"
	spanNamePrefix      = "sanitizer."
	SpanAttrMode        = "mode"
	SpanAttrStrategy    = "strategy"
	SpanAttrCollection  = "collection"
	SpanAttrFound       = "found"
	SpanAttrDeleted     = "deleted"
	SpanAttrErrorType   = "error_type"
	SpanAttrTotal       = "total_deleted"
	LabelStatus         = "status"
	durationAttrFormat  = "%.2f"
	spanAttrDurationMS  = "duration_ms"
	errorTypeConnection = "connection_failed"
	errorTypePredicate  = "predicate_evaluation"
	errorTypeNotFound   = "collection_not_found"
	errorTypeOther      = "other"

	logMsgRunStarted       = "sanitizer run started"
	logMsgRunFinished      = "sanitizer run finished"
	logMsgRunAborted       = "sanitizer run aborted"
	logMsgSweepFinished    = "sanitizer sweep finished"
	logMsgSweepSkipped     = "sanitizer sweep skipped"
	logMsgSweepFailed      = "sanitizer sweep failed"
	logMsgSweepPartial     = "sanitizer sweep only partially completed"
	logMsgSampleDocuments  = "sample documents selected for deletion"
	logMsgSamplingFailed   = "sampling documents failed"
	logMsgCountFailed      = "counting documents failed"
	logMsgStateTransition  = "sanitizer state transition"
	logAttrMode            = "mode"
	logAttrStrategy        = "strategy"
	logAttrCollection      = "collection"
	logAttrFound           = "found"
	logAttrDeleted         = "deleted"
	logAttrStatus          = "status"
	logAttrError           = "error"
	logAttrSampleIDs       = "sample_ids"
	logAttrTotalDeleted    = "total_deleted"
	logAttrDurationMS      = "duration_ms"
	logAttrFromState       = "from"
	logAttrToState         = "to"
	logAttrCollectionCount = "collections"
	logAttrReason          = "reason"

	skipReasonCollectionNotFound = "collection_not_found"
	skipReasonNothingToScan      = "nothing_to_scan"
)

// instruments bundles the optional observability collaborators of the Controller.
type instruments struct {
	logger           docstore.Logger
	contextualLogger docstore.ContextualLogger
	metricsCollector docstore.MetricsCollector
	tracingCollector docstore.TracingCollector
}

func (in *instruments) debug(ctx context.Context, msg string, args ...any) {
	if in.logger != nil {
		in.logger.Debug(msg, args...)
	}
	if in.contextualLogger != nil {
		in.contextualLogger.DebugContext(ctx, msg, args...)
	}
}

func (in *instruments) info(ctx context.Context, msg string, args ...any) {
	if in.logger != nil {
		in.logger.Info(msg, args...)
	}
	if in.contextualLogger != nil {
		in.contextualLogger.InfoContext(ctx, msg, args...)
	}
}

func (in *instruments) warn(ctx context.Context, msg string, args ...any) {
	if in.logger != nil {
		in.logger.Warn(msg, args...)
	}
	if in.contextualLogger != nil {
		in.contextualLogger.WarnContext(ctx, msg, args...)
	}
}

func (in *instruments) error(ctx context.Context, msg string, args ...any) {
	if in.logger != nil {
		in.logger.Error(msg, args...)
	}
	if in.contextualLogger != nil {
		in.contextualLogger.ErrorContext(ctx, msg, args...)
	}
}

func (in *instruments) startSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, docstore.SpanContext) {
	if in.tracingCollector == nil {
		return ctx, nil
	}

	return in.tracingCollector.StartSpan(ctx, name, attrs)
}

func (in *instruments) finishSpan(span docstore.SpanContext, status string, start time.Time, attrs map[string]string) {
	if span == nil {
		return
	}

	span.AddAttribute(spanAttrDurationMS, fmt.Sprintf(durationAttrFormat, toMilliseconds(time.Since(start))))
	in.tracingCollector.FinishSpan(span, status, attrs)
}

func (in *instruments) recordDuration(ctx context.Context, metric string, duration time.Duration, labels map[string]string) {
	if in.metricsCollector == nil {
		return
	}

	if contextual, ok := in.metricsCollector.(docstore.ContextualMetricsCollector); ok {
		contextual.RecordDurationContext(ctx, metric, duration, labels)
		return
	}

	in.metricsCollector.RecordDuration(metric, duration, labels)
}

func (in *instruments) recordValue(ctx context.Context, metric string, value float64, labels map[string]string) {
	if in.metricsCollector == nil {
		return
	}

	if contextual, ok := in.metricsCollector.(docstore.ContextualMetricsCollector); ok {
		contextual.RecordValueContext(ctx, metric, value, labels)
		return
	}

	in.metricsCollector.RecordValue(metric, value, labels)
}

func (in *instruments) incrementCounter(ctx context.Context, metric string, labels map[string]string) {
	if in.metricsCollector == nil {
		return
	}

	if contextual, ok := in.metricsCollector.(docstore.ContextualMetricsCollector); ok {
		contextual.IncrementCounterContext(ctx, metric, labels)
		return
	}

	in.metricsCollector.IncrementCounter(metric, labels)
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
