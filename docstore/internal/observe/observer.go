// Package observe holds the logging, metrics, and tracing plumbing shared by the docstore engines.
package observe

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/AntonStoeckl/docstore-sanitizer/docstore"
)

const (
	MetricOperationDuration = "docstore_operation_duration_seconds"
	MetricDocumentsAffected = "docstore_documents_affected"
	MetricErrors            = "docstore_errors_total"

	SpanAttrEngine     = "db.system"
	SpanAttrOperation  = "operation"
	SpanAttrCollection = "collection"
	SpanAttrDocuments  = "documents"
	SpanAttrErrorType  = "error_type"
	SpanAttrDurationMS = "duration_ms"

	LabelStatus   = "status"
	StatusSuccess = "success"
	StatusError   = "error"

	logMsgOperation    = "docstore operation: "
	logMsgStatement    = "executed statement for: "
	logMsgFailed       = "docstore operation failed: "
	logAttrError       = "error"
	logAttrStatement   = "statement"
	logAttrDurationMS  = "duration_ms"
	logAttrCollection  = "collection"
	logAttrDocuments   = "documents"
	spanNamePrefix     = "docstore."
	durationAttrFormat = "%.2f"
)

// Instruments bundles the optional observability collaborators of an engine.
// The zero value is valid and does nothing.
type Instruments struct {
	Engine           string
	Logger           docstore.Logger
	ContextualLogger docstore.ContextualLogger
	MetricsCollector docstore.MetricsCollector
	TracingCollector docstore.TracingCollector
}

// Operation tracks one store operation from start to finish.
type Operation struct {
	in         *Instruments
	ctx        context.Context
	span       docstore.SpanContext
	name       string
	collection string
	start      time.Time
}

// Start begins an operation and, with a TracingCollector, opens a span. The returned context carries the span.
func (in *Instruments) Start(ctx context.Context, operation, collection string) (*Operation, context.Context) {
	op := &Operation{
		in:         in,
		ctx:        ctx,
		name:       operation,
		collection: collection,
		start:      time.Now(),
	}

	if in.TracingCollector != nil {
		op.ctx, op.span = in.TracingCollector.StartSpan(ctx, spanNamePrefix+operation, map[string]string{
			SpanAttrEngine:     in.Engine,
			SpanAttrOperation:  operation,
			SpanAttrCollection: collection,
		})
	}

	return op, op.ctx
}

// Statement logs a native statement (SQL, BSON) at debug level.
func (op *Operation) Statement(statement string) {
	duration := ToMilliseconds(time.Since(op.start))

	if op.in.Logger != nil {
		op.in.Logger.Debug(logMsgStatement+op.name, logAttrDurationMS, duration, logAttrStatement, statement)
	}

	if op.in.ContextualLogger != nil {
		op.in.ContextualLogger.DebugContext(op.ctx, logMsgStatement+op.name, logAttrDurationMS, duration, logAttrStatement, statement)
	}
}

// Success finishes the operation, recording the number of affected documents.
func (op *Operation) Success(documents int64) {
	duration := time.Since(op.start)
	labels := op.labels(StatusSuccess)

	op.recordDuration(duration, labels)
	op.recordValue(float64(documents), labels)

	args := []any{
		logAttrCollection, op.collection,
		logAttrDocuments, documents,
		logAttrDurationMS, ToMilliseconds(duration),
	}

	if op.in.Logger != nil {
		op.in.Logger.Debug(logMsgOperation+op.name, args...)
	}

	if op.in.ContextualLogger != nil {
		op.in.ContextualLogger.DebugContext(op.ctx, logMsgOperation+op.name, args...)
	}

	if op.span != nil {
		op.span.AddAttribute(SpanAttrDocuments, fmt.Sprintf("%d", documents))
		op.span.AddAttribute(SpanAttrDurationMS, fmt.Sprintf(durationAttrFormat, ToMilliseconds(duration)))
		op.in.TracingCollector.FinishSpan(op.span, StatusSuccess, map[string]string{
			SpanAttrDocuments: fmt.Sprintf("%d", documents),
		})
	}
}

// Failure finishes the operation with an error of the given type.
func (op *Operation) Failure(err error, errorType string) {
	duration := time.Since(op.start)
	labels := op.labels(StatusError)

	op.recordDuration(duration, labels)

	if op.in.MetricsCollector != nil {
		errLabels := op.labels(StatusError)
		errLabels[SpanAttrErrorType] = errorType

		if contextual, ok := op.in.MetricsCollector.(docstore.ContextualMetricsCollector); ok {
			contextual.IncrementCounterContext(op.ctx, MetricErrors, errLabels)
		} else {
			op.in.MetricsCollector.IncrementCounter(MetricErrors, errLabels)
		}
	}

	args := []any{logAttrError, err.Error(), logAttrCollection, op.collection, SpanAttrErrorType, errorType}

	if op.in.Logger != nil {
		op.in.Logger.Error(logMsgFailed+op.name, args...)
	}

	if op.in.ContextualLogger != nil {
		op.in.ContextualLogger.ErrorContext(op.ctx, logMsgFailed+op.name, args...)
	}

	if op.span != nil {
		op.span.AddAttribute(SpanAttrErrorType, errorType)
		op.span.AddAttribute(SpanAttrDurationMS, fmt.Sprintf(durationAttrFormat, ToMilliseconds(duration)))
		op.in.TracingCollector.FinishSpan(op.span, StatusError, map[string]string{SpanAttrErrorType: errorType})
	}
}

// Warn logs a non-critical issue, e.g. a failed cleanup.
func (op *Operation) Warn(msg string, err error) {
	if op.in.Logger != nil {
		op.in.Logger.Warn(msg, logAttrError, err.Error())
	}

	if op.in.ContextualLogger != nil {
		op.in.ContextualLogger.WarnContext(op.ctx, msg, logAttrError, err.Error())
	}
}

func (op *Operation) labels(status string) map[string]string {
	return map[string]string{
		SpanAttrEngine:     op.in.Engine,
		SpanAttrOperation:  op.name,
		SpanAttrCollection: op.collection,
		LabelStatus:        status,
	}
}

func (op *Operation) recordDuration(duration time.Duration, labels map[string]string) {
	if op.in.MetricsCollector == nil {
		return
	}

	if contextual, ok := op.in.MetricsCollector.(docstore.ContextualMetricsCollector); ok {
		contextual.RecordDurationContext(op.ctx, MetricOperationDuration, duration, labels)
		return
	}

	op.in.MetricsCollector.RecordDuration(MetricOperationDuration, duration, labels)
}

func (op *Operation) recordValue(value float64, labels map[string]string) {
	if op.in.MetricsCollector == nil {
		return
	}

	if contextual, ok := op.in.MetricsCollector.(docstore.ContextualMetricsCollector); ok {
		contextual.RecordValueContext(op.ctx, MetricDocumentsAffected, value, labels)
		return
	}

	op.in.MetricsCollector.RecordValue(MetricDocumentsAffected, value, labels)
}

// ToMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func ToMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
