package sanitizer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AntonStoeckl/docstore-sanitizer/docstore"
)

// runState is a state of the run state machine.
type runState string

const (
	stateIdle      runState = "idle"
	statePreCount  runState = "capturingPreRunCounts"
	stateSweeping  runState = "sweeping"
	statePostCount runState = "capturingPostRunCounts"
	stateFinished  runState = "finished"
	stateAborted   runState = "aborted"
)

const (
	statusRunOK     = "ok"
	statusRunFailed = "failed"
)

var allowedTransitions = map[runState][]runState{
	stateIdle:      {statePreCount, stateAborted},
	statePreCount:  {stateSweeping, stateAborted},
	stateSweeping:  {statePostCount, stateAborted},
	statePostCount: {stateFinished, stateAborted},
}

var errIllegalTransition = errors.New("illegal state transition")

// Controller executes one Mode against a store. Runs are sequential; a Controller may run several times.
type Controller struct {
	store    docstore.Store
	registry Registry
	patterns *PatternMatcher
	recency  *RecencyFilter
	clock    func() time.Time
	samples  int

	instruments instruments
}

// NewController creates a Controller with the default registry, patterns, and a 48h recency window.
func NewController(store docstore.Store, options ...Option) (*Controller, error) {
	if store == nil {
		return nil, ErrNilStore
	}

	patterns, err := NewPatternMatcher()
	if err != nil {
		return nil, err
	}

	c := &Controller{
		store:    store,
		registry: DefaultRegistry(),
		patterns: patterns,
		recency:  &RecencyFilter{window: DefaultRecencyWindow},
		clock:    time.Now,
		samples:  DefaultSampleSize,
	}

	for _, option := range options {
		if err := option(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

func (c *Controller) Registry() Registry {
	return c.registry
}

// run holds the state of one invocation.
type run struct {
	mode        Mode
	now         time.Time
	state       runState
	aggregator  *ReportAggregator
	partialErrs []error
}

// Run executes the mode and returns the report.
//
// A CollectionNotFound skips the collection; predicate failures mark the outcome failed and the run continues.
// When a delete fails after its candidates were counted, the report is returned together with ErrPartialDeletion.
// A connection failure aborts the run, and the partial report is returned together with ErrRunAborted.
func (c *Controller) Run(ctx context.Context, mode Mode) (RunReport, error) {
	if !mode.Valid() {
		return RunReport{}, errors.Join(ErrInvalidMode, fmt.Errorf("%s", mode))
	}

	now := c.clock()
	r := &run{
		mode:       mode,
		now:        now,
		state:      stateIdle,
		aggregator: NewReportAggregator(mode, now),
	}

	start := time.Now()
	ctx, span := c.instruments.startSpan(ctx, SpanNameRun, map[string]string{SpanAttrMode: mode.String()})

	c.instruments.info(ctx, logMsgRunStarted, logAttrMode, mode.String(), logAttrCollectionCount, len(c.registry.descriptors))

	if err := c.execute(ctx, r); err != nil {
		_ = c.transition(ctx, r, stateAborted)
		report := r.aggregator.Finish(c.clock())

		c.instruments.error(ctx, logMsgRunAborted,
			logAttrMode, mode.String(),
			logAttrError, err.Error(),
			logAttrTotalDeleted, report.TotalDeleted,
		)
		c.finishRun(ctx, span, start, report, statusRunFailed)

		return report, errors.Join(ErrRunAborted, err)
	}

	report := r.aggregator.Finish(c.clock())

	c.instruments.info(ctx, logMsgRunFinished,
		logAttrMode, mode.String(),
		logAttrTotalDeleted, report.TotalDeleted,
		logAttrDurationMS, toMilliseconds(time.Since(start)),
	)

	if len(r.partialErrs) > 0 {
		c.finishRun(ctx, span, start, report, string(StatusPartial))
		return report, errors.Join(append([]error{ErrPartialDeletion}, r.partialErrs...)...)
	}

	c.finishRun(ctx, span, start, report, statusRunOK)

	return report, nil
}

func (c *Controller) execute(ctx context.Context, r *run) error {
	names := c.registry.Names()

	if err := c.transition(ctx, r, statePreCount); err != nil {
		return err
	}

	if err := r.aggregator.CapturePreRunCounts(ctx, c.store, names); err != nil {
		return err
	}

	if err := c.transition(ctx, r, stateSweeping); err != nil {
		return err
	}

	for _, strategy := range r.mode.Plan() {
		if err := c.executeStrategy(ctx, r, strategy); err != nil {
			return err
		}
	}

	if err := c.transition(ctx, r, statePostCount); err != nil {
		return err
	}

	if err := r.aggregator.CapturePostRunCounts(ctx, c.store, names); err != nil {
		return err
	}

	return c.transition(ctx, r, stateFinished)
}

func (c *Controller) transition(ctx context.Context, r *run, to runState) error {
	for _, allowed := range allowedTransitions[r.state] {
		if allowed == to {
			c.instruments.debug(ctx, logMsgStateTransition, logAttrFromState, string(r.state), logAttrToState, string(to))
			r.state = to

			return nil
		}
	}

	return errors.Join(errIllegalTransition, fmt.Errorf("%s -> %s", r.state, to))
}

// executeStrategy sweeps every collection the strategy applies to. It returns only fatal errors.
func (c *Controller) executeStrategy(ctx context.Context, r *run, strategy Strategy) error {
	switch strategy {
	case StrategyPattern:
		for _, descriptor := range c.registry.descriptors {
			filter, ok := c.patterns.Filter(descriptor)
			if !ok {
				c.instruments.debug(ctx, logMsgSweepSkipped,
					logAttrCollection, descriptor.name,
					logAttrStrategy, string(strategy),
					logAttrReason, skipReasonNothingToScan,
				)
				c.fold(ctx, r, DeletionOutcome{Collection: descriptor.name, Strategy: strategy, Status: StatusSkipped})
				continue
			}

			if err := c.sweep(ctx, r, descriptor.name, strategy, filter); err != nil {
				return err
			}
		}

	case StrategyRecency:
		scheme := c.store.IDScheme()
		for _, descriptor := range c.registry.descriptors {
			if err := c.sweep(ctx, r, descriptor.name, strategy, c.recency.Filter(descriptor, scheme, r.now)); err != nil {
				return err
			}
		}

	case StrategyOrphan:
		return c.sweepOrphans(ctx, r)

	case StrategyProtectedBulk:
		for _, descriptor := range c.registry.descriptors {
			filter := docstore.BuildFilter().MatchingAll()
			if role, ok := descriptor.ProtectedRole(); ok {
				filter = docstore.BuildFilter().Matching(docstore.Everything()).ExcludingMatches(role.Condition()).Finalize()
			}

			if err := c.sweep(ctx, r, descriptor.name, strategy, filter); err != nil {
				return err
			}
		}

	case StrategyFullWipe:
		for _, descriptor := range c.registry.descriptors {
			if err := c.sweep(ctx, r, descriptor.name, strategy, docstore.BuildFilter().MatchingAll()); err != nil {
				return err
			}
		}

	case StrategySchemaReset:
		for _, descriptor := range c.registry.descriptors {
			start := time.Now()
			spanCtx, span := c.startSweepSpan(ctx, descriptor.name, strategy)

			outcome := c.resetCollection(spanCtx, descriptor.name)
			c.observe(spanCtx, span, start, outcome)
			c.fold(ctx, r, outcome)

			if isFatal(outcome.Err) {
				return outcome.Err
			}
		}

	default:
		return errors.Join(ErrInvalidMode, fmt.Errorf("unknown strategy %q", strategy))
	}

	return nil
}

// sweepOrphans sweeps the dependent collections in dependency order. Parent identifiers are fetched
// once per sweep and again after the parent lost documents, so one sweep reaches a fixed point.
func (c *Controller) sweepOrphans(ctx context.Context, r *run) error {
	detector := NewOrphanDetector(c.store)

	for _, dependent := range c.registry.Dependents() {
		descriptor, _ := c.registry.Lookup(dependent.Name)

		filter, err := detector.Filter(ctx, descriptor, dependent)
		if err != nil {
			outcome := DeletionOutcome{Collection: dependent.Name, Strategy: StrategyOrphan, Status: StatusFailed, Err: err}
			c.observe(ctx, nil, time.Now(), outcome)
			c.fold(ctx, r, outcome)

			if isFatal(err) {
				return err
			}

			continue
		}

		deletedBefore := r.aggregator.TotalDeleted()

		if err := c.sweep(ctx, r, dependent.Name, StrategyOrphan, filter); err != nil {
			return err
		}

		if r.aggregator.TotalDeleted() > deletedBefore {
			detector.Invalidate(dependent.Name)
		}
	}

	return nil
}

// sweep runs the two-phase delete of one collection and folds the outcome into the report.
func (c *Controller) sweep(ctx context.Context, r *run, collection string, strategy Strategy, filter docstore.Filter) error {
	start := time.Now()
	spanCtx, span := c.startSweepSpan(ctx, collection, strategy)

	outcome := c.twoPhaseDelete(spanCtx, collection, strategy, filter)
	c.observe(spanCtx, span, start, outcome)
	c.fold(ctx, r, outcome)

	if isFatal(outcome.Err) {
		return outcome.Err
	}

	return nil
}

// twoPhaseDelete counts and samples the candidates, then deletes them with the identical filter.
func (c *Controller) twoPhaseDelete(ctx context.Context, collection string, strategy Strategy, filter docstore.Filter) DeletionOutcome {
	outcome := DeletionOutcome{Collection: collection, Strategy: strategy}

	found, err := c.store.Count(ctx, collection, filter)
	if err != nil {
		if errors.Is(err, docstore.ErrCollectionNotFound) {
			outcome.Status = StatusSkipped
			return outcome
		}

		c.instruments.warn(ctx, logMsgCountFailed, logAttrCollection, collection, logAttrStrategy, string(strategy), logAttrError, err.Error())
		outcome.Status = StatusFailed
		outcome.Err = err

		return outcome
	}

	outcome.Found = found
	if found == 0 {
		outcome.Status = StatusOK
		return outcome
	}

	if err := c.logSamples(ctx, collection, strategy, filter); err != nil {
		outcome.Status = StatusFailed
		outcome.Err = err

		return outcome
	}

	deleted, err := c.store.DeleteMany(ctx, collection, filter)
	if err != nil {
		if errors.Is(err, docstore.ErrCollectionNotFound) {
			outcome.Status = StatusSkipped
			return outcome
		}

		outcome.Status = StatusPartial
		outcome.Err = errors.Join(ErrPartialDeletion, err)

		return outcome
	}

	outcome.Deleted = deleted
	outcome.Status = StatusOK

	return outcome
}

// logSamples logs a few of the documents about to be deleted. Only fatal errors are returned.
func (c *Controller) logSamples(ctx context.Context, collection string, strategy Strategy, filter docstore.Filter) error {
	if c.samples == 0 {
		return nil
	}

	docs, err := c.store.Find(ctx, collection, filter, c.samples)
	if err != nil {
		if isFatal(err) {
			return err
		}

		c.instruments.warn(ctx, logMsgSamplingFailed, logAttrCollection, collection, logAttrError, err.Error())

		return nil
	}

	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID())
	}

	c.instruments.info(ctx, logMsgSampleDocuments,
		logAttrCollection, collection,
		logAttrStrategy, string(strategy),
		logAttrSampleIDs, strings.Join(ids, ","),
	)

	return nil
}

// resetCollection drops and recreates the collection. Found and Deleted are the documents it held.
func (c *Controller) resetCollection(ctx context.Context, collection string) DeletionOutcome {
	outcome := DeletionOutcome{Collection: collection, Strategy: StrategySchemaReset}

	count, err := c.store.Count(ctx, collection, docstore.BuildFilter().MatchingAll())
	if err != nil && !errors.Is(err, docstore.ErrCollectionNotFound) {
		outcome.Status = StatusFailed
		outcome.Err = err

		return outcome
	}

	outcome.Found = count

	if err := c.store.DropCollection(ctx, collection); err != nil {
		outcome.Status = StatusFailed
		outcome.Err = err

		return outcome
	}

	outcome.Deleted = count

	if err := c.store.CreateCollection(ctx, collection); err != nil {
		outcome.Status = StatusPartial
		outcome.Err = errors.Join(ErrPartialDeletion, err)

		return outcome
	}

	outcome.Status = StatusOK

	return outcome
}

// fold records the outcome and remembers partial deletions for the run result.
func (c *Controller) fold(ctx context.Context, r *run, outcome DeletionOutcome) {
	r.aggregator.Record(outcome)

	if outcome.Status == StatusPartial && !isFatal(outcome.Err) {
		r.partialErrs = append(r.partialErrs, fmt.Errorf("%s/%s: %w", outcome.Collection, outcome.Strategy, outcome.Err))
	}
}

func (c *Controller) startSweepSpan(ctx context.Context, collection string, strategy Strategy) (context.Context, docstore.SpanContext) {
	return c.instruments.startSpan(ctx, spanNamePrefix+string(strategy), map[string]string{
		SpanAttrStrategy:   string(strategy),
		SpanAttrCollection: collection,
	})
}

// observe logs the outcome and records its metrics and span.
func (c *Controller) observe(ctx context.Context, span docstore.SpanContext, start time.Time, outcome DeletionOutcome) {
	duration := time.Since(start)
	labels := map[string]string{
		SpanAttrStrategy:   string(outcome.Strategy),
		SpanAttrCollection: outcome.Collection,
		LabelStatus:        string(outcome.Status),
	}

	c.instruments.recordDuration(ctx, MetricStrategyDuration, duration, labels)
	c.instruments.recordValue(ctx, MetricDocumentsDeleted, float64(outcome.Deleted), labels)

	args := []any{
		logAttrCollection, outcome.Collection,
		logAttrStrategy, string(outcome.Strategy),
		logAttrFound, outcome.Found,
		logAttrDeleted, outcome.Deleted,
		logAttrStatus, string(outcome.Status),
	}

	switch outcome.Status {
	case StatusSkipped:
		c.instruments.warn(ctx, logMsgSweepSkipped, append(args, logAttrReason, skipReasonCollectionNotFound)...)
	case StatusFailed, StatusPartial:
		errLabels := map[string]string{
			SpanAttrStrategy:   string(outcome.Strategy),
			SpanAttrCollection: outcome.Collection,
			SpanAttrErrorType:  errorTypeOf(outcome.Err),
		}
		c.instruments.incrementCounter(ctx, MetricCollectionErrors, errLabels)

		msg := logMsgSweepFailed
		if outcome.Status == StatusPartial {
			msg = logMsgSweepPartial
		}
		c.instruments.error(ctx, msg, append(args, logAttrError, outcome.ErrorMessage())...)
	default:
		c.instruments.info(ctx, logMsgSweepFinished, append(args, logAttrDurationMS, toMilliseconds(duration))...)
	}

	if span != nil {
		span.AddAttribute(SpanAttrFound, fmt.Sprintf("%d", outcome.Found))
		c.instruments.finishSpan(span, string(outcome.Status), start, map[string]string{
			SpanAttrDeleted: fmt.Sprintf("%d", outcome.Deleted),
		})
	}
}

func (c *Controller) finishRun(ctx context.Context, span docstore.SpanContext, start time.Time, report RunReport, status string) {
	c.instruments.recordDuration(ctx, MetricRunDuration, time.Since(start), map[string]string{
		SpanAttrMode: report.Mode.String(),
		LabelStatus:  status,
	})

	c.instruments.finishSpan(span, status, start, map[string]string{
		SpanAttrTotal: fmt.Sprintf("%d", report.TotalDeleted),
	})
}

func isFatal(err error) bool {
	return err != nil && errors.Is(err, docstore.ErrConnectionFailed)
}

func errorTypeOf(err error) string {
	switch {
	case errors.Is(err, docstore.ErrConnectionFailed):
		return errorTypeConnection
	case errors.Is(err, docstore.ErrPredicateEvaluationFailed):
		return errorTypePredicate
	case errors.Is(err, docstore.ErrCollectionNotFound):
		return errorTypeNotFound
	default:
		return errorTypeOther
	}
}
