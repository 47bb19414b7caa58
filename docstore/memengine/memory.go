package memengine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/AntonStoeckl/docstore-sanitizer/docstore"
	"github.com/AntonStoeckl/docstore-sanitizer/docstore/internal/observe"
)

const (
	engineName = "memory"

	OperationCount      = "count"
	OperationFind       = "find"
	OperationDeleteMany = "delete_many"
	OperationIDs        = "ids"
	OperationDrop       = "drop_collection"
	OperationCreate     = "create_collection"
	OperationInsertMany = "insert_many"

	// AnyCollection makes an injected failure apply to every collection.
	AnyCollection = "*"

	errorTypeInjected           = "injected"
	errorTypeCollectionNotFound = "collection_not_found"
	errorTypePredicate          = "predicate_evaluation"
	errorTypeInvalidInput       = "invalid_input"
)

var errDuplicateID = errors.New("duplicate id")

type failureKey struct {
	collection string
	operation  string
}

// DocumentStore implements docstore.Store and docstore.Seeder in memory. It is safe for concurrent use.
type DocumentStore struct {
	mu          sync.Mutex
	collections map[string][]docstore.Document
	failures    map[failureKey]error
	idScheme    docstore.IDScheme
	now         func() time.Time

	logger           docstore.Logger
	contextualLogger docstore.ContextualLogger
	metricsCollector docstore.MetricsCollector
	tracingCollector docstore.TracingCollector
}

// NewDocumentStore creates an empty in-memory DocumentStore minting UUIDv7 identifiers by default.
func NewDocumentStore(options ...Option) (*DocumentStore, error) {
	ds := &DocumentStore{
		collections: make(map[string][]docstore.Document),
		failures:    make(map[failureKey]error),
		idScheme:    docstore.UUIDv7Scheme{},
		now:         time.Now,
	}

	for _, option := range options {
		if err := option(ds); err != nil {
			return nil, err
		}
	}

	return ds, nil
}

func (ds *DocumentStore) IDScheme() docstore.IDScheme {
	return ds.idScheme
}

// Count returns the number of documents in the collection matching the filter.
func (ds *DocumentStore) Count(ctx context.Context, collection string, filter docstore.Filter) (int64, error) {
	op, _ := ds.instruments().Start(ctx, OperationCount, collection)

	matched, err := ds.matching(ctx, OperationCount, collection, filter, 0)
	if err != nil {
		op.Failure(err, errorTypeOf(err))
		return 0, err
	}

	op.Success(int64(len(matched)))

	return int64(len(matched)), nil
}

// Find returns up to limit documents matching the filter in insertion order. A limit <= 0 means no limit.
func (ds *DocumentStore) Find(
	ctx context.Context,
	collection string,
	filter docstore.Filter,
	limit int,
) ([]docstore.Document, error) {

	op, _ := ds.instruments().Start(ctx, OperationFind, collection)

	matched, err := ds.matching(ctx, OperationFind, collection, filter, limit)
	if err != nil {
		op.Failure(err, errorTypeOf(err))
		return nil, err
	}

	docs := make([]docstore.Document, 0, len(matched))
	for _, m := range matched {
		docs = append(docs, m.doc)
	}

	op.Success(int64(len(docs)))

	return docs, nil
}

// DeleteMany deletes all documents matching the filter. Either all matching documents are deleted or none.
func (ds *DocumentStore) DeleteMany(ctx context.Context, collection string, filter docstore.Filter) (int64, error) {
	op, _ := ds.instruments().Start(ctx, OperationDeleteMany, collection)

	ds.mu.Lock()
	defer ds.mu.Unlock()

	matched, err := ds.matchingLocked(ctx, OperationDeleteMany, collection, filter, 0)
	if err != nil {
		op.Failure(err, errorTypeOf(err))
		return 0, err
	}

	if len(matched) == 0 {
		op.Success(0)
		return 0, nil
	}

	remove := make(map[int]struct{}, len(matched))
	for _, m := range matched {
		remove[m.index] = struct{}{}
	}

	docs := ds.collections[collection]
	kept := make([]docstore.Document, 0, len(docs)-len(remove))
	for i, doc := range docs {
		if _, ok := remove[i]; !ok {
			kept = append(kept, doc)
		}
	}
	ds.collections[collection] = kept

	op.Success(int64(len(remove)))

	return int64(len(remove)), nil
}

// IDs returns every identifier in the collection in insertion order.
func (ds *DocumentStore) IDs(ctx context.Context, collection string) ([]string, error) {
	op, _ := ds.instruments().Start(ctx, OperationIDs, collection)

	ds.mu.Lock()
	defer ds.mu.Unlock()

	if err := ds.checkLocked(ctx, OperationIDs, collection); err != nil {
		op.Failure(err, errorTypeOf(err))
		return nil, err
	}

	ids := make([]string, 0, len(ds.collections[collection]))
	for _, doc := range ds.collections[collection] {
		ids = append(ids, doc.ID())
	}

	op.Success(int64(len(ids)))

	return ids, nil
}

// DropCollection removes the collection. Dropping a missing collection is not an error.
func (ds *DocumentStore) DropCollection(ctx context.Context, collection string) error {
	op, _ := ds.instruments().Start(ctx, OperationDrop, collection)

	ds.mu.Lock()
	defer ds.mu.Unlock()

	if err := ds.precheckLocked(ctx, OperationDrop, collection); err != nil {
		op.Failure(err, errorTypeOf(err))
		return err
	}

	delete(ds.collections, collection)
	op.Success(0)

	return nil
}

// CreateCollection creates an empty collection if it does not exist yet.
func (ds *DocumentStore) CreateCollection(ctx context.Context, collection string) error {
	op, _ := ds.instruments().Start(ctx, OperationCreate, collection)

	ds.mu.Lock()
	defer ds.mu.Unlock()

	if err := ds.precheckLocked(ctx, OperationCreate, collection); err != nil {
		op.Failure(err, errorTypeOf(err))
		return err
	}

	if _, ok := ds.collections[collection]; !ok {
		ds.collections[collection] = make([]docstore.Document, 0)
	}

	op.Success(0)

	return nil
}

// InsertMany appends the documents to the collection, creating it if necessary.
// Documents without an identifier get one minted at the store's clock time.
func (ds *DocumentStore) InsertMany(ctx context.Context, collection string, docs []docstore.Document) error {
	op, _ := ds.instruments().Start(ctx, OperationInsertMany, collection)

	ds.mu.Lock()
	defer ds.mu.Unlock()

	if err := ds.precheckLocked(ctx, OperationInsertMany, collection); err != nil {
		op.Failure(err, errorTypeOf(err))
		return err
	}

	existing := make(map[string]struct{}, len(ds.collections[collection])+len(docs))
	for _, doc := range ds.collections[collection] {
		existing[doc.ID()] = struct{}{}
	}

	prepared := make([]docstore.Document, 0, len(docs))
	for _, doc := range docs {
		if doc.ID() == "" {
			doc = docstore.NewDocument(append(
				[]docstore.Field{docstore.F(docstore.IDField, ds.idScheme.NewID(ds.now()))},
				doc.Without(docstore.IDField).Fields()...,
			)...)
		}

		if _, dup := existing[doc.ID()]; dup {
			err := errors.Join(docstore.ErrInsertingDocumentsFailed, errDuplicateID, fmt.Errorf("%q", doc.ID()))
			op.Failure(err, errorTypeInvalidInput)
			return err
		}

		existing[doc.ID()] = struct{}{}
		prepared = append(prepared, doc)
	}

	ds.collections[collection] = append(ds.collections[collection], prepared...)
	op.Success(int64(len(prepared)))

	return nil
}

// Collections returns the names of all existing collections, sorted.
func (ds *DocumentStore) Collections() []string {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	names := make([]string, 0, len(ds.collections))
	for name := range ds.collections {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Documents returns a copy of all documents of the collection in insertion order.
func (ds *DocumentStore) Documents(collection string) []docstore.Document {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	docs := make([]docstore.Document, len(ds.collections[collection]))
	copy(docs, ds.collections[collection])

	return docs
}

type match struct {
	index int
	doc   docstore.Document
}

func (ds *DocumentStore) matching(
	ctx context.Context,
	operation string,
	collection string,
	filter docstore.Filter,
	limit int,
) ([]match, error) {

	ds.mu.Lock()
	defer ds.mu.Unlock()

	return ds.matchingLocked(ctx, operation, collection, filter, limit)
}

func (ds *DocumentStore) matchingLocked(
	ctx context.Context,
	operation string,
	collection string,
	filter docstore.Filter,
	limit int,
) ([]match, error) {

	if err := ds.checkLocked(ctx, operation, collection); err != nil {
		return nil, err
	}

	if err := filter.Validate(); err != nil {
		return nil, err
	}

	matched := make([]match, 0)
	for i, doc := range ds.collections[collection] {
		ok, err := filter.Matches(doc)
		if err != nil {
			return nil, errors.Join(docstore.ErrPredicateEvaluationFailed, err)
		}

		if !ok {
			continue
		}

		matched = append(matched, match{index: i, doc: doc})
		if limit > 0 && len(matched) == limit {
			break
		}
	}

	return matched, nil
}

// checkLocked validates the input and verifies the collection exists.
func (ds *DocumentStore) checkLocked(ctx context.Context, operation string, collection string) error {
	if err := ds.precheckLocked(ctx, operation, collection); err != nil {
		return err
	}

	if _, ok := ds.collections[collection]; !ok {
		return errors.Join(docstore.ErrCollectionNotFound, fmt.Errorf("%q", collection))
	}

	return nil
}

// precheckLocked validates the input, the context, and injected failures.
func (ds *DocumentStore) precheckLocked(ctx context.Context, operation string, collection string) error {
	if collection == "" {
		return docstore.ErrEmptyCollectionName
	}

	if err := ctx.Err(); err != nil {
		return errors.Join(docstore.ErrConnectionFailed, err)
	}

	if err, ok := ds.failures[failureKey{collection: collection, operation: operation}]; ok {
		return err
	}

	if err, ok := ds.failures[failureKey{collection: AnyCollection, operation: operation}]; ok {
		return err
	}

	return nil
}

func (ds *DocumentStore) instruments() *observe.Instruments {
	return &observe.Instruments{
		Engine:           engineName,
		Logger:           ds.logger,
		ContextualLogger: ds.contextualLogger,
		MetricsCollector: ds.metricsCollector,
		TracingCollector: ds.tracingCollector,
	}
}

func errorTypeOf(err error) string {
	switch {
	case errors.Is(err, docstore.ErrCollectionNotFound):
		return errorTypeCollectionNotFound
	case errors.Is(err, docstore.ErrPredicateEvaluationFailed):
		return errorTypePredicate
	case errors.Is(err, docstore.ErrInvalidFilter), errors.Is(err, docstore.ErrEmptyCollectionName):
		return errorTypeInvalidInput
	default:
		return errorTypeInjected
	}
}
