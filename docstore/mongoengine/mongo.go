package mongoengine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AntonStoeckl/docstore-sanitizer/docstore"
	"github.com/AntonStoeckl/docstore-sanitizer/docstore/internal/observe"
)

const (
	engineName          = "mongodb"
	operationCount      = "count"
	operationFind       = "find"
	operationDeleteMany = "delete_many"
	operationIDs        = "ids"
	operationDrop       = "drop_collection"
	operationCreate     = "create_collection"
	operationInsertMany = "insert_many"

	logMsgCloseCursorFailed = "failed to close mongo cursor"
)

// DocumentStore implements docstore.Store and docstore.Seeder on a MongoDB database.
type DocumentStore struct {
	db       *mongo.Database
	idScheme docstore.IDScheme
	now      func() time.Time

	logger           docstore.Logger
	contextualLogger docstore.ContextualLogger
	metricsCollector docstore.MetricsCollector
	tracingCollector docstore.TracingCollector
}

// NewDocumentStore creates a new DocumentStore on the given database, minting ObjectIDs by default.
func NewDocumentStore(db *mongo.Database, options ...Option) (*DocumentStore, error) {
	if db == nil {
		return nil, docstore.ErrNilDatabaseConnection
	}

	ds := &DocumentStore{
		db:       db,
		idScheme: docstore.ObjectIDScheme{},
		now:      time.Now,
	}

	for _, option := range options {
		if err := option(ds); err != nil {
			return nil, err
		}
	}

	return ds, nil
}

// IDScheme returns the scheme used to mint identifiers.
func (ds *DocumentStore) IDScheme() docstore.IDScheme {
	return ds.idScheme
}

// Count returns the number of documents in the collection matching the filter.
func (ds *DocumentStore) Count(ctx context.Context, collection string, filter docstore.Filter) (int64, error) {
	op, ctx := ds.instruments().Start(ctx, operationCount, collection)

	query, err := ds.prepare(ctx, collection, filter)
	if err != nil {
		op.Failure(err, errorTypeOf(err, errorTypeBuildQuery))
		return 0, err
	}

	op.Statement(renderQuery(query))

	count, countErr := ds.db.Collection(collection).CountDocuments(ctx, query)
	if countErr != nil {
		err = wrapDBError(docstore.ErrQueryingDocumentsFailed, countErr)
		op.Failure(err, errorTypeOf(err, errorTypeDatabaseQuery))
		return 0, err
	}

	op.Success(count)

	return count, nil
}

// Find returns up to limit documents matching the filter, ordered by _id. A limit <= 0 means no limit.
func (ds *DocumentStore) Find(
	ctx context.Context,
	collection string,
	filter docstore.Filter,
	limit int,
) ([]docstore.Document, error) {

	op, ctx := ds.instruments().Start(ctx, operationFind, collection)

	query, err := ds.prepare(ctx, collection, filter)
	if err != nil {
		op.Failure(err, errorTypeOf(err, errorTypeBuildQuery))
		return nil, err
	}

	findOptions := options.Find().SetSort(bson.D{{Key: docstore.IDField, Value: 1}})
	if limit > 0 {
		findOptions.SetLimit(int64(limit))
	}

	raw, findErr := ds.findRaw(ctx, op, collection, query, findOptions)
	if findErr != nil {
		return nil, findErr
	}

	docs := make([]docstore.Document, 0, len(raw))
	for _, r := range raw {
		docs = append(docs, decodeDocument(r))
	}

	op.Success(int64(len(docs)))

	return docs, nil
}

// DeleteMany deletes all documents matching the filter with one deleteMany command.
func (ds *DocumentStore) DeleteMany(ctx context.Context, collection string, filter docstore.Filter) (int64, error) {
	op, ctx := ds.instruments().Start(ctx, operationDeleteMany, collection)

	query, err := ds.prepare(ctx, collection, filter)
	if err != nil {
		op.Failure(err, errorTypeOf(err, errorTypeBuildQuery))
		return 0, err
	}

	op.Statement(renderQuery(query))

	result, deleteErr := ds.db.Collection(collection).DeleteMany(ctx, query)
	if deleteErr != nil {
		err = wrapDBError(docstore.ErrDeletingDocumentsFailed, deleteErr)
		op.Failure(err, errorTypeOf(err, errorTypeDatabaseWrite))
		return 0, err
	}

	op.Success(result.DeletedCount)

	return result.DeletedCount, nil
}

// IDs returns every identifier in the collection in canonical string form, ordered.
func (ds *DocumentStore) IDs(ctx context.Context, collection string) ([]string, error) {
	op, ctx := ds.instruments().Start(ctx, operationIDs, collection)

	if err := ds.requireCollection(ctx, collection); err != nil {
		op.Failure(err, errorTypeOf(err, errorTypeBuildQuery))
		return nil, err
	}

	findOptions := options.Find().
		SetProjection(bson.D{{Key: docstore.IDField, Value: 1}}).
		SetSort(bson.D{{Key: docstore.IDField, Value: 1}})

	raw, findErr := ds.findRaw(ctx, op, collection, bson.D{}, findOptions)
	if findErr != nil {
		return nil, findErr
	}

	ids := make([]string, 0, len(raw))
	for _, r := range raw {
		ids = append(ids, decodeDocument(r).ID())
	}

	op.Success(int64(len(ids)))

	return ids, nil
}

// DropCollection drops the collection. Dropping a missing collection is not an error.
func (ds *DocumentStore) DropCollection(ctx context.Context, collection string) error {
	op, ctx := ds.instruments().Start(ctx, operationDrop, collection)

	if collection == "" {
		op.Failure(docstore.ErrEmptyCollectionName, errorTypeBuildQuery)
		return docstore.ErrEmptyCollectionName
	}

	if dropErr := ds.db.Collection(collection).Drop(ctx); dropErr != nil {
		err := wrapDBError(docstore.ErrDroppingCollectionFailed, dropErr)
		op.Failure(err, errorTypeOf(err, errorTypeDatabaseWrite))
		return err
	}

	op.Success(0)

	return nil
}

// CreateCollection creates the collection if it does not exist yet.
func (ds *DocumentStore) CreateCollection(ctx context.Context, collection string) error {
	op, ctx := ds.instruments().Start(ctx, operationCreate, collection)

	if collection == "" {
		op.Failure(docstore.ErrEmptyCollectionName, errorTypeBuildQuery)
		return docstore.ErrEmptyCollectionName
	}

	exists, existsErr := ds.collectionExists(ctx, collection)
	if existsErr != nil {
		op.Failure(existsErr, errorTypeOf(existsErr, errorTypeDatabaseQuery))
		return existsErr
	}

	if !exists {
		if createErr := ds.db.CreateCollection(ctx, collection); createErr != nil {
			err := wrapDBError(docstore.ErrCreatingCollectionFailed, createErr)
			op.Failure(err, errorTypeOf(err, errorTypeDatabaseWrite))
			return err
		}
	}

	op.Success(0)

	return nil
}

// InsertMany inserts the documents, creating the collection if necessary.
func (ds *DocumentStore) InsertMany(ctx context.Context, collection string, docs []docstore.Document) error {
	if len(docs) == 0 {
		return nil
	}

	if err := ds.CreateCollection(ctx, collection); err != nil {
		return err
	}

	op, ctx := ds.instruments().Start(ctx, operationInsertMany, collection)

	encoded := make([]any, 0, len(docs))
	for _, doc := range docs {
		encoded = append(encoded, ds.encodeDocument(doc))
	}

	result, insertErr := ds.db.Collection(collection).InsertMany(ctx, encoded)
	if insertErr != nil {
		err := wrapDBError(docstore.ErrInsertingDocumentsFailed, insertErr)
		op.Failure(err, errorTypeOf(err, errorTypeDatabaseWrite))
		return err
	}

	op.Success(int64(len(result.InsertedIDs)))

	return nil
}

// prepare validates the input, verifies the collection exists and compiles the filter.
func (ds *DocumentStore) prepare(ctx context.Context, collection string, filter docstore.Filter) (bson.D, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	if err := ds.requireCollection(ctx, collection); err != nil {
		return nil, err
	}

	query, err := compileCondition(filter.Root())
	if err != nil {
		return nil, errors.Join(docstore.ErrBuildingQueryFailed, err)
	}

	return query, nil
}

func (ds *DocumentStore) requireCollection(ctx context.Context, collection string) error {
	if collection == "" {
		return docstore.ErrEmptyCollectionName
	}

	exists, err := ds.collectionExists(ctx, collection)
	if err != nil {
		return err
	}

	if !exists {
		return errors.Join(docstore.ErrCollectionNotFound, fmt.Errorf("%q", collection))
	}

	return nil
}

func (ds *DocumentStore) collectionExists(ctx context.Context, collection string) (bool, error) {
	names, err := ds.db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: collection}})
	if err != nil {
		return false, wrapDBError(docstore.ErrQueryingDocumentsFailed, err)
	}

	return len(names) > 0, nil
}

func (ds *DocumentStore) findRaw(
	ctx context.Context,
	op *observe.Operation,
	collection string,
	query bson.D,
	findOptions *options.FindOptions,
) ([]bson.D, error) {

	op.Statement(renderQuery(query))

	cursor, findErr := ds.db.Collection(collection).Find(ctx, query, findOptions)
	if findErr != nil {
		err := wrapDBError(docstore.ErrQueryingDocumentsFailed, findErr)
		op.Failure(err, errorTypeOf(err, errorTypeDatabaseQuery))
		return nil, err
	}
	defer func() {
		if closeErr := cursor.Close(context.Background()); closeErr != nil {
			op.Warn(logMsgCloseCursorFailed, closeErr)
		}
	}()

	raw := make([]bson.D, 0)
	if allErr := cursor.All(ctx, &raw); allErr != nil {
		err := wrapDBError(docstore.ErrDecodingDocumentFailed, allErr)
		op.Failure(err, errorTypeOf(err, errorTypeDecodeDocument))
		return nil, err
	}

	return raw, nil
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
