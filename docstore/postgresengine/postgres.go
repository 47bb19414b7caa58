package postgresengine

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/AntonStoeckl/docstore-sanitizer/docstore"
	"github.com/AntonStoeckl/docstore-sanitizer/docstore/internal/observe"
	"github.com/AntonStoeckl/docstore-sanitizer/docstore/postgresengine/internal/adapters"
)

const (
	engineName            = "postgresql"
	operationCount        = "count"
	operationFind         = "find"
	operationDeleteMany   = "delete_many"
	operationIDs          = "ids"
	operationDrop         = "drop_collection"
	operationCreate       = "create_collection"
	operationInsertMany   = "insert_many"
	logMsgCloseRowsFailed = "failed to close database rows"
)

// DocumentStore implements docstore.Store and docstore.Seeder on PostgreSQL.
type DocumentStore struct {
	db               adapters.Executor
	idScheme         docstore.IDScheme
	logger           docstore.Logger
	contextualLogger docstore.ContextualLogger
	metricsCollector docstore.MetricsCollector
	tracingCollector docstore.TracingCollector
}

// NewDocumentStoreFromPGXPool creates a new DocumentStore using a pgx Pool with optional configuration.
func NewDocumentStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (*DocumentStore, error) {
	if db == nil {
		return nil, docstore.ErrNilDatabaseConnection
	}

	return newDocumentStore(adapters.NewPGXExecutor(db), options...)
}

// NewDocumentStoreFromSQLDB creates a new DocumentStore using a sql.DB with optional configuration.
func NewDocumentStoreFromSQLDB(db *sql.DB, options ...Option) (*DocumentStore, error) {
	if db == nil {
		return nil, docstore.ErrNilDatabaseConnection
	}

	return newDocumentStore(adapters.NewSQLExecutor(db), options...)
}

// NewDocumentStoreFromSQLX creates a new DocumentStore using a sqlx.DB with optional configuration.
func NewDocumentStoreFromSQLX(db *sqlx.DB, options ...Option) (*DocumentStore, error) {
	if db == nil {
		return nil, docstore.ErrNilDatabaseConnection
	}

	return newDocumentStore(adapters.NewSQLXExecutor(db), options...)
}

func newDocumentStore(db adapters.Executor, options ...Option) (*DocumentStore, error) {
	ds := &DocumentStore{
		db:       db,
		idScheme: docstore.UUIDv7Scheme{},
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

	if err := validateCollectionAndFilter(collection, filter); err != nil {
		op.Failure(err, errorTypeBuildQuery)
		return 0, err
	}

	sqlQuery, buildErr := ds.buildCountQuery(collection, filter)
	if buildErr != nil {
		op.Failure(buildErr, errorTypeBuildQuery)
		return 0, buildErr
	}

	rows, queryErr := ds.db.Query(ctx, sqlQuery)
	op.Statement(sqlQuery)
	if queryErr != nil {
		err := wrapDBError(docstore.ErrQueryingDocumentsFailed, queryErr)
		op.Failure(err, errorTypeOf(err, errorTypeDatabaseQuery))
		return 0, err
	}
	defer ds.closeRows(op, rows)

	var count int64
	for rows.Next() {
		if scanErr := rows.Scan(&count); scanErr != nil {
			err := errors.Join(docstore.ErrScanningDBRowFailed, scanErr)
			op.Failure(err, errorTypeRowScan)
			return 0, err
		}
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		err := wrapDBError(docstore.ErrQueryingDocumentsFailed, rowsErr)
		op.Failure(err, errorTypeOf(err, errorTypeDatabaseQuery))
		return 0, err
	}

	op.Success(count)

	return count, nil
}

// Find returns up to limit documents matching the filter, ordered by id. A limit <= 0 means no limit.
func (ds *DocumentStore) Find(
	ctx context.Context,
	collection string,
	filter docstore.Filter,
	limit int,
) ([]docstore.Document, error) {

	op, ctx := ds.instruments().Start(ctx, operationFind, collection)

	if err := validateCollectionAndFilter(collection, filter); err != nil {
		op.Failure(err, errorTypeBuildQuery)
		return nil, err
	}

	sqlQuery, buildErr := ds.buildFindQuery(collection, filter, limit)
	if buildErr != nil {
		op.Failure(buildErr, errorTypeBuildQuery)
		return nil, buildErr
	}

	rows, queryErr := ds.db.Query(ctx, sqlQuery)
	op.Statement(sqlQuery)
	if queryErr != nil {
		err := wrapDBError(docstore.ErrQueryingDocumentsFailed, queryErr)
		op.Failure(err, errorTypeOf(err, errorTypeDatabaseQuery))
		return nil, err
	}
	defer ds.closeRows(op, rows)

	docs := make([]docstore.Document, 0)

	for rows.Next() {
		var id, data string
		if scanErr := rows.Scan(&id, &data); scanErr != nil {
			err := errors.Join(docstore.ErrScanningDBRowFailed, scanErr)
			op.Failure(err, errorTypeRowScan)
			return nil, err
		}

		doc, decodeErr := decodeDocument(id, data)
		if decodeErr != nil {
			op.Failure(decodeErr, errorTypeDecodeDocument)
			return nil, decodeErr
		}

		docs = append(docs, doc)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		err := wrapDBError(docstore.ErrQueryingDocumentsFailed, rowsErr)
		op.Failure(err, errorTypeOf(err, errorTypeDatabaseQuery))
		return nil, err
	}

	op.Success(int64(len(docs)))

	return docs, nil
}

// DeleteMany deletes all documents matching the filter with one DELETE statement.
func (ds *DocumentStore) DeleteMany(ctx context.Context, collection string, filter docstore.Filter) (int64, error) {
	op, ctx := ds.instruments().Start(ctx, operationDeleteMany, collection)

	if err := validateCollectionAndFilter(collection, filter); err != nil {
		op.Failure(err, errorTypeBuildQuery)
		return 0, err
	}

	sqlQuery, buildErr := ds.buildDeleteQuery(collection, filter)
	if buildErr != nil {
		op.Failure(buildErr, errorTypeBuildQuery)
		return 0, buildErr
	}

	deleted, execErr := ds.exec(ctx, op, sqlQuery, docstore.ErrDeletingDocumentsFailed)
	if execErr != nil {
		return 0, execErr
	}

	op.Success(deleted)

	return deleted, nil
}

// IDs returns every identifier in the collection, ordered.
func (ds *DocumentStore) IDs(ctx context.Context, collection string) ([]string, error) {
	op, ctx := ds.instruments().Start(ctx, operationIDs, collection)

	if collection == "" {
		op.Failure(docstore.ErrEmptyCollectionName, errorTypeBuildQuery)
		return nil, docstore.ErrEmptyCollectionName
	}

	sqlQuery, buildErr := ds.buildIDsQuery(collection)
	if buildErr != nil {
		op.Failure(buildErr, errorTypeBuildQuery)
		return nil, buildErr
	}

	rows, queryErr := ds.db.Query(ctx, sqlQuery)
	op.Statement(sqlQuery)
	if queryErr != nil {
		err := wrapDBError(docstore.ErrQueryingDocumentsFailed, queryErr)
		op.Failure(err, errorTypeOf(err, errorTypeDatabaseQuery))
		return nil, err
	}
	defer ds.closeRows(op, rows)

	ids := make([]string, 0)

	for rows.Next() {
		var id string
		if scanErr := rows.Scan(&id); scanErr != nil {
			err := errors.Join(docstore.ErrScanningDBRowFailed, scanErr)
			op.Failure(err, errorTypeRowScan)
			return nil, err
		}
		ids = append(ids, id)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		err := wrapDBError(docstore.ErrQueryingDocumentsFailed, rowsErr)
		op.Failure(err, errorTypeOf(err, errorTypeDatabaseQuery))
		return nil, err
	}

	op.Success(int64(len(ids)))

	return ids, nil
}

// DropCollection drops the collection's table. Dropping a missing collection is not an error.
func (ds *DocumentStore) DropCollection(ctx context.Context, collection string) error {
	op, ctx := ds.instruments().Start(ctx, operationDrop, collection)

	if collection == "" {
		op.Failure(docstore.ErrEmptyCollectionName, errorTypeBuildQuery)
		return docstore.ErrEmptyCollectionName
	}

	if _, err := ds.exec(ctx, op, buildDropTableStatement(collection), docstore.ErrDroppingCollectionFailed); err != nil {
		return err
	}

	op.Success(0)

	return nil
}

// CreateCollection creates the collection's table and its jsonb index if they do not exist yet.
func (ds *DocumentStore) CreateCollection(ctx context.Context, collection string) error {
	op, ctx := ds.instruments().Start(ctx, operationCreate, collection)

	if collection == "" {
		op.Failure(docstore.ErrEmptyCollectionName, errorTypeBuildQuery)
		return docstore.ErrEmptyCollectionName
	}

	statements := buildCreateTableStatements(collection)
	execErr := ds.db.ExecAll(ctx, statements)
	for _, statement := range statements {
		op.Statement(statement)
	}

	if execErr != nil {
		err := wrapDBError(docstore.ErrCreatingCollectionFailed, execErr)
		op.Failure(err, errorTypeOf(err, errorTypeDatabaseExec))
		return err
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

	sqlQuery, buildErr := ds.buildInsertQuery(collection, docs)
	if buildErr != nil {
		op.Failure(buildErr, errorTypeBuildQuery)
		return buildErr
	}

	inserted, execErr := ds.exec(ctx, op, sqlQuery, docstore.ErrInsertingDocumentsFailed)
	if execErr != nil {
		return execErr
	}

	op.Success(inserted)

	return nil
}

// exec executes a statement and returns the number of affected rows.
func (ds *DocumentStore) exec(
	ctx context.Context,
	op *observe.Operation,
	statement string,
	operationErr error,
) (int64, error) {

	affected, execErr := ds.db.Exec(ctx, statement)
	op.Statement(statement)

	switch {
	case errors.Is(execErr, adapters.ErrRowsAffectedUnavailable):
		err := errors.Join(docstore.ErrGettingRowsAffectedFailed, execErr)
		op.Failure(err, errorTypeRowsAffected)
		return 0, err

	case execErr != nil:
		err := wrapDBError(operationErr, execErr)
		op.Failure(err, errorTypeOf(err, errorTypeDatabaseExec))
		return 0, err
	}

	return affected, nil
}

// closeRows safely closes database rows and logs any errors.
func (ds *DocumentStore) closeRows(op *observe.Operation, rows adapters.Rows) {
	if closeErr := rows.Close(); closeErr != nil {
		op.Warn(logMsgCloseRowsFailed, closeErr)
	}
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

func validateCollectionAndFilter(collection string, filter docstore.Filter) error {
	if collection == "" {
		return docstore.ErrEmptyCollectionName
	}

	return filter.Validate()
}

func decodeDocument(id string, data string) (docstore.Document, error) {
	payload, err := docstore.DocumentFromJSON([]byte(data))
	if err != nil {
		return docstore.Document{}, errors.Join(docstore.ErrDecodingDocumentFailed, err)
	}

	fields := append([]docstore.Field{docstore.F(docstore.IDField, id)}, payload.Fields()...)

	return docstore.NewDocument(fields...), nil
}
