package docstore

import (
	"errors"
)

var (
	// ErrNilDatabaseConnection is returned when an engine is constructed without a database connection.
	ErrNilDatabaseConnection = errors.New("database connection must not be nil")

	// ErrEmptyCollectionName is returned when an operation receives an empty collection name.
	ErrEmptyCollectionName = errors.New("empty collection name supplied")

	// ErrConnectionFailed marks errors caused by a broken or unreachable database connection.
	// It is fatal for a sanitizer run.
	ErrConnectionFailed = errors.New("database connection failed")

	// ErrCollectionNotFound is returned when an operation targets a collection that does not exist.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrPredicateEvaluationFailed is returned when the store could not evaluate a filter,
	// e.g., because of a malformed value of an unexpected type.
	ErrPredicateEvaluationFailed = errors.New("predicate evaluation failed")

	// ErrInvalidFilter is returned when a filter contains an empty field name or an invalid pattern.
	ErrInvalidFilter = errors.New("filter is not valid")

	ErrBuildingQueryFailed       = errors.New("building query failed")
	ErrQueryingDocumentsFailed   = errors.New("querying documents failed")
	ErrDeletingDocumentsFailed   = errors.New("deleting documents failed")
	ErrInsertingDocumentsFailed  = errors.New("inserting documents failed")
	ErrScanningDBRowFailed       = errors.New("scanning db row failed")
	ErrDecodingDocumentFailed    = errors.New("decoding document failed")
	ErrDroppingCollectionFailed  = errors.New("dropping collection failed")
	ErrCreatingCollectionFailed  = errors.New("creating collection failed")
	ErrGettingRowsAffectedFailed = errors.New("getting rows affected failed")
)
