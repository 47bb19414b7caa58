package postgresengine

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/AntonStoeckl/docstore-sanitizer/docstore"
)

const (
	pgCodeUndefinedTable         = "42P01"
	pgClassDataException         = "22"
	pgClassConnectionException   = "08"
	pgClassInsufficientResources = "53"
	pgClassOperatorIntervention  = "57"

	errorTypeCollectionNotFound  = "collection_not_found"
	errorTypeConnectionFailed    = "connection_failed"
	errorTypePredicateEvaluation = "predicate_evaluation"
	errorTypeBuildQuery          = "build_query"
	errorTypeDatabaseQuery       = "database_query"
	errorTypeDatabaseExec        = "database_exec"
	errorTypeRowScan             = "row_scan"
	errorTypeDecodeDocument      = "decode_document"
	errorTypeRowsAffected        = "rows_affected"
)

// classify maps driver errors of pgx and lib/pq onto the docstore error taxonomy.
// It returns nil for errors that do not belong to one of the classified categories.
func classify(err error) error {
	if err == nil {
		return nil
	}

	if code := sqlStateOf(err); code != "" {
		switch {
		case code == pgCodeUndefinedTable:
			return docstore.ErrCollectionNotFound
		case strings.HasPrefix(code, pgClassDataException):
			return docstore.ErrPredicateEvaluationFailed
		case strings.HasPrefix(code, pgClassConnectionException),
			strings.HasPrefix(code, pgClassInsufficientResources),
			strings.HasPrefix(code, pgClassOperatorIntervention):
			return docstore.ErrConnectionFailed
		}

		return nil
	}

	var connectErr *pgconn.ConnectError
	var netErr net.Error

	switch {
	case errors.As(err, &connectErr),
		errors.As(err, &netErr),
		errors.Is(err, driver.ErrBadConn),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		pgconn.Timeout(err):
		return docstore.ErrConnectionFailed
	}

	return nil
}

func sqlStateOf(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}

	return ""
}

// wrapDBError joins the operation's sentinel with the classified category and the driver error.
func wrapDBError(operationErr error, err error) error {
	if category := classify(err); category != nil {
		return errors.Join(category, operationErr, err)
	}

	return errors.Join(operationErr, err)
}

func errorTypeOf(err error, fallback string) string {
	switch {
	case errors.Is(err, docstore.ErrCollectionNotFound):
		return errorTypeCollectionNotFound
	case errors.Is(err, docstore.ErrConnectionFailed):
		return errorTypeConnectionFailed
	case errors.Is(err, docstore.ErrPredicateEvaluationFailed):
		return errorTypePredicateEvaluation
	default:
		return fallback
	}
}
