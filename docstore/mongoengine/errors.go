package mongoengine

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/AntonStoeckl/docstore-sanitizer/docstore"
)

const (
	codeBadValue            = 2
	codeNamespaceNotFound   = 26
	codeConversionFailure   = 241
	codeInvalidRegex        = 51091
	codeInvalidRegexOptions = 51108

	errorTypeCollectionNotFound  = "collection_not_found"
	errorTypeConnectionFailed    = "connection_failed"
	errorTypePredicateEvaluation = "predicate_evaluation"
	errorTypeBuildQuery          = "build_query"
	errorTypeDatabaseQuery       = "database_query"
	errorTypeDatabaseWrite       = "database_write"
	errorTypeDecodeDocument      = "decode_document"
)

// classify maps mongo-driver errors onto the docstore error taxonomy.
// It returns nil for errors that do not belong to one of the classified categories.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var serverErr mongo.ServerError
	if errors.As(err, &serverErr) {
		switch {
		case serverErr.HasErrorCode(codeNamespaceNotFound):
			return docstore.ErrCollectionNotFound
		case serverErr.HasErrorCode(codeBadValue),
			serverErr.HasErrorCode(codeConversionFailure),
			serverErr.HasErrorCode(codeInvalidRegex),
			serverErr.HasErrorCode(codeInvalidRegexOptions):
			return docstore.ErrPredicateEvaluationFailed
		}
	}

	switch {
	case mongo.IsNetworkError(err),
		mongo.IsTimeout(err),
		errors.Is(err, mongo.ErrClientDisconnected),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return docstore.ErrConnectionFailed
	}

	return nil
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
