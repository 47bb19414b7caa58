package postgresengine

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/docstore-sanitizer/docstore"
)

func Test_Classify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected error
	}{
		{name: "pgx_undefined_table", err: &pgconn.PgError{Code: "42P01"}, expected: docstore.ErrCollectionNotFound},
		{name: "pq_undefined_table", err: &pq.Error{Code: "42P01"}, expected: docstore.ErrCollectionNotFound},
		{name: "invalid_regex", err: &pgconn.PgError{Code: "2201B"}, expected: docstore.ErrPredicateEvaluationFailed},
		{name: "invalid_timestamp", err: &pq.Error{Code: "22007"}, expected: docstore.ErrPredicateEvaluationFailed},
		{name: "admin_shutdown", err: &pgconn.PgError{Code: "57P01"}, expected: docstore.ErrConnectionFailed},
		{name: "deadline", err: context.DeadlineExceeded, expected: docstore.ErrConnectionFailed},
		{name: "syntax_error", err: &pgconn.PgError{Code: "42601"}, expected: nil},
		{name: "plain_error", err: errors.New("boom"), expected: nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, classify(tc.err))
		})
	}
}

func Test_WrapDBError_KeepsAllLayers(t *testing.T) {
	driverErr := &pgconn.PgError{Code: "42P01"}

	err := wrapDBError(docstore.ErrQueryingDocumentsFailed, driverErr)

	assert.ErrorIs(t, err, docstore.ErrCollectionNotFound)
	assert.ErrorIs(t, err, docstore.ErrQueryingDocumentsFailed)
	assert.ErrorAs(t, err, &driverErr)
	assert.Equal(t, errorTypeCollectionNotFound, errorTypeOf(err, errorTypeDatabaseQuery))
}
