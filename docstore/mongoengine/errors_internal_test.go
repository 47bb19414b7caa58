package mongoengine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/AntonStoeckl/docstore-sanitizer/docstore"
)

func Test_classify(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected error
	}{
		{name: "nil", err: nil, expected: nil},
		{name: "namespace not found", err: mongo.CommandError{Code: 26, Name: "NamespaceNotFound"}, expected: docstore.ErrCollectionNotFound},
		{name: "invalid regex", err: mongo.CommandError{Code: 51091}, expected: docstore.ErrPredicateEvaluationFailed},
		{name: "bad value", err: mongo.CommandError{Code: 2, Name: "BadValue"}, expected: docstore.ErrPredicateEvaluationFailed},
		{name: "client disconnected", err: mongo.ErrClientDisconnected, expected: docstore.ErrConnectionFailed},
		{name: "deadline", err: context.DeadlineExceeded, expected: docstore.ErrConnectionFailed},
		{name: "canceled", err: context.Canceled, expected: docstore.ErrConnectionFailed},
		{name: "duplicate key", err: mongo.CommandError{Code: 11000}, expected: nil},
		{name: "unknown", err: errors.New("boom"), expected: nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, classify(tc.err))
		})
	}
}

func Test_wrapDBError_JoinsCategory(t *testing.T) {
	err := wrapDBError(docstore.ErrQueryingDocumentsFailed, mongo.CommandError{Code: 26})

	assert.ErrorIs(t, err, docstore.ErrCollectionNotFound)
	assert.ErrorIs(t, err, docstore.ErrQueryingDocumentsFailed)
	assert.Equal(t, errorTypeCollectionNotFound, errorTypeOf(err, errorTypeDatabaseQuery))
	assert.Equal(t, errorTypeDatabaseQuery, errorTypeOf(errors.New("x"), errorTypeDatabaseQuery))
}
