package sanitizer_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/docstore-sanitizer/docstore"
	"github.com/AntonStoeckl/docstore-sanitizer/docstore/memengine"
	"github.com/AntonStoeckl/docstore-sanitizer/sanitizer"
)

var fixedNow = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

func clock() time.Time {
	return fixedNow
}

func newStore(t *testing.T, options ...memengine.Option) *memengine.DocumentStore {
	t.Helper()

	store, err := memengine.NewDocumentStore(options...)
	require.NoError(t, err)

	return store
}

func newController(t *testing.T, store docstore.Store, options ...sanitizer.Option) *sanitizer.Controller {
	t.Helper()

	controller, err := sanitizer.NewController(store, append([]sanitizer.Option{sanitizer.WithClock(clock)}, options...)...)
	require.NoError(t, err)

	return controller
}

func emailsOf(docs []docstore.Document) []string {
	emails := make([]string, 0, len(docs))
	for _, doc := range docs {
		email, _ := doc.StringAt(sanitizer.FieldEmail)
		emails = append(emails, email)
	}

	return emails
}

func idsOf(docs []docstore.Document) []string {
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID())
	}

	return ids
}

func matches(t *testing.T, filter docstore.Filter, doc docstore.Document) bool {
	t.Helper()

	ok, err := filter.Matches(doc)
	require.NoError(t, err)

	return ok
}

// selectiveFailureStore fails counts of one collection, except for counting all documents.
type selectiveFailureStore struct {
	*memengine.DocumentStore
	collection string
	err        error
}

func (s *selectiveFailureStore) Count(ctx context.Context, collection string, filter docstore.Filter) (int64, error) {
	if collection == s.collection && !filter.MatchesAll() {
		return 0, s.err
	}

	return s.DocumentStore.Count(ctx, collection, filter)
}
