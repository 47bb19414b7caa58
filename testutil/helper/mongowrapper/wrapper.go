// Package mongowrapper opens a MongoDB-backed DocumentStore for integration tests.
//
// Tests are skipped unless SANITIZER_TEST_MONGO_URL is set; the database is taken from the URL path.
package mongowrapper

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/docstore-sanitizer/config"
	"github.com/AntonStoeckl/docstore-sanitizer/docstore/mongoengine"
)

const envMongoURL = "SANITIZER_TEST_MONGO_URL"

// CreateDocumentStoreWithTestConfig connects to the test database or skips the test.
// The client is disconnected on test cleanup.
func CreateDocumentStoreWithTestConfig(t testing.TB, options ...mongoengine.Option) *mongoengine.DocumentStore {
	t.Helper()

	uri := os.Getenv(envMongoURL)
	if uri == "" {
		t.Skipf("%s not set", envMongoURL)
	}

	target, err := config.ParseDatabaseURL(uri)
	require.NoError(t, err)

	client, err := config.MongoClient(context.Background(), target.URL)
	require.NoError(t, err, "error connecting to mongo in test setup")

	t.Cleanup(func() {
		_ = client.Disconnect(context.Background())
	})

	store, err := mongoengine.NewDocumentStore(client.Database(target.Database), options...)
	require.NoError(t, err)

	return store
}
