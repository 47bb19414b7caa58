// Package storetest holds a behavioral test suite every docstore.Store engine has to pass.
//
// The memory engine runs it unconditionally; the PostgreSQL and MongoDB engines run it
// when a test database is configured.
package storetest

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/docstore-sanitizer/docstore"
)

// StoreFactory returns a store to run one contract case against.
type StoreFactory func(t *testing.T) docstore.SeedableStore

// GivenUniqueCollectionName returns a collection name that does not clash between test runs.
func GivenUniqueCollectionName(t testing.TB, prefix string) string {
	t.Helper()

	return prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// GivenCollection seeds a fresh collection and drops it when the test finishes.
func GivenCollection(
	t *testing.T,
	ctx context.Context,
	store docstore.SeedableStore,
	prefix string,
	docs ...docstore.Document,
) string {

	t.Helper()

	name := GivenUniqueCollectionName(t, prefix)
	require.NoError(t, store.CreateCollection(ctx, name))
	require.NoError(t, store.InsertMany(ctx, name, docs))

	t.Cleanup(func() {
		_ = store.DropCollection(context.Background(), name)
	})

	return name
}

// Run executes the whole contract.
//
//nolint:funlen
func Run(t *testing.T, newStore StoreFactory) {
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("missing_collection_is_reported", func(t *testing.T) {
		store := newStore(t)
		name := GivenUniqueCollectionName(t, "missing")
		all := docstore.BuildFilter().MatchingAll()

		_, err := store.Count(ctx, name, all)
		assert.ErrorIs(t, err, docstore.ErrCollectionNotFound)

		_, err = store.Find(ctx, name, all, 1)
		assert.ErrorIs(t, err, docstore.ErrCollectionNotFound)

		_, err = store.DeleteMany(ctx, name, all)
		assert.ErrorIs(t, err, docstore.ErrCollectionNotFound)

		_, err = store.IDs(ctx, name)
		assert.ErrorIs(t, err, docstore.ErrCollectionNotFound)

		assert.NoError(t, store.DropCollection(ctx, name))
	})

	t.Run("insert_count_and_ids", func(t *testing.T) {
		store := newStore(t)
		scheme := store.IDScheme()
		ids := []string{scheme.NewID(base), scheme.NewID(base.Add(time.Second)), scheme.NewID(base.Add(2 * time.Second))}

		name := GivenCollection(t, ctx, store, "users",
			docstore.NewDocument(docstore.F("_id", ids[0]), docstore.F("name", "Alice")),
			docstore.NewDocument(docstore.F("_id", ids[1]), docstore.F("name", "Bob")),
			docstore.NewDocument(docstore.F("_id", ids[2]), docstore.F("name", "Carol")),
		)

		count, err := store.Count(ctx, name, docstore.BuildFilter().MatchingAll())
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)

		storedIDs, err := store.IDs(ctx, name)
		require.NoError(t, err)
		assert.ElementsMatch(t, ids, storedIDs)

		found, err := store.Find(ctx, name, docstore.BuildFilter().Matching(docstore.Equals("_id", ids[1])).Finalize(), 0)
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, ids[1], found[0].ID())
		name1, _ := found[0].StringAt("name")
		assert.Equal(t, "Bob", name1)
	})

	t.Run("pattern_is_case_insensitive_and_string_only", func(t *testing.T) {
		store := newStore(t)
		name := GivenCollection(t, ctx, store, "orders",
			docstore.NewDocument(docstore.F("notes", "TEST order")),
			docstore.NewDocument(docstore.F("notes", "regular"), docstore.F("shippingAddress",
				docstore.NewDocument(docstore.F("fullName", "Demo Person")))),
			docstore.NewDocument(docstore.F("notes", int64(7))),
			docstore.NewDocument(docstore.F("notes", nil)),
			docstore.NewDocument(docstore.F("other", "test")),
		)

		filter := docstore.BuildFilter().
			Matching(docstore.MatchesPattern("notes", "test")).
			OrMatching(docstore.MatchesPattern("shippingAddress.fullName", "demo")).
			Finalize()

		count, err := store.Count(ctx, name, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("absent_null_and_not_in_distinguish_presence", func(t *testing.T) {
		store := newStore(t)
		name := GivenCollection(t, ctx, store, "reviews",
			docstore.NewDocument(docstore.F("title", "valid"), docstore.F("userId", "u-1")),
			docstore.NewDocument(docstore.F("title", "dangling"), docstore.F("userId", "u-9")),
			docstore.NewDocument(docstore.F("title", "null"), docstore.F("userId", nil)),
			docstore.NewDocument(docstore.F("title", "absent")),
			docstore.NewDocument(docstore.F("title", "empty"), docstore.F("userId", "")),
		)

		count := func(c docstore.Condition) int64 {
			n, err := store.Count(ctx, name, docstore.BuildFilter().Matching(c).Finalize())
			require.NoError(t, err)
			return n
		}

		assert.Equal(t, int64(1), count(docstore.Absent("userId")))
		assert.Equal(t, int64(1), count(docstore.Null("userId")))
		assert.Equal(t, int64(2), count(docstore.NotIn("userId", []string{"u-1"})))
		assert.Equal(t, int64(4), count(docstore.Or(
			docstore.Absent("userId"),
			docstore.Null("userId"),
			docstore.NotIn("userId", []string{"u-1"}),
		)))
		assert.Equal(t, int64(4), count(docstore.Negate(docstore.Equals("userId", "u-1"))))
		assert.Equal(t, int64(0), count(docstore.Or()))
	})

	t.Run("time_window_is_inclusive", func(t *testing.T) {
		store := newStore(t)
		from := base.Add(-48 * time.Hour)
		name := GivenCollection(t, ctx, store, "products",
			docstore.NewDocument(docstore.F("name", "at_lower_bound"), docstore.F("createdAt", from)),
			docstore.NewDocument(docstore.F("name", "just_before"), docstore.F("createdAt", from.Add(-time.Millisecond))),
			docstore.NewDocument(docstore.F("name", "at_upper_bound"), docstore.F("createdAt", base)),
			docstore.NewDocument(docstore.F("name", "in_future"), docstore.F("createdAt", base.Add(time.Millisecond))),
			docstore.NewDocument(docstore.F("name", "no_timestamp")),
			docstore.NewDocument(docstore.F("name", "garbage"), docstore.F("createdAt", "yesterday")),
		)

		found, err := store.Find(ctx, name, docstore.BuildFilter().
			Matching(docstore.TimeBetween("createdAt", from, base)).
			Finalize(), 0)
		require.NoError(t, err)

		names := make([]string, 0, len(found))
		for _, doc := range found {
			n, _ := doc.StringAt("name")
			names = append(names, n)
		}
		assert.ElementsMatch(t, []string{"at_lower_bound", "at_upper_bound"}, names)
	})

	t.Run("minted_since_uses_id_timestamp", func(t *testing.T) {
		store := newStore(t)
		scheme := store.IDScheme()
		since := base.Add(-time.Hour)
		name := GivenCollection(t, ctx, store, "wishlists",
			docstore.NewDocument(docstore.F("_id", scheme.NewID(since)), docstore.F("name", "boundary")),
			docstore.NewDocument(docstore.F("_id", scheme.NewID(base)), docstore.F("name", "recent")),
			docstore.NewDocument(docstore.F("_id", scheme.NewID(since.Add(-time.Hour))), docstore.F("name", "old")),
		)

		count, err := store.Count(ctx, name, docstore.BuildFilter().Matching(docstore.MintedSince(scheme, since)).Finalize())
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("delete_many_removes_exactly_the_matches", func(t *testing.T) {
		store := newStore(t)
		name := GivenCollection(t, ctx, store, "categories",
			docstore.NewDocument(docstore.F("name", "Sample category"), docstore.F("role", "x")),
			docstore.NewDocument(docstore.F("name", "Books")),
			docstore.NewDocument(docstore.F("name", "sample admin"), docstore.F("role", "admin")),
		)

		filter := docstore.BuildFilter().
			Matching(docstore.MatchesPattern("name", "sample")).
			ExcludingMatches(docstore.Equals("role", "admin")).
			Finalize()

		deleted, err := store.DeleteMany(ctx, name, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(1), deleted)

		deleted, err = store.DeleteMany(ctx, name, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(0), deleted)

		remaining, err := store.Count(ctx, name, docstore.BuildFilter().MatchingAll())
		require.NoError(t, err)
		assert.Equal(t, int64(2), remaining)
	})

	t.Run("find_respects_limit", func(t *testing.T) {
		store := newStore(t)
		name := GivenCollection(t, ctx, store, "addresses",
			docstore.NewDocument(docstore.F("city", "a")),
			docstore.NewDocument(docstore.F("city", "b")),
			docstore.NewDocument(docstore.F("city", "c")),
		)

		found, err := store.Find(ctx, name, docstore.BuildFilter().MatchingAll(), 2)
		require.NoError(t, err)
		assert.Len(t, found, 2)
	})

	t.Run("drop_and_create_reset_a_collection", func(t *testing.T) {
		store := newStore(t)
		name := GivenCollection(t, ctx, store, "productVariants",
			docstore.NewDocument(docstore.F("sku", "TEST-1")),
		)

		require.NoError(t, store.DropCollection(ctx, name))
		_, err := store.Count(ctx, name, docstore.BuildFilter().MatchingAll())
		assert.ErrorIs(t, err, docstore.ErrCollectionNotFound)

		require.NoError(t, store.CreateCollection(ctx, name))
		require.NoError(t, store.CreateCollection(ctx, name))
		count, err := store.Count(ctx, name, docstore.BuildFilter().MatchingAll())
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)
	})
}
