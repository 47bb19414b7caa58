package postgresengine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/docstore-sanitizer/docstore"
)

func Test_BuildCountQuery_CompilesNestedPathsAndExclusions(t *testing.T) {
	// arrange
	ds := &DocumentStore{idScheme: docstore.UUIDv7Scheme{}}
	filter := docstore.BuildFilter().
		Matching(docstore.MatchesPattern("shippingAddress.fullName", "test")).
		OrMatching(docstore.MatchesPattern("email", `^demo[^@]*@`)).
		ExcludingMatches(docstore.Equals("role", "admin")).
		Finalize()

	// act
	sqlQuery, err := ds.buildCountQuery("orders", filter)

	// assert
	require.NoError(t, err)
	assert.Contains(t, sqlQuery, `SELECT COUNT(*) FROM "orders"`)
	assert.Contains(t, sqlQuery, `(("data" -> 'shippingAddress') ->> 'fullName')`)
	assert.Contains(t, sqlQuery, `~* 'test'`)
	assert.Contains(t, sqlQuery, `~* '^demo[^@]*@'`)
	assert.Contains(t, sqlQuery, `NOT (COALESCE(`)
	assert.Contains(t, sqlQuery, `= 'admin'`)
}

func Test_BuildDeleteQuery_CompilesOrphanConditions(t *testing.T) {
	// arrange
	ds := &DocumentStore{idScheme: docstore.UUIDv7Scheme{}}
	filter := docstore.BuildFilter().
		Matching(docstore.Absent("userId")).
		OrMatching(docstore.Null("userId")).
		OrMatching(docstore.NotIn("userId", []string{"u-1", "u-2"})).
		Finalize()

	// act
	sqlQuery, err := ds.buildDeleteQuery("wishlists", filter)

	// assert
	require.NoError(t, err)
	assert.Contains(t, sqlQuery, `DELETE FROM "wishlists"`)
	assert.Contains(t, sqlQuery, `(("data" -> 'userId')) IS NULL`)
	assert.Contains(t, sqlQuery, `jsonb_typeof(("data" -> 'userId')) = 'null'`)
	assert.Contains(t, sqlQuery, `NOT IN ('u-1', 'u-2')`)
}

func Test_CompileCondition_Leaves(t *testing.T) {
	since := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		condition docstore.Condition
		contains  []string
	}{
		{
			name:      "match_all",
			condition: docstore.Everything(),
			contains:  []string{"TRUE"},
		},
		{
			name:      "empty_or_matches_nothing",
			condition: docstore.Or(),
			contains:  []string{"FALSE"},
		},
		{
			name:      "id_equals_uses_column",
			condition: docstore.Equals("_id", "abc"),
			contains:  []string{`"id" = 'abc'`},
		},
		{
			name:      "not_in_without_values_only_requires_presence",
			condition: docstore.NotIn("productId", nil),
			contains:  []string{`jsonb_typeof(("data" -> 'productId')) != 'null'`},
		},
		{
			name:      "time_between_is_inclusive",
			condition: docstore.TimeBetween("createdAt", since, since.Add(time.Hour)),
			contains: []string{
				"BETWEEN '2025-06-01T10:00:00Z'::timestamptz AND '2025-06-01T11:00:00Z'::timestamptz",
				"::timestamptz END",
			},
		},
		{
			name:      "minted_since_compares_with_lower_bound",
			condition: docstore.MintedSince(docstore.ULIDScheme{}, since),
			contains: []string{
				`"id" COLLATE "C" >= '` + docstore.ULIDScheme{}.LowerBound(since) + `'`,
				`"id" ~ '^[0-7][0-9A-HJKMNP-TV-Z]{25}$'`,
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ds := &DocumentStore{idScheme: docstore.UUIDv7Scheme{}}
			filter := docstore.BuildFilter().Matching(tc.condition).Finalize()

			sqlQuery, err := ds.buildCountQuery("users", filter)

			require.NoError(t, err)
			for _, fragment := range tc.contains {
				assert.Contains(t, sqlQuery, fragment)
			}
		})
	}
}

func Test_BuildInsertQuery_MintsMissingIDsAndStripsIDFromPayload(t *testing.T) {
	// arrange
	ds := &DocumentStore{idScheme: docstore.UUIDv7Scheme{}}
	docs := []docstore.Document{
		docstore.NewDocument(docstore.F("_id", "given"), docstore.F("name", "Widget")),
		docstore.NewDocument(docstore.F("name", "Gadget")),
	}

	// act
	sqlQuery, err := ds.buildInsertQuery("products", docs)

	// assert
	require.NoError(t, err)
	assert.Contains(t, sqlQuery, `INSERT INTO "products" ("id", "data")`)
	assert.Contains(t, sqlQuery, `('given', '{"name":"Widget"}'::jsonb)`)
	assert.Contains(t, sqlQuery, `'{"name":"Gadget"}'::jsonb`)
	assert.NotContains(t, sqlQuery, `"_id"`)
}

func Test_BuildCreateTableStatements_QuotesIdentifiers(t *testing.T) {
	statements := buildCreateTableStatements(`product"Variants`)

	require.Len(t, statements, 2)
	assert.Contains(t, statements[0], `CREATE TABLE IF NOT EXISTS "product""Variants" (id text PRIMARY KEY, data jsonb NOT NULL)`)
	assert.Contains(t, statements[1], `USING gin (data jsonb_path_ops)`)
	assert.Equal(t, `DROP TABLE IF EXISTS "product""Variants"`, buildDropTableStatement(`product"Variants`))
}
