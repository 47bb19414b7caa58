package sanitizer_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/docstore-sanitizer/docstore"
	"github.com/AntonStoeckl/docstore-sanitizer/sanitizer"
	"github.com/AntonStoeckl/docstore-sanitizer/testutil/fixtures"
)

func Test_RecencyFilter_Filter_BoundariesAreInclusive(t *testing.T) {
	// setup
	recency, err := sanitizer.NewRecencyFilter(48 * time.Hour)
	require.NoError(t, err)

	products, _ := sanitizer.DefaultRegistry().Lookup(sanitizer.CollectionProducts)
	filter := recency.Filter(products, docstore.UUIDv7Scheme{}, fixedNow)

	since := fixedNow.Add(-48 * time.Hour)
	oldID := fixtures.IDAt(fixedNow.Add(-30 * 24 * time.Hour))

	testCases := []struct {
		name     string
		doc      docstore.Document
		expected bool
	}{
		{
			name:     "created exactly at window start",
			doc:      docstore.NewDocument(docstore.F(docstore.IDField, oldID), docstore.F(sanitizer.FieldCreatedAt, since)),
			expected: true,
		},
		{
			name:     "created one millisecond before window start",
			doc:      docstore.NewDocument(docstore.F(docstore.IDField, oldID), docstore.F(sanitizer.FieldCreatedAt, since.Add(-time.Millisecond))),
			expected: false,
		},
		{
			name:     "created exactly now",
			doc:      docstore.NewDocument(docstore.F(docstore.IDField, oldID), docstore.F(sanitizer.FieldCreatedAt, fixedNow)),
			expected: true,
		},
		{
			name:     "created in the future",
			doc:      docstore.NewDocument(docstore.F(docstore.IDField, oldID), docstore.F(sanitizer.FieldCreatedAt, fixedNow.Add(time.Hour))),
			expected: false,
		},
		{
			name: "updated within window",
			doc: docstore.NewDocument(
				docstore.F(docstore.IDField, oldID),
				docstore.F(sanitizer.FieldCreatedAt, since.Add(-time.Hour)),
				docstore.F(sanitizer.FieldUpdatedAt, since.Add(time.Hour).Format(time.RFC3339)),
			),
			expected: true,
		},
		{
			name:     "identifier minted at window start",
			doc:      docstore.NewDocument(docstore.F(docstore.IDField, fixtures.IDAt(since))),
			expected: true,
		},
		{
			name:     "identifier minted one millisecond before window start",
			doc:      docstore.NewDocument(docstore.F(docstore.IDField, fixtures.IDAt(since.Add(-time.Millisecond)))),
			expected: false,
		},
		{
			name:     "identifier of another shape",
			doc:      docstore.NewDocument(docstore.F(docstore.IDField, docstore.ULIDScheme{}.NewID(fixedNow))),
			expected: false,
		},
		{
			name:     "timestamp not parseable",
			doc:      docstore.NewDocument(docstore.F(docstore.IDField, oldID), docstore.F(sanitizer.FieldCreatedAt, "yesterday")),
			expected: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, matches(t, filter, tc.doc))
		})
	}
}

func Test_RecencyFilter_Filter_NeverMatchesAdministrators(t *testing.T) {
	// arrange
	recency, err := sanitizer.NewRecencyFilter(time.Hour)
	require.NoError(t, err)

	admin := fixtures.BuildUser(fixtures.IDAt(fixedNow), "Admin", "admin@shop.com", sanitizer.RoleAdmin, fixedNow)
	customer := fixtures.BuildUser(fixtures.IDAt(fixedNow), "Rita", "rita@mail.com", "customer", fixedNow)

	// act
	filter := recency.Filter(usersDescriptor(t), docstore.UUIDv7Scheme{}, fixedNow)

	// assert
	assert.False(t, matches(t, filter, admin))
	assert.True(t, matches(t, filter, customer))
}

func Test_RecencyFilter_Filter_WithoutIDScheme(t *testing.T) {
	// arrange
	recency, err := sanitizer.NewRecencyFilter(time.Hour)
	require.NoError(t, err)
	products, _ := sanitizer.DefaultRegistry().Lookup(sanitizer.CollectionProducts)

	// act
	filter := recency.Filter(products, nil, fixedNow)

	// assert
	assert.False(t, matches(t, filter, docstore.NewDocument(docstore.F(docstore.IDField, fixtures.IDAt(fixedNow)))))
}

func Test_NewRecencyFilter_WhenWindowNotPositive(t *testing.T) {
	_, err := sanitizer.NewRecencyFilter(0)
	assert.ErrorIs(t, err, sanitizer.ErrInvalidRecencyWindow)

	_, err = sanitizer.NewRecencyFilter(-time.Hour)
	assert.ErrorIs(t, err, sanitizer.ErrInvalidRecencyWindow)
}
