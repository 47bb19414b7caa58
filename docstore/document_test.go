package docstore_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/docstore-sanitizer/docstore"
)

func Test_Document_Lookup_DistinguishesAbsentNullAndEmpty(t *testing.T) {
	// arrange
	doc := docstore.NewDocument(
		docstore.F("_id", "u-1"),
		docstore.F("empty", ""),
		docstore.F("nothing", nil),
		docstore.F("shippingAddress", docstore.NewDocument(docstore.F("fullName", "Test Person"))),
		docstore.F("meta", map[string]any{"source": "import"}),
	)

	// act / assert
	assert.True(t, doc.Has("empty"))
	assert.False(t, doc.IsNull("empty"))
	s, ok := doc.StringAt("empty")
	assert.True(t, ok)
	assert.Empty(t, s)

	assert.True(t, doc.Has("nothing"))
	assert.True(t, doc.IsNull("nothing"))

	assert.False(t, doc.Has("missing"))
	assert.False(t, doc.IsNull("missing"))

	name, ok := doc.StringAt("shippingAddress.fullName")
	assert.True(t, ok)
	assert.Equal(t, "Test Person", name)

	source, ok := doc.StringAt("meta.source")
	assert.True(t, ok)
	assert.Equal(t, "import", source)

	assert.False(t, doc.Has("shippingAddress.street"))
	assert.False(t, doc.Has("empty.nested"))
	assert.Equal(t, "u-1", doc.ID())
}

func Test_Document_With_KeepsOrderAndDoesNotMutate(t *testing.T) {
	// arrange
	original := docstore.NewDocument(docstore.F("a", 1), docstore.F("b", 2))

	// act
	changed := original.With("a", 10).With("c", 3)

	// assert
	assert.Equal(t, []string{"a", "b"}, original.Keys())
	assert.Equal(t, []string{"a", "b", "c"}, changed.Keys())
	v, _ := original.Lookup("a")
	assert.Equal(t, 1, v)
	v, _ = changed.Lookup("a")
	assert.Equal(t, 10, v)
	assert.Equal(t, []string{"b"}, original.Without("a").Keys())
}

func Test_Document_TimeAt(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	doc := docstore.NewDocument(
		docstore.F("createdAt", at),
		docstore.F("updatedAt", at.Format(time.RFC3339Nano)),
		docstore.F("deletedAt", "yesterday"),
	)

	created, ok := doc.TimeAt("createdAt")
	assert.True(t, ok)
	assert.True(t, at.Equal(created))

	updated, ok := doc.TimeAt("updatedAt")
	assert.True(t, ok)
	assert.True(t, at.Equal(updated))

	_, ok = doc.TimeAt("deletedAt")
	assert.False(t, ok)
}

func Test_Document_JSON_PreservesOrderAndPresence(t *testing.T) {
	// arrange
	doc := docstore.NewDocument(
		docstore.F("_id", "p-1"),
		docstore.F("name", "Widget"),
		docstore.F("categoryId", nil),
		docstore.F("stock", int64(3)),
		docstore.F("price", 9.5),
		docstore.F("dimensions", docstore.NewDocument(docstore.F("w", int64(1)), docstore.F("h", int64(2)))),
		docstore.F("tags", []any{"a", "b"}),
	)

	// act
	data, err := doc.MarshalJSON()
	require.NoError(t, err)

	decoded, err := docstore.DocumentFromJSON(data)
	require.NoError(t, err)

	// assert
	assert.JSONEq(t,
		`{"_id":"p-1","name":"Widget","categoryId":null,"stock":3,"price":9.5,"dimensions":{"w":1,"h":2},"tags":["a","b"]}`,
		string(data))
	assert.Equal(t, doc.Keys(), decoded.Keys())
	assert.True(t, decoded.IsNull("categoryId"))
	stock, _ := decoded.Lookup("stock")
	assert.Equal(t, int64(3), stock)
	price, _ := decoded.Lookup("price")
	assert.InDelta(t, 9.5, price, 0.0001)
	h, _ := decoded.Lookup("dimensions.h")
	assert.Equal(t, int64(2), h)
}

func Test_DocumentFromJSON_RejectsNonObjects(t *testing.T) {
	_, err := docstore.DocumentFromJSON([]byte(`["a"]`))

	assert.ErrorIs(t, err, docstore.ErrDecodingDocumentFailed)
}

type hexID string

func (h hexID) Hex() string { return string(h) }

func Test_IDString(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected string
	}{
		{name: "string", value: "abc", expected: "abc"},
		{name: "nil", value: nil, expected: ""},
		{name: "hex", value: hexID("65f0c0ffee"), expected: "65f0c0ffee"},
		{name: "int64", value: int64(42), expected: "42"},
		{name: "float", value: 1.5, expected: "1.5"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, docstore.IDString(tc.value))
		})
	}
}
