package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/hashicorp/go-set/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/docstore-sanitizer/docstore/memengine"
	"github.com/AntonStoeckl/docstore-sanitizer/sanitizer"
)

var now = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, 0))
}

func Test_GenerateDataset_WithSameSeed_GivesSameShape(t *testing.T) {
	// setup
	sizes := Sizes{Users: 50, Products: 20, Categories: 3}

	// act
	first := generateDataset(newRand(7), sizes, now)
	second := generateDataset(newRand(7), sizes, now)

	// assert
	require.Len(t, second.Entries, len(first.Entries))
	for i := range first.Entries {
		assert.Equal(t, first.Entries[i].Collection, second.Entries[i].Collection)
		assert.Equal(t, first.Entries[i].Kind, second.Entries[i].Kind)
	}
}

func Test_GenerateDataset_CoversEveryCollection(t *testing.T) {
	// act
	dataset := generateDataset(newRand(3), Sizes{Users: 200, Products: 60, Categories: 5}, now)

	// assert
	grouped := dataset.ByCollection()
	for _, name := range sanitizer.DefaultRegistry().Names() {
		assert.NotEmpty(t, grouped[name], name)
	}

	assert.Len(t, grouped[sanitizer.CollectionUsers], 201)
	assert.Len(t, grouped[sanitizer.CollectionProducts], 60)
	assert.Len(t, grouped[sanitizer.CollectionCategories], 5)
	assert.Positive(t, dataset.Count(KindTest))
	assert.Positive(t, dataset.Count(KindReal))
}

func Test_GenerateDataset_WithoutProducts_SkipsProductReferences(t *testing.T) {
	// act
	dataset := generateDataset(newRand(1), Sizes{Users: 10}, now)

	// assert
	grouped := dataset.ByCollection()
	assert.Empty(t, grouped[sanitizer.CollectionWishlists])
	assert.Empty(t, grouped[sanitizer.CollectionReviews])
	assert.Len(t, grouped[sanitizer.CollectionAddresses], 11)
}

func Test_Seed_ThenSanitize_RemovesEverythingThatIsNotReal(t *testing.T) {
	// setup
	ctx := context.Background()
	store, err := memengine.NewDocumentStore()
	require.NoError(t, err)

	dataset := generateDataset(newRand(11), Sizes{Users: 120, Products: 40, Categories: 4}, now)
	require.NoError(t, seed(ctx, store, sanitizer.DefaultRegistry(), dataset))

	controller, err := sanitizer.NewController(store, sanitizer.WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	// act
	report, err := controller.Run(ctx, sanitizer.ModeNormal)

	// assert
	require.NoError(t, err)
	assert.Positive(t, report.TotalDeleted)

	remaining := set.New[string](0)
	for _, name := range store.Collections() {
		for _, doc := range store.Documents(name) {
			remaining.Insert(doc.ID())
		}
	}

	assert.True(t, remaining.Contains(dataset.AdminID))
	for _, e := range dataset.Entries {
		if e.Kind != KindReal {
			assert.False(t, remaining.Contains(e.Document.ID()), "%s %s %s survived", e.Kind, e.Collection, e.Document.ID())
		}
	}
}

func Test_WriteManifest_ListsEveryDocument(t *testing.T) {
	// setup
	dataset := generateDataset(newRand(5), Sizes{Users: 5, Products: 3, Categories: 1}, now)
	var buf bytes.Buffer

	// act
	err := writeManifest(&buf, dataset)

	// assert
	require.NoError(t, err)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, len(dataset.Entries)+1)
	assert.Equal(t, []string{"collection", "id", "kind"}, records[0])
	assert.Equal(t, sanitizer.CollectionUsers, records[1][0])
	assert.Equal(t, dataset.AdminID, records[1][1])
	assert.Equal(t, string(KindReal), records[1][2])
}
