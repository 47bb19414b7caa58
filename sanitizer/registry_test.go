package sanitizer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/docstore-sanitizer/sanitizer"
)

func Test_DefaultRegistry_DependentsInDependencyOrder(t *testing.T) {
	// act
	dependents := sanitizer.DefaultRegistry().Dependents()

	// assert
	names := make([]string, 0, len(dependents))
	for _, d := range dependents {
		names = append(names, d.Name)
	}

	assert.Equal(t, []string{
		sanitizer.CollectionProducts,
		sanitizer.CollectionProductVariants,
		sanitizer.CollectionReviews,
		sanitizer.CollectionWishlists,
		sanitizer.CollectionOrders,
		sanitizer.CollectionAddresses,
	}, names)

	assert.Equal(t, []string{sanitizer.CollectionProducts, sanitizer.CollectionUsers}, dependents[3].Parents())
}

func Test_DefaultRegistry_ProtectsAdministrators(t *testing.T) {
	// act
	users, ok := sanitizer.DefaultRegistry().Lookup(sanitizer.CollectionUsers)

	// assert
	require.True(t, ok)
	role, protected := users.ProtectedRole()
	assert.True(t, protected)
	assert.Equal(t, sanitizer.RoleRule{Field: sanitizer.FieldRole, Value: sanitizer.RoleAdmin}, role)
	assert.Equal(t, sanitizer.FieldEmail, users.EmailField())

	products, _ := sanitizer.DefaultRegistry().Lookup(sanitizer.CollectionProducts)
	_, protected = products.ProtectedRole()
	assert.False(t, protected)
}

func Test_CollectionDescriptor_ScannableTextFieldsAreCopied(t *testing.T) {
	// arrange
	descriptor := sanitizer.NewCollectionDescriptor("c", sanitizer.WithScannableTextFields("a", "b", "a", ""))

	// act
	fields := descriptor.ScannableTextFields()
	fields[0] = "changed"

	// assert
	assert.Equal(t, []string{"a", "b"}, descriptor.ScannableTextFields())
}

func Test_NewRegistry_WhenInvalid(t *testing.T) {
	a := sanitizer.NewCollectionDescriptor("a")
	b := sanitizer.NewCollectionDescriptor("b")

	testCases := []struct {
		name        string
		descriptors []sanitizer.CollectionDescriptor
		relations   []sanitizer.OrphanRelation
	}{
		{
			name:        "empty collection name",
			descriptors: []sanitizer.CollectionDescriptor{sanitizer.NewCollectionDescriptor("")},
		},
		{
			name:        "duplicate collection",
			descriptors: []sanitizer.CollectionDescriptor{a, a},
		},
		{
			name:        "relation to unknown parent",
			descriptors: []sanitizer.CollectionDescriptor{a},
			relations:   []sanitizer.OrphanRelation{{Dependent: "a", Field: "bId", Parent: "b"}},
		},
		{
			name:        "relation without field",
			descriptors: []sanitizer.CollectionDescriptor{a, b},
			relations:   []sanitizer.OrphanRelation{{Dependent: "a", Parent: "b"}},
		},
		{
			name:        "cyclic relations",
			descriptors: []sanitizer.CollectionDescriptor{a, b},
			relations: []sanitizer.OrphanRelation{
				{Dependent: "a", Field: "bId", Parent: "b"},
				{Dependent: "b", Field: "aId", Parent: "a"},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := sanitizer.NewRegistry(tc.descriptors, tc.relations)
			assert.ErrorIs(t, err, sanitizer.ErrInvalidRegistry)
		})
	}
}

func Test_NewRegistry_AllowsSelfReference(t *testing.T) {
	// act
	registry, err := sanitizer.NewRegistry(
		[]sanitizer.CollectionDescriptor{sanitizer.NewCollectionDescriptor("categories")},
		[]sanitizer.OrphanRelation{{Dependent: "categories", Field: "parentId", Parent: "categories"}},
	)

	// assert
	require.NoError(t, err)
	require.Len(t, registry.Dependents(), 1)
	assert.Equal(t, "categories", registry.Dependents()[0].Name)
}
