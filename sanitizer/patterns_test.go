package sanitizer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/docstore-sanitizer/docstore"
	"github.com/AntonStoeckl/docstore-sanitizer/sanitizer"
)

func usersDescriptor(t *testing.T) sanitizer.CollectionDescriptor {
	t.Helper()

	users, ok := sanitizer.DefaultRegistry().Lookup(sanitizer.CollectionUsers)
	require.True(t, ok)

	return users
}

func user(name, email, role string) docstore.Document {
	return docstore.NewDocument(
		docstore.F(docstore.IDField, "u-"+name),
		docstore.F("name", name),
		docstore.F(sanitizer.FieldEmail, email),
		docstore.F(sanitizer.FieldRole, role),
	)
}

func Test_PatternMatcher_Filter_MatchesTestData(t *testing.T) {
	// setup
	matcher, err := sanitizer.NewPatternMatcher()
	require.NoError(t, err)

	filter, ok := matcher.Filter(usersDescriptor(t))
	require.True(t, ok)

	testCases := []struct {
		name     string
		doc      docstore.Document
		expected bool
	}{
		{name: "keyword in email", doc: user("Tom", "test1@shop.com", "customer"), expected: true},
		{name: "keyword in upper case", doc: user("DEMO Account", "dana@mail.com", "customer"), expected: true},
		{name: "mixed case keyword", doc: user("SaMpLe", "sam@mail.com", "customer"), expected: true},
		{name: "email shape", doc: user("Max", "max@mailinator.com", "customer"), expected: true},
		{name: "allowlisted email with other case and spaces", doc: user("Jo", "  Customer@Shop.TEST ", "customer"), expected: true},
		{name: "real customer", doc: user("Rita", "real.customer@mail.com", "customer"), expected: false},
		{name: "administrator with test data", doc: user("Test Admin", "test@test.com", sanitizer.RoleAdmin), expected: false},
		{name: "email absent", doc: docstore.NewDocument(docstore.F(docstore.IDField, "x"), docstore.F("name", "Rita")), expected: false},
		{name: "email null", doc: docstore.NewDocument(docstore.F(docstore.IDField, "x"), docstore.F(sanitizer.FieldEmail, nil)), expected: false},
		{name: "email empty", doc: docstore.NewDocument(docstore.F(docstore.IDField, "x"), docstore.F(sanitizer.FieldEmail, "")), expected: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, matches(t, filter, tc.doc))
		})
	}
}

func Test_PatternMatcher_Filter_MatchesProductNamesIgnoringCase(t *testing.T) {
	// setup
	matcher, err := sanitizer.NewPatternMatcher()
	require.NoError(t, err)

	products, ok := sanitizer.DefaultRegistry().Lookup(sanitizer.CollectionProducts)
	require.True(t, ok)

	filter, ok := matcher.Filter(products)
	require.True(t, ok)

	testCases := []struct {
		name     string
		expected bool
	}{
		{name: "Test Product", expected: true},
		{name: "TEST PRODUCT", expected: true},
		{name: "test product", expected: true},
		{name: "Espresso Machine", expected: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			doc := docstore.NewDocument(docstore.F(docstore.IDField, "p1"), docstore.F("name", tc.name))
			assert.Equal(t, tc.expected, matches(t, filter, doc))
		})
	}
}

func Test_PatternMatcher_Filter_ScansNestedFields(t *testing.T) {
	// arrange
	matcher, err := sanitizer.NewPatternMatcher()
	require.NoError(t, err)
	orders, _ := sanitizer.DefaultRegistry().Lookup(sanitizer.CollectionOrders)

	// act
	filter, ok := matcher.Filter(orders)

	// assert
	require.True(t, ok)
	assert.True(t, matches(t, filter, docstore.NewDocument(
		docstore.F(docstore.IDField, "o1"),
		docstore.F("shippingAddress", docstore.NewDocument(docstore.F("fullName", "Mock Person"))),
	)))
	assert.False(t, matches(t, filter, docstore.NewDocument(
		docstore.F(docstore.IDField, "o2"),
		docstore.F("shippingAddress", docstore.NewDocument(docstore.F("fullName", "Real Person"))),
	)))
}

func Test_PatternMatcher_Filter_WhenNothingToScan(t *testing.T) {
	// arrange
	matcher, err := sanitizer.NewPatternMatcher()
	require.NoError(t, err)

	// act
	_, ok := matcher.Filter(sanitizer.NewCollectionDescriptor("logs"))

	// assert
	assert.False(t, ok)
}

func Test_PatternMatcher_WithCustomPatterns(t *testing.T) {
	// arrange
	matcher, err := sanitizer.NewPatternMatcher(
		sanitizer.WithKeywordPatterns("qa"),
		sanitizer.WithEmailPatterns(`@staging\.`),
		sanitizer.WithEmailAllowlist("bot@shop.com"),
	)
	require.NoError(t, err)

	// act
	filter, ok := matcher.Filter(usersDescriptor(t))

	// assert
	require.True(t, ok)
	assert.True(t, matches(t, filter, user("QA Team", "team@mail.com", "customer")))
	assert.True(t, matches(t, filter, user("Ann", "ann@staging.shop.com", "customer")))
	assert.True(t, matches(t, filter, user("Bot", "BOT@shop.com", "customer")))
	assert.False(t, matches(t, filter, user("Test", "person@mail.com", "customer")))
}

func Test_NewPatternMatcher_WhenPatternInvalid(t *testing.T) {
	_, err := sanitizer.NewPatternMatcher(sanitizer.WithKeywordPatterns("(unclosed"))
	assert.ErrorIs(t, err, sanitizer.ErrInvalidPattern)

	_, err = sanitizer.NewPatternMatcher(sanitizer.WithEmailPatterns(""))
	assert.ErrorIs(t, err, sanitizer.ErrInvalidPattern)
}
