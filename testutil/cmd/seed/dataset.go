package main

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/AntonStoeckl/docstore-sanitizer/docstore"
	"github.com/AntonStoeckl/docstore-sanitizer/sanitizer"
	"github.com/AntonStoeckl/docstore-sanitizer/testutil/fixtures"
)

// Kind tells how a generated document was meant to look to the sanitizer.
type Kind string

const (
	KindReal     Kind = "real"
	KindTest     Kind = "test"     // looks like test data
	KindRecent   Kind = "recent"   // created inside the default recency window
	KindDangling Kind = "dangling" // references a parent that does not exist
)

// Sizes controls how many top-level documents are generated. Dependents are derived from them.
type Sizes struct {
	Users      int
	Products   int
	Categories int
}

// Entry is one generated document together with the collection it belongs to.
type Entry struct {
	Collection string
	Kind       Kind
	Document   docstore.Document
}

// Dataset is a generated shop, in insertion order.
type Dataset struct {
	Entries []Entry
	AdminID string
}

// ByCollection groups the documents per collection, keeping their order.
func (d Dataset) ByCollection() map[string][]docstore.Document {
	grouped := make(map[string][]docstore.Document)
	for _, e := range d.Entries {
		grouped[e.Collection] = append(grouped[e.Collection], e.Document)
	}

	return grouped
}

// Count returns the number of entries of the given kind.
func (d Dataset) Count(kind Kind) int {
	n := 0
	for _, e := range d.Entries {
		if e.Kind == kind {
			n++
		}
	}

	return n
}

var (
	firstNames   = []string{"Anna", "Ben", "Clara", "David", "Emma", "Felix", "Greta", "Hannes", "Ida", "Jonas"}
	lastNames    = []string{"Schmidt", "Weber", "Wagner", "Becker", "Hoffmann", "Koch", "Richter", "Wolf"}
	productNames = []string{"Espresso Machine", "Desk Lamp", "Hiking Boots", "Wool Scarf", "Coffee Grinder", "Yoga Mat"}
	categories   = []string{"Kitchen", "Outdoor", "Clothing", "Home", "Sports"}
	variantNames = []string{"Blue", "Red", "Large", "Small"}
	reviewTitles = []string{"Great quality", "Would buy again", "Arrived quickly", "Good value"}
	testNames    = []string{"Test User", "Demo Account", "Sample Person", "Dummy Buyer"}
	testProducts = []string{"Demo Product", "Test Article", "Sample Item", "Mock Gadget"}
)

type generator struct {
	rng   *rand.Rand
	now   time.Time
	data  Dataset
	users []string
	prods []string
}

// generateDataset builds a shop where roughly a fifth of the users and products look like test data.
// Documents are spread over the last 90 days, with a few inside the last day.
func generateDataset(rng *rand.Rand, sizes Sizes, now time.Time) Dataset {
	g := &generator{rng: rng, now: now}

	adminAt := g.oldTime()
	g.data.AdminID = fixtures.IDAt(adminAt)
	g.add(sanitizer.CollectionUsers, KindReal,
		fixtures.BuildUser(g.data.AdminID, "Shop Administrator", "admin@shop.com", sanitizer.RoleAdmin, adminAt))
	g.users = append(g.users, g.data.AdminID)

	categoryIDs := make([]string, 0, sizes.Categories)
	for i := 0; i < sizes.Categories; i++ {
		at := g.oldTime()
		id := fixtures.IDAt(at)
		categoryIDs = append(categoryIDs, id)
		g.add(sanitizer.CollectionCategories, KindReal, fixtures.BuildCategory(id, categories[i%len(categories)], at))
	}

	for i := 0; i < sizes.Users; i++ {
		g.user(i)
	}

	for i := 0; i < sizes.Products && len(categoryIDs) > 0; i++ {
		g.product(i, categoryIDs[g.rng.IntN(len(categoryIDs))])
	}

	for _, userID := range g.users {
		g.dependentsOf(userID)
	}

	return g.data
}

func (g *generator) user(i int) {
	kind, at := g.pick()
	id := fixtures.IDAt(at)

	first := firstNames[g.rng.IntN(len(firstNames))]
	last := lastNames[g.rng.IntN(len(lastNames))]
	name := first + " " + last
	email := fmt.Sprintf("%s.%s%d@shopmail.com", first, last, i)

	if kind == KindTest {
		name = testNames[g.rng.IntN(len(testNames))]
		email = fmt.Sprintf("test.user%d@example.com", i)
	}

	g.add(sanitizer.CollectionUsers, kind, fixtures.BuildUser(id, name, email, "customer", at))
	g.users = append(g.users, id)
}

func (g *generator) product(i int, categoryID string) {
	kind, at := g.pick()
	id := fixtures.IDAt(at)

	name := productNames[g.rng.IntN(len(productNames))]
	if kind == KindTest {
		name = fmt.Sprintf("%s %d", testProducts[g.rng.IntN(len(testProducts))], i)
	}

	g.add(sanitizer.CollectionProducts, kind, fixtures.BuildProduct(id, name, categoryID, at))
	g.prods = append(g.prods, id)

	variants := 1 + g.rng.IntN(2)
	for v := 0; v < variants; v++ {
		vat := g.oldTime()
		g.add(sanitizer.CollectionProductVariants, KindReal,
			fixtures.BuildProductVariant(fixtures.IDAt(vat), id, variantNames[g.rng.IntN(len(variantNames))], vat))
	}
}

func (g *generator) dependentsOf(userID string) {
	fullName := firstNames[g.rng.IntN(len(firstNames))] + " " + lastNames[g.rng.IntN(len(lastNames))]

	at := g.oldTime()
	g.add(sanitizer.CollectionAddresses, KindReal, fixtures.BuildAddress(fixtures.IDAt(at), userID, fullName, at))

	orders := g.rng.IntN(3)
	for o := 0; o < orders; o++ {
		at := g.oldTime()
		g.add(sanitizer.CollectionOrders, KindReal, fixtures.BuildOrder(fixtures.IDAt(at), userID, fullName, at))
	}

	if len(g.prods) == 0 {
		return
	}

	wishlists := g.rng.IntN(3)
	for w := 0; w < wishlists; w++ {
		at := g.oldTime()
		productID, kind := g.reference()
		g.add(sanitizer.CollectionWishlists, kind, fixtures.BuildWishlist(fixtures.IDAt(at), userID, productID, at))
	}

	if g.rng.IntN(2) == 0 {
		at := g.oldTime()
		productID, kind := g.reference()
		title := reviewTitles[g.rng.IntN(len(reviewTitles))]
		g.add(sanitizer.CollectionReviews, kind, fixtures.BuildReview(fixtures.IDAt(at), userID, productID, title, at))
	}
}

// reference returns an existing product most of the time and a product that never existed otherwise.
func (g *generator) reference() (string, Kind) {
	if g.rng.IntN(100) < 5 {
		return fixtures.IDAt(g.oldTime()), KindDangling
	}

	return g.prods[g.rng.IntN(len(g.prods))], KindReal
}

// pick decides the kind of a top-level document, weighted 75% real, 20% test, 5% recent.
func (g *generator) pick() (Kind, time.Time) {
	switch action := g.rng.IntN(100); {
	case action < 75:
		return KindReal, g.oldTime()
	case action < 95:
		return KindTest, g.oldTime()
	default:
		return KindRecent, g.now.Add(-time.Duration(1+g.rng.IntN(23)) * time.Hour)
	}
}

// oldTime is between 3 and 90 days ago, well outside the default recency window.
func (g *generator) oldTime() time.Time {
	return g.now.Add(-72*time.Hour - time.Duration(g.rng.IntN(87*24))*time.Hour)
}

func (g *generator) add(collection string, kind Kind, doc docstore.Document) {
	g.data.Entries = append(g.data.Entries, Entry{Collection: collection, Kind: kind, Document: doc})
}
