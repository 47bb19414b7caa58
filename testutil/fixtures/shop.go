package fixtures

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/docstore-sanitizer/docstore"
	"github.com/AntonStoeckl/docstore-sanitizer/sanitizer"
)

// IDAt mints a UUIDv7 identifier embedding the given time.
func IDAt(at time.Time) string {
	return docstore.UUIDv7Scheme{}.NewID(at)
}

// BuildUser creates a users document.
func BuildUser(id string, name string, email string, role string, createdAt time.Time) docstore.Document {
	return docstore.NewDocument(
		docstore.F(docstore.IDField, id),
		docstore.F("name", name),
		docstore.F(sanitizer.FieldEmail, email),
		docstore.F(sanitizer.FieldRole, role),
		docstore.F(sanitizer.FieldCreatedAt, createdAt),
		docstore.F(sanitizer.FieldUpdatedAt, createdAt),
	)
}

// BuildCategory creates a categories document.
func BuildCategory(id string, name string, createdAt time.Time) docstore.Document {
	return docstore.NewDocument(
		docstore.F(docstore.IDField, id),
		docstore.F("name", name),
		docstore.F(sanitizer.FieldCreatedAt, createdAt),
	)
}

// BuildProduct creates a products document referencing a category.
func BuildProduct(id string, name string, categoryID string, createdAt time.Time) docstore.Document {
	return docstore.NewDocument(
		docstore.F(docstore.IDField, id),
		docstore.F("name", name),
		docstore.F("sku", "SKU-"+id[len(id)-6:]),
		docstore.F(sanitizer.FieldCategoryID, categoryID),
		docstore.F("price", 19.99),
		docstore.F(sanitizer.FieldCreatedAt, createdAt),
	)
}

// BuildWishlist creates a wishlists document. A nil reference is stored as null, an empty one is left out.
func BuildWishlist(id string, userID any, productID any, createdAt time.Time) docstore.Document {
	fields := []docstore.Field{
		docstore.F(docstore.IDField, id),
		docstore.F("name", "Birthday"),
	}

	fields = appendReference(fields, sanitizer.FieldUserID, userID)
	fields = appendReference(fields, sanitizer.FieldProductID, productID)

	return docstore.NewDocument(append(fields, docstore.F(sanitizer.FieldCreatedAt, createdAt))...)
}

// BuildReview creates a reviews document.
func BuildReview(id string, userID string, productID string, title string, createdAt time.Time) docstore.Document {
	return docstore.NewDocument(
		docstore.F(docstore.IDField, id),
		docstore.F(sanitizer.FieldUserID, userID),
		docstore.F(sanitizer.FieldProductID, productID),
		docstore.F("title", title),
		docstore.F("rating", int64(5)),
		docstore.F(sanitizer.FieldCreatedAt, createdAt),
	)
}

// BuildProductVariant creates a productVariants document.
func BuildProductVariant(id string, productID string, name string, createdAt time.Time) docstore.Document {
	return docstore.NewDocument(
		docstore.F(docstore.IDField, id),
		docstore.F(sanitizer.FieldProductID, productID),
		docstore.F("name", name),
		docstore.F(sanitizer.FieldCreatedAt, createdAt),
	)
}

// BuildOrder creates an orders document with a nested shipping address.
func BuildOrder(id string, userID string, fullName string, createdAt time.Time) docstore.Document {
	return docstore.NewDocument(
		docstore.F(docstore.IDField, id),
		docstore.F(sanitizer.FieldUserID, userID),
		docstore.F("shippingAddress", docstore.NewDocument(
			docstore.F("fullName", fullName),
			docstore.F("city", "Hamburg"),
		)),
		docstore.F("total", 42.5),
		docstore.F(sanitizer.FieldCreatedAt, createdAt),
	)
}

// BuildAddress creates an addresses document.
func BuildAddress(id string, userID string, fullName string, createdAt time.Time) docstore.Document {
	return docstore.NewDocument(
		docstore.F(docstore.IDField, id),
		docstore.F(sanitizer.FieldUserID, userID),
		docstore.F("fullName", fullName),
		docstore.F("city", "Berlin"),
		docstore.F(sanitizer.FieldCreatedAt, createdAt),
	)
}

func appendReference(fields []docstore.Field, key string, value any) []docstore.Field {
	switch v := value.(type) {
	case nil:
		return append(fields, docstore.F(key, nil))
	case string:
		if v == "" {
			return fields
		}
	}

	return append(fields, docstore.F(key, value))
}

// GivenDocuments inserts the documents into the collection.
func GivenDocuments(
	t testing.TB,
	ctx context.Context,
	store docstore.Seeder,
	collection string,
	docs ...docstore.Document,
) {

	t.Helper()

	require.NoError(t, store.InsertMany(ctx, collection, docs))
}

// Shop holds the identifiers of a seeded shop and how many of its documents are test data.
type Shop struct {
	AdminID           string
	CustomerID        string
	TestUserID        string
	CategoryID        string
	ProductID         string
	TestProductID     string
	TotalDocuments    int64
	RealDocuments     int64
	PerCollection     map[string]int64
	RealPerCollection map[string]int64
}

// GivenShop seeds every registered collection with a mix of real and test documents.
// All documents are older than 30 days relative to now, so only the pattern and orphan strategies apply.
func GivenShop(t testing.TB, ctx context.Context, store docstore.Seeder, now time.Time) Shop {
	t.Helper()

	old := now.Add(-30 * 24 * time.Hour)
	at := func(offset int) time.Time { return old.Add(time.Duration(offset) * time.Minute) }

	shop := Shop{
		AdminID:       IDAt(at(1)),
		CustomerID:    IDAt(at(2)),
		TestUserID:    IDAt(at(3)),
		CategoryID:    IDAt(at(4)),
		ProductID:     IDAt(at(5)),
		TestProductID: IDAt(at(6)),
	}

	seed := map[string][]docstore.Document{
		sanitizer.CollectionUsers: {
			BuildUser(shop.AdminID, "Shop Owner", "owner@shop.com", sanitizer.RoleAdmin, at(1)),
			BuildUser(shop.CustomerID, "Real Customer", "real.customer@mail.com", "customer", at(2)),
			BuildUser(shop.TestUserID, "Test User", "test1@shop.com", "customer", at(3)),
		},
		sanitizer.CollectionCategories: {
			BuildCategory(shop.CategoryID, "Garden", at(4)),
		},
		sanitizer.CollectionProducts: {
			BuildProduct(shop.ProductID, "Watering Can", shop.CategoryID, at(5)),
			BuildProduct(shop.TestProductID, "Demo Product", shop.CategoryID, at(6)),
		},
		sanitizer.CollectionProductVariants: {
			BuildProductVariant(IDAt(at(7)), shop.ProductID, "Green", at(7)),
			BuildProductVariant(IDAt(at(8)), shop.TestProductID, "Blue", at(8)),
		},
		sanitizer.CollectionReviews: {
			BuildReview(IDAt(at(9)), shop.CustomerID, shop.ProductID, "Works great", at(9)),
			BuildReview(IDAt(at(10)), shop.TestUserID, shop.ProductID, "Lovely", at(10)),
		},
		sanitizer.CollectionWishlists: {
			BuildWishlist(IDAt(at(11)), shop.CustomerID, shop.ProductID, at(11)),
			BuildWishlist(IDAt(at(12)), shop.CustomerID, IDAt(at(99)), at(12)),
		},
		sanitizer.CollectionOrders: {
			BuildOrder(IDAt(at(13)), shop.CustomerID, "Real Customer", at(13)),
			BuildOrder(IDAt(at(14)), shop.CustomerID, "Sample Person", at(14)),
		},
		sanitizer.CollectionAddresses: {
			BuildAddress(IDAt(at(15)), shop.CustomerID, "Real Customer", at(15)),
		},
	}

	// real documents survive a normal run: admin, customer, category, watering can, green variant,
	// the customer's review, the first wishlist, the first order, the address
	shop.RealPerCollection = map[string]int64{
		sanitizer.CollectionUsers:           2,
		sanitizer.CollectionCategories:      1,
		sanitizer.CollectionProducts:        1,
		sanitizer.CollectionProductVariants: 1,
		sanitizer.CollectionReviews:         1,
		sanitizer.CollectionWishlists:       1,
		sanitizer.CollectionOrders:          1,
		sanitizer.CollectionAddresses:       1,
	}

	shop.PerCollection = make(map[string]int64, len(seed))
	for collection, docs := range seed {
		GivenDocuments(t, ctx, store, collection, docs...)
		shop.PerCollection[collection] = int64(len(docs))
		shop.TotalDocuments += int64(len(docs))
	}

	for _, n := range shop.RealPerCollection {
		shop.RealDocuments += n
	}

	return shop
}
