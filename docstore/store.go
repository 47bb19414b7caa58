package docstore

import (
	"context"
)

// Store is the generic document-collection interface the sanitizer works against.
//
// All operations on a collection that does not exist return an error wrapping ErrCollectionNotFound,
// except DropCollection, which is idempotent. Errors caused by the connection wrap ErrConnectionFailed,
// filters the store cannot evaluate produce errors wrapping ErrPredicateEvaluationFailed.
type Store interface {
	// Count returns the number of documents in the collection matching the filter.
	Count(ctx context.Context, collection string, filter Filter) (int64, error)

	// Find returns up to limit documents matching the filter. A limit <= 0 means no limit.
	Find(ctx context.Context, collection string, filter Filter, limit int) ([]Document, error)

	// DeleteMany deletes all documents matching the filter and returns how many were deleted.
	DeleteMany(ctx context.Context, collection string, filter Filter) (int64, error)

	// IDs returns the canonical string form of every identifier in the collection.
	IDs(ctx context.Context, collection string) ([]string, error)

	// DropCollection removes the collection together with all its documents.
	DropCollection(ctx context.Context, collection string) error

	// CreateCollection creates an empty collection; it is a no-op if the collection already exists.
	CreateCollection(ctx context.Context, collection string) error

	// IDScheme returns the scheme the store uses to mint identifiers.
	IDScheme() IDScheme
}

// Seeder inserts documents. It is used to load fixtures and is not needed for sanitizing.
type Seeder interface {
	// InsertMany inserts the documents into the collection, creating it if necessary.
	// Documents without an identifier get one minted by the store's IDScheme at insertion time.
	InsertMany(ctx context.Context, collection string, docs []Document) error
}

// SeedableStore is a Store that can also be seeded.
type SeedableStore interface {
	Store
	Seeder
}
