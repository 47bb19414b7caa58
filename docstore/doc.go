// Package docstore provides core abstractions and types for working with
// schema-flexible document stores in a backend-agnostic way.
//
// This package defines the fundamental interfaces and types used across
// different document store engines, including documents, filters, identifier
// schemes and common error definitions.
//
// Filters support:
//   - Case-insensitive pattern matches on (dotted) document fields
//   - Equality and "not in set" checks on field values
//   - Presence checks that distinguish absent fields from null fields
//   - Time ranges on timestamp fields
//   - Identifier-derived creation time cutoffs (UUIDv7, ULID, ObjectID)
//
// Key types:
//   - Document: An ordered key/value record
//   - Filter: Defines criteria for counting, finding and deleting documents
//   - Store: The collection operations an engine has to provide
//   - IDScheme: How an engine mints identifiers that embed their creation time
//
// Common usage pattern:
//
//	filter := docstore.BuildFilter().
//		Matching(docstore.MatchesPattern("name", "test")).
//		OrMatching(docstore.MatchesPattern("email", "^demo[^@]*@")).
//		ExcludingMatches(docstore.Equals("role", "admin")).
//		Finalize()
//
//	found, err := store.Count(ctx, "users", filter)
//	if err != nil {
//		// handle error
//	}
//
//	deleted, err := store.DeleteMany(ctx, "users", filter)
package docstore
