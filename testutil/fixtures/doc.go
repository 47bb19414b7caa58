// Package fixtures builds documents of a small online shop for sanitizer tests.
//
// Every builder mints a UUIDv7 identifier from the creation time, so recency by identifier behaves
// like it would for documents inserted by the PostgreSQL engine at that time.
package fixtures
