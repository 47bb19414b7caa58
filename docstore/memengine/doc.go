// Package memengine provides an in-process implementation of the docstore.Store interface.
//
// Filters are evaluated with docstore.Condition.Matches, which defines the reference semantics
// the database engines are tested against. Collections keep their insertion order.
//
// The engine backs unit tests and "memory://" connection strings.
package memengine
