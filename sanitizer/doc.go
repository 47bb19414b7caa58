// Package sanitizer removes synthetic test data from a multi-collection document store.
//
// Three detection strategies build one docstore.Filter per collection:
//
//   - pattern: text fields contain a test keyword, or the email looks generated or is a known test address
//   - recency: the document was created or modified within a window ending at the invocation time
//   - orphan: a reference points to a parent document that does not exist
//
// A Controller composes them into graduated modes, from ModeNormal (all three strategies) to ModeSchemaReset
// (drop and recreate every collection). Each strategy counts and samples its candidates before it deletes
// them with the identical filter, and each result is folded into a RunReport together with pre-run and
// post-run counts of every registered collection.
//
// Documents holding the protected role (users with role == admin) are never deleted by the pattern,
// recency, orphan, or protected-bulk strategies.
package sanitizer
