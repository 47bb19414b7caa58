// Package postgresengine provides a PostgreSQL implementation of the docstore.Store interface.
//
// Every collection is a table with an id column and a jsonb document column:
//
//	CREATE TABLE "users" (id text PRIMARY KEY, data jsonb NOT NULL)
//
// Filters are compiled to SQL with goqu. The engine supports multiple database adapters
// (pgx, sql.DB, sqlx) and classifies driver errors into the docstore error taxonomy
// (missing tables, connection failures, predicates Postgres cannot evaluate).
//
// Key features:
//   - Multiple database adapter support (PGX, SQL, SQLX)
//   - Dotted field paths resolved through nested jsonb objects
//   - NULL-safe filter compilation, so negated conditions never drop rows silently
//   - Identifier minting with a configurable docstore.IDScheme (UUIDv7 by default)
//   - Optional logging, metrics, and tracing
//
// Usage examples:
//
//	// Basic usage
//	db, _ := pgxpool.New(context.Background(), dsn)
//	store, _ := postgresengine.NewDocumentStoreFromPGXPool(db)
//
//	// With logging and metrics
//	store, _ := postgresengine.NewDocumentStoreFromPGXPool(
//		db,
//		postgresengine.WithLogger(logger),
//		postgresengine.WithMetrics(metricsCollector),
//	)
//
//	found, _ := store.Count(ctx, "users", filter)
//	deleted, _ := store.DeleteMany(ctx, "users", filter)
package postgresengine
