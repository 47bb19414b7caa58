// Package adapters lets the PostgreSQL document store engine run on pgxpool.Pool, sql.DB (lib/pq), or sqlx.DB.
//
// The engine only produces SQL strings; an Executor runs them, reports affected rows, and runs
// multi-statement DDL in a single transaction.
package adapters
