package config

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
)

// PostgresSQLDB opens a *sql.DB on the lib/pq driver and pings it.
func PostgresSQLDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if err := prepareSQLPool(ctx, db); err != nil {
		return nil, err
	}

	return db, nil
}

// PostgresSQLX opens a *sqlx.DB on the lib/pq driver and pings it.
func PostgresSQLX(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if err := prepareSQLPool(ctx, db.DB); err != nil {
		return nil, err
	}

	return db, nil
}

// prepareSQLPool applies the sanitizer pool limits and closes the pool if the server is unreachable.
func prepareSQLPool(ctx context.Context, db *sql.DB) error {
	db.SetMaxOpenConns(sanitizerMaxConnections)
	db.SetMaxIdleConns(sanitizerMaxConnections)
	db.SetConnMaxLifetime(sanitizerMaxConnLifetime)
	db.SetConnMaxIdleTime(sanitizerMaxConnIdleTime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	return nil
}
