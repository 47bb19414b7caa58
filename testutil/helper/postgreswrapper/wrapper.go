// Package postgreswrapper opens a PostgreSQL-backed DocumentStore for integration tests.
//
// Tests are skipped unless SANITIZER_TEST_POSTGRES_URL is set. SANITIZER_TEST_PG_ADAPTER selects the
// driver adapter (pgx, sql, sqlx), defaulting to pgx.
package postgreswrapper

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/docstore-sanitizer/config"
	"github.com/AntonStoeckl/docstore-sanitizer/docstore/postgresengine"
)

const (
	envPostgresURL = "SANITIZER_TEST_POSTGRES_URL"
	envAdapter     = "SANITIZER_TEST_PG_ADAPTER"
)

// Wrapper abstracts over the connection types backing a DocumentStore.
type Wrapper interface {
	GetDocumentStore() *postgresengine.DocumentStore
	AdapterType() string
	Close()
}

// PGXPoolWrapper wraps pgxpool-based testing.
type PGXPoolWrapper struct {
	pool *pgxpool.Pool
	ds   *postgresengine.DocumentStore
}

func (w *PGXPoolWrapper) GetDocumentStore() *postgresengine.DocumentStore { return w.ds }
func (w *PGXPoolWrapper) AdapterType() string                             { return config.PostgresAdapterPGX }
func (w *PGXPoolWrapper) Close()                                          { w.pool.Close() }

// SQLDBWrapper wraps sql.DB-based testing.
type SQLDBWrapper struct {
	db *sql.DB
	ds *postgresengine.DocumentStore
}

func (w *SQLDBWrapper) GetDocumentStore() *postgresengine.DocumentStore { return w.ds }
func (w *SQLDBWrapper) AdapterType() string                             { return config.PostgresAdapterSQL }
func (w *SQLDBWrapper) Close()                                          { _ = w.db.Close() }

// SQLXWrapper wraps sqlx.DB-based testing.
type SQLXWrapper struct {
	db *sqlx.DB
	ds *postgresengine.DocumentStore
}

func (w *SQLXWrapper) GetDocumentStore() *postgresengine.DocumentStore { return w.ds }
func (w *SQLXWrapper) AdapterType() string                             { return config.PostgresAdapterSQLX }
func (w *SQLXWrapper) Close()                                          { _ = w.db.Close() }

// CreateWrapperWithTestConfig creates the wrapper selected by the environment or skips the test.
// The connection is closed on test cleanup.
func CreateWrapperWithTestConfig(t testing.TB, options ...postgresengine.Option) Wrapper {
	t.Helper()

	dsn := os.Getenv(envPostgresURL)
	if dsn == "" {
		t.Skipf("%s not set", envPostgresURL)
	}

	adapter, err := config.NormalizePostgresAdapter(os.Getenv(envAdapter))
	require.NoError(t, err)

	ctx := context.Background()
	var wrapper Wrapper

	switch adapter {
	case config.PostgresAdapterSQL:
		db, openErr := config.PostgresSQLDB(ctx, dsn)
		require.NoError(t, openErr, "error connecting to DB in test setup")
		ds, dsErr := postgresengine.NewDocumentStoreFromSQLDB(db, options...)
		require.NoError(t, dsErr)
		wrapper = &SQLDBWrapper{db: db, ds: ds}

	case config.PostgresAdapterSQLX:
		db, openErr := config.PostgresSQLX(ctx, dsn)
		require.NoError(t, openErr, "error connecting to DB in test setup")
		ds, dsErr := postgresengine.NewDocumentStoreFromSQLX(db, options...)
		require.NoError(t, dsErr)
		wrapper = &SQLXWrapper{db: db, ds: ds}

	default:
		poolConfig, cfgErr := config.PostgresPGXPoolConfig(dsn)
		require.NoError(t, cfgErr)
		pool, poolErr := pgxpool.NewWithConfig(ctx, poolConfig)
		require.NoError(t, poolErr, "error connecting to DB pool in test setup")
		ds, dsErr := postgresengine.NewDocumentStoreFromPGXPool(pool, options...)
		require.NoError(t, dsErr)
		wrapper = &PGXPoolWrapper{pool: pool, ds: ds}
	}

	t.Cleanup(wrapper.Close)

	return wrapper
}
