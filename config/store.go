package config

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AntonStoeckl/docstore-sanitizer/docstore"
	"github.com/AntonStoeckl/docstore-sanitizer/docstore/memengine"
	"github.com/AntonStoeckl/docstore-sanitizer/docstore/mongoengine"
	"github.com/AntonStoeckl/docstore-sanitizer/docstore/postgresengine"
)

// StoreInstruments are the optional observability collaborators handed to the opened engine.
type StoreInstruments struct {
	Logger           docstore.Logger
	ContextualLogger docstore.ContextualLogger
	Metrics          docstore.MetricsCollector
	Tracing          docstore.TracingCollector
}

// Closer releases the connection of an opened store.
type Closer func()

// OpenStore connects to the target and returns the engine behind it.
// The returned Closer must be called on every exit path. Connection errors wrap docstore.ErrConnectionFailed.
func OpenStore(
	ctx context.Context,
	target Target,
	postgresAdapter string,
	in StoreInstruments,
) (docstore.SeedableStore, Closer, error) {

	switch target.Engine {
	case EngineMemory:
		ds, err := memengine.NewDocumentStore(
			memengine.WithLogger(in.Logger),
			memengine.WithContextualLogger(in.ContextualLogger),
			memengine.WithMetrics(in.Metrics),
			memengine.WithTracing(in.Tracing),
		)
		if err != nil {
			return nil, nil, err
		}

		return ds, func() {}, nil

	case EnginePostgres:
		return openPostgres(ctx, target, postgresAdapter, []postgresengine.Option{
			postgresengine.WithLogger(in.Logger),
			postgresengine.WithContextualLogger(in.ContextualLogger),
			postgresengine.WithMetrics(in.Metrics),
			postgresengine.WithTracing(in.Tracing),
		})

	case EngineMongo:
		client, err := MongoClient(ctx, target.URL)
		if err != nil {
			return nil, nil, errors.Join(docstore.ErrConnectionFailed, err)
		}

		closer := func() { _ = client.Disconnect(context.Background()) }

		ds, err := mongoengine.NewDocumentStore(
			client.Database(target.Database),
			mongoengine.WithLogger(in.Logger),
			mongoengine.WithContextualLogger(in.ContextualLogger),
			mongoengine.WithMetrics(in.Metrics),
			mongoengine.WithTracing(in.Tracing),
		)
		if err != nil {
			closer()
			return nil, nil, err
		}

		return ds, closer, nil

	default:
		return nil, nil, ErrUnsupportedDatabaseURL
	}
}

func openPostgres(
	ctx context.Context,
	target Target,
	postgresAdapter string,
	options []postgresengine.Option,
) (docstore.SeedableStore, Closer, error) {

	adapter, err := NormalizePostgresAdapter(postgresAdapter)
	if err != nil {
		return nil, nil, err
	}

	var ds *postgresengine.DocumentStore
	var closer Closer

	switch adapter {
	case PostgresAdapterSQL:
		db, err := PostgresSQLDB(ctx, target.URL)
		if err != nil {
			return nil, nil, errors.Join(docstore.ErrConnectionFailed, err)
		}
		closer = func() { _ = db.Close() }
		ds, err = postgresengine.NewDocumentStoreFromSQLDB(db, options...)
		if err != nil {
			closer()
			return nil, nil, err
		}

	case PostgresAdapterSQLX:
		db, err := PostgresSQLX(ctx, target.URL)
		if err != nil {
			return nil, nil, errors.Join(docstore.ErrConnectionFailed, err)
		}
		closer = func() { _ = db.Close() }
		ds, err = postgresengine.NewDocumentStoreFromSQLX(db, options...)
		if err != nil {
			closer()
			return nil, nil, err
		}

	default:
		poolConfig, err := PostgresPGXPoolConfig(target.URL)
		if err != nil {
			return nil, nil, errors.Join(docstore.ErrConnectionFailed, err)
		}

		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return nil, nil, errors.Join(docstore.ErrConnectionFailed, err)
		}
		closer = pool.Close

		if err := pool.Ping(ctx); err != nil {
			closer()
			return nil, nil, errors.Join(docstore.ErrConnectionFailed, err)
		}

		ds, err = postgresengine.NewDocumentStoreFromPGXPool(pool, options...)
		if err != nil {
			closer()
			return nil, nil, err
		}
	}

	return ds, closer, nil
}
