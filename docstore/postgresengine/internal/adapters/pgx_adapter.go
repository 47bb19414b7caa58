package adapters

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGXExecutor runs statements on a pgx connection pool.
type PGXExecutor struct {
	pool *pgxpool.Pool
}

func NewPGXExecutor(pool *pgxpool.Pool) *PGXExecutor {
	return &PGXExecutor{pool: pool}
}

func (e *PGXExecutor) Query(ctx context.Context, query string) (Rows, error) {
	rows, err := e.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}

	return pgxRows{Rows: rows}, nil
}

func (e *PGXExecutor) Exec(ctx context.Context, statement string) (int64, error) {
	tag, err := e.pool.Exec(ctx, statement)
	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}

func (e *PGXExecutor) ExecAll(ctx context.Context, statements []string) error {
	return pgx.BeginFunc(ctx, e.pool, func(tx pgx.Tx) error {
		for _, statement := range statements {
			if _, err := tx.Exec(ctx, statement); err != nil {
				return err
			}
		}

		return nil
	})
}

// pgxRows adapts pgx.Rows, whose Close reports nothing; errors surface through Err.
type pgxRows struct {
	pgx.Rows
}

func (r pgxRows) Close() error {
	r.Rows.Close()
	return nil
}
