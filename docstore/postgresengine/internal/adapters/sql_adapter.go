package adapters

import (
	"context"
	"database/sql"
)

// SQLExecutor runs statements through database/sql, e.g. with the lib/pq driver.
type SQLExecutor struct {
	db *sql.DB
}

func NewSQLExecutor(db *sql.DB) *SQLExecutor {
	return &SQLExecutor{db: db}
}

func (e *SQLExecutor) Query(ctx context.Context, query string) (Rows, error) {
	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}

	return rows, nil
}

func (e *SQLExecutor) Exec(ctx context.Context, statement string) (int64, error) {
	result, err := e.db.ExecContext(ctx, statement)
	if err != nil {
		return 0, err
	}

	return rowsAffected(result)
}

func (e *SQLExecutor) ExecAll(ctx context.Context, statements []string) error {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	return execAllStd(ctx, tx, statements)
}
