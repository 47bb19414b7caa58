package adapters

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// SQLXExecutor runs statements through sqlx.
type SQLXExecutor struct {
	db *sqlx.DB
}

func NewSQLXExecutor(db *sqlx.DB) *SQLXExecutor {
	return &SQLXExecutor{db: db}
}

func (e *SQLXExecutor) Query(ctx context.Context, query string) (Rows, error) {
	rows, err := e.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, err
	}

	return rows, nil
}

func (e *SQLXExecutor) Exec(ctx context.Context, statement string) (int64, error) {
	result, err := e.db.ExecContext(ctx, statement)
	if err != nil {
		return 0, err
	}

	return rowsAffected(result)
}

func (e *SQLXExecutor) ExecAll(ctx context.Context, statements []string) error {
	tx, err := e.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	return execAllStd(ctx, tx, statements)
}
