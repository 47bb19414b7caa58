package adapters

import (
	"context"
	"database/sql"
	"errors"
)

// ErrRowsAffectedUnavailable is returned by Exec when the driver could not report the affected rows.
var ErrRowsAffectedUnavailable = errors.New("rows affected unavailable")

// Executor runs the statements the document store engine generates against one of the supported drivers.
type Executor interface {
	Query(ctx context.Context, query string) (Rows, error)

	// Exec runs a single statement and returns the number of affected rows.
	Exec(ctx context.Context, statement string) (int64, error)

	// ExecAll runs the statements in one transaction, rolling back on the first failure.
	ExecAll(ctx context.Context, statements []string) error
}

// Rows iterates over query results.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

func rowsAffected(result sql.Result) (int64, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return 0, errors.Join(ErrRowsAffectedUnavailable, err)
	}

	return n, nil
}

// execAllStd is shared by the database/sql based executors. *sql.Tx and *sqlx.Tx both satisfy stdTx.
func execAllStd(ctx context.Context, tx stdTx, statements []string) error {
	for _, statement := range statements {
		if _, err := tx.ExecContext(ctx, statement); err != nil {
			return errors.Join(err, tx.Rollback())
		}
	}

	return tx.Commit()
}

type stdTx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	Commit() error
	Rollback() error
}
