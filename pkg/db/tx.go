package db

import (
	"context"
	"database/sql"
	"fmt"
)

// TxRunner manages database transactions.
// Stores use this to keep a read-then-write sequence inside one
// transaction boundary.
type TxRunner struct {
	database *sql.DB
}

// NewTxRunner creates a new TxRunner instance.
func NewTxRunner(database *sql.DB) *TxRunner {
	return &TxRunner{database: database}
}

// WithTx executes the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// Otherwise, the transaction is committed.
//
// Usage example:
//
//	err := txRunner.WithTx(ctx, func(tx *sql.Tx) error {
//	    row := tx.QueryRowContext(ctx, "SELECT ... FOR UPDATE", id)
//	    if err := row.Scan(&v); err != nil {
//	        return err
//	    }
//	    _, err := tx.ExecContext(ctx, "DELETE ...", id)
//	    return err
//	})
func (r *TxRunner) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.database.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// WithTxResult executes the given function within a database transaction
// and returns a result value.
func WithTxResult[T any](ctx context.Context, r *TxRunner, fn func(tx *sql.Tx) (T, error)) (T, error) {
	var result T

	tx, err := r.database.BeginTx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("begin transaction: %w", err)
	}

	result, err = fn(tx)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return result, fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return result, err
	}

	if err := tx.Commit(); err != nil {
		return result, fmt.Errorf("commit transaction: %w", err)
	}

	return result, nil
}

// DB returns the underlying database connection.
func (r *TxRunner) DB() *sql.DB {
	return r.database
}
