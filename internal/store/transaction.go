package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/taskhub/taskhub-api/internal/platform/logger"
)

// TxFn executes within a database transaction. The transaction commits if
// the function returns nil and rolls back otherwise.
type TxFn func(ctx context.Context, tx *sql.Tx) error

// TxRunner runs a function inside a transaction. The service layer depends
// on this interface so tests can substitute a runner without a database.
type TxRunner interface {
	RunInTransaction(ctx context.Context, fn TxFn) error
}

// SQLRunner is the production TxRunner backed by a *sql.DB.
type SQLRunner struct {
	db *sql.DB
}

// NewSQLRunner creates a TxRunner for the given database handle.
func NewSQLRunner(db *sql.DB) *SQLRunner {
	return &SQLRunner{db: db}
}

// RunInTransaction implements TxRunner.
func (r *SQLRunner) RunInTransaction(ctx context.Context, fn TxFn) error {
	return RunInTransaction(ctx, r.db, fn)
}

// RunInTransaction executes fn within a transaction, rolling back on error
// or panic and committing otherwise.
func RunInTransaction(ctx context.Context, db *sql.DB, fn TxFn) error {
	log := logger.FromContext(ctx)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error("failed to roll back transaction after panic",
					"error", rbErr, "panic", p)
			}
			panic(p)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error("failed to roll back transaction",
				"rollback_error", rbErr, "original_error", err)
			return fmt.Errorf("error rolling back transaction: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
