package sqlbase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/stepwise/pkg/persistence"
)

// DefaultHoldWarning is how long a transaction may stay open before a warning is logged.
const DefaultHoldWarning = 5 * time.Second

// TxRunner scopes multi-row mutations to a single transaction.
type TxRunner struct {
	db          *sql.DB
	logger      *slog.Logger
	holdWarning time.Duration
}

// NewTxRunner creates a transaction runner. A non-positive holdWarning uses DefaultHoldWarning.
func NewTxRunner(db *sql.DB, logger *slog.Logger, holdWarning time.Duration) *TxRunner {
	if holdWarning <= 0 {
		holdWarning = DefaultHoldWarning
	}

	return &TxRunner{db: db, logger: logger, holdWarning: holdWarning}
}

// InTx runs fn inside one transaction.
//
// Transaction lifecycle:
//  1. Begin a transaction with opts
//  2. Execute fn
//  3. On success: COMMIT
//  4. On error or panic: ROLLBACK, then return the error or let the panic continue
//
// Errors returned by fn come back unchanged so callers can match them with
// errors.Is; only begin and commit failures are wrapped in ErrTransactionFailed.
// A transaction still open after the hold warning is logged, never cancelled.
func (r *TxRunner) InTx(ctx context.Context, op string, opts *sql.TxOptions, fn func(tx *sql.Tx) error) (err error) {
	started := time.Now()

	tx, err := r.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("%w: %s: begin: %w", persistence.ErrTransactionFailed, op, err)
	}

	watchdog := time.AfterFunc(r.holdWarning, func() {
		r.logger.WarnContext(ctx, "transaction held open longer than expected",
			"op", op,
			"threshold", r.holdWarning,
		)
	})

	committed := false

	defer func() {
		watchdog.Stop()

		if !committed {
			if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
				r.logger.ErrorContext(ctx, "failed to roll back transaction", "op", op, "error", rollbackErr)
			}
		}

		if elapsed := time.Since(started); elapsed > r.holdWarning {
			r.logger.WarnContext(ctx, "slow transaction released", "op", op, "duration", elapsed, "committed", committed)
		}
	}()

	err = fn(tx)
	if err != nil {
		return err
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("%w: %s: commit: %w", persistence.ErrTransactionFailed, op, err)
	}

	committed = true

	return nil
}
