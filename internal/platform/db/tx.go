package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CommitError wraps a transaction commit failure so callers can tell
// "request rejected by business rules" apart from "the system failed to
// durably record an accepted request". The latter is safe to retry since
// no partial state persisted.
type CommitError struct {
	Err error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("platform/db: commit tx: %v", e.Err)
}

func (e *CommitError) Unwrap() error {
	return e.Err
}

// IsCommitError reports whether err carries a commit failure.
func IsCommitError(err error) bool {
	var ce *CommitError
	return errors.As(err, &ce)
}

// WithTx executes a function within a transaction using the RepeatableRead isolation level.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return fmt.Errorf("platform/db: begin tx: %w", err)
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return &CommitError{Err: err}
	}

	return nil
}
