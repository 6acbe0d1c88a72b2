package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/openledger/ledger-engine/internal/core/ports/repositories"
)

// BaseRepository provides shared pool access and unit-of-work management for
// the pgsql repositories. The opaque port-level Tx wraps a pgx.Tx here.
type BaseRepository struct {
	Pool *pgxpool.Pool
}

var _ portsrepo.TxManager = (*BaseRepository)(nil)

// Begin starts a new database transaction.
func (r *BaseRepository) Begin(ctx context.Context) (portsrepo.Tx, error) {
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin database transaction: %w", err)
	}
	return tx, nil
}

// Commit commits a database transaction.
func (r *BaseRepository) Commit(ctx context.Context, tx portsrepo.Tx) error {
	pgxTx, err := asPgxTx(tx)
	if err != nil {
		return err
	}
	return pgxTx.Commit(ctx)
}

// Rollback rolls back a database transaction. Rolling back after a successful
// commit is a no-op so callers may defer it unconditionally.
func (r *BaseRepository) Rollback(ctx context.Context, tx portsrepo.Tx) error {
	pgxTx, err := asPgxTx(tx)
	if err != nil {
		return err
	}
	if err := pgxTx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return err
	}
	return nil
}

func asPgxTx(tx portsrepo.Tx) (pgx.Tx, error) {
	pgxTx, ok := tx.(pgx.Tx)
	if !ok {
		return nil, fmt.Errorf("unexpected unit of work type %T", tx)
	}
	return pgxTx, nil
}
