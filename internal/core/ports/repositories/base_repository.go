package repositories

import "context"

// Tx is an opaque unit-of-work handle owned by a storage adapter. The pgx
// adapter wraps a database transaction; the in-memory adapter wraps a set of
// held account locks plus staged writes. Services never inspect it.
type Tx any

// TxManager defines methods for unit-of-work management.
type TxManager interface {
	// Begin starts a new unit of work.
	Begin(ctx context.Context) (Tx, error)

	// Commit makes every write staged in the unit of work durable at once and
	// releases the locks it holds.
	Commit(ctx context.Context, tx Tx) error

	// Rollback discards the unit of work and releases its locks. Rolling back
	// an already committed unit of work is a no-op, so callers may defer it
	// unconditionally.
	Rollback(ctx context.Context, tx Tx) error
}
