package repositories

import (
	"context"

	"github.com/openledger/ledger-engine/internal/core/domain"
)

// TransactionWriter defines write operations for transaction records.
type TransactionWriter interface {
	// SaveTransactionInTx stages an immutable transaction record and its
	// postings inside tx, committed together with the balance updates.
	SaveTransactionInTx(ctx context.Context, tx Tx, txn domain.Transaction) error
}

// TransactionReader defines read operations for transaction records.
type TransactionReader interface {
	// FindTransactionByID retrieves a persisted transaction with its postings.
	// Returns apperrors.ErrNotFound if the ID is unknown.
	FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error)
}

// TransactionRepository combines all transaction persistence operations.
type TransactionRepository interface {
	TransactionWriter
	TransactionReader
}
