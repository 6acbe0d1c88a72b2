package repositories

import (
	"context"

	"github.com/openledger/ledger-engine/internal/core/domain"
)

// AccountReader defines read operations for account data.
type AccountReader interface {
	// FindAccountByID retrieves an account without taking any lock.
	// Returns apperrors.ErrNotFound if the ID is unknown.
	FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error)
}

// AccountWriter defines write operations for account data.
type AccountWriter interface {
	// SaveAccount persists a new account. Returns apperrors.ErrDuplicate if an
	// account with the same ID already exists.
	SaveAccount(ctx context.Context, account domain.Account) error
}

// AccountLockSupport defines the exclusive-lock operations used while posting
// balanced transactions.
type AccountLockSupport interface {
	// FindAccountsByIDsForUpdate loads the given accounts under exclusive
	// per-account locks held for the life of tx. Callers pass IDs sorted in a
	// deterministic order to avoid deadlock. Returns apperrors.ErrNotFound if
	// any ID is missing and apperrors.ErrContention if a lock cannot be
	// acquired before ctx expires.
	FindAccountsByIDsForUpdate(ctx context.Context, tx Tx, accountIDs []string) (map[string]*domain.Account, error)

	// SaveAccountsInTx stages updated balances inside tx. Nothing is visible
	// to other requests until the unit of work commits.
	SaveAccountsInTx(ctx context.Context, tx Tx, accounts []*domain.Account) error
}

// AccountRepository combines all account persistence operations.
type AccountRepository interface {
	AccountReader
	AccountWriter
	AccountLockSupport
}
