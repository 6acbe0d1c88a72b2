package services

import (
	"context"

	"github.com/openledger/ledger-engine/internal/core/domain"
	"github.com/openledger/ledger-engine/internal/dto"
)

// LedgerService is the application service facade exposed to the HTTP layer.
// Every mutating call executes as one atomic unit of work: either all balance
// updates plus the transaction record are persisted, or nothing is.
type LedgerService interface {
	// CreateAccount persists a new zero-balance account and returns it.
	CreateAccount(ctx context.Context, req dto.CreateAccountRequest) (*domain.Account, error)

	// GetAccount retrieves an account without locking it.
	GetAccount(ctx context.Context, accountID string) (*domain.Account, error)

	// PostTransaction applies a balanced set of postings and returns the
	// persisted transaction ID.
	PostTransaction(ctx context.Context, req dto.PostTransactionRequest) (string, error)

	// TransferFunds moves money between two accounts, optionally splitting a
	// configured fee to the revenue account, and returns the transaction ID.
	TransferFunds(ctx context.Context, req dto.TransferFundsRequest) (string, error)

	// Deposit seeds funds into an account from the genesis account and returns
	// the transaction ID.
	Deposit(ctx context.Context, req dto.DepositRequest) (string, error)

	// GetTransaction retrieves a persisted transaction with its postings.
	GetTransaction(ctx context.Context, transactionID string) (*domain.Transaction, error)

	// EnsureSystemAccounts idempotently provisions the genesis and revenue
	// accounts configured for this service.
	EnsureSystemAccounts(ctx context.Context) error
}
