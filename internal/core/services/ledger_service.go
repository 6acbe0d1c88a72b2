package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openledger/ledger-engine/internal/apperrors"
	"github.com/openledger/ledger-engine/internal/core/domain"
	portsrepo "github.com/openledger/ledger-engine/internal/core/ports/repositories"
	portssvc "github.com/openledger/ledger-engine/internal/core/ports/services"
	"github.com/openledger/ledger-engine/internal/dto"
	"github.com/openledger/ledger-engine/internal/middleware"
)

// Config carries the process-wide ledger policy: the well-known system account
// identities, the transfer fee rate, the default negative-balance policy, and
// the bounded lock wait.
type Config struct {
	// GenesisAccountID is the pre-provisioned equity account used as the
	// counterparty for deposits.
	GenesisAccountID string
	// RevenueAccountID is the pre-provisioned revenue account that collects
	// transfer fees.
	RevenueAccountID string
	// BaseCurrencyCode is the currency the system accounts are provisioned in.
	BaseCurrencyCode string
	// TransferFeeRate is the fraction of each transfer retained by the revenue
	// account (0.1 means 10%). Zero disables the fee split.
	TransferFeeRate decimal.Decimal
	// AllowNegativeBalances is the default policy for accounts created without
	// an explicit choice. System accounts always allow negative balances.
	AllowNegativeBalances bool
	// LockTimeout bounds the wait for account locks; exceeding it fails the
	// request with apperrors.ErrContention.
	LockTimeout time.Duration
}

// rollbackTimeout bounds the detached rollback context used when a unit of
// work fails.
const rollbackTimeout = 5 * time.Second

// ledgerService orchestrates account locking, posting application, transaction
// validation and atomic persistence.
type ledgerService struct {
	accountRepo portsrepo.AccountRepository
	txnRepo     portsrepo.TransactionRepository
	txManager   portsrepo.TxManager
	cfg         Config
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(accountRepo portsrepo.AccountRepository, txnRepo portsrepo.TransactionRepository, txManager portsrepo.TxManager, cfg Config) portssvc.LedgerService {
	return &ledgerService{
		accountRepo: accountRepo,
		txnRepo:     txnRepo,
		txManager:   txManager,
		cfg:         cfg,
	}
}

var _ portssvc.LedgerService = (*ledgerService)(nil)

func (s *ledgerService) CreateAccount(ctx context.Context, req dto.CreateAccountRequest) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: account name must not be blank", apperrors.ErrValidation)
	}

	allowNegative := s.cfg.AllowNegativeBalances
	if req.AllowNegative != nil {
		allowNegative = *req.AllowNegative
	}

	account, err := domain.NewAccount(uuid.NewString(), req.Name, req.AccountType, req.CurrencyCode, allowNegative)
	if err != nil {
		return nil, err
	}

	if err := s.accountRepo.SaveAccount(ctx, *account); err != nil {
		logger.Error("Failed to save account", slog.String("account_id", account.AccountID), slog.String("error", err.Error()))
		return nil, err
	}

	logger.Info("Account created successfully",
		slog.String("account_id", account.AccountID),
		slog.String("account_type", string(account.AccountType)),
		slog.String("currency_code", account.Balance.CurrencyCode))
	return account, nil
}

func (s *ledgerService) GetAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			middleware.GetLoggerFromCtx(ctx).Error("Failed to find account by ID",
				slog.String("account_id", accountID), slog.String("error", err.Error()))
		}
		return nil, err
	}
	return account, nil
}

func (s *ledgerService) GetTransaction(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	txn, err := s.txnRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			middleware.GetLoggerFromCtx(ctx).Error("Failed to find transaction by ID",
				slog.String("transaction_id", transactionID), slog.String("error", err.Error()))
		}
		return nil, err
	}
	return txn, nil
}

func (s *ledgerService) PostTransaction(ctx context.Context, req dto.PostTransactionRequest) (string, error) {
	return s.applyBalancedTransaction(ctx, req.Description, req.Postings)
}

func (s *ledgerService) TransferFunds(ctx context.Context, req dto.TransferFundsRequest) (string, error) {
	if !req.Amount.IsPositive() {
		return "", fmt.Errorf("%w: transfer amount must be positive, got %s", apperrors.ErrValidation, req.Amount)
	}
	if req.FromAccountID == req.ToAccountID {
		return "", fmt.Errorf("%w: cannot transfer from an account to itself", apperrors.ErrValidation)
	}

	postings := []dto.PostingRequest{
		{AccountID: req.FromAccountID, Amount: req.Amount, CurrencyCode: req.CurrencyCode, Type: domain.Credit},
	}

	fee := req.Amount.Mul(s.cfg.TransferFeeRate)
	if fee.IsPositive() {
		postings = append(postings,
			dto.PostingRequest{AccountID: req.ToAccountID, Amount: req.Amount.Sub(fee), CurrencyCode: req.CurrencyCode, Type: domain.Debit},
			dto.PostingRequest{AccountID: s.cfg.RevenueAccountID, Amount: fee, CurrencyCode: req.CurrencyCode, Type: domain.Debit},
		)
	} else {
		postings = append(postings,
			dto.PostingRequest{AccountID: req.ToAccountID, Amount: req.Amount, CurrencyCode: req.CurrencyCode, Type: domain.Debit},
		)
	}

	description := req.Description
	if description == "" {
		description = fmt.Sprintf("Transfer from %s to %s", req.FromAccountID, req.ToAccountID)
	}
	return s.applyBalancedTransaction(ctx, description, postings)
}

func (s *ledgerService) Deposit(ctx context.Context, req dto.DepositRequest) (string, error) {
	if !req.Amount.IsPositive() {
		return "", fmt.Errorf("%w: deposit amount must be positive, got %s", apperrors.ErrValidation, req.Amount)
	}

	description := req.Description
	if description == "" {
		description = fmt.Sprintf("Deposit to %s", req.AccountID)
	}
	return s.applyBalancedTransaction(ctx, description, []dto.PostingRequest{
		{AccountID: s.cfg.GenesisAccountID, Amount: req.Amount, CurrencyCode: req.CurrencyCode, Type: domain.Credit},
		{AccountID: req.AccountID, Amount: req.Amount, CurrencyCode: req.CurrencyCode, Type: domain.Debit},
	})
}

// EnsureSystemAccounts provisions the genesis and revenue accounts if they do
// not exist yet. Both allow negative balances: genesis is drawn down to seed
// the rest of the ledger. The revenue account is debit-normal so the fee
// DEBIT postings accumulate as a positive balance.
func (s *ledgerService) EnsureSystemAccounts(ctx context.Context) error {
	systemAccounts := []struct {
		id          string
		name        string
		accountType domain.AccountType
	}{
		{s.cfg.GenesisAccountID, "Genesis", domain.Equity},
		{s.cfg.RevenueAccountID, "Revenue", domain.Asset},
	}

	for _, sa := range systemAccounts {
		_, err := s.accountRepo.FindAccountByID(ctx, sa.id)
		if err == nil {
			continue
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			return fmt.Errorf("failed to look up system account %s: %w", sa.id, err)
		}

		account, err := domain.NewAccount(sa.id, sa.name, sa.accountType, s.cfg.BaseCurrencyCode, true)
		if err != nil {
			return fmt.Errorf("failed to build system account %s: %w", sa.id, err)
		}
		if err := s.accountRepo.SaveAccount(ctx, *account); err != nil {
			// A concurrent boot may have won the race.
			if errors.Is(err, apperrors.ErrDuplicate) {
				continue
			}
			return fmt.Errorf("failed to provision system account %s: %w", sa.id, err)
		}
		middleware.GetLoggerFromCtx(ctx).Info("Provisioned system account",
			slog.String("account_id", sa.id), slog.String("name", sa.name))
	}
	return nil
}

// precheckPostings validates the posting list before any lock is taken, so a
// doomed transaction fails fast without touching storage.
func (s *ledgerService) precheckPostings(postings []dto.PostingRequest) error {
	if len(postings) == 0 {
		return fmt.Errorf("%w: posting list must not be empty", apperrors.ErrValidation)
	}

	currency := postings[0].CurrencyCode
	total := decimal.Zero
	for _, p := range postings {
		if !p.Amount.IsPositive() {
			return fmt.Errorf("%w: posting amount must be positive for account %s", apperrors.ErrValidation, p.AccountID)
		}
		if !p.Type.IsValid() {
			return fmt.Errorf("%w: unknown posting type %q", apperrors.ErrValidation, p.Type)
		}
		if p.CurrencyCode != currency {
			return fmt.Errorf("%w: posting currency %s differs from transaction currency %s",
				apperrors.ErrCurrencyMismatch, p.CurrencyCode, currency)
		}
		if p.Type == domain.Debit {
			total = total.Add(p.Amount)
		} else {
			total = total.Sub(p.Amount)
		}
	}

	if !total.IsZero() {
		return fmt.Errorf("%w: imbalance is %s %s", apperrors.ErrImbalanced, total.String(), currency)
	}
	return nil
}

// applyBalancedTransaction is the single primitive every mutating use case is
// built on: lock accounts in sorted order, apply postings, validate the
// double-entry invariant against the applied amounts, persist atomically.
func (s *ledgerService) applyBalancedTransaction(ctx context.Context, description string, postings []dto.PostingRequest) (string, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := s.precheckPostings(postings); err != nil {
		return "", err
	}

	if s.cfg.LockTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.LockTimeout)
		defer cancel()
	}

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		logger.Error("Failed to begin unit of work", slog.String("error", err.Error()))
		return "", fmt.Errorf("failed to begin unit of work: %w", err)
	}
	// No-op once the unit of work commits. Rollback runs on a context
	// detached from the request deadline: a unit of work that failed on that
	// deadline still needs a live context to roll back.
	defer func() {
		rbCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
		defer cancel()
		if rbErr := s.txManager.Rollback(rbCtx, tx); rbErr != nil {
			logger.Error("Failed to roll back unit of work", slog.String("error", rbErr.Error()))
		}
	}()

	accountIDs := make([]string, 0, len(postings))
	for _, p := range postings {
		accountIDs = append(accountIDs, p.AccountID)
	}
	accountIDs = uniqueSorted(accountIDs)

	accounts, err := s.accountRepo.FindAccountsByIDsForUpdate(ctx, tx, accountIDs)
	if err != nil {
		if errors.Is(err, apperrors.ErrContention) {
			logger.Warn("Lock contention while loading accounts", slog.Any("account_ids", accountIDs))
		}
		return "", err
	}

	txn := domain.NewTransaction(description)
	for _, p := range postings {
		amount, err := domain.NewMoney(p.Amount, p.CurrencyCode)
		if err != nil {
			return "", err
		}
		posting, err := domain.NewPosting(p.AccountID, amount, p.Type)
		if err != nil {
			return "", err
		}

		account, ok := accounts[p.AccountID]
		if !ok {
			return "", fmt.Errorf("%w: account %s", apperrors.ErrNotFound, p.AccountID)
		}
		if err := account.PostPosting(posting); err != nil {
			return "", err
		}
		if err := txn.AddPosting(posting); err != nil {
			return "", err
		}
	}

	// Authoritative re-check against the amounts actually applied.
	if err := txn.Validate(); err != nil {
		return "", err
	}

	updated := make([]*domain.Account, 0, len(accounts))
	for _, id := range accountIDs {
		updated = append(updated, accounts[id])
	}
	if err := s.accountRepo.SaveAccountsInTx(ctx, tx, updated); err != nil {
		logger.Error("Failed to save account balances", slog.String("error", err.Error()))
		return "", fmt.Errorf("failed to save account balances: %w", err)
	}
	if err := s.txnRepo.SaveTransactionInTx(ctx, tx, *txn); err != nil {
		logger.Error("Failed to save transaction", slog.String("transaction_id", txn.TransactionID), slog.String("error", err.Error()))
		return "", fmt.Errorf("failed to save transaction: %w", err)
	}

	if err := s.txManager.Commit(ctx, tx); err != nil {
		logger.Error("Failed to commit unit of work", slog.String("transaction_id", txn.TransactionID), slog.String("error", err.Error()))
		return "", fmt.Errorf("failed to commit unit of work: %w", err)
	}

	logger.Info("Transaction posted successfully",
		slog.String("transaction_id", txn.TransactionID),
		slog.Int("posting_count", len(txn.Postings)))
	return txn.TransactionID, nil
}

// uniqueSorted returns the distinct IDs in lexicographic order. Locks are
// always acquired in this order so concurrent requests touching the same
// accounts cannot deadlock.
func uniqueSorted(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	result := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			result = append(result, id)
		}
	}
	sort.Strings(result)
	return result
}
