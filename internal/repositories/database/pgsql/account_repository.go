package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/openledger/ledger-engine/internal/apperrors"
	"github.com/openledger/ledger-engine/internal/core/domain"
	portsrepo "github.com/openledger/ledger-engine/internal/core/ports/repositories"
)

// pgErrLockNotAvailable is raised when lock_timeout expires while waiting on a
// row lock; it maps to the retryable contention error.
const pgErrLockNotAvailable = "55P03"

type PgxAccountRepository struct {
	BaseRepository
}

// NewAccountRepository creates a new repository for account data.
func NewAccountRepository(pool *pgxpool.Pool) *PgxAccountRepository {
	return &PgxAccountRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.AccountRepository = (*PgxAccountRepository)(nil)

// SaveAccount inserts a new account row.
func (r *PgxAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	query := `
		INSERT INTO accounts (account_id, name, account_type, currency_code, balance, status, allow_negative, created_at, last_updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	_, err := r.Pool.Exec(ctx, query,
		account.AccountID,
		account.Name,
		account.AccountType,
		account.Balance.CurrencyCode,
		account.Balance.Amount,
		account.Status,
		account.AllowNegative,
		account.CreatedAt,
		account.LastUpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique violation
			return fmt.Errorf("%w: account with ID %s already exists", apperrors.ErrDuplicate, account.AccountID)
		}
		return fmt.Errorf("failed to save account %s: %w", account.AccountID, err)
	}
	return nil
}

// FindAccountByID retrieves an account without locking it.
func (r *PgxAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	query := `
		SELECT account_id, name, account_type, currency_code, balance, status, allow_negative, created_at, last_updated_at
		FROM accounts
		WHERE account_id = $1;
	`
	account, err := scanAccount(r.Pool.QueryRow(ctx, query, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, accountID)
		}
		return nil, fmt.Errorf("failed to find account by ID %s: %w", accountID, err)
	}
	return account, nil
}

// FindAccountsByIDsForUpdate loads accounts under row locks held for the life
// of the enclosing database transaction. Rows are locked in account_id order;
// a lock wait beyond the remaining ctx deadline fails with ErrContention.
func (r *PgxAccountRepository) FindAccountsByIDsForUpdate(ctx context.Context, tx portsrepo.Tx, accountIDs []string) (map[string]*domain.Account, error) {
	pgxTx, err := asPgxTx(tx)
	if err != nil {
		return nil, err
	}
	if len(accountIDs) == 0 {
		return map[string]*domain.Account{}, nil
	}

	if deadline, ok := ctx.Deadline(); ok {
		// lock_timeout does not accept bind parameters.
		ms := time.Until(deadline).Milliseconds()
		if ms < 1 {
			ms = 1
		}
		if _, err := pgxTx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", ms)); err != nil {
			return nil, fmt.Errorf("failed to set lock timeout: %w", err)
		}
	}

	query := `
		SELECT account_id, name, account_type, currency_code, balance, status, allow_negative, created_at, last_updated_at
		FROM accounts
		WHERE account_id = ANY($1)
		ORDER BY account_id
		FOR UPDATE;
	`
	rows, err := pgxTx.Query(ctx, query, accountIDs)
	if err != nil {
		return nil, mapLockErr(err)
	}
	defer rows.Close()

	accounts := make(map[string]*domain.Account, len(accountIDs))
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan locked account row: %w", err)
		}
		accounts[account.AccountID] = account
	}
	if err := rows.Err(); err != nil {
		return nil, mapLockErr(err)
	}

	for _, id := range accountIDs {
		if _, found := accounts[id]; !found {
			return nil, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, id)
		}
	}
	return accounts, nil
}

// SaveAccountsInTx updates the balances of the given accounts inside tx.
func (r *PgxAccountRepository) SaveAccountsInTx(ctx context.Context, tx portsrepo.Tx, accounts []*domain.Account) error {
	pgxTx, err := asPgxTx(tx)
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		return nil
	}

	query := `
		UPDATE accounts
		SET balance = $2, status = $3, last_updated_at = $4
		WHERE account_id = $1;
	`
	batch := &pgx.Batch{}
	for _, account := range accounts {
		batch.Queue(query, account.AccountID, account.Balance.Amount, account.Status, account.LastUpdatedAt)
	}

	br := pgxTx.SendBatch(ctx, batch)
	var batchErr error
	for i := 0; i < batch.Len(); i++ {
		ct, err := br.Exec()
		if err != nil && batchErr == nil {
			batchErr = fmt.Errorf("failed to update balance for account %s: %w", accounts[i].AccountID, err)
		} else if err == nil && ct.RowsAffected() == 0 && batchErr == nil {
			batchErr = fmt.Errorf("%w: account %s disappeared during balance update", apperrors.ErrNotFound, accounts[i].AccountID)
		}
	}
	if err := br.Close(); err != nil && batchErr == nil {
		batchErr = fmt.Errorf("failed to close balance update batch: %w", err)
	}
	return batchErr
}

// rowScanner covers both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*domain.Account, error) {
	var (
		account      domain.Account
		currencyCode string
		balance      decimal.Decimal
	)
	err := row.Scan(
		&account.AccountID,
		&account.Name,
		&account.AccountType,
		&currencyCode,
		&balance,
		&account.Status,
		&account.AllowNegative,
		&account.CreatedAt,
		&account.LastUpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	account.Balance = domain.Money{Amount: balance, CurrencyCode: currencyCode}
	return &account, nil
}

func mapLockErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgErrLockNotAvailable {
		return fmt.Errorf("%w: %s", apperrors.ErrContention, pgErr.Message)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", apperrors.ErrContention, err)
	}
	return fmt.Errorf("failed to lock accounts for update: %w", err)
}
