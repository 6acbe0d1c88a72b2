package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/openledger/ledger-engine/internal/apperrors"
	"github.com/openledger/ledger-engine/internal/core/domain"
	portsrepo "github.com/openledger/ledger-engine/internal/core/ports/repositories"
)

type PgxTransactionRepository struct {
	BaseRepository
}

// NewTransactionRepository creates a new repository for transaction data.
func NewTransactionRepository(pool *pgxpool.Pool) *PgxTransactionRepository {
	return &PgxTransactionRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.TransactionRepository = (*PgxTransactionRepository)(nil)

// SaveTransactionInTx persists a transaction and its postings inside tx.
// Posting rows carry a position column so the original order survives reads.
func (r *PgxTransactionRepository) SaveTransactionInTx(ctx context.Context, tx portsrepo.Tx, txn domain.Transaction) error {
	pgxTx, err := asPgxTx(tx)
	if err != nil {
		return err
	}

	insertTxn := `
		INSERT INTO transactions (transaction_id, description, timestamp)
		VALUES ($1, $2, $3);
	`
	if _, err := pgxTx.Exec(ctx, insertTxn, txn.TransactionID, txn.Description, txn.Timestamp); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique violation
			return fmt.Errorf("%w: transaction %s already exists", apperrors.ErrDuplicate, txn.TransactionID)
		}
		return fmt.Errorf("failed to save transaction %s: %w", txn.TransactionID, err)
	}

	insertPosting := `
		INSERT INTO postings (transaction_id, account_id, amount, currency_code, posting_type, position)
		VALUES ($1, $2, $3, $4, $5, $6);
	`
	batch := &pgx.Batch{}
	for i, p := range txn.Postings {
		batch.Queue(insertPosting, txn.TransactionID, p.AccountID, p.Amount.Amount, p.Amount.CurrencyCode, p.Type, i)
	}

	br := pgxTx.SendBatch(ctx, batch)
	var batchErr error
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil && batchErr == nil {
			batchErr = fmt.Errorf("failed to save posting %d of transaction %s: %w", i, txn.TransactionID, err)
		}
	}
	if err := br.Close(); err != nil && batchErr == nil {
		batchErr = fmt.Errorf("failed to close posting insert batch: %w", err)
	}
	return batchErr
}

// FindTransactionByID retrieves a transaction with its postings in original order.
func (r *PgxTransactionRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	txnQuery := `
		SELECT transaction_id, description, timestamp
		FROM transactions
		WHERE transaction_id = $1;
	`
	var txn domain.Transaction
	err := r.Pool.QueryRow(ctx, txnQuery, transactionID).Scan(&txn.TransactionID, &txn.Description, &txn.Timestamp)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: transaction %s", apperrors.ErrNotFound, transactionID)
		}
		return nil, fmt.Errorf("failed to find transaction by ID %s: %w", transactionID, err)
	}

	postingsQuery := `
		SELECT account_id, amount, currency_code, posting_type
		FROM postings
		WHERE transaction_id = $1
		ORDER BY position;
	`
	rows, err := r.Pool.Query(ctx, postingsQuery, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load postings for transaction %s: %w", transactionID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			p            domain.Posting
			amount       decimal.Decimal
			currencyCode string
		)
		if err := rows.Scan(&p.AccountID, &amount, &currencyCode, &p.Type); err != nil {
			return nil, fmt.Errorf("failed to scan posting row: %w", err)
		}
		p.Amount = domain.Money{Amount: amount, CurrencyCode: currencyCode}
		txn.Postings = append(txn.Postings, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read posting rows: %w", err)
	}
	return &txn, nil
}
