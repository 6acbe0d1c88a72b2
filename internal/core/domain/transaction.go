package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/openledger/ledger-engine/internal/apperrors"
	"github.com/shopspring/decimal"
)

// Transaction is an atomic, balanced group of postings. Once validated and
// persisted it is the durable record of a balance movement and is never
// mutated or deleted.
type Transaction struct {
	TransactionID string    `json:"transactionID"`
	Description   string    `json:"description"`
	Timestamp     time.Time `json:"timestamp"`
	Postings      []Posting `json:"postings"`
}

// NewTransaction creates an empty transaction with a fresh ID and timestamp.
func NewTransaction(description string) *Transaction {
	return &Transaction{
		TransactionID: uuid.NewString(),
		Description:   description,
		Timestamp:     time.Now().UTC(),
	}
}

// AddPosting appends a posting, enforcing the single-currency-per-transaction rule.
func (t *Transaction) AddPosting(p Posting) error {
	if len(t.Postings) > 0 {
		first := t.Postings[0].Amount.CurrencyCode
		if p.Amount.CurrencyCode != first {
			return fmt.Errorf("%w: posting currency %s differs from transaction currency %s",
				apperrors.ErrCurrencyMismatch, p.Amount.CurrencyCode, first)
		}
	}
	t.Postings = append(t.Postings, p)
	return nil
}

// Validate checks the double-entry invariant: postings are non-empty and their
// signed sum (DEBIT positive, CREDIT negative) is exactly zero. Validate is
// pure; calling it twice yields the same result.
func (t *Transaction) Validate() error {
	if len(t.Postings) == 0 {
		return fmt.Errorf("%w: transaction must have at least one posting", apperrors.ErrValidation)
	}

	total := decimal.Zero
	for _, p := range t.Postings {
		total = total.Add(p.SignedAmount().Amount)
	}
	if !total.IsZero() {
		return fmt.Errorf("%w: imbalance is %s %s", apperrors.ErrImbalanced, total.String(), t.Postings[0].Amount.CurrencyCode)
	}
	return nil
}

// CurrencyCode returns the single currency shared by all postings, or the
// empty string for a transaction with no postings yet.
func (t *Transaction) CurrencyCode() string {
	if len(t.Postings) == 0 {
		return ""
	}
	return t.Postings[0].Amount.CurrencyCode
}
