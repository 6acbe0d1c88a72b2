package domain

import (
	"fmt"

	"github.com/openledger/ledger-engine/internal/apperrors"
)

// PostingType indicates whether a posting is a Debit or a Credit.
type PostingType string

const (
	Debit  PostingType = "DEBIT"
	Credit PostingType = "CREDIT"
)

// IsValid reports whether t is DEBIT or CREDIT.
func (t PostingType) IsValid() bool {
	return t == Debit || t == Credit
}

// Posting is one immutable signed movement against one account. The amount is
// always a non-negative magnitude; the type alone carries sign semantics.
type Posting struct {
	AccountID string      `json:"accountID"`
	Amount    Money       `json:"amount"`
	Type      PostingType `json:"type"`
}

// NewPosting builds a posting, rejecting negative magnitudes and unknown types.
func NewPosting(accountID string, amount Money, postingType PostingType) (Posting, error) {
	if amount.IsNegative() {
		return Posting{}, fmt.Errorf("%w: posting amount must not be negative, got %s", apperrors.ErrValidation, amount)
	}
	if !postingType.IsValid() {
		return Posting{}, fmt.Errorf("%w: unknown posting type %q", apperrors.ErrValidation, postingType)
	}
	return Posting{AccountID: accountID, Amount: amount, Type: postingType}, nil
}

// SignedAmount returns the amount with the double-entry sign convention
// applied: DEBIT positive, CREDIT negative.
func (p Posting) SignedAmount() Money {
	if p.Type == Credit {
		return p.Amount.Negate()
	}
	return p.Amount
}
