package dto

import (
	"time"

	"github.com/openledger/ledger-engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

// PostingRequest is one line of a PostTransactionRequest.
type PostingRequest struct {
	AccountID    string             `json:"accountID" binding:"required"`
	Amount       decimal.Decimal    `json:"amount" binding:"required"`
	CurrencyCode string             `json:"currencyCode" binding:"required,currency_code"`
	Type         domain.PostingType `json:"type" binding:"required,oneof=DEBIT CREDIT"`
}

// PostTransactionRequest defines the data needed to post a balanced transaction.
type PostTransactionRequest struct {
	Description string           `json:"description" binding:"required"`
	Postings    []PostingRequest `json:"postings" binding:"required,min=1,dive"`
}

// TransferFundsRequest defines the data needed to transfer between two accounts.
type TransferFundsRequest struct {
	FromAccountID string          `json:"fromAccountID" binding:"required"`
	ToAccountID   string          `json:"toAccountID" binding:"required"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	CurrencyCode  string          `json:"currencyCode" binding:"required,currency_code"`
	Description   string          `json:"description"`
}

// DepositRequest seeds funds into an account from the genesis account.
type DepositRequest struct {
	AccountID    string          `json:"accountID" binding:"required"`
	Amount       decimal.Decimal `json:"amount" binding:"required"`
	CurrencyCode string          `json:"currencyCode" binding:"required,currency_code"`
	Description  string          `json:"description"`
}

// PostingResponse is one persisted posting line.
type PostingResponse struct {
	AccountID    string             `json:"accountID"`
	Amount       decimal.Decimal    `json:"amount"`
	CurrencyCode string             `json:"currencyCode"`
	Type         domain.PostingType `json:"type"`
}

// TransactionResponse defines the data returned for a persisted transaction.
type TransactionResponse struct {
	TransactionID string            `json:"transactionID"`
	Description   string            `json:"description"`
	Timestamp     time.Time         `json:"timestamp"`
	Postings      []PostingResponse `json:"postings"`
}

// TransactionIDResponse carries just the identifier of a newly posted transaction.
type TransactionIDResponse struct {
	TransactionID string `json:"transactionID"`
}

// ToTransactionResponse converts a domain.Transaction to a TransactionResponse DTO.
func ToTransactionResponse(txn *domain.Transaction) TransactionResponse {
	postings := make([]PostingResponse, len(txn.Postings))
	for i, p := range txn.Postings {
		postings[i] = PostingResponse{
			AccountID:    p.AccountID,
			Amount:       p.Amount.Amount,
			CurrencyCode: p.Amount.CurrencyCode,
			Type:         p.Type,
		}
	}
	return TransactionResponse{
		TransactionID: txn.TransactionID,
		Description:   txn.Description,
		Timestamp:     txn.Timestamp,
		Postings:      postings,
	}
}
