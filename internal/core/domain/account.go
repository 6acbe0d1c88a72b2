package domain

import (
	"fmt"
	"time"

	"github.com/openledger/ledger-engine/internal/apperrors"
)

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Revenue   AccountType = "REVENUE"
	Expense   AccountType = "EXPENSE"
)

// IsValid reports whether t is one of the five closed account types.
func (t AccountType) IsValid() bool {
	switch t {
	case Asset, Liability, Equity, Revenue, Expense:
		return true
	}
	return false
}

// AccountStatus indicates the lifecycle state of an account.
// Frozen and Closed are reserved extension points; no operation sets them yet.
type AccountStatus string

const (
	StatusActive AccountStatus = "ACTIVE"
	StatusFrozen AccountStatus = "FROZEN"
	StatusClosed AccountStatus = "CLOSED"
)

// Account is the aggregate owning a balance. The balance currency is fixed at
// creation; the only mutation path is PostPosting.
type Account struct {
	AccountID     string        `json:"accountID"`
	Name          string        `json:"name"`
	AccountType   AccountType   `json:"accountType"`
	Balance       Money         `json:"balance"`
	Status        AccountStatus `json:"status"`
	AllowNegative bool          `json:"allowNegative"`
	CreatedAt     time.Time     `json:"createdAt"`
	LastUpdatedAt time.Time     `json:"lastUpdatedAt"`
}

// NewAccount creates an active account with a zero balance in the given currency.
func NewAccount(accountID, name string, accountType AccountType, currencyCode string, allowNegative bool) (*Account, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: account name must not be blank", apperrors.ErrValidation)
	}
	if !accountType.IsValid() {
		return nil, fmt.Errorf("%w: unknown account type %q", apperrors.ErrValidation, accountType)
	}
	zero, err := ZeroMoney(currencyCode)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &Account{
		AccountID:     accountID,
		Name:          name,
		AccountType:   accountType,
		Balance:       zero,
		Status:        StatusActive,
		AllowNegative: allowNegative,
		CreatedAt:     now,
		LastUpdatedAt: now,
	}, nil
}

// increasesOnDebit reports the polarity group of the account type:
// ASSET/EXPENSE balances grow on DEBIT, LIABILITY/EQUITY/REVENUE on CREDIT.
func (a *Account) increasesOnDebit() (bool, error) {
	switch a.AccountType {
	case Asset, Expense:
		return true, nil
	case Liability, Equity, Revenue:
		return false, nil
	default:
		return false, fmt.Errorf("unknown account type %q for account %s", a.AccountType, a.AccountID)
	}
}

// PostPosting applies a single posting to the balance using the polarity rule
// for the account type. On any failure the account is left unmodified.
func (a *Account) PostPosting(p Posting) error {
	if p.Amount.CurrencyCode != a.Balance.CurrencyCode {
		return fmt.Errorf("%w: posting currency %s does not match account currency %s for account %s",
			apperrors.ErrCurrencyMismatch, p.Amount.CurrencyCode, a.Balance.CurrencyCode, a.AccountID)
	}

	debitNormal, err := a.increasesOnDebit()
	if err != nil {
		return err
	}

	var newBalance Money
	if debitNormal == (p.Type == Debit) {
		newBalance, err = a.Balance.Add(p.Amount)
	} else {
		newBalance, err = a.Balance.Subtract(p.Amount)
	}
	if err != nil {
		return err
	}

	if newBalance.IsNegative() && !a.AllowNegative {
		return fmt.Errorf("%w: account %s balance would become %s", apperrors.ErrInsufficientFunds, a.AccountID, newBalance)
	}

	a.Balance = newBalance
	a.LastUpdatedAt = time.Now().UTC()
	return nil
}
