package domain

import (
	"fmt"
	"regexp"

	"github.com/openledger/ledger-engine/internal/apperrors"
	"github.com/shopspring/decimal"
)

var currencyCodePattern = regexp.MustCompile(`^[A-Z]{3}$`)

// IsValidCurrencyCode reports whether code has the ISO 4217 shape.
func IsValidCurrencyCode(code string) bool {
	return currencyCodePattern.MatchString(code)
}

// Money is an immutable amount in a single currency.
// Arithmetic between two Money values requires identical currencies; no
// rounding is ever performed implicitly.
type Money struct {
	Amount       decimal.Decimal `json:"amount"`
	CurrencyCode string          `json:"currencyCode"`
}

// NewMoney builds a Money value, validating the currency code shape (ISO 4217).
func NewMoney(amount decimal.Decimal, currencyCode string) (Money, error) {
	if !currencyCodePattern.MatchString(currencyCode) {
		return Money{}, fmt.Errorf("%w: invalid currency code %q", apperrors.ErrValidation, currencyCode)
	}
	return Money{Amount: amount, CurrencyCode: currencyCode}, nil
}

// ZeroMoney returns a zero amount in the given currency.
func ZeroMoney(currencyCode string) (Money, error) {
	return NewMoney(decimal.Zero, currencyCode)
}

// Add returns the sum of m and other. Both values must share a currency.
func (m Money) Add(other Money) (Money, error) {
	if m.CurrencyCode != other.CurrencyCode {
		return Money{}, fmt.Errorf("%w: cannot add %s to %s", apperrors.ErrCurrencyMismatch, other.CurrencyCode, m.CurrencyCode)
	}
	return Money{Amount: m.Amount.Add(other.Amount), CurrencyCode: m.CurrencyCode}, nil
}

// Subtract returns m minus other. Both values must share a currency.
func (m Money) Subtract(other Money) (Money, error) {
	if m.CurrencyCode != other.CurrencyCode {
		return Money{}, fmt.Errorf("%w: cannot subtract %s from %s", apperrors.ErrCurrencyMismatch, other.CurrencyCode, m.CurrencyCode)
	}
	return Money{Amount: m.Amount.Sub(other.Amount), CurrencyCode: m.CurrencyCode}, nil
}

// Negate returns m with the sign of the amount flipped.
func (m Money) Negate() Money {
	return Money{Amount: m.Amount.Neg(), CurrencyCode: m.CurrencyCode}
}

func (m Money) IsPositive() bool {
	return m.Amount.IsPositive()
}

func (m Money) IsNegative() bool {
	return m.Amount.IsNegative()
}

func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

func (m Money) String() string {
	return m.Amount.String() + " " + m.CurrencyCode
}
