package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openledger/ledger-engine/internal/apperrors"
	"github.com/openledger/ledger-engine/internal/core/domain"
)

func TestNewMoney_ValidatesCurrencyCode(t *testing.T) {
	m, err := domain.NewMoney(decimal.NewFromInt(10), "USD")
	require.NoError(t, err)
	assert.Equal(t, "USD", m.CurrencyCode)
	assert.True(t, decimal.NewFromInt(10).Equal(m.Amount))

	for _, code := range []string{"", "usd", "US", "USDX", "U$D"} {
		_, err := domain.NewMoney(decimal.NewFromInt(10), code)
		assert.ErrorIs(t, err, apperrors.ErrValidation, "code %q should be rejected", code)
	}
}

func TestMoney_AddSubtract(t *testing.T) {
	a, _ := domain.NewMoney(decimal.NewFromInt(100), "USD")
	b, _ := domain.NewMoney(decimal.NewFromInt(40), "USD")

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(140).Equal(sum.Amount))

	diff, err := a.Subtract(b)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(60).Equal(diff.Amount))

	// Originals are untouched.
	assert.True(t, decimal.NewFromInt(100).Equal(a.Amount))
	assert.True(t, decimal.NewFromInt(40).Equal(b.Amount))
}

func TestMoney_CurrencyMismatch(t *testing.T) {
	usd, _ := domain.NewMoney(decimal.NewFromInt(10), "USD")
	eur, _ := domain.NewMoney(decimal.NewFromInt(10), "EUR")

	_, err := usd.Add(eur)
	assert.ErrorIs(t, err, apperrors.ErrCurrencyMismatch)

	_, err = usd.Subtract(eur)
	assert.ErrorIs(t, err, apperrors.ErrCurrencyMismatch)
}

func TestMoney_NegateAndPredicates(t *testing.T) {
	m, _ := domain.NewMoney(decimal.NewFromInt(5), "USD")
	neg := m.Negate()

	assert.True(t, m.IsPositive())
	assert.True(t, neg.IsNegative())
	assert.True(t, decimal.NewFromInt(-5).Equal(neg.Amount))

	zero, _ := domain.ZeroMoney("USD")
	assert.True(t, zero.IsZero())
}

func TestMoney_NoImplicitRounding(t *testing.T) {
	a, _ := domain.NewMoney(decimal.RequireFromString("0.1"), "USD")
	b, _ := domain.NewMoney(decimal.RequireFromString("0.2"), "USD")

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, "0.3", sum.Amount.String())
}
