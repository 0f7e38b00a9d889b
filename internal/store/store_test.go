package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestInsufficientSupplyError(t *testing.T) {
	err := error(&InsufficientSupplyError{
		Requested: decimal.NewFromInt(150),
		Available: decimal.NewFromInt(100),
	})

	assert.True(t, errors.Is(err, ErrInsufficientSupply))

	var supplyErr *InsufficientSupplyError
	if assert.True(t, errors.As(err, &supplyErr)) {
		assert.True(t, supplyErr.Shortfall().Equal(decimal.NewFromInt(50)))
	}
	assert.Contains(t, err.Error(), "shortfall 50")
}

func TestInsufficientBalanceError(t *testing.T) {
	err := fmt.Errorf("debit failed: %w", &InsufficientBalanceError{
		Currency:  "USD",
		Available: decimal.NewFromInt(5),
		Required:  decimal.RequireFromString("5.01"),
	})

	assert.True(t, errors.Is(err, ErrInsufficientBalance))

	var balanceErr *InsufficientBalanceError
	if assert.True(t, errors.As(err, &balanceErr)) {
		assert.Equal(t, "USD", balanceErr.Currency)
		assert.True(t, balanceErr.Shortfall().Equal(decimal.RequireFromString("0.01")))
	}
	assert.Contains(t, err.Error(), "USD balance 5, required 5.01")
}
