// Package fees holds the fixed fee schedule applied to settlements.
package fees

import (
	"errors"
	"fmt"

	"token-settlement-go/internal/models"

	"github.com/shopspring/decimal"
)

var ErrNegativeAmount = errors.New("gross amount cannot be negative")

var (
	BuyRate      = decimal.RequireFromString("0.01")
	SellRate     = decimal.RequireFromString("0.01")
	TransferRate = decimal.RequireFromString("0.05")
	WithdrawRate = decimal.RequireFromString("0.10")

	// WalletActivationFee is a flat charge in USD.
	WalletActivationFee = decimal.NewFromInt(2)
)

// Breakdown splits a gross amount into fee and net. Fee + Net == Gross.
type Breakdown struct {
	Gross decimal.Decimal
	Fee   decimal.Decimal
	Net   decimal.Decimal
}

// Calculator applies the rate table. It has no runtime configuration.
type Calculator struct{}

// Rate returns the proportional rate for a transaction type. Types without a
// rate settle fee-free.
func (Calculator) Rate(transactionType string) decimal.Decimal {
	switch transactionType {
	case models.TransactionTypeBuy:
		return BuyRate
	case models.TransactionTypeSell:
		return SellRate
	case models.TransactionTypeTransfer:
		return TransferRate
	case models.TransactionTypeWithdraw:
		return WithdrawRate
	default:
		return decimal.Zero
	}
}

func (c Calculator) Calculate(gross decimal.Decimal, transactionType string) (Breakdown, error) {
	if gross.IsNegative() {
		return Breakdown{}, fmt.Errorf("%w: %s", ErrNegativeAmount, gross)
	}

	var fee decimal.Decimal
	if transactionType == models.TransactionTypeWalletActivation {
		fee = decimal.Min(WalletActivationFee, gross)
	} else {
		fee = gross.Mul(c.Rate(transactionType))
	}

	return Breakdown{Gross: gross, Fee: fee, Net: gross.Sub(fee)}, nil
}
