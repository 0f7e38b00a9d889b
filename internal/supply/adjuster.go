package supply

import (
	"context"
	"errors"
	"fmt"

	"token-settlement-go/internal/models"
	"token-settlement-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var ErrInvalidAmount = errors.New("supply adjustment must be positive")

// Adjuster moves the token supply counters. remainingSupply and
// userSupplyRemaining always move together; adminReserve only changes on
// mint and unlock.
type Adjuster struct {
	store store.LedgerStore
}

func NewAdjuster(ledgerStore store.LedgerStore) *Adjuster {
	return &Adjuster{store: ledgerStore}
}

// Deduct removes tokens bought by a user. It fails with an
// *store.InsufficientSupplyError, before anything is written, when the
// tradable supply cannot cover amount.
func (a *Adjuster) Deduct(ctx context.Context, tx store.Tx, amount decimal.Decimal) (*models.TokenSupply, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	return tx.DeductSupply(ctx, amount)
}

// Add returns tokens sold back by a user to the tradable supply.
func (a *Adjuster) Add(ctx context.Context, tx store.Tx, amount decimal.Decimal) (*models.TokenSupply, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	return tx.AddSupply(ctx, amount)
}

// Mint grows the total supply. New tokens land in the admin reserve.
func (a *Adjuster) Mint(ctx context.Context, amount decimal.Decimal) (*models.TokenSupply, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}

	var supply *models.TokenSupply
	err := a.store.WithinTx(ctx, func(tx store.Tx) error {
		var err error
		supply, err = tx.MintSupply(ctx, amount)
		return err
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Token supply minted",
		zap.String("amount", amount.String()),
		zap.String("total_supply", supply.TotalSupply.String()),
		zap.String("admin_reserve", supply.AdminReserve.String()))
	return supply, nil
}

// Unlock releases tokens from the admin reserve for public trading.
func (a *Adjuster) Unlock(ctx context.Context, amount decimal.Decimal) (*models.TokenSupply, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}

	var supply *models.TokenSupply
	err := a.store.WithinTx(ctx, func(tx store.Tx) error {
		var err error
		supply, err = tx.UnlockSupply(ctx, amount)
		return err
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Token supply unlocked",
		zap.String("amount", amount.String()),
		zap.String("user_supply_remaining", supply.UserSupplyRemaining.String()),
		zap.String("admin_reserve", supply.AdminReserve.String()))
	return supply, nil
}
