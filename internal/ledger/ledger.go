package ledger

import (
	"context"
	"errors"
	"fmt"

	"token-settlement-go/internal/models"
	"token-settlement-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrInvalidAmount   = errors.New("amount must be positive")
	ErrUnknownCurrency = errors.New("unknown currency")
)

// Observer is told about transactions after their unit of work committed.
type Observer interface {
	TransactionCommitted(ctx context.Context, txn models.Transaction)
}

// Ledger applies balance mutations inside a unit of work and routes fees to
// the admin wallet.
type Ledger struct {
	adminUserId string
	observers   []Observer
}

func New(adminUserId string, observers ...Observer) *Ledger {
	return &Ledger{adminUserId: adminUserId, observers: observers}
}

func (l *Ledger) AdminUserId() string {
	return l.adminUserId
}

// AddObserver registers an observer for committed transactions.
func (l *Ledger) AddObserver(o Observer) {
	l.observers = append(l.observers, o)
}

// Debit removes amount from the user's balance in currency. The balance is
// checked first so the caller gets ErrInsufficientBalance with both figures.
func (l *Ledger) Debit(ctx context.Context, tx store.Tx, userId string, amount decimal.Decimal, currency string) (*models.Wallet, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}

	wallet, err := tx.GetWallet(ctx, userId)
	if err != nil {
		return nil, err
	}
	available, err := balanceOf(wallet, currency)
	if err != nil {
		return nil, err
	}
	if available.LessThan(amount) {
		return nil, &store.InsufficientBalanceError{Currency: currency, Available: available, Required: amount}
	}

	usd, tokens := deltas(amount.Neg(), currency)
	return tx.AdjustWallet(ctx, userId, usd, tokens)
}

// Credit adds amount to the user's balance in currency.
func (l *Ledger) Credit(ctx context.Context, tx store.Tx, userId string, amount decimal.Decimal, currency string) (*models.Wallet, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	if _, err := balanceOf(&models.Wallet{}, currency); err != nil {
		return nil, err
	}

	usd, tokens := deltas(amount, currency)
	return tx.AdjustWallet(ctx, userId, usd, tokens)
}

// CollectFee credits a fee to the admin wallet. Zero fees are a no-op.
func (l *Ledger) CollectFee(ctx context.Context, tx store.Tx, fee decimal.Decimal, currency string) error {
	if fee.IsZero() {
		return nil
	}
	if _, err := l.Credit(ctx, tx, l.adminUserId, fee, currency); err != nil {
		return fmt.Errorf("failed to credit fee to admin wallet: %w", err)
	}
	return nil
}

// RecordTransaction appends the single transaction record of a settlement.
func (l *Ledger) RecordTransaction(ctx context.Context, tx store.Tx, params store.TransactionParams) (*models.Transaction, error) {
	if !params.FeeAmount.Add(params.NetAmount).Equal(params.GrossAmount) {
		return nil, fmt.Errorf("transaction breakdown does not balance: fee %s + net %s != gross %s",
			params.FeeAmount, params.NetAmount, params.GrossAmount)
	}
	return tx.InsertTransaction(ctx, params)
}

// Committed notifies observers once the unit of work holding txns committed.
func (l *Ledger) Committed(ctx context.Context, txns ...*models.Transaction) {
	for _, txn := range txns {
		if txn == nil {
			continue
		}
		zap.L().Info("Settlement committed",
			zap.String("transaction_id", txn.Id),
			zap.String("user_id", txn.UserId),
			zap.String("type", txn.Type),
			zap.String("gross", txn.GrossAmount.String()),
			zap.String("fee", txn.FeeAmount.String()),
			zap.String("net", txn.NetAmount.String()))
		for _, o := range l.observers {
			o.TransactionCommitted(ctx, *txn)
		}
	}
}

// RequireUnlocked rejects wallets whose activation fee is locked.
func RequireUnlocked(wallet *models.Wallet) error {
	if wallet.WalletFeeLocked {
		return fmt.Errorf("%w: user %s", store.ErrWalletFeeLocked, wallet.UserId)
	}
	return nil
}

func balanceOf(wallet *models.Wallet, currency string) (decimal.Decimal, error) {
	switch currency {
	case models.CurrencyUSD:
		return wallet.UsdBalance, nil
	case models.CurrencyToken:
		return wallet.TokenBalance, nil
	default:
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnknownCurrency, currency)
	}
}

func deltas(amount decimal.Decimal, currency string) (usd, tokens decimal.Decimal) {
	if currency == models.CurrencyUSD {
		return amount, decimal.Zero
	}
	return decimal.Zero, amount
}
