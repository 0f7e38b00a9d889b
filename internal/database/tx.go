package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"token-settlement-go/internal/models"
	"token-settlement-go/internal/store"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var _ store.Tx = (*sqlTx)(nil)

// sqlTx is the store.Tx handed to WithinTx callbacks.
type sqlTx struct {
	tx  *sqlx.Tx
	now func() time.Time
}

func (t *sqlTx) GetWallet(ctx context.Context, userId string) (*models.Wallet, error) {
	return getWallet(ctx, t.tx, userId)
}

func (t *sqlTx) GetTokenSupply(ctx context.Context) (*models.TokenSupply, error) {
	return getTokenSupply(ctx, t.tx)
}

func (t *sqlTx) AdjustWallet(ctx context.Context, userId string, usdDelta, tokenDelta decimal.Decimal) (*models.Wallet, error) {
	wallet, err := getWallet(ctx, t.tx, userId)
	if err != nil {
		return nil, err
	}

	newUsd := wallet.UsdBalance.Add(usdDelta)
	newTokens := wallet.TokenBalance.Add(tokenDelta)
	if newUsd.IsNegative() {
		return nil, &store.InsufficientBalanceError{Currency: models.CurrencyUSD, Available: wallet.UsdBalance, Required: usdDelta.Neg()}
	}
	if newTokens.IsNegative() {
		return nil, &store.InsufficientBalanceError{Currency: models.CurrencyToken, Available: wallet.TokenBalance, Required: tokenDelta.Neg()}
	}

	now := t.now()
	result, err := t.tx.ExecContext(ctx, t.tx.Rebind(queryUpdateWalletBalances),
		newUsd.String(), newTokens.String(), now, userId, wallet.Version)
	if err != nil {
		return nil, fmt.Errorf("failed to update wallet: %w", err)
	}
	if err := expectOneRow(result, "wallet update"); err != nil {
		return nil, err
	}

	wallet.UsdBalance = newUsd
	wallet.TokenBalance = newTokens
	wallet.Version++
	wallet.UpdatedAt = now
	return wallet, nil
}

func (t *sqlTx) DeductSupply(ctx context.Context, amount decimal.Decimal) (*models.TokenSupply, error) {
	current, err := getTokenSupply(ctx, t.tx)
	if err != nil {
		return nil, err
	}
	if current.UserSupplyRemaining.LessThan(amount) {
		return nil, &store.InsufficientSupplyError{Requested: amount, Available: current.UserSupplyRemaining}
	}

	next := *current
	next.RemainingSupply = current.RemainingSupply.Sub(amount)
	next.UserSupplyRemaining = current.UserSupplyRemaining.Sub(amount)
	return t.swapSupply(ctx, current, next)
}

func (t *sqlTx) AddSupply(ctx context.Context, amount decimal.Decimal) (*models.TokenSupply, error) {
	current, err := getTokenSupply(ctx, t.tx)
	if err != nil {
		return nil, err
	}

	next := *current
	next.RemainingSupply = current.RemainingSupply.Add(amount)
	next.UserSupplyRemaining = current.UserSupplyRemaining.Add(amount)
	return t.swapSupply(ctx, current, next)
}

func (t *sqlTx) MintSupply(ctx context.Context, amount decimal.Decimal) (*models.TokenSupply, error) {
	current, err := getTokenSupply(ctx, t.tx)
	if err != nil {
		return nil, err
	}

	next := *current
	next.TotalSupply = current.TotalSupply.Add(amount)
	next.RemainingSupply = current.RemainingSupply.Add(amount)
	next.AdminReserve = current.AdminReserve.Add(amount)
	return t.swapSupply(ctx, current, next)
}

func (t *sqlTx) UnlockSupply(ctx context.Context, amount decimal.Decimal) (*models.TokenSupply, error) {
	current, err := getTokenSupply(ctx, t.tx)
	if err != nil {
		return nil, err
	}
	if current.AdminReserve.LessThan(amount) {
		return nil, &store.InsufficientSupplyError{Requested: amount, Available: current.AdminReserve}
	}

	next := *current
	next.AdminReserve = current.AdminReserve.Sub(amount)
	next.UserSupplyRemaining = current.UserSupplyRemaining.Add(amount)
	return t.swapSupply(ctx, current, next)
}

// swapSupply writes next only if the row still carries current's version.
func (t *sqlTx) swapSupply(ctx context.Context, current *models.TokenSupply, next models.TokenSupply) (*models.TokenSupply, error) {
	if !next.Valid() {
		return nil, fmt.Errorf("%w: total=%s remaining=%s user=%s reserve=%s", store.ErrSupplyInvariant,
			next.TotalSupply, next.RemainingSupply, next.UserSupplyRemaining, next.AdminReserve)
	}

	now := t.now()
	result, err := t.tx.ExecContext(ctx, t.tx.Rebind(queryUpdateTokenSupply),
		next.TotalSupply.String(), next.RemainingSupply.String(), next.UserSupplyRemaining.String(),
		next.AdminReserve.String(), now, current.Version)
	if err != nil {
		return nil, fmt.Errorf("failed to update token supply: %w", err)
	}
	if err := expectOneRow(result, "token supply update"); err != nil {
		return nil, err
	}

	next.Version = current.Version + 1
	next.UpdatedAt = now
	return &next, nil
}

func (t *sqlTx) InsertTransaction(ctx context.Context, params store.TransactionParams) (*models.Transaction, error) {
	txn := &models.Transaction{
		Id:            uuid.New().String(),
		UserId:        params.UserId,
		Type:          params.Type,
		Currency:      params.Currency,
		GrossAmount:   params.GrossAmount,
		FeeAmount:     params.FeeAmount,
		NetAmount:     params.NetAmount,
		CounterAmount: params.CounterAmount,
		Price:         params.Price,
		Reference:     params.Reference,
		Status:        models.TransactionStatusCompleted,
		CreatedAt:     t.now(),
	}

	_, err := t.tx.ExecContext(ctx, t.tx.Rebind(queryInsertTransaction),
		txn.Id, txn.UserId, txn.Type, txn.Currency,
		txn.GrossAmount.String(), txn.FeeAmount.String(), txn.NetAmount.String(),
		txn.CounterAmount.String(), txn.Price.String(), txn.Reference, txn.Status, txn.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert transaction: %w", err)
	}

	zap.L().Debug("Transaction recorded",
		zap.String("transaction_id", txn.Id),
		zap.String("user_id", txn.UserId),
		zap.String("type", txn.Type),
		zap.String("gross", txn.GrossAmount.String()),
		zap.String("fee", txn.FeeAmount.String()))
	return txn, nil
}

func (t *sqlTx) InsertStake(ctx context.Context, userId string, amount decimal.Decimal) (*models.Stake, error) {
	stake := &models.Stake{
		Id:        uuid.New().String(),
		UserId:    userId,
		Amount:    amount,
		CreatedAt: t.now(),
	}
	_, err := t.tx.ExecContext(ctx, t.tx.Rebind(queryInsertStake),
		stake.Id, stake.UserId, stake.Amount.String(), stake.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert stake: %w", err)
	}
	return stake, nil
}

func (t *sqlTx) TransitionOrder(ctx context.Context, orderId, status string, at time.Time) error {
	var filledAt *time.Time
	if status == models.OrderStatusFilled {
		filledAt = &at
	}

	result, err := t.tx.ExecContext(ctx, t.tx.Rebind(queryTransitionOrder),
		status, filledAt, orderId, models.OrderStatusPending)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", store.ErrOrderNotPending, orderId)
	}
	return nil
}

func (t *sqlTx) ResolveWalletFee(ctx context.Context, userId string, waived bool) (bool, error) {
	result, err := t.tx.ExecContext(ctx, t.tx.Rebind(queryResolveWalletFee),
		true, waived, false, t.now(), userId, false)
	if err != nil {
		return false, fmt.Errorf("failed to resolve wallet fee: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return rows == 1, nil
}

func (t *sqlTx) LockWalletFee(ctx context.Context, userId string) (bool, error) {
	result, err := t.tx.ExecContext(ctx, t.tx.Rebind(queryLockWalletFee),
		true, t.now(), userId, false)
	if err != nil {
		return false, fmt.Errorf("failed to lock wallet fee: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return rows == 1, nil
}

func getWallet(ctx context.Context, q sqlx.ExtContext, userId string) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := sqlx.GetContext(ctx, q, &wallet, q.Rebind(queryGetWallet), userId); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: user %s", store.ErrWalletNotFound, userId)
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &wallet, nil
}

func getTokenSupply(ctx context.Context, q sqlx.ExtContext) (*models.TokenSupply, error) {
	var supply models.TokenSupply
	if err := sqlx.GetContext(ctx, q, &supply, q.Rebind(queryGetTokenSupply)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrSupplyNotInitialized
		}
		return nil, fmt.Errorf("failed to get token supply: %w", err)
	}
	return &supply, nil
}

// expectOneRow maps a versioned update that matched nothing to ErrConcurrentModification.
func expectOneRow(result sql.Result, what string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%s failed - %w", what, store.ErrConcurrentModification)
	}
	return nil
}
