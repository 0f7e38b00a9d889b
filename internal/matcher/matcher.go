// Package matcher executes resting limit orders against the current token
// price. One Sweep is one pass over every PENDING order.
package matcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"token-settlement-go/internal/ledger"
	"token-settlement-go/internal/models"
	"token-settlement-go/internal/store"
	"token-settlement-go/internal/supply"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	DefaultBatchSize = 10
	tokenScale       = 8
)

var ErrSweepInProgress = errors.New("order sweep already running")

// Order outcomes within a sweep.
const (
	OutcomeExecuted = "executed"
	OutcomeSkipped  = "skipped"
	OutcomeCanceled = "canceled"
	OutcomeError    = "error"
)

// PriceSource returns the price every order in a sweep is evaluated against.
type PriceSource interface {
	CurrentPrice(ctx context.Context) (decimal.Decimal, error)
}

// Recorder receives sweep outcomes. *metrics.Metrics satisfies it.
type Recorder interface {
	OrderOutcome(outcome string)
	SweepCompleted(result *models.SweepResult, err error)
}

type Config struct {
	BatchSize  int
	BatchPause time.Duration
}

type Matcher struct {
	store    store.LedgerStore
	prices   PriceSource
	supply   *supply.Adjuster
	ledger   *ledger.Ledger
	recorder Recorder
	cfg      Config
	now      func() time.Time

	running sync.Mutex
}

func New(ledgerStore store.LedgerStore, prices PriceSource, adjuster *supply.Adjuster, l *ledger.Ledger, recorder Recorder, cfg Config) *Matcher {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	return &Matcher{
		store:    ledgerStore,
		prices:   prices,
		supply:   adjuster,
		ledger:   l,
		recorder: recorder,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ShouldExecute reports whether order crosses price. BUY executes at or below
// its limit, SELL at or above it.
func ShouldExecute(order models.Order, price decimal.Decimal) bool {
	switch order.OrderType {
	case models.OrderTypeBuy:
		return price.LessThanOrEqual(order.LimitPrice)
	case models.OrderTypeSell:
		return price.GreaterThanOrEqual(order.LimitPrice)
	default:
		return false
	}
}

// Sweep evaluates every PENDING order once against a single price sample.
// A failing order is counted and the sweep moves on. Only one sweep runs at a
// time per Matcher.
func (m *Matcher) Sweep(ctx context.Context) (*models.SweepResult, error) {
	if !m.running.TryLock() {
		return nil, ErrSweepInProgress
	}
	defer m.running.Unlock()

	start := time.Now()

	price, err := m.prices.CurrentPrice(ctx)
	if err != nil {
		m.done(nil, err)
		return nil, fmt.Errorf("failed to fetch current price: %w", err)
	}

	orders, err := m.store.ListPendingOrders(ctx)
	if err != nil {
		m.done(nil, err)
		return nil, fmt.Errorf("failed to fetch pending orders: %w", err)
	}

	zap.L().Info("Starting order sweep",
		zap.String("current_price", price.String()),
		zap.Int("pending_orders", len(orders)),
		zap.Int("batch_size", m.cfg.BatchSize))

	result := &models.SweepResult{CurrentPrice: price}
	for batchStart := 0; batchStart < len(orders); batchStart += m.cfg.BatchSize {
		if batchStart > 0 {
			if err := m.pause(ctx); err != nil {
				m.finish(result, start)
				m.done(result, err)
				return result, err
			}
		}

		batchEnd := min(batchStart+m.cfg.BatchSize, len(orders))
		for _, order := range orders[batchStart:batchEnd] {
			outcome := m.processOrder(ctx, order, price)
			if m.recorder != nil {
				m.recorder.OrderOutcome(outcome)
			}
			switch outcome {
			case OutcomeExecuted:
				result.ExecutedCount++
			case OutcomeSkipped:
				result.SkippedCount++
			default:
				result.ErrorCount++
			}
		}
	}

	result.Success = true
	m.finish(result, start)

	zap.L().Info("Order sweep completed",
		zap.Int("executed", result.ExecutedCount),
		zap.Int("skipped", result.SkippedCount),
		zap.Int("errors", result.ErrorCount),
		zap.Int64("execution_time_ms", result.ExecutionTimeMs))

	m.done(result, nil)
	return result, nil
}

func (m *Matcher) finish(result *models.SweepResult, start time.Time) {
	result.ExecutionTimeMs = time.Since(start).Milliseconds()
	result.Timestamp = m.now()
}

func (m *Matcher) done(result *models.SweepResult, err error) {
	if m.recorder != nil {
		m.recorder.SweepCompleted(result, err)
	}
}

func (m *Matcher) pause(ctx context.Context) error {
	if m.cfg.BatchPause <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(m.cfg.BatchPause)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// processOrder runs one order in its own unit of work. Orders that can never
// execute as placed are canceled; store failures leave the order PENDING for
// the next sweep.
func (m *Matcher) processOrder(ctx context.Context, order models.Order, price decimal.Decimal) string {
	if !ShouldExecute(order, price) {
		zap.L().Debug("Order not executable at current price",
			zap.String("order_id", order.Id),
			zap.String("type", order.OrderType),
			zap.String("limit_price", order.LimitPrice.String()),
			zap.String("current_price", price.String()))
		return OutcomeSkipped
	}

	var (
		outcome string
		reason  string
		txn     *models.Transaction
	)
	err := m.store.WithinTx(ctx, func(tx store.Tx) error {
		txn = nil
		wallet, err := tx.GetWallet(ctx, order.UserId)
		if errors.Is(err, store.ErrWalletNotFound) {
			outcome, reason = OutcomeCanceled, "wallet not found"
			return tx.TransitionOrder(ctx, order.Id, models.OrderStatusCanceled, m.now())
		}
		if err != nil {
			return err
		}
		if wallet.WalletFeeLocked {
			outcome = OutcomeSkipped
			return nil
		}

		if reason = m.unfillable(ctx, tx, order, wallet, price); reason != "" {
			outcome = OutcomeCanceled
			return tx.TransitionOrder(ctx, order.Id, models.OrderStatusCanceled, m.now())
		}

		if err := tx.TransitionOrder(ctx, order.Id, models.OrderStatusFilled, m.now()); err != nil {
			return err
		}
		txn, err = m.settle(ctx, tx, order, price)
		outcome = OutcomeExecuted
		return err
	})

	switch {
	case errors.Is(err, store.ErrOrderNotPending):
		zap.L().Debug("Order already settled elsewhere", zap.String("order_id", order.Id))
		return OutcomeSkipped
	case err != nil:
		zap.L().Error("Failed to process order, leaving it pending",
			zap.String("order_id", order.Id),
			zap.String("user_id", order.UserId),
			zap.Error(err))
		return OutcomeError
	case outcome == OutcomeCanceled:
		zap.L().Warn("Order canceled",
			zap.String("order_id", order.Id),
			zap.String("user_id", order.UserId),
			zap.String("reason", reason))
	case outcome == OutcomeExecuted:
		m.ledger.Committed(ctx, txn)
	}
	return outcome
}

// unfillable returns why order cannot be filled, or "" when it can.
func (m *Matcher) unfillable(ctx context.Context, tx store.Tx, order models.Order, wallet *models.Wallet, price decimal.Decimal) string {
	switch order.OrderType {
	case models.OrderTypeBuy:
		tokens := buyTokens(order, price)
		if !tokens.IsPositive() {
			return fmt.Sprintf("%s USD buys no tokens at %s", order.Amount, price)
		}
		if wallet.UsdBalance.LessThan(order.Amount) {
			balanceErr := &store.InsufficientBalanceError{Currency: models.CurrencyUSD, Available: wallet.UsdBalance, Required: order.Amount}
			return balanceErr.Error()
		}
		current, err := tx.GetTokenSupply(ctx)
		if err != nil {
			// Reported by the settlement itself.
			return ""
		}
		if current.UserSupplyRemaining.LessThan(tokens) {
			supplyErr := &store.InsufficientSupplyError{Requested: tokens, Available: current.UserSupplyRemaining}
			return supplyErr.Error()
		}
	case models.OrderTypeSell:
		if wallet.TokenBalance.LessThan(order.Amount) {
			balanceErr := &store.InsufficientBalanceError{Currency: models.CurrencyToken, Available: wallet.TokenBalance, Required: order.Amount}
			return balanceErr.Error()
		}
	default:
		return "unknown order type " + order.OrderType
	}
	return ""
}

// settle moves both legs of a filled order, adjusts the supply and records
// the fill. Sweep fills are fee-free.
func (m *Matcher) settle(ctx context.Context, tx store.Tx, order models.Order, price decimal.Decimal) (*models.Transaction, error) {
	params := store.TransactionParams{
		UserId:    order.UserId,
		Currency:  models.CurrencyUSD,
		FeeAmount: decimal.Zero,
		Price:     price,
		Reference: order.Id,
	}

	switch order.OrderType {
	case models.OrderTypeBuy:
		tokens := buyTokens(order, price)
		if _, err := m.supply.Deduct(ctx, tx, tokens); err != nil {
			return nil, err
		}
		if _, err := m.ledger.Debit(ctx, tx, order.UserId, order.Amount, models.CurrencyUSD); err != nil {
			return nil, err
		}
		if _, err := m.ledger.Credit(ctx, tx, order.UserId, tokens, models.CurrencyToken); err != nil {
			return nil, err
		}
		params.Type = models.TransactionTypeLimitBuy
		params.GrossAmount = order.Amount
		params.CounterAmount = tokens

	case models.OrderTypeSell:
		usd := order.Amount.Mul(price)
		if _, err := m.ledger.Debit(ctx, tx, order.UserId, order.Amount, models.CurrencyToken); err != nil {
			return nil, err
		}
		if _, err := m.supply.Add(ctx, tx, order.Amount); err != nil {
			return nil, err
		}
		if _, err := m.ledger.Credit(ctx, tx, order.UserId, usd, models.CurrencyUSD); err != nil {
			return nil, err
		}
		params.Type = models.TransactionTypeLimitSell
		params.GrossAmount = usd
		params.CounterAmount = order.Amount

	default:
		return nil, fmt.Errorf("unknown order type %q", order.OrderType)
	}

	params.NetAmount = params.GrossAmount
	return m.ledger.RecordTransaction(ctx, tx, params)
}

func buyTokens(order models.Order, price decimal.Decimal) decimal.Decimal {
	return order.Amount.DivRound(price, tokenScale)
}
