package trading

import (
	"context"
	"fmt"
	"time"

	"token-settlement-go/internal/models"
	"token-settlement-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PlaceOrder records a resting limit order. Funds are not reserved; the sweep
// checks the balance again when the order executes.
func (s *Service) PlaceOrder(ctx context.Context, userId, orderType string, amount, limitPrice decimal.Decimal) (*models.Order, error) {
	if orderType != models.OrderTypeBuy && orderType != models.OrderTypeSell {
		return nil, ErrInvalidOrderType
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if !limitPrice.IsPositive() {
		return nil, ErrInvalidLimitPrice
	}
	// A BUY fills at or below its limit, so this is the fewest tokens it can buy.
	if orderType == models.OrderTypeBuy && !amount.DivRound(limitPrice, TokenScale).IsPositive() {
		return nil, fmt.Errorf("%w: %s USD buys no tokens at limit %s", ErrInvalidAmount, amount, limitPrice)
	}

	wallet, err := s.store.GetWallet(ctx, userId)
	if err != nil {
		return nil, err
	}
	if wallet.WalletFeeLocked {
		return nil, store.ErrWalletFeeLocked
	}

	return s.store.CreateOrder(ctx, store.CreateOrderParams{
		UserId:     userId,
		OrderType:  orderType,
		Amount:     amount,
		LimitPrice: limitPrice,
	})
}

// CancelOrder cancels a PENDING order owned by userId.
func (s *Service) CancelOrder(ctx context.Context, userId, orderId string) (*models.Order, error) {
	order, err := s.store.GetOrder(ctx, orderId)
	if err != nil {
		return nil, err
	}
	if order.UserId != userId {
		return nil, ErrOrderNotOwned
	}

	err = s.store.WithinTx(ctx, func(tx store.Tx) error {
		return tx.TransitionOrder(ctx, orderId, models.OrderStatusCanceled, time.Now().UTC())
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Order canceled by user", zap.String("order_id", orderId), zap.String("user_id", userId))
	order.Status = models.OrderStatusCanceled
	return order, nil
}
