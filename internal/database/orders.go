package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"token-settlement-go/internal/models"
	"token-settlement-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (s *Service) CreateOrder(ctx context.Context, params store.CreateOrderParams) (*models.Order, error) {
	order := &models.Order{
		Id:         uuid.New().String(),
		UserId:     params.UserId,
		OrderType:  params.OrderType,
		Amount:     params.Amount,
		LimitPrice: params.LimitPrice,
		Status:     models.OrderStatusPending,
		CreatedAt:  s.now(),
	}

	_, err := s.db.ExecContext(ctx, s.db.Rebind(queryInsertOrder),
		order.Id, order.UserId, order.OrderType, order.Amount.String(), order.LimitPrice.String(),
		order.Status, order.CreatedAt)
	if err != nil {
		zap.L().Error("Failed to insert order", zap.String("user_id", params.UserId), zap.Error(err))
		return nil, fmt.Errorf("unable to insert order: %w", err)
	}

	zap.L().Info("Order placed",
		zap.String("order_id", order.Id),
		zap.String("user_id", order.UserId),
		zap.String("type", order.OrderType),
		zap.String("amount", order.Amount.String()),
		zap.String("limit_price", order.LimitPrice.String()))
	return order, nil
}

func (s *Service) GetOrder(ctx context.Context, orderId string) (*models.Order, error) {
	var order models.Order
	if err := s.db.GetContext(ctx, &order, s.db.Rebind(queryGetOrder), orderId); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrOrderNotFound, orderId)
		}
		return nil, fmt.Errorf("unable to query order: %w", err)
	}
	return &order, nil
}

// ListPendingOrders returns every PENDING order in insertion order.
func (s *Service) ListPendingOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := s.db.SelectContext(ctx, &orders, s.db.Rebind(queryListOrdersByStatus), models.OrderStatusPending); err != nil {
		return nil, fmt.Errorf("unable to query pending orders: %w", err)
	}
	return orders, nil
}
