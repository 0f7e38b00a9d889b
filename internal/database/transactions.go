package database

import (
	"context"
	"fmt"
	"sort"

	"token-settlement-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// GetTransactionHistory returns paginated transaction history for a user, newest first.
func (s *Service) GetTransactionHistory(ctx context.Context, userId string, limit, offset int) ([]models.Transaction, error) {
	zap.L().Debug("Getting transaction history",
		zap.String("user_id", userId),
		zap.Int("limit", limit),
		zap.Int("offset", offset))

	var transactions []models.Transaction
	err := s.db.SelectContext(ctx, &transactions, s.db.Rebind(queryGetTransactionHistory), userId, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction history: %w", err)
	}
	return transactions, nil
}

// GetFeeSummary aggregates collected fees per transaction type and currency.
func (s *Service) GetFeeSummary(ctx context.Context) ([]models.FeeTotal, error) {
	var rows []struct {
		Type     string          `db:"transaction_type"`
		Currency string          `db:"currency"`
		Fee      decimal.Decimal `db:"fee_amount"`
	}
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(queryListTransactionFees)); err != nil {
		return nil, fmt.Errorf("failed to list transaction fees: %w", err)
	}

	totals := make(map[string]*models.FeeTotal)
	for _, row := range rows {
		if !row.Fee.IsPositive() {
			continue
		}
		key := row.Type + "/" + row.Currency
		total, ok := totals[key]
		if !ok {
			total = &models.FeeTotal{Type: row.Type, Currency: row.Currency, Total: decimal.Zero}
			totals[key] = total
		}
		total.Total = total.Total.Add(row.Fee)
		total.Count++
	}

	summary := make([]models.FeeTotal, 0, len(totals))
	for _, total := range totals {
		summary = append(summary, *total)
	}
	sort.Slice(summary, func(i, j int) bool {
		if summary[i].Type != summary[j].Type {
			return summary[i].Type < summary[j].Type
		}
		return summary[i].Currency < summary[j].Currency
	})
	return summary, nil
}
