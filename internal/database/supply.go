package database

import (
	"context"
	"fmt"

	"token-settlement-go/internal/models"
	"token-settlement-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func (s *Service) GetTokenSupply(ctx context.Context) (*models.TokenSupply, error) {
	return getTokenSupply(ctx, s.db)
}

// InitTokenSupply seeds the singleton supply row. Tokens not unlocked for users
// start in the admin reserve. An existing row is left untouched and returned.
func (s *Service) InitTokenSupply(ctx context.Context, total, userUnlocked decimal.Decimal) (*models.TokenSupply, error) {
	supply := models.TokenSupply{
		TotalSupply:         total,
		RemainingSupply:     total,
		UserSupplyRemaining: userUnlocked,
		AdminReserve:        total.Sub(userUnlocked),
	}
	if !supply.Valid() {
		return nil, fmt.Errorf("%w: unlocked %s exceeds total %s", store.ErrSupplyInvariant, userUnlocked, total)
	}

	result, err := s.db.ExecContext(ctx, s.db.Rebind(queryInsertTokenSupply),
		supply.TotalSupply.String(), supply.RemainingSupply.String(),
		supply.UserSupplyRemaining.String(), supply.AdminReserve.String(), s.now())
	if err != nil {
		return nil, fmt.Errorf("unable to initialize token supply: %w", err)
	}

	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		zap.L().Info("Token supply already initialized, keeping existing counters")
	} else {
		zap.L().Info("Token supply initialized",
			zap.String("total_supply", total.String()),
			zap.String("user_supply_remaining", userUnlocked.String()))
	}

	return getTokenSupply(ctx, s.db)
}
