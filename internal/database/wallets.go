package database

import (
	"context"
	"fmt"
	"time"

	"token-settlement-go/internal/models"

	"go.uber.org/zap"
)

func (s *Service) GetWallet(ctx context.Context, userId string) (*models.Wallet, error) {
	return getWallet(ctx, s.db, userId)
}

func (s *Service) ListWallets(ctx context.Context) ([]models.Wallet, error) {
	var wallets []models.Wallet
	if err := s.db.SelectContext(ctx, &wallets, s.db.Rebind(queryListWallets)); err != nil {
		return nil, fmt.Errorf("unable to list wallets: %w", err)
	}
	return wallets, nil
}

// ListDueWalletFees returns unprocessed, unlocked wallets whose fee is due at or before now.
func (s *Service) ListDueWalletFees(ctx context.Context, now time.Time) ([]models.Wallet, error) {
	var wallets []models.Wallet
	err := s.db.SelectContext(ctx, &wallets, s.db.Rebind(queryListDueWalletFees), false, false, now.UTC())
	if err != nil {
		zap.L().Error("Failed to query due wallet fees", zap.Error(err))
		return nil, fmt.Errorf("unable to query due wallet fees: %w", err)
	}

	// Timestamps compare as text in SQLite; keep only rows that are really due.
	due := wallets[:0]
	for _, w := range wallets {
		if w.WalletFeeDueAt != nil && !w.WalletFeeDueAt.After(now) {
			due = append(due, w)
		}
	}
	return due, nil
}
