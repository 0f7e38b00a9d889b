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
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateReferral attributes referredId to referrerId. A user can only be
// referred once; the unique index on referred_id decides concurrent attempts.
func (s *Service) CreateReferral(ctx context.Context, referrerId, referredId string) (*models.Referral, error) {
	referral := &models.Referral{
		Id:         uuid.New().String(),
		ReferrerId: referrerId,
		ReferredId: referredId,
		CreatedAt:  s.now(),
	}
	_, err := s.db.ExecContext(ctx, s.db.Rebind(queryInsertReferral),
		referral.Id, referral.ReferrerId, referral.ReferredId, referral.CreatedAt)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("%w: %s", store.ErrDuplicateReferral, referredId)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to insert referral: %w", err)
	}

	zap.L().Info("Referral recorded",
		zap.String("referrer_id", referrerId),
		zap.String("referred_id", referredId))
	return referral, nil
}

// GetReferralByReferred returns store.ErrReferralNotFound when the user was not referred.
func (s *Service) GetReferralByReferred(ctx context.Context, referredId string) (*models.Referral, error) {
	var referral models.Referral
	if err := s.db.GetContext(ctx, &referral, s.db.Rebind(queryGetReferralByReferred), referredId); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrReferralNotFound, referredId)
		}
		return nil, fmt.Errorf("unable to query referral: %w", err)
	}
	return &referral, nil
}

func (s *Service) ListReferralsByReferrer(ctx context.Context, referrerId string) ([]models.Referral, error) {
	var referrals []models.Referral
	if err := s.db.SelectContext(ctx, &referrals, s.db.Rebind(queryListReferralsByReferrer), referrerId); err != nil {
		return nil, fmt.Errorf("unable to query referrals: %w", err)
	}
	return referrals, nil
}

// SumStakes totals the stakes userId made in [from, to].
func (s *Service) SumStakes(ctx context.Context, userId string, from, to time.Time) (decimal.Decimal, error) {
	var stakes []models.Stake
	if err := s.db.SelectContext(ctx, &stakes, s.db.Rebind(queryListStakes), userId); err != nil {
		return decimal.Zero, fmt.Errorf("unable to query stakes: %w", err)
	}

	total := decimal.Zero
	for _, stake := range stakes {
		if stake.CreatedAt.Before(from) || stake.CreatedAt.After(to) {
			continue
		}
		total = total.Add(stake.Amount)
	}
	return total, nil
}
