// Package billing runs the deferred wallet activation fee. Each wallet fee is
// scheduled at signup, then either waived through referral staking or charged
// once it falls due. wallet_fee_processed is a latch: whichever path flips it
// first decides the outcome and the other becomes a no-op.
package billing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"token-settlement-go/internal/fees"
	"token-settlement-go/internal/ledger"
	"token-settlement-go/internal/models"
	"token-settlement-go/internal/store"

	"go.uber.org/zap"
)

var (
	ErrSelfReferral       = errors.New("a user cannot refer themselves")
	ErrFeeSweepInProgress = errors.New("wallet fee sweep already running")

	errFeeAlreadyProcessed = errors.New("wallet fee already processed")
)

// Outcomes of a single fee charge attempt.
const (
	OutcomeCharged = "charged"
	OutcomeLocked  = "locked"
	OutcomeSkipped = "skipped"
	OutcomeWaived  = "waived"
	OutcomeError   = "error"
)

// Recorder receives billing outcomes. *metrics.Metrics satisfies it.
type Recorder interface {
	WalletFeeOutcome(outcome string)
	FeeSweepCompleted(result *models.FeeSweepResult, err error)
}

type Service struct {
	store    store.LedgerStore
	ledger   *ledger.Ledger
	fees     fees.Calculator
	cfg      models.BillingConfig
	recorder Recorder
	now      func() time.Time

	running sync.Mutex
}

func NewService(ledgerStore store.LedgerStore, l *ledger.Ledger, cfg models.BillingConfig, recorder Recorder) *Service {
	return &Service{
		store:    ledgerStore,
		ledger:   l,
		cfg:      cfg,
		recorder: recorder,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// RegisterUser creates a user with a wallet whose activation fee falls due
// after the grace period.
func (s *Service) RegisterUser(ctx context.Context, userId, name, email string) (*models.User, *models.Wallet, error) {
	return s.store.CreateUser(ctx, store.CreateUserParams{
		UserId:         userId,
		Name:           name,
		Email:          email,
		FeeGracePeriod: s.cfg.GracePeriod,
	})
}

// CreateReferral records the referral and immediately evaluates the waiver
// for the referrer, since the referred user may already have staked.
func (s *Service) CreateReferral(ctx context.Context, referrerId, referredId string) (*models.Referral, error) {
	if referrerId == referredId {
		return nil, ErrSelfReferral
	}
	for _, id := range []string{referrerId, referredId} {
		if _, err := s.store.GetUserById(ctx, id); err != nil {
			return nil, err
		}
	}

	referral, err := s.store.CreateReferral(ctx, referrerId, referredId)
	if err != nil {
		return nil, err
	}

	if _, err := s.EvaluateWaiver(ctx, referrerId); err != nil {
		zap.L().Error("Failed to evaluate wallet fee waiver after referral",
			zap.String("referrer_id", referrerId), zap.Error(err))
	}
	return referral, nil
}

// StakeRecorded re-evaluates the waiver of whoever referred userId.
func (s *Service) StakeRecorded(ctx context.Context, userId string) error {
	referral, err := s.store.GetReferralByReferred(ctx, userId)
	if errors.Is(err, store.ErrReferralNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	_, err = s.EvaluateWaiver(ctx, referral.ReferrerId)
	return err
}

// EvaluateWaiver waives the referrer's fee when any referred user staked at
// least the threshold within the referral window. It reports whether this call
// waived the fee.
func (s *Service) EvaluateWaiver(ctx context.Context, referrerId string) (bool, error) {
	wallet, err := s.store.GetWallet(ctx, referrerId)
	if err != nil {
		return false, err
	}
	if wallet.WalletFeeProcessed {
		return false, nil
	}

	qualified, err := s.hasQualifyingReferral(ctx, referrerId)
	if err != nil || !qualified {
		return false, err
	}

	var waived bool
	err = s.store.WithinTx(ctx, func(tx store.Tx) error {
		var err error
		waived, err = tx.ResolveWalletFee(ctx, referrerId, true)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("failed to waive wallet fee: %w", err)
	}

	if waived {
		s.outcome(OutcomeWaived)
		zap.L().Info("Wallet fee waived through referral", zap.String("user_id", referrerId))
	} else {
		zap.L().Debug("Wallet fee already processed, waiver ignored", zap.String("user_id", referrerId))
	}
	return waived, nil
}

func (s *Service) hasQualifyingReferral(ctx context.Context, referrerId string) (bool, error) {
	referrals, err := s.store.ListReferralsByReferrer(ctx, referrerId)
	if err != nil {
		return false, err
	}
	for _, referral := range referrals {
		staked, err := s.store.SumStakes(ctx, referral.ReferredId, referral.CreatedAt, referral.CreatedAt.Add(s.cfg.ReferralWindow))
		if err != nil {
			return false, err
		}
		if staked.GreaterThanOrEqual(s.cfg.ReferralStakeThreshold) {
			return true, nil
		}
	}
	return false, nil
}

// ChargeDueFees is the periodic charge sweep over every wallet whose fee fell due.
func (s *Service) ChargeDueFees(ctx context.Context) (*models.FeeSweepResult, error) {
	if !s.running.TryLock() {
		return nil, ErrFeeSweepInProgress
	}
	defer s.running.Unlock()

	start := time.Now()
	result := &models.FeeSweepResult{}

	wallets, err := s.store.ListDueWalletFees(ctx, s.now())
	if err != nil {
		s.sweepDone(nil, err)
		return nil, err
	}

	zap.L().Info("Charging due wallet fees", zap.Int("due", len(wallets)))

	for _, wallet := range wallets {
		if ctx.Err() != nil {
			break
		}
		outcome, err := s.chargeOne(ctx, wallet.UserId)
		if err != nil {
			zap.L().Error("Failed to charge wallet fee", zap.String("user_id", wallet.UserId), zap.Error(err))
			outcome = OutcomeError
		}
		s.outcome(outcome)

		switch outcome {
		case OutcomeCharged:
			result.ChargedCount++
		case OutcomeLocked:
			result.LockedCount++
		case OutcomeSkipped:
			result.SkippedCount++
		default:
			result.ErrorCount++
		}
	}

	result.Success = ctx.Err() == nil
	result.ExecutionTimeMs = time.Since(start).Milliseconds()
	result.Timestamp = s.now()

	zap.L().Info("Wallet fee sweep completed",
		zap.Int("charged", result.ChargedCount),
		zap.Int("locked", result.LockedCount),
		zap.Int("skipped", result.SkippedCount),
		zap.Int("errors", result.ErrorCount),
		zap.Int64("execution_time_ms", result.ExecutionTimeMs))

	s.sweepDone(result, ctx.Err())
	return result, ctx.Err()
}

func (s *Service) chargeOne(ctx context.Context, userId string) (string, error) {
	var outcome string
	var charged *models.Transaction

	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		charged = nil
		wallet, err := tx.GetWallet(ctx, userId)
		if err != nil {
			return err
		}
		if wallet.WalletFeeProcessed || wallet.WalletFeeLocked {
			outcome = OutcomeSkipped
			return nil
		}

		if wallet.UsdBalance.LessThan(fees.WalletActivationFee) {
			locked, err := tx.LockWalletFee(ctx, userId)
			if err != nil {
				return err
			}
			outcome = OutcomeSkipped
			if locked {
				outcome = OutcomeLocked
			}
			return nil
		}

		charged, err = s.charge(ctx, tx, userId)
		if errors.Is(err, errFeeAlreadyProcessed) {
			outcome = OutcomeSkipped
			return err
		}
		outcome = OutcomeCharged
		return err
	})
	if errors.Is(err, errFeeAlreadyProcessed) {
		return OutcomeSkipped, nil
	}
	if err != nil {
		return OutcomeError, err
	}

	if outcome == OutcomeLocked {
		zap.L().Warn("Wallet locked until activation fee is paid", zap.String("user_id", userId))
	}
	s.ledger.Committed(ctx, charged)
	return outcome, nil
}

// charge latches the fee as charged and moves it to the admin wallet.
func (s *Service) charge(ctx context.Context, tx store.Tx, userId string) (*models.Transaction, error) {
	won, err := tx.ResolveWalletFee(ctx, userId, false)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, errFeeAlreadyProcessed
	}

	breakdown, err := s.fees.Calculate(fees.WalletActivationFee, models.TransactionTypeWalletActivation)
	if err != nil {
		return nil, err
	}
	if _, err := s.ledger.Debit(ctx, tx, userId, breakdown.Gross, models.CurrencyUSD); err != nil {
		return nil, err
	}
	if err := s.ledger.CollectFee(ctx, tx, breakdown.Fee, models.CurrencyUSD); err != nil {
		return nil, err
	}
	return s.ledger.RecordTransaction(ctx, tx, store.TransactionParams{
		UserId:      userId,
		Type:        models.TransactionTypeWalletActivation,
		Currency:    models.CurrencyUSD,
		GrossAmount: breakdown.Gross,
		FeeAmount:   breakdown.Fee,
		NetAmount:   breakdown.Net,
	})
}

// SettleLockedFee charges a locked wallet's fee inside the caller's unit of
// work once its balance covers it. It returns the fee transaction, or nil when
// nothing was charged.
func (s *Service) SettleLockedFee(ctx context.Context, tx store.Tx, userId string) (*models.Transaction, error) {
	wallet, err := tx.GetWallet(ctx, userId)
	if err != nil {
		return nil, err
	}
	if !wallet.WalletFeeLocked || wallet.WalletFeeProcessed {
		return nil, nil
	}
	if wallet.UsdBalance.LessThan(fees.WalletActivationFee) {
		return nil, nil
	}

	txn, err := s.charge(ctx, tx, userId)
	if errors.Is(err, errFeeAlreadyProcessed) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.outcome(OutcomeCharged)
	zap.L().Info("Locked wallet fee settled by deposit", zap.String("user_id", userId))
	return txn, nil
}

// Status answers the wallet fee status query.
func (s *Service) Status(ctx context.Context, userId string) (*models.WalletFeeStatus, error) {
	wallet, err := s.store.GetWallet(ctx, userId)
	if err != nil {
		return nil, err
	}
	return FeeStatus(wallet, s.now()), nil
}

// FeeStatus derives the fee status of a wallet at now. daysRemaining counts
// started days until the due date and is zero once due or resolved.
func FeeStatus(wallet *models.Wallet, now time.Time) *models.WalletFeeStatus {
	status := &models.WalletFeeStatus{
		WalletFeeProcessed: wallet.WalletFeeProcessed,
		WalletFeeWaived:    wallet.WalletFeeWaived,
		WalletFeeLocked:    wallet.WalletFeeLocked,
		WalletFeeDueAt:     wallet.WalletFeeDueAt,
		IsPending:          !wallet.WalletFeeProcessed && wallet.WalletFeeDueAt != nil,
	}
	if status.IsPending && wallet.WalletFeeDueAt.After(now) {
		remaining := wallet.WalletFeeDueAt.Sub(now).Hours() / 24
		status.DaysRemaining = int(math.Ceil(remaining))
	}
	return status
}

func (s *Service) outcome(outcome string) {
	if s.recorder != nil {
		s.recorder.WalletFeeOutcome(outcome)
	}
}

func (s *Service) sweepDone(result *models.FeeSweepResult, err error) {
	if s.recorder != nil {
		s.recorder.FeeSweepCompleted(result, err)
	}
}
