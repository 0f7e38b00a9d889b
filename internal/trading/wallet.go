package trading

import (
	"context"
	"fmt"

	"token-settlement-go/internal/ledger"
	"token-settlement-go/internal/models"
	"token-settlement-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Deposit credits USD. A locked wallet whose new balance covers the activation
// fee pays it in the same unit of work, which lifts the lock.
func (s *Service) Deposit(ctx context.Context, userId string, usdAmount decimal.Decimal) (*models.SettlementResult, error) {
	if !usdAmount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	var (
		txn     *models.Transaction
		feeTxn  *models.Transaction
		updated *models.Wallet
	)
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		var err error
		if _, err = s.ledger.Credit(ctx, tx, userId, usdAmount, models.CurrencyUSD); err != nil {
			return err
		}
		txn, err = s.ledger.RecordTransaction(ctx, tx, store.TransactionParams{
			UserId:      userId,
			Type:        models.TransactionTypeDeposit,
			Currency:    models.CurrencyUSD,
			GrossAmount: usdAmount,
			FeeAmount:   decimal.Zero,
			NetAmount:   usdAmount,
		})
		if err != nil {
			return err
		}

		if feeTxn, err = s.billing.SettleLockedFee(ctx, tx, userId); err != nil {
			return err
		}
		updated, err = tx.GetWallet(ctx, userId)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.ledger.Committed(ctx, txn, feeTxn)
	return &models.SettlementResult{Success: true, Transaction: *txn, NewWallet: models.NewWalletView(updated)}, nil
}

// Withdraw debits usdAmount; the withdraw fee goes to the admin wallet and the
// net leaves the system.
func (s *Service) Withdraw(ctx context.Context, userId string, usdAmount decimal.Decimal) (*models.SettlementResult, error) {
	if !usdAmount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	var (
		txn     *models.Transaction
		updated *models.Wallet
	)
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		wallet, err := tx.GetWallet(ctx, userId)
		if err != nil {
			return err
		}
		if err := ledger.RequireUnlocked(wallet); err != nil {
			return err
		}

		breakdown, err := s.fees.Calculate(usdAmount, models.TransactionTypeWithdraw)
		if err != nil {
			return err
		}
		if updated, err = s.ledger.Debit(ctx, tx, userId, usdAmount, models.CurrencyUSD); err != nil {
			return err
		}
		if err := s.ledger.CollectFee(ctx, tx, breakdown.Fee, models.CurrencyUSD); err != nil {
			return err
		}
		txn, err = s.ledger.RecordTransaction(ctx, tx, store.TransactionParams{
			UserId:      userId,
			Type:        models.TransactionTypeWithdraw,
			Currency:    models.CurrencyUSD,
			GrossAmount: breakdown.Gross,
			FeeAmount:   breakdown.Fee,
			NetAmount:   breakdown.Net,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.ledger.Committed(ctx, txn)
	return &models.SettlementResult{Success: true, Transaction: *txn, NewWallet: models.NewWalletView(updated)}, nil
}

// Transfer moves tokens between users. The sender pays the transfer fee in tokens.
func (s *Service) Transfer(ctx context.Context, fromUserId, toUserId string, tokenAmount decimal.Decimal) (*models.SettlementResult, error) {
	if fromUserId == toUserId {
		return nil, ErrSelfTransfer
	}
	if !tokenAmount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	var (
		txn     *models.Transaction
		updated *models.Wallet
	)
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		sender, err := tx.GetWallet(ctx, fromUserId)
		if err != nil {
			return err
		}
		if err := ledger.RequireUnlocked(sender); err != nil {
			return err
		}
		if _, err := tx.GetWallet(ctx, toUserId); err != nil {
			return err
		}

		breakdown, err := s.fees.Calculate(tokenAmount, models.TransactionTypeTransfer)
		if err != nil {
			return err
		}
		if updated, err = s.ledger.Debit(ctx, tx, fromUserId, tokenAmount, models.CurrencyToken); err != nil {
			return err
		}
		if _, err := s.ledger.Credit(ctx, tx, toUserId, breakdown.Net, models.CurrencyToken); err != nil {
			return err
		}
		if err := s.ledger.CollectFee(ctx, tx, breakdown.Fee, models.CurrencyToken); err != nil {
			return err
		}
		txn, err = s.ledger.RecordTransaction(ctx, tx, store.TransactionParams{
			UserId:      fromUserId,
			Type:        models.TransactionTypeTransfer,
			Currency:    models.CurrencyToken,
			GrossAmount: breakdown.Gross,
			FeeAmount:   breakdown.Fee,
			NetAmount:   breakdown.Net,
			Reference:   toUserId,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.ledger.Committed(ctx, txn)
	return &models.SettlementResult{Success: true, Transaction: *txn, NewWallet: models.NewWalletView(updated)}, nil
}

// Stake locks tokens for yield and re-evaluates the staker's referrer waiver.
func (s *Service) Stake(ctx context.Context, userId string, tokenAmount decimal.Decimal) (*models.SettlementResult, error) {
	if !tokenAmount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	var (
		txn     *models.Transaction
		updated *models.Wallet
	)
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		wallet, err := tx.GetWallet(ctx, userId)
		if err != nil {
			return err
		}
		if err := ledger.RequireUnlocked(wallet); err != nil {
			return err
		}

		if updated, err = s.ledger.Debit(ctx, tx, userId, tokenAmount, models.CurrencyToken); err != nil {
			return err
		}
		stake, err := tx.InsertStake(ctx, userId, tokenAmount)
		if err != nil {
			return err
		}
		txn, err = s.ledger.RecordTransaction(ctx, tx, store.TransactionParams{
			UserId:      userId,
			Type:        models.TransactionTypeStake,
			Currency:    models.CurrencyToken,
			GrossAmount: tokenAmount,
			FeeAmount:   decimal.Zero,
			NetAmount:   tokenAmount,
			Reference:   stake.Id,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.ledger.Committed(ctx, txn)
	if err := s.billing.StakeRecorded(ctx, userId); err != nil {
		zap.L().Error("Failed to evaluate referral waiver after stake", zap.String("user_id", userId), zap.Error(err))
	}
	return &models.SettlementResult{Success: true, Transaction: *txn, NewWallet: models.NewWalletView(updated)}, nil
}

// Wallet returns the user's wallet.
func (s *Service) Wallet(ctx context.Context, userId string) (*models.Wallet, error) {
	wallet, err := s.store.GetWallet(ctx, userId)
	if err != nil {
		return nil, fmt.Errorf("unable to load wallet: %w", err)
	}
	return wallet, nil
}
