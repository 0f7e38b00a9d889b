// Package trading settles user-initiated requests synchronously: buy, sell,
// deposit, withdraw, transfer, stake and limit order placement. Every
// settlement touches wallets, supply and the transaction log in one unit of work.
package trading

import (
	"context"
	"errors"
	"fmt"

	"token-settlement-go/internal/billing"
	"token-settlement-go/internal/fees"
	"token-settlement-go/internal/ledger"
	"token-settlement-go/internal/models"
	"token-settlement-go/internal/pricing"
	"token-settlement-go/internal/store"
	"token-settlement-go/internal/supply"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Tokens received for a USD amount are rounded to this scale.
const TokenScale = 8

var (
	ErrInvalidAmount     = errors.New("amount must be greater than zero")
	ErrInvalidLimitPrice = errors.New("limit price must be greater than zero")
	ErrInvalidOrderType  = errors.New("order type must be BUY or SELL")
	ErrSelfTransfer      = errors.New("cannot transfer to yourself")
	ErrOrderNotOwned     = errors.New("order belongs to another user")
)

type Service struct {
	store   store.LedgerStore
	engine  *pricing.Engine
	fees    fees.Calculator
	supply  *supply.Adjuster
	ledger  *ledger.Ledger
	billing *billing.Service
}

func NewService(ledgerStore store.LedgerStore, engine *pricing.Engine, adjuster *supply.Adjuster, l *ledger.Ledger, billingService *billing.Service) *Service {
	return &Service{
		store:   ledgerStore,
		engine:  engine,
		supply:  adjuster,
		ledger:  l,
		billing: billingService,
	}
}

// Buy spends usdAmount on tokens at the current price. The buy fee is taken
// from usdAmount and the remainder is converted.
func (s *Service) Buy(ctx context.Context, userId string, usdAmount decimal.Decimal) (*models.TradeResult, error) {
	if !usdAmount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	var (
		result models.TradeResult
		txn    *models.Transaction
	)
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		wallet, err := tx.GetWallet(ctx, userId)
		if err != nil {
			return err
		}
		if err := ledger.RequireUnlocked(wallet); err != nil {
			return err
		}

		before, err := tx.GetTokenSupply(ctx)
		if err != nil {
			return err
		}
		price, err := s.engine.PriceOf(before)
		if err != nil {
			return err
		}

		breakdown, err := s.fees.Calculate(usdAmount, models.TransactionTypeBuy)
		if err != nil {
			return err
		}
		tokens := breakdown.Net.DivRound(price, TokenScale)
		if !tokens.IsPositive() {
			return fmt.Errorf("%w: %s USD buys no tokens at %s", ErrInvalidAmount, usdAmount, price)
		}
		if wallet.UsdBalance.LessThan(usdAmount) {
			return &store.InsufficientBalanceError{Currency: models.CurrencyUSD, Available: wallet.UsdBalance, Required: usdAmount}
		}

		// Supply is checked before any wallet is touched.
		after, err := s.supply.Deduct(ctx, tx, tokens)
		if err != nil {
			return err
		}
		if _, err := s.ledger.Debit(ctx, tx, userId, usdAmount, models.CurrencyUSD); err != nil {
			return err
		}
		updated, err := s.ledger.Credit(ctx, tx, userId, tokens, models.CurrencyToken)
		if err != nil {
			return err
		}
		if err := s.ledger.CollectFee(ctx, tx, breakdown.Fee, models.CurrencyUSD); err != nil {
			return err
		}
		txn, err = s.ledger.RecordTransaction(ctx, tx, store.TransactionParams{
			UserId:        userId,
			Type:          models.TransactionTypeBuy,
			Currency:      models.CurrencyUSD,
			GrossAmount:   breakdown.Gross,
			FeeAmount:     breakdown.Fee,
			NetAmount:     breakdown.Net,
			CounterAmount: tokens,
			Price:         price,
		})
		if err != nil {
			return err
		}

		newPrice, err := s.engine.PriceOf(after)
		if err != nil {
			return err
		}
		result = models.TradeResult{
			Success: true,
			Transaction: models.TradeReceipt{
				Id:             txn.Id,
				Type:           txn.Type,
				GrossAmount:    breakdown.Gross,
				Fee:            breakdown.Fee,
				NetAmount:      breakdown.Net,
				TokensReceived: &tokens,
				PricePerToken:  price,
			},
			NewWallet:   models.NewWalletView(updated),
			PriceUpdate: models.PriceUpdate{OldPrice: price, NewPrice: newPrice},
		}
		return nil
	})
	if err != nil {
		zap.L().Warn("Buy rejected", zap.String("user_id", userId), zap.String("usd_amount", usdAmount.String()), zap.Error(err))
		return nil, err
	}

	s.ledger.Committed(ctx, txn)
	return &result, nil
}

// Sell converts tokenAmount to USD at the current price, net of the sell fee.
func (s *Service) Sell(ctx context.Context, userId string, tokenAmount decimal.Decimal) (*models.TradeResult, error) {
	if !tokenAmount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	var (
		result models.TradeResult
		txn    *models.Transaction
	)
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		wallet, err := tx.GetWallet(ctx, userId)
		if err != nil {
			return err
		}
		if err := ledger.RequireUnlocked(wallet); err != nil {
			return err
		}

		before, err := tx.GetTokenSupply(ctx)
		if err != nil {
			return err
		}
		price, err := s.engine.PriceOf(before)
		if err != nil {
			return err
		}

		grossUsd := tokenAmount.Mul(price)
		breakdown, err := s.fees.Calculate(grossUsd, models.TransactionTypeSell)
		if err != nil {
			return err
		}

		if _, err := s.ledger.Debit(ctx, tx, userId, tokenAmount, models.CurrencyToken); err != nil {
			return err
		}
		after, err := s.supply.Add(ctx, tx, tokenAmount)
		if err != nil {
			return err
		}
		updated, err := s.ledger.Credit(ctx, tx, userId, breakdown.Net, models.CurrencyUSD)
		if err != nil {
			return err
		}
		if err := s.ledger.CollectFee(ctx, tx, breakdown.Fee, models.CurrencyUSD); err != nil {
			return err
		}
		txn, err = s.ledger.RecordTransaction(ctx, tx, store.TransactionParams{
			UserId:        userId,
			Type:          models.TransactionTypeSell,
			Currency:      models.CurrencyUSD,
			GrossAmount:   breakdown.Gross,
			FeeAmount:     breakdown.Fee,
			NetAmount:     breakdown.Net,
			CounterAmount: tokenAmount,
			Price:         price,
		})
		if err != nil {
			return err
		}

		newPrice, err := s.engine.PriceOf(after)
		if err != nil {
			return err
		}
		usdReceived := breakdown.Net
		result = models.TradeResult{
			Success: true,
			Transaction: models.TradeReceipt{
				Id:            txn.Id,
				Type:          txn.Type,
				GrossAmount:   breakdown.Gross,
				Fee:           breakdown.Fee,
				NetAmount:     breakdown.Net,
				UsdReceived:   &usdReceived,
				PricePerToken: price,
			},
			NewWallet:   models.NewWalletView(updated),
			PriceUpdate: models.PriceUpdate{OldPrice: price, NewPrice: newPrice},
		}
		return nil
	})
	if err != nil {
		zap.L().Warn("Sell rejected", zap.String("user_id", userId), zap.String("token_amount", tokenAmount.String()), zap.Error(err))
		return nil, err
	}

	s.ledger.Committed(ctx, txn)
	return &result, nil
}
