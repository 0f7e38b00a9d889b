package pricing

import (
	"context"
	"errors"
	"fmt"

	"token-settlement-go/internal/models"

	"github.com/shopspring/decimal"
)

// Scale of computed prices.
const PriceScale = 18

var (
	DefaultBaseValue = decimal.RequireFromString("0.0035")

	ErrNoTradableSupply = errors.New("no tradable supply remaining")
	ErrInvalidBaseValue = errors.New("base value must be positive")
)

// CurrentPrice returns baseValue * totalSupply / userSupplyRemaining.
func CurrentPrice(baseValue, totalSupply, userSupplyRemaining decimal.Decimal) (decimal.Decimal, error) {
	if !userSupplyRemaining.IsPositive() {
		return decimal.Zero, ErrNoTradableSupply
	}
	return baseValue.Mul(totalSupply).DivRound(userSupplyRemaining, PriceScale), nil
}

// Engine prices tokens from the supply counters for a fixed base value.
type Engine struct {
	baseValue decimal.Decimal
}

func NewEngine(baseValue decimal.Decimal) (*Engine, error) {
	if !baseValue.IsPositive() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidBaseValue, baseValue)
	}
	return &Engine{baseValue: baseValue}, nil
}

func (e *Engine) BaseValue() decimal.Decimal {
	return e.baseValue
}

// PriceOf prices the given supply snapshot.
func (e *Engine) PriceOf(supply *models.TokenSupply) (decimal.Decimal, error) {
	return CurrentPrice(e.baseValue, supply.TotalSupply, supply.UserSupplyRemaining)
}

// SupplyReader is the part of the ledger store the feed needs.
type SupplyReader interface {
	GetTokenSupply(ctx context.Context) (*models.TokenSupply, error)
}

// Feed prices the latest committed supply.
type Feed struct {
	engine *Engine
	supply SupplyReader
}

func NewFeed(engine *Engine, supply SupplyReader) *Feed {
	return &Feed{engine: engine, supply: supply}
}

func (f *Feed) Engine() *Engine {
	return f.engine
}

func (f *Feed) CurrentPrice(ctx context.Context) (decimal.Decimal, error) {
	quote, err := f.Quote(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return quote.Price, nil
}

// Quote returns the current price together with the counters it was derived from.
func (f *Feed) Quote(ctx context.Context) (*models.PriceQuote, error) {
	supply, err := f.supply.GetTokenSupply(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read token supply: %w", err)
	}
	price, err := f.engine.PriceOf(supply)
	if err != nil {
		return nil, err
	}
	return &models.PriceQuote{
		Price:               price,
		BaseValue:           f.engine.baseValue,
		TotalSupply:         supply.TotalSupply,
		RemainingSupply:     supply.RemainingSupply,
		UserSupplyRemaining: supply.UserSupplyRemaining,
		AdminReserve:        supply.AdminReserve,
	}, nil
}
