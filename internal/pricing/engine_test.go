package pricing

import (
	"context"
	"errors"
	"testing"

	"token-settlement-go/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCurrentPrice(t *testing.T) {
	tests := []struct {
		name      string
		total     string
		remaining string
		want      string
	}{
		{"full supply prices at base value", "1000000000", "1000000000", "0.0035"},
		{"half supply doubles the price", "1000000000", "500000000", "0.007"},
		{"quarter supply quadruples the price", "1000000000", "250000000", "0.014"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			price, err := CurrentPrice(DefaultBaseValue, d(tt.total), d(tt.remaining))
			require.NoError(t, err)
			assert.True(t, price.Equal(d(tt.want)), "Expected %s, got %s", tt.want, price)
		})
	}
}

func TestCurrentPriceZeroSupply(t *testing.T) {
	_, err := CurrentPrice(DefaultBaseValue, d("1000"), decimal.Zero)
	assert.True(t, errors.Is(err, ErrNoTradableSupply))
}

func TestPriceMonotonicInUserSupply(t *testing.T) {
	total := d("1000000000")
	previous, err := CurrentPrice(DefaultBaseValue, total, total)
	require.NoError(t, err)

	// Buying shrinks the tradable supply, which must raise the price every step.
	for remaining := total.Sub(d("1")); remaining.GreaterThan(d("999999990")); remaining = remaining.Sub(d("1")) {
		price, err := CurrentPrice(DefaultBaseValue, total, remaining)
		require.NoError(t, err)
		assert.True(t, price.GreaterThan(previous), "price %s at %s should exceed %s", price, remaining, previous)
		previous = price
	}

	// Selling grows it back, which must lower the price.
	low, err := CurrentPrice(DefaultBaseValue, total, d("600000000"))
	require.NoError(t, err)
	lower, err := CurrentPrice(DefaultBaseValue, total, d("600001000"))
	require.NoError(t, err)
	assert.True(t, lower.LessThan(low))
}

func TestNewEngineRejectsNonPositiveBase(t *testing.T) {
	_, err := NewEngine(decimal.Zero)
	assert.True(t, errors.Is(err, ErrInvalidBaseValue))
}

type stubSupply struct {
	supply *models.TokenSupply
	err    error
}

func (s stubSupply) GetTokenSupply(context.Context) (*models.TokenSupply, error) {
	return s.supply, s.err
}

func TestFeedQuote(t *testing.T) {
	engine, err := NewEngine(DefaultBaseValue)
	require.NoError(t, err)

	feed := NewFeed(engine, stubSupply{supply: &models.TokenSupply{
		TotalSupply:         d("1000"),
		RemainingSupply:     d("800"),
		UserSupplyRemaining: d("500"),
		AdminReserve:        d("300"),
	}})

	quote, err := feed.Quote(context.Background())
	require.NoError(t, err)
	assert.True(t, quote.Price.Equal(d("0.007")))
	assert.True(t, quote.UserSupplyRemaining.Equal(d("500")))

	feed = NewFeed(engine, stubSupply{err: errors.New("store down")})
	_, err = feed.CurrentPrice(context.Background())
	assert.Error(t, err)
}
