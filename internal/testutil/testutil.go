// Package testutil builds SQLite-backed fixtures for package tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"token-settlement-go/internal/database"
	"token-settlement-go/internal/models"
	"token-settlement-go/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const AdminUserId = "admin"

// NewStore opens a fresh SQLite database in a temporary directory.
func NewStore(t testing.TB) *database.Service {
	t.Helper()

	svc, err := database.NewService(context.Background(), models.DatabaseConfig{
		Driver:       database.DriverSQLite,
		Path:         filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns: 4,
		MaxIdleConns: 4,
		PingTimeout:  5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	return svc
}

// SeedSupply initializes the supply row and the fee-exempt admin wallet.
func SeedSupply(t testing.TB, svc store.LedgerStore, total, userUnlocked string) *models.TokenSupply {
	t.Helper()

	supply, err := svc.InitTokenSupply(context.Background(),
		decimal.RequireFromString(total), decimal.RequireFromString(userUnlocked))
	require.NoError(t, err)

	_, _, err = svc.CreateUser(context.Background(), store.CreateUserParams{
		UserId:    AdminUserId,
		Name:      "Treasury",
		Email:     "treasury@example.com",
		FeeExempt: true,
	})
	require.NoError(t, err)
	return supply
}

// CreateUser creates a user whose activation fee falls due after grace.
func CreateUser(t testing.TB, svc store.LedgerStore, userId string, grace time.Duration) *models.Wallet {
	t.Helper()

	_, wallet, err := svc.CreateUser(context.Background(), store.CreateUserParams{
		UserId:         userId,
		Name:           userId,
		Email:          userId + "@example.com",
		FeeGracePeriod: grace,
	})
	require.NoError(t, err)
	return wallet
}

// Fund credits usd and tokens directly, without a transaction record.
func Fund(t testing.TB, svc store.LedgerStore, userId, usd, tokens string) *models.Wallet {
	t.Helper()

	var wallet *models.Wallet
	err := svc.WithinTx(context.Background(), func(tx store.Tx) error {
		var err error
		wallet, err = tx.AdjustWallet(context.Background(), userId,
			decimal.RequireFromString(usd), decimal.RequireFromString(tokens))
		return err
	})
	require.NoError(t, err)
	return wallet
}

// Wallet reloads a wallet.
func Wallet(t testing.TB, svc store.LedgerStore, userId string) *models.Wallet {
	t.Helper()

	wallet, err := svc.GetWallet(context.Background(), userId)
	require.NoError(t, err)
	return wallet
}

// Supply reloads the supply row.
func Supply(t testing.TB, svc store.LedgerStore) *models.TokenSupply {
	t.Helper()

	supply, err := svc.GetTokenSupply(context.Background())
	require.NoError(t, err)
	return supply
}

// Dec parses a decimal literal.
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
