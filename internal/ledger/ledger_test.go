package ledger

import (
	"context"
	"testing"

	"token-settlement-go/internal/models"
	"token-settlement-go/internal/store"
	"token-settlement-go/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	seen []models.Transaction
}

func (o *recordingObserver) TransactionCommitted(_ context.Context, txn models.Transaction) {
	o.seen = append(o.seen, txn)
}

func TestDebitChecksBalance(t *testing.T) {
	svc := testutil.NewStore(t)
	testutil.SeedSupply(t, svc, "1000", "1000")
	testutil.CreateUser(t, svc, "alice", 0)
	testutil.Fund(t, svc, "alice", "5", "0")
	l := New(testutil.AdminUserId)
	ctx := context.Background()

	err := svc.WithinTx(ctx, func(tx store.Tx) error {
		_, err := l.Debit(ctx, tx, "alice", testutil.Dec("5.01"), models.CurrencyUSD)
		return err
	})
	require.ErrorIs(t, err, store.ErrInsufficientBalance)
	assert.Contains(t, err.Error(), "required 5.01")

	err = svc.WithinTx(ctx, func(tx store.Tx) error {
		_, err := l.Debit(ctx, tx, "alice", testutil.Dec("1"), "EUR")
		return err
	})
	assert.ErrorIs(t, err, ErrUnknownCurrency)

	err = svc.WithinTx(ctx, func(tx store.Tx) error {
		_, err := l.Debit(ctx, tx, "alice", decimal.Zero, models.CurrencyUSD)
		return err
	})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	assert.True(t, testutil.Wallet(t, svc, "alice").UsdBalance.Equal(testutil.Dec("5")))
}

func TestCreditAndCollectFee(t *testing.T) {
	svc := testutil.NewStore(t)
	testutil.SeedSupply(t, svc, "1000", "1000")
	testutil.CreateUser(t, svc, "alice", 0)
	l := New(testutil.AdminUserId)
	ctx := context.Background()

	err := svc.WithinTx(ctx, func(tx store.Tx) error {
		if _, err := l.Credit(ctx, tx, "alice", testutil.Dec("40"), models.CurrencyToken); err != nil {
			return err
		}
		if err := l.CollectFee(ctx, tx, testutil.Dec("0.25"), models.CurrencyUSD); err != nil {
			return err
		}
		return l.CollectFee(ctx, tx, decimal.Zero, models.CurrencyUSD)
	})
	require.NoError(t, err)

	assert.True(t, testutil.Wallet(t, svc, "alice").TokenBalance.Equal(testutil.Dec("40")))
	assert.True(t, testutil.Wallet(t, svc, testutil.AdminUserId).UsdBalance.Equal(testutil.Dec("0.25")))
}

func TestRecordTransactionRequiresBalancedBreakdown(t *testing.T) {
	svc := testutil.NewStore(t)
	testutil.CreateUser(t, svc, "alice", 0)
	l := New(testutil.AdminUserId)
	ctx := context.Background()

	err := svc.WithinTx(ctx, func(tx store.Tx) error {
		_, err := l.RecordTransaction(ctx, tx, store.TransactionParams{
			UserId:      "alice",
			Type:        models.TransactionTypeBuy,
			Currency:    models.CurrencyUSD,
			GrossAmount: testutil.Dec("100"),
			FeeAmount:   testutil.Dec("1"),
			NetAmount:   testutil.Dec("98"),
		})
		return err
	})
	assert.ErrorContains(t, err, "does not balance")
}

func TestCommittedNotifiesObservers(t *testing.T) {
	first := &recordingObserver{}
	second := &recordingObserver{}
	l := New(testutil.AdminUserId, first)
	l.AddObserver(second)

	txn := &models.Transaction{Id: "t1", Type: models.TransactionTypeSell}
	l.Committed(context.Background(), txn, nil)

	require.Len(t, first.seen, 1)
	require.Len(t, second.seen, 1)
	assert.Equal(t, "t1", first.seen[0].Id)
}

func TestRequireUnlocked(t *testing.T) {
	assert.NoError(t, RequireUnlocked(&models.Wallet{UserId: "alice"}))
	assert.ErrorIs(t, RequireUnlocked(&models.Wallet{UserId: "alice", WalletFeeLocked: true}), store.ErrWalletFeeLocked)
}
