package billing

import (
	"context"
	"sync"
	"testing"
	"time"

	"token-settlement-go/internal/database"
	"token-settlement-go/internal/ledger"
	"token-settlement-go/internal/models"
	"token-settlement-go/internal/store"
	"token-settlement-go/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	day   = 24 * time.Hour
	grace = 30 * day
)

func newTestService(t *testing.T) (*Service, *database.Service) {
	t.Helper()

	svc := testutil.NewStore(t)
	testutil.SeedSupply(t, svc, "1000000", "1000000")
	billing := NewService(svc, ledger.New(testutil.AdminUserId), models.BillingConfig{
		GracePeriod:            grace,
		ReferralWindow:         30 * day,
		ReferralStakeThreshold: testutil.Dec("100"),
	}, nil)
	return billing, svc
}

// afterGrace moves the service clock past every fee scheduled so far.
func afterGrace(s *Service) {
	s.now = func() time.Time { return time.Now().UTC().Add(grace + day) }
}

func stake(t *testing.T, svc *database.Service, userId, amount string) {
	t.Helper()
	err := svc.WithinTx(context.Background(), func(tx store.Tx) error {
		_, err := tx.InsertStake(context.Background(), userId, testutil.Dec(amount))
		return err
	})
	require.NoError(t, err)
}

func TestRegisterUserSchedulesFee(t *testing.T) {
	s, _ := newTestService(t)

	_, wallet, err := s.RegisterUser(context.Background(), "alice", "Alice", "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, wallet.WalletFeeDueAt)
	assert.WithinDuration(t, time.Now().Add(grace), *wallet.WalletFeeDueAt, time.Minute)
	assert.False(t, wallet.WalletFeeProcessed)
}

func TestChargeDueFeesChargesOnce(t *testing.T) {
	s, svc := newTestService(t)
	ctx := context.Background()
	testutil.CreateUser(t, svc, "alice", grace)
	testutil.Fund(t, svc, "alice", "10", "0")

	s.now = func() time.Time { return time.Now().UTC() }
	result, err := s.ChargeDueFees(ctx)
	require.NoError(t, err)
	assert.Zero(t, result.ChargedCount, "fee charged before it was due")

	afterGrace(s)
	result, err = s.ChargeDueFees(ctx)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.ChargedCount)

	wallet := testutil.Wallet(t, svc, "alice")
	assert.True(t, wallet.UsdBalance.Equal(testutil.Dec("8")))
	assert.True(t, wallet.WalletFeeProcessed)
	assert.False(t, wallet.WalletFeeWaived)
	assert.True(t, testutil.Wallet(t, svc, testutil.AdminUserId).UsdBalance.Equal(testutil.Dec("2")))

	history, err := svc.GetTransactionHistory(ctx, "alice", 10, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.TransactionTypeWalletActivation, history[0].Type)
	assert.True(t, history[0].FeeAmount.Equal(testutil.Dec("2")))

	result, err = s.ChargeDueFees(ctx)
	require.NoError(t, err)
	assert.Zero(t, result.ChargedCount)
	wallet = testutil.Wallet(t, svc, "alice")
	assert.True(t, wallet.UsdBalance.Equal(testutil.Dec("8")), "second sweep debited again")
	assert.False(t, wallet.WalletFeeWaived)
}

func TestChargeDueFeesLocksUnderfundedWallet(t *testing.T) {
	s, svc := newTestService(t)
	ctx := context.Background()
	testutil.CreateUser(t, svc, "bob", grace)
	testutil.Fund(t, svc, "bob", "1.50", "0")

	afterGrace(s)
	result, err := s.ChargeDueFees(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.LockedCount)

	wallet := testutil.Wallet(t, svc, "bob")
	assert.True(t, wallet.WalletFeeLocked)
	assert.False(t, wallet.WalletFeeProcessed)
	assert.True(t, wallet.UsdBalance.Equal(testutil.Dec("1.50")))

	result, err = s.ChargeDueFees(ctx)
	require.NoError(t, err)
	assert.Zero(t, result.LockedCount+result.ChargedCount, "locked wallet swept again")

	testutil.Fund(t, svc, "bob", "5", "0")
	var settled *models.Transaction
	err = svc.WithinTx(ctx, func(tx store.Tx) error {
		var err error
		settled, err = s.SettleLockedFee(ctx, tx, "bob")
		return err
	})
	require.NoError(t, err)
	require.NotNil(t, settled)

	wallet = testutil.Wallet(t, svc, "bob")
	assert.False(t, wallet.WalletFeeLocked)
	assert.True(t, wallet.WalletFeeProcessed)
	assert.True(t, wallet.UsdBalance.Equal(testutil.Dec("4.50")))
}

func TestSettleLockedFeeIgnoresUnlockedWallets(t *testing.T) {
	s, svc := newTestService(t)
	ctx := context.Background()
	testutil.CreateUser(t, svc, "carol", grace)
	testutil.Fund(t, svc, "carol", "50", "0")

	err := svc.WithinTx(ctx, func(tx store.Tx) error {
		txn, err := s.SettleLockedFee(ctx, tx, "carol")
		assert.Nil(t, txn)
		return err
	})
	require.NoError(t, err)
	assert.True(t, testutil.Wallet(t, svc, "carol").UsdBalance.Equal(testutil.Dec("50")))
}

func TestReferralStakeWaivesFee(t *testing.T) {
	s, svc := newTestService(t)
	ctx := context.Background()
	testutil.CreateUser(t, svc, "referrer", grace)
	testutil.CreateUser(t, svc, "referred", grace)
	testutil.Fund(t, svc, "referrer", "10", "0")

	_, err := s.CreateReferral(ctx, "referrer", "referred")
	require.NoError(t, err)
	assert.False(t, testutil.Wallet(t, svc, "referrer").WalletFeeProcessed, "waived before any stake")

	stake(t, svc, "referred", "60")
	require.NoError(t, s.StakeRecorded(ctx, "referred"))
	assert.False(t, testutil.Wallet(t, svc, "referrer").WalletFeeProcessed, "waived below threshold")

	stake(t, svc, "referred", "40")
	require.NoError(t, s.StakeRecorded(ctx, "referred"))

	wallet := testutil.Wallet(t, svc, "referrer")
	assert.True(t, wallet.WalletFeeProcessed)
	assert.True(t, wallet.WalletFeeWaived)

	afterGrace(s)
	result, err := s.ChargeDueFees(ctx)
	require.NoError(t, err)
	assert.Zero(t, result.ChargedCount)
	assert.True(t, testutil.Wallet(t, svc, "referrer").UsdBalance.Equal(testutil.Dec("10")))

	waived, err := s.EvaluateWaiver(ctx, "referrer")
	require.NoError(t, err)
	assert.False(t, waived, "waiver applied twice")
}

func TestStakeWithoutReferralIsNoop(t *testing.T) {
	s, svc := newTestService(t)
	testutil.CreateUser(t, svc, "solo", grace)

	assert.NoError(t, s.StakeRecorded(context.Background(), "solo"))
}

func TestCreateReferralValidation(t *testing.T) {
	s, svc := newTestService(t)
	ctx := context.Background()
	testutil.CreateUser(t, svc, "alice", grace)

	_, err := s.CreateReferral(ctx, "alice", "alice")
	assert.ErrorIs(t, err, ErrSelfReferral)

	_, err = s.CreateReferral(ctx, "alice", "ghost")
	assert.ErrorIs(t, err, store.ErrUserNotFound)
}

func TestWaiverAndChargeRaceResolvesOnce(t *testing.T) {
	s, svc := newTestService(t)
	ctx := context.Background()

	referrers := []string{"r1", "r2", "r3", "r4", "r5"}
	for _, id := range referrers {
		referred := id + "-friend"
		testutil.CreateUser(t, svc, id, grace)
		testutil.CreateUser(t, svc, referred, grace)
		testutil.Fund(t, svc, id, "10", "0")
		_, err := s.CreateReferral(ctx, id, referred)
		require.NoError(t, err)
		stake(t, svc, referred, "150")
	}
	afterGrace(s)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := s.ChargeDueFees(ctx)
		assert.NoError(t, err)
	}()
	for _, id := range referrers {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := s.EvaluateWaiver(ctx, id)
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	for _, id := range referrers {
		wallet := testutil.Wallet(t, svc, id)
		require.True(t, wallet.WalletFeeProcessed, "%s left unresolved", id)

		charged := !wallet.WalletFeeWaived && wallet.UsdBalance.Equal(testutil.Dec("8"))
		waived := wallet.WalletFeeWaived && wallet.UsdBalance.Equal(testutil.Dec("10"))
		assert.True(t, charged != waived, "%s: waived=%v usd=%s", id, wallet.WalletFeeWaived, wallet.UsdBalance)
	}
}

func TestChargeDueFeesRejectsOverlappingSweep(t *testing.T) {
	s, _ := newTestService(t)
	s.running.Lock()
	defer s.running.Unlock()

	_, err := s.ChargeDueFees(context.Background())
	assert.ErrorIs(t, err, ErrFeeSweepInProgress)
}

func TestFeeStatus(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	due := now.Add(36 * time.Hour)
	past := now.Add(-time.Hour)

	tests := []struct {
		name     string
		wallet   models.Wallet
		pending  bool
		daysLeft int
	}{
		{"scheduled", models.Wallet{WalletFeeDueAt: &due}, true, 2},
		{"overdue", models.Wallet{WalletFeeDueAt: &past}, true, 0},
		{"waived", models.Wallet{WalletFeeDueAt: &due, WalletFeeProcessed: true, WalletFeeWaived: true}, false, 0},
		{"exempt", models.Wallet{WalletFeeProcessed: true}, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := FeeStatus(&tt.wallet, now)
			assert.Equal(t, tt.pending, status.IsPending)
			assert.Equal(t, tt.daysLeft, status.DaysRemaining)
			assert.Equal(t, tt.wallet.WalletFeeWaived, status.WalletFeeWaived)
		})
	}
}
