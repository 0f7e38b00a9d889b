package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"token-settlement-go/internal/models"

	"github.com/shopspring/decimal"
)

// Sentinel errors shared across all backend implementations.
var (
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrUserNotFound           = errors.New("user not found")
	ErrDuplicateUser          = errors.New("user already exists")
	ErrWalletNotFound         = errors.New("wallet not found")
	ErrOrderNotFound          = errors.New("order not found")
	ErrOrderNotPending        = errors.New("order is no longer pending")
	ErrInsufficientBalance    = errors.New("insufficient balance")
	ErrInsufficientSupply     = errors.New("insufficient token supply")
	ErrSupplyNotInitialized   = errors.New("token supply not initialized")
	ErrSupplyInvariant        = errors.New("token supply invariant violated")
	ErrWalletFeeLocked        = errors.New("wallet locked until activation fee is paid")
	ErrDuplicateReferral      = errors.New("user already referred")
	ErrReferralNotFound       = errors.New("referral not found")
)

// InsufficientSupplyError reports how far a deduction exceeded the tradable supply.
type InsufficientSupplyError struct {
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientSupplyError) Shortfall() decimal.Decimal {
	return e.Requested.Sub(e.Available)
}

func (e *InsufficientSupplyError) Error() string {
	return fmt.Sprintf("insufficient token supply: requested %s, available %s, shortfall %s",
		e.Requested, e.Available, e.Shortfall())
}

func (e *InsufficientSupplyError) Unwrap() error { return ErrInsufficientSupply }

// InsufficientBalanceError reports a debit larger than the wallet balance in Currency.
type InsufficientBalanceError struct {
	Currency  string
	Available decimal.Decimal
	Required  decimal.Decimal
}

func (e *InsufficientBalanceError) Shortfall() decimal.Decimal {
	return e.Required.Sub(e.Available)
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: %s balance %s, required %s", e.Currency, e.Available, e.Required)
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// CreateUserParams contains the parameters for creating a user and its wallet.
type CreateUserParams struct {
	UserId string
	Name   string
	Email  string
	// FeeGracePeriod schedules walletFeeDueAt relative to creation. Zero leaves it unscheduled.
	FeeGracePeriod time.Duration
	// FeeExempt marks the activation fee processed at creation (admin wallet).
	FeeExempt bool
}

// CreateOrderParams contains the parameters for placing a limit order.
type CreateOrderParams struct {
	UserId     string
	OrderType  string
	Amount     decimal.Decimal
	LimitPrice decimal.Decimal
}

// TransactionParams describes one settlement record.
type TransactionParams struct {
	UserId        string
	Type          string
	Currency      string
	GrossAmount   decimal.Decimal
	FeeAmount     decimal.Decimal
	NetAmount     decimal.Decimal
	CounterAmount decimal.Decimal
	Price         decimal.Decimal
	Reference     string
}

// LedgerStore defines the contract that every backend must satisfy.
type LedgerStore interface {
	// --- Users ---
	CreateUser(ctx context.Context, params CreateUserParams) (*models.User, *models.Wallet, error)
	GetUserById(ctx context.Context, userId string) (*models.User, error)

	// --- Wallets ---
	GetWallet(ctx context.Context, userId string) (*models.Wallet, error)
	ListWallets(ctx context.Context) ([]models.Wallet, error)
	ListDueWalletFees(ctx context.Context, now time.Time) ([]models.Wallet, error)

	// --- Supply ---
	GetTokenSupply(ctx context.Context) (*models.TokenSupply, error)
	InitTokenSupply(ctx context.Context, total, userUnlocked decimal.Decimal) (*models.TokenSupply, error)

	// --- Orders ---
	CreateOrder(ctx context.Context, params CreateOrderParams) (*models.Order, error)
	GetOrder(ctx context.Context, orderId string) (*models.Order, error)
	ListPendingOrders(ctx context.Context) ([]models.Order, error)

	// --- Referrals and stakes ---
	CreateReferral(ctx context.Context, referrerId, referredId string) (*models.Referral, error)
	GetReferralByReferred(ctx context.Context, referredId string) (*models.Referral, error)
	ListReferralsByReferrer(ctx context.Context, referrerId string) ([]models.Referral, error)
	SumStakes(ctx context.Context, userId string, from, to time.Time) (decimal.Decimal, error)

	// --- Transactions ---
	GetTransactionHistory(ctx context.Context, userId string, limit, offset int) ([]models.Transaction, error)
	GetFeeSummary(ctx context.Context) ([]models.FeeTotal, error)

	// --- Unit of work ---
	WithinTx(ctx context.Context, fn func(tx Tx) error) error

	// --- Lifecycle ---
	Close()
}

// Tx is a unit of work. Every write made through it commits or rolls back together.
type Tx interface {
	GetWallet(ctx context.Context, userId string) (*models.Wallet, error)
	GetTokenSupply(ctx context.Context) (*models.TokenSupply, error)

	// AdjustWallet applies signed deltas to both balances. A result below zero
	// fails with ErrInsufficientBalance and nothing is written.
	AdjustWallet(ctx context.Context, userId string, usdDelta, tokenDelta decimal.Decimal) (*models.Wallet, error)

	// Supply adjustments are single conditional updates on the singleton row.
	DeductSupply(ctx context.Context, amount decimal.Decimal) (*models.TokenSupply, error)
	AddSupply(ctx context.Context, amount decimal.Decimal) (*models.TokenSupply, error)
	MintSupply(ctx context.Context, amount decimal.Decimal) (*models.TokenSupply, error)
	UnlockSupply(ctx context.Context, amount decimal.Decimal) (*models.TokenSupply, error)

	InsertTransaction(ctx context.Context, params TransactionParams) (*models.Transaction, error)
	InsertStake(ctx context.Context, userId string, amount decimal.Decimal) (*models.Stake, error)

	// TransitionOrder moves a PENDING order to a terminal status. It fails with
	// ErrOrderNotPending when another writer got there first.
	TransitionOrder(ctx context.Context, orderId, status string, at time.Time) error

	// ResolveWalletFee latches processed=true with the given waived flag and clears
	// the lock. It returns false when the fee was already processed.
	ResolveWalletFee(ctx context.Context, userId string, waived bool) (bool, error)
	// LockWalletFee sets the lock on an unprocessed fee. It returns false when
	// the fee was already processed.
	LockWalletFee(ctx context.Context, userId string) (bool, error)
}
