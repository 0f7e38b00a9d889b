package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order types
const (
	OrderTypeBuy  = "BUY"
	OrderTypeSell = "SELL"
)

// Order statuses. FILLED and CANCELED are terminal.
const (
	OrderStatusPending  = "PENDING"
	OrderStatusFilled   = "FILLED"
	OrderStatusCanceled = "CANCELED"
)

// Transaction types
const (
	TransactionTypeBuy              = "BUY"
	TransactionTypeSell             = "SELL"
	TransactionTypeTransfer         = "TRANSFER"
	TransactionTypeWithdraw         = "WITHDRAW"
	TransactionTypeDeposit          = "DEPOSIT"
	TransactionTypeStake            = "STAKE"
	TransactionTypeWalletActivation = "WALLET_ACTIVATION"
	TransactionTypeLimitBuy         = "LIMIT_BUY"
	TransactionTypeLimitSell        = "LIMIT_SELL"
	TransactionTypeMint             = "MINT"
	TransactionTypeUnlock           = "UNLOCK"
)

// Currencies a transaction can be denominated in
const (
	CurrencyUSD   = "USD"
	CurrencyToken = "TOKEN"
)

const TransactionStatusCompleted = "COMPLETED"

// User represents a user in the system
type User struct {
	Id        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// TokenSupply is the singleton supply row every buy and sell contends on.
// remainingSupply = userSupplyRemaining + adminReserve.
type TokenSupply struct {
	TotalSupply         decimal.Decimal `db:"total_supply" json:"totalSupply"`
	RemainingSupply     decimal.Decimal `db:"remaining_supply" json:"remainingSupply"`
	UserSupplyRemaining decimal.Decimal `db:"user_supply_remaining" json:"userSupplyRemaining"`
	AdminReserve        decimal.Decimal `db:"admin_reserve" json:"adminReserve"`
	Version             int64           `db:"version" json:"-"`
	UpdatedAt           time.Time       `db:"updated_at" json:"updatedAt"`
}

// Valid reports whether 0 <= userSupplyRemaining <= remainingSupply <= totalSupply
// and the reserve accounts for the locked part of the remaining supply.
func (s TokenSupply) Valid() bool {
	if s.UserSupplyRemaining.IsNegative() || s.AdminReserve.IsNegative() {
		return false
	}
	if s.UserSupplyRemaining.GreaterThan(s.RemainingSupply) || s.RemainingSupply.GreaterThan(s.TotalSupply) {
		return false
	}
	return s.UserSupplyRemaining.Add(s.AdminReserve).Equal(s.RemainingSupply)
}

// Order is a resting limit order. Amount is USD for BUY and tokens for SELL.
type Order struct {
	Id         string          `db:"id" json:"id"`
	UserId     string          `db:"user_id" json:"userId"`
	OrderType  string          `db:"order_type" json:"orderType"`
	Amount     decimal.Decimal `db:"amount" json:"amount"`
	LimitPrice decimal.Decimal `db:"limit_price" json:"limitPrice"`
	Status     string          `db:"status" json:"status"`
	CreatedAt  time.Time       `db:"created_at" json:"createdAt"`
	FilledAt   *time.Time      `db:"filled_at" json:"filledAt"`
}

// Wallet holds a user's balances and the wallet activation fee state.
type Wallet struct {
	Id                 string          `db:"id" json:"id"`
	UserId             string          `db:"user_id" json:"userId"`
	UsdBalance         decimal.Decimal `db:"usd_balance" json:"usdBalance"`
	TokenBalance       decimal.Decimal `db:"token_balance" json:"tokenBalance"`
	WalletFeeDueAt     *time.Time      `db:"wallet_fee_due_at" json:"walletFeeDueAt"`
	WalletFeeProcessed bool            `db:"wallet_fee_processed" json:"walletFeeProcessed"`
	WalletFeeWaived    bool            `db:"wallet_fee_waived" json:"walletFeeWaived"`
	WalletFeeLocked    bool            `db:"wallet_fee_locked" json:"walletFeeLocked"`
	Version            int64           `db:"version" json:"-"`
	CreatedAt          time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time       `db:"updated_at" json:"updatedAt"`
}

// Transaction is the append-only record written once per settlement.
type Transaction struct {
	Id            string          `db:"id" json:"id"`
	UserId        string          `db:"user_id" json:"userId"`
	Type          string          `db:"transaction_type" json:"type"`
	Currency      string          `db:"currency" json:"currency"`
	GrossAmount   decimal.Decimal `db:"gross_amount" json:"grossAmount"`
	FeeAmount     decimal.Decimal `db:"fee_amount" json:"feeAmount"`
	NetAmount     decimal.Decimal `db:"net_amount" json:"netAmount"`
	CounterAmount decimal.Decimal `db:"counter_amount" json:"counterAmount"`
	Price         decimal.Decimal `db:"price" json:"price"`
	Reference     string          `db:"reference" json:"reference"`
	Status        string          `db:"status" json:"status"`
	CreatedAt     time.Time       `db:"created_at" json:"createdAt"`
}

// Referral attributes a referred user to a referrer. A user can be referred once.
type Referral struct {
	Id         string    `db:"id" json:"id"`
	ReferrerId string    `db:"referrer_id" json:"referrerId"`
	ReferredId string    `db:"referred_id" json:"referredId"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// Stake is a quantity of tokens a user has locked for yield.
type Stake struct {
	Id        string          `db:"id" json:"id"`
	UserId    string          `db:"user_id" json:"userId"`
	Amount    decimal.Decimal `db:"amount" json:"amount"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
}

// FeeTotal is the aggregated fee income for one transaction type.
type FeeTotal struct {
	Type     string          `json:"type"`
	Currency string          `json:"currency"`
	Total    decimal.Decimal `json:"total"`
	Count    int             `json:"count"`
}
