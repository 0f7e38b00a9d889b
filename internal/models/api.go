/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceUpdate is the price before and after a settlement moved the supply.
type PriceUpdate struct {
	OldPrice decimal.Decimal `json:"oldPrice"`
	NewPrice decimal.Decimal `json:"newPrice"`
}

// TradeReceipt describes the executed side of a synchronous buy or sell.
type TradeReceipt struct {
	Id             string           `json:"id"`
	Type           string           `json:"type"`
	GrossAmount    decimal.Decimal  `json:"grossAmount"`
	Fee            decimal.Decimal  `json:"fee"`
	NetAmount      decimal.Decimal  `json:"netAmount"`
	TokensReceived *decimal.Decimal `json:"tokensReceived,omitempty"`
	UsdReceived    *decimal.Decimal `json:"usdReceived,omitempty"`
	PricePerToken  decimal.Decimal  `json:"pricePerToken"`
}

// TradeResult is returned by buy and sell.
type TradeResult struct {
	Success     bool         `json:"success"`
	Transaction TradeReceipt `json:"transaction"`
	NewWallet   WalletView   `json:"newWallet"`
	PriceUpdate PriceUpdate  `json:"priceUpdate"`
}

// SettlementResult is returned by deposit, withdraw, transfer and stake.
type SettlementResult struct {
	Success     bool        `json:"success"`
	Transaction Transaction `json:"transaction"`
	NewWallet   WalletView  `json:"newWallet"`
}

// WalletView is the public projection of a wallet.
type WalletView struct {
	UserId       string          `json:"userId"`
	UsdBalance   decimal.Decimal `json:"usdBalance"`
	TokenBalance decimal.Decimal `json:"tokenBalance"`
	FeeLocked    bool            `json:"walletFeeLocked"`
}

// NewWalletView projects a wallet for API responses.
func NewWalletView(w *Wallet) WalletView {
	return WalletView{
		UserId:       w.UserId,
		UsdBalance:   w.UsdBalance,
		TokenBalance: w.TokenBalance,
		FeeLocked:    w.WalletFeeLocked,
	}
}

// SweepResult is the outcome of one order matching sweep.
type SweepResult struct {
	Success         bool            `json:"success"`
	ExecutedCount   int             `json:"executedCount"`
	SkippedCount    int             `json:"skippedCount"`
	ErrorCount      int             `json:"errorCount"`
	CurrentPrice    decimal.Decimal `json:"currentPrice"`
	ExecutionTimeMs int64           `json:"executionTimeMs"`
	Timestamp       time.Time       `json:"timestamp"`
}

// FeeSweepResult is the outcome of one wallet fee charge sweep.
type FeeSweepResult struct {
	Success         bool      `json:"success"`
	ChargedCount    int       `json:"chargedCount"`
	LockedCount     int       `json:"lockedCount"`
	SkippedCount    int       `json:"skippedCount"`
	ErrorCount      int       `json:"errorCount"`
	ExecutionTimeMs int64     `json:"executionTimeMs"`
	Timestamp       time.Time `json:"timestamp"`
}

// WalletFeeStatus answers the wallet fee status query.
type WalletFeeStatus struct {
	WalletFeeProcessed bool       `json:"walletFeeProcessed"`
	WalletFeeWaived    bool       `json:"walletFeeWaived"`
	WalletFeeLocked    bool       `json:"walletFeeLocked"`
	WalletFeeDueAt     *time.Time `json:"walletFeeDueAt"`
	DaysRemaining      int        `json:"daysRemaining"`
	IsPending          bool       `json:"isPending"`
}

// PriceQuote is the current price together with the counters it was derived from.
type PriceQuote struct {
	Price               decimal.Decimal `json:"price"`
	BaseValue           decimal.Decimal `json:"baseValue"`
	TotalSupply         decimal.Decimal `json:"totalSupply"`
	RemainingSupply     decimal.Decimal `json:"remainingSupply"`
	UserSupplyRemaining decimal.Decimal `json:"userSupplyRemaining"`
	AdminReserve        decimal.Decimal `json:"adminReserve"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool              `json:"success"`
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}
