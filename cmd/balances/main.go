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


package main

import (
	"context"
	"flag"
	"fmt"

	"token-settlement-go/internal/common"
	"token-settlement-go/internal/config"
	"token-settlement-go/internal/models"

	"go.uber.org/zap"
)

type walletStats struct {
	totalWallets  int
	lockedWallets int
	pendingFees   int
}

func printSupply(quote *models.PriceQuote) {
	fmt.Printf("┌─ Token supply\n")
	fmt.Printf("│  Price:                 %s\n", quote.Price)
	fmt.Printf("│  Total supply:          %s\n", quote.TotalSupply)
	fmt.Printf("│  Remaining supply:      %s\n", quote.RemainingSupply)
	fmt.Printf("│  User supply remaining: %s\n", quote.UserSupplyRemaining)
	fmt.Printf("└  Admin reserve:         %s\n", quote.AdminReserve)
}

func printWallet(wallet models.Wallet, isLast bool) {
	fmt.Printf("%s %-36s usd: %18s  tokens: %22s  fee: %s\n",
		common.BoxPrefix(isLast),
		wallet.UserId,
		wallet.UsdBalance.StringFixed(2),
		wallet.TokenBalance.StringFixed(8),
		feeState(wallet))
}

func feeState(wallet models.Wallet) string {
	switch {
	case wallet.WalletFeeLocked:
		return "LOCKED"
	case wallet.WalletFeeWaived:
		return "waived"
	case wallet.WalletFeeProcessed:
		return "paid"
	default:
		return common.FormatDue(wallet.WalletFeeDueAt)
	}
}

func collectStats(wallets []models.Wallet) walletStats {
	stats := walletStats{totalWallets: len(wallets)}
	for _, wallet := range wallets {
		if wallet.WalletFeeLocked {
			stats.lockedWallets++
		}
		if !wallet.WalletFeeProcessed && wallet.WalletFeeDueAt != nil {
			stats.pendingFees++
		}
	}
	return stats
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	userFlag := flag.String("user", "", "Filter by specific user id (optional)")
	flag.Parse()

	logger.Info("Starting balance query")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	quote, err := services.Prices.Quote(ctx)
	if err != nil {
		logger.Fatal("Failed to read token supply", zap.Error(err))
	}

	var wallets []models.Wallet
	if *userFlag != "" {
		wallet, err := services.DbService.GetWallet(ctx, *userFlag)
		if err != nil {
			logger.Fatal("Failed to read wallet", zap.String("user_id", *userFlag), zap.Error(err))
		}
		wallets = []models.Wallet{*wallet}
	} else {
		wallets, err = services.DbService.ListWallets(ctx)
		if err != nil {
			logger.Fatal("Failed to list wallets", zap.Error(err))
		}
	}

	common.PrintHeader("WALLET BALANCE REPORT", common.WideWidth)
	printSupply(quote)
	fmt.Println()
	for i, wallet := range wallets {
		printWallet(wallet, i == len(wallets)-1)
	}

	stats := collectStats(wallets)
	summary := fmt.Sprintf("SUMMARY: %d wallets, %d with a pending wallet fee, %d locked",
		stats.totalWallets, stats.pendingFees, stats.lockedWallets)
	common.PrintFooter(summary, common.WideWidth)

	logger.Info("Balance query completed",
		zap.Int("wallets", stats.totalWallets),
		zap.Int("locked", stats.lockedWallets))
}
