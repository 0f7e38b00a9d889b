package main

import (
	"context"
	"flag"
	"fmt"

	"token-settlement-go/internal/common"
	"token-settlement-go/internal/config"

	"go.uber.org/zap"
)

func main() {
	ordersFlag := flag.Bool("orders", true, "Run the limit order sweep")
	feesFlag := flag.Bool("fees", true, "Run the wallet fee sweep")
	flag.Parse()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	common.PrintHeader("SWEEP REPORT", common.DefaultWidth)

	if *ordersFlag {
		result, err := services.Matcher.Sweep(ctx)
		if err != nil {
			zap.L().Error("Order sweep failed", zap.Error(err))
		}
		if result != nil {
			fmt.Printf("Orders       price %s: %d executed, %d skipped, %d errors (%dms)\n",
				result.CurrentPrice, result.ExecutedCount, result.SkippedCount, result.ErrorCount, result.ExecutionTimeMs)
		}
	}

	if *feesFlag {
		result, err := services.Billing.ChargeDueFees(ctx)
		if err != nil {
			zap.L().Error("Wallet fee sweep failed", zap.Error(err))
		}
		if result != nil {
			fmt.Printf("Wallet fees  %d charged, %d locked, %d skipped, %d errors (%dms)\n",
				result.ChargedCount, result.LockedCount, result.SkippedCount, result.ErrorCount, result.ExecutionTimeMs)
		}
	}

	common.PrintSeparator("=", common.DefaultWidth)
}
