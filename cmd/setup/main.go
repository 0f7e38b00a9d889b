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
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	tokenomicsFlag := flag.String("tokenomics", "", "Path to tokenomics.yaml (defaults to TOKENOMICS_FILE)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}
	if *tokenomicsFlag != "" {
		cfg.TokenomicsFile = *tokenomicsFlag
	}

	zap.L().Info("Loading tokenomics", zap.String("path", cfg.TokenomicsFile))
	tokenomics, err := common.LoadTokenomics(cfg.TokenomicsFile)
	if err != nil {
		zap.L().Fatal("Failed to load tokenomics", zap.Error(err))
	}

	// Opening the store applies the schema.
	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	supply, err := dbService.InitTokenSupply(ctx, tokenomics.TotalSupply, tokenomics.UserSupplyUnlocked)
	if err != nil {
		zap.L().Fatal("Failed to initialize token supply", zap.Error(err))
	}

	admin, err := common.EnsureAdmin(ctx, dbService, cfg.AdminUserId)
	if err != nil {
		zap.L().Fatal("Failed to create admin wallet", zap.Error(err))
	}

	common.PrintHeader("SETTLEMENT STORE READY", common.DefaultWidth)
	fmt.Printf("Total supply:          %s\n", supply.TotalSupply)
	fmt.Printf("Remaining supply:      %s\n", supply.RemainingSupply)
	fmt.Printf("User supply remaining: %s\n", supply.UserSupplyRemaining)
	fmt.Printf("Admin reserve:         %s\n", supply.AdminReserve)
	fmt.Printf("Base value:            %s\n", tokenomics.BaseValue)
	fmt.Printf("Admin user:            %s\n", admin.Id)
	common.PrintSeparator("=", common.DefaultWidth)

	zap.L().Info("Setup complete",
		zap.String("total_supply", supply.TotalSupply.String()),
		zap.String("admin_user_id", admin.Id))
}
