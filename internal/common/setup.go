package common

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"token-settlement-go/internal/billing"
	"token-settlement-go/internal/database"
	"token-settlement-go/internal/formance"
	"token-settlement-go/internal/ledger"
	"token-settlement-go/internal/matcher"
	"token-settlement-go/internal/metrics"
	"token-settlement-go/internal/models"
	"token-settlement-go/internal/pricing"
	"token-settlement-go/internal/supply"
	"token-settlement-go/internal/trading"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// Environment variables can be set via other means (shell export, docker, etc.)
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
		log.Println("Make sure to set environment variables via export or other means")
	} else {
		log.Println("✓ Loaded environment variables from .env file")
	}
}

type Services struct {
	DbService *database.Service
	Engine    *pricing.Engine
	Prices    *pricing.Feed
	Supply    *supply.Adjuster
	Ledger    *ledger.Ledger
	Billing   *billing.Service
	Trading   *trading.Service
	Matcher   *matcher.Matcher
	Metrics   *metrics.Metrics
	Registry  *prometheus.Registry
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

// InitializeServices opens the store and wires every settlement service on top of it.
func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	baseValue, err := loadBaseValue(cfg.TokenomicsFile)
	if err != nil {
		dbService.Close()
		return nil, err
	}

	engine, err := pricing.NewEngine(baseValue)
	if err != nil {
		dbService.Close()
		return nil, err
	}

	registry := metrics.NewRegistry()
	m := metrics.NewMetrics(registry)

	l := ledger.New(cfg.AdminUserId, m)
	if cfg.Formance.StackURL != "" {
		zap.L().Info("Mirroring settlements to Formance ledger",
			zap.String("stack_url", cfg.Formance.StackURL),
			zap.String("ledger", cfg.Formance.LedgerName))
		mirror, err := formance.NewService(ctx, cfg.Formance)
		if err != nil {
			dbService.Close()
			return nil, err
		}
		l.AddObserver(mirror)
	}

	adjuster := supply.NewAdjuster(dbService)
	prices := pricing.NewFeed(engine, dbService)
	billingService := billing.NewService(dbService, l, cfg.Billing, m)
	tradingService := trading.NewService(dbService, engine, adjuster, l, billingService)
	orderMatcher := matcher.New(dbService, prices, adjuster, l, m, matcher.Config{
		BatchSize:  cfg.Sweep.BatchSize,
		BatchPause: cfg.Sweep.BatchPause,
	})

	zap.L().Info("Settlement services initialized",
		zap.String("base_value", baseValue.String()),
		zap.String("admin_user_id", cfg.AdminUserId))

	return &Services{
		DbService: dbService,
		Engine:    engine,
		Prices:    prices,
		Supply:    adjuster,
		Ledger:    l,
		Billing:   billingService,
		Trading:   tradingService,
		Matcher:   orderMatcher,
		Metrics:   m,
		Registry:  registry,
	}, nil
}

// InitializeDatabaseOnly initializes just the database service
// Useful for read-only operations like querying balances
func InitializeDatabaseOnly(ctx context.Context, cfg *models.Config) (*database.Service, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	return dbService, nil
}

func (cs *Services) Close() {
	if cs.DbService != nil {
		cs.DbService.Close()
	}
}

func loadBaseValue(tokenomicsPath string) (decimal.Decimal, error) {
	tokenomics, err := LoadTokenomics(tokenomicsPath)
	if errors.Is(err, os.ErrNotExist) {
		zap.L().Warn("Tokenomics file not found, using default base value",
			zap.String("path", tokenomicsPath),
			zap.String("base_value", pricing.DefaultBaseValue.String()))
		return pricing.DefaultBaseValue, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to load tokenomics: %w", err)
	}
	return tokenomics.BaseValue, nil
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
