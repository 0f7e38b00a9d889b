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

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"token-settlement-go/internal/models"

	"github.com/shopspring/decimal"
)

func Load() (*models.Config, error) {
	cfg := &models.Config{
		Database: models.DatabaseConfig{
			Driver:       getEnvString("DATABASE_DRIVER", "sqlite3"),
			Path:         getEnvString("DATABASE_PATH", "settlement.db"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),
		},
		Sweep: models.SweepConfig{
			BatchSize: getEnvInt("SWEEP_BATCH_SIZE", 10),
		},
		Server: models.ServerConfig{
			Addr: getEnvString("HTTP_ADDR", ":8080"),
		},
		Scheduler: models.SchedulerConfig{
			Enabled: getEnvBool("SCHEDULER_ENABLED", true),
		},
		Formance: models.FormanceConfig{
			StackURL:     getEnvString("FORMANCE_STACK_URL", ""),
			ClientID:     getEnvString("FORMANCE_CLIENT_ID", ""),
			ClientSecret: getEnvString("FORMANCE_CLIENT_SECRET", ""),
			LedgerName:   getEnvString("FORMANCE_LEDGER", "token-settlement"),
		},
		TokenomicsFile: getEnvString("TOKENOMICS_FILE", "tokenomics.yaml"),
		AdminUserId:    getEnvString("ADMIN_USER_ID", "admin"),
	}
	if cfg.Database.Driver == "postgres" {
		cfg.Database.Path = getEnvString("DATABASE_URL", cfg.Database.Path)
	}

	durations := []struct {
		key string
		def time.Duration
		dst *time.Duration
	}{
		{"DB_CONN_MAX_LIFETIME", 5 * time.Minute, &cfg.Database.ConnMaxLifetime},
		{"DB_CONN_MAX_IDLE_TIME", 30 * time.Second, &cfg.Database.ConnMaxIdleTime},
		{"DB_PING_TIMEOUT", 5 * time.Second, &cfg.Database.PingTimeout},
		{"SWEEP_BATCH_PAUSE", 250 * time.Millisecond, &cfg.Sweep.BatchPause},
		{"SWEEP_INTERVAL", time.Minute, &cfg.Scheduler.SweepInterval},
		{"FEE_SWEEP_INTERVAL", time.Hour, &cfg.Scheduler.FeeSweepInterval},
		{"WALLET_FEE_GRACE_PERIOD", 30 * 24 * time.Hour, &cfg.Billing.GracePeriod},
		{"REFERRAL_WINDOW", 30 * 24 * time.Hour, &cfg.Billing.ReferralWindow},
		{"HTTP_READ_TIMEOUT", 15 * time.Second, &cfg.Server.ReadTimeout},
		{"HTTP_WRITE_TIMEOUT", 30 * time.Second, &cfg.Server.WriteTimeout},
		{"HTTP_REQUEST_TIMEOUT", 20 * time.Second, &cfg.Server.RequestTimeout},
		{"HTTP_SHUTDOWN_TIMEOUT", 30 * time.Second, &cfg.Server.ShutdownTimeout},
	}
	for _, d := range durations {
		value, err := getEnvDuration(d.key, d.def)
		if err != nil {
			return nil, err
		}
		*d.dst = value
	}

	threshold, err := getEnvDecimal("REFERRAL_STAKE_THRESHOLD", decimal.NewFromInt(1000))
	if err != nil {
		return nil, err
	}
	cfg.Billing.ReferralStakeThreshold = threshold

	return cfg, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvDecimal(key string, defaultValue decimal.Decimal) (decimal.Decimal, error) {
	if value := os.Getenv(key); value != "" {
		d, err := decimal.NewFromString(value)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid decimal for %s: %q (%w)", key, value, err)
		}
		return d, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
