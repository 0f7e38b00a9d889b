package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Config represents the application configuration
type Config struct {
	Database  DatabaseConfig
	Sweep     SweepConfig
	Billing   BillingConfig
	Server    ServerConfig
	Formance  FormanceConfig
	Scheduler SchedulerConfig
	// TokenomicsFile is the YAML file holding the pricing base value and initial supply.
	TokenomicsFile string
	AdminUserId    string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver          string // sqlite3 or postgres
	Path            string // SQLite file, or Postgres DSN
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// SweepConfig holds order matching sweep settings
type SweepConfig struct {
	BatchSize  int
	BatchPause time.Duration
}

// BillingConfig holds the deferred wallet fee settings
type BillingConfig struct {
	GracePeriod            time.Duration
	ReferralWindow         time.Duration
	ReferralStakeThreshold decimal.Decimal
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// SchedulerConfig holds the in-process trigger settings
type SchedulerConfig struct {
	Enabled          bool
	SweepInterval    time.Duration
	FeeSweepInterval time.Duration
}

// FormanceConfig holds the optional audit mirror settings. The mirror is
// disabled when StackURL is empty.
type FormanceConfig struct {
	StackURL     string
	ClientID     string
	ClientSecret string
	LedgerName   string
}

// Tokenomics is loaded from the tokenomics file.
type Tokenomics struct {
	BaseValue          decimal.Decimal
	TotalSupply        decimal.Decimal
	UserSupplyUnlocked decimal.Decimal
	AdminReserve       decimal.Decimal
}
