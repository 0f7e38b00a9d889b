package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"token-settlement-go/internal/billing"
	"token-settlement-go/internal/matcher"
	"token-settlement-go/internal/models"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// OrderSweeper runs one pass over pending limit orders.
type OrderSweeper interface {
	Sweep(ctx context.Context) (*models.SweepResult, error)
}

// FeeCharger runs one pass over due wallet activation fees.
type FeeCharger interface {
	ChargeDueFees(ctx context.Context) (*models.FeeSweepResult, error)
}

type Config struct {
	SweepInterval    time.Duration
	FeeSweepInterval time.Duration
}

// Scheduler triggers the order sweep and the fee sweep on fixed intervals.
// Jobs run in singleton mode so a slow run is never overlapped by the next tick.
type Scheduler struct {
	orders OrderSweeper
	fees   FeeCharger
	cfg    Config
	cron   gocron.Scheduler
}

func New(orders OrderSweeper, fees FeeCharger, cfg Config) (*Scheduler, error) {
	if cfg.SweepInterval <= 0 || cfg.FeeSweepInterval <= 0 {
		return nil, fmt.Errorf("sweep intervals must be positive: orders %s, fees %s", cfg.SweepInterval, cfg.FeeSweepInterval)
	}

	cron, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &Scheduler{orders: orders, fees: fees, cfg: cfg, cron: cron}, nil
}

// Start registers both jobs and starts the scheduler.
func (s *Scheduler) Start() error {
	zap.L().Info("Starting sweep scheduler")

	jobs := []struct {
		name     string
		interval time.Duration
		run      func(ctx context.Context)
	}{
		{"order-sweep", s.cfg.SweepInterval, s.runOrderSweep},
		{"wallet-fee-sweep", s.cfg.FeeSweepInterval, s.runFeeSweep},
	}
	for _, job := range jobs {
		_, err := s.cron.NewJob(
			gocron.DurationJob(job.interval),
			gocron.NewTask(job.run),
			gocron.WithName(job.name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			return fmt.Errorf("failed to schedule %s: %w", job.name, err)
		}
	}

	s.cron.Start()

	zap.L().Info("Sweep scheduler started",
		zap.Duration("sweep_interval", s.cfg.SweepInterval),
		zap.Duration("fee_sweep_interval", s.cfg.FeeSweepInterval))
	return nil
}

// Stop waits for running jobs and shuts the scheduler down.
func (s *Scheduler) Stop() error {
	zap.L().Info("Stopping sweep scheduler")
	if err := s.cron.Shutdown(); err != nil {
		return fmt.Errorf("failed to stop scheduler: %w", err)
	}
	zap.L().Info("Sweep scheduler stopped")
	return nil
}

func (s *Scheduler) runOrderSweep(ctx context.Context) {
	_, err := s.orders.Sweep(ctx)
	switch {
	case errors.Is(err, matcher.ErrSweepInProgress):
		zap.L().Debug("Order sweep already running, tick skipped")
	case err != nil:
		zap.L().Error("Scheduled order sweep failed", zap.Error(err))
	}
}

func (s *Scheduler) runFeeSweep(ctx context.Context) {
	_, err := s.fees.ChargeDueFees(ctx)
	switch {
	case errors.Is(err, billing.ErrFeeSweepInProgress):
		zap.L().Debug("Wallet fee sweep already running, tick skipped")
	case err != nil:
		zap.L().Error("Scheduled wallet fee sweep failed", zap.Error(err))
	}
}
