package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"token-settlement-go/internal/matcher"
	"token-settlement-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSweeper struct {
	runs atomic.Int32
	err  error
}

func (c *countingSweeper) Sweep(context.Context) (*models.SweepResult, error) {
	c.runs.Add(1)
	return &models.SweepResult{Success: c.err == nil}, c.err
}

type countingCharger struct {
	runs atomic.Int32
}

func (c *countingCharger) ChargeDueFees(context.Context) (*models.FeeSweepResult, error) {
	c.runs.Add(1)
	return &models.FeeSweepResult{Success: true}, nil
}

func TestNewRejectsNonPositiveIntervals(t *testing.T) {
	_, err := New(&countingSweeper{}, &countingCharger{}, Config{SweepInterval: time.Second})
	assert.Error(t, err)
}

func TestSchedulerRunsBothSweeps(t *testing.T) {
	orders := &countingSweeper{}
	fees := &countingCharger{}

	s, err := New(orders, fees, Config{
		SweepInterval:    20 * time.Millisecond,
		FeeSweepInterval: 30 * time.Millisecond,
	})
	require.NoError(t, err)
	require.NoError(t, s.Start())

	require.Eventually(t, func() bool {
		return orders.runs.Load() >= 2 && fees.runs.Load() >= 2
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, s.Stop())

	stopped := orders.runs.Load()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, stopped, orders.runs.Load())
}

func TestSchedulerKeepsRunningAfterSweepErrors(t *testing.T) {
	orders := &countingSweeper{err: matcher.ErrSweepInProgress}

	s, err := New(orders, &countingCharger{}, Config{
		SweepInterval:    20 * time.Millisecond,
		FeeSweepInterval: time.Hour,
	})
	require.NoError(t, err)
	require.NoError(t, s.Start())
	defer s.Stop()

	require.Eventually(t, func() bool {
		return orders.runs.Load() >= 3
	}, 2*time.Second, 10*time.Millisecond)
}
