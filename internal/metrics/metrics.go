package metrics

import (
	"context"
	"net/http"

	"token-settlement-go/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is safe to use through a nil pointer; every method is then a no-op.
type Metrics struct {
	OrderSweeps         *prometheus.CounterVec
	OrderSweepOrders    *prometheus.CounterVec
	OrderSweepDuration  prometheus.Histogram
	FeeSweeps           *prometheus.CounterVec
	WalletFeeOutcomes   *prometheus.CounterVec
	Transactions        *prometheus.CounterVec
	FeesCollected       *prometheus.CounterVec
	TokenPrice          prometheus.Gauge
	UserSupplyRemaining prometheus.Gauge
}

func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		OrderSweeps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "settlement_order_sweeps_total",
				Help: "Total order matching sweeps.",
			},
			[]string{"result"},
		),
		OrderSweepOrders: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "settlement_order_sweep_orders_total",
				Help: "Orders evaluated by sweeps, by outcome.",
			},
			[]string{"outcome"},
		),
		OrderSweepDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "settlement_order_sweep_duration_seconds",
				Help:    "Order sweep duration in seconds.",
				Buckets: prometheus.DefBuckets,
			},
		),
		FeeSweeps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "settlement_wallet_fee_sweeps_total",
				Help: "Total wallet fee charge sweeps.",
			},
			[]string{"result"},
		),
		WalletFeeOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "settlement_wallet_fee_outcomes_total",
				Help: "Wallet activation fee outcomes.",
			},
			[]string{"outcome"},
		),
		Transactions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "settlement_transactions_total",
				Help: "Committed settlement transactions.",
			},
			[]string{"type"},
		),
		FeesCollected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "settlement_fees_collected_total",
				Help: "Fees routed to the admin wallet.",
			},
			[]string{"currency"},
		),
		TokenPrice: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "settlement_token_price",
				Help: "Token price sampled by the last order sweep.",
			},
		),
		UserSupplyRemaining: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "settlement_user_supply_remaining",
				Help: "Tradable token supply at the last price quote.",
			},
		),
	}

	registry.MustRegister(m.OrderSweeps, m.OrderSweepOrders, m.OrderSweepDuration, m.FeeSweeps,
		m.WalletFeeOutcomes, m.Transactions, m.FeesCollected, m.TokenPrice, m.UserSupplyRemaining)
	return m
}

// NewRegistry returns a registry with the Go and process collectors installed.
func NewRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return registry
}

func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

func (m *Metrics) OrderOutcome(outcome string) {
	if m == nil {
		return
	}
	m.OrderSweepOrders.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SweepCompleted(result *models.SweepResult, err error) {
	if m == nil {
		return
	}
	if err != nil || result == nil {
		m.OrderSweeps.WithLabelValues("error").Inc()
		return
	}
	m.OrderSweeps.WithLabelValues("success").Inc()
	m.OrderSweepDuration.Observe(float64(result.ExecutionTimeMs) / 1000)
	m.TokenPrice.Set(result.CurrentPrice.InexactFloat64())
}

func (m *Metrics) WalletFeeOutcome(outcome string) {
	if m == nil {
		return
	}
	m.WalletFeeOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) FeeSweepCompleted(result *models.FeeSweepResult, err error) {
	if m == nil {
		return
	}
	if err != nil || result == nil {
		m.FeeSweeps.WithLabelValues("error").Inc()
		return
	}
	m.FeeSweeps.WithLabelValues("success").Inc()
}

// TransactionCommitted counts committed settlements and the fees they carried.
func (m *Metrics) TransactionCommitted(_ context.Context, txn models.Transaction) {
	if m == nil {
		return
	}
	m.Transactions.WithLabelValues(txn.Type).Inc()
	if txn.FeeAmount.IsPositive() {
		m.FeesCollected.WithLabelValues(txn.Currency).Add(txn.FeeAmount.InexactFloat64())
	}
}

// QuoteObserved records the supply behind a price quote.
func (m *Metrics) QuoteObserved(quote *models.PriceQuote) {
	if m == nil || quote == nil {
		return
	}
	m.TokenPrice.Set(quote.Price.InexactFloat64())
	m.UserSupplyRemaining.Set(quote.UserSupplyRemaining.InexactFloat64())
}
