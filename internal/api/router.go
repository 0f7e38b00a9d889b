package api

import (
	"net/http"
	"time"

	"token-settlement-go/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// DefaultTimeout bounds every request when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// NewRouter sets up and returns the settlement HTTP router.
func NewRouter(h *Handler, registry *prometheus.Registry, timeout time.Duration) http.Handler {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))

	r.Get("/health", h.Health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler(registry))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/price", h.GetPrice)

		r.Post("/orders/sweep", h.SweepOrders)
		r.Post("/wallet-fees/sweep", h.SweepWalletFees)
		r.Post("/referrals", h.CreateReferral)

		r.Post("/users", h.RegisterUser)
		r.Route("/users/{userId}", func(r chi.Router) {
			r.Post("/buy", h.Buy)
			r.Post("/sell", h.Sell)
			r.Post("/deposit", h.Deposit)
			r.Post("/withdraw", h.Withdraw)
			r.Post("/transfer", h.Transfer)
			r.Post("/stake", h.Stake)
			r.Post("/orders", h.PlaceOrder)
			r.Delete("/orders/{orderId}", h.CancelOrder)
			r.Get("/wallet", h.GetWallet)
			r.Get("/wallet-fee", h.GetWalletFeeStatus)
			r.Get("/transactions", h.GetTransactionHistory)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/supply/mint", h.MintSupply)
			r.Post("/supply/unlock", h.UnlockSupply)
			r.Get("/fees/summary", h.GetFeeSummary)
		})
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		zap.L().Info("HTTP request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)))
	})
}
