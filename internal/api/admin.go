package api

import (
	"net/http"

	"token-settlement-go/internal/models"

	"github.com/shopspring/decimal"
)

type ReferralRequest struct {
	ReferrerId string `json:"referrerId"`
	ReferredId string `json:"referredId"`
}

type SupplyAmountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.HealthCheck(r.Context()); err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetPrice handles GET /api/v1/price
func (h *Handler) GetPrice(w http.ResponseWriter, r *http.Request) {
	quote, err := h.prices.Quote(r.Context())
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	h.metrics.QuoteObserved(quote)
	respondWithJSON(w, http.StatusOK, quote)
}

// SweepOrders runs one order matching sweep. POST /api/v1/orders/sweep
func (h *Handler) SweepOrders(w http.ResponseWriter, r *http.Request) {
	result, err := h.matcher.Sweep(r.Context())
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// SweepWalletFees runs one wallet fee charge sweep. POST /api/v1/wallet-fees/sweep
func (h *Handler) SweepWalletFees(w http.ResponseWriter, r *http.Request) {
	result, err := h.billing.ChargeDueFees(r.Context())
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// CreateReferral handles POST /api/v1/referrals
func (h *Handler) CreateReferral(w http.ResponseWriter, r *http.Request) {
	var req ReferralRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}

	referral, err := h.billing.CreateReferral(r.Context(), req.ReferrerId, req.ReferredId)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"success":  true,
		"referral": referral,
	})
}

func (h *Handler) MintSupply(w http.ResponseWriter, r *http.Request) {
	var req SupplyAmountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}

	supply, err := h.supply.Mint(r.Context(), req.Amount)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	h.respondWithSupply(w, supply)
}

func (h *Handler) UnlockSupply(w http.ResponseWriter, r *http.Request) {
	var req SupplyAmountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}

	supply, err := h.supply.Unlock(r.Context(), req.Amount)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	h.respondWithSupply(w, supply)
}

// respondWithSupply answers with the new counters and the price they imply.
func (h *Handler) respondWithSupply(w http.ResponseWriter, supply *models.TokenSupply) {
	response := map[string]interface{}{
		"success": true,
		"supply":  supply,
	}
	if price, err := h.prices.Engine().PriceOf(supply); err == nil {
		response["price"] = price
	}
	respondWithJSON(w, http.StatusOK, response)
}

// GetFeeSummary handles GET /api/v1/admin/fees/summary
func (h *Handler) GetFeeSummary(w http.ResponseWriter, r *http.Request) {
	totals, err := h.store.GetFeeSummary(r.Context())
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	if totals == nil {
		totals = []models.FeeTotal{}
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"fees":    totals,
	})
}
