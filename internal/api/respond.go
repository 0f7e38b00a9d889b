package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"token-settlement-go/internal/billing"
	"token-settlement-go/internal/fees"
	"token-settlement-go/internal/ledger"
	"token-settlement-go/internal/matcher"
	"token-settlement-go/internal/models"
	"token-settlement-go/internal/pricing"
	"token-settlement-go/internal/store"
	"token-settlement-go/internal/supply"
	"token-settlement-go/internal/trading"

	"go.uber.org/zap"
)

var errInvalidBody = errors.New("invalid request body")

// maxBodyBytes caps request bodies; every request here is a handful of fields.
const maxBodyBytes = 1 << 16

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	return nil
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		zap.L().Error("Failed to marshal JSON response", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

func respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	body := models.ErrorResponse{Success: false, Error: err.Error()}

	var (
		supplyErr  *store.InsufficientSupplyError
		balanceErr *store.InsufficientBalanceError
	)
	switch {
	case errors.As(err, &supplyErr):
		body.Details = map[string]string{
			"requested": supplyErr.Requested.String(),
			"available": supplyErr.Available.String(),
			"shortfall": supplyErr.Shortfall().String(),
		}
	case errors.As(err, &balanceErr):
		body.Details = map[string]string{
			"currency":  balanceErr.Currency,
			"required":  balanceErr.Required.String(),
			"available": balanceErr.Available.String(),
			"shortfall": balanceErr.Shortfall().String(),
		}
	}

	if code == http.StatusInternalServerError {
		zap.L().Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		body.Error = "internal server error"
	}

	respondWithJSON(w, code, body)
}

func statusFor(err error) int {
	switch {
	case isAny(err,
		errInvalidBody,
		trading.ErrInvalidAmount,
		trading.ErrInvalidLimitPrice,
		trading.ErrInvalidOrderType,
		trading.ErrSelfTransfer,
		ledger.ErrInvalidAmount,
		supply.ErrInvalidAmount,
		fees.ErrNegativeAmount,
		billing.ErrSelfReferral,
		pricing.ErrNoTradableSupply,
		store.ErrInsufficientBalance,
		store.ErrInsufficientSupply,
		store.ErrWalletFeeLocked):
		return http.StatusBadRequest
	case isAny(err,
		store.ErrUserNotFound,
		store.ErrWalletNotFound,
		store.ErrOrderNotFound,
		trading.ErrOrderNotOwned):
		return http.StatusNotFound
	case isAny(err,
		store.ErrDuplicateUser,
		store.ErrDuplicateReferral,
		store.ErrOrderNotPending,
		matcher.ErrSweepInProgress,
		billing.ErrFeeSweepInProgress):
		return http.StatusConflict
	case errors.Is(err, store.ErrSupplyNotInitialized):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func isAny(err error, targets ...error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
