package api

import (
	"net/http"
	"strconv"

	"token-settlement-go/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

type RegisterUserRequest struct {
	UserId     string `json:"userId"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	ReferrerId string `json:"referrerId"`
}

type UsdAmountRequest struct {
	UsdAmount decimal.Decimal `json:"usdAmount"`
}

type TokenAmountRequest struct {
	TokenAmount decimal.Decimal `json:"tokenAmount"`
}

type TransferRequest struct {
	ToUserId    string          `json:"toUserId"`
	TokenAmount decimal.Decimal `json:"tokenAmount"`
}

type PlaceOrderRequest struct {
	OrderType  string          `json:"orderType"`
	Amount     decimal.Decimal `json:"amount"`
	LimitPrice decimal.Decimal `json:"limitPrice"`
}

// RegisterUser creates a user and wallet, attributing the referral when given.
// POST /api/v1/users
func (h *Handler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req RegisterUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}
	if req.UserId == "" {
		req.UserId = uuid.New().String()
	}

	user, wallet, err := h.billing.RegisterUser(r.Context(), req.UserId, req.Name, req.Email)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	response := map[string]interface{}{
		"success": true,
		"user":    user,
		"wallet":  models.NewWalletView(wallet),
		"walletFee": models.WalletFeeStatus{
			WalletFeeDueAt: wallet.WalletFeeDueAt,
			IsPending:      wallet.WalletFeeDueAt != nil,
		},
	}

	if req.ReferrerId != "" {
		referral, err := h.billing.CreateReferral(r.Context(), req.ReferrerId, user.Id)
		if err != nil {
			zap.L().Warn("User created but referral was rejected",
				zap.String("user_id", user.Id),
				zap.String("referrer_id", req.ReferrerId),
				zap.Error(err))
			response["referralError"] = err.Error()
		} else {
			response["referral"] = referral
		}
	}

	respondWithJSON(w, http.StatusCreated, response)
}

// Buy handles POST /api/v1/users/{userId}/buy
func (h *Handler) Buy(w http.ResponseWriter, r *http.Request) {
	var req UsdAmountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}

	result, err := h.trading.Buy(r.Context(), chi.URLParam(r, "userId"), req.UsdAmount)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// Sell handles POST /api/v1/users/{userId}/sell
func (h *Handler) Sell(w http.ResponseWriter, r *http.Request) {
	var req TokenAmountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}

	result, err := h.trading.Sell(r.Context(), chi.URLParam(r, "userId"), req.TokenAmount)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req UsdAmountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}

	result, err := h.trading.Deposit(r.Context(), chi.URLParam(r, "userId"), req.UsdAmount)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req UsdAmountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}

	result, err := h.trading.Withdraw(r.Context(), chi.URLParam(r, "userId"), req.UsdAmount)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}

	result, err := h.trading.Transfer(r.Context(), chi.URLParam(r, "userId"), req.ToUserId, req.TokenAmount)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

func (h *Handler) Stake(w http.ResponseWriter, r *http.Request) {
	var req TokenAmountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}

	result, err := h.trading.Stake(r.Context(), chi.URLParam(r, "userId"), req.TokenAmount)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// PlaceOrder handles POST /api/v1/users/{userId}/orders
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req PlaceOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}

	order, err := h.trading.PlaceOrder(r.Context(), chi.URLParam(r, "userId"), req.OrderType, req.Amount, req.LimitPrice)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"order":   order,
	})
}

// CancelOrder handles DELETE /api/v1/users/{userId}/orders/{orderId}
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.trading.CancelOrder(r.Context(), chi.URLParam(r, "userId"), chi.URLParam(r, "orderId"))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"order":   order,
	})
}

func (h *Handler) GetWallet(w http.ResponseWriter, r *http.Request) {
	wallet, err := h.trading.Wallet(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"wallet":  models.NewWalletView(wallet),
	})
}

// GetWalletFeeStatus handles GET /api/v1/users/{userId}/wallet-fee
func (h *Handler) GetWalletFeeStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.billing.Status(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, status)
}

// GetTransactionHistory handles GET /api/v1/users/{userId}/transactions
func (h *Handler) GetTransactionHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}

	transactions, err := h.store.GetTransactionHistory(r.Context(), chi.URLParam(r, "userId"), limit, offset)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	if transactions == nil {
		transactions = []models.Transaction{}
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"data":   transactions,
		"limit":  limit,
		"offset": offset,
	})
}
