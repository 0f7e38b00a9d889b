package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"token-settlement-go/internal/common"
	"token-settlement-go/internal/models"
	"token-settlement-go/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	router   http.Handler
	services *common.Services
}

func newTestServer(t *testing.T, seed bool) *testServer {
	t.Helper()

	dir := t.TempDir()
	cfg := &models.Config{
		Database: models.DatabaseConfig{
			Driver:       "sqlite3",
			Path:         filepath.Join(dir, "api.db"),
			MaxOpenConns: 4,
			MaxIdleConns: 4,
			PingTimeout:  5 * time.Second,
		},
		Billing: models.BillingConfig{
			GracePeriod:            30 * 24 * time.Hour,
			ReferralWindow:         30 * 24 * time.Hour,
			ReferralStakeThreshold: decimal.NewFromInt(1000),
		},
		TokenomicsFile: filepath.Join(dir, "missing.yaml"),
		AdminUserId:    testutil.AdminUserId,
	}

	services, err := common.InitializeServices(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(services.Close)

	if seed {
		testutil.SeedSupply(t, services.DbService, "1000000", "1000000")
	}
	return &testServer{
		router:   NewRouter(NewHandler(services), services.Registry, 5*time.Second),
		services: services,
	}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func (s *testServer) register(t *testing.T, userId string) {
	t.Helper()

	rec, _ := s.do(t, http.MethodPost, "/api/v1/users", RegisterUserRequest{
		UserId: userId,
		Name:   userId,
		Email:  userId + "@example.com",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func (s *testServer) deposit(t *testing.T, userId, amount string) {
	t.Helper()

	rec, _ := s.do(t, http.MethodPost, "/api/v1/users/"+userId+"/deposit",
		map[string]string{"usdAmount": amount})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func wallet(t *testing.T, body map[string]interface{}, key string) map[string]interface{} {
	t.Helper()

	w, ok := body[key].(map[string]interface{})
	require.True(t, ok, "missing %s in %v", key, body)
	return w
}

func TestHealth(t *testing.T) {
	t.Run("supply not initialized", func(t *testing.T) {
		s := newTestServer(t, false)
		rec, body := s.do(t, http.MethodGet, "/health", nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, false, body["success"])
	})

	t.Run("ready", func(t *testing.T) {
		s := newTestServer(t, true)
		rec, body := s.do(t, http.MethodGet, "/health", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ok", body["status"])
	})
}

func TestRegisterUser(t *testing.T) {
	s := newTestServer(t, true)

	rec, body := s.do(t, http.MethodPost, "/api/v1/users", RegisterUserRequest{Name: "Alice", Email: "alice@example.com"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	user := wallet(t, body, "user")
	assert.NotEmpty(t, user["id"])
	fee := wallet(t, body, "walletFee")
	assert.Equal(t, true, fee["isPending"])
	assert.Equal(t, "0", wallet(t, body, "wallet")["usdBalance"])

	rec, body = s.do(t, http.MethodPost, "/api/v1/users", RegisterUserRequest{
		UserId:     "bob",
		Name:       "Bob",
		Email:      "bob@example.com",
		ReferrerId: user["id"].(string),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	referral := wallet(t, body, "referral")
	assert.Equal(t, "bob", referral["referredId"])

	rec, body = s.do(t, http.MethodPost, "/api/v1/users", RegisterUserRequest{UserId: "bob", Name: "Bob", Email: "other@example.com"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, false, body["success"])
}

func TestBuySellOverHTTP(t *testing.T) {
	s := newTestServer(t, true)
	s.register(t, "alice")
	s.deposit(t, "alice", "500")

	rec, body := s.do(t, http.MethodPost, "/api/v1/users/alice/buy", map[string]string{"usdAmount": "100"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	txn := wallet(t, body, "transaction")
	assert.Equal(t, "1", txn["fee"])
	assert.Equal(t, "99", txn["netAmount"])
	assert.Equal(t, "0.0035", txn["pricePerToken"])
	assert.Equal(t, "28285.71428571", txn["tokensReceived"])
	assert.Equal(t, "400", wallet(t, body, "newWallet")["usdBalance"])

	rec, body = s.do(t, http.MethodPost, "/api/v1/users/alice/sell", map[string]string{"tokenAmount": "1000000"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, body["success"])

	rec, body = s.do(t, http.MethodGet, "/api/v1/users/alice/transactions?limit=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["data"], 1)
	assert.EqualValues(t, 1, body["limit"])
}

func TestBuyBeyondSupplyReportsShortfall(t *testing.T) {
	s := newTestServer(t, false)
	testutil.SeedSupply(t, s.services.DbService, "1000000", "1000")
	s.register(t, "whale")
	s.deposit(t, "whale", "10000")

	rec, body := s.do(t, http.MethodPost, "/api/v1/users/whale/buy", map[string]string{"usdAmount": "10000"})
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	details := wallet(t, body, "details")
	assert.Equal(t, "1000", details["available"])
	assert.NotEmpty(t, details["shortfall"])
}

func TestBuyBeyondBalanceReportsShortfall(t *testing.T) {
	s := newTestServer(t, true)
	s.register(t, "alice")
	s.deposit(t, "alice", "50")

	rec, body := s.do(t, http.MethodPost, "/api/v1/users/alice/buy", map[string]string{"usdAmount": "100"})
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Equal(t, false, body["success"])
	details := wallet(t, body, "details")
	assert.Equal(t, "USD", details["currency"])
	assert.Equal(t, "100", details["required"])
	assert.Equal(t, "50", details["available"])
	assert.Equal(t, "50", details["shortfall"])

	rec, body = s.do(t, http.MethodPost, "/api/v1/users/alice/sell", map[string]string{"tokenAmount": "10"})
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	details = wallet(t, body, "details")
	assert.Equal(t, "TOKEN", details["currency"])
	assert.Equal(t, "0", details["available"])
}

func TestErrorStatusCodes(t *testing.T) {
	s := newTestServer(t, true)
	s.register(t, "alice")

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		want   int
	}{
		{"unknown field", http.MethodPost, "/api/v1/users/alice/deposit", map[string]string{"amount": "5"}, http.StatusBadRequest},
		{"malformed body", http.MethodPost, "/api/v1/users/alice/deposit", "not an object", http.StatusBadRequest},
		{"zero deposit", http.MethodPost, "/api/v1/users/alice/deposit", map[string]string{"usdAmount": "0"}, http.StatusBadRequest},
		{"insufficient balance", http.MethodPost, "/api/v1/users/alice/withdraw", map[string]string{"usdAmount": "5"}, http.StatusBadRequest},
		{"unknown user wallet", http.MethodGet, "/api/v1/users/ghost/wallet", nil, http.StatusNotFound},
		{"unknown user deposit", http.MethodPost, "/api/v1/users/ghost/deposit", map[string]string{"usdAmount": "5"}, http.StatusNotFound},
		{"self transfer", http.MethodPost, "/api/v1/users/alice/transfer", TransferRequest{ToUserId: "alice", TokenAmount: decimal.NewFromInt(1)}, http.StatusBadRequest},
		{"self referral", http.MethodPost, "/api/v1/referrals", ReferralRequest{ReferrerId: "alice", ReferredId: "alice"}, http.StatusBadRequest},
		{"unknown order", http.MethodDelete, "/api/v1/users/alice/orders/nope", nil, http.StatusNotFound},
		{"bad order type", http.MethodPost, "/api/v1/users/alice/orders", map[string]string{"orderType": "HOLD", "amount": "1", "limitPrice": "1"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := s.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			assert.Equal(t, false, body["success"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestOrdersAndSweep(t *testing.T) {
	s := newTestServer(t, true)
	s.register(t, "alice")
	s.deposit(t, "alice", "500")

	rec, body := s.do(t, http.MethodPost, "/api/v1/users/alice/orders", PlaceOrderRequest{
		OrderType:  "BUY",
		Amount:     decimal.NewFromInt(100),
		LimitPrice: decimal.RequireFromString("0.0040"),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	order := wallet(t, body, "order")
	assert.Equal(t, "PENDING", order["status"])

	rec, body = s.do(t, http.MethodPost, "/api/v1/users/alice/orders", PlaceOrderRequest{
		OrderType:  "SELL",
		Amount:     decimal.NewFromInt(10),
		LimitPrice: decimal.RequireFromString("1"),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	toCancel := wallet(t, body, "order")["id"].(string)

	rec, body = s.do(t, http.MethodDelete, "/api/v1/users/alice/orders/"+toCancel, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "CANCELED", wallet(t, body, "order")["status"])

	rec, _ = s.do(t, http.MethodDelete, "/api/v1/users/alice/orders/"+toCancel, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, body = s.do(t, http.MethodPost, "/api/v1/orders/sweep", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 1, body["executedCount"])
	assert.Equal(t, "0.0035", body["currentPrice"])

	rec, body = s.do(t, http.MethodGet, "/api/v1/users/alice/wallet", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "400", wallet(t, body, "wallet")["usdBalance"])
}

func TestWalletFeeEndpoints(t *testing.T) {
	s := newTestServer(t, true)
	s.register(t, "alice")

	rec, body := s.do(t, http.MethodGet, "/api/v1/users/alice/wallet-fee", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, body["isPending"])
	assert.EqualValues(t, 30, body["daysRemaining"])

	rec, body = s.do(t, http.MethodPost, "/api/v1/wallet-fees/sweep", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 0, body["chargedCount"])
}

func TestAdminSupplyAndPrice(t *testing.T) {
	s := newTestServer(t, false)
	testutil.SeedSupply(t, s.services.DbService, "1000000", "500000")

	rec, body := s.do(t, http.MethodGet, "/api/v1/price", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "0.007", body["price"])
	assert.Equal(t, "500000", body["userSupplyRemaining"])

	rec, body = s.do(t, http.MethodPost, "/api/v1/admin/supply/unlock", SupplyAmountRequest{Amount: decimal.NewFromInt(500000)})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "0.0035", body["price"])

	rec, _ = s.do(t, http.MethodPost, "/api/v1/admin/supply/unlock", SupplyAmountRequest{Amount: decimal.NewFromInt(1)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = s.do(t, http.MethodPost, "/api/v1/admin/supply/mint", SupplyAmountRequest{Amount: decimal.NewFromInt(1000)})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "1001000", wallet(t, body, "supply")["totalSupply"])

	rec, body = s.do(t, http.MethodGet, "/api/v1/admin/fees/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, true)
	s.do(t, http.MethodGet, "/api/v1/price", nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "settlement_token_price")
}
