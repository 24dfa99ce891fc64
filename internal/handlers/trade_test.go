package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/atharvakonge/paper-trader/internal/auth"
	"github.com/atharvakonge/paper-trader/internal/ledger"
	"github.com/atharvakonge/paper-trader/internal/models"
	"github.com/atharvakonge/paper-trader/internal/quotes"
	"github.com/atharvakonge/paper-trader/internal/store"
)

type fixedQuoter struct {
	prices map[string]decimal.Decimal
	err    error
}

func (q *fixedQuoter) Quote(ctx context.Context, symbol string) (quotes.Quote, error) {
	if q.err != nil {
		return quotes.Quote{}, q.err
	}
	price, ok := q.prices[symbol]
	if !ok {
		return quotes.Quote{}, quotes.ErrInvalidSymbol
	}
	return quotes.Quote{Symbol: symbol, Price: price, AsOf: time.Now()}, nil
}

type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) { return "h:" + password, nil }

func (fakeHasher) Compare(hash, password string) error {
	if hash != "h:"+password {
		return errors.New("mismatch")
	}
	return nil
}

type testApp struct {
	router    *gin.Engine
	processor *TradeProcessor
	store     store.Store
	quoter    *fixedQuoter
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := store.NewMemoryStore()
	quoter := &fixedQuoter{prices: map[string]decimal.Decimal{
		"AAPL": decimal.NewFromInt(150),
	}}

	engine := ledger.NewEngine(st, quoter)
	reporter := ledger.NewReporter(st)
	authService := auth.NewService(st, fakeHasher{}, decimal.NewFromInt(10000))

	processor := NewTradeProcessor(engine, 2)
	processor.Start()
	t.Cleanup(processor.Stop)

	authHandler := NewAuthHandler(authService)
	tradeHandler := NewTradeHandler(processor, reporter, quoter)

	router := gin.New()
	router.POST("/auth/create-account", authHandler.Register)
	router.POST("/auth/login", authHandler.Login)
	router.PATCH("/auth/change-password", SessionMiddleware(authService), authHandler.ChangePassword)
	router.GET("/stocks/quote/:symbol", tradeHandler.Quote)

	authed := router.Group("/stocks", SessionMiddleware(authService))
	authed.POST("/buy", tradeHandler.Buy)
	authed.POST("/sell", tradeHandler.Sell)
	authed.GET("/portfolio", tradeHandler.Portfolio)

	return &testApp{router: router, processor: processor, store: st, quoter: quoter}
}

func (app *testApp) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, req)
	return w
}

func (app *testApp) registerAndLogin(t *testing.T, username string) string {
	t.Helper()

	w := app.do(t, http.MethodPost, "/auth/create-account", "", gin.H{
		"username": username, "password": "hunter2hunter2",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register returned %d: %s", w.Code, w.Body.String())
	}

	w = app.do(t, http.MethodPost, "/auth/login", "", gin.H{
		"username": username, "password": "hunter2hunter2",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login returned %d: %s", w.Code, w.Body.String())
	}

	var res struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}
	return res.Token
}

func TestBuyEndpoint(t *testing.T) {
	app := newTestApp(t)
	token := app.registerAndLogin(t, "alice")

	w := app.do(t, http.MethodPost, "/stocks/buy", token, gin.H{
		"symbol": "AAPL", "quantity": "2",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("buy returned %d: %s", w.Code, w.Body.String())
	}

	var res models.TradeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !res.NewBalance.Equal(decimal.NewFromInt(9700)) {
		t.Errorf("expected new balance 9700, got %s", res.NewBalance)
	}
}

func TestBuyRequiresSession(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodPost, "/stocks/buy", "", gin.H{
		"symbol": "AAPL", "quantity": "2",
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", w.Code)
	}

	w = app.do(t, http.MethodPost, "/stocks/buy", "bogus-token", gin.H{
		"symbol": "AAPL", "quantity": "2",
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with bogus token, got %d", w.Code)
	}
}

func TestBuyErrorMapping(t *testing.T) {
	app := newTestApp(t)
	token := app.registerAndLogin(t, "alice")

	// Insufficient funds: 10000 balance, 100 * 150 = 15000
	w := app.do(t, http.MethodPost, "/stocks/buy", token, gin.H{
		"symbol": "AAPL", "quantity": "100",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for insufficient funds, got %d: %s", w.Code, w.Body.String())
	}

	// Unknown symbol
	w = app.do(t, http.MethodPost, "/stocks/buy", token, gin.H{
		"symbol": "NOPE", "quantity": "1",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown symbol, got %d", w.Code)
	}

	// Oracle outage maps to a gateway error
	app.quoter.err = quotes.ErrUnavailable
	w = app.do(t, http.MethodPost, "/stocks/buy", token, gin.H{
		"symbol": "AAPL", "quantity": "1",
	})
	if w.Code != http.StatusBadGateway {
		t.Errorf("expected 502 for oracle outage, got %d", w.Code)
	}
}

func TestSellEndpointAndPortfolio(t *testing.T) {
	app := newTestApp(t)
	token := app.registerAndLogin(t, "alice")

	w := app.do(t, http.MethodPost, "/stocks/buy", token, gin.H{
		"symbol": "AAPL", "quantity": "10",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("buy returned %d: %s", w.Code, w.Body.String())
	}

	w = app.do(t, http.MethodPost, "/stocks/sell", token, gin.H{
		"symbol": "AAPL", "quantity": "4",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("sell returned %d: %s", w.Code, w.Body.String())
	}

	w = app.do(t, http.MethodGet, "/stocks/portfolio", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("portfolio returned %d: %s", w.Code, w.Body.String())
	}

	var snapshot models.PortfolioSnapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snapshot); err != nil {
		t.Fatalf("failed to decode snapshot: %v", err)
	}
	if snapshot.Username != "alice" {
		t.Errorf("expected username alice, got %s", snapshot.Username)
	}
	if len(snapshot.Positions) != 1 {
		t.Fatalf("expected 1 holding, got %d", len(snapshot.Positions))
	}
	if !snapshot.Positions[0].Quantity.Equal(decimal.NewFromInt(6)) {
		t.Errorf("expected quantity 6, got %s", snapshot.Positions[0].Quantity)
	}
	// 6 * 150 cost basis
	if !snapshot.TotalValue.Equal(decimal.NewFromInt(900)) {
		t.Errorf("expected total value 900, got %s", snapshot.TotalValue)
	}
}

func TestSellMoreThanOwned(t *testing.T) {
	app := newTestApp(t)
	token := app.registerAndLogin(t, "alice")

	w := app.do(t, http.MethodPost, "/stocks/buy", token, gin.H{
		"symbol": "AAPL", "quantity": "3",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("buy returned %d: %s", w.Code, w.Body.String())
	}

	w = app.do(t, http.MethodPost, "/stocks/sell", token, gin.H{
		"symbol": "AAPL", "quantity": "5",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for oversized sell, got %d: %s", w.Code, w.Body.String())
	}
}

func TestQuoteEndpoint(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodGet, "/stocks/quote/AAPL", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("quote returned %d: %s", w.Code, w.Body.String())
	}

	var quote quotes.Quote
	if err := json.Unmarshal(w.Body.Bytes(), &quote); err != nil {
		t.Fatalf("failed to decode quote: %v", err)
	}
	if !quote.Price.Equal(decimal.NewFromInt(150)) {
		t.Errorf("expected price 150, got %s", quote.Price)
	}

	w = app.do(t, http.MethodGet, "/stocks/quote/NOPE", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown symbol, got %d", w.Code)
	}
}

func TestChangePasswordEndpoint(t *testing.T) {
	app := newTestApp(t)
	token := app.registerAndLogin(t, "alice")

	w := app.do(t, http.MethodPatch, "/auth/change-password", token, gin.H{
		"old_password": "wrong", "new_password": "newpassword1",
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for wrong old password, got %d", w.Code)
	}

	w = app.do(t, http.MethodPatch, "/auth/change-password", token, gin.H{
		"old_password": "hunter2hunter2", "new_password": "newpassword1",
	})
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = app.do(t, http.MethodPost, "/auth/login", "", gin.H{
		"username": "alice", "password": "newpassword1",
	})
	if w.Code != http.StatusOK {
		t.Errorf("login with new password returned %d", w.Code)
	}
}

func TestRegisterDuplicateUsernameEndpoint(t *testing.T) {
	app := newTestApp(t)
	app.registerAndLogin(t, "alice")

	w := app.do(t, http.MethodPost, "/auth/create-account", "", gin.H{
		"username": "alice", "password": "hunter2hunter2",
	})
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409 for duplicate username, got %d", w.Code)
	}
}
