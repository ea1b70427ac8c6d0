package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"finledger/internal/config"
	"finledger/internal/infrastructure/database"
	"finledger/internal/infrastructure/lock"
	"finledger/internal/logger"
	"finledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type apiResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type api struct {
	t      *testing.T
	router *gin.Engine
}

func newAPI(t *testing.T) *api {
	t.Helper()

	cfg := config.Default()
	cfg.Server.Mode = gin.TestMode
	cfg.Database = config.DatabaseConfig{
		Driver:   database.DriverSQLite,
		Path:     filepath.Join(t.TempDir(), "api.db"),
		LogLevel: "silent",
	}
	db, err := database.Open(&cfg.Database)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	sqlDB, _ := db.DB()
	t.Cleanup(func() { sqlDB.Close() })

	return &api{t: t, router: SetupRouter(db, lock.NewLocalLocker(), cfg, logger.Nop())}
}

func (a *api) do(method, path string, body interface{}) (*httptest.ResponseRecorder, apiResponse) {
	a.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			a.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var resp apiResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		a.t.Fatalf("%s %s: decode %q: %v", method, path, w.Body.String(), err)
	}
	return w, resp
}

// ok performs the request, requires success and decodes data into out.
func (a *api) ok(method, path string, body, out interface{}) {
	a.t.Helper()
	_, resp := a.do(method, path, body)
	if resp.Code != response.CodeSuccess {
		a.t.Fatalf("%s %s: code %d: %s", method, path, resp.Code, resp.Message)
	}
	if out != nil {
		if err := json.Unmarshal(resp.Data, out); err != nil {
			a.t.Fatalf("%s %s: decode data: %v", method, path, err)
		}
	}
}

type idOnly struct {
	ID int64 `json:"id"`
}

type accountView struct {
	ID      int64           `json:"id"`
	Balance decimal.Decimal `json:"balance"`
}

func TestTransactionLifecycleOverHTTP(t *testing.T) {
	a := newAPI(t)

	a.ok(http.MethodPut, "/api/v1/currencies", gin.H{"code": "EUR", "exchange_rate_to_eur": "1"}, nil)

	var typ idOnly
	a.ok(http.MethodPost, "/api/v1/types", gin.H{"name": "Groceries", "category": "expense"}, &typ)

	var acc accountView
	a.ok(http.MethodPost, "/api/v1/accounts", gin.H{"name": "Checking", "currency": "EUR", "opening_balance": "100"}, &acc)

	var trans idOnly
	a.ok(http.MethodPost, "/api/v1/transactions", gin.H{
		"account_id": acc.ID,
		"amount":     "-30",
		"type_id":    typ.ID,
		"date":       "2024-03-10T00:00:00Z",
		"confirmed":  true,
	}, &trans)

	a.ok(http.MethodGet, "/api/v1/accounts/"+itoa(acc.ID), nil, &acc)
	if !acc.Balance.Equal(decimal.NewFromInt(70)) {
		t.Fatalf("balance after post = %s, want 70", acc.Balance)
	}

	a.ok(http.MethodDelete, "/api/v1/transactions/"+itoa(trans.ID), nil, nil)

	a.ok(http.MethodGet, "/api/v1/accounts/"+itoa(acc.ID), nil, &acc)
	if !acc.Balance.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("balance after delete = %s, want 100", acc.Balance)
	}

	var report struct {
		DryRun          bool `json:"dry_run"`
		AccountsChecked int  `json:"accounts_checked"`
	}
	a.ok(http.MethodPost, "/api/v1/admin/recalculate?dry_run=true", nil, &report)
	if !report.DryRun || report.AccountsChecked != 1 {
		t.Fatalf("report = %+v", report)
	}
}

func TestErrorCodes(t *testing.T) {
	a := newAPI(t)
	a.ok(http.MethodPut, "/api/v1/currencies", gin.H{"code": "EUR", "exchange_rate_to_eur": "1"}, nil)

	var acc accountView
	a.ok(http.MethodPost, "/api/v1/accounts", gin.H{"name": "Checking", "currency": "EUR"}, &acc)

	tests := []struct {
		name     string
		method   string
		path     string
		body     interface{}
		wantCode int
	}{
		{"missing account", http.MethodGet, "/api/v1/accounts/999", nil, response.CodeAccountNotFound},
		{"bad id", http.MethodGet, "/api/v1/accounts/abc", nil, response.CodeParamError},
		{"zero amount", http.MethodPost, "/api/v1/transactions", gin.H{"account_id": acc.ID, "amount": "0"}, response.CodeInvalidAmount},
		{"self transfer", http.MethodPost, "/api/v1/transfers", gin.H{
			"source_account_id": acc.ID,
			"dest_account_id":   acc.ID,
			"amount":            "10",
		}, response.CodeInvalidTransfer},
		{"unknown currency", http.MethodGet, "/api/v1/currencies/convert?amount=1&from=EUR&to=XYZ", nil, response.CodeUnknownCurrency},
		{"missing body field", http.MethodPost, "/api/v1/accounts", gin.H{"currency": "EUR"}, response.CodeParamError},
		{"bad date", http.MethodGet, "/api/v1/transactions?from=yesterday", nil, response.CodeParamError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := a.do(tt.method, tt.path, tt.body)
			if w.Code != http.StatusOK {
				t.Fatalf("http status = %d", w.Code)
			}
			if resp.Code != tt.wantCode {
				t.Fatalf("code = %d (%s), want %d", resp.Code, resp.Message, tt.wantCode)
			}
		})
	}
}

func TestRequestIDAndHealth(t *testing.T) {
	a := newAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("health status = %d", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatal("no request id assigned")
	}

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w = httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Fatalf("request id = %q, want caller's", got)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RecoveryMiddleware(logger.Nop()))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
