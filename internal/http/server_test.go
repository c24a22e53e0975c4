package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tally/internal/core"
	"tally/internal/services"
	"tally/internal/storage"
)

func newTestServer(t *testing.T) (*Server, *storage.SQLiteRepository) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "tally.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	ledger := services.NewLedger(repo, nil)
	summary := services.NewSummary(repo)
	recurring := services.NewRecurringProcessor(repo, nil)
	srv := NewServer(":0", []string{"*"}, ledger, summary, recurring)
	t.Cleanup(func() { srv.rateLimiter.stop() })
	return srv, repo
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func createAccount(t *testing.T, srv *Server, name string, cents int64) core.Account {
	t.Helper()
	rec := doJSON(t, srv, http.MethodPost, "/api/accounts", map[string]any{
		"name":     name,
		"balance":  cents,
		"currency": "EUR",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[core.Account](t, rec)
}

func TestAccountEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	acc := createAccount(t, srv, "Checking", 50000)
	assert.Equal(t, "Checking", acc.Name)
	assert.Equal(t, int64(50000), acc.Balance.Cents)

	rec := doJSON(t, srv, http.MethodGet, "/api/accounts", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	accounts := decodeBody[[]core.Account](t, rec)
	require.Len(t, accounts, 1)

	rec = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/accounts/%d", acc.ID), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/accounts/999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/accounts", map[string]any{"name": ""})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestTransactionEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)
	acc := createAccount(t, srv, "Checking", 0)

	rec := doJSON(t, srv, http.MethodPost, "/api/transactions", map[string]any{
		"type":            "income",
		"amount":          100000,
		"accountId":       acc.ID,
		"transactionDate": "2026-02-01",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	txn := decodeBody[core.Transaction](t, rec)
	assert.Equal(t, int64(100000), txn.Amount.Cents)

	// Balance moved.
	rec = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/accounts/%d", acc.ID), nil)
	got := decodeBody[core.Account](t, rec)
	assert.Equal(t, int64(100000), got.Balance.Cents)

	// Transfers must name a destination account.
	rec = doJSON(t, srv, http.MethodPost, "/api/transactions", map[string]any{
		"type":            "transfer",
		"amount":          5000,
		"accountId":       acc.ID,
		"transactionDate": "2026-02-02",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// Account with history cannot be deleted.
	rec = doJSON(t, srv, http.MethodDelete, fmt.Sprintf("/api/accounts/%d", acc.ID), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Update halves the amount; the balance follows.
	rec = doJSON(t, srv, http.MethodPut, fmt.Sprintf("/api/transactions/%d", txn.ID), map[string]any{
		"type":            "income",
		"amount":          50000,
		"accountId":       acc.ID,
		"transactionDate": "2026-02-01",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/accounts/%d", acc.ID), nil)
	got = decodeBody[core.Account](t, rec)
	assert.Equal(t, int64(50000), got.Balance.Cents)

	// Delete reverses the remaining effect.
	rec = doJSON(t, srv, http.MethodDelete, fmt.Sprintf("/api/transactions/%d", txn.ID), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/accounts/%d", acc.ID), nil)
	got = decodeBody[core.Account](t, rec)
	assert.Equal(t, int64(0), got.Balance.Cents)

	rec = doJSON(t, srv, http.MethodDelete, fmt.Sprintf("/api/transactions/%d", txn.ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListTransactionsPaged(t *testing.T) {
	srv, _ := newTestServer(t)
	acc := createAccount(t, srv, "Checking", 0)

	for day := 1; day <= 5; day++ {
		rec := doJSON(t, srv, http.MethodPost, "/api/transactions", map[string]any{
			"type":            "income",
			"amount":          100,
			"accountId":       acc.ID,
			"transactionDate": fmt.Sprintf("2026-02-%02d", day),
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doJSON(t, srv, http.MethodGet, "/api/transactions?page=2&limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decodeBody[transactionPage](t, rec)
	assert.Equal(t, int64(5), page.Total)
	assert.Equal(t, 2, page.Page)
	require.Len(t, page.Items, 2)
	// Date descending: page 2 of limit 2 holds days 3 and 2.
	assert.Equal(t, "2026-02-03", page.Items[0].Date.ISO())
	assert.Equal(t, "2026-02-02", page.Items[1].Date.ISO())
}

func TestMonthlySummaryEndpointMaterializesRecurring(t *testing.T) {
	srv, _ := newTestServer(t)
	acc := createAccount(t, srv, "Checking", 0)

	rec := doJSON(t, srv, http.MethodPost, "/api/transactions", map[string]any{
		"type":            "expense",
		"amount":          90000,
		"description":     "Rent",
		"accountId":       acc.ID,
		"transactionDate": "2026-01-01",
		"isRecurring":     true,
		"recurrence":      map[string]any{"interval": "monthly", "nextDate": "2026-02-01"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, srv, http.MethodGet, "/api/summary/monthly?year=2026&month=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decodeBody[core.MonthlySummary](t, rec)
	assert.Equal(t, 2026, summary.Year)
	assert.Equal(t, 2, summary.Month)
	// The due occurrence was materialized before aggregation.
	assert.Equal(t, int64(90000), summary.TotalExpense.Cents)
}

func TestProcessRecurringEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	acc := createAccount(t, srv, "Checking", 0)

	rec := doJSON(t, srv, http.MethodPost, "/api/transactions", map[string]any{
		"type":            "expense",
		"amount":          4500,
		"description":     "Gym",
		"accountId":       acc.ID,
		"transactionDate": "2026-01-10",
		"isRecurring":     true,
		"recurrence":      map[string]any{"interval": "monthly", "nextDate": "2026-02-10"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, srv, http.MethodPost, "/api/recurring/process", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[processRecurringResponse](t, rec)
	assert.Equal(t, 1, resp.Created)
}

func TestTrendEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/summary/trend?months=3", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	points := decodeBody[[]core.TrendPoint](t, rec)
	assert.Len(t, points, 3)

	rec = doJSON(t, srv, http.MethodGet, "/api/summary/trend?months=0", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportCSVEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	acc := createAccount(t, srv, "Checking", 0)

	rec := doJSON(t, srv, http.MethodPost, "/api/transactions", map[string]any{
		"type":            "income",
		"amount":          12345,
		"description":     "Invoice",
		"accountId":       acc.ID,
		"transactionDate": "2026-02-01",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/export/transactions.csv", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "id,date,type,amount")
	assert.Contains(t, lines[1], "2026-02-01,income,123.45,Invoice")
}

func TestVerifyBalancesEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	acc := createAccount(t, srv, "Checking", 10000)

	rec := doJSON(t, srv, http.MethodPost, "/api/transactions", map[string]any{
		"type":            "expense",
		"amount":          2500,
		"accountId":       acc.ID,
		"transactionDate": "2026-02-01",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/admin/verify-balances", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[verifyBalancesResponse](t, rec)
	assert.True(t, resp.Consistent)
	assert.Empty(t, resp.Drifts)
}

func TestCategoryEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/categories", map[string]any{
		"name":  "Food",
		"type":  "expense",
		"color": "#f00",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	cat := decodeBody[core.Category](t, rec)

	rec = doJSON(t, srv, http.MethodGet, "/api/categories?type=expense", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cats := decodeBody[[]core.Category](t, rec)
	require.Len(t, cats, 1)

	rec = doJSON(t, srv, http.MethodGet, "/api/categories?type=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv, http.MethodPut, fmt.Sprintf("/api/categories/%d", cat.ID), map[string]any{
		"name":  "Groceries",
		"type":  "expense",
		"color": "#0f0",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decodeBody[core.Category](t, rec)
	assert.Equal(t, "Groceries", updated.Name)

	rec = doJSON(t, srv, http.MethodDelete, fmt.Sprintf("/api/categories/%d", cat.ID), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestBudgetEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/categories", map[string]any{
		"name": "Food", "type": "expense", "color": "#f00",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	cat := decodeBody[core.Category](t, rec)

	rec = doJSON(t, srv, http.MethodPost, "/api/budgets", map[string]any{
		"categoryId": cat.ID,
		"amount":     50000,
		"period":     "monthly",
		"startDate":  "2026-01-01",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	budget := decodeBody[core.Budget](t, rec)

	rec = doJSON(t, srv, http.MethodGet, "/api/budgets/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	statuses := decodeBody[[]core.BudgetStatus](t, rec)
	require.Len(t, statuses, 1)
	assert.Equal(t, "Food", statuses[0].CategoryName)

	rec = doJSON(t, srv, http.MethodDelete, fmt.Sprintf("/api/budgets/%d", budget.ID), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestIDHeader(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/healthz", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
