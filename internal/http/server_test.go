package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fintrack/internal/export"
	"fintrack/internal/services"
	"fintrack/internal/store/memory"
)

func testClock() time.Time {
	return time.Date(2025, time.July, 20, 12, 0, 0, 0, time.UTC)
}

func newTestServer() (*Server, *memory.Store) {
	st := memory.New()
	ledger := services.NewLedgerService(st, nil, testClock)
	budgets := services.NewBudgetService(st.Budgets(), testClock)
	exporter := export.NewCSVExporter(st)
	return NewServer(":0", "X-Auth-User", ledger, budgets, exporter, nil), st
}

func doJSON(t *testing.T, srv *Server, method, path, owner, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if owner != "" {
		req.Header.Set("X-Auth-User", owner)
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decodeMap(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode body %q: %v", rr.Body.String(), err)
	}
	return m
}

func TestHealthAndReadiness(t *testing.T) {
	srv, _ := newTestServer()

	rr := doJSON(t, srv, http.MethodGet, "/health", "", "")
	if rr.Code != 200 {
		t.Fatalf("health status=%d", rr.Code)
	}
	if body := decodeMap(t, rr); body["ok"] != true {
		t.Fatalf("health body=%v", body)
	}

	rr = doJSON(t, srv, http.MethodGet, "/readyz", "", "")
	if rr.Code != 200 {
		t.Fatalf("readyz status=%d", rr.Code)
	}
}

func TestReadinessReportsBackendFailure(t *testing.T) {
	st := memory.New()
	ledger := services.NewLedgerService(st, nil, testClock)
	budgets := services.NewBudgetService(st.Budgets(), testClock)
	srv := NewServer(":0", "X-Auth-User", ledger, budgets, export.NewCSVExporter(st),
		func(ctx context.Context) error { return context.DeadlineExceeded })

	rr := doJSON(t, srv, http.MethodGet, "/readyz", "", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}

func TestMissingIdentityRejected(t *testing.T) {
	srv, _ := newTestServer()

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/transactions"},
		{http.MethodPost, "/transactions"},
		{http.MethodPut, "/transactions/abc"},
		{http.MethodDelete, "/transactions/abc"},
		{http.MethodGet, "/summary/month"},
		{http.MethodGet, "/budget"},
		{http.MethodPut, "/budget"},
		{http.MethodGet, "/budget/status"},
		{http.MethodGet, "/transactions/export/csv"},
	} {
		rr := doJSON(t, srv, tc.method, tc.path, "", "")
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: expected 401, got %d", tc.method, tc.path, rr.Code)
		}
		if body := decodeMap(t, rr); body["error"] == "" {
			t.Errorf("%s %s: expected error body, got %v", tc.method, tc.path, body)
		}
	}
}

func TestTransactionLifecycle(t *testing.T) {
	srv, _ := newTestServer()

	rr := doJSON(t, srv, http.MethodPost, "/transactions", "ada@example.com",
		`{"amount": 42.5, "category": "Food", "date": "2025-07-15", "note": "lunch"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
	}
	created := decodeMap(t, rr)
	id, _ := created["id"].(string)
	if id == "" {
		t.Fatalf("create returned no id: %v", created)
	}
	if created["user"] != "ada@example.com" || created["type"] != "expense" {
		t.Fatalf("unexpected create body: %v", created)
	}

	rr = doJSON(t, srv, http.MethodGet, "/transactions", "ada@example.com", "")
	if rr.Code != 200 {
		t.Fatalf("list status=%d", rr.Code)
	}
	var listed []map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed) != 1 || listed[0]["id"] != id {
		t.Fatalf("unexpected list: %v", listed)
	}

	rr = doJSON(t, srv, http.MethodPut, "/transactions/"+id, "ada@example.com", `{"note": "dinner"}`)
	if rr.Code != 200 {
		t.Fatalf("update status=%d body=%s", rr.Code, rr.Body.String())
	}
	updated := decodeMap(t, rr)
	if updated["note"] != "dinner" || updated["amount"] != 42.5 {
		t.Fatalf("unexpected update body: %v", updated)
	}

	rr = doJSON(t, srv, http.MethodDelete, "/transactions/"+id, "ada@example.com", "")
	if rr.Code != 200 {
		t.Fatalf("delete status=%d", rr.Code)
	}
	rr = doJSON(t, srv, http.MethodDelete, "/transactions/"+id, "ada@example.com", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("second delete: expected 404, got %d", rr.Code)
	}
}

func TestCreateValidationErrors(t *testing.T) {
	srv, _ := newTestServer()

	cases := []struct {
		name string
		body string
	}{
		{"missing amount", `{"category": "Food", "date": "2025-07-15"}`},
		{"negative amount", `{"amount": -5, "category": "Food", "date": "2025-07-15"}`},
		{"non-numeric amount", `{"amount": "abc", "category": "Food", "date": "2025-07-15"}`},
		{"missing category", `{"amount": 10, "date": "2025-07-15"}`},
		{"missing date", `{"amount": 10, "category": "Food"}`},
		{"not json", `amount=10`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := doJSON(t, srv, http.MethodPost, "/transactions", "ada@example.com", tc.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
			}
		})
	}
}

func TestOwnerScoping(t *testing.T) {
	srv, _ := newTestServer()

	rr := doJSON(t, srv, http.MethodPost, "/transactions", "ada@example.com",
		`{"amount": 10, "category": "Food", "date": "2025-07-15"}`)
	id := decodeMap(t, rr)["id"].(string)

	rr = doJSON(t, srv, http.MethodGet, "/transactions", "bob@example.com", "")
	var listed []map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed) != 0 {
		t.Fatalf("expected empty list for other owner, got %v", listed)
	}

	rr = doJSON(t, srv, http.MethodPut, "/transactions/"+id, "bob@example.com", `{"note": "mine now"}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("cross-owner update: expected 404, got %d", rr.Code)
	}
	rr = doJSON(t, srv, http.MethodDelete, "/transactions/"+id, "bob@example.com", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("cross-owner delete: expected 404, got %d", rr.Code)
	}
}

func TestMonthlySummaryEndpoint(t *testing.T) {
	srv, _ := newTestServer()

	doJSON(t, srv, http.MethodPost, "/transactions", "ada@example.com",
		`{"amount": 100, "category": "Food", "date": "2025-07-15"}`)
	doJSON(t, srv, http.MethodPost, "/transactions", "ada@example.com",
		`{"amount": 500, "category": "", "date": "2025-07-01", "type": "income"}`)
	doJSON(t, srv, http.MethodPost, "/transactions", "ada@example.com",
		`{"amount": 999, "category": "Food", "date": "2025-06-15"}`)

	rr := doJSON(t, srv, http.MethodGet, "/summary/month?month=2025-07", "ada@example.com", "")
	if rr.Code != 200 {
		t.Fatalf("summary status=%d", rr.Code)
	}
	body := decodeMap(t, rr)
	if body["year"] != float64(2025) || body["month"] != float64(7) {
		t.Fatalf("unexpected period: %v", body)
	}
	if body["totalIncome"] != float64(500) || body["totalExpenses"] != float64(100) || body["net"] != float64(400) {
		t.Fatalf("unexpected totals: %v", body)
	}
	cats, _ := body["categoryTotals"].(map[string]any)
	if cats["Food"] != float64(100) {
		t.Fatalf("unexpected category totals: %v", cats)
	}
}

func TestBudgetEndpoints(t *testing.T) {
	srv, _ := newTestServer()

	rr := doJSON(t, srv, http.MethodGet, "/budget", "ada@example.com", "")
	if rr.Code != 200 {
		t.Fatalf("get budget status=%d", rr.Code)
	}
	body := decodeMap(t, rr)
	if body["limit"] != float64(50) || body["threshold"] != float64(90) {
		t.Fatalf("expected default policy, got %v", body)
	}

	rr = doJSON(t, srv, http.MethodPut, "/budget", "ada@example.com", `{"limit": 200, "threshold": 80}`)
	if rr.Code != 200 {
		t.Fatalf("put budget status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, srv, http.MethodPut, "/budget", "ada@example.com", `{"threshold": 80}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("put budget without limit: expected 400, got %d", rr.Code)
	}

	// A threshold sent as null is rejected, only omitting it defaults.
	rr = doJSON(t, srv, http.MethodPut, "/budget", "ada@example.com", `{"limit": 200, "threshold": null}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("put budget with null threshold: expected 400, got %d", rr.Code)
	}

	rr = doJSON(t, srv, http.MethodGet, "/budget", "ada@example.com", "")
	body = decodeMap(t, rr)
	if body["limit"] != float64(200) || body["threshold"] != float64(80) {
		t.Fatalf("expected saved policy, got %v", body)
	}
}

func TestBudgetStatusEndpoint(t *testing.T) {
	srv, _ := newTestServer()

	doJSON(t, srv, http.MethodPut, "/budget", "ada@example.com", `{"limit": 200, "threshold": 90}`)
	doJSON(t, srv, http.MethodPost, "/transactions", "ada@example.com",
		`{"amount": 185, "category": "Rent", "date": "2025-07-01"}`)

	rr := doJSON(t, srv, http.MethodGet, "/budget/status?month=2025-07", "ada@example.com", "")
	if rr.Code != 200 {
		t.Fatalf("budget status=%d", rr.Code)
	}
	body := decodeMap(t, rr)
	if body["state"] != "warning" {
		t.Fatalf("expected warning state, got %v", body)
	}

	doJSON(t, srv, http.MethodPost, "/transactions", "ada@example.com",
		`{"amount": 20, "category": "Food", "date": "2025-07-02"}`)
	rr = doJSON(t, srv, http.MethodGet, "/budget/status?month=2025-07", "ada@example.com", "")
	if body = decodeMap(t, rr); body["state"] != "exceeded" {
		t.Fatalf("expected exceeded state, got %v", body)
	}
}

func TestExportCSVEndpoint(t *testing.T) {
	srv, _ := newTestServer()

	doJSON(t, srv, http.MethodPost, "/transactions", "ada@example.com",
		`{"amount": 100, "category": "Food", "date": "2025-07-15"}`)
	doJSON(t, srv, http.MethodPost, "/transactions", "ada@example.com",
		`{"amount": 500, "category": "", "date": "2025-07-01", "type": "income"}`)

	rr := doJSON(t, srv, http.MethodGet, "/transactions/export/csv?type=income", "ada@example.com", "")
	if rr.Code != 200 {
		t.Fatalf("export status=%d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("content type=%q", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "transactions_income.csv") {
		t.Fatalf("content disposition=%q", cd)
	}
	lines := strings.Split(strings.TrimSpace(rr.Body.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header plus one row, got %v", lines)
	}
	if lines[0] != "Amount,Category,Date,Note,Type" {
		t.Fatalf("unexpected header: %q", lines[0])
	}
	if lines[1] != "500.00,,2025-07-01,,income" {
		t.Fatalf("unexpected row: %q", lines[1])
	}

	rr = doJSON(t, srv, http.MethodGet, "/transactions/export/csv", "ada@example.com", "")
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "transactions_all.csv") {
		t.Fatalf("content disposition=%q", cd)
	}
	lines = strings.Split(strings.TrimSpace(rr.Body.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus two rows, got %v", lines)
	}
}
