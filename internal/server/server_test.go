package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/blackwell-systems/insightwatch/internal/adapter"
	"github.com/blackwell-systems/insightwatch/internal/insight"
	"github.com/blackwell-systems/insightwatch/internal/runner"
	"github.com/blackwell-systems/insightwatch/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func fixedClock() time.Time {
	return time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
}

func materials() adapter.Dataset {
	entry := func(m time.Month, amount int64, category string) adapter.Entry {
		return adapter.Entry{
			Date:     time.Date(2026, m, 10, 0, 0, 0, 0, time.UTC),
			Amount:   decimal.NewFromInt(amount),
			Category: category,
		}
	}
	return adapter.Dataset{
		Domain: adapter.DomainMaterials,
		Entries: []adapter.Entry{
			entry(1, 100, "Cemento"),
			entry(2, 120, "Cemento"),
			entry(3, 140, "Cemento"),
			entry(4, 165, "Cemento"),
			entry(5, 195, "Cemento"),
			entry(5, 10, "Arena"),
		},
	}
}

func newTestServer(t *testing.T, withStore bool) (*Server, *store.DB) {
	t.Helper()
	if !withStore {
		return New(runner.New(runner.WithClock(fixedClock))), nil
	}
	db, err := store.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	r := runner.New(runner.WithSource(db), runner.WithClock(fixedClock))
	return New(r, WithStore(db)), db
}

func do(t *testing.T, srv *Server, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeInsights(t *testing.T, rec *httptest.ResponseRecorder) []insight.Insight {
	t.Helper()
	var out []insight.Insight
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func ids(insights []insight.Insight) []string {
	out := make([]string, len(insights))
	for i, in := range insights {
		out[i] = in.ID
	}
	return out
}

// --- Health ---

func TestHealth(t *testing.T) {
	for _, withStore := range []bool{false, true} {
		srv, _ := newTestServer(t, withStore)
		rec := do(t, srv, http.MethodGet, "/health", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"healthy"`)
	}
}

func TestHealth_ClosedStore(t *testing.T) {
	srv, db := newTestServer(t, true)
	require.NoError(t, db.Close())

	rec := do(t, srv, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "unhealthy")
}

// --- Generate ---

func TestGenerate_FromBody(t *testing.T) {
	srv, _ := newTestServer(t, false)
	body, err := json.Marshal(materials())
	require.NoError(t, err)

	rec := do(t, srv, http.MethodPost, "/api/insights/materials", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, ids(decodeInsights(t, rec)), "concentration-single")
}

func TestGenerate_PathDomainWins(t *testing.T) {
	srv, _ := newTestServer(t, false)
	ds := materials()
	ds.Domain = adapter.DomainAdmin
	body, err := json.Marshal(ds)
	require.NoError(t, err)

	rec := do(t, srv, http.MethodPost, "/api/insights/MATERIALS", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, ids(decodeInsights(t, rec)), "concentration-single")
}

func TestGenerate_EmptyBody(t *testing.T) {
	srv, _ := newTestServer(t, false)
	rec := do(t, srv, http.MethodPost, "/api/insights/clients", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", rec.Body.String())
}

func TestGenerate_UnknownDomain(t *testing.T) {
	srv, _ := newTestServer(t, false)
	rec := do(t, srv, http.MethodPost, "/api/insights/payroll", []byte(`{}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown domain")
}

func TestGenerate_MalformedBody(t *testing.T) {
	srv, _ := newTestServer(t, false)
	rec := do(t, srv, http.MethodPost, "/api/insights/materials", []byte(`{"entries": 3}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid dataset")
}

// --- Stored records ---

func TestStored_NoStore(t *testing.T) {
	srv, _ := newTestServer(t, false)
	for _, target := range []string{"/api/insights/materials", "/api/insights"} {
		rec := do(t, srv, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, target)
	}
	rec := do(t, srv, http.MethodPost, "/api/insights/materials/dismiss/x", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStored_DismissAndRestore(t *testing.T) {
	srv, db := newTestServer(t, true)
	_, err := db.ImportDataset(context.Background(), materials())
	require.NoError(t, err)

	rec := do(t, srv, http.MethodGet, "/api/insights/materials", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	before := ids(decodeInsights(t, rec))
	require.Contains(t, before, "concentration-single")

	rec = do(t, srv, http.MethodPost, "/api/insights/materials/dismiss/concentration-single", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"dismissed"`)

	rec = do(t, srv, http.MethodGet, "/api/insights/materials", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, ids(decodeInsights(t, rec)), "concentration-single")

	rec = do(t, srv, http.MethodDelete, "/api/insights/materials/dismiss/concentration-single", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"restored"`)

	rec = do(t, srv, http.MethodGet, "/api/insights/materials", nil)
	assert.Equal(t, before, ids(decodeInsights(t, rec)))
}

func TestStored_Limit(t *testing.T) {
	srv, db := newTestServer(t, true)
	_, err := db.ImportDataset(context.Background(), materials())
	require.NoError(t, err)

	rec := do(t, srv, http.MethodGet, "/api/insights/materials?limit=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeInsights(t, rec), 1)
}

func TestStored_BadQuery(t *testing.T) {
	srv, _ := newTestServer(t, true)
	tests := []struct {
		target string
		want   string
	}{
		{"/api/insights/materials?from=03/01/2026", "invalid from date"},
		{"/api/insights/materials?to=tomorrow", "invalid to date"},
		{"/api/insights/materials?limit=many", "invalid limit"},
		{"/api/insights/payroll", "unknown domain"},
		{"/api/insights?from=x", "invalid from date"},
	}
	for _, tc := range tests {
		rec := do(t, srv, http.MethodGet, tc.target, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, tc.target)
		assert.Contains(t, rec.Body.String(), tc.want, tc.target)
	}
}

func TestDashboard(t *testing.T) {
	srv, db := newTestServer(t, true)
	_, err := db.ImportDataset(context.Background(), materials())
	require.NoError(t, err)

	rec := do(t, srv, http.MethodGet, "/api/insights", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var board map[string][]insight.Insight
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &board))
	assert.Len(t, board, len(adapter.Domains))
	assert.NotEmpty(t, board["materials"])
	assert.Empty(t, board["clients"])
}

// --- Middleware ---

func TestCORS_Preflight(t *testing.T) {
	srv, _ := newTestServer(t, false)
	req := httptest.NewRequest(http.MethodOptions, "/api/insights/materials", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_RestrictedOrigin(t *testing.T) {
	srv := New(runner.New(), WithAllowOrigins("https://app.example.com"))
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListenAndServe_StopsOnCancel(t *testing.T) {
	srv, _ := newTestServer(t, false)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx, "127.0.0.1:0") }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}
