package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fundamenta/internal/analysis"
	"github.com/wonny/fundamenta/internal/api/handlers"
	"github.com/wonny/fundamenta/internal/contracts"
	"github.com/wonny/fundamenta/internal/indicators"
	"github.com/wonny/fundamenta/internal/normalize"
	"github.com/wonny/fundamenta/internal/provider"
	"github.com/wonny/fundamenta/internal/report"
	"github.com/wonny/fundamenta/internal/store"
	"github.com/wonny/fundamenta/internal/thresholds"
	"github.com/wonny/fundamenta/pkg/logger"
)

type fakeStore struct {
	results []store.StoredResult
	err     error
}

func (f *fakeStore) LatestByTicker(ctx context.Context, ticker string) ([]store.StoredResult, error) {
	return f.results, f.err
}

type failingRepo struct{}

func (failingRepo) Save(ctx context.Context, a *contracts.Analysis) error {
	return errors.New("connection refused")
}

func newTestRouter(t *testing.T, resultStore handlers.ResultStore, opts ...analysis.Option) http.Handler {
	t.Helper()

	table := thresholds.Reference()
	log := logger.Nop()
	engine := indicators.NewEngine(table, log)
	svc := analysis.NewService(provider.DefaultFixture(), engine, normalize.New(table, log), log, opts...)

	return NewRouter(
		handlers.NewIndicatorHandler(engine.Registry(), table, log),
		handlers.NewAnalysisHandler(svc, report.NewRenderer(table), resultStore, 2, log),
		log,
	)
}

func do(t *testing.T, h http.Handler, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestRouter(t, nil), "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])
}

func TestListIndicators(t *testing.T) {
	rec := do(t, newTestRouter(t, nil), "GET", "/api/indicators", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, float64(12), body["count"])

	list := body["indicators"].([]interface{})
	first := list[0].(map[string]interface{})
	assert.Equal(t, "P/L", first["name"])
	assert.Equal(t, "lower_is_better", first["polarity"])
	assert.Equal(t, false, first["growth"])
	assert.Equal(t, true, first["classified"])
	assert.Len(t, first["tiers"], 5)

	payout := list[8].(map[string]interface{})
	assert.Equal(t, "Payout", payout["name"])
	assert.Equal(t, "neutral", payout["polarity"])
}

func TestGetThresholds(t *testing.T) {
	router := newTestRouter(t, nil)

	t.Run("whole table", func(t *testing.T) {
		rec := do(t, router, "GET", "/api/thresholds", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, thresholds.Reference().Hash(), body["hash"])
		assert.Len(t, body["indicators"], 12)
	})

	t.Run("one entry", func(t *testing.T) {
		rec := do(t, router, "GET", "/api/thresholds?name=P/L", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "P/L", body["indicator"])

		tiers := body["tiers"].([]interface{})
		negative := tiers[0].(map[string]interface{})
		assert.Equal(t, "negativo", negative["label"])
		assert.Nil(t, negative["min"])
		assert.Equal(t, true, negative["off_scale"])
	})

	t.Run("unknown", func(t *testing.T) {
		rec := do(t, router, "GET", "/api/thresholds?name=EV/EBIT", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, decode(t, rec)["error"], "unknown indicator")
	})
}

func TestGetAnalysis(t *testing.T) {
	rec := do(t, newTestRouter(t, nil), "GET", "/api/analysis/petr4", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "PETR4", body["ticker"])
	assert.Equal(t, float64(2023), body["year"])

	pl := body["results"].(map[string]interface{})["P/L"].(map[string]interface{})
	assert.Equal(t, "otimo", pl["tier"])
	assert.InDelta(t, 3.745, pl["value"], 0.01)

	assert.Len(t, body["scores"], 10)
	assert.Len(t, body["series"], 5)
}

func TestGetAnalysis_SelectedIndicators(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := do(t, router, "GET", "/api/analysis/PETR4?indicators=ROE,EV/EBIT", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Len(t, body["results"], 1)
	assert.Contains(t, body["issues"], "EV/EBIT: unknown indicator")

	rec = do(t, router, "GET", "/api/analysis/PETR4?indicators=EV/EBIT", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetAnalysis_ServedWhenSaveFails(t *testing.T) {
	router := newTestRouter(t, nil, analysis.WithRepository(failingRepo{}))

	rec := do(t, router, "GET", "/api/analysis/PETR4", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "PETR4", decode(t, rec)["ticker"])

	rec = do(t, router, "GET", "/api/analysis/PETR4/report?format=markdown", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "# Análise Fundamentalista PETR4")

	rec = do(t, router, "GET", "/api/analysis/PETR4/radar?format=json", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["points"], 8)
}

func TestGetAnalysis_UnknownTicker(t *testing.T) {
	rec := do(t, newTestRouter(t, nil), "GET", "/api/analysis/VALE3", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetReport(t *testing.T) {
	router := newTestRouter(t, nil)

	tests := []struct {
		format      string
		contentType string
		contains    string
	}{
		{"", "text/plain", "ANÁLISE FUNDAMENTALISTA PETR4"},
		{"markdown", "text/markdown", "# Análise Fundamentalista PETR4"},
		{"html", "text/html", "<table>"},
		{"json", "application/json", `"ticker": "PETR4"`},
	}

	for _, tt := range tests {
		t.Run("format="+tt.format, func(t *testing.T) {
			rec := do(t, router, "GET", "/api/analysis/PETR4/report?format="+tt.format, nil)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Header().Get("Content-Type"), tt.contentType)
			assert.Contains(t, rec.Body.String(), tt.contains)
		})
	}

	rec := do(t, router, "GET", "/api/analysis/PETR4/report?format=xml", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetRadar(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := do(t, router, "GET", "/api/analysis/PETR4/radar", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF-"))

	rec = do(t, router, "GET", "/api/analysis/PETR4/radar?format=json", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Len(t, body["points"], 8)
	assert.Contains(t, body["title"], "PETR4")
}

func TestGetStored(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		rec := do(t, newTestRouter(t, nil), "GET", "/api/analysis/PETR4/stored", nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("found", func(t *testing.T) {
		value := 3.745
		fs := &fakeStore{results: []store.StoredResult{{
			Ticker:      "PETR4",
			Year:        2023,
			Indicator:   "P/L",
			Value:       &value,
			Tier:        "otimo",
			Source:      "fixture",
			EvaluatedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		}}}
		rec := do(t, newTestRouter(t, fs), "GET", "/api/analysis/petr4/stored", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "PETR4", body["ticker"])
		assert.Equal(t, float64(1), body["count"])
	})

	t.Run("empty", func(t *testing.T) {
		rec := do(t, newTestRouter(t, &fakeStore{}), "GET", "/api/analysis/PETR4/stored", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("error", func(t *testing.T) {
		fs := &fakeStore{err: errors.New("connection refused")}
		rec := do(t, newTestRouter(t, fs), "GET", "/api/analysis/PETR4/stored", nil)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestAnalyzeBatch(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := do(t, router, "POST", "/api/analysis/batch", []byte(`{"tickers":["PETR4","VALE3"]}`))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, float64(2), body["count"])
	assert.Equal(t, float64(1), body["failed"])

	items := body["results"].([]interface{})
	assert.Equal(t, "PETR4", items[0].(map[string]interface{})["ticker"])
	assert.NotNil(t, items[0].(map[string]interface{})["analysis"])
	assert.Contains(t, items[1].(map[string]interface{})["error"], "ticker not found")

	rec = do(t, router, "POST", "/api/analysis/batch", []byte(`{`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, "POST", "/api/analysis/batch", []byte(`{"tickers":[]}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecoveryMiddleware(t *testing.T) {
	h := recoveryMiddleware(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := do(t, h, "GET", "/", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", decode(t, rec)["error"])
}
