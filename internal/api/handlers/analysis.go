package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/wonny/fundamenta/internal/analysis"
	"github.com/wonny/fundamenta/internal/contracts"
	"github.com/wonny/fundamenta/internal/provider"
	"github.com/wonny/fundamenta/internal/report"
	"github.com/wonny/fundamenta/internal/store"
	"github.com/wonny/fundamenta/pkg/httputil"
	"github.com/wonny/fundamenta/pkg/logger"
)

const maxBatchTickers = 50

// ResultStore reads persisted evaluations
type ResultStore interface {
	LatestByTicker(ctx context.Context, ticker string) ([]store.StoredResult, error)
}

// AnalysisHandler handles analysis API endpoints
// ⭐ SSOT: 분석 API 핸들러는 이 구조체에서만
type AnalysisHandler struct {
	service     *analysis.Service
	renderer    *report.Renderer
	store       ResultStore // optional
	concurrency int
	logger      *logger.Logger
}

// NewAnalysisHandler creates a new analysis handler. resultStore may be nil.
func NewAnalysisHandler(service *analysis.Service, renderer *report.Renderer, resultStore ResultStore, concurrency int, log *logger.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		service:     service,
		renderer:    renderer,
		store:       resultStore,
		concurrency: concurrency,
		logger:      log,
	}
}

// GetAnalysis evaluates a ticker
// GET /api/analysis/{ticker}?indicators=P/L,ROE
func (h *AnalysisHandler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]
	names := splitList(r.URL.Query().Get("indicators"))

	a, err := h.service.EvaluateSelected(r.Context(), ticker, names)
	a, err = h.keepUnsaved(ticker, a, err)
	if err != nil && a == nil {
		h.respondAnalysisError(w, ticker, err)
		return
	}
	if err != nil && errors.Is(err, contracts.ErrUnknownIndicator) && len(a.Results)+len(a.Growth) == 0 {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil && !errors.Is(err, contracts.ErrUnknownIndicator) {
		h.respondAnalysisError(w, ticker, err)
		return
	}

	respondJSON(w, http.StatusOK, a)
}

// GetReport renders a ticker's analysis
// GET /api/analysis/{ticker}/report?format=text|markdown|html|json
func (h *AnalysisHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]

	format, err := report.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	a, err := h.service.Analyze(r.Context(), ticker)
	a, err = h.keepUnsaved(ticker, a, err)
	if err != nil {
		h.respondAnalysisError(w, ticker, err)
		return
	}

	var buf bytes.Buffer
	if err := h.renderer.Render(&buf, a, format); err != nil {
		h.logger.WithError(err).WithField("ticker", ticker).Error("Failed to render report")
		respondError(w, http.StatusInternalServerError, "Failed to render report")
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// GetRadar returns the radar chart as PDF, or its points with ?format=json
// GET /api/analysis/{ticker}/radar
func (h *AnalysisHandler) GetRadar(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]

	a, err := h.service.Analyze(r.Context(), ticker)
	a, err = h.keepUnsaved(ticker, a, err)
	if err != nil {
		h.respondAnalysisError(w, ticker, err)
		return
	}

	if r.URL.Query().Get("format") == "json" {
		respondJSON(w, http.StatusOK, report.NewRadar(a))
		return
	}

	var buf bytes.Buffer
	if err := h.renderer.RadarPDF(&buf, a); err != nil {
		h.logger.WithError(err).WithField("ticker", ticker).Warn("Failed to render radar")
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="`+strings.ToLower(a.Ticker)+`_radar.pdf"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// GetStored returns the most recently saved evaluation of a ticker
// GET /api/analysis/{ticker}/stored
func (h *AnalysisHandler) GetStored(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		respondError(w, http.StatusServiceUnavailable, "result storage is not configured")
		return
	}

	ticker := strings.ToUpper(mux.Vars(r)["ticker"])
	results, err := h.store.LatestByTicker(r.Context(), ticker)
	if err != nil {
		h.logger.WithError(err).WithField("ticker", ticker).Error("Failed to read stored results")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve stored results")
		return
	}
	if len(results) == 0 {
		respondError(w, http.StatusNotFound, "no stored results for "+ticker)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"ticker":  ticker,
		"count":   len(results),
		"results": results,
	})
}

// BatchRequest represents a multi-ticker analysis request
type BatchRequest struct {
	Tickers []string `json:"tickers"`
}

// BatchItem is one ticker's outcome in a batch response
type BatchItem struct {
	Ticker   string              `json:"ticker"`
	Analysis *contracts.Analysis `json:"analysis,omitempty"`
	Error    string              `json:"error,omitempty"`
}

// AnalyzeBatch evaluates several tickers concurrently
// POST /api/analysis/batch
func (h *AnalysisHandler) AnalyzeBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Tickers) == 0 {
		respondError(w, http.StatusBadRequest, "tickers is required")
		return
	}
	if len(req.Tickers) > maxBatchTickers {
		respondError(w, http.StatusBadRequest, "too many tickers")
		return
	}

	results, err := h.service.AnalyzeMany(r.Context(), req.Tickers, h.concurrency)
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	items := make([]BatchItem, len(results))
	failed := 0
	for i, res := range results {
		items[i] = BatchItem{Ticker: res.Ticker, Analysis: res.Analysis}
		if res.Err != nil {
			items[i].Error = res.Err.Error()
			failed++
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(items),
		"failed":  failed,
		"results": items,
	})
}

// keepUnsaved serves an analysis whose only failure was persisting it
func (h *AnalysisHandler) keepUnsaved(ticker string, a *contracts.Analysis, err error) (*contracts.Analysis, error) {
	if a != nil && errors.Is(err, analysis.ErrSaveFailed) {
		h.logger.WithError(err).WithField("ticker", ticker).Warn("Analysis served without saving")
		return a, nil
	}
	return a, err
}

func (h *AnalysisHandler) respondAnalysisError(w http.ResponseWriter, ticker string, err error) {
	var statusErr *httputil.StatusError
	switch {
	case errors.Is(err, provider.ErrTickerNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound:
		respondError(w, http.StatusNotFound, "ticker not found: "+ticker)
	case errors.Is(err, contracts.ErrInvalidSnapshot):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "data source timed out")
	default:
		h.logger.WithError(err).WithField("ticker", ticker).Error("Failed to analyze ticker")
		respondError(w, http.StatusBadGateway, "Failed to analyze ticker")
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
