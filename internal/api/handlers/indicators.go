package handlers

import (
	"net/http"
	"strings"

	"github.com/wonny/fundamenta/internal/contracts"
	"github.com/wonny/fundamenta/internal/indicators"
	"github.com/wonny/fundamenta/internal/thresholds"
	"github.com/wonny/fundamenta/pkg/logger"
)

// IndicatorHandler serves the indicator catalog and threshold table
// ⭐ SSOT: 지표/기준표 조회 API는 이 구조체에서만
type IndicatorHandler struct {
	registry *indicators.Registry
	table    *thresholds.Table
	logger   *logger.Logger
}

// NewIndicatorHandler creates a new indicator handler
func NewIndicatorHandler(registry *indicators.Registry, table *thresholds.Table, log *logger.Logger) *IndicatorHandler {
	return &IndicatorHandler{
		registry: registry,
		table:    table,
		logger:   log,
	}
}

// IndicatorResponse describes one registered indicator
type IndicatorResponse struct {
	Name        string             `json:"name"`
	Formula     string             `json:"formula"`
	Polarity    contracts.Polarity `json:"polarity"`
	Growth      bool               `json:"growth"`
	Description string             `json:"description,omitempty"`
	Classified  bool               `json:"classified"` // has a threshold entry
	Tiers       []thresholds.Tier  `json:"tiers,omitempty"`
}

// ListIndicators returns every registered indicator
// GET /api/indicators
func (h *IndicatorHandler) ListIndicators(w http.ResponseWriter, r *http.Request) {
	defs := h.registry.Definitions()
	out := make([]IndicatorResponse, 0, len(defs))
	for _, d := range defs {
		item := IndicatorResponse{
			Name:     d.Name,
			Formula:  d.Formula,
			Polarity: d.Polarity,
			Growth:   d.IsGrowth(),
		}
		if entry, err := h.table.Lookup(d.Name); err == nil {
			item.Description = entry.Description
			item.Classified = true
			item.Tiers = entry.Tiers
		}
		out = append(out, item)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":      len(out),
		"indicators": out,
	})
}

// GetThresholds returns the threshold table, or one entry with ?name=
// GET /api/thresholds?name=P/L
func (h *IndicatorHandler) GetThresholds(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"hash":       h.table.Hash(),
			"indicators": h.table.Entries(),
		})
		return
	}

	entry, err := h.table.Lookup(name)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, entry)
}
