package indicators

import (
	"errors"
	"math"
	"sort"

	"github.com/wonny/fundamenta/internal/contracts"
	"github.com/wonny/fundamenta/internal/thresholds"
	"github.com/wonny/fundamenta/pkg/logger"
)

// Engine computes indicator values and classifies them against a threshold table.
// It keeps no per-call state and is safe for concurrent use.
// ⭐ SSOT: 지표 계산 + 등급 분류는 여기서만
type Engine struct {
	registry *Registry
	table    *thresholds.Table
	logger   *logger.Logger
}

// NewEngine creates an engine over the default registry
func NewEngine(table *thresholds.Table, log *logger.Logger) *Engine {
	return NewEngineWithRegistry(DefaultRegistry(), table, log)
}

// NewEngineWithRegistry creates an engine over a custom registry
func NewEngineWithRegistry(registry *Registry, table *thresholds.Table, log *logger.Logger) *Engine {
	if log == nil {
		log = logger.Nop()
	}
	return &Engine{
		registry: registry,
		table:    table,
		logger:   log,
	}
}

// Registry returns the engine's indicator definitions
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Table returns the engine's threshold table
func (e *Engine) Table() *thresholds.Table {
	return e.table
}

// Evaluate computes and classifies every registered snapshot indicator.
// Undefined values are reported in the result (tier "indefinido"), never as an abort.
// The returned error joins indicators that have no threshold entry.
func (e *Engine) Evaluate(s contracts.FinancialSnapshot) (map[string]contracts.IndicatorResult, error) {
	return e.EvaluateSelected(s, e.registry.SnapshotNames())
}

// EvaluateSelected evaluates only the named snapshot indicators.
// Unknown names fail individually with ErrUnknownIndicator; the rest are evaluated.
func (e *Engine) EvaluateSelected(s contracts.FinancialSnapshot, names []string) (map[string]contracts.IndicatorResult, error) {
	results := make(map[string]contracts.IndicatorResult, len(names))
	var errs []error

	for _, name := range names {
		def, entry, err := e.resolve(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if def.IsGrowth() {
			errs = append(errs, contracts.NewIndicatorError(name, errNeedsHistory))
			continue
		}

		value, err := def.Snapshot(s)
		results[name] = e.classify(s.Ticker, def, entry, value, err)
	}

	return results, errors.Join(errs...)
}

// EvaluateGrowth computes and classifies every registered growth indicator over the history
func (e *Engine) EvaluateGrowth(h *contracts.FinancialHistory) (map[string]contracts.IndicatorResult, error) {
	return e.EvaluateGrowthSelected(h, e.registry.GrowthNames())
}

// EvaluateGrowthSelected evaluates only the named growth indicators
func (e *Engine) EvaluateGrowthSelected(h *contracts.FinancialHistory, names []string) (map[string]contracts.IndicatorResult, error) {
	results := make(map[string]contracts.IndicatorResult, len(names))
	var errs []error

	for _, name := range names {
		def, entry, err := e.resolve(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !def.IsGrowth() {
			errs = append(errs, contracts.NewIndicatorError(name, errNeedsSnapshot))
			continue
		}

		value, err := def.History(h)
		results[name] = e.classify(h.Ticker, def, entry, value, err)
	}

	return results, errors.Join(errs...)
}

// EvaluateSeries evaluates the snapshot indicators for every period, oldest first.
// Market figures are the history's current ones for every period.
func (e *Engine) EvaluateSeries(h *contracts.FinancialHistory) ([]contracts.PeriodEvaluation, error) {
	series := make([]contracts.PeriodEvaluation, 0, len(h.Periods))
	var firstErr error

	years := make([]int, 0, len(h.Periods))
	for _, p := range h.Periods {
		years = append(years, p.Year)
	}
	sort.Ints(years)

	for _, year := range years {
		snapshot, err := h.SnapshotAt(year)
		if err != nil {
			return nil, err
		}
		results, err := e.Evaluate(snapshot)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		series = append(series, contracts.PeriodEvaluation{Year: year, Results: results})
	}

	return series, firstErr
}

// Split partitions names into snapshot, growth and unknown indicators, keeping order
func (e *Engine) Split(names []string) (snapshot, growth, unknown []string) {
	for _, name := range names {
		def, err := e.registry.Lookup(name)
		switch {
		case err != nil || !e.table.Has(name):
			unknown = append(unknown, name)
		case def.IsGrowth():
			growth = append(growth, name)
		default:
			snapshot = append(snapshot, name)
		}
	}
	return snapshot, growth, unknown
}

func (e *Engine) resolve(name string) (Definition, thresholds.Entry, error) {
	def, err := e.registry.Lookup(name)
	if err != nil {
		return Definition{}, thresholds.Entry{}, err
	}
	entry, err := e.table.Lookup(name)
	if err != nil {
		return Definition{}, thresholds.Entry{}, err
	}
	return def, entry, nil
}

func (e *Engine) classify(ticker string, def Definition, entry thresholds.Entry, value float64, err error) contracts.IndicatorResult {
	result := contracts.IndicatorResult{
		Name:        def.Name,
		Value:       value,
		Description: entry.Description,
		Polarity:    def.Polarity,
	}

	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		if err == nil {
			err = contracts.ErrUndefinedValue
		}
		result.Value = math.NaN()
		result.Tier = contracts.TierUndefined
		result.Err = contracts.NewIndicatorError(def.Name, err)

		e.logger.WithFields(map[string]interface{}{
			"ticker":    ticker,
			"indicator": def.Name,
			"reason":    err.Error(),
		}).Debug("Indicator undefined")
		return result
	}

	result.Defined = true
	result.Tier = entry.Classify(value)

	e.logger.WithFields(map[string]interface{}{
		"ticker":    ticker,
		"indicator": def.Name,
		"value":     value,
		"tier":      result.Tier,
	}).Debug("Evaluated indicator")

	return result
}

var (
	errNeedsHistory  = errors.New("growth indicator needs a financial history")
	errNeedsSnapshot = errors.New("indicator needs a single-period snapshot")
)
