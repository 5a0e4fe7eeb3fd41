package indicators

import (
	"fmt"
	"math"

	"github.com/wonny/fundamenta/internal/contracts"
)

// SnapshotFunc derives an indicator from one period's figures
type SnapshotFunc func(s contracts.FinancialSnapshot) (float64, error)

// HistoryFunc derives an indicator from the whole statement history
type HistoryFunc func(h *contracts.FinancialHistory) (float64, error)

// Definition is a registered indicator: its formula, polarity and
// the threshold entry of the same name.
type Definition struct {
	Name     string
	Polarity contracts.Polarity
	Formula  string

	// exactly one of these is set
	Snapshot SnapshotFunc
	History  HistoryFunc
}

// IsGrowth reports whether the indicator needs a history rather than a snapshot
func (d Definition) IsGrowth() bool {
	return d.History != nil
}

// Registry is the ordered, read-only set of indicator definitions
// ⭐ SSOT: 지표 공식은 여기서만
type Registry struct {
	defs   []Definition
	byName map[string]int
}

// NewRegistry builds a registry, rejecting duplicate or incomplete definitions
func NewRegistry(defs ...Definition) (*Registry, error) {
	r := &Registry{
		defs:   make([]Definition, 0, len(defs)),
		byName: make(map[string]int, len(defs)),
	}
	for _, d := range defs {
		if d.Name == "" {
			return nil, fmt.Errorf("indicator definition without name")
		}
		if (d.Snapshot == nil) == (d.History == nil) {
			return nil, fmt.Errorf("indicator %s: exactly one of Snapshot or History must be set", d.Name)
		}
		if _, dup := r.byName[d.Name]; dup {
			return nil, fmt.Errorf("indicator %s registered twice", d.Name)
		}
		r.byName[d.Name] = len(r.defs)
		r.defs = append(r.defs, d)
	}
	return r, nil
}

// DefaultRegistry returns the snapshot ratios followed by the growth indicators
func DefaultRegistry() *Registry {
	r, err := NewRegistry(
		Definition{
			Name:     "P/L",
			Polarity: contracts.LowerIsBetter,
			Formula:  "market_cap / net_income",
			Snapshot: func(s contracts.FinancialSnapshot) (float64, error) {
				return ratio(s.MarketCap, s.NetIncome, 1)
			},
		},
		Definition{
			Name:     "P/VP",
			Polarity: contracts.LowerIsBetter,
			Formula:  "market_cap / equity",
			Snapshot: func(s contracts.FinancialSnapshot) (float64, error) {
				return ratio(s.MarketCap, s.Equity, 1)
			},
		},
		Definition{
			Name:     "Margem_EBITDA",
			Polarity: contracts.HigherIsBetter,
			Formula:  "ebitda / net_revenue × 100",
			Snapshot: func(s contracts.FinancialSnapshot) (float64, error) {
				return ratio(s.EBITDA, s.NetRevenue, 100)
			},
		},
		Definition{
			Name:     "Margem_Liquida",
			Polarity: contracts.HigherIsBetter,
			Formula:  "net_income / net_revenue × 100",
			Snapshot: func(s contracts.FinancialSnapshot) (float64, error) {
				return ratio(s.NetIncome, s.NetRevenue, 100)
			},
		},
		Definition{
			Name:     "ROE",
			Polarity: contracts.HigherIsBetter,
			Formula:  "net_income / equity × 100",
			Snapshot: func(s contracts.FinancialSnapshot) (float64, error) {
				return ratio(s.NetIncome, s.Equity, 100)
			},
		},
		Definition{
			Name:     "Dividend_Yield",
			Polarity: contracts.HigherIsBetter,
			Formula:  "dividends / market_cap × 100",
			Snapshot: func(s contracts.FinancialSnapshot) (float64, error) {
				return ratio(s.Dividends, s.MarketCap, 100)
			},
		},
		Definition{
			Name:     "Divida_Liquida_EBITDA",
			Polarity: contracts.LowerIsBetter,
			Formula:  "net_debt / ebitda",
			Snapshot: func(s contracts.FinancialSnapshot) (float64, error) {
				return ratio(s.NetDebt, s.EBITDA, 1)
			},
		},
		Definition{
			Name:     "FCF_Yield",
			Polarity: contracts.HigherIsBetter,
			Formula:  "free_cash_flow / market_cap × 100",
			Snapshot: func(s contracts.FinancialSnapshot) (float64, error) {
				return ratio(s.FreeCashFlow, s.MarketCap, 100)
			},
		},
		Definition{
			Name:     "Payout",
			Polarity: contracts.Neutral,
			Formula:  "dividends / net_income × 100",
			Snapshot: func(s contracts.FinancialSnapshot) (float64, error) {
				return ratio(s.Dividends, s.NetIncome, 100)
			},
		},
		Definition{
			Name:     "Liquidez_Corrente",
			Polarity: contracts.HigherIsBetter,
			Formula:  "current_assets / current_liabilities",
			Snapshot: func(s contracts.FinancialSnapshot) (float64, error) {
				if s.CurrentAssets == 0 && s.CurrentLiabilities == 0 {
					return math.NaN(), fmt.Errorf("%w: current assets and liabilities not reported", contracts.ErrUndefinedValue)
				}
				return ratio(s.CurrentAssets, s.CurrentLiabilities, 1)
			},
		},
		Definition{
			Name:     "CAGR_Receita",
			Polarity: contracts.HigherIsBetter,
			Formula:  "((last_revenue / first_revenue)^(1/years) − 1) × 100",
			History: func(h *contracts.FinancialHistory) (float64, error) {
				return growth(h, func(p contracts.PeriodFigures) float64 { return p.NetRevenue })
			},
		},
		Definition{
			Name:     "CAGR_Lucro",
			Polarity: contracts.HigherIsBetter,
			Formula:  "((last_income / first_income)^(1/years) − 1) × 100",
			History: func(h *contracts.FinancialHistory) (float64, error) {
				return growth(h, func(p contracts.PeriodFigures) float64 { return p.NetIncome })
			},
		},
	)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the named definition
func (r *Registry) Lookup(name string) (Definition, error) {
	i, ok := r.byName[name]
	if !ok {
		return Definition{}, contracts.NewIndicatorError(name, contracts.ErrUnknownIndicator)
	}
	return r.defs[i], nil
}

// Definitions returns all definitions in registration order
func (r *Registry) Definitions() []Definition {
	out := make([]Definition, len(r.defs))
	copy(out, r.defs)
	return out
}

// SnapshotNames returns the snapshot indicator names in registration order
func (r *Registry) SnapshotNames() []string {
	var names []string
	for _, d := range r.defs {
		if !d.IsGrowth() {
			names = append(names, d.Name)
		}
	}
	return names
}

// GrowthNames returns the growth indicator names in registration order
func (r *Registry) GrowthNames() []string {
	var names []string
	for _, d := range r.defs {
		if d.IsGrowth() {
			names = append(names, d.Name)
		}
	}
	return names
}

// ratio computes num/den×scale, guarding the divisor
func ratio(num, den, scale float64) (float64, error) {
	if den == 0 {
		return math.NaN(), contracts.ErrDivisionByZero
	}
	v := num / den * scale
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return math.NaN(), contracts.ErrUndefinedValue
	}
	return v, nil
}

// growth computes the compound annual growth rate between the oldest and newest periods
func growth(h *contracts.FinancialHistory, field func(contracts.PeriodFigures) float64) (float64, error) {
	if len(h.Periods) < 2 {
		return math.NaN(), fmt.Errorf("%w: growth needs at least two periods", contracts.ErrUndefinedValue)
	}

	first, last := h.Periods[0], h.Periods[0]
	for _, p := range h.Periods[1:] {
		if p.Year < first.Year {
			first = p
		}
		if p.Year > last.Year {
			last = p
		}
	}

	years := float64(last.Year - first.Year)
	if years <= 0 {
		return math.NaN(), fmt.Errorf("%w: growth needs periods in distinct years", contracts.ErrUndefinedValue)
	}

	base, end := field(first), field(last)
	if base == 0 {
		return math.NaN(), contracts.ErrDivisionByZero
	}
	if base < 0 || end < 0 {
		return math.NaN(), fmt.Errorf("%w: growth between %g and %g has no real rate", contracts.ErrUndefinedValue, base, end)
	}

	v := (math.Pow(end/base, 1/years) - 1) * 100
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return math.NaN(), contracts.ErrUndefinedValue
	}
	return v, nil
}
