package contracts

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// PeriodFigures holds one fiscal period's statement figures.
// All magnitudes share the same currency unit.
type PeriodFigures struct {
	Year         int     `json:"year" yaml:"year"`
	NetIncome    float64 `json:"net_income" yaml:"net_income"`         // lucro líquido
	NetRevenue   float64 `json:"net_revenue" yaml:"net_revenue"`       // receita líquida
	EBITDA       float64 `json:"ebitda" yaml:"ebitda"`
	NetDebt      float64 `json:"net_debt" yaml:"net_debt"`             // dívida líquida
	Equity       float64 `json:"equity" yaml:"equity"`                 // patrimônio líquido
	FreeCashFlow float64 `json:"free_cash_flow" yaml:"free_cash_flow"`
	Dividends    float64 `json:"dividends" yaml:"dividends"`           // dividendos pagos

	// Zero when the source does not report the balance split
	CurrentAssets      float64 `json:"current_assets,omitempty" yaml:"current_assets"`           // ativo circulante
	CurrentLiabilities float64 `json:"current_liabilities,omitempty" yaml:"current_liabilities"` // passivo circulante
}

// MarketData holds current market figures
type MarketData struct {
	SharePrice        float64 `json:"share_price" yaml:"share_price"`
	SharesOutstanding float64 `json:"shares_outstanding" yaml:"shares_outstanding"`
	MarketCap         float64 `json:"market_cap" yaml:"market_cap"`
	AvgDailyVolume    float64 `json:"avg_daily_volume,omitempty" yaml:"avg_daily_volume"`
	Sector            string  `json:"sector,omitempty" yaml:"sector"`
}

// FinancialSnapshot is one consistent set of figures used by every indicator formula.
// Build it with FinancialHistory.Latest / SnapshotAt or validate it with Validate.
type FinancialSnapshot struct {
	Ticker string `json:"ticker"`
	PeriodFigures
	MarketData
}

// Validate checks the snapshot invariants: finite magnitudes, non-negative
// market cap and share count.
func (s FinancialSnapshot) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"net_income", s.NetIncome},
		{"net_revenue", s.NetRevenue},
		{"ebitda", s.EBITDA},
		{"net_debt", s.NetDebt},
		{"equity", s.Equity},
		{"free_cash_flow", s.FreeCashFlow},
		{"dividends", s.Dividends},
		{"current_assets", s.CurrentAssets},
		{"current_liabilities", s.CurrentLiabilities},
		{"share_price", s.SharePrice},
		{"shares_outstanding", s.SharesOutstanding},
		{"market_cap", s.MarketCap},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalidSnapshot, f.name)
		}
	}
	if s.MarketCap < 0 {
		return fmt.Errorf("%w: market_cap must be >= 0", ErrInvalidSnapshot)
	}
	if s.SharesOutstanding < 0 {
		return fmt.Errorf("%w: shares_outstanding must be >= 0", ErrInvalidSnapshot)
	}
	return nil
}

// FinancialHistory is a company's statement history plus its current market figures
type FinancialHistory struct {
	Ticker  string          `json:"ticker" yaml:"ticker"`
	Periods []PeriodFigures `json:"periods" yaml:"periods"`
	Market  MarketData      `json:"market" yaml:"market"`
}

// Normalize upper-cases the ticker and sorts periods oldest first
func (h *FinancialHistory) Normalize() {
	h.Ticker = strings.ToUpper(strings.TrimSpace(h.Ticker))
	sort.SliceStable(h.Periods, func(i, j int) bool {
		return h.Periods[i].Year < h.Periods[j].Year
	})
}

// Validate checks that the history has periods and that every derived snapshot is valid
func (h *FinancialHistory) Validate() error {
	if len(h.Periods) == 0 {
		return fmt.Errorf("%w: %s has no statement periods", ErrInvalidSnapshot, h.Ticker)
	}
	seen := make(map[int]bool, len(h.Periods))
	for _, p := range h.Periods {
		if seen[p.Year] {
			return fmt.Errorf("%w: %s has duplicate period %d", ErrInvalidSnapshot, h.Ticker, p.Year)
		}
		seen[p.Year] = true
		if err := h.snapshot(p).Validate(); err != nil {
			return fmt.Errorf("period %d: %w", p.Year, err)
		}
	}
	return nil
}

// Latest returns the snapshot of the most recent period
func (h *FinancialHistory) Latest() (FinancialSnapshot, error) {
	if len(h.Periods) == 0 {
		return FinancialSnapshot{}, fmt.Errorf("%w: %s has no statement periods", ErrInvalidSnapshot, h.Ticker)
	}
	latest := h.Periods[0]
	for _, p := range h.Periods[1:] {
		if p.Year > latest.Year {
			latest = p
		}
	}
	return h.snapshot(latest), nil
}

// SnapshotAt returns the snapshot of the given fiscal year
func (h *FinancialHistory) SnapshotAt(year int) (FinancialSnapshot, error) {
	for _, p := range h.Periods {
		if p.Year == year {
			return h.snapshot(p), nil
		}
	}
	return FinancialSnapshot{}, fmt.Errorf("%w: %s has no period %d", ErrInvalidSnapshot, h.Ticker, year)
}

func (h *FinancialHistory) snapshot(p PeriodFigures) FinancialSnapshot {
	return FinancialSnapshot{
		Ticker:        h.Ticker,
		PeriodFigures: p,
		MarketData:    h.Market,
	}
}
