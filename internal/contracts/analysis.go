package contracts

import "time"

// PeriodEvaluation holds the snapshot indicators of one fiscal year
type PeriodEvaluation struct {
	Year    int                        `json:"year"`
	Results map[string]IndicatorResult `json:"results"`
}

// Analysis is everything produced for one ticker: classified indicators,
// normalized scores, growth indicators and the per-year series.
// ⭐ SSOT: engine → report/api/store 결과 전달
type Analysis struct {
	Ticker   string            `json:"ticker"`
	Year     int               `json:"year"`
	Source   string            `json:"source"`
	Snapshot FinancialSnapshot `json:"snapshot"`

	Order   []string                   `json:"order"`
	Results map[string]IndicatorResult `json:"results"`
	Scores  map[string]NormalizedScore `json:"scores"`

	GrowthOrder []string                   `json:"growth_order,omitempty"`
	Growth      map[string]IndicatorResult `json:"growth,omitempty"`

	Series []PeriodEvaluation `json:"series,omitempty"`

	// Reported holds the source's own published ratios, when available
	Reported map[string]float64 `json:"reported,omitempty"`

	// Issues lists per-indicator problems (undefined values, degenerate ranges)
	Issues []string `json:"issues,omitempty"`

	EvaluatedAt time.Time `json:"evaluated_at"`
}

// Result returns the named result from Results or Growth
func (a *Analysis) Result(name string) (IndicatorResult, bool) {
	if r, ok := a.Results[name]; ok {
		return r, true
	}
	r, ok := a.Growth[name]
	return r, ok
}

// ClassifiedCount returns how many snapshot indicators received a real tier
func (a *Analysis) ClassifiedCount() int {
	n := 0
	for _, r := range a.Results {
		if r.Classified() {
			n++
		}
	}
	return n
}

// AverageScore returns the mean normalized score, 0 when nothing was normalized
func (a *Analysis) AverageScore() float64 {
	if len(a.Scores) == 0 {
		return 0
	}
	total := 0.0
	for _, s := range a.Scores {
		total += s.Score
	}
	return total / float64(len(a.Scores))
}
