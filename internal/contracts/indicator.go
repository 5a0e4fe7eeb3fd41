package contracts

import (
	"encoding/json"
	"math"
)

// Tier sentinels
const (
	// TierUnclassified marks a value no tier contains (only possible with a malformed table)
	TierUnclassified = "nao_classificado"

	// TierUndefined marks a result whose value could not be computed
	TierUndefined = "indefinido"
)

// Polarity tells whether lower or higher raw values are better.
// Neutral indicators are classified but never normalized.
type Polarity int

const (
	HigherIsBetter Polarity = iota
	LowerIsBetter
	Neutral
)

func (p Polarity) String() string {
	switch p {
	case LowerIsBetter:
		return "lower_is_better"
	case Neutral:
		return "neutral"
	default:
		return "higher_is_better"
	}
}

// MarshalText encodes the polarity by name
func (p Polarity) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// IndicatorResult is the outcome of evaluating one indicator
type IndicatorResult struct {
	Name        string   `json:"name"`
	Value       float64  `json:"-"`
	Defined     bool     `json:"defined"`
	Tier        string   `json:"tier"`
	Description string   `json:"description"`
	Polarity    Polarity `json:"polarity"`
	Err         error    `json:"-"`
}

// Classified reports whether the result carries a real tier label
func (r IndicatorResult) Classified() bool {
	return r.Defined && r.Tier != TierUnclassified && r.Tier != TierUndefined
}

// MarshalJSON writes Value as null when undefined (JSON has no NaN)
func (r IndicatorResult) MarshalJSON() ([]byte, error) {
	type alias IndicatorResult
	out := struct {
		alias
		Value *float64 `json:"value"`
		Error string   `json:"error,omitempty"`
	}{alias: alias(r)}

	if r.Defined && !math.IsNaN(r.Value) && !math.IsInf(r.Value, 0) {
		v := r.Value
		out.Value = &v
	}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return json.Marshal(out)
}

// NormalizedScore is an indicator's position on the common [0,1] scale
type NormalizedScore struct {
	Indicator string  `json:"indicator"`
	Score     float64 `json:"score"`
	Optimal   float64 `json:"optimal_bound"`
	Poor      float64 `json:"poor_bound"`
}
