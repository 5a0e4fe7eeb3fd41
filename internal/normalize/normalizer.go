package normalize

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/wonny/fundamenta/internal/contracts"
	"github.com/wonny/fundamenta/internal/thresholds"
	"github.com/wonny/fundamenta/pkg/logger"
)

// Normalizer maps indicator values onto [0,1] using the threshold table's scale bounds
// ⭐ SSOT: 레이더 정규화는 여기서만
type Normalizer struct {
	table  *thresholds.Table
	logger *logger.Logger
}

// New creates a normalizer over the table
func New(table *thresholds.Table, log *logger.Logger) *Normalizer {
	if log == nil {
		log = logger.Nop()
	}
	return &Normalizer{
		table:  table,
		logger: log,
	}
}

// Normalize scores every defined result. Neutral indicators are skipped.
// Failures (undefined value, unknown indicator, degenerate range) are joined
// in the returned error and leave the other scores intact.
func (n *Normalizer) Normalize(results map[string]contracts.IndicatorResult) (map[string]contracts.NormalizedScore, error) {
	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	scores := make(map[string]contracts.NormalizedScore, len(results))
	var errs []error

	for _, name := range names {
		r := results[name]
		if r.Polarity == contracts.Neutral {
			continue
		}
		if !r.Defined {
			errs = append(errs, contracts.NewIndicatorError(name, contracts.ErrUndefinedValue))
			continue
		}

		score, err := n.Score(name, r.Value, r.Polarity)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		scores[name] = score
	}

	return scores, errors.Join(errs...)
}

// Score normalizes one value
func (n *Normalizer) Score(name string, value float64, polarity contracts.Polarity) (contracts.NormalizedScore, error) {
	if polarity == contracts.Neutral {
		return contracts.NormalizedScore{}, contracts.NewIndicatorError(name, fmt.Errorf("%w: neutral indicators have no scale direction", contracts.ErrDegenerateRange))
	}
	entry, err := n.table.Lookup(name)
	if err != nil {
		return contracts.NormalizedScore{}, err
	}

	optimal, poor, err := entry.ScaleBounds(polarity)
	if err != nil {
		return contracts.NormalizedScore{}, contracts.NewIndicatorError(name, err)
	}

	score, err := Scale(value, optimal, poor, polarity)
	if err != nil {
		return contracts.NormalizedScore{}, contracts.NewIndicatorError(name, err)
	}

	n.logger.WithFields(map[string]interface{}{
		"indicator": name,
		"value":     value,
		"optimal":   optimal,
		"poor":      poor,
		"score":     score,
	}).Debug("Normalized indicator")

	return contracts.NormalizedScore{
		Indicator: name,
		Score:     score,
		Optimal:   optimal,
		Poor:      poor,
	}, nil
}

// Scale maps value onto [0,1] where optimal scores 1 and poor scores 0.
// Values beyond either bound saturate.
func Scale(value, optimal, poor float64, polarity contracts.Polarity) (float64, error) {
	if math.IsNaN(value) {
		return 0, contracts.ErrUndefinedValue
	}
	if optimal == poor || math.IsInf(optimal, 0) || math.IsInf(poor, 0) {
		return 0, contracts.ErrDegenerateRange
	}

	if polarity == contracts.LowerIsBetter {
		return 1 - clamp((value-optimal)/(poor-optimal)), nil
	}
	return clamp((value - poor) / (optimal - poor)), nil
}

func clamp(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
