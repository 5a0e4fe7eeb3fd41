package thresholds

import (
	"fmt"
	"math"

	"github.com/wonny/fundamenta/internal/contracts"
)

// ValidationError 기준표 결함 (로드 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%v: %s: %s", contracts.ErrMalformedThresholdTable, e.Field, e.Message)
}

// Unwrap lets errors.Is match ErrMalformedThresholdTable
func (e ValidationError) Unwrap() error {
	return contracts.ErrMalformedThresholdTable
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Indicator string
	Message   string
}

// validateEntry checks that tiers (already sorted by Min) partition the real line
func validateEntry(i int, e Entry) error {
	field := fmt.Sprintf("indicators[%d]", i)

	if e.Indicator == "" {
		return ValidationError{field + ".name", "required"}
	}
	field = fmt.Sprintf("%s(%s)", field, e.Indicator)

	if len(e.Tiers) == 0 {
		return ValidationError{field + ".tiers", "at least one tier required"}
	}

	labels := make(map[string]bool, len(e.Tiers))
	for j, t := range e.Tiers {
		tf := fmt.Sprintf("%s.tiers[%d]", field, j)
		if t.Label == "" {
			return ValidationError{tf + ".label", "required"}
		}
		if labels[t.Label] {
			return ValidationError{tf + ".label", fmt.Sprintf("duplicate label %q", t.Label)}
		}
		labels[t.Label] = true

		if math.IsNaN(t.Min) || math.IsNaN(t.Max) {
			return ValidationError{tf, "bounds must be numbers"}
		}
		if !(t.Min < t.Max) {
			return ValidationError{tf, fmt.Sprintf("min %g must be < max %g", t.Min, t.Max)}
		}
	}

	first, last := e.Tiers[0], e.Tiers[len(e.Tiers)-1]
	if !math.IsInf(first.Min, -1) {
		return ValidationError{field + ".tiers", fmt.Sprintf("gap below %g: lowest tier %q must start at -inf", first.Min, first.Label)}
	}
	if !math.IsInf(last.Max, 1) {
		return ValidationError{field + ".tiers", fmt.Sprintf("gap above %g: highest tier %q must end at +inf", last.Max, last.Label)}
	}

	for j := 0; j+1 < len(e.Tiers); j++ {
		cur, next := e.Tiers[j], e.Tiers[j+1]
		switch {
		case cur.Max < next.Min:
			return ValidationError{field + ".tiers", fmt.Sprintf("gap [%g, %g) between %q and %q", cur.Max, next.Min, cur.Label, next.Label)}
		case cur.Max > next.Min:
			return ValidationError{field + ".tiers", fmt.Sprintf("overlap [%g, %g) between %q and %q", next.Min, cur.Max, cur.Label, next.Label)}
		}
	}

	return nil
}

// Warn returns recommended-practice violations that do not block loading
func Warn(t *Table) []Warning {
	var warnings []Warning
	for _, e := range t.Entries() {
		if e.Description == "" {
			warnings = append(warnings, Warning{e.Indicator, "missing description"})
		}

		scale := 0
		for _, tier := range e.Tiers {
			if !tier.OffScale {
				scale++
			}
		}
		if scale < 2 {
			warnings = append(warnings, Warning{e.Indicator, fmt.Sprintf("only %d scale tier(s): normalization will report a degenerate range", scale)})
		}
	}
	return warnings
}
