package thresholds

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/wonny/fundamenta/internal/contracts"
)

// Tier is one classification bucket covering [Min, Max).
// OffScale tiers classify values but are ignored when deriving normalization bounds.
type Tier struct {
	Label    string
	Min      float64
	Max      float64
	OffScale bool
}

// Contains reports whether v falls in [Min, Max)
func (t Tier) Contains(v float64) bool {
	return v >= t.Min && v < t.Max
}

// MarshalJSON encodes infinite bounds as null
func (t Tier) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Label    string   `json:"label"`
		Min      *float64 `json:"min"`
		Max      *float64 `json:"max"`
		OffScale bool     `json:"off_scale,omitempty"`
	}{
		Label:    t.Label,
		Min:      finiteOrNil(t.Min),
		Max:      finiteOrNil(t.Max),
		OffScale: t.OffScale,
	})
}

func finiteOrNil(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}

// Entry is the tier list and description of one indicator
type Entry struct {
	Indicator   string `json:"indicator"`
	Description string `json:"description"`
	Tiers       []Tier `json:"tiers"` // ascending by Min
}

// Classify returns the label of the first tier (ascending Min) containing v.
// A value on a boundary belongs to the tier starting there.
func (e Entry) Classify(v float64) string {
	for _, t := range e.Tiers {
		if t.Contains(v) {
			return t.Label
		}
	}
	return contracts.TierUnclassified
}

// Tier returns the tier with the given label
func (e Entry) Tier(label string) (Tier, bool) {
	for _, t := range e.Tiers {
		if t.Label == label {
			return t, true
		}
	}
	return Tier{}, false
}

// ScaleBounds returns the normalization bounds of the entry under polarity p.
//
// Lower is better: optimal is the upper edge of the best (lowest) scale tier and
// poor is the lower edge of the worst (highest) scale tier.
// Higher is better: optimal is the lower edge of the best (highest) scale tier and
// poor is the lower edge of the worst (lowest) scale tier.
func (e Entry) ScaleBounds(p contracts.Polarity) (optimal, poor float64, err error) {
	scale := make([]Tier, 0, len(e.Tiers))
	for _, t := range e.Tiers {
		if !t.OffScale {
			scale = append(scale, t)
		}
	}
	if len(scale) == 0 {
		return 0, 0, fmt.Errorf("%w: %s has no scale tiers", contracts.ErrDegenerateRange, e.Indicator)
	}

	best, worst := scale[len(scale)-1], scale[0]
	if p == contracts.LowerIsBetter {
		best, worst = scale[0], scale[len(scale)-1]
		optimal, poor = best.Max, worst.Min
	} else {
		optimal, poor = best.Min, worst.Min
	}

	if math.IsInf(optimal, 0) || math.IsInf(poor, 0) {
		return optimal, poor, fmt.Errorf("%w: %s has an unbounded scale edge", contracts.ErrDegenerateRange, e.Indicator)
	}
	if optimal == poor {
		return optimal, poor, fmt.Errorf("%w: %s optimal and poor bounds are both %g", contracts.ErrDegenerateRange, e.Indicator, optimal)
	}
	return optimal, poor, nil
}

func (e Entry) clone() Entry {
	tiers := make([]Tier, len(e.Tiers))
	copy(tiers, e.Tiers)
	e.Tiers = tiers
	return e
}

// Table is the read-only set of threshold entries, safe for concurrent readers
// ⭐ SSOT: 지표 기준표는 여기서만
type Table struct {
	entries map[string]Entry
	names   []string
}

// New sorts each entry's tiers by Min and validates the result.
// Any gap, overlap or missing bound fails with ErrMalformedThresholdTable.
func New(entries ...Entry) (*Table, error) {
	t := &Table{
		entries: make(map[string]Entry, len(entries)),
		names:   make([]string, 0, len(entries)),
	}

	for i, e := range entries {
		e = e.clone()
		sort.SliceStable(e.Tiers, func(a, b int) bool {
			return e.Tiers[a].Min < e.Tiers[b].Min
		})

		if err := validateEntry(i, e); err != nil {
			return nil, err
		}
		if _, dup := t.entries[e.Indicator]; dup {
			return nil, ValidationError{fmt.Sprintf("indicators[%d].name", i), fmt.Sprintf("duplicate indicator %q", e.Indicator)}
		}

		t.entries[e.Indicator] = e
		t.names = append(t.names, e.Indicator)
	}

	return t, nil
}

// MustNew is New for static tables built at process start
func MustNew(entries ...Entry) *Table {
	t, err := New(entries...)
	if err != nil {
		panic(err)
	}
	return t
}

// Lookup returns the entry of the named indicator
func (t *Table) Lookup(name string) (Entry, error) {
	e, ok := t.entries[name]
	if !ok {
		return Entry{}, contracts.NewIndicatorError(name, contracts.ErrUnknownIndicator)
	}
	return e.clone(), nil
}

// Has reports whether the indicator is registered
func (t *Table) Has(name string) bool {
	_, ok := t.entries[name]
	return ok
}

// Names returns indicator names in registration order
func (t *Table) Names() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Entries returns all entries in registration order
func (t *Table) Entries() []Entry {
	out := make([]Entry, 0, len(t.names))
	for _, name := range t.names {
		out = append(out, t.entries[name].clone())
	}
	return out
}

// Hash returns a SHA256 of the table's canonical JSON, stored with persisted results
func (t *Table) Hash() string {
	data, err := json.Marshal(t.Entries())
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
