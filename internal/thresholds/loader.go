package thresholds

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the YAML layout of a threshold table
type File struct {
	Indicators []IndicatorSpec `yaml:"indicators"`
}

// IndicatorSpec is one indicator in a threshold file
type IndicatorSpec struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Tiers       []TierSpec `yaml:"tiers"`
}

// TierSpec is one tier in a threshold file. An omitted min means -inf and an
// omitted max means +inf; ".inf" and "-.inf" are also accepted.
type TierSpec struct {
	Label    string   `yaml:"label"`
	Min      *float64 `yaml:"min"`
	Max      *float64 `yaml:"max"`
	OffScale bool     `yaml:"off_scale"`
}

// Load reads a YAML threshold file and returns the table with the raw bytes
// SSOT 핵심: KnownFields(true)로 오타/미사용 필드 즉시 실패
func Load(path string) (*Table, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	table, err := Parse(data)
	if err != nil {
		return nil, data, fmt.Errorf("%s: %w", path, err)
	}
	return table, data, nil
}

// Parse decodes and validates a YAML threshold table
func Parse(data []byte) (*Table, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // 알 수 없는 필드 발견 시 에러 반환
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode thresholds: %w", err)
	}

	if len(f.Indicators) == 0 {
		return nil, ValidationError{"indicators", "at least one indicator required"}
	}

	entries := make([]Entry, 0, len(f.Indicators))
	for _, spec := range f.Indicators {
		entries = append(entries, spec.entry())
	}
	return New(entries...)
}

// LoadOrReference loads path, or returns the built-in table when path is empty
func LoadOrReference(path string) (*Table, error) {
	if path == "" {
		return Reference(), nil
	}
	table, _, err := Load(path)
	return table, err
}

func (s IndicatorSpec) entry() Entry {
	e := Entry{
		Indicator:   s.Name,
		Description: s.Description,
		Tiers:       make([]Tier, 0, len(s.Tiers)),
	}
	for _, t := range s.Tiers {
		tier := Tier{
			Label:    t.Label,
			Min:      math.Inf(-1),
			Max:      math.Inf(1),
			OffScale: t.OffScale,
		}
		if t.Min != nil {
			tier.Min = *t.Min
		}
		if t.Max != nil {
			tier.Max = *t.Max
		}
		e.Tiers = append(e.Tiers, tier)
	}
	return e
}
