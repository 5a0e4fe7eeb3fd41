package provider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wonny/fundamenta/internal/contracts"
)

// ErrTickerNotFound is returned when a provider has no data for the ticker
var ErrTickerNotFound = errors.New("ticker not found")

// SourceFixture is the name of the static provider
const SourceFixture = "fixture"

// Fixture serves static financial histories
type Fixture struct {
	histories map[string]*contracts.FinancialHistory
}

// NewFixture creates a fixture provider from histories, validating each one
func NewFixture(histories ...*contracts.FinancialHistory) (*Fixture, error) {
	f := &Fixture{histories: make(map[string]*contracts.FinancialHistory, len(histories))}
	for _, h := range histories {
		h = cloneHistory(h)
		h.Normalize()
		if h.Ticker == "" {
			return nil, fmt.Errorf("%w: fixture history without ticker", contracts.ErrInvalidSnapshot)
		}
		if err := h.Validate(); err != nil {
			return nil, err
		}
		f.histories[h.Ticker] = h
	}
	return f, nil
}

// DefaultFixture serves the built-in PETR4 history
func DefaultFixture() *Fixture {
	f, err := NewFixture(PETR4History())
	if err != nil {
		panic(err)
	}
	return f
}

// fixtureFile accepts either one history at the top level or a companies list
type fixtureFile struct {
	contracts.FinancialHistory `yaml:",inline"`
	Companies                  []contracts.FinancialHistory `yaml:"companies"`
}

// LoadFixture reads a YAML fixture file
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file fixtureFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode fixture %s: %w", path, err)
	}

	histories := make([]*contracts.FinancialHistory, 0, len(file.Companies)+1)
	if file.Ticker != "" {
		h := file.FinancialHistory
		histories = append(histories, &h)
	}
	for i := range file.Companies {
		histories = append(histories, &file.Companies[i])
	}
	if len(histories) == 0 {
		return nil, fmt.Errorf("fixture %s: no companies", path)
	}

	f, err := NewFixture(histories...)
	if err != nil {
		return nil, fmt.Errorf("fixture %s: %w", path, err)
	}
	return f, nil
}

// LoadFixtureOrDefault loads path, or serves the built-in fixture when path is empty
func LoadFixtureOrDefault(path string) (*Fixture, error) {
	if path == "" {
		return DefaultFixture(), nil
	}
	return LoadFixture(path)
}

// Name returns the provider name
func (f *Fixture) Name() string {
	return SourceFixture
}

// Tickers returns the available tickers, sorted
func (f *Fixture) Tickers() []string {
	tickers := make([]string, 0, len(f.histories))
	for t := range f.histories {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	return tickers
}

// FetchHistory returns a copy of the ticker's history
func (f *Fixture) FetchHistory(ctx context.Context, ticker string) (*contracts.FinancialHistory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h, ok := f.histories[strings.ToUpper(strings.TrimSpace(ticker))]
	if !ok {
		return nil, fmt.Errorf("%w: %s (fixture has %s)", ErrTickerNotFound, ticker, strings.Join(f.Tickers(), ", "))
	}
	return cloneHistory(h), nil
}

func cloneHistory(h *contracts.FinancialHistory) *contracts.FinancialHistory {
	out := *h
	out.Periods = make([]contracts.PeriodFigures, len(h.Periods))
	copy(out.Periods, h.Periods)
	return &out
}
