package indicators

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fundamenta/internal/contracts"
	"github.com/wonny/fundamenta/internal/provider"
	"github.com/wonny/fundamenta/internal/thresholds"
	"github.com/wonny/fundamenta/pkg/config"
	"github.com/wonny/fundamenta/pkg/logger"
)

func newEngine() *Engine {
	return NewEngine(thresholds.Reference(), logger.Nop())
}

func latestPETR4(t *testing.T) contracts.FinancialSnapshot {
	t.Helper()
	s, err := provider.PETR4History().Latest()
	require.NoError(t, err)
	return s
}

func TestEvaluate_PETR4(t *testing.T) {
	results, err := newEngine().Evaluate(latestPETR4(t))
	require.NoError(t, err)
	require.Len(t, results, 10)

	tests := []struct {
		name  string
		value float64
		tier  string
	}{
		{"P/L", 3.745, "otimo"},
		{"P/VP", 1.163, "bom"},
		{"Margem_EBITDA", 43.49, "otimo"},
		{"Margem_Liquida", 20.67, "bom"},
		{"ROE", 31.06, "otimo"},
		{"Dividend_Yield", 15.50, "otimo"},
		{"Divida_Liquida_EBITDA", -0.3155, "otimo"},
		{"FCF_Yield", 19.14, "otimo"},
		{"Payout", 58.06, "moderado"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, ok := results[tt.name]
			require.True(t, ok)
			assert.True(t, r.Defined)
			assert.InDelta(t, tt.value, r.Value, 0.01)
			assert.Equal(t, tt.tier, r.Tier)
			assert.NotEmpty(t, r.Description)
			assert.NoError(t, r.Err)
		})
	}

	assert.Equal(t, contracts.LowerIsBetter, results["P/L"].Polarity)
	assert.Equal(t, contracts.HigherIsBetter, results["ROE"].Polarity)
	assert.Equal(t, contracts.Neutral, results["Payout"].Polarity)

	// the built-in history has no current assets or liabilities
	lc := results["Liquidez_Corrente"]
	assert.False(t, lc.Defined)
	assert.Equal(t, contracts.TierUndefined, lc.Tier)
	assert.True(t, errors.Is(lc.Err, contracts.ErrUndefinedValue))
	assert.Contains(t, lc.Err.Error(), "Liquidez_Corrente")
}

func TestEvaluate_CurrentLiquidity(t *testing.T) {
	tests := []struct {
		name        string
		assets      float64
		liabilities float64
		tier        string
		want        error
	}{
		{"strong", 300, 120, "otimo", nil},
		{"on the 1.5 edge", 150, 100, "bom", nil},
		{"regular", 110, 100, "regular", nil},
		{"short of cover", 80, 100, "ruim", nil},
		{"no liabilities", 80, 0, contracts.TierUndefined, contracts.ErrDivisionByZero},
		{"not reported", 0, 0, contracts.TierUndefined, contracts.ErrUndefinedValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := latestPETR4(t)
			s.CurrentAssets = tt.assets
			s.CurrentLiabilities = tt.liabilities

			results, err := newEngine().EvaluateSelected(s, []string{"Liquidez_Corrente"})
			require.NoError(t, err)

			r := results["Liquidez_Corrente"]
			assert.Equal(t, tt.tier, r.Tier)
			if tt.want != nil {
				assert.True(t, errors.Is(r.Err, tt.want), r.Err)
				return
			}
			assert.NoError(t, r.Err)
			assert.InDelta(t, tt.assets/tt.liabilities, r.Value, 1e-9)
		})
	}
}

func TestEvaluate_MatchesFormulas(t *testing.T) {
	s := contracts.FinancialSnapshot{
		Ticker: "TEST3",
		PeriodFigures: contracts.PeriodFigures{
			NetIncome: 12, NetRevenue: 80, EBITDA: 30, NetDebt: 45,
			Equity: 60, FreeCashFlow: 9, Dividends: 6,
			CurrentAssets: 42, CurrentLiabilities: 28,
		},
		MarketData: contracts.MarketData{MarketCap: 150},
	}

	results, err := newEngine().Evaluate(s)
	require.NoError(t, err)

	want := map[string]float64{
		"P/L":                   150.0 / 12,
		"P/VP":                  150.0 / 60,
		"Margem_EBITDA":         30.0 / 80 * 100,
		"Margem_Liquida":        12.0 / 80 * 100,
		"ROE":                   12.0 / 60 * 100,
		"Dividend_Yield":        6.0 / 150 * 100,
		"Divida_Liquida_EBITDA": 45.0 / 30,
		"FCF_Yield":             9.0 / 150 * 100,
		"Payout":                6.0 / 12 * 100,
		"Liquidez_Corrente":     42.0 / 28,
	}
	for name, v := range want {
		assert.InDelta(t, v, results[name].Value, 1e-9, name)
		assert.False(t, math.IsInf(results[name].Value, 0), name)
	}
}

func TestEvaluate_DivisionByZero(t *testing.T) {
	s := latestPETR4(t)
	s.NetIncome = 0
	s.EBITDA = 0

	results, err := newEngine().Evaluate(s)
	require.NoError(t, err)
	require.Len(t, results, 10)

	for _, name := range []string{"P/L", "Divida_Liquida_EBITDA", "Payout"} {
		r := results[name]
		assert.False(t, r.Defined, name)
		assert.True(t, math.IsNaN(r.Value), name)
		assert.Equal(t, contracts.TierUndefined, r.Tier, name)
		assert.True(t, errors.Is(r.Err, contracts.ErrDivisionByZero), name)

		var ie *contracts.IndicatorError
		require.True(t, errors.As(r.Err, &ie))
		assert.Equal(t, name, ie.Indicator)
	}

	// the rest are unaffected
	assert.Equal(t, "otimo", results["Dividend_Yield"].Tier)
	assert.True(t, results["ROE"].Defined)
	assert.InDelta(t, 0, results["Margem_Liquida"].Value, 1e-9)
}

func TestEvaluate_NegativeEarnings(t *testing.T) {
	s := latestPETR4(t)
	s.NetIncome = -50

	results, err := newEngine().Evaluate(s)
	require.NoError(t, err)

	assert.Equal(t, "negativo", results["P/L"].Tier)
	assert.Equal(t, "negativo", results["ROE"].Tier)
	assert.Equal(t, "negativo", results["Margem_Liquida"].Tier)
	assert.Equal(t, "negativo", results["Payout"].Tier)
}

func TestEvaluate_BoundaryBelongsToUpperTier(t *testing.T) {
	// market cap / net income lands exactly on 10
	s := contracts.FinancialSnapshot{
		PeriodFigures: contracts.PeriodFigures{NetIncome: 10, NetRevenue: 100, EBITDA: 40, Equity: 100},
		MarketData:    contracts.MarketData{MarketCap: 100},
	}
	results, err := newEngine().Evaluate(s)
	require.NoError(t, err)

	assert.Equal(t, "bom", results["P/L"].Tier)
	assert.Equal(t, "otimo", results["Margem_EBITDA"].Tier)
	assert.Equal(t, "regular", results["Margem_Liquida"].Tier)
	assert.Equal(t, "regular", results["ROE"].Tier)
	assert.Equal(t, "bom", results["P/VP"].Tier)
	assert.Equal(t, "baixo", results["Dividend_Yield"].Tier)
}

func TestEvaluate_Deterministic(t *testing.T) {
	e := newEngine()
	s := latestPETR4(t)

	first, err := e.Evaluate(s)
	require.NoError(t, err)
	second, err := e.Evaluate(s)
	require.NoError(t, err)

	for name, r := range first {
		assert.Equal(t, r.Value, second[name].Value)
		assert.Equal(t, r.Tier, second[name].Tier)
	}
}

func TestEvaluateSelected(t *testing.T) {
	results, err := newEngine().EvaluateSelected(latestPETR4(t), []string{"ROE", "EV/EBIT", "P/L", "CAGR_Lucro"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, contracts.ErrUnknownIndicator))
	assert.Contains(t, err.Error(), "EV/EBIT")
	assert.Contains(t, err.Error(), "CAGR_Lucro")

	require.Len(t, results, 2)
	assert.Equal(t, "otimo", results["ROE"].Tier)
	assert.Equal(t, "otimo", results["P/L"].Tier)
}

func TestEvaluate_MissingThresholdEntry(t *testing.T) {
	inf := math.Inf(1)
	table, err := thresholds.New(thresholds.Entry{
		Indicator: "ROE",
		Tiers: []thresholds.Tier{
			{Label: "ruim", Min: -inf, Max: 15},
			{Label: "bom", Min: 15, Max: inf},
		},
	})
	require.NoError(t, err)

	results, err := NewEngine(table, nil).Evaluate(latestPETR4(t))
	require.Error(t, err)
	assert.True(t, errors.Is(err, contracts.ErrUnknownIndicator))
	require.Len(t, results, 1)
	assert.Equal(t, "bom", results["ROE"].Tier)
}

func TestEvaluateGrowth(t *testing.T) {
	results, err := newEngine().EvaluateGrowth(provider.PETR4History())
	require.NoError(t, err)
	require.Len(t, results, 2)

	// (603.3/302.2)^(1/4) − 1
	assert.InDelta(t, 18.87, results["CAGR_Receita"].Value, 0.01)
	assert.Equal(t, "otimo", results["CAGR_Receita"].Tier)

	// (124.7/40.1)^(1/4) − 1
	assert.InDelta(t, 32.79, results["CAGR_Lucro"].Value, 0.01)
	assert.Equal(t, "otimo", results["CAGR_Lucro"].Tier)
}

func TestEvaluateGrowth_Undefined(t *testing.T) {
	tests := []struct {
		name    string
		periods []contracts.PeriodFigures
		want    error
	}{
		{
			name:    "single period",
			periods: []contracts.PeriodFigures{{Year: 2023, NetRevenue: 10, NetIncome: 1}},
			want:    contracts.ErrUndefinedValue,
		},
		{
			name: "zero base",
			periods: []contracts.PeriodFigures{
				{Year: 2020, NetRevenue: 0, NetIncome: 0},
				{Year: 2023, NetRevenue: 10, NetIncome: 1},
			},
			want: contracts.ErrDivisionByZero,
		},
		{
			name: "negative base",
			periods: []contracts.PeriodFigures{
				{Year: 2020, NetRevenue: -5, NetIncome: -1},
				{Year: 2023, NetRevenue: 10, NetIncome: 1},
			},
			want: contracts.ErrUndefinedValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &contracts.FinancialHistory{Ticker: "X", Periods: tt.periods}
			results, err := newEngine().EvaluateGrowth(h)
			require.NoError(t, err)

			for _, r := range results {
				assert.False(t, r.Defined)
				assert.Equal(t, contracts.TierUndefined, r.Tier)
				assert.True(t, errors.Is(r.Err, tt.want), r.Err)
			}
		})
	}
}

func TestEvaluateGrowth_Decline(t *testing.T) {
	h := &contracts.FinancialHistory{Ticker: "X", Periods: []contracts.PeriodFigures{
		{Year: 2021, NetRevenue: 100, NetIncome: 20},
		{Year: 2023, NetRevenue: 81, NetIncome: 5},
	}}
	results, err := newEngine().EvaluateGrowth(h)
	require.NoError(t, err)

	assert.InDelta(t, -10, results["CAGR_Receita"].Value, 1e-9)
	assert.Equal(t, "negativo", results["CAGR_Receita"].Tier)
	assert.Equal(t, "negativo", results["CAGR_Lucro"].Tier)
}

func TestEvaluateGrowthSelected_RejectsSnapshotIndicator(t *testing.T) {
	results, err := newEngine().EvaluateGrowthSelected(provider.PETR4History(), []string{"P/L", "CAGR_Lucro"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "P/L")
	assert.Len(t, results, 1)
}

func TestEvaluateSeries(t *testing.T) {
	h := provider.PETR4History()
	// out of order on purpose
	h.Periods[0], h.Periods[4] = h.Periods[4], h.Periods[0]

	series, err := newEngine().EvaluateSeries(h)
	require.NoError(t, err)
	require.Len(t, series, 5)

	for i, p := range series {
		assert.Equal(t, 2019+i, p.Year)
		assert.Len(t, p.Results, 10)
	}

	// 2020: 467.0 / 7.1
	assert.InDelta(t, 65.77, series[1].Results["P/L"].Value, 0.01)
	assert.Equal(t, "alto", series[1].Results["P/L"].Tier)
	assert.Equal(t, "otimo", series[4].Results["P/L"].Tier)
}

func TestSplit(t *testing.T) {
	snapshot, growth, unknown := newEngine().Split([]string{"CAGR_Lucro", "P/L", "nope", "ROE"})
	assert.Equal(t, []string{"P/L", "ROE"}, snapshot)
	assert.Equal(t, []string{"CAGR_Lucro"}, growth)
	assert.Equal(t, []string{"nope"}, unknown)
}

func TestEvaluate_DebugLogging(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&config.Config{LogLevel: "debug", LogFormat: "json", Env: "test"}, &buf)
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	_, err := NewEngine(thresholds.Reference(), log).Evaluate(latestPETR4(t))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"indicator":"P/L"`)
	assert.Contains(t, out, `"tier":"otimo"`)
	assert.Contains(t, out, "Evaluated indicator")
}

func TestRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.Len(t, r.Definitions(), 12)
	assert.Len(t, r.SnapshotNames(), 10)
	assert.Equal(t, []string{"Payout", "Liquidez_Corrente"}, r.SnapshotNames()[8:])
	assert.Equal(t, []string{"CAGR_Receita", "CAGR_Lucro"}, r.GrowthNames())

	def, err := r.Lookup("Divida_Liquida_EBITDA")
	require.NoError(t, err)
	assert.Equal(t, contracts.LowerIsBetter, def.Polarity)
	assert.Equal(t, "net_debt / ebitda", def.Formula)

	def, err = r.Lookup("Payout")
	require.NoError(t, err)
	assert.Equal(t, contracts.Neutral, def.Polarity)

	_, err = r.Lookup("EV/EBIT")
	assert.True(t, errors.Is(err, contracts.ErrUnknownIndicator))

	_, err = NewRegistry(Definition{Name: "X"})
	assert.Error(t, err)

	fn := func(contracts.FinancialSnapshot) (float64, error) { return 0, nil }
	_, err = NewRegistry(Definition{Name: "X", Snapshot: fn}, Definition{Name: "X", Snapshot: fn})
	assert.Error(t, err)
}
