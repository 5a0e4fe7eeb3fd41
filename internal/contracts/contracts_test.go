package contracts

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleHistory() *FinancialHistory {
	return &FinancialHistory{
		Ticker: " petr4 ",
		Periods: []PeriodFigures{
			{Year: 2023, NetIncome: 124.7, NetRevenue: 603.3, EBITDA: 262.4, NetDebt: -82.8, Equity: 401.5, FreeCashFlow: 89.4, Dividends: 72.4},
			{Year: 2019, NetIncome: 40.1, NetRevenue: 302.2, EBITDA: 129.2, NetDebt: 317.9, Equity: 299.1, FreeCashFlow: 30.2, Dividends: 10.7},
		},
		Market: MarketData{SharePrice: 35.82, SharesOutstanding: 13.04, MarketCap: 467.0},
	}
}

func TestFinancialHistory_Normalize(t *testing.T) {
	h := sampleHistory()
	h.Normalize()

	assert.Equal(t, "PETR4", h.Ticker)
	assert.Equal(t, 2019, h.Periods[0].Year)
	assert.Equal(t, 2023, h.Periods[1].Year)
}

func TestFinancialHistory_Latest(t *testing.T) {
	h := sampleHistory()

	snap, err := h.Latest()
	require.NoError(t, err)
	assert.Equal(t, 2023, snap.Year)
	assert.Equal(t, 124.7, snap.NetIncome)
	assert.Equal(t, 467.0, snap.MarketCap)

	_, err = (&FinancialHistory{Ticker: "X"}).Latest()
	assert.True(t, errors.Is(err, ErrInvalidSnapshot))
}

func TestFinancialHistory_SnapshotAt(t *testing.T) {
	h := sampleHistory()

	snap, err := h.SnapshotAt(2019)
	require.NoError(t, err)
	assert.Equal(t, 40.1, snap.NetIncome)

	_, err = h.SnapshotAt(2000)
	assert.True(t, errors.Is(err, ErrInvalidSnapshot))
}

func TestFinancialHistory_Validate(t *testing.T) {
	h := sampleHistory()
	require.NoError(t, h.Validate())

	dup := sampleHistory()
	dup.Periods[1].Year = 2023
	assert.True(t, errors.Is(dup.Validate(), ErrInvalidSnapshot))

	assert.True(t, errors.Is((&FinancialHistory{}).Validate(), ErrInvalidSnapshot))
}

func TestFinancialSnapshot_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *FinancialSnapshot)
		wantErr bool
	}{
		{"valid", func(s *FinancialSnapshot) {}, false},
		{"negative net income is fine", func(s *FinancialSnapshot) { s.NetIncome = -10 }, false},
		{"NaN revenue", func(s *FinancialSnapshot) { s.NetRevenue = math.NaN() }, true},
		{"infinite ebitda", func(s *FinancialSnapshot) { s.EBITDA = math.Inf(1) }, true},
		{"NaN current liabilities", func(s *FinancialSnapshot) { s.CurrentLiabilities = math.NaN() }, true},
		{"negative market cap", func(s *FinancialSnapshot) { s.MarketCap = -1 }, true},
		{"negative shares", func(s *FinancialSnapshot) { s.SharesOutstanding = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := sampleHistory().Latest()
			require.NoError(t, err)
			tt.mutate(&snap)

			err = snap.Validate()
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidSnapshot), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPolarity_String(t *testing.T) {
	assert.Equal(t, "higher_is_better", HigherIsBetter.String())
	assert.Equal(t, "lower_is_better", LowerIsBetter.String())
	assert.Equal(t, "neutral", Neutral.String())

	text, err := Neutral.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "neutral", string(text))
}

func TestIndicatorError(t *testing.T) {
	err := NewIndicatorError("ROE", ErrDivisionByZero)

	assert.Equal(t, "ROE: division by zero", err.Error())
	assert.True(t, errors.Is(err, ErrDivisionByZero))

	var ie *IndicatorError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "ROE", ie.Indicator)
}

func TestIndicatorResult_MarshalJSON(t *testing.T) {
	defined := IndicatorResult{Name: "P/L", Value: 3.75, Defined: true, Tier: "otimo", Polarity: LowerIsBetter}
	data, err := json.Marshal(defined)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"P/L","value":3.75,"defined":true,"tier":"otimo","description":"","polarity":"lower_is_better"}`, string(data))

	undefined := IndicatorResult{Name: "ROE", Value: math.NaN(), Tier: TierUndefined, Err: ErrDivisionByZero}
	data, err = json.Marshal(undefined)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"ROE","value":null,"defined":false,"tier":"indefinido","description":"","polarity":"higher_is_better","error":"division by zero"}`, string(data))
}

func TestIndicatorResult_Classified(t *testing.T) {
	assert.True(t, IndicatorResult{Defined: true, Tier: "bom"}.Classified())
	assert.False(t, IndicatorResult{Defined: true, Tier: TierUnclassified}.Classified())
	assert.False(t, IndicatorResult{Defined: false, Tier: TierUndefined}.Classified())
}

func TestAnalysis_Helpers(t *testing.T) {
	a := &Analysis{
		Results: map[string]IndicatorResult{
			"P/L": {Name: "P/L", Defined: true, Tier: "otimo"},
			"ROE": {Name: "ROE", Tier: TierUndefined},
		},
		Growth: map[string]IndicatorResult{
			"CAGR_Receita": {Name: "CAGR_Receita", Defined: true, Tier: "bom"},
		},
		Scores: map[string]NormalizedScore{
			"P/L":           {Score: 1},
			"Margem_EBITDA": {Score: 0.5},
		},
	}

	assert.Equal(t, 1, a.ClassifiedCount())
	assert.InDelta(t, 0.75, a.AverageScore(), 1e-9)

	r, ok := a.Result("CAGR_Receita")
	assert.True(t, ok)
	assert.Equal(t, "bom", r.Tier)

	_, ok = a.Result("missing")
	assert.False(t, ok)
}
