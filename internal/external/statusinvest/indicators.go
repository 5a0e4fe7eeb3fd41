package statusinvest

import (
	"context"
	"fmt"
	"math"
	"net/url"
)

// IndicatorHistory is one indicator of the history endpoint
type IndicatorHistory struct {
	Key    string           `json:"key"`
	Values []IndicatorValue `json:"values"`
}

// IndicatorValue is one dated value of an indicator
type IndicatorValue struct {
	Date  string   `json:"date"`
	Value *float64 `json:"value"`
}

// reportedNames maps canonical StatusInvest keys to our indicator names
var reportedNames = map[string]string{
	"pl":                  "P/L",
	"pvp":                 "P/VP",
	"roe":                 "ROE",
	"margemliquida":       "Margem_Liquida",
	"margemebitda":        "Margem_EBITDA",
	"dy":                  "Dividend_Yield",
	"dividendyield":       "Dividend_Yield",
	"dividaliquidaebitda": "Divida_Liquida_EBITDA",
	"dividaliquidaebit":   "Divida_Liquida_EBITDA",
}

// FetchReportedIndicators fetches the ratios StatusInvest publishes and returns the
// latest value of each one we also compute
// ⭐ SSOT: indicatorhistoryvalue 호출은 이 함수에서만
func (c *Client) FetchReportedIndicators(ctx context.Context, ticker string) (map[string]float64, error) {
	ticker = normalizeTicker(ticker)
	params := url.Values{}
	params.Set("ticker", ticker)
	params.Set("time", "5")

	var history []IndicatorHistory
	if err := c.fetchJSON(ctx, ticker, "/acao/indicatorhistoryvalue", params, &history); err != nil {
		return nil, fmt.Errorf("indicator history %s: %w", ticker, err)
	}

	return latestReported(history), nil
}

// latestReported keeps the last non-null value of each known indicator
func latestReported(history []IndicatorHistory) map[string]float64 {
	out := make(map[string]float64)
	for _, h := range history {
		name, ok := reportedNames[canonicalKey(h.Key)]
		if !ok {
			continue
		}
		for i := len(h.Values) - 1; i >= 0; i-- {
			v := h.Values[i].Value
			if v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0) {
				out[name] = *v
				break
			}
		}
	}
	return out
}
