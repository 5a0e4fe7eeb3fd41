package statusinvest

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/wonny/fundamenta/internal/contracts"
)

// BalanceItem is one line of the balance sheet history endpoint
type BalanceItem struct {
	Key    string         `json:"key"`
	Values []BalanceValue `json:"values"`
}

// BalanceValue is one year of a balance sheet line
type BalanceValue struct {
	Year  flexInt  `json:"year"`
	Value *float64 `json:"value"`
}

// flexInt accepts 2023 and "2023"
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("year %s: %w", data, err)
	}
	*f = flexInt(n)
	return nil
}

// balanceFields maps canonical balance keys to snapshot figures
var balanceFields = map[string]func(p *contracts.PeriodFigures, v float64){
	"lucroliquido":      func(p *contracts.PeriodFigures, v float64) { p.NetIncome = v },
	"receitaliquida":    func(p *contracts.PeriodFigures, v float64) { p.NetRevenue = v },
	"ebitda":            func(p *contracts.PeriodFigures, v float64) { p.EBITDA = v },
	"dividaliquida":     func(p *contracts.PeriodFigures, v float64) { p.NetDebt = v },
	"patrimonioliquido": func(p *contracts.PeriodFigures, v float64) { p.Equity = v },
	"fluxodecaixalivre": func(p *contracts.PeriodFigures, v float64) { p.FreeCashFlow = v },
	"fcf":               func(p *contracts.PeriodFigures, v float64) { p.FreeCashFlow = v },
	"dividendos":        func(p *contracts.PeriodFigures, v float64) { p.Dividends = v },
	"dividendospagos":   func(p *contracts.PeriodFigures, v float64) { p.Dividends = v },
	"ativocirculante":   func(p *contracts.PeriodFigures, v float64) { p.CurrentAssets = v },
	"passivocirculante": func(p *contracts.PeriodFigures, v float64) { p.CurrentLiabilities = v },
}

// FetchBalanceSheet fetches the yearly balance sheet history
// ⭐ SSOT: getbalancesheet 호출은 이 함수에서만
func (c *Client) FetchBalanceSheet(ctx context.Context, ticker string) ([]BalanceItem, error) {
	ticker = normalizeTicker(ticker)
	params := url.Values{}
	params.Set("ticker", ticker)
	params.Set("type", "1")
	params.Set("years", strconv.Itoa(c.historyYears))

	var items []BalanceItem
	if err := c.fetchJSON(ctx, ticker, "/acao/getbalancesheet", params, &items); err != nil {
		return nil, fmt.Errorf("balance sheet %s: %w", ticker, err)
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"lines":  len(items),
	}).Debug("Fetched balance sheet")

	return items, nil
}

// buildPeriods turns balance lines into per-year figures, oldest first.
// It also reports whether any dividends line was present.
func buildPeriods(items []BalanceItem) ([]contracts.PeriodFigures, bool) {
	byYear := make(map[int]*contracts.PeriodFigures)
	hasDividends := false

	for _, item := range items {
		key := canonicalKey(item.Key)
		set, ok := balanceFields[key]
		if !ok {
			continue
		}
		if key == "dividendos" || key == "dividendospagos" {
			hasDividends = true
		}

		for _, v := range item.Values {
			if v.Year == 0 || v.Value == nil {
				continue
			}
			p, ok := byYear[int(v.Year)]
			if !ok {
				p = &contracts.PeriodFigures{Year: int(v.Year)}
				byYear[int(v.Year)] = p
			}
			set(p, *v.Value)
		}
	}

	periods := make([]contracts.PeriodFigures, 0, len(byYear))
	for _, p := range byYear {
		periods = append(periods, *p)
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i].Year < periods[j].Year })
	return periods, hasDividends
}
