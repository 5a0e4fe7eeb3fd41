package statusinvest

import (
	"context"
	"fmt"
	"net/url"
)

// Provent is one dividend / interest-on-equity event, per share
type Provent struct {
	Date        string  `json:"date"`
	PaymentDate string  `json:"paymentDate"`
	Value       float64 `json:"value"`
	Type        string  `json:"type"`
}

// FetchDividends fetches the ticker's dividend events
// ⭐ SSOT: companytickerprovents 호출은 이 함수에서만
func (c *Client) FetchDividends(ctx context.Context, ticker string) ([]Provent, error) {
	ticker = normalizeTicker(ticker)
	params := url.Values{}
	params.Set("ticker", ticker)

	var provents []Provent
	if err := c.fetchJSON(ctx, ticker, "/acao/companytickerprovents", params, &provents); err != nil {
		return nil, fmt.Errorf("dividends %s: %w", ticker, err)
	}
	return provents, nil
}

// dividendsPerShareByYear sums per-share payouts by the year of the com date.
// Events with an unreadable date are skipped.
func dividendsPerShareByYear(provents []Provent) map[int]float64 {
	out := make(map[int]float64)
	for _, p := range provents {
		year, err := parseYear(p.Date)
		if err != nil {
			if year, err = parseYear(p.PaymentDate); err != nil {
				continue
			}
		}
		out[year] += p.Value
	}
	return out
}
