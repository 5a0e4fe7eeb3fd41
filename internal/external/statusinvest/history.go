package statusinvest

import (
	"context"
	"fmt"

	"github.com/wonny/fundamenta/internal/contracts"
)

// FetchHistory assembles the financial history from the balance sheet and the
// ticker page. When the balance sheet has no dividends line, yearly dividends are
// the per-share events times the current share count.
func (c *Client) FetchHistory(ctx context.Context, ticker string) (*contracts.FinancialHistory, error) {
	ticker = normalizeTicker(ticker)

	items, err := c.FetchBalanceSheet(ctx, ticker)
	if err != nil {
		return nil, err
	}
	periods, hasDividends := buildPeriods(items)
	if len(periods) == 0 {
		return nil, fmt.Errorf("%w: %s balance sheet has no usable lines", contracts.ErrInvalidSnapshot, ticker)
	}

	market, err := c.FetchMarketData(ctx, ticker)
	if err != nil {
		return nil, err
	}

	if !hasDividends && market.SharesOutstanding > 0 {
		provents, err := c.FetchDividends(ctx, ticker)
		if err != nil {
			c.logger.WithError(err).WithField("ticker", ticker).Warn("Dividend events unavailable, dividends left at zero")
		} else {
			perShare := dividendsPerShareByYear(provents)
			for i := range periods {
				periods[i].Dividends = perShare[periods[i].Year] * market.SharesOutstanding
			}
		}
	}

	history := &contracts.FinancialHistory{
		Ticker:  ticker,
		Periods: periods,
		Market:  *market,
	}
	history.Normalize()
	if err := history.Validate(); err != nil {
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker":  ticker,
		"periods": len(periods),
	}).Info("Fetched financial history")

	return history, nil
}
