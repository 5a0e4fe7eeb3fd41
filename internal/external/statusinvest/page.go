package statusinvest

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/fundamenta/internal/contracts"
)

// FetchMarketData scrapes price, share count, market cap and sector from the ticker page
// ⭐ SSOT: 종목 페이지 스크래핑은 이 함수에서만
func (c *Client) FetchMarketData(ctx context.Context, ticker string) (*contracts.MarketData, error) {
	ticker = normalizeTicker(ticker)

	body, err := c.fetchHTML(ctx, "/acoes/"+strings.ToLower(ticker))
	if err != nil {
		return nil, fmt.Errorf("ticker page %s: %w", ticker, err)
	}
	defer body.Close()

	market, err := parseTickerPage(body)
	if err != nil {
		return nil, fmt.Errorf("ticker page %s: %w", ticker, err)
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker":     ticker,
		"price":      market.SharePrice,
		"shares":     market.SharesOutstanding,
		"market_cap": market.MarketCap,
	}).Debug("Scraped market data")

	return market, nil
}

// parseTickerPage reads the "div.info" blocks of the ticker page.
// Each block holds a ".title" label and a "strong.value" figure.
func parseTickerPage(r io.Reader) (*contracts.MarketData, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	market := &contracts.MarketData{}
	doc.Find("div.info").Each(func(_ int, s *goquery.Selection) {
		title := canonicalKey(s.Find(".title").First().Text())
		raw := strings.TrimSpace(s.Find("strong.value").First().Text())

		switch {
		case strings.HasPrefix(title, "valoratual"):
			if v, ok := parseNumber(raw); ok {
				market.SharePrice = v
			}
		case strings.HasPrefix(title, "valordemercado"):
			if v, ok := parseNumber(raw); ok {
				market.MarketCap = v
			}
		case strings.HasPrefix(title, "ntotaldepapeis"), strings.HasPrefix(title, "totaldepapeis"):
			if v, ok := parseNumber(raw); ok {
				market.SharesOutstanding = v
			}
		case strings.HasPrefix(title, "liquidezmediadiaria"), strings.HasPrefix(title, "volumediariomedio"):
			if v, ok := parseNumber(raw); ok {
				market.AvgDailyVolume = v
			}
		case strings.HasPrefix(title, "setordeatuacao"):
			market.Sector = raw
		}
	})

	if market.MarketCap == 0 && market.SharePrice > 0 && market.SharesOutstanding > 0 {
		market.MarketCap = market.SharePrice * market.SharesOutstanding
	}
	if market.MarketCap == 0 {
		return nil, fmt.Errorf("market cap not found on page")
	}
	return market, nil
}
