package provider

import "github.com/wonny/fundamenta/internal/contracts"

// PETR4History returns the built-in PETR4 fixture (R$ billions, 2019-2023)
func PETR4History() *contracts.FinancialHistory {
	return &contracts.FinancialHistory{
		Ticker: "PETR4",
		Periods: []contracts.PeriodFigures{
			{Year: 2019, NetIncome: 40.1, NetRevenue: 302.2, EBITDA: 129.2, NetDebt: 317.9, Equity: 299.1, FreeCashFlow: 30.2, Dividends: 10.7},
			{Year: 2020, NetIncome: 7.1, NetRevenue: 281.5, EBITDA: 52.9, NetDebt: 284.5, Equity: 311.3, FreeCashFlow: 28.1, Dividends: 1.8},
			{Year: 2021, NetIncome: 106.7, NetRevenue: 452.7, EBITDA: 234.9, NetDebt: 58.7, Equity: 350.5, FreeCashFlow: 101.5, Dividends: 101.4},
			{Year: 2022, NetIncome: 188.3, NetRevenue: 640.9, EBITDA: 339.3, NetDebt: -57.6, Equity: 389.2, FreeCashFlow: 122.8, Dividends: 215.8},
			{Year: 2023, NetIncome: 124.7, NetRevenue: 603.3, EBITDA: 262.4, NetDebt: -82.8, Equity: 401.5, FreeCashFlow: 89.4, Dividends: 72.4},
		},
		Market: contracts.MarketData{
			SharePrice:        35.82,
			SharesOutstanding: 13.04,
			MarketCap:         467.0,
			AvgDailyVolume:    1.8,
			Sector:            "Petróleo e Gás",
		},
	}
}
