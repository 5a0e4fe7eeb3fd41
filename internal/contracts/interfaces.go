package contracts

import "context"

// HistoryProvider supplies a ticker's financial history (DataProvider)
// ⭐ SSOT: 원천 데이터 공급 인터페이스
type HistoryProvider interface {
	Name() string
	FetchHistory(ctx context.Context, ticker string) (*FinancialHistory, error)
}

// ReportedIndicatorSource supplies the ratios a data source publishes itself
type ReportedIndicatorSource interface {
	FetchReportedIndicators(ctx context.Context, ticker string) (map[string]float64, error)
}

// AnalysisRepository persists analyses
type AnalysisRepository interface {
	Save(ctx context.Context, analysis *Analysis) error
}
