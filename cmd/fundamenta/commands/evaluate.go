package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/fundamenta/internal/analysis"
	"github.com/wonny/fundamenta/internal/contracts"
	"github.com/wonny/fundamenta/internal/report"
	"github.com/wonny/fundamenta/pkg/logger"
)

const defaultTicker = "PETR4"

// evaluateCmd represents the evaluate command
var evaluateCmd = &cobra.Command{
	Use:   "evaluate [TICKER...]",
	Short: "종목 재무지표 평가",
	Long: `종목의 재무지표를 계산하고 기준표로 등급을 매깁니다.

이 명령어는:
- 데이터 소스(fixture | statusinvest)에서 재무 이력 조회
- 8개 스냅샷 지표 + 2개 성장률(CAGR) 계산
- 기준표 등급 분류 및 0~1 점수 정규화
- 리포트 출력 (text, markdown, html, json)
- 선택: 레이더 차트 PDF, DB 저장

Example:
  go run ./cmd/fundamenta evaluate PETR4
  go run ./cmd/fundamenta evaluate PETR4 VALE3 --source statusinvest --concurrency 2
  go run ./cmd/fundamenta evaluate PETR4 --indicators P/L,ROE --format json
  go run ./cmd/fundamenta evaluate PETR4 --format html --output petr4.html --radar petr4.pdf`,
	RunE: runEvaluate,
}

var (
	evalSource      string
	evalFixture     string
	evalThresholds  string
	evalFormat      string
	evalOutput      string
	evalRadar       string
	evalSave        bool
	evalConcurrency int
	evalIndicators  []string
)

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().StringVar(&evalSource, "source", "", "data source: fixture | statusinvest (default ANALYSIS_SOURCE)")
	evaluateCmd.Flags().StringVar(&evalFixture, "fixture", "", "fixture YAML path (default built-in PETR4)")
	evaluateCmd.Flags().StringVar(&evalThresholds, "thresholds", "", "threshold table YAML path (default built-in reference)")
	evaluateCmd.Flags().StringVarP(&evalFormat, "format", "f", "text", "report format: text | markdown | html | json")
	evaluateCmd.Flags().StringVarP(&evalOutput, "output", "o", "", "write the report to a file instead of stdout")
	evaluateCmd.Flags().StringVar(&evalRadar, "radar", "", "write the radar chart PDF to this path")
	evaluateCmd.Flags().BoolVar(&evalSave, "save", false, "persist results to PostgreSQL")
	evaluateCmd.Flags().IntVar(&evalConcurrency, "concurrency", 0, "tickers evaluated in parallel (default ANALYSIS_CONCURRENCY)")
	evaluateCmd.Flags().StringSliceVar(&evalIndicators, "indicators", nil, "evaluate only these indicators (comma separated)")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	status := cmd.ErrOrStderr()

	format, err := report.ParseFormat(evalFormat)
	if err != nil {
		return err
	}

	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Wire components
	w, err := newWiring(ctx, cfg, log, wiringOptions{
		Source:         evalSource,
		FixturePath:    firstNonEmpty(evalFixture, cfg.Analysis.FixturePath),
		ThresholdsPath: firstNonEmpty(evalThresholds, cfg.Analysis.ThresholdsPath),
		Save:           evalSave,
	})
	if err != nil {
		return err
	}
	defer w.Close()

	tickers := args
	if len(tickers) == 0 {
		tickers = []string{defaultTicker}
	}
	concurrency := evalConcurrency
	if concurrency < 1 {
		concurrency = cfg.Analysis.Concurrency
	}

	log.WithFields(map[string]interface{}{
		"tickers":     tickers,
		"source":      w.provider.Name(),
		"thresholds":  w.table.Hash()[:12],
		"concurrency": concurrency,
	}).Info("Evaluating")

	// 4. Evaluate
	results, err := evaluateAll(ctx, w.service, tickers, evalIndicators, concurrency)
	if err != nil {
		return err
	}

	var analyses []*contracts.Analysis
	for _, res := range results {
		if res.Analysis == nil {
			PrintError(status, fmt.Sprintf("%s: %v", res.Ticker, res.Err))
			continue
		}
		if res.Err != nil {
			PrintWarning(status, fmt.Sprintf("%s: %v", res.Ticker, res.Err))
		}
		analyses = append(analyses, res.Analysis)
	}
	if len(analyses) == 0 {
		return errors.New("no ticker could be evaluated")
	}

	// 5. Report
	out, closeOut, err := openOutput(cmd.OutOrStdout(), evalOutput)
	if err != nil {
		return err
	}
	defer closeOut()

	if err := w.renderer.RenderMany(out, analyses, format); err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	// 6. Radar chart
	if evalRadar != "" {
		for _, a := range analyses {
			path := radarPath(evalRadar, a.Ticker, len(analyses) > 1)
			if err := writeRadar(w.renderer, a, path); err != nil {
				PrintWarning(status, fmt.Sprintf("%s radar: %v", a.Ticker, err))
				continue
			}
			PrintSuccess(status, fmt.Sprintf("Radar chart saved to %s", path))
		}
	}

	if evalOutput != "" {
		PrintSuccess(status, fmt.Sprintf("Report saved to %s", evalOutput))
	}
	if w.repo != nil {
		PrintSuccess(status, fmt.Sprintf("%d analyses saved to database", len(analyses)))
	}
	return nil
}

// evaluateAll runs the batch path, or one selected evaluation per ticker when indicators are given
func evaluateAll(ctx context.Context, svc *analysis.Service, tickers, names []string, concurrency int) ([]analysis.BatchResult, error) {
	if len(names) == 0 {
		return svc.AnalyzeMany(ctx, tickers, concurrency)
	}

	results := make([]analysis.BatchResult, 0, len(tickers))
	for _, ticker := range tickers {
		a, err := svc.EvaluateSelected(ctx, ticker, names)
		results = append(results, analysis.BatchResult{Ticker: ticker, Analysis: a, Err: err})
	}
	return results, ctx.Err()
}

func openOutput(stdout io.Writer, path string) (io.Writer, func(), error) {
	if path == "" {
		return stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, func() { f.Close() }, nil
}

// radarPath suffixes the ticker when several charts share one --radar path
func radarPath(base, ticker string, many bool) string {
	if !many {
		return base
	}
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + "_" + strings.ToLower(ticker) + ext
}

func writeRadar(r *report.Renderer, a *contracts.Analysis, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := r.RadarPDF(f, a); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
