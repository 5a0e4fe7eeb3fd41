package analysis

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/fundamenta/internal/contracts"
	"github.com/wonny/fundamenta/internal/indicators"
	"github.com/wonny/fundamenta/internal/normalize"
	"github.com/wonny/fundamenta/pkg/logger"
)

// ErrSaveFailed marks an analysis that was computed but could not be persisted
var ErrSaveFailed = errors.New("save analysis")

// Service runs provider → engine → normalizer → repository for one or many tickers
// ⭐ SSOT: 분석 파이프라인 조립은 여기서만
type Service struct {
	provider   contracts.HistoryProvider
	engine     *indicators.Engine
	normalizer *normalize.Normalizer
	repo       contracts.AnalysisRepository
	logger     *logger.Logger
	now        func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithRepository saves every analysis through repo
func WithRepository(repo contracts.AnalysisRepository) Option {
	return func(s *Service) { s.repo = repo }
}

// WithClock overrides the evaluation timestamp source
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates an analysis service
func NewService(provider contracts.HistoryProvider, engine *indicators.Engine, normalizer *normalize.Normalizer, log *logger.Logger, opts ...Option) *Service {
	if log == nil {
		log = logger.Nop()
	}
	s := &Service{
		provider:   provider,
		engine:     engine,
		normalizer: normalizer,
		logger:     log,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Engine returns the service's indicator engine
func (s *Service) Engine() *indicators.Engine {
	return s.engine
}

// Analyze evaluates every registered indicator for the ticker.
// Per-indicator problems are recorded in Analysis.Issues; only fetch,
// snapshot validation and save failures are returned as errors.
func (s *Service) Analyze(ctx context.Context, ticker string) (*contracts.Analysis, error) {
	return s.analyze(ctx, ticker, nil)
}

// EvaluateSelected evaluates only the named indicators. The analysis is returned
// even when some names are unknown; the error then matches ErrUnknownIndicator.
func (s *Service) EvaluateSelected(ctx context.Context, ticker string, names []string) (*contracts.Analysis, error) {
	if len(names) == 0 {
		return s.Analyze(ctx, ticker)
	}
	return s.analyze(ctx, ticker, names)
}

func (s *Service) analyze(ctx context.Context, ticker string, selected []string) (*contracts.Analysis, error) {
	log := s.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"source": s.provider.Name(),
	})

	history, err := s.provider.FetchHistory(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", ticker, err)
	}
	history.Normalize()
	if err := history.Validate(); err != nil {
		return nil, fmt.Errorf("validate %s: %w", ticker, err)
	}

	snapshot, err := history.Latest()
	if err != nil {
		return nil, err
	}

	names := selected
	if names == nil {
		reg := s.engine.Registry()
		names = append(reg.SnapshotNames(), reg.GrowthNames()...)
	}
	// indicators without a threshold entry land in unknown
	snapshotNames, growthNames, unknown := s.engine.Split(names)

	a := &contracts.Analysis{
		Ticker:      history.Ticker,
		Year:        snapshot.Year,
		Source:      s.provider.Name(),
		Snapshot:    snapshot,
		Order:       snapshotNames,
		GrowthOrder: growthNames,
		EvaluatedAt: s.now().UTC(),
	}

	a.Results, _ = s.engine.EvaluateSelected(snapshot, snapshotNames)
	a.Growth, _ = s.engine.EvaluateGrowthSelected(history, growthNames)
	if selected == nil {
		// series errors repeat the unknown names collected above
		a.Series, _ = s.engine.EvaluateSeries(history)
	}

	for _, name := range a.Order {
		if r, ok := a.Results[name]; ok && r.Err != nil {
			a.Issues = append(a.Issues, r.Err.Error())
		}
	}
	for _, name := range a.GrowthOrder {
		if r, ok := a.Growth[name]; ok && r.Err != nil {
			a.Issues = append(a.Issues, r.Err.Error())
		}
	}

	// growth indicators share the radar scale with the snapshot ratios
	scored := make(map[string]contracts.IndicatorResult, len(a.Results)+len(a.Growth))
	for name, r := range a.Results {
		scored[name] = r
	}
	for name, r := range a.Growth {
		scored[name] = r
	}
	a.Scores, err = s.normalizer.Normalize(scored)
	for _, e := range flatten(err) {
		if errors.Is(e, contracts.ErrUndefinedValue) {
			continue // already reported by the engine
		}
		a.Issues = append(a.Issues, e.Error())
	}

	var unknownErrs []error
	for _, name := range unknown {
		err := contracts.NewIndicatorError(name, contracts.ErrUnknownIndicator)
		unknownErrs = append(unknownErrs, err)
		a.Issues = append(a.Issues, err.Error())
	}

	if source, ok := s.provider.(contracts.ReportedIndicatorSource); ok {
		reported, err := source.FetchReportedIndicators(ctx, ticker)
		if err != nil {
			log.WithError(err).Warn("Reported indicators unavailable")
			a.Issues = append(a.Issues, fmt.Sprintf("reported indicators unavailable: %v", err))
		} else if len(reported) > 0 {
			a.Reported = reported
		}
	}

	if s.repo != nil {
		if err := s.repo.Save(ctx, a); err != nil {
			return a, fmt.Errorf("%w %s: %w", ErrSaveFailed, a.Ticker, err)
		}
	}

	log.WithFields(map[string]interface{}{
		"year":       a.Year,
		"classified": a.ClassifiedCount(),
		"issues":     len(a.Issues),
		"score":      a.AverageScore(),
	}).Info("Analysis completed")

	if selected == nil {
		return a, nil
	}
	return a, errors.Join(unknownErrs...)
}

// BatchResult is the outcome of one ticker in AnalyzeMany
type BatchResult struct {
	Ticker   string
	Analysis *contracts.Analysis
	Err      error
}

// AnalyzeMany analyzes tickers in parallel with at most concurrency in flight.
// Results keep the input order; a failed ticker never aborts the batch.
// The returned error is only set when ctx ends before the batch completes.
func (s *Service) AnalyzeMany(ctx context.Context, tickers []string, concurrency int) ([]BatchResult, error) {
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]BatchResult, len(tickers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var succeeded, failed atomic.Int64

	for i, ticker := range tickers {
		i, ticker := i, ticker
		g.Go(func() error {
			results[i].Ticker = ticker
			if err := gctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}

			a, err := s.Analyze(gctx, ticker)
			results[i].Analysis = a
			results[i].Err = err
			if err != nil {
				failed.Add(1)
				s.logger.WithError(err).WithField("ticker", ticker).Error("Analysis failed")
				return nil // don't abort batch on individual failure
			}
			succeeded.Add(1)
			return nil
		})
	}

	_ = g.Wait()

	s.logger.WithFields(map[string]interface{}{
		"tickers":     len(tickers),
		"succeeded":   succeeded.Load(),
		"failed":      failed.Load(),
		"concurrency": concurrency,
	}).Info("Batch analysis completed")

	return results, ctx.Err()
}

// flatten splits an errors.Join result into its parts
func flatten(err error) []error {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, e := range joined.Unwrap() {
			out = append(out, flatten(e)...)
		}
		return out
	}
	return []error{err}
}
