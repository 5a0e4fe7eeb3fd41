package commands

import (
	"context"
	"fmt"

	"github.com/wonny/fundamenta/internal/analysis"
	"github.com/wonny/fundamenta/internal/contracts"
	"github.com/wonny/fundamenta/internal/external/statusinvest"
	"github.com/wonny/fundamenta/internal/indicators"
	"github.com/wonny/fundamenta/internal/normalize"
	"github.com/wonny/fundamenta/internal/provider"
	"github.com/wonny/fundamenta/internal/report"
	"github.com/wonny/fundamenta/internal/store"
	"github.com/wonny/fundamenta/internal/thresholds"
	"github.com/wonny/fundamenta/pkg/config"
	"github.com/wonny/fundamenta/pkg/database"
	"github.com/wonny/fundamenta/pkg/httputil"
	"github.com/wonny/fundamenta/pkg/logger"
	"github.com/wonny/fundamenta/pkg/redis"
)

// wiring holds the components shared by the evaluate and api commands
type wiring struct {
	table    *thresholds.Table
	engine   *indicators.Engine
	provider contracts.HistoryProvider
	repo     *store.EvaluationRepository // nil unless persistence was requested
	service  *analysis.Service
	renderer *report.Renderer

	closers []func()
}

// Close releases database and cache connections
func (w *wiring) Close() {
	for i := len(w.closers) - 1; i >= 0; i-- {
		w.closers[i]()
	}
}

// wiringOptions selects the data source and optional persistence
type wiringOptions struct {
	Source         string
	FixturePath    string
	ThresholdsPath string
	Save           bool // fail when the database is unavailable
	SaveIfEnabled  bool // use the database only when DATABASE_URL is set
}

// newWiring assembles table → provider → engine → service
func newWiring(ctx context.Context, cfg *config.Config, log *logger.Logger, opts wiringOptions) (*wiring, error) {
	w := &wiring{}

	// 1. Threshold table
	table, err := thresholds.LoadOrReference(opts.ThresholdsPath)
	if err != nil {
		return nil, fmt.Errorf("load thresholds: %w", err)
	}
	for _, warning := range thresholds.Warn(table) {
		log.WithFields(map[string]interface{}{
			"indicator": warning.Indicator,
			"warning":   warning.Message,
		}).Warn("Threshold table warning")
	}
	w.table = table

	// 2. Data provider
	p, err := newProvider(ctx, cfg, log, opts, w)
	if err != nil {
		w.Close()
		return nil, err
	}
	w.provider = p

	// 3. Optional result storage
	if opts.Save || (opts.SaveIfEnabled && cfg.Database.Enabled()) {
		db, err := database.New(ctx, cfg)
		if err != nil {
			w.Close()
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		w.closers = append(w.closers, db.Close)

		repo := store.NewEvaluationRepository(db.Pool, table.Hash())
		if err := repo.EnsureSchema(ctx); err != nil {
			w.Close()
			return nil, err
		}
		w.repo = repo
		log.Info("Connected to database")
	}

	// 4. Engine and service
	w.engine = indicators.NewEngine(table, log)
	var svcOpts []analysis.Option
	if w.repo != nil {
		svcOpts = append(svcOpts, analysis.WithRepository(w.repo))
	}
	w.service = analysis.NewService(p, w.engine, normalize.New(table, log), log, svcOpts...)
	w.renderer = report.NewRenderer(table)

	return w, nil
}

func newProvider(ctx context.Context, cfg *config.Config, log *logger.Logger, opts wiringOptions, w *wiring) (contracts.HistoryProvider, error) {
	source := opts.Source
	if source == "" {
		source = cfg.Analysis.Source
	}

	var p contracts.HistoryProvider
	switch source {
	case provider.SourceFixture:
		fixture, err := provider.LoadFixtureOrDefault(opts.FixturePath)
		if err != nil {
			return nil, fmt.Errorf("load fixture: %w", err)
		}
		// local data needs no cache
		return fixture, nil
	case statusinvest.SourceName:
		p = statusinvest.NewClient(httputil.New(cfg, log), cfg.StatusInvest, log)
	default:
		return nil, fmt.Errorf("unknown source %q (fixture, statusinvest)", source)
	}

	if !cfg.Redis.Enabled {
		return p, nil
	}

	client, err := redis.New(ctx, cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, continuing without cache")
		return p, nil
	}
	w.closers = append(w.closers, func() { client.Close() })

	log.WithField("ttl", cfg.Analysis.CacheTTL.String()).Info("Using Redis snapshot cache")
	return provider.NewCached(p, redis.NewCache(client, "fundamenta"), cfg.Analysis.CacheTTL, log), nil
}
