package store

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wonny/fundamenta/internal/contracts"
)

// DB is the subset of *pgxpool.Pool the repository needs
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

const schemaSQL = `
CREATE SCHEMA IF NOT EXISTS fundamentals;

CREATE TABLE IF NOT EXISTS fundamentals.indicator_results (
	ticker          TEXT             NOT NULL,
	fiscal_year     INT              NOT NULL,
	indicator       TEXT             NOT NULL,
	value           DOUBLE PRECISION,
	tier            TEXT             NOT NULL,
	score           DOUBLE PRECISION,
	source          TEXT             NOT NULL,
	thresholds_hash TEXT             NOT NULL,
	evaluated_at    TIMESTAMPTZ      NOT NULL,
	PRIMARY KEY (ticker, fiscal_year, indicator)
);

CREATE INDEX IF NOT EXISTS idx_indicator_results_ticker_year
	ON fundamentals.indicator_results (ticker, fiscal_year DESC);
`

// StoredResult is one persisted indicator row
type StoredResult struct {
	Ticker         string    `json:"ticker"`
	Year           int       `json:"year"`
	Indicator      string    `json:"indicator"`
	Value          *float64  `json:"value"`
	Tier           string    `json:"tier"`
	Score          *float64  `json:"score"`
	Source         string    `json:"source"`
	ThresholdsHash string    `json:"thresholds_hash"`
	EvaluatedAt    time.Time `json:"evaluated_at"`
}

// EvaluationRepository persists analyses into fundamentals.indicator_results
// ⭐ SSOT: 평가 결과 저장소는 여기서만
type EvaluationRepository struct {
	db             DB
	thresholdsHash string
}

// NewEvaluationRepository creates a repository. thresholdsHash identifies the
// threshold table the stored tiers were classified with.
func NewEvaluationRepository(db DB, thresholdsHash string) *EvaluationRepository {
	return &EvaluationRepository{
		db:             db,
		thresholdsHash: thresholdsHash,
	}
}

// EnsureSchema creates the schema and table when missing
func (r *EvaluationRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Save upserts one row per indicator (snapshot and growth) in a single transaction
func (r *EvaluationRepository) Save(ctx context.Context, a *contracts.Analysis) error {
	names := append(append([]string{}, a.Order...), a.GrowthOrder...)
	if len(names) == 0 {
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	query := `
		INSERT INTO fundamentals.indicator_results (
			ticker, fiscal_year, indicator, value, tier, score,
			source, thresholds_hash, evaluated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (ticker, fiscal_year, indicator) DO UPDATE SET
			value = EXCLUDED.value,
			tier = EXCLUDED.tier,
			score = EXCLUDED.score,
			source = EXCLUDED.source,
			thresholds_hash = EXCLUDED.thresholds_hash,
			evaluated_at = EXCLUDED.evaluated_at
	`

	for _, name := range names {
		res, ok := a.Result(name)
		if !ok {
			continue
		}

		var value, score *float64
		if res.Defined && !math.IsNaN(res.Value) && !math.IsInf(res.Value, 0) {
			v := res.Value
			value = &v
		}
		if s, ok := a.Scores[name]; ok {
			v := s.Score
			score = &v
		}

		if _, err := tx.Exec(ctx, query,
			a.Ticker, a.Year, name, value, res.Tier, score,
			a.Source, r.thresholdsHash, a.EvaluatedAt,
		); err != nil {
			return fmt.Errorf("save %s %s: %w", a.Ticker, name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit %s: %w", a.Ticker, err)
	}
	return nil
}

// LatestByTicker returns the rows of the ticker's most recent fiscal year
func (r *EvaluationRepository) LatestByTicker(ctx context.Context, ticker string) ([]StoredResult, error) {
	query := `
		SELECT ticker, fiscal_year, indicator, value, tier, score,
		       source, thresholds_hash, evaluated_at
		FROM fundamentals.indicator_results
		WHERE ticker = $1
		  AND fiscal_year = (
			SELECT MAX(fiscal_year) FROM fundamentals.indicator_results WHERE ticker = $1
		  )
		ORDER BY indicator
	`

	rows, err := r.db.Query(ctx, query, ticker)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", ticker, err)
	}
	defer rows.Close()

	var results []StoredResult
	for rows.Next() {
		var s StoredResult
		if err := rows.Scan(
			&s.Ticker, &s.Year, &s.Indicator, &s.Value, &s.Tier, &s.Score,
			&s.Source, &s.ThresholdsHash, &s.EvaluatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan %s: %w", ticker, err)
		}
		results = append(results, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows %s: %w", ticker, err)
	}
	return results, nil
}
