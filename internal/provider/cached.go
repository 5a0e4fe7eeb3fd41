package provider

import (
	"context"
	"time"

	"github.com/wonny/fundamenta/internal/contracts"
	"github.com/wonny/fundamenta/pkg/logger"
	"github.com/wonny/fundamenta/pkg/redis"
)

// Cache is the key/value store behind Cached (satisfied by *redis.Cache)
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Cached decorates a provider with a read-through cache.
// Cache failures are logged and fall through to the provider.
type Cached struct {
	next   contracts.HistoryProvider
	cache  Cache
	ttl    time.Duration
	logger *logger.Logger
}

// NewCached wraps next with cache
func NewCached(next contracts.HistoryProvider, cache Cache, ttl time.Duration, log *logger.Logger) *Cached {
	if log == nil {
		log = logger.Nop()
	}
	return &Cached{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: log,
	}
}

// Name returns the wrapped provider's name
func (c *Cached) Name() string {
	return c.next.Name()
}

// FetchHistory serves from cache, fetching and storing on a miss
func (c *Cached) FetchHistory(ctx context.Context, ticker string) (*contracts.FinancialHistory, error) {
	key := redis.HistoryKey(c.next.Name(), ticker)

	var cached contracts.FinancialHistory
	hit, err := c.cache.Get(ctx, key, &cached)
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("History cache read failed")
	}
	if hit {
		c.logger.WithField("key", key).Debug("History cache hit")
		return &cached, nil
	}

	history, err := c.next.FetchHistory(ctx, ticker)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, key, history, c.ttl); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("History cache write failed")
	}
	return history, nil
}

// FetchReportedIndicators passes through to the wrapped provider when it publishes ratios
func (c *Cached) FetchReportedIndicators(ctx context.Context, ticker string) (map[string]float64, error) {
	source, ok := c.next.(contracts.ReportedIndicatorSource)
	if !ok {
		return nil, nil
	}

	key := redis.ReportedKey(c.next.Name(), ticker)
	var cached map[string]float64
	hit, err := c.cache.Get(ctx, key, &cached)
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Reported indicator cache read failed")
	}
	if hit {
		return cached, nil
	}

	reported, err := source.FetchReportedIndicators(ctx, ticker)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, key, reported, c.ttl); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Reported indicator cache write failed")
	}
	return reported, nil
}
