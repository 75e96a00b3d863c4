package cache

import (
	"context"
	"errors"
	"time"

	"ProxyPull/internal/domain/models"
	"ProxyPull/pkg/cache"
	"ProxyPull/pkg/logger"
)

// TTLPolicy holds the staleness window per source family.
type TTLPolicy struct {
	Equity      time.Duration `yaml:"equity" default:"1h"`
	Economic    time.Duration `yaml:"economic" default:"24h"`
	Market      time.Duration `yaml:"market" default:"5m"`
	MarketShort time.Duration `yaml:"market_short" default:"1m"`
	News        time.Duration `yaml:"news" default:"5m"`
	Synthetic   time.Duration `yaml:"synthetic" default:"1m"`
}

// DefaultTTLPolicy returns the stock staleness windows.
func DefaultTTLPolicy() TTLPolicy {
	return TTLPolicy{
		Equity:      time.Hour,
		Economic:    24 * time.Hour,
		Market:      5 * time.Minute,
		MarketShort: time.Minute,
		News:        5 * time.Minute,
		Synthetic:   time.Minute,
	}
}

// For returns how long a series of kind at tf stays fresh.
func (p TTLPolicy) For(kind models.ProxyKind, tf models.Timeframe, prov models.Provenance) time.Duration {
	if prov == models.ProvenanceSynthetic {
		return p.Synthetic
	}
	switch kind {
	case models.KindEquity, models.KindFund:
		return p.Equity
	case models.KindEconomic:
		return p.Economic
	case models.KindMarket:
		if tf == models.TF1H {
			return p.MarketShort
		}
		return p.Market
	case models.KindNews:
		return p.News
	}
	return p.Synthetic
}

// SeriesKey identifies one upstream fetch.
type SeriesKey struct {
	Source     string
	Identifier string
	Transform  string
	Timeframe  models.Timeframe
}

func (k SeriesKey) String() string {
	return cache.GenerateKeyWithParams("series", k.Source, k.Identifier, k.Transform, k.Timeframe)
}

// SeriesCache stores fetched series and headlines. Read or decode failures
// count as misses; the upstream is the source of truth.
type SeriesCache struct {
	backend cache.Service
	ttl     TTLPolicy
	log     *logger.Logger
}

func NewSeriesCache(backend cache.Service, ttl TTLPolicy, log *logger.Logger) *SeriesCache {
	return &SeriesCache{backend: backend, ttl: ttl, log: log}
}

// Get returns the cached series for key.
func (c *SeriesCache) Get(ctx context.Context, key SeriesKey) (models.Series, bool) {
	s, err := cache.GetTyped[models.Series](ctx, c.backend, key.String())
	if err != nil {
		c.logReadError(key.String(), err)
		return models.Series{}, false
	}
	return s, true
}

// Put stores s under key with the window for kind and its provenance.
func (c *SeriesCache) Put(ctx context.Context, key SeriesKey, kind models.ProxyKind, s models.Series) {
	ttl := c.ttl.For(kind, key.Timeframe, s.Provenance)
	if err := cache.SetTyped(ctx, c.backend, key.String(), s, ttl); err != nil {
		c.log.Warn("series cache write failed", logger.String("key", key.String()), logger.Error(err))
	}
}

// GetHeadlines returns cached headlines for query.
func (c *SeriesCache) GetHeadlines(ctx context.Context, query string) ([]models.Headline, bool) {
	key := headlinesKey(query)
	items, err := cache.GetTyped[[]models.Headline](ctx, c.backend, key)
	if err != nil {
		c.logReadError(key, err)
		return nil, false
	}
	return items, true
}

// PutHeadlines stores items for query.
func (c *SeriesCache) PutHeadlines(ctx context.Context, query string, items []models.Headline) {
	key := headlinesKey(query)
	if err := cache.SetTyped(ctx, c.backend, key, items, c.ttl.News); err != nil {
		c.log.Warn("headline cache write failed", logger.String("key", key), logger.Error(err))
	}
}

// Invalidate drops the entry for key.
func (c *SeriesCache) Invalidate(ctx context.Context, key SeriesKey) error {
	return c.backend.Delete(ctx, key.String())
}

// Close releases the backend.
func (c *SeriesCache) Close() error {
	return c.backend.Close()
}

func (c *SeriesCache) logReadError(key string, err error) {
	if errors.Is(err, cache.ErrCacheMiss) {
		return
	}
	c.log.Warn("cache read failed", logger.String("key", key), logger.Error(err))
}

func headlinesKey(query string) string {
	return cache.GenerateKey("headlines", query)
}
