package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"ProxyPull/internal/domain/models"
	domrepo "ProxyPull/internal/domain/repository"
	domsvc "ProxyPull/internal/domain/service"
	svccache "ProxyPull/internal/service/cache"
	"ProxyPull/internal/services/normalizer"
	"ProxyPull/internal/services/timeframe"
	"ProxyPull/pkg/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

const (
	rolePrimary   = "primary"
	roleBenchmark = "benchmark"
)

// Sources bundles the adapter of each numeric source family.
type Sources struct {
	Equity   domsvc.SeriesSource
	Economic domsvc.SeriesSource
	Market   domsvc.SeriesSource
}

// ProxySeriesConfig tunes the facade.
type ProxySeriesConfig struct {
	// FetchTimeout bounds one upstream fetch. Fetches outlive the request
	// that started them so the result still reaches the cache.
	FetchTimeout time.Duration
	// EventTimeout bounds one provenance event publish.
	EventTimeout time.Duration
}

// ProxySeriesUseCase turns a proxy descriptor and a timeframe token into a
// chart-ready series. Upstream failures never reach the caller: they are
// replaced by a synthetic series flagged as such.
type ProxySeriesUseCase struct {
	sources  Sources
	resolver *timeframe.Resolver
	fallback domsvc.FallbackGenerator
	cache    *svccache.SeriesCache
	policy   *BenchmarkPolicy
	catalog  domrepo.CatalogRepository
	events   domrepo.EventPublisher
	metrics  domrepo.Metrics
	log      *logger.Logger

	fetchTimeout time.Duration
	eventTimeout time.Duration
	group        singleflight.Group
	pending      sync.WaitGroup
}

func NewProxySeriesUseCase(
	sources Sources,
	resolver *timeframe.Resolver,
	fallback domsvc.FallbackGenerator,
	cache *svccache.SeriesCache,
	policy *BenchmarkPolicy,
	catalog domrepo.CatalogRepository,
	events domrepo.EventPublisher,
	metrics domrepo.Metrics,
	log *logger.Logger,
	cfg ProxySeriesConfig,
) *ProxySeriesUseCase {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 15 * time.Second
	}
	if cfg.EventTimeout <= 0 {
		cfg.EventTimeout = 5 * time.Second
	}
	return &ProxySeriesUseCase{
		sources:      sources,
		resolver:     resolver,
		fallback:     fallback,
		cache:        cache,
		policy:       policy,
		catalog:      catalog,
		events:       events,
		metrics:      metrics,
		log:          log,
		fetchTimeout: cfg.FetchTimeout,
		eventTimeout: cfg.EventTimeout,
	}
}

// fetchPlan is what one descriptor resolves to.
type fetchPlan struct {
	source     domsvc.SeriesSource
	kind       models.ProxyKind
	identifier string
	transform  string
	scale      domsvc.Scale
}

func (p fetchPlan) key(tf models.Timeframe) svccache.SeriesKey {
	return svccache.SeriesKey{
		Source:     p.source.Name(),
		Identifier: p.identifier,
		Transform:  p.transform,
		Timeframe:  tf,
	}
}

// planner maps each source variant onto its adapter.
type planner struct {
	sources Sources
	plan    fetchPlan
}

func (p *planner) VisitEquity(s models.EquitySource) error {
	return p.set(p.sources.Equity, models.KindEquity, s.Ticker, "", domsvc.ScalePrice)
}

func (p *planner) VisitFund(s models.FundSource) error {
	return p.set(p.sources.Equity, models.KindFund, s.Ticker, "", domsvc.ScalePrice)
}

func (p *planner) VisitEconomic(s models.EconomicSource) error {
	return p.set(p.sources.Economic, models.KindEconomic, s.Series, strings.TrimSpace(s.Transform), domsvc.ScalePrice)
}

func (p *planner) VisitMarket(s models.MarketSource) error {
	return p.set(p.sources.Market, models.KindMarket, s.Slug, "", domsvc.ScaleProbability)
}

func (p *planner) VisitNews(models.NewsSource) error {
	return models.ErrNotNumeric
}

func (p *planner) set(src domsvc.SeriesSource, kind models.ProxyKind, identifier, transform string, scale domsvc.Scale) error {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return models.ErrMissingIdentifier
	}
	if src == nil {
		return fmt.Errorf("%w: no source for %s", models.ErrUnknownKind, kind)
	}
	p.plan = fetchPlan{source: src, kind: kind, identifier: identifier, transform: transform, scale: scale}
	return nil
}

// GetProxySeries resolves a catalog proxy by id.
func (uc *ProxySeriesUseCase) GetProxySeries(ctx context.Context, proxyID, tf string) (*models.SeriesResult, error) {
	d, ok := uc.catalog.FindProxy(proxyID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrProxyNotFound, proxyID)
	}
	return uc.GetSeries(ctx, d, tf)
}

// GetSeries returns the series of d over tf. An empty tf selects the family
// default. Only caller mistakes and caller cancellation are returned as
// errors.
func (uc *ProxySeriesUseCase) GetSeries(ctx context.Context, d models.ProxyDescriptor, tf string) (*models.SeriesResult, error) {
	start := time.Now()
	defer func() { uc.metrics.RecordLatency("get_series", time.Since(start).Seconds()) }()

	if d.Source == nil {
		return nil, models.ErrUnknownKind
	}
	p := &planner{sources: uc.sources}
	if err := d.Source.Accept(p); err != nil {
		return nil, err
	}
	plan := p.plan

	family := plan.kind.Family()
	token, ok := models.NormalizeTimeframe(family, tf)
	if !ok {
		return nil, fmt.Errorf("%w: %q for %s", models.ErrInvalidTimeframe, tf, plan.kind)
	}
	rng, sampling, err := uc.resolver.Resolve(family, token)
	if err != nil {
		return nil, err
	}
	q := models.SeriesQuery{Timeframe: token, Range: rng, Sampling: sampling, Transform: plan.transform}
	symbols := uc.policy.For(plan.kind, plan.identifier, token)

	type item struct {
		symbol string
		series models.Series
		err    error
	}
	ch := make(chan item, len(symbols)+1)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		s, err := uc.fetch(ctx, plan, q, rolePrimary)
		ch <- item{series: s, err: err}
	}()
	for _, sym := range symbols {
		bp := fetchPlan{source: uc.sources.Equity, kind: models.KindFund, identifier: sym, scale: domsvc.ScalePrice}
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := uc.fetch(ctx, bp, q, roleBenchmark)
			ch <- item{symbol: sym, series: s, err: err}
		}()
	}

	go func() { wg.Wait(); close(ch) }()

	var (
		primary    models.Series
		primaryErr error
	)
	benchmarks := make(map[string][]models.DataPoint, len(symbols))
	for it := range ch {
		if it.symbol == "" {
			primary, primaryErr = it.series, it.err
			continue
		}
		if it.err != nil || !it.series.IsLive() {
			uc.metrics.RecordBenchmark(it.symbol, false)
			if it.err != nil && ctx.Err() == nil {
				uc.log.Debug("benchmark omitted", logger.String("symbol", it.symbol), logger.Error(it.err))
			}
			continue
		}
		uc.metrics.RecordBenchmark(it.symbol, true)
		benchmarks[it.symbol] = it.series.Points
	}

	if primaryErr != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		primary = uc.synthesize(plan, q, d.Anchor(), primaryErr)
	}

	res := &models.SeriesResult{
		ProxyID:     d.ID,
		Kind:        plan.kind,
		Identifier:  plan.identifier,
		Timeframe:   token,
		Range:       rng,
		Points:      primary.Points,
		Provenance:  primary.Provenance,
		IsSynthetic: primary.Provenance == models.ProvenanceSynthetic,
		Summary:     normalizer.Summarize(primary.Points),
		Baseline:    d.Baseline,
	}
	if len(symbols) > 0 {
		res.Rows = normalizer.Merge(primary.Points, benchmarks)
		for _, sym := range symbols {
			if _, ok := benchmarks[sym]; ok {
				res.Benchmarks = append(res.Benchmarks, sym)
			}
		}
	}
	return res, nil
}

// fetch returns a cached series or runs one shared upstream fetch per key.
// A recent failure is cached as an empty synthetic marker so the upstream
// is not retried until the marker expires.
func (uc *ProxySeriesUseCase) fetch(ctx context.Context, plan fetchPlan, q models.SeriesQuery, role string) (models.Series, error) {
	key := plan.key(q.Timeframe)
	if s, ok := uc.cache.Get(ctx, key); ok {
		uc.metrics.RecordCache(key.Source, true)
		if s.Provenance == models.ProvenanceSynthetic {
			return models.Series{}, models.SourceErrorf(key.Source, models.Unavailable, "recent failure for %s", key.Identifier)
		}
		return s, nil
	}
	uc.metrics.RecordCache(key.Source, false)

	ch := uc.group.DoChan(key.String(), func() (interface{}, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.fetchTimeout)
		defer cancel()

		s, err := plan.source.Fetch(fctx, plan.identifier, q)
		uc.recordFetch(key, role, s, err)
		if err != nil {
			uc.cache.Put(fctx, key, plan.kind, models.Series{Provenance: models.ProvenanceSynthetic})
			return models.Series{}, err
		}
		uc.cache.Put(fctx, key, plan.kind, s)
		return s, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return models.Series{}, res.Err
		}
		return res.Val.(models.Series), nil
	case <-ctx.Done():
		return models.Series{}, ctx.Err()
	}
}

func (uc *ProxySeriesUseCase) synthesize(plan fetchPlan, q models.SeriesQuery, anchor *float64, cause error) models.Series {
	points := uc.fallback.Generate(domsvc.FallbackRequest{
		Identifier: plan.identifier,
		Scale:      plan.scale,
		Range:      q.Range,
		Points:     q.Sampling.Points,
		Anchor:     anchor,
	})

	source := plan.source.Name()
	reason := errorKind(cause)
	uc.metrics.RecordFallback(source, reason)
	uc.log.Warn("serving synthetic series",
		logger.String("source", source),
		logger.String("identifier", plan.identifier),
		logger.String("timeframe", string(q.Timeframe)),
		logger.String("reason", reason),
		logger.Error(cause),
	)
	uc.publish(models.SeriesEvent{
		Source:     source,
		Identifier: plan.identifier,
		Timeframe:  q.Timeframe,
		Role:       rolePrimary,
		Provenance: models.ProvenanceSynthetic,
		Points:     len(points),
		ErrorKind:  reason,
		Error:      cause.Error(),
	})
	return models.Series{Points: points, Provenance: models.ProvenanceSynthetic}
}

func (uc *ProxySeriesUseCase) recordFetch(key svccache.SeriesKey, role string, s models.Series, err error) {
	ev := models.SeriesEvent{
		Source:     key.Source,
		Identifier: key.Identifier,
		Timeframe:  key.Timeframe,
		Role:       role,
	}
	if err != nil {
		ev.ErrorKind = errorKind(err)
		ev.Error = err.Error()
		uc.metrics.RecordFetch(key.Source, "error")
	} else {
		ev.Provenance = s.Provenance
		ev.Points = len(s.Points)
		uc.metrics.RecordFetch(key.Source, string(s.Provenance))
	}
	uc.publish(ev)
}

func (uc *ProxySeriesUseCase) publish(ev models.SeriesEvent) {
	ev.ID = uuid.NewString()
	ev.At = uc.resolver.Now()

	uc.pending.Add(1)
	go func() {
		defer uc.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), uc.eventTimeout)
		defer cancel()
		if err := uc.events.PublishSeriesEvent(ctx, ev); err != nil {
			uc.log.Debug("series event dropped", logger.String("source", ev.Source), logger.Error(err))
		}
	}()
}

// Close waits for in-flight event publishes.
func (uc *ProxySeriesUseCase) Close() {
	uc.pending.Wait()
}

func errorKind(err error) string {
	if se, ok := models.AsSourceError(err); ok {
		return string(se.Kind)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return string(models.Unavailable)
	}
	return "unknown"
}
