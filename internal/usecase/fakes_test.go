package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"ProxyPull/internal/domain/models"
	svccache "ProxyPull/internal/service/cache"
	"ProxyPull/internal/services/fallback"
	"ProxyPull/internal/services/timeframe"
	"ProxyPull/pkg/cache"
	"ProxyPull/pkg/logger"
)

var fixedNow = time.Date(2026, time.October, 18, 15, 30, 0, 0, time.UTC)

func day(m time.Month, d int) time.Time {
	return time.Date(2026, m, d, 14, 30, 0, 0, time.UTC)
}

type fakeSource struct {
	name    string
	mu      sync.Mutex
	calls   map[string]int
	queries []models.SeriesQuery
	series  map[string]models.Series
	errs    map[string]error
	gate    chan struct{}
	started chan string
}

func newFakeSource(name string) *fakeSource {
	return &fakeSource{
		name:   name,
		calls:  map[string]int{},
		series: map[string]models.Series{},
		errs:   map[string]error{},
	}
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Fetch(_ context.Context, id string, q models.SeriesQuery) (models.Series, error) {
	f.mu.Lock()
	f.calls[id]++
	f.queries = append(f.queries, q)
	s, ok := f.series[id]
	err := f.errs[id]
	f.mu.Unlock()

	if f.started != nil {
		f.started <- id
	}
	if f.gate != nil {
		<-f.gate
	}
	if err != nil {
		return models.Series{}, err
	}
	if !ok {
		return models.Series{}, models.SourceErrorf(f.name, models.NotFound, "no %s", id)
	}
	return s, nil
}

func (f *fakeSource) callCount(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[id]
}

func (f *fakeSource) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

type fakeCatalog struct {
	proxies map[string]models.ProxyDescriptor
}

func (c *fakeCatalog) Catalog() *models.Catalog { return &models.Catalog{} }

func (c *fakeCatalog) FindProxy(id string) (models.ProxyDescriptor, bool) {
	d, ok := c.proxies[id]
	return d, ok
}

type fakeEvents struct {
	mu     sync.Mutex
	events []models.SeriesEvent
}

func (e *fakeEvents) PublishSeriesEvent(_ context.Context, ev models.SeriesEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, ev)
	return nil
}

func (e *fakeEvents) Close() error { return nil }

func (e *fakeEvents) all() []models.SeriesEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]models.SeriesEvent(nil), e.events...)
}

type fakeMetrics struct {
	mu         sync.Mutex
	fetches    map[string]int
	fallbacks  map[string]int
	hits       int
	misses     int
	benchmarks map[string]bool
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{fetches: map[string]int{}, fallbacks: map[string]int{}, benchmarks: map[string]bool{}}
}

func (m *fakeMetrics) RecordFetch(source, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetches[source+"/"+outcome]++
}

func (m *fakeMetrics) RecordFallback(source, kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallbacks[source+"/"+kind]++
}

func (m *fakeMetrics) RecordCache(_ string, hit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if hit {
		m.hits++
	} else {
		m.misses++
	}
}

func (m *fakeMetrics) RecordBenchmark(symbol string, included bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.benchmarks[symbol] = included
}

func (m *fakeMetrics) RecordLatency(string, float64) {}

type harness struct {
	uc       *ProxySeriesUseCase
	equity   *fakeSource
	economic *fakeSource
	market   *fakeSource
	catalog  *fakeCatalog
	events   *fakeEvents
	metrics  *fakeMetrics
	cache    *svccache.SeriesCache
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		equity:   newFakeSource("yahoo"),
		economic: newFakeSource("fred"),
		market:   newFakeSource("polymarket"),
		catalog:  &fakeCatalog{proxies: map[string]models.ProxyDescriptor{}},
		events:   &fakeEvents{},
		metrics:  newFakeMetrics(),
	}
	mem := cache.NewMemoryCache(cache.WithMemoryCleanup(0), cache.WithMemoryClock(func() time.Time { return fixedNow }))
	h.cache = svccache.NewSeriesCache(mem, svccache.DefaultTTLPolicy(), logger.Nop())
	h.uc = NewProxySeriesUseCase(
		Sources{Equity: h.equity, Economic: h.economic, Market: h.market},
		timeframe.New(timeframe.WithClock(func() time.Time { return fixedNow })),
		fallback.New(),
		h.cache,
		NewBenchmarkPolicy(nil, nil),
		h.catalog,
		h.events,
		h.metrics,
		logger.Nop(),
		ProxySeriesConfig{FetchTimeout: 5 * time.Second},
	)
	t.Cleanup(func() {
		h.uc.Close()
		_ = h.cache.Close()
	})
	return h
}

func live(points ...models.DataPoint) models.Series {
	return models.Series{Points: points, Provenance: models.ProvenanceLive}
}

func pt(ts time.Time, v float64) models.DataPoint {
	return models.DataPoint{Timestamp: ts, Value: v}
}
