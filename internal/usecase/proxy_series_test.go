package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ProxyPull/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func amzn() models.ProxyDescriptor {
	return models.ProxyDescriptor{
		ID:       "amzn-price",
		Name:     "Amazon share price",
		Source:   models.EquitySource{Ticker: "AMZN"},
		Baseline: &models.Baseline{Value: 220, Date: "2026-01-02"},
	}
}

func TestGetSeriesUnavailableFallsBackNearBaseline(t *testing.T) {
	h := newHarness(t)
	for _, id := range []string{"AMZN", "SPY", "QQQ"} {
		h.equity.errs[id] = models.SourceErrorf("yahoo", models.Unavailable, "503")
	}

	res, err := h.uc.GetSeries(context.Background(), amzn(), "YTD")
	require.NoError(t, err)

	assert.True(t, res.IsSynthetic)
	assert.Equal(t, models.ProvenanceSynthetic, res.Provenance)
	assert.Equal(t, models.TFYTD, res.Timeframe)
	require.Len(t, res.Points, 120)
	last := res.Points[len(res.Points)-1].Value
	assert.InDelta(t, 220, last, 0.2*220+0.01)
	assert.Empty(t, res.Benchmarks)
	assert.NotEmpty(t, res.Rows)
	for _, row := range res.Rows {
		assert.Empty(t, row.Benchmarks)
	}
	require.NotNil(t, res.Summary)
	assert.Equal(t, 220.0, res.Baseline.Value)

	h.uc.Close()
	assert.Equal(t, 1, h.metrics.fallbacks["yahoo/unavailable"])
	var synthetic int
	for _, ev := range h.events.all() {
		if ev.Provenance == models.ProvenanceSynthetic {
			synthetic++
			assert.Equal(t, "AMZN", ev.Identifier)
			assert.Equal(t, "unavailable", ev.ErrorKind)
			assert.NotEmpty(t, ev.ID)
		}
	}
	assert.Equal(t, 1, synthetic)
}

func TestGetSeriesOmitsFailedBenchmark(t *testing.T) {
	h := newHarness(t)
	h.equity.series["AMZN"] = live(pt(day(1, 2), 100), pt(day(1, 5), 110))
	h.equity.series["SPY"] = live(pt(day(1, 2), 500), pt(day(1, 5), 505))
	h.equity.errs["QQQ"] = models.SourceErrorf("yahoo", models.MalformedResponse, "no close")

	res, err := h.uc.GetSeries(context.Background(), amzn(), "YTD")
	require.NoError(t, err)

	assert.False(t, res.IsSynthetic)
	assert.Equal(t, []string{"SPY"}, res.Benchmarks)
	require.Len(t, res.Rows, 2)
	require.NotNil(t, res.Rows[1].PctReturn)
	assert.InDelta(t, 10, *res.Rows[1].PctReturn, 1e-9)
	assert.InDelta(t, 1, res.Rows[1].Benchmarks["SPY"], 1e-9)
	_, hasQQQ := res.Rows[1].Benchmarks["QQQ"]
	assert.False(t, hasQQQ)

	require.NotNil(t, res.Summary)
	assert.Equal(t, 100.0, res.Summary.Start)
	assert.Equal(t, 110.0, res.Summary.Current)

	assert.True(t, h.metrics.benchmarks["SPY"])
	assert.False(t, h.metrics.benchmarks["QQQ"])
}

func TestGetSeriesAllSkipsBenchmarks(t *testing.T) {
	h := newHarness(t)
	h.equity.series["AMZN"] = live(pt(day(1, 2), 100))

	res, err := h.uc.GetSeries(context.Background(), amzn(), "ALL")
	require.NoError(t, err)
	assert.Nil(t, res.Rows)
	assert.Nil(t, res.Benchmarks)
	assert.Equal(t, 1, h.equity.totalCalls())
	assert.Equal(t, 0, h.equity.callCount("SPY"))
}

func TestGetSeriesExcludedTickerSkipsBenchmarks(t *testing.T) {
	h := newHarness(t)
	h.equity.series["HG=F"] = live(pt(day(1, 2), 4.2))
	d := models.ProxyDescriptor{ID: "copper", Source: models.FundSource{Ticker: "HG=F"}}

	_, err := h.uc.GetSeries(context.Background(), d, "6M")
	require.NoError(t, err)
	assert.Equal(t, 1, h.equity.totalCalls())
}

func TestGetSeriesDeduplicatesConcurrentRequests(t *testing.T) {
	h := newHarness(t)
	h.economic.series["UNRATE"] = live(pt(day(9, 1), 4.1))
	h.economic.gate = make(chan struct{})
	h.economic.started = make(chan string, 8)
	d := models.ProxyDescriptor{ID: "unrate", Source: models.EconomicSource{Series: "UNRATE"}}

	const callers = 5
	var wg sync.WaitGroup
	results := make([]*models.SeriesResult, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := h.uc.GetSeries(context.Background(), d, "1Y")
			assert.NoError(t, err)
			results[i] = res
		}()
	}

	<-h.economic.started
	time.Sleep(50 * time.Millisecond)
	close(h.economic.gate)
	wg.Wait()

	assert.Equal(t, 1, h.economic.callCount("UNRATE"))
	for _, res := range results {
		require.NotNil(t, res)
		assert.Equal(t, models.ProvenanceLive, res.Provenance)
		require.Len(t, res.Points, 1)
	}
}

func TestGetSeriesServesFromCache(t *testing.T) {
	h := newHarness(t)
	h.economic.series["UNRATE"] = live(pt(day(9, 1), 4.1))
	d := models.ProxyDescriptor{ID: "unrate", Source: models.EconomicSource{Series: "UNRATE"}}

	for i := 0; i < 3; i++ {
		res, err := h.uc.GetSeries(context.Background(), d, "1Y")
		require.NoError(t, err)
		assert.Equal(t, 4.1, res.Points[0].Value)
	}
	assert.Equal(t, 1, h.economic.callCount("UNRATE"))
	assert.Equal(t, 2, h.metrics.hits)
}

func TestGetSeriesCachesFailureBriefly(t *testing.T) {
	h := newHarness(t)
	d := models.ProxyDescriptor{ID: "unrate", Source: models.EconomicSource{Series: "UNRATE"}}
	h.economic.errs["UNRATE"] = models.SourceErrorf("fred", models.Unauthorized, "no key")

	for i := 0; i < 2; i++ {
		res, err := h.uc.GetSeries(context.Background(), d, "1Y")
		require.NoError(t, err)
		assert.True(t, res.IsSynthetic)
		assert.Len(t, res.Points, 150)
	}
	assert.Equal(t, 1, h.economic.callCount("UNRATE"))
}

func TestGetSeriesSeparatesTransforms(t *testing.T) {
	h := newHarness(t)
	h.economic.series["CPIAUCSL"] = live(pt(day(9, 1), 2.9))

	_, err := h.uc.GetSeries(context.Background(), models.ProxyDescriptor{Source: models.EconomicSource{Series: "CPIAUCSL"}}, "1Y")
	require.NoError(t, err)
	_, err = h.uc.GetSeries(context.Background(), models.ProxyDescriptor{Source: models.EconomicSource{Series: "CPIAUCSL", Transform: "pc1"}}, "1Y")
	require.NoError(t, err)
	assert.Equal(t, 2, h.economic.callCount("CPIAUCSL"))
	assert.Equal(t, "pc1", h.economic.queries[1].Transform)
}

func TestGetSeriesMarketDefaultsToOneMonth(t *testing.T) {
	h := newHarness(t)
	h.market.series["stripe-ipo-before-2027"] = live(pt(fixedNow.Add(-time.Hour), 25))
	d := models.ProxyDescriptor{ID: "stripe", Source: models.MarketSource{Slug: "stripe-ipo-before-2027"}}

	res, err := h.uc.GetSeries(context.Background(), d, "")
	require.NoError(t, err)
	assert.Equal(t, models.TF1M, res.Timeframe)
	assert.Nil(t, res.Rows)
	require.Len(t, h.market.queries, 1)
	assert.Equal(t, 360, h.market.queries[0].Sampling.Fidelity)
	assert.Equal(t, "1m", h.market.queries[0].Sampling.Interval)
}

func TestGetSeriesMarketFallbackIsProbability(t *testing.T) {
	h := newHarness(t)
	d := models.ProxyDescriptor{ID: "taiwan", Source: models.MarketSource{Slug: "will-china-invade-taiwan-before-2027"}}

	res, err := h.uc.GetSeries(context.Background(), d, "1W")
	require.NoError(t, err)
	assert.True(t, res.IsSynthetic)
	require.Len(t, res.Points, 168)
	for _, p := range res.Points {
		assert.GreaterOrEqual(t, p.Value, 5.0)
		assert.LessOrEqual(t, p.Value, 95.0)
	}
}

func TestGetSeriesCallerErrors(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.uc.GetSeries(ctx, models.ProxyDescriptor{}, "YTD")
	assert.ErrorIs(t, err, models.ErrUnknownKind)

	_, err = h.uc.GetSeries(ctx, models.ProxyDescriptor{Source: models.EquitySource{Ticker: "  "}}, "YTD")
	assert.ErrorIs(t, err, models.ErrMissingIdentifier)

	_, err = h.uc.GetSeries(ctx, models.ProxyDescriptor{Source: models.NewsSource{Query: "stripe"}}, "YTD")
	assert.ErrorIs(t, err, models.ErrNotNumeric)

	_, err = h.uc.GetSeries(ctx, amzn(), "5Y")
	assert.ErrorIs(t, err, models.ErrInvalidTimeframe)

	_, err = h.uc.GetSeries(ctx, models.ProxyDescriptor{Source: models.MarketSource{Slug: "x"}}, "YTD")
	assert.ErrorIs(t, err, models.ErrInvalidTimeframe)

	_, err = h.uc.GetProxySeries(ctx, "missing", "YTD")
	assert.ErrorIs(t, err, models.ErrProxyNotFound)

	assert.Equal(t, 0, h.equity.totalCalls()+h.market.totalCalls())
}

func TestGetProxySeriesUsesCatalog(t *testing.T) {
	h := newHarness(t)
	h.catalog.proxies["amzn-price"] = amzn()
	h.equity.series["AMZN"] = live(pt(day(3, 2), 200))

	res, err := h.uc.GetProxySeries(context.Background(), "amzn-price", "3M")
	require.NoError(t, err)
	assert.Equal(t, "amzn-price", res.ProxyID)
	assert.Equal(t, "AMZN", res.Identifier)
	assert.Equal(t, models.KindEquity, res.Kind)
}

func TestGetSeriesAbandonedFetchStillFillsCache(t *testing.T) {
	h := newHarness(t)
	h.economic.series["UNRATE"] = live(pt(day(9, 1), 4.1))
	h.economic.gate = make(chan struct{})
	h.economic.started = make(chan string, 1)
	d := models.ProxyDescriptor{Source: models.EconomicSource{Series: "UNRATE"}}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := h.uc.GetSeries(ctx, d, "1Y")
		done <- err
	}()

	<-h.economic.started
	cancel()
	assert.True(t, errors.Is(<-done, context.Canceled))

	close(h.economic.gate)
	key := fetchPlan{source: h.economic, identifier: "UNRATE"}.key(models.TF1Y)
	require.Eventually(t, func() bool {
		_, ok := h.cache.Get(context.Background(), key)
		return ok
	}, time.Second, 10*time.Millisecond)

	res, err := h.uc.GetSeries(context.Background(), d, "1Y")
	require.NoError(t, err)
	assert.Equal(t, models.ProvenanceLive, res.Provenance)
	assert.Equal(t, 1, h.economic.callCount("UNRATE"))
}
