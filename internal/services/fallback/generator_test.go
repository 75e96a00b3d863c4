package fallback

import (
	"fmt"
	"math"
	"testing"
	"time"

	"ProxyPull/internal/domain/models"
	"ProxyPull/internal/domain/service"
	"ProxyPull/internal/repository"
	"ProxyPull/internal/services/timeframe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, time.October, 18, 12, 0, 0, 0, time.UTC)

func request(t *testing.T, f models.Family, tf models.Timeframe, id string, scale service.Scale, anchor *float64) service.FallbackRequest {
	t.Helper()
	r, err := timeframe.ResolveRange(f, tf, now, timeframe.Epoch)
	require.NoError(t, err)
	sp, err := timeframe.ResolveSampling(f, tf)
	require.NoError(t, err)
	return service.FallbackRequest{Identifier: id, Scale: scale, Range: r, Points: sp.Points, Anchor: anchor}
}

func TestGenerateDensityFollowsTimeframe(t *testing.T) {
	g := New()
	short := g.Generate(request(t, models.FamilyPrice, models.TF1M, "AMZN", service.ScalePrice, nil))
	long := g.Generate(request(t, models.FamilyPrice, models.TFALL, "AMZN", service.ScalePrice, nil))
	assert.Len(t, short, 30)
	assert.Len(t, long, 200)
	assert.Greater(t, len(long), len(short))

	hourly := g.Generate(request(t, models.FamilyMarket, models.TF1H, "some-market", service.ScaleProbability, nil))
	widest := g.Generate(request(t, models.FamilyMarket, models.TFMAX, "some-market", service.ScaleProbability, nil))
	assert.Greater(t, len(widest), len(hourly))
}

func TestGenerateEvenlySpacedOverRange(t *testing.T) {
	req := request(t, models.FamilyPrice, models.TF3M, "MSFT", service.ScalePrice, nil)
	pts := New().Generate(req)
	require.Len(t, pts, req.Points)
	assert.Equal(t, req.Range.Start, pts[0].Timestamp)
	assert.Equal(t, req.Range.End, pts[len(pts)-1].Timestamp)
	step := pts[1].Timestamp.Sub(pts[0].Timestamp)
	for i := 2; i < len(pts); i++ {
		assert.InDelta(t, float64(step), float64(pts[i].Timestamp.Sub(pts[i-1].Timestamp)), float64(time.Second))
	}
}

func TestGenerateBoundsAcrossRuns(t *testing.T) {
	g := New()
	for i := 0; i < 1000; i++ {
		id := fmt.Sprintf("id-%d", i)
		tf := models.PriceTimeframes[i%len(models.PriceTimeframes)]
		for _, p := range g.Generate(request(t, models.FamilyPrice, tf, id, service.ScalePrice, nil)) {
			require.Greater(t, p.Value, 0.0)
			require.False(t, math.IsNaN(p.Value) || math.IsInf(p.Value, 0))
		}

		mtf := models.MarketTimeframes[i%len(models.MarketTimeframes)]
		for _, p := range g.Generate(request(t, models.FamilyMarket, mtf, id, service.ScaleProbability, nil)) {
			require.GreaterOrEqual(t, p.Value, 5.0)
			require.LessOrEqual(t, p.Value, 95.0)
		}
	}
}

func TestGeneratePriceNeverDropsBelowFloor(t *testing.T) {
	g := New()
	pts := g.Generate(request(t, models.FamilyPrice, models.TFALL, "HOOD", service.ScalePrice, nil))
	for i := 1; i < len(pts); i++ {
		// rounding to cents can shave a little off the exact 80% floor
		assert.GreaterOrEqual(t, pts[i].Value, 0.8*pts[i-1].Value-0.01)
	}
}

func TestGenerateStartsAtReferencePrice(t *testing.T) {
	pts := New().Generate(request(t, models.FamilyPrice, models.TFYTD, "NFLX", service.ScalePrice, nil))
	assert.Equal(t, 870.0, pts[0].Value)

	pts = New(WithReferencePrices(map[string]float64{"nflx": 1000})).
		Generate(request(t, models.FamilyPrice, models.TFYTD, "NFLX", service.ScalePrice, nil))
	assert.Equal(t, 1000.0, pts[0].Value)
}

func TestGenerateUnknownIdentifierUsesDefault(t *testing.T) {
	pts := New().Generate(request(t, models.FamilyPrice, models.TF1M, "ZZZZ", service.ScalePrice, nil))
	assert.Equal(t, 100.0, pts[0].Value)

	pts = New().Generate(request(t, models.FamilyMarket, models.TF1D, "unknown-market", service.ScaleProbability, nil))
	assert.Equal(t, 50.0, pts[0].Value)
}

func TestGenerateStaysNearAnchor(t *testing.T) {
	anchor := 200.0
	pts := New().Generate(request(t, models.FamilyPrice, models.TFYTD, "AMZN", service.ScalePrice, &anchor))
	for _, p := range pts {
		assert.InDelta(t, anchor, p.Value, 0.2*anchor+0.01)
	}
	assert.InDelta(t, anchor, pts[len(pts)-1].Value, 0.2*anchor+0.01)
}

func TestGenerateProbabilityUsesSlugReference(t *testing.T) {
	pts := New().Generate(request(t, models.FamilyMarket, models.TF1W, "will-jd-vance-win-the-2028-us-presidential-election", service.ScaleProbability, nil))
	assert.Equal(t, 29.0, pts[0].Value)

	pts = New().Generate(request(t, models.FamilyMarket, models.TF1W, "will-jd-vance-win-the-2028-republican-presidential-nomination", service.ScaleProbability, nil))
	assert.Equal(t, 54.0, pts[0].Value)
}

func TestGenerateStartsAtReferenceForCatalogMarkets(t *testing.T) {
	cat, err := repository.LoadCatalogFile("../../../config/catalog.yaml")
	require.NoError(t, err)

	want := map[string]float64{
		"will-jd-vance-win-the-2028-republican-presidential-nomination": 54,
		"will-jd-vance-win-the-2028-us-presidential-election":           29,
		"russia-x-ukraine-ceasefire-before-2027":                        50,
		"will-uae-strike-yemen-by-january-31":                           50,
		"will-china-invade-taiwan-before-2027":                          5,
		"khamenei-out-as-supreme-leader-of-iran-by-december-31-2026":    44,
		"will-the-iranian-regime-fall-by-the-end-of-2026":               16,
		"spacex-space-exploration-technologies-corp-ipo-before-2027":    15,
		"anduril-ipo-before-2027":                                       50,
		"stripe-ipo-before-2027":                                        25,
		"anthropic-ipo-before-2027":                                     50,
		"openai-ipo-before-2027":                                        50,
	}

	seen := map[string]bool{}
	g := New()
	for _, p := range cat.Catalog().Predictions {
		for _, d := range p.Proxies {
			m, ok := d.Source.(models.MarketSource)
			if !ok {
				continue
			}
			seen[m.Slug] = true
			start, known := want[m.Slug]
			require.True(t, known, "catalog market %s has no expected start", m.Slug)

			pts := g.Generate(request(t, models.FamilyMarket, models.TF1M, m.Slug, service.ScaleProbability, nil))
			assert.Equal(t, start, pts[0].Value, m.Slug)
		}
	}
	assert.Len(t, seen, len(want))
}

func TestGenerateShapeStablePerIdentity(t *testing.T) {
	req := request(t, models.FamilyPrice, models.TF6M, "ORCL", service.ScalePrice, nil)
	a := New().Generate(req)
	b := New().Generate(req)
	assert.Equal(t, a, b)
}

func TestTrendEndsAtCurrent(t *testing.T) {
	r := models.TimeRange{Start: now.AddDate(0, 0, -7), End: now}
	g := New()
	for _, cur := range []float64{2, 3, 42.5, 97} {
		pts := g.Trend(r, cur, 0)
		require.Len(t, pts, 31)
		last := pts[len(pts)-1]
		assert.Equal(t, cur, last.Value)
		assert.Equal(t, now, last.Timestamp)
		for _, p := range pts[:len(pts)-1] {
			assert.GreaterOrEqual(t, p.Value, 5.0)
			assert.LessOrEqual(t, p.Value, 95.0)
		}
	}
}
