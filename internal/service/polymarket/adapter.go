package polymarket

import (
	"context"
	"time"

	"ProxyPull/internal/domain/models"
	"ProxyPull/internal/domain/service"
	"ProxyPull/internal/services/normalizer"
)

// TrendSteps is the number of steps of an interpolated path.
const TrendSteps = 30

// Client resolves a market slug to a probability series in percent.
type Client struct {
	finder  MarketFinder
	history HistoryFetcher
	trend   service.TrendInterpolator
}

func New(finder MarketFinder, history HistoryFetcher, trend service.TrendInterpolator) *Client {
	return &Client{finder: finder, history: history, trend: trend}
}

func (c *Client) Name() string { return SourceName }

// Fetch looks the market up by exact slug, then by text search, and returns
// its in-range history. A market with no usable history but a current price
// yields an interpolated path ending at that price.
func (c *Client) Fetch(ctx context.Context, slug string, q models.SeriesQuery) (models.Series, error) {
	if slug == "" {
		return models.Series{}, models.SourceErrorf(SourceName, models.NotFound, "empty slug")
	}

	market, err := c.resolve(ctx, slug)
	if err != nil {
		return models.Series{}, err
	}

	var histErr error
	if market.ConditionID != "" {
		history, err := c.history.History(ctx, market.ConditionID, q.Sampling.Interval, q.Sampling.Fidelity)
		if err == nil {
			if points := toPercent(history, q.Range); len(points) > 0 {
				return models.Series{Points: points, Provenance: models.ProvenanceLive}, nil
			}
		}
		histErr = err
	}

	current, ok := market.Snapshot()
	if !ok {
		if histErr != nil {
			return models.Series{}, histErr
		}
		return models.Series{}, models.SourceErrorf(SourceName, models.NotFound, "no history or price for %s", slug)
	}
	return models.Series{
		Points:     c.trend.Trend(q.Range, current, TrendSteps),
		Provenance: models.ProvenanceInterpolated,
	}, nil
}

func (c *Client) resolve(ctx context.Context, slug string) (*Market, error) {
	market, exactErr := c.finder.BySlug(ctx, slug)
	if exactErr == nil && market != nil {
		return market, nil
	}

	market, err := c.finder.Search(ctx, SearchText(slug))
	if err != nil {
		return nil, err
	}
	if market == nil {
		if exactErr != nil {
			return nil, exactErr
		}
		return nil, models.SourceErrorf(SourceName, models.NotFound, "no market for %s", slug)
	}
	return market, nil
}

func toPercent(history []HistoryPoint, r models.TimeRange) []models.DataPoint {
	out := make([]models.DataPoint, 0, len(history))
	for _, h := range history {
		ts := time.Unix(h.T, 0).UTC()
		if !r.Contains(ts) || !normalizer.IsFinite(h.P) {
			continue
		}
		out = append(out, models.DataPoint{Timestamp: ts, Value: h.P * 100})
	}
	return normalizer.SortPoints(out)
}
