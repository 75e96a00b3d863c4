package service

import (
	"context"

	"ProxyPull/internal/domain/models"
)

// SeriesSource fetches one proxy family from an upstream. Failures are
// always *models.SourceError.
type SeriesSource interface {
	Name() string
	Fetch(ctx context.Context, identifier string, q models.SeriesQuery) (models.Series, error)
}

// Scale selects the bounds policy of a synthetic series.
type Scale string

const (
	ScalePrice       Scale = "price"
	ScaleProbability Scale = "probability"
)

// FallbackRequest describes one synthetic series.
type FallbackRequest struct {
	Identifier string
	Scale      Scale
	Range      models.TimeRange
	Points     int
	Anchor     *float64
}

// FallbackGenerator produces plausible, non-factual series. It never fails.
type FallbackGenerator interface {
	Generate(req FallbackRequest) []models.DataPoint
}

// TrendInterpolator builds a short path that ends exactly at current.
type TrendInterpolator interface {
	Trend(r models.TimeRange, current float64, steps int) []models.DataPoint
}

// HeadlineSource searches a news feed.
type HeadlineSource interface {
	Search(ctx context.Context, query string, limit int) ([]models.Headline, error)
}
