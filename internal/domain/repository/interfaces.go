package repository

import (
	"context"

	"ProxyPull/internal/domain/models"
)

// CatalogRepository gives read-only access to the prediction catalog.
type CatalogRepository interface {
	Catalog() *models.Catalog
	FindProxy(id string) (models.ProxyDescriptor, bool)
}

// EventPublisher ships fetch provenance events.
type EventPublisher interface {
	PublishSeriesEvent(ctx context.Context, ev models.SeriesEvent) error
	Close() error
}

type Metrics interface {
	RecordFetch(source, outcome string)
	RecordFallback(source, kind string)
	RecordCache(source string, hit bool)
	RecordBenchmark(symbol string, included bool)
	RecordLatency(op string, seconds float64)
}
