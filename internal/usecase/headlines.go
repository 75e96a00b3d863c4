package usecase

import (
	"context"
	"fmt"
	"strings"

	"ProxyPull/internal/domain/models"
	domrepo "ProxyPull/internal/domain/repository"
	domsvc "ProxyPull/internal/domain/service"
	svccache "ProxyPull/internal/service/cache"
	"ProxyPull/pkg/logger"

	"golang.org/x/sync/singleflight"
)

// MaxHeadlines is the most items fetched and cached per query.
const MaxHeadlines = 50

// HeadlinesUseCase serves news proxies. A failing feed yields an empty
// list; there is no synthetic news.
type HeadlinesUseCase struct {
	source  domsvc.HeadlineSource
	cache   *svccache.SeriesCache
	catalog domrepo.CatalogRepository
	metrics domrepo.Metrics
	log     *logger.Logger
	group   singleflight.Group
}

func NewHeadlinesUseCase(source domsvc.HeadlineSource, cache *svccache.SeriesCache, catalog domrepo.CatalogRepository, metrics domrepo.Metrics, log *logger.Logger) *HeadlinesUseCase {
	return &HeadlinesUseCase{source: source, cache: cache, catalog: catalog, metrics: metrics, log: log}
}

// newsQuery extracts the feed query of a news descriptor.
type newsQuery struct {
	query string
}

func (n *newsQuery) VisitEquity(models.EquitySource) error     { return models.ErrNotNews }
func (n *newsQuery) VisitFund(models.FundSource) error         { return models.ErrNotNews }
func (n *newsQuery) VisitEconomic(models.EconomicSource) error { return models.ErrNotNews }
func (n *newsQuery) VisitMarket(models.MarketSource) error     { return models.ErrNotNews }
func (n *newsQuery) VisitNews(s models.NewsSource) error {
	n.query = s.Query
	return nil
}

// GetProxyHeadlines serves the catalog news proxy proxyID.
func (uc *HeadlinesUseCase) GetProxyHeadlines(ctx context.Context, proxyID string, limit int) ([]models.Headline, error) {
	d, ok := uc.catalog.FindProxy(proxyID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrProxyNotFound, proxyID)
	}
	if d.Source == nil {
		return nil, models.ErrUnknownKind
	}
	nq := &newsQuery{}
	if err := d.Source.Accept(nq); err != nil {
		return nil, fmt.Errorf("%s: %w", proxyID, err)
	}
	return uc.GetHeadlines(ctx, nq.query, limit)
}

// GetHeadlines returns at most limit headlines for query.
func (uc *HeadlinesUseCase) GetHeadlines(ctx context.Context, query string, limit int) ([]models.Headline, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, models.ErrMissingIdentifier
	}
	if limit <= 0 || limit > MaxHeadlines {
		limit = MaxHeadlines
	}

	items, ok := uc.cache.GetHeadlines(ctx, query)
	uc.metrics.RecordCache("news", ok)
	if !ok {
		ch := uc.group.DoChan(query, func() (interface{}, error) {
			fctx := context.WithoutCancel(ctx)
			fetched, err := uc.source.Search(fctx, query, MaxHeadlines)
			if err != nil {
				uc.metrics.RecordFetch("news", "error")
				return nil, err
			}
			uc.metrics.RecordFetch("news", string(models.ProvenanceLive))
			uc.cache.PutHeadlines(fctx, query, fetched)
			return fetched, nil
		})
		select {
		case res := <-ch:
			if res.Err != nil {
				uc.log.Warn("news feed failed", logger.String("query", query), logger.Error(res.Err))
				return []models.Headline{}, nil
			}
			items = res.Val.([]models.Headline)
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}
