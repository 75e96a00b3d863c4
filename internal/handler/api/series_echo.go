package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"ProxyPull/internal/domain/models"
	domrepo "ProxyPull/internal/domain/repository"
	"ProxyPull/internal/service/metrics"
	xhttp "ProxyPull/pkg/http"
	xlogger "ProxyPull/pkg/logger"

	"github.com/labstack/echo/v4"
)

// SeriesService resolves proxies into chart series.
type SeriesService interface {
	GetSeries(ctx context.Context, d models.ProxyDescriptor, tf string) (*models.SeriesResult, error)
	GetProxySeries(ctx context.Context, proxyID, tf string) (*models.SeriesResult, error)
}

// HeadlineService serves news proxies.
type HeadlineService interface {
	GetHeadlines(ctx context.Context, query string, limit int) ([]models.Headline, error)
	GetProxyHeadlines(ctx context.Context, proxyID string, limit int) ([]models.Headline, error)
}

// HealthCheck reports whether one dependency is usable.
type HealthCheck func(ctx context.Context) error

// SeriesEchoHandler serves the catalog, series and headlines endpoints.
type SeriesEchoHandler struct {
	logger    *xlogger.Logger
	catalog   domrepo.CatalogRepository
	series    SeriesService
	headlines HeadlineService
	checks    map[string]HealthCheck
}

func NewSeriesEchoHandler(logger *xlogger.Logger, catalog domrepo.CatalogRepository, series SeriesService, headlines HeadlineService, checks map[string]HealthCheck) *SeriesEchoHandler {
	metrics.Register()
	return &SeriesEchoHandler{logger: logger, catalog: catalog, series: series, headlines: headlines, checks: checks}
}

func (h *SeriesEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/predictions", h.Predictions)
	g.GET("/series", h.Series)
	g.GET("/headlines", h.Headlines)
	e.GET("/healthz", h.Health)
}

func (h *SeriesEchoHandler) Predictions(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=300")
	return xhttp.SuccessResponse(c, h.catalog.Catalog())
}

func (h *SeriesEchoHandler) Series(c echo.Context) error {
	const endpoint = "series"
	start := time.Now()
	defer func() { metrics.EndpointLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.SeriesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.EndpointErrors.WithLabelValues(endpoint, "validation").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}

	ctx := c.Request().Context()
	var (
		res *models.SeriesResult
		err error
	)
	if req.ProxyID != "" {
		res, err = h.series.GetProxySeries(ctx, req.ProxyID, req.TF)
	} else {
		var d models.ProxyDescriptor
		d, err = adHocDescriptor(req)
		if err == nil {
			res, err = h.series.GetSeries(ctx, d, req.TF)
		}
	}
	if err != nil {
		appErr := toAppError(err)
		metrics.EndpointErrors.WithLabelValues(endpoint, appErr.Code).Inc()
		h.logger.Debug("series request rejected", xlogger.String("code", appErr.Code), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, appErr)
	}

	if res.IsSynthetic {
		metrics.SyntheticResponses.WithLabelValues(endpoint, string(res.Kind)).Inc()
		c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	} else {
		c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age="+strconv.Itoa(maxAge(res.Kind)))
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *SeriesEchoHandler) Headlines(c echo.Context) error {
	const endpoint = "headlines"
	start := time.Now()
	defer func() { metrics.EndpointLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.HeadlinesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.EndpointErrors.WithLabelValues(endpoint, "validation").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}

	ctx := c.Request().Context()
	var (
		items []models.Headline
		err   error
	)
	if req.ProxyID != "" {
		items, err = h.headlines.GetProxyHeadlines(ctx, req.ProxyID, req.Limit)
	} else {
		items, err = h.headlines.GetHeadlines(ctx, req.Query, req.Limit)
	}
	if err != nil {
		appErr := toAppError(err)
		metrics.EndpointErrors.WithLabelValues(endpoint, appErr.Code).Inc()
		return xhttp.AppErrorResponse(c, appErr)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=300")
	return xhttp.SuccessResponse(c, items)
}

type healthReport struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Health runs every dependency check with a short deadline. A failing
// check turns the response into 503.
func (h *SeriesEchoHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	rep := healthReport{Status: "ok", Checks: make(map[string]string, len(h.checks))}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			rep.Status = "degraded"
			rep.Checks[name] = err.Error()
			h.logger.Warn("health check failed", xlogger.String("check", name), xlogger.Error(err))
			continue
		}
		rep.Checks[name] = "ok"
	}
	if rep.Status != "ok" {
		return xhttp.DataResponse(c, http.StatusServiceUnavailable, rep)
	}
	return xhttp.SuccessResponse(c, rep)
}

// adHocDescriptor builds a descriptor from kind/identifier query params.
func adHocDescriptor(req *models.SeriesRequest) (models.ProxyDescriptor, error) {
	kind, err := models.ParseProxyKind(req.Kind)
	if err != nil {
		return models.ProxyDescriptor{}, err
	}
	src, err := models.NewSource(kind, req.Identifier, req.Transform)
	if err != nil {
		return models.ProxyDescriptor{}, err
	}
	d := models.ProxyDescriptor{Source: src}
	if req.Baseline > 0 {
		d.Baseline = &models.Baseline{Value: req.Baseline}
	}
	return d, nil
}

// maxAge mirrors the cache staleness windows for browser caching.
func maxAge(kind models.ProxyKind) int {
	switch kind {
	case models.KindMarket:
		return 60
	case models.KindEconomic:
		return 3600
	default:
		return 300
	}
}
