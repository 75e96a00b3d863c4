package di

import (
	"context"
	"errors"
	"fmt"

	domrepo "ProxyPull/internal/domain/repository"
	domsvc "ProxyPull/internal/domain/service"
	"ProxyPull/internal/handler/api"
	"ProxyPull/internal/handler/ws"
	internalrepo "ProxyPull/internal/repository"
	svccache "ProxyPull/internal/service/cache"
	"ProxyPull/internal/service/fred"
	"ProxyPull/internal/service/news"
	"ProxyPull/internal/service/polymarket"
	"ProxyPull/internal/service/ratelimit"
	"ProxyPull/internal/service/yahoo"
	"ProxyPull/internal/services/fallback"
	"ProxyPull/internal/services/timeframe"
	"ProxyPull/internal/usecase"
	"ProxyPull/pkg/cache"
	"ProxyPull/pkg/config"
	xhttp "ProxyPull/pkg/http"
	pkgkafka "ProxyPull/pkg/kafka"
	applogger "ProxyPull/pkg/logger"
	"ProxyPull/pkg/metrics"
	"ProxyPull/pkg/server"
)

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithBatching(cfg.Kafka.BatchSize, cfg.Kafka.BatchTimeout),
		pkgkafka.WithAsync(cfg.Kafka.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideLogger builds the application logger and, when enabled, attaches
// the collector that ships aggregated errors through the producer.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*applogger.Logger, error) {
	l, err := applogger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	if cfg.LogShipping.Enabled && producer != nil {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:    cfg.LogShipping.Interval,
			CountThreshold:  cfg.LogShipping.Threshold,
			Topic:           cfg.LogShipping.Topic,
			Publisher:       producer,
			CollectWarnings: cfg.LogShipping.CollectWarnings,
		})
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvideCatalog loads the prediction catalog from disk.
func ProvideCatalog(cfg *config.Config) (domrepo.CatalogRepository, error) {
	repo, err := internalrepo.LoadCatalogFile(cfg.Catalog.Path)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	return repo, nil
}

// ProvideCacheBackend picks the byte cache behind the series cache.
func ProvideCacheBackend(cfg *config.Config) (cache.Service, error) {
	switch cfg.Cache.Backend {
	case "redis", "layered":
		rc, err := cache.NewRedisCache(
			cache.WithRedisAddr(cfg.Redis.Addr),
			cache.WithRedisPassword(cfg.Redis.Password),
			cache.WithRedisDB(cfg.Redis.DB),
			cache.WithRedisPool(cfg.Redis.PoolSize, cfg.Redis.MinIdle, cfg.Redis.DialTimeout),
			cache.WithRedisPrefix(cfg.Redis.Prefix),
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		if cfg.Cache.Backend == "redis" {
			return rc, nil
		}
		return cache.NewLayeredCache(rc,
			cache.WithLayeredMemorySize(cfg.Cache.MaxSize),
			cache.WithLayeredMemoryTTL(cfg.Cache.MemoryTTL),
		), nil
	default:
		return cache.NewMemoryCache(cache.WithMemoryMaxSize(cfg.Cache.MaxSize)), nil
	}
}

// ProvideSeriesCache wraps the backend with per-family TTLs.
func ProvideSeriesCache(backend cache.Service, cfg *config.Config, log *applogger.Logger) *svccache.SeriesCache {
	t := cfg.Cache.TTL
	return svccache.NewSeriesCache(backend, svccache.TTLPolicy{
		Equity:      t.Equity,
		Economic:    t.Economic,
		Market:      t.Market,
		MarketShort: t.MarketShort,
		News:        t.News,
		Synthetic:   t.Synthetic,
	}, log.With(applogger.String("component", "series_cache")))
}

// sourceClient gives every upstream its own limiter and breaker.
func sourceClient(cfg *config.Config, name string) *xhttp.Client {
	s := cfg.Sources
	return xhttp.NewClient(
		xhttp.WithTimeout(s.Timeout),
		xhttp.WithHeader("User-Agent", s.UserAgent),
		xhttp.WithRetry(s.Attempts, s.Backoff),
		xhttp.WithRateLimit(s.RateLimit.RPS, s.RateLimit.Burst),
		xhttp.WithBreaker(name, s.Breaker.Failures, s.Breaker.OpenTimeout),
	)
}

// ProvideFallback creates the synthetic series generator.
func ProvideFallback(cfg *config.Config) *fallback.Generator {
	return fallback.New(
		fallback.WithReferencePrices(cfg.Fallback.ReferencePrices),
		fallback.WithReferenceProbabilities(cfg.Fallback.ReferenceProbabilities),
	)
}

// ProvideSources creates the numeric source adapters.
func ProvideSources(cfg *config.Config, gen *fallback.Generator) usecase.Sources {
	s := cfg.Sources
	fredOpts := []fred.Option{fred.WithMode(fred.Mode(s.Fred.Mode))}
	if s.Fred.APIKey != "" {
		fredOpts = append(fredOpts, fred.WithAPIKey(s.Fred.APIKey))
	}
	return usecase.Sources{
		Equity:   yahoo.New(s.Yahoo.BaseURL, sourceClient(cfg, "yahoo")),
		Economic: fred.New(s.Fred.BaseURL, sourceClient(cfg, "fred"), fredOpts...),
		Market: polymarket.New(
			polymarket.NewGamma(s.Polymarket.GammaURL, sourceClient(cfg, "polymarket-gamma")),
			polymarket.NewClob(s.Polymarket.ClobURL, sourceClient(cfg, "polymarket-clob")),
			gen,
		),
	}
}

// ProvideHeadlineSource creates the news adapter.
func ProvideHeadlineSource(cfg *config.Config) domsvc.HeadlineSource {
	return news.New(cfg.Sources.News.BaseURL, sourceClient(cfg, "news"))
}

func ProvideTimeframeResolver() *timeframe.Resolver {
	return timeframe.New()
}

func ProvideBenchmarkPolicy(cfg *config.Config) *usecase.BenchmarkPolicy {
	return usecase.NewBenchmarkPolicy(cfg.Benchmarks.Symbols, cfg.Benchmarks.Excluded)
}

// ProvideEventPublisher ships provenance events to Kafka when a producer exists.
func ProvideEventPublisher(cfg *config.Config, producer *pkgkafka.Producer) domrepo.EventPublisher {
	if producer == nil {
		return internalrepo.NewNopEventPublisher()
	}
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.EventsTopic)
}

// ProvideProxySeriesUseCase creates the series facade.
func ProvideProxySeriesUseCase(
	cfg *config.Config,
	sources usecase.Sources,
	resolver *timeframe.Resolver,
	gen *fallback.Generator,
	seriesCache *svccache.SeriesCache,
	policy *usecase.BenchmarkPolicy,
	catalog domrepo.CatalogRepository,
	events domrepo.EventPublisher,
	m domrepo.Metrics,
	log *applogger.Logger,
) *usecase.ProxySeriesUseCase {
	return usecase.NewProxySeriesUseCase(sources, resolver, gen, seriesCache, policy, catalog, events, m,
		log.With(applogger.String("component", "proxy_series")),
		usecase.ProxySeriesConfig{FetchTimeout: cfg.Sources.Timeout},
	)
}

// ProvideHeadlinesUseCase creates the news facade.
func ProvideHeadlinesUseCase(
	source domsvc.HeadlineSource,
	seriesCache *svccache.SeriesCache,
	catalog domrepo.CatalogRepository,
	m domrepo.Metrics,
	log *applogger.Logger,
) *usecase.HeadlinesUseCase {
	return usecase.NewHeadlinesUseCase(source, seriesCache, catalog, m, log.With(applogger.String("component", "headlines")))
}

// ProvideHealthChecks lists the dependencies /healthz probes.
func ProvideHealthChecks(backend cache.Service, catalog domrepo.CatalogRepository) map[string]api.HealthCheck {
	checks := map[string]api.HealthCheck{
		"catalog": func(context.Context) error {
			if len(catalog.Catalog().Predictions) == 0 {
				return errors.New("catalog is empty")
			}
			return nil
		},
	}
	if r, ok := redisOf(backend); ok {
		checks["redis"] = func(ctx context.Context) error {
			return r.Client().Ping(ctx).Err()
		}
	}
	return checks
}

func redisOf(backend cache.Service) (*cache.RedisCache, bool) {
	switch b := backend.(type) {
	case *cache.RedisCache:
		return b, true
	case *cache.LayeredCache:
		r, ok := b.L2().(*cache.RedisCache)
		return r, ok
	}
	return nil, false
}

// ProvideSeriesHandler creates the REST handler.
func ProvideSeriesHandler(
	log *applogger.Logger,
	catalog domrepo.CatalogRepository,
	series *usecase.ProxySeriesUseCase,
	headlines *usecase.HeadlinesUseCase,
	checks map[string]api.HealthCheck,
) *api.SeriesEchoHandler {
	return api.NewSeriesEchoHandler(log, catalog, series, headlines, checks)
}

// ProvideStreamHandler creates the websocket handler.
func ProvideStreamHandler(cfg *config.Config, log *applogger.Logger, series *usecase.ProxySeriesUseCase) *ws.SeriesStreamHandler {
	return ws.NewSeriesStreamHandler(log, series,
		ws.WithPingInterval(cfg.Stream.PingInterval),
		ws.WithAllowedOrigins(cfg.Stream.AllowedOrigins),
	)
}

// ProvideHTTPServer assembles the Echo server with both handlers.
func ProvideHTTPServer(cfg *config.Config, log *applogger.Logger, rest *api.SeriesEchoHandler, stream *ws.SeriesStreamHandler) *xhttp.Server {
	sc := cfg.Server
	opts := []xhttp.ServerOption{
		xhttp.WithHost(sc.Host),
		xhttp.WithPort(sc.Port),
		xhttp.WithTimeouts(sc.ReadTimeout, sc.WriteTimeout, sc.ShutdownTimeout),
		xhttp.WithCORS(sc.CORSOrigins),
		xhttp.WithSlowRequest(sc.SlowRequest),
	}
	if sc.RateLimit.Enabled {
		opts = append(opts, xhttp.WithInboundRateLimit(ratelimit.New(sc.RateLimit.RPS, sc.RateLimit.Burst)))
	}
	return xhttp.NewServer(log.With(applogger.String("component", "http")), []xhttp.Handler{rest, stream}, opts...)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	httpServer *xhttp.Server,
	series *usecase.ProxySeriesUseCase,
	seriesCache *svccache.SeriesCache,
	producer *pkgkafka.Producer,
) *server.App {
	return server.New(cfg, log, httpServer, series, seriesCache, producer)
}
