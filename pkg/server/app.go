package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	svccache "ProxyPull/internal/service/cache"
	"ProxyPull/internal/usecase"
	"ProxyPull/pkg/config"
	xhttp "ProxyPull/pkg/http"
	pkgkafka "ProxyPull/pkg/kafka"
	applogger "ProxyPull/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	httpServer *xhttp.Server
	series     *usecase.ProxySeriesUseCase
	cache      *svccache.SeriesCache
	producer   *pkgkafka.Producer
}

// New creates a new App instance with all dependencies. producer may be nil
// when event shipping is disabled.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	httpServer *xhttp.Server,
	series *usecase.ProxySeriesUseCase,
	cache *svccache.SeriesCache,
	producer *pkgkafka.Producer,
) *App {
	return &App{
		cfg:        cfg,
		log:        log,
		httpServer: httpServer,
		series:     series,
		cache:      cache,
		producer:   producer,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext serves until ctx is done, then shuts down.
func (a *App) RunContext(ctx context.Context) error {
	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("proxypull started",
		applogger.String("env", a.cfg.Environment),
		applogger.String("cache", a.cfg.Cache.Backend),
		applogger.Bool("kafka", a.producer != nil),
	)

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown stops intake first, then drains what is in flight, then closes
// infrastructure in reverse dependency order.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	var firstErr error
	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
		firstErr = err
	}

	// waits for pending provenance events
	a.series.Close()

	if err := a.cache.Close(); err != nil {
		a.log.Warn("cache close error", applogger.Error(err))
	}

	// flushes aggregated logs through the producer, so it goes before it
	a.log.RemoveCollector()

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.log.Warn("kafka producer close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return firstErr
}
