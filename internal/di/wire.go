//go:build wireinject
// +build wireinject

package di

import (
	"ProxyPull/pkg/config"
	"ProxyPull/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Infrastructure
		ProvideKafkaProducer,
		ProvideLogger,
		ProvideMetrics,
		ProvideCatalog,
		ProvideCacheBackend,
		ProvideSeriesCache,

		// Sources
		ProvideFallback,
		ProvideSources,
		ProvideHeadlineSource,
		ProvideTimeframeResolver,
		ProvideBenchmarkPolicy,
		ProvideEventPublisher,

		// Use cases
		ProvideProxySeriesUseCase,
		ProvideHeadlinesUseCase,

		// Transport
		ProvideHealthChecks,
		ProvideSeriesHandler,
		ProvideStreamHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
