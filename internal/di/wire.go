//go:build wireinject
// +build wireinject

package di

import (
	"SentiPulse/pkg/config"
	"SentiPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Admission control and caches
		ProvideLimiter,
		ProvideResponseCache,
		ProvideSharedCache,

		// Upstream plumbing
		ProvideHTTPClient,
		ProvideScorer,
		ProvideNormalizer,
		ProvidePostBuffer,
		ProvideRealSource,
		ProvidePriceService,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvidePostArchive,
		ProvideKafkaProducer,
		ProvideAlertSink,

		// Use cases
		ProvideSyntheticSource,
		ProvideAggregator,
		ProvideCorrelationEngine,
		ProvideAlertDeriver,
		ProvideStreamCollector,

		// HTTP surface
		ProvideDashboardHandler,

		ProvideApp,
	)
	return nil, nil
}
