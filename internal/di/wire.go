//go:build wireinject
// +build wireinject

package di

import (
	"StockPulse/internal/usecase"
	"StockPulse/pkg/config"
	"StockPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideRedisClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Repositories and adapters
		ProvidePriceStore,
		ProvideEvaluationStore,
		ProvideEventPublisher,
		ProvideCacheStore,
		ProvideResultCache,
		ProvideForecastProvider,
		ProvideSentimentProvider,
		ProvideTickerRegistry,

		// Use cases
		ProvideAnalyzer,
		ProvideEvaluationUseCase,
		ProvideSignalsUseCase,
		ProvideBacktestUseCase,
		usecase.NewPortfolioUseCase,
		usecase.NewDashboardUseCase,
		usecase.NewSentimentUseCase,
		ProvideHealthUseCase,

		// Background work
		ProvideRefreshQueue,
		ProvideRefreshJob,
		ProvideRefreshScheduler,
		ProvideBarsHandler,
		ProvideQuoteCollector,

		// HTTP
		ProvideRateLimiter,
		ProvideAnalyticsHandler,
		ProvideAdminHandler,
		ProvideHealthHandler,
		ProvideHTTPServer,

		// Application server
		wire.Struct(new(server.Deps), "*"),
		server.New,
	)
	return &server.App{}, nil
}
