package di

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	domrepo "StockPulse/internal/domain/repository"
	domsvc "StockPulse/internal/domain/service"
	"StockPulse/internal/handler/api"
	mid "StockPulse/internal/middleware"
	internalrepo "StockPulse/internal/repository"
	svccache "StockPulse/internal/service/cache"
	"StockPulse/internal/service/finnhub"
	"StockPulse/internal/service/ratelimit"
	"StockPulse/internal/service/tickers"
	"StockPulse/internal/services/anomaly"
	"StockPulse/internal/services/backtest"
	"StockPulse/internal/services/forecast"
	"StockPulse/internal/services/sentiment"
	"StockPulse/internal/usecase"
	pkgcache "StockPulse/pkg/cache"
	pkgch "StockPulse/pkg/clickhouse"
	"StockPulse/pkg/config"
	xhttp "StockPulse/pkg/http"
	"StockPulse/pkg/http/middleware"
	pkgkafka "StockPulse/pkg/kafka"
	applogger "StockPulse/pkg/logger"
	"StockPulse/pkg/metrics"
	"StockPulse/pkg/queue"
)

// Optional infrastructure providers return nil when the component is disabled in
// config. Providers of interfaces return an untyped nil in that case.

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: cfg.Log.TimeFormat,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithAddr(cfg.ClickHouse.Host, cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, nil); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideRedisClient creates the shared Redis client used by the ticker list,
// the result cache and the refresh queue.
func ProvideRedisClient(cfg *config.Config) (*redis.Client, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideKafkaConsumer creates the bars consumer. It is only built when Kafka is enabled.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
		pkgkafka.WithConsumerLogger(l),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.NewHookChain(pkgkafka.NewTracingHook(l, time.Second)))
	return consumer, nil
}

// ProvidePriceStore returns the ClickHouse store, or an in-memory one when
// ClickHouse is disabled. Tables are created on startup.
func ProvidePriceStore(ch *pkgch.Client, l *applogger.Logger) (domrepo.PriceStore, error) {
	if ch == nil {
		return internalrepo.NewMemoryPriceStore(), nil
	}
	store := internalrepo.NewCHPriceStore(ch, l)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return store, nil
}

// ProvideEvaluationStore mirrors ProvidePriceStore for evaluation results.
func ProvideEvaluationStore(ch *pkgch.Client, l *applogger.Logger) (domrepo.EvaluationStore, error) {
	if ch == nil {
		return internalrepo.NewMemoryEvaluationStore(), nil
	}
	store := internalrepo.NewCHEvaluationStore(ch, l)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return store, nil
}

// ProvideEventPublisher creates the Kafka publisher for signal and risk events.
func ProvideEventPublisher(cfg *config.Config, producer *pkgkafka.Producer) domrepo.EventPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaEventPublisher(producer, internalrepo.Topics{
		Signals: cfg.Kafka.Topics.Signals,
		Risk:    cfg.Kafka.Topics.Risk,
	})
}

// ProvideCacheStore selects the cache backend: memory, redis, or redis fronted by memory.
func ProvideCacheStore(cfg *config.Config, rdb *redis.Client) pkgcache.Service {
	if rdb == nil || cfg.Cache.Backend == "memory" {
		return pkgcache.NewMemoryCache(pkgcache.WithMemoryMaxSize(cfg.Cache.MaxSize))
	}
	rc := pkgcache.NewRedisCacheFromClient(rdb, cfg.Cache.KeyPrefix)
	if cfg.Cache.Backend == "layered" {
		return pkgcache.NewLayeredCache(rc, pkgcache.WithLayeredMemorySize(cfg.Cache.MaxSize))
	}
	return rc
}

// ProvideResultCache wraps the store with per-kind TTLs.
func ProvideResultCache(cfg *config.Config, store pkgcache.Service, m domrepo.Metrics, l *applogger.Logger) *svccache.ResultCache {
	ttl := cfg.Cache.TTL
	return svccache.NewResultCache(store, cfg.Cache.Backend, svccache.TTLs{
		svccache.KindForecast:   ttl.Forecast,
		svccache.KindEvaluation: ttl.Evaluation,
		svccache.KindSignals:    ttl.Signals,
		svccache.KindAnomalies:  ttl.Anomalies,
		svccache.KindBacktest:   ttl.Backtest,
		svccache.KindPortfolio:  ttl.Portfolio,
	}, svccache.WithMetrics(m), svccache.WithLogger(l))
}

// ProvideForecastProvider uses the external model service when configured and
// falls back to the local trend model otherwise.
func ProvideForecastProvider(cfg *config.Config, l *applogger.Logger) domsvc.ForecastProvider {
	if cfg.Forecast.ServiceURL == "" {
		l.Info("forecast service not configured, using local trend model")
		return forecast.NewTrendProvider()
	}
	b := cfg.Forecast.Breaker
	return forecast.NewHTTPProvider(cfg.Forecast.ServiceURL,
		forecast.WithClient(xhttp.NewClient(xhttp.WithTimeout(cfg.Forecast.Timeout))),
		forecast.WithRetries(cfg.Forecast.Retries, 0),
		forecast.WithBreaker(forecast.BreakerSettings{
			MaxRequests:  b.MaxRequests,
			Interval:     b.Interval,
			Timeout:      b.Timeout,
			FailureRatio: b.FailureRatio,
			MinRequests:  b.MinRequests,
		}),
		forecast.WithLogger(l),
	)
}

// ProvideSentimentProvider selects the sentiment source.
func ProvideSentimentProvider(cfg *config.Config) domsvc.SentimentProvider {
	switch cfg.Sentiment.Provider {
	case "http":
		return sentiment.NewHTTPProvider(cfg.Sentiment.ServiceURL, cfg.Sentiment.Timeout)
	case "static":
		return sentiment.Static(0)
	default:
		return sentiment.NewDeterministic(cfg.Sentiment.Seed)
	}
}

// ProvideTickerRegistry loads the monitored list, persisted in Redis when available.
func ProvideTickerRegistry(cfg *config.Config, rdb *redis.Client, l *applogger.Logger) (*tickers.Registry, error) {
	var store tickers.Store = &tickers.MemoryStore{}
	if rdb != nil {
		store = tickers.NewRedisStore(rdb, cfg.Tickers.RedisKey)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	reg, err := tickers.NewRegistry(ctx, store, cfg.Tickers.Monitored, l)
	if err != nil {
		return nil, fmt.Errorf("ticker registry: %w", err)
	}
	return reg, nil
}

// ProvideAnalyzer creates the shared analysis core.
func ProvideAnalyzer(
	cfg *config.Config,
	store domrepo.PriceStore,
	fc domsvc.ForecastProvider,
	sent domsvc.SentimentProvider,
	cache *svccache.ResultCache,
	m domrepo.Metrics,
	l *applogger.Logger,
) *usecase.Analyzer {
	return usecase.NewAnalyzer(store, fc, sent, cache, m, l,
		usecase.WithHistory(cfg.Forecast.History),
		usecase.WithTimeframe(domrepo.NormalizeTimeframe(cfg.Forecast.Timeframe)),
	)
}

// ProvideEvaluationUseCase creates the evaluation use case.
func ProvideEvaluationUseCase(cfg *config.Config, a *usecase.Analyzer, store domrepo.EvaluationStore, l *applogger.Logger) *usecase.EvaluationUseCase {
	return usecase.NewEvaluationUseCase(a, store, cfg.Cache.MaxAge, l)
}

// ProvideSignalsUseCase creates the signal and risk use case.
func ProvideSignalsUseCase(a *usecase.Analyzer, pub domrepo.EventPublisher, l *applogger.Logger) *usecase.SignalsUseCase {
	return usecase.NewSignalsUseCase(a, anomaly.NewDetector(), pub, l)
}

// ProvideBacktestUseCase creates the backtest use case.
func ProvideBacktestUseCase(a *usecase.Analyzer) *usecase.BacktestUseCase {
	return usecase.NewBacktestUseCase(a, backtest.NewSimulator())
}

// ProvideRefreshQueue creates the Redis job queue behind periodic refresh.
func ProvideRefreshQueue(cfg *config.Config, rdb *redis.Client, l *applogger.Logger) *queue.RedisQueue {
	if !cfg.Refresh.Enabled || rdb == nil {
		return nil
	}
	mode := queue.ModeProducerConsumer
	if cfg.Refresh.Workers <= 0 {
		mode = queue.ModeProducerOnly
	}
	return queue.NewRedisQueue(l, &queue.QueueConfig{
		Workers:    cfg.Refresh.Workers,
		RetryLimit: cfg.Refresh.MaxRetries,
		RetryDelay: cfg.Refresh.RetryInterval,
	}, rdb, mode, queue.WithQueueName(cfg.Refresh.QueueName))
}

// ProvideRefreshJob creates the job that recomputes a ticker's analytics.
func ProvideRefreshJob(cfg *config.Config, a *usecase.Analyzer, signals *usecase.SignalsUseCase, l *applogger.Logger) *usecase.RefreshJob {
	return usecase.NewRefreshJob(a, signals, cfg.Forecast.Horizon, l)
}

// ProvideRefreshScheduler creates the scheduler and registers the refresh job on q.
func ProvideRefreshScheduler(cfg *config.Config, q *queue.RedisQueue, job *usecase.RefreshJob, reg *tickers.Registry, l *applogger.Logger) *usecase.RefreshScheduler {
	if q == nil {
		return nil
	}
	q.RegisterJob(job)
	return usecase.NewRefreshScheduler(q, reg, cfg.Refresh.Interval, cfg.Refresh.RetryInterval, cfg.Forecast.Horizon, l)
}

// ProvideBarsHandler creates the Kafka handler that stores bars from the bars topic.
func ProvideBarsHandler(cfg *config.Config, store domrepo.PriceStore, m domrepo.Metrics) *usecase.BarsHandler {
	return usecase.NewBarsHandler(cfg.Kafka.Topics.Bars, store, m)
}

// ProvideQuoteCollector builds the live quote path: Finnhub stream, pipeline and bar aggregator.
func ProvideQuoteCollector(cfg *config.Config, store domrepo.PriceStore, reg *tickers.Registry, m domrepo.Metrics, l *applogger.Logger) *usecase.QuoteCollector {
	if !cfg.Finnhub.Enabled {
		return nil
	}
	stream := finnhub.New(cfg.Finnhub.APIKey, cfg.Finnhub.WebSocketURL, cfg.Finnhub.ReconnectDelay, cfg.Finnhub.PingInterval, l)
	// Roll live quotes up into the bars analytics read so the feed reaches forecasts.
	agg := usecase.NewBarAggregator(store, m, cfg.Finnhub.BatchSize, cfg.Finnhub.BatchTimeout, l,
		usecase.WithRollups(domrepo.NormalizeTimeframe(cfg.Forecast.Timeframe)),
	)
	pipe := mid.NewQuotePipeline(agg, m,
		mid.WithMaxRPS(50),
		mid.WithBufferSize(2000),
		mid.WithPipelineLogger(l),
	)
	return usecase.NewQuoteCollector(stream, reg, pipe, agg, m, l)
}

// ProvideHealthUseCase registers a check per enabled dependency.
func ProvideHealthUseCase(ch *pkgch.Client, rdb *redis.Client, fc domsvc.ForecastProvider) *usecase.HealthUseCase {
	var checks []usecase.HealthCheck
	if ch != nil {
		checks = append(checks, usecase.HealthCheck{Name: "clickhouse", Check: ch.Health})
	}
	if rdb != nil {
		checks = append(checks, usecase.HealthCheck{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	}
	if b, ok := fc.(interface{ State() string }); ok {
		checks = append(checks, usecase.HealthCheck{Name: "forecast_service", Check: func(context.Context) error {
			if s := b.State(); s == "open" {
				return fmt.Errorf("circuit breaker %s", s)
			}
			return nil
		}})
	}
	return usecase.NewHealthUseCase(3*time.Second, checks...)
}

// ProvideRateLimiter creates the per-client limiter, nil when disabled.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	if !cfg.RateLimit.Enabled {
		return nil
	}
	return ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
}

// ProvideAnalyticsHandler creates the analytics API handler.
func ProvideAnalyticsHandler(
	l *applogger.Logger,
	a *usecase.Analyzer,
	eval *usecase.EvaluationUseCase,
	signals *usecase.SignalsUseCase,
	bt *usecase.BacktestUseCase,
	pf *usecase.PortfolioUseCase,
	dash *usecase.DashboardUseCase,
	sent *usecase.SentimentUseCase,
) *api.AnalyticsHandler {
	return api.NewAnalyticsHandler(l, a, eval, signals, bt, pf, dash, sent)
}

// ProvideAdminHandler creates the ticker and cache management handler.
func ProvideAdminHandler(l *applogger.Logger, reg *tickers.Registry, cache *svccache.ResultCache) *api.AdminHandler {
	return api.NewAdminHandler(l, reg, cache)
}

// ProvideHealthHandler creates the health endpoint handler.
func ProvideHealthHandler(h *usecase.HealthUseCase) *api.HealthHandler {
	return api.NewHealthHandler(h)
}

// ProvideHTTPServer assembles the Echo server with every handler.
func ProvideHTTPServer(
	cfg *config.Config,
	l *applogger.Logger,
	analytics *api.AnalyticsHandler,
	admin *api.AdminHandler,
	health *api.HealthHandler,
	limiter *ratelimit.Limiter,
) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.AllowOrigins),
		xhttp.WithLogger(l),
	}
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
		opts = append(opts, xhttp.WithMetrics(metricsPath))
	}
	if limiter != nil {
		opts = append(opts, xhttp.WithMiddleware(middleware.RateLimit(limiter, "/health", "/api/health", metricsPath)))
	}
	return xhttp.NewServer([]xhttp.Handler{analytics, admin, health}, opts...)
}
