package server

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	domrepo "StockPulse/internal/domain/repository"
	"StockPulse/internal/service/ratelimit"
	"StockPulse/internal/usecase"
	pkgcache "StockPulse/pkg/cache"
	pkgch "StockPulse/pkg/clickhouse"
	"StockPulse/pkg/config"
	xhttp "StockPulse/pkg/http"
	pkgkafka "StockPulse/pkg/kafka"
	applogger "StockPulse/pkg/logger"
	"StockPulse/pkg/queue"
)

// Deps lists everything the App starts and stops. Optional components are nil
// when disabled in config.
type Deps struct {
	Config      *config.Config
	Logger      *applogger.Logger
	HTTPServer  *xhttp.Server
	Collector   *usecase.QuoteCollector
	Consumer    *pkgkafka.Consumer
	BarsHandler *usecase.BarsHandler
	Queue       *queue.RedisQueue
	Scheduler   *usecase.RefreshScheduler
	Limiter     *ratelimit.Limiter
	Publisher   domrepo.EventPublisher
	ClickHouse  *pkgch.Client
	Redis       *redis.Client
	Cache       pkgcache.Service
}

// App encapsulates the entire application lifecycle.
type App struct {
	Deps
	log       *applogger.Logger
	stopSweep chan struct{}
}

// New creates a new App instance with all dependencies.
func New(d Deps) *App {
	return &App{
		Deps:      d,
		log:       d.Logger.Component("app"),
		stopSweep: make(chan struct{}),
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.start(ctx); err != nil {
		_ = a.shutdown(context.Background())
		return err
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	cancel()
	return a.shutdown(context.Background())
}

func (a *App) start(ctx context.Context) error {
	cfg := a.Config

	if cfg.Log.Collector.Enabled && a.Publisher != nil {
		a.Logger.AddCollector(&applogger.CollectionConfig{
			Service:        "stockpulse",
			TimeInterval:   cfg.Log.Collector.Interval,
			CountThreshold: cfg.Log.Collector.CountThreshold,
			DigestSize:     cfg.Log.Collector.DigestSize,
			Topic:          cfg.Kafka.Topics.Logs,
			Publisher:      a.Publisher,
		})
		a.log.Info("log collector attached", applogger.String("topic", cfg.Kafka.Topics.Logs))
	}

	if a.Limiter != nil {
		go a.Limiter.Run(time.Minute, a.stopSweep)
	}

	// Start consumer if configured
	if a.Consumer != nil && a.BarsHandler != nil {
		a.Consumer.RegisterHandler(a.BarsHandler)
		go func() {
			if err := a.Consumer.Start(); err != nil {
				a.log.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.log.Info("kafka consumer started", applogger.String("topic", a.BarsHandler.Topic()))
	}

	if a.Collector != nil {
		if err := a.Collector.Start(ctx); err != nil {
			// The service still answers from stored history without a live feed.
			a.log.Error("quote collector start failed", applogger.Error(err))
		} else {
			a.log.Info("quote collector started")
		}
	}

	if a.Queue != nil {
		if err := a.Queue.Start(); err != nil {
			return err
		}
	}
	if a.Scheduler != nil {
		a.Scheduler.Start(ctx)
		a.log.Info("refresh scheduler started", applogger.Duration("interval", cfg.Refresh.Interval))
	}

	// Start HTTP server
	if err := a.HTTPServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	return nil
}

// shutdown gracefully stops all services in reverse start order.
func (a *App) shutdown(ctx context.Context) error {
	a.log.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.HTTPServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	if a.Queue != nil {
		if err := a.Queue.Stop(shutdownCtx); err != nil {
			a.log.Warn("refresh queue stop error", applogger.Error(err))
		}
	}

	if a.Collector != nil {
		if err := a.Collector.Shutdown(shutdownCtx); err != nil {
			a.log.Warn("collector stop error", applogger.Error(err))
		}
	}

	if a.Consumer != nil {
		if err := a.Consumer.Stop(shutdownCtx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	close(a.stopSweep)

	// Flush collected logs before the producer goes away.
	a.Logger.RemoveCollector()

	if a.Publisher != nil {
		if err := a.Publisher.Close(); err != nil {
			a.log.Warn("kafka producer close error", applogger.Error(err))
		}
	}
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			a.log.Warn("cache close error", applogger.Error(err))
		}
	}
	// A redis-backed cache shares the client and may already have closed it.
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
			a.log.Warn("redis close error", applogger.Error(err))
		}
	}
	if a.ClickHouse != nil {
		if err := a.ClickHouse.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
