// Package main is the entrypoint for the Launchdeck API server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/launchdeck/launchdeck/internal/booking"
	"github.com/launchdeck/launchdeck/internal/cache"
	"github.com/launchdeck/launchdeck/internal/catalog"
	"github.com/launchdeck/launchdeck/internal/config"
	"github.com/launchdeck/launchdeck/internal/events"
	"github.com/launchdeck/launchdeck/internal/graph"
	"github.com/launchdeck/launchdeck/internal/handler"
	"github.com/launchdeck/launchdeck/internal/metrics"
	"github.com/launchdeck/launchdeck/internal/repository"
	"github.com/launchdeck/launchdeck/internal/server"
	"github.com/launchdeck/launchdeck/internal/tracing"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// sweepInterval is how often expired in-memory catalog entries are dropped.
const sweepInterval = time.Minute

// userStore is what main needs from either store driver.
type userStore interface {
	booking.Store
	Ping(ctx context.Context) error
	Close() error
}

func main() {
	if err := run(); err != nil {
		slog.Error("startup failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := initLogger(cfg)

	shutdownTracing, err := tracing.Init(ctx, tracing.Config{
		Endpoint:    cfg.OTelEndpoint,
		ServiceName: cfg.OTelServiceName,
		Version:     version,
		Environment: cfg.AppEnv,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		_ = shutdownTracing(ctx)
		return err
	}

	var redisCache *cache.Cache
	if cfg.NeedsRedis() {
		redisCache, err = cache.New(ctx, cfg.RedisURL, cache.Options{
			PoolSize:     cfg.RedisPoolSize,
			MinIdleConns: cfg.RedisMinIdleConns,
		})
		if err != nil {
			_ = store.Close()
			_ = shutdownTracing(ctx)
			return fmt.Errorf("connect to Redis: %s", sanitizeError(err, cfg.RedisURL))
		}
		logger.Info("connected to Redis", slog.String("redis_url", redactURL(cfg.RedisURL)))
	}

	publisher, closePublisher, err := openPublisher(cfg, redisCache)
	if err != nil {
		if redisCache != nil {
			_ = redisCache.Close()
		}
		_ = store.Close()
		_ = shutdownTracing(ctx)
		return err
	}

	recorder := metrics.NewPrometheus()

	// Background work stops when the server shuts down.
	bgCtx, stopBackground := context.WithCancel(ctx)

	var catalogStore catalog.Store
	if cfg.CatalogCacheDriver == config.CacheRedis {
		catalogStore = cache.NewCatalogStore(redisCache)
	} else {
		mem := catalog.NewMemoryStore()
		go mem.Run(bgCtx, sweepInterval)
		catalogStore = mem
	}

	gateway, err := catalog.NewGateway(catalog.Config{
		BaseURL:    cfg.CatalogBaseURL,
		Timeout:    cfg.CatalogTimeout,
		DefaultTTL: cfg.CatalogDefaultTTL,
		MaxTTL:     cfg.CatalogMaxTTL,
		FanOut:     cfg.CatalogFanOut,
	}, catalogStore, logger, recorder)
	if err != nil {
		stopBackground()
		_ = closePublisher()
		if redisCache != nil {
			_ = redisCache.Close()
		}
		_ = store.Close()
		_ = shutdownTracing(ctx)
		return err
	}

	orchestrator := booking.NewOrchestrator(store, publisher, logger, recorder, booking.Options{
		FanOut: cfg.BookingFanOut,
	})
	resolver := graph.NewResolver(gateway, orchestrator, logger)

	var cacheCheck handler.HealthChecker
	if redisCache != nil {
		cacheCheck = redisCache
	}

	router := server.NewRouter(server.RouterConfig{
		API:            handler.New(resolver, logger),
		Health:         handler.NewHealthHandler(store, cacheCheck),
		Metrics:        recorder.Handler(),
		MaxRequestBody: cfg.MaxRequestBodySize,
		Logger:         logger,
	})

	srv := server.New(router, server.Config{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	// Registered in dependency order; they stop in reverse.
	srv.OnShutdown("tracing", server.ShutdownFunc(shutdownTracing))
	srv.OnShutdown("store", func(context.Context) error { return store.Close() })
	if redisCache != nil {
		srv.OnShutdown("redis", func(context.Context) error { return redisCache.Close() })
	}
	srv.OnShutdown("events", func(context.Context) error { return closePublisher() })
	srv.OnShutdown("background", func(context.Context) error {
		stopBackground()
		return nil
	})

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"store_driver", cfg.StoreDriver,
		"catalog_cache", cfg.CatalogCacheDriver,
		"events_driver", cfg.EventsDriver,
		"catalog_base_url", cfg.CatalogBaseURL,
	)

	return srv.Run()
}

// openStore connects the configured user store and applies migrations.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (userStore, error) {
	if cfg.StoreDriver == config.StorePostgres {
		repo, err := repository.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %s", sanitizeError(err, cfg.DatabaseURL))
		}
		if err := repo.Migrate(ctx); err != nil {
			_ = repo.Close()
			return nil, fmt.Errorf("migrate database: %s", sanitizeError(err, cfg.DatabaseURL))
		}
		logger.Info("connected to database", slog.String("database_url", redactURL(cfg.DatabaseURL)))
		return repo, nil
	}

	store, err := repository.NewSQLite(ctx, cfg.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	logger.Info("opened sqlite store", slog.String("path", cfg.SQLitePath))
	return store, nil
}

// openPublisher returns the trip event publisher and a func that releases it.
func openPublisher(cfg *config.Config, redisCache *cache.Cache) (events.Publisher, func() error, error) {
	noClose := func() error { return nil }

	switch cfg.EventsDriver {
	case config.EventsRedis:
		return events.NewRedisStream(redisCache.Client()), noClose, nil
	case config.EventsAMQP:
		p, err := events.NewAMQP(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to AMQP: %s", sanitizeError(err, cfg.AMQPURL))
		}
		return p, p.Close, nil
	default:
		return events.NewNoop(), noClose, nil
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	level := parseLogLevel(cfg.LogLevel)

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h).With("service", "launchdeck")
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
