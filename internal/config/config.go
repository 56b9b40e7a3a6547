// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v10"
)

// Store drivers.
const (
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Catalog cache drivers.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Event publisher drivers.
const (
	EventsNone  = "none"
	EventsRedis = "redis"
	EventsAMQP  = "amqp"
)

// Config validation errors.
var (
	ErrUnknownDriver  = errors.New("unknown driver")
	ErrMissingSetting = errors.New("missing required setting")
	ErrInvalidSetting = errors.New("invalid setting")
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// User store
	StoreDriver string `env:"STORE_DRIVER" envDefault:"sqlite"`
	DatabaseURL string `env:"DATABASE_URL"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"launchdeck.db"`

	// Redis backs the catalog cache and the event stream when selected.
	RedisURL          string `env:"REDIS_URL"`
	RedisPoolSize     int    `env:"REDIS_POOL_SIZE" envDefault:"10"`
	RedisMinIdleConns int    `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`

	// Upstream launch catalog
	CatalogBaseURL     string        `env:"CATALOG_BASE_URL" envDefault:"https://api.spacexdata.com/v2/"`
	CatalogTimeout     time.Duration `env:"CATALOG_TIMEOUT" envDefault:"10s"`
	CatalogDefaultTTL  time.Duration `env:"CATALOG_DEFAULT_TTL" envDefault:"5m"`
	CatalogMaxTTL      time.Duration `env:"CATALOG_MAX_TTL" envDefault:"1h"`
	CatalogFanOut      int           `env:"CATALOG_FANOUT" envDefault:"8"`
	CatalogCacheDriver string        `env:"CATALOG_CACHE_DRIVER" envDefault:"memory"`

	BookingFanOut int `env:"BOOKING_FANOUT" envDefault:"4"`

	// Trip events
	EventsDriver string `env:"EVENTS_DRIVER" envDefault:"none"`
	AMQPURL      string `env:"AMQP_URL"`
	AMQPExchange string `env:"AMQP_EXCHANGE" envDefault:"launchdeck.trips"`

	// Tracing; an empty endpoint disables export.
	OTelEndpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTelServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"launchdeck"`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// NeedsRedis reports whether any component is configured to use Redis.
func (c *Config) NeedsRedis() bool {
	return c.CatalogCacheDriver == CacheRedis || c.EventsDriver == EventsRedis
}

// Validate checks driver names and the settings each driver requires.
func (c *Config) Validate() error {
	var errs []error

	switch c.StoreDriver {
	case StoreSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, fmt.Errorf("%w: SQLITE_PATH", ErrMissingSetting))
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, fmt.Errorf("%w: DATABASE_URL is required when STORE_DRIVER=postgres", ErrMissingSetting))
		}
	default:
		errs = append(errs, fmt.Errorf("%w: STORE_DRIVER=%q", ErrUnknownDriver, c.StoreDriver))
	}

	switch c.CatalogCacheDriver {
	case CacheMemory, CacheRedis:
	default:
		errs = append(errs, fmt.Errorf("%w: CATALOG_CACHE_DRIVER=%q", ErrUnknownDriver, c.CatalogCacheDriver))
	}

	switch c.EventsDriver {
	case EventsNone, EventsRedis:
	case EventsAMQP:
		if c.AMQPURL == "" {
			errs = append(errs, fmt.Errorf("%w: AMQP_URL is required when EVENTS_DRIVER=amqp", ErrMissingSetting))
		}
	default:
		errs = append(errs, fmt.Errorf("%w: EVENTS_DRIVER=%q", ErrUnknownDriver, c.EventsDriver))
	}

	if c.NeedsRedis() && c.RedisURL == "" {
		errs = append(errs, fmt.Errorf("%w: REDIS_URL is required by the selected drivers", ErrMissingSetting))
	}

	if u, err := url.Parse(c.CatalogBaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		errs = append(errs, fmt.Errorf("%w: CATALOG_BASE_URL must be an http(s) URL", ErrInvalidSetting))
	}
	if c.CatalogFanOut < 1 || c.BookingFanOut < 1 {
		errs = append(errs, fmt.Errorf("%w: fan-out limits must be at least 1", ErrInvalidSetting))
	}
	if c.CatalogDefaultTTL <= 0 || c.CatalogMaxTTL < c.CatalogDefaultTTL {
		errs = append(errs, fmt.Errorf("%w: CATALOG_MAX_TTL must be at least CATALOG_DEFAULT_TTL", ErrInvalidSetting))
	}

	return errors.Join(errs...)
}

// Load parses environment variables and returns a validated Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
