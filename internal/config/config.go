package config

import (
	"fmt"
	"net/url"
	"time"

	pkgconfig "github.com/sefaaycicek/fakestore/pkg/config"
	"github.com/sefaaycicek/fakestore/pkg/database"
	"github.com/sefaaycicek/fakestore/pkg/tracing"
)

// ServiceName labels logs, metrics and traces.
const ServiceName = "storefront"

// CatalogConfig configures the upstream product catalog client. It is read
// with the CATALOG_ prefix both by the server and by catalogctl.
type CatalogConfig struct {
	BaseURL    string        `env:"BASE_URL" envDefault:"https://dummyjson.com"`
	PageSize   int           `env:"PAGE_SIZE" envDefault:"20"`
	Timeout    time.Duration `env:"TIMEOUT" envDefault:"10s"`
	MaxRetries int           `env:"MAX_RETRIES" envDefault:"2"`
}

// Config holds all configuration for the storefront server.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort           int           `env:"STOREFRONT_HTTP_PORT" envDefault:"8080"`
	ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Per-shopper API rate limit; zero RPS disables it.
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"40"`

	Catalog CatalogConfig `envPrefix:"CATALOG_"`

	// Listing sessions
	SearchDebounce time.Duration `env:"SEARCH_DEBOUNCE" envDefault:"1s"`
	SessionIdleTTL time.Duration `env:"SESSION_IDLE_TTL" envDefault:"30m"`
	MaxSessions    int           `env:"MAX_SESSIONS" envDefault:"10000"`

	// PostgreSQL (favorites)
	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"fakestore"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"fakestore"`
	PostgresDB       string `env:"POSTGRES_DB" envDefault:"fakestore"`
	PostgresSSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`
	PostgresMaxConns int32  `env:"POSTGRES_MAX_CONNS" envDefault:"10"`

	// Redis (basket)
	RedisHost     string        `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int           `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string        `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	BasketTTL     time.Duration `env:"BASKET_TTL" envDefault:"168h"`

	// Kafka; events are dropped when no brokers are configured.
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`

	// Tracing
	OTELEnabled    bool              `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string            `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELInsecure   bool              `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
	OTELHeaders    map[string]string `env:"OTEL_EXPORTER_OTLP_HEADERS" envKeyValSeparator:"="`
	OTELSampleRate float64           `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	SlowQueryThreshold time.Duration `env:"SLOW_QUERY_THRESHOLD" envDefault:"200ms"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadCatalog reads only the CATALOG_* variables.
func LoadCatalog() (*CatalogConfig, error) {
	cfg := &CatalogConfig{}
	if err := pkgconfig.LoadWithPrefix(cfg, "CATALOG_"); err != nil {
		return nil, fmt.Errorf("load catalog config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the catalog settings.
func (c *CatalogConfig) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid catalog base URL: %q", c.BaseURL)
	}
	if c.PageSize < 1 || c.PageSize > 100 {
		return fmt.Errorf("invalid catalog page size: %d", c.PageSize)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("invalid catalog timeout: %s", c.Timeout)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("invalid catalog max retries: %d", c.MaxRetries)
	}
	return nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if err := c.Catalog.Validate(); err != nil {
		return err
	}
	if c.RateLimitRPS < 0 || (c.RateLimitRPS > 0 && c.RateLimitBurst < 1) {
		return fmt.Errorf("invalid rate limit: %v rps, burst %d", c.RateLimitRPS, c.RateLimitBurst)
	}
	if c.SearchDebounce < 0 {
		return fmt.Errorf("invalid search debounce: %s", c.SearchDebounce)
	}
	if c.SessionIdleTTL <= 0 {
		return fmt.Errorf("invalid session idle TTL: %s", c.SessionIdleTTL)
	}
	if c.MaxSessions < 1 {
		return fmt.Errorf("invalid max sessions: %d", c.MaxSessions)
	}
	if c.BasketTTL <= 0 {
		return fmt.Errorf("invalid basket TTL: %s", c.BasketTTL)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1 {
		return fmt.Errorf("invalid OTEL sample rate: %v", c.OTELSampleRate)
	}
	return nil
}

// Postgres returns the connection settings for the favorites store.
func (c *Config) Postgres() *database.PostgresConfig {
	return &database.PostgresConfig{
		Host:            c.PostgresHost,
		Port:            c.PostgresPort,
		User:            c.PostgresUser,
		Password:        c.PostgresPassword,
		DBName:          c.PostgresDB,
		SSLMode:         c.PostgresSSLMode,
		MaxConns:        c.PostgresMaxConns,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	}
}

// Redis returns the connection settings for the basket store.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{
		Host:     c.RedisHost,
		Port:     c.RedisPort,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}

// Tracing returns the OpenTelemetry settings.
func (c *Config) Tracing(version string) tracing.Config {
	return tracing.Config{
		ServiceName:    ServiceName,
		ServiceVersion: version,
		Environment:    c.Environment,
		Endpoint:       c.OTELEndpoint,
		Insecure:       c.OTELInsecure,
		Headers:        c.OTELHeaders,
		SampleRate:     c.OTELSampleRate,
		Enabled:        c.OTELEnabled,
	}
}

// EventsEnabled reports whether a Kafka producer should be started.
func (c *Config) EventsEnabled() bool {
	return len(c.KafkaBrokers) > 0
}
