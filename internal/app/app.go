package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/sefaaycicek/fakestore/internal/catalog"
	"github.com/sefaaycicek/fakestore/internal/config"
	"github.com/sefaaycicek/fakestore/internal/event"
	handler "github.com/sefaaycicek/fakestore/internal/handler/http"
	pgrepo "github.com/sefaaycicek/fakestore/internal/repository/postgres"
	redisrepo "github.com/sefaaycicek/fakestore/internal/repository/redis"
	"github.com/sefaaycicek/fakestore/internal/service"
	"github.com/sefaaycicek/fakestore/pkg/database"
	"github.com/sefaaycicek/fakestore/pkg/health"
	"github.com/sefaaycicek/fakestore/pkg/httpclient"
	pkgkafka "github.com/sefaaycicek/fakestore/pkg/kafka"
	"github.com/sefaaycicek/fakestore/pkg/middleware"
	"github.com/sefaaycicek/fakestore/pkg/tracing"
)

// App wires together all dependencies and runs the storefront service.
type App struct {
	cfg             *config.Config
	logger          *slog.Logger
	pool            *pgxpool.Pool
	rdb             *redis.Client
	producer        *pkgkafka.Producer
	sessions        *service.SessionService
	httpServer      *http.Server
	tracingShutdown func(context.Context) error
	stopBackground  context.CancelFunc
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger, version string) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}
	ok := false
	defer func() {
		if !ok {
			a.closeStores()
		}
	}()

	// Tracing.
	tracingShutdown, err := tracing.Init(ctx, cfg.Tracing(version))
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	a.tracingShutdown = tracingShutdown

	// PostgreSQL (favorites).
	a.pool, err = database.NewPostgresPool(ctx, cfg.Postgres(), logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := database.RunMigrations(ctx, a.pool, pgrepo.Migrations(), logger); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	database.SetSlowQueryLogging(cfg.SlowQueryThreshold, logger)
	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, a.pool, config.ServiceName); err != nil {
		return nil, fmt.Errorf("register pool metrics: %w", err)
	}

	// Redis (basket).
	a.rdb, err = database.NewRedisClient(ctx, cfg.Redis(), logger)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	// Catalog client behind retries and a circuit breaker.
	httpCfg := httpclient.DefaultConfig()
	httpCfg.Timeout = cfg.Catalog.Timeout
	httpCfg.MaxRetries = cfg.Catalog.MaxRetries
	breaker := httpclient.NewCircuitBreakerClient(
		httpclient.New(httpCfg),
		httpclient.DefaultCircuitBreakerConfig("catalog"),
		logger,
	)
	catalogClient := catalog.NewHTTPClient(cfg.Catalog.BaseURL, breaker, logger)

	// Domain events.
	var publisher event.Publisher = event.NoopPublisher{}
	if cfg.EventsEnabled() {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		publisher = event.NewProducer(a.producer, logger)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	} else {
		logger.Warn("no kafka brokers configured, domain events are dropped")
	}

	// Build the dependency graph.
	favoriteRepo := pgrepo.NewFavoriteRepository(a.pool)
	basketRepo := redisrepo.NewBasketRepository(a.rdb, cfg.BasketTTL)
	annotator := service.NewAnnotator(favoriteRepo, basketRepo)
	basketService := service.NewBasketService(basketRepo, favoriteRepo, catalogClient, publisher, logger)

	a.sessions = service.NewSessionService(catalogClient, annotator, publisher, service.SessionConfig{
		PageSize:    cfg.Catalog.PageSize,
		QuietPeriod: cfg.SearchDebounce,
		IdleTTL:     cfg.SessionIdleTTL,
		MaxSessions: cfg.MaxSessions,
	}, logger)

	svcs := handler.Services{
		Sessions:  a.sessions,
		Products:  service.NewProductService(catalogClient, annotator, logger),
		Favorites: service.NewFavoriteService(favoriteRepo, basketRepo, catalogClient, publisher, logger),
		Basket:    basketService,
		Checkout:  service.NewCheckoutService(basketService, publisher, logger),
	}

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", a.pool.Ping)
	healthHandler.RegisterCritical("redis", func(ctx context.Context) error {
		return a.rdb.Ping(ctx).Err()
	})
	healthHandler.RegisterNonCritical("catalog", breaker.Ping)
	if a.producer != nil {
		healthHandler.RegisterNonCritical("kafka", a.producer.Ping)
	}

	// HTTP router.
	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORSAllowedOrigins
	routerCfg := handler.RouterConfig{CORS: corsCfg}
	if cfg.RateLimitRPS > 0 {
		bg, stop := context.WithCancel(context.Background())
		a.stopBackground = stop
		rl := middleware.DefaultRateLimitConfig()
		rl.RPS, rl.Burst = cfg.RateLimitRPS, cfg.RateLimitBurst
		routerCfg.RateLimit = middleware.RateLimit(bg, rl, logger)
	}
	router := handler.NewRouter(svcs, healthHandler, routerCfg, logger)

	// No WriteTimeout: listing event streams stay open. Other routes are
	// bounded by the router's timeout middleware.
	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ok = true
	return a, nil
}

// Run starts the HTTP server and the session janitor, and blocks until the
// context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go a.sessions.Run(janitorCtx)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	// Closing the sessions ends open event streams so the server can drain.
	a.sessions.Shutdown()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	a.closeStores()
	if a.stopBackground != nil {
		a.stopBackground()
	}

	if a.tracingShutdown != nil {
		if err := a.tracingShutdown(shutdownCtx); err != nil {
			a.logger.Error("tracing shutdown error", slog.String("error", err.Error()))
		}
	}

	a.logger.Info("application shutdown complete")
	return nil
}

func (a *App) closeStores() {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
}
