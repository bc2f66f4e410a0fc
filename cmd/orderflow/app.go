package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/serome111/orderflow/internal/catalog"
	"github.com/serome111/orderflow/internal/config"
	"github.com/serome111/orderflow/internal/item"
	"github.com/serome111/orderflow/internal/logger"
	"github.com/serome111/orderflow/internal/order"
	"github.com/serome111/orderflow/internal/source"
	"github.com/serome111/orderflow/pkg/bootstrap"
	"github.com/serome111/orderflow/pkg/circuitbreaker"
	"github.com/serome111/orderflow/pkg/health"
	"github.com/serome111/orderflow/pkg/metrics"
	"github.com/serome111/orderflow/pkg/middleware"
	"github.com/serome111/orderflow/pkg/migrations"
	"github.com/serome111/orderflow/pkg/ratelimit"
	"github.com/serome111/orderflow/pkg/transform"
)

const shutdownTimeout = 30 * time.Second

type App struct {
	config      *config.Config
	logger      logger.Logger
	dbConnector *bootstrap.DatabaseConnector
	db          *sql.DB
	redisClient *redis.Client
	pipeline    *order.Pipeline
	transforms  *transform.Registry
	queueSource source.Source
	server      *http.Server
	router      *gin.Engine
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	return &App{
		config:      cfg,
		logger:      log,
		dbConnector: bootstrap.NewDatabaseConnector(cfg, log),
	}
}

func (a *App) Initialize(ctx context.Context) error {
	if err := a.initDatabases(ctx); err != nil {
		return fmt.Errorf("failed to initialize databases: %w", err)
	}

	if err := a.initPipeline(); err != nil {
		return fmt.Errorf("failed to initialize pipeline: %w", err)
	}

	if err := a.initSource(); err != nil {
		return fmt.Errorf("failed to initialize queue source: %w", err)
	}

	if err := a.initRouter(); err != nil {
		return fmt.Errorf("failed to initialize router: %w", err)
	}

	if err := a.initServer(); err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	return nil
}

func (a *App) initDatabases(ctx context.Context) error {
	db, err := a.dbConnector.InitPostgreSQL(ctx)
	if err != nil {
		return err
	}
	a.db = db

	if a.config.Database.RunMigrations {
		if err := migrations.RunPostgres(a.db, a.config.Database.MigrationsPath); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		a.logger.Info("Database migrations applied")
	}

	// Redis is only needed when the redis queue source is configured.
	if a.config.Source.Type == "redis" {
		rdb, err := a.dbConnector.InitRedis(ctx)
		if err != nil {
			return err
		}
		a.redisClient = rdb
	}

	return nil
}

func (a *App) initPipeline() error {
	var breaker *circuitbreaker.Wrapper
	if a.config.CircuitBreaker.Enabled {
		breaker = circuitbreaker.NewWrapper(circuitbreaker.Config{
			Name:         "catalog",
			MaxRequests:  a.config.CircuitBreaker.MaxRequests,
			Interval:     a.config.CircuitBreaker.Interval,
			Timeout:      a.config.CircuitBreaker.Timeout,
			FailureRatio: a.config.CircuitBreaker.FailureRatio,
			MinRequests:  a.config.CircuitBreaker.MinRequests,
		})
		a.logger.Infow("Circuit breaker enabled for catalog client")
	}

	provider := catalog.NewClient(a.config.Enrichment, breaker, a.logger)
	store := order.NewPostgresStore(a.db)

	a.transforms = transform.NewRegistry()
	a.pipeline = order.NewPipeline(store, provider, a.transforms, a.config.Pipeline, a.logger)
	a.pipeline.Start()

	a.logger.Infow("Pipeline started",
		"workers", a.config.Pipeline.Workers,
		"max_retries", a.config.Pipeline.MaxRetries,
	)
	return nil
}

func (a *App) initSource() error {
	src, err := source.New(a.config.Source, a.redisClient, a.logger)
	if err != nil {
		return err
	}
	if src == nil {
		a.logger.Info("No external queue source configured")
		return nil
	}

	a.queueSource = src
	a.queueSource.Start(a.pipeline)
	return nil
}

func (a *App) initRouter() error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(middleware.RecoveryMiddleware(a.logger))
	router.Use(middleware.LoggerMiddleware(a.logger))
	router.Use(middleware.RequestIDMiddleware())

	if a.config.RateLimit.Enabled {
		rateLimitConfig := ratelimit.Config{
			RPS:             a.config.RateLimit.RPS,
			Burst:           a.config.RateLimit.Burst,
			CleanupInterval: time.Duration(a.config.RateLimit.CleanupInterval) * time.Second,
			MaxAge:          time.Duration(a.config.RateLimit.MaxAge) * time.Second,
		}
		router.Use(ratelimit.Middleware(rateLimitConfig))
		a.logger.Infow("Rate limiting enabled", "rps", rateLimitConfig.RPS, "burst", rateLimitConfig.Burst)
	}

	orderHandler := order.NewHandler(a.pipeline, a.transforms, a.logger)
	orderHandler.RegisterRoutes(router)

	itemHandler := item.NewHandler(item.NewRepository(a.db), a.logger)
	itemHandler.RegisterRoutes(router)

	metrics.RegisterPipelineMetrics()
	metrics.RegisterEnrichmentMetrics()
	metrics.RegisterSourceMetrics()
	metrics.RegisterHTTPMetrics()
	if a.config.CircuitBreaker.Enabled {
		metrics.RegisterCircuitBreakerMetrics()
	}

	healthRegistry := health.NewCheckerRegistry()
	healthRegistry.Register(health.NewPostgreSQLChecker(a.db))
	if a.redisClient != nil {
		healthRegistry.Register(health.NewRedisChecker(a.redisClient))
	}

	router.GET("/health", func(c *gin.Context) {
		h := healthRegistry.Check(c.Request.Context())
		statusCode := http.StatusOK
		if h.Status == health.StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
		c.JSON(statusCode, h)
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	a.router = router
	return nil
}

func (a *App) initServer() error {
	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.config.Server.Port),
		Handler:      a.router,
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
	}
	return nil
}

func (a *App) Run(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		a.logger.InfowCtx(ctx, "Server listening", "port", a.config.Server.Port)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		return a.Shutdown(ctx)
	case err := <-errChan:
		return err
	}
}

// Shutdown tears down in dependency order: stop accepting HTTP, stop the
// external source, drain the pipeline, then close connections.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.InfowCtx(ctx, "Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error

	if a.server != nil {
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
		}
	}

	if a.queueSource != nil {
		a.queueSource.Stop()
		if err := a.queueSource.Close(); err != nil {
			errs = append(errs, fmt.Errorf("queue source close error: %w", err))
		}
	}

	if a.pipeline != nil {
		if err := a.pipeline.Stop(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("pipeline stop error: %w", err))
		}
	}

	dbErrs := a.dbConnector.ShutdownDatabases(a.redisClient, a.db)
	errs = append(errs, dbErrs...)

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	a.logger.InfowCtx(ctx, "Server exited successfully")
	return nil
}
