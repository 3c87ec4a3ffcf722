package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/channelsync/sync-service/config"
	_ "github.com/channelsync/sync-service/docs"
	"github.com/channelsync/sync-service/internal/database"
	"github.com/channelsync/sync-service/internal/feed"
	"github.com/channelsync/sync-service/internal/handlers"
	"github.com/channelsync/sync-service/internal/jobs"
	"github.com/channelsync/sync-service/internal/marketplace"
	"github.com/channelsync/sync-service/internal/marketplace/ratelimit"
	"github.com/channelsync/sync-service/internal/middleware"
	"github.com/channelsync/sync-service/internal/storage"
	"github.com/channelsync/sync-service/internal/sweepers"
	"github.com/channelsync/sync-service/internal/syncer"
	"github.com/channelsync/sync-service/internal/taskqueue"
	"github.com/channelsync/sync-service/internal/telemetry"
	"github.com/channelsync/sync-service/internal/workers"
)

// @title Sync Service API
// @version 1.0
// @description Catalog sync state and pricing engine for marketplace connections
// @BasePath /
func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := initLogger(cfg.Logging)

	logger.Info().Msg("Starting sync service")

	ctx := context.Background()

	telemetryCleanup := telemetry.MustInit(ctx, telemetry.GetConfigFromEnv())
	defer telemetryCleanup(ctx)

	dbURL := config.GetDatabaseURL()
	if dbURL == "" {
		logger.Fatal().Msg("DATABASE_URL not set")
	}

	if err := database.Connect(
		ctx,
		dbURL,
		cfg.Database.MaxConnections,
		cfg.Database.MinConnections,
		cfg.Database.MaxConnLifetime,
		cfg.Database.MaxConnIdleTime,
	); err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()

	logger.Info().Msg("Database connected")

	docs, err := storage.NewLocalStorage(cfg.Storage.BasePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize feed document storage")
	}

	syncCfg := syncer.DefaultConfig()
	syncCfg.ChunkSize = cfg.Sync.ChunkSize
	syncCfg.BatchThreshold = cfg.Sync.BatchThreshold
	syncCfg.RetryOlderThan = cfg.Sync.RetryOlderThan
	syncCfg.RateLimit = ratelimit.Config{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		Burst:             cfg.RateLimit.BurstSize,
	}

	orchestrator := syncer.New(syncer.DBStore{}, nil, syncCfg).WithDocStore(docs)

	reconciler := feed.New(feed.DBStore{}, feed.RegistryResolver(marketplace.DefaultRegistry), feed.Config{
		PollInterval: cfg.Feed.PollInterval,
		MaxAttempts:  cfg.Feed.MaxAttempts,
	}).WithDocStore(docs)

	queue := taskqueue.New(database.Pool())

	var worker *workers.Worker
	if cfg.Worker.Enabled {
		workerCfg := workers.DefaultWorkerConfig("sync-worker")
		workerCfg.NumWorkers = cfg.Worker.NumWorkers
		workerCfg.MaxTasks = cfg.Worker.MaxTasks
		workerCfg.PollDelay = cfg.Worker.PollDelay

		worker = workers.New(queue, workerCfg)
		workers.RegisterSyncHandlers(worker, orchestrator, reconciler, queue, jobs.DefaultCleanupConfig())
		worker.Start(ctx)
	}

	taskSweeper := sweepers.NewTaskQueueSweeper(queue, logger, 5*time.Minute, 30*time.Minute)
	go taskSweeper.Start(ctx)

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	setupMiddleware(router, logger)

	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	internal := router.Group("/internal")
	internal.Use(middleware.InternalAuthMiddleware())
	internal.Use(middleware.ServiceRateLimitMiddleware(50, 100))
	{
		internal.GET("/health", handlers.HealthCheck)
		internal.GET("/stats", handlers.GetStats)

		items := internal.Group("/items")
		{
			items.GET("", handlers.ListItems)
			items.GET("/:id", handlers.GetItem)
			items.GET("/:id/audit", handlers.GetItemAudit)
		}

		feeds := internal.Group("/feeds")
		{
			feeds.GET("", handlers.ListFeedJobsHandler)
			feeds.GET("/:id", handlers.GetFeedJobHandler)
		}

		admin := internal.Group("/admin")
		{
			admin.POST("/sweeps/:sweep", handlers.TriggerSweep)
			admin.POST("/feeds/:id/reconcile", handlers.TriggerFeedReconcile)
			admin.GET("/tasks/:id", handlers.GetTaskStatus)
		}
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")
	taskSweeper.Stop()
	if worker != nil {
		worker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited")
}

func initLogger(cfg config.LoggingConfig) *zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var output io.Writer
	if cfg.Format == "json" {
		output = os.Stdout
	} else {
		output = zerolog.ConsoleWriter{Out: os.Stdout, NoColor: cfg.NoColor}
	}

	logger := zerolog.New(output).Level(level).With().Timestamp().Str("service", "sync-service").Logger()
	zlog.Logger = logger
	return &logger
}

func setupMiddleware(router *gin.Engine, logger *zerolog.Logger) {
	router.Use(func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		logger.Info().
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", query).
			Int("status", c.Writer.Status()).
			Dur("latency", latency).
			Str("ip", c.ClientIP()).
			Msg("HTTP request")
	})
}
