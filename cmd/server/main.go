package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	integrationapp "github.com/paypos/backend/internal/application/integration"
	"github.com/paypos/backend/internal/domain/integration"
	"github.com/paypos/backend/internal/infrastructure/cache"
	"github.com/paypos/backend/internal/infrastructure/config"
	"github.com/paypos/backend/internal/infrastructure/logger"
	"github.com/paypos/backend/internal/infrastructure/messaging"
	"github.com/paypos/backend/internal/infrastructure/migration"
	"github.com/paypos/backend/internal/infrastructure/persistence"
	"github.com/paypos/backend/internal/infrastructure/pos"
	"github.com/paypos/backend/internal/infrastructure/scheduler"
	"github.com/paypos/backend/internal/infrastructure/telemetry"
	"github.com/paypos/backend/internal/interfaces/http/handler"
	"github.com/paypos/backend/internal/interfaces/http/middleware"
	"github.com/paypos/backend/internal/interfaces/http/router"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

const metricsCollectionInterval = time.Minute

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		Service:    cfg.App.Name,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting POS inventory sync",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serviceVersion := cfg.Telemetry.ServiceVersion
	if serviceVersion == "" {
		serviceVersion = version
	}

	// OTLP log export, teed with the local zap output
	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    serviceVersion,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to create logger provider", zap.Error(err))
	}
	defer func() {
		if err := loggerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down logger provider", zap.Error(err))
		}
	}()
	log = telemetry.BridgeLogger(log, loggerProvider, logger.ParseLevel(cfg.Log.Level))

	// Tracing
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.TracerConfig{
		Enabled:           cfg.Telemetry.TracesEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    serviceVersion,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to create tracer provider", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Continuous profiling
	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           cfg.Telemetry.ProfilingEnabled,
		ServerAddress:     cfg.Telemetry.PyroscopeAddress,
		ApplicationName:   cfg.Telemetry.ServiceName,
		BasicAuthUser:     cfg.Telemetry.PyroscopeUser,
		BasicAuthPassword: cfg.Telemetry.PyroscopePassword,
		ProfileAllocs:     true,
		ProfileGoroutines: true,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	defer func() {
		if err := profiler.Stop(); err != nil {
			log.Error("Error stopping profiler", zap.Error(err))
		}
	}()
	if profiler.IsEnabled() && tracerProvider.IsEnabled() {
		if err := tracerProvider.EnableSpanProfiles(); err != nil {
			log.Warn("Failed to link spans to profiles", zap.Error(err))
		}
	}

	// Database with a zap-backed GORM logger
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.GormMode),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
	)
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	dbTracing := telemetry.DefaultDBTracingConfig()
	dbTracing.Enabled = cfg.Telemetry.TracesEnabled && cfg.Telemetry.DBTraceEnabled
	dbTracing.LogFullSQL = cfg.Telemetry.DBLogFullSQL
	dbTracing.SlowQueryThresh = cfg.Telemetry.DBSlowQueryThresh
	if err := telemetry.NewDBTracingPlugin(dbTracing, log).Register(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	if cfg.Database.AutoMigrate {
		if err := runMigrations(db, log); err != nil {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	// Repositories
	channelRepo := persistence.NewGormPOSSalesChannelRepository(db.DB)
	catalogRepo := persistence.NewGormCatalogProductRepository(db.DB)
	snapshotRepo := persistence.NewGormLocalInventoryRepository(db.DB)
	runRepo := persistence.NewGormInventorySyncRunRepository(db.DB)

	// POS inventory API client
	posConfig := pos.NewConfig(cfg.POS.BaseURL)
	posConfig.Timeout = cfg.POS.Timeout
	posConfig.MaxResponseBytes = cfg.POS.MaxResponseBytes
	posClient, err := pos.NewInventoryClient(posConfig, pos.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to create POS inventory client", zap.Error(err))
	}

	// Run lock: Redis when enabled, in-memory otherwise
	runLock, err := cache.NewRunLockFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	).CreateLock()
	if err != nil {
		log.Fatal("Failed to create run lock", zap.Error(err))
	}
	defer func() {
		if err := runLock.Close(); err != nil {
			log.Error("Error closing run lock", zap.Error(err))
		}
	}()

	// Sync-completed events
	publisher, closePublisher := newPublisher(cfg.Messaging, log)
	defer closePublisher()

	// Metrics
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.ExportInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    serviceVersion,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to create meter provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	dbMetricsConfig := telemetry.DefaultDBMetricsConfig()
	dbMetricsConfig.SlowQueryThreshold = cfg.Telemetry.DBSlowQueryThresh
	dbMetrics, err := telemetry.RegisterDBMetrics(db.DB, meterProvider, dbMetricsConfig, log)
	if err != nil {
		log.Fatal("Failed to register database metrics", zap.Error(err))
	}
	if dbMetrics != nil {
		dbMetrics.StartPoolStatsCollection(ctx)
		defer dbMetrics.Stop()
	}

	syncMetrics, err := telemetry.NewInventorySyncMetrics(telemetry.InventorySyncMetricsConfig{
		Meter:  meterProvider.Meter("pos.inventory_sync"),
		Logger: log,
	})
	if err != nil {
		log.Fatal("Failed to create inventory sync metrics", zap.Error(err))
	}
	if meterProvider.IsEnabled() {
		syncMetrics.StartPeriodicCollection(ctx, channelRepo, metricsCollectionInterval)
		defer syncMetrics.Stop()
	}

	// Application service
	syncConfig := integrationapp.DefaultInventorySyncConfig(cfg.Sync.ParsedSalesChannelTypeID())
	syncConfig.LockTTL = cfg.Sync.LockTTL
	syncService := integrationapp.NewInventorySyncService(
		posClient,
		channelRepo,
		catalogRepo,
		snapshotRepo,
		runRepo,
		runLock,
		publisher,
		syncConfig,
		log,
	)
	syncService.SetMetrics(syncMetrics)

	// Periodic sync of every enabled POS sales channel
	if cfg.Scheduler.Enabled {
		stopScheduler := startScheduler(ctx, cfg.Scheduler, syncService, channelRepo, log)
		defer stopScheduler()
	}

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	httpMetrics, err := middleware.HTTPMetrics(meterProvider.Meter("http.server"))
	if err != nil {
		log.Fatal("Failed to create HTTP metrics", zap.Error(err))
	}
	engine.Use(
		middleware.RequestID(),
		middleware.Tracing(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     tracerProvider.IsEnabled(),
		}),
		middleware.SpanAttributes(),
		middleware.SpanErrorMarker(),
		logger.Recovery(log),
		logger.GinMiddleware(log),
		middleware.Secure(),
		httpMetrics,
	)
	if profiler.IsEnabled() {
		engine.Use(middleware.Profiling("/health"))
	}
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	systemHandler := handler.NewSystemHandler(cfg.App.Name, version, map[string]handler.Pinger{
		"database": db,
	})
	engine.GET("/health", systemHandler.Health)

	syncRoutes := router.InventorySyncRoutes(handler.NewInventorySyncHandler(syncService))
	apiBase := router.NewRouter(engine).Register(syncRoutes).Setup()
	log.Info("API routes registered", zap.String("base", apiBase), zap.Strings("routes", syncRoutes.Paths()))

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// runMigrations applies the migrations embedded in the binary
func runMigrations(db *persistence.Database, log *zap.Logger) error {
	sqlDB, err := db.SQLDB()
	if err != nil {
		return err
	}
	m, err := migration.New(sqlDB, "", log)
	if err != nil {
		return err
	}
	// Closing the migrator would close the shared connection pool
	return m.Up()
}

// newPublisher returns the AMQP publisher when messaging is enabled.
// Without a broker, events are only logged.
func newPublisher(cfg config.MessagingConfig, log *zap.Logger) (integration.SyncEventPublisher, func()) {
	if !cfg.Enabled {
		return messaging.NewNopPublisher(log), func() {}
	}

	conn, err := messaging.Connect(cfg.URL)
	if err != nil {
		log.Fatal("Failed to connect to message broker", zap.Error(err))
	}
	publisher, err := messaging.NewAMQPPublisher(conn, cfg.ExchangePrefix, log)
	if err != nil {
		_ = conn.Close()
		log.Fatal("Failed to create event publisher", zap.Error(err))
	}
	log.Info("Publishing sync events to AMQP", zap.String("exchange_prefix", cfg.ExchangePrefix))

	return publisher, func() {
		if err := conn.Close(); err != nil {
			log.Error("Error closing message broker connection", zap.Error(err))
		}
	}
}

// startScheduler starts the worker pool and the interval trigger feeding it.
// The returned function stops both.
func startScheduler(
	ctx context.Context,
	cfg config.SchedulerConfig,
	syncer scheduler.InventorySyncer,
	channels scheduler.SalesChannelLister,
	log *zap.Logger,
) func() {
	schedulerConfig := scheduler.DefaultConfig()
	schedulerConfig.MaxConcurrentJobs = cfg.MaxConcurrentJobs
	schedulerConfig.JobTimeout = cfg.JobTimeout
	schedulerConfig.RetryAttempts = cfg.RetryAttempts
	schedulerConfig.RetryDelay = cfg.RetryDelay

	syncScheduler, err := scheduler.NewInventorySyncScheduler(schedulerConfig, scheduler.NewServiceExecutor(syncer, log), log)
	if err != nil {
		log.Fatal("Failed to create inventory sync scheduler", zap.Error(err))
	}
	if err := syncScheduler.Start(ctx); err != nil {
		log.Fatal("Failed to start inventory sync scheduler", zap.Error(err))
	}

	trigger := scheduler.NewIntervalTrigger(cfg.Interval, syncScheduler, channels, log)
	if err := trigger.Start(ctx); err != nil {
		log.Fatal("Failed to start inventory sync trigger", zap.Error(err))
	}
	log.Info("Inventory sync scheduler started",
		zap.Duration("interval", cfg.Interval),
		zap.Int("max_concurrent_jobs", schedulerConfig.MaxConcurrentJobs),
		zap.Duration("job_timeout", schedulerConfig.JobTimeout),
	)

	return func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := trigger.Stop(stopCtx); err != nil {
			log.Error("Error stopping inventory sync trigger", zap.Error(err))
		}
		if err := syncScheduler.Stop(stopCtx); err != nil {
			log.Error("Error stopping inventory sync scheduler", zap.Error(err))
		}
	}
}
