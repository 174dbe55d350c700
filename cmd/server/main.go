package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/smartqueue/backend/docs"
	appointmentapp "github.com/smartqueue/backend/internal/application/appointment"
	eventapp "github.com/smartqueue/backend/internal/application/event"
	identityapp "github.com/smartqueue/backend/internal/application/identity"
	notificationapp "github.com/smartqueue/backend/internal/application/notification"
	organizationapp "github.com/smartqueue/backend/internal/application/organization"
	paymentapp "github.com/smartqueue/backend/internal/application/payment"
	queueapp "github.com/smartqueue/backend/internal/application/queue"
	reportapp "github.com/smartqueue/backend/internal/application/report"
	"github.com/smartqueue/backend/internal/domain/shared"
	"github.com/smartqueue/backend/internal/infrastructure/auth"
	"github.com/smartqueue/backend/internal/infrastructure/cache"
	"github.com/smartqueue/backend/internal/infrastructure/config"
	"github.com/smartqueue/backend/internal/infrastructure/event"
	"github.com/smartqueue/backend/internal/infrastructure/logger"
	"github.com/smartqueue/backend/internal/infrastructure/migration"
	"github.com/smartqueue/backend/internal/infrastructure/notification"
	paymentgw "github.com/smartqueue/backend/internal/infrastructure/payment"
	"github.com/smartqueue/backend/internal/infrastructure/persistence"
	"github.com/smartqueue/backend/internal/infrastructure/printing"
	"github.com/smartqueue/backend/internal/infrastructure/scheduler"
	"github.com/smartqueue/backend/internal/infrastructure/storage"
	"github.com/smartqueue/backend/internal/infrastructure/telemetry"
	"github.com/smartqueue/backend/internal/interfaces/http/handler"
	"github.com/smartqueue/backend/internal/interfaces/http/middleware"
	"github.com/smartqueue/backend/internal/interfaces/http/router"
	"github.com/smartqueue/backend/migrations"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

//	@title			SmartQueue API
//	@version		1.0
//	@description	Queue, ticket, appointment and mobile money payment management for Senegalese service counters.

//	@contact.name	SmartQueue Support
//	@contact.email	support@smartqueue.sn

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	defer func() { _ = log.Sync() }()

	ctx := context.Background()

	providers, err := telemetry.Setup(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to start telemetry", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			log.Warn("Telemetry shutdown incomplete", zap.Error(err))
		}
	}()
	if providers.Logs.IsEnabled() {
		otelCore := telemetry.NewZapOTELCore(cfg.Telemetry.ServiceName, providers.Logs, logger.ParseLevel(cfg.Log.Level))
		log = log.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
			return zapcore.NewTee(core, otelCore)
		}))
	}

	log.Info("Starting SmartQueue",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.NewDBTracingPlugin(telemetry.DBTracing(cfg.Telemetry), log).RegisterOtelGorm(db.DB); err != nil {
		log.Warn("Database tracing not installed", zap.Error(err))
	}
	log.Info("Database connected successfully")
	if cfg.Database.MigrateOnStart {
		if err := migrate(db, log); err != nil {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	stores, err := cache.NewStores(ctx, cfg.Redis, cfg.IsProduction(), log)
	if err != nil {
		log.Fatal("Failed to initialize cache", zap.Error(err))
	}
	defer func() { _ = stores.Close() }()

	// Repositories
	tx := db.TxRunner()
	organizationRepo := persistence.NewGormOrganizationRepository(db.DB)
	serviceRepo := persistence.NewGormServiceRepository(db.DB)
	queueRepo := persistence.NewGormQueueRepository(db.DB)
	ticketRepo := persistence.NewGormTicketRepository(db.DB)
	appointmentRepo := persistence.NewGormAppointmentRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	notificationRepo := persistence.NewGormNotificationRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	outboxRepo := persistence.NewGormOutboxRepository(db.DB)

	// Events are stored in the outbox within the writing transaction and
	// replayed onto the bus by the processor
	serializer := event.NewEventSerializer()
	event.RegisterAllEvents(serializer)
	recorder := event.NewOutboxRecorder(outboxRepo, serializer, event.WithMaxRetries(cfg.Event.MaxRetries))
	bus := event.NewInMemoryEventBus(log)

	// Infrastructure adapters
	jwtService := auth.NewJWTService(cfg.JWT)
	blacklist := auth.NewTokenBlacklist(stores.Redis)

	gateways, err := paymentgw.NewRegistry(cfg.Payment, log)
	if err != nil {
		log.Fatal("Failed to configure payment providers", zap.Error(err))
	}

	var renderer printing.PDFRenderer
	if cfg.Printing.Enabled {
		renderer = printing.NewChromedpRenderer(printing.ChromedpConfig{
			ExecPath:  cfg.Printing.ChromePath,
			Timeout:   cfg.Printing.Timeout,
			NoSandbox: true,
		}, log)
	}
	slipPrinter := printing.NewSlipPrinter(renderer)
	defer func() { _ = slipPrinter.Close() }()

	smsSender := notification.NewLogSender(cfg.Notification, 0, log)

	// Application services
	queueDeps := queueapp.Dependencies{
		Tx:            tx,
		Organizations: organizationRepo,
		Services:      serviceRepo,
		Queues:        queueRepo,
		Tickets:       ticketRepo,
		Events:        recorder,
	}
	queueService := queueapp.NewQueueService(queueDeps, log)
	queueService.SetDefaults(queueapp.Defaults{
		MaxWaitTime:      cfg.Queue.DefaultMaxWait,
		TicketExpiryTime: cfg.Queue.DefaultExpiry,
		DashboardSize:    cfg.Queue.DashboardPreviewN,
	})
	ticketService := queueapp.NewTicketService(queueDeps, slipPrinter, log)
	ticketService.SetSweepBatch(cfg.Scheduler.SweepBatchSize)
	reportService := reportapp.NewReportService(organizationRepo, queueRepo, ticketRepo, log)
	if cfg.Storage.Enabled {
		objectStorage, err := storage.NewS3ObjectStorage(ctx, &cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to configure object storage", zap.Error(err))
		}
		if err := objectStorage.EnsureBucket(ctx); err != nil {
			log.Warn("Report archive bucket unavailable", zap.Error(err))
		}
		queueService.SetArchiver(reportapp.NewArchiver(reportService, objectStorage, log))
	}

	organizationService := organizationapp.NewOrganizationService(organizationRepo, serviceRepo, log)
	authService := identityapp.NewAuthService(userRepo, jwtService, blacklist, recorder, log)
	userService := identityapp.NewUserService(userRepo, organizationRepo, recorder, log)
	notificationService := notificationapp.NewNotificationService(notificationRepo, smsSender, log)
	appointmentService := appointmentapp.NewAppointmentService(appointmentapp.Dependencies{
		Tx:            tx,
		Organizations: organizationRepo,
		Services:      serviceRepo,
		Queues:        queueRepo,
		Appointments:  appointmentRepo,
		Events:        recorder,
	}, ticketService, log)
	paymentService := paymentapp.NewPaymentService(paymentapp.Dependencies{
		Tx:           tx,
		Payments:     paymentRepo,
		Tickets:      ticketRepo,
		Appointments: appointmentRepo,
		Events:       recorder,
		Idempotency:  stores.Idempotency,
		Gateways:     gateways,
	}, paymentapp.Options{
		CallbackBaseURL: cfg.Payment.CallbackBaseURL,
		Expiry:          cfg.Payment.Expiry,
		CallbackTTL:     cfg.Payment.CallbackTTL,
		SweepBatch:      cfg.Scheduler.SweepBatchSize,
	}, log)
	outboxService := eventapp.NewOutboxService(outboxRepo, log)

	// Event handlers
	paymentHandlerDeps := paymentapp.HandlerDependencies{
		Tx:            tx,
		Payments:      paymentRepo,
		Organizations: organizationRepo,
		Queues:        queueRepo,
		Tickets:       ticketService,
		Appointments:  appointmentService,
		Notifier:      notificationService,
	}
	subscribe := func(name string, h shared.EventHandler) {
		bus.Subscribe(event.NewIdempotentHandler(name, h, stores.Idempotency, log), h.EventTypes()...)
	}
	subscribe("ticket-notifications",
		notificationapp.NewTicketNotificationHandler(tx, queueRepo, ticketRepo, serviceRepo, notificationService, log))
	subscribe("appointment-notifications",
		notificationapp.NewAppointmentConfirmedHandler(organizationRepo, notificationService, log))
	subscribe("payment-completed", paymentapp.NewPaymentCompletedHandler(paymentHandlerDeps, log))
	subscribe("payment-failed", paymentapp.NewPaymentFailedHandler(paymentHandlerDeps, log))

	meter := providers.Meter.Meter(cfg.Telemetry.ServiceName)
	if providers.Meter.IsEnabled() {
		queueMetrics, err := telemetry.NewQueueMetrics(meter)
		if err != nil {
			log.Warn("Queue metrics disabled", zap.Error(err))
		} else {
			bus.Subscribe(queueMetrics, queueMetrics.EventTypes()...)
		}
	}

	// Background workers
	workers := scheduler.NewGroup(log, bus)
	if cfg.Event.ProcessorEnabled {
		workers.Add(event.NewOutboxProcessor(outboxRepo, bus, serializer, event.OutboxProcessorConfig{
			BatchSize:        cfg.Event.BatchSize,
			PollInterval:     cfg.Event.PollInterval,
			CleanupEnabled:   cfg.Event.CleanupEnabled,
			CleanupRetention: cfg.Event.CleanupRetention,
		}, log))
	}
	if cfg.Scheduler.Enabled {
		addSchedulerJobs(workers, cfg, log, ticketService, paymentService, queueService)
	}
	if err := workers.Start(ctx); err != nil {
		log.Fatal("Failed to start background workers", zap.Error(err))
	}

	// HTTP
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := middleware.SetupValidator(); err != nil {
		log.Fatal("Failed to set up request validation", zap.Error(err))
	}

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	security := middleware.DefaultSecurityConfig()
	security.HSTSEnabled = cfg.IsProduction()
	engine.Use(middleware.SecureWithConfig(security))
	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	cors.AllowMethods = cfg.HTTP.CORSAllowMethods
	cors.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	engine.Use(middleware.CORSWithConfig(cors))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	engine.Use(middleware.Tracing(cfg.Telemetry.ServiceName, cfg.Telemetry.Enabled))
	engine.Use(middleware.HTTPMetrics(meter, providers.Meter.IsEnabled()))
	engine.Use(middleware.Profiling(providers.Profiler.IsEnabled()))

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	paths, prefixes := router.PublicPaths(r.BasePath())
	jwtMiddleware := middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService:       jwtService,
		TokenBlacklist:   blacklist,
		SkipPaths:        paths,
		SkipPathPrefixes: prefixes,
		Logger:           log,
	})
	r.Use(jwtMiddleware, middleware.TracingAttributeInjector(), middleware.SpanErrorMarker())
	if cfg.HTTP.RateLimitEnabled {
		r.Use(middleware.RateLimit(cache.NewRateLimiter(stores.Redis, "smartqueue:ratelimit:api:", cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	handlers := router.Handlers{
		Auth:          handler.NewAuthHandler(authService),
		Users:         handler.NewUserHandler(userService),
		Organizations: handler.NewOrganizationHandler(organizationService),
		Services:      handler.NewServiceHandler(organizationService),
		Queues:        handler.NewQueueHandler(queueService, ticketService, reportService),
		Tickets:       handler.NewTicketHandler(ticketService),
		Appointments:  handler.NewAppointmentHandler(appointmentService),
		Payments:      handler.NewPaymentHandler(paymentService),
		Notifications: handler.NewNotificationHandler(notificationService),
		Outbox:        handler.NewOutboxHandler(outboxService),
		System:        handler.NewSystemHandler(version, healthChecks(db, stores)),
	}
	if cfg.HTTP.AuthRateLimitEnabled {
		handlers.AuthGuard = middleware.RateLimit(
			cache.NewRateLimiter(stores.Redis, "smartqueue:ratelimit:auth:", cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow))
	}
	router.Mount(engine, r, handlers)

	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(cfg.Swagger, jwtMiddleware),
		ginSwagger.WrapHandler(swaggerFiles.Handler))

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

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := workers.Stop(shutdownCtx); err != nil {
		log.Error("Background workers did not stop cleanly", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// addSchedulerJobs registers the expiry sweeps and the daily queue reset
func addSchedulerJobs(
	workers *scheduler.Group,
	cfg *config.Config,
	log *zap.Logger,
	tickets *queueapp.TicketService,
	payments *paymentapp.PaymentService,
	queues *queueapp.QueueService,
) {
	ticketSweep, err := scheduler.NewPeriodicJob("ticket-expiry", cfg.Scheduler.TicketSweepInterval,
		cfg.Scheduler.JobTimeout, scheduler.TaskFunc(tickets.ExpireOverdue), log)
	if err != nil {
		log.Fatal("Invalid ticket expiry job", zap.Error(err))
	}
	workers.Add(ticketSweep)

	paymentSweep, err := scheduler.NewPeriodicJob("payment-expiry", cfg.Scheduler.PaymentSweepInterval,
		cfg.Scheduler.JobTimeout, scheduler.TaskFunc(payments.ExpireStale), log)
	if err != nil {
		log.Fatal("Invalid payment expiry job", zap.Error(err))
	}
	workers.Add(paymentSweep)

	location, err := time.LoadLocation(cfg.Queue.Timezone)
	if err != nil {
		log.Fatal("Invalid queue timezone", zap.String("timezone", cfg.Queue.Timezone), zap.Error(err))
	}
	resetConfig := scheduler.DefaultDailyTriggerConfig()
	resetConfig.Hour = cfg.Queue.DailyResetHour
	resetConfig.Location = location
	resetConfig.Timeout = cfg.Scheduler.JobTimeout
	dailyReset, err := scheduler.NewDailyTrigger("daily-queue-reset", resetConfig, scheduler.TaskFunc(queues.ResetAll), log)
	if err != nil {
		log.Fatal("Invalid daily reset trigger", zap.Error(err))
	}
	workers.Add(dailyReset)
}

// healthChecks returns the dependencies reported by /health
// migrate applies the embedded migrations on the server's own pool
func migrate(db *persistence.Database, log *zap.Logger) error {
	sqlDB, err := db.SQL()
	if err != nil {
		return err
	}
	m, err := migration.NewFromFS(sqlDB, migrations.FS, log)
	if err != nil {
		return err
	}
	// no m.Close: it closes the pool the server keeps using
	return m.Up()
}

func healthChecks(db *persistence.Database, stores *cache.Stores) map[string]handler.Pinger {
	checks := map[string]handler.Pinger{"database": db}
	if stores.Redis != nil {
		checks["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return stores.Redis.Ping(ctx).Err()
		})
	}
	return checks
}
