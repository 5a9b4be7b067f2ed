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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/slotbook/backend/docs"
	billingapp "github.com/slotbook/backend/internal/application/billing"
	bookingapp "github.com/slotbook/backend/internal/application/booking"
	catalogapp "github.com/slotbook/backend/internal/application/catalog"
	identityapp "github.com/slotbook/backend/internal/application/identity"
	"github.com/slotbook/backend/internal/application/tenancy"
	"github.com/slotbook/backend/internal/infrastructure/auth"
	"github.com/slotbook/backend/internal/infrastructure/cache"
	"github.com/slotbook/backend/internal/infrastructure/config"
	"github.com/slotbook/backend/internal/infrastructure/logger"
	"github.com/slotbook/backend/internal/infrastructure/persistence"
	"github.com/slotbook/backend/internal/infrastructure/scheduler"
	"github.com/slotbook/backend/internal/infrastructure/storage"
	"github.com/slotbook/backend/internal/infrastructure/telemetry"
	"github.com/slotbook/backend/internal/interfaces/http/handler"
	"github.com/slotbook/backend/internal/interfaces/http/middleware"
	"github.com/slotbook/backend/internal/interfaces/http/router"
)

//	@title			Slotbook API
//	@version		1.0
//	@description	Multi-tenant booking backend: merchant pages, bookings, subscriptions and quotas.

//	@BasePath	/

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}
	telemetry.ServiceVersion = version

	logCfg := &logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		Service:    cfg.Telemetry.ServiceName,
		Version:    version,
	}

	// The bootstrap logger reports telemetry setup; the final logger tees into
	// the OTLP log pipeline when that is enabled.
	bootLog, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	logProvider, err := telemetry.NewLoggerProvider(startupCtx, cfg.Telemetry, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize log exporter", zap.Error(err))
	}
	log, err := logger.New(logCfg, logProvider.Core(logger.ParseLevel(cfg.Log.Level)))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Slotbook backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	tracerProvider, err := telemetry.NewTracerProvider(startupCtx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	profiler, err := telemetry.NewProfiler(cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize profiler", zap.Error(err))
	}
	if cfg.Telemetry.SpanProfilesEnabled && profiler.IsEnabled() {
		tracerProvider.EnableSpanProfiles()
	}
	meterProvider, err := telemetry.NewMeterProvider(startupCtx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}

	var businessMetrics *telemetry.BusinessMetrics
	if meterProvider.IsEnabled() {
		businessMetrics, err = telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
			Meter:  meterProvider.Meter(cfg.Telemetry.ServiceName),
			Logger: log,
		})
		if err != nil {
			log.Warn("Business metrics disabled", zap.Error(err))
		}
	}

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.GormLvl))
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := db.EnableMerchantScope(); err != nil {
		log.Fatal("Failed to register merchant scope", zap.Error(err))
	}
	dbTracing := telemetry.DefaultDBTracingConfig()
	dbTracing.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled
	dbTracing.DBName = cfg.Database.DBName
	if err := telemetry.RegisterDBTracing(db.DB, dbTracing, log); err != nil {
		log.Warn("Database tracing disabled", zap.Error(err))
	}
	log.Info("Database connected successfully")

	// Custom-domain cache
	var domainCache cache.DomainCache
	if cfg.Tenant.CacheEnabled {
		domainCache, err = cache.NewDomainCacheFactory(cfg.Redis, cache.WithLogger(log)).Create(startupCtx)
		if err != nil {
			log.Fatal("Failed to create domain cache", zap.Error(err))
		}
		defer func() {
			_ = domainCache.Close()
		}()
	}

	// Object storage for gallery uploads
	var objects catalogapp.ObjectStorage
	if cfg.Storage.Enabled {
		s3Storage, err := storage.NewS3ObjectStorage(&cfg.Storage,
			storage.WithLogger(log),
			storage.WithPresignExpiry(cfg.Storage.PresignExpiry),
		)
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		if err := s3Storage.EnsureBucket(startupCtx); err != nil {
			log.Warn("Could not verify storage bucket", zap.String("bucket", s3Storage.Bucket()), zap.Error(err))
		}
		objects = s3Storage
	} else {
		log.Warn("Object storage disabled, gallery uploads use a stub")
		objects = storage.NewStubObjectStorage()
	}

	// Repositories
	merchantRepo := persistence.NewGormMerchantRepository(db.DB)
	customerRepo := persistence.NewGormCustomerAccountRepository(db.DB)
	userTypeRepo := persistence.NewGormUserTypeRepository(db.DB)
	favoriteRepo := persistence.NewGormFavoriteRepository(db.DB)
	bookingRepo := persistence.NewGormBookingRepository(db.DB)
	tierRepo := persistence.NewGormTierRepository(db.DB)
	subscriptionRepo := persistence.NewGormSubscriptionRepository(db.DB)
	usageRepo := persistence.NewGormUsageSnapshotRepository(db.DB)
	resourceCounter := persistence.NewGormResourceCounter(db.DB)
	serviceRepo := persistence.NewGormServiceRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	galleryRepo := persistence.NewGormGalleryRepository(db.DB)

	// Auth
	jwtService := auth.NewJWTService(cfg.JWT)
	handleKey := []byte(cfg.Booking.HandleSecret)
	if len(handleKey) == 0 {
		handleKey, err = auth.DeriveHandleKey(cfg.JWT.Secret)
		if err != nil {
			log.Fatal("Failed to derive booking handle key", zap.Error(err))
		}
	}
	handleSigner := auth.NewHandleSigner(handleKey, cfg.Booking.HandleTTL)

	// Application services
	subscriptionService := billingapp.NewSubscriptionService(subscriptionRepo, tierRepo, merchantRepo, log)
	quotaService := billingapp.NewQuotaService(subscriptionService, resourceCounter, usageRepo, merchantRepo, log)
	merchantService := identityapp.NewMerchantService(merchantRepo, userTypeRepo, subscriptionService, domainCache, log)
	merchantService.SetPlatformDomains(cfg.App.MainDomains)
	customerService := identityapp.NewCustomerService(customerRepo, merchantRepo, userTypeRepo, favoriteRepo, log)
	accountRouter := identityapp.NewAccountRouter(merchantRepo, customerRepo, userTypeRepo, log)
	bookingService := bookingapp.NewService(bookingRepo, merchantRepo, customerRepo, handleSigner,
		bookingapp.Config{AllowRawIDLink: cfg.Booking.AllowRawIDLink}, log)
	catalogService := catalogapp.NewCatalogService(serviceRepo, productRepo, galleryRepo, quotaService, objects, log)
	resolver := tenancy.NewResolver(merchantRepo, domainCache, tenancy.Config{
		MainDomains:         cfg.App.MainDomains,
		PreviewDomainSuffix: cfg.App.PreviewDomainSuffix,
		LookupTimeout:       cfg.Tenant.LookupTimeout,
		CacheTTL:            cfg.Tenant.CacheTTL,
		NegativeCacheTTL:    cfg.Tenant.NegativeCacheTTL,
	}, log)

	if businessMetrics != nil {
		subscriptionService.SetBusinessMetrics(businessMetrics)
		quotaService.SetBusinessMetrics(businessMetrics)
		bookingService.SetBusinessMetrics(businessMetrics)
		resolver.SetBusinessMetrics(businessMetrics)
	}

	// Background usage reconciliation
	reconciler := scheduler.NewUsageReconciler(quotaService, log, scheduler.UsageReconcilerConfig{
		Enabled:  cfg.Usage.ReconcileEnabled,
		Interval: cfg.Usage.ReconcileInterval,
		Timeout:  cfg.Usage.ReconcileTimeout,
	})
	if err := reconciler.Start(context.Background()); err != nil {
		log.Fatal("Failed to start usage reconciler", zap.Error(err))
	}

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware order: request id, recovery, tracing, access log, profiling
	// labels, metrics, security headers, CORS, body limit, global rate limit.
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     tracerProvider.IsEnabled(),
	}))
	engine.Use(middleware.TracingAttributeInjector())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Profiling(profiler.IsEnabled()))
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: meterProvider,
		Enabled:       meterProvider.IsEnabled(),
	}))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		globalLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer globalLimiter.Stop()
		engine.Use(middleware.RateLimit(globalLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}
	bookingLimiter := middleware.NewRateLimiter(cfg.Booking.RateLimitRequests, cfg.Booking.RateLimitWindow)
	defer bookingLimiter.Stop()

	readiness := []handler.ReadinessCheck{{Name: "database", Check: db.Ping}}
	if pinger, ok := domainCache.(interface{ Ping(context.Context) error }); ok {
		readiness = append(readiness, handler.ReadinessCheck{Name: "cache", Check: pinger.Ping})
	}

	r := router.Build(engine, router.Handlers{
		System:        handler.NewSystemHandler(cfg.App.Name, version, readiness...),
		Accounts:      handler.NewAccountHandler(merchantService, customerService, accountRouter),
		Bookings:      handler.NewBookingHandler(bookingService),
		Subscriptions: handler.NewSubscriptionHandler(subscriptionService, quotaService).WithUsageTrigger(reconciler),
		Merchants:     handler.NewMerchantHandler(merchantService, catalogService),
		Favorites:     handler.NewFavoriteHandler(customerService),
		Public:        handler.NewPublicHandler(merchantService, catalogService),
	}, router.NewGuards(router.GuardDeps{
		Tokens:    jwtService,
		Merchants: merchantService,
		Customers: customerRepo,
		Limiter:   bookingLimiter,
		Logger:    log,
	}))
	// API docs live under the reserved /api prefix so tenant rewriting skips them
	engine.GET("/api/docs/*any",
		middleware.SwaggerProtection(middleware.SwaggerConfig{
			Enabled:     cfg.Swagger.Enabled,
			RequireAuth: cfg.Swagger.RequireAuth,
			AllowedIPs:  cfg.Swagger.AllowedIPs,
		}, middleware.JWTAuthMiddleware(jwtService, log)),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)
	log.Debug("Routes registered", zap.Int("count", len(r.Routes())))

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        middleware.TenantRewrite(resolver, engine),
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
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := reconciler.Stop(ctx); err != nil {
		log.Warn("Usage reconciler did not stop in time", zap.Error(err))
	}
	if err := meterProvider.Shutdown(ctx); err != nil {
		log.Warn("Meter provider shutdown failed", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(ctx); err != nil {
		log.Warn("Tracer provider shutdown failed", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Warn("Profiler shutdown failed", zap.Error(err))
	}
	if err := logProvider.Shutdown(ctx); err != nil {
		log.Warn("Log provider shutdown failed", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
