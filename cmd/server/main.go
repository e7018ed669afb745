package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appchannel "github.com/portal/backend/internal/application/channel"
	appengagement "github.com/portal/backend/internal/application/engagement"
	appidentity "github.com/portal/backend/internal/application/identity"
	"github.com/portal/backend/internal/infrastructure/auth"
	"github.com/portal/backend/internal/infrastructure/cache"
	"github.com/portal/backend/internal/infrastructure/config"
	"github.com/portal/backend/internal/infrastructure/erp"
	"github.com/portal/backend/internal/infrastructure/logger"
	"github.com/portal/backend/internal/infrastructure/mail"
	"github.com/portal/backend/internal/infrastructure/persistence"
	"github.com/portal/backend/internal/infrastructure/storage"
	"github.com/portal/backend/internal/infrastructure/telemetry"
	"github.com/portal/backend/internal/interfaces/http/handler"
	"github.com/portal/backend/internal/interfaces/http/middleware"
	"github.com/portal/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	_ "github.com/portal/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			Client Portal API
//	@version		1.0
//	@description	Backend-for-frontend over the consultancy ERP: sessions, engagements, billing, contracts, deliverables, and onboarding.

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

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
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting portal backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Telemetry (no-op provider when disabled)
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	meterProvider, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	defer func() {
		if err := meterProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	// Database connection with zap-backed GORM logging
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled: cfg.Telemetry.Enabled,
		DBName:  cfg.Database.DBName,
	}, log); err != nil {
		log.Warn("Failed to enable database tracing", zap.Error(err))
	}

	// Redis backs token revocation, magic links, rate limiting, and the
	// channel relay. Without it the in-memory fallbacks keep a single
	// instance working.
	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Warn("Redis unreachable, using in-memory fallbacks", zap.Error(err))
		} else {
			redisClient = rdb
			log.Info("Redis connected successfully", zap.String("addr", cfg.Redis.Addr()))
		}
	}

	var (
		blacklist   auth.TokenBlacklist
		magicLinks  auth.MagicLinkStore
		rateLimiter cache.RateLimiter
		channels    cache.ChannelStore
	)
	if redisClient != nil {
		blacklist = auth.NewRedisTokenBlacklist(redisClient)
		magicLinks = auth.NewRedisMagicLinkStore(redisClient)
		rateLimiter = cache.NewRedisRateLimiter(redisClient)
		channels = cache.NewRedisChannelStore(redisClient, cfg.Channel.Retention, cfg.Channel.MaxMessages)
	} else {
		blacklist = auth.NewInMemoryTokenBlacklist()
		magicLinks = auth.NewInMemoryMagicLinkStore()
		rateLimiter = cache.NewInMemoryRateLimiter()
		channels = cache.NewInMemoryChannelStore(cfg.Channel.Retention, cfg.Channel.MaxMessages)
	}

	// Upstream ERP client
	var erpClient erp.Client
	if cfg.ERP.MockMode() {
		erpClient = erp.NewMockClient()
		log.Warn("ERP base URL not set, using the built-in mock backend")
	} else {
		erpClient, err = erp.NewHTTPClient(cfg.ERP)
		if err != nil {
			log.Fatal("Failed to create ERP client", zap.Error(err))
		}
		log.Info("ERP client configured", zap.String("base_url", cfg.ERP.BaseURL))
	}
	prober := erp.NewWiringProber(erpClient, cfg.ERP.WiringCacheTTL)

	// Outbound mail
	mailer, err := mail.NewMailer(cfg.Mail, log)
	if err != nil {
		log.Fatal("Failed to create mailer", zap.Error(err))
	}

	// Deliverable archive storage
	var artifacts storage.ArtifactStore
	if cfg.Storage.Bucket != "" {
		artifacts, err = storage.NewS3ArtifactStore(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to create artifact store", zap.Error(err))
		}
		log.Info("Artifact store configured", zap.String("bucket", cfg.Storage.Bucket))
	} else {
		artifacts = storage.NewStubArtifactStore()
	}

	// Repositories
	userRepo := persistence.NewGormUserRepository(db.DB)
	inviteRepo := persistence.NewGormInviteRepository(db.DB)

	// Identity services
	jwtService := auth.NewJWTService(cfg.JWT)
	authConfig := appidentity.DefaultAuthServiceConfig()
	authConfig.MagicLinkTTL = cfg.Invite.MagicLinkTTL
	authConfig.BaseURL = cfg.App.BaseURL
	authService := appidentity.NewAuthService(userRepo, jwtService, blacklist, magicLinks, mailer, authConfig, log)
	inviteService := appidentity.NewInviteService(inviteRepo, userRepo, mailer, appidentity.InviteServiceConfig{
		TTL:     cfg.Invite.TTL,
		BaseURL: cfg.App.BaseURL,
	}, log)
	userService := appidentity.NewUserService(userRepo, log)

	// Engagement services
	engagementService := appengagement.NewEngagementService(erpClient, prober, log)
	requestService := appengagement.NewRequestService(erpClient, log)
	billingService := appengagement.NewBillingService(erpClient, log)
	contractService := appengagement.NewContractService(erpClient, log)
	deliverableService := appengagement.NewDeliverableService(erpClient, artifacts, cfg.Storage.PresignExpiry, log)
	fileService := appengagement.NewFileService(erpClient, log)
	channelService := appchannel.NewChannelService(channels, cfg.Channel.Enabled, log)
	if cfg.Channel.Enabled {
		log.Warn("Secure-channel relay enabled; this is a development feature")
	}

	// HTTP handlers
	authHandler := handler.NewAuthHandler(authService, cfg.Cookie)
	inviteHandler := handler.NewInviteHandler(inviteService)
	opsHandler := handler.NewOpsHandler(userService, engagementService)
	engagementHandler := handler.NewEngagementHandler(engagementService)
	requestHandler := handler.NewRequestHandler(requestService)
	billingHandler := handler.NewBillingHandler(billingService)
	contractHandler := handler.NewContractHandler(contractService)
	deliverableHandler := handler.NewDeliverableHandler(deliverableService)
	fileHandler := handler.NewFileHandler(fileService)
	channelHandler := handler.NewChannelHandler(channelService)

	healthChecks := []handler.ComponentCheck{
		{Name: "database", Check: func(ctx context.Context) error { return db.Ping() }},
		{Name: "erp", Check: erpClient.Ping},
	}
	if redisClient != nil {
		healthChecks = append(healthChecks, handler.ComponentCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		})
	}
	systemHandler := handler.NewSystemHandler(cfg.App.Name, cfg.App.Env, healthChecks...)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Report validation errors with JSON field names
	middleware.SetupValidator()

	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware stack, outermost first
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	if cfg.Telemetry.Enabled {
		engine.Use(otelgin.Middleware(cfg.Telemetry.ServiceName))
	}
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: meterProvider,
		Enabled:       cfg.Telemetry.MetricsEnabled,
	}))

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		engine.Use(middleware.RateLimit(middleware.RateLimitConfig{
			Limiter: rateLimiter,
			Limit:   cfg.HTTP.RateLimitRequests,
			Window:  cfg.HTTP.RateLimitWindow,
		}))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", systemHandler.Health)

	if cfg.Swagger.Enabled {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Versioned API with session authentication
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	jwtConfig := middleware.DefaultJWTConfig(jwtService, cfg.Cookie.Name)
	jwtConfig.TokenBlacklist = blacklist
	jwtConfig.Logger = log
	r.Use(middleware.JWTAuthMiddleware(jwtConfig))

	// Credential endpoints carry a stricter per-IP budget
	var authLimit gin.HandlerFunc
	if cfg.HTTP.AuthRateLimitEnabled {
		authLimit = middleware.AuthRateLimit(rateLimiter, cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
	} else {
		authLimit = func(c *gin.Context) { c.Next() }
	}

	authRoutes := router.NewDomainGroup("auth", "/auth")
	authRoutes.POST("/login", authLimit, authHandler.Login)
	authRoutes.POST("/refresh", authHandler.Refresh)
	authRoutes.POST("/magic-link", authLimit, authHandler.RequestMagicLink)
	authRoutes.POST("/magic-link/redeem", authLimit, authHandler.RedeemMagicLink)
	authRoutes.POST("/logout", authHandler.Logout)
	authRoutes.GET("/me", authHandler.Me)
	authRoutes.PUT("/password", authHandler.ChangePassword)

	inviteRoutes := router.NewDomainGroup("invites", "/invites")
	inviteRoutes.POST("", middleware.RequireOperator(), inviteHandler.Create)
	inviteRoutes.GET("", middleware.RequireOperator(), inviteHandler.List)
	inviteRoutes.DELETE("/:id", middleware.RequireOperator(), inviteHandler.Revoke)
	// Public: the invitee has no session yet
	inviteRoutes.GET("/preview/:token", inviteHandler.Preview)
	inviteRoutes.POST("/accept", inviteHandler.Accept)

	engagementRoutes := router.NewDomainGroup("engagements", "/engagements")
	engagementRoutes.GET("", engagementHandler.List)

	scoped := engagementRoutes.Group("engagement", "/:id")
	scoped.Use(middleware.RequireEngagementAccess("id"))
	scoped.GET("", engagementHandler.Get)
	scoped.GET("/modules", engagementHandler.Modules)
	scoped.GET("/requests", requestHandler.List)
	scoped.POST("/requests", requestHandler.Create)
	scoped.GET("/requests/:requestId", requestHandler.Get)
	scoped.PUT("/requests/:requestId", requestHandler.Update)
	scoped.GET("/invoices", billingHandler.ListInvoices)
	scoped.GET("/invoices/:invoiceId", billingHandler.GetInvoice)
	scoped.GET("/settlement", billingHandler.Settlement)
	scoped.GET("/contracts", contractHandler.List)
	scoped.GET("/contracts/:contractId", contractHandler.Get)
	scoped.POST("/contracts/:contractId/sign", contractHandler.Sign)
	scoped.GET("/deliverables", deliverableHandler.List)
	scoped.GET("/deliverables/:deliverableId", deliverableHandler.Get)
	scoped.GET("/deliverables/:deliverableId/download", deliverableHandler.Download)
	scoped.GET("/files", fileHandler.List)
	scoped.POST("/files", fileHandler.Upload)
	scoped.GET("/channel/messages", channelHandler.List)
	scoped.POST("/channel/messages", channelHandler.Post)

	opsRoutes := router.NewDomainGroup("ops", "/ops")
	opsRoutes.Use(middleware.RequireOperator())
	opsRoutes.GET("/engagements", opsHandler.ListEngagements)
	opsRoutes.GET("/engagements/:id/modules", opsHandler.EngagementModules)
	opsRoutes.GET("/wiring", opsHandler.Wiring)
	opsRoutes.GET("/users", opsHandler.ListUsers)
	opsRoutes.GET("/users/:id", opsHandler.GetUser)
	opsRoutes.PUT("/users/:id/scope", opsHandler.UpdateScope)
	opsRoutes.POST("/users/:id/deactivate", opsHandler.DeactivateUser)
	opsRoutes.POST("/users/:id/reactivate", opsHandler.ReactivateUser)

	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)

	r.Register(authRoutes).
		Register(inviteRoutes).
		Register(engagementRoutes).
		Register(opsRoutes).
		Register(systemRoutes)

	r.Setup()

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
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error("Error closing Redis client", zap.Error(err))
		}
	}

	log.Info("Server exited gracefully")
}
