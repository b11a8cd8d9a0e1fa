package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"checkout/internal/app"
	"checkout/internal/config"
	"checkout/internal/cookie"
	"checkout/internal/handler"
	"checkout/internal/middleware"
	internalRedis "checkout/internal/redis"
	"checkout/internal/repository"
	"checkout/internal/repository/postgres"
	"checkout/internal/service"
	"checkout/internal/tripay"
)

func main() {
	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	// Load configuration.
	cfg := config.Load()

	logger, err := app.NewLogger(cfg.Env, cfg.Log)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			logger.Warn("failed to initialize New Relic", zap.Error(err))
		} else {
			logger.Info("New Relic enabled", zap.String("app", cfg.NewRelic.AppName))
		}
	}

	// The history store is optional; without it the cookie is the only history.
	var db *sql.DB
	if cfg.DatabaseEnabled() {
		db, err = app.NewDatabase(ctx, cfg.Database, nrApp)
		if err != nil {
			logger.Warn("database unavailable, continuing with cookie history only", zap.Error(err))
			db = nil
		} else {
			defer db.Close()
			logger.Info("connected to PostgreSQL", zap.String("host", cfg.Database.Host))
		}
	}

	var redisClient *redis.Client
	if cfg.RedisEnabled() {
		redisClient, err = app.NewRedisClient(ctx, cfg.Redis, nrApp)
		if err != nil {
			logger.Warn("redis unavailable, continuing without idempotency and callback locks", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
			logger.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr))
		}
	}

	if !cfg.Tripay.CanCreateTransactions() {
		logger.Warn("Tripay credentials are incomplete; payment endpoints will fail",
			zap.Bool("api_key", cfg.Tripay.APIKey != ""),
			zap.Bool("private_key", cfg.Tripay.PrivateKey != ""),
			zap.Bool("merchant_code", cfg.Tripay.MerchantCode != ""),
		)
	}

	// Wire dependencies.
	server := wireServer(db, redisClient, nrApp, cfg, logger)

	// Start server in goroutine.
	go func() {
		logger.Info("starting server",
			zap.String("port", cfg.Server.Port),
			zap.String("env", cfg.Env),
			zap.String("mode", cfg.Tripay.Mode),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	if nrApp != nil {
		nrApp.Shutdown(5 * time.Second)
	}

	logger.Info("server exited")
}

// wireServer wires all dependencies and returns the HTTP server.
// db and redisClient may be nil.
func wireServer(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config, logger *zap.Logger) *http.Server {
	var (
		historyRepo   repository.HistoryRepository
		customerRepo  repository.CustomerRepository
		locker        internalRedis.ReferenceLocker
		customerCache internalRedis.CustomerCache
		redisCmd      redis.Cmdable
	)
	if db != nil {
		historyRepo = postgres.NewHistoryRepository(db)
		customerRepo = postgres.NewCustomerRepository(db)
	}
	if redisClient != nil {
		locker = internalRedis.NewLockStore(redisClient)
		customerCache = internalRedis.NewCacheStore(redisClient)
		redisCmd = redisClient
	}

	// Outbound gateway calls show up as external segments of the request.
	httpClient := &http.Client{
		Timeout:   cfg.Tripay.Timeout,
		Transport: newrelic.NewRoundTripper(http.DefaultTransport),
	}
	gateway := tripay.NewClient(cfg.Tripay, logger, tripay.WithHTTPClient(httpClient))

	// Initialize services.
	paymentService := service.NewPaymentService(service.PaymentDeps{
		Gateway:    gateway,
		History:    historyRepo,
		Locker:     locker,
		SiteDomain: cfg.Site.Domain,
		Logger:     logger,
	})
	historyService := service.NewHistoryService(historyRepo)
	customerService := service.NewCustomerService(customerRepo, customerCache, logger)

	// Initialize handlers.
	cookies := cookie.NewStore(cfg.Site.Domain, cfg.IsProduction())
	expose := cfg.ExposeErrors()

	router := app.NewRouter(app.RouterDeps{
		HealthHandler:   handler.NewHealthHandler(cfg.Tripay.Mode),
		PaymentHandler:  handler.NewPaymentHandler(paymentService, cookies, logger, expose),
		HistoryHandler:  handler.NewHistoryHandler(historyService, cookies, logger, expose),
		CartHandler:     handler.NewCartHandler(cookies, logger, expose),
		CustomerHandler: handler.NewCustomerHandler(customerService, logger, expose),
		RateLimiter:     middleware.NewRateLimiter(cfg.RateLimit.Burst, cfg.RateLimit.Interval),
		AllowedOrigins:  cfg.Site.AllowedOrigins,
		RedisClient:     redisCmd,
		NewRelicApp:     nrApp,
		Logger:          logger,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
