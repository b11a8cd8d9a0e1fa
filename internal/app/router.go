package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"checkout/internal/handler"
	"checkout/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
// RedisClient and NewRelicApp are optional.
type RouterDeps struct {
	HealthHandler   *handler.HealthHandler
	PaymentHandler  *handler.PaymentHandler
	HistoryHandler  *handler.HistoryHandler
	CartHandler     *handler.CartHandler
	CustomerHandler *handler.CustomerHandler
	RateLimiter     *middleware.RateLimiter
	AllowedOrigins  []string
	RedisClient     redis.Cmdable
	NewRelicApp     *newrelic.Application
	Logger          *zap.Logger
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(middleware.Recovery(deps.Logger))
	router.Use(middleware.RequestLogger(deps.Logger))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORS(deps.AllowedOrigins))

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
		router.Use(middleware.NoticeErrors())
	}

	router.NoRoute(handler.NotFound)

	router.GET("/health", deps.HealthHandler.Health)

	// Gateway callbacks skip the /api rate limit and idempotency layers.
	router.POST("/callback", deps.PaymentHandler.Callback)

	api := router.Group("/api")
	if deps.RateLimiter != nil {
		api.Use(deps.RateLimiter.Middleware())
	}
	if deps.RedisClient != nil {
		api.Use(middleware.Idempotency(deps.RedisClient, deps.Logger))
	}
	{
		api.GET("/payment-channels", deps.PaymentHandler.PaymentChannels)
		api.POST("/create-transaction", deps.PaymentHandler.CreateTransaction)
		api.GET("/transaction-status/:reference", deps.PaymentHandler.TransactionStatus)

		api.GET("/payment-history", deps.HistoryHandler.CookieHistory)
		api.POST("/payment-history", deps.HistoryHandler.CustomerHistory)

		api.GET("/cart", deps.CartHandler.GetCart)
		api.POST("/cart", deps.CartHandler.UpdateCart)

		api.POST("/verify-user", deps.CustomerHandler.VerifyUser)
	}

	return router
}
