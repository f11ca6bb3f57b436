package router

import (
	"net/http"

	"walletledger/config"
	"walletledger/internal/handler"
	"walletledger/internal/ledger"
	"walletledger/internal/middleware"
	"walletledger/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Deps carries the router's collaborators. Limiter buckets authenticated wallet calls per owner;
// PublicLimiter buckets the websocket upgrade per client IP. Nil limiters are built from config.
type Deps struct {
	Ledger        *ledger.Service
	Hub           *ws.Hub
	Limiter       *middleware.KeyedRateLimiter
	PublicLimiter *middleware.KeyedRateLimiter
	Logger        *zap.Logger
}

func Setup(cfg *config.Config, deps Deps) (*gin.Engine, error) {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := handler.RegisterValidators(); err != nil {
		return nil, err
	}
	if deps.Limiter == nil {
		deps.Limiter = middleware.NewKeyedRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	}
	if deps.PublicLimiter == nil {
		deps.PublicLimiter = middleware.NewKeyedRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(deps.Logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	walletHandler := handler.NewWalletHandler(deps.Ledger, deps.Logger)
	webhookHandler := handler.NewWebhookHandler(deps.Ledger, deps.Logger)
	authMw := middleware.AuthRequired(&cfg.JWT)

	api := r.Group("/api/v1")
	{
		// Provider callbacks and the websocket authenticate on their own. Provider
		// retries are not throttled; a 429 would only cause more of them.
		api.POST("/wallet/paystack/webhook", webhookHandler.Paystack)
		api.GET("/wallet/ws", middleware.RateLimit(deps.PublicLimiter), ws.UpgradeWalletWS(&cfg.JWT, deps.Hub, deps.Logger))

		wallet := api.Group("/wallet")
		wallet.Use(authMw, middleware.RateLimit(deps.Limiter))
		{
			wallet.GET("", walletHandler.Wallet)
			wallet.GET("/balance", walletHandler.Balance)
			wallet.GET("/transactions", walletHandler.Transactions)
			wallet.POST("/deposit", walletHandler.Deposit)
			wallet.GET("/deposit/:reference/status", walletHandler.DepositStatus)
			wallet.POST("/transfer", walletHandler.Transfer)
		}
	}

	return r, nil
}
