package router

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/giftledger/internal/cache"
	"github.com/giftledger/internal/config"
	adminhandlers "github.com/giftledger/internal/http/handlers/admin"
	publichandlers "github.com/giftledger/internal/http/handlers/public"
	"github.com/giftledger/internal/logger"
	"github.com/giftledger/internal/metrics"
	"github.com/giftledger/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "gl"
	}
	redisClient := cache.Client()
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.LoginRateLimit.BlockSeconds,
	}
	adminLoginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.LoginRateLimit.BlockSeconds,
	}
	claimRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:claim", redisPrefix),
		WindowSeconds: cfg.Security.ClaimRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.ClaimRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.ClaimRateLimit.BlockSeconds,
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	var userAuth UserAuthenticator
	if c.UserAuthService != nil {
		userAuth = c.UserAuthService
	}
	var adminAuth AdminAuthenticator
	if c.AuthService != nil {
		adminAuth = c.AuthService
	}

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/gifts", publicHandler.ListGifts)
			public.GET("/gifts/:id", publicHandler.GetGift)
			public.GET("/gifts/:id/recent", publicHandler.RecentForGift)
			public.GET("/claims/:token", publicHandler.PreviewClaim)
			public.GET("/purchases/success/:success_id", publicHandler.GetPurchaseBySuccessID)
		}

		// 用户认证接口
		auth := apiV1.Group("/auth")
		{
			auth.POST("/telegram", RateLimitMiddleware(redisClient, loginRule, KeyByIP), publicHandler.TelegramLogin)
		}

		// 支付回调
		apiV1.POST("/webhooks/cryptopay/:token", publicHandler.CryptoPayWebhook)

		// 用户接口（需鉴权）
		user := apiV1.Group("")
		user.Use(UserAuthMiddleware(userAuth))
		{
			user.GET("/me", publicHandler.GetProfile)
			user.GET("/me/gifts/available", publicHandler.ListAvailableGifts)
			user.GET("/me/gifts/received", publicHandler.ListReceivedGifts)
			user.GET("/me/transactions", publicHandler.ListMyTransactions)
			user.POST("/purchases", publicHandler.CreatePurchase)
			user.POST("/purchases/:id/invoice", publicHandler.RetryInvoice)
			user.POST("/sends", publicHandler.CreateSend)
			user.POST("/sends/:id/cancel", publicHandler.CancelSend)
			user.POST("/claims", RateLimitMiddleware(redisClient, claimRule, KeyByTelegramID), publicHandler.Claim)
		}

		// 管理员接口
		admin := apiV1.Group("/admin")
		{
			// 登录接口（无需鉴权）
			admin.POST("/login", RateLimitMiddleware(redisClient, adminLoginRule, KeyByIPAndJSONField("username")), adminHandler.AdminLogin)

			// 需要鉴权的接口
			authorized := admin.Use(JWTAuthMiddleware(adminAuth))
			{
				authorized.GET("/me", adminHandler.GetAdminProfile)

				// 礼物定义
				authorized.GET("/gifts", adminHandler.ListGifts)
				authorized.POST("/gifts", adminHandler.CreateGift)
				authorized.PUT("/gifts/:id", adminHandler.UpdateGift)

				// 账本流水
				authorized.GET("/transactions", adminHandler.ListTransactions)
			}
		}
	}

	if cfg.Metrics.Enabled {
		r.GET(metricsPath(cfg.Metrics), gin.WrapH(metrics.Handler()))
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return r
}

func metricsPath(cfg config.MetricsConfig) string {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return "/metrics"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}
