package api

import (
	"context"
	"net/http"
	"time"

	"recipe-parser/internal/api/handlers/health"
	parseHandler "recipe-parser/internal/api/handlers/parse"
	"recipe-parser/internal/api/middleware"
	"recipe-parser/internal/core/backend"
	"recipe-parser/internal/core/cache"
	"recipe-parser/internal/core/escalate"
	"recipe-parser/internal/infrastructure/config"
	"recipe-parser/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// 超時設置：涵蓋最壞情況（雲端模型慢回）
	timeoutDuration = 120 * time.Second
	// 請求體大小限制 (2MB)：純文字 OCR 結果用不到更多
	maxBodySize = 2 << 20
)

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, cacheManager *cache.Manager) (*gin.Engine, error) {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 設置 gin 模式
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// 創建路由引擎
	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(requestid.New()) // 自動生成請求 ID

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// 請求體大小限制
	router.Use(middleware.BodySizeLimit(maxBodySize))

	// 限流
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}

	// 重複請求去重
	router.Use(middleware.Deduplication(cfg))

	common.LogInfo("Initializing parser backends",
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
		zap.Bool("local_llm_enabled", cfg.LocalLLM.Enabled),
		zap.Bool("cloud_llm_enabled", cfg.CloudLLM.Enabled),
		zap.Float64("confidence_threshold", cfg.Parser.ConfidenceThreshold),
	)

	// 升級鏈：成本由低到高
	backends := []backend.Backend{
		backend.NewHeuristicBackend(),
		backend.NewLocalLLMBackend(cfg),
		backend.NewCloudLLMBackend(cfg),
	}
	controller := escalate.NewController(cfg, backends, cacheManager)

	// 全局中間件：設置請求超時
	router.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if ctx.Err() == context.DeadlineExceeded {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", requestid.Get(c)),
				zap.Duration("timeout", timeoutDuration),
			)
			c.JSON(http.StatusGatewayTimeout, gin.H{
				"error": "Request timeout",
				"code":  common.ErrCodeRequestTimeout,
			})
			c.Abort()
		}
	})

	// 健康檢查路由
	healthHandler := health.NewHandler(cfg, controller, cacheManager)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)

	// API 路由組
	api := router.Group("/api/v1")
	{
		handler := parseHandler.NewHandler(controller)

		recipeGroup := api.Group("/recipe")
		{
			// OCR 文字解析
			recipeGroup.POST("/parse", handler.HandleParse)

			// 結構化食譜驗證
			recipeGroup.POST("/validate", handler.HandleValidate)

			// 後端可用性
			recipeGroup.GET("/backends", handler.HandleBackends)
		}
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
		zap.Duration("timeout", timeoutDuration),
		zap.Int64("max_body_size", maxBodySize),
	)

	return router, nil
}
