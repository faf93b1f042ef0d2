package api

import (
	"context"
	"fmt"
	"time"

	"recipe-scraper/internal/api/handlers/health"
	"recipe-scraper/internal/api/handlers/scrape"
	"recipe-scraper/internal/api/middleware"
	"recipe-scraper/internal/infrastructure/config"
	"recipe-scraper/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// multipart 表單標頭與邊界的額外空間
const multipartOverhead = 1 << 20

// Dependencies 路由需要的服務
type Dependencies struct {
	Social    scrape.Processor
	Article   scrape.Processor
	Images    scrape.ImageProcessor
	Validator scrape.ImageValidator
	Limiter   middleware.LimitStore
	Health    []health.Dependency
}

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, deps Dependencies) (*gin.Engine, error) {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	if deps.Social == nil || deps.Article == nil || deps.Images == nil || deps.Validator == nil {
		return nil, fmt.Errorf("scrape services are required")
	}
	if cfg.RateLimit.Enabled && deps.Limiter == nil {
		return nil, fmt.Errorf("rate limit enabled but no limit store configured")
	}

	// 設置 gin 模式
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(requestid.New())
	router.Use(middleware.Logger())

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", middleware.APIKeyHeader, "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	healthHandler := health.NewHandler(cfg, deps.Health...)
	router.GET("/", healthHandler.Root)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(common.ErrNotFound.Status, common.ErrNotFound.Response(false))
	})

	scrapeHandler := scrape.NewHandler(deps.Social, deps.Article, deps.Images, deps.Validator, cfg.App.Debug)

	group := router.Group("/scrape")
	group.Use(middleware.BodySizeLimit(cfg.Image.MaxSizeBytes + multipartOverhead))
	group.Use(middleware.APIKeyAuth(cfg.Auth.APIToken))
	if cfg.RateLimit.Enabled {
		group.Use(middleware.RateLimit(deps.Limiter))
	}
	group.Use(requestTimeout(cfg.Server.WriteTimeout))
	{
		group.POST("/social", scrapeHandler.HandleSocial)
		group.POST("/article", scrapeHandler.HandleArticle)
		group.POST("/image", scrapeHandler.HandleImage)
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("rate_limit_enabled", cfg.RateLimit.Enabled),
		zap.String("rate_limit_backend", cfg.RateLimit.Backend),
		zap.Int64("max_image_size", cfg.Image.MaxSizeBytes),
		zap.Duration("timeout", cfg.Server.WriteTimeout),
	)

	return router, nil
}

// requestTimeout 為抽取流程設定上限時間
func requestTimeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if timeout <= 0 {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if ctx.Err() == context.DeadlineExceeded {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", requestid.Get(c)),
				zap.Duration("timeout", timeout),
			)
		}
	}
}
