package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"recipe-scraper/internal/api"
	"recipe-scraper/internal/api/handlers/health"
	"recipe-scraper/internal/api/middleware"
	"recipe-scraper/internal/core/ai/groq"
	"recipe-scraper/internal/core/article"
	"recipe-scraper/internal/core/image"
	"recipe-scraper/internal/core/platform"
	"recipe-scraper/internal/core/recipe"
	"recipe-scraper/internal/core/scraper"
	"recipe-scraper/internal/infrastructure/config"
	"recipe-scraper/internal/pkg/common"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// 載入 .env
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found")
	}

	// 載入設定
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("載入設定",
		zap.String("groq_api_key", common.MaskSecret(cfg.Groq.APIKey)),
		zap.String("llama_model", cfg.Groq.LlamaModel),
		zap.String("whisper_model", cfg.Groq.WhisperModel),
		zap.String("vision_model", cfg.Groq.VisionModel),
	)

	// AI 服務
	groqClient := groq.NewClient(cfg.Groq)

	// yt-dlp 與社群貼文抽取
	runner := scraper.NewExecRunner(cfg.Scraper.YtDlpPath, cfg.Scraper.CommandTimeout)
	if !runner.Available() {
		common.LogWarn("yt-dlp not found in PATH", zap.String("path", runner.Path))
	}

	captions := scraper.NewCaptionExtractor(cfg.Scraper.PreferredLanguages, cfg.Scraper.CaptionTimeout)
	videoScraper := scraper.NewVideoScraper(runner, captions, cfg.Scraper.MaxComments)
	instagram := scraper.NewInstagramScraper(scraper.InstagramOptions{
		Enabled:     cfg.Instagram.Enabled,
		DocID:       cfg.Instagram.DocID,
		SessionID:   cfg.Instagram.SessionID,
		UserAgent:   cfg.Instagram.UserAgent,
		Timeout:     cfg.Instagram.Timeout,
		MaxComments: cfg.Scraper.MaxComments,
	})

	audio, err := scraper.NewAudioHandler(runner, cfg.Scraper.DownloadDir)
	if err != nil {
		common.LogFatal("Failed to initialize audio handler", zap.Error(err))
	}

	collector := scraper.New(videoScraper, instagram, audio, groqClient)

	// 食譜抽取流程
	prompts := recipe.NewPromptBuilder(cfg.Scraper.MaxTranscriptLength)
	socialSvc := recipe.NewSocialService(collector, groqClient, prompts)
	articleSvc := recipe.NewArticleService(article.NewFetcher(cfg.Article.FetchTimeout), groqClient, prompts)
	imageSvc := recipe.NewImageService(groqClient, groqClient, prompts, cfg.Scraper.MaxOCRTextLength)

	// 限流儲存
	limiter, closeLimiter := newLimitStore(cfg)
	defer closeLimiter()

	// 設置路由
	router, err := api.SetupRouter(cfg, api.Dependencies{
		Social:    socialSvc,
		Article:   articleSvc,
		Images:    imageSvc,
		Validator: image.NewService(cfg.Image.MaxSizeBytes),
		Limiter:   limiter,
		Health: []health.Dependency{
			{Name: "yt-dlp", Checker: runner, Required: true},
			{Name: "groq", Checker: groqClient, Required: true},
			{Name: "instagram", Checker: instagram},
		},
	})
	if err != nil {
		common.LogError("Failed to setup router", zap.Error(err))
		os.Exit(1)
	}

	// 設置 HTTP 服務器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// 啟動服務器
	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Int("port", cfg.Server.Port),
			zap.Strings("platforms", platform.Supported()),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			common.LogError("Failed to start server",
				zap.Error(err),
			)
			os.Exit(1)
		}
	}()

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo("Shutting down server...")

	// 設置關閉超時
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		common.LogError("Server forced to shutdown",
			zap.Error(err),
		)
		os.Exit(1)
	}

	common.LogInfo("Server exited")
}

// newLimitStore 依設定建立限流儲存，redis 連線失敗時退回記憶體
func newLimitStore(cfg *config.Config) (middleware.LimitStore, func()) {
	noop := func() {}
	if !cfg.RateLimit.Enabled {
		return nil, noop
	}

	if cfg.RateLimit.Backend == "redis" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		store, err := middleware.NewRedisStore(ctx, cfg.RateLimit.RedisAddr, cfg.RateLimit.Requests, cfg.RateLimit.Window)
		if err == nil {
			common.LogInfo("Rate limit store ready", zap.String("backend", "redis"), zap.String("addr", cfg.RateLimit.RedisAddr))
			return store, func() { _ = store.Close() }
		}
		common.LogWarn("Redis unavailable, falling back to in-memory rate limit", zap.Error(err))
	}

	return middleware.NewMemoryStore(cfg.RateLimit.Requests, cfg.RateLimit.Window), noop
}
