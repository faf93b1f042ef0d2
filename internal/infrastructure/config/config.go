package config

import (
	"fmt"
	"strings"
	"time"

	"recipe-scraper/internal/pkg/common"

	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Groq      GroqConfig      `mapstructure:"groq"`
	Scraper   ScraperConfig   `mapstructure:"scraper"`
	Instagram InstagramConfig `mapstructure:"instagram"`
	Article   ArticleConfig   `mapstructure:"article"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Image     ImageConfig     `mapstructure:"image"`
	LogLevel  string          `mapstructure:"log_level"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// AuthConfig API Key 驗證設定
type AuthConfig struct {
	APIToken string `mapstructure:"api_token"`
}

// GroqConfig Groq（OpenAI 相容）API 設定
type GroqConfig struct {
	APIKey       string        `mapstructure:"api_key"`
	BaseURL      string        `mapstructure:"base_url"`
	WhisperModel string        `mapstructure:"whisper_model"`
	LlamaModel   string        `mapstructure:"llama_model"`
	VisionModel  string        `mapstructure:"vision_model"`
	MaxTokens    int           `mapstructure:"max_tokens"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// Enabled 是否有可用的 API Key
func (g GroqConfig) Enabled() bool {
	return strings.TrimSpace(g.APIKey) != ""
}

// ScraperConfig 社群貼文抽取設定
type ScraperConfig struct {
	YtDlpPath           string        `mapstructure:"ytdlp_path"`
	DownloadDir         string        `mapstructure:"download_dir"`
	MaxComments         int           `mapstructure:"max_comments"`
	MaxTranscriptLength int           `mapstructure:"max_transcript_length"`
	MaxOCRTextLength    int           `mapstructure:"max_ocr_text_length"`
	CaptionTimeout      time.Duration `mapstructure:"caption_timeout"`
	CommandTimeout      time.Duration `mapstructure:"command_timeout"`
	PreferredLanguages  []string      `mapstructure:"preferred_languages"`
}

// InstagramConfig Instagram 備援抽取設定
type InstagramConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	SessionID string        `mapstructure:"session_id"`
	DocID     string        `mapstructure:"doc_id"`
	UserAgent string        `mapstructure:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// ArticleConfig 文章網址抓取設定
type ArticleConfig struct {
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Requests  int           `mapstructure:"requests"`
	Window    time.Duration `mapstructure:"window"`
	Backend   string        `mapstructure:"backend"`
	RedisAddr string        `mapstructure:"redis_addr"`
}

// ImageConfig 圖片配置
type ImageConfig struct {
	MaxSizeBytes int64 `mapstructure:"max_size_bytes"`
}

// LoadConfig 載入設定（.env 由 main 先行載入，此處只讀取環境與選用設定檔）
func LoadConfig() (*Config, error) {
	return load(".")
}

func load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// 設定環境變數前綴
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 綁定環境變量
	_ = v.BindEnv("auth.api_token", "STATIC_API_TOKEN")
	_ = v.BindEnv("groq.api_key", "GROQ_API_KEY")
	_ = v.BindEnv("groq.llama_model", "LLAMA_MODEL")
	_ = v.BindEnv("groq.whisper_model", "WHISPER_MODEL")
	_ = v.BindEnv("groq.vision_model", "VISION_MODEL")
	_ = v.BindEnv("scraper.ytdlp_path", "YTDLP_PATH")
	_ = v.BindEnv("scraper.download_dir", "DOWNLOAD_DIR")
	_ = v.BindEnv("scraper.max_comments", "MAX_COMMENTS")
	_ = v.BindEnv("scraper.max_transcript_length", "MAX_TRANSCRIPT_LENGTH")
	_ = v.BindEnv("scraper.max_ocr_text_length", "MAX_OCR_TEXT_LENGTH")
	_ = v.BindEnv("scraper.preferred_languages", "PREFERRED_LANGUAGES")
	_ = v.BindEnv("instagram.enabled", "INSTAGRAM_ENABLED")
	_ = v.BindEnv("instagram.session_id", "INSTAGRAM_SESSION_ID")
	_ = v.BindEnv("rate_limit.enabled", "RATE_LIMIT_ENABLED")
	_ = v.BindEnv("rate_limit.requests", "RATE_LIMIT_REQUESTS")
	_ = v.BindEnv("rate_limit.window", "RATE_LIMIT_WINDOW")
	_ = v.BindEnv("rate_limit.backend", "RATE_LIMIT_BACKEND")
	_ = v.BindEnv("rate_limit.redis_addr", "REDIS_ADDR")
	_ = v.BindEnv("server.port", "PORT")
	_ = v.BindEnv("log_level", "LOG_LEVEL")

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(configPath)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// logger 尚未初始化，改用 fmt.Println
	fmt.Println("Loading configuration", "groq_api_key:", common.MaskSecret(v.GetString("groq.api_key")), "llama_model:", v.GetString("groq.llama_model"))

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 以逗號分隔的環境變數
	if langs := v.GetString("scraper.preferred_languages"); strings.Contains(langs, ",") {
		config.Scraper.PreferredLanguages = splitList(langs)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// setDefaults 設定預設值
func setDefaults(v *viper.Viper) {
	// 應用程式設定
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", true)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "recipe-scraper")

	// 伺服器設定（影片轉錄耗時較長）
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", "300s")
	v.SetDefault("server.write_timeout", "300s")
	v.SetDefault("server.idle_timeout", "120s")

	v.SetDefault("auth.api_token", "your-secret-token")

	// Groq 設定
	v.SetDefault("groq.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("groq.whisper_model", "whisper-large-v3-turbo")
	v.SetDefault("groq.llama_model", "llama-3.3-70b-versatile")
	v.SetDefault("groq.vision_model", "meta-llama/llama-4-scout-17b-16e-instruct")
	v.SetDefault("groq.max_tokens", 8000)
	v.SetDefault("groq.timeout", "120s")

	// 抽取設定
	v.SetDefault("scraper.ytdlp_path", "yt-dlp")
	v.SetDefault("scraper.download_dir", "downloads")
	v.SetDefault("scraper.max_comments", 50)
	v.SetDefault("scraper.max_transcript_length", 20000)
	v.SetDefault("scraper.max_ocr_text_length", 15000)
	v.SetDefault("scraper.caption_timeout", "8s")
	v.SetDefault("scraper.command_timeout", "180s")
	v.SetDefault("scraper.preferred_languages", []string{"en", "hi", "gu", "es", "fr", "de", "ja", "ko", "zh"})

	// Instagram 設定
	v.SetDefault("instagram.enabled", true)
	v.SetDefault("instagram.doc_id", "8845758582119845")
	v.SetDefault("instagram.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36")
	v.SetDefault("instagram.timeout", "20s")

	v.SetDefault("article.fetch_timeout", "20s")

	// 限流設定
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", "1h")
	v.SetDefault("rate_limit.backend", "memory")
	v.SetDefault("rate_limit.redis_addr", "localhost:6379")

	// 圖片設定
	v.SetDefault("image.max_size_bytes", 10*1024*1024) // 10MB

	v.SetDefault("log_level", "info")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	if config.Server.Port <= 0 {
		return fmt.Errorf("server port is required")
	}

	if config.Scraper.MaxComments <= 0 {
		return fmt.Errorf("invalid scraper max comments")
	}
	if config.Scraper.MaxTranscriptLength <= 0 {
		return fmt.Errorf("invalid scraper max transcript length")
	}
	if config.Scraper.MaxOCRTextLength <= 0 {
		return fmt.Errorf("invalid scraper max ocr text length")
	}
	if config.Scraper.CaptionTimeout <= 0 {
		return fmt.Errorf("invalid caption timeout")
	}
	if len(config.Scraper.PreferredLanguages) == 0 {
		return fmt.Errorf("preferred caption languages are required")
	}

	if config.RateLimit.Enabled {
		if config.RateLimit.Requests <= 0 {
			return fmt.Errorf("invalid rate limit requests")
		}
		if config.RateLimit.Window <= 0 {
			return fmt.Errorf("invalid rate limit window")
		}
		switch config.RateLimit.Backend {
		case "memory", "redis":
		default:
			return fmt.Errorf("unknown rate limit backend %q", config.RateLimit.Backend)
		}
	}

	if config.Image.MaxSizeBytes <= 0 {
		return fmt.Errorf("invalid image max size")
	}

	return nil
}
