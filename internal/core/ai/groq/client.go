package groq

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"recipe-scraper/internal/core/image"
	"recipe-scraper/internal/core/recipe"
	"recipe-scraper/internal/infrastructure/config"
	"recipe-scraper/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// ErrNotConfigured 未設定 GROQ_API_KEY
var ErrNotConfigured = common.ErrAIServiceError.Wrap(errors.New("groq api key not configured"))

const (
	extractionSystemPrompt = "You are a professional recipe extraction AI. Extract recipes and return ONLY valid JSON. No markdown, no explanations."

	ocrPrompt = `Extract ALL text visible in this image. 

Instructions:
1. Transcribe every word, number, and text element exactly as shown
2. Maintain the original structure and formatting where possible
3. Include ingredient lists, measurements, instructions, titles, and any other text
4. If the image contains a recipe, extract all components (ingredients, steps, notes)
5. Return only the extracted text, no additional commentary
6. Preserve line breaks and section separations

Format the output clearly with proper line breaks between sections.`
)

// chatRequest OpenAI 相容的對話補全請求
type chatRequest struct {
	Model               string               `json:"model"`
	Messages            []common.ChatMessage `json:"messages"`
	Temperature         float64              `json:"temperature"`
	TopP                float64              `json:"top_p"`
	MaxTokens           int                  `json:"max_tokens,omitempty"`
	MaxCompletionTokens int                  `json:"max_completion_tokens,omitempty"`
	Stream              bool                 `json:"stream"`
}

// apiError API 錯誤格式
type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Client Groq API 客戶端，提供抽取、轉錄與 OCR
type Client struct {
	client *resty.Client
	cfg    config.GroqConfig
}

// NewClient 創建 Groq 客戶端
func NewClient(cfg config.GroqConfig) *Client {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetAuthToken(cfg.APIKey)

	if !cfg.Enabled() {
		common.LogWarn("GROQ_API_KEY not found, AI features disabled")
	}

	return &Client{client: client, cfg: cfg}
}

// Available 是否已設定 API Key
func (c *Client) Available() bool {
	return c.cfg.Enabled()
}

// ExtractRecipes 以 Llama 模型抽取食譜 JSON
func (c *Client) ExtractRecipes(ctx context.Context, prompt string) (*recipe.Result, error) {
	if !c.Available() {
		return nil, ErrNotConfigured
	}

	maxTokens := c.cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 8000
	}

	content, err := c.chat(ctx, "extract_recipes", &chatRequest{
		Model: c.cfg.LlamaModel,
		Messages: []common.ChatMessage{
			{Role: "system", Content: extractionSystemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.1,
		MaxTokens:   maxTokens,
		TopP:        0.95,
	})
	if err != nil {
		return nil, err
	}

	result, err := recipe.ParseResult(content)
	if err != nil {
		common.LogWarn("Recipe extraction failed", zap.Error(err), zap.Int("response_chars", len(content)))
		return nil, err
	}
	common.LogInfo("Recipe extraction successful", zap.Int("recipes", result.TotalRecipes))
	return result, nil
}

// ExtractText 以視覺模型辨識圖片文字
func (c *Client) ExtractText(ctx context.Context, img []byte) (string, error) {
	if !c.Available() {
		return "", ErrNotConfigured
	}

	format := image.DetectFormat(img)
	common.LogInfo("Starting OCR extraction", zap.Int("bytes", len(img)), zap.String("format", format))

	content, err := c.chat(ctx, "ocr", &chatRequest{
		Model: c.cfg.VisionModel,
		Messages: []common.ChatMessage{
			{
				Role: "user",
				Content: []common.Content{
					{Type: "image_url", ImageURL: &common.ImageURL{URL: image.DataURL(img)}},
					{Type: "text", Text: ocrPrompt},
				},
			},
		},
		Temperature:         1,
		MaxCompletionTokens: 2000,
		TopP:                1,
	})
	if err != nil {
		return "", err
	}

	text := strings.TrimSpace(content)
	common.LogInfo("OCR extraction successful", zap.Int("chars", len(text)))
	return text, nil
}

// TranscribeAudio 以 Whisper 轉錄音訊檔
func (c *Client) TranscribeAudio(ctx context.Context, path string) (string, error) {
	if !c.Available() {
		return "", ErrNotConfigured
	}

	common.LogInfo("Transcribing", zap.String("file", filepath.Base(path)))
	start := time.Now()

	var result struct {
		Text string `json:"text"`
	}
	resp, err := c.client.R().
		SetContext(ctx).
		SetFile("file", path).
		SetFormData(map[string]string{
			"model":           c.cfg.WhisperModel,
			"response_format": "verbose_json",
			"temperature":     "0",
		}).
		SetResult(&result).
		Post("/audio/transcriptions")
	if err != nil {
		common.LogAICall("transcribe", c.cfg.WhisperModel, time.Since(start), err)
		return "", fmt.Errorf("failed to send request to Groq: %w", err)
	}
	if resp.IsError() {
		err := responseError(resp)
		common.LogAICall("transcribe", c.cfg.WhisperModel, time.Since(start), err)
		return "", err
	}

	common.LogAICall("transcribe", c.cfg.WhisperModel, time.Since(start), nil)
	text := strings.TrimSpace(result.Text)
	common.LogInfo("Transcription complete", zap.Int("chars", len(text)))
	return text, nil
}

// chat 發送對話補全請求並回傳第一個選項的內容
func (c *Client) chat(ctx context.Context, operation string, req *chatRequest) (string, error) {
	start := time.Now()

	var result common.ChatCompletionResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&result).
		Post("/chat/completions")
	if err != nil {
		common.LogAICall(operation, req.Model, time.Since(start), err)
		return "", fmt.Errorf("failed to send request to Groq: %w", err)
	}
	if resp.IsError() {
		err := responseError(resp)
		common.LogAICall(operation, req.Model, time.Since(start), err)
		return "", err
	}

	common.LogAICall(operation, req.Model, time.Since(start), nil)
	common.LogDebug("Groq usage",
		zap.String("operation", operation),
		zap.Int("prompt_tokens", result.Usage.PromptTokens),
		zap.Int("completion_tokens", result.Usage.CompletionTokens),
	)

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no choices in Groq response")
	}
	return strings.TrimSpace(result.FirstContent()), nil
}

// responseError 以 AI_SERVICE_ERROR 包裝 API 錯誤
func responseError(resp *resty.Response) error {
	var apiErr apiError
	if err := common.ParseJSONBytes(resp.Body(), &apiErr); err == nil && apiErr.Error.Message != "" {
		return common.ErrAIServiceError.Wrap(fmt.Errorf("groq API returned status %d: %s", resp.StatusCode(), apiErr.Error.Message))
	}
	return common.ErrAIServiceError.Wrap(fmt.Errorf("groq API returned status %d: %s", resp.StatusCode(), sanitizeResponse(resp.Body())))
}

// sanitizeResponse 清理響應內容，移除圖片數據並限制長度
func sanitizeResponse(body []byte) string {
	s := string(body)
	if strings.Contains(s, "data:image/") || strings.Contains(s, ";base64,") {
		return "[IMAGE_DATA_REMOVED]"
	}
	if len(s) > 500 {
		return s[:500] + "..."
	}
	return s
}
