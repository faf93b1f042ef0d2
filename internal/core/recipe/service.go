package recipe

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"recipe-scraper/internal/core/article"
	"recipe-scraper/internal/core/platform"
	"recipe-scraper/internal/core/scraper"
	"recipe-scraper/internal/pkg/common"

	"go.uber.org/zap"
)

const (
	msgEmptyText       = "Empty text provided"
	msgNoTextInImage   = "No text found in image"
	msgNoRecipesImage  = "No recipes found in image"
	msgMetadataFailed  = "Failed to extract metadata"
	ocrTruncatedMarker = "\n\n[Text truncated]"
)

// RecipeExtractor 將 prompt 轉為結構化食譜
type RecipeExtractor interface {
	ExtractRecipes(ctx context.Context, prompt string) (*Result, error)
}

// TextRecognizer 圖片文字辨識
type TextRecognizer interface {
	ExtractText(ctx context.Context, image []byte) (string, error)
}

// Collector 社群貼文抽取
type Collector interface {
	Collect(ctx context.Context, url string) (*scraper.Document, error)
}

// ArticleFetcher 文章網址抓取
type ArticleFetcher interface {
	Fetch(ctx context.Context, url string) (*article.Article, error)
}

// extract 呼叫模型，失敗或沒有結果時回傳 nil
func extract(ctx context.Context, extractor RecipeExtractor, prompt string) *Result {
	common.LogInfo("Extracting recipes", zap.Int("prompt_chars", len(prompt)))
	result, err := extractor.ExtractRecipes(ctx, prompt)
	if err != nil {
		common.LogWarn("Recipe extraction failed", zap.Error(err))
		return nil
	}
	return result
}

// SocialService 社群貼文食譜抽取
type SocialService struct {
	scraper   Collector
	extractor RecipeExtractor
	prompts   *PromptBuilder
}

// NewSocialService 創建社群貼文服務
func NewSocialService(collector Collector, extractor RecipeExtractor, prompts *PromptBuilder) *SocialService {
	return &SocialService{scraper: collector, extractor: extractor, prompts: prompts}
}

// Process 偵測平台、收集貼文內容並抽取食譜
func (s *SocialService) Process(ctx context.Context, rawURL string) *Result {
	tag := platform.Detect(rawURL)
	common.LogInfo("Processing social media URL", zap.String("url", rawURL), zap.String("platform", tag))

	if tag == platform.Unknown {
		common.LogWarn("Unsupported platform", zap.String("platform", tag))
		return ErrorResult(fmt.Sprintf("Platform '%s' is not supported", tag))
	}

	doc, err := s.scraper.Collect(ctx, rawURL)
	if err != nil {
		if errors.Is(err, scraper.ErrNoMetadata) {
			return ErrorResult(msgMetadataFailed)
		}
		common.LogError("Error processing social media URL", zap.Error(err))
		return ErrorResult(err.Error())
	}

	common.LogStage(4, 4, "Extracting recipes")
	result := extract(ctx, s.extractor, s.prompts.Build(FromDocument(doc)))
	if result == nil {
		common.LogWarn("No recipes extracted")
		return EmptyResult()
	}

	common.LogInfo("Extraction complete", zap.Int("recipes", result.TotalRecipes))
	return result
}

// ArticleService 文章文字食譜抽取
type ArticleService struct {
	fetcher   ArticleFetcher
	extractor RecipeExtractor
	prompts   *PromptBuilder
}

// NewArticleService 創建文章服務，fetcher 為 nil 時網址視為一般文字
func NewArticleService(fetcher ArticleFetcher, extractor RecipeExtractor, prompts *PromptBuilder) *ArticleService {
	return &ArticleService{fetcher: fetcher, extractor: extractor, prompts: prompts}
}

// Process 接受文章網址或純文字
func (s *ArticleService) Process(ctx context.Context, input string) *Result {
	common.LogInfo("Processing article input", zap.Int("chars", len(input)))

	if strings.TrimSpace(input) == "" {
		common.LogWarn(msgEmptyText)
		return ErrorResult(msgEmptyText)
	}

	data := PromptData{
		Title:     "Article",
		Publisher: "Unknown",
		Platform:  "article",
		Caption:   input,
	}

	if s.fetcher != nil && isHTTPURL(input) {
		art, err := s.fetcher.Fetch(ctx, strings.TrimSpace(input))
		if err != nil {
			common.LogWarn("Article fetch failed", zap.Error(err))
			return ErrorResult("Failed to fetch article: " + err.Error())
		}
		if strings.TrimSpace(art.Text) == "" {
			return ErrorResult(msgEmptyText)
		}
		data.Caption = art.Text
		data.Title = orDefault(art.Title, data.Title)
		data.Publisher = orDefault(art.SiteName, data.Publisher)
	}

	result := extract(ctx, s.extractor, s.prompts.Build(data))
	if result == nil {
		common.LogWarn("No recipes extracted from article")
		return EmptyResult()
	}
	return result
}

func isHTTPURL(input string) bool {
	trimmed := strings.TrimSpace(input)
	if strings.ContainsAny(trimmed, " \n\t") {
		return false
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// ImageService 圖片食譜抽取
type ImageService struct {
	ocr        TextRecognizer
	extractor  RecipeExtractor
	prompts    *PromptBuilder
	maxOCRText int
}

// NewImageService 創建圖片服務
func NewImageService(ocr TextRecognizer, extractor RecipeExtractor, prompts *PromptBuilder, maxOCRText int) *ImageService {
	return &ImageService{ocr: ocr, extractor: extractor, prompts: prompts, maxOCRText: maxOCRText}
}

// Process OCR -> prompt -> 抽取；沒有文字時不呼叫模型
func (s *ImageService) Process(ctx context.Context, image []byte) *Result {
	common.LogInfo("Processing image", zap.Int("bytes", len(image)))

	common.LogStage(1, 3, "Starting OCR text extraction")
	text, err := s.ocr.ExtractText(ctx, image)
	if err != nil {
		common.LogWarn("OCR extraction failed", zap.Error(err))
		text = ""
	}
	if strings.TrimSpace(text) == "" {
		common.LogWarn("No text extracted from image")
		return ErrorResult(msgNoTextInImage)
	}

	text, truncated := common.Truncate(text, s.maxOCRText, ocrTruncatedMarker)
	if truncated {
		common.LogWarn("OCR text truncated", zap.Int("max_chars", s.maxOCRText))
	}

	common.LogStage(2, 3, "Building data structure for LLM")
	prompt := s.prompts.Build(PromptData{
		Title:     "Image Recipe",
		Publisher: "Unknown",
		Platform:  "image",
		Caption:   text,
	})

	common.LogStage(3, 3, "Extracting recipes with LLM")
	result := extract(ctx, s.extractor, prompt)
	if result == nil {
		common.LogWarn("No recipes extracted from image")
		return &Result{Recipes: []Recipe{}, Message: msgNoRecipesImage}
	}

	for i, r := range result.Recipes {
		common.LogInfo("Recipe extracted",
			zap.Int("index", i+1),
			zap.String("name", string(r.Name)),
			zap.Int("ingredients", len(r.Ingredients)),
			zap.Int("steps", len(r.Steps)),
		)
	}
	return result
}
