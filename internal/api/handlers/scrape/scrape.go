package scrape

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"recipe-scraper/internal/core/image"
	"recipe-scraper/internal/core/recipe"
	"recipe-scraper/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const msgExtracted = "Recipe extracted successfully"

// Processor 單一來源的食譜抽取流程
type Processor interface {
	Process(ctx context.Context, input string) *recipe.Result
}

// ImageProcessor 圖片食譜抽取流程
type ImageProcessor interface {
	Process(ctx context.Context, data []byte) *recipe.Result
}

// ImageValidator 上傳圖片驗證
type ImageValidator interface {
	Validate(data []byte) (*image.Info, error)
}

// Handler 抽取相關 API 處理器
type Handler struct {
	social    Processor
	article   Processor
	images    ImageProcessor
	validator ImageValidator
	debug     bool
}

// NewHandler 創建處理器
func NewHandler(social, article Processor, images ImageProcessor, validator ImageValidator, debug bool) *Handler {
	return &Handler{
		social:    social,
		article:   article,
		images:    images,
		validator: validator,
		debug:     debug,
	}
}

// SocialRequest 社群貼文抽取請求
type SocialRequest struct {
	URL string `json:"url" binding:"required"`
}

// ArticleRequest 文章抽取請求，url 可為網址或文章全文
type ArticleRequest struct {
	URL string `json:"url" binding:"required"`
}

// HandleSocial 處理 POST /scrape/social
func (h *Handler) HandleSocial(c *gin.Context) {
	var req SocialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, common.ErrInvalidRequest.Wrap(err))
		return
	}
	if err := validateURL(req.URL); err != nil {
		h.fail(c, common.ErrInvalidRequest.Wrap(err))
		return
	}

	common.LogInfo("開始處理社群貼文抽取請求",
		zap.String("request_id", requestid.Get(c)),
		zap.String("url", req.URL),
	)

	result := h.social.Process(c.Request.Context(), req.URL)
	h.respond(c, result, msgExtracted)
}

// HandleArticle 處理 POST /scrape/article
func (h *Handler) HandleArticle(c *gin.Context) {
	var req ArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, common.ErrInvalidRequest.Wrap(err))
		return
	}

	common.LogInfo("開始處理文章抽取請求",
		zap.String("request_id", requestid.Get(c)),
		zap.Int("input_chars", len(req.URL)),
	)

	result := h.article.Process(c.Request.Context(), req.URL)
	h.respond(c, result, msgExtracted)
}

// HandleImage 處理 POST /scrape/image（multipart 欄位 file）
func (h *Handler) HandleImage(c *gin.Context) {
	requestID := requestid.Get(c)

	header, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.fail(c, common.ErrEntityTooLarge.Wrap(err))
			return
		}
		h.fail(c, common.ErrInvalidRequest.Wrap(fmt.Errorf("missing file field: %w", err)))
		return
	}

	contentType := header.Header.Get("Content-Type")
	common.LogInfo("Image scraping request received",
		zap.String("request_id", requestID),
		zap.String("filename", header.Filename),
		zap.String("content_type", contentType),
	)

	if !image.AllowedContentType(contentType) {
		common.LogWarn("Invalid file type", zap.String("content_type", contentType))
		h.fail(c, common.ErrInvalidImageType)
		return
	}

	file, err := header.Open()
	if err != nil {
		h.fail(c, err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.fail(c, err)
		return
	}

	if _, err := h.validator.Validate(data); err != nil {
		switch {
		case errors.Is(err, image.ErrEmpty):
			h.fail(c, common.ErrEmptyImage)
		case errors.Is(err, image.ErrTooLarge):
			h.fail(c, common.ErrEntityTooLarge.Wrap(err))
		default:
			h.fail(c, common.ErrInvalidImageData.Wrap(err))
		}
		return
	}

	result := h.images.Process(c.Request.Context(), data)

	message := "No recipes found in image"
	if result.TotalRecipes > 0 {
		message = fmt.Sprintf("Successfully extracted %d recipe(s)", result.TotalRecipes)
	}
	common.LogInfo("Request complete",
		zap.String("request_id", requestID),
		zap.Int("recipes", result.TotalRecipes),
	)
	h.respond(c, result, message)
}

// respond 以 {success, data, message} 回傳；結果帶 error 時 success 為 false
func (h *Handler) respond(c *gin.Context, result *recipe.Result, message string) {
	if err := c.Request.Context().Err(); errors.Is(err, context.DeadlineExceeded) {
		h.fail(c, common.ErrGatewayTimeout.Wrap(err))
		return
	}
	if result == nil {
		result = recipe.EmptyResult()
	}

	resp := common.APIResponse{Success: true, Data: result, Message: message}
	if result.Error != "" {
		resp.Success = false
		resp.Message = result.Error
	}
	c.JSON(http.StatusOK, resp)
}

// fail 將錯誤對應為 CustomError 回傳，未知錯誤視為內部錯誤
func (h *Handler) fail(c *gin.Context, err error) {
	ce := common.AsCustomError(err)
	var maxErr *http.MaxBytesError
	if ce.Code == common.ErrCodeInternalError && errors.As(err, &maxErr) {
		ce = common.ErrEntityTooLarge.Wrap(err)
	}

	common.LogWarn("Request rejected",
		zap.String("request_id", requestid.Get(c)),
		zap.String("code", ce.Code),
		zap.Error(err),
	)
	c.AbortWithStatusJSON(ce.Status, ce.Response(h.debug))
}

func validateURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid url: %q", raw)
	}
	return nil
}
