package image

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"strings"

	_ "image/gif"  // 支援 GIF
	_ "image/jpeg" // 支援 JPEG
	_ "image/png"  // 支援 PNG

	_ "golang.org/x/image/bmp"  // 支援 BMP
	_ "golang.org/x/image/webp" // 支援 WebP

	"recipe-scraper/internal/pkg/common"

	"go.uber.org/zap"
)

var (
	// ErrEmpty 空白圖片
	ErrEmpty = errors.New("empty image")
	// ErrTooLarge 超過大小上限
	ErrTooLarge = errors.New("image too large")
)

// 上傳允許的 Content-Type
var allowedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
}

// Info 圖片基本資訊
type Info struct {
	Format string
	Width  int
	Height int
	Bytes  int
}

// Service 圖片驗證服務
type Service struct {
	maxSizeBytes int64
}

// NewService 創建新的圖片驗證服務
func NewService(maxSizeBytes int64) *Service {
	return &Service{maxSizeBytes: maxSizeBytes}
}

// AllowedContentType 檢查上傳的 Content-Type
func AllowedContentType(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return allowedContentTypes[ct]
}

// Validate 驗證大小並確認可解碼
func (s *Service) Validate(data []byte) (*Info, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}

	// 檢查文件大小
	if s.maxSizeBytes > 0 && int64(len(data)) > s.maxSizeBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d bytes", ErrTooLarge, len(data), s.maxSizeBytes)
	}

	// 只解析標頭，不解碼整張圖
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	// 檢查圖片格式
	if !isSupportedFormat(format) {
		return nil, fmt.Errorf("unsupported image format: %s", format)
	}

	common.LogDebug("Image validated",
		zap.String("format", format),
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
	)

	return &Info{Format: format, Width: cfg.Width, Height: cfg.Height, Bytes: len(data)}, nil
}

// isSupportedFormat 檢查圖片格式是否支援
func isSupportedFormat(format string) bool {
	supportedFormats := map[string]bool{
		"jpeg": true,
		"png":  true,
		"gif":  true,
		"webp": true,
		"bmp":  true,
	}
	return supportedFormats[format]
}

// DetectFormat 依檔頭 magic number 判斷格式，無法判斷時預設 jpeg
func DetectFormat(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8}):
		return "jpeg"
	case bytes.HasPrefix(data, []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}):
		return "png"
	case len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return "webp"
	case bytes.HasPrefix(data, []byte("BM")):
		return "bmp"
	case bytes.HasPrefix(data, []byte("GIF8")):
		return "gif"
	}
	common.LogWarn("Unknown image format, defaulting to jpeg")
	return "jpeg"
}

// DataURL 轉為 data:image/<format>;base64,... 格式
func DataURL(data []byte) string {
	return fmt.Sprintf("data:image/%s;base64,%s", DetectFormat(data), base64.StdEncoding.EncodeToString(data))
}
