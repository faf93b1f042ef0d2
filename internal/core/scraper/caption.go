package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"recipe-scraper/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// SubtitleFormat 字幕檔格式描述
type SubtitleFormat struct {
	Ext  string `json:"ext"`
	URL  string `json:"url"`
	Name string `json:"name,omitempty"`
}

// SubtitleTrack 單一語言的字幕軌
type SubtitleTrack struct {
	Language string
	Formats  []SubtitleFormat
}

// SubtitleTracks 依來源順序保存的字幕軌（語言代碼 -> 格式清單）
type SubtitleTracks []SubtitleTrack

// UnmarshalJSON 逐一讀取物件鍵值以保留來源順序
func (s *SubtitleTracks) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*s = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("subtitle tracks: expected object, got %v", tok)
	}

	var tracks SubtitleTracks
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		lang, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("subtitle tracks: unexpected key %v", keyTok)
		}
		var formats []SubtitleFormat
		if err := dec.Decode(&formats); err != nil {
			return fmt.Errorf("subtitle tracks %q: %w", lang, err)
		}
		tracks = append(tracks, SubtitleTrack{Language: lang, Formats: formats})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*s = tracks
	return nil
}

// captionFormat 唯一會嘗試下載的字幕格式
const captionFormat = "json3"

type captionPayload struct {
	Events []struct {
		Segs []struct {
			UTF8 string `json:"utf8"`
		} `json:"segs"`
	} `json:"events"`
}

// CaptionExtractor 從影片中繼資料挑選並下載字幕
type CaptionExtractor struct {
	client    *resty.Client
	languages []string
}

// NewCaptionExtractor 創建字幕抽取器，timeout 套用於每次下載
func NewCaptionExtractor(languages []string, timeout time.Duration) *CaptionExtractor {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", "Mozilla/5.0")

	return &CaptionExtractor{client: client, languages: languages}
}

// Extract 先嘗試手動字幕再嘗試自動字幕，找不到時回傳 false
func (e *CaptionExtractor) Extract(ctx context.Context, manual, automatic SubtitleTracks) (string, bool) {
	common.LogInfo("Extracting YouTube captions")

	if text, lang, ok := e.tryTracks(ctx, manual); ok {
		common.LogInfo("Extracted manual captions", zap.String("lang", lang), zap.Int("chars", len(text)))
		return text, true
	}
	if text, lang, ok := e.tryTracks(ctx, automatic); ok {
		common.LogInfo("Extracted auto captions", zap.String("lang", lang), zap.Int("chars", len(text)))
		return text, true
	}

	common.LogInfo("No captions found")
	return "", false
}

func (e *CaptionExtractor) tryTracks(ctx context.Context, tracks SubtitleTracks) (string, string, bool) {
	if len(tracks) == 0 {
		return "", "", false
	}

	// 偏好語言以前綴比對
	for _, pref := range e.languages {
		for _, track := range tracks {
			if !strings.HasPrefix(track.Language, pref) {
				continue
			}
			if text, ok := e.download(ctx, track.Formats); ok {
				return text, track.Language, true
			}
		}
	}

	// 任何可用語言
	for _, track := range tracks {
		if text, ok := e.download(ctx, track.Formats); ok {
			return text, track.Language, true
		}
	}
	return "", "", false
}

func (e *CaptionExtractor) download(ctx context.Context, formats []SubtitleFormat) (string, bool) {
	for _, f := range formats {
		if f.Ext != captionFormat || f.URL == "" {
			continue
		}

		var payload captionPayload
		resp, err := e.client.R().
			SetContext(ctx).
			SetResult(&payload).
			ForceContentType("application/json").
			Get(f.URL)
		if err != nil {
			common.LogDebug("Caption download failed", zap.Error(err))
			continue
		}
		if resp.IsError() {
			common.LogDebug("Caption download failed", zap.Int("status", resp.StatusCode()))
			continue
		}

		// 單一格式解析成功即回傳結果，不再嘗試其他格式
		return flattenCaption(&payload)
	}
	return "", false
}

func flattenCaption(payload *captionPayload) (string, bool) {
	var lines []string
	for _, event := range payload.Events {
		var sb strings.Builder
		for _, seg := range event.Segs {
			sb.WriteString(seg.UTF8)
		}
		if line := strings.TrimSpace(sb.String()); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return "", false
	}
	return strings.Join(lines, "\n"), true
}
