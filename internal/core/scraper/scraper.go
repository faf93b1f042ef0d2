package scraper

import (
	"context"
	"strings"
	"time"

	"recipe-scraper/internal/pkg/common"

	"go.uber.org/zap"
)

// MetadataBackend 主要抽取後端
type MetadataBackend interface {
	Scrape(ctx context.Context, url string, extractComments bool) (*ScrapedContent, error)
}

// FallbackBackend Instagram 備援後端
type FallbackBackend interface {
	Available() bool
	Scrape(ctx context.Context, url string) (*ScrapedContent, error)
}

// AudioAcquirer 音訊下載
type AudioAcquirer interface {
	Download(ctx context.Context, url string, itemIndex int) (string, error)
	Delete(path string)
}

// Transcriber 音訊轉文字
type Transcriber interface {
	TranscribeAudio(ctx context.Context, path string) (string, error)
}

// noCaption 沒有任何標題、描述與 hashtag 時的佔位文字
const noCaption = "No caption"

// Scraper 整合多個後端，產出送往 prompt 的文件
type Scraper struct {
	primary     MetadataBackend
	fallback    FallbackBackend
	audio       AudioAcquirer
	transcriber Transcriber
	now         func() time.Time
}

// New 創建抽取協調器，fallback 可為 nil
func New(primary MetadataBackend, fallback FallbackBackend, audio AudioAcquirer, transcriber Transcriber) *Scraper {
	return &Scraper{
		primary:     primary,
		fallback:    fallback,
		audio:       audio,
		transcriber: transcriber,
		now:         time.Now,
	}
}

// Collect 取得中繼資料、處理每個媒體項目並組成文件；只有全部後端失敗時回傳 ErrNoMetadata
func (s *Scraper) Collect(ctx context.Context, url string) (*Document, error) {
	common.LogInfo("Starting extraction", zap.String("url", url))

	baseURL, err := RemoveItemIndex(url)
	if err != nil {
		common.LogWarn("Failed to normalize url", zap.String("url", url), zap.Error(err))
		baseURL = url
	}

	common.LogStage(1, 4, "Extracting metadata")
	content := s.extractMetadata(ctx, baseURL)
	if content == nil {
		common.LogError("Metadata extraction failed", zap.String("url", baseURL))
		return nil, ErrNoMetadata
	}

	common.LogStage(2, 4, "Processing media", zap.Int("caption_chars", len(content.CaptionText)))
	var items []Item
	if content.IsCarousel {
		items = s.processCarousel(ctx, baseURL, content)
	} else {
		items = s.processSingle(ctx, baseURL, content)
	}

	common.LogStage(3, 4, "Compiling data")
	return s.buildDocument(baseURL, content, items), nil
}

func (s *Scraper) extractMetadata(ctx context.Context, url string) *ScrapedContent {
	content, err := s.primary.Scrape(ctx, url, true)
	if err != nil {
		common.LogWarn("Primary scraper failed", zap.String("url", url), zap.Error(err))
		content = nil
	}

	if IsInstagram(url) && s.fallback != nil && s.fallback.Available() && needsFallback(content) {
		reason := "missing caption/comment"
		if content == nil {
			reason = "primary scraper failed"
		}
		common.LogInfo("Trying Instagram fallback", zap.String("reason", reason))

		secondary, err := s.fallback.Scrape(ctx, url)
		if err != nil {
			common.LogWarn("Instagram fallback failed", zap.Error(err))
		} else if secondary != nil {
			if content == nil {
				return secondary
			}
			content.mergeFrom(secondary)
			return content
		}
	}

	if content != nil {
		common.LogInfo("Primary metadata ready", zap.Bool("publisher_comment", content.PublisherComment != ""))
	}
	return content
}

// needsFallback 影片即使沒有描述也不會因此觸發備援
func needsFallback(content *ScrapedContent) bool {
	return content == nil ||
		(content.Description == "" && !content.IsVideo) ||
		content.PublisherComment == ""
}

func (s *Scraper) processSingle(ctx context.Context, url string, content *ScrapedContent) []Item {
	common.LogInfo("Processing single item", zap.Bool("video", content.IsVideo))

	var transcript *string
	switch {
	case content.CaptionText != "":
		text := content.CaptionText
		transcript = &text
	case content.IsVideo:
		transcript = s.transcribe(ctx, url, 0)
	}

	return []Item{{
		Position:   1,
		IsVideo:    content.IsVideo,
		Transcript: transcript,
		URL:        content.Thumbnail,
	}}
}

func (s *Scraper) processCarousel(ctx context.Context, baseURL string, content *ScrapedContent) []Item {
	total := len(content.CarouselItems)
	common.LogInfo("Processing carousel", zap.Int("items", total))

	items := make([]Item, 0, total)
	for i, media := range content.CarouselItems {
		position := i + 1
		common.LogInfo("Processing carousel item", zap.Int("item", position), zap.Int("total", total))

		itemURL, err := AddItemIndex(baseURL, position)
		if err != nil {
			common.LogWarn("Failed to build item url", zap.Int("item", position), zap.Error(err))
			itemURL = baseURL
		}

		var transcript *string
		if media.IsVideo {
			transcript = s.transcribe(ctx, itemURL, position)
		}

		items = append(items, Item{
			Position:   position,
			IsVideo:    media.IsVideo,
			Transcript: transcript,
			URL:        itemURL,
		})
	}

	common.LogInfo("Carousel complete", zap.Int("items", len(items)))
	return items
}

// transcribe 下載 -> 轉錄 -> 刪除，取得檔案後一定會刪除
func (s *Scraper) transcribe(ctx context.Context, url string, itemIndex int) *string {
	if s.audio == nil || s.transcriber == nil {
		return nil
	}

	path, err := s.audio.Download(ctx, url, itemIndex)
	if err != nil {
		common.LogWarn("Audio download failed", zap.Int("item", itemIndex), zap.Error(err))
		return nil
	}
	defer s.audio.Delete(path)

	text, err := s.transcriber.TranscribeAudio(ctx, path)
	if err != nil {
		common.LogWarn("Transcription failed", zap.Int("item", itemIndex), zap.Error(err))
		return nil
	}
	if text == "" {
		return nil
	}
	return &text
}

func (s *Scraper) buildDocument(url string, content *ScrapedContent, items []Item) *Document {
	var captionParts []string
	if content.Title != "" {
		captionParts = append(captionParts, content.Title)
	}
	if content.Description != "" && content.Description != content.Title {
		captionParts = append(captionParts, content.Description)
	}
	if len(content.Hashtags) > 0 {
		tags := make([]string, len(content.Hashtags))
		for i, tag := range content.Hashtags {
			tags[i] = "#" + tag
		}
		captionParts = append(captionParts, strings.Join(tags, " "))
	}
	caption := strings.Join(captionParts, "\n\n")
	if caption == "" {
		caption = noCaption
	}

	var transcripts []string
	for _, item := range items {
		if item.Transcript != nil && *item.Transcript != "" {
			transcripts = append(transcripts, *item.Transcript)
		}
	}
	transcript := strings.Join(transcripts, "\n\n")

	doc := &Document{
		URL:              url,
		Timestamp:        s.now(),
		Platform:         content.Platform,
		IsCarousel:       content.IsCarousel,
		TotalItems:       len(items),
		PublisherName:    content.Uploader,
		PublisherID:      content.UploaderID,
		Title:            content.Title,
		Caption:          caption,
		PublisherComment: content.PublisherComment,
		Hashtags:         content.Hashtags,
		Thumbnail:        content.Thumbnail,
		Items:            items,
		Transcript:       transcript,
	}
	if !content.IsCarousel {
		isVideo := content.IsVideo
		doc.IsVideo = &isVideo
	}

	common.LogInfo("Data compiled", zap.Int("caption_chars", len(caption)), zap.Int("transcript_chars", len(transcript)))
	return doc
}
