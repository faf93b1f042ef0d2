package scraper

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"recipe-scraper/internal/core/platform"
	"recipe-scraper/internal/pkg/common"

	"go.uber.org/zap"
)

type ytdlpComment struct {
	Author   string `json:"author"`
	AuthorID string `json:"author_id"`
	Text     string `json:"text"`
}

type ytdlpInfo struct {
	Type              string         `json:"_type"`
	Extractor         string         `json:"extractor"`
	Title             string         `json:"title"`
	Description       string         `json:"description"`
	Uploader          string         `json:"uploader"`
	Channel           string         `json:"channel"`
	UploaderID        string         `json:"uploader_id"`
	ChannelID         string         `json:"channel_id"`
	Thumbnail         string         `json:"thumbnail"`
	URL               string         `json:"url"`
	WebpageURL        string         `json:"webpage_url"`
	VCodec            string         `json:"vcodec"`
	Hashtags          []string       `json:"hashtags"`
	Comments          []ytdlpComment `json:"comments"`
	Subtitles         SubtitleTracks `json:"subtitles"`
	AutomaticCaptions SubtitleTracks `json:"automatic_captions"`
	Entries           []*ytdlpInfo   `json:"entries"`
}

// isVideo 沒有回報 vcodec 時視為影片
func (i *ytdlpInfo) isVideo() bool {
	return i.VCodec != "none"
}

// Captioner 字幕抽取
type Captioner interface {
	Extract(ctx context.Context, manual, automatic SubtitleTracks) (string, bool)
}

// VideoScraper 主要抽取後端，透過 yt-dlp 取得中繼資料
type VideoScraper struct {
	runner      Runner
	captions    Captioner
	maxComments int
}

// NewVideoScraper 創建主要抽取後端
func NewVideoScraper(runner Runner, captions Captioner, maxComments int) *VideoScraper {
	return &VideoScraper{runner: runner, captions: captions, maxComments: maxComments}
}

// Scrape 取得貼文中繼資料（不下載媒體）
func (s *VideoScraper) Scrape(ctx context.Context, url string, extractComments bool) (*ScrapedContent, error) {
	args := []string{
		"--dump-single-json",
		"--skip-download",
		"--no-warnings",
		"--ignore-errors",
		"--write-subs",
		"--write-auto-subs",
		"--sub-langs", "all",
	}
	if extractComments {
		args = append(args, "--write-comments")
	}
	// 只有 Instagram 貼文會以多項目回傳；其他平台的 list= 分享連結只取單一影片
	if !IsInstagram(url) {
		args = append(args, "--no-playlist")
	}
	args = append(args, url)

	common.LogInfo("Extracting metadata with yt-dlp", zap.String("url", url))
	out, err := s.runner.Run(ctx, args...)
	if err != nil {
		return nil, err
	}

	out = bytes.TrimSpace(out)
	if len(out) == 0 || bytes.Equal(out, []byte("null")) {
		return nil, ErrNoMetadata
	}

	var info ytdlpInfo
	if err := common.ParseJSONBytes(out, &info); err != nil {
		return nil, fmt.Errorf("failed to parse yt-dlp output: %w", err)
	}

	target := &info
	if !IsInstagram(url) {
		target = singleVideo(target)
	}

	content := s.toContent(ctx, url, target)
	common.LogInfo("yt-dlp metadata extracted",
		zap.String("platform", content.Platform),
		zap.Int("comments", len(info.Comments)),
		zap.Bool("publisher_comment", content.PublisherComment != ""),
		zap.Bool("carousel", content.IsCarousel),
	)
	return content, nil
}

func (s *VideoScraper) toContent(ctx context.Context, url string, info *ytdlpInfo) *ScrapedContent {
	platformTag := strings.ToLower(info.Extractor)

	var captionText string
	if s.captions != nil && (strings.Contains(platformTag, platform.YouTube) || strings.Contains(strings.ToLower(url), "youtu.be")) {
		if text, ok := s.captions.Extract(ctx, info.Subtitles, info.AutomaticCaptions); ok {
			captionText = text
		}
	}

	// 掃描完整留言列表後才截斷
	publisherComment := findPublisherComment(info.Comments, info.UploaderID, info.ChannelID)

	comments := make([]Comment, 0, min(len(info.Comments), s.maxComments))
	for i, c := range info.Comments {
		if s.maxComments > 0 && i >= s.maxComments {
			break
		}
		comments = append(comments, Comment{Author: c.Author, AuthorID: c.AuthorID, Text: c.Text})
	}

	content := &ScrapedContent{
		Title:            info.Title,
		Description:      info.Description,
		Platform:         platformTag,
		Uploader:         firstNonEmpty(info.Uploader, info.Channel),
		UploaderID:       firstNonEmpty(info.UploaderID, info.ChannelID),
		Thumbnail:        info.Thumbnail,
		Hashtags:         info.Hashtags,
		Comments:         comments,
		PublisherComment: publisherComment,
		IsVideo:          info.isVideo(),
		CaptionText:      captionText,
	}

	// Instagram 多項目貼文視為輪播
	if info.Type == "playlist" && len(info.Entries) > 0 && IsInstagram(url) {
		content.IsCarousel = true
		for _, entry := range info.Entries {
			if entry == nil {
				continue
			}
			item := CarouselItem{IsVideo: entry.isVideo(), URL: firstNonEmpty(entry.URL, entry.Thumbnail)}
			content.CarouselItems = append(content.CarouselItems, item)
		}
		if content.Thumbnail == "" {
			content.Thumbnail = info.Entries[0].thumbnailOrEmpty()
		}
		if len(content.CarouselItems) == 0 {
			content.IsCarousel = false
		}
	}

	return content
}

// singleVideo 非輪播平台回傳播放清單時取第一個項目
func singleVideo(info *ytdlpInfo) *ytdlpInfo {
	if info.Type != "playlist" {
		return info
	}
	for _, entry := range info.Entries {
		if entry == nil {
			continue
		}
		if entry.Extractor == "" {
			entry.Extractor = info.Extractor
		}
		common.LogInfo("Playlist result reduced to first entry", zap.Int("entries", len(info.Entries)))
		return entry
	}
	return info
}

func (i *ytdlpInfo) thumbnailOrEmpty() string {
	if i == nil {
		return ""
	}
	return i.Thumbnail
}

// findPublisherComment 回傳第一則由上傳者（uploader_id 或 channel_id）留下的非空留言，找不到時回傳空字串
func findPublisherComment(comments []ytdlpComment, uploaderID, channelID string) string {
	common.LogDebug("Searching for publisher comment", zap.Int("comments", len(comments)))

	for idx, c := range comments {
		if c.AuthorID == "" || c.Text == "" {
			continue
		}
		if c.AuthorID == uploaderID || c.AuthorID == channelID {
			common.LogInfo("Publisher comment found", zap.Int("position", idx))
			return c.Text
		}
	}

	common.LogWarn("Publisher comment not found")
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
