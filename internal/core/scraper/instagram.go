package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"recipe-scraper/internal/core/platform"
	"recipe-scraper/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	defaultInstagramEndpoint = "https://www.instagram.com/graphql/query"
	instagramAppID           = "936619743392459"
)

var (
	shortcodePattern = regexp.MustCompile(`instagram\.com/(?:p|reel)/([A-Za-z0-9_-]+)`)
	hashtagPattern   = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)
)

// InstagramOptions Instagram 備援後端設定
type InstagramOptions struct {
	Enabled     bool
	Endpoint    string
	DocID       string
	SessionID   string
	UserAgent   string
	Timeout     time.Duration
	MaxComments int
}

// InstagramScraper 備援抽取後端，直接查詢 Instagram GraphQL
type InstagramScraper struct {
	client      *resty.Client
	endpoint    string
	enabled     bool
	docID       string
	maxComments int
}

// NewInstagramScraper 創建 Instagram 備援後端
func NewInstagramScraper(opts InstagramOptions) *InstagramScraper {
	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = defaultInstagramEndpoint
	}

	client := resty.New().
		SetTimeout(opts.Timeout).
		SetHeader("User-Agent", opts.UserAgent).
		SetHeader("X-IG-App-ID", instagramAppID).
		SetHeader("Accept", "application/json")

	if opts.SessionID != "" {
		client.SetHeader("Cookie", "sessionid="+opts.SessionID)
	}

	if !opts.Enabled {
		common.LogWarn("Instagram fallback disabled")
	}

	return &InstagramScraper{
		client:      client,
		endpoint:    endpoint,
		enabled:     opts.Enabled && opts.DocID != "",
		docID:       opts.DocID,
		maxComments: opts.MaxComments,
	}
}

// Available 是否可作為備援後端
func (s *InstagramScraper) Available() bool {
	return s != nil && s.enabled
}

type igUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type igTextEdges struct {
	Edges []struct {
		Node struct {
			Text string `json:"text"`
		} `json:"node"`
	} `json:"edges"`
}

type igCommentEdges struct {
	Edges []struct {
		Node struct {
			Text  string `json:"text"`
			Owner igUser `json:"owner"`
		} `json:"node"`
	} `json:"edges"`
}

type igMedia struct {
	Typename   string `json:"__typename"`
	Shortcode  string `json:"shortcode"`
	Title      string `json:"title"`
	IsVideo    bool   `json:"is_video"`
	VideoURL   string `json:"video_url"`
	DisplayURL string `json:"display_url"`
	Owner      igUser `json:"owner"`

	Caption        igTextEdges    `json:"edge_media_to_caption"`
	ParentComments igCommentEdges `json:"edge_media_to_parent_comment"`
	Comments       igCommentEdges `json:"edge_media_to_comment"`
	Children       struct {
		Edges []struct {
			Node igMedia `json:"node"`
		} `json:"edges"`
	} `json:"edge_sidecar_to_children"`
}

type igResponse struct {
	Data struct {
		XDTShortcodeMedia *igMedia `json:"xdt_shortcode_media"`
		ShortcodeMedia    *igMedia `json:"shortcode_media"`
	} `json:"data"`
	Status string `json:"status"`
}

// Scrape 取得 Instagram 貼文中繼資料
func (s *InstagramScraper) Scrape(ctx context.Context, url string) (*ScrapedContent, error) {
	if !s.Available() {
		return nil, ErrBackendUnavailable
	}

	shortcode := ExtractShortcode(url)
	if shortcode == "" {
		return nil, ErrNoShortcode
	}

	variables, err := json.Marshal(map[string]string{"shortcode": shortcode})
	if err != nil {
		return nil, err
	}

	common.LogInfo("Fetching Instagram post", zap.String("shortcode", shortcode))

	var result igResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"doc_id":    s.docID,
			"variables": string(variables),
		}).
		SetResult(&result).
		ForceContentType("application/json").
		Post(s.endpoint)
	if err != nil {
		return nil, fmt.Errorf("instagram request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("instagram returned status %d", resp.StatusCode())
	}

	media := result.Data.XDTShortcodeMedia
	if media == nil {
		media = result.Data.ShortcodeMedia
	}
	if media == nil {
		return nil, fmt.Errorf("instagram post %s not found", shortcode)
	}

	content := s.toContent(media)
	common.LogInfo("Instagram metadata extracted",
		zap.Bool("carousel", content.IsCarousel),
		zap.Bool("video", content.IsVideo),
		zap.Bool("publisher_comment", content.PublisherComment != ""),
		zap.Int("comments", len(content.Comments)),
	)
	return content, nil
}

func (s *InstagramScraper) toContent(media *igMedia) *ScrapedContent {
	var caption string
	if len(media.Caption.Edges) > 0 {
		caption = media.Caption.Edges[0].Node.Text
	}

	comments, publisherComment := s.extractComments(media)

	content := &ScrapedContent{
		Title:            media.Title,
		Description:      caption,
		Platform:         platform.Instagram,
		Uploader:         media.Owner.Username,
		UploaderID:       media.Owner.ID,
		Thumbnail:        media.DisplayURL,
		Hashtags:         ParseHashtags(caption),
		Comments:         comments,
		PublisherComment: publisherComment,
		IsVideo:          media.IsVideo,
	}

	if media.Typename == "GraphSidecar" || media.Typename == "XDTGraphSidecar" {
		for _, edge := range media.Children.Edges {
			node := edge.Node
			item := CarouselItem{IsVideo: node.IsVideo, URL: node.DisplayURL}
			if node.IsVideo {
				item.URL = node.VideoURL
			}
			content.CarouselItems = append(content.CarouselItems, item)
		}
		content.IsCarousel = len(content.CarouselItems) > 0
		common.LogInfo("Carousel items", zap.Int("count", len(content.CarouselItems)))
	}

	return content
}

// extractComments 在完整列表中尋找發布者留言，另外回傳截斷後的留言列表
func (s *InstagramScraper) extractComments(media *igMedia) ([]Comment, string) {
	edges := media.ParentComments.Edges
	if len(edges) == 0 {
		edges = media.Comments.Edges
	}

	all := make([]Comment, 0, len(edges))
	for _, edge := range edges {
		all = append(all, Comment{
			Author:   edge.Node.Owner.Username,
			AuthorID: edge.Node.Owner.ID,
			Text:     edge.Node.Text,
		})
	}

	publisherComment := findOwnerComment(all, media.Owner.Username)

	if s.maxComments > 0 && len(all) > s.maxComments {
		all = all[:s.maxComments]
	}
	return all, publisherComment
}

// findOwnerComment 回傳第一則由貼文擁有者留下的留言，找不到時回傳空字串
func findOwnerComment(comments []Comment, username string) string {
	if username == "" {
		return ""
	}
	for _, c := range comments {
		if c.Author == username {
			common.LogInfo("Publisher comment found", zap.Int("chars", len(c.Text)))
			return c.Text
		}
	}
	common.LogWarn("Publisher comment not found")
	return ""
}

// ExtractShortcode 從 /p/ 或 /reel/ 網址取出 shortcode
func ExtractShortcode(url string) string {
	m := shortcodePattern.FindStringSubmatch(url)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// ParseHashtags 依出現順序取出不重複的 hashtag（不含 #）
func ParseHashtags(text string) []string {
	var tags []string
	seen := make(map[string]bool)
	for _, m := range hashtagPattern.FindAllStringSubmatch(text, -1) {
		tag := m[1]
		if seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}
