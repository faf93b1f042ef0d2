package scraper

import "time"

// Comment 貼文留言
type Comment struct {
	Author   string `json:"author"`
	AuthorID string `json:"author_id"`
	Text     string `json:"text"`
}

// CarouselItem 輪播貼文的單一項目
type CarouselItem struct {
	IsVideo bool   `json:"is_video"`
	URL     string `json:"url"`
}

// ScrapedContent 抽取後端回傳的貼文中繼資料
type ScrapedContent struct {
	Title            string         `json:"title"`
	Description      string         `json:"description"`
	Platform         string         `json:"platform"`
	Uploader         string         `json:"uploader"`
	UploaderID       string         `json:"uploader_id"`
	Thumbnail        string         `json:"thumbnail"`
	Hashtags         []string       `json:"hashtags"`
	Comments         []Comment      `json:"comments"`
	PublisherComment string         `json:"publisher_comment"`
	IsVideo          bool           `json:"is_video"`
	IsCarousel       bool           `json:"is_carousel"`
	CarouselItems    []CarouselItem `json:"carousel_items"`
	// CaptionText 平台字幕，僅主要後端會填入
	CaptionText string `json:"caption_text,omitempty"`
}

// mergeFrom 以備援結果補齊空白欄位，其他欄位保持不變
func (c *ScrapedContent) mergeFrom(fallback *ScrapedContent) {
	if c.Description == "" && fallback.Description != "" {
		c.Description = fallback.Description
	}
	if c.PublisherComment == "" && fallback.PublisherComment != "" {
		c.PublisherComment = fallback.PublisherComment
	}
	if len(c.Hashtags) == 0 && len(fallback.Hashtags) > 0 {
		c.Hashtags = fallback.Hashtags
	}
}

// Item 文件中的單一媒體項目
type Item struct {
	Position   int     `json:"position"`
	IsVideo    bool    `json:"is_video"`
	Transcript *string `json:"transcript"`
	URL        string  `json:"url"`
}

// Document 送入 prompt 組裝的整合文件
type Document struct {
	URL              string    `json:"url"`
	Timestamp        time.Time `json:"timestamp"`
	Platform         string    `json:"platform"`
	IsCarousel       bool      `json:"is_carousel"`
	TotalItems       int       `json:"total_items"`
	PublisherName    string    `json:"publisher_name"`
	PublisherID      string    `json:"publisher_id"`
	Title            string    `json:"title"`
	Caption          string    `json:"caption"`
	PublisherComment string    `json:"publisher_comment"`
	Hashtags         []string  `json:"hashtags"`
	Thumbnail        string    `json:"thumbnail"`
	Items            []Item    `json:"items"`
	// IsVideo 輪播貼文時為 nil
	IsVideo    *bool  `json:"is_video"`
	Transcript string `json:"transcript"`
}
