package article

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"recipe-scraper/internal/pkg/common"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/go-shiori/go-readability"
	"go.uber.org/zap"
)

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// Article 抓取後的文章內容
type Article struct {
	URL      string
	Title    string
	SiteName string
	Text     string
}

// Fetcher 下載文章並抽出可讀文字
type Fetcher struct {
	client *resty.Client
}

// NewFetcher 創建文章抓取器
func NewFetcher(timeout time.Duration) *Fetcher {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", browserUserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml")

	return &Fetcher{client: client}
}

// Fetch 下載網址並回傳文章
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Article, error) {
	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}

	common.LogInfo("Fetching article", zap.String("url", rawURL))
	resp, err := f.client.R().SetContext(ctx).Get(rawURL)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("status %d", resp.StatusCode())
	}

	art, err := Parse(resp.Body(), pageURL)
	if err != nil {
		return nil, err
	}
	common.LogInfo("Article extracted", zap.String("title", art.Title), zap.Int("chars", len(art.Text)))
	return art, nil
}

// Parse 從 HTML 抽出標題、網站名稱與正文
func Parse(html []byte, pageURL *url.URL) (*Article, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	art := &Article{SiteName: siteName(doc, pageURL)}
	if pageURL != nil {
		art.URL = pageURL.String()
	}

	// 先用 readability，失敗時退回整頁文字
	readable, err := readability.FromReader(bytes.NewReader(html), pageURL)
	if err == nil {
		art.Title = strings.TrimSpace(readable.Title)
		art.Text = strings.TrimSpace(readable.TextContent)
	} else {
		common.LogDebug("Readability failed, using page text", zap.Error(err))
	}

	if art.Title == "" {
		art.Title = fallbackTitle(doc)
	}
	if art.Text == "" {
		doc.Find("script, style, noscript").Remove()
		art.Text = collapseSpace(doc.Find("body").Text())
	}
	return art, nil
}

func fallbackTitle(doc *goquery.Document) string {
	if title, ok := doc.Find("meta[property='og:title']").Attr("content"); ok && strings.TrimSpace(title) != "" {
		return strings.TrimSpace(title)
	}
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	return strings.TrimSpace(doc.Find("h1").First().Text())
}

func siteName(doc *goquery.Document, pageURL *url.URL) string {
	if name, ok := doc.Find("meta[property='og:site_name']").Attr("content"); ok && strings.TrimSpace(name) != "" {
		return strings.TrimSpace(name)
	}
	if pageURL != nil {
		return strings.TrimPrefix(pageURL.Hostname(), "www.")
	}
	return ""
}

func collapseSpace(s string) string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
