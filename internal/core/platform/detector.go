package platform

import (
	"net/url"
	"strings"
)

// Unknown 無法辨識的平台
const Unknown = "unknown"

// 支援的平台標籤
const (
	YouTube   = "youtube"
	Instagram = "instagram"
	TikTok    = "tiktok"
	Facebook  = "facebook"
	Pinterest = "pinterest"
	Twitter   = "twitter"
)

// 依序比對，第一個命中的網域勝出
var domains = []struct {
	domain string
	tag    string
}{
	{"youtube.com", YouTube},
	{"youtu.be", YouTube},
	{"instagram.com", Instagram},
	{"tiktok.com", TikTok},
	{"facebook.com", Facebook},
	{"pinterest.com", Pinterest},
	{"fb.watch", Facebook},
	{"twitter.com", Twitter},
	{"x.com", Twitter},
}

// Detect 由網址網域判斷平台，無法判斷時回傳 Unknown
func Detect(rawURL string) string {
	parsed, err := url.Parse(strings.ToLower(strings.TrimSpace(rawURL)))
	if err != nil {
		return Unknown
	}
	host := strings.ReplaceAll(parsed.Host, "www.", "")
	if host == "" {
		return Unknown
	}

	for _, d := range domains {
		if strings.Contains(host, d.domain) {
			return d.tag
		}
	}
	return Unknown
}

// IsSupported 是否為支援的社群平台
func IsSupported(rawURL string) bool {
	return Detect(rawURL) != Unknown
}

// Supported 支援平台清單（去重，依表格順序）
func Supported() []string {
	seen := make(map[string]bool, len(domains))
	var tags []string
	for _, d := range domains {
		if !seen[d.tag] {
			seen[d.tag] = true
			tags = append(tags, d.tag)
		}
	}
	return tags
}
