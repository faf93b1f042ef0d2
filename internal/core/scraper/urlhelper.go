package scraper

import (
	"net/url"
	"strconv"
	"strings"
)

// itemIndexParam 輪播項目索引的查詢參數
const itemIndexParam = "img_index"

// AddItemIndex 設定（或覆寫）輪播項目索引參數，其他參數維持原順序
func AddItemIndex(rawURL string, index int) (string, error) {
	value := strconv.Itoa(index)
	return rewriteItemIndex(rawURL, &value)
}

// RemoveItemIndex 移除輪播項目索引參數
func RemoveItemIndex(rawURL string) (string, error) {
	return rewriteItemIndex(rawURL, nil)
}

// rewriteItemIndex 直接編輯 RawQuery；value 為 nil 時移除參數
func rewriteItemIndex(rawURL string, value *string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if _, err := url.ParseQuery(u.RawQuery); err != nil {
		return "", err
	}

	var pairs []string
	replaced := false
	for _, pair := range strings.Split(u.RawQuery, "&") {
		if pair == "" {
			continue
		}
		key, _, _ := strings.Cut(pair, "=")
		if k, err := url.QueryUnescape(key); err == nil && k == itemIndexParam {
			if value != nil && !replaced {
				pairs = append(pairs, itemIndexParam+"="+*value)
				replaced = true
			}
			continue
		}
		pairs = append(pairs, pair)
	}
	if value != nil && !replaced {
		pairs = append(pairs, itemIndexParam+"="+*value)
	}

	u.RawQuery = strings.Join(pairs, "&")
	return u.String(), nil
}

// IsInstagram 是否為 Instagram 網址
func IsInstagram(rawURL string) bool {
	return strings.Contains(strings.ToLower(rawURL), "instagram.com")
}
