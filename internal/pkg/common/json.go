package common

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// ParseJSON 解析 JSON 字符串到結構體
func ParseJSON(data string, v interface{}) error {
	return decodeJSON(strings.NewReader(data), v)
}

// ParseJSONBytes 解析 JSON 位元組切片到結構體
func ParseJSONBytes(data []byte, v interface{}) error {
	return decodeJSON(bytes.NewReader(data), v)
}

func decodeJSON(r io.Reader, v interface{}) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	if err := dec.Decode(v); err != nil {
		return err
	}

	// 確保沒有多餘資料
	for {
		t, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if t != nil {
			return fmt.Errorf("unexpected extra JSON data")
		}
	}
}

var (
	leadingFencePattern  = regexp.MustCompile("^```(?:json)?\\n?")
	trailingFencePattern = regexp.MustCompile("\\n?```$")
)

// StripCodeFence 移除模型回覆外層的 markdown code block
func StripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	content = leadingFencePattern.ReplaceAllString(content, "")
	content = trailingFencePattern.ReplaceAllString(content, "")
	return strings.TrimSpace(content)
}

// ExtractJSONObject 取第一個 '{' 到最後一個 '}' 之間的內容，找不到時回傳空字串
func ExtractJSONObject(content string) string {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end <= start {
		return ""
	}
	return content[start : end+1]
}
