package common

import (
	"unicode/utf8"

	"github.com/google/uuid"
)

// ShortID 生成 8 字元的隨機識別碼
func ShortID() string {
	return uuid.New().String()[:8]
}

// Truncate 以字元為單位截斷字串，超過上限時附加 marker
func Truncate(s string, max int, marker string) (string, bool) {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s, false
	}
	runes := []rune(s)
	return string(runes[:max]) + marker, true
}

// MaskSecret 遮罩金鑰，只顯示前後各 4 個字符
func MaskSecret(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
