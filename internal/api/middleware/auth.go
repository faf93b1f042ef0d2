package middleware

import (
	"crypto/subtle"

	"recipe-scraper/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// APIKeyHeader 驗證用的請求標頭
const APIKeyHeader = "X-API-Key"

// apiKeyContextKey gin context 中存放已驗證 API Key 的鍵
const apiKeyContextKey = "api_key"

// APIKeyAuth 驗證 X-API-Key 是否與設定的靜態 token 相符
func APIKeyAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(APIKeyHeader)
		if key == "" || subtle.ConstantTimeCompare([]byte(key), []byte(token)) != 1 {
			common.LogWarn("Invalid or missing API key",
				zap.String("client_ip", c.ClientIP()),
				zap.String("path", c.Request.URL.Path),
			)
			abortWithError(c, common.ErrUnauthorized)
			return
		}

		c.Set(apiKeyContextKey, key)
		c.Next()
	}
}

// abortWithError 以統一錯誤格式中止請求
func abortWithError(c *gin.Context, err *common.CustomError) {
	c.AbortWithStatusJSON(err.Status, err.Response(false))
}
