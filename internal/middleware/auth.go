// Package middleware 提供了处理 HTTP 请求的中间件。
package middleware

import (
	"deepchat-go/pkg/apikey"

	"github.com/gin-gonic/gin"
)

const apiKeyContextKey = "apiKey"

// APIKeyExtractor 从 Authorization 头中提取 Bearer Key 并存入 Gin 上下文。
// 它不会中止请求：是否必须携带 Key 由各接口自己决定。
func APIKeyExtractor() gin.HandlerFunc {
	return func(c *gin.Context) {
		if key := apikey.FromAuthorization(c.GetHeader("Authorization")); key != "" {
			c.Set(apiKeyContextKey, key)
		}
		c.Next()
	}
}

// APIKeyFromContext 返回 APIKeyExtractor 存入的 Key，没有则返回空串。
func APIKeyFromContext(c *gin.Context) string {
	return c.GetString(apiKeyContextKey)
}
