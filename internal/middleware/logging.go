// Package middleware 存放 Gin 框架的中间件。
package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"time"
	"unicode/utf8"

	"deepchat-go/pkg/apikey"
	"deepchat-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// 日志中请求/响应体的最大长度
const maxLoggedBody = 4096

// bodyLogWriter 用于捕获响应体
type bodyLogWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

// Write 将响应同时写入 gin.ResponseWriter 和内部 buffer
func (w bodyLogWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// RequestLogger 是一个 Gin 中间件，用于记录请求和响应日志。请求体中的 api_key 会被替换为指纹。
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		var requestBody []byte
		if c.Request.Body != nil {
			requestBody, _ = io.ReadAll(c.Request.Body)
		}
		// 重新设置 Body，以便后续处理函数可以正常读取
		c.Request.Body = io.NopCloser(bytes.NewBuffer(requestBody))

		blw := &bodyLogWriter{body: bytes.NewBufferString(""), ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		log.Infow("HTTP Request Log",
			"statusCode", c.Writer.Status(),
			"latency", time.Since(startTime).String(),
			"clientIP", c.ClientIP(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"requestBody", truncate(redactBody(requestBody)),
			"responseBody", truncate(blw.body.String()),
		)
	}
}

// redactBody 将 JSON 请求体中的 api_key 替换为 "fp:<指纹>"；非 JSON 原样返回。
func redactBody(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return string(body)
	}
	key, ok := fields["api_key"].(string)
	if !ok {
		return string(body)
	}
	fields["api_key"] = "fp:" + apikey.Fingerprint(key)
	redacted, err := json.Marshal(fields)
	if err != nil {
		return ""
	}
	return string(redacted)
}

// truncate 按字节上限截断，截断点回退到 rune 边界，保证日志是合法的 UTF-8。
func truncate(s string) string {
	if len(s) <= maxLoggedBody {
		return s
	}
	cut := maxLoggedBody
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}
