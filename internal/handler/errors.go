// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"context"
	"errors"
	"net/http"

	"deepchat-go/internal/service"
	"deepchat-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// statusFor 将业务错误映射为 HTTP 状态码。
func statusFor(err error) int {
	var upErr *service.UpstreamError
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &upErr):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError 统一输出 {"error": "..."}。
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Errorw("请求处理失败", "path", c.Request.URL.Path, "status", status, "error", err)
	} else {
		log.Warnw("请求被拒绝", "path", c.Request.URL.Path, "status", status, "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
