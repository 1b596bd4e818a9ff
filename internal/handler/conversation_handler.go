// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"deepchat-go/internal/middleware"
	"deepchat-go/internal/service"
	"deepchat-go/pkg/apikey"
	"deepchat-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// ConversationHandler 处理与会话管理相关的 API 请求。
type ConversationHandler struct {
	service service.ConversationService
}

// NewConversationHandler 创建一个新的 ConversationHandler。
func NewConversationHandler(service service.ConversationService) *ConversationHandler {
	return &ConversationHandler{service: service}
}

// NewChatRequest 是 new-chat 的可选请求体。
type NewChatRequest struct {
	APIKey string `json:"api_key"`
}

// NewChat 处理 POST /new-chat。API Key 在这里是可选的，只用于日志。
func (h *ConversationHandler) NewChat(c *gin.Context) {
	var req NewChatRequest
	if c.Request.Body != nil && c.Request.Body != http.NoBody {
		// 请求体可选，分块传输时 ContentLength 为 -1，空体按无参数处理
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			respondError(c, fmt.Errorf("%w: %v", service.ErrInvalidRequest, err))
			return
		}
	}
	key := req.APIKey
	if key == "" {
		key = middleware.APIKeyFromContext(c)
	}

	conv, err := h.service.NewChat(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	log.Debugw("new chat requested", "chatId", conv.ID, "keyFingerprint", apikey.Fingerprint(key))

	c.JSON(http.StatusOK, gin.H{
		"chat_id":    conv.ID,
		"created_at": conv.CreatedAt,
	})
}

// ListChats 处理 GET /list-chats。
func (h *ConversationHandler) ListChats(c *gin.Context) {
	chats, err := h.service.ListChats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"chats": chats})
}

// GetChat 处理 GET /get-chat/:chat_id。
func (h *ConversationHandler) GetChat(c *gin.Context) {
	conv, err := h.service.GetChat(c.Request.Context(), c.Param("chat_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"conversation": conv.Messages,
		"metadata": gin.H{
			"created_at":   conv.CreatedAt,
			"last_updated": conv.LastUpdated,
		},
	})
}

// DeleteChat 处理 DELETE /delete-chat/:chat_id。
func (h *ConversationHandler) DeleteChat(c *gin.Context) {
	chatID := c.Param("chat_id")
	if err := h.service.DeleteChat(c.Request.Context(), chatID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": fmt.Sprintf("Chat %s deleted", chatID),
	})
}

// Cleanup 处理 POST /cleanup，可通过 ?max_age_hours= 覆盖默认阈值。
func (h *ConversationHandler) Cleanup(c *gin.Context) {
	var maxAge time.Duration
	if raw := c.Query("max_age_hours"); raw != "" {
		d, err := parseMaxAgeHours(raw)
		if err != nil {
			respondError(c, err)
			return
		}
		maxAge = d
	}

	removed, err := h.service.Cleanup(c.Request.Context(), maxAge)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": fmt.Sprintf("Removed %d old conversations", removed),
		"removed": removed,
	})
}

// 可表示为 time.Duration 的最大小时数
var maxAgeHoursLimit = float64(math.MaxInt64) / float64(time.Hour)

// parseMaxAgeHours 解析 max_age_hours。结果必须是正的 time.Duration，
// 否则 Cleanup 会退回默认阈值。
func parseMaxAgeHours(raw string) (time.Duration, error) {
	invalid := fmt.Errorf("%w: max_age_hours must be a positive number of hours", service.ErrInvalidRequest)

	hours, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(hours) || math.IsInf(hours, 0) || hours <= 0 || hours >= maxAgeHoursLimit {
		return 0, invalid
	}
	d := time.Duration(hours * float64(time.Hour))
	if d <= 0 {
		return 0, invalid
	}
	return d, nil
}
