// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"fmt"
	"net/http"

	"deepchat-go/internal/middleware"
	"deepchat-go/internal/service"

	"github.com/gin-gonic/gin"
)

// ChatHandler 负责处理发送消息的请求。
type ChatHandler struct {
	chatService service.ChatService
}

// NewChatHandler 创建一个新的 ChatHandler。
func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// SendMessageRequest 定义了 send-message 的请求体结构。
// 必填校验在 service 层完成，以保证先校验字段再校验 API Key 的顺序。
type SendMessageRequest struct {
	ChatID      string `json:"chat_id"`
	UserMessage string `json:"user_message"`
	APIKey      string `json:"api_key"`
	ModelName   string `json:"model_name"`
}

// SendMessage 处理 POST /send-message。
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %v", service.ErrInvalidRequest, err))
		return
	}

	// 请求体中的 api_key 优先，其次是 Authorization 头
	apiKey := req.APIKey
	if apiKey == "" {
		apiKey = middleware.APIKeyFromContext(c)
	}

	transcript, err := h.chatService.SendMessage(c.Request.Context(), service.SendMessageRequest{
		ChatID:      req.ChatID,
		UserMessage: req.UserMessage,
		APIKey:      apiKey,
		ModelName:   req.ModelName,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversation": transcript})
}
