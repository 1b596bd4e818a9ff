// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"net/http"
	"os"
	"path/filepath"

	"deepchat-go/internal/middleware"
	"deepchat-go/internal/service"
	"deepchat-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// RouterDependencies 汇总路由所需的依赖。
type RouterDependencies struct {
	ChatService         service.ChatService
	ConversationService service.ConversationService
	// StaticDir 为空或不存在时不注册静态页面。
	StaticDir string
}

// NewRouter 创建路由引擎并注册所有接口。
func NewRouter(deps RouterDependencies) *gin.Engine {
	r := gin.New() // 不带默认中间件
	r.Use(middleware.RequestLogger(), gin.Recovery(), middleware.APIKeyExtractor())

	chatHandler := NewChatHandler(deps.ChatService)
	conversationHandler := NewConversationHandler(deps.ConversationService)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/new-chat", conversationHandler.NewChat)
	r.POST("/send-message", chatHandler.SendMessage)
	r.GET("/list-chats", conversationHandler.ListChats)
	r.GET("/get-chat/:chat_id", conversationHandler.GetChat)
	r.DELETE("/delete-chat/:chat_id", conversationHandler.DeleteChat)
	r.POST("/cleanup", conversationHandler.Cleanup)

	registerStatic(r, deps.StaticDir)
	return r
}

func registerStatic(r *gin.Engine, dir string) {
	if dir == "" {
		return
	}
	index := filepath.Join(dir, "index.html")
	if _, err := os.Stat(index); err != nil {
		log.Warnf("静态页面不可用，跳过注册: %v", err)
		return
	}
	r.StaticFile("/", index)
	r.Static("/static", dir)
}
