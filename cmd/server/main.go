// Package main 是应用程序的入口点。
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"deepchat-go/internal/config"
	"deepchat-go/internal/filter"
	"deepchat-go/internal/handler"
	"deepchat-go/internal/repository"
	"deepchat-go/internal/service"
	"deepchat-go/pkg/llm"
	"deepchat-go/pkg/log"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
)

func main() {
	configPath := flag.String("config", "./configs/config.yaml", "path to the YAML config file")
	flag.Parse()

	// 1. 初始化配置
	config.Init(*configPath)
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 初始化 Repository（仅内存，不持久化）
	conversationRepo := repository.NewConversationRepository()

	// 4. 初始化 Service (依赖注入)
	llmClient := llm.NewClient(cfg.LLM)
	rules := filter.DefaultRules().With(cfg.Filter.ExtraPhrases, cfg.Filter.ExtraLeadingWords)
	chatService := service.NewChatService(llmClient, conversationRepo, cfg.Conversation, cfg.LLM, rules)
	conversationService := service.NewConversationService(conversationRepo, cfg.Conversation.MaxAge)

	// 5. 启动后台会话清理
	cleanup := service.NewCleanupScheduler(conversationService, cfg.Conversation.CleanupInterval, cfg.Conversation.MaxAge)
	if err := cleanup.Start(); err != nil {
		log.Fatal("会话清理任务启动失败", err)
	}
	defer cleanup.Stop()

	// 6. 设置 Gin 模式并创建路由
	gin.SetMode(cfg.Server.Mode)
	router := handler.NewRouter(handler.RouterDependencies{
		ChatService:         chatService,
		ConversationService: conversationService,
		StaticDir:           cfg.Server.StaticDir,
	})

	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         3600,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      corsHandler(router),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("HTTP 服务器关闭失败", err)
	}
	log.Info("服务已优雅关闭")
}
