// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"time"

	"deepchat-go/internal/model"
	"deepchat-go/internal/repository"
	"deepchat-go/pkg/log"
)

// ConversationService 定义了会话管理业务逻辑的接口。
type ConversationService interface {
	NewChat(ctx context.Context) (*model.Conversation, error)
	ListChats(ctx context.Context) ([]model.ConversationSummary, error)
	GetChat(ctx context.Context, chatID string) (*model.Conversation, error)
	DeleteChat(ctx context.Context, chatID string) error
	// Cleanup 清理超过 maxAge 未更新的会话；maxAge 为零时使用默认值。
	Cleanup(ctx context.Context, maxAge time.Duration) (int, error)
}

type conversationService struct {
	repo          repository.ConversationRepository
	defaultMaxAge time.Duration
}

// NewConversationService 创建一个新的 ConversationService。
func NewConversationService(repo repository.ConversationRepository, defaultMaxAge time.Duration) ConversationService {
	if defaultMaxAge <= 0 {
		defaultMaxAge = 24 * time.Hour
	}
	return &conversationService{repo: repo, defaultMaxAge: defaultMaxAge}
}

func (s *conversationService) NewChat(ctx context.Context) (*model.Conversation, error) {
	conv, err := s.repo.Create(ctx)
	if err != nil {
		return nil, err
	}
	log.Infow("会话已创建", "chatId", conv.ID)
	return conv, nil
}

func (s *conversationService) ListChats(ctx context.Context) ([]model.ConversationSummary, error) {
	return s.repo.List(ctx)
}

func (s *conversationService) GetChat(ctx context.Context, chatID string) (*model.Conversation, error) {
	return s.repo.Get(ctx, chatID)
}

func (s *conversationService) DeleteChat(ctx context.Context, chatID string) error {
	if err := s.repo.Delete(ctx, chatID); err != nil {
		return err
	}
	log.Infow("会话已删除", "chatId", chatID)
	return nil
}

func (s *conversationService) Cleanup(ctx context.Context, maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		maxAge = s.defaultMaxAge
	}
	removed, err := s.repo.EvictOlderThan(ctx, maxAge)
	if err != nil {
		return 0, err
	}
	log.Infow("过期会话清理完成", "removed", removed, "maxAge", maxAge.String())
	return removed, nil
}
