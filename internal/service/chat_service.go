// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"deepchat-go/internal/config"
	"deepchat-go/internal/filter"
	"deepchat-go/internal/model"
	"deepchat-go/internal/repository"
	"deepchat-go/pkg/apikey"
	"deepchat-go/pkg/llm"
	"deepchat-go/pkg/log"
)

// SendMessageRequest 是一次 send-message 调用的输入。
type SendMessageRequest struct {
	ChatID      string
	UserMessage string
	APIKey      string
	ModelName   string
}

// ChatService 定义了聊天操作的接口。
type ChatService interface {
	// SendMessage 追加用户消息、调用 LLM、过滤并追加回复，返回完整的会话记录。
	SendMessage(ctx context.Context, req SendMessageRequest) ([]model.Message, error)
}

type chatService struct {
	llmClient        llm.Client
	conversationRepo repository.ConversationRepository
	convCfg          config.ConversationConfig
	llmCfg           config.LLMConfig
	rules            filter.Rules
}

// NewChatService 创建一个新的 ChatService 实例。
func NewChatService(llmClient llm.Client, conversationRepo repository.ConversationRepository, convCfg config.ConversationConfig, llmCfg config.LLMConfig, rules filter.Rules) ChatService {
	if llmCfg.DefaultModel == "" {
		llmCfg.DefaultModel = "deepseek-reasoner"
	}
	return &chatService{
		llmClient:        llmClient,
		conversationRepo: conversationRepo,
		convCfg:          convCfg,
		llmCfg:           llmCfg,
		rules:            rules,
	}
}

func (s *chatService) SendMessage(ctx context.Context, req SendMessageRequest) ([]model.Message, error) {
	// 1. 校验必填字段
	if strings.TrimSpace(req.ChatID) == "" || strings.TrimSpace(req.UserMessage) == "" {
		return nil, fmt.Errorf("%w: missing 'chat_id' or 'user_message'", ErrInvalidRequest)
	}
	// 2. 每次发送都必须携带 API Key
	if strings.TrimSpace(req.APIKey) == "" {
		return nil, fmt.Errorf("%w: 'api_key' is required", ErrUnauthorized)
	}
	modelName := strings.TrimSpace(req.ModelName)
	if modelName == "" {
		modelName = s.llmCfg.DefaultModel
	}

	// 3. 获取会话的轮次锁，直到本轮所有追加完成才释放
	sess, err := s.conversationRepo.Acquire(ctx, req.ChatID, s.convCfg.AutoCreate)
	if err != nil {
		return nil, err
	}
	defer sess.Release()

	// 4. 追加用户消息（用户消息不经过过滤）
	sess.Append(model.Message{Role: model.RoleUser, Content: req.UserMessage})

	// 5. 调用 LLM
	start := time.Now()
	reply, err := s.complete(ctx, modelName, sess.Messages(), req.APIKey)
	if err != nil {
		// 6. 失败时不回滚已追加的用户消息
		log.Errorw("LLM 调用失败",
			"chatId", req.ChatID,
			"model", modelName,
			"keyFingerprint", apikey.Fingerprint(req.APIKey),
			"latency", time.Since(start).String(),
			"error", err,
		)
		return nil, &UpstreamError{Err: err}
	}

	// 7. 过滤并追加非空的助手消息
	appended := 0
	for _, msg := range s.replyMessages(reply) {
		filtered := filter.Apply(s.rules, msg)
		if strings.TrimSpace(filtered.Content) == "" {
			log.Debugw("丢弃过滤后为空的消息", "chatId", req.ChatID, "role", msg.Role)
			continue
		}
		sess.Append(filtered)
		appended++
	}

	log.Infow("chat turn completed",
		"chatId", req.ChatID,
		"model", modelName,
		"keyFingerprint", apikey.Fingerprint(req.APIKey),
		"appended", appended,
		"latency", time.Since(start).String(),
	)

	// 8. 返回完整会话记录
	return sess.Messages(), nil
}

// complete 构造发送给 LLM 的上下文：去掉 assistant_reasoning 等非标准角色，
// 并按配置只保留最近的 N 条消息。
func (s *chatService) complete(ctx context.Context, modelName string, transcript []model.Message, apiKey string) (*llm.Reply, error) {
	llmMsgs := make([]llm.Message, 0, len(transcript))
	for _, m := range transcript {
		if m.Role != model.RoleUser && m.Role != model.RoleAssistant {
			continue
		}
		llmMsgs = append(llmMsgs, llm.Message{Role: m.Role, Content: m.Content})
	}
	if n := s.convCfg.MaxContextMessages; n > 0 && len(llmMsgs) > n {
		llmMsgs = llmMsgs[len(llmMsgs)-n:]
	}

	if s.llmCfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.llmCfg.Timeout)
		defer cancel()
	}
	return s.llmClient.Complete(ctx, modelName, llmMsgs, apiKey)
}

func (s *chatService) replyMessages(reply *llm.Reply) []model.Message {
	msgs := []model.Message{{Role: model.RoleAssistant, Content: reply.Content}}
	if strings.TrimSpace(reply.ReasoningContent) != "" {
		msgs = append(msgs, model.Message{Role: model.RoleAssistantReasoning, Content: reply.ReasoningContent})
	}
	return msgs
}
