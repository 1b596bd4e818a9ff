// Package model 包含了应用的数据模型定义。
package model

import "time"

// 消息角色。
const (
	RoleUser               = "user"
	RoleAssistant          = "assistant"
	RoleAssistantReasoning = "assistant_reasoning"
)

// Message 代表会话中的单条消息。
type Message struct {
	Role    string `json:"role"` // "user"、"assistant" 或 "assistant_reasoning"
	Content string `json:"content"`
}

// Conversation 代表一次会话及其完整的消息记录。
type Conversation struct {
	ID          string    `json:"id"`
	Messages    []Message `json:"messages"`
	CreatedAt   time.Time `json:"created_at"`
	LastUpdated time.Time `json:"last_updated"`
}

// FirstUserMessage 返回第一条 user 消息的内容，没有则返回 nil。
func (c *Conversation) FirstUserMessage() *string {
	for i := range c.Messages {
		if c.Messages[i].Role == RoleUser {
			content := c.Messages[i].Content
			return &content
		}
	}
	return nil
}

// ConversationSummary 是 list-chats 返回的会话摘要。
type ConversationSummary struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	LastUpdated  time.Time `json:"last_updated"`
	MessageCount int       `json:"message_count"`
	FirstMessage *string   `json:"first_message"`
}
