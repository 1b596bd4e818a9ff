// Package llm provides a client for interacting with Large Language Models.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"deepchat-go/internal/config"
)

// Client defines the interface for an LLM client.
type Client interface {
	// Complete 发送有序消息列表，返回助手回复。只尝试一次，不做重试。
	Complete(ctx context.Context, model string, messages []Message, apiKey string) (*Reply, error)
}

// Message 表示一条角色消息
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Reply 是一次补全的结果。ReasoningContent 为部分模型返回的思考过程，可能为空。
type Reply struct {
	Content          string
	ReasoningContent string
}

// APIError 表示服务端返回了非 200 状态。
type APIError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("chat api returned non-200 status: %s, body: %s", e.Status, e.Body)
}

// GenerationParams 控制生成行为
type GenerationParams struct {
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

type deepseekClient struct {
	cfg    config.LLMConfig
	client *http.Client
}

// NewClient creates a new DeepSeek-compatible LLM client.
func NewClient(cfg config.LLMConfig) Client {
	return NewClientWithHTTP(cfg, &http.Client{})
}

// NewClientWithHTTP 允许注入自定义的 http.Client。
func NewClientWithHTTP(cfg config.LLMConfig, httpClient *http.Client) Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &deepseekClient{
		cfg:    cfg,
		client: httpClient,
	}
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Stream      bool      `json:"stream"`
	Temperature *float64  `json:"temperature,omitempty"`
	TopP        *float64  `json:"top_p,omitempty"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Role             string `json:"role"`
			Content          string `json:"content"`
			ReasoningContent string `json:"reasoning_content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *deepseekClient) Complete(ctx context.Context, model string, messages []Message, apiKey string) (*Reply, error) {
	reqBody := chatRequest{
		Model:    model,
		Messages: messages,
		Stream:   false,
	}
	if gen := c.generationParams(); gen != nil {
		reqBody.Temperature = gen.Temperature
		reqBody.TopP = gen.TopP
		reqBody.MaxTokens = gen.MaxTokens
	}

	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(reqBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call chat api: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read chat response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(body)}
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("chat api returned no choices")
	}

	msg := parsed.Choices[0].Message
	return &Reply{
		Content:          msg.Content,
		ReasoningContent: msg.ReasoningContent,
	}, nil
}

// generationParams 从配置注入生成参数（仅非零值）。
func (c *deepseekClient) generationParams() *GenerationParams {
	var gp GenerationParams
	if c.cfg.Generation.Temperature != 0 {
		t := c.cfg.Generation.Temperature
		gp.Temperature = &t
	}
	if c.cfg.Generation.TopP != 0 {
		p := c.cfg.Generation.TopP
		gp.TopP = &p
	}
	if c.cfg.Generation.MaxTokens != 0 {
		m := c.cfg.Generation.MaxTokens
		gp.MaxTokens = &m
	}
	if gp.Temperature == nil && gp.TopP == nil && gp.MaxTokens == nil {
		return nil
	}
	return &gp
}
