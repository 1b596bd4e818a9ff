// Package service 包含了应用的业务逻辑层。
package service

import (
	"errors"

	"deepchat-go/internal/repository"
)

var (
	// ErrInvalidRequest 表示缺少必填字段。
	ErrInvalidRequest = errors.New("invalid request")
	// ErrUnauthorized 表示请求未携带 API Key。
	ErrUnauthorized = errors.New("missing api key")
	// ErrNotFound 表示会话不存在。
	ErrNotFound = repository.ErrConversationNotFound
)

// UpstreamError 包装 LLM 调用失败，Error() 原样透传上游的错误信息。
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string {
	return e.Err.Error()
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
