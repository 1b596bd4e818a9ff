// Package apikey 提供 API Key 的提取与脱敏工具。原始 Key 永远不应写入日志。
package apikey

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/blake2b"
)

const bearerPrefix = "Bearer "

// FromAuthorization 从 "Bearer <key>" 形式的请求头中提取 Key，格式不符时返回空串。
func FromAuthorization(header string) string {
	if !strings.HasPrefix(header, bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
}

// Fingerprint 返回 Key 的短指纹，用于在日志中区分调用方。
func Fingerprint(key string) string {
	if key == "" {
		return ""
	}
	sum := blake2b.Sum256([]byte(key))
	return hex.EncodeToString(sum[:4])
}
