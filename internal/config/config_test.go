package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Server.Port)
	assert.Equal(t, "https://api.deepseek.com", cfg.LLM.BaseURL)
	assert.Equal(t, "deepseek-reasoner", cfg.LLM.DefaultModel)
	assert.Equal(t, 120*time.Second, cfg.LLM.Timeout)
	assert.True(t, cfg.Conversation.AutoCreate)
	assert.Equal(t, 24*time.Hour, cfg.Conversation.MaxAge)
	assert.Equal(t, time.Hour, cfg.Conversation.CleanupInterval)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  port: "8081"
  mode: debug
llm:
  base_url: http://llm.local
  timeout: 30s
  generation:
    temperature: 0.7
    max_tokens: 2000
conversation:
  auto_create: false
  max_age: 2h
filter:
  extra_phrases:
    - "as an ai"
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.Mode)
	assert.Equal(t, "http://llm.local", cfg.LLM.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.InDelta(t, 0.7, cfg.LLM.Generation.Temperature, 1e-9)
	assert.Equal(t, 2000, cfg.LLM.Generation.MaxTokens)
	assert.False(t, cfg.Conversation.AutoCreate)
	assert.Equal(t, 2*time.Hour, cfg.Conversation.MaxAge)
	assert.Equal(t, []string{"as an ai"}, cfg.Filter.ExtraPhrases)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("DEEPCHAT_SERVER_PORT", "9090")
	t.Setenv("DEEPCHAT_LLM_DEFAULT_MODEL", "deepseek-chat")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "deepseek-chat", cfg.LLM.DefaultModel)
}

func TestLoadInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unterminated"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}
