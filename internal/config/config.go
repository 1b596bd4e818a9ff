// Package config 负责加载和管理应用程序的配置。
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix 是环境变量覆盖配置时使用的前缀，例如 DEEPCHAT_SERVER_PORT。
const EnvPrefix = "DEEPCHAT"

// 全局配置变量，存储从配置文件加载的所有设置。
var Conf Config

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Log          LogConfig          `mapstructure:"log"`
	LLM          LLMConfig          `mapstructure:"llm"`
	Conversation ConversationConfig `mapstructure:"conversation"`
	Filter       FilterConfig       `mapstructure:"filter"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port           string        `mapstructure:"port"`
	Mode           string        `mapstructure:"mode"`
	StaticDir      string        `mapstructure:"static_dir"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// LLMConfig 存储大语言模型相关的配置。API Key 由每个请求提供，不在这里配置。
type LLMConfig struct {
	BaseURL      string              `mapstructure:"base_url"`
	DefaultModel string              `mapstructure:"default_model"`
	Timeout      time.Duration       `mapstructure:"timeout"`
	Generation   LLMGenerationConfig `mapstructure:"generation"`
}

// LLMGenerationConfig 配置生成相关参数（可选，零值表示不下发）。
type LLMGenerationConfig struct {
	Temperature float64 `mapstructure:"temperature"`
	TopP        float64 `mapstructure:"top_p"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// ConversationConfig 存储会话存储与清理策略。
type ConversationConfig struct {
	// AutoCreate 为 true 时，发送消息到未知 chat_id 会自动创建会话；否则返回 404。
	AutoCreate         bool          `mapstructure:"auto_create"`
	MaxAge             time.Duration `mapstructure:"max_age"`
	CleanupInterval    time.Duration `mapstructure:"cleanup_interval"`
	MaxContextMessages int           `mapstructure:"max_context_messages"`
}

// FilterConfig 在内置过滤表之外追加的规则。
type FilterConfig struct {
	ExtraPhrases      []string `mapstructure:"extra_phrases"`
	ExtraLeadingWords []string `mapstructure:"extra_leading_words"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "5000")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.static_dir", "./web")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173", "http://localhost:5174"})
	v.SetDefault("server.read_timeout", 10*time.Second)
	// 需要覆盖 LLM 调用的最长耗时
	v.SetDefault("server.write_timeout", 180*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output_path", "")

	v.SetDefault("llm.base_url", "https://api.deepseek.com")
	v.SetDefault("llm.default_model", "deepseek-reasoner")
	v.SetDefault("llm.timeout", 120*time.Second)
	v.SetDefault("llm.generation.temperature", 0.0)
	v.SetDefault("llm.generation.top_p", 0.0)
	v.SetDefault("llm.generation.max_tokens", 0)

	v.SetDefault("conversation.auto_create", true)
	v.SetDefault("conversation.max_age", 24*time.Hour)
	v.SetDefault("conversation.cleanup_interval", time.Hour)
	v.SetDefault("conversation.max_context_messages", 0)

	v.SetDefault("filter.extra_phrases", []string{})
	v.SetDefault("filter.extra_leading_words", []string{})
}

// Load 从指定路径读取 YAML 配置，叠加默认值与环境变量覆盖。
// 配置文件不存在时仅使用默认值和环境变量。
func Load(configPath string) (Config, error) {
	// .env 仅用于本地开发，缺失时忽略
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return cfg, fmt.Errorf("读取配置文件失败: %w", err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("无法访问配置文件: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("无法将配置解析到结构体中: %w", err)
	}
	if cfg.LLM.DefaultModel == "" {
		cfg.LLM.DefaultModel = "deepseek-reasoner"
	}
	return cfg, nil
}

// Init 初始化配置加载，解析结果写入全局 Conf 变量。
func Init(configPath string) {
	cfg, err := Load(configPath)
	if err != nil {
		panic(err)
	}
	Conf = cfg
}
