package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the runtime configuration for the assistant orchestrator.
// Values are read from environment variables with sensible defaults so the
// service can boot in development without any configuration at all.
type Config struct {
	// Server
	Port         string        `mapstructure:"port"`
	CORSOrigins  string        `mapstructure:"cors_origins"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`

	// Database (optional; in-memory stores are used when unset)
	DatabaseURL string `mapstructure:"database_url"`

	// LLM provider
	OpenAIAPIKey string        `mapstructure:"openai_api_key"`
	OpenAIModel  string        `mapstructure:"openai_model"`
	LLMTimeout   time.Duration `mapstructure:"llm_generate_timeout"`

	// Workflow
	ToolTimeout     time.Duration `mapstructure:"tool_timeout"`
	WorkflowTimeout time.Duration `mapstructure:"workflow_invoke_timeout"`

	// Durable execution (checkpointing keyed by thread id)
	EnableCheckpointer bool `mapstructure:"enable_checkpointer"`

	// Debug event streaming over WebSocket
	DebugStreaming bool `mapstructure:"debug_streaming"`

	// Session management
	SessionTimeout  time.Duration `mapstructure:"session_timeout"`
	MaxHistoryTurns int           `mapstructure:"max_history_turns"`

	// Auth (endpoints are public when the secret is empty)
	JWTSecret         string        `mapstructure:"jwt_secret"`
	TokenExpiry       time.Duration `mapstructure:"access_token_expiry"`
	AdminEmail        string        `mapstructure:"admin_email"`
	AdminPasswordHash string        `mapstructure:"admin_password_hash"`

	// Logging
	LogLevel string `mapstructure:"log_level"`
}

// Load reads configuration from the environment via viper.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("port", "8002")
	v.SetDefault("cors_origins", "http://localhost:3002")
	v.SetDefault("read_timeout", 15*time.Second)
	v.SetDefault("write_timeout", 60*time.Second)
	v.SetDefault("database_url", "")
	v.SetDefault("openai_api_key", "")
	v.SetDefault("openai_model", "gpt-4o-mini")
	v.SetDefault("llm_generate_timeout", 30*time.Second)
	v.SetDefault("tool_timeout", 10*time.Second)
	v.SetDefault("workflow_invoke_timeout", 60*time.Second)
	v.SetDefault("enable_checkpointer", false)
	v.SetDefault("debug_streaming", false)
	v.SetDefault("session_timeout", time.Hour)
	v.SetDefault("max_history_turns", 10)
	v.SetDefault("jwt_secret", "")
	v.SetDefault("access_token_expiry", 24*time.Hour)
	v.SetDefault("admin_email", "")
	v.SetDefault("admin_password_hash", "")
	v.SetDefault("log_level", "info")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// CORSOriginsList splits the comma-separated origins string.
func (c *Config) CORSOriginsList() []string {
	parts := strings.Split(c.CORSOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// AuthEnabled reports whether JWT protection is configured.
func (c *Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}
