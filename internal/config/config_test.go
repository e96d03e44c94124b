package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8002", cfg.Port)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAIModel)
	assert.Equal(t, 10*time.Second, cfg.ToolTimeout)
	assert.Equal(t, 60*time.Second, cfg.WorkflowTimeout)
	assert.Equal(t, 10, cfg.MaxHistoryTurns)
	assert.False(t, cfg.EnableCheckpointer)
	assert.False(t, cfg.DebugStreaming)
	assert.False(t, cfg.AuthEnabled())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ENABLE_CHECKPOINTER", "true")
	t.Setenv("TOOL_TIMEOUT", "5s")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("CORS_ORIGINS", "http://a.example, http://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.True(t, cfg.EnableCheckpointer)
	assert.Equal(t, 5*time.Second, cfg.ToolTimeout)
	assert.True(t, cfg.AuthEnabled())
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.CORSOriginsList())
}

func TestCORSOriginsListEmptyEntries(t *testing.T) {
	cfg := &Config{CORSOrigins: " , http://a.example ,,"}
	assert.Equal(t, []string{"http://a.example"}, cfg.CORSOriginsList())
}
