package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, "anthropic/claude-3.5-sonnet", cfg.OpenRouterModel)
	assert.Equal(t, 2048, cfg.MaxTokens)
	assert.Equal(t, 7, cfg.MaxIterations)
	assert.Equal(t, "chat-uploads", cfg.StorageBucket)
	assert.Equal(t, 20*time.Second, cfg.WebTimeout)
	assert.Equal(t, int64(2_000_000), cfg.WebMaxSize)
	assert.Equal(t, 50_000, cfg.WebMaxChars)
	assert.False(t, cfg.AllowCodeExec)
	assert.Equal(t, 10*time.Second, cfg.CodeTimeout)
	assert.Equal(t, "/tmp/agent_workspace", cfg.WorkspacePath)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("AGENT_MAX_ITERATIONS", "3")
	t.Setenv("WEB_TIMEOUT", "7.5")
	t.Setenv("ALLOW_CODE_EXEC", "true")
	t.Setenv("CORS_ORIGINS", "https://arcco.ai, https://app.arcco.ai")
	t.Setenv("SUPABASE_SERVICE_ROLE_KEY", "service-role")
	t.Setenv("SUPABASE_KEY", "anon")

	cfg := Load()

	assert.Equal(t, 3, cfg.MaxIterations)
	assert.Equal(t, 7500*time.Millisecond, cfg.WebTimeout)
	assert.True(t, cfg.AllowCodeExec)
	assert.Equal(t, []string{"https://arcco.ai", "https://app.arcco.ai"}, cfg.AllowedOrigins())
	assert.Equal(t, "service-role", cfg.SupabaseKey)
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SUPABASE_URL")

	cfg.SupabaseURL = "https://example.supabase.co"
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SUPABASE_KEY")

	cfg.SupabaseKey = "key"
	assert.NoError(t, cfg.Validate())
}
