package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"api-testgen/internal/llm"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DB_PASSWORD", "")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "output", cfg.Output.Dir)
	assert.Equal(t, "logs", cfg.Output.LogDir)
	assert.Equal(t, "file", cfg.Storage.Backend)
	assert.Equal(t, filepath.Join("config", "llm_config.json"), cfg.Generation.LLMConfigPath)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `output:
  dir: out
  log_dir: log
storage:
  backend: database
  database:
    type: postgres
    host: db.internal
    port: 5432
    database: tests
    user: app
generation:
  llm_config: custom/llm.json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "out", cfg.Output.Dir)
	assert.Equal(t, "database", cfg.Storage.Backend)
	assert.Equal(t, "postgres", cfg.Storage.Database.Type)
	assert.Equal(t, "db.internal", cfg.Storage.Database.Host)
	assert.Equal(t, 5432, cfg.Storage.Database.Port)
	assert.Equal(t, "custom/llm.json", cfg.Generation.LLMConfigPath)
}

func TestLoadConfigPasswordFromEnv(t *testing.T) {
	t.Setenv("DB_PASSWORD", "s3cret")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Storage.Database.Password)
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output: ["), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadLLMConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "llm_config.json")
	content := `{"provider": "anthropic", "api_key": "k", "model": "claude-sonnet-4-20250514", "temperature": 0.2, "max_tokens": 8192}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadLLMConfig(path)
	require.NoError(t, err)
	assert.Equal(t, llm.ProviderAnthropic, cfg.Provider)
	assert.Equal(t, "k", cfg.APIKey)
	assert.Equal(t, 8192, cfg.MaxTokens)
}

func TestLoadLLMConfigKeyFromEnv(t *testing.T) {
	t.Setenv("LLM_API_KEY", "env-key")

	path := filepath.Join(t.TempDir(), "llm_config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"provider": "openai"}`), 0644))

	cfg, err := LoadLLMConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.APIKey)
}

func TestLoadLLMConfigRequiresKey(t *testing.T) {
	t.Setenv("LLM_API_KEY", "")

	path := filepath.Join(t.TempDir(), "llm_config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"provider": "openai"}`), 0644))

	_, err := LoadLLMConfig(path)
	assert.Error(t, err)
}

func TestLoadLLMConfigOllamaNeedsNoKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "llm_config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"provider": "ollama", "model": "llama3.1"}`), 0644))

	cfg, err := LoadLLMConfig(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.APIKey)
}

func TestSaveLLMConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "llm_config.json")
	in := &llm.Config{Provider: llm.ProviderDeepSeek, APIKey: "k", Model: "deepseek-chat"}
	require.NoError(t, SaveLLMConfig(in, path))

	out, err := LoadLLMConfig(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
