package llm

import (
	"time"

	openai "github.com/sashabaranov/go-openai"

	"api-testgen/internal/logger"
)

// deepseekBaseURL is DeepSeek's OpenAI-compatible endpoint.
const deepseekBaseURL = "https://api.deepseek.com/v1"

// NewDeepSeekProvider creates a DeepSeek provider. DeepSeek speaks the
// OpenAI chat-completion wire protocol, so the adapter reuses the OpenAI
// streaming implementation against a different base URL.
func NewDeepSeekProvider(config *Config, log *logger.Logger) *OpenAIProvider {
	cfg := config.withDefaults()
	if cfg.BaseURL == "" {
		cfg.BaseURL = deepseekBaseURL
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL
	clientCfg.HTTPClient.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	return &OpenAIProvider{
		name:   ProviderDeepSeek,
		config: cfg,
		client: openai.NewClientWithConfig(clientCfg),
		logger: log,
	}
}
