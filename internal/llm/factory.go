package llm

import (
	"fmt"

	"api-testgen/internal/logger"
)

// NewProvider creates a new LLM provider based on the configuration
func NewProvider(config *Config, log *logger.Logger) (Provider, error) {
	switch config.Provider {
	case ProviderOpenAI:
		return NewOpenAIProvider(config, log), nil
	case ProviderDeepSeek:
		return NewDeepSeekProvider(config, log), nil
	case ProviderAnthropic:
		return NewAnthropicProvider(config, log), nil
	case ProviderOllama:
		return NewOllamaProvider(config, log), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", config.Provider)
	}
}
