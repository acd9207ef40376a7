package config

import (
	"encoding/json"
	"fmt"
	"os"

	"api-testgen/internal/llm"
)

// LoadLLMConfig loads LLM provider configuration from a JSON file
func LoadLLMConfig(path string) (*llm.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read LLM config file: %w", err)
	}

	var config llm.Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse LLM config: %w", err)
	}

	// Override API key from environment variable if set
	if key := os.Getenv("LLM_API_KEY"); key != "" {
		config.APIKey = key
	}

	// Validate required fields
	if config.Provider == "" {
		return nil, fmt.Errorf("LLM provider is required")
	}
	if config.APIKey == "" && config.Provider != llm.ProviderOllama {
		return nil, fmt.Errorf("API key is required for provider %s", config.Provider)
	}

	return &config, nil
}

// SaveLLMConfig saves LLM provider configuration to a JSON file
func SaveLLMConfig(config *llm.Config, path string) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal LLM config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write LLM config file: %w", err)
	}

	return nil
}
