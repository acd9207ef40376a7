package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"api-testgen/internal/store"
)

// Config holds the application configuration
type Config struct {
	Output     OutputConfig     `yaml:"output"`
	Storage    StorageConfig    `yaml:"storage"`
	Generation GenerationConfig `yaml:"generation"`
}

// OutputConfig holds output locations
type OutputConfig struct {
	Dir    string `yaml:"dir"`
	LogDir string `yaml:"log_dir"`
}

// StorageConfig selects where generated tests are persisted
type StorageConfig struct {
	// Backend is "file" (default) or "database"
	Backend  string         `yaml:"backend"`
	Database store.DBConfig `yaml:"database"`
}

// GenerationConfig holds generation run configuration
type GenerationConfig struct {
	// LLMConfigPath points at the JSON provider configuration
	LLMConfigPath string `yaml:"llm_config"`
}

// LoadConfig loads the configuration from the config file with defaults
func LoadConfig(path string) (*Config, error) {
	var config Config

	if path == "" {
		path = filepath.Join("config", "config.yaml")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Missing config file is fine; run on defaults.
	} else if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override database password from environment variable if set
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		config.Storage.Database.Password = password
	}

	// Set default values if not specified
	if config.Output.Dir == "" {
		config.Output.Dir = "output"
	}
	if config.Output.LogDir == "" {
		config.Output.LogDir = "logs"
	}
	if config.Storage.Backend == "" {
		config.Storage.Backend = "file"
	}
	if config.Generation.LLMConfigPath == "" {
		config.Generation.LLMConfigPath = filepath.Join("config", "llm_config.json")
	}

	return &config, nil
}
