package llm

// Supported provider identifiers.
const (
	ProviderOpenAI    = "openai"
	ProviderDeepSeek  = "deepseek"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
)

// Config represents the configuration for LLM integration
type Config struct {
	// Provider specifies which LLM provider to use
	// ("openai", "deepseek", "anthropic", "ollama")
	Provider string `json:"provider"`

	// APIKey is the API key for the LLM provider. Not used by ollama.
	APIKey string `json:"api_key,omitempty"`

	// Model specifies which model to use (e.g., "gpt-4o", "claude-sonnet-4-20250514")
	Model string `json:"model"`

	// BaseURL overrides the provider's default endpoint. Required for
	// non-default ollama hosts, optional everywhere else.
	BaseURL string `json:"base_url,omitempty"`

	// Temperature controls the randomness of the output (0.0 to 1.0)
	Temperature float64 `json:"temperature"`

	// MaxTokens limits the length of one generated response. When the model
	// hits this budget the stream ends with a length finish reason.
	MaxTokens int `json:"max_tokens"`

	// TimeoutSeconds bounds a single streaming request at the transport
	// level. The orchestrator itself carries no timer.
	TimeoutSeconds int `json:"timeout_seconds"`
}

// NewDefaultConfig returns a default configuration
func NewDefaultConfig() *Config {
	return &Config{
		Provider:       ProviderOpenAI,
		Model:          "gpt-4o",
		Temperature:    0.7,
		MaxTokens:      4096,
		TimeoutSeconds: 300,
	}
}

// defaultModels maps each provider to the model used when none is configured.
var defaultModels = map[string]string{
	ProviderOpenAI:    "gpt-4o",
	ProviderDeepSeek:  "deepseek-chat",
	ProviderAnthropic: "claude-sonnet-4-20250514",
	ProviderOllama:    "llama3.1",
}

// withDefaults fills unset fields so adapters never see a zero config.
func (c *Config) withDefaults() *Config {
	out := *c
	if out.Model == "" {
		out.Model = defaultModels[out.Provider]
	}
	if out.MaxTokens == 0 {
		out.MaxTokens = 4096
	}
	if out.TimeoutSeconds == 0 {
		out.TimeoutSeconds = 300
	}
	return &out
}
