package llm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"api-testgen/internal/logger"
	"api-testgen/internal/types"
)

func openaiTestConfig(baseURL string) *Config {
	return &Config{
		Provider: ProviderOpenAI,
		APIKey:   "test-key",
		Model:    "gpt-4o",
		BaseURL:  baseURL + "/v1",
	}
}

func openaiChunk(content, finishReason string) string {
	finish := "null"
	if finishReason != "" {
		finish = `"` + finishReason + `"`
	}
	return `data: {"id":"cmpl-1","object":"chat.completion.chunk","choices":[{"index":0,"delta":{"content":"` +
		content + `"},"finish_reason":` + finish + `}]}` + "\n\n"
}

func TestOpenAIChatStreamDeltas(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte(openaiChunk("Hello ", "") +
			openaiChunk("world", "stop") +
			"data: [DONE]\n\n"))
	}))
	defer server.Close()

	p := NewOpenAIProvider(openaiTestConfig(server.URL), logger.NewDiscardLogger())
	events, err := p.ChatStream(context.Background(), ChatRequest{
		System:   "be terse",
		Messages: []types.ConversationMessage{{Role: types.RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)

	text, last := collectStream(t, events)
	assert.Equal(t, "Hello world", text)
	assert.True(t, last.Done)
	assert.NoError(t, last.Err)
	assert.Equal(t, FinishStop, last.FinishReason)
}

func TestOpenAIChatStreamLengthCutoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte(openaiChunk("partial", "length") + "data: [DONE]\n\n"))
	}))
	defer server.Close()

	p := NewOpenAIProvider(openaiTestConfig(server.URL), logger.NewDiscardLogger())
	events, err := p.ChatStream(context.Background(), ChatRequest{})
	require.NoError(t, err)

	text, last := collectStream(t, events)
	assert.Equal(t, "partial", text)
	assert.True(t, last.Done)
	assert.Equal(t, FinishLength, last.FinishReason)
}

func TestOpenAIChatStreamUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": {"message": "Incorrect API key provided", "type": "invalid_request_error"}}`))
	}))
	defer server.Close()

	p := NewOpenAIProvider(openaiTestConfig(server.URL), logger.NewDiscardLogger())
	_, err := p.ChatStream(context.Background(), ChatRequest{})

	var pe *ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, CategoryInvalidCredentials, pe.Category)
	assert.Equal(t, http.StatusUnauthorized, pe.StatusCode)
}

func TestDeepSeekProviderName(t *testing.T) {
	p := NewDeepSeekProvider(&Config{Provider: ProviderDeepSeek, APIKey: "k"}, logger.NewDiscardLogger())
	assert.Equal(t, ProviderDeepSeek, p.Name())
}

func TestNewProviderFactory(t *testing.T) {
	tests := []struct {
		provider string
		want     string
	}{
		{ProviderOpenAI, "openai"},
		{ProviderDeepSeek, "deepseek"},
		{ProviderAnthropic, "anthropic"},
		{ProviderOllama, "ollama"},
	}
	for _, tt := range tests {
		p, err := NewProvider(&Config{Provider: tt.provider, APIKey: "k"}, logger.NewDiscardLogger())
		require.NoError(t, err, tt.provider)
		assert.Equal(t, tt.want, p.Name())
	}

	_, err := NewProvider(&Config{Provider: "gemini"}, logger.NewDiscardLogger())
	assert.Error(t, err)
}

func TestConfigWithDefaults(t *testing.T) {
	cfg := (&Config{Provider: ProviderAnthropic}).withDefaults()
	assert.Equal(t, defaultModels[ProviderAnthropic], cfg.Model)
	assert.Equal(t, 4096, cfg.MaxTokens)
	assert.Equal(t, 300, cfg.TimeoutSeconds)

	// Configured values survive.
	cfg = (&Config{Provider: ProviderOpenAI, Model: "gpt-4o-mini", MaxTokens: 128}).withDefaults()
	assert.Equal(t, "gpt-4o-mini", cfg.Model)
	assert.Equal(t, 128, cfg.MaxTokens)
}
