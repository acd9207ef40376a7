package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"api-testgen/internal/logger"
)

const ollamaBaseURL = "http://localhost:11434"

// OllamaProvider streams from a local Ollama server. Ollama responds with
// newline-delimited JSON objects rather than SSE frames.
type OllamaProvider struct {
	config *Config
	client *http.Client
	logger *logger.Logger
}

// NewOllamaProvider creates a new Ollama provider
func NewOllamaProvider(config *Config, log *logger.Logger) *OllamaProvider {
	cfg := config.withDefaults()
	if cfg.BaseURL == "" {
		cfg.BaseURL = ollamaBaseURL
	}
	return &OllamaProvider{
		config: cfg,
		client: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		logger: log,
	}
}

type ollamaChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
	Options  ollamaOptions       `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

// ollamaChatResponse is one chunk of the /api/chat stream
type ollamaChatResponse struct {
	Model   string `json:"model"`
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Done       bool   `json:"done"`
	DoneReason string `json:"done_reason,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Name implements the Provider interface
func (p *OllamaProvider) Name() string {
	return ProviderOllama
}

// TestConnection implements the Provider interface by listing local models
func (p *OllamaProvider) TestConnection(ctx context.Context) ConnectionResult {
	start := time.Now()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.BaseURL+"/api/tags", nil)
	if err != nil {
		return ConnectionResult{Success: false, Message: "connection failed", Error: err.Error()}
	}
	resp, err := p.client.Do(httpReq)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return ConnectionResult{
			Success:   false,
			Message:   "connection failed",
			LatencyMS: latency,
			Error:     classifyTransport(ProviderOllama, err).Error(),
		}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return ConnectionResult{
			Success:   false,
			Message:   "connection failed",
			LatencyMS: latency,
			Error:     classifyStatus(ProviderOllama, resp.StatusCode, "").Error(),
		}
	}
	return ConnectionResult{
		Success:   true,
		Message:   "connected to ollama at " + p.config.BaseURL,
		LatencyMS: latency,
	}
}

// ChatStream implements the Provider interface
func (p *OllamaProvider) ChatStream(ctx context.Context, req ChatRequest) (<-chan StreamEvent, error) {
	temperature := req.Temperature
	if temperature == 0 {
		temperature = p.config.Temperature
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = p.config.MaxTokens
	}

	messages := make([]ollamaChatMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, ollamaChatMessage{Role: "system", Content: req.System})
	}
	for _, m := range req.Messages {
		messages = append(messages, ollamaChatMessage{Role: m.Role, Content: m.Content})
	}

	payload, err := json.Marshal(ollamaChatRequest{
		Model:    p.config.Model,
		Messages: messages,
		Stream:   true,
		Options: ollamaOptions{
			Temperature: temperature,
			NumPredict:  maxTokens,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode ollama request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build ollama request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, classifyTransport(ProviderOllama, err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, classifyStatus(ProviderOllama, resp.StatusCode, string(body))
	}

	events := make(chan StreamEvent)
	go func() {
		defer close(events)
		defer resp.Body.Close()

		decoder := json.NewDecoder(resp.Body)
		for {
			var chunk ollamaChatResponse
			if err := decoder.Decode(&chunk); err != nil {
				if errors.Is(err, io.EOF) {
					emit(ctx, events, StreamEvent{Done: true, FinishReason: FinishStop})
				} else {
					classified := classifyTransport(ProviderOllama, err)
					p.logger.Warn("stream read failed", "provider", ProviderOllama, "error", classified)
					emit(ctx, events, StreamEvent{Done: true, Err: classified})
				}
				return
			}
			if chunk.Error != "" {
				perr := &ProviderError{
					Provider: ProviderOllama,
					Category: CategoryUpstream,
					Message:  chunk.Error,
				}
				p.logger.Warn("stream error chunk", "provider", ProviderOllama, "error", perr)
				emit(ctx, events, StreamEvent{Done: true, Err: perr})
				return
			}
			if chunk.Message.Content != "" {
				if !emit(ctx, events, StreamEvent{Text: chunk.Message.Content}) {
					return
				}
			}
			if chunk.Done {
				finish := FinishStop
				if chunk.DoneReason == "length" {
					finish = FinishLength
				}
				emit(ctx, events, StreamEvent{Done: true, FinishReason: finish})
				return
			}
		}
	}()
	return events, nil
}
