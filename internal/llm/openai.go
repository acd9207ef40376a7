package llm

import (
	"context"
	"errors"
	"io"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"api-testgen/internal/logger"
)

// OpenAIProvider streams chat completions from the OpenAI API. It also
// serves as the shared implementation for every OpenAI-compatible
// chat-completion backend (see deepseek.go).
type OpenAIProvider struct {
	name   string
	config *Config
	client *openai.Client
	logger *logger.Logger
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(config *Config, log *logger.Logger) *OpenAIProvider {
	cfg := config.withDefaults()
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	return &OpenAIProvider{
		name:   ProviderOpenAI,
		config: cfg,
		client: openai.NewClientWithConfig(clientCfg),
		logger: log,
	}
}

// Name implements the Provider interface
func (p *OpenAIProvider) Name() string {
	return p.name
}

// TestConnection implements the Provider interface with a one-token completion
func (p *OpenAIProvider) TestConnection(ctx context.Context) ConnectionResult {
	start := time.Now()
	_, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     p.config.Model,
		MaxTokens: 1,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: "ping"},
		},
	})
	latency := time.Since(start).Milliseconds()
	if err != nil {
		classified := p.classify(err)
		return ConnectionResult{
			Success:   false,
			Message:   "connection failed",
			LatencyMS: latency,
			Error:     classified.Error(),
		}
	}
	return ConnectionResult{
		Success:   true,
		Message:   "connected to " + p.name + " (" + p.config.Model + ")",
		LatencyMS: latency,
	}
}

// ChatStream implements the Provider interface
func (p *OpenAIProvider) ChatStream(ctx context.Context, req ChatRequest) (<-chan StreamEvent, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	temperature := req.Temperature
	if temperature == 0 {
		temperature = p.config.Temperature
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = p.config.MaxTokens
	}

	stream, err := p.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:       p.config.Model,
		Temperature: float32(temperature),
		MaxTokens:   maxTokens,
		Messages:    messages,
		Stream:      true,
	})
	if err != nil {
		return nil, p.classify(err)
	}

	events := make(chan StreamEvent)
	go func() {
		defer close(events)
		defer stream.Close()

		finish := FinishNone
		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				emit(ctx, events, StreamEvent{Done: true, FinishReason: finish})
				return
			}
			if err != nil {
				classified := p.classify(err)
				p.logger.Warn("stream terminated", "provider", p.name, "error", classified)
				emit(ctx, events, StreamEvent{Done: true, Err: classified})
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			choice := resp.Choices[0]
			if choice.FinishReason == openai.FinishReasonLength {
				finish = FinishLength
			} else if choice.FinishReason != "" && finish == FinishNone {
				finish = FinishStop
			}
			if choice.Delta.Content != "" {
				if !emit(ctx, events, StreamEvent{Text: choice.Delta.Content}) {
					return
				}
			}
		}
	}()
	return events, nil
}

// classify converts go-openai errors into the shared taxonomy
func (p *OpenAIProvider) classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		pe := classifyStatus(p.name, apiErr.HTTPStatusCode, apiErr.Message)
		pe.Err = err
		return pe
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		pe := classifyStatus(p.name, reqErr.HTTPStatusCode, reqErr.Error())
		pe.Err = err
		return pe
	}
	return classifyTransport(p.name, err)
}
