package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"api-testgen/internal/logger"
	"api-testgen/internal/types"
)

const (
	anthropicBaseURL    = "https://api.anthropic.com"
	anthropicAPIVersion = "2023-06-01"

	// Messages API stream events can carry sizable deltas; give the line
	// scanner room beyond bufio's 64KB default.
	anthropicScanBuffer = 1024 * 1024
)

// AnthropicProvider streams from the Anthropic Messages API. The event
// stream (SSE) is decoded by hand; there is no vendor SDK involved.
type AnthropicProvider struct {
	config *Config
	client *http.Client
	logger *logger.Logger
}

// NewAnthropicProvider creates a new Anthropic provider
func NewAnthropicProvider(config *Config, log *logger.Logger) *AnthropicProvider {
	cfg := config.withDefaults()
	if cfg.BaseURL == "" {
		cfg.BaseURL = anthropicBaseURL
	}
	return &AnthropicProvider{
		config: cfg,
		client: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		logger: log,
	}
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Stream      bool               `json:"stream,omitempty"`
	Temperature float64            `json:"temperature,omitempty"`
}

// anthropicStreamEvent is one Messages API stream event. Only the fields the
// adapter consumes are declared; everything else is ignored.
type anthropicStreamEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type       string `json:"type"`
		Text       string `json:"text"`
		StopReason string `json:"stop_reason"`
	} `json:"delta"`
	Error     anthropicAPIError `json:"error"`
	RequestID string            `json:"request_id"`
}

type anthropicAPIError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type anthropicErrorBody struct {
	Type  string            `json:"type"`
	Error anthropicAPIError `json:"error"`
}

// Name implements the Provider interface
func (p *AnthropicProvider) Name() string {
	return ProviderAnthropic
}

// TestConnection implements the Provider interface with a one-token message
func (p *AnthropicProvider) TestConnection(ctx context.Context) ConnectionResult {
	start := time.Now()
	resp, err := p.send(ctx, anthropicRequest{
		Model:     p.config.Model,
		MaxTokens: 1,
		Messages:  []anthropicMessage{{Role: types.RoleUser, Content: "ping"}},
	})
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return ConnectionResult{
			Success:   false,
			Message:   "connection failed",
			LatencyMS: latency,
			Error:     err.Error(),
		}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		classified := p.classifyResponse(resp)
		return ConnectionResult{
			Success:   false,
			Message:   "connection failed",
			LatencyMS: latency,
			Error:     classified.Error(),
		}
	}
	io.Copy(io.Discard, resp.Body)
	return ConnectionResult{
		Success:   true,
		Message:   "connected to anthropic (" + p.config.Model + ")",
		LatencyMS: latency,
	}
}

// ChatStream implements the Provider interface
func (p *AnthropicProvider) ChatStream(ctx context.Context, req ChatRequest) (<-chan StreamEvent, error) {
	temperature := req.Temperature
	if temperature == 0 {
		temperature = p.config.Temperature
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = p.config.MaxTokens
	}

	messages := make([]anthropicMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, anthropicMessage{Role: m.Role, Content: m.Content})
	}

	resp, err := p.send(ctx, anthropicRequest{
		Model:       p.config.Model,
		MaxTokens:   maxTokens,
		System:      req.System,
		Messages:    messages,
		Stream:      true,
		Temperature: temperature,
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, p.classifyResponse(resp)
	}

	events := make(chan StreamEvent)
	go func() {
		defer close(events)
		defer resp.Body.Close()

		finish := FinishNone
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 4096), anthropicScanBuffer)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data:") {
				continue
			}
			payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if payload == "" {
				continue
			}

			var event anthropicStreamEvent
			if err := json.Unmarshal([]byte(payload), &event); err != nil {
				// Skip undecodable keep-alive noise rather than kill the run.
				continue
			}

			switch event.Type {
			case "content_block_delta":
				if event.Delta.Text != "" {
					if !emit(ctx, events, StreamEvent{Text: event.Delta.Text}) {
						return
					}
				}
			case "message_delta":
				if event.Delta.StopReason == "max_tokens" {
					finish = FinishLength
				} else if event.Delta.StopReason != "" {
					finish = FinishStop
				}
			case "error":
				perr := &ProviderError{
					Provider: ProviderAnthropic,
					Category: anthropicErrorCategory(event.Error.Type),
					Message:  event.Error.Message,
				}
				p.logger.Warn("stream error event", "provider", ProviderAnthropic, "error", perr)
				emit(ctx, events, StreamEvent{Done: true, Err: perr})
				return
			case "message_stop":
				emit(ctx, events, StreamEvent{Done: true, FinishReason: finish})
				return
			}
		}
		if err := scanner.Err(); err != nil {
			classified := classifyTransport(ProviderAnthropic, err)
			p.logger.Warn("stream read failed", "provider", ProviderAnthropic, "error", classified)
			emit(ctx, events, StreamEvent{Done: true, Err: classified})
			return
		}
		emit(ctx, events, StreamEvent{Done: true, FinishReason: finish})
	}()
	return events, nil
}

// send issues a Messages API request with the required headers
func (p *AnthropicProvider) send(ctx context.Context, body anthropicRequest) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode anthropic request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build anthropic request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Api-Key", p.config.APIKey)
	httpReq.Header.Set("Anthropic-Version", anthropicAPIVersion)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, classifyTransport(ProviderAnthropic, err)
	}
	return resp, nil
}

// classifyResponse turns a non-200 response into a ProviderError
func (p *AnthropicProvider) classifyResponse(resp *http.Response) *ProviderError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	message := ""
	var parsed anthropicErrorBody
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		message = parsed.Error.Message
	}
	return classifyStatus(ProviderAnthropic, resp.StatusCode, message)
}

// anthropicErrorCategory maps Messages API error types onto the shared taxonomy
func anthropicErrorCategory(errType string) ErrorCategory {
	switch errType {
	case "authentication_error", "permission_error":
		return CategoryInvalidCredentials
	case "rate_limit_error":
		return CategoryRateLimited
	case "overloaded_error", "api_error":
		return CategoryUpstream
	default:
		return CategoryGeneric
	}
}
