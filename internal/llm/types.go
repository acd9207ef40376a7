package llm

import (
	"context"

	"api-testgen/internal/types"
)

// FinishReason reports why a provider stopped streaming.
type FinishReason string

const (
	// FinishNone means the stream has not reported a terminal reason yet.
	FinishNone FinishReason = ""
	// FinishStop means the model completed its answer.
	FinishStop FinishReason = "stop"
	// FinishLength means the model was cut off by its output token budget.
	// This is not an error; the caller is expected to build a continuation.
	FinishLength FinishReason = "length"
)

// ChatRequest is the provider-agnostic input for one streamed completion.
type ChatRequest struct {
	System      string
	Messages    []types.ConversationMessage
	Temperature float64
	MaxTokens   int
}

// StreamEvent is one increment of a provider stream. Text events carry a
// delta of assistant output. The terminal event has Done set and carries
// either a FinishReason or an error; the channel is closed right after it.
type StreamEvent struct {
	Text         string
	FinishReason FinishReason
	Err          error
	Done         bool
}

// ConnectionResult is the outcome of a provider health check
type ConnectionResult struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	LatencyMS int64  `json:"latencyMs,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Provider is the uniform contract implemented once per LLM backend.
// ChatStream opens the underlying request and converts the vendor protocol
// (SSE chunks, message-stream events, JSON lines) into text deltas.
// Implementations must always close the returned channel, including on
// context cancellation, so callers can range over it safely.
type Provider interface {
	// Name returns the provider identifier, e.g. "openai", "anthropic".
	Name() string

	// TestConnection performs a lightweight round trip for health-check use.
	TestConnection(ctx context.Context) ConnectionResult

	// ChatStream starts a streaming completion. Errors that occur before any
	// delta is received are returned directly; later errors arrive as the
	// terminal StreamEvent.
	ChatStream(ctx context.Context, req ChatRequest) (<-chan StreamEvent, error)
}

// emit sends ev unless the context is already gone. Adapters use it for
// every channel send so an abandoned consumer never leaks the reader
// goroutine.
func emit(ctx context.Context, ch chan<- StreamEvent, ev StreamEvent) bool {
	select {
	case ch <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
