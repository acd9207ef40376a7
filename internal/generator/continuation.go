package generator

import (
	"encoding/json"
	"fmt"
	"os"

	"api-testgen/internal/types"
)

// ContinuationState is the serializable continuation contract of a session
// that ended on truncation or cancellation: the conversation so far, the
// compact summary of emitted tests, and the endpoints still owed work.
type ContinuationState struct {
	SpecID               int64                       `json:"specId"`
	Provider             string                      `json:"provider"`
	Messages             []types.ConversationMessage `json:"conversationMessages"`
	Summary              string                      `json:"generatedTestsSummary"`
	RemainingEndpointIDs []int64                     `json:"remainingEndpointIds"`
}

// ContinuationState extracts the continuation contract from a partial
// result. It returns nil when the session completed and there is nothing
// left to resume.
func (r Result) ContinuationState(specID int64, provider string) *ContinuationState {
	if r.Completed || len(r.RemainingEndpointIDs) == 0 {
		return nil
	}
	return &ContinuationState{
		SpecID:               specID,
		Provider:             provider,
		Messages:             r.Messages,
		Summary:              r.Summary,
		RemainingEndpointIDs: r.RemainingEndpointIDs,
	}
}

// NewContinuationSession seeds a fresh session from a prior session's
// continuation state. The endpoint set is restricted to the prior remaining
// ids so already-covered endpoints are not regenerated; the prior summary
// flows into the prompt as the do-not-repeat list.
func NewContinuationSession(state *ContinuationState, spec types.Spec, allEndpoints []types.Endpoint) *Session {
	remaining := make(map[int64]struct{}, len(state.RemainingEndpointIDs))
	for _, id := range state.RemainingEndpointIDs {
		remaining[id] = struct{}{}
	}

	endpoints := make([]types.Endpoint, 0, len(state.RemainingEndpointIDs))
	for _, ep := range allEndpoints {
		if _, ok := remaining[ep.ID]; ok {
			endpoints = append(endpoints, ep)
		}
	}

	messages := make([]types.ConversationMessage, len(state.Messages))
	copy(messages, state.Messages)

	return &Session{
		Spec:      spec,
		Endpoints: endpoints,
		Messages:  messages,
		Summary:   state.Summary,
	}
}

// SaveContinuationState writes the continuation contract to a JSON file
func SaveContinuationState(state *ContinuationState, path string) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal continuation state: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write continuation state: %w", err)
	}
	return nil
}

// LoadContinuationState reads a continuation contract from a JSON file
func LoadContinuationState(path string) (*ContinuationState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read continuation state: %w", err)
	}
	var state ContinuationState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse continuation state: %w", err)
	}
	return &state, nil
}
