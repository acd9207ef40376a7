package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"api-testgen/internal/llm"
	"api-testgen/internal/logger"
	"api-testgen/internal/types"
)

// Session-terminal conditions that are not provider failures. Both still
// return a well-formed partial Result carrying the continuation contract.
var (
	// ErrTokenLimitReached tags a run truncated by the provider's output
	// token budget.
	ErrTokenLimitReached = errors.New("token limit reached")
	// ErrAborted tags a run halted by the caller's cancellation signal.
	ErrAborted = errors.New("generation aborted")
)

// Progress is reported after every newly emitted test
type Progress struct {
	TestsGenerated     int
	EndpointsCompleted int
	EndpointsTotal     int
}

// Hooks are the orchestrator's outbound callbacks. OnTestGenerated is
// awaited before the loop continues, so at most one persistence call is in
// flight at a time and tests reach the store in stream order.
type Hooks struct {
	OnTestGenerated func(ctx context.Context, test *types.TestCase) error
	OnProgress      func(p Progress)
}

// Session is one generation attempt over a set of endpoints. It is owned
// exclusively by the orchestrator for its lifetime and must not be reused:
// a continuation creates a new session seeded from the prior result.
type Session struct {
	Spec      types.Spec
	Endpoints []types.Endpoint

	// Messages is the append-only transcript of everything sent to and
	// received from the provider.
	Messages []types.ConversationMessage

	// Summary is the compact one-line-per-test record of prior work,
	// rendered into continuation prompts.
	Summary string
}

// NewSession creates a fresh session for a first generation attempt
func NewSession(spec types.Spec, endpoints []types.Endpoint) *Session {
	return &Session{
		Spec:      spec,
		Endpoints: endpoints,
	}
}

// Result is the final contract of a session, partial or complete.
// CompletedEndpointIDs and RemainingEndpointIDs always partition the
// session's endpoint id set.
type Result struct {
	Tests                []types.TestCase            `json:"tests"`
	Completed            bool                        `json:"completed"`
	CompletedEndpointIDs []int64                     `json:"completedEndpointIds"`
	RemainingEndpointIDs []int64                     `json:"remainingEndpointIds"`
	Err                  error                       `json:"-"`
	Messages             []types.ConversationMessage `json:"conversationMessages"`
	Summary              string                      `json:"generatedTestsSummary"`
}

// Orchestrator drives one streaming generation session against a provider.
// It is written against the Provider interface only, never a vendor SDK.
type Orchestrator struct {
	provider llm.Provider
	logger   *logger.Logger
	hooks    Hooks
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(provider llm.Provider, log *logger.Logger, hooks Hooks) *Orchestrator {
	if log == nil {
		log = logger.NewDiscardLogger()
	}
	return &Orchestrator{
		provider: provider,
		logger:   log,
		hooks:    hooks,
	}
}

// runState is the mutable per-run state; the delta loop is its only writer.
type runState struct {
	buffer    strings.Builder
	extractor *BlockExtractor
	dedup     *dedupTracker
	tests     []types.TestCase
	completed map[int64]struct{}
	diagsSeen int
}

// GenerateTests runs one full session: prompt, stream, extract, match, map,
// dedup, persist. Cancellation is observed through ctx at the top of each
// loop iteration; a cancelled run returns a partial Result tagged
// ErrAborted rather than failing. A provider truncation signal ends the run
// with ErrTokenLimitReached, also not a failure. Only classified provider
// errors and persistence errors produce a failed Result.
func (o *Orchestrator) GenerateTests(ctx context.Context, session *Session) Result {
	if len(session.Endpoints) == 0 {
		return Result{
			Tests:                []types.TestCase{},
			Completed:            true,
			CompletedEndpointIDs: []int64{},
			RemainingEndpointIDs: []int64{},
			Messages:             session.Messages,
			Summary:              session.Summary,
		}
	}

	prompt := BuildPrompt(session.Endpoints, session.Spec, session.Summary)
	session.Messages = append(session.Messages, types.ConversationMessage{
		Role:    types.RoleUser,
		Content: prompt,
	})

	events, err := o.provider.ChatStream(ctx, llm.ChatRequest{
		System:   SystemPrompt,
		Messages: session.Messages,
	})
	if err != nil {
		o.logger.LogLLMInteraction("generate_tests", o.provider.Name(), "", err)
		return o.finish(session, &runState{completed: map[int64]struct{}{}}, err)
	}

	state := &runState{
		extractor: NewBlockExtractor(),
		dedup:     newDedupTracker(),
		completed: make(map[int64]struct{}),
	}

	var (
		tokenLimited bool
		aborted      bool
		runErr       error
	)

loop:
	for {
		select {
		case <-ctx.Done():
			aborted = true
			break loop
		case event, open := <-events:
			if !open {
				break loop
			}
			if event.Err != nil {
				runErr = event.Err
				break loop
			}
			if event.Text != "" {
				state.buffer.WriteString(event.Text)
				if err := o.drainBlocks(ctx, session, state); err != nil {
					runErr = err
					break loop
				}
			}
			if event.Done {
				if event.FinishReason == llm.FinishLength {
					tokenLimited = true
				}
				break loop
			}
		}
	}

	// Adapters report cancellation by closing the channel or by passing the
	// context error through as the terminal event; both mean the caller
	// aborted the run, never a completion or a provider failure.
	if runErr != nil && (errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded)) {
		runErr = nil
		aborted = true
	}
	if runErr == nil && !aborted && ctx.Err() != nil {
		aborted = true
	}

	// Catch-up pass: a block whose closing fence arrived in the final delta
	// batch may not have been extracted yet. The orchestrator owns the
	// buffer, so it is always still available here.
	if !aborted && runErr == nil {
		if err := o.drainBlocks(ctx, session, state); err != nil {
			runErr = err
		}
	}

	switch {
	case runErr != nil:
		o.logger.LogLLMInteraction("generate_tests", o.provider.Name(), "", runErr)
		return o.finish(session, state, runErr)
	case aborted:
		return o.finish(session, state, ErrAborted)
	case tokenLimited:
		return o.finish(session, state, ErrTokenLimitReached)
	default:
		o.logger.LogLLMInteraction("generate_tests", o.provider.Name(), "", nil)
		return o.finish(session, state, nil)
	}
}

// drainBlocks extracts any newly completed blocks from the buffer and emits
// them: match endpoint, map, dedup, persist, report progress, in stream
// order one at a time.
func (o *Orchestrator) drainBlocks(ctx context.Context, session *Session, state *runState) error {
	blocks := state.extractor.Extract(state.buffer.String())

	for _, block := range blocks {
		endpoint, ok := MatchEndpoint(block, session.Endpoints)
		if !ok {
			continue
		}
		test := MapTestCase(block, endpoint)

		if !state.dedup.shouldEmit(test.Name) {
			o.logger.LogDuplicateTest(test.Name)
			continue
		}
		state.dedup.markEmitted(test.Name)

		if o.hooks.OnTestGenerated != nil {
			if err := o.hooks.OnTestGenerated(ctx, &test); err != nil {
				return fmt.Errorf("failed to persist test %q: %w", test.Name, err)
			}
		}
		state.tests = append(state.tests, test)
		state.completed[endpoint.ID] = struct{}{}

		if o.hooks.OnProgress != nil {
			o.hooks.OnProgress(Progress{
				TestsGenerated:     len(state.tests),
				EndpointsCompleted: len(state.completed),
				EndpointsTotal:     len(session.Endpoints),
			})
		}
	}

	for _, diag := range state.extractor.Diagnostics()[state.diagsSeen:] {
		o.logger.LogDroppedBlock(diag.Index, diag.Err, diag.Snippet)
		state.diagsSeen++
	}
	return nil
}

// finish assembles the Result and the continuation contract: the raw
// assistant output is appended to the transcript and a one-line-per-test
// summary of this run is appended to the session summary.
func (o *Orchestrator) finish(session *Session, state *runState, runErr error) Result {
	if state.buffer.Len() > 0 {
		session.Messages = append(session.Messages, types.ConversationMessage{
			Role:    types.RoleAssistant,
			Content: state.buffer.String(),
		})
	}
	session.Summary = appendSummary(session.Summary, summarizeTests(state.tests))

	completedIDs := make([]int64, 0, len(state.completed))
	remainingIDs := make([]int64, 0, len(session.Endpoints))
	for _, ep := range session.Endpoints {
		if _, done := state.completed[ep.ID]; done {
			completedIDs = append(completedIDs, ep.ID)
		} else {
			remainingIDs = append(remainingIDs, ep.ID)
		}
	}

	tests := state.tests
	if tests == nil {
		tests = []types.TestCase{}
	}
	return Result{
		Tests:                tests,
		Completed:            runErr == nil,
		CompletedEndpointIDs: completedIDs,
		RemainingEndpointIDs: remainingIDs,
		Err:                  runErr,
		Messages:             session.Messages,
		Summary:              session.Summary,
	}
}

// summarizeTests renders one line per emitted test: name plus method/path,
// or for workflows the ordered chain of step requests.
func summarizeTests(tests []types.TestCase) string {
	if len(tests) == 0 {
		return ""
	}
	lines := make([]string, 0, len(tests))
	for _, test := range tests {
		if test.TestType == types.TestTypeWorkflow && len(test.Steps) > 0 {
			chain := make([]string, 0, len(test.Steps))
			for _, step := range test.Steps {
				chain = append(chain, step.Method+" "+step.Path)
			}
			lines = append(lines, fmt.Sprintf("- %s (workflow: %s)", test.Name, strings.Join(chain, " -> ")))
			continue
		}
		lines = append(lines, fmt.Sprintf("- %s (%s %s)", test.Name, test.Method, test.Path))
	}
	return strings.Join(lines, "\n")
}

// appendSummary is a strict textual append; prior content is never
// reordered or truncated.
func appendSummary(prior, next string) string {
	if next == "" {
		return prior
	}
	if prior == "" {
		return next
	}
	return prior + "\n" + next
}
