package types

// Spec holds the metadata of an imported API specification
type Spec struct {
	ID             int64    `json:"id"`
	Title          string   `json:"title"`
	Version        string   `json:"version"`
	OpenAPIVersion string   `json:"openapiVersion"`
	Servers        []string `json:"servers,omitempty"`
	Description    string   `json:"description,omitempty"`
}

// Endpoint represents an API endpoint extracted from a specification.
// Identity is (SpecID, Method, Path); ID is assigned by the parser and is
// stable within one spec import.
type Endpoint struct {
	ID          int64            `json:"id"`
	SpecID      int64            `json:"specId"`
	Method      string           `json:"method"`
	Path        string           `json:"path"`
	Name        string           `json:"name,omitempty"`
	Description string           `json:"description,omitempty"`
	Tags        []string         `json:"tags,omitempty"`
	ContentType string           `json:"contentType,omitempty"`
	Parameters  []Parameter      `json:"parameters,omitempty"`
	Body        interface{}      `json:"body,omitempty"`
	Responses   map[int]Response `json:"responses,omitempty"`
	Auth        string           `json:"auth,omitempty"`
}

// Parameter represents an API parameter
type Parameter struct {
	Name        string      `json:"name"`
	In          string      `json:"in"`
	Required    bool        `json:"required"`
	Schema      interface{} `json:"schema,omitempty"`
	ContentType string      `json:"contentType,omitempty"`
}

// Response represents an API response
type Response struct {
	Description string      `json:"description,omitempty"`
	Schema      interface{} `json:"schema,omitempty"`
}

// Test result states for a generated test case.
const (
	ResultPending = "pending"
	ResultPass    = "pass"
	ResultFail    = "fail"
	ResultError   = "error"
)

// Test types.
const (
	TestTypeSingle   = "single"
	TestTypeWorkflow = "workflow"
)

// TestCase is the canonical shape of one generated test, ready for
// persistence. All fields are filled by the mapper; loosely-typed model
// output never reaches a store directly.
type TestCase struct {
	ID                string            `json:"id"`
	SpecID            int64             `json:"specId"`
	SourceEndpointID  int64             `json:"sourceEndpointId"`
	CurrentEndpointID int64             `json:"currentEndpointId"`
	IsCustomEndpoint  bool              `json:"isCustomEndpoint"`
	Name              string            `json:"name"`
	Description       string            `json:"description,omitempty"`
	TestType          string            `json:"testType"`
	Method            string            `json:"method"`
	Path              string            `json:"path"`
	PathVariables     map[string]string `json:"pathVariables,omitempty"`
	QueryParams       map[string]string `json:"queryParams,omitempty"`
	Headers           map[string]string `json:"headers,omitempty"`
	Body              interface{}       `json:"body,omitempty"`
	Assertions        []Assertion       `json:"assertions"`
	Steps             []WorkflowStep    `json:"steps,omitempty"`
	Category          string            `json:"category"`
	Priority          string            `json:"priority"`
	Tags              []string          `json:"tags"`
	LastResult        string            `json:"lastResult"`
	ExecutionCount    int               `json:"executionCount"`
	CreatedBy         string            `json:"createdBy"`
}

// Assertion is a single check inside a test case or workflow step
type Assertion struct {
	ID          string      `json:"id"`
	Type        string      `json:"type"`
	Field       string      `json:"field,omitempty"`
	Operator    string      `json:"operator,omitempty"`
	Expected    interface{} `json:"expected"`
	Description string      `json:"description,omitempty"`
}

// WorkflowStep is one request in a multi-step ("workflow") test
type WorkflowStep struct {
	ID               string            `json:"id"`
	Order            int               `json:"order"`
	Name             string            `json:"name,omitempty"`
	Method           string            `json:"method"`
	Path             string            `json:"path"`
	PathVariables    map[string]string `json:"pathVariables,omitempty"`
	QueryParams      map[string]string `json:"queryParams,omitempty"`
	Headers          map[string]string `json:"headers,omitempty"`
	Body             interface{}       `json:"body,omitempty"`
	Assertions       []Assertion       `json:"assertions,omitempty"`
	ExtractVariables []ExtractVariable `json:"extractVariables,omitempty"`
}

// ExtractVariable captures a value from a step response for use in later steps
type ExtractVariable struct {
	Name   string `json:"name"`
	Source string `json:"source"` // response-body | response-header | status-code | response-time
	Path   string `json:"path,omitempty"`
}

// Conversation roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ConversationMessage is one entry of the append-only provider transcript
type ConversationMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
