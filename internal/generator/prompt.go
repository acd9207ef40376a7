package generator

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"api-testgen/internal/types"
)

// SystemPrompt is the fixed role instruction sent with every generation
// request, regardless of provider.
const SystemPrompt = "You are an expert API test engineer. You design thorough, executable test cases " +
	"for HTTP APIs and always respond in the exact format requested."

// promptInstructions is the fixed tail of every generation prompt. It pins
// down the output channel (one fenced json block per test case) and the
// field-level formatting rules the extractor and mapper rely on.
const promptInstructions = `### Instructions

Generate test cases for every endpoint listed above. Cover the happy path,
validation failures, and relevant edge cases.

Output format rules:
1. Output each test case as exactly one fenced JSON code block:
   a line with ` + "```json" + `, the JSON object, then a closing ` + "```" + ` line.
   Do not put more than one test case in a block.
2. A single-request test case uses this shape:
   {"name": "...", "description": "...", "test_type": "single",
    "method": "GET", "path": "/users/{id}",
    "pathVariables": {"id": "123"}, "queryParams": {}, "headers": {},
    "body": null, "category": "...", "priority": "high|medium|low",
    "tags": [], "assertions": [{"type": "status-code", "operator": "equals", "expected": 200}]}
3. A multi-step test case uses "test_type": "workflow" and a "steps" array;
   each step has the same request fields as a single test plus optional
   "extractVariables": [{"name": "...", "source": "response-body", "path": "$.id"}].
4. Keep path template placeholders like {id} in "path"; put the concrete
   values in "pathVariables".
5. "method" and "path" must exactly match the endpoint the test targets.
6. The Content-Type header must match the endpoint's declared media type.
7. Output only valid JSON inside the blocks: double quotes, no trailing
   commas, no comments.`

// BuildPrompt renders endpoints and spec metadata into a single
// provider-agnostic prompt. When priorSummary is non-empty the prompt opens
// with the already-generated work and an instruction not to repeat it.
// Pure function of its inputs.
func BuildPrompt(endpoints []types.Endpoint, spec types.Spec, priorSummary string) string {
	var b strings.Builder

	if priorSummary != "" {
		b.WriteString("### Previously Generated Tests\n\n")
		b.WriteString("The following tests were already generated in this session:\n\n")
		b.WriteString(priorSummary)
		b.WriteString("\n\nDo not regenerate any endpoint/test pair listed above. ")
		b.WriteString("Continue with the remaining endpoints below only.\n\n")
	}

	b.WriteString("### API Specification\n\n")
	fmt.Fprintf(&b, "Title: %s\n", spec.Title)
	if spec.Version != "" {
		fmt.Fprintf(&b, "Version: %s\n", spec.Version)
	}
	if spec.OpenAPIVersion != "" {
		fmt.Fprintf(&b, "OpenAPI: %s\n", spec.OpenAPIVersion)
	}
	if len(spec.Servers) > 0 {
		fmt.Fprintf(&b, "Servers: %s\n", strings.Join(spec.Servers, ", "))
	}
	if spec.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", spec.Description)
	}

	b.WriteString("\n### Endpoints\n")
	for i, ep := range endpoints {
		fmt.Fprintf(&b, "\n%d. %s %s", i+1, ep.Method, ep.Path)
		if ep.Name != "" {
			fmt.Fprintf(&b, " - %s", ep.Name)
		}
		b.WriteString("\n")
		if ep.Description != "" {
			fmt.Fprintf(&b, "   Description: %s\n", ep.Description)
		}
		if len(ep.Tags) > 0 {
			fmt.Fprintf(&b, "   Tags: %s\n", strings.Join(ep.Tags, ", "))
		}
		if ep.ContentType != "" {
			fmt.Fprintf(&b, "   Content-Type: %s\n", ep.ContentType)
		}
		if ep.Auth != "" {
			fmt.Fprintf(&b, "   Auth: %s\n", ep.Auth)
		}
		for _, param := range ep.Parameters {
			required := ""
			if param.Required {
				required = ", required"
			}
			fmt.Fprintf(&b, "   Parameter: %s (in %s%s)", param.Name, param.In, required)
			if schema := compactJSON(param.Schema); schema != "" {
				fmt.Fprintf(&b, " schema: %s", schema)
			}
			b.WriteString("\n")
		}
		if body := compactJSON(ep.Body); body != "" {
			fmt.Fprintf(&b, "   Request body schema: %s\n", body)
		}
		codes := make([]int, 0, len(ep.Responses))
		for code := range ep.Responses {
			codes = append(codes, code)
		}
		sort.Ints(codes)
		for _, code := range codes {
			fmt.Fprintf(&b, "   Response %d: %s\n", code, ep.Responses[code].Description)
		}
	}

	b.WriteString("\n")
	b.WriteString(promptInstructions)
	return b.String()
}

// compactJSON marshals a schema value without indentation to save tokens
func compactJSON(v interface{}) string {
	if v == nil {
		return ""
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	s := string(data)
	if s == "null" || s == "{}" {
		return ""
	}
	return s
}
