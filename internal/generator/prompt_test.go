package generator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"api-testgen/internal/types"
)

func promptSpec() types.Spec {
	return types.Spec{
		ID:             1,
		Title:          "Pet Store",
		Version:        "1.2.0",
		OpenAPIVersion: "3.0.3",
		Servers:        []string{"https://api.example.com"},
	}
}

func TestBuildPromptListsEndpoints(t *testing.T) {
	endpoints := []types.Endpoint{
		{
			ID:          1,
			Method:      "GET",
			Path:        "/pets/{petId}",
			Name:        "Get pet",
			ContentType: "application/json",
			Parameters: []types.Parameter{
				{Name: "petId", In: "path", Required: true, Schema: map[string]interface{}{"type": "integer"}},
			},
			Responses: map[int]types.Response{
				404: {Description: "Not found"},
				200: {Description: "OK"},
			},
		},
		{
			ID:     2,
			Method: "POST",
			Path:   "/pets",
			Body:   map[string]interface{}{"type": "object"},
		},
	}

	prompt := BuildPrompt(endpoints, promptSpec(), "")

	assert.Contains(t, prompt, "Title: Pet Store")
	assert.Contains(t, prompt, "Version: 1.2.0")
	assert.Contains(t, prompt, "Servers: https://api.example.com")
	assert.Contains(t, prompt, "1. GET /pets/{petId}")
	assert.Contains(t, prompt, "2. POST /pets")
	assert.Contains(t, prompt, `Parameter: petId (in path, required)`)
	assert.Contains(t, prompt, `schema: {"type":"integer"}`)
	assert.Contains(t, prompt, `Request body schema: {"type":"object"}`)
	assert.Contains(t, prompt, "```json")

	// Response codes render in ascending order regardless of map order.
	assert.Less(t, strings.Index(prompt, "Response 200"), strings.Index(prompt, "Response 404"))

	// A fresh session carries no continuation preamble.
	assert.NotContains(t, prompt, "Previously Generated Tests")
}

func TestBuildPromptIsDeterministic(t *testing.T) {
	endpoints := []types.Endpoint{{
		ID:     1,
		Method: "GET",
		Path:   "/pets",
		Responses: map[int]types.Response{
			500: {Description: "boom"},
			200: {Description: "ok"},
			400: {Description: "bad"},
		},
	}}
	first := BuildPrompt(endpoints, promptSpec(), "")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, BuildPrompt(endpoints, promptSpec(), ""))
	}
}

func TestBuildPromptContinuationPreamble(t *testing.T) {
	endpoints := []types.Endpoint{{ID: 2, Method: "POST", Path: "/pets"}}
	summary := "- list pets ok (GET /pets)"

	prompt := BuildPrompt(endpoints, promptSpec(), summary)

	require.Contains(t, prompt, "Previously Generated Tests")
	assert.Contains(t, prompt, summary)
	assert.Contains(t, prompt, "Do not regenerate")

	// The preamble comes before the endpoint listing.
	assert.Less(t, strings.Index(prompt, summary), strings.Index(prompt, "### Endpoints"))
}
