package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"api-testgen/internal/types"
)

func sampleEndpoints() []types.Endpoint {
	return []types.Endpoint{
		{ID: 1, SpecID: 1, Method: "GET", Path: "/users"},
		{ID: 2, SpecID: 1, Method: "POST", Path: "/users"},
		{ID: 3, SpecID: 1, Method: "GET", Path: "/users/{id}"},
	}
}

func TestMatchEndpointExact(t *testing.T) {
	ep, ok := MatchEndpoint(ParsedBlock{"method": "POST", "path": "/users"}, sampleEndpoints())
	require.True(t, ok)
	assert.Equal(t, int64(2), ep.ID)
}

func TestMatchEndpointCaseInsensitiveMethod(t *testing.T) {
	ep, ok := MatchEndpoint(ParsedBlock{"method": "get", "path": "/users/{id}"}, sampleEndpoints())
	require.True(t, ok)
	assert.Equal(t, int64(3), ep.ID)
}

func TestMatchEndpointAlternateFieldPair(t *testing.T) {
	block := ParsedBlock{
		"method":          "",
		"endpoint_method": "POST",
		"endpoint_path":   "/users",
	}
	ep, ok := MatchEndpoint(block, sampleEndpoints())
	require.True(t, ok)
	assert.Equal(t, int64(2), ep.ID)
}

func TestMatchEndpointFallsBackToFirst(t *testing.T) {
	ep, ok := MatchEndpoint(ParsedBlock{"method": "DELETE", "path": "/nowhere"}, sampleEndpoints())
	require.True(t, ok)
	assert.Equal(t, int64(1), ep.ID)
}

func TestMatchEndpointWorkflowFirstStep(t *testing.T) {
	block := ParsedBlock{
		"test_type": "workflow",
		"steps": []interface{}{
			map[string]interface{}{"method": "POST", "path": "/users"},
			map[string]interface{}{"method": "GET", "path": "/users/{id}"},
		},
	}
	ep, ok := MatchEndpoint(block, sampleEndpoints())
	require.True(t, ok)
	assert.Equal(t, int64(2), ep.ID)
}

func TestMatchEndpointWorkflowFallsBackToFirst(t *testing.T) {
	// A workflow whose first step targets a path that is not in the set is
	// kept by substituting the first endpoint, not dropped.
	block := ParsedBlock{
		"test_type": "workflow",
		"steps": []interface{}{
			map[string]interface{}{"method": "POST", "path": "/orders"},
		},
	}
	ep, ok := MatchEndpoint(block, sampleEndpoints())
	require.True(t, ok)
	assert.Equal(t, int64(1), ep.ID)
}

func TestMatchEndpointEmptySet(t *testing.T) {
	_, ok := MatchEndpoint(ParsedBlock{"method": "GET", "path": "/users"}, nil)
	assert.False(t, ok)
}

func TestMatchEndpointUntypedBlockWithStepsIsWorkflow(t *testing.T) {
	block := ParsedBlock{
		"steps": []interface{}{
			map[string]interface{}{"method": "GET", "path": "/users/{id}"},
		},
	}
	ep, ok := MatchEndpoint(block, sampleEndpoints())
	require.True(t, ok)
	assert.Equal(t, int64(3), ep.ID)
}
