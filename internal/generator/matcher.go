package generator

import (
	"strings"

	"api-testgen/internal/types"
)

// MatchEndpoint resolves a parsed block to the endpoint it was generated
// for. Single tests match on exact (method, path); if the block used the
// alternate endpoint_method/endpoint_path field pair that is tried next.
// Workflow blocks match on the first step's (method, path). When nothing
// matches, the first endpoint in the set is substituted so no block is ever
// dropped for a match failure. ok is false only for an empty endpoint set.
func MatchEndpoint(block ParsedBlock, endpoints []types.Endpoint) (types.Endpoint, bool) {
	if len(endpoints) == 0 {
		return types.Endpoint{}, false
	}

	if isWorkflowBlock(block) {
		if method, path, ok := firstStepTarget(block); ok {
			if ep, found := findExact(endpoints, method, path); found {
				return ep, true
			}
		}
		return endpoints[0], true
	}

	if ep, found := findExact(endpoints, getString(block, "method"), getString(block, "path")); found {
		return ep, true
	}
	if ep, found := findExact(endpoints, getString(block, "endpoint_method"), getString(block, "endpoint_path")); found {
		return ep, true
	}
	return endpoints[0], true
}

// isWorkflowBlock reports whether a block describes a multi-step test
func isWorkflowBlock(block ParsedBlock) bool {
	testType := getString(block, "test_type")
	if testType == "" {
		testType = getString(block, "testType")
	}
	if testType == types.TestTypeWorkflow {
		return true
	}
	steps, _ := block["steps"].([]interface{})
	return testType == "" && len(steps) > 0
}

// firstStepTarget extracts (method, path) from a workflow block's first step
func firstStepTarget(block ParsedBlock) (method, path string, ok bool) {
	steps, _ := block["steps"].([]interface{})
	if len(steps) == 0 {
		return "", "", false
	}
	first, _ := steps[0].(map[string]interface{})
	if first == nil {
		return "", "", false
	}
	return getString(first, "method"), getString(first, "path"), true
}

// findExact looks up an endpoint by exact method+path match
func findExact(endpoints []types.Endpoint, method, path string) (types.Endpoint, bool) {
	if method == "" || path == "" {
		return types.Endpoint{}, false
	}
	for _, ep := range endpoints {
		if strings.EqualFold(ep.Method, method) && ep.Path == path {
			return ep, true
		}
	}
	return types.Endpoint{}, false
}

// getString plucks a string field out of loosely-typed model output
func getString(m map[string]interface{}, key string) string {
	v, ok := m[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}
