package generator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"api-testgen/internal/types"
)

// Mapper defaults for fields the model left out.
const (
	defaultMethod   = "GET"
	defaultPath     = "/"
	defaultCategory = "API Tests"
	defaultPriority = "medium"
	createdByAI     = "ai"
)

// MapTestCase normalizes a loosely-typed parsed block into the canonical
// TestCase shape. Every field gets either the block's value or a documented
// default, and every assertion and workflow step is guaranteed a non-empty
// identifier before the result is handed to persistence. Pure transform,
// no side effects beyond uuid generation.
func MapTestCase(block ParsedBlock, endpoint types.Endpoint) types.TestCase {
	method := strings.ToUpper(firstString(block, "method"))
	if method == "" {
		method = defaultMethod
	}
	path := firstString(block, "path")
	if path == "" {
		path = defaultPath
	}

	name := firstString(block, "name", "test_name", "title")
	if name == "" {
		name = fmt.Sprintf("Untitled %s %s", method, path)
	}

	testType := firstString(block, "test_type", "testType")
	steps := mapSteps(block["steps"])
	if testType != types.TestTypeWorkflow {
		testType = types.TestTypeSingle
	}
	if testType == types.TestTypeSingle && len(steps) > 0 {
		testType = types.TestTypeWorkflow
	}

	headers := stringMap(block["headers"])
	if len(headers) == 0 {
		headers = map[string]string{"Content-Type": "application/json"}
	}

	category := firstString(block, "category")
	if category == "" {
		category = defaultCategory
	}
	priority := firstString(block, "priority")
	if priority == "" {
		priority = defaultPriority
	}

	tags := stringSlice(block["tags"])
	if tags == nil {
		tags = []string{}
	}

	test := types.TestCase{
		ID:                uuid.NewString(),
		SpecID:            endpoint.SpecID,
		SourceEndpointID:  endpoint.ID,
		CurrentEndpointID: endpoint.ID,
		IsCustomEndpoint:  false,
		Name:              name,
		Description:       firstString(block, "description"),
		TestType:          testType,
		Method:            method,
		Path:              path,
		PathVariables:     stringMap(block["pathVariables"]),
		QueryParams:       stringMap(block["queryParams"]),
		Headers:           headers,
		Body:              block["body"],
		Assertions:        mapAssertions(block["assertions"]),
		Category:          category,
		Priority:          priority,
		Tags:              tags,
		LastResult:        types.ResultPending,
		ExecutionCount:    0,
		CreatedBy:         createdByAI,
	}
	if testType == types.TestTypeWorkflow {
		test.Steps = steps
	}
	return test
}

// mapAssertions converts a raw assertions array, assigning ids where absent
func mapAssertions(raw interface{}) []types.Assertion {
	items, _ := raw.([]interface{})
	assertions := make([]types.Assertion, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		id := firstString(m, "id")
		if id == "" {
			id = uuid.NewString()
		}
		assertions = append(assertions, types.Assertion{
			ID:          id,
			Type:        firstString(m, "type"),
			Field:       firstString(m, "field"),
			Operator:    firstString(m, "operator"),
			Expected:    m["expected"],
			Description: firstString(m, "description"),
		})
	}
	return assertions
}

// mapSteps converts a raw steps array, assigning ids and order where absent
func mapSteps(raw interface{}) []types.WorkflowStep {
	items, _ := raw.([]interface{})
	steps := make([]types.WorkflowStep, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		id := firstString(m, "id")
		if id == "" {
			id = uuid.NewString()
		}
		method := strings.ToUpper(firstString(m, "method"))
		if method == "" {
			method = defaultMethod
		}
		path := firstString(m, "path")
		if path == "" {
			path = defaultPath
		}
		order := intValue(m["order"])
		if order == 0 {
			order = i + 1
		}
		steps = append(steps, types.WorkflowStep{
			ID:               id,
			Order:            order,
			Name:             firstString(m, "name"),
			Method:           method,
			Path:             path,
			PathVariables:    stringMap(m["pathVariables"]),
			QueryParams:      stringMap(m["queryParams"]),
			Headers:          stringMap(m["headers"]),
			Body:             m["body"],
			Assertions:       mapAssertions(m["assertions"]),
			ExtractVariables: mapExtractVariables(m["extractVariables"]),
		})
	}
	return steps
}

// mapExtractVariables converts a raw extractVariables array
func mapExtractVariables(raw interface{}) []types.ExtractVariable {
	items, _ := raw.([]interface{})
	vars := make([]types.ExtractVariable, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		name := firstString(m, "name")
		if name == "" {
			continue
		}
		source := firstString(m, "source")
		if source == "" {
			source = "response-body"
		}
		vars = append(vars, types.ExtractVariable{
			Name:   name,
			Source: source,
			Path:   firstString(m, "path"),
		})
	}
	return vars
}

// firstString returns the first non-empty string value among the given keys
func firstString(m map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if s := getString(m, key); s != "" {
			return s
		}
	}
	return ""
}

// stringMap coerces a raw object into map[string]string
func stringMap(raw interface{}) map[string]string {
	m, _ := raw.(map[string]interface{})
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = stringify(v)
	}
	return out
}

// stringSlice coerces a raw array into []string
func stringSlice(raw interface{}) []string {
	items, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, stringify(item))
	}
	return out
}

// stringify renders a loosely-typed scalar as a string
func stringify(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", val)
	}
}

// intValue coerces a loosely-typed number into an int
func intValue(v interface{}) int {
	f, ok := v.(float64)
	if !ok {
		return 0
	}
	return int(f)
}
