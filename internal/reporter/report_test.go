package reporter

import (
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"api-testgen/internal/generator"
	"api-testgen/internal/types"
)

func TestGenerateReportCompleted(t *testing.T) {
	dir := t.TempDir()
	result := generator.Result{
		Tests: []types.TestCase{
			{Name: "list", TestType: types.TestTypeSingle, Method: "GET", Path: "/users"},
			{Name: "list again", TestType: types.TestTypeSingle, Method: "GET", Path: "/users"},
			{Name: "flow", TestType: types.TestTypeWorkflow, Method: "POST", Path: "/users"},
		},
		Completed:            true,
		CompletedEndpointIDs: []int64{1, 2},
		RemainingEndpointIDs: []int64{},
	}

	path, err := NewReporter(dir).GenerateReport("openai", types.Spec{Title: "Users API"}, result)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var report Report
	require.NoError(t, json.Unmarshal(data, &report))

	assert.Equal(t, "completed", report.Status)
	assert.Equal(t, "openai", report.Provider)
	assert.Equal(t, "Users API", report.SpecTitle)
	assert.Equal(t, 3, report.TotalTests)
	assert.Equal(t, 2, report.SingleTests)
	assert.Equal(t, 1, report.WorkflowTests)
	assert.Equal(t, 2, report.EndpointsCompleted)
	assert.Equal(t, 0, report.EndpointsRemaining)
	assert.Equal(t, 2, report.TestsByEndpoint["GET /users"])
	assert.Equal(t, 1, report.TestsByEndpoint["POST /users"])
	assert.Empty(t, report.Error)
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"completed", nil, "completed"},
		{"token limit", generator.ErrTokenLimitReached, "token_limit"},
		{"aborted", generator.ErrAborted, "aborted"},
		{"failed", errors.New("boom"), "failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusOf(generator.Result{Err: tt.err}))
		})
	}
}

func TestGenerateReportCarriesError(t *testing.T) {
	dir := t.TempDir()
	result := generator.Result{Err: generator.ErrTokenLimitReached, RemainingEndpointIDs: []int64{3}}

	path, err := NewReporter(dir).GenerateReport("anthropic", types.Spec{}, result)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var report Report
	require.NoError(t, json.Unmarshal(data, &report))

	assert.Equal(t, "token_limit", report.Status)
	assert.Equal(t, 1, report.EndpointsRemaining)
	assert.NotEmpty(t, report.Error)
}
