package reporter

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"api-testgen/internal/generator"
	"api-testgen/internal/types"
)

// Report summarizes one generation run
type Report struct {
	Timestamp          time.Time      `json:"timestamp"`
	Provider           string         `json:"provider"`
	SpecTitle          string         `json:"specTitle"`
	Status             string         `json:"status"` // completed | token_limit | aborted | failed
	TotalTests         int            `json:"totalTests"`
	SingleTests        int            `json:"singleTests"`
	WorkflowTests      int            `json:"workflowTests"`
	EndpointsCompleted int            `json:"endpointsCompleted"`
	EndpointsRemaining int            `json:"endpointsRemaining"`
	TestsByEndpoint    map[string]int `json:"testsByEndpoint"`
	Error              string         `json:"error,omitempty"`
}

// Reporter writes generation run reports
type Reporter struct {
	outputDir string
}

// NewReporter creates a new instance of Reporter
func NewReporter(outputDir string) *Reporter {
	return &Reporter{outputDir: outputDir}
}

// GenerateReport writes a JSON report for a finished generation run and
// returns the report path
func (r *Reporter) GenerateReport(provider string, spec types.Spec, result generator.Result) (string, error) {
	report := Report{
		Timestamp:          time.Now(),
		Provider:           provider,
		SpecTitle:          spec.Title,
		Status:             statusOf(result),
		TotalTests:         len(result.Tests),
		EndpointsCompleted: len(result.CompletedEndpointIDs),
		EndpointsRemaining: len(result.RemainingEndpointIDs),
		TestsByEndpoint:    make(map[string]int),
	}
	for _, test := range result.Tests {
		if test.TestType == types.TestTypeWorkflow {
			report.WorkflowTests++
		} else {
			report.SingleTests++
		}
		key := fmt.Sprintf("%s %s", test.Method, test.Path)
		report.TestsByEndpoint[key]++
	}
	if result.Err != nil {
		report.Error = result.Err.Error()
	}

	if err := os.MkdirAll(r.outputDir, 0755); err != nil {
		return "", err
	}
	reportPath := filepath.Join(r.outputDir, fmt.Sprintf("report_%s.json", report.Timestamp.Format("20060102_150405")))

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(reportPath, data, 0644); err != nil {
		return "", err
	}
	return reportPath, nil
}

// statusOf maps a result onto the report status
func statusOf(result generator.Result) string {
	switch {
	case result.Err == nil:
		return "completed"
	case errors.Is(result.Err, generator.ErrTokenLimitReached):
		return "token_limit"
	case errors.Is(result.Err, generator.ErrAborted):
		return "aborted"
	default:
		return "failed"
	}
}
