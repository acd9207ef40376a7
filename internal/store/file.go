package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"api-testgen/internal/types"
)

const suiteFileName = "generated_tests.json"

// suiteFile is the on-disk shape of a generated test suite
type suiteFile struct {
	Tests []types.TestCase `json:"tests"`
}

// FileStore persists test cases in a JSON suite file. It is the default
// store when no database is configured; every save rewrites the suite so a
// crash mid-session keeps everything emitted up to that point.
type FileStore struct {
	dir   string
	suite suiteFile
}

// NewFileStore creates the output directory and loads any existing suite
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	s := &FileStore{dir: dir}
	data, err := os.ReadFile(s.path())
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read suite file: %w", err)
	}
	if err := json.Unmarshal(data, &s.suite); err != nil {
		return nil, fmt.Errorf("failed to parse suite file: %w", err)
	}
	return s, nil
}

func (s *FileStore) path() string {
	return filepath.Join(s.dir, suiteFileName)
}

// SaveTestCase implements the Store interface
func (s *FileStore) SaveTestCase(ctx context.Context, test *types.TestCase) error {
	s.suite.Tests = append(s.suite.Tests, *test)
	return s.flush()
}

// ListTestCases implements the Store interface
func (s *FileStore) ListTestCases(ctx context.Context, specID int64) ([]types.TestCase, error) {
	var tests []types.TestCase
	for _, test := range s.suite.Tests {
		if test.SpecID == specID {
			tests = append(tests, test)
		}
	}
	return tests, nil
}

// Close implements the Store interface
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) flush() error {
	data, err := json.MarshalIndent(s.suite, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal suite: %w", err)
	}
	if err := os.WriteFile(s.path(), data, 0644); err != nil {
		return fmt.Errorf("failed to write suite file: %w", err)
	}
	return nil
}
