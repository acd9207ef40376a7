package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Logger provides structured logging to a per-run log file
type Logger struct {
	*slog.Logger
	file *os.File
}

// NewLogger creates a new logger writing to a timestamped file in logDir
func NewLogger(logDir string) (*Logger, error) {
	// Create log directory if it doesn't exist
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	logPath := filepath.Join(logDir, fmt.Sprintf("generation_%s.log", timestamp))
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	handler := slog.NewTextHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug})
	return &Logger{
		Logger: slog.New(handler),
		file:   file,
	}, nil
}

// NewDiscardLogger returns a logger that drops everything; used in tests
func NewDiscardLogger() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// Close closes the log file
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// LogLLMInteraction logs one provider round trip
func (l *Logger) LogLLMInteraction(operation, provider, model string, err error) {
	if err != nil {
		l.Error("llm interaction failed", "operation", operation, "provider", provider, "model", model, "error", err)
		return
	}
	l.Info("llm interaction", "operation", operation, "provider", provider, "model", model)
}

// LogDroppedBlock records a fenced block that failed to parse after repair.
// Dropped blocks are diagnostics, never fatal.
func (l *Logger) LogDroppedBlock(index int, parseErr error, snippet string) {
	l.Warn("dropped unparseable block", "index", index, "error", parseErr, "snippet", snippet)
}

// LogDuplicateTest records a test suppressed by the per-session dedup set
func (l *Logger) LogDuplicateTest(name string) {
	l.Warn("duplicate test name suppressed", "name", name)
}
