package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ErrorCategory is the user-facing classification of a provider failure.
type ErrorCategory string

const (
	CategoryInvalidCredentials ErrorCategory = "invalid_credentials"
	CategoryRateLimited        ErrorCategory = "rate_limited"
	CategoryConnection         ErrorCategory = "connection"
	CategoryUpstream           ErrorCategory = "upstream"
	CategoryGeneric            ErrorCategory = "generic"
)

// ProviderError is a classified failure from a provider transport or API.
// Truncation and cancellation are never represented as a ProviderError.
type ProviderError struct {
	Provider   string
	Category   ErrorCategory
	StatusCode int
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (%s, status %d)", e.Provider, e.Message, e.Category, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Provider, e.Message, e.Category)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// classifyStatus maps an HTTP status to an error category
func classifyStatus(provider string, status int, message string) *ProviderError {
	category := CategoryGeneric
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		category = CategoryInvalidCredentials
	case status == http.StatusTooManyRequests:
		category = CategoryRateLimited
	case status >= 500:
		category = CategoryUpstream
	}
	if message == "" {
		message = http.StatusText(status)
	}
	return &ProviderError{
		Provider:   provider,
		Category:   category,
		StatusCode: status,
		Message:    message,
	}
}

// classifyTransport maps a transport-level error to an error category.
// Context cancellation is passed through untouched so callers can keep
// treating it as an abort rather than a provider failure.
func classifyTransport(provider string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	category := CategoryGeneric
	var netErr net.Error
	if errors.As(err, &netErr) {
		category = CategoryConnection
	} else if strings.Contains(err.Error(), "connection refused") {
		category = CategoryConnection
	}
	return &ProviderError{
		Provider: provider,
		Category: category,
		Message:  err.Error(),
		Err:      err,
	}
}
