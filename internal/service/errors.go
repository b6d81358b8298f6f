package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoCredentials is returned when the gateway has an empty key pool.
	ErrNoCredentials = errors.New("no API keys configured")
	// ErrInvalidInput is wrapped by ValidationError.
	ErrInvalidInput = errors.New("invalid input")
)

// ValidationError lists the request fields that failed validation.
type ValidationError struct {
	Fields  []string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Fields, ", "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// LookupError is a geocoding failure: transport error, non-2xx status or an
// unusable body. It is not retried.
type LookupError struct {
	City       string
	StatusCode int
	Err        error
}

func (e *LookupError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to fetch location for %s: HTTP %d", e.City, e.StatusCode)
	}
	return fmt.Sprintf("failed to fetch location for %s: %v", e.City, e.Err)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// ExhaustedProvidersError means every (model, key) combination failed softly.
type ExhaustedProvidersError struct {
	Models   int
	Keys     int
	Attempts int
}

func (e *ExhaustedProvidersError) Error() string {
	return fmt.Sprintf("all keys and models failed after %d attempts (%d models x %d keys), add more keys or retry later",
		e.Attempts, e.Models, e.Keys)
}

// ProviderError is a non-quota error response from the AI provider. It aborts
// rotation.
type ProviderError struct {
	Model      string
	KeyIndex   int
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("AI provider error (model=%s, status=%d): %s", e.Model, e.StatusCode, e.Message)
}
