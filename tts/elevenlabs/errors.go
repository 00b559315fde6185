package elevenlabs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrEmptyText is returned when there is nothing to synthesize.
	ErrEmptyText = errors.New("text cannot be empty")
	// ErrMissingAPIKey is returned when the client was built without a key.
	ErrMissingAPIKey = errors.New("API key is required")
)

// AuthenticationError reports a rejected or missing API key.
type AuthenticationError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *AuthenticationError) Error() string {
	return "Invalid API key: " + e.Message
}

// SynthesisError reports any other failure of a request to the service.
type SynthesisError struct {
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *SynthesisError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	return "Failed to generate speech: " + msg
}

// Unwrap returns the transport error, if any.
func (e *SynthesisError) Unwrap() error {
	return e.Err
}

// ChunkError reports the chunk that aborted a chunked synthesis.
type ChunkError struct {
	Index int // 1-based
	Total int
	Err   error
}

// Error implements the error interface.
func (e *ChunkError) Error() string {
	return fmt.Sprintf("failed to process chunk %d: %v", e.Index, e.Err)
}

// Unwrap returns the error of the failed chunk.
func (e *ChunkError) Unwrap() error {
	return e.Err
}

// IsAuthError reports whether err, or any error it wraps, is an
// AuthenticationError.
func IsAuthError(err error) bool {
	var authErr *AuthenticationError
	return errors.As(err, &authErr)
}

// IsRateLimited reports whether err was caused by a 429 response.
func IsRateLimited(err error) bool {
	var synthErr *SynthesisError
	return errors.As(err, &synthErr) && synthErr.StatusCode == http.StatusTooManyRequests
}

// classify turns a failed response into a typed error.
func classify(status int, message string) error {
	lower := strings.ToLower(message)
	if status == http.StatusUnauthorized || status == http.StatusForbidden ||
		strings.Contains(lower, "unauthorized") || strings.Contains(lower, "invalid api key") {
		return &AuthenticationError{StatusCode: status, Message: message}
	}
	return &SynthesisError{StatusCode: status, Message: message}
}
