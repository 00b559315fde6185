package tts

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/lekman/tts-code/tts/elevenlabs"
)

// Common errors for the TTS system.
var (
	// ErrNotInitialized is returned by generation before Initialize was
	// called with an API key.
	ErrNotInitialized = errors.New("TTS controller not initialized")

	// ErrEmptyDocument is returned when a document has no text to speak.
	ErrEmptyDocument = errors.New("document is empty")

	// ErrUnsupportedDocument is returned for files that are neither
	// markdown nor plain text.
	ErrUnsupportedDocument = errors.New("only markdown and text files are supported")

	// ErrNoAudio is returned when an operation needs generated audio.
	ErrNoAudio = errors.New("no audio has been generated")
)

// UserFriendlyMessage turns err into a message suitable for the status bar.
func UserFriendlyMessage(err error) string {
	if err == nil {
		return ""
	}

	var netErr net.Error
	switch {
	case elevenlabs.IsAuthError(err), errors.Is(err, elevenlabs.ErrMissingAPIKey):
		return "API key is missing or invalid. Please check your settings."
	case elevenlabs.IsRateLimited(err):
		return "Rate limit exceeded. Please try again later."
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return "Request timed out. Please try again."
	case errors.As(err, &netErr):
		return "Network error. Please check your internet connection."
	}

	msg := err.Error()
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "api key"):
		return "API key is missing or invalid. Please check your settings."
	case strings.Contains(lower, "rate limit"):
		return "Rate limit exceeded. Please try again later."
	case strings.Contains(lower, "network"), strings.Contains(lower, "fetch"):
		return "Network error. Please check your internet connection."
	case strings.Contains(lower, "timeout"):
		return "Request timed out. Please try again."
	}
	return msg
}
