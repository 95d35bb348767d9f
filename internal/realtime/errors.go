package realtime

import (
	"errors"
	"fmt"
)

// Sentinel errors for the realtime package.
var (
	// ErrMissingAPIKey indicates the API key was not provided.
	ErrMissingAPIKey = errors.New("realtime: API key is required")

	// ErrNotConnected indicates the client is not connected.
	ErrNotConnected = errors.New("realtime: not connected")

	// ErrAlreadyConnected indicates Connect was called twice.
	ErrAlreadyConnected = errors.New("realtime: already connected")
)

// APIError is an error event reported by the realtime API.
type APIError struct {
	// StatusCode is the HTTP status code, when the error came from the
	// websocket handshake.
	StatusCode int

	// Code is the error code from the API event.
	Code string

	// Message is the human-readable error message.
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("realtime: API error [%s]: %s", e.Code, e.Message)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("realtime: API error (HTTP %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("realtime: API error: %s", e.Message)
}
