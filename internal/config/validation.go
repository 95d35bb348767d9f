package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates a required API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidModelName indicates the realtime model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidBaseURL indicates the realtime endpoint is not a websocket URL.
	ErrInvalidBaseURL = errors.New("invalid realtime base URL")

	// ErrInvalidVoice indicates the voice name is empty.
	ErrInvalidVoice = errors.New("invalid voice")

	// ErrInvalidKnowledgePath indicates the knowledge store path is empty.
	ErrInvalidKnowledgePath = errors.New("invalid knowledge path")

	// ErrInvalidCollection indicates the knowledge collection name is empty.
	ErrInvalidCollection = errors.New("invalid knowledge collection")

	// ErrInvalidEmbedderModel indicates the embedder model is invalid.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidEndpoint indicates a tool endpoint is not an HTTP URL.
	ErrInvalidEndpoint = errors.New("invalid endpoint")

	// ErrInvalidUsageDBPath indicates the usage database path is empty.
	ErrInvalidUsageDBPath = errors.New("invalid usage database path")

	// ErrInvalidLogLevel indicates the log level is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
)

// Validate validates configuration values.
// Returns sentinel errors that can be checked with errors.Is().
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	// Only the session key is fail-fast: without it no session can exist.
	// The tool keys (and the embedder key behind the knowledge tool) are
	// passed through empty; the affected tool apologizes on every call
	// while the rest of the session keeps working.
	if os.Getenv("OPENAI_API_KEY") == "" {
		return fmt.Errorf("%w: OPENAI_API_KEY environment variable is required", ErrMissingAPIKey)
	}

	for _, envVar := range []string{
		"GEMINI_API_KEY",
		"WEATHERAPI_KEY",
		"TAVILY_API_KEY",
	} {
		if os.Getenv(envVar) == "" {
			slog.Warn("API key not set, the dependent tool will degrade on every call",
				"env_var", envVar)
		}
	}

	if c.RealtimeModel == "" {
		return fmt.Errorf("%w: realtime_model cannot be empty", ErrInvalidModelName)
	}

	if !strings.HasPrefix(c.RealtimeBaseURL, "ws://") && !strings.HasPrefix(c.RealtimeBaseURL, "wss://") {
		return fmt.Errorf("%w: must start with ws:// or wss://, got %q", ErrInvalidBaseURL, c.RealtimeBaseURL)
	}

	if c.Voice == "" {
		return fmt.Errorf("%w: voice cannot be empty", ErrInvalidVoice)
	}

	if c.KnowledgePath == "" {
		return fmt.Errorf("%w: knowledge_path cannot be empty", ErrInvalidKnowledgePath)
	}

	if c.KnowledgeCollection == "" {
		return fmt.Errorf("%w: knowledge_collection cannot be empty", ErrInvalidCollection)
	}

	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: embedder_model cannot be empty", ErrInvalidEmbedderModel)
	}

	for name, endpoint := range map[string]string{
		"weather_endpoint": c.WeatherEndpoint,
		"search_endpoint":  c.SearchEndpoint,
	} {
		if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
			return fmt.Errorf("%w: %s must start with http:// or https://, got %q", ErrInvalidEndpoint, name, endpoint)
		}
	}

	if c.UsageDBPath == "" {
		return fmt.Errorf("%w: usage_db_path cannot be empty", ErrInvalidUsageDBPath)
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: must be one of debug, info, warn, error; got %q", ErrInvalidLogLevel, c.LogLevel)
	}

	return nil
}
