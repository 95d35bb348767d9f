package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		RealtimeModel:       DefaultRealtimeModel,
		RealtimeBaseURL:     "wss://api.openai.com/v1/realtime",
		Voice:               DefaultVoice,
		KnowledgePath:       "./chroma_db",
		KnowledgeCollection: DefaultKnowledgeCollection,
		EmbedderModel:       DefaultGeminiEmbedderModel,
		WeatherEndpoint:     "https://api.weatherapi.com/v1",
		SearchEndpoint:      "https://api.tavily.com/search",
		UsageDBPath:         "./usage.db",
		LogLevel:            "info",
	}
}

func setRequiredKeys(t *testing.T) {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("GEMINI_API_KEY", "gm-test")
	t.Setenv("WEATHERAPI_KEY", "wa-test")
	t.Setenv("TAVILY_API_KEY", "tv-test")
}

func TestValidate_Valid(t *testing.T) {
	setRequiredKeys(t)
	require.NoError(t, validConfig().Validate())
}

func TestValidate_NilConfig(t *testing.T) {
	var cfg *Config
	assert.ErrorIs(t, cfg.Validate(), ErrConfigNil)
}

func TestValidate_MissingSessionKey(t *testing.T) {
	setRequiredKeys(t)
	t.Setenv("OPENAI_API_KEY", "")

	err := validConfig().Validate()
	assert.ErrorIs(t, err, ErrMissingAPIKey)
	assert.ErrorContains(t, err, "OPENAI_API_KEY")
}

func TestValidate_ToolKeysOptional(t *testing.T) {
	// Missing tool keys degrade the dependent tool per call; they must
	// not prevent the session from starting.
	keys := []string{"GEMINI_API_KEY", "WEATHERAPI_KEY", "TAVILY_API_KEY"}

	for _, missing := range keys {
		t.Run(missing, func(t *testing.T) {
			setRequiredKeys(t)
			t.Setenv(missing, "")

			assert.NoError(t, validConfig().Validate())
		})
	}
}

func TestValidate_FieldErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"empty model", func(c *Config) { c.RealtimeModel = "" }, ErrInvalidModelName},
		{"http base url", func(c *Config) { c.RealtimeBaseURL = "https://api.openai.com" }, ErrInvalidBaseURL},
		{"empty base url", func(c *Config) { c.RealtimeBaseURL = "" }, ErrInvalidBaseURL},
		{"empty voice", func(c *Config) { c.Voice = "" }, ErrInvalidVoice},
		{"empty knowledge path", func(c *Config) { c.KnowledgePath = "" }, ErrInvalidKnowledgePath},
		{"empty collection", func(c *Config) { c.KnowledgeCollection = "" }, ErrInvalidCollection},
		{"empty embedder model", func(c *Config) { c.EmbedderModel = "" }, ErrInvalidEmbedderModel},
		{"bad weather endpoint", func(c *Config) { c.WeatherEndpoint = "ftp://weather" }, ErrInvalidEndpoint},
		{"bad search endpoint", func(c *Config) { c.SearchEndpoint = "tavily.com" }, ErrInvalidEndpoint},
		{"empty usage db path", func(c *Config) { c.UsageDBPath = "" }, ErrInvalidUsageDBPath},
		{"unknown log level", func(c *Config) { c.LogLevel = "verbose" }, ErrInvalidLogLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredKeys(t)

			cfg := validConfig()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), tt.wantErr)
		})
	}
}

func TestValidate_LogLevelCaseInsensitive(t *testing.T) {
	setRequiredKeys(t)

	for _, level := range []string{"DEBUG", "Info", "warn", "ERROR"} {
		cfg := validConfig()
		cfg.LogLevel = level
		assert.NoError(t, cfg.Validate(), "level %q", level)
	}
}
