// Package config provides application configuration management with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.voice-agent/config.yaml)
//  3. Default values (sensible defaults for quick start)
//
// Main configuration categories:
//   - Realtime: speech model, voice, websocket endpoint
//   - Knowledge: vector store path, collection, embedder model
//   - Tools: weather and web-search endpoints
//   - Usage: session usage database path
//   - Logging: level and format
//
// Secrets (OPENAI_API_KEY, GEMINI_API_KEY, WEATHERAPI_KEY, TAVILY_API_KEY)
// are read from the environment only and never stored in this struct, so
// the config is safe to log as-is.
//
// Error Handling:
//   - Uses sentinel errors for Go-idiomatic error checking with errors.Is()
//   - Wrap with context using fmt.Errorf("%w: details", ErrXxx)
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	// DefaultGeminiEmbedderModel is the default embedder for the
	// knowledge base vectors.
	DefaultGeminiEmbedderModel = "gemini-embedding-001"

	// DefaultRealtimeModel is the default realtime speech model.
	DefaultRealtimeModel = "gpt-4o-realtime-preview"

	// DefaultVoice is the assistant's default speech voice.
	DefaultVoice = "alloy"

	// DefaultKnowledgeCollection is the default vector collection name.
	DefaultKnowledgeCollection = "arabica_qa"
)

// Config stores application configuration.
type Config struct {
	// Realtime session configuration
	RealtimeModel   string `mapstructure:"realtime_model" json:"realtime_model"`
	RealtimeBaseURL string `mapstructure:"realtime_base_url" json:"realtime_base_url"`
	Voice           string `mapstructure:"voice" json:"voice"`

	// Knowledge base configuration
	KnowledgePath       string `mapstructure:"knowledge_path" json:"knowledge_path"`
	KnowledgeCollection string `mapstructure:"knowledge_collection" json:"knowledge_collection"`
	EmbedderModel       string `mapstructure:"embedder_model" json:"embedder_model"`

	// Tool endpoints (overridable for testing against fakes)
	WeatherEndpoint string `mapstructure:"weather_endpoint" json:"weather_endpoint"`
	SearchEndpoint  string `mapstructure:"search_endpoint" json:"search_endpoint"`

	// Usage persistence
	UsageDBPath string `mapstructure:"usage_db_path" json:"usage_db_path"`

	// Logging configuration
	LogLevel string `mapstructure:"log_level" json:"log_level"`
	LogJSON  bool   `mapstructure:"log_json" json:"log_json"`
}

// Load loads configuration.
// Priority: Environment variables > Configuration file > Default values
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".voice-agent")

	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".") // Also support current directory

	setDefaults(configDir)
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		// Configuration file not found is not an error, use default values
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{configDir, "."},
			"config_name", "config.yaml")
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(configDir string) {
	// Realtime defaults
	viper.SetDefault("realtime_model", DefaultRealtimeModel)
	viper.SetDefault("realtime_base_url", "wss://api.openai.com/v1/realtime")
	viper.SetDefault("voice", DefaultVoice)

	// Knowledge defaults
	viper.SetDefault("knowledge_path", "./chroma_db")
	viper.SetDefault("knowledge_collection", DefaultKnowledgeCollection)
	viper.SetDefault("embedder_model", DefaultGeminiEmbedderModel)

	// Tool endpoint defaults
	viper.SetDefault("weather_endpoint", "https://api.weatherapi.com/v1")
	viper.SetDefault("search_endpoint", "https://api.tavily.com/search")

	// Usage defaults
	viper.SetDefault("usage_db_path", filepath.Join(configDir, "usage.db"))

	// Logging defaults
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_json", false)
}

// bindEnvVariables binds non-secret overrides explicitly.
// Secrets (OPENAI_API_KEY, GEMINI_API_KEY, WEATHERAPI_KEY,
// TAVILY_API_KEY) are read directly from the environment by the
// components that need them; Validate checks their presence.
func bindEnvVariables() {
	// Helper to panic on unexpected bind errors (hardcoded strings can't fail)
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("realtime_model", "VOICE_AGENT_REALTIME_MODEL")
	mustBind("realtime_base_url", "VOICE_AGENT_REALTIME_BASE_URL")
	mustBind("voice", "VOICE_AGENT_VOICE")
	mustBind("knowledge_path", "VOICE_AGENT_KNOWLEDGE_PATH")
	mustBind("knowledge_collection", "VOICE_AGENT_KNOWLEDGE_COLLECTION")
	mustBind("embedder_model", "VOICE_AGENT_EMBEDDER_MODEL")
	mustBind("weather_endpoint", "VOICE_AGENT_WEATHER_ENDPOINT")
	mustBind("search_endpoint", "VOICE_AGENT_SEARCH_ENDPOINT")
	mustBind("usage_db_path", "VOICE_AGENT_USAGE_DB_PATH")
	mustBind("log_level", "VOICE_AGENT_LOG_LEVEL")
	mustBind("log_json", "VOICE_AGENT_LOG_JSON")
}
