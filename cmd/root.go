// Package cmd contains the CLI entry points for the voice agent.
package cmd

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/azeddinshr/realtime-arabic-voice-agent/internal/config"
	"github.com/azeddinshr/realtime-arabic-voice-agent/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "voice-agent",
	Short: "Arabic realtime voice assistant",
	Long: `voice-agent is an Arabic-speaking realtime voice assistant.

It connects to a hosted speech-to-speech model and answers questions
using three tools: a local Arabic knowledge base, current weather
lookups, and web search. Run it without arguments to start a session.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Local development reads secrets from .env; its absence is fine.
		if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
			cmd.Printf("warning: could not load .env: %v\n", err)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSession(cmd.Context())
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// setup loads the configuration and builds the logger from it. Shared
// by the commands that need a fully configured environment.
func setup() (*config.Config, log.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	logger := log.New(log.Config{
		Level: log.ParseLevel(cfg.LogLevel),
		JSON:  cfg.LogJSON,
	})

	return cfg, logger, nil
}
