package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information (injected at build time via ldflags)
var (
	AppVersion = "development"
	BuildTime  = "unknown"
	GitCommit  = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runVersion(cmd)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command) error {
	cmd.Printf("voice-agent %s\n", AppVersion)
	cmd.Printf("Build Time: %s\n", BuildTime)
	cmd.Printf("Git Commit: %s\n", GitCommit)
	cmd.Println()

	cmd.Println("Environment:")
	for _, envVar := range []string{
		"OPENAI_API_KEY",
		"GEMINI_API_KEY",
		"WEATHERAPI_KEY",
		"TAVILY_API_KEY",
	} {
		cmd.Printf("  %s: %s\n", envVar, keyStatus(os.Getenv(envVar)))
	}

	return nil
}

// keyStatus reports whether a key is configured without leaking it.
func keyStatus(key string) string {
	if key == "" {
		return "not set"
	}
	if len(key) < 8 {
		return "configured"
	}
	return fmt.Sprintf("%s...%s (configured)", key[:4], key[len(key)-4:])
}
