package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/azeddinshr/realtime-arabic-voice-agent/internal/agent"
	"github.com/azeddinshr/realtime-arabic-voice-agent/internal/config"
	"github.com/azeddinshr/realtime-arabic-voice-agent/internal/knowledge"
	"github.com/azeddinshr/realtime-arabic-voice-agent/internal/log"
	"github.com/azeddinshr/realtime-arabic-voice-agent/internal/realtime"
	"github.com/azeddinshr/realtime-arabic-voice-agent/internal/tools"
	"github.com/azeddinshr/realtime-arabic-voice-agent/internal/usage"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start a voice session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSession(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// runSession starts one voice session and blocks until the connection
// drops or the process receives SIGINT/SIGTERM. On shutdown it logs the
// session's token usage and persists the summary.
func runSession(ctx context.Context) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry, err := buildRegistry(cfg, logger)
	if err != nil {
		return fmt.Errorf("building tool registry: %w", err)
	}

	client, err := realtime.NewClient(realtime.Config{
		APIKey:  os.Getenv("OPENAI_API_KEY"),
		Model:   cfg.RealtimeModel,
		BaseURL: cfg.RealtimeBaseURL,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("creating realtime client: %w", err)
	}

	sessionID := uuid.NewString()
	collector := usage.NewCollector(sessionID)

	assistant, err := agent.New(client, registry, collector, logger, agent.Options{
		Voice: cfg.Voice,
	})
	if err != nil {
		return fmt.Errorf("creating assistant: %w", err)
	}

	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("connecting: %w", err)
	}
	defer func() { _ = client.Close() }()

	if err := assistant.Start(ctx); err != nil {
		return fmt.Errorf("starting assistant: %w", err)
	}

	logger.Info("session started", "session_id", sessionID, "model", cfg.RealtimeModel)

	// Block until interrupted.
	<-ctx.Done()

	logger.Info("shutting down")
	reportUsage(assistant, cfg, logger)
	return nil
}

// buildRegistry assembles the three tools. The knowledge store is
// deferred behind a lazy holder so the embedder and the vector database
// only load on the first knowledge query.
func buildRegistry(cfg *config.Config, logger log.Logger) (*tools.Registry, error) {
	lazy := knowledge.NewLazy(func(ctx context.Context) (*knowledge.Store, error) {
		g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
		if g == nil {
			return nil, fmt.Errorf("initializing genkit")
		}
		embedder := googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
		return knowledge.Open(cfg.KnowledgePath, cfg.KnowledgeCollection,
			knowledge.NewEmbeddingFunc(embedder), logger)
	})

	knowledgeTool, err := tools.NewKnowledgeTool(func(ctx context.Context) (tools.KnowledgeSource, error) {
		return lazy.Get(ctx)
	}, logger)
	if err != nil {
		return nil, err
	}

	weatherTool, err := tools.NewWeatherTool(tools.WeatherConfig{
		Endpoint: cfg.WeatherEndpoint,
		APIKey:   os.Getenv("WEATHERAPI_KEY"),
	}, logger)
	if err != nil {
		return nil, err
	}

	searchTool, err := tools.NewWebSearchTool(tools.SearchConfig{
		Endpoint: cfg.SearchEndpoint,
		APIKey:   os.Getenv("TAVILY_API_KEY"),
	}, logger)
	if err != nil {
		return nil, err
	}

	return tools.NewRegistry(logger, knowledgeTool, weatherTool, searchTool)
}

// reportUsage logs the session summary and persists it. Persistence
// failures are logged, not fatal: the session already happened.
func reportUsage(assistant *agent.Assistant, cfg *config.Config, logger log.Logger) {
	summary := assistant.UsageSummary()

	logger.Info("session usage",
		"session_id", summary.SessionID,
		"responses", summary.Responses,
		"total_tokens", summary.TotalTokens,
		"input_tokens", summary.InputTokens,
		"output_tokens", summary.OutputTokens,
		"input_audio_tokens", summary.InputAudioTokens,
		"output_audio_tokens", summary.OutputAudioTokens,
		"cached_tokens", summary.InputCachedTokens,
	)

	ctx := context.Background()
	store, err := usage.OpenStore(ctx, cfg.UsageDBPath, logger)
	if err != nil {
		logger.Error("could not open usage store", "error", err)
		return
	}
	defer func() { _ = store.Close() }()

	if err := store.RecordSummary(ctx, summary); err != nil {
		logger.Error("could not persist usage summary", "error", err)
	}
}
