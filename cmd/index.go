package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/spf13/cobra"

	"github.com/azeddinshr/realtime-arabic-voice-agent/internal/knowledge"
)

// indexDocument is one JSONL line in an ingestion file.
type indexDocument struct {
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata"`
}

var indexCmd = &cobra.Command{
	Use:   "index <file.jsonl>",
	Short: "Ingest documents into the knowledge base",
	Long: `Ingest a JSONL file into the knowledge base collection.

Each line is a JSON object with "content" (required), and optional "id"
and "metadata" fields. Documents are embedded with the configured
embedder model and stored in the vector database, ready for
search_knowledge_base queries.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIndex(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, path string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	docs, err := readIndexFile(path)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("no documents found in %s", path)
	}

	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	if g == nil {
		return fmt.Errorf("initializing genkit")
	}
	embedder := googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)

	store, err := knowledge.Open(cfg.KnowledgePath, cfg.KnowledgeCollection,
		knowledge.NewEmbeddingFunc(embedder), logger)
	if err != nil {
		return fmt.Errorf("opening knowledge store: %w", err)
	}

	if err := store.Add(ctx, docs); err != nil {
		return fmt.Errorf("indexing documents: %w", err)
	}

	cmd.Printf("Indexed %d documents into %q (%d total)\n",
		len(docs), cfg.KnowledgeCollection, store.Count())
	return nil
}

// readIndexFile parses a JSONL file into documents, reporting the line
// number of the first malformed entry.
func readIndexFile(path string) ([]knowledge.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening index file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var docs []knowledge.Document

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var doc indexDocument
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("parsing %s line %d: %w", path, line, err)
		}
		if doc.Content == "" {
			return nil, fmt.Errorf("%s line %d: content is required", path, line)
		}

		docs = append(docs, knowledge.Document{
			ID:       doc.ID,
			Content:  doc.Content,
			Metadata: doc.Metadata,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading index file: %w", err)
	}

	return docs, nil
}
