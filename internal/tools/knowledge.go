package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/azeddinshr/realtime-arabic-voice-agent/internal/knowledge"
	"github.com/azeddinshr/realtime-arabic-voice-agent/internal/log"
)

// SearchKnowledgeBaseName is the invocable name of the knowledge-base tool.
const SearchKnowledgeBaseName = "search_knowledge_base"

const (
	// knowledgeTopK is the fixed number of passages retrieved per query.
	knowledgeTopK = 3

	// knowledgePassageRunes is the fixed truncation length for each
	// returned passage. Part of the observable contract, not tuning.
	knowledgePassageRunes = 300

	// knowledgeQueryTimeout bounds the embed-and-search round trip, for
	// parity with the HTTP tools' per-call timeouts.
	knowledgeQueryTimeout = 10 * time.Second
)

// Fixed user-facing strings of the knowledge-base tool.
const (
	knowledgeHeader  = "المعلومات من قاعدة المعرفة:\n\n"
	knowledgeNoMatch = "لم أجد معلومات ذات صلة في قاعدة المعرفة."
	knowledgeApology = "عذراً، حدث خطأ أثناء البحث في قاعدة المعرفة."
)

const searchKnowledgeBaseDescription = "Search the Arabic knowledge base for factual information. " +
	"Use this for factual questions about history, science, geography, or culture, " +
	"and for questions in Arabic or about Arabic topics. " +
	"Do NOT use for current events or recent news (use search_web), " +
	"weather (use get_current_weather), or simple greetings. " +
	"Example queries: \"ما هي عاصمة مصر؟\", \"من هو أول رئيس للمغرب؟\", \"أخبرني عن تاريخ الأندلس\"."

// SearchKnowledgeBaseInput is the single-argument input of the tool.
type SearchKnowledgeBaseInput struct {
	Query string `json:"query" jsonschema:"the search query in Arabic or English"`
}

// KnowledgeSource is the read side of the vector index as consumed by the
// knowledge-base tool.
type KnowledgeSource interface {
	Query(ctx context.Context, query string, topK int) ([]knowledge.Result, error)
}

// SourceProvider yields the shared knowledge source, initializing it on
// first use. knowledge.Lazy satisfies this via a small adapter closure.
type SourceProvider func(ctx context.Context) (KnowledgeSource, error)

// NewKnowledgeTool builds the search_knowledge_base tool on top of the
// given lazily-provided source.
func NewKnowledgeTool(provider SourceProvider, logger log.Logger) (*Tool, error) {
	if provider == nil {
		return nil, fmt.Errorf("source provider is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	handler := func(ctx context.Context, input SearchKnowledgeBaseInput) Outcome {
		ctx, cancel := context.WithTimeout(ctx, knowledgeQueryTimeout)
		defer cancel()

		source, err := provider(ctx)
		if err != nil {
			return Upstream(knowledgeApology, fmt.Errorf("initializing knowledge source: %w", err))
		}

		results, err := source.Query(ctx, input.Query, knowledgeTopK)
		if err != nil {
			return Upstream(knowledgeApology, fmt.Errorf("searching knowledge base: %w", err))
		}

		if len(results) == 0 {
			return Empty(knowledgeNoMatch)
		}

		return OK(formatKnowledgeResults(results))
	}

	return New(SearchKnowledgeBaseName, searchKnowledgeBaseDescription, knowledgeApology, handler)
}

// formatKnowledgeResults renders matched passages as 1-indexed blocks,
// each truncated to the fixed passage length with an ellipsis marker.
func formatKnowledgeResults(results []knowledge.Result) string {
	var b strings.Builder
	b.WriteString(knowledgeHeader)
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s...\n\n", i+1, truncate(r.Document.Content, knowledgePassageRunes))
	}
	return b.String()
}
