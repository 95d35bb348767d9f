package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/azeddinshr/realtime-arabic-voice-agent/internal/log"
)

// SearchWebName is the invocable name of the web-search tool.
const SearchWebName = "search_web"

// DefaultSearchEndpoint is the Tavily search API URL.
const DefaultSearchEndpoint = "https://api.tavily.com/search"

const (
	// searchTimeout bounds the web-search call.
	searchTimeout = 8 * time.Second

	// searchMaxResults is the fixed cap on rendered results.
	searchMaxResults = 3

	// searchSnippetRunes is the fixed truncation length for each
	// result's content.
	searchSnippetRunes = 200
)

// Fixed user-facing strings of the web-search tool.
const (
	searchHeader  = "نتائج البحث:\n\n"
	searchNoMatch = "لم أجد نتائج ذات صلة بهذا الموضوع."
	searchApology = "عذراً، حدث خطأ أثناء البحث على الإنترنت."
)

const searchWebDescription = "Search the web for current information, news, and recent events. " +
	"Use this when the user asks about recent news or current events, needs up-to-date information, " +
	"explicitly asks to search or look something up, " +
	"or the question contains words like: آخر الأخبار، ابحث، جديد. " +
	"Do NOT use for well-known historical facts, weather (use get_current_weather), " +
	"or general knowledge questions (use search_knowledge_base). " +
	"Example queries: \"ابحث عن آخر أخبار المغرب\", \"What are the latest AI developments?\"."

// SearchWebInput is the single-argument input of the tool.
type SearchWebInput struct {
	Query string `json:"query" jsonschema:"the search query, any language"`
}

// searchRequest is the Tavily request body.
type searchRequest struct {
	APIKey      string `json:"api_key"`
	Query       string `json:"query"`
	SearchDepth string `json:"search_depth"`
	MaxResults  int    `json:"max_results"`
}

// searchResponse mirrors the Tavily response fields the reply uses.
type searchResponse struct {
	Results []searchResult `json:"results"`
}

type searchResult struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	URL     string `json:"url"`
}

// SearchConfig configures the web-search tool's upstream call.
type SearchConfig struct {
	// Endpoint is the search API URL. Defaults to DefaultSearchEndpoint.
	Endpoint string

	// APIKey is the Tavily key from the environment. An empty key is
	// passed through: the upstream rejects the call and the tool degrades.
	APIKey string
}

// NewWebSearchTool builds the search_web tool.
func NewWebSearchTool(cfg SearchConfig, logger log.Logger) (*Tool, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultSearchEndpoint
	}

	client := &http.Client{Timeout: searchTimeout}

	handler := func(ctx context.Context, input SearchWebInput) Outcome {
		body, err := json.Marshal(searchRequest{
			APIKey:      cfg.APIKey,
			Query:       input.Query,
			SearchDepth: "basic",
			MaxResults:  searchMaxResults,
		})
		if err != nil {
			return Malformed(searchApology, fmt.Errorf("encoding search request: %w", err))
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.Endpoint, bytes.NewReader(body))
		if err != nil {
			return Upstream(searchApology, fmt.Errorf("building search request: %w", err))
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return Upstream(searchApology, fmt.Errorf("search request: %w", err))
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return Upstream(searchApology, fmt.Errorf("search api returned status %d", resp.StatusCode))
		}

		var data searchResponse
		if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
			return Malformed(searchApology, fmt.Errorf("decoding search response: %w", err))
		}

		if len(data.Results) == 0 {
			return Empty(searchNoMatch)
		}

		return OK(formatSearchResults(data.Results))
	}

	return New(SearchWebName, searchWebDescription, searchApology, handler)
}

// formatSearchResults renders up to the first three results as 1-indexed
// blocks of title, truncated content, and source URL.
func formatSearchResults(results []searchResult) string {
	if len(results) > searchMaxResults {
		results = results[:searchMaxResults]
	}

	var b strings.Builder
	b.WriteString(searchHeader)
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s\n", i+1, r.Title)
		fmt.Fprintf(&b, "   %s...\n", truncate(r.Content, searchSnippetRunes))
		fmt.Fprintf(&b, "   المصدر: %s\n\n", r.URL)
	}
	return b.String()
}
