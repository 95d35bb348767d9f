// Package knowledge manages the embedded vector index behind the
// knowledge-base search tool.
//
// The index is a chromem-go persistent database holding a pre-populated
// collection of Arabic QA passages. Opening the store is expensive
// (reads the collection from disk and constructs the embedding bridge),
// so the agent wraps it in a Lazy holder and pays the cost on the first
// tool call only. Once open, the store is read-mostly and safe for
// concurrent use.
package knowledge

import (
	"context"
	"errors"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"
	chromem "github.com/philippgille/chromem-go"
	"golang.org/x/sync/errgroup"

	"github.com/azeddinshr/realtime-arabic-voice-agent/internal/log"
)

// NewEmbeddingFunc adapts a Genkit embedder to the function signature
// chromem-go calls for every insert and query. Each invocation embeds a
// single text; chromem-go handles vector normalization on its side.
func NewEmbeddingFunc(embedder ai.Embedder) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		resp, err := embedder.Embed(ctx, &ai.EmbedRequest{
			Input: []*ai.Document{ai.DocumentFromText(text, nil)},
		})
		if err != nil {
			return nil, fmt.Errorf("embedding text: %w", err)
		}
		if len(resp.Embeddings) == 0 {
			return nil, errors.New("embedder returned no vectors")
		}
		return resp.Embeddings[0].Embedding, nil
	}
}

// Store wraps a single chromem collection with query and ingestion
// operations.
type Store struct {
	collection *chromem.Collection
	logger     log.Logger
}

// Open opens (or creates) the persistent database at path and the named
// collection inside it, using embed for both ingestion and queries.
func Open(path, collection string, embed chromem.EmbeddingFunc, logger log.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("store path is required")
	}
	if collection == "" {
		return nil, fmt.Errorf("collection name is required")
	}
	if embed == nil {
		return nil, fmt.Errorf("embedding func is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("opening vector db at %s: %w", path, err)
	}

	c, err := db.GetOrCreateCollection(collection, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("opening collection %s: %w", collection, err)
	}

	logger.Info("knowledge collection opened",
		"path", path,
		"collection", collection,
		"documents", c.Count())

	return &Store{collection: c, logger: logger}, nil
}

// NewStoreWithCollection wraps an already-constructed collection.
// Used by tests with an in-memory chromem database.
func NewStoreWithCollection(c *chromem.Collection, logger log.Logger) (*Store, error) {
	if c == nil {
		return nil, fmt.Errorf("collection is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Store{collection: c, logger: logger}, nil
}

// Query embeds the query text and returns up to topK nearest passages in
// similarity order. topK is clamped to the collection size; an empty
// collection yields zero results rather than an error.
func (s *Store) Query(ctx context.Context, query string, topK int) ([]Result, error) {
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}
	if topK <= 0 {
		return nil, fmt.Errorf("topK must be positive, got %d", topK)
	}

	// chromem rejects nResults larger than the collection.
	if n := s.collection.Count(); n < topK {
		topK = n
	}
	if topK == 0 {
		return nil, nil
	}

	matches, err := s.collection.Query(ctx, query, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("querying collection: %w", err)
	}

	results := make([]Result, 0, len(matches))
	for _, m := range matches {
		results = append(results, Result{
			Document: Document{
				ID:       m.ID,
				Content:  m.Content,
				Metadata: m.Metadata,
			},
			Similarity: m.Similarity,
		})
	}

	s.logger.Debug("knowledge query", "query", query, "results", len(results))
	return results, nil
}

// addConcurrency bounds concurrent embedding calls during ingestion.
const addConcurrency = 4

// Add embeds and stores the given documents. Documents without an ID get
// a generated one. Used by the index command; the agent itself only reads.
func (s *Store) Add(ctx context.Context, docs []Document) error {
	for _, doc := range docs {
		if doc.Content == "" {
			return fmt.Errorf("document %q has no content", doc.ID)
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(addConcurrency)

	for _, doc := range docs {
		id := doc.ID
		if id == "" {
			id = uuid.NewString()
		}
		content := doc.Content
		metadata := doc.Metadata

		g.Go(func() error {
			err := s.collection.AddDocument(ctx, chromem.Document{
				ID:       id,
				Content:  content,
				Metadata: metadata,
			})
			if err != nil {
				return fmt.Errorf("adding document %q: %w", id, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	s.logger.Info("documents added", "count", len(docs), "total", s.collection.Count())
	return nil
}

// Count returns the number of documents in the collection.
func (s *Store) Count() int {
	return s.collection.Count()
}
