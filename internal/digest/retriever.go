// Package digest turns indexed learning content into a ranked daily
// briefing: retrieve candidates by vector similarity, generate an insight
// per candidate, score each against the learner's progress and assemble
// the result.
package digest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/coachd/learning-coach-mcp/internal/vectorstore"
)

// Retrieval thresholds. The primary cut keeps only well-matched content;
// when it yields nothing the search is retried once at the relaxed cut so a
// sparse collection still produces a digest.
const (
	PrimaryThreshold  = 0.25
	FallbackThreshold = 0.15
)

// Embedder produces the query vector for a retrieval round.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// Searcher is the similarity-search half of the vector store.
type Searcher interface {
	SearchSimilar(ctx context.Context, embedding []float32, threshold float64, limit int) ([]vectorstore.ScoredDocument, error)
}

// Retriever finds candidate content for the learner's current topics.
type Retriever struct {
	embedder Embedder
	store    Searcher
	logger   *slog.Logger
}

// NewRetriever creates a retriever over the given embedder and store.
func NewRetriever(embedder Embedder, store Searcher, logger *slog.Logger) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{
		embedder: embedder,
		store:    store,
		logger:   logger,
	}
}

// Retrieve embeds the topics as one query and returns up to limit documents
// above the primary similarity threshold, falling back once to the relaxed
// threshold when nothing clears the primary one. Results keep the store's
// descending-similarity order. No topics means nothing to search for: the
// store is not contacted and no candidates are returned.
func (r *Retriever) Retrieve(ctx context.Context, topics []string, limit int) ([]vectorstore.ScoredDocument, error) {
	queryText := strings.Join(topics, " ")
	if queryText == "" {
		r.logger.Warn("no topics to retrieve content for")
		return nil, nil
	}

	queryVector, err := r.embedder.EmbedText(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	docs, err := r.store.SearchSimilar(ctx, queryVector, PrimaryThreshold, limit)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}

	if len(docs) == 0 {
		r.logger.Info("no content above primary threshold, retrying relaxed",
			"primary", PrimaryThreshold,
			"fallback", FallbackThreshold)
		docs, err = r.store.SearchSimilar(ctx, queryVector, FallbackThreshold, limit)
		if err != nil {
			return nil, fmt.Errorf("fallback similarity search: %w", err)
		}
	}

	r.logger.Debug("retrieved candidate content", "query", queryText, "count", len(docs))
	return docs, nil
}
