package main

import (
	"context"
	"log/slog"
	"os"
	"strconv"

	"github.com/coachd/learning-coach-mcp/internal/embedding"
	ghclient "github.com/coachd/learning-coach-mcp/internal/github"
	"github.com/coachd/learning-coach-mcp/internal/indexer"
	"github.com/coachd/learning-coach-mcp/internal/ingest"
	"github.com/coachd/learning-coach-mcp/internal/journal"
	"github.com/coachd/learning-coach-mcp/internal/markdown"
	"github.com/coachd/learning-coach-mcp/internal/vectorstore"
)

// openJournal opens the SQLite journal the MCP server also uses.
func openJournal() (*journal.Store, error) {
	return journal.Open(getEnv("JOURNAL_PATH", "learning-coach.db"))
}

// openStore connects to Qdrant and makes sure the collection exists.
func openStore(ctx context.Context) (*vectorstore.Store, error) {
	store, err := vectorstore.NewStore(getEnv("QDRANT_HOST", "localhost"), getEnvInt("QDRANT_PORT", 6334))
	if err != nil {
		return nil, err
	}
	if err := store.EnsureCollection(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

// newEmbedder builds the embedding client from the environment.
func newEmbedder() (*embedding.Embedder, error) {
	client, err := embedding.NewClient()
	if err != nil {
		return nil, err
	}
	return embedding.NewEmbedder(client, os.Getenv("EMBEDDING_MODEL"), 0), nil
}

// newPipeline wires the full ingestion pipeline over an open journal and store.
func newPipeline(ctx context.Context, journalStore *journal.Store, store *vectorstore.Store) (*indexer.Pipeline, error) {
	embedder, err := newEmbedder()
	if err != nil {
		return nil, err
	}

	gh, err := ghclient.NewClient(ctx)
	if err != nil {
		return nil, err
	}

	return indexer.NewPipeline(
		journalStore,
		ingest.NewFetcher(),
		gh,
		markdown.NewSplitter(),
		embedder,
		store,
		slog.Default(),
	), nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
