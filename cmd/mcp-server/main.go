// Package main runs the learning coach MCP server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/coachd/learning-coach-mcp/internal/digest"
	"github.com/coachd/learning-coach-mcp/internal/embedding"
	ghclient "github.com/coachd/learning-coach-mcp/internal/github"
	"github.com/coachd/learning-coach-mcp/internal/indexer"
	"github.com/coachd/learning-coach-mcp/internal/ingest"
	"github.com/coachd/learning-coach-mcp/internal/journal"
	"github.com/coachd/learning-coach-mcp/internal/llm"
	"github.com/coachd/learning-coach-mcp/internal/markdown"
	mcpserver "github.com/coachd/learning-coach-mcp/internal/mcp"
	"github.com/coachd/learning-coach-mcp/internal/scheduler"
	"github.com/coachd/learning-coach-mcp/internal/vectorstore"
)

// Bounds for ingestion runs kicked off by the scheduler.
const (
	scheduledIngestTimeout  = 10 * time.Minute
	scheduledIngestMaxItems = 10
)

func main() {
	// Logs go to stderr: in stdio mode stdout belongs to the MCP protocol.
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	// Load .env if present (local development), ignore if missing (production).
	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, using environment variables")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	journalStore, err := journal.Open(getEnv("JOURNAL_PATH", "learning-coach.db"))
	if err != nil {
		logger.Error("failed to open journal", "error", err)
		os.Exit(1)
	}
	defer journalStore.Close()

	store, err := vectorstore.NewStore(getEnv("QDRANT_HOST", "localhost"), getEnvInt("QDRANT_PORT", 6334))
	if err != nil {
		logger.Error("failed to connect to Qdrant", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := store.EnsureCollection(ctx); err != nil {
		logger.Error("failed to ensure collection", "error", err)
		os.Exit(1)
	}

	embeddingClient, err := embedding.NewClient()
	if err != nil {
		logger.Error("failed to create embedding client", "error", err)
		os.Exit(1)
	}
	embedder := embedding.NewEmbedder(embeddingClient, os.Getenv("EMBEDDING_MODEL"), 0)

	llmClient, err := llm.NewClient(os.Getenv("GROQ_MODEL"))
	if err != nil {
		logger.Error("failed to create LLM client", "error", err)
		os.Exit(1)
	}

	gh, err := ghclient.NewClient(ctx)
	if err != nil {
		logger.Error("failed to create GitHub client", "error", err)
		os.Exit(1)
	}

	retriever := digest.NewRetriever(embedder, store, logger)
	scorer := digest.NewScorer(llmClient, logger)
	assembler := digest.NewAssembler(retriever, scorer, llmClient, journalStore, logger)

	pipeline := indexer.NewPipeline(
		journalStore,
		ingest.NewFetcher(),
		gh,
		markdown.NewSplitter(),
		embedder,
		store,
		logger,
	)

	// Optional cron-driven ingestion inside the server process.
	if spec := os.Getenv("INGEST_SCHEDULE"); spec != "" {
		sched := scheduler.New(logger)
		job := func() {
			runCtx, done := context.WithTimeout(context.Background(), scheduledIngestTimeout)
			defer done()
			res, err := pipeline.IngestAll(runCtx, "all", scheduledIngestMaxItems)
			if err != nil {
				logger.Error("scheduled ingestion failed", "error", err)
				return
			}
			logger.Info("scheduled ingestion finished",
				"sources", res.Sources,
				"stored", res.StoredItems,
				"failed", len(res.FailedItems),
			)
		}
		if err := sched.Add(spec, job); err != nil {
			logger.Error("invalid INGEST_SCHEDULE", "spec", spec, "error", err)
			os.Exit(1)
		}
		sched.Start()
		defer sched.Stop()
	}

	server := mcpserver.NewServer(&mcpserver.Config{
		Journal:   journalStore,
		Store:     store,
		Embedder:  embedder,
		Assembler: assembler,
		Pipeline:  pipeline,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/", mcpserver.NewLandingHandler())
	mux.HandleFunc("/health", mcpserver.NewHealthHandler(store))
	mux.Handle("/mcp", mcpserver.NewHTTPHandler(server, false))

	addr := "0.0.0.0:" + getEnv("PORT", "8080")

	// SERVER_MODE=true serves MCP over HTTP for remote clients; the default
	// is stdio for local clients, with /health still served in the background.
	if getEnv("SERVER_MODE", "false") == "true" {
		if err := runHTTP(ctx, addr, mux, logger); err != nil {
			logger.Error("http server failed", "error", err)
			os.Exit(1)
		}
		return
	}

	go func() {
		if err := runHTTP(ctx, addr, mux, logger); err != nil {
			logger.Warn("health endpoint unavailable", "error", err)
		}
	}()

	logger.Info("learning coach MCP server starting", "transport", "stdio")
	if err := server.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// runHTTP serves mux until ctx is canceled, then shuts down gracefully.
func runHTTP(ctx context.Context, addr string, mux *http.ServeMux, logger *slog.Logger) error {
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("HTTP server listening", "addr", addr, "mcp", "/mcp", "health", "/health")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
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
