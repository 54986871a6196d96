// Package main provides the coachctl CLI entry point.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "coachctl",
	Short: "Learning coach administration tool",
	Long: `coachctl manages the learning coach from the command line: content
sources, learner progress, ingestion runs and digests.

Commands use the same environment the MCP server runs with:

  JOURNAL_PATH    SQLite journal path (default: learning-coach.db)
  QDRANT_HOST     Qdrant hostname (default: localhost)
  QDRANT_PORT     Qdrant gRPC port (default: 6334)
  OPENAI_API_KEY  OpenAI API key for embeddings
  GROQ_API_KEY    Groq API key for insight generation
  GITHUB_TOKEN    GitHub token for higher rate limits (optional)`,
	SilenceUsage: true,
}

func main() {
	// Load .env file if present (local development), ignore if missing.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
