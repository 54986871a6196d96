package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/coachd/learning-coach-mcp/internal/digest"
	"github.com/coachd/learning-coach-mcp/internal/llm"
)

var digestInsights int

func init() {
	digestCmd.Flags().IntVarP(&digestInsights, "insights", "n", 7, "Number of insights to include")
	rootCmd.AddCommand(digestCmd)
}

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Generate and print today's learning digest",
	Long: `Retrieves indexed content matching the recorded topics, generates an
insight per match, ranks by relevance and prints the result.

Examples:
  coachctl digest
  coachctl digest -n 3`,
	RunE: runDigest,
}

func runDigest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	journalStore, err := openJournal()
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer journalStore.Close()

	store, err := openStore(ctx)
	if err != nil {
		return fmt.Errorf("connect to Qdrant: %w", err)
	}
	defer store.Close()

	embedder, err := newEmbedder()
	if err != nil {
		return fmt.Errorf("create embedding client: %w", err)
	}

	llmClient, err := llm.NewClient(os.Getenv("GROQ_MODEL"))
	if err != nil {
		return fmt.Errorf("create LLM client: %w", err)
	}

	logger := slog.Default()
	assembler := digest.NewAssembler(
		digest.NewRetriever(embedder, store, logger),
		digest.NewScorer(llmClient, logger),
		llmClient,
		journalStore,
		logger,
	)

	d, err := assembler.GenerateDigest(ctx, digestInsights)
	if err != nil {
		if errors.Is(err, digest.ErrNoProgress) {
			fmt.Println("No progress recorded. Use 'coachctl progress set' first.")
			return nil
		}
		return fmt.Errorf("generate digest: %w", err)
	}

	printDigest(d)
	return nil
}

func printDigest(d *digest.Digest) {
	fmt.Printf("Learning digest for %s (week %d)\n", d.Date.Format("Mon 2 Jan 2006"), d.Week)
	fmt.Printf("Topics: %s\n", strings.Join(d.Topics, ", "))
	fmt.Println()

	if d.TotalInsights == 0 {
		fmt.Println(d.Summary)
		return
	}

	for i, ins := range d.Insights {
		fmt.Printf("%d. %s (relevance %.3f)\n", i+1, ins.Title, ins.RelevanceScore)
		fmt.Printf("   %s\n", ins.Insight)
		if ins.SourceURL != "" {
			fmt.Printf("   %s\n", ins.SourceURL)
		}
		fmt.Println()
	}

	fmt.Println(d.Summary)
}
