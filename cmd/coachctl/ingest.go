package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	ingestType     string
	ingestMaxItems int
	ingestReset    bool
)

func init() {
	ingestCmd.Flags().StringVar(&ingestType, "type", "all", "Only ingest sources of this type (rss|blog|github)")
	ingestCmd.Flags().IntVar(&ingestMaxItems, "max-items", 10, "Maximum items to index per source")
	ingestCmd.Flags().BoolVar(&ingestReset, "reset", false, "Clear the vector store before ingesting")
	rootCmd.AddCommand(ingestCmd)
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Fetch all registered sources and index their content",
	Long: `Fetches every registered content source, embeds the items and stores
them in the vector store.

This command:
1. Opens the journal and connects to Qdrant
2. Optionally clears the existing collection (--reset)
3. Fetches each source (RSS entries, blog pages, GitHub markdown sections)
4. Generates embeddings and upserts the items

Examples:
  coachctl ingest
  coachctl ingest --type rss --max-items 20
  coachctl ingest --reset`,
	RunE: runIngest,
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	start := time.Now()

	fmt.Println("Starting ingestion...")
	fmt.Println()

	// 1. Open the journal
	journalStore, err := openJournal()
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer journalStore.Close()

	// 2. Connect to Qdrant
	fmt.Printf("Connecting to Qdrant at %s:%d...\n", getEnv("QDRANT_HOST", "localhost"), getEnvInt("QDRANT_PORT", 6334))
	store, err := openStore(ctx)
	if err != nil {
		return fmt.Errorf("connect to Qdrant: %w", err)
	}
	defer store.Close()

	if err := store.Health(ctx); err != nil {
		return fmt.Errorf("Qdrant health check failed: %w", err)
	}
	fmt.Println("Qdrant healthy")

	// 3. Optionally clear the collection
	if ingestReset {
		fmt.Println()
		fmt.Println("Clearing existing collection...")
		if err := store.ClearCollection(ctx); err != nil {
			return fmt.Errorf("clear collection: %w", err)
		}
		fmt.Println("Collection cleared")
	}

	// 4. Wire the pipeline and run
	pipeline, err := newPipeline(ctx, journalStore, store)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("Indexing content from registered sources...")
	result, err := pipeline.IngestAll(ctx, ingestType, ingestMaxItems)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	// 5. Print results
	fmt.Println()
	fmt.Println("Ingestion complete!")
	fmt.Printf("  Sources: %d\n", result.Sources)
	fmt.Printf("  Items: %d/%d\n", result.StoredItems, result.TotalItems)
	fmt.Printf("  Duration: %s\n", result.Duration.Round(time.Second))

	if len(result.FailedItems) > 0 {
		fmt.Println()
		fmt.Println("Failed items:")
		for _, failed := range result.FailedItems {
			fmt.Printf("  - %s: %s\n", failed.Title, failed.Reason)
		}
	}

	fmt.Println()
	fmt.Printf("Total time: %s\n", time.Since(start).Round(time.Second))

	return nil
}
