package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/coachd/learning-coach-mcp/internal/ingest"
	"github.com/coachd/learning-coach-mcp/internal/llm"
)

const (
	// addMaxItems caps the immediate ingestion after registering a source.
	addMaxItems = 10
	// maxDerivedTags caps LLM-derived tags per source.
	maxDerivedTags = 5
)

var (
	addSourceType string
	addSourceTags []string
	addDeriveTags bool
	addNoIngest   bool
)

func init() {
	sourcesAddCmd.Flags().StringVar(&addSourceType, "type", "rss", "Source type (rss|blog|github)")
	sourcesAddCmd.Flags().StringSliceVar(&addSourceTags, "tags", nil, "Tags for the source (comma-separated)")
	sourcesAddCmd.Flags().BoolVar(&addDeriveTags, "derive-tags", false, "Derive tags from the source's first item when none are given")
	sourcesAddCmd.Flags().BoolVar(&addNoIngest, "no-ingest", false, "Register without fetching and indexing")
	sourcesCmd.AddCommand(sourcesAddCmd, sourcesListCmd, sourcesImportCmd)
	rootCmd.AddCommand(sourcesCmd)
}

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Manage content sources",
}

var sourcesAddCmd = &cobra.Command{
	Use:   "add <url>",
	Short: "Register a content source",
	Long: `Registers an RSS feed, blog page or GitHub repository and, unless
--no-ingest is given, fetches and indexes it right away.

Examples:
  coachctl sources add https://blog.example.com/feed.xml --tags ml,nlp
  coachctl sources add https://example.com/post --type blog --derive-tags
  coachctl sources add https://github.com/owner/repo/tree/main/docs --type github`,
	Args: cobra.ExactArgs(1),
	RunE: runSourcesAdd,
}

func runSourcesAdd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	url := args[0]

	switch addSourceType {
	case "rss", "blog", "github":
	default:
		return fmt.Errorf("unsupported source type %q (want rss, blog or github)", addSourceType)
	}

	journalStore, err := openJournal()
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer journalStore.Close()

	tags := addSourceTags
	if addDeriveTags && len(tags) == 0 {
		fmt.Println("Deriving tags from source content...")
		tags, err = deriveSourceTags(ctx, url, addSourceType)
		if err != nil {
			return fmt.Errorf("derive tags: %w", err)
		}
		fmt.Printf("Derived tags: %s\n", strings.Join(tags, ", "))
	}

	src, err := journalStore.AddSource(ctx, url, addSourceType, tags)
	if err != nil {
		return fmt.Errorf("register source: %w", err)
	}
	fmt.Printf("Registered %s source #%d: %s\n", src.Type, src.ID, src.URL)

	if addNoIngest {
		return nil
	}

	store, err := openStore(ctx)
	if err != nil {
		return fmt.Errorf("connect to Qdrant: %w", err)
	}
	defer store.Close()

	pipeline, err := newPipeline(ctx, journalStore, store)
	if err != nil {
		return err
	}

	fmt.Println("Ingesting...")
	res, err := pipeline.IngestSource(ctx, *src, addMaxItems)
	if err != nil {
		return fmt.Errorf("ingest source: %w", err)
	}

	fmt.Printf("Indexed %d of %d items\n", res.StoredItems, res.TotalItems)
	for _, failed := range res.FailedItems {
		fmt.Printf("  - %s: %s\n", failed.Title, failed.Reason)
	}
	return nil
}

// deriveSourceTags asks the LLM for key concepts in the source's first item.
// GitHub repos are excluded: pulling a whole docs tree to tag a source is
// not worth the API budget.
func deriveSourceTags(ctx context.Context, url, sourceType string) ([]string, error) {
	llmClient, err := llm.NewClient(os.Getenv("GROQ_MODEL"))
	if err != nil {
		return nil, err
	}

	fetcher := ingest.NewFetcher()
	var content string
	switch sourceType {
	case "rss":
		items, err := fetcher.FetchFeed(ctx, url, 1)
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			return nil, fmt.Errorf("feed has no items")
		}
		content = items[0].Title + "\n\n" + items[0].Content
	case "blog":
		item, err := fetcher.FetchBlogPost(ctx, url)
		if err != nil {
			return nil, err
		}
		content = item.Title + "\n\n" + item.Content
	default:
		return nil, fmt.Errorf("cannot derive tags for %s sources, pass --tags instead", sourceType)
	}

	return llmClient.ExtractKeyConcepts(ctx, content, maxDerivedTags)
}

var sourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered content sources",
	RunE:  runSourcesList,
}

func runSourcesList(cmd *cobra.Command, args []string) error {
	journalStore, err := openJournal()
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer journalStore.Close()

	sources, err := journalStore.Sources(context.Background(), "")
	if err != nil {
		return fmt.Errorf("list sources: %w", err)
	}
	if len(sources) == 0 {
		fmt.Println("No content sources registered")
		return nil
	}

	fmt.Printf("%d content sources:\n\n", len(sources))
	for _, src := range sources {
		tags := ""
		if len(src.Tags) > 0 {
			tags = "  [" + strings.Join(src.Tags, ", ") + "]"
		}
		fmt.Printf("  #%-4d %-7s %s%s\n", src.ID, src.Type, src.URL, tags)
	}
	return nil
}

var sourcesImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import content sources from a YAML file",
	Long: `Imports sources in bulk. The file holds a list of entries:

  - url: https://blog.example.com/feed.xml
    type: rss
    tags: [ml, nlp]
  - url: https://github.com/owner/repo/tree/main/docs
    type: github

Entries with an unsupported type are skipped, not fatal.`,
	Args: cobra.ExactArgs(1),
	RunE: runSourcesImport,
}

type sourceEntry struct {
	URL  string   `yaml:"url"`
	Type string   `yaml:"type"`
	Tags []string `yaml:"tags"`
}

func runSourcesImport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	var entries []sourceEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse %s: %w", args[0], err)
	}
	if len(entries) == 0 {
		return fmt.Errorf("%s contains no sources", args[0])
	}

	journalStore, err := openJournal()
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer journalStore.Close()

	added := 0
	for _, entry := range entries {
		switch entry.Type {
		case "rss", "blog", "github":
		default:
			fmt.Printf("  skipping %s: unsupported type %q\n", entry.URL, entry.Type)
			continue
		}
		src, err := journalStore.AddSource(ctx, entry.URL, entry.Type, entry.Tags)
		if err != nil {
			fmt.Printf("  skipping %s: %v\n", entry.URL, err)
			continue
		}
		fmt.Printf("  added #%d %s (%s)\n", src.ID, src.URL, src.Type)
		added++
	}

	fmt.Printf("\nImported %d of %d sources\n", added, len(entries))
	return nil
}
