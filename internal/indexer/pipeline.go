// Package indexer pulls content from every registered source and loads it
// into the vector store.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/coachd/learning-coach-mcp/internal/embedding"
	"github.com/coachd/learning-coach-mcp/internal/github"
	"github.com/coachd/learning-coach-mcp/internal/ingest"
	"github.com/coachd/learning-coach-mcp/internal/journal"
	"github.com/coachd/learning-coach-mcp/internal/markdown"
	"github.com/coachd/learning-coach-mcp/internal/vectorstore"
)

// Result contains statistics about one ingestion run.
type Result struct {
	Sources     int
	TotalItems  int
	StoredItems int
	FailedItems []FailedItem
	Duration    time.Duration
}

// FailedItem is one piece of content that could not be indexed.
type FailedItem struct {
	Title  string
	Reason string
}

// Pipeline orchestrates fetching, embedding and storage for all sources.
type Pipeline struct {
	journal  *journal.Store
	fetcher  *ingest.Fetcher
	github   *github.Client
	splitter *markdown.Splitter
	embedder *embedding.Embedder
	store    *vectorstore.Store
	logger   *slog.Logger
}

// NewPipeline creates an ingestion pipeline over the given components.
func NewPipeline(
	journalStore *journal.Store,
	fetcher *ingest.Fetcher,
	githubClient *github.Client,
	splitter *markdown.Splitter,
	embedder *embedding.Embedder,
	store *vectorstore.Store,
	logger *slog.Logger,
) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		journal:  journalStore,
		fetcher:  fetcher,
		github:   githubClient,
		splitter: splitter,
		embedder: embedder,
		store:    store,
		logger:   logger,
	}
}

// IngestAll fetches and indexes content from every registered source,
// optionally filtered by source type ("all" and "" mean everything). One
// source failing does not stop the run; per-item failures are collected in
// the result.
func (p *Pipeline) IngestAll(ctx context.Context, sourceType string, maxPerSource int) (*Result, error) {
	start := time.Now()

	if sourceType == "all" {
		sourceType = ""
	}
	sources, err := p.journal.Sources(ctx, sourceType)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	if len(sources) == 0 {
		return nil, ErrNoSources
	}

	result := &Result{Sources: len(sources)}
	for _, src := range sources {
		items, err := p.fetchSource(ctx, src, maxPerSource)
		if err != nil {
			p.logger.Warn("failed to fetch source", "url", src.URL, "type", src.Type, "error", err)
			result.FailedItems = append(result.FailedItems, FailedItem{Title: src.URL, Reason: err.Error()})
			continue
		}
		result.TotalItems += len(items)

		stored, failed := p.indexItems(ctx, items)
		result.StoredItems += stored
		result.FailedItems = append(result.FailedItems, failed...)
	}

	result.Duration = time.Since(start)
	p.logger.Info("ingestion complete",
		"sources", result.Sources,
		"items", result.TotalItems,
		"stored", result.StoredItems,
		"failed", len(result.FailedItems),
		"duration", result.Duration,
	)
	return result, nil
}

// IngestSource fetches and indexes a single source, typically right after
// it was registered.
func (p *Pipeline) IngestSource(ctx context.Context, src journal.Source, maxItems int) (*Result, error) {
	start := time.Now()

	items, err := p.fetchSource(ctx, src, maxItems)
	if err != nil {
		return nil, fmt.Errorf("fetch source %s: %w", src.URL, err)
	}

	result := &Result{Sources: 1, TotalItems: len(items)}
	result.StoredItems, result.FailedItems = p.indexItems(ctx, items)
	result.Duration = time.Since(start)
	return result, nil
}

func (p *Pipeline) fetchSource(ctx context.Context, src journal.Source, maxItems int) ([]ingest.Item, error) {
	switch src.Type {
	case "rss":
		return p.fetcher.FetchFeed(ctx, src.URL, maxItems)
	case "blog":
		item, err := p.fetcher.FetchBlogPost(ctx, src.URL)
		if err != nil {
			return nil, err
		}
		return []ingest.Item{*item}, nil
	case "github":
		return p.fetchRepoDocs(ctx, src, maxItems)
	default:
		return nil, fmt.Errorf("unknown source type %q", src.Type)
	}
}

// fetchRepoDocs turns a GitHub source into items, one per markdown section.
// The subtree's latest commit time stands in as the published date.
func (p *Pipeline) fetchRepoDocs(ctx context.Context, src journal.Source, maxItems int) ([]ingest.Item, error) {
	ref, err := github.ParseSourceURL(src.URL)
	if err != nil {
		return nil, err
	}
	fetcher := github.NewFetcher(p.github, ref)

	published := ""
	if commitTime, err := fetcher.LatestCommitTime(ctx); err != nil {
		p.logger.Warn("could not resolve latest commit time", "url", src.URL, "error", err)
	} else {
		published = commitTime.UTC().Format(time.RFC3339)
	}

	paths, err := fetcher.ListDocs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list docs: %w", err)
	}

	var items []ingest.Item
	for _, docPath := range paths {
		if maxItems > 0 && len(items) >= maxItems {
			break
		}

		doc, err := fetcher.FetchDoc(ctx, docPath)
		if err != nil {
			p.logger.Warn("failed to fetch doc", "path", docPath, "error", err)
			continue
		}
		sections, err := p.splitter.Split([]byte(doc.Content))
		if err != nil {
			p.logger.Warn("failed to split doc", "path", docPath, "error", err)
			continue
		}

		for _, section := range sections {
			if maxItems > 0 && len(items) >= maxItems {
				break
			}
			title := doc.Path
			if section.HeaderPath != "" {
				title = fmt.Sprintf("%s: %s", doc.Path, section.HeaderPath)
			}
			items = append(items, ingest.Item{
				Title:      title,
				Link:       doc.URL,
				Content:    section.Body,
				Published:  published,
				Tags:       src.Tags,
				SourceType: "github",
				SourceURL:  src.URL,
			})
		}
	}
	return items, nil
}

// indexItems embeds the items in one batch and stores them one by one, so
// a single bad item cannot sink the rest.
func (p *Pipeline) indexItems(ctx context.Context, items []ingest.Item) (int, []FailedItem) {
	var failed []FailedItem

	indexable := make([]ingest.Item, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item.Content) == "" {
			failed = append(failed, FailedItem{Title: item.Title, Reason: "empty content"})
			continue
		}
		indexable = append(indexable, item)
	}
	if len(indexable) == 0 {
		return 0, failed
	}

	texts := make([]string, len(indexable))
	for i, item := range indexable {
		texts[i] = item.Title + "\n\n" + item.Content
	}
	vectors, err := p.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		p.logger.Warn("failed to embed items", "count", len(indexable), "error", err)
		for _, item := range indexable {
			failed = append(failed, FailedItem{Title: item.Title, Reason: fmt.Sprintf("embed: %v", err)})
		}
		return 0, failed
	}

	stored := 0
	for i, item := range indexable {
		doc := &vectorstore.Document{
			ID:        uuid.New().String(),
			Title:     item.Title,
			Content:   item.Content,
			SourceURL: item.Link,
			Embedding: vectors[i],
			Metadata: vectorstore.DocumentMeta{
				Summary:    item.Summary,
				Author:     item.Author,
				Published:  item.Published,
				Tags:       item.Tags,
				SourceType: item.SourceType,
			},
		}
		if err := p.store.UpsertDocument(ctx, doc); err != nil {
			p.logger.Warn("failed to store item", "title", item.Title, "error", err)
			failed = append(failed, FailedItem{Title: item.Title, Reason: err.Error()})
			continue
		}
		stored++
	}

	p.logger.Debug("indexed items", "stored", stored, "failed", len(failed))
	return stored, failed
}
