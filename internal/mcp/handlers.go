package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/coachd/learning-coach-mcp/internal/digest"
	"github.com/coachd/learning-coach-mcp/internal/embedding"
	"github.com/coachd/learning-coach-mcp/internal/indexer"
	"github.com/coachd/learning-coach-mcp/internal/journal"
	"github.com/coachd/learning-coach-mcp/internal/vectorstore"
)

// Defaults applied when tool inputs leave a field unset.
const (
	defaultDigestInsights   = 7
	defaultIngestMaxItems   = 10
	defaultInsightLimit     = 10
	defaultContentLimit     = 5
	todayInsightsQueryLimit = 50
)

// makeDigestHandler creates the generate_daily_digest tool handler.
// Digest flow:
// 1. Load learner progress (week, topics, goals)
// 2. Retrieve candidate content for the topics (threshold with fallback)
// 3. Generate an insight per candidate and score its relevance
// 4. Rank by relevance and summarize the final set
func makeDigestHandler(assembler *digest.Assembler) func(
	context.Context, *mcp.CallToolRequest, DigestInput,
) (*mcp.CallToolResult, DigestOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input DigestInput) (
		*mcp.CallToolResult, DigestOutput, error,
	) {
		numInsights := input.NumInsights
		if numInsights <= 0 {
			numInsights = defaultDigestInsights
		}

		d, err := assembler.GenerateDigest(ctx, numInsights)
		if err != nil {
			if errors.Is(err, digest.ErrNoProgress) {
				return nil, DigestOutput{
					Insights: []DigestInsight{},
					Message:  "No learning progress recorded. Call update_progress with the current week and topics first.",
				}, nil
			}
			return nil, DigestOutput{}, fmt.Errorf("failed to generate digest: %w", err)
		}

		insights := make([]DigestInsight, 0, len(d.Insights))
		for _, ins := range d.Insights {
			insights = append(insights, DigestInsight{
				Insight:         ins.Insight,
				Title:           ins.Title,
				SourceURL:       ins.SourceURL,
				RelevanceScore:  ins.RelevanceScore,
				SimilarityScore: ins.SimilarityScore,
				SourceType:      ins.Metadata.SourceType,
				Published:       ins.Metadata.Published,
			})
		}

		return nil, DigestOutput{
			Date:          d.Date.Format("2006-01-02"),
			Week:          d.Week,
			Topics:        d.Topics,
			Summary:       d.Summary,
			Insights:      insights,
			TotalInsights: d.TotalInsights,
		}, nil
	}
}

// makeAddSourceHandler creates the add_content_source tool handler.
// Registers the source in the journal and, unless ingest_now is false,
// fetches and indexes it right away. An ingestion failure does not roll
// back the registration; it is reported in the message instead.
func makeAddSourceHandler(journalStore *journal.Store, pipeline *indexer.Pipeline) func(
	context.Context, *mcp.CallToolRequest, AddSourceInput,
) (*mcp.CallToolResult, AddSourceOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input AddSourceInput) (
		*mcp.CallToolResult, AddSourceOutput, error,
	) {
		sourceType := strings.ToLower(strings.TrimSpace(input.SourceType))
		switch sourceType {
		case "rss", "blog", "github":
		default:
			return nil, AddSourceOutput{}, fmt.Errorf("unsupported source type %q (want rss, blog or github)", input.SourceType)
		}

		src, err := journalStore.AddSource(ctx, input.SourceURL, sourceType, input.Tags)
		if err != nil {
			return nil, AddSourceOutput{}, fmt.Errorf("failed to register source: %w", err)
		}

		out := AddSourceOutput{
			ID:         src.ID,
			SourceURL:  src.URL,
			SourceType: src.Type,
			Tags:       src.Tags,
			Message:    fmt.Sprintf("Registered %s source %s.", src.Type, src.URL),
		}

		if input.IngestNow == nil || *input.IngestNow {
			res, err := pipeline.IngestSource(ctx, *src, defaultIngestMaxItems)
			if err != nil {
				out.Message = fmt.Sprintf("Registered %s source %s but initial ingestion failed: %v", src.Type, src.URL, err)
				return nil, out, nil
			}
			out.ItemsStored = res.StoredItems
			out.Message = fmt.Sprintf("Registered %s source %s and indexed %d of %d items.",
				src.Type, src.URL, res.StoredItems, res.TotalItems)
		}

		return nil, out, nil
	}
}

// makeUpdateProgressHandler creates the update_progress tool handler.
func makeUpdateProgressHandler(journalStore *journal.Store) func(
	context.Context, *mcp.CallToolRequest, UpdateProgressInput,
) (*mcp.CallToolResult, UpdateProgressOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input UpdateProgressInput) (
		*mcp.CallToolResult, UpdateProgressOutput, error,
	) {
		if input.CurrentWeek < 1 {
			return nil, UpdateProgressOutput{}, fmt.Errorf("current_week must be at least 1, got %d", input.CurrentWeek)
		}

		p, err := journalStore.SetProgress(ctx, input.CurrentWeek, input.CurrentTopics, input.LearningGoals)
		if err != nil {
			return nil, UpdateProgressOutput{}, fmt.Errorf("failed to save progress: %w", err)
		}

		return nil, UpdateProgressOutput{
			Week:      p.Week,
			Topics:    p.Topics,
			Goals:     p.Goals,
			UpdatedAt: p.UpdatedAt,
		}, nil
	}
}

// makeGetProgressHandler creates the get_progress tool handler.
func makeGetProgressHandler(journalStore *journal.Store) func(
	context.Context, *mcp.CallToolRequest, GetProgressInput,
) (*mcp.CallToolResult, GetProgressOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input GetProgressInput) (
		*mcp.CallToolResult, GetProgressOutput, error,
	) {
		p, err := journalStore.Progress(ctx)
		if err != nil {
			if errors.Is(err, journal.ErrNotFound) {
				return nil, GetProgressOutput{
					Message: "No learning progress recorded yet. Call update_progress to get started.",
				}, nil
			}
			return nil, GetProgressOutput{}, fmt.Errorf("failed to load progress: %w", err)
		}

		return nil, GetProgressOutput{
			Recorded:  true,
			Week:      p.Week,
			Topics:    p.Topics,
			Goals:     p.Goals,
			UpdatedAt: p.UpdatedAt,
		}, nil
	}
}

// makeIngestHandler creates the ingest_content tool handler.
func makeIngestHandler(pipeline *indexer.Pipeline) func(
	context.Context, *mcp.CallToolRequest, IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input IngestInput) (
		*mcp.CallToolResult, IngestOutput, error,
	) {
		sourceType := input.SourceType
		if sourceType == "" {
			sourceType = "all"
		}
		maxItems := input.MaxItemsPerSource
		if maxItems <= 0 {
			maxItems = defaultIngestMaxItems
		}

		res, err := pipeline.IngestAll(ctx, sourceType, maxItems)
		if err != nil {
			if errors.Is(err, indexer.ErrNoSources) {
				return nil, IngestOutput{
					Failed:  []IngestFailure{},
					Message: "No content sources registered. Add one with add_content_source first.",
				}, nil
			}
			return nil, IngestOutput{}, fmt.Errorf("ingestion failed: %w", err)
		}

		failed := make([]IngestFailure, 0, len(res.FailedItems))
		for _, f := range res.FailedItems {
			failed = append(failed, IngestFailure{Title: f.Title, Reason: f.Reason})
		}

		return nil, IngestOutput{
			Sources:         res.Sources,
			TotalItems:      res.TotalItems,
			StoredItems:     res.StoredItems,
			Failed:          failed,
			DurationSeconds: res.Duration.Seconds(),
			Message: fmt.Sprintf("Indexed %d of %d items from %d sources.",
				res.StoredItems, res.TotalItems, res.Sources),
		}, nil
	}
}

// makeSearchInsightsHandler creates the search_insights tool handler.
func makeSearchInsightsHandler(journalStore *journal.Store) func(
	context.Context, *mcp.CallToolRequest, SearchInsightsInput,
) (*mcp.CallToolResult, SearchInsightsOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SearchInsightsInput) (
		*mcp.CallToolResult, SearchInsightsOutput, error,
	) {
		limit := input.Limit
		if limit <= 0 {
			limit = defaultInsightLimit
		}

		recs, err := journalStore.QueryInsights(ctx, journal.InsightQuery{
			Contains: input.Query,
			Limit:    limit,
		})
		if err != nil {
			return nil, SearchInsightsOutput{}, fmt.Errorf("failed to query insights: %w", err)
		}

		out := SearchInsightsOutput{
			Insights: toInsightInfos(recs),
			Count:    len(recs),
		}
		if out.Count == 0 {
			out.Message = "No stored insights match the query."
		}
		return nil, out, nil
	}
}

// makeTodayInsightsHandler creates the get_today_insights tool handler.
// Returns the insights persisted during today's (UTC) digest runs.
func makeTodayInsightsHandler(journalStore *journal.Store) func(
	context.Context, *mcp.CallToolRequest, TodayInsightsInput,
) (*mcp.CallToolResult, TodayInsightsOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input TodayInsightsInput) (
		*mcp.CallToolResult, TodayInsightsOutput, error,
	) {
		day := time.Now().UTC().Format("2006-01-02")

		recs, err := journalStore.QueryInsights(ctx, journal.InsightQuery{
			Day:   day,
			Limit: todayInsightsQueryLimit,
		})
		if err != nil {
			return nil, TodayInsightsOutput{}, fmt.Errorf("failed to query insights: %w", err)
		}

		out := TodayInsightsOutput{
			Date:     day,
			Insights: toInsightInfos(recs),
			Count:    len(recs),
		}
		if out.Count == 0 {
			out.Message = "No insights generated today. Call generate_daily_digest to create some."
		}
		return nil, out, nil
	}
}

// makeSearchContentHandler creates the search_content tool handler.
// Runs a raw vector search with no score threshold, which makes it useful
// for checking what the digest retrieval would surface for a given query.
func makeSearchContentHandler(embedder *embedding.Embedder, store *vectorstore.Store) func(
	context.Context, *mcp.CallToolRequest, SearchContentInput,
) (*mcp.CallToolResult, SearchContentOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SearchContentInput) (
		*mcp.CallToolResult, SearchContentOutput, error,
	) {
		limit := input.Limit
		if limit <= 0 {
			limit = defaultContentLimit
		}

		vector, err := embedder.EmbedText(ctx, input.Query)
		if err != nil {
			return nil, SearchContentOutput{}, fmt.Errorf("failed to embed query: %w", err)
		}

		docs, err := store.SearchSimilar(ctx, vector, 0, limit)
		if err != nil {
			return nil, SearchContentOutput{}, fmt.Errorf("search failed: %w", err)
		}

		results := make([]ContentMatch, 0, len(docs))
		for _, d := range docs {
			results = append(results, ContentMatch{
				Title:      d.Document.Title,
				SourceURL:  d.Document.SourceURL,
				Similarity: d.Similarity,
				Summary:    d.Document.Metadata.Summary,
				SourceType: d.Document.Metadata.SourceType,
				Published:  d.Document.Metadata.Published,
			})
		}

		if len(results) == 0 {
			return nil, SearchContentOutput{
				Results: []ContentMatch{},
				Message: "No indexed content matched. Run ingest_content to index the registered sources.",
			}, nil
		}
		return nil, SearchContentOutput{Results: results}, nil
	}
}

// makeStatusHandler creates the system_status tool handler.
// Reports progress presence, journal counts and vector store connectivity.
// A disconnected vector store is reported in the output, not as an error.
func makeStatusHandler(journalStore *journal.Store, store *vectorstore.Store) func(
	context.Context, *mcp.CallToolRequest, StatusInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input StatusInput) (
		*mcp.CallToolResult, StatusOutput, error,
	) {
		out := StatusOutput{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}

		p, err := journalStore.Progress(ctx)
		switch {
		case err == nil:
			out.ProgressRecorded = true
			out.Week = p.Week
		case errors.Is(err, journal.ErrNotFound):
			// Nothing recorded yet; not an error.
		default:
			return nil, StatusOutput{}, fmt.Errorf("journal_error: failed to load progress: %w", err)
		}

		sources, err := journalStore.CountSources(ctx)
		if err != nil {
			return nil, StatusOutput{}, fmt.Errorf("journal_error: failed to count sources: %w", err)
		}
		out.ContentSources = sources

		insights, err := journalStore.CountInsights(ctx)
		if err != nil {
			return nil, StatusOutput{}, fmt.Errorf("journal_error: failed to count insights: %w", err)
		}
		out.StoredInsights = insights

		if err := store.Health(ctx); err != nil {
			out.VectorStore = "disconnected"
			return nil, out, nil
		}
		out.VectorStore = "connected"

		docs, err := store.CountDocuments(ctx)
		if err != nil {
			return nil, StatusOutput{}, fmt.Errorf("qdrant_error: failed to count documents: %w", err)
		}
		out.IndexedDocuments = docs

		return nil, out, nil
	}
}

func toInsightInfos(recs []journal.InsightRecord) []InsightInfo {
	infos := make([]InsightInfo, 0, len(recs))
	for _, rec := range recs {
		infos = append(infos, InsightInfo{
			ID:        rec.ID,
			Insight:   rec.Insight,
			ContentID: rec.ContentID,
			Relevance: rec.Relevance,
			Week:      rec.Week,
			CreatedAt: rec.CreatedAt,
		})
	}
	return infos
}
