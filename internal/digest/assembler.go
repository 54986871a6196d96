package digest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/coachd/learning-coach-mcp/internal/journal"
	"github.com/coachd/learning-coach-mcp/internal/llm"
	"github.com/coachd/learning-coach-mcp/internal/vectorstore"
)

// DefaultInsightCount is how many insights a digest targets when the caller
// does not say.
const DefaultInsightCount = 7

// overFetchFactor widens retrieval past the target count so the pipeline
// has spare candidates when some fail insight generation.
const overFetchFactor = 2

// EmptySummary is the digest summary when retrieval finds nothing.
const EmptySummary = "No relevant content found for your topics today."

// Generator is the language-model surface used to write the digest.
type Generator interface {
	GenerateInsight(ctx context.Context, content string, week int, topics []string, goals string) (string, error)
	SummarizeDigest(ctx context.Context, insights []string, week int, topics []string) (string, error)
}

// Assembler runs the full digest pipeline.
type Assembler struct {
	retriever *Retriever
	scorer    *Scorer
	generator Generator
	journal   *journal.Store
	logger    *slog.Logger
}

// NewAssembler wires the pipeline stages together.
func NewAssembler(retriever *Retriever, scorer *Scorer, generator Generator, store *journal.Store, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{
		retriever: retriever,
		scorer:    scorer,
		generator: generator,
		journal:   store,
		logger:    logger,
	}
}

// GenerateDigest builds the daily digest: load the learner's progress,
// retrieve candidate content for their topics, turn the best candidates
// into scored insights and wrap them with a summary. Generated insights are
// persisted to the journal as a best effort; a failed write is logged and
// does not fail the digest.
func (a *Assembler) GenerateDigest(ctx context.Context, targetInsights int) (*Digest, error) {
	if targetInsights <= 0 {
		targetInsights = DefaultInsightCount
	}

	prog, err := a.journal.Progress(ctx)
	if errors.Is(err, journal.ErrNotFound) {
		return nil, ErrNoProgress
	}
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	lc := LearnerContext{Week: prog.Week, Topics: prog.Topics, Goals: prog.Goals}

	candidates, err := a.retriever.Retrieve(ctx, lc.Topics, targetInsights*overFetchFactor)
	if err != nil {
		return nil, fmt.Errorf("retrieve content: %w", err)
	}

	if len(candidates) == 0 {
		a.logger.Warn("no candidate content retrieved", "topics", lc.Topics)
		return &Digest{
			Date:     time.Now().UTC(),
			Week:     lc.Week,
			Topics:   lc.Topics,
			Summary:  EmptySummary,
			Insights: []ScoredInsight{},
		}, nil
	}

	insights := a.buildInsights(ctx, candidates, lc, targetInsights)

	for i := range insights {
		rec := &journal.InsightRecord{
			Insight:   insights[i].Insight,
			ContentID: insights[i].ContentID,
			Relevance: insights[i].RelevanceScore,
			Week:      lc.Week,
		}
		if err := a.journal.SaveInsight(ctx, rec); err != nil {
			a.logger.Warn("failed to persist insight", "content_id", rec.ContentID, "error", err)
		}
	}

	texts := make([]string, len(insights))
	for i, ins := range insights {
		texts[i] = ins.Insight
	}
	summary, err := a.generator.SummarizeDigest(ctx, texts, lc.Week, lc.Topics)
	if err != nil {
		return nil, fmt.Errorf("summarize digest: %w", err)
	}

	a.logger.Info("digest assembled", "week", lc.Week, "insights", len(insights))
	return &Digest{
		Date:          time.Now().UTC(),
		Week:          lc.Week,
		Topics:        lc.Topics,
		Summary:       summary,
		Insights:      insights,
		TotalInsights: len(insights),
	}, nil
}

// buildInsights generates an insight for up to maxInsights candidates in
// retrieval order, scores each, and returns them sorted by relevance,
// highest first. A candidate whose insight cannot be generated is skipped;
// scoring never rejects one.
func (a *Assembler) buildInsights(ctx context.Context, candidates []vectorstore.ScoredDocument, lc LearnerContext, maxInsights int) []ScoredInsight {
	if len(candidates) > maxInsights {
		candidates = candidates[:maxInsights]
	}

	insights := make([]ScoredInsight, 0, len(candidates))
	for _, cand := range candidates {
		text, err := a.generator.GenerateInsight(ctx, cand.Document.Content, lc.Week, lc.Topics, lc.Goals)
		if err != nil {
			if errors.Is(err, llm.ErrGenerationIncomplete) {
				a.logger.Warn("model reply never got past its reasoning, skipping candidate",
					"title", cand.Document.Title,
					"error", err)
			} else {
				a.logger.Warn("insight generation failed, skipping candidate",
					"title", cand.Document.Title,
					"error", err)
			}
			continue
		}

		insights = append(insights, ScoredInsight{
			Insight:         text,
			ContentID:       cand.Document.ID,
			Title:           cand.Document.Title,
			SourceURL:       cand.Document.SourceURL,
			RelevanceScore:  a.scorer.Score(ctx, cand, lc),
			SimilarityScore: cand.Similarity,
			Metadata:        cand.Document.Metadata,
		})
	}

	// Ties keep retrieval order.
	sort.SliceStable(insights, func(i, j int) bool {
		return insights[i].RelevanceScore > insights[j].RelevanceScore
	})
	return insights
}
