package digest

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/coachd/learning-coach-mcp/internal/journal"
	"github.com/coachd/learning-coach-mcp/internal/llm"
	"github.com/coachd/learning-coach-mcp/internal/vectorstore"
)

type fakeGenerator struct {
	insightErrs         map[string]error // keyed by content
	summary             string
	summaryErr          error
	insightCalls        []string
	summaryCalls        int
	lastSummaryInsights []string
}

func (f *fakeGenerator) GenerateInsight(ctx context.Context, content string, week int, topics []string, goals string) (string, error) {
	f.insightCalls = append(f.insightCalls, content)
	if err, ok := f.insightErrs[content]; ok {
		return "", err
	}
	return "insight: " + content, nil
}

func (f *fakeGenerator) SummarizeDigest(ctx context.Context, insights []string, week int, topics []string) (string, error) {
	f.summaryCalls++
	f.lastSummaryInsights = insights
	if f.summaryErr != nil {
		return "", f.summaryErr
	}
	return f.summary, nil
}

type testPipeline struct {
	assembler *Assembler
	journal   *journal.Store
	searcher  *fakeSearcher
	judge     *fakeJudge
	generator *fakeGenerator
}

func newTestPipeline(t *testing.T) *testPipeline {
	t.Helper()

	store, err := journal.Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	logger := discardLogger()
	embedder := &fakeEmbedder{vector: []float32{0.1, 0.2}}
	searcher := &fakeSearcher{}
	judge := &fakeJudge{scores: map[string]float64{}}
	generator := &fakeGenerator{summary: "Stay on the transformer track."}

	retriever := NewRetriever(embedder, searcher, logger)
	scorer := NewScorer(judge, logger)

	return &testPipeline{
		assembler: NewAssembler(retriever, scorer, generator, store, logger),
		journal:   store,
		searcher:  searcher,
		judge:     judge,
		generator: generator,
	}
}

func setProgress(t *testing.T, store *journal.Store, week int, topics []string, goals string) {
	t.Helper()
	if _, err := store.SetProgress(context.Background(), week, topics, goals); err != nil {
		t.Fatalf("SetProgress: %v", err)
	}
}

func TestGenerateDigestNoProgress(t *testing.T) {
	tp := newTestPipeline(t)

	_, err := tp.assembler.GenerateDigest(context.Background(), 5)
	if !errors.Is(err, ErrNoProgress) {
		t.Errorf("expected ErrNoProgress, got %v", err)
	}
	if len(tp.searcher.calls) != 0 {
		t.Errorf("store should not be searched without progress, got %d calls", len(tp.searcher.calls))
	}
}

func TestGenerateDigestNoCandidates(t *testing.T) {
	tp := newTestPipeline(t)
	ctx := context.Background()
	setProgress(t, tp.journal, 3, []string{"transformers", "attention"}, "understand self-attention")

	dig, err := tp.assembler.GenerateDigest(ctx, 5)
	if err != nil {
		t.Fatalf("GenerateDigest: %v", err)
	}

	if dig.Summary != EmptySummary {
		t.Errorf("summary: expected %q, got %q", EmptySummary, dig.Summary)
	}
	if dig.Insights == nil || len(dig.Insights) != 0 {
		t.Errorf("expected empty insights slice, got %v", dig.Insights)
	}
	if dig.TotalInsights != 0 {
		t.Errorf("total insights: expected 0, got %d", dig.TotalInsights)
	}
	if dig.Week != 3 {
		t.Errorf("week: expected 3, got %d", dig.Week)
	}
	if dig.Date.IsZero() {
		t.Error("date should be set")
	}
	if tp.generator.summaryCalls != 0 {
		t.Error("summarizer should not run for an empty digest")
	}
	// Primary search plus one relaxed retry.
	if len(tp.searcher.calls) != 2 {
		t.Errorf("expected 2 searches, got %d", len(tp.searcher.calls))
	}

	count, err := tp.journal.CountInsights(ctx)
	if err != nil {
		t.Fatalf("CountInsights: %v", err)
	}
	if count != 0 {
		t.Errorf("expected no persisted insights, got %d", count)
	}
}

func TestGenerateDigestScoresAndRanks(t *testing.T) {
	tp := newTestPipeline(t)
	ctx := context.Background()
	setProgress(t, tp.journal, 3, []string{"transformers", "attention"}, "understand self-attention")

	tp.searcher.results = [][]vectorstore.ScoredDocument{{
		scoredDoc("doc-1", "Attention Deep Dive", 0.6),
		scoredDoc("doc-2", "Positional Encodings", 0.4),
		scoredDoc("doc-3", "Tokenizer Tricks", 0.3),
		scoredDoc("doc-4", "GPU Memory Layouts", 0.2),
	}}
	tp.judge.scores = map[string]float64{
		"content for Attention Deep Dive":  0.9,
		"content for Positional Encodings": 0.6,
	}

	dig, err := tp.assembler.GenerateDigest(ctx, 2)
	if err != nil {
		t.Fatalf("GenerateDigest: %v", err)
	}

	// Over-fetched to twice the target.
	if tp.searcher.calls[0].limit != 4 {
		t.Errorf("search limit: expected 4, got %d", tp.searcher.calls[0].limit)
	}
	// Insights come from the first two candidates in retrieval order.
	if len(tp.generator.insightCalls) != 2 {
		t.Fatalf("expected 2 insight generations, got %d", len(tp.generator.insightCalls))
	}
	if tp.generator.insightCalls[0] != "content for Attention Deep Dive" {
		t.Errorf("first insight candidate: got %q", tp.generator.insightCalls[0])
	}

	if dig.TotalInsights != 2 || len(dig.Insights) != 2 {
		t.Fatalf("expected 2 insights, got %d", len(dig.Insights))
	}

	first, second := dig.Insights[0], dig.Insights[1]
	if first.ContentID != "doc-1" || second.ContentID != "doc-2" {
		t.Errorf("order: expected [doc-1 doc-2], got [%s %s]", first.ContentID, second.ContentID)
	}
	// 0.4*0.6 + 0.4*0.9 + 0.2*0.5 and 0.4*0.4 + 0.4*0.6 + 0.2*0.5
	if first.RelevanceScore != 0.7 {
		t.Errorf("first relevance: expected 0.7, got %v", first.RelevanceScore)
	}
	if second.RelevanceScore != 0.5 {
		t.Errorf("second relevance: expected 0.5, got %v", second.RelevanceScore)
	}
	if first.SimilarityScore != 0.6 {
		t.Errorf("first similarity: expected 0.6, got %v", first.SimilarityScore)
	}
	if first.Title != "Attention Deep Dive" {
		t.Errorf("title: expected %q, got %q", "Attention Deep Dive", first.Title)
	}
	if first.Insight != "insight: content for Attention Deep Dive" {
		t.Errorf("insight text: got %q", first.Insight)
	}

	if dig.Summary != "Stay on the transformer track." {
		t.Errorf("summary: got %q", dig.Summary)
	}
	if len(tp.generator.lastSummaryInsights) != 2 || tp.generator.lastSummaryInsights[0] != first.Insight {
		t.Errorf("summarizer should see ranked insight texts, got %v", tp.generator.lastSummaryInsights)
	}

	// Insights are persisted with their scores.
	stored, err := tp.journal.QueryInsights(ctx, journal.InsightQuery{})
	if err != nil {
		t.Fatalf("QueryInsights: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("expected 2 persisted insights, got %d", len(stored))
	}
	byContent := map[string]journal.InsightRecord{}
	for _, rec := range stored {
		byContent[rec.ContentID] = rec
	}
	if rec, ok := byContent["doc-1"]; !ok || rec.Relevance != 0.7 || rec.Week != 3 {
		t.Errorf("doc-1 record mismatch: %+v", rec)
	}
}

func TestGenerateDigestReordersByRelevance(t *testing.T) {
	tp := newTestPipeline(t)
	ctx := context.Background()
	setProgress(t, tp.journal, 2, []string{"embeddings"}, "")

	// Lower-similarity candidate judged far more on-topic.
	tp.searcher.results = [][]vectorstore.ScoredDocument{{
		scoredDoc("doc-1", "Broad Survey", 0.4),
		scoredDoc("doc-2", "Embedding Internals", 0.3),
	}}
	tp.judge.scores = map[string]float64{
		"content for Broad Survey":        0.2,
		"content for Embedding Internals": 0.9,
	}

	dig, err := tp.assembler.GenerateDigest(ctx, 2)
	if err != nil {
		t.Fatalf("GenerateDigest: %v", err)
	}

	// doc-2: 0.4*0.3 + 0.4*0.9 + 0.2*0.5 = 0.58 beats doc-1: 0.4*0.4 + 0.4*0.2 + 0.2*0.5 = 0.34
	if dig.Insights[0].ContentID != "doc-2" || dig.Insights[1].ContentID != "doc-1" {
		t.Errorf("expected doc-2 ranked first, got [%s %s]",
			dig.Insights[0].ContentID, dig.Insights[1].ContentID)
	}
}

func TestGenerateDigestTiesKeepRetrievalOrder(t *testing.T) {
	tp := newTestPipeline(t)
	ctx := context.Background()
	setProgress(t, tp.journal, 2, []string{"embeddings"}, "")

	tp.searcher.results = [][]vectorstore.ScoredDocument{{
		scoredDoc("doc-1", "First Retrieved", 0.5),
		scoredDoc("doc-2", "Second Retrieved", 0.5),
	}}

	dig, err := tp.assembler.GenerateDigest(ctx, 2)
	if err != nil {
		t.Fatalf("GenerateDigest: %v", err)
	}

	if dig.Insights[0].ContentID != "doc-1" || dig.Insights[1].ContentID != "doc-2" {
		t.Errorf("tied scores should keep retrieval order, got [%s %s]",
			dig.Insights[0].ContentID, dig.Insights[1].ContentID)
	}
}

func TestGenerateDigestSkipsFailedInsights(t *testing.T) {
	tp := newTestPipeline(t)
	ctx := context.Background()
	setProgress(t, tp.journal, 4, []string{"fine-tuning"}, "")

	tp.searcher.results = [][]vectorstore.ScoredDocument{{
		scoredDoc("doc-1", "Solid Article", 0.6),
		scoredDoc("doc-2", "Reasoning Trap", 0.5),
		scoredDoc("doc-3", "Another Article", 0.4),
	}}
	tp.generator.insightErrs = map[string]error{
		"content for Reasoning Trap": llm.ErrReasoningOnly,
	}

	dig, err := tp.assembler.GenerateDigest(ctx, 3)
	if err != nil {
		t.Fatalf("GenerateDigest: %v", err)
	}

	if len(dig.Insights) != 2 {
		t.Fatalf("expected 2 insights after skip, got %d", len(dig.Insights))
	}
	for _, ins := range dig.Insights {
		if ins.ContentID == "doc-2" {
			t.Error("failed candidate should not appear in the digest")
		}
	}

	count, err := tp.journal.CountInsights(ctx)
	if err != nil {
		t.Fatalf("CountInsights: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 persisted insights, got %d", count)
	}
}

func TestGenerateDigestDefaultTarget(t *testing.T) {
	tp := newTestPipeline(t)
	ctx := context.Background()
	setProgress(t, tp.journal, 1, []string{"basics"}, "")

	tp.searcher.results = [][]vectorstore.ScoredDocument{{
		scoredDoc("doc-1", "Only Match", 0.6),
	}}

	dig, err := tp.assembler.GenerateDigest(ctx, 0)
	if err != nil {
		t.Fatalf("GenerateDigest: %v", err)
	}

	if tp.searcher.calls[0].limit != DefaultInsightCount*2 {
		t.Errorf("search limit: expected %d, got %d", DefaultInsightCount*2, tp.searcher.calls[0].limit)
	}
	// Fewer candidates than the target is fine.
	if dig.TotalInsights != 1 {
		t.Errorf("expected 1 insight, got %d", dig.TotalInsights)
	}
}

func TestGenerateDigestSummaryError(t *testing.T) {
	tp := newTestPipeline(t)
	ctx := context.Background()
	setProgress(t, tp.journal, 1, []string{"basics"}, "")

	tp.searcher.results = [][]vectorstore.ScoredDocument{{
		scoredDoc("doc-1", "Only Match", 0.6),
	}}
	tp.generator.summaryErr = errors.New("groq down")

	if _, err := tp.assembler.GenerateDigest(ctx, 1); err == nil {
		t.Fatal("expected error when summarization fails")
	}
}
