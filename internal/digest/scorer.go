package digest

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/araddon/dateparse"

	"github.com/coachd/learning-coach-mcp/internal/vectorstore"
)

// Signal weights for the fused relevance score. Similarity and judged topic
// relevance carry equal weight; freshness breaks ties toward newer content.
const (
	similarityWeight = 0.4
	topicWeight      = 0.4
	freshnessWeight  = 0.2
)

// neutralSignal stands in for any signal that cannot be computed, so one
// missing input shifts the score toward the middle instead of zeroing it.
const neutralSignal = 0.5

// RelevanceJudge scores how well a piece of content matches the learner's
// topics, on a 0 to 1 scale.
type RelevanceJudge interface {
	ScoreRelevance(ctx context.Context, content string, topics []string) (float64, error)
}

// Scorer fuses retrieval similarity, judged topic relevance and content
// freshness into one relevance score per candidate.
type Scorer struct {
	judge  RelevanceJudge
	logger *slog.Logger
	now    func() time.Time
}

// NewScorer creates a scorer that consults judge for topic relevance.
func NewScorer(judge RelevanceJudge, logger *slog.Logger) *Scorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scorer{
		judge:  judge,
		logger: logger,
		now:    time.Now,
	}
}

// Score computes the fused relevance of a candidate for the learner,
// rounded to three decimals. Scoring never fails a candidate: a judge error
// or an uncomputable signal degrades to the neutral 0.5.
func (s *Scorer) Score(ctx context.Context, cand vectorstore.ScoredDocument, lc LearnerContext) float64 {
	similarity := cand.Similarity
	if similarity == 0 {
		// The candidate never went through vector search.
		similarity = neutralSignal
	}

	topicRelevance, err := s.judge.ScoreRelevance(ctx, cand.Document.Content, lc.Topics)
	if err != nil {
		s.logger.Warn("relevance judgement failed, using neutral score",
			"title", cand.Document.Title,
			"error", err)
		topicRelevance = neutralSignal
	}

	fresh := freshness(cand.Document.Metadata.Published, s.now())

	score := similarityWeight*similarity + topicWeight*topicRelevance + freshnessWeight*fresh
	return math.Round(score*1000) / 1000
}

// freshness maps a published date to a recency factor: content from today
// scores 1.0, stepping down to 0.2 past ninety days. A missing or
// unparseable date scores the neutral 0.5.
func freshness(published string, now time.Time) float64 {
	if published == "" {
		return neutralSignal
	}

	publishedAt, err := dateparse.ParseAny(published)
	if err != nil {
		return neutralSignal
	}

	days := int(now.Sub(publishedAt).Hours() / 24)
	switch {
	case days <= 0:
		return 1.0
	case days <= 7:
		return 0.9
	case days <= 30:
		return 0.7
	case days <= 90:
		return 0.4
	default:
		return 0.2
	}
}
