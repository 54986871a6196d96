package digest

import (
	"time"

	"github.com/coachd/learning-coach-mcp/internal/vectorstore"
)

// LearnerContext is the slice of learner progress the pipeline personalizes
// against: where they are, what they study, what they aim for.
type LearnerContext struct {
	Week   int
	Topics []string
	Goals  string
}

// ScoredInsight is one generated takeaway tied back to the content it came
// from, carrying both the fused relevance score and the raw vector
// similarity it started with.
type ScoredInsight struct {
	Insight         string                   `json:"insight"`
	ContentID       string                   `json:"content_id"`
	Title           string                   `json:"title"`
	SourceURL       string                   `json:"source_url"`
	RelevanceScore  float64                  `json:"relevance_score"`
	SimilarityScore float64                  `json:"similarity_score"`
	Metadata        vectorstore.DocumentMeta `json:"metadata"`
}

// Digest is a complete daily briefing: ranked insights plus a summary that
// ties them together.
type Digest struct {
	Date          time.Time       `json:"date"`
	Week          int             `json:"week"`
	Topics        []string        `json:"topics"`
	Summary       string          `json:"summary"`
	Insights      []ScoredInsight `json:"insights"`
	TotalInsights int             `json:"total_insights"`
}
