package journal

import "time"

// Progress is the learner's current position in their study plan.
// The journal keeps a single row of it; writes replace the previous state.
type Progress struct {
	Week      int       `json:"current_week"`
	Topics    []string  `json:"current_topics"`
	Goals     string    `json:"learning_goals"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Source is a registered content source to pull learning material from.
type Source struct {
	ID        int64     `json:"id"`
	URL       string    `json:"source_url"`
	Type      string    `json:"source_type"` // "rss", "blog" or "github"
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
}

// InsightRecord is one generated insight persisted for later lookup.
type InsightRecord struct {
	ID        int64     `json:"id"`
	Insight   string    `json:"insight"`
	ContentID string    `json:"content_id"`
	Relevance float64   `json:"relevance_score"`
	Week      int       `json:"week"`
	CreatedAt time.Time `json:"created_at"`
}

// InsightQuery filters stored insights. Zero values leave a filter unset.
type InsightQuery struct {
	Day      string // "2006-01-02", matches the UTC day insights were created
	Contains string // substring match on insight text
	Limit    int    // max rows returned, DefaultQueryLimit when <= 0
}
