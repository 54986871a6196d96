// Package mcp exposes the learning coach over the Model Context Protocol.
package mcp

import "time"

// DigestInput defines the input parameters for the generate_daily_digest tool.
type DigestInput struct {
	// NumInsights is how many insights the digest should contain.
	NumInsights int `json:"num_insights,omitempty" jsonschema:"minimum=1,maximum=20,default=7,description=Number of insights to include in the digest"`
}

// DigestOutput contains the assembled daily digest.
type DigestOutput struct {
	// Date is the digest generation date (YYYY-MM-DD).
	Date string `json:"date,omitempty"`
	// Week is the learner's current week.
	Week int `json:"week,omitempty"`
	// Topics are the learner's current topics.
	Topics []string `json:"topics,omitempty"`
	// Summary ties the insights together.
	Summary string `json:"summary,omitempty"`
	// Insights is the ranked list, highest relevance first.
	Insights []DigestInsight `json:"insights"`
	// TotalInsights is the number of insights in the digest.
	TotalInsights int `json:"total_insights"`
	// Message provides informational context (e.g. no progress recorded yet).
	Message string `json:"message,omitempty"`
}

// DigestInsight is a single ranked insight within a digest.
type DigestInsight struct {
	// Insight is the generated takeaway paragraph.
	Insight string `json:"insight"`
	// Title is the title of the content the insight came from.
	Title string `json:"title"`
	// SourceURL links back to the original content.
	SourceURL string `json:"source_url,omitempty"`
	// RelevanceScore is the fused relevance score (0-1).
	RelevanceScore float64 `json:"relevance_score"`
	// SimilarityScore is the raw vector similarity (0-1).
	SimilarityScore float64 `json:"similarity_score"`
	// SourceType is where the content came from ("rss", "blog" or "github").
	SourceType string `json:"source_type,omitempty"`
	// Published is the publication timestamp reported by the source.
	Published string `json:"published,omitempty"`
}

// AddSourceInput defines the input parameters for the add_content_source tool.
type AddSourceInput struct {
	// SourceURL is the feed URL, page URL or GitHub repository URL.
	SourceURL string `json:"source_url" jsonschema:"required,description=URL of the content source (RSS feed URL / blog page URL / GitHub repository URL)"`
	// SourceType is one of "rss", "blog" or "github".
	SourceType string `json:"source_type" jsonschema:"required,description=Type of the source: rss | blog | github"`
	// Tags label the source for later filtering.
	Tags []string `json:"tags,omitempty" jsonschema:"description=Free-form tags describing the source"`
	// IngestNow controls whether the source is fetched and indexed right away.
	IngestNow *bool `json:"ingest_now,omitempty" jsonschema:"default=true,description=Fetch and index the source immediately after registering it"`
}

// AddSourceOutput reports the registered source and any immediate ingestion.
type AddSourceOutput struct {
	// ID is the journal row ID of the new source.
	ID int64 `json:"id"`
	// SourceURL echoes the registered URL.
	SourceURL string `json:"source_url"`
	// SourceType echoes the source type.
	SourceType string `json:"source_type"`
	// Tags echoes the stored tags.
	Tags []string `json:"tags"`
	// ItemsStored is how many items were indexed when ingest_now was set.
	ItemsStored int `json:"items_stored,omitempty"`
	// Message summarizes what happened.
	Message string `json:"message"`
}

// UpdateProgressInput defines the input parameters for the update_progress tool.
type UpdateProgressInput struct {
	// CurrentWeek is the learner's week number in their study plan.
	CurrentWeek int `json:"current_week" jsonschema:"required,minimum=1,description=Current week number in the learning plan"`
	// CurrentTopics are the topics being studied this week.
	CurrentTopics []string `json:"current_topics" jsonschema:"required,description=Topics currently being studied"`
	// LearningGoals describes what the learner wants to achieve.
	LearningGoals string `json:"learning_goals,omitempty" jsonschema:"description=Free-form learning goals"`
}

// UpdateProgressOutput echoes the stored progress.
type UpdateProgressOutput struct {
	// Week is the stored week number.
	Week int `json:"current_week"`
	// Topics are the stored topics.
	Topics []string `json:"current_topics"`
	// Goals are the stored learning goals.
	Goals string `json:"learning_goals,omitempty"`
	// UpdatedAt is when the progress was written.
	UpdatedAt time.Time `json:"updated_at"`
}

// GetProgressInput defines the input parameters for the get_progress tool.
// This tool takes no parameters.
type GetProgressInput struct {
	// No input parameters required
}

// GetProgressOutput contains the learner's recorded progress.
type GetProgressOutput struct {
	// Recorded indicates whether any progress has been stored.
	Recorded bool `json:"recorded"`
	// Week is the current week number.
	Week int `json:"current_week,omitempty"`
	// Topics are the current study topics.
	Topics []string `json:"current_topics,omitempty"`
	// Goals are the learning goals.
	Goals string `json:"learning_goals,omitempty"`
	// UpdatedAt is when the progress was last written.
	UpdatedAt time.Time `json:"updated_at"`
	// Message provides informational context when nothing is recorded.
	Message string `json:"message,omitempty"`
}

// IngestInput defines the input parameters for the ingest_content tool.
type IngestInput struct {
	// SourceType limits ingestion to one source type.
	SourceType string `json:"source_type,omitempty" jsonschema:"default=all,description=Only ingest sources of this type: rss | blog | github | all"`
	// MaxItemsPerSource caps how many items are indexed per source.
	MaxItemsPerSource int `json:"max_items_per_source,omitempty" jsonschema:"minimum=1,maximum=50,default=10,description=Maximum number of items to index per source"`
}

// IngestOutput contains the statistics of one ingestion run.
type IngestOutput struct {
	// Sources is how many sources were processed.
	Sources int `json:"sources"`
	// TotalItems is how many items were fetched.
	TotalItems int `json:"total_items"`
	// StoredItems is how many items were embedded and stored.
	StoredItems int `json:"stored_items"`
	// Failed lists items that could not be indexed.
	Failed []IngestFailure `json:"failed"`
	// DurationSeconds is the wall-clock time of the run.
	DurationSeconds float64 `json:"duration_seconds"`
	// Message summarizes the run.
	Message string `json:"message,omitempty"`
}

// IngestFailure is one item that could not be indexed.
type IngestFailure struct {
	// Title identifies the failed item (the source URL for source-level failures).
	Title string `json:"title"`
	// Reason is the failure cause.
	Reason string `json:"reason"`
}

// SearchInsightsInput defines the input parameters for the search_insights tool.
type SearchInsightsInput struct {
	// Query is matched against stored insight text.
	Query string `json:"query" jsonschema:"required,description=Text to match against stored insights"`
	// Limit caps the number of insights returned.
	Limit int `json:"limit,omitempty" jsonschema:"minimum=1,maximum=50,default=10,description=Maximum number of insights to return"`
}

// SearchInsightsOutput contains insights matching the query.
type SearchInsightsOutput struct {
	// Insights is the matching insights, newest first.
	Insights []InsightInfo `json:"insights"`
	// Count is the number of insights returned.
	Count int `json:"count"`
	// Message provides informational context (e.g. nothing matched).
	Message string `json:"message,omitempty"`
}

// InsightInfo is a stored insight row.
type InsightInfo struct {
	// ID is the journal row ID.
	ID int64 `json:"id"`
	// Insight is the generated takeaway paragraph.
	Insight string `json:"insight"`
	// ContentID is the vector store ID of the content the insight came from.
	ContentID string `json:"content_id,omitempty"`
	// Relevance is the fused relevance score the insight was ranked with.
	Relevance float64 `json:"relevance_score"`
	// Week is the learner week the insight was generated in.
	Week int `json:"week"`
	// CreatedAt is when the insight was stored.
	CreatedAt time.Time `json:"created_at"`
}

// TodayInsightsInput defines the input parameters for the get_today_insights tool.
// This tool takes no parameters.
type TodayInsightsInput struct {
	// No input parameters required
}

// TodayInsightsOutput contains the insights generated today.
type TodayInsightsOutput struct {
	// Date is today's UTC date (YYYY-MM-DD).
	Date string `json:"date"`
	// Insights is today's insights, newest first.
	Insights []InsightInfo `json:"insights"`
	// Count is the number of insights returned.
	Count int `json:"count"`
	// Message provides informational context (e.g. no digest generated yet).
	Message string `json:"message,omitempty"`
}

// SearchContentInput defines the input parameters for the search_content tool.
type SearchContentInput struct {
	// Query is the semantic search query.
	Query string `json:"query" jsonschema:"required,description=Semantic search query over indexed content"`
	// Limit caps the number of matches returned.
	Limit int `json:"limit,omitempty" jsonschema:"minimum=1,maximum=20,default=5,description=Maximum number of matches to return"`
}

// SearchContentOutput contains raw vector search matches.
type SearchContentOutput struct {
	// Results is the list of matches, most similar first.
	Results []ContentMatch `json:"results"`
	// Message provides informational context (e.g. nothing indexed yet).
	Message string `json:"message,omitempty"`
}

// ContentMatch is a single vector search hit.
type ContentMatch struct {
	// Title is the indexed content title.
	Title string `json:"title"`
	// SourceURL links back to the original content.
	SourceURL string `json:"source_url,omitempty"`
	// Similarity is the cosine similarity of the match (0-1).
	Similarity float64 `json:"similarity"`
	// Summary is the short description captured at ingestion.
	Summary string `json:"summary,omitempty"`
	// SourceType is where the content came from ("rss", "blog" or "github").
	SourceType string `json:"source_type,omitempty"`
	// Published is the publication timestamp reported by the source.
	Published string `json:"published,omitempty"`
}

// StatusInput defines the input parameters for the system_status tool.
// This tool takes no parameters.
type StatusInput struct {
	// No input parameters required
}

// StatusOutput reports stored data counts and vector store connectivity.
type StatusOutput struct {
	// ProgressRecorded indicates whether learner progress exists.
	ProgressRecorded bool `json:"progress_recorded"`
	// Week is the learner's current week when progress exists.
	Week int `json:"current_week,omitempty"`
	// ContentSources is the number of registered sources.
	ContentSources int `json:"content_sources"`
	// IndexedDocuments is the number of documents in the vector store.
	IndexedDocuments uint64 `json:"indexed_documents"`
	// StoredInsights is the number of persisted insights.
	StoredInsights int `json:"stored_insights"`
	// VectorStore is "connected" or "disconnected".
	VectorStore string `json:"vector_store"`
	// Timestamp is when the status was gathered.
	Timestamp string `json:"timestamp"`
}
