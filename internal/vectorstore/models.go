package vectorstore

// Document represents one piece of learning content stored in Qdrant.
// The embedding is computed once at ingestion from "title\n\ncontent".
type Document struct {
	ID        string // UUID
	Title     string
	Content   string // Full body text
	SourceURL string
	Embedding []float32 // 384-dim vector, nil on documents read back from search
	Metadata  DocumentMeta
}

// DocumentMeta carries the free-form metadata captured at ingestion.
type DocumentMeta struct {
	Summary    string
	Author     string
	Published  string // Publication timestamp as reported by the source, best-effort format
	Tags       []string
	SourceType string // "rss", "blog" or "github"
}

// ScoredDocument is a Document paired with the similarity score
// assigned by vector search. Scores are cosine similarities in [0,1].
type ScoredDocument struct {
	Document   *Document
	Similarity float64
}

// CollectionName is the single Qdrant collection holding all learning content.
const CollectionName = "learning_content"

// VectorDimension is the embedding size used throughout the system.
const VectorDimension = 384
