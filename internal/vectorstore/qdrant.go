package vectorstore

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/qdrant/go-client/qdrant"
)

// Store wraps the Qdrant client with connection management and health checks.
type Store struct {
	client *qdrant.Client
	host   string
	port   int
}

// NewStore creates a new Qdrant client with health validation.
// It performs a health check with retry on startup and fails fast if
// Qdrant is unreachable, so a misconfigured deployment dies at boot
// rather than on the first digest request.
func NewStore(host string, port int) (*Store, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	store := &Store{
		client: client,
		host:   host,
		port:   port,
	}

	ctx := context.Background()
	if err := store.healthCheckWithRetry(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrQdrantUnreachable, err)
	}

	return store, nil
}

// healthCheckWithRetry performs health check with exponential backoff.
// Initial interval 500ms, max interval 10s, max elapsed 30s.
func (s *Store) healthCheckWithRetry(ctx context.Context) error {
	exponentialBackoff := backoff.NewExponentialBackOff()
	exponentialBackoff.InitialInterval = 500 * time.Millisecond
	exponentialBackoff.MaxInterval = 10 * time.Second
	exponentialBackoff.MaxElapsedTime = 30 * time.Second

	operation := func() error {
		return s.Health(ctx)
	}

	return backoff.Retry(operation, exponentialBackoff)
}

// Health performs a single health check against Qdrant.
func (s *Store) Health(ctx context.Context) error {
	result, err := s.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	if result == nil || result.Title == "" {
		return fmt.Errorf("health check returned invalid response")
	}

	return nil
}

// EnsureCollection ensures the learning content collection exists with
// a single 384-dimension cosine vector per point.
// Idempotent - safe to call multiple times.
func (s *Store) EnsureCollection(ctx context.Context) error {
	collections, err := s.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}

	for _, name := range collections {
		if name == CollectionName {
			return nil
		}
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: CollectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     VectorDimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	return nil
}

// ClearCollection deletes all points in the collection by dropping and
// recreating it. Used by coachctl ingest --reset.
func (s *Store) ClearCollection(ctx context.Context) error {
	err := s.client.DeleteCollection(ctx, CollectionName)
	if err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}

	return s.EnsureCollection(ctx)
}

// Close closes the Qdrant client connection.
func (s *Store) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// upsertWithRetry performs upsert with exponential backoff retry.
func (s *Store) upsertWithRetry(ctx context.Context, points []*qdrant.PointStruct) error {
	exponentialBackoff := backoff.NewExponentialBackOff()
	exponentialBackoff.InitialInterval = 500 * time.Millisecond
	exponentialBackoff.MaxInterval = 10 * time.Second
	exponentialBackoff.MaxElapsedTime = 30 * time.Second

	operation := func() error {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: CollectionName,
			Points:         points,
		})
		return err
	}

	return backoff.Retry(operation, exponentialBackoff)
}

// UpsertDocument stores one document with its embedding in Qdrant.
func (s *Store) UpsertDocument(ctx context.Context, doc *Document) error {
	if len(doc.Embedding) != VectorDimension {
		return fmt.Errorf("%w: document %q has %d dimensions, expected %d",
			ErrDimensionMismatch, doc.ID, len(doc.Embedding), VectorDimension)
	}

	// Tags as interface slice so NewValueMap can convert them
	tags := make([]interface{}, len(doc.Metadata.Tags))
	for i, tag := range doc.Metadata.Tags {
		tags[i] = tag
	}

	payload := map[string]any{
		"title":       doc.Title,
		"content":     doc.Content,
		"source_url":  doc.SourceURL,
		"summary":     doc.Metadata.Summary,
		"author":      doc.Metadata.Author,
		"published":   doc.Metadata.Published,
		"tags":        tags,
		"source_type": doc.Metadata.SourceType,
		"ingested_at": time.Now().UTC().Format(time.RFC3339),
	}

	point := &qdrant.PointStruct{
		Id:      qdrant.NewIDUUID(doc.ID),
		Vectors: qdrant.NewVectors(doc.Embedding...),
		Payload: qdrant.NewValueMap(payload),
	}

	return s.upsertWithRetry(ctx, []*qdrant.PointStruct{point})
}

// SearchSimilar performs vector similarity search over all documents.
// Only points scoring at or above threshold are returned, ordered by
// similarity descending, at most limit of them.
func (s *Store) SearchSimilar(ctx context.Context, embedding []float32, threshold float64, limit int) ([]ScoredDocument, error) {
	if len(embedding) != VectorDimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			ErrDimensionMismatch, len(embedding), VectorDimension)
	}

	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: CollectionName,
		Query:          qdrant.NewQuery(embedding...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		ScoreThreshold: qdrant.PtrOf(float32(threshold)),
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search documents: %w", err)
	}

	docs := make([]ScoredDocument, 0, len(results))
	for _, result := range results {
		docs = append(docs, ScoredDocument{
			Document:   documentFromPayload(result.Id.GetUuid(), result.Payload),
			Similarity: float64(result.Score),
		})
	}

	return docs, nil
}

// GetDocument retrieves one document by ID.
// Returns ErrDocumentNotFound if the point doesn't exist.
func (s *Store) GetDocument(ctx context.Context, id string) (*Document, error) {
	result, err := s.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: CollectionName,
		Ids:            []*qdrant.PointId{qdrant.NewIDUUID(id)},
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	if len(result) == 0 {
		return nil, ErrDocumentNotFound
	}

	return documentFromPayload(id, result[0].Payload), nil
}

// ListTitles returns up to limit document titles, for diagnostics.
// Uses the Scroll API so it never runs a vector search.
func (s *Store) ListTitles(ctx context.Context, limit int) ([]string, error) {
	var titles []string
	var offset *qdrant.PointId

	batchSize := uint32(100)
	if limit > 0 && limit < int(batchSize) {
		batchSize = uint32(limit)
	}

	for {
		results, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: CollectionName,
			Limit:          qdrant.PtrOf(batchSize),
			Offset:         offset,
			WithPayload:    qdrant.NewWithPayloadInclude("title"),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scroll documents: %w", err)
		}

		for _, result := range results {
			if title := result.Payload["title"].GetStringValue(); title != "" {
				titles = append(titles, title)
			}
			if limit > 0 && len(titles) >= limit {
				return titles, nil
			}
		}

		if uint32(len(results)) < batchSize {
			break
		}
		offset = results[len(results)-1].Id
	}

	return titles, nil
}

// CountDocuments returns the total number of stored documents.
func (s *Store) CountDocuments(ctx context.Context) (uint64, error) {
	collection, err := s.client.GetCollection(ctx, CollectionName)
	if err != nil {
		return 0, fmt.Errorf("failed to get collection: %w", err)
	}

	return collection.GetPointsCount(), nil
}

// documentFromPayload rebuilds a Document from a point's payload map.
func documentFromPayload(id string, payload map[string]*qdrant.Value) *Document {
	var tags []string
	if tagsVal, ok := payload["tags"]; ok && tagsVal.GetListValue() != nil {
		for _, val := range tagsVal.GetListValue().Values {
			tags = append(tags, val.GetStringValue())
		}
	}

	return &Document{
		ID:        id,
		Title:     payload["title"].GetStringValue(),
		Content:   payload["content"].GetStringValue(),
		SourceURL: payload["source_url"].GetStringValue(),
		Metadata: DocumentMeta{
			Summary:    payload["summary"].GetStringValue(),
			Author:     payload["author"].GetStringValue(),
			Published:  payload["published"].GetStringValue(),
			Tags:       tags,
			SourceType: payload["source_type"].GetStringValue(),
		},
	}
}
