package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	chromem "github.com/philippgille/chromem-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// chromemTracer for OpenTelemetry instrumentation.
var chromemTracer = otel.Tracer("ragd.store.chromem")

// ChromemConfig holds configuration for the chromem-go embedded vector index.
type ChromemConfig struct {
	// Path is the directory for persistent storage.
	// Default: "./chroma_db"
	Path string

	// Compress enables gzip compression for stored data.
	Compress bool

	// Collection is the collection name.
	// Default: "documents"
	Collection string
}

// ApplyDefaults sets default values for unset fields.
func (c *ChromemConfig) ApplyDefaults() {
	if c.Path == "" {
		c.Path = "./chroma_db"
	}
	if c.Collection == "" {
		c.Collection = "documents"
	}
}

// Validate validates the configuration.
func (c *ChromemConfig) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("%w: path required", ErrInvalidConfig)
	}
	if c.Collection == "" {
		return fmt.Errorf("%w: collection name required", ErrInvalidConfig)
	}
	return nil
}

// ChromemStore implements Store using chromem-go, an embeddable vector
// database with gob-file persistence. It is the durable backend: documents,
// embeddings and metadata are written as a single record and survive process
// restarts.
//
// Embeddings are always supplied by the caller; the store never invokes an
// embedding model itself.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	config     ChromemConfig
	logger     *zap.Logger

	mu     sync.Mutex        // serializes id assignment and inserts
	count  int               // stored document count, ids are doc_1..doc_count
	byHash map[string]string // content hash -> id
}

// NewChromemStore opens (or creates) the persistent collection at the
// configured path and rebuilds the content-uniqueness index from it.
func NewChromemStore(config ChromemConfig, logger *zap.Logger) (*ChromemStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	config.ApplyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	expandedPath, err := expandPath(config.Path)
	if err != nil {
		return nil, fmt.Errorf("expanding path: %w", err)
	}

	if err := os.MkdirAll(expandedPath, 0o755); err != nil {
		return nil, fmt.Errorf("creating directory %s: %w", expandedPath, err)
	}

	db, err := chromem.NewPersistentDB(expandedPath, config.Compress)
	if err != nil {
		return nil, fmt.Errorf("creating chromem DB: %w", err)
	}

	collection, err := db.GetOrCreateCollection(config.Collection, nil, rejectEmbeddingFunc)
	if err != nil {
		return nil, fmt.Errorf("getting/creating collection %s: %w", config.Collection, err)
	}

	s := &ChromemStore{
		db:         db,
		collection: collection,
		config:     config,
		logger:     logger,
		byHash:     make(map[string]string),
	}

	if err := s.rebuildIndex(context.Background()); err != nil {
		return nil, fmt.Errorf("rebuilding content index: %w", err)
	}

	logger.Info("ChromemStore initialized",
		zap.String("path", expandedPath),
		zap.Bool("compress", config.Compress),
		zap.String("collection", config.Collection),
		zap.Int("documents", s.count),
	)

	return s, nil
}

// rejectEmbeddingFunc guards against chromem computing embeddings on its own;
// every document and query vector is supplied pre-computed.
func rejectEmbeddingFunc(ctx context.Context, text string) ([]float32, error) {
	return nil, fmt.Errorf("embedding function should not be called - vectors are pre-computed")
}

// expandPath expands ~ to the home directory.
func expandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// rebuildIndex seeds the id counter and the content-hash index from the
// persisted collection. Ids are dense (no delete operation exists), so the
// collection holds exactly doc_1..doc_count.
func (s *ChromemStore) rebuildIndex(ctx context.Context) error {
	n := s.collection.Count()
	for i := 1; i <= n; i++ {
		id := docID(i)
		doc, err := s.collection.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("reading document %s: %w", id, err)
		}
		s.byHash[contentHash(doc.Content)] = id
	}
	s.count = n
	return nil
}

// Add persists one document with its pre-computed embedding, assigning the
// next sequential id. Content, vector and metadata are written as a single
// chromem record. Identical content returns the existing id without writing.
func (s *ChromemStore) Add(ctx context.Context, content string, meta map[string]any, embedding []float32) (string, bool, error) {
	ctx, span := chromemTracer.Start(ctx, "ChromemStore.Add")
	defer span.End()

	if content == "" {
		return "", false, ErrEmptyContent
	}
	if len(embedding) == 0 {
		return "", false, fmt.Errorf("%w: chromem backend requires a pre-computed vector", ErrMissingEmbedding)
	}

	hash := contentHash(content)

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byHash[hash]; ok {
		span.SetAttributes(attribute.String("existing_id", id))
		return id, true, nil
	}

	id := docID(s.count + 1)
	span.SetAttributes(attribute.String("id", id))

	doc := chromem.Document{
		ID:        id,
		Content:   content,
		Metadata:  convertMetadataToString(meta),
		Embedding: embedding,
	}

	// Concurrency of 1 since the embedding is already computed.
	if err := s.collection.AddDocuments(ctx, []chromem.Document{doc}, 1); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", false, fmt.Errorf("adding document: %w", err)
	}

	s.count++
	s.byHash[hash] = id

	span.SetStatus(codes.Ok, "success")

	s.logger.Debug("added document to chromem",
		zap.String("id", id),
		zap.Int("content_len", len(content)),
	)

	return id, false, nil
}

// GetAll returns every stored document in insertion order.
func (s *ChromemStore) GetAll(ctx context.Context) ([]Record, error) {
	ctx, span := chromemTracer.Start(ctx, "ChromemStore.GetAll")
	defer span.End()

	s.mu.Lock()
	n := s.count
	s.mu.Unlock()

	records := make([]Record, 0, n)
	for i := 1; i <= n; i++ {
		id := docID(i)
		doc, err := s.collection.GetByID(ctx, id)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("reading document %s: %w", id, err)
		}
		records = append(records, Record{
			ID:       id,
			Content:  doc.Content,
			Metadata: convertMetadataFromString(doc.Metadata),
		})
	}

	span.SetAttributes(attribute.Int("count", len(records)))
	return records, nil
}

// Query performs nearest-neighbor search with the pre-computed query vector,
// returning up to topK hits ordered by descending cosine similarity. Missing
// metadata on a hit is treated as an empty map.
func (s *ChromemStore) Query(ctx context.Context, text string, embedding []float32, topK int) ([]Match, error) {
	ctx, span := chromemTracer.Start(ctx, "ChromemStore.Query")
	defer span.End()

	span.SetAttributes(attribute.Int("top_k", topK))

	if len(embedding) == 0 {
		return nil, fmt.Errorf("%w: chromem backend requires a pre-computed query vector", ErrMissingEmbedding)
	}
	if topK <= 0 {
		return nil, fmt.Errorf("topK must be positive, got %d", topK)
	}

	// Cap topK at collection size (chromem requires nResults <= doc count).
	docCount := s.collection.Count()
	if docCount == 0 {
		return NoMatch(), nil
	}
	if topK > docCount {
		topK = docCount
	}

	results, err := s.collection.QueryEmbedding(ctx, embedding, topK, nil, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("querying collection %s: %w", s.config.Collection, err)
	}

	if len(results) == 0 {
		return NoMatch(), nil
	}

	matches := make([]Match, len(results))
	for i, r := range results {
		matches[i] = Match{
			Content:  r.Content,
			Metadata: convertMetadataFromString(r.Metadata),
			Score:    r.Similarity,
		}
	}

	span.SetAttributes(attribute.Int("results", len(matches)))
	span.SetStatus(codes.Ok, "success")

	return matches, nil
}

// Count returns the number of stored documents.
func (s *ChromemStore) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count, nil
}

// Close releases the store. chromem persists on write, so there is nothing
// to flush.
func (s *ChromemStore) Close() error {
	s.logger.Debug("closing chromem store")
	return nil
}

// convertMetadataToString converts metadata to chromem's map[string]string.
func convertMetadataToString(metadata map[string]any) map[string]string {
	if metadata == nil {
		return nil
	}

	result := make(map[string]string, len(metadata))
	for k, v := range metadata {
		switch val := v.(type) {
		case string:
			result[k] = val
		case int:
			result[k] = fmt.Sprintf("%d", val)
		case int64:
			result[k] = fmt.Sprintf("%d", val)
		case float64:
			result[k] = fmt.Sprintf("%g", val)
		case bool:
			result[k] = fmt.Sprintf("%t", val)
		default:
			result[k] = fmt.Sprintf("%v", val)
		}
	}
	return result
}

// convertMetadataFromString converts chromem metadata back to map[string]any.
// A nil input yields an empty map, never nil.
func convertMetadataFromString(metadata map[string]string) map[string]any {
	result := make(map[string]any, len(metadata))
	for k, v := range metadata {
		result[k] = v
	}
	return result
}

// Ensure ChromemStore implements Store.
var _ Store = (*ChromemStore)(nil)
