// Package store defines the document storage abstraction for the knowledge
// base and its two backends.
//
// A Store persists text documents with free-form metadata and answers
// similarity queries. Two implementations exist:
//
//   - ChromemStore: embedded chromem-go vector index, persistent on disk.
//     Similarity is cosine similarity over pre-computed embeddings.
//   - MemoryStore: in-process fallback with lexical term-overlap scoring;
//     contents do not survive a restart.
//
// Both backends report scores on the same scale: similarity in [0,1], higher
// is more relevant. Document ids are assigned by the store as doc_1, doc_2,
// ... in insertion order. Content uniqueness is enforced inside the store:
// Add is an insert-if-absent keyed by a SHA-256 content hash, so concurrent
// ingestion of identical content yields exactly one stored copy.
package store

import (
	"context"
	"errors"
)

// Sentinel errors for store operations.
var (
	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmptyContent indicates an attempt to store empty content.
	ErrEmptyContent = errors.New("empty content")

	// ErrMissingEmbedding indicates that a backend requiring pre-computed
	// embeddings was called without one.
	ErrMissingEmbedding = errors.New("missing embedding")
)

// NoMatchContent is the content of the sentinel result returned when a query
// produces no relevant documents.
const NoMatchContent = "No relevant documents found"

// Store is the persistence and similarity-search abstraction.
//
// Implementations are safe for concurrent use.
type Store interface {
	// Add persists one document and returns its assigned id.
	//
	// Add is an atomic insert-if-absent on exact content equality: when a
	// document with identical content already exists, the existing id is
	// returned with existed = true and nothing is written.
	//
	// The embedding parameter carries the pre-computed document vector for
	// embedding-indexed backends; lexical backends ignore it.
	//
	// Metadata value fidelity is backend dependent: the persistent backend
	// stores values as strings, so non-string values come back stringified
	// from GetAll and Query, while the in-memory backend preserves the
	// original types.
	Add(ctx context.Context, content string, meta map[string]any, embedding []float32) (id string, existed bool, err error)

	// GetAll returns every stored document in insertion order. An empty
	// store yields an empty slice, never an error.
	GetAll(ctx context.Context) ([]Record, error)

	// Query returns up to topK matches ordered best-first by similarity.
	// topK must be positive.
	//
	// The embedding parameter carries the pre-computed query vector for
	// embedding-indexed backends. When the store is empty or nothing scores
	// above the backend's relevance floor, Query returns the single
	// NoMatchContent sentinel with score 0.
	Query(ctx context.Context, text string, embedding []float32, topK int) ([]Match, error)

	// Count returns the number of stored documents.
	Count(ctx context.Context) (int, error)

	// Close releases backend resources.
	Close() error
}

// NoMatch returns the sentinel result slice for an empty query outcome.
func NoMatch() []Match {
	return []Match{{Content: NoMatchContent, Metadata: map[string]any{}, Score: 0}}
}
