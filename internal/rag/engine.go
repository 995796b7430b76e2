// Package rag orchestrates the knowledge base: ingestion with content
// deduplication, similarity search, and document listing. The engine is
// independent of which store backend is active and never lets a backend
// failure escape as a raw error from its tool-facing operations; failures
// surface as typed status/message results.
package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ragd/internal/metadata"
	"github.com/fyrsmithlabs/ragd/internal/store"
)

const (
	// defaultTopK is the search result count when the caller passes none.
	defaultTopK = 3

	// previewRunes is the preview length in characters.
	previewRunes = 100

	previewEllipsis = "..."

	// noDocumentsText is the bulk export body for an empty store.
	noDocumentsText = "No documents available in the knowledge base."
)

// SearchErrorPrefix starts the Document text of the sentinel result returned
// when a search fails.
const SearchErrorPrefix = "Error searching knowledge base: "

// timeNow is a variable for testing purposes.
var timeNow = time.Now

// Embedder maps text to a fixed-length vector. It is an opaque external
// capability; the engine only requires it for embedding-indexed backends.
type Embedder interface {
	// EmbedDocuments generates embeddings for multiple texts.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates an embedding for a single query.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Engine is the retrieval engine over a single document store.
//
// Safe for concurrent use: content uniqueness is enforced atomically inside
// the store, so concurrent AddDocument calls with identical content yield
// exactly one stored copy.
type Engine struct {
	store    store.Store
	embedder Embedder // nil for the lexical backend
	logger   *zap.Logger
}

// NewEngine creates an engine over the given store. The embedder may be nil
// when the backend does not index by embedding (the in-memory fallback).
func NewEngine(st store.Store, embedder Embedder, logger *zap.Logger) (*Engine, error) {
	if st == nil {
		return nil, fmt.Errorf("store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Engine{
		store:    st,
		embedder: embedder,
		logger:   logger,
	}, nil
}

// AddDocument ingests one document: metadata is normalized and timestamped,
// the content embedded when an embedder is configured, and the record handed
// to the store. Identical content is reported as a duplicate carrying the
// existing document's id; nothing is written in that case.
func (e *Engine) AddDocument(ctx context.Context, content string, meta map[string]any) AddResult {
	norm := metadata.Normalize(meta)
	if norm.CreatedAt == "" {
		norm.CreatedAt = timeNow().Format(time.RFC3339)
	}

	var embedding []float32
	if e.embedder != nil {
		vectors, err := e.embedder.EmbedDocuments(ctx, []string{content})
		if err != nil {
			e.logger.Error("embedding document failed", zap.Error(err))
			return AddResult{Status: StatusError, Message: fmt.Sprintf("embedding document: %s", err)}
		}
		embedding = vectors[0]
	}

	id, existed, err := e.store.Add(ctx, content, norm.Flatten(), embedding)
	if err != nil {
		e.logger.Error("storing document failed", zap.Error(err))
		return AddResult{Status: StatusError, Message: fmt.Sprintf("storing document: %s", err)}
	}

	if existed {
		e.logger.Info("duplicate document rejected", zap.String("existing_id", id))
		return AddResult{
			Status:  StatusDuplicate,
			ID:      id,
			Message: fmt.Sprintf("document already exists with id %s", id),
		}
	}

	e.logger.Info("document added", zap.String("id", id), zap.Int("content_len", len(content)))
	return AddResult{Status: StatusSuccess, ID: id}
}

// Search returns up to topK results ordered best-first by the backend. A
// non-positive topK defaults to 3. Backend failures surface as a single
// error-message sentinel result rather than an error.
func (e *Engine) Search(ctx context.Context, query string, topK int) []SearchResult {
	if topK <= 0 {
		topK = defaultTopK
	}

	var embedding []float32
	if e.embedder != nil {
		vec, err := e.embedder.EmbedQuery(ctx, query)
		if err != nil {
			e.logger.Error("embedding query failed", zap.Error(err))
			return errorSearchResult(err)
		}
		embedding = vec
	}

	matches, err := e.store.Query(ctx, query, embedding, topK)
	if err != nil {
		e.logger.Error("search failed", zap.Error(err))
		return errorSearchResult(err)
	}

	// Backend order is authoritative; results are never reordered here.
	results := make([]SearchResult, len(matches))
	for i, m := range matches {
		results[i] = SearchResult{
			Document: m.Content,
			Metadata: metadata.Normalize(m.Metadata),
			Score:    m.Score,
		}
	}
	return results
}

// ListDocuments returns all stored documents in insertion order, with
// previews of at most 100 characters and reconstructed metadata.
func (e *Engine) ListDocuments(ctx context.Context) ([]Document, error) {
	records, err := e.store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	docs := make([]Document, len(records))
	for i, rec := range records {
		docs[i] = Document{
			ID:       rec.ID,
			Preview:  preview(rec.Content),
			Metadata: metadata.Normalize(rec.Metadata),
		}
	}
	return docs, nil
}

// AllDocumentsText renders the bulk text export: every document's id and
// full content, or a fixed placeholder when the store is empty.
func (e *Engine) AllDocumentsText(ctx context.Context) (string, error) {
	records, err := e.store.GetAll(ctx)
	if err != nil {
		return "", fmt.Errorf("exporting documents: %w", err)
	}

	if len(records) == 0 {
		return noDocumentsText, nil
	}

	var b strings.Builder
	for _, rec := range records {
		fmt.Fprintf(&b, "--- Document %s ---\n%s\n\n", rec.ID, rec.Content)
	}
	return b.String(), nil
}

// Count returns the number of stored documents.
func (e *Engine) Count(ctx context.Context) (int, error) {
	return e.store.Count(ctx)
}

// preview truncates content to the preview length, counting characters
// rather than bytes.
func preview(content string) string {
	runes := []rune(content)
	if len(runes) <= previewRunes {
		return content
	}
	return string(runes[:previewRunes]) + previewEllipsis
}

func errorSearchResult(err error) []SearchResult {
	return []SearchResult{{
		Document: SearchErrorPrefix + err.Error(),
		Metadata: metadata.DocumentMetadata{},
		Score:    0,
	}}
}
