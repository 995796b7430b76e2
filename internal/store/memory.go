package store

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// MemoryStore implements Store with in-process storage and lexical overlap
// scoring. It is the fallback backend when the persistent vector index is
// unavailable; contents do not survive a process restart.
type MemoryStore struct {
	logger *zap.Logger

	mu      sync.RWMutex
	records []Record          // insertion order
	byHash  map[string]string // content hash -> id
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryStore{
		logger: logger,
		byHash: make(map[string]string),
	}
}

// Add stores one document, assigning the next sequential id. Identical
// content returns the existing id without writing.
func (s *MemoryStore) Add(ctx context.Context, content string, meta map[string]any, _ []float32) (string, bool, error) {
	if content == "" {
		return "", false, ErrEmptyContent
	}

	hash := contentHash(content)

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byHash[hash]; ok {
		return id, true, nil
	}

	id := docID(len(s.records) + 1)
	s.records = append(s.records, Record{
		ID:       id,
		Content:  content,
		Metadata: cloneMetadata(meta),
	})
	s.byHash[hash] = id

	s.logger.Debug("stored document in memory",
		zap.String("id", id),
		zap.Int("content_len", len(content)),
	)

	return id, false, nil
}

// GetAll returns all documents in insertion order.
func (s *MemoryStore) GetAll(ctx context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, len(s.records))
	for i, rec := range s.records {
		out[i] = Record{
			ID:       rec.ID,
			Content:  rec.Content,
			Metadata: cloneMetadata(rec.Metadata),
		}
	}
	return out, nil
}

// Query scores documents by normalized term overlap: the query is split on
// whitespace into lowercase terms, and each document scores the fraction of
// terms present as substrings of its lowercased content. Documents scoring 0
// are excluded; ties keep insertion order. The query embedding is ignored.
func (s *MemoryStore) Query(ctx context.Context, text string, _ []float32, topK int) ([]Match, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("topK must be positive, got %d", topK)
	}

	terms := strings.Fields(strings.ToLower(text))
	if len(terms) == 0 {
		return NoMatch(), nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		idx   int
		score float32
	}

	var hits []scored
	for i, rec := range s.records {
		content := strings.ToLower(rec.Content)
		found := 0
		for _, term := range terms {
			if strings.Contains(content, term) {
				found++
			}
		}
		if found == 0 {
			continue
		}
		hits = append(hits, scored{idx: i, score: float32(found) / float32(len(terms))})
	}

	if len(hits) == 0 {
		return NoMatch(), nil
	}

	// Stable sort preserves insertion order between equal scores.
	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].score > hits[b].score
	})

	if len(hits) > topK {
		hits = hits[:topK]
	}

	matches := make([]Match, len(hits))
	for i, h := range hits {
		rec := s.records[h.idx]
		matches[i] = Match{
			Content:  rec.Content,
			Metadata: cloneMetadata(rec.Metadata),
			Score:    h.score,
		}
	}
	return matches, nil
}

// Count returns the number of stored documents.
func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

// Close is a no-op for the in-memory backend.
func (s *MemoryStore) Close() error {
	return nil
}

// cloneMetadata copies a metadata map so callers cannot mutate stored state.
// A nil input yields an empty map, never nil.
func cloneMetadata(meta map[string]any) map[string]any {
	out := make(map[string]any, len(meta))
	maps.Copy(out, meta)
	return out
}

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
