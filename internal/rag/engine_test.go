package rag_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ragd/internal/rag"
	"github.com/fyrsmithlabs/ragd/internal/store"
)

// newTestEngine builds an engine over the in-memory store with no embedder.
func newTestEngine(t *testing.T) *rag.Engine {
	t.Helper()

	engine, err := rag.NewEngine(store.NewMemoryStore(zap.NewNop()), nil, zap.NewNop())
	require.NoError(t, err)
	return engine
}

// failingStore errors on every operation.
type failingStore struct{}

var errBackend = errors.New("backend unavailable")

func (failingStore) Add(ctx context.Context, content string, meta map[string]any, embedding []float32) (string, bool, error) {
	return "", false, errBackend
}

func (failingStore) GetAll(ctx context.Context) ([]store.Record, error) {
	return nil, errBackend
}

func (failingStore) Query(ctx context.Context, text string, embedding []float32, topK int) ([]store.Match, error) {
	return nil, errBackend
}

func (failingStore) Count(ctx context.Context) (int, error) { return 0, errBackend }

func (failingStore) Close() error { return nil }

// failingEmbedder errors on every call.
type failingEmbedder struct{}

var errEmbed = errors.New("embedding service down")

func (failingEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, errEmbed
}

func (failingEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return nil, errEmbed
}

func TestNewEngine_RequiresStore(t *testing.T) {
	_, err := rag.NewEngine(nil, nil, zap.NewNop())
	assert.Error(t, err)
}

func TestEngine_AddDocument(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	result := engine.AddDocument(ctx, "Thinklytics is a data analytics platform", map[string]any{
		"source": "docs",
		"topic":  "product",
	})

	assert.Equal(t, rag.StatusSuccess, result.Status)
	assert.Equal(t, "doc_1", result.ID)
	assert.Empty(t, result.Message)
}

func TestEngine_AddDocument_DuplicateContent(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	content := "MCP (Model Context Protocol) connects agents to tools"

	first := engine.AddDocument(ctx, content, nil)
	require.Equal(t, rag.StatusSuccess, first.Status)

	second := engine.AddDocument(ctx, content, map[string]any{"source": "resubmission"})
	assert.Equal(t, rag.StatusDuplicate, second.Status)
	assert.Equal(t, first.ID, second.ID)
	assert.Contains(t, second.Message, first.ID)

	count, err := engine.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestEngine_AddDocument_DuplicateAfterOtherDocuments(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	first := engine.AddDocument(ctx, "Thinklytics is a blog series about data analytics", nil)
	require.Equal(t, rag.StatusSuccess, first.Status)

	second := engine.AddDocument(ctx, "MCP (Model Context Protocol) connects agents to tools", nil)
	require.Equal(t, rag.StatusSuccess, second.Status)

	// Re-ingesting the first content verbatim reports the first id, not the
	// most recent one, and store size stays at 2.
	third := engine.AddDocument(ctx, "Thinklytics is a blog series about data analytics", nil)
	assert.Equal(t, rag.StatusDuplicate, third.Status)
	assert.Equal(t, first.ID, third.ID)

	docs, err := engine.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestEngine_AddDocument_StampsCreatedAt(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	before := time.Now().Add(-time.Second)
	result := engine.AddDocument(ctx, "timestamped document", nil)
	require.Equal(t, rag.StatusSuccess, result.Status)

	docs, err := engine.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	createdAt, err := time.Parse(time.RFC3339, docs[0].Metadata.CreatedAt)
	require.NoError(t, err)
	assert.True(t, createdAt.After(before))
}

func TestEngine_AddDocument_PreservesCallerCreatedAt(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	result := engine.AddDocument(ctx, "pre-dated document", map[string]any{
		"created_at": "2024-01-15T10:00:00Z",
	})
	require.Equal(t, rag.StatusSuccess, result.Status)

	docs, err := engine.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "2024-01-15T10:00:00Z", docs[0].Metadata.CreatedAt)
}

func TestEngine_AddDocument_StoreErrorReportedAsStatus(t *testing.T) {
	engine, err := rag.NewEngine(failingStore{}, nil, zap.NewNop())
	require.NoError(t, err)

	result := engine.AddDocument(context.Background(), "doomed document", nil)
	assert.Equal(t, rag.StatusError, result.Status)
	assert.Empty(t, result.ID)
	assert.Contains(t, result.Message, "backend unavailable")
}

func TestEngine_AddDocument_EmbedderErrorReportedAsStatus(t *testing.T) {
	engine, err := rag.NewEngine(store.NewMemoryStore(zap.NewNop()), failingEmbedder{}, zap.NewNop())
	require.NoError(t, err)

	result := engine.AddDocument(context.Background(), "unembeddable document", nil)
	assert.Equal(t, rag.StatusError, result.Status)
	assert.Contains(t, result.Message, "embedding service down")
}

func TestEngine_Search(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	engine.AddDocument(ctx, "Go concurrency patterns with channels", nil)
	engine.AddDocument(ctx, "Python machine learning guide", nil)

	results := engine.Search(ctx, "concurrency channels", 5)
	require.NotEmpty(t, results)
	assert.Equal(t, "Go concurrency patterns with channels", results[0].Document)
	assert.Greater(t, results[0].Score, float32(0))
}

func TestEngine_Search_DefaultTopK(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	for _, content := range []string{
		"shared term one", "shared term two", "shared term three",
		"shared term four", "shared term five",
	} {
		engine.AddDocument(ctx, content, nil)
	}

	// Non-positive topK falls back to 3 results.
	results := engine.Search(ctx, "shared", 0)
	assert.Len(t, results, 3)

	results = engine.Search(ctx, "shared", -1)
	assert.Len(t, results, 3)
}

func TestEngine_Search_NoMatchSentinel(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	engine.AddDocument(ctx, "unrelated content entirely", nil)

	results := engine.Search(ctx, "xyzzy", 3)
	require.Len(t, results, 1)
	assert.Equal(t, "No relevant documents found", results[0].Document)
	assert.Zero(t, results[0].Score)
}

func TestEngine_Search_BackendErrorBecomesMessage(t *testing.T) {
	engine, err := rag.NewEngine(failingStore{}, nil, zap.NewNop())
	require.NoError(t, err)

	results := engine.Search(context.Background(), "anything", 3)
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Document, "Error searching knowledge base:")
	assert.Contains(t, results[0].Document, "backend unavailable")
	assert.Zero(t, results[0].Score)
}

func TestEngine_Search_EmbedderErrorBecomesMessage(t *testing.T) {
	engine, err := rag.NewEngine(store.NewMemoryStore(zap.NewNop()), failingEmbedder{}, zap.NewNop())
	require.NoError(t, err)

	results := engine.Search(context.Background(), "anything", 3)
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Document, "Error searching knowledge base:")
}

func TestEngine_Search_MetadataRoundTrips(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	engine.AddDocument(ctx, "document with rich metadata", map[string]any{
		"source":   "wiki",
		"topic":    "retrieval",
		"custom":   "value",
		"priority": 2,
	})

	results := engine.Search(ctx, "metadata", 3)
	require.NotEmpty(t, results)

	meta := results[0].Metadata
	assert.Equal(t, "wiki", meta.Source)
	assert.Equal(t, "retrieval", meta.Topic)
	assert.NotEmpty(t, meta.CreatedAt)
	assert.Contains(t, meta.Extra, "custom")
	assert.Contains(t, meta.Extra, "priority")
}

func TestEngine_ListDocuments_PreviewTruncation(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	long := strings.Repeat("a", 150)
	short := strings.Repeat("b", 50)
	engine.AddDocument(ctx, long, nil)
	engine.AddDocument(ctx, short, nil)

	docs, err := engine.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, strings.Repeat("a", 100)+"...", docs[0].Preview)
	assert.Equal(t, short, docs[1].Preview)
}

func TestEngine_ListDocuments_PreviewCountsCharacters(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	// 120 multi-byte characters must truncate at 100 characters, not bytes.
	content := strings.Repeat("é", 120)
	engine.AddDocument(ctx, content, nil)

	docs, err := engine.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, strings.Repeat("é", 100)+"...", docs[0].Preview)
}

func TestEngine_ListDocuments_Empty(t *testing.T) {
	engine := newTestEngine(t)

	docs, err := engine.ListDocuments(context.Background())
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestEngine_AllDocumentsText(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	engine.AddDocument(ctx, "first body", nil)
	engine.AddDocument(ctx, "second body", nil)

	text, err := engine.AllDocumentsText(ctx)
	require.NoError(t, err)
	assert.Equal(t, "--- Document doc_1 ---\nfirst body\n\n--- Document doc_2 ---\nsecond body\n\n", text)
}

func TestEngine_AllDocumentsText_Empty(t *testing.T) {
	engine := newTestEngine(t)

	text, err := engine.AllDocumentsText(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "No documents available in the knowledge base.", text)
}
