package rag

import "github.com/fyrsmithlabs/ragd/internal/metadata"

// Status is the outcome of a document ingestion.
type Status string

// Ingestion outcomes.
const (
	StatusSuccess   Status = "success"
	StatusDuplicate Status = "duplicate"
	StatusError     Status = "error"
)

// AddResult is the response of AddDocument.
type AddResult struct {
	Status  Status `json:"status"`
	ID      string `json:"id,omitempty"`
	Message string `json:"message,omitempty"`
}

// SearchResult is one knowledge base search hit.
type SearchResult struct {
	// Document is the matched content, or a no-match/error sentinel text.
	Document string `json:"document"`

	// Metadata is the matched document's metadata; zero when none.
	Metadata metadata.DocumentMetadata `json:"metadata"`

	// Score is similarity in [0,1], higher = more relevant.
	Score float32 `json:"score"`
}

// Document is a stored document as listed to callers. Content is abbreviated
// to a preview; the full body is available through the bulk text export.
type Document struct {
	ID       string                    `json:"id"`
	Preview  string                    `json:"preview"`
	Metadata metadata.DocumentMetadata `json:"metadata"`
}
