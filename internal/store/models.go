package store

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Record is one stored document as returned by GetAll.
type Record struct {
	// ID is the store-assigned identifier (doc_1, doc_2, ...).
	ID string

	// Content is the full text body.
	Content string

	// Metadata is the flat metadata map as persisted.
	Metadata map[string]any
}

// Match is one similarity-search hit.
type Match struct {
	// Content is the matched document text, or the no-match sentinel.
	Content string

	// Metadata is the matched document's metadata; empty map when absent.
	Metadata map[string]any

	// Score is similarity in [0,1], higher = more relevant.
	Score float32
}

// docID formats the sequential document identifier for position n (1-based).
func docID(n int) string {
	return fmt.Sprintf("doc_%d", n)
}

// contentHash returns the hex SHA-256 of content, the key of the uniqueness
// index maintained by both backends.
func contentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
