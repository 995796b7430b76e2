package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/fyrsmithlabs/ragd/internal/rag"
	"github.com/fyrsmithlabs/ragd/internal/store"
)

type echoInput struct {
	Message string `json:"message" jsonschema:"required,Message to echo back"`
}

type echoOutput struct {
	Message string `json:"message" jsonschema:"Echoed message"`
}

type addInput struct {
	A float64 `json:"a" jsonschema:"required,First number"`
	B float64 `json:"b" jsonschema:"required,Second number"`
}

type addOutput struct {
	Sum float64 `json:"sum" jsonschema:"Sum of the two numbers"`
}

type addDocumentInput struct {
	Content  string         `json:"content" jsonschema:"required,Text content of the document to store"`
	Metadata map[string]any `json:"metadata,omitempty" jsonschema:"Optional metadata (source, topic, created_at, or any extra fields)"`
}

type ragSearchInput struct {
	Query string `json:"query" jsonschema:"required,Natural-language search query"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"Maximum number of results to return (default: 3)"`
}

type ragSearchOutput struct {
	Results []rag.SearchResult `json:"results" jsonschema:"Matches ordered best-first"`
}

type listDocumentsInput struct{}

type listDocumentsOutput struct {
	Documents []rag.Document `json:"documents" jsonschema:"All stored documents in insertion order"`
	Count     int            `json:"count" jsonschema:"Number of stored documents"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "echo",
		Description: "Echo back the provided message",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args echoInput) (*mcp.CallToolResult, echoOutput, error) {
		msg := fmt.Sprintf("Echo: %s", args.Message)
		return textResult(msg), echoOutput{Message: msg}, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "add",
		Description: "Add two numbers together",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args addInput) (*mcp.CallToolResult, addOutput, error) {
		sum := args.A + args.B
		return textResult(fmt.Sprintf("%g", sum)), addOutput{Sum: sum}, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "add_document",
		Description: "Add a document to the knowledge base. Duplicate content is rejected with the existing document's id.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args addDocumentInput) (*mcp.CallToolResult, rag.AddResult, error) {
		result := s.engine.AddDocument(ctx, args.Content, args.Metadata)

		var text string
		switch result.Status {
		case rag.StatusSuccess:
			text = fmt.Sprintf("Document stored with id %s", result.ID)
		case rag.StatusDuplicate:
			text = result.Message
		default:
			text = fmt.Sprintf("Failed to store document: %s", result.Message)
		}
		return textResult(text), result, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "rag_search",
		Description: "Search the knowledge base for information related to the query",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args ragSearchInput) (*mcp.CallToolResult, ragSearchOutput, error) {
		results := s.engine.Search(ctx, args.Query, args.TopK)

		text := fmt.Sprintf("Found %d result(s)", len(results))
		if len(results) == 1 && isSentinelResult(results[0]) {
			text = results[0].Document
		}
		return textResult(text), ragSearchOutput{Results: results}, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "list_documents",
		Description: "List all documents in the knowledge base with id, preview and metadata",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args listDocumentsInput) (*mcp.CallToolResult, listDocumentsOutput, error) {
		docs, err := s.engine.ListDocuments(ctx)
		if err != nil {
			return nil, listDocumentsOutput{}, err
		}

		out := listDocumentsOutput{Documents: docs, Count: len(docs)}
		return textResult(fmt.Sprintf("%d document(s) stored", out.Count)), out, nil
	})
}

// isSentinelResult reports whether a search result is the no-match or
// search-error placeholder rather than a stored document. A real document
// with zero similarity is not a sentinel.
func isSentinelResult(r rag.SearchResult) bool {
	return r.Document == store.NoMatchContent || strings.HasPrefix(r.Document, rag.SearchErrorPrefix)
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}
