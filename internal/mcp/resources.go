package mcp

import (
	"context"
	"fmt"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// documentsResourceURI serves the bulk text export of the knowledge base.
	documentsResourceURI = "documents://all"

	// sampleDataResourceURI serves the configured sample data file.
	sampleDataResourceURI = "sample://data"

	sampleDataMissingText = "Sample data file not found"
)

func (s *Server) registerResources() {
	s.mcp.AddResource(&mcp.Resource{
		URI:         documentsResourceURI,
		Name:        "all-documents",
		Description: "All knowledge base documents as formatted text",
		MIMEType:    "text/plain",
	}, s.handleDocumentsResource)

	s.mcp.AddResource(&mcp.Resource{
		URI:         sampleDataResourceURI,
		Name:        "sample-data",
		Description: "Sample data for quick experimentation",
		MIMEType:    "text/plain",
	}, s.handleSampleDataResource)
}

// handleDocumentsResource renders every document's id and full content.
func (s *Server) handleDocumentsResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	text, err := s.engine.AllDocumentsText(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading documents: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     text,
		}},
	}, nil
}

// handleSampleDataResource serves the sample data file, substituting a fixed
// placeholder when the file is absent.
func (s *Server) handleSampleDataResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	text := sampleDataMissingText
	if s.sampleDataPath != "" {
		if content, err := os.ReadFile(s.sampleDataPath); err == nil {
			text = string(content)
		}
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     text,
		}},
	}, nil
}
