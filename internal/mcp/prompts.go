package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const greetingTemplate = `Hello %s! I'm an AI assistant with access to a knowledge base.

You can ask me to:
1. Search for information using the knowledge base
2. Add new information to the knowledge base
3. List all documents in the knowledge base
4. Perform simple calculations

How can I help you today?`

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(&mcp.Prompt{
		Name:        "greeting",
		Description: "Create a greeting prompt for the user",
		Arguments: []*mcp.PromptArgument{
			{
				Name:        "name",
				Description: "Name of the user to greet",
				Required:    true,
			},
		},
	}, s.handleGreetingPrompt)
}

func (s *Server) handleGreetingPrompt(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	name := req.Params.Arguments["name"]
	if name == "" {
		name = "there"
	}

	return &mcp.GetPromptResult{
		Description: "Greeting prompt",
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: fmt.Sprintf(greetingTemplate, name)},
			},
		},
	}, nil
}
