// Package mcp exposes the knowledge base over the Model Context Protocol.
//
// The server registers the RAG tools (add_document, rag_search,
// list_documents), the document export and sample data resources, and the
// greeting prompt, and serves them over stdio or streamable HTTP.
package mcp

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ragd/internal/rag"
)

// Config configures the MCP server.
type Config struct {
	// Name is the server implementation name (default: "ragd").
	Name string

	// Version is the server version (default: "dev").
	Version string

	// SampleDataPath is the file backing the sample://data resource.
	SampleDataPath string

	// Logger for structured logging.
	Logger *zap.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Name:    "ragd",
		Version: "dev",
		Logger:  zap.NewNop(),
	}
}

// Server is the MCP server over the retrieval engine.
type Server struct {
	mcp            *mcp.Server
	engine         *rag.Engine
	sampleDataPath string
	logger         *zap.Logger
}

// NewServer creates an MCP server with all tools, resources and prompts
// registered.
func NewServer(cfg *Config, engine *rag.Engine) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if engine == nil {
		return nil, fmt.Errorf("engine is required")
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    cfg.Name,
			Version: cfg.Version,
		},
		nil,
	)

	s := &Server{
		mcp:            mcpServer,
		engine:         engine,
		sampleDataPath: cfg.SampleDataPath,
		logger:         cfg.Logger,
	}

	s.registerTools()
	s.registerResources()
	s.registerPrompts()

	return s, nil
}

// Run starts the MCP server on the stdio transport. It blocks until the
// context is cancelled or the transport closes.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("starting MCP server on stdio transport")
	if err := s.mcp.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("server run failed: %w", err)
	}
	return nil
}

// RunHTTP serves the MCP server over streamable HTTP on addr, with a
// /healthz endpoint alongside. It blocks until the context is cancelled.
func (s *Server) RunHTTP(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcp
	}, nil)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.Any("/mcp", echo.WrapHandler(handler))
	e.Any("/mcp/*", echo.WrapHandler(handler))

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting MCP server on HTTP transport", zap.String("addr", addr))
		errCh <- e.Start(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	}
}
