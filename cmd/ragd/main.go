// Ragd is an MCP server exposing a retrieval-augmented knowledge base.
//
// Documents are ingested with content deduplication, embedded, and stored in
// an embedded persistent vector index (chromem-go). When the persistent
// backend cannot be opened, the server falls back to an in-memory lexical
// store so the tool surface stays available.
//
// Usage:
//
//	# Serve over stdio (default, for agent integration)
//	ragd
//
//	# Serve over HTTP
//	ragd --http --host 0.0.0.0 --port 8000
//
//	# Configure via environment
//	CHROMA_DB_PATH=/var/lib/ragd/index ragd
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ragd/internal/config"
	"github.com/fyrsmithlabs/ragd/internal/embeddings"
	"github.com/fyrsmithlabs/ragd/internal/logging"
	ragmcp "github.com/fyrsmithlabs/ragd/internal/mcp"
	"github.com/fyrsmithlabs/ragd/internal/rag"
	"github.com/fyrsmithlabs/ragd/internal/store"
)

// Version information (set via ldflags during build).
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

var (
	flagStdio      bool
	flagHTTP       bool
	flagHost       string
	flagPort       int
	flagConfigPath string
)

var rootCmd = &cobra.Command{
	Use:   "ragd",
	Short: "MCP server with RAG knowledge base",
	Long: `ragd serves a retrieval-augmented knowledge base over the Model Context
Protocol. Callers add text documents and search them with natural-language
queries; results are ranked by semantic similarity.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func init() {
	rootCmd.Flags().BoolVar(&flagStdio, "stdio", false, "serve over stdio (default)")
	rootCmd.Flags().BoolVar(&flagHTTP, "http", false, "serve over HTTP")
	rootCmd.Flags().StringVar(&flagHost, "host", "", "HTTP server host (overrides config)")
	rootCmd.Flags().IntVar(&flagPort, "port", 0, "HTTP server port (overrides config)")
	rootCmd.Flags().StringVar(&flagConfigPath, "config", "", "path to YAML config file")
	rootCmd.MarkFlagsMutuallyExclusive("stdio", "http")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ragd\nVersion:    %s\nCommit:     %s\nBuild Date: %s\n", version, gitCommit, buildDate)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ragd: %v\n", err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfigPath)
	if err != nil {
		return err
	}
	if flagHost != "" {
		cfg.Server.Host = flagHost
	}
	if flagPort != 0 {
		cfg.Server.Port = flagPort
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st, embedder := buildBackend(cfg, logger)
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error("closing store", zap.Error(err))
		}
	}()

	engine, err := rag.NewEngine(st, embedder, logger.Named("rag"))
	if err != nil {
		return err
	}

	srv, err := ragmcp.NewServer(&ragmcp.Config{
		Name:           "ragd",
		Version:        version,
		SampleDataPath: cfg.SampleDataPath,
		Logger:         logger.Named("mcp"),
	}, engine)
	if err != nil {
		return err
	}

	if flagHTTP {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		return srv.RunHTTP(ctx, addr, cfg.Server.ShutdownTimeout)
	}
	return srv.Run(ctx)
}

// buildBackend constructs the document store and its embedder. When the
// persistent vector backend cannot be opened, it logs the failure and falls
// back to the in-memory lexical store (no embedder) instead of refusing to
// start.
func buildBackend(cfg *config.Config, logger *zap.Logger) (store.Store, rag.Embedder) {
	if cfg.Store.Provider == "memory" {
		logger.Info("using in-memory document store")
		return store.NewMemoryStore(logger.Named("store")), nil
	}

	embedSvc, err := embeddings.NewService(cfg.Embeddings, logger.Named("embeddings"))
	if err != nil {
		logger.Warn("embedding service unavailable, falling back to in-memory store", zap.Error(err))
		return store.NewMemoryStore(logger.Named("store")), nil
	}

	st, err := store.NewStore(cfg, logger.Named("store"))
	if err != nil {
		logger.Warn("persistent store unavailable, falling back to in-memory store",
			zap.String("path", cfg.Store.Path),
			zap.Error(err),
		)
		return store.NewMemoryStore(logger.Named("store")), nil
	}

	return st, embedSvc
}
