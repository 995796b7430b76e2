// Package config provides configuration loading for ragd.
//
// Configuration is read from an optional YAML file and overridden by
// environment variables, with hardcoded defaults as the base layer.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds the complete ragd configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Log        LogConfig        `koanf:"log"`
	Store      StoreConfig      `koanf:"store"`
	Embeddings EmbeddingsConfig `koanf:"embeddings"`

	// SampleDataPath is the file served by the sample://data resource.
	SampleDataPath string `koanf:"sample_data_path"`
}

// ServerConfig holds HTTP server configuration (HTTP serve mode only).
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// LogConfig holds logger configuration.
type LogConfig struct {
	// Level is the minimum log level: debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is the output encoding: json or console.
	Format string `koanf:"format"`
}

// StoreConfig holds document store configuration.
type StoreConfig struct {
	// Provider selects the backend: "chromem" (persistent, default) or
	// "memory" (ephemeral lexical fallback).
	Provider string `koanf:"provider"`

	// Path is the directory for the persistent chromem index.
	// Overridable via CHROMA_DB_PATH. Default: "./chroma_db".
	Path string `koanf:"path"`

	// Collection is the chromem collection name. Default: "documents".
	Collection string `koanf:"collection"`

	// Compress enables gzip compression of persisted records.
	Compress bool `koanf:"compress"`
}

// EmbeddingsConfig holds the embedding service configuration.
type EmbeddingsConfig struct {
	// BaseURL is the base URL of the TEI-compatible embedding API.
	BaseURL string `koanf:"base_url"`

	// Model is the embedding model identifier.
	Model string `koanf:"model"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}

	if c.Store.Provider == "" {
		c.Store.Provider = "chromem"
	}
	if c.Store.Path == "" {
		c.Store.Path = "./chroma_db"
	}
	if c.Store.Collection == "" {
		c.Store.Collection = "documents"
	}

	if c.Embeddings.BaseURL == "" {
		c.Embeddings.BaseURL = "http://localhost:8080"
	}
	if c.Embeddings.Model == "" {
		c.Embeddings.Model = "BAAI/bge-small-en-v1.5"
	}

	if c.SampleDataPath == "" {
		c.SampleDataPath = "sample_data.txt"
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}

	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log format: %q (must be json or console)", c.Log.Format)
	}

	switch c.Store.Provider {
	case "chromem", "memory":
	default:
		return fmt.Errorf("unsupported store provider: %q (supported: chromem, memory)", c.Store.Provider)
	}

	if c.Store.Provider == "chromem" && c.Store.Path == "" {
		return errors.New("store path required for chromem provider")
	}

	return nil
}
