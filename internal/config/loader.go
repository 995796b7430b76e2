package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// envPrefix is the prefix for ragd environment variables.
const envPrefix = "RAGD_"

// Load loads configuration from the optional YAML file at configPath, then
// overrides with environment variables.
//
// Configuration precedence (highest to lowest):
//  1. CHROMA_DB_PATH (dedicated override for the persistent index path)
//  2. RAGD_* environment variables (RAGD_SERVER_PORT, RAGD_STORE_PROVIDER, ...)
//  3. YAML config file
//  4. Hardcoded defaults
//
// Environment variables use underscore separators mapped to config sections:
//
//	RAGD_SERVER_PORT      -> server.port
//	RAGD_LOG_LEVEL        -> log.level
//	RAGD_STORE_PROVIDER   -> store.provider
//	RAGD_EMBEDDINGS_MODEL -> embeddings.model
//
// An empty configPath skips the file layer entirely.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		content, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", configPath, err)
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", configPath, err)
		}
	}

	// Override with environment variables. The transformer splits on the
	// first underscore after the prefix: section, then field name.
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// CHROMA_DB_PATH is honored for compatibility with existing deployments.
	if path := os.Getenv("CHROMA_DB_PATH"); path != "" {
		cfg.Store.Path = path
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}
