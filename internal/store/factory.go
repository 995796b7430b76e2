package store

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ragd/internal/config"
)

// NewStore creates a Store based on the configuration.
//
// The provider field selects the implementation:
//   - "chromem" (default): embedded persistent vector index, no external
//     services required
//   - "memory": ephemeral in-process store with lexical scoring
//
// Example:
//
//	cfg, err := config.Load("")
//	st, err := store.NewStore(cfg, logger)
//	defer st.Close()
func NewStore(cfg *config.Config, logger *zap.Logger) (Store, error) {
	switch cfg.Store.Provider {
	case "chromem", "":
		chromemCfg := ChromemConfig{
			Path:       cfg.Store.Path,
			Compress:   cfg.Store.Compress,
			Collection: cfg.Store.Collection,
		}
		return NewChromemStore(chromemCfg, logger)

	case "memory":
		return NewMemoryStore(logger), nil

	default:
		return nil, fmt.Errorf("%w: unsupported store provider %q (supported: chromem, memory)", ErrInvalidConfig, cfg.Store.Provider)
	}
}
