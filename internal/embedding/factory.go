package embedding

import (
	"fmt"

	"github.com/hyperjump/chatsearch/internal/config"
	"go.uber.org/zap"
)

// Provider names accepted in embedding.provider.
const (
	ProviderOpenAI = providerOpenAI
	ProviderHash   = "hash"
)

// New creates the embedder selected by cfg.Provider, wrapped in an LRU cache when cfg.CacheSize > 0.
func New(cfg *config.EmbeddingConfig, logger *zap.Logger) (Embedder, error) {
	var base Embedder
	switch cfg.Provider {
	case ProviderOpenAI, "":
		e, err := NewOpenAIEmbedder(cfg, logger)
		if err != nil {
			return nil, err
		}
		base = e
	case ProviderHash:
		base = NewHashEmbedder(cfg.Dimensions)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (supported: openai, hash)", cfg.Provider)
	}
	if cfg.CacheSize <= 0 {
		return base, nil
	}
	return NewCachedEmbedder(base, cfg.CacheSize)
}
