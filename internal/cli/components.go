package cli

import (
	"fmt"

	"github.com/hyperjump/chatsearch/internal/config"
	"github.com/hyperjump/chatsearch/internal/embedding"
	"github.com/hyperjump/chatsearch/internal/indexer"
	"github.com/hyperjump/chatsearch/internal/search"
	"github.com/hyperjump/chatsearch/internal/storage"
	"github.com/hyperjump/chatsearch/pkg/utils"
	"go.uber.org/zap"
)

// Components holds initialized services.
type Components struct {
	Config   *config.Config
	Logger   *zap.Logger
	Store    storage.Store
	Embedder embedding.Embedder
	Engine   *search.Engine
	Indexer  *indexer.Indexer
}

// Close releases the store, the embedder and flushes the logger.
func (c *Components) Close() {
	if c.Store != nil {
		_ = c.Store.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}
}

// setup loads config and builds the logger and store. The embedder, engine and indexer are only
// built when withEmbedder is set, so store-only commands work without an API key.
func setup(opts *rootOptions, withEmbedder bool) (*Components, error) {
	cfg, path, err := loadConfig(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	debug := cfg.Debug || opts.debug
	cfg.Debug = debug
	logger, err := utils.NewLogger(debug)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	logger.Debug("config loaded", zap.String("config_path", path), zap.String("storage_backend", cfg.Storage.Backend))
	return initializeComponents(cfg, logger, withEmbedder)
}

func initializeComponents(cfg *config.Config, logger *zap.Logger, withEmbedder bool) (*Components, error) {
	store, err := storage.New(&cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	c := &Components{Config: cfg, Logger: logger, Store: store}
	if !withEmbedder {
		return c, nil
	}

	embedder, err := embedding.New(&cfg.Embedding, logger)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	c.Embedder = embedder

	var engineOpts []search.EngineOption
	idxOpts := []indexer.IndexerOption{indexer.WithConcurrency(cfg.Embedding.Concurrency)}
	if cfg.Debug {
		engineOpts = append(engineOpts, search.WithLogger(logger))
	}
	idxOpts = append(idxOpts, indexer.WithLogger(logger))
	c.Engine = search.NewEngine(store, embedder, engineOpts...)
	c.Indexer = indexer.NewIndexer(store, embedder, &cfg.Index, idxOpts...)
	logger.Debug("components initialized",
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.String("embedding_model", embedder.Model()),
	)
	return c, nil
}
