package config

import "time"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.AllowedOrigins == nil {
		cfg.Server.AllowedOrigins = []string{"http://localhost:3000"}
	}
	if cfg.Server.RequestTimeout == 0 {
		// Indexing a large archive makes one embedding call per message.
		cfg.Server.RequestTimeout = 10 * time.Minute
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "file"
	}
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = "./data"
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "openai"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "text-embedding-3-small"
	}
	if cfg.Embedding.Timeout == 0 {
		cfg.Embedding.Timeout = 30 * time.Second
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 1000
	}
	if cfg.Embedding.Concurrency == 0 {
		cfg.Embedding.Concurrency = 4
	}
	if cfg.Index.MinContentLength == 0 {
		cfg.Index.MinContentLength = 10
	}
	if cfg.Search.DefaultTopK == 0 {
		cfg.Search.DefaultTopK = 5
	}
	if cfg.Search.DefaultMinScore == nil {
		v := 0.7
		cfg.Search.DefaultMinScore = &v
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 2 * time.Second
	}
}
