// Package config provides configuration loading and structs for the chatsearch server.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug" env:"CHATSEARCH_DEBUG"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Index     IndexConfig     `yaml:"index"`
	Search    SearchConfig    `yaml:"search"`
	Watch     WatchConfig     `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string        `yaml:"host" env:"CHATSEARCH_HOST"`
	Port           int           `yaml:"port" env:"CHATSEARCH_PORT"`
	AllowedOrigins []string      `yaml:"allowed_origins" env:"CHATSEARCH_ALLOWED_ORIGINS"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"CHATSEARCH_REQUEST_TIMEOUT"`
	MetricsEnabled *bool         `yaml:"metrics_enabled" env:"CHATSEARCH_METRICS_ENABLED"`
}

// MetricsOrDefault returns whether /metrics is served; defaults to true when unset.
func (s *ServerConfig) MetricsOrDefault() bool {
	if s.MetricsEnabled != nil {
		return *s.MetricsEnabled
	}
	return true
}

// StorageConfig selects the store backend and where it keeps its files.
type StorageConfig struct {
	Backend      string `yaml:"backend" env:"CHATSEARCH_STORAGE_BACKEND"`
	DataDir      string `yaml:"data_dir" env:"CHATSEARCH_DATA_DIR"`
	DatabasePath string `yaml:"database_path" env:"CHATSEARCH_DATABASE_PATH"`
	BoltPath     string `yaml:"bolt_path" env:"CHATSEARCH_BOLT_PATH"`
}

// resolvePaths places database files inside DataDir unless configured explicitly.
func (s *StorageConfig) resolvePaths() {
	if s.DatabasePath == "" {
		s.DatabasePath = filepath.Join(s.DataDir, "chatsearch.db")
	}
	if s.BoltPath == "" {
		s.BoltPath = filepath.Join(s.DataDir, "chatsearch.bolt")
	}
}

// EmbeddingConfig holds embedding service settings.
type EmbeddingConfig struct {
	Provider    string        `yaml:"provider" env:"CHATSEARCH_EMBEDDING_PROVIDER"`
	APIKey      string        `yaml:"api_key" env:"OPENAI_API_KEY"`
	BaseURL     string        `yaml:"base_url" env:"OPENAI_BASE_URL"`
	Model       string        `yaml:"model" env:"CHATSEARCH_EMBEDDING_MODEL"`
	Dimensions  int           `yaml:"dimensions" env:"CHATSEARCH_EMBEDDING_DIMENSIONS"`
	Timeout     time.Duration `yaml:"timeout" env:"CHATSEARCH_EMBEDDING_TIMEOUT"`
	CacheSize   int           `yaml:"cache_size" env:"CHATSEARCH_EMBEDDING_CACHE_SIZE"`
	Concurrency int           `yaml:"concurrency" env:"CHATSEARCH_EMBEDDING_CONCURRENCY"`
}

// IndexConfig holds indexing settings.
type IndexConfig struct {
	MinContentLength int `yaml:"min_content_length" env:"CHATSEARCH_MIN_CONTENT_LENGTH"`
}

// SearchConfig holds search defaults applied when a request omits them.
type SearchConfig struct {
	DefaultTopK     int      `yaml:"default_top_k" env:"CHATSEARCH_DEFAULT_TOP_K"`
	DefaultMinScore *float64 `yaml:"default_min_score" env:"CHATSEARCH_DEFAULT_MIN_SCORE"`
}

// MinScoreOrDefault returns the configured default min score; 0.7 when unset.
func (s *SearchConfig) MinScoreOrDefault() float64 {
	if s.DefaultMinScore != nil {
		return *s.DefaultMinScore
	}
	return 0.7
}

// WatchConfig configures automatic re-indexing when an exported archive changes.
type WatchConfig struct {
	ArchivePath string        `yaml:"archive_path" env:"CHATSEARCH_WATCH_ARCHIVE"`
	Debounce    time.Duration `yaml:"debounce" env:"CHATSEARCH_WATCH_DEBOUNCE"`
}

// Load reads and parses the config file at path, overlays environment variables (including a .env
// file next to the config or in the working directory), expands paths, and applies defaults.
// An empty path skips the file and uses defaults plus environment.
func Load(path string) (*Config, error) {
	var cfg Config
	configDir := "."
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
		configDir = filepath.Dir(path)
	}

	if err := loadDotEnv(configDir); err != nil {
		return nil, err
	}
	if err := parseEnv(&cfg); err != nil {
		return nil, err
	}

	ApplyDefaults(&cfg)

	cfg.Storage.DataDir = expandPath(cfg.Storage.DataDir, configDir)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.BoltPath = expandPath(cfg.Storage.BoltPath, configDir)
	cfg.Storage.resolvePaths()
	if cfg.Watch.ArchivePath != "" {
		cfg.Watch.ArchivePath = expandPath(cfg.Watch.ArchivePath, configDir)
	}

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// parseEnv overlays environment variables onto cfg. env recurses into every non-nil pointer field
// and rejects pointers to scalars, so the optional pointer fields are detached while parsing and the
// file values restored where no variable was set.
func parseEnv(cfg *Config) error {
	minScore, metricsEnabled := cfg.Search.DefaultMinScore, cfg.Server.MetricsEnabled
	cfg.Search.DefaultMinScore, cfg.Server.MetricsEnabled = nil, nil
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}
	if cfg.Search.DefaultMinScore == nil {
		cfg.Search.DefaultMinScore = minScore
	}
	if cfg.Server.MetricsEnabled == nil {
		cfg.Server.MetricsEnabled = metricsEnabled
	}
	return nil
}

// loadDotEnv loads .env from the config directory and the working directory. Variables already set
// in the environment win, and a missing file is not an error.
func loadDotEnv(configDir string) error {
	seen := make(map[string]bool)
	for _, dir := range []string{configDir, "."} {
		p, err := filepath.Abs(filepath.Join(dir, ".env"))
		if err != nil || seen[p] {
			continue
		}
		seen[p] = true
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" (or ".") are relative to
// configDir; other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
