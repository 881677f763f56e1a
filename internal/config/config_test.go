package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  backend: sqlite
  database_path: "/tmp/chatsearch-test.db"
embedding:
  provider: hash
  dimensions: 64
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Storage.Backend != "sqlite" || cfg.Storage.DatabasePath != "/tmp/chatsearch-test.db" {
		t.Errorf("unexpected storage config: %+v", cfg.Storage)
	}
	if cfg.Embedding.Provider != "hash" || cfg.Embedding.Dimensions != 64 {
		t.Errorf("unexpected embedding config: %+v", cfg.Embedding)
	}
	if cfg.Embedding.Model != "text-embedding-3-small" {
		t.Errorf("default model: got %s", cfg.Embedding.Model)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
storage:
  data_dir: "./var/data"
watch:
  archive_path: "./exports/archive.json"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	wantData := filepath.Join(dir, "var", "data")
	if cfg.Storage.DataDir != wantData {
		t.Errorf("data_dir = %s, want %s", cfg.Storage.DataDir, wantData)
	}
	if want := filepath.Join(wantData, "chatsearch.db"); cfg.Storage.DatabasePath != want {
		t.Errorf("database_path = %s, want %s", cfg.Storage.DatabasePath, want)
	}
	if want := filepath.Join(wantData, "chatsearch.bolt"); cfg.Storage.BoltPath != want {
		t.Errorf("bolt_path = %s, want %s", cfg.Storage.BoltPath, want)
	}
	if want := filepath.Join(dir, "exports", "archive.json"); cfg.Watch.ArchivePath != want {
		t.Errorf("archive_path = %s, want %s", cfg.Watch.ArchivePath, want)
	}
}

func TestLoad_envOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9000
embedding:
  api_key: "from-file"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CHATSEARCH_PORT", "9100")
	t.Setenv("OPENAI_API_KEY", "from-env")
	t.Setenv("CHATSEARCH_DEFAULT_MIN_SCORE", "0.25")
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("port: got %d, want 9100", cfg.Server.Port)
	}
	if cfg.Embedding.APIKey != "from-env" {
		t.Errorf("api key: got %q", cfg.Embedding.APIKey)
	}
	if got := cfg.Search.MinScoreOrDefault(); got != 0.25 {
		t.Errorf("default min score: got %v", got)
	}
}

func TestLoad_dotEnvNextToConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("debug: false\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("CHATSEARCH_EMBEDDING_MODEL=text-embedding-3-large\n"), 0600); err != nil {
		t.Fatal(err)
	}
	// Registers cleanup that restores the variable after godotenv sets it.
	t.Setenv("CHATSEARCH_EMBEDDING_MODEL", "")
	os.Unsetenv("CHATSEARCH_EMBEDDING_MODEL")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Embedding.Model != "text-embedding-3-large" {
		t.Errorf("model: got %q", cfg.Embedding.Model)
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoad_emptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port == 0 || cfg.Storage.Backend == "" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("default host: got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if len(cfg.Server.AllowedOrigins) != 1 || cfg.Server.AllowedOrigins[0] != "http://localhost:3000" {
		t.Errorf("allowed origins: got %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Storage.Backend != "file" {
		t.Errorf("default backend: got %s", cfg.Storage.Backend)
	}
	if cfg.Index.MinContentLength != 10 {
		t.Errorf("min content length: got %d", cfg.Index.MinContentLength)
	}
	if cfg.Search.DefaultTopK != 5 || cfg.Search.MinScoreOrDefault() != 0.7 {
		t.Errorf("search defaults: top_k=%d min_score=%v", cfg.Search.DefaultTopK, cfg.Search.MinScoreOrDefault())
	}
	if cfg.Embedding.Timeout != 30*time.Second {
		t.Errorf("embedding timeout: got %v", cfg.Embedding.Timeout)
	}
	if !cfg.Server.MetricsOrDefault() {
		t.Error("metrics should default to enabled")
	}
}

func TestApplyDefaults_keepsExplicitZeroMinScore(t *testing.T) {
	zero := 0.0
	cfg := &Config{Search: SearchConfig{DefaultMinScore: &zero}}
	ApplyDefaults(cfg)
	if cfg.Search.MinScoreOrDefault() != 0 {
		t.Errorf("explicit zero min score overwritten: %v", cfg.Search.MinScoreOrDefault())
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "saved.yaml")
	cfg := &Config{
		Server:  ServerConfig{Host: "localhost", Port: 9090},
		Storage: StorageConfig{DatabasePath: "/tmp/db"},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("loaded port: got %d", loaded.Server.Port)
	}
}

func TestLoad_optionalPointerFieldsFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  metrics_enabled: false
search:
  default_min_score: 0.5
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.MetricsOrDefault() {
		t.Error("metrics_enabled: false in file was not applied")
	}
	if got := cfg.Search.MinScoreOrDefault(); got != 0.5 {
		t.Errorf("default min score: got %v, want 0.5", got)
	}
}

func TestLoad_envOverridesOptionalPointerFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  metrics_enabled: false
search:
  default_min_score: 0.5
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CHATSEARCH_METRICS_ENABLED", "true")
	t.Setenv("CHATSEARCH_DEFAULT_MIN_SCORE", "0.8")
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Server.MetricsOrDefault() {
		t.Error("metrics enabled: env value not applied")
	}
	if got := cfg.Search.MinScoreOrDefault(); got != 0.8 {
		t.Errorf("default min score: got %v, want 0.8", got)
	}
}

func TestSave_defaultsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := &Config{}
	ApplyDefaults(cfg)
	disabled := false
	cfg.Server.MetricsEnabled = &disabled
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load of saved defaults: %v", err)
	}
	if got := loaded.Search.MinScoreOrDefault(); got != 0.7 {
		t.Errorf("default min score: got %v, want 0.7", got)
	}
	if loaded.Server.MetricsOrDefault() {
		t.Error("metrics_enabled: false did not survive the round trip")
	}
}
