package cli

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperjump/chatsearch/internal/models"
	"github.com/hyperjump/chatsearch/internal/server"
)

const testArchive = `{"conversations":[
	{"id":"conv-1","title":"Geography","type":"chat","workspace":{"folder":"/w/geo"},"messages":[
		{"id":"m1","role":"user","content":"What is the capital of France?","timestamp":1700000000},
		{"id":"m2","role":"assistant","content":"ok","timestamp":1700000001}
	]},
	{"id":"conv-2","title":"Cooking","type":"composer","messages":[
		{"id":"m3","role":"user","content":"How long should pasta boil for al dente?","timestamp":1700000100}
	]}
]}`

// testEnv writes a config using the offline hash embedder and an archive into a temp dir.
func testEnv(t *testing.T, backend string) (configPath, archivePath string) {
	t.Helper()
	dir := t.TempDir()
	configPath = filepath.Join(dir, "config.yaml")
	cfg := "storage:\n  backend: " + backend + "\n  data_dir: ./data\n" +
		"embedding:\n  provider: hash\n  dimensions: 256\n"
	if err := os.WriteFile(configPath, []byte(cfg), 0600); err != nil {
		t.Fatal(err)
	}
	archivePath = filepath.Join(dir, "export.json")
	if err := os.WriteFile(archivePath, []byte(testArchive), 0600); err != nil {
		t.Fatal(err)
	}
	return configPath, archivePath
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand("test")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestIndexSearchStatusClear(t *testing.T) {
	for _, backend := range []string{"file", "sqlite", "bolt"} {
		t.Run(backend, func(t *testing.T) {
			cfgPath, archive := testEnv(t, backend)

			if _, err := run(t, "--config", cfgPath, "search", "capital"); err == nil {
				t.Error("search before index should fail")
			}

			out, err := run(t, "--config", cfgPath, "index", archive)
			if err != nil {
				t.Fatalf("index: %v", err)
			}
			if !strings.Contains(out, "Indexed 2 messages from 2 conversations") {
				t.Errorf("index output: %q", out)
			}

			out, err = run(t, "--config", cfgPath, "search", "--output", "json", "--min-score", "0.5", "capital", "of", "France")
			if err != nil {
				t.Fatalf("search: %v", err)
			}
			var results []models.SearchResult
			if err := json.Unmarshal([]byte(out), &results); err != nil {
				t.Fatalf("decode %q: %v", out, err)
			}
			if len(results) == 0 || results[0].MessageID != "m1" {
				t.Fatalf("results: %+v", results)
			}

			out, err = run(t, "--config", cfgPath, "search", "capital of France", "--min-score", "0.5")
			if err != nil {
				t.Fatalf("text search: %v", err)
			}
			if !strings.Contains(out, "Geography") || !strings.Contains(out, "What is the capital of France?") {
				t.Errorf("text output: %q", out)
			}

			out, err = run(t, "--config", cfgPath, "conversation", "conv-2")
			if err != nil {
				t.Fatalf("conversation: %v", err)
			}
			if !strings.Contains(out, `"Cooking"`) {
				t.Errorf("conversation output: %q", out)
			}
			if _, err := run(t, "--config", cfgPath, "conversation", "nope"); err == nil {
				t.Error("unknown conversation should fail")
			}

			out, err = run(t, "--config", cfgPath, "status", "--output", "json")
			if err != nil {
				t.Fatalf("status: %v", err)
			}
			var st statusReport
			if err := json.Unmarshal([]byte(out), &st); err != nil {
				t.Fatal(err)
			}
			if !st.EmbeddingsIndexed || st.ConversationCount != 2 || st.StorageBackend != backend {
				t.Errorf("status: %+v", st)
			}

			if _, err := run(t, "--config", cfgPath, "clear"); err != nil {
				t.Fatalf("clear: %v", err)
			}
			out, err = run(t, "--config", cfgPath, "status")
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(out, "Indexed:         no") {
				t.Errorf("status after clear: %q", out)
			}
		})
	}
}

func TestSearchViaServer(t *testing.T) {
	cfgPath, archive := testEnv(t, "file")
	opts := &rootOptions{configPath: cfgPath}
	c, err := setup(opts, true)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	srv := server.NewServer(c.Engine, c.Indexer, c.Store, c.Config, c.Logger, "test")
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	out, err := run(t, "index", "--server", ts.URL, archive)
	if err != nil {
		t.Fatalf("index via server: %v", err)
	}
	if !strings.Contains(out, "Indexed 2 messages") {
		t.Errorf("index output: %q", out)
	}

	out, err = run(t, "search", "--server", ts.URL, "--output", "compact", "--min-score", "0.5", "capital of France")
	if err != nil {
		t.Fatalf("search via server: %v", err)
	}
	if !strings.Contains(out, "conv-1\tm1\tchat") {
		t.Errorf("compact output: %q", out)
	}

	out, err = run(t, "status", "--server", ts.URL, "--output", "json")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"conversation_count": 2`) {
		t.Errorf("status via server: %q", out)
	}

	out, err = run(t, "conversation", "--server", ts.URL, "conv-1")
	if err != nil || !strings.Contains(out, `"Geography"`) {
		t.Errorf("conversation via server: %v %q", err, out)
	}

	if _, err := run(t, "clear", "--server", ts.URL); err != nil {
		t.Fatal(err)
	}
	_, err = run(t, "search", "--server", ts.URL, "capital")
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("search after clear via server: %v", err)
	}
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if _, err := run(t, "config", "init", path); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, "config", "init", path); err == nil {
		t.Error("second init without --force should fail")
	}
	if _, err := run(t, "config", "init", "--force", path); err != nil {
		t.Errorf("init --force: %v", err)
	}
	cfg, loaded, err := loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded != path || cfg.Server.Port != 8000 || cfg.Embedding.Model != "text-embedding-3-small" {
		t.Errorf("loaded config: %s %+v", loaded, cfg.Server)
	}
}

func TestBuildSearchQuery(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"capital"}, "capital"},
		{[]string{"capital", "of", "France"}, "capital of France"},
		{[]string{"  capital of France "}, "capital of France"},
	}
	for _, tt := range tests {
		if got := buildSearchQuery(tt.args); got != tt.want {
			t.Errorf("buildSearchQuery(%v) = %q, want %q", tt.args, got, tt.want)
		}
	}
}

func TestParseOutputFormat(t *testing.T) {
	for _, s := range []string{"text", "JSON", "compact"} {
		if _, err := ParseOutputFormat(s); err != nil {
			t.Errorf("%s: %v", s, err)
		}
	}
	if _, err := ParseOutputFormat("markdown"); err == nil {
		t.Error("expected error for markdown")
	}
}

func TestWriteSearchResults_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, "q", nil, OutputJSON); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("got %q", buf.String())
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.n); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "chatsearch test") {
		t.Errorf("got %q", out)
	}
}
