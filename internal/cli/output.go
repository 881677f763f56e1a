package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/chatsearch/internal/models"
	"github.com/hyperjump/chatsearch/internal/search"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputCompact is one tab-separated line per result.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

const snippetLength = 200

// ParseOutputFormat validates a --output value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case OutputText, OutputCompact, OutputJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text, compact, or json", s)
	}
}

// WriteSearchResults writes search results to w in the given format.
func WriteSearchResults(w io.Writer, query string, results []*models.SearchResult, format OutputFormat) error {
	switch format {
	case OutputJSON:
		if results == nil {
			results = []*models.SearchResult{}
		}
		return writeJSON(w, results)
	case OutputCompact:
		for _, r := range results {
			fmt.Fprintf(w, "%.4f\t%s\t%s\t%s\t%s\n", r.SimilarityScore, r.ConversationID, r.MessageID, r.Type,
				search.Snippet(r.MessageContent, 100))
		}
		return nil
	default:
		writeSearchResultsText(w, query, results)
		return nil
	}
}

func writeSearchResultsText(w io.Writer, query string, results []*models.SearchResult) {
	fmt.Fprintf(w, "\nFound %d results for %q\n\n", len(results), query)
	for i, r := range results {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "[%d] Score: %.4f | %s | %s\n", i+1, r.SimilarityScore, r.Type, r.ConversationTitle)
		fmt.Fprintf(w, "Conversation: %s  Message: %s  Role: %s  Timestamp: %d\n",
			r.ConversationID, r.MessageID, r.MessageRole, r.Timestamp)
		if r.WorkspaceFolder != nil && *r.WorkspaceFolder != "" {
			fmt.Fprintf(w, "Workspace: %s\n", *r.WorkspaceFolder)
		}
		fmt.Fprintf(w, "\n%s\n\n", search.Snippet(r.MessageContent, snippetLength))
	}
}

// statusReport is the status shown by "chatsearch status"; field names follow GET /health.
type statusReport struct {
	Status            string   `json:"status,omitempty"`
	EmbeddingsIndexed bool     `json:"embeddings_indexed"`
	ConversationCount int      `json:"conversation_count"`
	StorageBackend    string   `json:"storage_backend"`
	DiskUsageBytes    *int64   `json:"disk_usage_bytes,omitempty"`
	StoragePaths      []string `json:"storage_paths,omitempty"`
	EmbeddingProvider string   `json:"embedding_provider,omitempty"`
	EmbeddingModel    string   `json:"embedding_model,omitempty"`
}

// writeStatus writes a status report to w.
func writeStatus(w io.Writer, s *statusReport, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, s)
	}
	indexed := "no"
	if s.EmbeddingsIndexed {
		indexed = "yes"
	}
	fmt.Fprintf(w, "Indexed:         %s\n", indexed)
	fmt.Fprintf(w, "Conversations:   %d\n", s.ConversationCount)
	fmt.Fprintf(w, "Storage backend: %s\n", s.StorageBackend)
	if s.DiskUsageBytes != nil {
		fmt.Fprintf(w, "Disk usage:      %s\n", formatBytes(*s.DiskUsageBytes))
	}
	for _, p := range s.StoragePaths {
		fmt.Fprintf(w, "Storage path:    %s\n", p)
	}
	if s.EmbeddingProvider != "" {
		fmt.Fprintf(w, "Embedding:       %s (%s)\n", s.EmbeddingProvider, s.EmbeddingModel)
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
