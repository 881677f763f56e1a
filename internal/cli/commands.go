package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/hyperjump/chatsearch/internal/config"
	"github.com/hyperjump/chatsearch/internal/models"
	"github.com/hyperjump/chatsearch/internal/storage"
	"github.com/spf13/cobra"
)

func newIndexCommand(opts *rootOptions) *cobra.Command {
	var serverURL string
	cmd := &cobra.Command{
		Use:   "index <archive.json>",
		Short: "Index an exported archive, replacing the current index",
		Long: `Embed every message of an exported archive and replace the stored index with the result.

The file may be the archive itself ({"conversations": [...]}) or the API envelope
({"export_data": {...}}). Messages shorter than index.min_content_length are skipped.

Examples:
  chatsearch index export.json
  chatsearch index --server http://127.0.0.1:8000 export.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result *models.IndexResult
			if serverURL != "" {
				data, err := os.ReadFile(args[0])
				if err != nil {
					return fmt.Errorf("failed to read archive: %w", err)
				}
				if result, err = newAPIClient(serverURL).Index(cmd.Context(), data); err != nil {
					return err
				}
			} else {
				c, err := setup(opts, true)
				if err != nil {
					return err
				}
				defer c.Close()
				if result, err = c.Indexer.IndexFile(cmd.Context(), args[0]); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d messages from %d conversations\n",
				result.IndexedMessages, result.IndexedConversations)
			return nil
		},
	}
	cmd.Flags().StringVar(&serverURL, "server", "", "send the archive to a running server instead of using the store directly")
	return cmd
}

// buildSearchQuery joins all positional args with spaces so multi-word queries work with or without
// shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func newSearchCommand(opts *rootOptions) *cobra.Command {
	var (
		topK       int
		filterType string
		minScore   float64
		output     string
		serverURL  string
	)
	cmd := &cobra.Command{
		Use:   "search <query...>",
		Short: "Search indexed messages",
		Long: `Search indexed messages by meaning. The query is all remaining arguments joined by spaces.

Defaults for --top-k and --min-score come from the search section of the config (5 and 0.7).

Examples:
  chatsearch search how do I paginate a query
  chatsearch search --type composer --min-score 0.5 "database migration"
  chatsearch search --output json capital of France`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := ParseOutputFormat(output)
			if err != nil {
				return err
			}
			req := &models.SearchRequest{Query: buildSearchQuery(args)}
			if cmd.Flags().Changed("top-k") {
				req.TopK = &topK
			}
			if cmd.Flags().Changed("min-score") {
				req.MinScore = &minScore
			}
			if filterType != "" {
				req.FilterType = &filterType
			}

			var results []*models.SearchResult
			if serverURL != "" {
				if results, err = newAPIClient(serverURL).Search(cmd.Context(), req); err != nil {
					return err
				}
			} else {
				c, err := setup(opts, true)
				if err != nil {
					return err
				}
				defer c.Close()
				query, err := req.Resolve(c.Config.Search.DefaultTopK, c.Config.Search.MinScoreOrDefault())
				if err != nil {
					return err
				}
				if results, err = c.Engine.Search(cmd.Context(), query); err != nil {
					return err
				}
			}
			return WriteSearchResults(cmd.OutOrStdout(), req.Query, results, format)
		},
	}
	cmd.Flags().IntVarP(&topK, "top-k", "k", models.DefaultTopK, "maximum number of results")
	cmd.Flags().StringVarP(&filterType, "type", "t", "", "only search conversations of this type (e.g. chat, composer)")
	cmd.Flags().Float64Var(&minScore, "min-score", models.DefaultMinScore, "minimum cosine similarity")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text, compact, or json")
	cmd.Flags().StringVar(&serverURL, "server", "", "query a running server instead of using the store directly")
	return cmd
}

func newConversationCommand(opts *rootOptions) *cobra.Command {
	var serverURL string
	cmd := &cobra.Command{
		Use:   "conversation <id>",
		Short: "Print a stored conversation as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var conv interface{}
			if serverURL != "" {
				raw, err := newAPIClient(serverURL).Conversation(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				conv = raw
			} else {
				c, err := setup(opts, false)
				if err != nil {
					return err
				}
				defer c.Close()
				snap, err := c.Store.Load(cmd.Context())
				if err != nil {
					return err
				}
				if conv, err = snap.Lookup(args[0]); err != nil {
					return err
				}
			}
			return writeJSON(cmd.OutOrStdout(), conv)
		},
	}
	cmd.Flags().StringVar(&serverURL, "server", "", "read from a running server instead of the store")
	return cmd
}

func newClearCommand(opts *rootOptions) *cobra.Command {
	var serverURL string
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the stored index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if serverURL != "" {
				if err := newAPIClient(serverURL).Clear(cmd.Context()); err != nil {
					return err
				}
			} else {
				c, err := setup(opts, false)
				if err != nil {
					return err
				}
				defer c.Close()
				if err := c.Store.Clear(cmd.Context()); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Index cleared")
			return nil
		},
	}
	cmd.Flags().StringVar(&serverURL, "server", "", "clear through a running server")
	return cmd
}

func newStatusCommand(opts *rootOptions) *cobra.Command {
	var (
		serverURL string
		output    string
	)
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show index and storage status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := ParseOutputFormat(output)
			if err != nil {
				return err
			}
			var report *statusReport
			if serverURL != "" {
				if report, err = newAPIClient(serverURL).Status(cmd.Context()); err != nil {
					return err
				}
			} else {
				c, err := setup(opts, false)
				if err != nil {
					return err
				}
				defer c.Close()
				ctx := cmd.Context()
				report = &statusReport{
					EmbeddingsIndexed: c.Store.Exists(ctx),
					ConversationCount: c.Store.Count(ctx),
					StorageBackend:    c.Config.Storage.Backend,
					StoragePaths:      c.Store.Paths(),
					EmbeddingProvider: c.Config.Embedding.Provider,
					EmbeddingModel:    c.Config.Embedding.Model,
				}
				if n, err := storage.DiskUsage(c.Store); err == nil {
					report.DiskUsageBytes = &n
				}
			}
			return writeStatus(cmd.OutOrStdout(), report, format)
		},
	}
	cmd.Flags().StringVar(&serverURL, "server", "", "ask a running server instead of reading the store")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text or json")
	return cmd
}

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	var force bool
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a config file with default values",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultConfigName
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			cfg := &config.Config{}
			config.ApplyDefaults(cfg)
			if err := config.Save(path, cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	cmd.AddCommand(initCmd)
	return cmd
}
