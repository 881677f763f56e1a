// Package cli implements the chatsearch command line.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/hyperjump/chatsearch/internal/config"
	"github.com/spf13/cobra"
)

const defaultConfigName = "config.yaml"

type rootOptions struct {
	configPath string
	debug      bool
	version    string
}

// NewRootCommand creates the root command.
func NewRootCommand(version string) *cobra.Command {
	opts := &rootOptions{version: version}
	rootCmd := &cobra.Command{
		Use:   "chatsearch",
		Short: "Semantic search over exported chat conversations",
		Long: `chatsearch indexes an exported chat archive by embedding every message and answers
natural-language queries with the most similar messages and their full conversations.

Run "chatsearch serve" for the HTTP API, or use the index/search commands directly.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file path (default: ./config.yaml when present)")
	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(newServeCommand(opts))
	rootCmd.AddCommand(newIndexCommand(opts))
	rootCmd.AddCommand(newSearchCommand(opts))
	rootCmd.AddCommand(newConversationCommand(opts))
	rootCmd.AddCommand(newClearCommand(opts))
	rootCmd.AddCommand(newStatusCommand(opts))
	rootCmd.AddCommand(newConfigCommand())
	rootCmd.AddCommand(newVersionCommand(version))

	return rootCmd
}

func newVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			displayVersion := version
			if displayVersion == "" {
				displayVersion = "development"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "chatsearch %s\n", displayVersion)
			fmt.Fprintf(cmd.OutOrStdout(), "Go version: %s\n", runtime.Version())
			fmt.Fprintf(cmd.OutOrStdout(), "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

// loadConfig loads the config at path. With no path, ./config.yaml is used when it exists and
// defaults plus environment otherwise. Returns the path actually loaded ("" for none).
func loadConfig(path string) (*config.Config, string, error) {
	if path == "" {
		if cwd, err := os.Getwd(); err == nil {
			fallback := filepath.Join(cwd, defaultConfigName)
			if _, statErr := os.Stat(fallback); statErr == nil {
				path = fallback
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}
