package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hyperjump/chatsearch/internal/server"
	"github.com/hyperjump/chatsearch/internal/watcher"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	var (
		host      string
		port      int
		watchPath string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API (default 127.0.0.1:8000).

With --watch (or watch.archive_path in the config) the given archive file is re-indexed
whenever it changes on disk.

Examples:
  chatsearch serve
  chatsearch serve --port 9000 --watch ~/exports/chats.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := setup(opts, true)
			if err != nil {
				return err
			}
			defer c.Close()
			if cmd.Flags().Changed("host") {
				c.Config.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				c.Config.Server.Port = port
			}
			if watchPath != "" {
				c.Config.Watch.ArchivePath = watchPath
			}
			return runServe(cmd.Context(), c, opts.version)
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "bind host (overrides config)")
	cmd.Flags().IntVar(&port, "port", 0, "bind port (overrides config)")
	cmd.Flags().StringVar(&watchPath, "watch", "", "archive file to re-index on change")
	return cmd
}

func runServe(ctx context.Context, c *Components, version string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger := c.Logger

	if path := c.Config.Watch.ArchivePath; path != "" {
		w, err := watcher.NewWatcher([]string{path}, func(p string) {
			result, err := c.Indexer.IndexFile(context.Background(), p)
			if err != nil {
				logger.Warn("re-index after archive change failed", zap.String("path", p), zap.Error(err))
				return
			}
			logger.Info("archive re-indexed",
				zap.String("path", p),
				zap.Int("messages", result.IndexedMessages),
				zap.Int("conversations", result.IndexedConversations),
			)
		}, watcher.WithDebounce(c.Config.Watch.Debounce), watcher.WithLogger(logger))
		if err != nil {
			return err
		}
		if err := w.Start(ctx); err != nil {
			return err
		}
		defer w.Stop()
		logger.Info("watching archive", zap.String("path", path))
	}

	srv := server.NewServer(c.Engine, c.Indexer, c.Store, c.Config, logger, version)
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Stop(shutdownCtx)
}
