// Package indexer embeds the messages of an exported archive and replaces the vector store with them.
package indexer

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/hyperjump/chatsearch/internal/config"
	"github.com/hyperjump/chatsearch/internal/embedding"
	"github.com/hyperjump/chatsearch/internal/metrics"
	"github.com/hyperjump/chatsearch/internal/models"
	"github.com/hyperjump/chatsearch/internal/storage"
	"github.com/hyperjump/chatsearch/pkg/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 4

// Indexer builds the vector store from archives.
type Indexer struct {
	store       storage.Store
	embedder    embedding.Embedder
	config      *config.IndexConfig
	concurrency int
	logger      *zap.Logger
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for index progress.
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = l }
}

// WithConcurrency sets how many embedding calls may be in flight at once.
func WithConcurrency(n int) IndexerOption {
	return func(idx *Indexer) {
		if n > 0 {
			idx.concurrency = n
		}
	}
}

// NewIndexer creates an indexer writing to store.
func NewIndexer(store storage.Store, embedder embedding.Embedder, cfg *config.IndexConfig, opts ...IndexerOption) *Indexer {
	idx := &Indexer{
		store:       store,
		embedder:    embedder,
		config:      cfg,
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(idx)
	}
	idx.logger = utils.OrNop(idx.logger)
	return idx
}

type job struct {
	conv *models.Conversation
	msg  *models.Message
}

// Index embeds every indexable message of archive and replaces the stored index with the result.
// Every conversation is stored whole, including those with no indexable message; a later conversation
// with the same ID replaces an earlier one. If any embedding fails nothing is saved and the previous
// index stays in place.
func (idx *Indexer) Index(ctx context.Context, archive *models.Archive) (*models.IndexResult, error) {
	start := time.Now()
	snap := storage.NewSnapshot()
	var jobs []job
	for _, conv := range archive.Conversations {
		snap.Conversations[conv.ID] = conv
		for i := range conv.Messages {
			msg := &conv.Messages[i]
			if !Indexable(msg.Content, idx.config.MinContentLength) {
				continue
			}
			jobs = append(jobs, job{conv: conv, msg: msg})
		}
	}

	records := make([]*models.EmbeddingRecord, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(idx.concurrency)
	for i, j := range jobs {
		i, j := i, j
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			vec, err := idx.embedder.Embed(gctx, j.msg.Content)
			if err != nil {
				return fmt.Errorf("failed to embed message %s of conversation %s: %w", j.msg.ID, j.conv.ID, err)
			}
			records[i] = models.NewEmbeddingRecord(j.conv, j.msg, vec)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		metrics.IndexRuns.WithLabelValues(metrics.Status(err)).Inc()
		return nil, err
	}
	snap.Records = records

	if err := idx.store.Save(ctx, snap); err != nil {
		metrics.IndexRuns.WithLabelValues(metrics.Status(err)).Inc()
		return nil, fmt.Errorf("failed to save index: %w", err)
	}

	result := &models.IndexResult{
		IndexedMessages:      len(records),
		IndexedConversations: len(archive.Conversations),
	}
	metrics.IndexRuns.WithLabelValues(metrics.Status(nil)).Inc()
	metrics.IndexedMessages.Set(float64(result.IndexedMessages))
	idx.logger.Info("index rebuilt",
		zap.Int("messages", result.IndexedMessages),
		zap.Int("conversations", result.IndexedConversations),
		zap.Int("skipped", countMessages(archive)-len(records)),
		zap.Duration("duration", time.Since(start)),
	)
	return result, nil
}

// IndexFile reads an archive file (bare archive or {"export_data": ...} envelope) and indexes it.
func (idx *Indexer) IndexFile(ctx context.Context, path string) (*models.IndexResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive: %w", err)
	}
	archive, err := models.ParseArchive(data)
	if err != nil {
		return nil, err
	}
	idx.logger.Debug("archive parsed", zap.String("path", path), zap.Int("conversations", len(archive.Conversations)))
	return idx.Index(ctx, archive)
}

func countMessages(archive *models.Archive) int {
	n := 0
	for _, conv := range archive.Conversations {
		n += len(conv.Messages)
	}
	return n
}
