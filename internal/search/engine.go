// Package search ranks stored embedding records against a query by cosine similarity.
package search

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/hyperjump/chatsearch/internal/embedding"
	"github.com/hyperjump/chatsearch/internal/metrics"
	"github.com/hyperjump/chatsearch/internal/models"
	"github.com/hyperjump/chatsearch/internal/storage"
	"github.com/hyperjump/chatsearch/internal/vector"
	"github.com/hyperjump/chatsearch/pkg/utils"
	"go.uber.org/zap"
)

// Engine runs semantic search over the store.
type Engine struct {
	store    storage.Store
	embedder embedding.Embedder
	logger   *zap.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets a logger for search debug output.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates a search engine with the given dependencies.
func NewEngine(store storage.Store, embedder embedding.Embedder, opts ...EngineOption) *Engine {
	e := &Engine{store: store, embedder: embedder}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = utils.OrNop(e.logger)
	return e
}

// Search embeds the query and returns the best matching messages, most similar first.
// It fails with storage.ErrStoreNotFound before any embedding call when nothing has been indexed.
func (e *Engine) Search(ctx context.Context, query *models.SearchQuery) ([]*models.SearchResult, error) {
	start := time.Now()
	snap, err := e.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load index: %w", err)
	}
	queryVec, err := e.embedder.Embed(ctx, query.Query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	results, err := Rank(snap, queryVec, query)
	if err != nil {
		return nil, err
	}
	metrics.SearchDuration.Observe(time.Since(start).Seconds())
	metrics.SearchResults.Observe(float64(len(results)))
	e.logger.Debug("search",
		zap.Int("records", len(snap.Records)),
		zap.Int("results", len(results)),
		zap.String("filter_type", query.FilterType),
		zap.Float64("min_score", query.MinScore),
		zap.Duration("duration", time.Since(start)),
	)
	return results, nil
}

// Conversation returns the stored conversation with the given ID.
func (e *Engine) Conversation(ctx context.Context, id string) (*models.Conversation, error) {
	snap, err := e.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load index: %w", err)
	}
	return snap.Lookup(id)
}

type match struct {
	rec   *models.EmbeddingRecord
	score float64
}

// Rank scores every record of snap against queryVec. Records of another conversation type (when
// query.FilterType is set) and records scoring below query.MinScore are dropped; the rest are sorted
// by descending score, equal scores keeping store order, and cut to query.TopK.
func Rank(snap *storage.Snapshot, queryVec []float32, query *models.SearchQuery) ([]*models.SearchResult, error) {
	scorer := vector.NewScorer(queryVec)
	var matches []match
	for _, rec := range snap.Records {
		if query.FilterType != "" && rec.ConversationType != query.FilterType {
			continue
		}
		score, err := scorer.Score(rec.Embedding)
		if err != nil {
			return nil, fmt.Errorf("record %s of conversation %s: %w", rec.MessageID, rec.ConversationID, err)
		}
		// NaN (zero-length vector) fails this comparison and is dropped.
		if !(score >= query.MinScore) {
			continue
		}
		matches = append(matches, match{rec: rec, score: score})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})
	if query.TopK > 0 && len(matches) > query.TopK {
		matches = matches[:query.TopK]
	}

	results := make([]*models.SearchResult, len(matches))
	for i, m := range matches {
		results[i] = models.NewSearchResult(m.rec, m.score, snap.Conversations[m.rec.ConversationID])
	}
	return results, nil
}
