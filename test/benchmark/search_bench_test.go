package benchmark

import (
	"context"
	"fmt"
	"testing"

	"github.com/hyperjump/chatsearch/internal/embedding"
	"github.com/hyperjump/chatsearch/internal/models"
	"github.com/hyperjump/chatsearch/internal/search"
	"github.com/hyperjump/chatsearch/internal/storage"
	"github.com/hyperjump/chatsearch/internal/vector"
)

const dims = 1536

func snapshot(n int) *storage.Snapshot {
	snap := storage.NewSnapshot()
	for i := 0; i < n; i++ {
		vec := make([]float32, dims)
		vec[0] = float32(i) / float32(n)
		vec[i%dims] += 1
		conv := &models.Conversation{ID: fmt.Sprintf("c%d", i%50), Type: "chat"}
		snap.Conversations[conv.ID] = conv
		snap.Records = append(snap.Records, &models.EmbeddingRecord{
			Embedding:        vec,
			ConversationID:   conv.ID,
			ConversationType: "chat",
			MessageID:        fmt.Sprintf("m%d", i),
		})
	}
	return snap
}

func BenchmarkRank(b *testing.B) {
	snap := snapshot(5000)
	queryVec := make([]float32, dims)
	queryVec[0] = 1
	query := &models.SearchQuery{Query: "q", TopK: 5, MinScore: 0}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := search.Rank(snap, queryVec, query); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkCosineSimilarity(b *testing.B) {
	x := make([]float32, dims)
	y := make([]float32, dims)
	for i := range x {
		x[i] = float32(i%7) + 1
		y[i] = float32(i%11) + 1
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = vector.CosineSimilarity(x, y)
	}
}

func BenchmarkHashEmbedder_Embed(b *testing.B) {
	e := embedding.NewHashEmbedder(dims)
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = e.Embed(ctx, "benchmark query text for embedding")
	}
}

func BenchmarkCachedEmbedder_Hit(b *testing.B) {
	e, err := embedding.NewCachedEmbedder(embedding.NewHashEmbedder(dims), 16)
	if err != nil {
		b.Fatal(err)
	}
	ctx := context.Background()
	_, _ = e.Embed(ctx, "benchmark query text for embedding")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = e.Embed(ctx, "benchmark query text for embedding")
	}
}
