// Package embedding turns text into fixed-length vectors via an external embedding service.
package embedding

import "context"

// Embedder produces vector embeddings for text. All vectors returned by one Embedder have the
// same dimensionality.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	// Model identifies the embedding model; vectors from different models are not comparable.
	Model() string
	Close() error
}
