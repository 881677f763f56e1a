// Package vector provides similarity math and binary encoding for embedding vectors.
package vector

import (
	"fmt"
	"math"
)

// Dot returns the inner product of a and b accumulated in float64.
func Dot(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

// L2Norm returns the Euclidean norm of x.
func L2Norm(x []float32) float64 {
	var sum float64
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

// CosineSimilarity returns dot(a, b) / (|a| * |b|). A zero-magnitude vector yields NaN, which fails
// every >= comparison. Vectors of different length are an error.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector dimension mismatch: %d vs %d", len(a), len(b))
	}
	return cosine(Dot(a, b), L2Norm(a), L2Norm(b)), nil
}

// Scorer computes cosine similarity against a fixed query, reusing the query norm.
type Scorer struct {
	query []float32
	norm  float64
}

// NewScorer prepares a scorer for query.
func NewScorer(query []float32) *Scorer {
	return &Scorer{query: query, norm: L2Norm(query)}
}

// Score returns the cosine similarity between the query and v.
func (s *Scorer) Score(v []float32) (float64, error) {
	if len(v) != len(s.query) {
		return 0, fmt.Errorf("vector dimension mismatch: query has %d, record has %d", len(s.query), len(v))
	}
	return cosine(Dot(s.query, v), s.norm, L2Norm(v)), nil
}

func cosine(dot, normA, normB float64) float64 {
	denom := normA * normB
	if denom == 0 {
		return math.NaN()
	}
	return dot / denom
}
