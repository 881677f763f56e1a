package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"

	"github.com/hyperjump/chatsearch/pkg/utils"
)

const defaultHashDimensions = 256

// HashEmbedder is a deterministic, offline embedder based on feature hashing of lower-cased words.
// Texts that share words get positive cosine similarity, which is enough for tests and for trying
// the service without an API key. It is not a semantic model.
type HashEmbedder struct {
	dimensions int
}

// NewHashEmbedder returns a hashing embedder with the given dimensionality (256 when <= 0).
func NewHashEmbedder(dimensions int) *HashEmbedder {
	if dimensions <= 0 {
		dimensions = defaultHashDimensions
	}
	return &HashEmbedder{dimensions: dimensions}
}

// Embed returns the unit-length bag-of-words vector for text. Text without any word yields the
// zero vector.
func (e *HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vec := make([]float32, e.dimensions)
	for _, tok := range Tokenize(text) {
		vec[bucket(tok, e.dimensions)]++
	}
	utils.NormalizeL2(vec)
	return vec, nil
}

// Model identifies the hashing scheme and dimensionality.
func (e *HashEmbedder) Model() string {
	return fmt.Sprintf("hash-%d", e.dimensions)
}

// Close is a no-op for HashEmbedder.
func (e *HashEmbedder) Close() error {
	return nil
}

// Tokenize lower-cases text and splits it on anything that is not a letter or digit.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func bucket(token string, dimensions int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(token))
	return int(h.Sum32() % uint32(dimensions))
}
