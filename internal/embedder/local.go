package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
)

// LocalEmbedder produces deterministic pseudo-embeddings from text content.
// It exists for offline runs and tests: identical text always maps to the
// same unit vector, and different texts map to well-separated vectors.
type LocalEmbedder struct {
	dim   int
	cache *Cache
}

// NewLocalEmbedder creates a local embedder producing vectors of the given
// dimension
func NewLocalEmbedder(dim int, cache *Cache) *LocalEmbedder {
	if dim <= 0 {
		dim = 64
	}
	return &LocalEmbedder{dim: dim, cache: cache}
}

// Embed generates a deterministic vector derived from the text hash
func (e *LocalEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hash := ComputeHash(text)
	if vec, ok := e.cache.Get(hash); ok {
		return vec, nil
	}

	vec := e.generate(text)
	e.cache.Set(hash, vec)
	return vec, nil
}

// EmbedBatch generates vectors for multiple texts in input order
func (e *LocalEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ValidateBatch(texts); err != nil {
		return nil, err
	}

	results := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		results[i] = vec
	}
	return results, nil
}

// generate expands the SHA-256 digest of the text into dim pseudo-random
// components and normalizes the result to unit length.
func (e *LocalEmbedder) generate(text string) []float32 {
	seed := sha256.Sum256([]byte(text))

	vec := make([]float32, e.dim)
	block := seed
	for i := 0; i < e.dim; i++ {
		if i%4 == 0 && i > 0 {
			block = sha256.Sum256(block[:])
		}
		bits := binary.BigEndian.Uint64(block[(i%4)*8 : (i%4)*8+8])
		// Map the 64-bit value to (-1, 1)
		vec[i] = float32(float64(bits)/float64(math.MaxUint64)*2 - 1)
	}

	return Normalize(vec)
}

func (e *LocalEmbedder) Dimension() int {
	return e.dim
}

func (e *LocalEmbedder) Provider() string {
	return ProviderLocal
}

func (e *LocalEmbedder) Close() error {
	return nil
}
