// Package embedder provides embedding providers.
//
// An Embedder is the narrow contract the vector side of retrieval depends
// on: given text, return a fixed-length dense vector. Providers may fail;
// failures surface as ProviderError and the caller excludes the affected
// chunk from the vector index only.
package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ellenaj0/RepoDocGen/internal/config"
	"github.com/ellenaj0/RepoDocGen/pkg/types"
)

// Provider names
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
	ProviderLocal  = "local"

	// DefaultOpenAIModel is used when no model is configured
	DefaultOpenAIModel = "text-embedding-3-small"
	// DefaultOllamaModel is used when no model is configured
	DefaultOllamaModel = "nomic-embed-text"

	// DefaultCacheSize bounds the embedding LRU cache
	DefaultCacheSize = 10000

	// MaxBatchSize bounds a single batch request
	MaxBatchSize = 100
)

// Common errors
var (
	ErrEmptyText     = errors.New("text cannot be empty")
	ErrBatchTooLarge = errors.New("batch size exceeds limit")
)

// Embedder generates dense vectors for text
type Embedder interface {
	// Embed generates a single embedding vector
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts in order
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the fixed vector length for this provider
	Dimension() int

	// Provider returns the provider name
	Provider() string

	// Close releases any resources held by the embedder
	Close() error
}

// New creates an embedder from run configuration
func New(cfg config.Config) (Embedder, error) {
	cache := NewCache(DefaultCacheSize)

	switch strings.ToLower(cfg.EmbeddingProvider) {
	case ProviderOpenAI:
		return NewOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.EmbeddingModel, cache)
	case ProviderOllama:
		return NewOllamaEmbedder(cfg.OllamaURL, cfg.EmbeddingModel, cfg.EmbeddingDim, cache), nil
	case ProviderLocal:
		return NewLocalEmbedder(cfg.EmbeddingDim, cache), nil
	default:
		return nil, fmt.Errorf("%w: unknown embedding provider %q", types.ErrConfig, cfg.EmbeddingProvider)
	}
}

// Cache provides in-memory LRU caching of vectors by content hash
type Cache struct {
	cache *lru.Cache[string, []float32]
}

// NewCache creates an embedding cache with LRU eviction
func NewCache(maxLen int) *Cache {
	if maxLen <= 0 {
		maxLen = DefaultCacheSize
	}
	cache, err := lru.New[string, []float32](maxLen)
	if err != nil {
		// Only reachable with a non-positive size, which is corrected above
		cache, _ = lru.New[string, []float32](DefaultCacheSize)
	}
	return &Cache{cache: cache}
}

// Get retrieves a copy of a cached vector. The copy prevents caller
// mutations from polluting the cache.
func (c *Cache) Get(hash string) ([]float32, bool) {
	vec, ok := c.cache.Get(hash)
	if !ok {
		return nil, false
	}
	out := make([]float32, len(vec))
	copy(out, vec)
	return out, true
}

// Set stores a vector with automatic LRU eviction
func (c *Cache) Set(hash string, vec []float32) {
	c.cache.Add(hash, vec)
}

// Size returns the current cache size
func (c *Cache) Size() int {
	return c.cache.Len()
}

// ComputeHash computes the SHA-256 hex digest of text for cache keys
func ComputeHash(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}

// ValidateBatch validates a batch of texts before embedding
func ValidateBatch(texts []string) error {
	if len(texts) == 0 {
		return ErrEmptyText
	}
	if len(texts) > MaxBatchSize {
		return fmt.Errorf("%w: max %d texts allowed", ErrBatchTooLarge, MaxBatchSize)
	}
	for i, text := range texts {
		if text == "" {
			return fmt.Errorf("%w: text at index %d", ErrEmptyText, i)
		}
	}
	return nil
}

// Normalize scales a vector to unit length so that inner product equals
// cosine similarity. Zero vectors are returned unchanged.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, val := range v {
		sum += float64(val) * float64(val)
	}

	if sum == 0 {
		return v
	}

	norm := float32(math.Sqrt(sum))
	out := make([]float32, len(v))
	for i, val := range v {
		out[i] = val / norm
	}
	return out
}
