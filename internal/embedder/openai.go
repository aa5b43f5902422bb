package embedder

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ellenaj0/RepoDocGen/pkg/types"
)

// openAIDimensions maps known OpenAI embedding models to their vector size
var openAIDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// OpenAIEmbedder generates embeddings via the OpenAI embeddings API
type OpenAIEmbedder struct {
	client *openai.Client
	model  string
	dim    int
	cache  *Cache
	retry  RetryConfig
}

// NewOpenAIEmbedder creates an OpenAI-backed embedder
func NewOpenAIEmbedder(apiKey, model string, cache *Cache) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: OPENAI_API_KEY not set", types.ErrConfig)
	}
	if model == "" {
		model = DefaultOpenAIModel
	}

	dim, ok := openAIDimensions[model]
	if !ok {
		return nil, fmt.Errorf("%w: unknown OpenAI embedding model %q", types.ErrConfig, model)
	}

	return &OpenAIEmbedder{
		client: openai.NewClient(apiKey),
		model:  model,
		dim:    dim,
		cache:  cache,
		retry:  DefaultRetryConfig(),
	}, nil
}

// Embed generates an embedding for a single text, consulting the cache first
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	hash := ComputeHash(text)
	if vec, ok := e.cache.Get(hash); ok {
		return vec, nil
	}

	vecs, err := e.request(ctx, []string{text})
	if err != nil {
		return nil, err
	}

	e.cache.Set(hash, vecs[0])
	return vecs[0], nil
}

// EmbedBatch generates embeddings for multiple texts. Cached texts are not
// re-sent; output order matches input order.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ValidateBatch(texts); err != nil {
		return nil, err
	}

	results := make([][]float32, len(texts))
	var misses []string
	var missIdx []int

	for i, text := range texts {
		if vec, ok := e.cache.Get(ComputeHash(text)); ok {
			results[i] = vec
		} else {
			misses = append(misses, text)
			missIdx = append(missIdx, i)
		}
	}

	if len(misses) == 0 {
		return results, nil
	}

	vecs, err := e.request(ctx, misses)
	if err != nil {
		return nil, err
	}

	for j, vec := range vecs {
		results[missIdx[j]] = vec
		e.cache.Set(ComputeHash(misses[j]), vec)
	}

	return results, nil
}

func (e *OpenAIEmbedder) request(ctx context.Context, inputs []string) ([][]float32, error) {
	resp, err := retryWithBackoff(ctx, e.retry, func() (openai.EmbeddingResponse, error) {
		return e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Model: openai.EmbeddingModel(e.model),
			Input: inputs,
		})
	})
	if err != nil {
		return nil, &types.ProviderError{Provider: ProviderOpenAI, Op: "embed", Err: err}
	}

	if len(resp.Data) != len(inputs) {
		return nil, &types.ProviderError{
			Provider: ProviderOpenAI,
			Op:       "embed",
			Err:      fmt.Errorf("expected %d embeddings, got %d", len(inputs), len(resp.Data)),
		}
	}

	vecs := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		if len(d.Embedding) != e.dim {
			return nil, &types.ProviderError{
				Provider: ProviderOpenAI,
				Op:       "embed",
				Err:      fmt.Errorf("expected dimension %d, got %d", e.dim, len(d.Embedding)),
			}
		}
		vecs[i] = d.Embedding
	}
	return vecs, nil
}

func (e *OpenAIEmbedder) Dimension() int {
	return e.dim
}

func (e *OpenAIEmbedder) Provider() string {
	return ProviderOpenAI
}

func (e *OpenAIEmbedder) Close() error {
	return nil
}
