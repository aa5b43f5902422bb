package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ellenaj0/RepoDocGen/pkg/types"
)

// OllamaEmbedder generates embeddings via the Ollama /api/embed endpoint
type OllamaEmbedder struct {
	baseURL string
	model   string
	dim     int
	client  *http.Client
	cache   *Cache
	retry   RetryConfig
}

// NewOllamaEmbedder creates an embedder targeting the given Ollama instance
// and model. The dimension must match what the model produces; mismatches
// surface as provider errors at embed time.
func NewOllamaEmbedder(baseURL, model string, dim int, cache *Cache) *OllamaEmbedder {
	if model == "" {
		model = DefaultOllamaModel
	}

	return &OllamaEmbedder{
		baseURL: baseURL,
		model:   model,
		dim:     dim,
		client: &http.Client{
			Timeout: 2 * time.Minute,
		},
		cache: cache,
		retry: DefaultRetryConfig(),
	}
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed generates an embedding for a single text, consulting the cache first
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
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

// EmbedBatch generates embeddings for multiple texts in input order
func (e *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
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

func (e *OllamaEmbedder) request(ctx context.Context, inputs []string) ([][]float32, error) {
	body, err := json.Marshal(embedRequest{Model: e.model, Input: inputs})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	vecs, err := retryWithBackoff(ctx, e.retry, func() ([][]float32, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embed", bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("create embed request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := e.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			respBody, _ := io.ReadAll(resp.Body)
			return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody))
		}

		var result embedResponse
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return nil, err
		}
		return result.Embeddings, nil
	})
	if err != nil {
		return nil, &types.ProviderError{Provider: ProviderOllama, Op: "embed", Err: err}
	}

	if len(vecs) != len(inputs) {
		return nil, &types.ProviderError{
			Provider: ProviderOllama,
			Op:       "embed",
			Err:      fmt.Errorf("expected %d embeddings, got %d", len(inputs), len(vecs)),
		}
	}
	for _, vec := range vecs {
		if len(vec) != e.dim {
			return nil, &types.ProviderError{
				Provider: ProviderOllama,
				Op:       "embed",
				Err:      fmt.Errorf("expected dimension %d, got %d", e.dim, len(vec)),
			}
		}
	}

	return vecs, nil
}

func (e *OllamaEmbedder) Dimension() int {
	return e.dim
}

func (e *OllamaEmbedder) Provider() string {
	return ProviderOllama
}

func (e *OllamaEmbedder) Close() error {
	return nil
}
