// Package vector implements an in-memory dense vector index. Vectors are
// unit-normalized at insert so similarity reduces to an inner product;
// queries are brute-force, which is exact and fast enough for the corpus
// sizes a single repository produces.
package vector

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ellenaj0/RepoDocGen/internal/embedder"
	"github.com/ellenaj0/RepoDocGen/pkg/types"
)

// Scored is a chunk ID paired with its cosine similarity score
type Scored struct {
	ChunkID string
	Score   float64
}

type entry struct {
	chunkID string
	vec     []float32
}

// Index holds unit-normalized vectors keyed by chunk ID. Safe for
// concurrent queries once building is complete; Add and Query must not
// race.
type Index struct {
	mu      sync.RWMutex
	dim     int
	entries []entry
	ids     map[string]struct{}
}

// NewIndex creates an empty index accepting vectors of the given dimension
func NewIndex(dim int) (*Index, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("%w: vector dimension must be positive, got %d", types.ErrConfig, dim)
	}
	return &Index{
		dim: dim,
		ids: make(map[string]struct{}),
	}, nil
}

// Dimension returns the index's fixed vector dimension
func (idx *Index) Dimension() int {
	return idx.dim
}

// Len returns the number of indexed vectors
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// Add inserts a vector under the given chunk ID. A dimension mismatch or
// duplicate ID is rejected without touching previously added entries.
func (idx *Index) Add(chunkID string, vec []float32) error {
	if len(vec) != idx.dim {
		return fmt.Errorf("%w: vector dimension %d does not match index dimension %d",
			types.ErrConfig, len(vec), idx.dim)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, dup := idx.ids[chunkID]; dup {
		return fmt.Errorf("%w: chunk %q already indexed", types.ErrConfig, chunkID)
	}

	idx.entries = append(idx.entries, entry{
		chunkID: chunkID,
		vec:     embedder.Normalize(vec),
	})
	idx.ids[chunkID] = struct{}{}
	return nil
}

// Query returns the k nearest chunks to the query vector by cosine
// similarity, descending. Ties are broken by chunk ID ascending. An
// empty index yields an empty slice; a dimension mismatch is an error.
func (idx *Index) Query(vec []float32, k int) ([]Scored, error) {
	if len(vec) != idx.dim {
		return nil, fmt.Errorf("%w: query dimension %d does not match index dimension %d",
			types.ErrConfig, len(vec), idx.dim)
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if len(idx.entries) == 0 || k <= 0 {
		return nil, nil
	}

	q := embedder.Normalize(vec)

	results := make([]Scored, 0, len(idx.entries))
	for _, e := range idx.entries {
		results = append(results, Scored{
			ChunkID: e.chunkID,
			Score:   dot(q, e.vec),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ChunkID < results[j].ChunkID
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
