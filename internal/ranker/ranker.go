// Package ranker fuses lexical and vector retrieval into a single ranked
// result list. Scores from each side are min-max normalized within the
// candidate set, then blended with a configurable alpha weight.
package ranker

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ellenaj0/RepoDocGen/internal/config"
	"github.com/ellenaj0/RepoDocGen/internal/embedder"
	"github.com/ellenaj0/RepoDocGen/internal/lexical"
	"github.com/ellenaj0/RepoDocGen/internal/vector"
	"github.com/ellenaj0/RepoDocGen/pkg/types"
)

// DefaultCacheSize bounds the query result cache
const DefaultCacheSize = 100

// HybridRanker answers queries against a built pair of indices. It is
// constructed once per indexed run; the query cache never needs
// invalidation because the underlying indices are immutable after build.
type HybridRanker struct {
	cfg    config.Config
	lex    *lexical.Index
	vec    *vector.Index
	emb    embedder.Embedder
	chunks map[string]types.Chunk
	cache  *lru.Cache[string, []types.RankedResult]
}

// New creates a ranker over the given indices and chunk set
func New(cfg config.Config, lex *lexical.Index, vec *vector.Index, emb embedder.Embedder, chunks []types.Chunk) (*HybridRanker, error) {
	if lex == nil || vec == nil {
		return nil, fmt.Errorf("%w: indices not built", types.ErrIndexState)
	}

	byID := make(map[string]types.Chunk, len(chunks))
	for _, c := range chunks {
		byID[c.ID] = c
	}

	cache, err := lru.New[string, []types.RankedResult](DefaultCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create query cache: %w", err)
	}

	return &HybridRanker{
		cfg:    cfg,
		lex:    lex,
		vec:    vec,
		emb:    emb,
		chunks: byID,
		cache:  cache,
	}, nil
}

// Query returns the top k chunks for the query text, ranked by fused
// score. The fused score is alpha times the normalized vector score plus
// (1-alpha) times the normalized lexical score; a chunk absent from one
// side contributes zero for that side. Ties are broken by chunk ID
// ascending. Results are cached per query.
func (r *HybridRanker) Query(ctx context.Context, query string, k int) ([]types.RankedResult, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: query cannot be empty", types.ErrConfig)
	}
	if k <= 0 {
		k = r.cfg.TopK
	}

	key := r.cacheKey(query, k)
	if cached, ok := r.cache.Get(key); ok {
		return cloneResults(cached), nil
	}

	if r.lex.Len() == 0 && r.vec.Len() == 0 {
		return nil, fmt.Errorf("%w: no chunks indexed", types.ErrIndexState)
	}

	// Pull a wider candidate pool than k so fusion can promote chunks
	// that rank mid-list on one side but high on the other.
	n := r.cfg.FusionCandidates
	if n < k {
		n = k
	}

	lexScores := normalize(r.lex.Query(query, n))

	vecScores, err := r.vectorScores(ctx, query, n)
	if err != nil {
		return nil, err
	}

	results := r.fuse(lexScores, vecScores, k)

	r.cache.Add(key, cloneResults(results))
	return results, nil
}

// vectorScores embeds the query once and scores it against the vector
// index. An empty vector index degrades to lexical-only retrieval rather
// than failing the query.
func (r *HybridRanker) vectorScores(ctx context.Context, query string, n int) (map[string]float64, error) {
	if r.vec.Len() == 0 {
		return nil, nil
	}

	qvec, err := r.emb.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	scored, err := r.vec.Query(qvec, n)
	if err != nil {
		return nil, err
	}

	raw := make([]lexical.Scored, len(scored))
	for i, s := range scored {
		raw[i] = lexical.Scored{ChunkID: s.ChunkID, Score: s.Score}
	}
	return normalize(raw), nil
}

// fuse blends the two normalized score maps and assembles ranked results
func (r *HybridRanker) fuse(lexScores, vecScores map[string]float64, k int) []types.RankedResult {
	alpha := r.cfg.Alpha

	candidates := make(map[string]struct{}, len(lexScores)+len(vecScores))
	for id := range lexScores {
		candidates[id] = struct{}{}
	}
	for id := range vecScores {
		candidates[id] = struct{}{}
	}

	results := make([]types.RankedResult, 0, len(candidates))
	for id := range candidates {
		lex := lexScores[id]
		vec := vecScores[id]

		chunk := r.chunks[id]
		results = append(results, types.RankedResult{
			ChunkID:      id,
			FusedScore:   alpha*vec + (1-alpha)*lex,
			LexicalScore: lex,
			VectorScore:  vec,
			Source:       chunk.Source,
			Text:         chunk.Text,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].FusedScore != results[j].FusedScore {
			return results[i].FusedScore > results[j].FusedScore
		}
		return results[i].ChunkID < results[j].ChunkID
	})

	if len(results) > k {
		results = results[:k]
	}
	for i := range results {
		results[i].Rank = i + 1
	}
	return results
}

func (r *HybridRanker) cacheKey(query string, k int) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%g", query, k, r.cfg.Alpha)))
	return hex.EncodeToString(h[:])
}

// normalize min-max scales scores within the candidate set to [0, 1].
// A single candidate, or a set where all scores are equal, maps to 1.0
// so a degenerate set still counts as a full-strength match.
func normalize(scored []lexical.Scored) map[string]float64 {
	if len(scored) == 0 {
		return nil
	}

	min, max := scored[0].Score, scored[0].Score
	for _, s := range scored[1:] {
		if s.Score < min {
			min = s.Score
		}
		if s.Score > max {
			max = s.Score
		}
	}

	out := make(map[string]float64, len(scored))
	if max == min {
		for _, s := range scored {
			out[s.ChunkID] = 1.0
		}
		return out
	}

	for _, s := range scored {
		out[s.ChunkID] = (s.Score - min) / (max - min)
	}
	return out
}

func cloneResults(in []types.RankedResult) []types.RankedResult {
	out := make([]types.RankedResult, len(in))
	copy(out, in)
	return out
}
