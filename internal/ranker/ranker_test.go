package ranker

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ellenaj0/RepoDocGen/internal/config"
	"github.com/ellenaj0/RepoDocGen/internal/embedder"
	"github.com/ellenaj0/RepoDocGen/internal/lexical"
	"github.com/ellenaj0/RepoDocGen/internal/vector"
	"github.com/ellenaj0/RepoDocGen/pkg/types"
)

const testDim = 32

// buildRanker indexes the given chunks in both indices using the local
// embedder, mirroring what the pipeline does after chunking.
func buildRanker(t *testing.T, cfg config.Config, chunks []types.Chunk) *HybridRanker {
	t.Helper()

	emb := embedder.NewLocalEmbedder(testDim, embedder.NewCache(100))
	lex := lexical.NewIndex(cfg.BM25K1, cfg.BM25B, cfg.StopWords)
	vec, err := vector.NewIndex(testDim)
	require.NoError(t, err)

	ctx := context.Background()
	for _, c := range chunks {
		lex.Add(c.ID, c.Text)
		v, err := emb.Embed(ctx, c.Text)
		require.NoError(t, err)
		require.NoError(t, vec.Add(c.ID, v))
	}

	r, err := New(cfg, lex, vec, emb, chunks)
	require.NoError(t, err)
	return r
}

func testChunks() []types.Chunk {
	texts := []string{
		"func computeHash(data []byte) string hashes chunk content",
		"func walkDirectory(root string) traverses the file tree",
		"type SummaryNode struct holds a summary level and text",
		"BM25 scoring over the inverted postings list",
		"vector normalization before cosine similarity",
	}

	chunks := make([]types.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = types.Chunk{
			ID:   fmt.Sprintf("run/file%d.go#%d", i, i),
			Text: text,
			Source: types.SourceRef{
				FilePath:  fmt.Sprintf("file%d.go", i),
				StartLine: 1,
				EndLine:   5,
			},
			TokenCount: len(text) / types.CharsPerToken,
		}
	}
	return chunks
}

func TestQueryReturnsAtMostK(t *testing.T) {
	cfg := config.Default()
	cfg.TopK = 2
	r := buildRanker(t, cfg, testChunks())

	results, err := r.Query(context.Background(), "compute hash", 2)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(results), 2)
	assert.NotEmpty(t, results)
}

func TestQueryRanksSequentially(t *testing.T) {
	r := buildRanker(t, config.Default(), testChunks())

	results, err := r.Query(context.Background(), "summary node text", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	for i, res := range results {
		assert.Equal(t, i+1, res.Rank)
		require.NoError(t, res.Validate())
		if i > 0 {
			assert.GreaterOrEqual(t, results[i-1].FusedScore, res.FusedScore)
		}
	}
}

func TestAlphaZeroIsLexicalOnly(t *testing.T) {
	cfg := config.Default()
	cfg.Alpha = 0.0
	r := buildRanker(t, cfg, testChunks())

	results, err := r.Query(context.Background(), "BM25 postings", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	// With alpha 0 the fused score is exactly the normalized lexical score
	for _, res := range results {
		assert.Equal(t, res.LexicalScore, res.FusedScore)
	}
	assert.Equal(t, "run/file3.go#3", results[0].ChunkID)
}

func TestAlphaOneIsVectorOnly(t *testing.T) {
	cfg := config.Default()
	cfg.Alpha = 1.0
	r := buildRanker(t, cfg, testChunks())

	results, err := r.Query(context.Background(), "cosine similarity", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	for _, res := range results {
		assert.Equal(t, res.VectorScore, res.FusedScore)
	}
}

func TestUniformScoresNormalizeToOne(t *testing.T) {
	scores := normalize([]lexical.Scored{
		{ChunkID: "a", Score: 2.5},
		{ChunkID: "b", Score: 2.5},
		{ChunkID: "c", Score: 2.5},
	})

	for id, s := range scores {
		assert.Equal(t, 1.0, s, "chunk %s", id)
	}
}

func TestSingleCandidateNormalizesToOne(t *testing.T) {
	scores := normalize([]lexical.Scored{{ChunkID: "only", Score: 0.3}})
	assert.Equal(t, 1.0, scores["only"])
}

func TestNormalizeRange(t *testing.T) {
	scores := normalize([]lexical.Scored{
		{ChunkID: "low", Score: 1},
		{ChunkID: "mid", Score: 2},
		{ChunkID: "high", Score: 3},
	})

	assert.Equal(t, 0.0, scores["low"])
	assert.Equal(t, 0.5, scores["mid"])
	assert.Equal(t, 1.0, scores["high"])
}

func TestQueryResultMembership(t *testing.T) {
	chunks := testChunks()
	r := buildRanker(t, config.Default(), chunks)

	known := make(map[string]struct{})
	for _, c := range chunks {
		known[c.ID] = struct{}{}
	}

	results, err := r.Query(context.Background(), "file tree walk", 5)
	require.NoError(t, err)
	for _, res := range results {
		_, ok := known[res.ChunkID]
		assert.True(t, ok, "result %s must be an indexed chunk", res.ChunkID)
		assert.NotEmpty(t, res.Text)
	}
}

func TestQueryCacheHitIsStable(t *testing.T) {
	r := buildRanker(t, config.Default(), testChunks())
	ctx := context.Background()

	first, err := r.Query(ctx, "hash content", 3)
	require.NoError(t, err)
	second, err := r.Query(ctx, "hash content", 3)
	require.NoError(t, err)

	assert.Equal(t, first, second)

	// Mutating a returned slice must not poison the cache
	if len(first) > 0 {
		first[0].Text = "mutated"
		third, err := r.Query(ctx, "hash content", 3)
		require.NoError(t, err)
		assert.NotEqual(t, "mutated", third[0].Text)
	}
}

func TestQueryEmptyQuery(t *testing.T) {
	r := buildRanker(t, config.Default(), testChunks())

	_, err := r.Query(context.Background(), "", 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrConfig)
}

func TestQueryNoIndexedChunks(t *testing.T) {
	cfg := config.Default()
	emb := embedder.NewLocalEmbedder(testDim, embedder.NewCache(10))
	lex := lexical.NewIndex(cfg.BM25K1, cfg.BM25B, cfg.StopWords)
	vec, err := vector.NewIndex(testDim)
	require.NoError(t, err)

	r, err := New(cfg, lex, vec, emb, nil)
	require.NoError(t, err)

	_, err = r.Query(context.Background(), "anything", 3)
	assert.ErrorIs(t, err, types.ErrIndexState)
}

func TestNewRejectsMissingIndices(t *testing.T) {
	cfg := config.Default()
	emb := embedder.NewLocalEmbedder(testDim, embedder.NewCache(10))

	_, err := New(cfg, nil, nil, emb, nil)
	assert.ErrorIs(t, err, types.ErrIndexState)
}

func TestLexicalOnlyWhenVectorIndexEmpty(t *testing.T) {
	cfg := config.Default()
	emb := embedder.NewLocalEmbedder(testDim, embedder.NewCache(10))
	lex := lexical.NewIndex(cfg.BM25K1, cfg.BM25B, cfg.StopWords)
	vec, err := vector.NewIndex(testDim)
	require.NoError(t, err)

	chunks := testChunks()
	for _, c := range chunks {
		lex.Add(c.ID, c.Text)
	}

	r, err := New(cfg, lex, vec, emb, chunks)
	require.NoError(t, err)

	results, err := r.Query(context.Background(), "BM25 postings", 3)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	for _, res := range results {
		assert.Zero(t, res.VectorScore)
	}
}
