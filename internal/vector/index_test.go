package vector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ellenaj0/RepoDocGen/pkg/types"
)

func TestNewIndexRejectsBadDimension(t *testing.T) {
	_, err := NewIndex(0)
	assert.ErrorIs(t, err, types.ErrConfig)

	_, err = NewIndex(-5)
	assert.ErrorIs(t, err, types.ErrConfig)
}

func TestAddRejectsDimensionMismatch(t *testing.T) {
	idx, err := NewIndex(3)
	require.NoError(t, err)

	require.NoError(t, idx.Add("c1", []float32{1, 0, 0}))

	// A 768-dim vector against a 3-dim index must fail without
	// disturbing existing entries.
	err = idx.Add("c2", make([]float32, 768))
	assert.ErrorIs(t, err, types.ErrConfig)
	assert.Equal(t, 1, idx.Len())

	results, err := idx.Query([]float32{1, 0, 0}, 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "c1", results[0].ChunkID)
}

func TestAddRejectsDuplicateID(t *testing.T) {
	idx, err := NewIndex(2)
	require.NoError(t, err)

	require.NoError(t, idx.Add("c1", []float32{1, 0}))
	err = idx.Add("c1", []float32{0, 1})
	assert.ErrorIs(t, err, types.ErrConfig)
	assert.Equal(t, 1, idx.Len())
}

func TestQueryRanksBySimilarity(t *testing.T) {
	idx, err := NewIndex(2)
	require.NoError(t, err)

	require.NoError(t, idx.Add("east", []float32{1, 0}))
	require.NoError(t, idx.Add("north", []float32{0, 1}))
	require.NoError(t, idx.Add("northeast", []float32{1, 1}))

	results, err := idx.Query([]float32{1, 0.1}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "east", results[0].ChunkID)
	assert.Equal(t, "northeast", results[1].ChunkID)
	assert.Equal(t, "north", results[2].ChunkID)
}

func TestQueryNormalizesMagnitude(t *testing.T) {
	idx, err := NewIndex(2)
	require.NoError(t, err)

	// Same direction, different magnitudes: similarity must be equal
	require.NoError(t, idx.Add("small", []float32{0.1, 0}))
	require.NoError(t, idx.Add("large", []float32{100, 0}))

	results, err := idx.Query([]float32{5, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.InDelta(t, results[0].Score, results[1].Score, 1e-6)
}

func TestQueryTieBreaksByChunkID(t *testing.T) {
	idx, err := NewIndex(2)
	require.NoError(t, err)

	require.NoError(t, idx.Add("run/b#1", []float32{1, 0}))
	require.NoError(t, idx.Add("run/a#0", []float32{1, 0}))

	results, err := idx.Query([]float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "run/a#0", results[0].ChunkID)
	assert.Equal(t, "run/b#1", results[1].ChunkID)
}

func TestQueryEmptyIndex(t *testing.T) {
	idx, err := NewIndex(4)
	require.NoError(t, err)

	results, err := idx.Query(make([]float32, 4), 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestQueryDimensionMismatch(t *testing.T) {
	idx, err := NewIndex(4)
	require.NoError(t, err)
	require.NoError(t, idx.Add("c1", []float32{1, 0, 0, 0}))

	_, err = idx.Query(make([]float32, 8), 5)
	assert.ErrorIs(t, err, types.ErrConfig)
}

func TestQueryTruncatesToK(t *testing.T) {
	idx, err := NewIndex(2)
	require.NoError(t, err)

	require.NoError(t, idx.Add("c1", []float32{1, 0}))
	require.NoError(t, idx.Add("c2", []float32{0.9, 0.1}))
	require.NoError(t, idx.Add("c3", []float32{0.8, 0.2}))

	results, err := idx.Query([]float32{1, 0}, 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}
