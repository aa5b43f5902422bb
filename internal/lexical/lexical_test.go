package lexical

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ellenaj0/RepoDocGen/internal/config"
)

func newTestIndex() *Index {
	return NewIndex(config.DefaultBM25K1, config.DefaultBM25B, config.DefaultStopWords)
}

func TestSplitIdentifier(t *testing.T) {
	tests := []struct {
		ident string
		want  []string
	}{
		{"parseFileHeader", []string{"parse", "file", "header"}},
		{"parse_file_header", []string{"parse", "file", "header"}},
		{"HTTPServer", []string{"http", "server"}},
		{"computeHash", []string{"compute", "hash"}},
		{"simple", []string{"simple"}},
		{"XMLHttpRequest", []string{"xml", "http", "request"}},
	}

	for _, tt := range tests {
		t.Run(tt.ident, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitIdentifier(tt.ident))
		})
	}
}

func TestTokenizeEmitsIdentifierParts(t *testing.T) {
	tok := NewTokenizer(config.DefaultStopWords)

	terms := tok.Tokenize("func computeHash(data []byte) string")
	assert.Contains(t, terms, "compute")
	assert.Contains(t, terms, "hash")
	assert.Contains(t, terms, "computehash")
	assert.Contains(t, terms, "func")
}

func TestTokenizeDropsStopWordsAndShortTerms(t *testing.T) {
	tok := NewTokenizer(config.DefaultStopWords)

	terms := tok.Tokenize("the value of a b is stored")
	assert.NotContains(t, terms, "the")
	assert.NotContains(t, terms, "of")
	assert.NotContains(t, terms, "a")
	assert.Contains(t, terms, "value")
	assert.Contains(t, terms, "stored")
}

func TestQueryMatchesSplitIdentifier(t *testing.T) {
	idx := newTestIndex()
	idx.Add("c1", "func computeHash(data []byte) string { return hex(sum) }")
	idx.Add("c2", "func renderTemplate(w io.Writer) error")

	results := idx.Query("compute hash", 5)
	require.NotEmpty(t, results)
	assert.Equal(t, "c1", results[0].ChunkID)
}

func TestQueryRanksHigherTermFrequency(t *testing.T) {
	idx := newTestIndex()
	idx.Add("c1", "cache lookup cache store cache evict")
	idx.Add("c2", "cache miss on cold start")
	idx.Add("c3", "walk the directory tree")

	results := idx.Query("cache", 5)
	require.Len(t, results, 2)
	assert.Equal(t, "c1", results[0].ChunkID)
	assert.Equal(t, "c2", results[1].ChunkID)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestQueryTieBreaksByChunkID(t *testing.T) {
	idx := newTestIndex()
	// Identical documents score identically
	idx.Add("run/b#1", "token budget enforcement logic")
	idx.Add("run/a#0", "token budget enforcement logic")

	results := idx.Query("budget", 5)
	require.Len(t, results, 2)
	assert.Equal(t, results[0].Score, results[1].Score)
	assert.Equal(t, "run/a#0", results[0].ChunkID)
	assert.Equal(t, "run/b#1", results[1].ChunkID)
}

func TestQueryEmptyIndex(t *testing.T) {
	idx := newTestIndex()

	results := idx.Query("anything", 5)
	assert.Empty(t, results)
}

func TestQueryNoMatchingTerms(t *testing.T) {
	idx := newTestIndex()
	idx.Add("c1", "vector normalization routine")

	results := idx.Query("zebra quagga", 5)
	assert.Empty(t, results)
}

func TestQueryTruncatesToK(t *testing.T) {
	idx := newTestIndex()
	for i := 0; i < 10; i++ {
		idx.Add(fmt.Sprintf("c%d", i), fmt.Sprintf("summary node text variant %d", i))
	}

	results := idx.Query("summary node", 3)
	assert.Len(t, results, 3)
}

func TestLen(t *testing.T) {
	idx := newTestIndex()
	assert.Equal(t, 0, idx.Len())

	idx.Add("c1", "one")
	idx.Add("c2", "two")
	assert.Equal(t, 2, idx.Len())
}
