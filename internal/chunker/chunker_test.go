package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ellenaj0/RepoDocGen/internal/config"
	"github.com/ellenaj0/RepoDocGen/pkg/types"
)

const sampleSource = `package sample

import "fmt"

func Hello(name string) string {
	return fmt.Sprintf("hello %s", name)
}

func Goodbye(name string) string {
	return fmt.Sprintf("goodbye %s", name)
}
`

func sampleAnalysis() *types.FileAnalysis {
	return &types.FileAnalysis{
		Path:     "sample.go",
		Language: "go",
		Symbols: []types.Symbol{
			{Name: "Hello", Kind: types.KindFunction, StartLine: 5, EndLine: 7},
			{Name: "Goodbye", Kind: types.KindFunction, StartLine: 9, EndLine: 11},
		},
		LineCount: 12,
	}
}

func TestChunkFilePerSymbol(t *testing.T) {
	c := New(config.Default(), "run1")

	chunks := c.ChunkFile(sampleAnalysis(), []byte(sampleSource))
	require.Len(t, chunks, 2)

	assert.Contains(t, chunks[0].Text, "func Hello")
	assert.Contains(t, chunks[1].Text, "func Goodbye")

	assert.Equal(t, 5, chunks[0].Source.StartLine)
	assert.Equal(t, 7, chunks[0].Source.EndLine)
	assert.Equal(t, "sample.go", chunks[0].Source.FilePath)

	for _, chunk := range chunks {
		require.NoError(t, chunk.Validate())
		assert.True(t, chunk.Source.IsFile())
		assert.False(t, chunk.Source.IsSummary())
	}
}

func TestChunkIDsAreRunScoped(t *testing.T) {
	c := New(config.Default(), "run1")
	chunks := c.ChunkFile(sampleAnalysis(), []byte(sampleSource))
	require.Len(t, chunks, 2)

	assert.Equal(t, "run1/sample.go#0", chunks[0].ID)
	assert.Equal(t, "run1/sample.go#1", chunks[1].ID)

	// A fresh run mints fresh identifiers for identical input
	c2 := New(config.Default(), "run2")
	chunks2 := c2.ChunkFile(sampleAnalysis(), []byte(sampleSource))
	assert.Equal(t, "run2/sample.go#0", chunks2[0].ID)
	assert.NotEqual(t, chunks[0].ID, chunks2[0].ID)
}

func TestChunkFileNoSymbolsFallsBackToWindows(t *testing.T) {
	c := New(config.Default(), "run1")

	a := &types.FileAnalysis{Path: "notes.py", Language: "python"}
	chunks := c.ChunkFile(a, []byte("# a config-only file\nVALUE = 42\n"))
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0].Text, "VALUE = 42")
	assert.Equal(t, 1, chunks[0].Source.StartLine)
}

func TestChunkFileFailedAnalysisStillChunks(t *testing.T) {
	c := New(config.Default(), "run1")

	a := &types.FileAnalysis{Path: "broken.go", Language: "go", Failed: true, Error: "syntax error"}
	chunks := c.ChunkFile(a, []byte(sampleSource))
	require.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		require.NoError(t, chunk.Validate())
	}
}

func TestChunkFileEmptyContent(t *testing.T) {
	c := New(config.Default(), "run1")

	a := &types.FileAnalysis{Path: "empty.go", Language: "go"}
	chunks := c.ChunkFile(a, []byte("  \n\n"))
	assert.Empty(t, chunks)
}

func TestLargeSymbolSplitsWithOverlap(t *testing.T) {
	cfg := config.Default()
	cfg.ChunkSize = 200
	cfg.ChunkOverlap = 50
	c := New(cfg, "run1")

	var b strings.Builder
	b.WriteString("func Big() {\n")
	for i := 0; i < 50; i++ {
		fmt.Fprintf(&b, "\tstep%02d := compute(%d) // long enough line\n", i, i)
	}
	b.WriteString("}\n")
	content := b.String()
	lineCount := strings.Count(content, "\n") + 1

	a := &types.FileAnalysis{
		Path:     "big.go",
		Language: "go",
		Symbols: []types.Symbol{
			{Name: "Big", Kind: types.KindFunction, StartLine: 1, EndLine: lineCount},
		},
	}

	chunks := c.ChunkFile(a, []byte(content))
	require.Greater(t, len(chunks), 1)

	for i, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk.Text), cfg.ChunkSize+cfg.ChunkOverlap,
			"chunk %d too large", i)
		require.NoError(t, chunk.Validate())
		if i > 0 {
			// Consecutive windows share lines
			assert.LessOrEqual(t, chunk.Source.StartLine, chunks[i-1].Source.EndLine)
			assert.Greater(t, chunk.Source.EndLine, chunks[i-1].Source.EndLine)
		}
	}
}

func TestChunkSummaries(t *testing.T) {
	c := New(config.Default(), "run1")

	root := &types.SummaryNode{
		Level: types.LevelRepository,
		ID:    "repository",
		Text:  "A sample repository with one module.",
		Children: []*types.SummaryNode{
			{
				Level: types.LevelModule,
				ID:    "pkg",
				Text:  "Utility helpers.",
				Children: []*types.SummaryNode{
					{Level: types.LevelFile, ID: "pkg/util.go", Text: "String utilities."},
				},
			},
		},
	}

	chunks := c.ChunkSummaries(root)
	require.Len(t, chunks, 3)

	byNode := make(map[string]types.Chunk)
	for _, chunk := range chunks {
		require.NoError(t, chunk.Validate())
		assert.True(t, chunk.Source.IsSummary())
		byNode[chunk.Source.SummaryNodeID] = chunk
	}

	assert.Contains(t, byNode, "repository")
	assert.Contains(t, byNode, "pkg")
	assert.Contains(t, byNode, "pkg/util.go")
	assert.Equal(t, "run1/repository#0", byNode["repository"].ID)
}

func TestChunkSummariesSplitsLongText(t *testing.T) {
	cfg := config.Default()
	cfg.ChunkSize = 100
	cfg.ChunkOverlap = 20
	c := New(cfg, "run1")

	root := &types.SummaryNode{
		Level: types.LevelRepository,
		ID:    "repository",
		Text:  strings.Repeat("the repository does many things ", 20),
	}

	chunks := c.ChunkSummaries(root)
	require.Greater(t, len(chunks), 1)
	for i, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk.Text), cfg.ChunkSize)
		assert.Equal(t, fmt.Sprintf("run1/repository#%d", i), chunk.ID)
	}
}

func TestSplitTextOverlap(t *testing.T) {
	text := strings.Repeat("abcdefghij", 10) // 100 chars
	parts := splitText(text, 40, 10)

	require.Greater(t, len(parts), 1)
	for i := 1; i < len(parts); i++ {
		// Each window starts with the tail of the previous one
		prevTail := parts[i-1][len(parts[i-1])-10:]
		assert.True(t, strings.HasPrefix(parts[i], prevTail))
	}
}

func TestTokenCountAndHashComputed(t *testing.T) {
	c := New(config.Default(), "run1")
	chunks := c.ChunkFile(sampleAnalysis(), []byte(sampleSource))

	for _, chunk := range chunks {
		assert.Equal(t, len(chunk.Text)/types.CharsPerToken, chunk.TokenCount)
		var zero [32]byte
		assert.NotEqual(t, zero, chunk.ContentHash)
	}
}
