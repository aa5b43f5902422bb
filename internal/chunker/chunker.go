// Package chunker turns analyzed files and summary nodes into indexable
// chunks. File chunks follow symbol boundaries where the analyzer found
// symbols and fall back to sliding line windows where it did not; summary
// chunks carry a node's text. Chunk identifiers are scoped to a run so
// re-indexing mints fresh IDs instead of mutating old ones.
package chunker

import (
	"fmt"
	"strings"

	"github.com/ellenaj0/RepoDocGen/internal/config"
	"github.com/ellenaj0/RepoDocGen/pkg/types"
)

// Chunker creates chunks for one indexing run. Not safe for concurrent
// use; the pipeline chunks sequentially after analysis completes.
type Chunker struct {
	cfg   config.Config
	runID string
	seq   map[string]int // origin -> next sequence number
}

// New creates a chunker for the given run
func New(cfg config.Config, runID string) *Chunker {
	return &Chunker{
		cfg:   cfg,
		runID: runID,
		seq:   make(map[string]int),
	}
}

// nextID mints the next identifier for an origin: <runID>/<origin>#<seq>
func (c *Chunker) nextID(origin string) string {
	n := c.seq[origin]
	c.seq[origin] = n + 1
	return fmt.Sprintf("%s/%s#%d", c.runID, origin, n)
}

// ChunkFile chunks a source file using its analysis. Each symbol becomes
// one chunk, split further when it exceeds the configured chunk size. A
// file with no symbols (or a failed analysis) is chunked by sliding line
// windows so its content still participates in retrieval.
func (c *Chunker) ChunkFile(a *types.FileAnalysis, content []byte) []types.Chunk {
	lines := strings.Split(string(content), "\n")

	var chunks []types.Chunk

	if !a.Failed && len(a.Symbols) > 0 {
		for i := range a.Symbols {
			sym := &a.Symbols[i]
			if sym.StartLine <= 0 || sym.StartLine > len(lines) {
				continue
			}
			end := sym.EndLine
			if end > len(lines) {
				end = len(lines)
			}
			chunks = append(chunks, c.chunkRegion(a.Path, lines, sym.StartLine, end)...)
		}
	}

	if len(chunks) == 0 && len(strings.TrimSpace(string(content))) > 0 {
		chunks = c.chunkRegion(a.Path, lines, 1, len(lines))
	}

	return chunks
}

// ChunkSummaries walks a summary tree and produces one or more chunks per
// node. Summary chunks let queries match high-level descriptions as well
// as code.
func (c *Chunker) ChunkSummaries(root *types.SummaryNode) []types.Chunk {
	var chunks []types.Chunk

	root.Walk(func(node *types.SummaryNode) bool {
		if strings.TrimSpace(node.Text) == "" {
			return true
		}
		for _, text := range splitText(node.Text, c.cfg.ChunkSize, c.cfg.ChunkOverlap) {
			chunk := types.Chunk{
				ID:     c.nextID(node.ID),
				Text:   text,
				Source: types.SourceRef{SummaryNodeID: node.ID},
			}
			chunk.ComputeContentHash()
			chunk.ComputeTokenCount()
			chunks = append(chunks, chunk)
		}
		return true
	})

	return chunks
}

// chunkRegion chunks the inclusive 1-based line range [start, end] of a
// file, splitting into overlapping windows when the region exceeds the
// chunk size.
func (c *Chunker) chunkRegion(path string, lines []string, start, end int) []types.Chunk {
	var chunks []types.Chunk

	for _, w := range splitLines(lines, start, end, c.cfg.ChunkSize, c.cfg.ChunkOverlap) {
		if strings.TrimSpace(w.text) == "" {
			continue
		}
		chunk := types.Chunk{
			ID:   c.nextID(path),
			Text: w.text,
			Source: types.SourceRef{
				FilePath:  path,
				StartLine: w.start,
				EndLine:   w.end,
			},
		}
		chunk.ComputeContentHash()
		chunk.ComputeTokenCount()
		chunks = append(chunks, chunk)
	}

	return chunks
}

// window is a line span with its joined text
type window struct {
	text  string
	start int
	end   int
}

// splitLines packs the line range into windows of at most size characters,
// overlapping by roughly overlap characters worth of trailing lines. A
// single line longer than size forms its own window.
func splitLines(lines []string, start, end, size, overlap int) []window {
	var windows []window

	i := start
	for i <= end {
		var b strings.Builder
		winStart := i
		winEnd := i

		for j := i; j <= end; j++ {
			line := lines[j-1]
			if b.Len() > 0 && b.Len()+len(line)+1 > size {
				break
			}
			if b.Len() > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(line)
			winEnd = j
		}

		windows = append(windows, window{text: b.String(), start: winStart, end: winEnd})

		if winEnd >= end {
			break
		}

		// Step back far enough to cover the overlap, but always advance
		next := winEnd + 1
		back := 0
		for k := winEnd; k > winStart && back < overlap; k-- {
			back += len(lines[k-1]) + 1
			next = k
		}
		if next <= winStart {
			next = winStart + 1
		}
		i = next
	}

	return windows
}

// splitText splits free text into overlapping character windows
func splitText(text string, size, overlap int) []string {
	if len(text) <= size {
		return []string{text}
	}

	var out []string
	step := size - overlap
	if step <= 0 {
		step = size
	}

	for start := 0; start < len(text); start += step {
		end := start + size
		if end > len(text) {
			end = len(text)
		}
		out = append(out, text[start:end])
		if end == len(text) {
			break
		}
	}

	return out
}
