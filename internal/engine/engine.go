// Package engine orchestrates the indexing pipeline and serves queries
// over the result: discover files, analyze them, build the summary tree,
// chunk code and summaries, embed, and construct the lexical and vector
// indices. Local failures degrade the run and are recorded as warnings; a
// run never silently succeeds with undisclosed gaps.
package engine

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ellenaj0/RepoDocGen/internal/analyzer"
	"github.com/ellenaj0/RepoDocGen/internal/chunker"
	"github.com/ellenaj0/RepoDocGen/internal/config"
	"github.com/ellenaj0/RepoDocGen/internal/embedder"
	"github.com/ellenaj0/RepoDocGen/internal/lexical"
	"github.com/ellenaj0/RepoDocGen/internal/llm"
	"github.com/ellenaj0/RepoDocGen/internal/ranker"
	"github.com/ellenaj0/RepoDocGen/internal/summarizer"
	"github.com/ellenaj0/RepoDocGen/internal/vector"
	"github.com/ellenaj0/RepoDocGen/pkg/types"
)

// Stats summarizes one indexing run
type Stats struct {
	RunID          string
	Files          int
	FailedFiles    int
	Chunks         int
	EmbeddedChunks int
	DegradedNodes  int
	Duration       time.Duration
}

// Engine coordinates the pipeline and answers queries against the built
// indices. Index must complete before Query, Overview, or Ask.
type Engine struct {
	cfg       config.Config
	analyzers *analyzer.Set
	llm       llm.Summarizer
	emb       embedder.Embedder

	mu       sync.RWMutex
	runID    string
	root     string
	analyses []types.FileAnalysis
	summary  *types.SummaryNode
	chunks   []types.Chunk
	vectors  map[string][]float32
	ranker   *ranker.HybridRanker
	warnings []types.Warning
}

// New creates an engine with providers built from the configuration
func New(cfg config.Config) (*Engine, error) {
	provider, err := llm.New(cfg)
	if err != nil {
		return nil, err
	}
	emb, err := embedder.New(cfg)
	if err != nil {
		return nil, err
	}
	return NewWithProviders(cfg, provider, emb), nil
}

// NewWithProviders creates an engine with explicit providers. Used by
// tests to inject mocks.
func NewWithProviders(cfg config.Config, provider llm.Summarizer, emb embedder.Embedder) *Engine {
	return &Engine{
		cfg:       cfg,
		analyzers: analyzer.NewSet(),
		llm:       provider,
		emb:       emb,
	}
}

// Index runs the full pipeline over the repository at root
func (e *Engine) Index(ctx context.Context, root string) (*Stats, error) {
	start := time.Now()
	runID := uuid.NewString()

	files, err := discoverFiles(root, e.cfg, e.analyzers.Supports)
	if err != nil {
		return nil, fmt.Errorf("discover files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no analyzable files under %s", root)
	}
	log.Printf("indexing %d files under %s (run %s)", len(files), root, runID)

	analyses, contents, warnings, err := e.analyzeFiles(ctx, root, files)
	if err != nil {
		return nil, err
	}

	sum := summarizer.New(e.cfg, e.llm)
	summaryRoot, sumWarnings, err := sum.Summarize(ctx, analyses)
	if err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}
	warnings = append(warnings, sumWarnings...)

	ck := chunker.New(e.cfg, runID)
	var chunks []types.Chunk
	for i := range analyses {
		chunks = append(chunks, ck.ChunkFile(&analyses[i], contents[analyses[i].Path])...)
	}
	chunks = append(chunks, ck.ChunkSummaries(summaryRoot)...)

	vectors, embedWarnings, err := e.embedChunks(ctx, chunks)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, embedWarnings...)

	rk, err := e.buildIndices(chunks, vectors)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.runID = runID
	e.root = root
	e.analyses = analyses
	e.summary = summaryRoot
	e.chunks = chunks
	e.vectors = vectors
	e.ranker = rk
	e.warnings = warnings
	e.mu.Unlock()

	failed := 0
	for i := range analyses {
		if analyses[i].Failed {
			failed++
		}
	}

	stats := &Stats{
		RunID:          runID,
		Files:          len(analyses),
		FailedFiles:    failed,
		Chunks:         len(chunks),
		EmbeddedChunks: len(vectors),
		DegradedNodes:  summaryRoot.CountDegraded(),
		Duration:       time.Since(start),
	}
	log.Printf("indexed run %s: %d files (%d failed), %d chunks (%d embedded) in %s",
		runID, stats.Files, stats.FailedFiles, stats.Chunks, stats.EmbeddedChunks, stats.Duration)
	return stats, nil
}

// analyzeFiles runs the per-language analyzers concurrently. A parse
// failure degrades the file's analysis and records a warning; the run
// continues.
func (e *Engine) analyzeFiles(ctx context.Context, root string, files []string) ([]types.FileAnalysis, map[string][]byte, []types.Warning, error) {
	analyses := make([]types.FileAnalysis, len(files))
	contents := make(map[string][]byte, len(files))
	var warnings []types.Warning
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)

	for i, rel := range files {
		i, rel := i, rel
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			src, err := readRepoFile(root, rel)
			if err != nil {
				return fmt.Errorf("read %s: %w", rel, err)
			}

			a, lang := e.analyzers.ForPath(rel)
			result, analyzeErr := a.Analyze(gctx, rel, src)
			if analyzeErr != nil {
				result = &types.FileAnalysis{
					Path:     rel,
					Language: lang,
					Failed:   true,
					Error:    analyzeErr.Error(),
				}
			}

			mu.Lock()
			analyses[i] = *result
			contents[rel] = src
			if analyzeErr != nil {
				warnings = append(warnings, types.Warning{
					Stage:   "analyze",
					Subject: rel,
					Message: analyzeErr.Error(),
				})
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, warnings, err
	}
	return analyses, contents, warnings, nil
}

// embedChunks embeds every chunk concurrently. A chunk whose embedding
// fails is excluded from the vector index only; it still participates in
// lexical retrieval, and the degradation is recorded.
func (e *Engine) embedChunks(ctx context.Context, chunks []types.Chunk) (map[string][]float32, []types.Warning, error) {
	vectors := make(map[string][]float32, len(chunks))
	var warnings []types.Warning
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)

	for i := range chunks {
		chunk := chunks[i]
		g.Go(func() error {
			vec, err := e.emb.Embed(gctx, chunk.Text)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				warnings = append(warnings, types.Warning{
					Stage:   "embed",
					Subject: chunk.ID,
					Message: err.Error(),
				})
				return nil
			}
			vectors[chunk.ID] = vec
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, warnings, err
	}
	return vectors, warnings, nil
}

// buildIndices constructs both retrieval indices and the ranker over them
func (e *Engine) buildIndices(chunks []types.Chunk, vectors map[string][]float32) (*ranker.HybridRanker, error) {
	lex := lexical.NewIndex(e.cfg.BM25K1, e.cfg.BM25B, e.cfg.StopWords)
	for _, chunk := range chunks {
		lex.Add(chunk.ID, chunk.Text)
	}

	vec, err := vector.NewIndex(e.emb.Dimension())
	if err != nil {
		return nil, err
	}

	// Insert in sorted ID order so index contents are reproducible
	ids := make([]string, 0, len(vectors))
	for id := range vectors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if err := vec.Add(id, vectors[id]); err != nil {
			return nil, err
		}
	}

	return ranker.New(e.cfg, lex, vec, e.emb, chunks)
}

// Query answers a retrieval query against the built indices
func (e *Engine) Query(ctx context.Context, query string, k int) ([]types.RankedResult, error) {
	e.mu.RLock()
	rk := e.ranker
	e.mu.RUnlock()

	if rk == nil {
		return nil, fmt.Errorf("%w: repository not indexed", types.ErrIndexState)
	}
	return rk.Query(ctx, query, k)
}

// Overview returns the repository summary tree
func (e *Engine) Overview() (*types.SummaryNode, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.summary == nil {
		return nil, fmt.Errorf("%w: repository not indexed", types.ErrIndexState)
	}
	return e.summary, nil
}

// Warnings returns the degradations recorded by the last run
func (e *Engine) Warnings() []types.Warning {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]types.Warning, len(e.warnings))
	copy(out, e.warnings)
	return out
}

// Ask retrieves the top chunks for the question and asks the provider for
// a grounded answer citing its sources.
func (e *Engine) Ask(ctx context.Context, question string, k int) (string, []types.RankedResult, error) {
	results, err := e.Query(ctx, question, k)
	if err != nil {
		return "", nil, err
	}
	if len(results) == 0 {
		return "No relevant content found in the indexed repository.", nil, nil
	}

	prompt := buildAnswerPrompt(question, results)
	answer, err := e.llm.Summarize(ctx, prompt, e.cfg.TokenBudget/4)
	if err != nil {
		return "", results, fmt.Errorf("generate answer: %w", err)
	}
	return strings.TrimSpace(answer), results, nil
}

// buildAnswerPrompt composes retrieved chunks into a context block
func buildAnswerPrompt(question string, results []types.RankedResult) string {
	var b strings.Builder
	b.WriteString("Answer the question using only the context below. Cite sources by their bracketed reference.\n\nContext:\n")
	for i := range results {
		fmt.Fprintf(&b, "[%d] %s\n%s\n\n", results[i].Rank, results[i].Source.String(), results[i].Text)
	}
	b.WriteString("Question: ")
	b.WriteString(question)
	return b.String()
}

// RunID returns the identifier of the last completed run
func (e *Engine) RunID() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.runID
}

// Root returns the indexed repository root
func (e *Engine) Root() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.root
}

// Analyses returns the file analyses of the last run, for persistence
func (e *Engine) Analyses() []types.FileAnalysis {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.analyses
}

// Chunks returns the chunks of the last run, for persistence
func (e *Engine) Chunks() []types.Chunk {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.chunks
}

// Vectors returns the chunk embeddings of the last run, for persistence
func (e *Engine) Vectors() map[string][]float32 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.vectors
}

// Restore hydrates an engine from persisted run state so queries can be
// served without re-indexing. Indices are rebuilt in memory from the
// stored chunks and embeddings.
func (e *Engine) Restore(runID, root string, analyses []types.FileAnalysis, summary *types.SummaryNode, chunks []types.Chunk, vectors map[string][]float32, warnings []types.Warning) error {
	rk, err := e.buildIndices(chunks, vectors)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.runID = runID
	e.root = root
	e.analyses = analyses
	e.summary = summary
	e.chunks = chunks
	e.vectors = vectors
	e.ranker = rk
	e.warnings = warnings
	e.mu.Unlock()
	return nil
}
