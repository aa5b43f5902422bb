// Package storage persists completed indexing runs to SQLite so the ask,
// overview, and mcp surfaces can serve a repository without re-indexing
// it. A run is written atomically in one transaction; loading rebuilds
// the exact analyses, summary tree, chunks, and embeddings the pipeline
// produced.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/ellenaj0/RepoDocGen/pkg/types"
)

// CurrentSchemaVersion tracks the database schema version
const CurrentSchemaVersion = 1

// ErrNotFound is returned when a requested run does not exist
var ErrNotFound = errors.New("not found")

// Run is the persisted state of one completed indexing run
type Run struct {
	ID        string
	Root      string
	CreatedAt time.Time

	Analyses []types.FileAnalysis
	Summary  *types.SummaryNode
	Chunks   []types.Chunk
	Vectors  map[string][]float32
	Warnings []types.Warning
}

// RunInfo is a lightweight listing entry
type RunInfo struct {
	ID        string
	Root      string
	CreatedAt time.Time
	Files     int
	Chunks    int
}

// Store persists and retrieves indexing runs
type Store interface {
	// SaveRun writes a completed run atomically
	SaveRun(ctx context.Context, run *Run) error

	// LoadRun retrieves a run by ID
	LoadRun(ctx context.Context, runID string) (*Run, error)

	// LoadLatestRun retrieves the most recent run for a repository root
	LoadLatestRun(ctx context.Context, root string) (*Run, error)

	// ListRuns lists all stored runs, newest first
	ListRuns(ctx context.Context) ([]RunInfo, error)

	// DeleteRun removes a run and all its data
	DeleteRun(ctx context.Context, runID string) error

	// Close releases the underlying database
	Close() error
}
