package storage

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/ellenaj0/RepoDocGen/pkg/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    root TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_root ON runs(root, created_at);

CREATE TABLE IF NOT EXISTS files (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    path TEXT NOT NULL,
    language TEXT NOT NULL,
    line_count INTEGER NOT NULL,
    failed INTEGER NOT NULL,
    error TEXT NOT NULL,
    symbols TEXT NOT NULL,
    imports TEXT NOT NULL,
    PRIMARY KEY (run_id, path)
);

CREATE TABLE IF NOT EXISTS summary_nodes (
    rowid_key INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    parent INTEGER,
    position INTEGER NOT NULL,
    node_id TEXT NOT NULL,
    level TEXT NOT NULL,
    text TEXT NOT NULL,
    token_count INTEGER NOT NULL,
    degraded INTEGER NOT NULL,
    sources TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_summary_nodes_run ON summary_nodes(run_id, parent, position);

CREATE TABLE IF NOT EXISTS chunks (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    id TEXT NOT NULL,
    text TEXT NOT NULL,
    file_path TEXT NOT NULL,
    start_line INTEGER NOT NULL,
    end_line INTEGER NOT NULL,
    summary_node_id TEXT NOT NULL,
    content_hash BLOB NOT NULL,
    token_count INTEGER NOT NULL,
    PRIMARY KEY (run_id, id)
);

CREATE TABLE IF NOT EXISTS embeddings (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    chunk_id TEXT NOT NULL,
    dim INTEGER NOT NULL,
    vector BLOB NOT NULL,
    PRIMARY KEY (run_id, chunk_id)
);

CREATE TABLE IF NOT EXISTS warnings (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    stage TEXT NOT NULL,
    subject TEXT NOT NULL,
    message TEXT NOT NULL,
    PRIMARY KEY (run_id, position)
);
`

// SQLiteStore implements Store on a single SQLite database file
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the
// schema. Use ":memory:" for an ephemeral store.
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open(DriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite allows one writer; serialize access through a single conn
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	if _, err := db.Exec(
		"INSERT OR IGNORE INTO schema_version (version) VALUES (?)", CurrentSchemaVersion); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("record schema version: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRun writes a completed run atomically
func (s *SQLiteStore) SaveRun(ctx context.Context, run *Run) error {
	if run == nil || run.ID == "" {
		return fmt.Errorf("run is missing an ID")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO runs (id, root, created_at) VALUES (?, ?, ?)",
		run.ID, run.Root, createdAt); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	if err := saveFiles(ctx, tx, run); err != nil {
		return err
	}
	if run.Summary != nil {
		if err := saveSummaryTree(ctx, tx, run.ID, run.Summary, nil, 0); err != nil {
			return err
		}
	}
	if err := saveChunks(ctx, tx, run); err != nil {
		return err
	}
	if err := saveEmbeddings(ctx, tx, run); err != nil {
		return err
	}
	if err := saveWarnings(ctx, tx, run); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

func saveFiles(ctx context.Context, tx *sql.Tx, run *Run) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO files
		(run_id, position, path, language, line_count, failed, error, symbols, imports)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare files insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range run.Analyses {
		a := &run.Analyses[i]
		symbols, err := json.Marshal(a.Symbols)
		if err != nil {
			return fmt.Errorf("marshal symbols for %s: %w", a.Path, err)
		}
		imports, err := json.Marshal(a.Imports)
		if err != nil {
			return fmt.Errorf("marshal imports for %s: %w", a.Path, err)
		}

		if _, err := stmt.ExecContext(ctx,
			run.ID, i, a.Path, a.Language, a.LineCount, boolInt(a.Failed), a.Error,
			string(symbols), string(imports)); err != nil {
			return fmt.Errorf("insert file %s: %w", a.Path, err)
		}
	}
	return nil
}

func saveSummaryTree(ctx context.Context, tx *sql.Tx, runID string, node *types.SummaryNode, parent *int64, position int) error {
	sources, err := json.Marshal(node.Sources)
	if err != nil {
		return fmt.Errorf("marshal sources for %s: %w", node.ID, err)
	}

	res, err := tx.ExecContext(ctx, `INSERT INTO summary_nodes
		(run_id, parent, position, node_id, level, text, token_count, degraded, sources)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, parent, position, node.ID, string(node.Level), node.Text,
		node.TokenCount, boolInt(node.Degraded), string(sources))
	if err != nil {
		return fmt.Errorf("insert summary node %s: %w", node.ID, err)
	}

	key, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("summary node key for %s: %w", node.ID, err)
	}

	for i, child := range node.Children {
		if err := saveSummaryTree(ctx, tx, runID, child, &key, i); err != nil {
			return err
		}
	}
	return nil
}

func saveChunks(ctx context.Context, tx *sql.Tx, run *Run) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO chunks
		(run_id, position, id, text, file_path, start_line, end_line, summary_node_id, content_hash, token_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare chunks insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range run.Chunks {
		c := &run.Chunks[i]
		if _, err := stmt.ExecContext(ctx,
			run.ID, i, c.ID, c.Text,
			c.Source.FilePath, c.Source.StartLine, c.Source.EndLine, c.Source.SummaryNodeID,
			c.ContentHash[:], c.TokenCount); err != nil {
			return fmt.Errorf("insert chunk %s: %w", c.ID, err)
		}
	}
	return nil
}

func saveEmbeddings(ctx context.Context, tx *sql.Tx, run *Run) error {
	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO embeddings (run_id, chunk_id, dim, vector) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare embeddings insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for id, vec := range run.Vectors {
		if _, err := stmt.ExecContext(ctx, run.ID, id, len(vec), encodeVector(vec)); err != nil {
			return fmt.Errorf("insert embedding %s: %w", id, err)
		}
	}
	return nil
}

func saveWarnings(ctx context.Context, tx *sql.Tx, run *Run) error {
	for i, w := range run.Warnings {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO warnings (run_id, position, stage, subject, message) VALUES (?, ?, ?, ?, ?)",
			run.ID, i, w.Stage, w.Subject, w.Message); err != nil {
			return fmt.Errorf("insert warning: %w", err)
		}
	}
	return nil
}

// LoadRun retrieves a run by ID
func (s *SQLiteStore) LoadRun(ctx context.Context, runID string) (*Run, error) {
	run := &Run{ID: runID}

	err := s.db.QueryRowContext(ctx,
		"SELECT root, created_at FROM runs WHERE id = ?", runID).
		Scan(&run.Root, &run.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}

	if run.Analyses, err = s.loadFiles(ctx, runID); err != nil {
		return nil, err
	}
	if run.Summary, err = s.loadSummaryTree(ctx, runID); err != nil {
		return nil, err
	}
	if run.Chunks, err = s.loadChunks(ctx, runID); err != nil {
		return nil, err
	}
	if run.Vectors, err = s.loadEmbeddings(ctx, runID); err != nil {
		return nil, err
	}
	if run.Warnings, err = s.loadWarnings(ctx, runID); err != nil {
		return nil, err
	}

	return run, nil
}

// LoadLatestRun retrieves the most recent run for a repository root
func (s *SQLiteStore) LoadLatestRun(ctx context.Context, root string) (*Run, error) {
	var runID string
	err := s.db.QueryRowContext(ctx,
		"SELECT id FROM runs WHERE root = ? ORDER BY created_at DESC, id DESC LIMIT 1", root).
		Scan(&runID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find latest run for %s: %w", root, err)
	}
	return s.LoadRun(ctx, runID)
}

// ListRuns lists all stored runs, newest first
func (s *SQLiteStore) ListRuns(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.root, r.created_at,
		       (SELECT COUNT(*) FROM files f WHERE f.run_id = r.id),
		       (SELECT COUNT(*) FROM chunks c WHERE c.run_id = r.id)
		FROM runs r ORDER BY r.created_at DESC, r.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var infos []RunInfo
	for rows.Next() {
		var info RunInfo
		if err := rows.Scan(&info.ID, &info.Root, &info.CreatedAt, &info.Files, &info.Chunks); err != nil {
			return nil, fmt.Errorf("scan run info: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// DeleteRun removes a run and all its data
func (s *SQLiteStore) DeleteRun(ctx context.Context, runID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", runID)
	if err != nil {
		return fmt.Errorf("delete run %s: %w", runID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) loadFiles(ctx context.Context, runID string) ([]types.FileAnalysis, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path, language, line_count, failed, error, symbols, imports
		FROM files WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("load files: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var analyses []types.FileAnalysis
	for rows.Next() {
		var a types.FileAnalysis
		var failed int
		var symbols, imports string
		if err := rows.Scan(&a.Path, &a.Language, &a.LineCount, &failed, &a.Error, &symbols, &imports); err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		a.Failed = failed != 0
		if err := json.Unmarshal([]byte(symbols), &a.Symbols); err != nil {
			return nil, fmt.Errorf("unmarshal symbols for %s: %w", a.Path, err)
		}
		if err := json.Unmarshal([]byte(imports), &a.Imports); err != nil {
			return nil, fmt.Errorf("unmarshal imports for %s: %w", a.Path, err)
		}
		analyses = append(analyses, a)
	}
	return analyses, rows.Err()
}

func (s *SQLiteStore) loadSummaryTree(ctx context.Context, runID string) (*types.SummaryNode, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT rowid_key, parent, node_id, level, text, token_count, degraded, sources
		FROM summary_nodes WHERE run_id = ? ORDER BY rowid_key`, runID)
	if err != nil {
		return nil, fmt.Errorf("load summary nodes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	byKey := make(map[int64]*types.SummaryNode)
	var root *types.SummaryNode

	for rows.Next() {
		var key int64
		var parent sql.NullInt64
		var degraded int
		var sources string
		node := &types.SummaryNode{}
		if err := rows.Scan(&key, &parent, &node.ID, (*string)(&node.Level),
			&node.Text, &node.TokenCount, &degraded, &sources); err != nil {
			return nil, fmt.Errorf("scan summary node: %w", err)
		}
		node.Degraded = degraded != 0
		if err := json.Unmarshal([]byte(sources), &node.Sources); err != nil {
			return nil, fmt.Errorf("unmarshal sources for %s: %w", node.ID, err)
		}

		byKey[key] = node
		if !parent.Valid {
			root = node
		} else if p, ok := byKey[parent.Int64]; ok {
			p.Children = append(p.Children, node)
		} else {
			return nil, fmt.Errorf("summary node %s references missing parent", node.ID)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return root, nil
}

func (s *SQLiteStore) loadChunks(ctx context.Context, runID string) ([]types.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, text, file_path, start_line, end_line, summary_node_id, content_hash, token_count
		FROM chunks WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("load chunks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var chunks []types.Chunk
	for rows.Next() {
		var c types.Chunk
		var hash []byte
		if err := rows.Scan(&c.ID, &c.Text,
			&c.Source.FilePath, &c.Source.StartLine, &c.Source.EndLine, &c.Source.SummaryNodeID,
			&hash, &c.TokenCount); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		copy(c.ContentHash[:], hash)
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

func (s *SQLiteStore) loadEmbeddings(ctx context.Context, runID string) (map[string][]float32, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT chunk_id, dim, vector FROM embeddings WHERE run_id = ?", runID)
	if err != nil {
		return nil, fmt.Errorf("load embeddings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	vectors := make(map[string][]float32)
	for rows.Next() {
		var chunkID string
		var dim int
		var blob []byte
		if err := rows.Scan(&chunkID, &dim, &blob); err != nil {
			return nil, fmt.Errorf("scan embedding: %w", err)
		}
		vec, err := decodeVector(blob, dim)
		if err != nil {
			return nil, fmt.Errorf("decode embedding for %s: %w", chunkID, err)
		}
		vectors[chunkID] = vec
	}
	return vectors, rows.Err()
}

func (s *SQLiteStore) loadWarnings(ctx context.Context, runID string) ([]types.Warning, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT stage, subject, message FROM warnings WHERE run_id = ? ORDER BY position", runID)
	if err != nil {
		return nil, fmt.Errorf("load warnings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var warnings []types.Warning
	for rows.Next() {
		var w types.Warning
		if err := rows.Scan(&w.Stage, &w.Subject, &w.Message); err != nil {
			return nil, fmt.Errorf("scan warning: %w", err)
		}
		warnings = append(warnings, w)
	}
	return warnings, rows.Err()
}

// encodeVector serializes a vector as little-endian float32 bits
func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// decodeVector deserializes a vector, checking the stored dimension
func decodeVector(blob []byte, dim int) ([]float32, error) {
	if len(blob) != 4*dim {
		return nil, fmt.Errorf("expected %d bytes for dim %d, got %d", 4*dim, dim, len(blob))
	}
	vec := make([]float32, dim)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vec, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
