package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ellenaj0/RepoDocGen/internal/storage"
	"github.com/ellenaj0/RepoDocGen/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams = -32602 // Invalid method parameters
	ErrorCodeInternalError = -32603 // Internal JSON-RPC error
	ErrorCodeNotIndexed    = -32001 // Repository not indexed and no saved run found
	ErrorCodeEmptyQuery    = -32002 // Query parameter is empty
)

// handleIndexRepository handles the index_repository tool invocation
func (s *Server) handleIndexRepository(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}
	if err := validatePath(path); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}

	persist := getBoolDefault(args, "persist", true)

	stats, err := s.engine.Index(ctx, path)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "indexing failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"run_id":          stats.RunID,
		"files":           stats.Files,
		"files_failed":    stats.FailedFiles,
		"chunks":          stats.Chunks,
		"chunks_embedded": stats.EmbeddedChunks,
		"degraded_nodes":  stats.DegradedNodes,
		"duration_ms":     stats.Duration.Milliseconds(),
	}

	if warnings := s.engine.Warnings(); len(warnings) > 0 {
		rendered := make([]string, 0, len(warnings))
		for i, w := range warnings {
			if i == 5 {
				break
			}
			rendered = append(rendered, w.String())
		}
		response["warnings"] = rendered
		response["warning_count"] = len(warnings)
	}

	if persist {
		if err := s.saveCurrentRun(ctx); err != nil {
			response["persist_error"] = err.Error()
		} else {
			response["persisted"] = true
		}
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleQueryRepository handles the query_repository tool invocation
func (s *Server) handleQueryRepository(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	limit := getIntDefault(args, "limit", s.cfg.TopK)
	if limit < 1 || limit > 50 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 50", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	path, _ := args["path"].(string)
	if err := s.ensureIndexed(ctx, path); err != nil {
		return nil, err
	}

	results, err := s.engine.Query(ctx, query, limit)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "query failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	rendered := make([]map[string]interface{}, len(results))
	for i := range results {
		res := &results[i]
		rendered[i] = map[string]interface{}{
			"rank":          res.Rank,
			"chunk_id":      res.ChunkID,
			"fused_score":   res.FusedScore,
			"lexical_score": res.LexicalScore,
			"vector_score":  res.VectorScore,
			"source":        res.Source.String(),
			"text":          res.Text,
		}
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"query":   query,
		"results": rendered,
	})), nil
}

// handleGetOverview handles the get_overview tool invocation
func (s *Server) handleGetOverview(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})

	path, _ := args["path"].(string)
	if err := s.ensureIndexed(ctx, path); err != nil {
		return nil, err
	}

	maxDepth := getIntDefault(args, "max_depth", 2)

	root, err := s.engine.Overview()
	if err != nil {
		return nil, newMCPError(ErrorCodeNotIndexed, "repository not indexed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return mcp.NewToolResultText(renderOverview(root, maxDepth)), nil
}

// ensureIndexed restores the latest saved run for path when the session
// engine has no indexed state yet
func (s *Server) ensureIndexed(ctx context.Context, path string) error {
	if _, err := s.engine.Overview(); err == nil {
		return nil
	}
	if path == "" {
		return newMCPError(ErrorCodeNotIndexed, "no repository indexed; call index_repository or pass path", nil)
	}

	run, err := s.store.LoadLatestRun(ctx, path)
	if errors.Is(err, storage.ErrNotFound) {
		return newMCPError(ErrorCodeNotIndexed, "no saved run for this repository; call index_repository first", map[string]interface{}{
			"path": path,
		})
	}
	if err != nil {
		return newMCPError(ErrorCodeInternalError, "failed to load saved run", map[string]interface{}{
			"error": err.Error(),
		})
	}

	if err := s.engine.Restore(run.ID, run.Root, run.Analyses, run.Summary, run.Chunks, run.Vectors, run.Warnings); err != nil {
		return newMCPError(ErrorCodeInternalError, "failed to restore saved run", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return nil
}

// saveCurrentRun persists the engine's last completed run
func (s *Server) saveCurrentRun(ctx context.Context) error {
	overview, err := s.engine.Overview()
	if err != nil {
		return err
	}
	return s.store.SaveRun(ctx, &storage.Run{
		ID:       s.engine.RunID(),
		Root:     s.engine.Root(),
		Analyses: s.engine.Analyses(),
		Summary:  overview,
		Chunks:   s.engine.Chunks(),
		Vectors:  s.engine.Vectors(),
		Warnings: s.engine.Warnings(),
	})
}

// renderOverview renders the summary tree as indented text down to
// maxDepth levels below the root
func renderOverview(root *types.SummaryNode, maxDepth int) string {
	var b strings.Builder
	var walk func(n *types.SummaryNode, depth int)
	walk = func(n *types.SummaryNode, depth int) {
		indent := strings.Repeat("  ", depth)
		marker := ""
		if n.Degraded {
			marker = " [degraded]"
		}
		fmt.Fprintf(&b, "%s%s (%s)%s\n%s  %s\n", indent, n.ID, n.Level, marker, indent, n.Text)
		if depth >= maxDepth {
			return
		}
		for _, child := range n.Children {
			walk(child, depth+1)
		}
	}
	walk(root, 0)
	return b.String()
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// validatePath checks that path is an absolute, readable directory
func validatePath(path string) error {
	if path == "" {
		return ErrPathRequired
	}
	if !filepath.IsAbs(path) {
		return ErrPathNotAbsolute
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return ErrPathNotFound
	}
	if err != nil {
		return ErrPathNotReadable
	}
	if !info.IsDir() {
		return ErrNotDirectory
	}
	return nil
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// Validation errors
var (
	ErrPathRequired    = errors.New("path is required")
	ErrPathNotAbsolute = errors.New("path must be absolute")
	ErrPathNotFound    = errors.New("path does not exist")
	ErrPathNotReadable = errors.New("path is not readable")
	ErrNotDirectory    = errors.New("path is not a directory")
)
