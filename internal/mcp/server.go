// Package mcp exposes the documentation engine over the Model Context
// Protocol so editors and agents can index repositories and query them.
// The server speaks stdio; logging goes to stderr to keep the protocol
// stream clean.
package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/server"

	"github.com/ellenaj0/RepoDocGen/internal/config"
	"github.com/ellenaj0/RepoDocGen/internal/engine"
	"github.com/ellenaj0/RepoDocGen/internal/storage"
)

const (
	// ServerName is the MCP server name
	ServerName = "repodocgen"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp    *server.MCPServer
	cfg    config.Config
	engine *engine.Engine
	store  storage.Store
}

// NewServer creates an MCP server backed by the given database path. An
// empty path defaults to ~/.repodocgen/repodocgen.db.
func NewServer(cfg config.Config, dbPath string) (*Server, error) {
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".repodocgen", "repodocgen.db")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	store, err := storage.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	eng, err := engine.New(cfg)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return newServerWith(cfg, eng, store), nil
}

// newServerWith wires a server from explicit dependencies. Used by tests.
func newServerWith(cfg config.Config, eng *engine.Engine, store storage.Store) *Server {
	s := &Server{
		mcp:    server.NewMCPServer(ServerName, ServerVersion),
		cfg:    cfg,
		engine: eng,
		store:  store,
	}
	s.registerTools()
	return s
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.store.Close() }()
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(indexRepositoryTool(), s.handleIndexRepository)
	s.mcp.AddTool(queryRepositoryTool(), s.handleQueryRepository)
	s.mcp.AddTool(getOverviewTool(), s.handleGetOverview)
}
