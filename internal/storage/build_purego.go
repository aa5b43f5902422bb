//go:build purego || !sqlite_fast
// +build purego !sqlite_fast

package storage

// This file is compiled when building without CGO. The pure Go SQLite
// implementation needs no C compiler and cross-compiles cleanly.
//
// Build command:
//   CGO_ENABLED=0 go build ./...
//
// Driver used: modernc.org/sqlite

import (
	_ "modernc.org/sqlite"
)

const (
	// DriverName is the SQLite driver to use
	DriverName = "sqlite"

	// BuildMode describes the current build configuration
	BuildMode = "purego"
)
