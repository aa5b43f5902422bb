// Package analyzer extracts structured file analyses from source code.
//
// An Analyzer is a code analysis provider: given a source file it yields
// the declared symbols (functions, classes, methods), their spans, and
// import edges. Two backends are provided: a go/ast analyzer for Go
// sources and a tree-sitter analyzer for Python, JavaScript, and
// TypeScript. Analysis failures are reported as ParseError; callers
// degrade to a placeholder file node rather than aborting the run.
package analyzer

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ellenaj0/RepoDocGen/pkg/types"
)

// Analyzer is the code analysis provider contract
type Analyzer interface {
	// Analyze parses src and extracts symbols and imports. The returned
	// analysis carries path as its key. Malformed or unsupported source
	// fails with a ParseError.
	Analyze(ctx context.Context, path string, src []byte) (*types.FileAnalysis, error)
}

// Set dispatches files to the analyzer registered for their extension
type Set struct {
	byExt map[string]Analyzer // extension without dot
	langs map[string]string   // extension -> language name
}

// NewSet creates a Set with all built-in analyzers registered
func NewSet() *Set {
	s := &Set{
		byExt: make(map[string]Analyzer),
		langs: make(map[string]string),
	}

	goAnalyzer := NewGoAnalyzer()
	s.Register("go", []string{"go"}, goAnalyzer)

	registerPython(s)
	registerJavaScript(s)
	registerTypeScript(s)

	return s
}

// Register maps the given extensions to an analyzer
func (s *Set) Register(language string, extensions []string, a Analyzer) {
	for _, ext := range extensions {
		s.byExt[ext] = a
		s.langs[ext] = language
	}
}

// ForPath returns the analyzer and language for a file path, or nil if the
// extension is unsupported
func (s *Set) ForPath(path string) (Analyzer, string) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	a, ok := s.byExt[ext]
	if !ok {
		return nil, ""
	}
	return a, s.langs[ext]
}

// Supports reports whether any analyzer handles the file path
func (s *Set) Supports(path string) bool {
	a, _ := s.ForPath(path)
	return a != nil
}

// Extensions returns the sorted list of supported extensions (without dot)
func (s *Set) Extensions() []string {
	exts := make([]string, 0, len(s.byExt))
	for ext := range s.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
