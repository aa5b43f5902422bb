package types

import "errors"

// SymbolKind represents the kind of declared symbol extracted by analysis
type SymbolKind string

const (
	KindFunction SymbolKind = "function"
	KindClass    SymbolKind = "class"
	KindMethod   SymbolKind = "method"
	KindModule   SymbolKind = "module"
)

// Symbol represents a declared symbol (function, class, method, module)
// extracted from a source file by a code analysis provider
type Symbol struct {
	// Identification
	Name string
	Kind SymbolKind

	// Content
	Signature string // Declaration text, e.g. "func ParseFile(path string) error"

	// For methods: the enclosing class or receiver type name
	Parent string

	// Location (1-based, inclusive)
	StartLine int
	EndLine   int
}

// ValidateKind checks if the symbol kind is valid
func (s *Symbol) ValidateKind() error {
	switch s.Kind {
	case KindFunction, KindClass, KindMethod, KindModule:
		return nil
	default:
		return errors.New("invalid symbol kind")
	}
}

// Validate performs comprehensive validation of the symbol
func (s *Symbol) Validate() error {
	if s.Name == "" {
		return errors.New("symbol name is required")
	}

	if err := s.ValidateKind(); err != nil {
		return err
	}

	if s.StartLine <= 0 || s.EndLine <= 0 {
		return errors.New("line numbers must be positive")
	}

	if s.StartLine > s.EndLine {
		return errors.New("start line must be before or equal to end line")
	}

	return nil
}

// ImportEdge represents an import or dependency edge from a source file.
// Target may be unresolved (a raw module identifier).
type ImportEdge struct {
	Target string
	Alias  string
}

// FileAnalysis is the per-file output of a code analysis provider.
// It is immutable after creation; the summarizer owns it for the duration
// of a summarization run.
type FileAnalysis struct {
	// Path is the unique key, relative to the repository root
	Path     string
	Language string

	// Ordered as declared in the source
	Symbols []Symbol
	Imports []ImportEdge

	LineCount int

	// Degraded analysis: the file could not be parsed. A placeholder
	// file-level summary node is still produced for it.
	Failed bool
	Error  string
}

// Validate checks the analysis for internal consistency
func (fa *FileAnalysis) Validate() error {
	if fa.Path == "" {
		return errors.New("analysis path is required")
	}

	for i := range fa.Symbols {
		if err := fa.Symbols[i].Validate(); err != nil {
			return err
		}
	}

	return nil
}

// SymbolCount returns the number of symbols of the given kind
func (fa *FileAnalysis) SymbolCount(kind SymbolKind) int {
	n := 0
	for i := range fa.Symbols {
		if fa.Symbols[i].Kind == kind {
			n++
		}
	}
	return n
}
