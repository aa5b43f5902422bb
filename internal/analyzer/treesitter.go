package analyzer

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/ellenaj0/RepoDocGen/pkg/types"
)

// LanguageSpec defines the tree-sitter grammar and queries for a language.
// SymbolQuery must capture the declaration node as @symbol and its
// identifier as @name; ImportQuery must capture import statements as
// @import.
type LanguageSpec struct {
	Name        string
	Language    *sitter.Language
	SymbolQuery string
	ImportQuery string

	// ClassNodeTypes are the AST node types that map to the class kind;
	// functions nested inside one of them are classified as methods
	ClassNodeTypes []string
}

// TreeSitterAnalyzer extracts symbols from source files using a
// tree-sitter grammar
type TreeSitterAnalyzer struct {
	spec LanguageSpec
}

// NewTreeSitterAnalyzer creates an analyzer for the given language spec
func NewTreeSitterAnalyzer(spec LanguageSpec) *TreeSitterAnalyzer {
	return &TreeSitterAnalyzer{spec: spec}
}

// Analyze parses src with the language grammar and extracts symbols and
// imports
func (t *TreeSitterAnalyzer) Analyze(ctx context.Context, path string, src []byte) (*types.FileAnalysis, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(t.spec.Language)

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, &types.ParseError{File: path, Message: fmt.Sprintf("parse: %v", err)}
	}
	defer tree.Close()

	analysis := &types.FileAnalysis{
		Path:      path,
		Language:  t.spec.Name,
		LineCount: countLines(src),
	}

	symbols, err := t.extractSymbols(tree, src, path)
	if err != nil {
		return nil, err
	}
	analysis.Symbols = symbols

	imports, err := t.extractImports(tree, src, path)
	if err != nil {
		return nil, err
	}
	analysis.Imports = imports

	return analysis, nil
}

// extractSymbols runs the symbol query and converts captures to symbols
func (t *TreeSitterAnalyzer) extractSymbols(tree *sitter.Tree, src []byte, path string) ([]types.Symbol, error) {
	q, err := sitter.NewQuery([]byte(t.spec.SymbolQuery), t.spec.Language)
	if err != nil {
		return nil, &types.ParseError{File: path, Message: fmt.Sprintf("compile symbol query: %v", err)}
	}
	defer q.Close()

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(q, tree.RootNode())

	var symbols []types.Symbol
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}

		var node *sitter.Node
		var name string
		for _, cap := range m.Captures {
			switch q.CaptureNameForId(cap.Index) {
			case "symbol":
				node = cap.Node
			case "name":
				name = cap.Node.Content(src)
			}
		}
		if node == nil || name == "" {
			continue
		}

		sym := types.Symbol{
			Name:      name,
			Kind:      t.classify(node),
			Signature: firstLine(node.Content(src)),
			StartLine: int(node.StartPoint().Row) + 1,
			EndLine:   int(node.EndPoint().Row) + 1,
		}

		if sym.Kind == types.KindMethod {
			sym.Parent = t.enclosingClassName(node, src)
		}

		symbols = append(symbols, sym)
	}

	return symbols, nil
}

// extractImports runs the import query and collects import statements
func (t *TreeSitterAnalyzer) extractImports(tree *sitter.Tree, src []byte, path string) ([]types.ImportEdge, error) {
	if t.spec.ImportQuery == "" {
		return nil, nil
	}

	q, err := sitter.NewQuery([]byte(t.spec.ImportQuery), t.spec.Language)
	if err != nil {
		return nil, &types.ParseError{File: path, Message: fmt.Sprintf("compile import query: %v", err)}
	}
	defer q.Close()

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(q, tree.RootNode())

	var imports []types.ImportEdge
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		for _, cap := range m.Captures {
			if q.CaptureNameForId(cap.Index) == "import" {
				// Target may be unresolved; keep the raw statement text
				imports = append(imports, types.ImportEdge{
					Target: firstLine(cap.Node.Content(src)),
				})
			}
		}
	}

	return imports, nil
}

// classify determines the symbol kind from the node type and its position
// within the tree
func (t *TreeSitterAnalyzer) classify(node *sitter.Node) types.SymbolKind {
	if t.isClassNode(node) {
		return types.KindClass
	}

	// A function nested inside a class body is a method
	for p := node.Parent(); p != nil; p = p.Parent() {
		if t.isClassNode(p) {
			return types.KindMethod
		}
	}

	return types.KindFunction
}

// isClassNode reports whether node is a class-kind declaration
func (t *TreeSitterAnalyzer) isClassNode(node *sitter.Node) bool {
	for _, typ := range t.spec.ClassNodeTypes {
		if node.Type() == typ {
			return true
		}
	}
	return false
}

// enclosingClassName finds the name of the nearest enclosing class
func (t *TreeSitterAnalyzer) enclosingClassName(node *sitter.Node, src []byte) string {
	for p := node.Parent(); p != nil; p = p.Parent() {
		if t.isClassNode(p) {
			if nameNode := p.ChildByFieldName("name"); nameNode != nil {
				return nameNode.Content(src)
			}
			return ""
		}
	}
	return ""
}

// firstLine returns the first line of s, trimmed
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
