package analyzer

import (
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strings"

	"github.com/ellenaj0/RepoDocGen/pkg/types"
)

// GoAnalyzer extracts symbols from Go sources using the standard library
// AST parser
type GoAnalyzer struct{}

// NewGoAnalyzer creates a new Go analyzer
func NewGoAnalyzer() *GoAnalyzer {
	return &GoAnalyzer{}
}

// Analyze parses a Go source file and extracts symbols and imports
func (g *GoAnalyzer) Analyze(ctx context.Context, path string, src []byte) (*types.FileAnalysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, src, parser.ParseComments)
	if file == nil {
		// No usable AST at all
		return nil, &types.ParseError{File: path, Message: fmt.Sprintf("syntax error: %v", err)}
	}
	// A partial AST with syntax errors is still worth analyzing; the
	// parser recovers whatever declarations it can.

	analysis := &types.FileAnalysis{
		Path:      path,
		Language:  "go",
		LineCount: countLines(src),
	}

	for _, imp := range file.Imports {
		edge := types.ImportEdge{Target: strings.Trim(imp.Path.Value, `"`)}
		if imp.Name != nil {
			edge.Alias = imp.Name.Name
		}
		analysis.Imports = append(analysis.Imports, edge)
	}

	ex := &goExtractor{fset: fset}
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			analysis.Symbols = append(analysis.Symbols, ex.function(d))
		case *ast.GenDecl:
			if d.Tok == token.TYPE {
				for _, spec := range d.Specs {
					if ts, ok := spec.(*ast.TypeSpec); ok {
						analysis.Symbols = append(analysis.Symbols, ex.typeDecl(ts))
					}
				}
			}
		}
	}

	if err != nil && len(analysis.Symbols) == 0 {
		// The parser recovered nothing usable from the broken source
		return nil, &types.ParseError{File: path, Message: fmt.Sprintf("syntax error: %v", err)}
	}

	return analysis, nil
}

// goExtractor builds language-neutral symbols from Go AST declarations
type goExtractor struct {
	fset *token.FileSet
}

// function extracts a function or method declaration
func (e *goExtractor) function(decl *ast.FuncDecl) types.Symbol {
	sym := types.Symbol{
		Name:      decl.Name.Name,
		Kind:      types.KindFunction,
		StartLine: e.fset.Position(decl.Pos()).Line,
		EndLine:   e.fset.Position(decl.End()).Line,
	}

	if decl.Recv != nil && len(decl.Recv.List) > 0 {
		sym.Kind = types.KindMethod
		sym.Parent = receiverName(decl.Recv.List[0].Type)
	}

	sym.Signature = e.signature(decl)
	return sym
}

// typeDecl extracts a struct, interface, or named type declaration. All
// map to the language-neutral class kind.
func (e *goExtractor) typeDecl(spec *ast.TypeSpec) types.Symbol {
	sym := types.Symbol{
		Name:      spec.Name.Name,
		Kind:      types.KindClass,
		StartLine: e.fset.Position(spec.Pos()).Line,
		EndLine:   e.fset.Position(spec.End()).Line,
	}

	switch t := spec.Type.(type) {
	case *ast.StructType:
		sym.Signature = fmt.Sprintf("type %s struct { ... } // %d fields", spec.Name.Name, t.Fields.NumFields())
	case *ast.InterfaceType:
		sym.Signature = fmt.Sprintf("type %s interface { ... } // %d methods", spec.Name.Name, t.Methods.NumFields())
	default:
		sym.Signature = fmt.Sprintf("type %s", spec.Name.Name)
	}

	return sym
}

// signature builds a function signature string
func (e *goExtractor) signature(decl *ast.FuncDecl) string {
	var sig strings.Builder

	sig.WriteString("func ")

	if decl.Recv != nil && len(decl.Recv.List) > 0 {
		sig.WriteString("(")
		sig.WriteString(exprString(decl.Recv.List[0].Type))
		sig.WriteString(") ")
	}

	sig.WriteString(decl.Name.Name)
	sig.WriteString("(")
	if decl.Type.Params != nil {
		sig.WriteString(fieldListString(decl.Type.Params))
	}
	sig.WriteString(")")

	if decl.Type.Results != nil {
		results := fieldListString(decl.Type.Results)
		if results != "" {
			if decl.Type.Results.NumFields() > 1 {
				sig.WriteString(" (" + results + ")")
			} else {
				sig.WriteString(" " + results)
			}
		}
	}

	return sig.String()
}

// receiverName extracts the receiver type name from a method receiver
func receiverName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		if ident, ok := t.X.(*ast.Ident); ok {
			return ident.Name
		}
	case *ast.Ident:
		return t.Name
	case *ast.IndexExpr:
		// Generic receiver: Name[T]
		if ident, ok := t.X.(*ast.Ident); ok {
			return ident.Name
		}
	}
	return ""
}

// fieldListString converts a field list to a compact string
func fieldListString(fieldList *ast.FieldList) string {
	if fieldList == nil || len(fieldList.List) == 0 {
		return ""
	}

	var parts []string
	for _, field := range fieldList.List {
		typeStr := exprString(field.Type)
		if len(field.Names) > 0 {
			for _, name := range field.Names {
				parts = append(parts, fmt.Sprintf("%s %s", name.Name, typeStr))
			}
		} else {
			parts = append(parts, typeStr)
		}
	}

	return strings.Join(parts, ", ")
}

// exprString converts a type expression to a compact string
func exprString(expr ast.Expr) string {
	if expr == nil {
		return ""
	}

	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return "*" + exprString(t.X)
	case *ast.ArrayType:
		return "[]" + exprString(t.Elt)
	case *ast.MapType:
		return fmt.Sprintf("map[%s]%s", exprString(t.Key), exprString(t.Value))
	case *ast.ChanType:
		return "chan " + exprString(t.Value)
	case *ast.FuncType:
		return "func(...)"
	case *ast.InterfaceType:
		return "interface{}"
	case *ast.SelectorExpr:
		return exprString(t.X) + "." + t.Sel.Name
	case *ast.Ellipsis:
		return "..." + exprString(t.Elt)
	default:
		return "..."
	}
}

// countLines counts newline-delimited lines in src
func countLines(src []byte) int {
	if len(src) == 0 {
		return 0
	}
	n := 1
	for _, b := range src {
		if b == '\n' {
			n++
		}
	}
	return n
}
