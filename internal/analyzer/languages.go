package analyzer

import (
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

func registerPython(s *Set) {
	spec := LanguageSpec{
		Name:     "python",
		Language: python.GetLanguage(),
		SymbolQuery: `
			(function_definition name: (identifier) @name) @symbol
			(class_definition name: (identifier) @name) @symbol
		`,
		ImportQuery: `
			(import_statement) @import
			(import_from_statement) @import
		`,
		ClassNodeTypes: []string{"class_definition"},
	}
	s.Register("python", []string{"py", "pyi"}, NewTreeSitterAnalyzer(spec))
}

func registerJavaScript(s *Set) {
	spec := LanguageSpec{
		Name:     "javascript",
		Language: javascript.GetLanguage(),
		SymbolQuery: `
			(function_declaration name: (identifier) @name) @symbol
			(class_declaration name: (identifier) @name) @symbol
			(method_definition name: (property_identifier) @name) @symbol
		`,
		ImportQuery: `
			(import_statement) @import
		`,
		ClassNodeTypes: []string{"class_declaration"},
	}
	s.Register("javascript", []string{"js", "jsx", "mjs"}, NewTreeSitterAnalyzer(spec))
}

func registerTypeScript(s *Set) {
	spec := LanguageSpec{
		Name:     "typescript",
		Language: typescript.GetLanguage(),
		SymbolQuery: `
			(function_declaration name: (identifier) @name) @symbol
			(class_declaration name: (type_identifier) @name) @symbol
			(method_definition name: (property_identifier) @name) @symbol
			(interface_declaration name: (type_identifier) @name) @symbol
		`,
		ImportQuery: `
			(import_statement) @import
		`,
		ClassNodeTypes: []string{"class_declaration", "interface_declaration"},
	}
	s.Register("typescript", []string{"ts", "tsx"}, NewTreeSitterAnalyzer(spec))
}
