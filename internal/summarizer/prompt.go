package summarizer

import (
	"fmt"
	"strings"

	"github.com/ellenaj0/RepoDocGen/pkg/types"
)

// filePromptHeader opens every file-level prompt
const filePromptHeader = "Summarize this source file's purpose and main responsibilities in a few sentences.\n\n"

// symbolLines serializes a file's symbols, one line each, in declaration
// order. These are the items the budget splitter packs into groups.
func symbolLines(a *types.FileAnalysis) []string {
	lines := make([]string, 0, len(a.Symbols))
	for _, sym := range a.Symbols {
		var b strings.Builder
		b.WriteString(string(sym.Kind))
		b.WriteByte(' ')
		if sym.Parent != "" {
			b.WriteString(sym.Parent)
			b.WriteByte('.')
		}
		b.WriteString(sym.Name)
		if sym.Signature != "" {
			b.WriteString(": ")
			b.WriteString(sym.Signature)
		}
		b.WriteString(fmt.Sprintf(" (lines %d-%d)", sym.StartLine, sym.EndLine))
		lines = append(lines, b.String())
	}
	return lines
}

// fileHeader describes the file itself: path, language, imports
func fileHeader(a *types.FileAnalysis) string {
	var b strings.Builder
	b.WriteString(filePromptHeader)
	fmt.Fprintf(&b, "File: %s\nLanguage: %s\nLines: %d\n", a.Path, a.Language, a.LineCount)

	if len(a.Imports) > 0 {
		targets := make([]string, 0, len(a.Imports))
		for _, imp := range a.Imports {
			targets = append(targets, imp.Target)
		}
		fmt.Fprintf(&b, "Imports: %s\n", strings.Join(targets, ", "))
	}

	b.WriteString("\nSymbols:\n")
	return b.String()
}

// moduleHeader opens a module-level summary-of-summaries prompt
func moduleHeader(dir string) string {
	return fmt.Sprintf(
		"Summarize the purpose of the %s directory based on the summaries of its contents.\n\nContents:\n",
		displayDir(dir))
}

// repoHeader opens the repository-level prompt
const repoHeader = "Write a concise overview of this repository based on its module summaries.\n\nModules:\n"

// mergeHeader opens an intermediate summary-of-summaries prompt used when
// a group of items exceeds the budget and was summarized in parts
const mergeHeader = "Combine these partial summaries into one coherent summary.\n\nParts:\n"

func displayDir(dir string) string {
	if dir == "." || dir == "" {
		return "repository root"
	}
	return dir
}

// fallbackFileSummary is the deterministic placeholder used when the
// provider cannot summarize a file
func fallbackFileSummary(a *types.FileAnalysis) string {
	funcs := a.SymbolCount(types.KindFunction) + a.SymbolCount(types.KindMethod)
	classes := a.SymbolCount(types.KindClass)
	return fmt.Sprintf("%s: %s file with %d functions and %d classes.", a.Path, a.Language, funcs, classes)
}

// fallbackGroupSummary is the deterministic placeholder for module and
// repository nodes
func fallbackGroupSummary(id string, childCount int) string {
	return fmt.Sprintf("%s: contains %d summarized components.", displayDir(id), childCount)
}
