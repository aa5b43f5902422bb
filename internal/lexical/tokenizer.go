// Package lexical implements keyword retrieval over indexed chunks using
// BM25 ranking. Tokenization is code-aware: identifiers are split on case
// and underscore boundaries so a query for "parse file" matches parseFile
// and parse_file.
package lexical

import (
	"strings"
	"unicode"
)

// Tokenizer converts text into normalized index terms
type Tokenizer struct {
	stopWords map[string]struct{}
}

// NewTokenizer creates a tokenizer with the given stop word list
func NewTokenizer(stopWords []string) *Tokenizer {
	stop := make(map[string]struct{}, len(stopWords))
	for _, w := range stopWords {
		stop[strings.ToLower(w)] = struct{}{}
	}
	return &Tokenizer{stopWords: stop}
}

// Tokenize splits text into lowercase terms. Runs of letters and digits
// form raw tokens; each raw token is additionally split on identifier
// boundaries, and both forms are emitted so exact identifiers still match.
func (t *Tokenizer) Tokenize(text string) []string {
	var tokens []string

	for _, raw := range splitWords(text) {
		parts := SplitIdentifier(raw)
		lower := strings.ToLower(raw)

		if len(parts) > 1 {
			for _, p := range parts {
				tokens = t.appendTerm(tokens, p)
			}
		}
		tokens = t.appendTerm(tokens, lower)
	}

	return tokens
}

func (t *Tokenizer) appendTerm(tokens []string, term string) []string {
	if len(term) < 2 {
		return tokens
	}
	if _, stop := t.stopWords[term]; stop {
		return tokens
	}
	return append(tokens, term)
}

// splitWords extracts maximal runs of letters and digits
func splitWords(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// SplitIdentifier breaks a source identifier into lowercase parts on
// underscore and camelCase boundaries. "parseFileHeader" yields
// ["parse", "file", "header"]; "HTTPServer" yields ["http", "server"].
func SplitIdentifier(ident string) []string {
	var parts []string

	for _, seg := range strings.FieldsFunc(ident, func(r rune) bool {
		return r == '_' || r == '-'
	}) {
		parts = append(parts, splitCamel(seg)...)
	}

	return parts
}

func splitCamel(s string) []string {
	var parts []string
	runes := []rune(s)
	start := 0

	for i := 1; i < len(runes); i++ {
		prev, cur := runes[i-1], runes[i]

		// lower/digit followed by upper starts a new word
		boundary := (unicode.IsLower(prev) || unicode.IsDigit(prev)) && unicode.IsUpper(cur)

		// acronym end: upper followed by upper+lower splits before the last upper
		if !boundary && unicode.IsUpper(prev) && unicode.IsUpper(cur) &&
			i+1 < len(runes) && unicode.IsLower(runes[i+1]) {
			boundary = true
		}

		if boundary {
			parts = append(parts, strings.ToLower(string(runes[start:i])))
			start = i
		}
	}

	parts = append(parts, strings.ToLower(string(runes[start:])))
	return parts
}
