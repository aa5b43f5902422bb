package analyzer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ellenaj0/RepoDocGen/pkg/types"
)

const goSample = `package sample

import (
	"fmt"
	s "strings"
)

// Greeter greets
type Greeter struct {
	Name string
}

// Greet returns a greeting
func (g *Greeter) Greet(prefix string) string {
	return prefix + s.ToUpper(g.Name)
}

func main() {
	fmt.Println(New("x").Greet("hi "))
}

func New(name string) *Greeter {
	return &Greeter{Name: name}
}
`

func TestGoAnalyzerExtractsSymbols(t *testing.T) {
	a := NewGoAnalyzer()

	analysis, err := a.Analyze(context.Background(), "sample.go", []byte(goSample))
	require.NoError(t, err)

	assert.Equal(t, "sample.go", analysis.Path)
	assert.Equal(t, "go", analysis.Language)

	byName := make(map[string]types.Symbol)
	for _, sym := range analysis.Symbols {
		byName[sym.Name] = sym
	}

	require.Contains(t, byName, "Greeter")
	assert.Equal(t, types.KindClass, byName["Greeter"].Kind)

	require.Contains(t, byName, "Greet")
	assert.Equal(t, types.KindMethod, byName["Greet"].Kind)
	assert.Equal(t, "Greeter", byName["Greet"].Parent)
	assert.Equal(t, "func (*Greeter) Greet(prefix string) string", byName["Greet"].Signature)

	require.Contains(t, byName, "New")
	assert.Equal(t, types.KindFunction, byName["New"].Kind)

	require.Len(t, analysis.Imports, 2)
	assert.Equal(t, "fmt", analysis.Imports[0].Target)
	assert.Equal(t, "strings", analysis.Imports[1].Target)
	assert.Equal(t, "s", analysis.Imports[1].Alias)
}

func TestGoAnalyzerSymbolOrderAndSpans(t *testing.T) {
	a := NewGoAnalyzer()

	analysis, err := a.Analyze(context.Background(), "sample.go", []byte(goSample))
	require.NoError(t, err)

	// Symbols are ordered as declared
	prev := 0
	for _, sym := range analysis.Symbols {
		require.NoError(t, sym.Validate())
		assert.Greater(t, sym.StartLine, prev)
		prev = sym.StartLine
	}
}

func TestGoAnalyzerMalformedSource(t *testing.T) {
	a := NewGoAnalyzer()

	// Not Go at all: no usable AST
	_, err := a.Analyze(context.Background(), "bad.go", []byte("!!! not go"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrParse), "expected parse error, got %v", err)
}

const pySample = `import os
from typing import List

def compute_hash(data):
    return hash(data)

class UserStore:
    def __init__(self):
        self.users = []

    def add_user(self, name):
        self.users.append(name)
`

func TestPythonAnalyzerExtractsSymbols(t *testing.T) {
	set := NewSet()
	a, lang := set.ForPath("store.py")
	require.NotNil(t, a)
	assert.Equal(t, "python", lang)

	analysis, err := a.Analyze(context.Background(), "store.py", []byte(pySample))
	require.NoError(t, err)

	byName := make(map[string]types.Symbol)
	for _, sym := range analysis.Symbols {
		byName[sym.Name] = sym
	}

	require.Contains(t, byName, "compute_hash")
	assert.Equal(t, types.KindFunction, byName["compute_hash"].Kind)

	require.Contains(t, byName, "UserStore")
	assert.Equal(t, types.KindClass, byName["UserStore"].Kind)

	require.Contains(t, byName, "add_user")
	assert.Equal(t, types.KindMethod, byName["add_user"].Kind)
	assert.Equal(t, "UserStore", byName["add_user"].Parent)

	assert.Len(t, analysis.Imports, 2)
}

func TestSetDispatch(t *testing.T) {
	set := NewSet()

	tests := []struct {
		path string
		lang string
	}{
		{"main.go", "go"},
		{"app.py", "python"},
		{"index.js", "javascript"},
		{"api.ts", "typescript"},
	}

	for _, tt := range tests {
		a, lang := set.ForPath(tt.path)
		require.NotNil(t, a, tt.path)
		assert.Equal(t, tt.lang, lang)
	}

	a, _ := set.ForPath("README.md")
	assert.Nil(t, a)
	assert.False(t, set.Supports("photo.png"))
}
