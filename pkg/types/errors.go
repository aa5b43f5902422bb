package types

import (
	"errors"
	"fmt"
)

// Error taxonomy sentinels. Match with errors.Is.
var (
	// ErrParse marks a file that could not be read or parsed. The run
	// degrades to a placeholder node and continues.
	ErrParse = errors.New("parse error")

	// ErrProvider marks a transient failure from an LLM or embedding
	// call (rate limit, timeout, malformed response). Retried once with
	// reduced input, then degraded or excluded.
	ErrProvider = errors.New("provider error")

	// ErrConfig marks invalid global configuration (bad budget, alpha
	// outside [0,1], dimension mismatch). Fatal before any provider call.
	ErrConfig = errors.New("config error")

	// ErrIndexState marks a query against an unbuilt index or a second
	// concurrent build. Fatal for that call only.
	ErrIndexState = errors.New("index state error")
)

// Validation errors for result types
var (
	ErrInvalidChunkID = errors.New("invalid chunk ID")
	ErrInvalidRank    = errors.New("rank must be >= 1")
	ErrInvalidScore   = errors.New("score must be between 0 and 1")
)

// ParseError carries the location and cause of a failed file analysis
type ParseError struct {
	File    string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse %s:%d: %s", e.File, e.Line, e.Message)
	}
	return fmt.Sprintf("parse %s: %s", e.File, e.Message)
}

// Is makes errors.Is(err, ErrParse) match any ParseError
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// ProviderError wraps a failed summarization or embedding provider call
type ProviderError struct {
	Provider string // "openai", "ollama", "local"
	Op       string // "summarize", "embed"
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrProvider) match any ProviderError
func (e *ProviderError) Is(target error) bool {
	return target == ErrProvider
}
