package types

import (
	"crypto/sha256"
	"errors"
	"fmt"
)

// CharsPerToken is the heuristic divisor for estimating token counts (chars/4)
const CharsPerToken = 4

// SourceRef identifies the single origin of a chunk: either a file region
// or a summary node, never both.
type SourceRef struct {
	// File origin
	FilePath  string
	StartLine int
	EndLine   int

	// Summary origin
	SummaryNodeID string
}

// IsFile reports whether the reference points at a file region
func (r *SourceRef) IsFile() bool {
	return r.FilePath != ""
}

// IsSummary reports whether the reference points at a summary node
func (r *SourceRef) IsSummary() bool {
	return r.SummaryNodeID != ""
}

// Validate ensures the reference resolves to exactly one origin
func (r *SourceRef) Validate() error {
	if r.IsFile() == r.IsSummary() {
		return errors.New("source reference must name exactly one origin")
	}

	if r.IsFile() {
		if r.StartLine <= 0 || r.EndLine <= 0 {
			return errors.New("line numbers must be positive")
		}
		if r.StartLine > r.EndLine {
			return errors.New("start line must be before or equal to end line")
		}
	}

	return nil
}

// String renders the reference for display and citation
func (r *SourceRef) String() string {
	if r.IsFile() {
		return fmt.Sprintf("%s:%d-%d", r.FilePath, r.StartLine, r.EndLine)
	}
	return "summary:" + r.SummaryNodeID
}

// Chunk is the unit of indexed text: a bounded span from source code, a
// symbol's body, or a summary node's text. Chunks are immutable once
// created; re-indexing a repository mints new chunk identifiers rather
// than mutating existing ones.
type Chunk struct {
	// ID is a stable identifier, unique within a run
	ID string

	Text   string
	Source SourceRef

	// ContentHash is the SHA-256 of Text, used for deduplication
	ContentHash [32]byte

	TokenCount int
}

// EstimateTokenCount estimates the number of tokens in a string
func EstimateTokenCount(text string) int {
	return len(text) / CharsPerToken
}

// ComputeTokenCount estimates and stores the chunk's token count
func (c *Chunk) ComputeTokenCount() int {
	c.TokenCount = EstimateTokenCount(c.Text)
	return c.TokenCount
}

// ComputeContentHash computes the SHA-256 hash of the chunk text
func (c *Chunk) ComputeContentHash() {
	c.ContentHash = sha256.Sum256([]byte(c.Text))
}

// Validate performs comprehensive validation of the chunk
func (c *Chunk) Validate() error {
	if c.ID == "" {
		return errors.New("chunk ID is required")
	}

	if c.Text == "" {
		return errors.New("chunk text cannot be empty")
	}

	if err := c.Source.Validate(); err != nil {
		return err
	}

	var zeroHash [32]byte
	if c.ContentHash == zeroHash {
		return errors.New("content hash must be computed")
	}

	return nil
}
