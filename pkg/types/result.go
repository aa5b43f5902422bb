package types

// RankedResult is a single fused search result. Results are ephemeral:
// produced per query and never persisted.
type RankedResult struct {
	// Identification
	ChunkID string
	Rank    int // Position in result set (1-based)

	// Scoring
	FusedScore   float64 // alpha-blended, normalized to [0, 1]
	LexicalScore float64 // normalized BM25 sub-score
	VectorScore  float64 // normalized cosine sub-score

	// Source lets the consumer locate and quote the originating file
	// region or summary node
	Source SourceRef
	Text   string
}

// Validate checks if the ranked result is valid
func (r *RankedResult) Validate() error {
	if r.ChunkID == "" {
		return ErrInvalidChunkID
	}

	if r.Rank < 1 {
		return ErrInvalidRank
	}

	if r.FusedScore < 0 || r.FusedScore > 1 {
		return ErrInvalidScore
	}

	return r.Source.Validate()
}

// Warning records a non-fatal degradation encountered during a run. A run
// completes with its warnings attached; it is never silently successful
// with undisclosed gaps.
type Warning struct {
	Stage   string // "analyze", "summarize", "embed"
	Subject string // file path, node ID, or chunk ID
	Message string
}

func (w Warning) String() string {
	return w.Stage + " " + w.Subject + ": " + w.Message
}
