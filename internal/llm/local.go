package llm

import (
	"context"
	"fmt"
	"strings"
)

// LocalSummarizer is a deterministic offline summarizer. It produces an
// extractive digest of the prompt instead of calling a model, which keeps
// the pipeline usable without API access and gives tests reproducible
// output.
type LocalSummarizer struct{}

// NewLocalSummarizer creates a local summarizer
func NewLocalSummarizer() *LocalSummarizer {
	return &LocalSummarizer{}
}

// Summarize extracts the leading non-empty lines of the prompt, bounded
// by maxTokens
func (s *LocalSummarizer) Summarize(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if prompt == "" {
		return "", ErrEmptyPrompt
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	maxChars := maxTokens * 4 // chars/4 token heuristic
	if maxChars <= 0 {
		maxChars = 256
	}

	var b strings.Builder
	for _, line := range strings.Split(prompt, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if b.Len()+len(line)+1 > maxChars {
			break
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(line)
	}

	if b.Len() == 0 {
		return fmt.Sprintf("Digest of %d characters of input.", len(prompt)), nil
	}

	return b.String(), nil
}

func (s *LocalSummarizer) Provider() string {
	return ProviderLocal
}

func (s *LocalSummarizer) Model() string {
	return "extractive-digest"
}
