package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ellenaj0/RepoDocGen/internal/config"
	"github.com/ellenaj0/RepoDocGen/pkg/types"
)

func TestLocalSummarizerDeterministic(t *testing.T) {
	s := NewLocalSummarizer()
	ctx := context.Background()

	prompt := "File: a.go\n\nfunc Add(a, b int) int\nfunc Sub(a, b int) int\n"

	first, err := s.Summarize(ctx, prompt, 64)
	require.NoError(t, err)
	second, err := s.Summarize(ctx, prompt, 64)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.NotEmpty(t, first)
}

func TestLocalSummarizerRespectsBound(t *testing.T) {
	s := NewLocalSummarizer()

	long := ""
	for i := 0; i < 200; i++ {
		long += "some repeated line of prompt text\n"
	}

	out, err := s.Summarize(context.Background(), long, 16)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(out), 16*4)
}

func TestLocalSummarizerEmptyPrompt(t *testing.T) {
	s := NewLocalSummarizer()

	_, err := s.Summarize(context.Background(), "", 64)
	assert.ErrorIs(t, err, ErrEmptyPrompt)
}

func TestNewDispatchesByProvider(t *testing.T) {
	cfg := config.Default()

	cfg.LLMProvider = "local"
	s, err := New(cfg)
	require.NoError(t, err)
	assert.Equal(t, ProviderLocal, s.Provider())

	cfg.LLMProvider = "ollama"
	s, err = New(cfg)
	require.NoError(t, err)
	assert.Equal(t, ProviderOllama, s.Provider())
	assert.Equal(t, DefaultOllamaModel, s.Model())

	cfg.LLMProvider = "openai"
	cfg.OpenAIAPIKey = ""
	_, err = New(cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrConfig))

	cfg.LLMProvider = "nope"
	_, err = New(cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrConfig))
}
