package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ellenaj0/RepoDocGen/pkg/types"
)

// OpenAISummarizer generates summaries via the OpenAI chat completion API
type OpenAISummarizer struct {
	client *openai.Client
	model  string
}

// NewOpenAISummarizer creates an OpenAI-backed summarizer
func NewOpenAISummarizer(apiKey, model string) (*OpenAISummarizer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: OPENAI_API_KEY not set", types.ErrConfig)
	}
	if model == "" {
		model = DefaultOpenAIModel
	}

	return &OpenAISummarizer{
		client: openai.NewClient(apiKey),
		model:  model,
	}, nil
}

// Summarize sends the prompt as a single user message and returns the
// assistant's response
func (s *OpenAISummarizer) Summarize(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if prompt == "" {
		return "", ErrEmptyPrompt
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		MaxTokens:   maxTokens,
		Temperature: 0.1,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", &types.ProviderError{Provider: ProviderOpenAI, Op: "summarize", Err: err}
	}

	if len(resp.Choices) == 0 {
		return "", &types.ProviderError{
			Provider: ProviderOpenAI,
			Op:       "summarize",
			Err:      fmt.Errorf("no choices returned"),
		}
	}

	return resp.Choices[0].Message.Content, nil
}

func (s *OpenAISummarizer) Provider() string {
	return ProviderOpenAI
}

func (s *OpenAISummarizer) Model() string {
	return s.model
}
