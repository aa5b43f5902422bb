package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ellenaj0/RepoDocGen/pkg/types"
)

// OllamaSummarizer generates summaries via the Ollama /api/chat endpoint
type OllamaSummarizer struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllamaSummarizer creates a summarizer targeting the given Ollama
// instance and model
func NewOllamaSummarizer(baseURL, model string) *OllamaSummarizer {
	if model == "" {
		model = DefaultOllamaModel
	}

	return &OllamaSummarizer{
		baseURL: baseURL,
		model:   model,
		client: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
}

// Summarize sends the prompt to Ollama and returns the response text
func (s *OllamaSummarizer) Summarize(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if prompt == "" {
		return "", ErrEmptyPrompt
	}

	body, err := json.Marshal(chatRequest{
		Model:    s.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
		Stream:   false,
		Options:  map[string]any{"num_predict": maxTokens},
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", &types.ProviderError{Provider: ProviderOllama, Op: "summarize", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", &types.ProviderError{
			Provider: ProviderOllama,
			Op:       "summarize",
			Err:      fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody)),
		}
	}

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &types.ProviderError{Provider: ProviderOllama, Op: "summarize", Err: err}
	}

	return result.Message.Content, nil
}

func (s *OllamaSummarizer) Provider() string {
	return ProviderOllama
}

func (s *OllamaSummarizer) Model() string {
	return s.model
}
