package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ellenaj0/RepoDocGen/pkg/types"
)

// Defaults for run-wide configuration
const (
	DefaultTokenBudget      = 8192
	DefaultChunkSize        = 1000 // characters
	DefaultChunkOverlap     = 200  // characters
	DefaultTopK             = 5
	DefaultFusionCandidates = 20
	DefaultAlpha            = 0.5
	DefaultBM25K1           = 1.2
	DefaultBM25B            = 0.75
	DefaultEmbeddingDim     = 1536
	DefaultMaxFileSizeMB    = 5
)

// DefaultStopWords is the stop-word set dropped during lexical tokenization
var DefaultStopWords = []string{
	"a", "an", "and", "are", "as", "at", "be", "by", "for", "from",
	"in", "is", "it", "of", "on", "or", "that", "the", "this", "to",
	"was", "will", "with",
}

// Config is the immutable run-wide configuration. It is passed explicitly
// into each component's constructor rather than read from ambient process
// state, so indices and summarizers stay independently testable and
// re-runnable with different settings in one process.
type Config struct {
	// Summarization
	TokenBudget int `yaml:"token_budget"` // max input tokens per provider call

	// Chunking
	ChunkSize    int `yaml:"chunk_size"`    // characters per chunk
	ChunkOverlap int `yaml:"chunk_overlap"` // characters shared with the previous chunk

	// Retrieval
	TopK             int     `yaml:"top_k"`
	FusionCandidates int     `yaml:"fusion_candidates"` // top-N fetched per side before fusion
	Alpha            float64 `yaml:"alpha"`             // 0 = pure lexical, 1 = pure vector

	// BM25 constants
	BM25K1 float64 `yaml:"bm25_k1"`
	BM25B  float64 `yaml:"bm25_b"`

	StopWords []string `yaml:"stop_words"`

	// Embeddings
	EmbeddingDim int `yaml:"embedding_dim"`

	// Providers
	LLMProvider       string `yaml:"llm_provider"` // "openai", "ollama", "local"
	LLMModel          string `yaml:"llm_model"`
	EmbeddingProvider string `yaml:"embedding_provider"` // "openai", "ollama", "local"
	EmbeddingModel    string `yaml:"embedding_model"`
	OpenAIAPIKey      string `yaml:"-"` // env only, never written to file
	OllamaURL         string `yaml:"ollama_url"`

	// Repository walking
	MaxFileSizeMB   int      `yaml:"max_file_size_mb"`
	ExcludePatterns []string `yaml:"exclude_patterns"`

	// Concurrency
	Workers int `yaml:"workers"`
}

// Default returns a configuration populated with defaults
func Default() Config {
	return Config{
		TokenBudget:       DefaultTokenBudget,
		ChunkSize:         DefaultChunkSize,
		ChunkOverlap:      DefaultChunkOverlap,
		TopK:              DefaultTopK,
		FusionCandidates:  DefaultFusionCandidates,
		Alpha:             DefaultAlpha,
		BM25K1:            DefaultBM25K1,
		BM25B:             DefaultBM25B,
		StopWords:         DefaultStopWords,
		EmbeddingDim:      DefaultEmbeddingDim,
		LLMProvider:       "local",
		EmbeddingProvider: "local",
		OllamaURL:         "http://localhost:11434",
		MaxFileSizeMB:     DefaultMaxFileSizeMB,
		ExcludePatterns:   []string{"node_modules", "vendor", "venv", "__pycache__", ".git"},
		Workers:           4,
	}
}

// Load builds a configuration from defaults, an optional YAML file, and
// environment variable overrides, in that order of precedence.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("%w: read config file: %v", types.ErrConfig, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("%w: parse config file: %v", types.ErrConfig, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// applyEnv overrides configuration from environment variables
func (c *Config) applyEnv() {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.OpenAIAPIKey = v
	}
	if v := os.Getenv("REPODOCGEN_LLM_PROVIDER"); v != "" {
		c.LLMProvider = strings.ToLower(v)
	}
	if v := os.Getenv("REPODOCGEN_LLM_MODEL"); v != "" {
		c.LLMModel = v
	}
	if v := os.Getenv("REPODOCGEN_EMBEDDING_PROVIDER"); v != "" {
		c.EmbeddingProvider = strings.ToLower(v)
	}
	if v := os.Getenv("REPODOCGEN_EMBEDDING_MODEL"); v != "" {
		c.EmbeddingModel = v
	}
	if v := os.Getenv("REPODOCGEN_OLLAMA_URL"); v != "" {
		c.OllamaURL = v
	}
	if v := os.Getenv("REPODOCGEN_ALPHA"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Alpha = f
		}
	}
	if v := os.Getenv("REPODOCGEN_TOKEN_BUDGET"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.TokenBudget = n
		}
	}
}

// Validate fails fast with a config error before any provider call is made
func (c *Config) Validate() error {
	if c.TokenBudget <= 0 {
		return fmt.Errorf("%w: token budget must be positive, got %d", types.ErrConfig, c.TokenBudget)
	}

	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", types.ErrConfig, c.ChunkSize)
	}

	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: chunk overlap must be in [0, chunk size), got %d", types.ErrConfig, c.ChunkOverlap)
	}

	if c.Alpha < 0 || c.Alpha > 1 {
		return fmt.Errorf("%w: alpha must be in [0, 1], got %g", types.ErrConfig, c.Alpha)
	}

	if c.TopK <= 0 {
		return fmt.Errorf("%w: top k must be positive, got %d", types.ErrConfig, c.TopK)
	}

	if c.FusionCandidates < c.TopK {
		return fmt.Errorf("%w: fusion candidates (%d) must be >= top k (%d)", types.ErrConfig, c.FusionCandidates, c.TopK)
	}

	if c.BM25K1 <= 0 {
		return fmt.Errorf("%w: bm25 k1 must be positive, got %g", types.ErrConfig, c.BM25K1)
	}

	if c.BM25B < 0 || c.BM25B > 1 {
		return fmt.Errorf("%w: bm25 b must be in [0, 1], got %g", types.ErrConfig, c.BM25B)
	}

	if c.EmbeddingDim <= 0 {
		return fmt.Errorf("%w: embedding dimension must be positive, got %d", types.ErrConfig, c.EmbeddingDim)
	}

	if c.Workers <= 0 {
		return fmt.Errorf("%w: workers must be positive, got %d", types.ErrConfig, c.Workers)
	}

	return nil
}
