// Package file loads and persists the TOML configuration file.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

// Config is the full application configuration.
type Config struct {
	Chunking  ChunkingConfig  `toml:"chunking"`
	Retrieval RetrievalConfig `toml:"retrieval"`
	Embedding EmbeddingConfig `toml:"embedding"`
	LLM       LLMConfig       `toml:"llm"`
	Index     IndexConfig     `toml:"index"`
	Storage   StorageConfig   `toml:"storage"`
	Retry     RetryConfig     `toml:"retry"`
}

// ChunkingConfig controls document segmentation.
type ChunkingConfig struct {
	ChunkSize    int `toml:"chunk_size"`
	Overlap      int `toml:"overlap"`
	MinChunkSize int `toml:"min_chunk_size"`
}

// RetrievalConfig controls similarity search behaviour.
type RetrievalConfig struct {
	K              int `toml:"k"`
	OverfetchRatio int `toml:"overfetch_ratio"`
	MaxPerDocument int `toml:"max_per_document"`
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	Provider   string `toml:"provider"` // "ollama" or "openai"
	Model      string `toml:"model"`
	BaseURL    string `toml:"base_url"`
	Dimensions int    `toml:"dimensions"`
}

// LLMConfig selects and configures the generation provider.
type LLMConfig struct {
	Provider    string  `toml:"provider"` // "ollama" or "openai"
	Model       string  `toml:"model"`
	BaseURL     string  `toml:"base_url"`
	Temperature float64 `toml:"temperature"`
	MaxTokens   int     `toml:"max_tokens"`
	// PromptBudget caps the assembled prompt length in characters.
	PromptBudget int `toml:"prompt_budget"`
}

// IndexConfig selects the vector index backend.
type IndexConfig struct {
	Backend string `toml:"backend"` // "bruteforce" or "ivf"
	Path    string `toml:"path"`
	// IVF tuning; ignored by the bruteforce backend.
	Clusters int `toml:"clusters"`
	Probes   int `toml:"probes"`
}

// StorageConfig locates the document database.
type StorageConfig struct {
	DataDir string `toml:"data_dir"`
}

// RetryConfig controls backoff for external services.
type RetryConfig struct {
	MaxAttempts int     `toml:"max_attempts"`
	BaseDelayMS int     `toml:"base_delay_ms"`
	Multiplier  float64 `toml:"multiplier"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		Chunking: ChunkingConfig{
			ChunkSize:    1000,
			Overlap:      200,
			MinChunkSize: 50,
		},
		Retrieval: RetrievalConfig{
			K:              5,
			OverfetchRatio: 3,
			MaxPerDocument: 0, // unlimited
		},
		Embedding: EmbeddingConfig{
			Provider: "ollama",
			Model:    "nomic-embed-text",
		},
		LLM: LLMConfig{
			Provider:     "ollama",
			Model:        "llama3.2",
			Temperature:  0.7,
			PromptBudget: 12000,
		},
		Index: IndexConfig{
			Backend: "bruteforce",
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelayMS: 500,
			Multiplier:  2.0,
		},
	}
}

// Store reads and writes the configuration file.
type Store struct {
	mu       sync.Mutex
	filePath string
}

// NewStore creates a config store rooted at configDir.
// If configDir is empty, defaults to ~/.askdoc.
func NewStore(configDir string) (*Store, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".askdoc")
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	return &Store{
		filePath: filepath.Join(configDir, "config.toml"),
	}, nil
}

// Load reads the configuration file, applying defaults for missing
// sections. A missing file yields the defaults without error.
func (s *Store) Load() (Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := DefaultConfig()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save persists the configuration with restricted permissions.
func (s *Store) Save(cfg Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	return os.WriteFile(s.filePath, data, 0600)
}

// Path returns the configuration file path.
func (s *Store) Path() string {
	return s.filePath
}
