// Command askdoc is the entry point for the askdoc CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	embollama "github.com/scribelabs/askdoc/internal/adapters/driven/embedding/ollama"
	embopenai "github.com/scribelabs/askdoc/internal/adapters/driven/embedding/openai"
	embretry "github.com/scribelabs/askdoc/internal/adapters/driven/embedding/retrying"
	llmollama "github.com/scribelabs/askdoc/internal/adapters/driven/llm/ollama"
	llmopenai "github.com/scribelabs/askdoc/internal/adapters/driven/llm/openai"
	llmretry "github.com/scribelabs/askdoc/internal/adapters/driven/llm/retrying"

	configfile "github.com/scribelabs/askdoc/internal/adapters/driven/config/file"
	"github.com/scribelabs/askdoc/internal/adapters/driven/storage/sqlite"
	"github.com/scribelabs/askdoc/internal/adapters/driving/cli"
	"github.com/scribelabs/askdoc/internal/chunker"
	"github.com/scribelabs/askdoc/internal/core/ports/driven"
	"github.com/scribelabs/askdoc/internal/core/services"
	"github.com/scribelabs/askdoc/internal/logger"
	"github.com/scribelabs/askdoc/internal/retry"
	"github.com/scribelabs/askdoc/internal/vectorindex/bruteforce"
	"github.com/scribelabs/askdoc/internal/vectorindex/ivf"
)

func main() {
	// Best effort: a local .env is a convenience, not a requirement.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	configStore, err := configfile.NewStore(os.Getenv("ASKDOC_CONFIG_DIR"))
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}

	cfg, err := configStore.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	store, err := sqlite.NewStore(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening document store: %w", err)
	}
	defer store.Close()

	policy := retryPolicy(cfg.Retry)

	embedder, err := buildEmbedder(cfg, policy)
	if err != nil {
		return err
	}
	defer embedder.Close()

	// Probe only; commands that never embed still work offline.
	if err := embedder.Open(ctx); err != nil {
		logger.Warn("Embedding service not reachable: %v", err)
	}

	index, err := buildIndex(cfg, embedder, store.Path())
	if err != nil {
		return err
	}
	defer func() {
		if err := index.Close(); err != nil {
			logger.Error("Closing vector index: %v", err)
		}
	}()

	llm, err := buildLLM(cfg, policy)
	if err != nil {
		return err
	}
	defer llm.Close()

	chk := chunker.New(
		chunker.WithChunkSize(cfg.Chunking.ChunkSize),
		chunker.WithOverlap(cfg.Chunking.Overlap),
		chunker.WithMinChunkSize(cfg.Chunking.MinChunkSize),
	)

	retriever := services.NewRetrieverService(store, embedder, index, chk, services.RetrieverOptions{
		OverfetchRatio: cfg.Retrieval.OverfetchRatio,
		MaxPerDocument: cfg.Retrieval.MaxPerDocument,
	})

	composer := services.NewComposerService(store, llm, services.ComposerOptions{
		PromptBudget: cfg.LLM.PromptBudget,
		Temperature:  cfg.LLM.Temperature,
		MaxTokens:    cfg.LLM.MaxTokens,
	})

	cli.SetServices(cli.Services{
		Retriever: retriever,
		Answer:    composer,
		Documents: store,
	})
	cli.SetQueryDefaults(cfg.Retrieval.K)

	return cli.ExecuteContext(ctx)
}

func retryPolicy(cfg configfile.RetryConfig) retry.Policy {
	return retry.Policy{
		MaxAttempts: cfg.MaxAttempts,
		BaseDelay:   time.Duration(cfg.BaseDelayMS) * time.Millisecond,
		Multiplier:  cfg.Multiplier,
	}
}

func buildEmbedder(cfg configfile.Config, policy retry.Policy) (driven.Embedder, error) {
	var inner driven.Embedder

	switch cfg.Embedding.Provider {
	case "", "ollama":
		inner = embollama.New(embollama.Config{
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
		})

	case "openai":
		e, err := embopenai.New(embopenai.Config{
			APIKey:     os.Getenv("OPENAI_API_KEY"),
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
		})
		if err != nil {
			return nil, fmt.Errorf("configuring openai embedder: %w", err)
		}
		inner = e

	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
	}

	return embretry.Wrap(inner, embretry.Config{Policy: policy}), nil
}

func buildLLM(cfg configfile.Config, policy retry.Policy) (driven.LLMService, error) {
	var inner driven.LLMService

	switch cfg.LLM.Provider {
	case "", "ollama":
		inner = llmollama.New(llmollama.Config{
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
		})

	case "openai":
		s, err := llmopenai.New(llmopenai.Config{
			APIKey:  os.Getenv("OPENAI_API_KEY"),
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("configuring openai llm: %w", err)
		}
		inner = s

	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}

	return llmretry.Wrap(inner, policy), nil
}

func buildIndex(cfg configfile.Config, embedder driven.Embedder, dbPath string) (driven.VectorIndex, error) {
	path := cfg.Index.Path
	if path == "" {
		path = filepath.Join(filepath.Dir(dbPath), "index.advx")
	}

	switch cfg.Index.Backend {
	case "", "bruteforce":
		return bruteforce.New(bruteforce.Config{
			Path:         path,
			Dimension:    embedder.Dimensions(),
			ModelVersion: embedder.ModelVersion(),
		})

	case "ivf":
		return ivf.New(ivf.Config{
			Path:         path,
			Dimension:    embedder.Dimensions(),
			ModelVersion: embedder.ModelVersion(),
			Clusters:     cfg.Index.Clusters,
			Probes:       cfg.Index.Probes,
		})

	default:
		return nil, fmt.Errorf("unknown index backend %q", cfg.Index.Backend)
	}
}
