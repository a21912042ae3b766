package cmd

import (
	"fmt"

	"golang.org/x/time/rate"

	"github.com/jhpark-dev/stockrag/internal/chunker"
	"github.com/jhpark-dev/stockrag/internal/config"
	"github.com/jhpark-dev/stockrag/internal/embeddings"
	"github.com/jhpark-dev/stockrag/internal/progress"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `stockrag init` to create a config file", err)
	}
	return cfg, nil
}

// buildEmbedder creates the configured embedding provider.
func buildEmbedder(cfg *config.Config) (embeddings.Embedder, error) {
	switch cfg.Provider {
	case config.ProviderClova:
		apiKey := config.ClovaAPIKey()
		if apiKey == "" {
			return nil, fmt.Errorf("CLOVA_API_KEY environment variable is required for CLOVA embeddings")
		}
		return embeddings.NewClovaEmbedder(
			cfg.Embedding.BaseURL,
			apiKey,
			config.ClovaEmbeddingRequestID(),
			cfg.Embedding.Dimension,
		), nil
	case config.ProviderOpenAI:
		apiKey := config.OpenAIAPIKey()
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required for OpenAI embeddings")
		}
		return embeddings.NewOpenAIEmbedder(apiKey, embeddings.OpenAIModel(cfg.Embedding.Model)), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

// buildPacedEmbedder wraps the configured embedder with the mandatory
// inter-request delay and a progress reporter for long batches.
func buildPacedEmbedder(cfg *config.Config) (*embeddings.PacedEmbedder, error) {
	inner, err := buildEmbedder(cfg)
	if err != nil {
		return nil, err
	}
	return embeddings.NewPacedEmbedder(inner, rate.Every(cfg.Embedding.RequestDelay()), progress.NewReporter()), nil
}

// buildChunker creates the chunker, with remote segmentation when
// enabled and credentials are present.
func buildChunker(cfg *config.Config) *chunker.Chunker {
	if cfg.Segmentation.Enabled && cfg.Provider == config.ProviderClova {
		if apiKey := config.ClovaAPIKey(); apiKey != "" {
			seg := chunker.NewClovaSegmenter(cfg.Segmentation.BaseURL, apiKey, config.ClovaSegmentationRequestID())
			return chunker.New(seg)
		}
	}
	return chunker.New(nil)
}
