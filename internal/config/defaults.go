package config

const (
	// DefaultDimension is the CLOVA X embedding dimension.
	DefaultDimension = 1024

	// DefaultRequestDelaySeconds is the pause before each embedding call.
	// The upstream service rate-limits aggressively; 20 seconds keeps a
	// full daily ingestion under the limit.
	DefaultRequestDelaySeconds = 20

	defaultClovaBaseURL = "https://clovastudio.stream.ntruss.com"
)

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderClova,
		Embedding: EmbeddingConfig{
			BaseURL:             defaultClovaBaseURL,
			Model:               "clova-x",
			Dimension:           DefaultDimension,
			RequestDelaySeconds: DefaultRequestDelaySeconds,
		},
		Segmentation: SegmentationConfig{
			BaseURL: defaultClovaBaseURL,
			Enabled: true,
		},
		Stores: StoresConfig{
			Daily: StoreConfig{
				DataDir:       "data",
				VectorDir:     "vector_db",
				Port:          8000,
				TabularMaxLen: 2048,
				ArticleMaxLen: 512,
				TabularGlobs:  []string{"*.csv"},
				NewsGlobs:     []string{"*news*.json"},
			},
			Followup: StoreConfig{
				DataDir:       "data_1",
				VectorDir:     "vector_db_1",
				Port:          8001,
				TabularMaxLen: 2048,
				ArticleMaxLen: 512,
				TabularGlobs:  []string{"*.csv"},
				NewsGlobs:     []string{"*.json"},
			},
		},
		LedgerPath: "stockrag.db",
	}
}
