package config

import "time"

// ProviderType identifies an embedding provider.
type ProviderType string

const (
	ProviderClova  ProviderType = "clova"
	ProviderOpenAI ProviderType = "openai"
)

// StoreName identifies one of the two independent store instances.
type StoreName string

const (
	// StoreDaily holds the broad daily corpus: the full KRX trading
	// summary plus the day's market news.
	StoreDaily StoreName = "daily"
	// StoreFollowup holds the narrower follow-up corpus collected for
	// individual stocks surfaced by the daily analysis.
	StoreFollowup StoreName = "followup"
)

// Config is the top-level stockrag configuration, corresponding to .stockrag.yml.
type Config struct {
	Provider     ProviderType       `yaml:"provider" koanf:"provider"`
	Embedding    EmbeddingConfig    `yaml:"embedding" koanf:"embedding"`
	Segmentation SegmentationConfig `yaml:"segmentation" koanf:"segmentation"`
	Stores       StoresConfig       `yaml:"stores" koanf:"stores"`
	LedgerPath   string             `yaml:"ledger_path" koanf:"ledger_path"`
}

// EmbeddingConfig holds settings for the embedding service client.
type EmbeddingConfig struct {
	BaseURL string `yaml:"base_url" koanf:"base_url"`
	Model   string `yaml:"model" koanf:"model"`
	// Dimension is the fixed vector dimension every stored embedding
	// must have. CLOVA X embeddings are 1024-dimensional.
	Dimension int `yaml:"dimension" koanf:"dimension"`
	// RequestDelaySeconds is the unconditional pause imposed before each
	// embedding call to stay under the service's rate limit.
	RequestDelaySeconds int `yaml:"request_delay_seconds" koanf:"request_delay_seconds"`
}

// RequestDelay returns the inter-request delay as a duration.
func (e EmbeddingConfig) RequestDelay() time.Duration {
	return time.Duration(e.RequestDelaySeconds) * time.Second
}

// SegmentationConfig holds settings for the topic-segmentation service client.
type SegmentationConfig struct {
	BaseURL string `yaml:"base_url" koanf:"base_url"`
	// Enabled toggles the remote segmentation path. When false the
	// chunker uses its local word-packing algorithm directly.
	Enabled bool `yaml:"enabled" koanf:"enabled"`
}

// StoresConfig configures both store instances side by side. They share
// the component design but never share storage or ports.
type StoresConfig struct {
	Daily    StoreConfig `yaml:"daily" koanf:"daily"`
	Followup StoreConfig `yaml:"followup" koanf:"followup"`
}

// StoreConfig configures one independent (data, vectors, search port) deployment.
type StoreConfig struct {
	DataDir   string `yaml:"data_dir" koanf:"data_dir"`
	VectorDir string `yaml:"vector_dir" koanf:"vector_dir"`
	Port      int    `yaml:"port" koanf:"port"`
	// TabularMaxLen and ArticleMaxLen are the chunk size bounds, in
	// characters, for the two source kinds. Trading summaries tolerate
	// larger chunks than article prose.
	TabularMaxLen int `yaml:"tabular_max_len" koanf:"tabular_max_len"`
	ArticleMaxLen int `yaml:"article_max_len" koanf:"article_max_len"`
	// TabularGlobs and NewsGlobs select document files within DataDir.
	TabularGlobs []string `yaml:"tabular_globs" koanf:"tabular_globs"`
	NewsGlobs    []string `yaml:"news_globs" koanf:"news_globs"`
}

// Store returns the configuration for the named store instance.
func (c *Config) Store(name StoreName) (StoreConfig, bool) {
	switch name {
	case StoreDaily:
		return c.Stores.Daily, true
	case StoreFollowup:
		return c.Stores.Followup, true
	}
	return StoreConfig{}, false
}
