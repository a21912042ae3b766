package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (STOCKRAG_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// Overlay environment variables: STOCKRAG_PROVIDER -> provider, etc.
	if err := k.Load(env.Provider("STOCKRAG_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "STOCKRAG_")), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// validProviders is the set of recognized embedding provider values.
var validProviders = map[ProviderType]bool{
	ProviderClova:  true,
	ProviderOpenAI: true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Provider == "" {
		return fmt.Errorf("provider is required")
	}
	if !validProviders[c.Provider] {
		return fmt.Errorf("invalid provider %q: must be one of clova, openai", c.Provider)
	}

	if c.Embedding.Dimension <= 0 {
		return fmt.Errorf("embedding dimension must be positive")
	}
	if c.Embedding.RequestDelaySeconds < 0 {
		return fmt.Errorf("embedding request_delay_seconds must be non-negative")
	}

	for _, sc := range []struct {
		name  StoreName
		store StoreConfig
	}{
		{StoreDaily, c.Stores.Daily},
		{StoreFollowup, c.Stores.Followup},
	} {
		if sc.store.DataDir == "" {
			return fmt.Errorf("store %s: data_dir is required", sc.name)
		}
		if sc.store.VectorDir == "" {
			return fmt.Errorf("store %s: vector_dir is required", sc.name)
		}
		if sc.store.Port <= 0 || sc.store.Port > 65535 {
			return fmt.Errorf("store %s: invalid port %d", sc.name, sc.store.Port)
		}
		if sc.store.TabularMaxLen <= 0 || sc.store.ArticleMaxLen <= 0 {
			return fmt.Errorf("store %s: chunk max lengths must be positive", sc.name)
		}
	}

	if c.Stores.Daily.VectorDir == c.Stores.Followup.VectorDir {
		return fmt.Errorf("daily and followup stores must not share a vector_dir")
	}
	if c.Stores.Daily.Port == c.Stores.Followup.Port {
		return fmt.Errorf("daily and followup stores must not share a port")
	}

	return nil
}

// ClovaAPIKey returns the CLOVA Studio API key from the environment,
// with the Bearer prefix the service expects.
func ClovaAPIKey() string {
	key := os.Getenv("CLOVA_API_KEY")
	if key == "" {
		return ""
	}
	if !strings.HasPrefix(key, "Bearer ") {
		key = "Bearer " + key
	}
	return key
}

// ClovaEmbeddingRequestID returns the request id header value for the
// embedding endpoint.
func ClovaEmbeddingRequestID() string {
	return os.Getenv("CLOVA_EMBEDDING_REQUEST_ID")
}

// ClovaSegmentationRequestID returns the request id header value for the
// segmentation endpoint.
func ClovaSegmentationRequestID() string {
	return os.Getenv("CLOVA_SEGMENTATION_REQUEST_ID")
}

// OpenAIAPIKey returns the OpenAI API key from the environment.
func OpenAIAPIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}
