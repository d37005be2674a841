// Package config loads the runtime configuration of babsim from a YAML file,
// an optional .env file and the process environment.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/internal/httpx"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/domain"
	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Log        LogConfig        `yaml:"log"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	LLM        LLMConfig        `yaml:"llm"`
	Generation GenerationConfig `yaml:"generation"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	WebSearch  WebSearchConfig  `yaml:"web_search"`
	VectorDB   VectorDBConfig   `yaml:"vectordb"`
	Diffusion  DiffusionConfig  `yaml:"diffusion"`
	Store      StoreConfig      `yaml:"store"`
	Server     ServerConfig     `yaml:"server"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text, json
}

// PipelineConfig bounds a single run.
type PipelineConfig struct {
	// MaxRefinements caps the refinement loop. Zero disables refinement.
	MaxRefinements    int           `yaml:"max_refinements"`
	GenerationTimeout time.Duration `yaml:"generation_timeout"`
	VectorSearchLimit int           `yaml:"vector_search_limit"`
}

// LLMConfig selects the judge model used by the classifier and analyzer.
type LLMConfig struct {
	Provider string `yaml:"provider"` // openai, gemini, none
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
	Model    string `yaml:"model"`
}

// GenerationConfig points at the OpenAI-compatible endpoint serving the
// answer and prompt generation model.
type GenerationConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	MaxInputTokens int    `yaml:"max_input_tokens"`
}

type EmbeddingConfig struct {
	Provider   string `yaml:"provider"` // openai, gemini
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

type WebSearchConfig struct {
	Provider string        `yaml:"provider"` // serpapi, none
	APIKey   string        `yaml:"api_key"`
	Endpoint string        `yaml:"endpoint"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
	CacheMax int           `yaml:"cache_max"`
	HTTP     httpx.Options `yaml:"http"`
}

type VectorDBConfig struct {
	Provider   string        `yaml:"provider"` // qdrant, milvus, none
	Host       string        `yaml:"host"`
	Port       int           `yaml:"port"`
	Address    string        `yaml:"address"` // milvus
	Collection string        `yaml:"collection"`
	HTTP       httpx.Options `yaml:"http"`
}

type DiffusionConfig struct {
	BaseURL   string         `yaml:"base_url"`
	OutputDir string         `yaml:"output_dir"`
	Params    map[string]any `yaml:"params"`
	HTTP      httpx.Options  `yaml:"http"`
}

// StoreConfig selects the conversation history backend.
type StoreConfig struct {
	Backend   string        `yaml:"backend"` // memory, redis, postgres, sqlite
	RedisAddr string        `yaml:"redis_addr"`
	DSN       string        `yaml:"dsn"`
	TTL       time.Duration `yaml:"ttl"`
	MaskPII   bool          `yaml:"mask_pii"`
	// EncryptionKey is a base64 AES-256 key. Empty disables encryption at rest.
	EncryptionKey string `yaml:"encryption_key"`
}

// EncryptionKeyBytes decodes the configured key. It returns nil when unset.
func (c *StoreConfig) EncryptionKeyBytes() ([]byte, error) {
	if c.EncryptionKey == "" {
		return nil, nil
	}
	key, err := base64.StdEncoding.DecodeString(c.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("store.encryption_key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("store.encryption_key: want 32 bytes, got %d", len(key))
	}
	return key, nil
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info", Format: "text"},
		Pipeline: PipelineConfig{
			MaxRefinements:    2,
			GenerationTimeout: 60 * time.Second,
			VectorSearchLimit: 5,
		},
		LLM: LLMConfig{Provider: "openai", Model: "gpt-4o-mini"},
		Generation: GenerationConfig{
			Model:          "LGAI-EXAONE/EXAONE-3.5-2.4B-Instruct",
			MaxInputTokens: 512,
		},
		Embedding: EmbeddingConfig{Provider: "openai", Model: "text-embedding-3-small", Dimensions: 1536},
		WebSearch: WebSearchConfig{
			Provider: "serpapi",
			Endpoint: "https://serpapi.com/search",
			CacheTTL: 10 * time.Minute,
			CacheMax: 256,
			HTTP:     httpx.Options{Timeout: 10 * time.Second, Retry: 2},
		},
		VectorDB: VectorDBConfig{
			Provider:   "qdrant",
			Host:       "localhost",
			Port:       6333,
			Collection: "hyundai_knowledge",
			HTTP:       httpx.Options{Timeout: 10 * time.Second, Retry: 1},
		},
		Diffusion: DiffusionConfig{
			OutputDir: "generated_images",
			HTTP:      httpx.Options{Timeout: 120 * time.Second},
		},
		Store:  StoreConfig{Backend: "memory", TTL: 24 * time.Hour},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// Load reads path (optional) over the defaults, then applies .env and the
// environment. A missing .env file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	providerKey := func(provider string, dst *string) {
		switch provider {
		case "openai":
			str("OPENAI_API_KEY", dst)
		case "gemini":
			str("GEMINI_API_KEY", dst)
		}
	}
	providerKey(c.LLM.Provider, &c.LLM.APIKey)
	providerKey(c.Embedding.Provider, &c.Embedding.APIKey)
	str("SERPAPI_KEY", &c.WebSearch.APIKey)
	str("QDRANT_HOST", &c.VectorDB.Host)
	str("MILVUS_ADDRESS", &c.VectorDB.Address)
	str("REDIS_ADDR", &c.Store.RedisAddr)
	str("DATABASE_URL", &c.Store.DSN)
	str("EXAONE_BASE_URL", &c.Generation.BaseURL)
	str("SD_BASE_URL", &c.Diffusion.BaseURL)
	str("BABSIM_LOG_LEVEL", &c.Log.Level)
	str("BABSIM_ENCRYPTION_KEY", &c.Store.EncryptionKey)

	if v, ok := lookup("QDRANT_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid QDRANT_PORT %q: %w", v, err)
		}
		c.VectorDB.Port = port
	}
	return nil
}

// GenerationParams decodes diffusion.params over the stock parameters.
func (c *DiffusionConfig) GenerationParams() (domain.GenerationParams, error) {
	params := domain.DefaultGenerationParams()
	if len(c.Params) == 0 {
		return params, nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &params,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return params, err
	}
	if err := dec.Decode(c.Params); err != nil {
		return params, fmt.Errorf("invalid diffusion params: %w", err)
	}
	return params.WithDefaults(), nil
}

// QdrantURL is the REST base URL of the configured qdrant instance.
func (c *VectorDBConfig) QdrantURL() string {
	return fmt.Sprintf("http://%s:%d", c.Host, c.Port)
}
