package config

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

var (
	llmProviders       = []string{"openai", "gemini", "none"}
	embeddingProviders = []string{"openai", "gemini"}
	searchProviders    = []string{"serpapi", "none"}
	vectorProviders    = []string{"qdrant", "milvus", "none"}
	storeBackends      = []string{"memory", "redis", "postgres", "sqlite"}
	logFormats         = []string{"text", "json"}
	logLevels          = []string{"debug", "info", "warn", "warning", "error"}
)

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var result *multierror.Error

	if !oneOf(strings.ToLower(c.Log.Level), logLevels) {
		result = multierror.Append(result, fmt.Errorf("log.level: unsupported value %q", c.Log.Level))
	}
	if !oneOf(c.Log.Format, logFormats) {
		result = multierror.Append(result, fmt.Errorf("log.format: unsupported value %q", c.Log.Format))
	}

	if c.Pipeline.MaxRefinements < 0 {
		result = multierror.Append(result, fmt.Errorf("pipeline.max_refinements must be >= 0, got %d", c.Pipeline.MaxRefinements))
	}
	if c.Pipeline.GenerationTimeout <= 0 {
		result = multierror.Append(result, fmt.Errorf("pipeline.generation_timeout must be positive"))
	}
	if c.Pipeline.VectorSearchLimit <= 0 {
		result = multierror.Append(result, fmt.Errorf("pipeline.vector_search_limit must be positive"))
	}

	if !oneOf(c.LLM.Provider, llmProviders) {
		result = multierror.Append(result, fmt.Errorf("llm.provider: unsupported value %q", c.LLM.Provider))
	}
	if !oneOf(c.Embedding.Provider, embeddingProviders) {
		result = multierror.Append(result, fmt.Errorf("embedding.provider: unsupported value %q", c.Embedding.Provider))
	}
	if c.Embedding.Dimensions <= 0 {
		result = multierror.Append(result, fmt.Errorf("embedding.dimensions must be positive"))
	}
	if !oneOf(c.WebSearch.Provider, searchProviders) {
		result = multierror.Append(result, fmt.Errorf("web_search.provider: unsupported value %q", c.WebSearch.Provider))
	}

	switch c.VectorDB.Provider {
	case "qdrant":
		if c.VectorDB.Host == "" || c.VectorDB.Port <= 0 {
			result = multierror.Append(result, fmt.Errorf("vectordb: qdrant requires host and port"))
		}
	case "milvus":
		if c.VectorDB.Address == "" {
			result = multierror.Append(result, fmt.Errorf("vectordb: milvus requires address"))
		}
	}
	if !oneOf(c.VectorDB.Provider, vectorProviders) {
		result = multierror.Append(result, fmt.Errorf("vectordb.provider: unsupported value %q", c.VectorDB.Provider))
	}
	if c.VectorDB.Provider != "none" && c.VectorDB.Collection == "" {
		result = multierror.Append(result, fmt.Errorf("vectordb.collection is required"))
	}

	if _, err := c.Diffusion.GenerationParams(); err != nil {
		result = multierror.Append(result, err)
	}

	switch c.Store.Backend {
	case "redis":
		if c.Store.RedisAddr == "" {
			result = multierror.Append(result, fmt.Errorf("store: redis backend requires redis_addr"))
		}
	case "postgres", "sqlite":
		if c.Store.DSN == "" {
			result = multierror.Append(result, fmt.Errorf("store: %s backend requires dsn", c.Store.Backend))
		}
	}
	if _, err := c.Store.EncryptionKeyBytes(); err != nil {
		result = multierror.Append(result, err)
	}
	if !oneOf(c.Store.Backend, storeBackends) {
		result = multierror.Append(result, fmt.Errorf("store.backend: unsupported value %q", c.Store.Backend))
	}

	return result.ErrorOrNil()
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
