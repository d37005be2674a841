package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	babsim "github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/internal/config"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/internal/httpx"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/internal/logging"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/internal/metrics"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/adapters/diffusion"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/adapters/gemini"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/adapters/memory"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/adapters/milvus"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/adapters/openai"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/adapters/qdrant"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/adapters/redis"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/adapters/serpapi"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/adapters/sqlstore"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/domain"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/persistence/middleware"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/ports"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/session"
	"github.com/hashicorp/go-multierror"
)

// App is a fully wired babsim instance built from a Config.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Engine   *babsim.Engine
	Sessions *session.Manager
	// Indexer is nil when no vector database is configured.
	Indexer ports.Indexer

	closers []io.Closer
}

// sessionLockTTL bounds the distributed session lock by the longest run the
// pipeline allows: four model calls on the first pass and three more per
// refinement, each up to the generation timeout.
func sessionLockTTL(p config.PipelineConfig) time.Duration {
	ttl := p.GenerationTimeout * time.Duration(4+3*max(p.MaxRefinements, 0))
	return max(ttl, session.DefaultLockTTL)
}

// Close releases every connection opened by Build.
func (a *App) Close() error {
	var result *multierror.Error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	a.closers = nil
	return result.ErrorOrNil()
}

// BuildOptions adjusts Build for a particular command.
type BuildOptions struct {
	// Hooks are merged after the metrics and debug hooks.
	Hooks domain.LifecycleHooks
	// Debug logs every node transition.
	Debug bool
}

// NewLogger creates the application logger from the log section.
func NewLogger(cfg config.LogConfig) *slog.Logger {
	return logging.NewWithFormat(cfg.Format, logging.ParseLevel(cfg.Level))
}

// Build wires the engine, its adapters and the session manager from cfg.
// Adapters that are not configured are left out so the engine degrades to
// its fallbacks. On error every resource opened so far is released.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, bo BuildOptions) (app *App, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	app = &App{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			_ = app.Close()
			app = nil
		}
	}()

	hooks := metrics.Hooks()
	if bo.Debug {
		hooks = hooks.Merge(createDebugHooks(logger))
	}
	hooks = hooks.Merge(bo.Hooks)

	engineOpts := []babsim.Option{
		babsim.WithLogger(logger),
		babsim.WithLifecycleHooks(hooks),
		babsim.WithMaxRefinements(cfg.Pipeline.MaxRefinements),
		babsim.WithGenerationTimeout(cfg.Pipeline.GenerationTimeout),
		babsim.WithVectorSearchLimit(cfg.Pipeline.VectorSearchLimit),
	}

	llm, embedder, err := buildModels(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if llm != nil {
		engineOpts = append(engineOpts, babsim.WithLLM(llm))
	}

	if cfg.WebSearch.Provider == "serpapi" && cfg.WebSearch.APIKey != "" {
		client := httpx.New(cfg.WebSearch.HTTP, httpx.WithLogger(logger))
		searcher := serpapi.New(serpapi.Config{
			APIKey:   cfg.WebSearch.APIKey,
			Endpoint: cfg.WebSearch.Endpoint,
			CacheTTL: cfg.WebSearch.CacheTTL,
			CacheMax: cfg.WebSearch.CacheMax,
		}, client, serpapi.WithLogger(logger))
		engineOpts = append(engineOpts, babsim.WithWebSearcher(searcher))
	}

	vectors, err := app.buildVectorStore(ctx, embedder)
	if err != nil {
		return nil, err
	}
	if vectors != nil {
		engineOpts = append(engineOpts, babsim.WithVectorStore(vectors))
	}

	if cfg.Generation.BaseURL != "" {
		gen := openai.NewGenerator(openai.GeneratorConfig{
			Config: openai.Config{
				APIKey:  cfg.Generation.APIKey,
				BaseURL: cfg.Generation.BaseURL,
				Model:   cfg.Generation.Model,
			},
			MaxInputTokens: cfg.Generation.MaxInputTokens,
		}, openai.WithLogger(logger))
		engineOpts = append(engineOpts, babsim.WithTextGenerator(gen), babsim.WithSDQueryGenerator(gen))
	}

	params, err := cfg.Diffusion.GenerationParams()
	if err != nil {
		return nil, err
	}
	engineOpts = append(engineOpts, babsim.WithImageParams(params))
	if cfg.Diffusion.BaseURL != "" {
		client := httpx.New(cfg.Diffusion.HTTP, httpx.WithLogger(logger))
		engineOpts = append(engineOpts, babsim.WithImageGenerator(
			diffusion.New(cfg.Diffusion.BaseURL, cfg.Diffusion.OutputDir, client, diffusion.WithLogger(logger)),
		))
	}

	app.Engine = babsim.New(engineOpts...)

	store, locker, err := app.buildStore(ctx)
	if err != nil {
		return nil, err
	}
	sessOpts := []session.Option{session.WithLogger(logger)}
	if locker != nil {
		sessOpts = append(sessOpts,
			session.WithLocker(locker),
			session.WithLockTTL(sessionLockTTL(cfg.Pipeline)),
		)
	}
	app.Sessions = session.NewManager(app.Engine, store, sessOpts...)

	logger.Debug("babsim wired",
		"llm", cfg.LLM.Provider,
		"vectordb", cfg.VectorDB.Provider,
		"store", cfg.Store.Backend,
		"web_search", cfg.WebSearch.APIKey != "",
		"generation", cfg.Generation.BaseURL != "",
		"diffusion", cfg.Diffusion.BaseURL != "")
	return app, nil
}

// buildModels returns the judge model and the embedder. Either may be nil.
func buildModels(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ports.Completer, ports.Embedder, error) {
	var (
		llm      ports.Completer
		embedder ports.Embedder
		gem      *gemini.Client
	)

	useGemini := (cfg.LLM.Provider == "gemini" && cfg.LLM.APIKey != "") ||
		(cfg.Embedding.Provider == "gemini" && cfg.Embedding.APIKey != "")
	if useGemini {
		key := cfg.LLM.APIKey
		if cfg.LLM.Provider != "gemini" {
			key = cfg.Embedding.APIKey
		}
		c, err := gemini.New(ctx, gemini.Config{
			APIKey:         key,
			BaseURL:        cfg.LLM.BaseURL,
			Model:          cfg.LLM.Model,
			EmbeddingModel: cfg.Embedding.Model,
			Dimensions:     cfg.Embedding.Dimensions,
		}, gemini.WithLogger(logger))
		if err != nil {
			return nil, nil, err
		}
		gem = c
	}

	switch cfg.LLM.Provider {
	case "openai":
		oc := openai.Config{APIKey: cfg.LLM.APIKey, BaseURL: cfg.LLM.BaseURL, Model: cfg.LLM.Model}
		if oc.Configured() {
			llm = openai.NewCompleter(oc, openai.WithLogger(logger))
		} else {
			logger.Warn("no LLM credentials, using keyword heuristics")
		}
	case "gemini":
		if gem != nil {
			llm = gem
		}
	}

	switch cfg.Embedding.Provider {
	case "openai":
		oc := openai.Config{APIKey: cfg.Embedding.APIKey, BaseURL: cfg.Embedding.BaseURL, Model: cfg.Embedding.Model}
		if oc.Configured() {
			embedder = openai.NewEmbedder(oc, cfg.Embedding.Dimensions, openai.WithLogger(logger))
		}
	case "gemini":
		if gem != nil {
			embedder = gem
		}
	}
	return llm, embedder, nil
}

func (a *App) buildVectorStore(ctx context.Context, embedder ports.Embedder) (ports.VectorStore, error) {
	cfg := a.Config.VectorDB
	if cfg.Provider == "none" {
		return nil, nil
	}
	if embedder == nil {
		a.Logger.Warn("vector database configured without an embedder, skipping", "provider", cfg.Provider)
		return nil, nil
	}

	switch cfg.Provider {
	case "qdrant":
		client := httpx.New(cfg.HTTP, httpx.WithLogger(a.Logger))
		s := qdrant.New(cfg.QdrantURL(), cfg.Collection, embedder, client, qdrant.WithLogger(a.Logger))
		a.Indexer = s
		return s, nil
	case "milvus":
		s, err := milvus.Dial(ctx, cfg.Address, cfg.Collection, embedder, milvus.WithLogger(a.Logger))
		if err != nil {
			// an unreachable vector database only disables retrieval
			a.Logger.Warn("milvus unavailable, vector search disabled", "address", cfg.Address, "err", err)
			return nil, nil
		}
		a.closers = append(a.closers, s)
		a.Indexer = s
		return s, nil
	}
	return nil, fmt.Errorf("unsupported vectordb provider %q", cfg.Provider)
}

func (a *App) buildStore(ctx context.Context) (ports.HistoryStore, ports.DistributedLocker, error) {
	cfg := a.Config.Store

	var (
		store  ports.HistoryStore
		locker ports.DistributedLocker
	)
	switch cfg.Backend {
	case "memory":
		store = memory.NewStore()
	case "redis":
		rs := redis.New(cfg.RedisAddr, "", 0, redis.WithTTL(cfg.TTL))
		if err := rs.Client().Ping(ctx).Err(); err != nil {
			_ = rs.Close()
			return nil, nil, domain.Unavailable("redis", err)
		}
		a.closers = append(a.closers, rs)
		store = rs
		locker = redis.NewLocker(rs.Client(), rs.Prefix())
	case "postgres", "sqlite":
		if guessed := sqlstore.DriverFromDSN(cfg.DSN); guessed != cfg.Backend {
			a.Logger.Warn("store dsn does not look like the configured backend", "backend", cfg.Backend, "guessed", guessed)
		}
		ss, err := sqlstore.Open(ctx, cfg.Backend, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, ss)
		store = ss
	default:
		return nil, nil, errors.New("unsupported store backend " + cfg.Backend)
	}

	var mws []middleware.Middleware
	if cfg.MaskPII {
		mws = append(mws, middleware.NewPIIMiddleware(middleware.DefaultPIIPatterns))
	}
	key, err := cfg.EncryptionKeyBytes()
	if err != nil {
		return nil, nil, err
	}
	if key != nil {
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}))
	}
	return middleware.Chain(store, mws...), locker, nil
}
