package babsim

import (
	"context"
	"log/slog"
	"time"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/internal/logging"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/internal/runtime"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/analyzer"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/classifier"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/domain"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/ports"
)

// Version is the release of the babsim pipeline.
var Version = "0.3.0"

// Engine is the high-level entry point for the babsim library.
// It wraps the internal runtime and provides a simplified API for consumers.
type Engine struct {
	runtime *runtime.Engine

	llm        ports.Completer
	classifier ports.IntentClassifier
	analyzer   ports.QueryAnalyzer

	runtimeOpts []runtime.EngineOption
	timeout     time.Duration
	logger      *slog.Logger
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLLM sets the judge model shared by the default classifier and analyzer.
func WithLLM(llm ports.Completer) Option {
	return func(e *Engine) {
		e.llm = llm
	}
}

// WithClassifier replaces the default intent classifier.
func WithClassifier(c ports.IntentClassifier) Option {
	return func(e *Engine) {
		e.classifier = c
	}
}

// WithAnalyzer replaces the default query analyzer.
func WithAnalyzer(a ports.QueryAnalyzer) Option {
	return func(e *Engine) {
		e.analyzer = a
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithLifecycleHooks(hooks))
	}
}

// WithMaxRefinements caps the refinement loop. Zero disables refinement.
func WithMaxRefinements(n int) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithMaxRefinements(n))
	}
}

// WithGenerationTimeout bounds every generation call and every call made by
// the default classifier and analyzer.
func WithGenerationTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d <= 0 {
			return
		}
		e.timeout = d
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithGenerationTimeout(d))
	}
}

// WithVectorSearchLimit sets how many hits vector search asks for.
func WithVectorSearchLimit(n int) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithVectorSearchLimit(n))
	}
}

// WithImageParams sets the diffusion parameters of the image branch.
func WithImageParams(p domain.GenerationParams) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithImageParams(p))
	}
}

// WithWebSearcher sets the search backend of the web_search node.
func WithWebSearcher(w ports.WebSearcher) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithWebSearcher(w))
	}
}

// WithVectorStore sets the knowledge base queried by qdrant_search.
func WithVectorStore(v ports.VectorStore) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithVectorStore(v))
	}
}

// WithTextGenerator sets the model that writes answers.
func WithTextGenerator(g ports.TextGenerator) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithTextGenerator(g))
	}
}

// WithSDQueryGenerator sets the model that writes diffusion prompts and image explanations.
func WithSDQueryGenerator(g ports.SDQueryGenerator) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithSDQueryGenerator(g))
	}
}

// WithImageGenerator sets the diffusion backend of the image branch.
func WithImageGenerator(g ports.ImageGenerator) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithImageGenerator(g))
	}
}

// New builds an Engine. Without options it runs fully offline: intents and
// judgements come from keyword heuristics and every generation step uses its
// fallback.
func New(opts ...Option) *Engine {
	eng := &Engine{timeout: runtime.DefaultGenerationTimeout}
	for _, opt := range opts {
		opt(eng)
	}

	// so we don't pass nil to the runtime, which would keep its own default
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.classifier == nil {
		eng.classifier = classifier.New(eng.llm,
			classifier.WithLogger(eng.logger),
			classifier.WithTimeout(eng.timeout),
		)
	}
	if eng.analyzer == nil {
		eng.analyzer = analyzer.New(eng.llm,
			analyzer.WithLogger(eng.logger),
			analyzer.WithTimeout(eng.timeout),
		)
	}

	runtimeOpts := append([]runtime.EngineOption{runtime.WithLogger(eng.logger)}, eng.runtimeOpts...)
	eng.runtime = runtime.NewEngine(eng.classifier, eng.analyzer, runtimeOpts...)
	return eng
}

// Run processes query and returns the final pipeline state. It never fails.
// Attach a session id with domain.WithSessionID to correlate logs and events.
func (e *Engine) Run(ctx context.Context, query string) *domain.PipelineState {
	return e.runtime.Run(ctx, query)
}

// Classifier returns the intent classifier used by the engine.
func (e *Engine) Classifier() ports.IntentClassifier {
	return e.classifier
}

// Analyzer returns the query analyzer used by the engine.
func (e *Engine) Analyzer() ports.QueryAnalyzer {
	return e.analyzer
}

// MaxRefinements returns the configured refinement cap.
func (e *Engine) MaxRefinements() int {
	return e.runtime.MaxRefinements()
}

// Inspect returns the pipeline's edge list for visualization or introspection tools.
func (e *Engine) Inspect() []domain.Edge {
	return domain.Graph()
}
