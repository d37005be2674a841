// Package runtime drives a query through the babsim pipeline.
//
// The pipeline is a fixed state machine: every node is a NodeID, step is the
// transition function and Run is the driver loop. Nodes never fail. Adapter
// errors are replaced by fallback values so that a run always completes.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/internal/logging"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/domain"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/ports"
)

const (
	DefaultMaxRefinements    = 2
	DefaultGenerationTimeout = 60 * time.Second
	DefaultVectorSearchLimit = 5
)

// Engine runs the pipeline. It holds no per-run state and is safe for
// concurrent use.
type Engine struct {
	classifier ports.IntentClassifier
	analyzer   ports.QueryAnalyzer

	web     ports.WebSearcher
	vectors ports.VectorStore
	text    ports.TextGenerator
	sd      ports.SDQueryGenerator
	images  ports.ImageGenerator

	maxRefinements    int
	generationTimeout time.Duration
	searchLimit       int
	imageParams       domain.GenerationParams

	hooks  domain.LifecycleHooks
	logger *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithMaxRefinements caps the refinement loop. Zero disables refinement.
func WithMaxRefinements(n int) EngineOption {
	return func(e *Engine) {
		if n >= 0 {
			e.maxRefinements = n
		}
	}
}

// WithGenerationTimeout bounds every generation call.
func WithGenerationTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.generationTimeout = d
		}
	}
}

// WithVectorSearchLimit sets how many hits vector search asks for.
func WithVectorSearchLimit(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.searchLimit = n
		}
	}
}

// WithImageParams sets the diffusion parameters used by the image branch.
func WithImageParams(p domain.GenerationParams) EngineOption {
	return func(e *Engine) {
		e.imageParams = p.WithDefaults()
	}
}

// WithWebSearcher sets the web search backend.
func WithWebSearcher(w ports.WebSearcher) EngineOption {
	return func(e *Engine) { e.web = w }
}

// WithVectorStore sets the knowledge base.
func WithVectorStore(v ports.VectorStore) EngineOption {
	return func(e *Engine) { e.vectors = v }
}

// WithTextGenerator sets the answer model.
func WithTextGenerator(g ports.TextGenerator) EngineOption {
	return func(e *Engine) { e.text = g }
}

// WithSDQueryGenerator sets the diffusion prompt model.
func WithSDQueryGenerator(g ports.SDQueryGenerator) EngineOption {
	return func(e *Engine) { e.sd = g }
}

// WithImageGenerator sets the diffusion backend.
func WithImageGenerator(g ports.ImageGenerator) EngineOption {
	return func(e *Engine) { e.images = g }
}

// NewEngine creates an engine. Collaborators left unset behave as unavailable
// and the matching nodes use their fallbacks.
func NewEngine(classifier ports.IntentClassifier, analyzer ports.QueryAnalyzer, opts ...EngineOption) *Engine {
	e := &Engine{
		classifier:        classifier,
		analyzer:          analyzer,
		maxRefinements:    DefaultMaxRefinements,
		generationTimeout: DefaultGenerationTimeout,
		searchLimit:       DefaultVectorSearchLimit,
		imageParams:       domain.DefaultGenerationParams(),
		logger:            logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MaxRefinements returns the configured refinement cap.
func (e *Engine) MaxRefinements() int {
	return e.maxRefinements
}

// maxSteps bounds the number of node visits of one run. The longest text
// path visits four nodes per refinement on top of the first pass.
func (e *Engine) maxSteps() int {
	return 8 + 4*(e.maxRefinements+1)
}

// Run processes query and returns the final state. It never fails: adapter
// errors and panics inside nodes are replaced by fallback values, and panics
// inside lifecycle hooks are logged.
func (e *Engine) Run(ctx context.Context, query string) *domain.PipelineState {
	start := time.Now()
	state := domain.NewPipelineState(query, e.maxRefinements)
	logger := e.logger.With("session_id", domain.SessionIDFrom(ctx))
	logger.Info("pipeline started", "query", query)

	node := domain.EntryNode
	steps := 0
	for !node.IsTerminal() {
		if steps >= e.maxSteps() {
			logger.Error("pipeline step limit reached", "node", node, "steps", steps)
			state.Metadata[domain.MetaForcedAccept] = true
			break
		}
		steps++
		node = e.visit(ctx, node, state)
	}

	state.Metadata[domain.MetaRefinements] = state.Refinements
	forced, _ := state.Metadata[domain.MetaForcedAccept].(bool)
	elapsed := time.Since(start)
	logger.Info("pipeline finished",
		"intent", state.Intent,
		"steps", steps,
		"refinements", state.Refinements,
		"forced_accept", forced,
		"duration", elapsed,
	)

	if e.hooks.OnRunComplete != nil {
		e.callHook(domain.EventRunDone, func() {
			e.hooks.OnRunComplete(ctx, &domain.RunEvent{
				EventBase:    e.eventBase(ctx, domain.EventRunDone),
				Intent:       state.Intent,
				Steps:        steps,
				Refinements:  state.Refinements,
				ForcedAccept: forced,
				Duration:     elapsed,
			})
		})
	}
	return state
}

// visit runs one node and returns the next one.
func (e *Engine) visit(ctx context.Context, id domain.NodeID, state *domain.PipelineState) (next domain.NodeID) {
	state.Visited = append(state.Visited, id)
	e.emitNodeEnter(ctx, id, state)
	begin := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err := domain.CallFailed(string(id), fmt.Errorf("panic: %v", r))
			e.fallback(ctx, id, state, err)
			next = e.recoverNode(ctx, id, state)
		}
		e.emitNodeLeave(ctx, id, state, time.Since(begin))
	}()

	return e.step(ctx, id, state)
}

func (e *Engine) eventBase(ctx context.Context, t domain.EventType) domain.EventBase {
	return domain.EventBase{
		Timestamp: time.Now(),
		Type:      t,
		SessionID: domain.SessionIDFrom(ctx),
	}
}

// callHook runs a lifecycle hook. A panicking hook is logged and ignored.
func (e *Engine) callHook(t domain.EventType, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("lifecycle hook panicked", "event", t, "panic", r)
		}
	}()
	fn()
}

func (e *Engine) emitNodeEnter(ctx context.Context, id domain.NodeID, state *domain.PipelineState) {
	if e.hooks.OnNodeEnter != nil {
		e.callHook(domain.EventNodeEnter, func() {
			e.hooks.OnNodeEnter(ctx, &domain.NodeEvent{
				EventBase: e.eventBase(ctx, domain.EventNodeEnter),
				NodeID:    id,
				Intent:    state.Intent,
			})
		})
	}
}

func (e *Engine) emitNodeLeave(ctx context.Context, id domain.NodeID, state *domain.PipelineState, d time.Duration) {
	if e.hooks.OnNodeLeave != nil {
		e.callHook(domain.EventNodeLeave, func() {
			e.hooks.OnNodeLeave(ctx, &domain.NodeEvent{
				EventBase: e.eventBase(ctx, domain.EventNodeLeave),
				NodeID:    id,
				Intent:    state.Intent,
				Duration:  d,
			})
		})
	}
}

// fallback logs an adapter failure and reports it to the hooks. Unavailable
// collaborators are expected in partial deployments and log at warn level.
func (e *Engine) fallback(ctx context.Context, id domain.NodeID, state *domain.PipelineState, err error) {
	kind := domain.KindOf(err)
	attrs := []any{"node", id, "kind", kind.String(), "query", state.Query, "err", err}
	if kind == domain.KindUnavailable {
		e.logger.Warn("adapter unavailable, using fallback", attrs...)
	} else {
		e.logger.Error("adapter call failed, using fallback", attrs...)
	}

	if e.hooks.OnFallback != nil {
		op := string(id)
		if ae, ok := asAdapterError(err); ok && ae.Op != "" {
			op = ae.Op
		}
		e.callHook(domain.EventFallback, func() {
			e.hooks.OnFallback(ctx, &domain.FallbackEvent{
				EventBase: e.eventBase(ctx, domain.EventFallback),
				NodeID:    id,
				Op:        op,
				Kind:      kind,
				Err:       err.Error(),
			})
		})
	}
}
