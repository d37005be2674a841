// Package testutils holds in-memory doubles of the pipeline collaborators.
package testutils

import (
	"context"
	"strings"
	"sync"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/domain"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/ports"
)

// Completer answers completions with Fn and records every request.
type Completer struct {
	Fn func(req ports.CompletionRequest) (string, error)

	mu       sync.Mutex
	requests []ports.CompletionRequest
}

// StaticCompleter always returns out and err.
func StaticCompleter(out string, err error) *Completer {
	return &Completer{Fn: func(ports.CompletionRequest) (string, error) { return out, err }}
}

// RoutedCompleter answers by the first route whose key occurs in the system prompt.
// Requests that match no route get def.
func RoutedCompleter(routes map[string]string, def string) *Completer {
	return &Completer{Fn: func(req ports.CompletionRequest) (string, error) {
		for k, v := range routes {
			if strings.Contains(req.System, k) {
				return v, nil
			}
		}
		return def, nil
	}}
}

func (c *Completer) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	c.mu.Lock()
	c.requests = append(c.requests, req)
	c.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", domain.CallFailed("complete", err)
	}
	return c.Fn(req)
}

// Requests returns a copy of the recorded requests.
func (c *Completer) Requests() []ports.CompletionRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]ports.CompletionRequest(nil), c.requests...)
}

// WebSearcher returns Resp or Err for every query.
type WebSearcher struct {
	Resp *domain.WebSearchResponse
	Err  error

	mu      sync.Mutex
	Queries []string
}

func (w *WebSearcher) Search(ctx context.Context, query string) (*domain.WebSearchResponse, error) {
	w.mu.Lock()
	w.Queries = append(w.Queries, query)
	w.mu.Unlock()
	return w.Resp, w.Err
}

// VectorStore returns Results or Err for every query.
type VectorStore struct {
	Results []domain.SearchResult
	Err     error

	mu      sync.Mutex
	Queries []string
}

func (v *VectorStore) Retrieve(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	v.mu.Lock()
	v.Queries = append(v.Queries, query)
	v.mu.Unlock()
	if v.Err != nil {
		return nil, v.Err
	}
	if len(v.Results) > limit {
		return v.Results[:limit], nil
	}
	return v.Results, nil
}

// TextGenerator returns fixed answers.
type TextGenerator struct {
	Answer         string
	AnswerErr      error
	Explanation    string
	ExplanationErr error
	// Block makes Generate wait for the context to end.
	Block bool
}

func (g *TextGenerator) Generate(ctx context.Context, query, context string) (string, error) {
	if g.Block {
		<-ctx.Done()
		return "", domain.CallFailed("generate", ctx.Err())
	}
	return g.Answer, g.AnswerErr
}

func (g *TextGenerator) GenerateSDExplanation(ctx context.Context, sdPrompt, originalQuery string, elements domain.CategorizedQuery) (string, error) {
	return g.Explanation, g.ExplanationErr
}

// SDQueryGenerator returns a fixed SD query.
type SDQueryGenerator struct {
	Query domain.SDQuery
	Err   error
}

func (g *SDQueryGenerator) GenerateSDQuery(ctx context.Context, q domain.CategorizedQuery, creativeContext string) (domain.SDQuery, error) {
	return g.Query, g.Err
}

// ImageGenerator echoes the prompt into a fixed image path.
type ImageGenerator struct {
	Path string
	Err  error
}

func (g *ImageGenerator) GenerateWithMetadata(ctx context.Context, prompt string, params domain.GenerationParams) (*domain.ImageResult, error) {
	if g.Err != nil {
		return nil, g.Err
	}
	return &domain.ImageResult{
		ImagePath:        g.Path,
		Prompt:           prompt,
		NegativePrompt:   params.NegativePrompt,
		GenerationParams: params,
	}, nil
}

// Embedder maps text to a deterministic vector of Dims values.
type Embedder struct {
	Dims int
	Err  error
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.Err != nil {
		return nil, e.Err
	}
	vec := make([]float32, e.Dims)
	for i, r := range text {
		vec[i%e.Dims] += float32(r%97) / 97
	}
	return vec, nil
}

func (e *Embedder) Dimensions() int {
	return e.Dims
}
