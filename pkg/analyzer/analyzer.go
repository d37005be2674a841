// Package analyzer makes the judgement calls of the pipeline: whether a query
// needs external data, whether retrieved results suffice, whether an answer
// is acceptable, how to rewrite a query and how to decompose an image request.
//
// Every operation uses the configured LLM when there is one and falls back to
// a deterministic heuristic otherwise or when the call fails. None of them
// return errors.
package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/internal/logging"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/domain"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/ports"
)

const (
	sufficiencyResults = 3
	resultPreviewRunes = 200
	minAnswerRunes     = 10
)

// Analyzer evaluates queries, results and answers.
type Analyzer struct {
	llm     ports.Completer
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures the Analyzer.
type Option func(*Analyzer)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) {
		a.logger = logger
	}
}

// WithTimeout bounds each LLM call. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(a *Analyzer) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// New creates an Analyzer. llm may be nil, in which case only heuristics are used.
func New(llm ports.Completer, opts ...Option) *Analyzer {
	a := &Analyzer{
		llm:     llm,
		timeout: 60 * time.Second,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AnalyzeAdditionalDataNeeds reports whether the query should go to web search.
func (a *Analyzer) AnalyzeAdditionalDataNeeds(ctx context.Context, query string) bool {
	if a.llm == nil {
		return len(strings.Fields(query)) > 5
	}
	out, err := a.complete(ctx, "analyze_additional_data_needs", query, ports.CompletionRequest{
		System:      dataNeedsPrompt,
		User:        "Query: " + query,
		MaxTokens:   5,
		Temperature: 0.1,
	})
	if err != nil {
		return true
	}
	return isYes(out)
}

// AnalyzeSearchSufficiency reports whether results can answer query. When they
// cannot, the second value is the query to retry with.
func (a *Analyzer) AnalyzeSearchSufficiency(ctx context.Context, query string, results []domain.SearchResult) (bool, string) {
	if len(results) == 0 {
		return false, a.RefineQuery(ctx, query)
	}
	if a.llm == nil {
		return true, query
	}

	out, err := a.complete(ctx, "analyze_search_sufficiency", query, ports.CompletionRequest{
		System:      sufficiencyPrompt,
		User:        fmt.Sprintf("Query: %s\n\nSearch Results:\n%s", query, summarize(results)),
		MaxTokens:   100,
		Temperature: 0.1,
	})
	if err != nil {
		return false, a.RefineQuery(ctx, query)
	}

	verdict := strings.TrimSpace(out)
	lower := strings.ToLower(verdict)
	switch {
	case strings.HasPrefix(lower, "sufficient"):
		return true, query
	case strings.HasPrefix(lower, "insufficient:"):
		refined := strings.TrimSpace(verdict[len("insufficient:"):])
		if refined == "" {
			return false, a.RefineQuery(ctx, query)
		}
		return false, refined
	}
	a.logger.Debug("unexpected sufficiency verdict", "verdict", verdict)
	return false, a.RefineQuery(ctx, query)
}

// AnalyzeAnswerQuality reports whether answer is an acceptable reply to query.
func (a *Analyzer) AnalyzeAnswerQuality(ctx context.Context, query, answer string) bool {
	if a.llm == nil {
		return utf8.RuneCountInString(answer) > minAnswerRunes && sharesWord(query, answer)
	}
	out, err := a.complete(ctx, "analyze_answer_quality", query, ports.CompletionRequest{
		System:      answerQualityPrompt,
		User:        fmt.Sprintf("Query: %s\n\nAnswer: %s", query, answer),
		MaxTokens:   5,
		Temperature: 0.1,
	})
	if err != nil {
		return utf8.RuneCountInString(strings.TrimSpace(answer)) > minAnswerRunes
	}
	return isYes(out)
}

// RefineQuery rewrites query to retrieve better results.
func (a *Analyzer) RefineQuery(ctx context.Context, query string) string {
	generic := query + " detailed information"
	if a.llm == nil {
		return generic
	}
	out, err := a.complete(ctx, "refine_query", query, ports.CompletionRequest{
		System:      refinePrompt,
		User:        "Original query: " + query,
		MaxTokens:   100,
		Temperature: 0.3,
	})
	if err != nil {
		return generic
	}
	if refined := strings.TrimSpace(out); refined != "" {
		return refined
	}
	return generic
}

func (a *Analyzer) complete(ctx context.Context, op, query string, req ports.CompletionRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	out, err := a.llm.Complete(ctx, req)
	if err != nil {
		a.logFailure(op, query, err)
		return "", err
	}
	return out, nil
}

func (a *Analyzer) logFailure(op, query string, err error) {
	switch domain.KindOf(err) {
	case domain.KindUnavailable:
		a.logger.Warn("analyzer model unavailable, using heuristic", "op", op, "query", query, "err", err)
	case domain.KindUnparseable:
		a.logger.Warn("analyzer output unparseable, using heuristic", "op", op, "query", query, "err", err)
	default:
		a.logger.Error("analyzer call failed, using heuristic", "op", op, "query", query, "err", err)
	}
}

func summarize(results []domain.SearchResult) string {
	n := len(results)
	if n > sufficiencyResults {
		n = sufficiencyResults
	}
	lines := make([]string, 0, n)
	for i := 0; i < n; i++ {
		lines = append(lines, fmt.Sprintf("Result %d: %s...", i+1, truncateRunes(results[i].Content, resultPreviewRunes)))
	}
	return strings.Join(lines, "\n")
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func sharesWord(query, answer string) bool {
	words := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(query)) {
		words[w] = struct{}{}
	}
	for _, w := range strings.Fields(strings.ToLower(answer)) {
		if _, ok := words[w]; ok {
			return true
		}
	}
	return false
}

func isYes(s string) bool {
	return strings.Trim(strings.ToLower(strings.TrimSpace(s)), "'\".") == "yes"
}
