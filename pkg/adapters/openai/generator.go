package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/domain"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/model"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/prompt"
	oa "github.com/openai/openai-go/v2"
)

const (
	answerMaxTokens      = 200
	answerTemperature    = 0.7
	sdMaxTokens          = 150
	sdTemperature        = 0.8
	defaultMaxInputToken = 512
)

// served is the loaded model: a client bound to a model id the server knows.
type served struct {
	client oa.Client
	model  string
}

// Generator implements ports.TextGenerator and ports.SDQueryGenerator on
// top of a single served instruction model. Calls are serialized through a
// model.Handle, which also checks on first use that the model is served.
type Generator struct {
	handle         *model.Handle[served]
	budget         *TokenBudget
	maxInputTokens int
	logger         *slog.Logger
}

// GeneratorConfig configures a Generator.
type GeneratorConfig struct {
	Config
	// MaxInputTokens bounds the prompt sent for answer generation.
	MaxInputTokens int
}

// NewGenerator creates a Generator. The model is not contacted until the
// first call.
func NewGenerator(cfg GeneratorConfig, opts ...Option) *Generator {
	s := newSettings(opts)
	if cfg.MaxInputTokens <= 0 {
		cfg.MaxInputTokens = defaultMaxInputToken
	}

	load := func(ctx context.Context) (served, error) {
		if !cfg.Configured() {
			return served{}, errors.New("generation endpoint not configured")
		}
		client := oa.NewClient(cfg.options(s.hc)...)
		if _, err := client.Models.Get(ctx, cfg.Model); err != nil {
			return served{}, fmt.Errorf("model %s: %w", cfg.Model, err)
		}
		s.logger.Info("generation model ready", "model", cfg.Model)
		return served{client: client, model: cfg.Model}, nil
	}

	return &Generator{
		handle:         model.NewHandle(cfg.Model, load),
		budget:         &TokenBudget{},
		maxInputTokens: cfg.MaxInputTokens,
		logger:         s.logger,
	}
}

// Generate answers query from context. The context is trimmed so the whole
// prompt fits the input budget.
func (g *Generator) Generate(ctx context.Context, query, contextText string) (string, error) {
	var out string
	err := g.handle.With(ctx, func(m served) error {
		p := g.fitAnswerPrompt(query, contextText)
		text, err := chat(ctx, m.client, m.model, "", p, answerMaxTokens, answerTemperature)
		if err != nil {
			return classify("generate answer", err)
		}
		out = text
		return nil
	})
	if err != nil {
		return "", err
	}
	if out == "" {
		return "", domain.Unparseable("generate answer", errors.New("empty generation"))
	}
	return out, nil
}

func (g *Generator) fitAnswerPrompt(query, contextText string) string {
	p := prompt.Answer(query, contextText)
	if g.budget.Count(p) <= g.maxInputTokens || contextText == "" {
		return p
	}
	overhead := g.budget.Count(prompt.Answer(query, ""))
	room := g.maxInputTokens - overhead
	if room <= 0 {
		return prompt.Answer(query, "")
	}
	return prompt.Answer(query, g.budget.Truncate(contextText, room))
}

// GenerateSDExplanation describes the image produced for sdPrompt.
func (g *Generator) GenerateSDExplanation(ctx context.Context, sdPrompt, originalQuery string, elements domain.CategorizedQuery) (string, error) {
	var out string
	err := g.handle.With(ctx, func(m served) error {
		text, err := chat(ctx, m.client, m.model, "", prompt.SDExplanation(sdPrompt, originalQuery, elements), sdMaxTokens, sdTemperature)
		if err != nil {
			return classify("generate sd explanation", err)
		}
		out = text
		return nil
	})
	if err != nil {
		return "", err
	}
	if out == "" {
		return "", domain.Unparseable("generate sd explanation", errors.New("empty generation"))
	}
	return out, nil
}

// GenerateSDQuery synthesizes a Stable Diffusion prompt for the request.
func (g *Generator) GenerateSDQuery(ctx context.Context, query domain.CategorizedQuery, creativeContext string) (domain.SDQuery, error) {
	var out string
	err := g.handle.With(ctx, func(m served) error {
		text, err := chat(ctx, m.client, m.model, "", prompt.SDQuery(query, creativeContext), sdMaxTokens, sdTemperature)
		if err != nil {
			return classify("generate sd query", err)
		}
		out = text
		return nil
	})
	if err != nil {
		return domain.SDQuery{}, err
	}
	sd := prompt.ParseSDResponse(out)
	if sd.Prompt == "" {
		return domain.SDQuery{}, domain.Unparseable("generate sd query", errors.New("empty prompt"))
	}
	return sd, nil
}
