package openai

import (
	"context"
	"errors"
	"log/slog"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/domain"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/ports"
	oa "github.com/openai/openai-go/v2"
)

// Completer implements ports.Completer with the chat completions API.
type Completer struct {
	client oa.Client
	model  string
	logger *slog.Logger
}

// NewCompleter creates a Completer.
func NewCompleter(cfg Config, opts ...Option) *Completer {
	s := newSettings(opts)
	return &Completer{
		client: oa.NewClient(cfg.options(s.hc)...),
		model:  cfg.Model,
		logger: s.logger,
	}
}

// Complete runs one completion.
func (c *Completer) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	out, err := chat(ctx, c.client, c.model, req.System, req.User, req.MaxTokens, req.Temperature)
	if err != nil {
		return "", classify("openai complete", err)
	}
	if out == "" {
		return "", domain.Unparseable("openai complete", errors.New("empty completion"))
	}
	c.logger.Debug("openai completion", "model", c.model, "chars", len(out))
	return out, nil
}
