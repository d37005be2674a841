// Package openai adapts OpenAI-compatible endpoints to the pipeline ports:
// the judge Completer, the Embedder, and the answer and prompt generators
// served by an OpenAI-compatible inference server.
package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/internal/logging"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/domain"
	oa "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

// Config selects an endpoint and model.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Configured reports whether there is anything to talk to.
func (c Config) Configured() bool {
	return c.APIKey != "" || c.BaseURL != ""
}

func (c Config) options(hc *http.Client) []option.RequestOption {
	opts := []option.RequestOption{option.WithMaxRetries(1)}
	if c.APIKey != "" {
		opts = append(opts, option.WithAPIKey(c.APIKey))
	} else {
		// self-hosted servers usually ignore the key but the header is required
		opts = append(opts, option.WithAPIKey("unused"))
	}
	if c.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(c.BaseURL))
	}
	if hc != nil {
		opts = append(opts, option.WithHTTPClient(hc))
	}
	return opts
}

// Option configures the adapters of this package.
type Option func(*settings)

type settings struct {
	logger *slog.Logger
	hc     *http.Client
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithHTTPClient replaces the HTTP client used by the SDK.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *settings) {
		s.hc = hc
	}
}

func newSettings(opts []Option) settings {
	s := settings{logger: logging.NewNop()}
	for _, o := range opts {
		o(&s)
	}
	return s
}

// chat sends a single system+user exchange and returns the trimmed content.
func chat(ctx context.Context, client oa.Client, model, system, user string, maxTokens int, temperature float64) (string, error) {
	msgs := make([]oa.ChatCompletionMessageParamUnion, 0, 2)
	if system != "" {
		msgs = append(msgs, oa.SystemMessage(system))
	}
	msgs = append(msgs, oa.UserMessage(user))

	resp, err := client.Chat.Completions.New(ctx, oa.ChatCompletionNewParams{
		Model:       oa.ChatModel(model),
		Messages:    msgs,
		MaxTokens:   oa.Int(int64(maxTokens)),
		Temperature: oa.Float(temperature),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("response has no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// classify maps SDK and transport errors onto the adapter error kinds.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var apiErr *oa.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
			return domain.Unavailable(op, fmt.Errorf("status %d: %w", apiErr.StatusCode, err))
		}
		return domain.CallFailed(op, fmt.Errorf("status %d: %w", apiErr.StatusCode, err))
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return domain.CallFailed(op, err)
	}
	var ae *domain.AdapterError
	if errors.As(err, &ae) {
		return err
	}
	// Dial errors and the like: the endpoint is not there.
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && !netErr.Timeout() {
		return domain.Unavailable(op, err)
	}
	return domain.CallFailed(op, err)
}
