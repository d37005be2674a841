// Package gemini adapts the Gemini API to the judge and embedding ports.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/internal/logging"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/domain"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/ports"
	"google.golang.org/genai"
)

const defaultEmbeddingModel = "gemini-embedding-001"

// Config selects the model and credentials.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	// EmbeddingModel and Dimensions are used by the Embedder.
	EmbeddingModel string
	Dimensions     int
}

// Client implements ports.Completer and ports.Embedder.
type Client struct {
	client         *genai.Client
	model          string
	embeddingModel string
	dimensions     int
	logger         *slog.Logger
}

// Option configures a Client.
type Option func(*Client, *genai.ClientConfig)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client, _ *genai.ClientConfig) {
		c.logger = logger
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(_ *Client, cc *genai.ClientConfig) {
		cc.HTTPClient = hc
	}
}

// New creates a Client. It fails when no API key is configured.
func New(ctx context.Context, cfg Config, opts ...Option) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, domain.Unavailable("gemini", errors.New("GEMINI_API_KEY is not set"))
	}
	c := &Client{
		model:          cfg.Model,
		embeddingModel: cfg.EmbeddingModel,
		dimensions:     cfg.Dimensions,
		logger:         logging.NewNop(),
	}
	if c.embeddingModel == "" {
		c.embeddingModel = defaultEmbeddingModel
	}
	if c.dimensions <= 0 {
		c.dimensions = 768
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions.BaseURL = cfg.BaseURL
	}
	for _, o := range opts {
		o(c, cc)
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, domain.Unavailable("gemini", fmt.Errorf("failed to create client: %w", err))
	}
	c.client = client
	return c, nil
}

var _ ports.Completer = (*Client)(nil)
var _ ports.Embedder = (*Client)(nil)

// Complete runs one generateContent call.
func (c *Client) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(req.Temperature)),
		MaxOutputTokens: int32(req.MaxTokens),
	}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(req.User), config)
	if err != nil {
		return "", classify("gemini complete", err)
	}
	out := strings.TrimSpace(resp.Text())
	if out == "" {
		return "", domain.Unparseable("gemini complete", errors.New("empty completion"))
	}
	c.logger.Debug("gemini completion", "model", c.model, "chars", len(out))
	return out, nil
}

// Embed returns the embedding of text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(text, genai.RoleUser),
	}
	result, err := c.client.Models.EmbedContent(ctx, c.embeddingModel, contents, nil)
	if err != nil {
		return nil, classify("gemini embed", err)
	}
	if len(result.Embeddings) == 0 || len(result.Embeddings[0].Values) == 0 {
		return nil, domain.Unparseable("gemini embed", errors.New("no embeddings returned"))
	}
	return result.Embeddings[0].Values, nil
}

func (c *Client) Dimensions() int {
	return c.dimensions
}

func classify(op string, err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
			return domain.Unavailable(op, err)
		}
		return domain.CallFailed(op, err)
	}
	return domain.CallFailed(op, err)
}
