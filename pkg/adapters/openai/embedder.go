package openai

import (
	"context"
	"errors"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/domain"
	oa "github.com/openai/openai-go/v2"
)

// Embedder implements ports.Embedder with the embeddings API.
type Embedder struct {
	client     oa.Client
	model      string
	dimensions int
}

// NewEmbedder creates an Embedder producing vectors of the given size.
func NewEmbedder(cfg Config, dimensions int, opts ...Option) *Embedder {
	s := newSettings(opts)
	return &Embedder{
		client:     oa.NewClient(cfg.options(s.hc)...),
		model:      cfg.Model,
		dimensions: dimensions,
	}
}

func (e *Embedder) Dimensions() int {
	return e.dimensions
}

// Embed returns the embedding of text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	params := oa.EmbeddingNewParams{
		Input: oa.EmbeddingNewParamsInputUnion{OfString: oa.String(text)},
		Model: oa.EmbeddingModel(e.model),
	}
	if e.dimensions > 0 {
		params.Dimensions = oa.Int(int64(e.dimensions))
	}

	resp, err := e.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, classify("openai embed", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, domain.Unparseable("openai embed", errors.New("empty embedding"))
	}

	vec := make([]float32, len(resp.Data[0].Embedding))
	for i, v := range resp.Data[0].Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}
