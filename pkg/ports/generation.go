package ports

import (
	"context"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/domain"
)

// TextGenerator produces answers and image explanations.
type TextGenerator interface {
	Generate(ctx context.Context, query, context string) (string, error)
	GenerateSDExplanation(ctx context.Context, sdPrompt, originalQuery string, elements domain.CategorizedQuery) (string, error)
}

// SDQueryGenerator synthesizes an image prompt from a categorized request.
type SDQueryGenerator interface {
	GenerateSDQuery(ctx context.Context, query domain.CategorizedQuery, creativeContext string) (domain.SDQuery, error)
}

// ImageGenerator renders an image from a prompt.
type ImageGenerator interface {
	GenerateWithMetadata(ctx context.Context, prompt string, params domain.GenerationParams) (*domain.ImageResult, error)
}
