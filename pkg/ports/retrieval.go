package ports

import (
	"context"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/domain"
)

// WebSearcher queries a web search provider.
type WebSearcher interface {
	Search(ctx context.Context, query string) (*domain.WebSearchResponse, error)
}

// VectorStore retrieves the closest knowledge snippets for a query.
type VectorStore interface {
	Retrieve(ctx context.Context, query string, limit int) ([]domain.SearchResult, error)
}

// Document is a unit of knowledge to index into a vector store.
type Document struct {
	ID       string
	Content  string
	Metadata map[string]any
}

// Indexer is implemented by vector stores that accept new documents.
type Indexer interface {
	EnsureCollection(ctx context.Context) error
	Upsert(ctx context.Context, docs []Document) error
}
