package ports

import (
	"context"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/domain"
)

// IntentClassifier maps a query to one of the four intents. It never fails.
type IntentClassifier interface {
	Classify(ctx context.Context, query string) domain.Intent
}

// QueryAnalyzer makes the judgements that steer the pipeline. Every method
// degrades to a heuristic instead of failing.
type QueryAnalyzer interface {
	AnalyzeAdditionalDataNeeds(ctx context.Context, query string) bool
	CategorizeImageQuery(ctx context.Context, query string) domain.CategorizedQuery
	AnalyzeSearchSufficiency(ctx context.Context, query string, results []domain.SearchResult) (bool, string)
	AnalyzeAnswerQuality(ctx context.Context, query, answer string) bool
	RefineQuery(ctx context.Context, query string) string
}
