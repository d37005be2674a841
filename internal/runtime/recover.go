package runtime

import (
	"context"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/domain"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/prompt"
)

// recoverNode fills in the fallback output of a node that panicked and
// returns the node that would follow it on the non-refining path.
func (e *Engine) recoverNode(ctx context.Context, id domain.NodeID, s *domain.PipelineState) domain.NodeID {
	switch id {
	case domain.NodeClassifyIntent:
		if !s.Intent.Valid() {
			s.Intent = domain.IntentText
		}
		return routeIntent(s.Intent)
	case domain.NodeAnalyzeQuery:
		s.Metadata[domain.MetaDataSource] = domain.DataSourceVector
		return domain.NodeVectorSearch
	case domain.NodeWebSearch:
		if s.WebData == "" {
			s.WebData = webFallback(s.Query)
		}
		return domain.NodeGenerateAnswer
	case domain.NodeVectorSearch:
		if len(s.SearchResults) == 0 {
			s.SearchResults = []domain.SearchResult{{Content: "Fallback result for: " + s.Query, Score: 0.6}}
		}
		return domain.NodeGenerateAnswer
	case domain.NodeRefineQuery:
		s.RefinedQuery = ""
		return domain.NodeVectorSearch
	case domain.NodeGenerateAnswer:
		if s.Response == "" {
			s.Response = prompt.AnswerError(s.Query)
		}
		return domain.NodeAnalyzeAnswer
	case domain.NodeAnalyzeAnswer:
		s.Metadata[domain.MetaForcedAccept] = true
		return domain.NodeEnd
	case domain.NodeCategorizeImageQuery:
		s.CategorizedQuery = domain.EmptyCategorizedQuery()
		return domain.NodeCreativeWebSearch
	case domain.NodeCreativeWebSearch:
		if s.CreativeContext == "" {
			s.CreativeContext = prompt.CreativeFallback(s.CategorizedQuery)
		}
		return domain.NodeGenerateSDQuery
	case domain.NodeGenerateSDQuery:
		if s.SDPrompt == "" {
			sd := prompt.FallbackSDQuery(s.CategorizedQuery, s.CreativeContext)
			s.SDPrompt = prompt.OptimizeForCLIP(sd.Prompt, prompt.CLIPTokenLimit)
			s.SDExplanation = sd.Explanation
		}
		return domain.NodeGenerateImage
	case domain.NodeGenerateImage:
		if s.Image == "" {
			s.Image = ErrorImage
		}
		if _, ok := s.Metadata[domain.MetaSDGenerationArgs]; !ok {
			s.Metadata[domain.MetaSDGenerationArgs] = e.imageParams.AsMap()
		}
		return domain.NodeGenerateImageExplanation
	case domain.NodeGenerateImageExplanation:
		if s.Response == "" {
			s.ImageExplanation = prompt.FallbackExplanation(s.Query, s.CategorizedQuery)
			s.Response = s.ImageExplanation
		}
		return domain.NodeEnd
	}
	return domain.NodeEnd
}
