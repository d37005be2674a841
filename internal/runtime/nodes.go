package runtime

import (
	"context"
	"errors"
	"strings"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/domain"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/prompt"
)

// Placeholder artifacts.
const (
	PlaceholderImage = "placeholder_image_path.png"
	ErrorImage       = "error_image_path.png"
	Placeholder3D    = "3D image placeholder"
	PlaceholderVideo = "Video placeholder"
)

const (
	webSnippets      = 3
	creativeSnippets = 5
)

// step executes node id against state and returns the next node.
func (e *Engine) step(ctx context.Context, id domain.NodeID, s *domain.PipelineState) domain.NodeID {
	switch id {
	case domain.NodeClassifyIntent:
		return e.classifyIntent(ctx, s)
	case domain.NodeAnalyzeQuery:
		return e.analyzeQuery(ctx, s)
	case domain.NodeWebSearch:
		return e.webSearch(ctx, s)
	case domain.NodeVectorSearch:
		return e.vectorSearch(ctx, s)
	case domain.NodeRefineQuery:
		return e.refineQuery(ctx, s)
	case domain.NodeGenerateAnswer:
		return e.generateAnswer(ctx, s)
	case domain.NodeAnalyzeAnswer:
		return e.analyzeAnswer(ctx, s)
	case domain.NodeCategorizeImageQuery:
		return e.categorizeImageQuery(ctx, s)
	case domain.NodeCreativeWebSearch:
		return e.creativeWebSearch(ctx, s)
	case domain.NodeGenerateSDQuery:
		return e.generateSDQuery(ctx, s)
	case domain.NodeGenerateImage:
		return e.generateImage(ctx, s)
	case domain.NodeGenerateImageExplanation:
		return e.generateImageExplanation(ctx, s)
	case domain.NodeProcess3D:
		s.Image = Placeholder3D
		return domain.NodeEnd
	case domain.NodeProcessVideo:
		s.Video = PlaceholderVideo
		return domain.NodeEnd
	}
	e.logger.Error("unknown pipeline node", "node", id)
	return domain.NodeEnd
}

func (e *Engine) classifyIntent(ctx context.Context, s *domain.PipelineState) domain.NodeID {
	intent := e.classifier.Classify(ctx, s.Query)
	if !intent.Valid() {
		intent = domain.IntentText
	}
	s.Intent = intent
	e.logger.Debug("intent classified", "intent", intent)
	return routeIntent(intent)
}

func routeIntent(intent domain.Intent) domain.NodeID {
	switch intent {
	case domain.IntentImage:
		return domain.NodeCategorizeImageQuery
	case domain.Intent3D:
		return domain.NodeProcess3D
	case domain.IntentVideo:
		return domain.NodeProcessVideo
	}
	return domain.NodeAnalyzeQuery
}

func (e *Engine) analyzeQuery(ctx context.Context, s *domain.PipelineState) domain.NodeID {
	if e.analyzer.AnalyzeAdditionalDataNeeds(ctx, s.Query) {
		s.Metadata[domain.MetaDataSource] = domain.DataSourceWeb
		return domain.NodeWebSearch
	}
	s.Metadata[domain.MetaDataSource] = domain.DataSourceVector
	return domain.NodeVectorSearch
}

func (e *Engine) webSearch(ctx context.Context, s *domain.PipelineState) domain.NodeID {
	s.WebData = e.searchWeb(ctx, s, domain.NodeWebSearch, s.Query)
	e.logger.Debug("web search completed", "chars", len(s.WebData))
	return domain.NodeGenerateAnswer
}

func (e *Engine) searchWeb(ctx context.Context, s *domain.PipelineState, id domain.NodeID, query string) string {
	if e.web == nil {
		err := domain.Unavailable("web search", errors.New("no web searcher configured"))
		e.fallback(ctx, id, s, err)
		return webFallback(query)
	}
	resp, err := e.web.Search(ctx, query)
	if err != nil {
		e.fallback(ctx, id, s, err)
		return webFallback(query)
	}
	if resp == nil {
		e.fallback(ctx, id, s, domain.Unparseable("web search", errors.New("empty response")))
		return webFallback(query)
	}
	if len(resp.OrganicResults) == 0 {
		return resp.Raw
	}
	return strings.Join(resp.Snippets(webSnippets), " ")
}

func webFallback(query string) string {
	return "Web search unavailable for query: " + query
}

func (e *Engine) vectorSearch(ctx context.Context, s *domain.PipelineState) domain.NodeID {
	s.SearchResults = e.retrieve(ctx, s)

	sufficient, refined := e.analyzer.AnalyzeSearchSufficiency(ctx, s.Query, s.SearchResults)
	s.Metadata[domain.MetaNeedsRefinement] = !sufficient
	if sufficient {
		return domain.NodeGenerateAnswer
	}
	s.RefinedQuery = refined
	if !s.CanRefine() {
		e.logger.Info("refinement limit reached, answering with current results",
			"refinements", s.Refinements, "max", s.MaxRefinements)
		return domain.NodeGenerateAnswer
	}
	e.logger.Debug("search results insufficient", "refined_query", refined)
	return domain.NodeRefineQuery
}

func (e *Engine) retrieve(ctx context.Context, s *domain.PipelineState) []domain.SearchResult {
	var (
		results []domain.SearchResult
		err     error
	)
	if e.vectors == nil {
		err = domain.Unavailable("vector search", errors.New("no vector store configured"))
	} else {
		results, err = e.vectors.Retrieve(ctx, s.Query, e.searchLimit)
	}
	if err == nil {
		if results == nil {
			results = []domain.SearchResult{}
		}
		return results
	}

	e.fallback(ctx, domain.NodeVectorSearch, s, err)
	if domain.KindOf(err) == domain.KindUnavailable {
		return MockSearchResults(s.Query)
	}
	return []domain.SearchResult{{Content: "Fallback result for: " + s.Query, Score: 0.6}}
}

// MockSearchResults stands in for an unreachable vector store.
func MockSearchResults(query string) []domain.SearchResult {
	return []domain.SearchResult{
		{Content: "Mock result for query: " + query, Score: 0.8},
		{Content: "Additional mock data", Score: 0.7},
	}
}

func (e *Engine) refineQuery(ctx context.Context, s *domain.PipelineState) domain.NodeID {
	s.Refinements++
	if s.RefinedQuery != "" {
		s.Query = s.RefinedQuery
	} else {
		s.Query = e.analyzer.RefineQuery(ctx, s.Query)
	}
	s.RefinedQuery = ""
	e.logger.Debug("query refined", "query", s.Query, "refinements", s.Refinements)
	return domain.NodeVectorSearch
}

func (e *Engine) generateAnswer(ctx context.Context, s *domain.PipelineState) domain.NodeID {
	var contextText string
	if s.DataSource() == domain.DataSourceWeb {
		contextText = s.WebData
	} else {
		contents := make([]string, 0, len(s.SearchResults))
		for _, r := range s.SearchResults {
			contents = append(contents, r.Content)
		}
		contextText = strings.Join(contents, " ")
	}

	answer, err := e.generate(ctx, s.Query, contextText)
	if err != nil {
		e.fallback(ctx, domain.NodeGenerateAnswer, s, err)
		switch domain.KindOf(err) {
		case domain.KindUnavailable:
			answer = prompt.AnswerFallback(s.Query, contextText)
		case domain.KindUnparseable:
			answer = prompt.AnswerEmpty(s.Query)
		default:
			answer = prompt.AnswerError(s.Query)
		}
	}
	s.Response = answer
	return domain.NodeAnalyzeAnswer
}

func (e *Engine) generate(ctx context.Context, query, contextText string) (string, error) {
	if e.text == nil {
		return "", domain.Unavailable("generate answer", errors.New("no text generator configured"))
	}
	ctx, cancel := context.WithTimeout(ctx, e.generationTimeout)
	defer cancel()
	answer, err := e.text.Generate(ctx, query, contextText)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(answer) == "" {
		return "", domain.Unparseable("generate answer", errors.New("empty answer"))
	}
	return answer, nil
}

func (e *Engine) analyzeAnswer(ctx context.Context, s *domain.PipelineState) domain.NodeID {
	s.AnswerQuality = e.analyzer.AnalyzeAnswerQuality(ctx, s.Query, s.Response)
	if s.AnswerQuality {
		return domain.NodeEnd
	}
	if !s.CanRefine() {
		e.logger.Info("refinement limit reached, accepting last answer",
			"refinements", s.Refinements, "max", s.MaxRefinements)
		s.Metadata[domain.MetaForcedAccept] = true
		return domain.NodeEnd
	}
	return domain.NodeRefineQuery
}

func (e *Engine) categorizeImageQuery(ctx context.Context, s *domain.PipelineState) domain.NodeID {
	s.CategorizedQuery = e.analyzer.CategorizeImageQuery(ctx, s.Query).Normalize()
	return domain.NodeCreativeWebSearch
}

func (e *Engine) creativeWebSearch(ctx context.Context, s *domain.PipelineState) domain.NodeID {
	cq := s.CategorizedQuery
	query := prompt.CreativeSearchQuery(cq)

	var snippets []string
	switch {
	case e.web == nil:
		e.fallback(ctx, domain.NodeCreativeWebSearch, s, domain.Unavailable("creative web search", errors.New("no web searcher configured")))
	default:
		resp, err := e.web.Search(ctx, query)
		if err != nil {
			e.fallback(ctx, domain.NodeCreativeWebSearch, s, err)
		} else {
			snippets = resp.Snippets(creativeSnippets)
		}
	}

	if len(snippets) > 0 {
		s.CreativeContext = strings.Join(snippets, " ")
	} else {
		s.CreativeContext = prompt.CreativeFallback(cq)
	}
	return domain.NodeGenerateSDQuery
}

func (e *Engine) generateSDQuery(ctx context.Context, s *domain.PipelineState) domain.NodeID {
	sd, err := e.sdQuery(ctx, s)
	if err != nil {
		e.fallback(ctx, domain.NodeGenerateSDQuery, s, err)
		sd = prompt.FallbackSDQuery(s.CategorizedQuery, s.CreativeContext)
	}
	s.SDPrompt = prompt.OptimizeForCLIP(sd.Prompt, prompt.CLIPTokenLimit)
	s.SDExplanation = sd.Explanation
	return domain.NodeGenerateImage
}

func (e *Engine) sdQuery(ctx context.Context, s *domain.PipelineState) (domain.SDQuery, error) {
	if e.sd == nil {
		return domain.SDQuery{}, domain.Unavailable("generate sd query", errors.New("no sd query generator configured"))
	}
	ctx, cancel := context.WithTimeout(ctx, e.generationTimeout)
	defer cancel()
	sd, err := e.sd.GenerateSDQuery(ctx, s.CategorizedQuery, s.CreativeContext)
	if err != nil {
		return domain.SDQuery{}, err
	}
	if strings.TrimSpace(sd.Prompt) == "" {
		return domain.SDQuery{}, domain.Unparseable("generate sd query", errors.New("empty prompt"))
	}
	return sd, nil
}

func (e *Engine) generateImage(ctx context.Context, s *domain.PipelineState) domain.NodeID {
	params := e.imageParams
	res, err := e.renderImage(ctx, s.SDPrompt, params)
	switch {
	case err == nil:
		s.Image = res.ImagePath
		params = res.GenerationParams
	case domain.KindOf(err) == domain.KindUnavailable:
		e.fallback(ctx, domain.NodeGenerateImage, s, err)
		s.Image = PlaceholderImage
	default:
		e.fallback(ctx, domain.NodeGenerateImage, s, err)
		s.Image = ErrorImage
	}
	s.Metadata[domain.MetaSDGenerationArgs] = params.AsMap()
	return domain.NodeGenerateImageExplanation
}

func (e *Engine) renderImage(ctx context.Context, p string, params domain.GenerationParams) (*domain.ImageResult, error) {
	if e.images == nil {
		return nil, domain.Unavailable("generate image", errors.New("no image generator configured"))
	}
	ctx, cancel := context.WithTimeout(ctx, e.generationTimeout)
	defer cancel()
	res, err := e.images.GenerateWithMetadata(ctx, p, params)
	if err != nil {
		return nil, err
	}
	if res == nil || res.ImagePath == "" {
		return nil, domain.Unparseable("generate image", errors.New("no image path returned"))
	}
	return res, nil
}

func (e *Engine) generateImageExplanation(ctx context.Context, s *domain.PipelineState) domain.NodeID {
	explanation, err := e.explain(ctx, s)
	if err != nil {
		e.fallback(ctx, domain.NodeGenerateImageExplanation, s, err)
		explanation = prompt.FallbackExplanation(s.Query, s.CategorizedQuery)
	}
	s.ImageExplanation = explanation
	s.Response = explanation
	return domain.NodeEnd
}

func (e *Engine) explain(ctx context.Context, s *domain.PipelineState) (string, error) {
	if e.text == nil {
		return "", domain.Unavailable("generate sd explanation", errors.New("no text generator configured"))
	}
	ctx, cancel := context.WithTimeout(ctx, e.generationTimeout)
	defer cancel()
	out, err := e.text.GenerateSDExplanation(ctx, s.SDPrompt, s.Query, s.CategorizedQuery)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(out) == "" {
		return "", domain.Unparseable("generate sd explanation", errors.New("empty explanation"))
	}
	return out, nil
}

func asAdapterError(err error) (*domain.AdapterError, bool) {
	var ae *domain.AdapterError
	ok := errors.As(err, &ae)
	return ae, ok
}
