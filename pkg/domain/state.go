package domain

// Metadata keys written by the pipeline nodes.
const (
	MetaDataSource       = "data_source"
	MetaNeedsRefinement  = "needs_refinement"
	MetaSDGenerationArgs = "sd_generation_params"
	MetaForcedAccept     = "forced_accept"
	MetaRefinements      = "refinements"
)

// DataSource values stored under MetaDataSource.
const (
	DataSourceWeb    = "web_search"
	DataSourceVector = "qdrant_search"
)

// SearchResult is a single retrieval hit.
type SearchResult struct {
	Content  string         `json:"content"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// PipelineState represents the mutable record of one pipeline run.
// A state belongs to exactly one in-flight query and is never shared between runs.
type PipelineState struct {
	// Query is the current working query. Refinement replaces it.
	Query string `json:"query"`

	// OriginalQuery is the query as submitted by the user.
	OriginalQuery string `json:"original_query"`

	// Intent is set once by the classifier and never changed afterwards.
	Intent Intent `json:"intent"`

	// Response is the user-visible text (answer or image explanation).
	Response string `json:"response"`

	Image string `json:"image"`
	Video string `json:"video"`

	// Metadata is free-form scratch space (data source, refinement flags, generation params).
	Metadata map[string]any `json:"metadata"`

	SearchResults []SearchResult `json:"search_results"`
	WebData       string         `json:"web_data"`

	// RefinedQuery is the candidate replacement query; consumed and cleared by the refine node.
	RefinedQuery  string `json:"refined_query"`
	AnswerQuality bool   `json:"answer_quality"`

	CategorizedQuery CategorizedQuery `json:"categorized_query"`

	CreativeContext  string `json:"creative_context"`
	SDPrompt         string `json:"sd_prompt"`
	SDExplanation    string `json:"sd_explanation"`
	ImageExplanation string `json:"image_explanation"`

	// Refinements counts completed visits to the refine node.
	Refinements int `json:"refinements"`
	// MaxRefinements caps the refinement loop. Once reached the last answer is accepted.
	MaxRefinements int `json:"max_refinements"`

	// Visited records the node visit order.
	Visited []NodeID `json:"visited"`
}

// NewPipelineState creates a clean state for a query.
func NewPipelineState(query string, maxRefinements int) *PipelineState {
	return &PipelineState{
		Query:            query,
		OriginalQuery:    query,
		Metadata:         make(map[string]any),
		SearchResults:    []SearchResult{},
		CategorizedQuery: EmptyCategorizedQuery(),
		MaxRefinements:   maxRefinements,
		Visited:          []NodeID{},
	}
}

// DataSource returns the data source chosen at query analysis, if any.
func (s *PipelineState) DataSource() string {
	v, _ := s.Metadata[MetaDataSource].(string)
	return v
}

// CanRefine reports whether another refinement cycle is allowed.
func (s *PipelineState) CanRefine() bool {
	return s.Refinements < s.MaxRefinements
}

// Clone returns a deep copy of the state.
func (s *PipelineState) Clone() *PipelineState {
	if s == nil {
		return nil
	}
	c := *s
	c.Metadata = copyMap(s.Metadata)
	c.SearchResults = make([]SearchResult, len(s.SearchResults))
	for i, r := range s.SearchResults {
		r.Metadata = copyMap(r.Metadata)
		c.SearchResults[i] = r
	}
	c.CategorizedQuery = s.CategorizedQuery.Clone()
	c.Visited = append([]NodeID(nil), s.Visited...)
	return &c
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if sub, ok := v.(map[string]any); ok {
			out[k] = copyMap(sub)
			continue
		}
		out[k] = v
	}
	return out
}
