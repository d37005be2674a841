package domain

// OrganicResult is one organic hit of a web search.
type OrganicResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// WebSearchResponse is the validated payload of a web search call.
// Raw keeps the original body for providers that return no organic results.
type WebSearchResponse struct {
	OrganicResults []OrganicResult `json:"organic_results"`
	Raw            string          `json:"-"`
}

// Snippets returns the non-empty snippets among the first n organic results.
func (r *WebSearchResponse) Snippets(n int) []string {
	if r == nil {
		return nil
	}
	results := r.OrganicResults
	if len(results) > n {
		results = results[:n]
	}
	out := make([]string, 0, len(results))
	for _, o := range results {
		if o.Snippet != "" {
			out = append(out, o.Snippet)
		}
	}
	return out
}

// SDQuery is a synthesized image prompt with its rationale.
type SDQuery struct {
	Prompt      string `json:"prompt"`
	Explanation string `json:"explanation"`
}

// Default image generation parameters.
const (
	DefaultNegativePrompt = "blurry, low quality, distorted, deformed, ugly, bad anatomy"
	DefaultInferenceSteps = 30
	DefaultGuidanceScale  = 7.5
	DefaultImageSize      = 1024
)

// GenerationParams controls a diffusion run.
type GenerationParams struct {
	NegativePrompt    string  `json:"negative_prompt" mapstructure:"negative_prompt"`
	NumInferenceSteps int     `json:"num_inference_steps" mapstructure:"num_inference_steps"`
	GuidanceScale     float64 `json:"guidance_scale" mapstructure:"guidance_scale"`
	Width             int     `json:"width" mapstructure:"width"`
	Height            int     `json:"height" mapstructure:"height"`
	Seed              int64   `json:"seed,omitempty" mapstructure:"seed"`
}

// DefaultGenerationParams returns the stock parameters.
func DefaultGenerationParams() GenerationParams {
	return GenerationParams{
		NegativePrompt:    DefaultNegativePrompt,
		NumInferenceSteps: DefaultInferenceSteps,
		GuidanceScale:     DefaultGuidanceScale,
		Width:             DefaultImageSize,
		Height:            DefaultImageSize,
	}
}

// WithDefaults fills zero fields from DefaultGenerationParams.
func (p GenerationParams) WithDefaults() GenerationParams {
	d := DefaultGenerationParams()
	if p.NegativePrompt == "" {
		p.NegativePrompt = d.NegativePrompt
	}
	if p.NumInferenceSteps <= 0 {
		p.NumInferenceSteps = d.NumInferenceSteps
	}
	if p.GuidanceScale <= 0 {
		p.GuidanceScale = d.GuidanceScale
	}
	if p.Width <= 0 {
		p.Width = d.Width
	}
	if p.Height <= 0 {
		p.Height = d.Height
	}
	return p
}

// AsMap returns the map form stored in pipeline metadata.
func (p GenerationParams) AsMap() map[string]any {
	m := map[string]any{
		"negative_prompt":     p.NegativePrompt,
		"num_inference_steps": p.NumInferenceSteps,
		"guidance_scale":      p.GuidanceScale,
		"width":               p.Width,
		"height":              p.Height,
	}
	if p.Seed != 0 {
		m["seed"] = p.Seed
	}
	return m
}

// ImageResult describes a generated image.
type ImageResult struct {
	ImagePath        string           `json:"image_path"`
	ThumbnailPath    string           `json:"thumbnail_path,omitempty"`
	Prompt           string           `json:"prompt"`
	NegativePrompt   string           `json:"negative_prompt"`
	GenerationParams GenerationParams `json:"generation_params"`
}
