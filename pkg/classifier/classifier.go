// Package classifier maps a user query to one of the pipeline intents.
//
// Classification tries a keyword table first, then an optional LLM, then a
// lenient keyword scan that always yields an intent. It never fails.
package classifier

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/internal/logging"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/domain"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/ports"
)

type rule struct {
	intent   domain.Intent
	keywords []string
}

// keywordRules are checked in order; the first hit wins.
var keywordRules = []rule{
	{domain.IntentImage, []string{"그려줘", "image", "이미지", "그림", "draw", "generate image", "create image"}},
	{domain.Intent3D, []string{"3d", "3D", "입체", "three dimensional", "3-dimensional", "stereo"}},
	{domain.IntentVideo, []string{"동영상", "영상", "video", "비디오", "movie", "4d", "4D", "움직이는", "움직임"}},
	{domain.IntentText, []string{"텍스트", "text", "답변", "answer", "설명", "explain", "알려줘", "tell me"}},
}

var lenientRules = []rule{
	{domain.IntentImage, []string{"그려", "그림", "draw", "image", "picture", "photo"}},
	{domain.Intent3D, []string{"3d", "입체", "three", "dimensional"}},
	{domain.IntentVideo, []string{"동영상", "영상", "video", "movie", "움직임", "4d"}},
}

const systemPrompt = `You are an intent classifier for a chatbot pipeline.
Classify the user's query into one of these categories:

- 'text': General questions, explanations, information requests
- 'image': Requests for image generation, drawing, visual content
- '3d': Requests for 3D models, three-dimensional content
- 'video': Requests for video generation, moving content, 4D content

Respond with only the category name (text, image, 3d, or video).`

// Classifier assigns intents. The zero Completer disables the LLM step.
type Classifier struct {
	llm     ports.Completer
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures the Classifier.
type Option func(*Classifier)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Classifier) {
		c.logger = logger
	}
}

// WithTimeout bounds each LLM call. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(c *Classifier) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// New creates a Classifier. llm may be nil.
func New(llm ports.Completer, opts ...Option) *Classifier {
	c := &Classifier{
		llm:     llm,
		timeout: 60 * time.Second,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify returns the intent of query.
func (c *Classifier) Classify(ctx context.Context, query string) domain.Intent {
	if intent, ok := KeywordIntent(query); ok {
		return intent
	}
	if c.llm == nil {
		return LenientIntent(query)
	}
	return c.classifyLLM(ctx, query)
}

func (c *Classifier) classifyLLM(ctx context.Context, query string) domain.Intent {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out, err := c.llm.Complete(ctx, ports.CompletionRequest{
		System:      systemPrompt,
		User:        "Classify this query: " + query,
		MaxTokens:   10,
		Temperature: 0.1,
	})
	if err != nil {
		if domain.KindOf(err) == domain.KindUnavailable {
			c.logger.Warn("intent classifier unavailable, using keywords", "query", query, "err", err)
		} else {
			c.logger.Error("intent classification failed, using keywords", "query", query, "err", err)
		}
		return LenientIntent(query)
	}

	intent, ok := domain.ParseIntent(out)
	if !ok {
		c.logger.Debug("intent classifier returned unknown label", "label", out)
		return LenientIntent(query)
	}
	return intent
}

// KeywordIntent matches query against the primary keyword table.
func KeywordIntent(query string) (domain.Intent, bool) {
	return match(keywordRules, query)
}

// LenientIntent matches query against the broader table, defaulting to text.
func LenientIntent(query string) domain.Intent {
	if intent, ok := match(lenientRules, query); ok {
		return intent
	}
	return domain.IntentText
}

func match(rules []rule, query string) (domain.Intent, bool) {
	q := strings.ToLower(query)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(q, strings.ToLower(kw)) {
				return r.intent, true
			}
		}
	}
	return "", false
}
