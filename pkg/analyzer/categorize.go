package analyzer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/domain"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/ports"
	"github.com/tidwall/gjson"
)

var carModels = []string{"아반떼", "쏘나타", "그랜저", "투싼", "싼타페", "팰리세이드", "아이오닉", "캐스퍼"}

var designKeywords = []string{"suv", "세단", "해치백", "쿠페", "컨버터블", "전기차", "하이브리드"}

var styleGroups = []struct {
	style    string
	keywords []string
}{
	{"modern", []string{"모던", "현대적", "미래적"}},
	{"classic", []string{"클래식", "고전적"}},
	{"sporty", []string{"스포티", "운동성", "성능"}},
}

var (
	stringFields = []string{"car_name", "style", "color", "perspective", "background"}
	listFields   = []string{"design_elements", "additional_features"}
)

// CategorizeImageQuery decomposes an image request into its attributes.
// The result always carries all seven attributes.
func (a *Analyzer) CategorizeImageQuery(ctx context.Context, query string) domain.CategorizedQuery {
	if a.llm == nil {
		return FallbackCategorize(query)
	}
	out, err := a.complete(ctx, "categorize_image_query", query, ports.CompletionRequest{
		System:      categorizePrompt,
		User:        "Query: " + query,
		MaxTokens:   300,
		Temperature: 0.1,
	})
	if err != nil {
		return FallbackCategorize(query)
	}
	cq, err := ParseCategorized(out)
	if err != nil {
		a.logFailure("categorize_image_query", query, err)
		return FallbackCategorize(query)
	}
	return cq
}

// ParseCategorized validates a model's JSON answer. The text may be wrapped in
// a markdown code fence. Missing keys become absent attributes; keys of the
// wrong type make the whole answer unparseable.
func ParseCategorized(raw string) (domain.CategorizedQuery, error) {
	body := stripFence(raw)
	if !gjson.Valid(body) {
		return domain.CategorizedQuery{}, domain.Unparseable("categorize_image_query", errors.New("invalid JSON"))
	}
	doc := gjson.Parse(body)
	if !doc.IsObject() {
		return domain.CategorizedQuery{}, domain.Unparseable("categorize_image_query", errors.New("expected a JSON object"))
	}

	for _, key := range stringFields {
		v := doc.Get(key)
		if v.Exists() && v.Type != gjson.Null && v.Type != gjson.String {
			return domain.CategorizedQuery{}, domain.Unparseable("categorize_image_query", fmt.Errorf("%s: expected string or null", key))
		}
	}
	for _, key := range listFields {
		v := doc.Get(key)
		if !v.Exists() || v.Type == gjson.Null {
			continue
		}
		if !v.IsArray() {
			return domain.CategorizedQuery{}, domain.Unparseable("categorize_image_query", fmt.Errorf("%s: expected array", key))
		}
		for _, item := range v.Array() {
			if item.Type != gjson.String {
				return domain.CategorizedQuery{}, domain.Unparseable("categorize_image_query", fmt.Errorf("%s: expected array of strings", key))
			}
		}
	}

	cq := domain.CategorizedQuery{
		CarName:            optString(doc.Get("car_name")),
		DesignElements:     stringList(doc.Get("design_elements")),
		Style:              optString(doc.Get("style")),
		Color:              optString(doc.Get("color")),
		Perspective:        optString(doc.Get("perspective")),
		Background:         optString(doc.Get("background")),
		AdditionalFeatures: stringList(doc.Get("additional_features")),
	}
	return cq.Normalize(), nil
}

// FallbackCategorize extracts attributes by keyword matching.
func FallbackCategorize(query string) domain.CategorizedQuery {
	q := strings.ToLower(query)
	cq := domain.EmptyCategorizedQuery()

	for _, m := range carModels {
		if strings.Contains(q, m) {
			cq.CarName = domain.StringPtr(m)
			break
		}
	}
	for _, kw := range designKeywords {
		if strings.Contains(q, kw) {
			cq.DesignElements = append(cq.DesignElements, kw)
		}
	}
	for _, g := range styleGroups {
		if containsAny(q, g.keywords) {
			cq.Style = domain.StringPtr(g.style)
			break
		}
	}
	return cq
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func optString(v gjson.Result) *string {
	if v.Type != gjson.String {
		return nil
	}
	return domain.StringPtr(v.String())
}

func stringList(v gjson.Result) []string {
	out := []string{}
	if !v.IsArray() {
		return out
	}
	for _, item := range v.Array() {
		out = append(out, item.String())
	}
	return out
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
