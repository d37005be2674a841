package prompt

import (
	"fmt"
	"strings"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/domain"
)

const (
	DefaultCarName = "Hyundai car"
	DefaultStyle   = "modern"

	defaultSDExplanation = "Generated prompt for car design visualization"

	promptMarker      = "PROMPT:"
	explanationMarker = "EXPLANATION:"
)

// ParseSDResponse extracts the prompt and explanation sections of a model
// answer. When either marker is missing the whole text becomes the prompt.
func ParseSDResponse(response string) domain.SDQuery {
	if !strings.Contains(response, promptMarker) || !strings.Contains(response, explanationMarker) {
		return domain.SDQuery{
			Prompt:      strings.TrimSpace(response),
			Explanation: defaultSDExplanation,
		}
	}
	parts := strings.SplitN(response, explanationMarker, 2)
	return domain.SDQuery{
		Prompt:      strings.TrimSpace(strings.ReplaceAll(parts[0], promptMarker, "")),
		Explanation: strings.TrimSpace(parts[1]),
	}
}

// FallbackSDQuery assembles a generic photographic prompt from the request.
func FallbackSDQuery(q domain.CategorizedQuery, creativeContext string) domain.SDQuery {
	car := q.CarNameOr(DefaultCarName)
	style := q.StyleOr(DefaultStyle)

	parts := []string{
		"professional photograph of a " + car,
		style + " design",
		"high quality",
		"detailed",
		"studio lighting",
		"3/4 view",
		"automotive photography",
	}
	parts = append(parts, q.DesignElements...)
	if creativeContext != "" {
		parts = append(parts, "inspired by modern automotive design trends")
	}

	return domain.SDQuery{
		Prompt:      strings.Join(parts, ", "),
		Explanation: fmt.Sprintf("Generated fallback prompt for %s with %s design elements", car, style),
	}
}

// FallbackExplanation describes a generated image without a model.
func FallbackExplanation(originalQuery string, q domain.CategorizedQuery) string {
	car := q.CarNameOr(DefaultCarName)
	style := q.StyleOr(DefaultStyle)

	parts := []string{
		fmt.Sprintf("이 이미지는 %s의 %s 디자인을 보여줍니다.", car, style),
		fmt.Sprintf("사용자의 요청 '%s'에 따라 생성되었습니다.", originalQuery),
	}
	if len(q.DesignElements) > 0 {
		parts = append(parts, "주요 디자인 요소: "+strings.Join(q.DesignElements, ", "))
	}
	parts = append(parts, "전문적인 자동차 사진 스타일로 렌더링되었으며, 현대적인 디자인 언어를 반영합니다.")
	return strings.Join(parts, " ")
}
