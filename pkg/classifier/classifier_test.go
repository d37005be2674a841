package classifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/internal/testutils"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_Keywords(t *testing.T) {
	c := New(nil)

	tests := []struct {
		query string
		want  domain.Intent
	}{
		{"아반떼 그려줘", domain.IntentImage},
		{"Generate Image of a coupe", domain.IntentImage},
		{"팰리세이드 3D 모델", domain.Intent3D},
		{"show it in Stereo", domain.Intent3D},
		{"아이오닉 주행 동영상", domain.IntentVideo},
		{"a 4D tour", domain.IntentVideo},
		{"쏘나타 연비 알려줘", domain.IntentText},
		{"Tell me about Casper", domain.IntentText},
		// image wins over text when both match
		{"이미지 설명", domain.IntentImage},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(context.Background(), tt.query))
		})
	}
}

func TestClassify_NoKeywordIsText(t *testing.T) {
	c := New(nil)
	assert.Equal(t, domain.IntentText, c.Classify(context.Background(), "그랜저 가격"))
	assert.Equal(t, domain.IntentText, c.Classify(context.Background(), ""))
}

func TestClassify_LLM(t *testing.T) {
	tests := []struct {
		name  string
		out   string
		err   error
		query string
		want  domain.Intent
	}{
		{name: "valid label", out: " Video.", query: "투싼이 달리는 모습", want: domain.IntentVideo},
		{name: "off-list label uses lenient scan", out: "picture", query: "a photo of tucson", want: domain.IntentImage},
		{name: "off-list label defaults to text", out: "banana", query: "투싼 가격", want: domain.IntentText},
		{name: "unavailable", err: domain.Unavailable("complete", errors.New("no key")), query: "three wheels", want: domain.Intent3D},
		{name: "call failure", err: errors.New("boom"), query: "그랜저", want: domain.IntentText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := testutils.StaticCompleter(tt.out, tt.err)
			c := New(llm)
			assert.Equal(t, tt.want, c.Classify(context.Background(), tt.query))

			reqs := llm.Requests()
			require.Len(t, reqs, 1)
			assert.Equal(t, 10, reqs[0].MaxTokens)
			assert.Equal(t, 0.1, reqs[0].Temperature)
			assert.Equal(t, "Classify this query: "+tt.query, reqs[0].User)
		})
	}
}

func TestClassify_KeywordHitSkipsLLM(t *testing.T) {
	llm := testutils.StaticCompleter("video", nil)
	c := New(llm)
	assert.Equal(t, domain.IntentImage, c.Classify(context.Background(), "draw a car"))
	assert.Empty(t, llm.Requests())
}

func TestLenientIntent(t *testing.T) {
	assert.Equal(t, domain.IntentImage, LenientIntent("그려 주세요"))
	assert.Equal(t, domain.Intent3D, LenientIntent("dimensional view"))
	assert.Equal(t, domain.IntentVideo, LenientIntent("movie"))
	assert.Equal(t, domain.IntentText, LenientIntent("가격"))
}

func TestClassify_NonPositiveTimeoutIgnored(t *testing.T) {
	for _, d := range []time.Duration{0, -time.Second} {
		c := New(testutils.StaticCompleter("video", nil), WithTimeout(d))
		assert.Equal(t, domain.IntentVideo, c.Classify(context.Background(), "안녕하세요 반갑습니다"))
	}
}
