package tui

import (
	"bytes"
	"testing"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatState(t *testing.T) {
	s := domain.NewPipelineState("그려줘", 2)
	s.Intent = domain.IntentImage
	s.Response = "이 이미지는 아반떼입니다."
	s.Image = "generated_images/sd_generated_1a2b3c4d.png"
	s.SDPrompt = "Avante, modern, studio lighting"

	got := FormatState(s)
	assert.Contains(t, got, "이 이미지는 아반떼입니다.")
	assert.Contains(t, got, "**Image:** `generated_images/sd_generated_1a2b3c4d.png`")
	assert.Contains(t, got, "> Avante, modern, studio lighting")
	assert.NotContains(t, got, "Video")
}

func TestFormatSummary(t *testing.T) {
	s := domain.NewPipelineState("q", 2)
	s.Intent = domain.IntentText
	s.Metadata[domain.MetaDataSource] = domain.DataSourceVector
	s.Metadata[domain.MetaForcedAccept] = true
	s.Refinements = 2
	s.Visited = make([]domain.NodeID, 11)

	assert.Equal(t, "intent=text source=qdrant_search steps=11 refinements=2 forced_accept", FormatSummary(s))
}

func TestNewRenderer(t *testing.T) {
	r, err := NewRenderer(80)
	require.NoError(t, err)
	out, err := r("**bold**")
	require.NoError(t, err)
	assert.Contains(t, out, "bold")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf)
	assert.Contains(t, buf.String(), "|_.__/")
	assert.NotEmpty(t, Prompt(&buf))
}
