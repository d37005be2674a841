package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/domain"
)

// Renderer turns markdown into terminal output.
type Renderer func(string) (string, error)

// NewRenderer returns a Renderer that renders markdown using glamour.
// A width of zero keeps glamour's default word wrap.
func NewRenderer(width int) (Renderer, error) {
	opts := []glamour.TermRendererOption{
		glamour.WithAutoStyle(), // Automatically detect light/dark background
	}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	return r.Render, nil
}

// Plain is the Renderer used when output is not a terminal.
func Plain(markdown string) (string, error) {
	return markdown, nil
}

// FormatState formats the user-facing part of a run as markdown.
func FormatState(s *domain.PipelineState) string {
	var sb strings.Builder
	sb.WriteString(s.Response)
	sb.WriteString("\n")

	if s.Image != "" {
		fmt.Fprintf(&sb, "\n**Image:** `%s`\n", s.Image)
	}
	if s.Video != "" {
		fmt.Fprintf(&sb, "\n**Video:** `%s`\n", s.Video)
	}
	if s.SDPrompt != "" {
		fmt.Fprintf(&sb, "\n> %s\n", s.SDPrompt)
	}
	return sb.String()
}

// FormatSummary is a one-line description of how a run went.
func FormatSummary(s *domain.PipelineState) string {
	parts := []string{"intent=" + string(s.Intent)}
	if src := s.DataSource(); src != "" {
		parts = append(parts, "source="+src)
	}
	parts = append(parts, fmt.Sprintf("steps=%d", len(s.Visited)))
	if s.Refinements > 0 {
		parts = append(parts, fmt.Sprintf("refinements=%d", s.Refinements))
	}
	if forced, _ := s.Metadata[domain.MetaForcedAccept].(bool); forced {
		parts = append(parts, "forced_accept")
	}
	return strings.Join(parts, " ")
}
