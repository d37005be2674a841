package graph

import (
	"fmt"
	"strings"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/domain"
)

// GraphOverlay contains run data to visualize on the graph.
type GraphOverlay struct {
	VisitedNodes []domain.NodeID
	CurrentNode  domain.NodeID
}

// OverlayFromState marks the nodes visited by a finished run. The last
// visited node is highlighted as current.
func OverlayFromState(s *domain.PipelineState) *GraphOverlay {
	o := &GraphOverlay{VisitedNodes: s.Visited}
	if n := len(s.Visited); n > 0 {
		o.CurrentNode = s.Visited[n-1]
	}
	return o
}

// decisionNodes branch on a verdict.
var decisionNodes = map[domain.NodeID]bool{
	domain.NodeClassifyIntent: true,
	domain.NodeAnalyzeQuery:   true,
	domain.NodeVectorSearch:   true,
	domain.NodeAnalyzeAnswer:  true,
}

// generationNodes call a generation model.
var generationNodes = map[domain.NodeID]bool{
	domain.NodeGenerateAnswer:           true,
	domain.NodeGenerateSDQuery:          true,
	domain.NodeGenerateImage:            true,
	domain.NodeGenerateImageExplanation: true,
}

// GenerateMermaid produces a Mermaid flowchart of the pipeline edges.
// It applies semantic styling:
// - Entry and end: ((Circle))
// - Decision: {Rhombus}
// - Generation: [[Subroutine]]
// - Default: [Rectangle]
// Edges into the refine node are dotted. Overlay styles are applied if provided.
func GenerateMermaid(edges []domain.Edge, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	declared := make(map[domain.NodeID]bool)
	declare := func(id domain.NodeID) {
		if declared[id] {
			return
		}
		declared[id] = true
		opener, closer := "[", "]"
		label := string(id)
		switch {
		case id == domain.EntryNode || id.IsTerminal():
			opener, closer = "((", "))"
			if id.IsTerminal() {
				label = "END"
			}
		case decisionNodes[id]:
			opener, closer = "{", "}"
		case generationNodes[id]:
			opener, closer = "[[", "]]"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", sanitizeMermaidID(id), opener, label, closer)
	}

	for _, e := range edges {
		declare(e.From)
		declare(e.To)
	}
	sb.WriteString("\n")

	for _, e := range edges {
		arrow := "-->"
		loop := e.To == domain.NodeRefineQuery
		if loop {
			arrow = "-.->"
		}
		if e.Condition != "" {
			// Escape double quotes in condition for Mermaid label
			cond := strings.ReplaceAll(e.Condition, "\"", "'")
			arrow = fmt.Sprintf("-- \"%s\" -->", cond)
			if loop {
				arrow = fmt.Sprintf("-. \"%s\" .->", cond)
			}
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", sanitizeMermaidID(e.From), arrow, sanitizeMermaidID(e.To))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			safeID := sanitizeMermaidID(id)
			if !seen[safeID] && safeID != "" {
				seen[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}

		if overlay.CurrentNode != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode))
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id domain.NodeID) string {
	if id.IsTerminal() {
		return "END"
	}
	s := strings.ReplaceAll(string(id), ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	return s
}
