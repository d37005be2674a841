package graph_test

import (
	"strings"
	"testing"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/internal/presentation/graph"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/domain"
)

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		edges    []domain.Edge
		contains []string
	}{
		{
			name:  "Pipeline Shapes",
			edges: domain.Graph(),
			contains: []string{
				"classify_intent((\"classify_intent\"))",
				"END((\"END\"))",
				"analyze_answer{\"analyze_answer\"}",
				"generate_image[[\"generate_image\"]]",
				"web_search[\"web_search\"]",
			},
		},
		{
			name:  "Refine Loop Is Dotted",
			edges: domain.Graph(),
			contains: []string{
				`qdrant_search -. "insufficient" .-> refine_query`,
				"refine_query --> qdrant_search",
				`analyze_answer -- "accept" --> END`,
			},
		},
		{
			name: "ID Sanitization",
			edges: []domain.Edge{
				{From: "path/to/node.v2", To: "hyphen-ated"},
			},
			contains: []string{
				"path_to_node_v2[\"path/to/node.v2\"]",
				"hyphen_ated[\"hyphen-ated\"]",
			},
		},
		{
			name: "Condition Escaping",
			edges: []domain.Edge{
				{From: "A", To: "B", Condition: `intent == "text"`},
			},
			contains: []string{
				`-- "intent == 'text'" -->`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(tt.edges, nil)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("GenerateMermaid() = \n%v\nWant substring: %v", got, want)
				}
			}
			if strings.Contains(got, "classDef") {
				t.Errorf("GenerateMermaid() without overlay must not emit styles")
			}
		})
	}
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	s := domain.NewPipelineState("q", 2)
	s.Visited = []domain.NodeID{
		domain.NodeClassifyIntent, domain.NodeAnalyzeQuery, domain.NodeVectorSearch,
		domain.NodeRefineQuery, domain.NodeVectorSearch, domain.NodeGenerateAnswer,
	}

	got := graph.GenerateMermaid(domain.Graph(), graph.OverlayFromState(s))

	if n := strings.Count(got, "class qdrant_search visited;"); n != 1 {
		t.Errorf("visited nodes must be deduplicated, got %d", n)
	}
	if !strings.Contains(got, "class generate_answer current;") {
		t.Errorf("last visited node must be current:\n%s", got)
	}
}
