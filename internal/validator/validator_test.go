package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/domain"
)

func TestValidateGraph_Pipeline(t *testing.T) {
	require.NoError(t, ValidateGraph(domain.Graph(), domain.EntryNode))
}

func TestValidateGraph_Broken(t *testing.T) {
	without := func(from, to domain.NodeID) []domain.Edge {
		var out []domain.Edge
		for _, e := range domain.Graph() {
			if e.From == from && e.To == to {
				continue
			}
			out = append(out, e)
		}
		return out
	}

	tests := []struct {
		name  string
		edges []domain.Edge
		want  string
	}{
		{
			name:  "unreachable branch",
			edges: without(domain.NodeClassifyIntent, domain.NodeProcessVideo),
			want:  "Unreachable node: 'process_video'",
		},
		{
			name:  "dead end",
			edges: without(domain.NodeProcess3D, domain.NodeEnd),
			want:  "Dead end: 'process_3d'",
		},
		{
			name:  "unknown node",
			edges: append(domain.Graph(), domain.Edge{From: domain.NodeWebSearch, To: "ghost_node"}),
			want:  "Unknown node 'ghost_node'",
		},
		{
			name:  "edge out of end",
			edges: append(domain.Graph(), domain.Edge{From: domain.NodeEnd, To: domain.NodeClassifyIntent}),
			want:  "Edge leaves the end marker",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateGraph(tt.edges, domain.EntryNode)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
