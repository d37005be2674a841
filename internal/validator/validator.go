// Package validator checks a pipeline edge list for consistency.
package validator

import (
	"fmt"
	"strings"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/domain"
)

// ValidateGraph checks for unknown nodes, nodes unreachable from start and
// nodes from which the end marker cannot be reached.
func ValidateGraph(edges []domain.Edge, start domain.NodeID) error {
	var errors []string

	forward := make(map[domain.NodeID][]domain.NodeID)
	backward := make(map[domain.NodeID][]domain.NodeID)
	for _, e := range edges {
		for _, id := range []domain.NodeID{e.From, e.To} {
			if !id.Valid() {
				errors = append(errors, fmt.Sprintf("Unknown node '%s' in edge %s -> %s", id, e.From, e.To))
			}
		}
		if e.From.IsTerminal() {
			errors = append(errors, fmt.Sprintf("Edge leaves the end marker: %s -> %s", e.From, e.To))
		}
		forward[e.From] = append(forward[e.From], e.To)
		backward[e.To] = append(backward[e.To], e.From)
	}

	reached := crawl(start, forward)
	finishing := crawl(domain.NodeEnd, backward)

	for _, id := range domain.Nodes() {
		if !reached[id] {
			errors = append(errors, fmt.Sprintf("Unreachable node: '%s'", id))
			continue
		}
		if !finishing[id] {
			errors = append(errors, fmt.Sprintf("Dead end: '%s' never reaches the end", id))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("found %d errors:\n- %s", len(errors), strings.Join(errors, "\n- "))
	}
	return nil
}

// crawl returns every node reachable from start over adj, start included.
func crawl(start domain.NodeID, adj map[domain.NodeID][]domain.NodeID) map[domain.NodeID]bool {
	visited := make(map[domain.NodeID]bool)
	queue := []domain.NodeID{start}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if visited[current] {
			continue
		}
		visited[current] = true

		for _, next := range adj[current] {
			if !visited[next] {
				queue = append(queue, next)
			}
		}
	}
	return visited
}
