package domain

// Edge is a possible move between two nodes.
// Condition is a human readable label; empty means unconditional.
type Edge struct {
	From      NodeID `json:"from"`
	To        NodeID `json:"to"`
	Condition string `json:"condition,omitempty"`
}

// Graph returns the static edge list of the pipeline.
// The runtime transition function only ever produces moves listed here.
func Graph() []Edge {
	return []Edge{
		{From: NodeClassifyIntent, To: NodeAnalyzeQuery, Condition: "intent=text"},
		{From: NodeClassifyIntent, To: NodeCategorizeImageQuery, Condition: "intent=image"},
		{From: NodeClassifyIntent, To: NodeProcess3D, Condition: "intent=3d"},
		{From: NodeClassifyIntent, To: NodeProcessVideo, Condition: "intent=video"},

		{From: NodeAnalyzeQuery, To: NodeWebSearch, Condition: "needs external data"},
		{From: NodeAnalyzeQuery, To: NodeVectorSearch, Condition: "local knowledge"},

		{From: NodeWebSearch, To: NodeGenerateAnswer},

		{From: NodeVectorSearch, To: NodeGenerateAnswer, Condition: "sufficient"},
		{From: NodeVectorSearch, To: NodeRefineQuery, Condition: "insufficient"},
		{From: NodeRefineQuery, To: NodeVectorSearch},

		{From: NodeGenerateAnswer, To: NodeAnalyzeAnswer},
		{From: NodeAnalyzeAnswer, To: NodeEnd, Condition: "accept"},
		{From: NodeAnalyzeAnswer, To: NodeRefineQuery, Condition: "refine"},

		{From: NodeCategorizeImageQuery, To: NodeCreativeWebSearch},
		{From: NodeCreativeWebSearch, To: NodeGenerateSDQuery},
		{From: NodeGenerateSDQuery, To: NodeGenerateImage},
		{From: NodeGenerateImage, To: NodeGenerateImageExplanation},
		{From: NodeGenerateImageExplanation, To: NodeEnd},

		{From: NodeProcess3D, To: NodeEnd},
		{From: NodeProcessVideo, To: NodeEnd},
	}
}

// HasEdge reports whether the graph allows moving from one node to another.
func HasEdge(from, to NodeID) bool {
	for _, e := range Graph() {
		if e.From == from && e.To == to {
			return true
		}
	}
	return false
}
