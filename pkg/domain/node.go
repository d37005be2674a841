package domain

// NodeID identifies a pipeline node.
type NodeID string

// Pipeline nodes. NodeEnd is the terminal marker, not an executable node.
const (
	NodeClassifyIntent           NodeID = "classify_intent"
	NodeAnalyzeQuery             NodeID = "analyze_query"
	NodeWebSearch                NodeID = "web_search"
	NodeVectorSearch             NodeID = "qdrant_search"
	NodeRefineQuery              NodeID = "refine_query"
	NodeGenerateAnswer           NodeID = "generate_answer"
	NodeAnalyzeAnswer            NodeID = "analyze_answer"
	NodeCategorizeImageQuery     NodeID = "categorize_image_query"
	NodeCreativeWebSearch        NodeID = "creative_web_search"
	NodeGenerateSDQuery          NodeID = "generate_sd_query"
	NodeGenerateImage            NodeID = "generate_image"
	NodeGenerateImageExplanation NodeID = "generate_image_explanation"
	NodeProcess3D                NodeID = "process_3d"
	NodeProcessVideo             NodeID = "process_video"

	NodeEnd NodeID = "__end__"
)

// EntryNode is where every run starts.
const EntryNode = NodeClassifyIntent

// Nodes returns every executable node in declaration order.
func Nodes() []NodeID {
	return []NodeID{
		NodeClassifyIntent,
		NodeAnalyzeQuery,
		NodeWebSearch,
		NodeVectorSearch,
		NodeRefineQuery,
		NodeGenerateAnswer,
		NodeAnalyzeAnswer,
		NodeCategorizeImageQuery,
		NodeCreativeWebSearch,
		NodeGenerateSDQuery,
		NodeGenerateImage,
		NodeGenerateImageExplanation,
		NodeProcess3D,
		NodeProcessVideo,
	}
}

// IsTerminal reports whether id ends a run.
func (id NodeID) IsTerminal() bool {
	return id == NodeEnd
}

// Valid reports whether id names a node of the pipeline (or the terminal marker).
func (id NodeID) Valid() bool {
	if id == NodeEnd {
		return true
	}
	for _, n := range Nodes() {
		if n == id {
			return true
		}
	}
	return false
}
