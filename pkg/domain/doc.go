/*
Package domain contains the core domain models of the babsim pipeline.

It defines the record threaded through every pipeline node, the node
identifiers and their edges, the adapter error taxonomy, and the conversation
history kept per chat session. This package is kept pure and free of external
dependencies like I/O or persistence.

# Key Entities

  - PipelineState: The mutable record of a single pipeline run.
  - Intent: The coarse category (text, image, 3d, video) selecting a branch.
  - NodeID / Edge: The pipeline graph, used by the runtime and for introspection.
  - AdapterError: Typed failures returned by external collaborators.
  - Conversation: The chat history persisted by the session manager.
*/
package domain
