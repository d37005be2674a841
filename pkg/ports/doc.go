/*
Package ports defines the driven ports (interfaces) of the babsim pipeline.

These interfaces decouple the orchestration core from the external
collaborators it calls: language models, web search, vector retrieval, text and
image generation, and chat history persistence.

# Key Interfaces

  - Completer: Short LLM judgements (classification, yes/no, JSON extraction, rewrites).
  - WebSearcher / VectorStore: Ranked snippet providers.
  - TextGenerator / SDQueryGenerator / ImageGenerator: Content generation backends.
  - HistoryStore: Persists chat conversations per session.
  - DistributedLocker: Distributed locking for concurrent session access.

Every implementation reports failures as *domain.AdapterError so the pipeline
can choose a fallback by error kind.
*/
package ports
