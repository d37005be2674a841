/*
Package babsim is a multimodal question-answering pipeline for Hyundai car
questions.

A query is classified into an intent (text, image, 3d or video) and routed
through a fixed state machine. Text questions are answered from a vector
knowledge base or a web search, with a bounded loop that refines the query
when the retrieved data or the generated answer is judged insufficient.
Image requests are decomposed into design attributes, enriched with web
inspiration, turned into a Stable Diffusion prompt, rendered and explained.

Every external collaborator is optional. When one is missing or fails, the
pipeline substitutes a deterministic fallback, so a run always completes.

# Usage

	eng := babsim.New(
		babsim.WithLLM(openai.NewCompleter(cfg)),
		babsim.WithVectorStore(store),
		babsim.WithTextGenerator(generator),
	)

	state := eng.Run(ctx, "2025 아반떼 하이브리드 연비 알려줘")
	fmt.Println(state.Response)

Chat sessions with persisted history are handled by package session; the
HTTP, MCP and CLI surfaces live under pkg/adapters and cmd/babsim.
*/
package babsim
