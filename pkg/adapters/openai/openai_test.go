package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/domain"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer mimics the subset of the OpenAI REST API the adapters use.
type fakeServer struct {
	mu       sync.Mutex
	reply    string
	status   int
	models   map[string]bool
	requests []map[string]any
	srv      *httptest.Server
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	f := &fakeServer{status: http.StatusOK, models: map[string]bool{"exaone": true}}
	f.srv = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeServer) config(model string) Config {
	return Config{APIKey: "test", BaseURL: f.srv.URL + "/v1/", Model: model}
}

func (f *fakeServer) lastRequest() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return nil
	}
	return f.requests[len(f.requests)-1]
}

func (f *fakeServer) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if f.status != http.StatusOK {
		w.WriteHeader(f.status)
		_, _ = io.WriteString(w, `{"error":{"message":"rejected","type":"invalid_request_error"}}`)
		return
	}

	if strings.HasPrefix(r.URL.Path, "/v1/models/") {
		id := strings.TrimPrefix(r.URL.Path, "/v1/models/")
		if !f.models[id] {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"error":{"message":"no such model","type":"invalid_request_error"}}`)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"id": id, "object": "model", "created": 1, "owned_by": "test"})
		return
	}

	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)
	f.requests = append(f.requests, body)

	switch r.URL.Path {
	case "/v1/chat/completions":
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "c1", "object": "chat.completion", "created": 1, "model": body["model"],
			"choices": []any{map[string]any{
				"index": 0, "finish_reason": "stop",
				"message": map[string]any{"role": "assistant", "content": f.reply},
			}},
		})
	case "/v1/embeddings":
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list", "model": body["model"],
			"data":  []any{map[string]any{"object": "embedding", "index": 0, "embedding": []float64{0.25, -0.5, 1}}},
			"usage": map[string]any{"prompt_tokens": 1, "total_tokens": 1},
		})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func TestCompleter(t *testing.T) {
	f := newFakeServer(t)
	f.reply = "  yes \n"
	c := NewCompleter(f.config("gpt-4o-mini"))

	out, err := c.Complete(context.Background(), ports.CompletionRequest{
		System: "judge", User: "is it?", MaxTokens: 10, Temperature: 0.1,
	})
	require.NoError(t, err)
	assert.Equal(t, "yes", out)

	req := f.lastRequest()
	assert.Equal(t, "gpt-4o-mini", req["model"])
	assert.EqualValues(t, 10, req["max_tokens"])
	assert.Len(t, req["messages"], 2)
}

func TestCompleter_Errors(t *testing.T) {
	t.Run("empty completion is unparseable", func(t *testing.T) {
		f := newFakeServer(t)
		_, err := NewCompleter(f.config("m")).Complete(context.Background(), ports.CompletionRequest{User: "x"})
		assert.Equal(t, domain.KindUnparseable, domain.KindOf(err))
	})
	t.Run("unauthorized is unavailable", func(t *testing.T) {
		f := newFakeServer(t)
		f.status = http.StatusUnauthorized
		_, err := NewCompleter(f.config("m")).Complete(context.Background(), ports.CompletionRequest{User: "x"})
		assert.Equal(t, domain.KindUnavailable, domain.KindOf(err))
	})
	t.Run("bad request is a call failure", func(t *testing.T) {
		f := newFakeServer(t)
		f.status = http.StatusBadRequest
		_, err := NewCompleter(f.config("m")).Complete(context.Background(), ports.CompletionRequest{User: "x"})
		assert.Equal(t, domain.KindCallFailure, domain.KindOf(err))
	})
}

func TestEmbedder(t *testing.T) {
	f := newFakeServer(t)
	e := NewEmbedder(f.config("text-embedding-3-small"), 3)

	vec, err := e.Embed(context.Background(), "아반떼")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.25, -0.5, 1}, vec)
	assert.Equal(t, 3, e.Dimensions())
	assert.EqualValues(t, 3, f.lastRequest()["dimensions"])
}

func TestGenerator_Answer(t *testing.T) {
	f := newFakeServer(t)
	f.reply = "The Avante averages 15 km/l."
	g := NewGenerator(GeneratorConfig{Config: f.config("exaone"), MaxInputTokens: 64})

	out, err := g.Generate(context.Background(), "아반떼 연비", strings.Repeat("fuel economy data ", 200))
	require.NoError(t, err)
	assert.Equal(t, "The Avante averages 15 km/l.", out)

	msgs := f.lastRequest()["messages"].([]any)
	user := msgs[len(msgs)-1].(map[string]any)["content"].(string)
	assert.True(t, strings.HasSuffix(user, "Question: 아반떼 연비\n\nAnswer:"))
	assert.Less(t, len(user), 200*len("fuel economy data "), "context is trimmed to the input budget")
	assert.EqualValues(t, 200, f.lastRequest()["max_tokens"])
}

func TestGenerator_ModelNotServed(t *testing.T) {
	f := newFakeServer(t)
	g := NewGenerator(GeneratorConfig{Config: f.config("missing")})

	_, err := g.Generate(context.Background(), "q", "")
	assert.Equal(t, domain.KindUnavailable, domain.KindOf(err))
}

func TestGenerator_NotConfigured(t *testing.T) {
	g := NewGenerator(GeneratorConfig{Config: Config{Model: "exaone"}})
	_, err := g.GenerateSDQuery(context.Background(), domain.EmptyCategorizedQuery(), "")
	assert.Equal(t, domain.KindUnavailable, domain.KindOf(err))
}

func TestGenerator_SDQuery(t *testing.T) {
	f := newFakeServer(t)
	f.reply = "PROMPT: sleek white Ioniq 6, studio lighting\nEXPLANATION: clean aerodynamic lines"
	g := NewGenerator(GeneratorConfig{Config: f.config("exaone")})

	cq := domain.EmptyCategorizedQuery()
	cq.CarName = domain.StringPtr("Ioniq 6")
	sd, err := g.GenerateSDQuery(context.Background(), cq, "")
	require.NoError(t, err)
	assert.Equal(t, "sleek white Ioniq 6, studio lighting", sd.Prompt)
	assert.Equal(t, "clean aerodynamic lines", sd.Explanation)
	assert.EqualValues(t, 150, f.lastRequest()["max_tokens"])

	f.reply = "a red sports car"
	sd, err = g.GenerateSDQuery(context.Background(), cq, "")
	require.NoError(t, err)
	assert.Equal(t, "a red sports car", sd.Prompt)
	assert.Equal(t, "Generated prompt for car design visualization", sd.Explanation)
}

func TestGenerator_SDExplanation(t *testing.T) {
	f := newFakeServer(t)
	f.reply = "A white sedan shown from the front."
	g := NewGenerator(GeneratorConfig{Config: f.config("exaone")})

	out, err := g.GenerateSDExplanation(context.Background(), "white sedan", "흰색 세단", domain.EmptyCategorizedQuery())
	require.NoError(t, err)
	assert.Equal(t, "A white sedan shown from the front.", out)

	f.reply = ""
	_, err = g.GenerateSDExplanation(context.Background(), "white sedan", "흰색 세단", domain.EmptyCategorizedQuery())
	assert.Equal(t, domain.KindUnparseable, domain.KindOf(err))
}

func TestTokenBudget(t *testing.T) {
	b := &TokenBudget{}
	text := strings.Repeat("hello world ", 50)

	assert.Equal(t, text, b.Truncate(text, 10_000))
	assert.Empty(t, b.Truncate(text, 0))

	short := b.Truncate(text, 10)
	assert.Less(t, len(short), len(text))
	assert.LessOrEqual(t, b.Count(short), 10)
}
