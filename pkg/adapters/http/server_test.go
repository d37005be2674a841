package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	babsim "github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/adapters/memory"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/domain"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, opts ...Option) (*httptest.Server, *StreamManager) {
	t.Helper()
	streams := NewStreamManager(nil)
	eng := babsim.New(babsim.WithLifecycleHooks(streams.Hooks()))
	mgr := session.NewManager(eng, memory.NewStore())
	srv := httptest.NewServer(NewHandler(mgr, append([]Option{WithStreams(streams)}, opts...)...))
	t.Cleanup(srv.Close)
	return srv, streams
}

func postChat(t *testing.T, srv *httptest.Server, body string) (*http.Response, ChatResponse) {
	t.Helper()
	resp, err := http.Post(srv.URL+"/chat", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out ChatResponse
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func TestChat(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, out := postChat(t, srv, `{"query":"아반떼 신형 SUV 스타일로 그려줘","session_id":"s1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "s1", out.SessionID)
	assert.Equal(t, domain.IntentImage, out.Intent)
	assert.NotEmpty(t, out.Response)
	assert.NotEmpty(t, out.Image)
	assert.Equal(t, domain.NodeClassifyIntent, out.Visited[0])

	resp, out = postChat(t, srv, `{"query":"아반떼 연비 알려줘"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, out.SessionID, "a session id is generated")
	assert.Equal(t, domain.IntentText, out.Intent)
	assert.Equal(t, domain.DataSourceVector, out.DataSource)
}

func TestChat_InvalidBody(t *testing.T) {
	srv, _ := newTestServer(t)

	for name, body := range map[string]string{
		"missing query": `{"session_id":"s1"}`,
		"empty query":   `{"query":""}`,
		"blank query":   `{"query":"   "}`,
		"unknown field": `{"query":"q","mode":"fast"}`,
		"wrong type":    `{"query":42}`,
		"malformed":     `{"query":`,
	} {
		t.Run(name, func(t *testing.T) {
			resp, _ := postChat(t, srv, body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestSessions(t *testing.T) {
	srv, _ := newTestServer(t)
	for _, q := range []string{"쏘나타 가격", "투싼 연비", "캐스퍼 3D 모델"} {
		resp, _ := postChat(t, srv, `{"query":"`+q+`","session_id":"abc"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, err := http.Get(srv.URL + "/sessions")
	require.NoError(t, err)
	var list map[string][]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	resp.Body.Close()
	assert.Equal(t, []string{"abc"}, list["sessions"])

	resp, err = http.Get(srv.URL + "/sessions/abc?limit=1")
	require.NoError(t, err)
	var conv domain.Conversation
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&conv))
	resp.Body.Close()
	require.Len(t, conv.Turns, 1)
	assert.Equal(t, "캐스퍼 3D 모델", conv.Turns[0].Query)
	assert.Equal(t, domain.Intent3D, conv.Turns[0].Intent)

	resp, err = http.Get(srv.URL + "/sessions/abc?limit=many")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/sessions/abc", nil)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/sessions/abc")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGraphEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/graph")
	require.NoError(t, err)
	var edges []domain.Edge
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&edges))
	resp.Body.Close()
	assert.Equal(t, domain.Graph(), edges)

	resp, err = http.Get(srv.URL + "/graph.mmd")
	require.NoError(t, err)
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	resp.Body.Close()
	assert.True(t, strings.HasPrefix(buf.String(), "graph TD"))
}

func TestInfoHealthAndSpec(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/info")
	require.NoError(t, err)
	var info map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	resp.Body.Close()
	assert.Equal(t, babsim.Version, info["version"])
	assert.Equal(t, "1.0.0", info["api_version"])

	resp, err = http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/openapi.yaml")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "text/yaml", resp.Header.Get("Content-Type"))

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/chat", nil)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestImagesAndMetrics(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sd_generated_00000000.png"), []byte("png"), 0o644))
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("babsim_runs_total 1\n"))
	})
	srv, _ := newTestServer(t, WithImageDir(dir), WithMetricsHandler(metrics))

	resp, err := http.Get(srv.URL + "/images/sd_generated_00000000.png")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSubscribeEvents_Session(t *testing.T) {
	srv, _ := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events?session_id=live", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	scanner := bufio.NewScanner(resp.Body)
	require.True(t, scanner.Scan())
	assert.Equal(t, "event: ping", scanner.Text())

	chatDone := make(chan struct{})
	go func() {
		defer close(chatDone)
		r, err := http.Post(srv.URL+"/chat", "application/json", strings.NewReader(`{"query":"주행 영상 보여줘","session_id":"live"}`))
		if err == nil {
			r.Body.Close()
		}
	}()

	var types []string
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: {") {
			continue
		}
		var ev domain.EventBase
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev))
		assert.Equal(t, "live", ev.SessionID)
		types = append(types, string(ev.Type))
		if ev.Type == domain.EventRunDone {
			break
		}
	}
	<-chatDone

	assert.Equal(t, []string{"node_enter", "node_leave", "node_enter", "node_leave", "run_complete"}, types)
}

func TestStreamManager(t *testing.T) {
	sm := NewStreamManager(nil)
	one, cancelOne := sm.Subscribe("one")
	all, cancelAll := sm.Subscribe("")

	sm.Broadcast("one", "a")
	sm.Broadcast("two", "b")

	assert.Equal(t, "a", <-one)
	assert.Equal(t, "a", <-all)
	assert.Equal(t, "b", <-all)
	assert.Len(t, one, 0)

	cancelOne()
	cancelAll()
	_, open := <-one
	assert.False(t, open)
	assert.Empty(t, sm.subscribers)

	// a full buffer drops instead of blocking
	slow, cancelSlow := sm.Subscribe("slow")
	defer cancelSlow()
	for i := 0; i < cap(slow)+5; i++ {
		sm.Broadcast("slow", "x")
	}
	assert.Len(t, slow, cap(slow))
}
